package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cashbookhq/cashbook/internal/core/events"
	"github.com/cashbookhq/cashbook/internal/materializer"
	materializerPostgres "github.com/cashbookhq/cashbook/internal/materializer/postgres"
	"github.com/cashbookhq/cashbook/pkg/logger"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start and manage background workers such as the recurring expense materializer.`,
}

var materializerWorkerCmd = &cobra.Command{
	Use:   "materializer",
	Short: "Start the recurring expense materializer",
	Long:  `Sweep due recurring expense templates on an interval and materialize their occurrences.`,
	Run: func(cmd *cobra.Command, args []string) {
		startMaterializerWorker()
	},
}

var (
	sweepInterval time.Duration
	maxPeriods    int
	runOnce       bool
)

func startMaterializerWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(os.Getenv("APP_ENV"), config.Observability.Logging.Level)
	log := logger.LoggerWrapper()

	interval := config.Materializer.SweepInterval
	if sweepInterval > 0 {
		interval = sweepInterval
	}
	periods := config.Materializer.MaxPeriodsPerRun
	if maxPeriods > 0 {
		periods = maxPeriods
	}

	db, err := initDB(config.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init db: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open gorm connection: %v\n", err)
		os.Exit(1)
	}

	bus := events.NewEventBus(log)
	materializer.NewEventHandler(log).RegisterEventHandlers(bus)
	engine := materializer.NewEngine(materializerPostgres.NewStore(gormDB), bus, log, periods)

	log.Info("starting materializer worker",
		"sweep_interval", interval.String(),
		"max_periods_per_run", periods,
		"run_once", runOnce)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info("received signal, shutting down materializer worker", "signal", sig)
		cancel()
	}()

	sweep := func() {
		batchCtx, batchCancel := context.WithTimeout(ctx, config.Materializer.BatchTimeout)
		defer batchCancel()

		report, err := engine.MaterializeDue(batchCtx, time.Now().UTC())
		if err != nil {
			log.Error("materialization sweep failed to start", "error", err)
			return
		}
		log.Info("materialization sweep complete",
			"templates_processed", report.TemplatesProcessed,
			"occurrences_created", report.OccurrencesCreated,
			"errors", len(report.Errors))
	}

	sweep()
	if runOnce {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("materializer worker stopped")
			return
		case <-ticker.C:
			sweep()
		}
	}
}

func init() {
	materializerWorkerCmd.Flags().DurationVar(&sweepInterval, "sweep-interval", 0, "Sweep interval (overrides config)")
	materializerWorkerCmd.Flags().IntVar(&maxPeriods, "max-periods", 0, "Max periods per template per run (overrides config)")
	materializerWorkerCmd.Flags().BoolVar(&runOnce, "once", false, "Run a single sweep and exit")

	workerCmd.AddCommand(materializerWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
