package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/cashbookhq/cashbook/internal/recurring"
	recurringPostgres "github.com/cashbookhq/cashbook/internal/recurring/postgres"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample recurring expense templates for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to open gorm connection: %v", err)
		}

		if clearData {
			if err := gormDB.Exec("DELETE FROM expenses WHERE source_template_id IS NOT NULL").Error; err != nil {
				log.Fatalf("failed to clear expenses: %v", err)
			}
			if err := gormDB.Exec("DELETE FROM recurring_expenses").Error; err != nil {
				log.Fatalf("failed to clear recurring expenses: %v", err)
			}
			fmt.Println("Cleared existing data")
		}

		repo := recurringPostgres.NewRecurringRepository(gormDB)
		storeID := "11111111-1111-1111-1111-111111111111"
		now := time.Now()

		endOfYear := time.Date(now.Year(), 12, 31, 0, 0, 0, 0, time.UTC)
		samples := []*recurring.RecurringExpense{
			{
				ID:            uuid.NewString(),
				StoreID:       storeID,
				Name:          "Office rent",
				Category:      "rent",
				Amount:        decimal.NewFromInt(1500000),
				Currency:      "MMK",
				Frequency:     recurring.FrequencyMonthly,
				IntervalCount: 1,
				StartDate:     time.Date(now.Year(), 1, 31, 0, 0, 0, 0, time.UTC),
				Status:        recurring.StatusActive,
			},
			{
				ID:            uuid.NewString(),
				StoreID:       storeID,
				Name:          "Cleaning service",
				Category:      "operating",
				Amount:        decimal.NewFromInt(80000),
				Currency:      "MMK",
				Frequency:     recurring.FrequencyWeekly,
				IntervalCount: 2,
				StartDate:     time.Date(now.Year(), 1, 6, 0, 0, 0, 0, time.UTC),
				EndDate:       &endOfYear,
				Status:        recurring.StatusActive,
			},
			{
				ID:            uuid.NewString(),
				StoreID:       storeID,
				Name:          "Staff salaries",
				Category:      "payroll",
				Amount:        decimal.NewFromInt(4200000),
				Currency:      "MMK",
				Frequency:     recurring.FrequencyMonthly,
				IntervalCount: 1,
				StartDate:     time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC),
				Status:        recurring.StatusActive,
			},
		}

		for _, re := range samples {
			if err := repo.Create(re); err != nil {
				log.Fatalf("failed to seed recurring expense %q: %v", re.Name, err)
			}
			fmt.Printf("Seeded recurring expense: %s (%s every %d %s)\n",
				re.Name, re.Amount.String(), re.IntervalCount, re.Frequency)
		}
	},
}
