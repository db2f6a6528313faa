package recurring

import (
	"fmt"
	"time"
)

// SchedulePlan is the result of a due-period computation. MorePending is set
// when the safety horizon cut the plan short; the template stays due and the
// next sweep continues from the advanced watermark.
type SchedulePlan struct {
	Periods     []time.Time
	MorePending bool
}

// DefaultMaxPeriods bounds one computation for templates with a very old,
// never-materialized start date.
const DefaultMaxPeriods = 500

// DuePeriods computes the ordered period start dates that still need an
// occurrence as of asOf: every period after the watermark, up to and
// including min(asOf, end date). It is pure; the caller supplies asOf, no
// wall clock is consulted.
func (re *RecurringExpense) DuePeriods(asOf time.Time, maxPeriods int) (SchedulePlan, error) {
	if err := re.validateSchedule(); err != nil {
		return SchedulePlan{}, err
	}
	if maxPeriods <= 0 {
		maxPeriods = DefaultMaxPeriods
	}

	upper := DateOnly(asOf)
	if re.EndDate != nil && DateOnly(*re.EndDate).Before(upper) {
		upper = DateOnly(*re.EndDate)
	}

	var watermark *time.Time
	if re.LastGeneratedThrough != nil {
		w := DateOnly(*re.LastGeneratedThrough)
		watermark = &w
	}

	plan := SchedulePlan{}
	for n := 0; ; n++ {
		period := re.periodAt(n)
		if period.After(upper) {
			break
		}
		if watermark != nil && !period.After(*watermark) {
			continue
		}
		if len(plan.Periods) == maxPeriods {
			plan.MorePending = true
			break
		}
		plan.Periods = append(plan.Periods, period)
	}

	return plan, nil
}

// nextPeriodAfter returns the first period start strictly after the given
// date, ok=false when the schedule cannot produce one.
func (re *RecurringExpense) nextPeriodAfter(after time.Time) (time.Time, bool) {
	if err := re.validateSchedule(); err != nil {
		return time.Time{}, false
	}
	after = DateOnly(after)
	for n := 0; ; n++ {
		period := re.periodAt(n)
		if period.After(after) {
			return period, true
		}
	}
}

// periodAt computes the nth period start from the anchor. Monthly periods
// are always derived from the start date's day-of-month, never from a
// previously clamped period, so Jan 31 yields Feb 29 and then Mar 31.
func (re *RecurringExpense) periodAt(n int) time.Time {
	anchor := DateOnly(re.StartDate)
	switch re.Frequency {
	case FrequencyWeekly:
		return anchor.AddDate(0, 0, n*re.IntervalCount*7)
	case FrequencyMonthly:
		return addMonthsClamped(anchor, n*re.IntervalCount)
	default: // daily, custom
		return anchor.AddDate(0, 0, n*re.IntervalCount)
	}
}

func (re *RecurringExpense) validateSchedule() error {
	if !ValidFrequency(re.Frequency) {
		return fmt.Errorf("unknown frequency %q", re.Frequency)
	}
	if re.IntervalCount < 1 {
		return fmt.Errorf("interval count must be at least 1, got %d", re.IntervalCount)
	}
	if re.StartDate.IsZero() {
		return fmt.Errorf("start date is not set")
	}
	return nil
}

// addMonthsClamped advances by whole months, clamping the anchor's
// day-of-month to the target month's last day instead of rolling over.
func addMonthsClamped(anchor time.Time, months int) time.Time {
	y, m, d := anchor.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// DateOnly truncates to a UTC calendar date. All schedule arithmetic runs on
// this basis so server timezone never shifts a period.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
