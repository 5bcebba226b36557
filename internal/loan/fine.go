package loan

import "time"

// FineCalculator computes late fees from due date and a per-day rate. Pure:
// no clock, no store, no side effects.
type FineCalculator struct {
	loanDays   int
	finePerDay int64
}

// NewFineCalculator builds a calculator. loanDays is the standard lending
// period used to derive default due dates; finePerDay is the fee per whole
// day late.
func NewFineCalculator(loanDays int, finePerDay int64) *FineCalculator {
	return &FineCalculator{loanDays: loanDays, finePerDay: finePerDay}
}

// DefaultDueDate returns the standard due date for a loan taken out on the
// given day.
func (c *FineCalculator) DefaultDueDate(loaned time.Time) time.Time {
	return loaned.AddDate(0, 0, c.loanDays)
}

// CalculateFine returns the fee for returning on returnDate against dueDate.
// Zero when either date is absent or the return is on or before the due date;
// otherwise whole days late times the per-day rate.
func (c *FineCalculator) CalculateFine(dueDate, returnDate time.Time) int64 {
	if dueDate.IsZero() || returnDate.IsZero() {
		return 0
	}
	due := truncateToDay(dueDate)
	returned := truncateToDay(returnDate)
	if !returned.After(due) {
		return 0
	}
	days := int64(returned.Sub(due) / (24 * time.Hour))
	return days * c.finePerDay
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
