package loan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalculateFine(t *testing.T) {
	calc := NewFineCalculator(7, 1500)

	t.Run("zero fine when returned on or before due date", func(t *testing.T) {
		assert.EqualValues(t, 0, calc.CalculateFine(date(2025, 1, 10), date(2025, 1, 10)))
		assert.EqualValues(t, 0, calc.CalculateFine(date(2025, 1, 10), date(2025, 1, 9)))
	})

	t.Run("fine accumulates per day late", func(t *testing.T) {
		// 3 days late
		assert.EqualValues(t, 4500, calc.CalculateFine(date(2025, 1, 10), date(2025, 1, 13)))
	})

	t.Run("zero fine for absent dates", func(t *testing.T) {
		assert.EqualValues(t, 0, calc.CalculateFine(time.Time{}, date(2025, 1, 13)))
		assert.EqualValues(t, 0, calc.CalculateFine(date(2025, 1, 10), time.Time{}))
		assert.EqualValues(t, 0, calc.CalculateFine(time.Time{}, time.Time{}))
	})

	t.Run("time of day does not count as an extra day", func(t *testing.T) {
		due := time.Date(2025, 1, 10, 23, 0, 0, 0, time.UTC)
		returned := time.Date(2025, 1, 11, 1, 0, 0, 0, time.UTC)
		assert.EqualValues(t, 1500, calc.CalculateFine(due, returned))
	})
}

func TestDefaultDueDate(t *testing.T) {
	calc := NewFineCalculator(7, 1500)
	assert.Equal(t, date(2025, 1, 17), calc.DefaultDueDate(date(2025, 1, 10)))
}
