// Package subscription detects recurring payments from transaction history
// and processes confirmed subscriptions when they fall due.
package subscription

import (
	"fmt"
	"time"

	"busta/internal/core"
)

// NextDueDate advances a due date by one period.
//
// Monthly keeps the day-of-month, clamped to the last valid day of the target
// month (Jan 31 -> Feb 28/29). Yearly clamps Feb 29 to Feb 28 in non-leap
// target years.
func NextDueDate(d core.Date, f core.Frequency) (core.Date, error) {
	switch f {
	case core.Weekly:
		return d.AddDays(7), nil

	case core.Monthly:
		year, month := d.Year(), int(d.Month())
		month++
		if month > 12 {
			month = 1
			year++
		}
		day := d.Day()
		if last := daysInMonth(year, month); day > last {
			day = last
		}
		return core.NewDate(year, month, day), nil

	case core.Yearly:
		year := d.Year() + 1
		month, day := int(d.Month()), d.Day()
		if month == 2 && day == 29 && !isLeapYear(year) {
			day = 28
		}
		return core.NewDate(year, month, day), nil
	}

	return core.Date{}, fmt.Errorf("%w: %q", core.ErrInvalidFrequency, f)
}

func daysInMonth(year, month int) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
