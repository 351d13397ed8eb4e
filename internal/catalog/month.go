package catalog

import (
	"fmt"
	"time"
)

// Month is a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses a "YYYY-MM" string.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("catalog: invalid month %q: want YYYY-MM", s)
	}
	return MonthOf(t), nil
}

// Next returns the following month, rolling December into January.
func (m Month) Next() Month {
	if m.Month == time.December {
		return Month{Year: m.Year + 1, Month: time.January}
	}
	return Month{Year: m.Year, Month: m.Month + 1}
}

// Before reports whether m is earlier than o.
func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// String formats the month as YYYY-MM.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// MonthRange returns every month from the month containing from through the
// month containing to, inclusive. It returns nil when from is after to.
func MonthRange(from, to time.Time) []Month {
	return Between(MonthOf(from), MonthOf(to))
}

// Between returns every month from first through last, inclusive.
func Between(first, last Month) []Month {
	var months []Month
	for cur := first; !last.Before(cur); cur = cur.Next() {
		months = append(months, cur)
	}
	return months
}

// Lookback returns the months covered by a window of years ending at now.
//
// The window starts on the first day of the month that is exactly years
// calendar years before now and runs through the month containing now.
// A window of zero or fewer years is empty.
func Lookback(now time.Time, years int) []Month {
	if years <= 0 {
		return nil
	}
	end := MonthOf(now)
	start := Month{Year: end.Year - years, Month: end.Month}
	return Between(start, end)
}
