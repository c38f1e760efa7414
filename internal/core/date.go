package core

import (
	"fmt"
	"strconv"
	"time"
)

// DateFormat is the layout of a DateKey.
const DateFormat = "2006-01-02"

// DateKey is a calendar date written as zero-padded YYYY-MM-DD. Because the
// width is fixed, string order equals chronological order.
type DateKey string

// NewDateKey formats year, month and day. Month must be 1-12 and day 1-31;
// the day is not checked against the month's length, so 2024-02-31 is a
// valid key that simply never matches a real recorded day.
func NewDateKey(year, month, day int) (DateKey, error) {
	if year < 1 || year > 9999 {
		return "", fmt.Errorf("%w: year %d out of range", ErrInvalidInput, year)
	}
	if month < 1 || month > 12 {
		return "", fmt.Errorf("%w: month %d out of range", ErrInvalidInput, month)
	}
	if day < 1 || day > 31 {
		return "", fmt.Errorf("%w: day %d out of range", ErrInvalidInput, day)
	}
	return DateKey(fmt.Sprintf("%04d-%02d-%02d", year, month, day)), nil
}

// DateKeyOf returns the key of t's calendar day.
func DateKeyOf(t time.Time) DateKey {
	return DateKey(t.Format(DateFormat))
}

// Today returns the key of the current local day.
func Today() DateKey {
	return DateKeyOf(time.Now())
}

// ParseDateKey parses a strict YYYY-MM-DD string.
func ParseDateKey(s string) (DateKey, error) {
	if len(s) != len(DateFormat) || s[4] != '-' || s[7] != '-' {
		return "", fmt.Errorf("%w: date %q want format YYYY-MM-DD", ErrInvalidInput, s)
	}
	year, err1 := atoiDigits(s[0:4])
	month, err2 := atoiDigits(s[5:7])
	day, err3 := atoiDigits(s[8:10])
	if err1 != nil || err2 != nil || err3 != nil {
		return "", fmt.Errorf("%w: date %q want format YYYY-MM-DD", ErrInvalidInput, s)
	}
	return NewDateKey(year, month, day)
}

// MustParseDateKey is like ParseDateKey but panics on error.
func MustParseDateKey(s string) DateKey {
	d, err := ParseDateKey(s)
	if err != nil {
		panic(err.Error())
	}
	return d
}

// Validate checks that d is well formed.
func (d DateKey) Validate() error {
	_, err := ParseDateKey(string(d))
	return err
}

func (d DateKey) String() string { return string(d) }

// Before reports whether d sorts before x.
func (d DateKey) Before(x DateKey) bool { return d < x }

// After reports whether d sorts after x.
func (d DateKey) After(x DateKey) bool { return d > x }

// Between reports whether start <= d <= end.
func (d DateKey) Between(start, end DateKey) bool { return start <= d && d <= end }

func atoiDigits(s string) (int, error) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}
