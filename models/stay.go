package models

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the wire format of check-in and check-out dates.
const DateLayout = "2006-01-02"

var ErrInvalidDateRange = errors.New("check-in must be before check-out")

// DateRange is a half-open stay [CheckIn, CheckOut). Both ends are UTC midnights.
type DateRange struct {
	CheckIn  time.Time `bson:"checkIn" json:"checkIn"`
	CheckOut time.Time `bson:"checkOut" json:"checkOut"`
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a "2006-01-02" date.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// NewDateRange builds a validated stay from two calendar days.
func NewDateRange(checkIn, checkOut time.Time) (DateRange, error) {
	r := DateRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
	if !r.CheckIn.Before(r.CheckOut) {
		return DateRange{}, ErrInvalidDateRange
	}
	return r, nil
}

// ParseDateRange parses and validates a stay given as two "2006-01-02" strings.
func ParseDateRange(checkIn, checkOut string) (DateRange, error) {
	in, err := ParseDay(checkIn)
	if err != nil {
		return DateRange{}, err
	}
	out, err := ParseDay(checkOut)
	if err != nil {
		return DateRange{}, err
	}
	return NewDateRange(in, out)
}

// Nights is the number of nights in the stay.
func (r DateRange) Nights() int {
	return int(r.CheckOut.Sub(r.CheckIn).Hours() / 24)
}

// Overlaps uses the half-open rule: a stay ending on day D does not clash
// with one starting on day D.
func (r DateRange) Overlaps(o DateRange) bool {
	return r.CheckIn.Before(o.CheckOut) && o.CheckIn.Before(r.CheckOut)
}

// Covers reports whether the night starting on day falls inside the stay.
func (r DateRange) Covers(day time.Time) bool {
	day = Day(day)
	return !day.Before(r.CheckIn) && day.Before(r.CheckOut)
}

func (r DateRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.CheckIn.Format(DateLayout), r.CheckOut.Format(DateLayout))
}
