package daterange

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidRange       = errors.New("daterange: end date must be after start date")
	ErrInvalidOverlapMode = errors.New("daterange: unknown overlap mode")
)

// DateLayout is the wire format of calendar days.
const DateLayout = "2006-01-02"

// OverlapMode decides whether the last day of a stay may be the first day of the next one.
type OverlapMode string

const (
	// OverlapInclusive treats both ends as occupied: [s1,e1] and [s2,e2] clash iff s1 <= e2 && e1 >= s2.
	OverlapInclusive OverlapMode = "inclusive"
	// OverlapCheckoutFree treats the end day as free for a new check-in.
	OverlapCheckoutFree OverlapMode = "checkout_free"
)

func ParseOverlapMode(raw string) (OverlapMode, error) {
	switch OverlapMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", OverlapInclusive:
		return OverlapInclusive, nil
	case OverlapCheckoutFree:
		return OverlapCheckoutFree, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOverlapMode, raw)
	}
}

// DateRange is a stay from the start day to the end day, truncated to UTC days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) (DateRange, error) {
	dr := DateRange{Start: Day(start), End: Day(end)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Parse builds a range from two YYYY-MM-DD strings.
func Parse(start, end string) (DateRange, error) {
	s, err := time.Parse(DateLayout, strings.TrimSpace(start))
	if err != nil {
		return DateRange{}, fmt.Errorf("daterange: start: %w", err)
	}
	e, err := time.Parse(DateLayout, strings.TrimSpace(end))
	if err != nil {
		return DateRange{}, fmt.Errorf("daterange: end: %w", err)
	}
	return New(s, e)
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (dr DateRange) Validate() error {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ErrInvalidRange
	}
	if !dr.End.After(dr.Start) {
		return ErrInvalidRange
	}
	return nil
}

// Nights counts the nights between start and end.
func (dr DateRange) Nights() int {
	return int(dr.End.Sub(dr.Start).Hours() / 24)
}

func (dr DateRange) Overlaps(other DateRange, mode OverlapMode) bool {
	if mode == OverlapCheckoutFree {
		return dr.Start.Before(other.End) && other.Start.Before(dr.End)
	}
	return !dr.Start.After(other.End) && !dr.End.Before(other.Start)
}

func (dr DateRange) Equal(other DateRange) bool {
	return dr.Start.Equal(other.Start) && dr.End.Equal(other.End)
}

func (dr DateRange) String() string {
	return dr.Start.Format(DateLayout) + ".." + dr.End.Format(DateLayout)
}
