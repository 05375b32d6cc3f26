package attendance

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/absensi/core"
)

type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

var ErrInvalidPeriod = errors.New("period must be one of weekly or monthly")

func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodWeekly, PeriodMonthly:
		return p, nil
	}
	return "", ErrInvalidPeriod
}

// Range is an inclusive range of calendar dates. Start and End are midnight UTC.
type Range struct {
	Start time.Time
	End   time.Time
}

// NewRange returns the range between the calendar dates of start and end.
func NewRange(start, end time.Time) Range {
	return Range{Start: civil(start), End: civil(end)}
}

// ParseRange parses a YYYY-MM-DD range.
func ParseRange(from, to string) (Range, error) {
	start, err := core.ParseDate(from)
	if err != nil {
		return Range{}, errors.Wrap(err, "parsing from")
	}
	end, err := core.ParseDate(to)
	if err != nil {
		return Range{}, errors.Wrap(err, "parsing to")
	}
	return Range{Start: start, End: end}, nil
}

// bounds returns the calendar dates of Start and End, whatever their clock time or location.
func (r Range) bounds() (time.Time, time.Time) {
	return civil(r.Start), civil(r.End)
}

// IsEmpty reports whether the range holds no date.
func (r Range) IsEmpty() bool {
	start, end := r.bounds()
	return end.Before(start)
}

// Contains reports whether the calendar date of t is within the range, both ends included.
func (r Range) Contains(t time.Time) bool {
	start, end := r.bounds()
	d := civil(t)
	return !d.Before(start) && !d.After(end)
}

// Days returns the number of dates in the range.
func (r Range) Days() int {
	if r.IsEmpty() {
		return 0
	}
	start, end := r.bounds()
	return int(end.Sub(start).Hours()/24) + 1
}

// From and To return the range bounds formatted as YYYY-MM-DD.
func (r Range) From() string { return civil(r.Start).Format(core.DateLayout) }
func (r Range) To() string   { return civil(r.End).Format(core.DateLayout) }

// PeriodRange computes the range of a weekly or monthly recap around the reference date ref.
// Weekly is the Monday to Sunday week holding ref, monthly is ref's calendar month.
// The end is clipped to the earliest of ref and today so that days that did not happen yet
// never count as absences. The range is empty if today is before its start.
func PeriodRange(p Period, ref, today time.Time) (Range, error) {
	ref, today = civil(ref), civil(today)

	var r Range
	switch p {
	case PeriodWeekly:
		offset := (int(ref.Weekday()) + 6) % 7 // days since monday
		r.Start = ref.AddDate(0, 0, -offset)
		r.End = r.Start.AddDate(0, 0, 6)
	case PeriodMonthly:
		r.Start = time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
		r.End = r.Start.AddDate(0, 1, -1)
	default:
		return Range{}, ErrInvalidPeriod
	}

	limit := ref
	if today.Before(limit) {
		limit = today
	}
	if r.End.After(limit) {
		r.End = limit
	}
	return r, nil
}

// civil truncates t to its calendar date (in t's location) at midnight UTC.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
