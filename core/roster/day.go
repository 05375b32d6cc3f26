package roster

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Day is a school day. Sunday is not a school day.
type Day string

const (
	Senin  Day = "Senin"
	Selasa Day = "Selasa"
	Rabu   Day = "Rabu"
	Kamis  Day = "Kamis"
	Jumat  Day = "Jumat"
	Sabtu  Day = "Sabtu"
)

var (
	ErrDayRequired = errors.New("day of week is required")
	ErrInvalidDay  = errors.New("invalid day of week")

	// Days lists the school days in week order.
	Days = []Day{Senin, Selasa, Rabu, Kamis, Jumat, Sabtu}

	maxHours = map[Day]int{
		Senin:  8,
		Selasa: 8,
		Rabu:   8,
		Kamis:  8,
		Jumat:  6,
		Sabtu:  7,
	}

	weekdays = map[time.Weekday]Day{
		time.Monday:    Senin,
		time.Tuesday:   Selasa,
		time.Wednesday: Rabu,
		time.Thursday:  Kamis,
		time.Friday:    Jumat,
		time.Saturday:  Sabtu,
	}
)

// DaySchedule describes how many hour slots a day has.
type DaySchedule struct {
	Day      Day `json:"day"`
	MaxHours int `json:"max_hours"`
}

// Schedule returns the hour slots of every school day, in week order.
func Schedule() []DaySchedule {
	sched := make([]DaySchedule, 0, len(Days))
	for _, d := range Days {
		sched = append(sched, DaySchedule{Day: d, MaxHours: d.MaxHours()})
	}
	return sched
}

func (d Day) IsValid() bool {
	_, ok := maxHours[d]
	return ok
}

// MaxHours returns the number of hour slots of the day, or 0 if the day is invalid.
func (d Day) MaxHours() int {
	return maxHours[d]
}

// ValidHour reports whether h is a slot of the day.
func (d Day) ValidHour(h int) bool {
	return h >= 1 && h <= d.MaxHours()
}

// ParseDay parses a day name, case-insensitively.
func ParseDay(s string) (Day, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrDayRequired
	}
	for _, d := range Days {
		if strings.EqualFold(string(d), s) {
			return d, nil
		}
	}
	return "", errors.Wrapf(ErrInvalidDay, "%q", s)
}

// DayOf returns the school day of t. ok is false on Sundays.
func DayOf(t time.Time) (d Day, ok bool) {
	d, ok = weekdays[t.Weekday()]
	return d, ok
}
