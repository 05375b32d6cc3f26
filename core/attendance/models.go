package attendance

import (
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/absensi/core"
	"github.com/trezcool/absensi/core/roster"
)

// Attendance records which hours of a roster entry the teacher attended on a date.
type Attendance struct {
	ID           string    `json:"id" firestore:"-"`
	RosterID     string    `json:"roster_id" firestore:"roster_id"`
	Date         string    `json:"date" firestore:"date"` // YYYY-MM-DD
	PresentHours []int     `json:"present_hours" firestore:"present_hours"`
	Keterangan   string    `json:"keterangan" firestore:"keterangan"`
	CreatedAt    time.Time `json:"created_at" firestore:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at" firestore:"updated_at"` // UTC
}

// UpsertAttendance contains information needed to create or replace the Attendance of a roster
// entry on a date.
type UpsertAttendance struct {
	RosterID     string `json:"roster_id" validate:"required"`
	Date         string `json:"date" validate:"required,date"`
	PresentHours []int  `json:"present_hours" validate:"dive,min=1"`
	Keterangan   string `json:"keterangan" validate:"max=500"`
}

func (ua *UpsertAttendance) Validate(validate *validator.Validate) error {
	ua.RosterID = core.CleanString(ua.RosterID)
	ua.Date = core.CleanString(ua.Date)
	ua.Keterangan = core.CleanString(ua.Keterangan)
	if ua.PresentHours == nil {
		ua.PresentHours = []int{}
	}
	ua.PresentHours = roster.NormalizeHours(ua.PresentHours)
	return validate.Struct(ua)
}

type QueryFilter struct {
	From      string   `query:"from"` // YYYY-MM-DD, inclusive
	To        string   `query:"to"`   // YYYY-MM-DD, inclusive
	RosterIDs []string `query:"roster_id"`
}

func (qf *QueryFilter) Clean() {
	qf.From = core.CleanString(qf.From)
	qf.To = core.CleanString(qf.To)
}

// Match reports whether a matches the filter. Dates compare as YYYY-MM-DD strings.
func (qf QueryFilter) Match(a Attendance) bool {
	if qf.From != "" && a.Date < qf.From {
		return false
	}
	if qf.To != "" && a.Date > qf.To {
		return false
	}
	if len(qf.RosterIDs) > 0 {
		for _, id := range qf.RosterIDs {
			if id == a.RosterID {
				return true
			}
		}
		return false
	}
	return true
}

// SortRecords orders records by date, then roster entry.
func SortRecords(records []Attendance) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Date != records[j].Date {
			return records[i].Date < records[j].Date
		}
		return records[i].RosterID < records[j].RosterID
	})
}
