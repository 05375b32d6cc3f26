package roster

import (
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/absensi/core"
)

// Entry assigns a teacher to a class for some hour slots of a school day.
type Entry struct {
	ID        string    `json:"id" firestore:"-"`
	TeacherID string    `json:"teacher_id" firestore:"teacher_id"`
	ClassID   string    `json:"class_id" firestore:"class_id"`
	Day       Day       `json:"day_of_week" firestore:"day_of_week"`
	Hours     []int     `json:"hours" firestore:"hours"`
	CreatedAt time.Time `json:"created_at" firestore:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" firestore:"updated_at"` // UTC
}

// HasHour reports whether h is one of the entry's hours.
func (e Entry) HasHour(h int) bool {
	for _, eh := range e.Hours {
		if eh == h {
			return true
		}
	}
	return false
}

// Index maps entries by ID.
type Index map[string]Entry

func IndexOf(entries []Entry) Index {
	idx := make(Index, len(entries))
	for _, e := range entries {
		idx[e.ID] = e
	}
	return idx
}

// NewEntry contains information needed to create a new Entry.
type NewEntry struct {
	TeacherID string `json:"teacher_id" validate:"required"`
	ClassID   string `json:"class_id" validate:"required,max=20"`
	Day       Day    `json:"day_of_week" validate:"required,rosterday"`
	Hours     []int  `json:"hours" validate:"required,min=1,dive,min=1"`
}

func (ne *NewEntry) Validate(validate *validator.Validate) error {
	ne.TeacherID = core.CleanString(ne.TeacherID)
	ne.ClassID = core.CleanString(ne.ClassID)
	ne.Day = cleanDay(ne.Day)
	ne.Hours = NormalizeHours(ne.Hours)
	return validate.Struct(ne)
}

// Candidate returns the conflict-check candidate for the new entry.
func (ne NewEntry) Candidate() Candidate {
	return Candidate{TeacherID: ne.TeacherID, ClassID: ne.ClassID, Day: ne.Day, Hours: ne.Hours}
}

// UpdateEntry defines what information may be provided to modify an existing Entry.
// Empty fields keep their current value.
type UpdateEntry struct {
	TeacherID string `json:"teacher_id"`
	ClassID   string `json:"class_id" validate:"max=20"`
	Day       Day    `json:"day_of_week" validate:"required,rosterday"`
	Hours     []int  `json:"hours" validate:"required,min=1,dive,min=1"`
}

func (ue *UpdateEntry) Validate(orig Entry, validate *validator.Validate) error {
	if id := core.CleanString(ue.TeacherID); id != "" {
		ue.TeacherID = id
	} else {
		ue.TeacherID = orig.TeacherID
	}
	if class := core.CleanString(ue.ClassID); class != "" {
		ue.ClassID = class
	} else {
		ue.ClassID = orig.ClassID
	}
	if ue.Day == "" {
		ue.Day = orig.Day
	} else {
		ue.Day = cleanDay(ue.Day)
	}
	if ue.Hours == nil {
		ue.Hours = orig.Hours
	}
	ue.Hours = NormalizeHours(ue.Hours)
	return validate.Struct(ue)
}

// Candidate returns the conflict-check candidate for the update of entry id.
func (ue UpdateEntry) Candidate(id string) Candidate {
	return Candidate{TeacherID: ue.TeacherID, ClassID: ue.ClassID, Day: ue.Day, Hours: ue.Hours, ExcludeEntryID: id}
}

type QueryFilter struct {
	Day       Day    `query:"day"`
	TeacherID string `query:"teacher_id"`
	ClassID   string `query:"class_id"`
}

func (qf *QueryFilter) Clean() {
	qf.Day = cleanDay(qf.Day)
	qf.TeacherID = core.CleanString(qf.TeacherID)
	qf.ClassID = core.CleanString(qf.ClassID)
}

func (qf QueryFilter) IsEmpty() bool {
	return qf.Day == "" && qf.TeacherID == "" && qf.ClassID == ""
}

func (qf QueryFilter) Match(e Entry) bool {
	return (qf.Day == "" || e.Day == qf.Day) &&
		(qf.TeacherID == "" || e.TeacherID == qf.TeacherID) &&
		(qf.ClassID == "" || e.ClassID == qf.ClassID)
}

// Filter returns the entries matching qf, keeping their order.
func Filter(entries []Entry, qf QueryFilter) []Entry {
	if qf.IsEmpty() {
		return entries
	}
	res := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if qf.Match(e) {
			res = append(res, e)
		}
	}
	return res
}

// SortEntries orders entries by day, first hour, class then ID.
func SortEntries(entries []Entry) {
	dayIdx := make(map[Day]int, len(Days))
	for i, d := range Days {
		dayIdx[d] = i
	}
	first := func(e Entry) int {
		if len(e.Hours) == 0 {
			return 0
		}
		min := e.Hours[0]
		for _, h := range e.Hours[1:] {
			if h < min {
				min = h
			}
		}
		return min
	}
	sort.SliceStable(entries, func(i, j int) bool {
		ei, ej := entries[i], entries[j]
		if dayIdx[ei.Day] != dayIdx[ej.Day] {
			return dayIdx[ei.Day] < dayIdx[ej.Day]
		}
		if fi, fj := first(ei), first(ej); fi != fj {
			return fi < fj
		}
		if ei.ClassID != ej.ClassID {
			return ei.ClassID < ej.ClassID
		}
		return ei.ID < ej.ID
	})
}

// NormalizeHours returns the distinct hours in ascending order.
func NormalizeHours(hours []int) []int {
	if hours == nil {
		return nil
	}
	seen := make(map[int]bool, len(hours))
	res := make([]int, 0, len(hours))
	for _, h := range hours {
		if !seen[h] {
			seen[h] = true
			res = append(res, h)
		}
	}
	sort.Ints(res)
	return res
}

func cleanDay(d Day) Day {
	if parsed, err := ParseDay(string(d)); err == nil {
		return parsed
	}
	return Day(core.CleanString(string(d)))
}
