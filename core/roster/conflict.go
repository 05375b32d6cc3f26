package roster

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/trezcool/absensi/core/teacher"
)

type ConflictType string

const (
	// ConflictClass means another teacher already teaches the class at that hour.
	ConflictClass ConflictType = "class"
	// ConflictTeacher means the teacher is already scheduled in another class at that hour.
	ConflictTeacher ConflictType = "teacher"
)

type (
	// Candidate is an entry about to be created or updated.
	// ExcludeEntryID is the ID of the entry being updated so that it does not conflict with itself.
	Candidate struct {
		TeacherID      string `json:"teacher_id"`
		ClassID        string `json:"class_id"`
		Day            Day    `json:"day_of_week"`
		Hours          []int  `json:"hours"`
		ExcludeEntryID string `json:"exclude_entry_id,omitempty"`
	}

	Conflict struct {
		Hour int          `json:"hour"`
		Type ConflictType `json:"type"`
		// ConflictWith is the teacher name for class conflicts and the class for teacher conflicts.
		ConflictWith string `json:"conflict_with"`
		EntryID      string `json:"entry_id"`
	}

	// ConflictError rejects a roster write that would double-book a class or a teacher.
	ConflictError struct {
		Message   string
		Conflicts []Conflict
	}
)

func (err *ConflictError) Error() string {
	return err.Message
}

// CheckConflicts lists every double-booking the candidate would create against entries.
// For each candidate hour and each entry of the same day holding that hour, it reports a
// class conflict when the class matches and a teacher conflict when the teacher matches.
// Conflicts are ordered by hour, then by entries order. Empty hours yield no conflicts.
// The day is a precondition: ErrDayRequired or ErrInvalidDay are returned when it is not usable.
func CheckConflicts(c Candidate, entries []Entry, names teacher.Names) ([]Conflict, error) {
	if c.Day == "" {
		return nil, ErrDayRequired
	}
	if !c.Day.IsValid() {
		return nil, ErrInvalidDay
	}

	conflicts := make([]Conflict, 0)
	for _, h := range NormalizeHours(c.Hours) {
		for _, e := range entries {
			if e.Day != c.Day || !e.HasHour(h) || (c.ExcludeEntryID != "" && e.ID == c.ExcludeEntryID) {
				continue
			}
			if e.ClassID == c.ClassID {
				conflicts = append(conflicts, Conflict{
					Hour:         h,
					Type:         ConflictClass,
					ConflictWith: names.Get(e.TeacherID),
					EntryID:      e.ID,
				})
			}
			if e.TeacherID == c.TeacherID {
				conflicts = append(conflicts, Conflict{
					Hour:         h,
					Type:         ConflictTeacher,
					ConflictWith: e.ClassID,
					EntryID:      e.ID,
				})
			}
		}
	}
	return conflicts, nil
}

// ConflictHours returns the distinct conflicting hours, ascending.
func ConflictHours(conflicts []Conflict) []int {
	hours := make([]int, 0, len(conflicts))
	for _, c := range conflicts {
		hours = append(hours, c.Hour)
	}
	return NormalizeHours(hours)
}

// FormatConflicts describes conflicts in a single message: the conflicting hours, then the class
// clause, then the teacher clause. teacherName is the candidate's teacher display name.
// It returns an empty string when there is no conflict.
func FormatConflicts(c Candidate, teacherName string, conflicts []Conflict) string {
	if len(conflicts) == 0 {
		return ""
	}

	var teachers, classes []string
	for _, cf := range conflicts {
		switch cf.Type {
		case ConflictClass:
			teachers = appendUnique(teachers, cf.ConflictWith)
		case ConflictTeacher:
			classes = appendUnique(classes, cf.ConflictWith)
		}
	}

	hours := ConflictHours(conflicts)
	hourStrs := make([]string, 0, len(hours))
	for _, h := range hours {
		hourStrs = append(hourStrs, strconv.Itoa(h))
	}

	clauses := make([]string, 0, 2)
	if len(teachers) > 0 {
		clauses = append(clauses, fmt.Sprintf("kelas %s sudah diajar oleh %s", c.ClassID, strings.Join(teachers, ", ")))
	}
	if len(classes) > 0 {
		if teacherName == "" {
			teacherName = teacher.UnknownName
		}
		clauses = append(clauses, fmt.Sprintf("guru %s sudah mengajar di kelas %s", teacherName, strings.Join(classes, ", ")))
	}
	return fmt.Sprintf("Bentrok jam ke-%s: %s", strings.Join(hourStrs, ", "), strings.Join(clauses, "; "))
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
