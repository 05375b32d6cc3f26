package attendance

import (
	"fmt"
	"sort"

	"github.com/trezcool/absensi/core"
	"github.com/trezcool/absensi/core/roster"
)

type WarningKind string

const (
	// WarnOrphanRecord: the record's roster entry does not exist anymore. The record is skipped.
	WarnOrphanRecord WarningKind = "orphan_record"
	// WarnInvalidDate: the record's date cannot be parsed. The record is skipped.
	WarnInvalidDate WarningKind = "invalid_date"
	// WarnUnknownTeacher: a roster entry references a teacher that does not exist.
	WarnUnknownTeacher WarningKind = "unknown_teacher"
	// WarnUnscheduledPresent: present hours hold hours the roster entry does not schedule.
	// They still count as present.
	WarnUnscheduledPresent WarningKind = "unscheduled_present"
)

// Warning reports malformed input that the aggregation recovered from.
type Warning struct {
	Kind     WarningKind `json:"kind"`
	RecordID string      `json:"record_id,omitempty"`
	Ref      string      `json:"ref,omitempty"`
	Message  string      `json:"message"`
}

type (
	// Totals are the present (hadir) and absent (tidak hadir) hours of a teacher.
	Totals struct {
		Hadir      int `json:"hadir"`
		TidakHadir int `json:"tidak_hadir"`
	}

	// AbsenceDetail describes the hours a teacher missed in a class on a date.
	AbsenceDetail struct {
		Date             string `json:"date"`
		AbsentHoursCount int    `json:"absent_hours_count"`
		AbsentHours      []int  `json:"absent_hours"`
		ClassID          string `json:"class_id"`
		Keterangan       string `json:"keterangan"`
	}
)

// resolved is a record within range whose roster entry is known.
type resolved struct {
	record Attendance
	entry  roster.Entry
}

// resolve keeps the records dated within r whose roster entry exists, in records order.
func resolve(records []Attendance, entries []roster.Entry, r Range) ([]resolved, []Warning) {
	idx := roster.IndexOf(entries)
	res := make([]resolved, 0, len(records))
	var warnings []Warning

	for _, rec := range records {
		date, err := core.ParseDate(rec.Date)
		if err != nil {
			warnings = append(warnings, Warning{
				Kind:     WarnInvalidDate,
				RecordID: rec.ID,
				Ref:      rec.Date,
				Message:  fmt.Sprintf("attendance %s has an invalid date %q", rec.ID, rec.Date),
			})
			continue
		}
		if !r.Contains(date) {
			continue
		}
		entry, ok := idx[rec.RosterID]
		if !ok {
			warnings = append(warnings, Warning{
				Kind:     WarnOrphanRecord,
				RecordID: rec.ID,
				Ref:      rec.RosterID,
				Message:  fmt.Sprintf("attendance %s references missing roster entry %s", rec.ID, rec.RosterID),
			})
			continue
		}
		res = append(res, resolved{record: rec, entry: entry})
	}
	return res, warnings
}

// Aggregate sums, per teacher ID, the present and absent hours of the records dated within r.
// Present hours count as is, even when the roster entry does not schedule them; absent hours
// are the scheduled hours minus the present hours and may go negative.
// Teachers without records are not in the result. It never fails: malformed records are skipped
// and reported as warnings.
func Aggregate(records []Attendance, entries []roster.Entry, r Range) (map[string]Totals, []Warning) {
	recs, warnings := resolve(records, entries, r)

	totals := make(map[string]Totals)
	for _, rec := range recs {
		t := totals[rec.entry.TeacherID]
		t.Hadir += len(rec.record.PresentHours)
		t.TidakHadir += len(rec.entry.Hours) - len(rec.record.PresentHours)
		totals[rec.entry.TeacherID] = t

		if extra := unscheduled(rec.entry.Hours, rec.record.PresentHours); len(extra) > 0 {
			warnings = append(warnings, Warning{
				Kind:     WarnUnscheduledPresent,
				RecordID: rec.record.ID,
				Ref:      rec.entry.ID,
				Message:  fmt.Sprintf("attendance %s marks unscheduled hours %v as present", rec.record.ID, extra),
			})
		}
	}
	return totals, warnings
}

// AbsenceDetails lists, per teacher ID, the records dated within r where some scheduled hours
// are not present. Rows are ordered by date then class.
func AbsenceDetails(records []Attendance, entries []roster.Entry, r Range) (map[string][]AbsenceDetail, []Warning) {
	recs, warnings := resolve(records, entries, r)

	details := make(map[string][]AbsenceDetail)
	for _, rec := range recs {
		absent := AbsentHours(rec.entry.Hours, rec.record.PresentHours)
		if len(absent) == 0 {
			continue
		}
		details[rec.entry.TeacherID] = append(details[rec.entry.TeacherID], AbsenceDetail{
			Date:             rec.record.Date,
			AbsentHoursCount: len(absent),
			AbsentHours:      absent,
			ClassID:          rec.entry.ClassID,
			Keterangan:       rec.record.Keterangan,
		})
	}
	for _, rows := range details {
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].Date != rows[j].Date {
				return rows[i].Date < rows[j].Date
			}
			return rows[i].ClassID < rows[j].ClassID
		})
	}
	return details, warnings
}

// AbsentHours returns the scheduled hours that are not present, in scheduled order.
func AbsentHours(scheduled, present []int) []int {
	presentSet := make(map[int]bool, len(present))
	for _, h := range present {
		presentSet[h] = true
	}
	absent := make([]int, 0, len(scheduled))
	for _, h := range scheduled {
		if !presentSet[h] {
			absent = append(absent, h)
		}
	}
	return absent
}

// unscheduled returns the present hours that are not scheduled.
func unscheduled(scheduled, present []int) []int {
	return AbsentHours(present, scheduled)
}
