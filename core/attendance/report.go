package attendance

import (
	"fmt"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/trezcool/absensi/core/roster"
	"github.com/trezcool/absensi/core/teacher"
)

type (
	ReportRow struct {
		TeacherID string `json:"teacher_id"`
		Name      string `json:"name"`
		Code      string `json:"code"`
		Totals
		Absences []AbsenceDetail `json:"absences"`
	}

	// Report is the attendance recap of every teacher over a range of dates.
	Report struct {
		Period   Period      `json:"period,omitempty"`
		From     string      `json:"from"`
		To       string      `json:"to"`
		Rows     []ReportRow `json:"rows"`
		Warnings []Warning   `json:"warnings"`
	}
)

// Totals sums the totals of all rows.
func (rep Report) Totals() Totals {
	var t Totals
	for _, row := range rep.Rows {
		t.Hadir += row.Hadir
		t.TidakHadir += row.TidakHadir
	}
	return t
}

// BuildReport aggregates the records dated within r into one row per teacher.
// Every teacher gets a row, with zero totals when they have no records. Teachers referenced by
// the roster but missing from teachers get an "Unknown" row. Rows are sorted by name
// (case-insensitive Indonesian collation), then code, then ID, so that the output is stable.
func BuildReport(teachers []teacher.Teacher, records []Attendance, entries []roster.Entry, r Range) Report {
	totals, warnings := Aggregate(records, entries, r)
	details, _ := AbsenceDetails(records, entries, r)

	rows := make([]ReportRow, 0, len(teachers)+len(totals))
	known := make(map[string]bool, len(teachers))
	for _, t := range teachers {
		known[t.ID] = true
		rows = append(rows, ReportRow{
			TeacherID: t.ID,
			Name:      t.Name,
			Code:      t.Code,
			Totals:    totals[t.ID],
			Absences:  nonNil(details[t.ID]),
		})
	}

	unknown := make([]string, 0)
	for id := range totals {
		if !known[id] {
			unknown = append(unknown, id)
		}
	}
	sort.Strings(unknown)
	for _, id := range unknown {
		rows = append(rows, ReportRow{
			TeacherID: id,
			Name:      teacher.UnknownName,
			Totals:    totals[id],
			Absences:  nonNil(details[id]),
		})
		warnings = append(warnings, Warning{
			Kind:    WarnUnknownTeacher,
			Ref:     id,
			Message: fmt.Sprintf("roster references missing teacher %s", id),
		})
	}

	SortRows(rows)
	if warnings == nil {
		warnings = []Warning{}
	}
	return Report{
		From:     r.From(),
		To:       r.To(),
		Rows:     rows,
		Warnings: warnings,
	}
}

// SortRows orders rows by teacher name, then code, then ID.
func SortRows(rows []ReportRow) {
	col := collate.New(language.Indonesian, collate.IgnoreCase)
	sort.SliceStable(rows, func(i, j int) bool {
		if c := col.CompareString(rows[i].Name, rows[j].Name); c != 0 {
			return c < 0
		}
		if rows[i].Code != rows[j].Code {
			return rows[i].Code < rows[j].Code
		}
		return rows[i].TeacherID < rows[j].TeacherID
	})
}

func nonNil(details []AbsenceDetail) []AbsenceDetail {
	if details == nil {
		return []AbsenceDetail{}
	}
	return details
}
