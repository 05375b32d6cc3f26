package attendance

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/absensi/core/roster"
	"github.com/trezcool/absensi/core/teacher"
)

func TestBuildReport(t *testing.T) {
	teachers := []teacher.Teacher{
		{ID: "t3", Name: "citra", Code: "CIT"},
		{ID: "t2", Name: "Budi", Code: "BDI"},
		{ID: "t1", Name: "Agus", Code: "AGS"},
	}
	entries := []roster.Entry{
		{ID: "e1", TeacherID: "t1", ClassID: "X-1", Day: roster.Senin, Hours: []int{1, 2}},
		{ID: "e2", TeacherID: "t2", ClassID: "X-2", Day: roster.Senin, Hours: []int{3}},
		{ID: "e9", TeacherID: "gone", ClassID: "X-3", Day: roster.Senin, Hours: []int{1}},
	}
	records := []Attendance{
		{ID: "a1", RosterID: "e1", Date: "2026-10-12", PresentHours: []int{1}, Keterangan: "terlambat"},
		{ID: "a2", RosterID: "e2", Date: "2026-10-12", PresentHours: []int{3}},
		{ID: "a3", RosterID: "e9", Date: "2026-10-12"},
	}

	rep := BuildReport(teachers, records, entries, octRange)

	assert.Equal(t, "2026-10-12", rep.From)
	assert.Equal(t, "2026-10-18", rep.To)
	names := make([]string, 0, len(rep.Rows))
	for _, row := range rep.Rows {
		names = append(names, row.Name)
	}
	assert.Equal(t, []string{"Agus", "Budi", "citra", teacher.UnknownName}, names)

	assert.Equal(t, Totals{Hadir: 1, TidakHadir: 1}, rep.Rows[0].Totals)
	assert.Equal(t, []AbsenceDetail{
		{Date: "2026-10-12", AbsentHoursCount: 1, AbsentHours: []int{2}, ClassID: "X-1", Keterangan: "terlambat"},
	}, rep.Rows[0].Absences)
	assert.Equal(t, Totals{Hadir: 1}, rep.Rows[1].Totals)
	assert.Equal(t, []AbsenceDetail{}, rep.Rows[1].Absences)
	assert.Equal(t, Totals{}, rep.Rows[2].Totals, "teachers without records are default-filled")
	assert.Equal(t, "gone", rep.Rows[3].TeacherID)
	assert.Equal(t, Totals{TidakHadir: 1}, rep.Rows[3].Totals)

	if assert.Len(t, rep.Warnings, 1) {
		assert.Equal(t, WarnUnknownTeacher, rep.Warnings[0].Kind)
	}
	assert.Equal(t, Totals{Hadir: 2, TidakHadir: 2}, rep.Totals())
}

func TestBuildReport_stableOutput(t *testing.T) {
	teachers := []teacher.Teacher{
		{ID: "t2", Name: "Dewi", Code: "DW2"},
		{ID: "t1", Name: "Dewi", Code: "DW1"},
		{ID: "t3", Name: "Ádi", Code: "ADI"},
	}
	reversed := []teacher.Teacher{teachers[2], teachers[1], teachers[0]}

	first, err := json.Marshal(BuildReport(teachers, nil, nil, octRange))
	assert.NoError(t, err)
	second, err := json.Marshal(BuildReport(reversed, nil, nil, octRange))
	assert.NoError(t, err)
	assert.Equal(t, string(first), string(second))

	rep := BuildReport(teachers, nil, nil, octRange)
	assert.Equal(t, []string{"t3", "t1", "t2"}, []string{rep.Rows[0].TeacherID, rep.Rows[1].TeacherID, rep.Rows[2].TeacherID})
	assert.Equal(t, []Warning{}, rep.Warnings)
}
