package attendance

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/absensi/core/roster"
)

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

var (
	entries = []roster.Entry{
		{ID: "e1", TeacherID: "t1", ClassID: "X-1", Day: roster.Senin, Hours: []int{1, 2, 3}},
		{ID: "e2", TeacherID: "t1", ClassID: "X-2", Day: roster.Selasa, Hours: []int{4, 5}},
		{ID: "e3", TeacherID: "t2", ClassID: "XI-1", Day: roster.Senin, Hours: []int{1, 2}},
	}
	octRange = NewRange(date("2026-10-12"), date("2026-10-18"))
)

func TestAggregate(t *testing.T) {
	tests := []struct {
		name       string
		records    []Attendance
		want       map[string]Totals
		wantWarned []WarningKind
	}{
		{name: "no records", want: map[string]Totals{}},
		{
			name: "present and absent hours",
			records: []Attendance{
				{ID: "a1", RosterID: "e1", Date: "2026-10-12", PresentHours: []int{1, 2}},
				{ID: "a2", RosterID: "e2", Date: "2026-10-13", PresentHours: []int{4, 5}},
				{ID: "a3", RosterID: "e3", Date: "2026-10-12", PresentHours: []int{}},
			},
			want: map[string]Totals{
				"t1": {Hadir: 4, TidakHadir: 1},
				"t2": {Hadir: 0, TidakHadir: 2},
			},
		},
		{
			name: "range is inclusive",
			records: []Attendance{
				{ID: "a1", RosterID: "e1", Date: "2026-10-12", PresentHours: []int{1}},
				{ID: "a2", RosterID: "e1", Date: "2026-10-18", PresentHours: []int{2}},
				{ID: "a3", RosterID: "e1", Date: "2026-10-11", PresentHours: []int{3}},
				{ID: "a4", RosterID: "e1", Date: "2026-10-19", PresentHours: []int{3}},
			},
			want: map[string]Totals{"t1": {Hadir: 2, TidakHadir: 4}},
		},
		{
			name: "orphan record is skipped",
			records: []Attendance{
				{ID: "a1", RosterID: "deleted", Date: "2026-10-12", PresentHours: []int{1}},
				{ID: "a2", RosterID: "e3", Date: "2026-10-12", PresentHours: []int{1}},
			},
			want:       map[string]Totals{"t2": {Hadir: 1, TidakHadir: 1}},
			wantWarned: []WarningKind{WarnOrphanRecord},
		},
		{
			name: "orphan record out of range is not reported",
			records: []Attendance{
				{ID: "a1", RosterID: "deleted", Date: "2026-09-01", PresentHours: []int{1}},
			},
			want: map[string]Totals{},
		},
		{
			name:       "invalid date is skipped",
			records:    []Attendance{{ID: "a1", RosterID: "e1", Date: "12/10/2026", PresentHours: []int{1}}},
			want:       map[string]Totals{},
			wantWarned: []WarningKind{WarnInvalidDate},
		},
		{
			name:       "unscheduled present hours go negative",
			records:    []Attendance{{ID: "a1", RosterID: "e3", Date: "2026-10-12", PresentHours: []int{1, 2, 3}}},
			want:       map[string]Totals{"t2": {Hadir: 3, TidakHadir: -1}},
			wantWarned: []WarningKind{WarnUnscheduledPresent},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, warnings := Aggregate(tt.records, entries, octRange)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Aggregate() = %v, want %v", got, tt.want)
			}
			kinds := make([]WarningKind, 0, len(warnings))
			for _, w := range warnings {
				kinds = append(kinds, w.Kind)
			}
			assert.ElementsMatch(t, tt.wantWarned, kinds)
		})
	}
}

func TestAggregate_subsetSumsToScheduled(t *testing.T) {
	// whenever present hours are scheduled hours, hadir + tidak hadir == scheduled hours
	for _, e := range entries {
		for n := 0; n <= len(e.Hours); n++ {
			rec := Attendance{ID: "a", RosterID: e.ID, Date: "2026-10-14", PresentHours: e.Hours[:n]}
			totals, warnings := Aggregate([]Attendance{rec}, entries, octRange)
			tot := totals[e.TeacherID]
			assert.Equal(t, len(e.Hours), tot.Hadir+tot.TidakHadir, "entry %s, %d present", e.ID, n)
			assert.Equal(t, n, tot.Hadir)
			assert.Empty(t, warnings)
		}
	}
}

func TestAbsenceDetails(t *testing.T) {
	records := []Attendance{
		{ID: "a1", RosterID: "e1", Date: "2026-10-14", PresentHours: []int{2}, Keterangan: "sakit"},
		{ID: "a2", RosterID: "e2", Date: "2026-10-13", PresentHours: []int{4, 5}},
		{ID: "a3", RosterID: "e2", Date: "2026-10-12", PresentHours: []int{}, Keterangan: "dinas luar"},
		{ID: "a4", RosterID: "e3", Date: "2026-10-12", PresentHours: []int{1, 2, 3}},
		{ID: "a5", RosterID: "gone", Date: "2026-10-12"},
		{ID: "a6", RosterID: "e1", Date: "2026-10-20"},
	}

	got, warnings := AbsenceDetails(records, entries, octRange)
	want := map[string][]AbsenceDetail{
		"t1": {
			{Date: "2026-10-12", AbsentHoursCount: 2, AbsentHours: []int{4, 5}, ClassID: "X-2", Keterangan: "dinas luar"},
			{Date: "2026-10-14", AbsentHoursCount: 2, AbsentHours: []int{1, 3}, ClassID: "X-1", Keterangan: "sakit"},
		},
	}
	assert.Equal(t, want, got)
	if assert.Len(t, warnings, 1) {
		assert.Equal(t, WarnOrphanRecord, warnings[0].Kind)
		assert.Equal(t, "a5", warnings[0].RecordID)
		assert.Equal(t, "gone", warnings[0].Ref)
	}
}

func TestAbsentHours(t *testing.T) {
	assert.Equal(t, []int{}, AbsentHours(nil, nil))
	assert.Equal(t, []int{1, 3}, AbsentHours([]int{1, 2, 3}, []int{2, 7}))
	assert.Equal(t, []int{}, AbsentHours([]int{1, 2}, []int{1, 2, 3}))
}

func TestAggregate_neverPanics(t *testing.T) {
	assert.NotPanics(t, func() {
		Aggregate(nil, nil, Range{})
		AbsenceDetails(nil, nil, Range{})
		Aggregate([]Attendance{{}}, []roster.Entry{{}}, octRange)
		AbsenceDetails([]Attendance{{Date: "2026-10-12"}}, []roster.Entry{{}}, octRange)
		BuildReport(nil, []Attendance{{Date: "2026-10-12"}}, []roster.Entry{{}}, octRange)
	})
}
