package core_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/absensi/core"
	"github.com/trezcool/absensi/core/attendance"
	testutil "github.com/trezcool/absensi/tests"
)

func TestEmailMessage_Render(t *testing.T) {
	conf := testutil.NewConfig()
	core.ParseEmailTemplates(conf, testutil.NewLogger(conf))

	rep := attendance.Report{
		From: "2026-10-12",
		To:   "2026-10-16",
		Rows: []attendance.ReportRow{
			{
				TeacherID: "t1",
				Name:      "Budi",
				Code:      "BD",
				Totals:    attendance.Totals{Hadir: 5, TidakHadir: 2},
				Absences: []attendance.AbsenceDetail{
					{Date: "2026-10-13", AbsentHoursCount: 2, AbsentHours: []int{3, 4}, ClassID: "X-1", Keterangan: "sakit"},
				},
			},
			{TeacherID: "t2", Name: "Sari", Absences: []attendance.AbsenceDetail{}},
		},
		Warnings: []attendance.Warning{{Kind: attendance.WarnOrphanRecord, Message: "record a1 references missing roster entry"}},
	}

	msg := core.EmailMessage{Subject: "Rekap", TemplateName: "attendance_recap", TemplateData: rep}
	require.NoError(t, msg.Render())

	assert.True(t, msg.HasContent())
	assert.Contains(t, msg.TextContent, "Rekap kehadiran guru 2026-10-12 s.d. 2026-10-16")
	assert.Contains(t, msg.TextContent, "- Budi (BD): hadir 5 jam, tidak hadir 2 jam")
	assert.Contains(t, msg.TextContent, "2026-10-13 kelas X-1: 2 jam (sakit)")
	assert.Contains(t, msg.TextContent, "- Sari: hadir 0 jam, tidak hadir 0 jam")
	assert.Contains(t, msg.TextContent, "record a1 references missing roster entry")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(msg.TextContent), conf.FrontendBaseURL))
	assert.Contains(t, msg.HTMLContent, "<td>Budi</td>")

	plain := core.EmailMessage{Subject: "hi", BodyStr: "hello"}
	require.NoError(t, plain.Render())
	assert.Equal(t, "hello", plain.TextContent)
	assert.Empty(t, plain.HTMLContent)
}
