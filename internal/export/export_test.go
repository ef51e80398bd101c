package export

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/service"
)

func sampleReport() *service.Report {
	return &service.Report{
		GuildID: "g1",
		From:    "2025-06-30",
		To:      "2025-07-01",
		Users: []service.ReportUser{
			{ID: "u1", Name: "Alice"},
			{ID: "u2", Name: "Bob"},
		},
		Days: []service.ReportDay{
			{
				Date: "2025-06-30",
				Cells: []service.DayCell{
					{Status: "Present", RegularMinutes: 125, OvertimeMinutes: 5},
					{Status: "Absent"},
				},
			},
			{
				Date: "2025-07-01",
				Cells: []service.DayCell{
					{Status: "Half Day", RegularMinutes: 240},
					{Status: "Present", RegularMinutes: 60, OvertimeMinutes: 90},
				},
			},
		},
	}
}

func TestAttendanceRows(t *testing.T) {
	rows := AttendanceRows(sampleReport())
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Date", "Alice", "Bob"}, rows[0])
	assert.Equal(t, []string{"2025-06-30", "Present", "Absent"}, rows[1])
	assert.Equal(t, []string{"2025-07-01", "Half Day", "Present"}, rows[2])
}

func TestVoiceRows(t *testing.T) {
	rows := VoiceRows(sampleReport())
	require.Len(t, rows, 3)
	assert.Equal(t, []string{
		"Date",
		"Alice (Voice)", "Alice (Overtime)", "Total", "Total Minutes", "",
		"Bob (Voice)", "Bob (Overtime)", "Total", "Total Minutes", "",
	}, rows[0])
	assert.Equal(t, []string{
		"2025-06-30",
		"02:05", "00:05", "02:10", "130", "",
		"00:00", "00:00", "00:00", "0", "",
	}, rows[1])
}

func TestRenderCSV(t *testing.T) {
	data, err := RenderCSV([][]string{{"Date", "Alice"}, {"2025-06-30", "Present"}})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Date,Alice", lines[0])
	assert.Equal(t, "2025-06-30,Present", lines[1])
}

func TestWithMonthSeparators(t *testing.T) {
	rows := [][]string{
		{"Date", "Alice"},
		{"2025-06-29", "Present"},
		{"2025-06-30", "Present"},
		{"2025-07-01", "Absent"},
	}
	out := withMonthSeparators(rows)
	require.Len(t, out, 5)
	assert.Empty(t, out[3])
	assert.Equal(t, "2025-07-01", out[4][0])

	// A single-month range gains no separator.
	assert.Len(t, withMonthSeparators(rows[:3]), 3)
}

func TestBuildWorkbook(t *testing.T) {
	f, err := BuildWorkbook(sampleReport())
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{sheetAttendance, sheetVoice}, f.GetSheetList())

	rows, err := f.GetRows(sheetAttendance)
	require.NoError(t, err)
	// Header, June row, separator, July row.
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Date", "Alice", "Bob"}, rows[0])
	assert.Equal(t, "2025-06-30", rows[1][0])
	assert.Empty(t, rows[2])
	assert.Equal(t, "2025-07-01", rows[3][0])
}

func TestAppendDayAccumulatesMonthSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.xlsx")
	rep := sampleReport()

	first := &service.Report{
		GuildID: rep.GuildID,
		From:    "2025-06-30", To: "2025-06-30",
		Users: rep.Users,
		Days:  rep.Days[:1],
	}
	second := &service.Report{
		GuildID: rep.GuildID,
		From:    "2025-07-01", To: "2025-07-01",
		Users: rep.Users,
		Days:  rep.Days[1:],
	}

	require.NoError(t, AppendDay(path, first))
	require.NoError(t, AppendDay(path, second))
	// Appending the same day again adds a second row; dedup is the
	// scheduler's job, not the renderer's.
	require.NoError(t, AppendDay(path, second))

	f, err := openOrCreate(path)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Contains(t, sheets, "June 2025 Attendance")
	assert.Contains(t, sheets, "June 2025 Voice")
	assert.Contains(t, sheets, "July 2025 Attendance")
	assert.NotContains(t, sheets, "Sheet1")

	june, err := f.GetRows("June 2025 Attendance")
	require.NoError(t, err)
	require.Len(t, june, 2)
	assert.Equal(t, "2025-06-30", june[1][0])

	july, err := f.GetRows("July 2025 Attendance")
	require.NoError(t, err)
	require.Len(t, july, 3)
	assert.Equal(t, "2025-07-01", july[1][0])
	assert.Equal(t, "2025-07-01", july[2][0])
}
