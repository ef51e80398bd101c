package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/model"
)

func newReportFixture(t *testing.T, at time.Time, members []Member) (*ReportService, *memLogStore, *memActivityStore) {
	t.Helper()
	cal, _ := newTestCalendar(t, at)
	logs := newMemLogStore()
	activity := newMemActivityStore()
	dir := &staticDirectory{
		guilds:  []string{testGuild},
		members: map[string][]Member{testGuild: members},
	}
	return NewReportService(logs, activity, dir, cal, zap.NewNop()), logs, activity
}

func seedPresent(t *testing.T, logs *memLogStore, userID, name, date string) {
	t.Helper()
	require.NoError(t, logs.MarkAttendanceIfUnset(context.Background(), userID, testGuild, date, name, model.StatusPresent, "", model.CommandEvent{
		EventID: "ev-" + userID + "-" + date,
		Command: model.CommandPresent,
	}))
}

func seedVoice(t *testing.T, activity *memActivityStore, userID, name, date string, regular, overtime float64) {
	t.Helper()
	ctx := context.Background()
	if regular > 0 {
		require.NoError(t, activity.AppendSession(ctx, userID, testGuild, date, name, model.SessionInterval{
			ChannelName: "work", Duration: regular, Status: model.ClassRegular,
		}))
	}
	if overtime > 0 {
		require.NoError(t, activity.AppendSession(ctx, userID, testGuild, date, name, model.SessionInterval{
			ChannelName: "work", Duration: overtime, Status: model.ClassOvertime,
		}))
	}
}

func TestBuildReport(t *testing.T) {
	ctx := context.Background()
	members := []Member{
		{ID: "u2", DisplayName: "Bob"},
		{ID: "u3", DisplayName: "Carol"},
	}
	svc, logs, activity := newReportFixture(t, workdayMorning(t), members)

	// u1 left the guild but has history; u3 has no activity at all.
	seedPresent(t, logs, "u1", "Alice", "2025-06-02")
	seedPresent(t, logs, "u2", "Bob", "2025-06-02")
	seedVoice(t, activity, "u2", "Bob", "2025-06-02", 3600, 300)

	rep, err := svc.Build(ctx, testGuild, "2025-06-02", "2025-06-03", "")
	require.NoError(t, err)

	// Union of recorded and current users, sorted by display name.
	require.Len(t, rep.Users, 3)
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, []string{rep.Users[0].Name, rep.Users[1].Name, rep.Users[2].Name})

	require.Len(t, rep.Days, 2)
	day := rep.Days[0]
	assert.Equal(t, "2025-06-02", day.Date)
	assert.False(t, day.Holiday)
	assert.Equal(t, "Present", day.Cells[0].Status)
	assert.Equal(t, "Present", day.Cells[1].Status)
	assert.Equal(t, 60, day.Cells[1].RegularMinutes)
	assert.Equal(t, 5, day.Cells[1].OvertimeMinutes)
	// Zero-activity member still appears, as Absent.
	assert.Equal(t, "Absent", day.Cells[2].Status)
	assert.Zero(t, day.Cells[2].RegularMinutes)

	// No records on the second day: everyone Absent.
	for _, cell := range rep.Days[1].Cells {
		assert.Equal(t, "Absent", cell.Status)
	}
}

func TestBuildReportWeekendIsHoliday(t *testing.T) {
	ctx := context.Background()
	svc, logs, _ := newReportFixture(t, workdayMorning(t), nil)

	// Even a recorded Present renders as Holiday on a Saturday.
	seedPresent(t, logs, "u1", "Alice", "2025-06-07")

	rep, err := svc.Build(ctx, testGuild, "2025-06-06", "2025-06-08", "")
	require.NoError(t, err)
	require.Len(t, rep.Days, 3)
	assert.False(t, rep.Days[0].Holiday)
	assert.True(t, rep.Days[1].Holiday)
	assert.True(t, rep.Days[2].Holiday)
	assert.Equal(t, "Holiday", rep.Days[1].Cells[0].Status)
}

func TestBuildReportHalfDayLabel(t *testing.T) {
	ctx := context.Background()
	svc, logs, _ := newReportFixture(t, workdayMorning(t), nil)

	require.NoError(t, logs.MarkAttendanceIfUnset(ctx, "u1", testGuild, "2025-06-02", "Alice", model.StatusJoiningMidDay, "", model.CommandEvent{
		EventID: "ev1", Command: model.CommandHalfDay, HalfDayType: model.StatusJoiningMidDay,
	}))

	rep, err := svc.Build(ctx, testGuild, "2025-06-02", "2025-06-02", "")
	require.NoError(t, err)
	assert.Equal(t, "Half Day", rep.Days[0].Cells[0].Status)
}

func TestBuildReportValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newReportFixture(t, workdayMorning(t), nil)

	_, err := svc.Build(ctx, testGuild, "junk", "2025-06-02", "")
	assert.Error(t, err)

	_, err = svc.Build(ctx, testGuild, "2025-06-05", "2025-06-02", "")
	assert.Error(t, err)
}

func TestBuildReportSingleUser(t *testing.T) {
	ctx := context.Background()
	members := []Member{{ID: "u2", DisplayName: "Bob"}}
	svc, logs, _ := newReportFixture(t, workdayMorning(t), members)

	seedPresent(t, logs, "u1", "Alice", "2025-06-02")
	seedPresent(t, logs, "u2", "Bob", "2025-06-02")

	rep, err := svc.Build(ctx, testGuild, "2025-06-02", "2025-06-02", "u1")
	require.NoError(t, err)
	// A user-scoped report does not pull in the guild roster.
	require.Len(t, rep.Users, 1)
	assert.Equal(t, "u1", rep.Users[0].ID)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	svc, _, activity := newReportFixture(t, workdayMorning(t), nil)

	seedVoice(t, activity, "u1", "Alice", "2025-06-02", 3600, 0)
	seedVoice(t, activity, "u1", "Alice", "2025-06-03", 1800, 600)
	seedVoice(t, activity, "u2", "Bob", "2025-06-02", 900, 0)

	stats, err := svc.Stats(ctx, testGuild, "2025-06-02", "2025-06-03", "")
	require.NoError(t, err)
	assert.InDelta(t, 6300, stats.TotalRegular, 0.01)
	assert.InDelta(t, 600, stats.TotalOvertime, 0.01)
	assert.Equal(t, 4, stats.SessionCount)
	require.Len(t, stats.PerUser, 2)
	// Ordered by total time descending.
	assert.Equal(t, "u1", stats.PerUser[0].UserID)
	assert.Empty(t, stats.ChannelTotals)

	stats, err = svc.Stats(ctx, testGuild, "2025-06-02", "2025-06-03", "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.SessionCount)
	assert.InDelta(t, 6000, stats.ChannelTotals["work"], 0.01)
}

func TestMonthBounds(t *testing.T) {
	loc := testLocation(t)
	from, to := MonthBounds(time.Date(2025, 2, 14, 10, 0, 0, 0, loc))
	assert.Equal(t, "2025-02-01", from)
	assert.Equal(t, "2025-02-28", to)
}
