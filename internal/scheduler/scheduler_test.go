package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/clock"
	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/config"
	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/i18n"
	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/model"
	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/service"
	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/store"
)

const testGuild = "guild-1"

func TestMain(m *testing.M) {
	i18n.Init("en")
	m.Run()
}

// stubLogStore implements just enough of the attendance log semantics for
// the sweep jobs.
type stubLogStore struct {
	mu   sync.Mutex
	logs map[string]*model.DayLog
}

func newStubLogStore() *stubLogStore {
	return &stubLogStore{logs: make(map[string]*model.DayLog)}
}

func (s *stubLogStore) key(userID, date string) string { return userID + "|" + date }

func (s *stubLogStore) Find(_ context.Context, userID, _, date string) (*model.DayLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logs[s.key(userID, date)], nil
}

func (s *stubLogStore) MarkAttendanceIfUnset(_ context.Context, userID, guildID, date, userName string, status model.AttendanceStatus, reason string, ev model.CommandEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := s.key(userID, date)
	if l := s.logs[k]; l != nil && l.AttendanceStatus != "" {
		return store.ErrAlreadySet
	}
	s.logs[k] = &model.DayLog{
		UserID: userID, GuildID: guildID, Date: date, UserName: userName,
		AttendanceStatus: status, Reason: reason,
		CommandsUsed: []model.CommandEvent{ev},
	}
	return nil
}

func (s *stubLogStore) AppendBreakIfNone(context.Context, string, string, string, model.CommandEvent) (bool, error) {
	return false, nil
}

func (s *stubLogStore) AppendEvent(_ context.Context, userID, guildID, date, userName string, ev model.CommandEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := s.key(userID, date)
	l := s.logs[k]
	if l == nil {
		l = &model.DayLog{UserID: userID, GuildID: guildID, Date: date, UserName: userName}
		s.logs[k] = l
	}
	l.CommandsUsed = append(l.CommandsUsed, ev)
	return nil
}

func (s *stubLogStore) CloseEvent(_ context.Context, userID, _, date, eventID string, end time.Time, duration float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.logs[s.key(userID, date)]
	if l == nil {
		return false, nil
	}
	for i := range l.CommandsUsed {
		ev := &l.CommandsUsed[i]
		if ev.EventID == eventID && ev.EndTime == nil {
			endCopy := end
			ev.EndTime = &endCopy
			ev.Duration = duration
			return true, nil
		}
	}
	return false, nil
}

func (s *stubLogStore) QueryRange(context.Context, string, string, string, string) ([]*model.DayLog, error) {
	return nil, nil
}

func (s *stubLogStore) OpenCheckIns(_ context.Context, guildID, date string) ([]*model.DayLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.DayLog
	for _, l := range s.logs {
		if l.GuildID != guildID || l.Date != date {
			continue
		}
		if ci := l.CheckIn(); ci != nil && ci.EndTime == nil {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *stubLogStore) IncrementBhai(context.Context, string, string, string, string) error {
	return nil
}

func (s *stubLogStore) BhaiTotal(context.Context, string, string) (int64, error) { return 0, nil }

func (s *stubLogStore) AggregateBhaiTotals(context.Context) ([]model.UserTotal, error) {
	return nil, nil
}

type stubActivityStore struct{}

func (stubActivityStore) AppendSession(context.Context, string, string, string, string, model.SessionInterval) error {
	return nil
}

func (stubActivityStore) QueryRange(context.Context, string, string, string, string) ([]*model.VoiceDay, error) {
	return nil, nil
}

func (stubActivityStore) AggregateTotals(context.Context) ([]model.UserTotal, error) {
	return nil, nil
}

type stubCounterStore struct{}

func (stubCounterStore) IncrementVoice(context.Context, string, string, float64, float64) error {
	return nil
}
func (stubCounterStore) IncrementBhai(context.Context, string, string) error { return nil }
func (stubCounterStore) SetTotals(context.Context, string, int64, float64, float64) error {
	return nil
}
func (stubCounterStore) Top(context.Context, string, bool, int64) ([]*model.UserCounter, error) {
	return nil, nil
}
func (stubCounterStore) Get(context.Context, string) (*model.UserCounter, error) { return nil, nil }

type stubDirectory struct {
	members []service.Member
}

func (d *stubDirectory) Guilds(context.Context) ([]string, error) { return []string{testGuild}, nil }
func (d *stubDirectory) Members(context.Context, string) ([]service.Member, error) {
	return d.members, nil
}

type recordingExporter struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingExporter) ExportDay(_ context.Context, guildID, date string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, guildID+"|"+date)
	return nil
}

func newTestScheduler(t *testing.T, at time.Time, logs *stubLogStore, dir *stubDirectory, exporter *recordingExporter) *Scheduler {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	mock := quartz.NewMock(t)
	mock.Set(at)
	cal := clock.NewCalendar(mock, loc, clock.TimeOfDay{Hour: 9, Minute: 0})

	logger := zap.NewNop()
	engine := service.NewEngine(logs, stubActivityStore{}, stubCounterStore{}, cal, logger)
	attendance := service.NewAttendanceService(logs, engine, cal, logger)

	cfg := &config.Config{
		Timezone:        loc,
		ShiftStart:      clock.TimeOfDay{Hour: 9},
		AutoDropTime:    clock.TimeOfDay{Hour: 22},
		AutoAbsentTime:  clock.TimeOfDay{Hour: 23, Minute: 30},
		DailyExportTime: clock.TimeOfDay{Minute: 30},
	}
	return New(cfg, attendance, engine, dir, exporter, nil, cal, logger)
}

func TestAutoAbsentMarksUnmarkedMembers(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 6, 2, 23, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))
	logs := newStubLogStore()
	dir := &stubDirectory{members: []service.Member{
		{ID: "u1", DisplayName: "Alice"},
		{ID: "u2", DisplayName: "Bob"},
	}}

	s := newTestScheduler(t, at, logs, dir, &recordingExporter{})

	// u1 already marked present; only u2 should be auto-marked.
	require.NoError(t, logs.MarkAttendanceIfUnset(ctx, "u1", testGuild, "2025-06-02", "Alice", model.StatusPresent, "", model.CommandEvent{EventID: "e1", Command: model.CommandPresent}))

	s.runAutoAbsent()

	l2, err := logs.Find(ctx, "u2", testGuild, "2025-06-02")
	require.NoError(t, err)
	require.NotNil(t, l2)
	assert.Equal(t, model.StatusAbsent, l2.AttendanceStatus)
	assert.Equal(t, service.AutoAbsentReason, l2.Reason)

	l1, err := logs.Find(ctx, "u1", testGuild, "2025-06-02")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPresent, l1.AttendanceStatus)

	// Rerun is a no-op.
	s.runAutoAbsent()
	l2Again, err := logs.Find(ctx, "u2", testGuild, "2025-06-02")
	require.NoError(t, err)
	assert.Len(t, l2Again.CommandsUsed, 1)
}

func TestAutoAbsentSkipsWeekend(t *testing.T) {
	// 2025-06-07 is a Saturday.
	at := time.Date(2025, 6, 7, 23, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))
	logs := newStubLogStore()
	dir := &stubDirectory{members: []service.Member{{ID: "u1", DisplayName: "Alice"}}}

	s := newTestScheduler(t, at, logs, dir, &recordingExporter{})
	s.runAutoAbsent()

	l, err := logs.Find(context.Background(), "u1", testGuild, "2025-06-07")
	require.NoError(t, err)
	assert.Nil(t, l)
}

func TestAutoDropClosesOpenCheckIns(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 6, 2, 22, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	logs := newStubLogStore()
	dir := &stubDirectory{}

	s := newTestScheduler(t, at, logs, dir, &recordingExporter{})

	require.NoError(t, logs.MarkAttendanceIfUnset(ctx, "u1", testGuild, "2025-06-02", "Alice", model.StatusPresent, "", model.CommandEvent{EventID: "e1", Command: model.CommandPresent, Timestamp: at.Add(-8 * time.Hour)}))

	s.runAutoDrop()

	l, err := logs.Find(ctx, "u1", testGuild, "2025-06-02")
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.True(t, l.Dropped())
	last := l.LastEvent()
	require.NotNil(t, last)
	assert.Equal(t, model.CommandAutoDrop, last.Command)
	ci := l.CheckIn()
	require.NotNil(t, ci.EndTime)

	// Second run finds no open check-in.
	s.runAutoDrop()
	l, err = logs.Find(ctx, "u1", testGuild, "2025-06-02")
	require.NoError(t, err)
	assert.Len(t, l.CommandsUsed, 2)
}

func TestDailyExportShipsYesterday(t *testing.T) {
	at := time.Date(2025, 6, 3, 0, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))
	exporter := &recordingExporter{}
	s := newTestScheduler(t, at, newStubLogStore(), &stubDirectory{}, exporter)

	s.runDailyExport()

	require.Len(t, exporter.calls, 1)
	assert.Equal(t, testGuild+"|2025-06-02", exporter.calls[0])
}

func TestSummaryLine(t *testing.T) {
	assert.Equal(t, "Auto-drop: 3 user(s) signed out.", summaryLine("Auto-drop", "signed out", 3, 0))
	assert.Equal(t, "Auto-absent: 2 user(s) marked absent, 1 failed.", summaryLine("Auto-absent", "marked absent", 2, 1))
}
