package service

import (
	"context"
	"time"

	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/model"
)

// LogStore is the attendance log persistence consumed by the services.
// Implemented by store.AttendanceStore.
type LogStore interface {
	Find(ctx context.Context, userID, guildID, date string) (*model.DayLog, error)
	MarkAttendanceIfUnset(ctx context.Context, userID, guildID, date, userName string, status model.AttendanceStatus, reason string, ev model.CommandEvent) error
	AppendBreakIfNone(ctx context.Context, userID, guildID, date string, ev model.CommandEvent) (bool, error)
	AppendEvent(ctx context.Context, userID, guildID, date, userName string, ev model.CommandEvent) error
	CloseEvent(ctx context.Context, userID, guildID, date, eventID string, end time.Time, duration float64) (bool, error)
	QueryRange(ctx context.Context, guildID, from, to, userID string) ([]*model.DayLog, error)
	OpenCheckIns(ctx context.Context, guildID, date string) ([]*model.DayLog, error)
	IncrementBhai(ctx context.Context, userID, guildID, date, userName string) error
	BhaiTotal(ctx context.Context, userID, guildID string) (int64, error)
	AggregateBhaiTotals(ctx context.Context) ([]model.UserTotal, error)
}

// ActivityStore is the voice session persistence consumed by the session
// engine and reporting. Implemented by store.VoiceStore.
type ActivityStore interface {
	AppendSession(ctx context.Context, userID, guildID, date, userName string, iv model.SessionInterval) error
	QueryRange(ctx context.Context, guildID, from, to, userID string) ([]*model.VoiceDay, error)
	AggregateTotals(ctx context.Context) ([]model.UserTotal, error)
}

// CounterStore is the global per-user counter persistence. Implemented by
// store.CounterStore.
type CounterStore interface {
	IncrementVoice(ctx context.Context, userID, displayName string, regular, overtime float64) error
	IncrementBhai(ctx context.Context, userID, displayName string) error
	SetTotals(ctx context.Context, userID string, bhai int64, regular, overtime float64) error
	Top(ctx context.Context, sortField string, ascending bool, limit int64) ([]*model.UserCounter, error)
	Get(ctx context.Context, userID string) (*model.UserCounter, error)
}

// Member is a guild member as reporting needs it.
type Member struct {
	ID          string
	DisplayName string
}

// Directory supplies the currently known guilds and their members.
// Implemented by the Discord client.
type Directory interface {
	Guilds(ctx context.Context) ([]string, error)
	Members(ctx context.Context, guildID string) ([]Member, error)
}
