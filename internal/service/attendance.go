package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/clock"
	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/i18n"
	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/model"
	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/store"
)

// AutoAbsentReason is the reason recorded by the end-of-day sweep.
const AutoAbsentReason = "Auto-Absent (End of Day)"

// AttendanceService is the per-(user, day) attendance state machine. All
// transitions validate against the persisted day log; the status transition
// itself is a single conditional update at the store level, so two
// concurrent markings cannot both pass the check.
type AttendanceService struct {
	logs   LogStore
	engine *Engine
	cal    *clock.Calendar
	logger *zap.Logger
}

func NewAttendanceService(logs LogStore, engine *Engine, cal *clock.Calendar, logger *zap.Logger) *AttendanceService {
	return &AttendanceService{logs: logs, engine: engine, cal: cal, logger: logger}
}

// MarkAttendance records a presence status (Present or a half-day variant)
// for today. An explicit date argument must equal today; presence cannot be
// marked for past or future dates.
func (s *AttendanceService) MarkAttendance(ctx context.Context, userID, userName, guildID string, status model.AttendanceStatus, dateArg string) Result {
	now := s.cal.Now()
	today := s.cal.Today()

	forDate := ""
	if dateArg != "" {
		if _, err := s.cal.ParseDay(dateArg); err != nil {
			return fail(KindInvalidDate, i18n.T(ctx, "attendance.invalid_date"))
		}
		if dateArg != today {
			return fail(KindInvalidDate, i18n.T(ctx, "attendance.not_today"))
		}
		forDate = " for " + dateArg
	}

	ev := model.CommandEvent{
		EventID:   uuid.NewString(),
		Command:   model.CommandPresent,
		Timestamp: now,
	}
	if status != model.StatusPresent {
		ev.Command = model.CommandHalfDay
		ev.HalfDayType = status
	}

	err := s.logs.MarkAttendanceIfUnset(ctx, userID, guildID, today, userName, status, "", ev)
	if errors.Is(err, store.ErrAlreadySet) {
		return s.alreadySet(ctx, userID, guildID, today)
	}
	if err != nil {
		return s.storeFail(ctx, "mark attendance", userID, guildID, err)
	}

	return ok(i18n.T(ctx, "attendance.marked", map[string]any{
		"Status":  status.Label(),
		"ForDate": forDate,
	}))
}

// MarkAbsent records an Absent status for today or a future date. Past dates
// are rejected, and an existing terminal status is never overwritten.
func (s *AttendanceService) MarkAbsent(ctx context.Context, userID, userName, guildID, dateArg, reason string) Result {
	now := s.cal.Now()
	today := s.cal.Today()

	date := dateArg
	if date == "" {
		date = today
	}
	if _, err := s.cal.ParseDay(date); err != nil {
		return fail(KindInvalidDate, i18n.T(ctx, "attendance.invalid_date"))
	}
	if date < today {
		return fail(KindPastDate, i18n.T(ctx, "attendance.past_date"))
	}
	if reason == "" {
		reason = "Absent"
	}

	ev := model.CommandEvent{
		EventID:   uuid.NewString(),
		Command:   model.CommandAbsent,
		Timestamp: now,
		Reason:    reason,
	}

	err := s.logs.MarkAttendanceIfUnset(ctx, userID, guildID, date, userName, model.StatusAbsent, reason, ev)
	if errors.Is(err, store.ErrAlreadySet) {
		return s.alreadySet(ctx, userID, guildID, date)
	}
	if err != nil {
		return s.storeFail(ctx, "mark absent", userID, guildID, err)
	}

	return ok(i18n.T(ctx, "attendance.absent_marked", map[string]any{
		"Date":   date,
		"Reason": reason,
	}))
}

// StartBreak opens a lunch or away interval. The user must be checked in and
// must not already have an open break; the second condition is enforced by
// the store's filtered append, not by a read-then-write check.
func (s *AttendanceService) StartBreak(ctx context.Context, userID, guildID string, kind model.CommandKind, reason string) Result {
	now := s.cal.Now()
	today := s.cal.Today()

	if kind == model.CommandAway && reason == "" {
		reason = "AFK"
	}
	ev := model.CommandEvent{
		EventID:   uuid.NewString(),
		Command:   kind,
		Timestamp: now,
		Reason:    reason,
	}

	appended, err := s.logs.AppendBreakIfNone(ctx, userID, guildID, today, ev)
	if err != nil {
		return s.storeFail(ctx, "start break", userID, guildID, err)
	}
	if !appended {
		log, err := s.logs.Find(ctx, userID, guildID, today)
		if err != nil {
			return s.storeFail(ctx, "start break", userID, guildID, err)
		}
		if log == nil || !log.AttendanceStatus.IsPresentKind() {
			return fail(KindNotCheckedIn, i18n.T(ctx, "attendance.not_checked_in"))
		}
		return fail(KindAlreadyOnBreak, i18n.T(ctx, "attendance.already_on_break"))
	}

	if kind == model.CommandLunch {
		return ok(i18n.T(ctx, "attendance.lunch_started"))
	}
	return ok(i18n.T(ctx, "attendance.away_set", map[string]any{"Reason": reason}))
}

// Resume closes the most recent open break (last-opened-first) and appends a
// resume event.
func (s *AttendanceService) Resume(ctx context.Context, userID, userName, guildID string) Result {
	now := s.cal.Now()
	today := s.cal.Today()

	log, err := s.logs.Find(ctx, userID, guildID, today)
	if err != nil {
		return s.storeFail(ctx, "resume", userID, guildID, err)
	}
	if log == nil {
		return fail(KindNothingToResume, i18n.T(ctx, "attendance.nothing_to_resume"))
	}
	br := log.OpenBreak()
	if br == nil {
		return fail(KindNothingToResume, i18n.T(ctx, "attendance.nothing_to_resume"))
	}

	duration := Round2(now.Sub(br.Timestamp).Seconds())
	closed, err := s.logs.CloseEvent(ctx, userID, guildID, today, br.EventID, now, duration)
	if err != nil {
		return s.storeFail(ctx, "resume", userID, guildID, err)
	}
	if !closed {
		return fail(KindNothingToResume, i18n.T(ctx, "attendance.nothing_to_resume"))
	}

	resume := model.CommandEvent{
		EventID:   uuid.NewString(),
		Command:   model.CommandResume,
		Timestamp: now,
	}
	if err := s.logs.AppendEvent(ctx, userID, guildID, today, userName, resume); err != nil {
		return s.storeFail(ctx, "resume", userID, guildID, err)
	}

	return ok(i18n.T(ctx, "attendance.resumed"))
}

// Drop closes the day's open check-in, appends a drop event, and switches
// any live voice session into overtime tracking.
func (s *AttendanceService) Drop(ctx context.Context, userID, userName, guildID string) Result {
	return s.drop(ctx, userID, userName, guildID, model.CommandDrop)
}

// AutoDrop is the scheduler-issued variant of Drop; it records a distinct
// auto-drop event kind so automatic sign-outs remain distinguishable.
func (s *AttendanceService) AutoDrop(ctx context.Context, userID, userName, guildID string) Result {
	return s.drop(ctx, userID, userName, guildID, model.CommandAutoDrop)
}

func (s *AttendanceService) drop(ctx context.Context, userID, userName, guildID string, kind model.CommandKind) Result {
	now := s.cal.Now()
	today := s.cal.Today()

	log, err := s.logs.Find(ctx, userID, guildID, today)
	if err != nil {
		return s.storeFail(ctx, "drop", userID, guildID, err)
	}
	if log == nil {
		return fail(KindNotCheckedIn, i18n.T(ctx, "attendance.not_checked_in"))
	}
	ci := log.CheckIn()
	if ci == nil {
		return fail(KindNotCheckedIn, i18n.T(ctx, "attendance.not_checked_in"))
	}
	if ci.EndTime != nil {
		return fail(KindAlreadyDropped, i18n.T(ctx, "attendance.already_dropped"))
	}

	duration := Round2(now.Sub(ci.Timestamp).Seconds())
	closed, err := s.logs.CloseEvent(ctx, userID, guildID, today, ci.EventID, now, duration)
	if err != nil {
		return s.storeFail(ctx, "drop", userID, guildID, err)
	}
	if !closed {
		return fail(KindAlreadyDropped, i18n.T(ctx, "attendance.already_dropped"))
	}

	drop := model.CommandEvent{
		EventID:   uuid.NewString(),
		Command:   kind,
		Timestamp: now,
	}
	if err := s.logs.AppendEvent(ctx, userID, guildID, today, userName, drop); err != nil {
		return s.storeFail(ctx, "drop", userID, guildID, err)
	}

	if s.engine != nil {
		if err := s.engine.TriggerAutoDisconnect(ctx, userID, guildID); err != nil {
			s.logger.Error("auto-disconnect after drop failed",
				zap.String("user_id", userID),
				zap.String("guild_id", guildID),
				zap.Error(err),
			)
		}
	}

	return ok(i18n.T(ctx, "attendance.dropped", map[string]any{
		"Hours": Round2(duration / 3600),
	}))
}

// Today returns the user's log for the current local day, or nil when no
// state-changing event has happened yet. Used by the mention auto-reply.
func (s *AttendanceService) Today(ctx context.Context, userID, guildID string) (*model.DayLog, error) {
	log, err := s.logs.Find(ctx, userID, guildID, s.cal.Today())
	if err != nil {
		return nil, fmt.Errorf("find day log: %w", err)
	}
	return log, nil
}

// OpenCheckIns lists the logs in a guild whose check-in is still open on the
// given day, the auto-drop sweep's work list.
func (s *AttendanceService) OpenCheckIns(ctx context.Context, guildID, date string) ([]*model.DayLog, error) {
	logs, err := s.logs.OpenCheckIns(ctx, guildID, date)
	if err != nil {
		return nil, fmt.Errorf("list open check-ins: %w", err)
	}
	return logs, nil
}

func (s *AttendanceService) alreadySet(ctx context.Context, userID, guildID, date string) Result {
	status := "set"
	if log, err := s.logs.Find(ctx, userID, guildID, date); err == nil && log != nil {
		status = string(log.AttendanceStatus)
	}
	return fail(KindAlreadySet, i18n.T(ctx, "attendance.already_set", map[string]any{
		"Status": status,
		"Date":   date,
	}))
}

func (s *AttendanceService) storeFail(ctx context.Context, op, userID, guildID string, err error) Result {
	s.logger.Error("attendance store operation failed",
		zap.String("op", op),
		zap.String("user_id", userID),
		zap.String("guild_id", guildID),
		zap.Error(err),
	)
	return fail(KindStoreUnavailable, i18n.T(ctx, "common.store_unavailable"))
}
