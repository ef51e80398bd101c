package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/clock"
	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/model"
)

// OvertimeReason records why a session was classified overtime at start.
// It is in-memory only; the persisted interval carries just the class.
type OvertimeReason string

const (
	OvertimeNone     OvertimeReason = ""
	OvertimePreShift OvertimeReason = "pre_shift"
	OvertimePostDrop OvertimeReason = "post_drop"
	OvertimeWeekend  OvertimeReason = "weekend"
)

// ActiveSession is one open voice interval. Owned exclusively by the Engine;
// classification is decided at start and fixed for the session's lifetime
// except for the shift-boundary split at close.
type ActiveSession struct {
	UserID         string
	GuildID        string
	UserName       string
	ChannelID      string
	ChannelName    string
	StartTime      time.Time // UTC
	Overtime       bool
	OvertimeReason OvertimeReason
}

type sessionKey struct {
	UserID  string
	GuildID string
}

// Engine tracks at most one open voice interval per (user, guild) and turns
// closes into persisted intervals plus running-total and global-counter
// increments. Events for the same key are serialized on a per-key mutex;
// events for different keys do not block each other.
type Engine struct {
	logs     LogStore
	activity ActivityStore
	counters CounterStore
	cal      *clock.Calendar
	logger   *zap.Logger

	mu       sync.Mutex
	sessions map[sessionKey]*ActiveSession
	locks    map[sessionKey]*sync.Mutex
}

func NewEngine(logs LogStore, activity ActivityStore, counters CounterStore, cal *clock.Calendar, logger *zap.Logger) *Engine {
	return &Engine{
		logs:     logs,
		activity: activity,
		counters: counters,
		cal:      cal,
		logger:   logger,
		sessions: make(map[sessionKey]*ActiveSession),
		locks:    make(map[sessionKey]*sync.Mutex),
	}
}

// lockKey returns the held per-key mutex. The lock table only grows, bounded
// by the user population.
func (e *Engine) lockKey(k sessionKey) *sync.Mutex {
	e.mu.Lock()
	l, okLock := e.locks[k]
	if !okLock {
		l = &sync.Mutex{}
		e.locks[k] = l
	}
	e.mu.Unlock()
	l.Lock()
	return l
}

func (e *Engine) getSession(k sessionKey) *ActiveSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions[k]
}

func (e *Engine) setSession(k sessionKey, s *ActiveSession) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s == nil {
		delete(e.sessions, k)
	} else {
		e.sessions[k] = s
	}
}

// Start opens a session for a user joining a voice channel and decides its
// class: weekends are unconditionally overtime, then a recorded drop today
// means post-drop overtime, then a start before shift start means pre-shift
// overtime, otherwise regular.
func (e *Engine) Start(ctx context.Context, userID, userName, guildID, channelID, channelName string) error {
	k := sessionKey{UserID: userID, GuildID: guildID}
	l := e.lockKey(k)
	defer l.Unlock()
	return e.startLocked(ctx, k, userName, channelID, channelName)
}

func (e *Engine) startLocked(ctx context.Context, k sessionKey, userName, channelID, channelName string) error {
	// A stray start while already tracked means we missed a leave event;
	// close the stale interval before opening the new one.
	if e.getSession(k) != nil {
		if err := e.endLocked(ctx, k, model.DisconnectLeft); err != nil {
			return err
		}
	}

	now := e.cal.Now()
	overtime := false
	reason := OvertimeNone
	switch {
	case e.cal.IsWeekend(now):
		overtime = true
		reason = OvertimeWeekend
	case e.droppedToday(ctx, k):
		overtime = true
		reason = OvertimePostDrop
	case e.cal.IsPreShift(now):
		overtime = true
		reason = OvertimePreShift
	}

	sess := &ActiveSession{
		UserID:         k.UserID,
		GuildID:        k.GuildID,
		UserName:       userName,
		ChannelID:      channelID,
		ChannelName:    channelName,
		StartTime:      now.UTC(),
		Overtime:       overtime,
		OvertimeReason: reason,
	}
	e.setSession(k, sess)

	e.logger.Info("voice session started",
		zap.String("user", userName),
		zap.String("guild_id", k.GuildID),
		zap.String("channel", channelName),
		zap.Bool("overtime", overtime),
		zap.String("overtime_reason", string(reason)),
	)
	return nil
}

// droppedToday consults the persisted log, not engine state, so the state
// machine and the engine agree on "is the user in overtime" without sharing
// locks. A store failure falls back to time-based classification.
func (e *Engine) droppedToday(ctx context.Context, k sessionKey) bool {
	log, err := e.logs.Find(ctx, k.UserID, k.GuildID, e.cal.Today())
	if err != nil {
		e.logger.Error("classify session: read day log failed",
			zap.String("user_id", k.UserID),
			zap.String("guild_id", k.GuildID),
			zap.Error(err),
		)
		return false
	}
	return log != nil && log.Dropped()
}

// End closes a user's session, if any, and persists the finished interval
// under the local calendar day of the session *start*. A pre-shift session
// that crossed the shift boundary is split into an overtime interval up to
// the boundary and a regular interval after it; a session must never be
// logged as a single interval of one class across the boundary.
func (e *Engine) End(ctx context.Context, userID, guildID string, reason model.DisconnectReason) error {
	k := sessionKey{UserID: userID, GuildID: guildID}
	l := e.lockKey(k)
	defer l.Unlock()
	return e.endLocked(ctx, k, reason)
}

func (e *Engine) endLocked(ctx context.Context, k sessionKey, reason model.DisconnectReason) error {
	sess := e.getSession(k)
	if sess == nil {
		return nil
	}
	e.setSession(k, nil)

	end := e.cal.Now().UTC()
	date := e.cal.DayKey(sess.StartTime)

	var intervals []model.SessionInterval
	threshold := e.cal.ShiftStartOn(sess.StartTime).UTC()
	if sess.OvertimeReason == OvertimePreShift && !end.Before(threshold) {
		intervals = append(intervals,
			model.SessionInterval{
				ChannelName: sess.ChannelName,
				StartTime:   sess.StartTime,
				EndTime:     threshold,
				Duration:    Round2(threshold.Sub(sess.StartTime).Seconds()),
				Disconnect:  model.DisconnectShiftStart,
				Status:      model.ClassOvertime,
			},
			model.SessionInterval{
				ChannelName: sess.ChannelName,
				StartTime:   threshold,
				EndTime:     end,
				Duration:    Round2(end.Sub(threshold).Seconds()),
				Disconnect:  reason,
				Status:      model.ClassRegular,
			},
		)
	} else {
		class := model.ClassRegular
		if sess.Overtime {
			class = model.ClassOvertime
		}
		intervals = append(intervals, model.SessionInterval{
			ChannelName: sess.ChannelName,
			StartTime:   sess.StartTime,
			EndTime:     end,
			Duration:    Round2(end.Sub(sess.StartTime).Seconds()),
			Disconnect:  reason,
			Status:      class,
		})
	}

	for _, iv := range intervals {
		if iv.Duration <= 0 {
			continue
		}
		if err := e.activity.AppendSession(ctx, k.UserID, k.GuildID, date, sess.UserName, iv); err != nil {
			return fmt.Errorf("persist interval: %w", err)
		}
		regular, overtime := iv.Duration, 0.0
		if iv.Status == model.ClassOvertime {
			regular, overtime = 0, iv.Duration
		}
		if err := e.counters.IncrementVoice(ctx, k.UserID, sess.UserName, regular, overtime); err != nil {
			return fmt.Errorf("increment counters: %w", err)
		}
	}

	e.logger.Info("voice session ended",
		zap.String("user", sess.UserName),
		zap.String("guild_id", k.GuildID),
		zap.String("channel", sess.ChannelName),
		zap.String("disconnect", string(reason)),
		zap.Int("intervals", len(intervals)),
	)
	return nil
}

// Hop moves a user between channels: the old session ends with reason
// "hopped" and a new one starts, both under one critical section so a racing
// sweep cannot observe the gap. The new session re-derives its class from
// time and attendance state; a hop at the shift boundary legitimately flips
// class across two separate intervals, never a split one.
func (e *Engine) Hop(ctx context.Context, userID, userName, guildID, channelID, channelName string) error {
	k := sessionKey{UserID: userID, GuildID: guildID}
	l := e.lockKey(k)
	defer l.Unlock()
	if err := e.endLocked(ctx, k, model.DisconnectHopped); err != nil {
		return err
	}
	return e.startLocked(ctx, k, userName, channelID, channelName)
}

// TriggerAutoDisconnect is called by the attendance state machine when a
// user drops. If they are still in voice, the current session closes with
// reason "auto-disconnect" and reopens on the same channel; the reopened
// session sees the just-recorded drop event and classifies as overtime.
func (e *Engine) TriggerAutoDisconnect(ctx context.Context, userID, guildID string) error {
	k := sessionKey{UserID: userID, GuildID: guildID}
	l := e.lockKey(k)
	defer l.Unlock()

	sess := e.getSession(k)
	if sess == nil {
		return nil
	}
	userName, channelID, channelName := sess.UserName, sess.ChannelID, sess.ChannelName
	if err := e.endLocked(ctx, k, model.DisconnectAuto); err != nil {
		return err
	}
	return e.startLocked(ctx, k, userName, channelID, channelName)
}

// SweepShiftStart force-closes every session still open with pre-shift
// classification once the boundary passes, and reopens it. The close path's
// split rule emits the boundary-exact overtime interval; the reopen
// re-classifies (now regular). Mirrors the natural split for sessions whose
// owner never disconnected. Returns the number of sessions swept.
func (e *Engine) SweepShiftStart(ctx context.Context) (int, error) {
	e.mu.Lock()
	var keys []sessionKey
	for k, s := range e.sessions {
		if s.OvertimeReason == OvertimePreShift {
			keys = append(keys, k)
		}
	}
	e.mu.Unlock()

	swept := 0
	for _, k := range keys {
		l := e.lockKey(k)
		sess := e.getSession(k)
		if sess == nil || sess.OvertimeReason != OvertimePreShift {
			// Raced a disconnect or hop; nothing left to sweep.
			l.Unlock()
			continue
		}
		userName, channelID, channelName := sess.UserName, sess.ChannelID, sess.ChannelName
		err := e.endLocked(ctx, k, model.DisconnectShiftStart)
		if err == nil {
			err = e.startLocked(ctx, k, userName, channelID, channelName)
		}
		l.Unlock()
		if err != nil {
			e.logger.Error("shift-start sweep failed for session",
				zap.String("user_id", k.UserID),
				zap.String("guild_id", k.GuildID),
				zap.Error(err),
			)
			continue
		}
		swept++
	}
	return swept, nil
}

// Shutdown flushes every open session to the store with disconnect reason
// "manual". Called on graceful process stop; a hard kill still loses open
// intervals.
func (e *Engine) Shutdown(ctx context.Context) {
	e.mu.Lock()
	keys := make([]sessionKey, 0, len(e.sessions))
	for k := range e.sessions {
		keys = append(keys, k)
	}
	e.mu.Unlock()

	for _, k := range keys {
		l := e.lockKey(k)
		if err := e.endLocked(ctx, k, model.DisconnectManual); err != nil {
			e.logger.Error("flush session on shutdown failed",
				zap.String("user_id", k.UserID),
				zap.String("guild_id", k.GuildID),
				zap.Error(err),
			)
		}
		l.Unlock()
	}
}

// Active returns the open session for a (user, guild), or nil. Callers get a
// copy; the engine keeps ownership of the live record.
func (e *Engine) Active(userID, guildID string) *ActiveSession {
	sess := e.getSession(sessionKey{UserID: userID, GuildID: guildID})
	if sess == nil {
		return nil
	}
	cp := *sess
	return &cp
}
