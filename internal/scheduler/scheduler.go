package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/clock"
	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/config"
	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/service"
)

// DailyExporter delivers one finished day's records to the export sinks.
// Implemented by export.Daily.
type DailyExporter interface {
	ExportDay(ctx context.Context, guildID, date string) error
}

// Notifier posts job summaries to the guild's attendance channel. Implemented
// by the Discord client. A nil Notifier disables posting.
type Notifier interface {
	PostSummary(ctx context.Context, guildID, text string) error
}

// Scheduler owns the daily cron jobs: shift-start reclassification,
// auto-drop, auto-absent, and the previous-day export. Every job iterates
// guilds and users with per-item error collection; one failing user never
// aborts the rest of the batch.
type Scheduler struct {
	cron       *cron.Cron
	attendance *service.AttendanceService
	engine     *service.Engine
	dir        service.Directory
	exporter   DailyExporter
	notifier   Notifier
	cal        *clock.Calendar
	logger     *zap.Logger
}

func New(cfg *config.Config, attendance *service.AttendanceService, engine *service.Engine, dir service.Directory, exporter DailyExporter, notifier Notifier, cal *clock.Calendar, logger *zap.Logger) *Scheduler {
	s := &Scheduler{
		attendance: attendance,
		engine:     engine,
		dir:        dir,
		exporter:   exporter,
		notifier:   notifier,
		cal:        cal,
		logger:     logger,
	}
	s.cron = cron.New(
		cron.WithLocation(cal.Location()),
		cron.WithChain(
			cron.SkipIfStillRunning(cron.VerbosePrintfLogger(zap.NewStdLog(logger))),
		),
	)

	mustAdd := func(name string, tod clock.TimeOfDay, job func()) {
		if _, err := s.cron.AddFunc(tod.CronSpec(), job); err != nil {
			logger.Fatal("register cron job", zap.String("job", name), zap.Error(err))
		}
		logger.Info("scheduled job", zap.String("job", name), zap.Stringer("at", tod))
	}
	mustAdd("shift_start", cfg.ShiftStart, s.runShiftStart)
	mustAdd("auto_drop", cfg.AutoDropTime, s.runAutoDrop)
	mustAdd("auto_absent", cfg.AutoAbsentTime, s.runAutoAbsent)
	mustAdd("daily_export", cfg.DailyExportTime, s.runDailyExport)
	return s
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for any running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) jobContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Minute)
}

// runShiftStart closes every pre-shift voice session at the shift boundary
// so the overtime portion is sealed and tracking restarts as regular time.
func (s *Scheduler) runShiftStart() {
	ctx, cancel := s.jobContext()
	defer cancel()

	if now := s.cal.Now(); s.cal.IsWeekend(now) {
		s.logger.Info("shift-start sweep skipped, weekend", zap.String("date", s.cal.DayKey(now)))
		return
	}

	swept, err := s.engine.SweepShiftStart(ctx)
	if err != nil {
		s.logger.Error("shift-start sweep failed", zap.Error(err))
		return
	}
	s.logger.Info("shift-start sweep complete", zap.Int("sessions_swept", swept))
}

// runAutoDrop signs out every user still checked in at end of day.
func (s *Scheduler) runAutoDrop() {
	ctx, cancel := s.jobContext()
	defer cancel()

	now := s.cal.Now()
	if s.cal.IsWeekend(now) {
		s.logger.Info("auto-drop skipped, weekend", zap.String("date", s.cal.DayKey(now)))
		return
	}
	today := s.cal.DayKey(now)

	guilds, err := s.dir.Guilds(ctx)
	if err != nil {
		s.logger.Error("auto-drop: list guilds failed", zap.Error(err))
		return
	}

	for _, guildID := range guilds {
		open, err := s.attendance.OpenCheckIns(ctx, guildID, today)
		if err != nil {
			s.logger.Error("auto-drop: list open check-ins failed",
				zap.String("guild_id", guildID),
				zap.Error(err),
			)
			continue
		}

		dropped, failed := 0, 0
		for _, l := range open {
			res := s.attendance.AutoDrop(ctx, l.UserID, l.UserName, guildID)
			switch {
			case res.OK:
				dropped++
			case res.Kind == service.KindAlreadyDropped, res.Kind == service.KindNotCheckedIn:
				// Raced with a manual drop between the query and now.
			default:
				failed++
				s.logger.Error("auto-drop: drop failed",
					zap.String("guild_id", guildID),
					zap.String("user_id", l.UserID),
					zap.Stringer("kind", res.Kind),
				)
			}
		}
		s.logger.Info("auto-drop complete",
			zap.String("guild_id", guildID),
			zap.String("date", today),
			zap.Int("dropped", dropped),
			zap.Int("failed", failed),
		)
		s.post(ctx, guildID, "auto_drop", dropped, failed)
	}
}

// runAutoAbsent marks every member without an attendance status today as
// absent. Weekends are skipped entirely; re-runs are no-ops because an
// already-set status rejects the mark.
func (s *Scheduler) runAutoAbsent() {
	ctx, cancel := s.jobContext()
	defer cancel()

	now := s.cal.Now()
	if s.cal.IsWeekend(now) {
		s.logger.Info("auto-absent skipped, weekend", zap.String("date", s.cal.DayKey(now)))
		return
	}
	today := s.cal.DayKey(now)

	guilds, err := s.dir.Guilds(ctx)
	if err != nil {
		s.logger.Error("auto-absent: list guilds failed", zap.Error(err))
		return
	}

	for _, guildID := range guilds {
		members, err := s.dir.Members(ctx, guildID)
		if err != nil {
			s.logger.Error("auto-absent: list members failed",
				zap.String("guild_id", guildID),
				zap.Error(err),
			)
			continue
		}

		marked, failed := 0, 0
		for _, m := range members {
			res := s.attendance.MarkAbsent(ctx, m.ID, m.DisplayName, guildID, today, service.AutoAbsentReason)
			switch {
			case res.OK:
				marked++
			case res.Kind == service.KindAlreadySet:
				// Attendance or an earlier absent already recorded.
			default:
				failed++
				s.logger.Error("auto-absent: mark failed",
					zap.String("guild_id", guildID),
					zap.String("user_id", m.ID),
					zap.Stringer("kind", res.Kind),
				)
			}
		}
		s.logger.Info("auto-absent complete",
			zap.String("guild_id", guildID),
			zap.String("date", today),
			zap.Int("marked", marked),
			zap.Int("failed", failed),
		)
		s.post(ctx, guildID, "auto_absent", marked, failed)
	}
}

// runDailyExport ships the previous local day to the export sinks. Runs
// shortly after midnight so "yesterday" is the finished day.
func (s *Scheduler) runDailyExport() {
	ctx, cancel := s.jobContext()
	defer cancel()

	yesterday := s.cal.DayKey(s.cal.Now().AddDate(0, 0, -1))
	guilds, err := s.dir.Guilds(ctx)
	if err != nil {
		s.logger.Error("daily export: list guilds failed", zap.Error(err))
		return
	}

	for _, guildID := range guilds {
		if err := s.exporter.ExportDay(ctx, guildID, yesterday); err != nil {
			s.logger.Error("daily export failed",
				zap.String("guild_id", guildID),
				zap.String("date", yesterday),
				zap.Stringer("kind", service.KindExternalSinkFailure),
				zap.Error(err),
			)
			continue
		}
		s.logger.Info("daily export complete",
			zap.String("guild_id", guildID),
			zap.String("date", yesterday),
		)
	}
}

func summaryLine(job, verb string, ok, failed int) string {
	if failed > 0 {
		return fmt.Sprintf("%s: %d user(s) %s, %d failed.", job, ok, verb, failed)
	}
	return fmt.Sprintf("%s: %d user(s) %s.", job, ok, verb)
}

func (s *Scheduler) post(ctx context.Context, guildID, job string, ok, failed int) {
	if s.notifier == nil {
		return
	}
	text := ""
	switch job {
	case "auto_drop":
		text = summaryLine("Auto-drop", "signed out", ok, failed)
	case "auto_absent":
		text = summaryLine("Auto-absent", "marked absent", ok, failed)
	default:
		return
	}
	if err := s.notifier.PostSummary(ctx, guildID, text); err != nil {
		s.logger.Warn("post job summary failed",
			zap.String("guild_id", guildID),
			zap.String("job", job),
			zap.Error(err),
		)
	}
}
