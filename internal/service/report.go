package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/clock"
	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/model"
)

// ReportUser is one column of a report, identified and ordered by display
// name.
type ReportUser struct {
	ID   string
	Name string
}

// DayCell is one user's aggregate for one day.
type DayCell struct {
	Status          string
	RegularMinutes  int
	OvertimeMinutes int
}

// ReportDay is one row of a report: a date plus one cell per report user,
// aligned with Report.Users.
type ReportDay struct {
	Date    string
	Holiday bool
	Cells   []DayCell
}

// Report is the aggregated view over a guild and date range consumed by the
// CSV and workbook renderers.
type Report struct {
	GuildID string
	From    string
	To      string
	Users   []ReportUser
	Days    []ReportDay
}

// VoiceStats is the aggregate behind the /stats command.
type VoiceStats struct {
	TotalRegular  float64
	TotalOvertime float64
	SessionCount  int
	ChannelTotals map[string]float64
	PerUser       []UserStat
}

// UserStat is one user's share of a guild-wide stats query.
type UserStat struct {
	UserID       string
	Name         string
	Regular      float64
	Overtime     float64
	SessionCount int
}

// ReportService scans the attendance and voice stores and produces
// aggregated rows. Read-only; holds no state.
type ReportService struct {
	logs     LogStore
	activity ActivityStore
	dir      Directory
	cal      *clock.Calendar
	logger   *zap.Logger
}

func NewReportService(logs LogStore, activity ActivityStore, dir Directory, cal *clock.Calendar, logger *zap.Logger) *ReportService {
	return &ReportService{logs: logs, activity: activity, dir: dir, cal: cal, logger: logger}
}

// Build produces the per-day per-user report for a guild between two
// YYYY-MM-DD dates inclusive, optionally restricted to one user. Users are
// the union of everyone with any record in range and all currently known
// guild members, so zero-activity members still appear as Absent. Weekend
// days always render as Holiday regardless of stored status.
func (s *ReportService) Build(ctx context.Context, guildID, from, to, userID string) (*Report, error) {
	start, err := s.cal.ParseDay(from)
	if err != nil {
		return nil, fmt.Errorf("parse start date: %w", err)
	}
	end, err := s.cal.ParseDay(to)
	if err != nil {
		return nil, fmt.Errorf("parse end date: %w", err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("start date %s is after end date %s", from, to)
	}

	logs, err := s.logs.QueryRange(ctx, guildID, from, to, userID)
	if err != nil {
		return nil, fmt.Errorf("query attendance range: %w", err)
	}
	voice, err := s.activity.QueryRange(ctx, guildID, from, to, userID)
	if err != nil {
		return nil, fmt.Errorf("query voice range: %w", err)
	}

	attendanceByDay := make(map[string]map[string]*model.DayLog)
	for _, l := range logs {
		if attendanceByDay[l.Date] == nil {
			attendanceByDay[l.Date] = make(map[string]*model.DayLog)
		}
		attendanceByDay[l.Date][l.UserID] = l
	}
	voiceByDay := make(map[string]map[string]*model.VoiceDay)
	for _, v := range voice {
		if voiceByDay[v.Date] == nil {
			voiceByDay[v.Date] = make(map[string]*model.VoiceDay)
		}
		voiceByDay[v.Date][v.UserID] = v
	}

	names := make(map[string]string)
	if userID == "" {
		members, err := s.dir.Members(ctx, guildID)
		if err != nil {
			// Historical records still produce a report; current members
			// just cannot be added to the roster.
			s.logger.Warn("list guild members failed, report covers recorded users only",
				zap.String("guild_id", guildID),
				zap.Error(err),
			)
		}
		for _, m := range members {
			names[m.ID] = m.DisplayName
		}
	}
	for _, l := range logs {
		if _, seen := names[l.UserID]; !seen && l.UserName != "" {
			names[l.UserID] = l.UserName
		}
	}
	for _, v := range voice {
		if _, seen := names[v.UserID]; !seen && v.UserName != "" {
			names[v.UserID] = v.UserName
		}
	}

	users := make([]ReportUser, 0, len(names))
	for id, name := range names {
		if name == "" {
			name = "User " + id
		}
		users = append(users, ReportUser{ID: id, Name: name})
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].ID < users[j].ID
	})

	rep := &Report{GuildID: guildID, From: from, To: to, Users: users}
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		dayKey := s.cal.DayKey(day)
		holiday := s.cal.IsWeekend(day)
		row := ReportDay{Date: dayKey, Holiday: holiday, Cells: make([]DayCell, len(users))}
		for i, u := range users {
			cell := DayCell{Status: "Absent"}
			if rec := attendanceByDay[dayKey][u.ID]; rec != nil && rec.AttendanceStatus != "" {
				cell.Status = rec.AttendanceStatus.Label()
			}
			if holiday {
				cell.Status = "Holiday"
			}
			if v := voiceByDay[dayKey][u.ID]; v != nil {
				cell.RegularMinutes = int(math.Round(v.TotalDuration / 60))
				cell.OvertimeMinutes = int(math.Round(v.OvertimeDuration / 60))
			}
			row.Cells[i] = cell
		}
		rep.Days = append(rep.Days, row)
	}
	return rep, nil
}

// Stats aggregates voice activity for a guild and range. With a user id the
// channel breakdown is populated; without one the per-user list is.
func (s *ReportService) Stats(ctx context.Context, guildID, from, to, userID string) (*VoiceStats, error) {
	docs, err := s.activity.QueryRange(ctx, guildID, from, to, userID)
	if err != nil {
		return nil, fmt.Errorf("query voice range: %w", err)
	}

	stats := &VoiceStats{ChannelTotals: make(map[string]float64)}
	perUser := make(map[string]*UserStat)
	for _, doc := range docs {
		stats.TotalRegular += doc.TotalDuration
		stats.TotalOvertime += doc.OvertimeDuration
		stats.SessionCount += len(doc.Sessions)

		us := perUser[doc.UserID]
		if us == nil {
			us = &UserStat{UserID: doc.UserID, Name: doc.UserName}
			perUser[doc.UserID] = us
		}
		us.Regular += doc.TotalDuration
		us.Overtime += doc.OvertimeDuration
		us.SessionCount += len(doc.Sessions)

		if userID != "" {
			for _, iv := range doc.Sessions {
				stats.ChannelTotals[iv.ChannelName] += iv.Duration
			}
		}
	}

	for _, us := range perUser {
		stats.PerUser = append(stats.PerUser, *us)
	}
	sort.Slice(stats.PerUser, func(i, j int) bool {
		ti := stats.PerUser[i].Regular + stats.PerUser[i].Overtime
		tj := stats.PerUser[j].Regular + stats.PerUser[j].Overtime
		if ti != tj {
			return ti > tj
		}
		return stats.PerUser[i].Name < stats.PerUser[j].Name
	})
	return stats, nil
}

// MonthBounds returns the first and last day keys of the month containing t,
// the default range for report commands.
func MonthBounds(t time.Time) (string, string) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1)
	return first.Format(time.DateOnly), last.Format(time.DateOnly)
}
