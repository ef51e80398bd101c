package handler

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/model"
)

func (h *Handler) handleAttendance(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID, userName := commandUser(i)
	opts := optionMap(i)

	var status model.AttendanceStatus
	switch stringOption(opts, "status", "") {
	case "Present":
		status = model.StatusPresent
	case "joining_mid_day":
		status = model.StatusJoiningMidDay
	case "leaving_mid_day":
		status = model.StatusLeavingMidDay
	default:
		status = model.StatusPresent
	}

	res := h.attendance.MarkAttendance(ctx, userID, userName, i.GuildID, status, stringOption(opts, "date", ""))
	h.respond(s, i, res.Message, !res.OK)
}

func (h *Handler) handleAbsent(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID, userName := commandUser(i)
	opts := optionMap(i)

	res := h.attendance.MarkAbsent(ctx, userID, userName, i.GuildID,
		stringOption(opts, "date", ""),
		stringOption(opts, "reason", ""),
	)
	h.respond(s, i, res.Message, !res.OK)
}

func (h *Handler) handleLunch(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID, _ := commandUser(i)
	res := h.attendance.StartBreak(ctx, userID, i.GuildID, model.CommandLunch, "")
	h.respond(s, i, res.Message, !res.OK)
}

func (h *Handler) handleAway(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID, _ := commandUser(i)
	opts := optionMap(i)
	res := h.attendance.StartBreak(ctx, userID, i.GuildID, model.CommandAway, stringOption(opts, "reason", ""))
	h.respond(s, i, res.Message, !res.OK)
}

func (h *Handler) handleResume(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID, userName := commandUser(i)
	res := h.attendance.Resume(ctx, userID, userName, i.GuildID)
	h.respond(s, i, res.Message, !res.OK)
}

func (h *Handler) handleDrop(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID, userName := commandUser(i)
	res := h.attendance.Drop(ctx, userID, userName, i.GuildID)
	h.respond(s, i, res.Message, !res.OK)
}

func (h *Handler) handleHelp(_ context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	const help = "**Attendance**\n" +
		"`/attendance` mark yourself Present or Half Day\n" +
		"`/absent [date] [reason]` mark yourself absent\n" +
		"`/lunch` `/away [reason]` `/resume` manage breaks\n" +
		"`/drop` sign out for the day\n\n" +
		"**Reports**\n" +
		"`/stats [user] [start_date] [end_date]` voice activity stats\n" +
		"`/csv [start_date] [end_date]` report as CSV\n" +
		"`/export [start_date] [end_date]` report as spreadsheet\n" +
		"`/bhai-count [user] [view]` bhai counters\n"
	h.respond(s, i, help, true)
}
