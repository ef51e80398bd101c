package handler

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/export"
	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/i18n"
	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/service"
)

// parseRange reads the optional start/end options, defaulting to the current
// month. Returns ok=false after responding to the user on bad input.
func (h *Handler) parseRange(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) (from, to string, ok bool) {
	opts := optionMap(i)
	defFrom, defTo := service.MonthBounds(h.cal.Now())
	from = stringOption(opts, "start_date", defFrom)
	to = stringOption(opts, "end_date", defTo)

	start, err := h.cal.ParseDay(from)
	if err != nil {
		h.respond(s, i, i18n.T(ctx, "attendance.invalid_date"), true)
		return "", "", false
	}
	end, err := h.cal.ParseDay(to)
	if err != nil {
		h.respond(s, i, i18n.T(ctx, "attendance.invalid_date"), true)
		return "", "", false
	}
	if end.Before(start) {
		h.respond(s, i, i18n.T(ctx, "common.start_after_end"), true)
		return "", "", false
	}
	return from, to, true
}

func (h *Handler) handleCSV(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	from, to, ok := h.parseRange(ctx, s, i)
	if !ok {
		return
	}
	if !h.deferResponse(s, i) {
		return
	}

	rep, err := h.reports.Build(ctx, i.GuildID, from, to, "")
	if err != nil {
		h.logger.Error("csv report failed", zap.String("guild_id", i.GuildID), zap.Error(err))
		h.followUp(s, i, i18n.T(ctx, "export.failed"))
		return
	}

	attendance, err := export.RenderCSV(export.AttendanceRows(rep))
	if err != nil {
		h.logger.Error("render attendance csv failed", zap.Stringer("kind", service.KindExternalSinkFailure), zap.Error(err))
		h.followUp(s, i, i18n.T(ctx, "export.failed"))
		return
	}
	voice, err := export.RenderCSV(export.VoiceRows(rep))
	if err != nil {
		h.logger.Error("render voice csv failed", zap.Stringer("kind", service.KindExternalSinkFailure), zap.Error(err))
		h.followUp(s, i, i18n.T(ctx, "export.failed"))
		return
	}

	h.followUpFiles(s, i,
		i18n.T(ctx, "export.report_ready", map[string]any{"From": from, "To": to}),
		[]*discordgo.File{
			{Name: fmt.Sprintf("attendance_%s_%s.csv", from, to), ContentType: "text/csv", Reader: bytes.NewReader(attendance)},
			{Name: fmt.Sprintf("voice_%s_%s.csv", from, to), ContentType: "text/csv", Reader: bytes.NewReader(voice)},
		},
	)
}

func (h *Handler) handleExport(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	from, to, ok := h.parseRange(ctx, s, i)
	if !ok {
		return
	}
	if !h.deferResponse(s, i) {
		return
	}

	rep, err := h.reports.Build(ctx, i.GuildID, from, to, "")
	if err != nil {
		h.logger.Error("export report failed", zap.String("guild_id", i.GuildID), zap.Error(err))
		h.followUp(s, i, i18n.T(ctx, "export.failed"))
		return
	}

	f, err := export.BuildWorkbook(rep)
	if err != nil {
		h.logger.Error("build workbook failed", zap.Stringer("kind", service.KindExternalSinkFailure), zap.Error(err))
		h.followUp(s, i, i18n.T(ctx, "export.failed"))
		return
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		h.logger.Error("serialize workbook failed", zap.Stringer("kind", service.KindExternalSinkFailure), zap.Error(err))
		h.followUp(s, i, i18n.T(ctx, "export.failed"))
		return
	}

	h.followUpFiles(s, i,
		i18n.T(ctx, "export.report_ready", map[string]any{"From": from, "To": to}),
		[]*discordgo.File{
			{
				Name:        fmt.Sprintf("activity_%s_%s.xlsx", from, to),
				ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
				Reader:      buf,
			},
		},
	)
}

func (h *Handler) handleStats(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	from, to, ok := h.parseRange(ctx, s, i)
	if !ok {
		return
	}

	userID := ""
	userName := ""
	if o, has := optionMap(i)["user"]; has {
		if target := o.UserValue(s); target != nil {
			userID, userName = target.ID, target.Username
		}
	}

	if !h.deferResponse(s, i) {
		return
	}

	stats, err := h.reports.Stats(ctx, i.GuildID, from, to, userID)
	if err != nil {
		h.logger.Error("stats failed", zap.String("guild_id", i.GuildID), zap.Error(err))
		h.followUp(s, i, i18n.T(ctx, "export.failed"))
		return
	}
	if stats.SessionCount == 0 {
		h.followUp(s, i, i18n.T(ctx, "stats.no_data"))
		return
	}

	var b strings.Builder
	if userID != "" {
		fmt.Fprintf(&b, "**Voice stats for %s** (%s to %s)\n", userName, from, to)
	} else {
		fmt.Fprintf(&b, "**Voice stats** (%s to %s)\n", from, to)
	}
	fmt.Fprintf(&b, "Regular: %s\n", service.FormatDuration(stats.TotalRegular))
	fmt.Fprintf(&b, "Overtime: %s\n", service.FormatDuration(stats.TotalOvertime))
	fmt.Fprintf(&b, "Sessions: %d\n", stats.SessionCount)

	if userID != "" && len(stats.ChannelTotals) > 0 {
		names := make([]string, 0, len(stats.ChannelTotals))
		for name := range stats.ChannelTotals {
			names = append(names, name)
		}
		sort.Slice(names, func(a, c int) bool {
			return stats.ChannelTotals[names[a]] > stats.ChannelTotals[names[c]]
		})
		b.WriteString("\n**By channel**\n")
		for _, name := range names {
			fmt.Fprintf(&b, "%s: %s\n", name, service.FormatDuration(stats.ChannelTotals[name]))
		}
	}

	if userID == "" {
		b.WriteString("\n**By user**\n")
		limit := len(stats.PerUser)
		if limit > 10 {
			limit = 10
		}
		for _, us := range stats.PerUser[:limit] {
			fmt.Fprintf(&b, "%s: %s regular, %s overtime\n",
				us.Name,
				service.FormatDuration(us.Regular),
				service.FormatDuration(us.Overtime),
			)
		}
	}

	h.followUp(s, i, b.String())
}

func (h *Handler) handleUpdate(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Member == nil || i.Member.Permissions&discordgo.PermissionAdministrator == 0 {
		h.respond(s, i, "Administrator permission required.", true)
		return
	}
	if !h.deferResponse(s, i) {
		return
	}

	updated, err := h.counters.Resync(ctx)
	if err != nil {
		h.logger.Error("counter resync failed", zap.Error(err))
		h.followUp(s, i, i18n.T(ctx, "update.failed"))
		return
	}
	h.followUp(s, i, i18n.T(ctx, "update.done", map[string]any{"Count": updated}))
}
