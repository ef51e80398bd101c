package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/i18n"
	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/model"
	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/service"
)

// onMessage watches guild chatter for two things: the bhai counter and
// status auto-replies when someone mentions a user who is absent, on a
// break, or signed out.
func (h *Handler) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(i18n.WithLocale(context.Background(), h.cfg.DefaultLocale), 15*time.Second)
	defer cancel()

	if strings.Contains(strings.ToLower(m.Content), "bhai") {
		name := m.Author.Username
		if m.Member != nil && m.Member.Nick != "" {
			name = m.Member.Nick
		}
		if err := h.counters.RecordBhai(ctx, m.Author.ID, m.GuildID, h.cal.Today(), name); err != nil {
			h.logger.Error("record bhai failed",
				zap.String("user_id", m.Author.ID),
				zap.Error(err),
			)
		}
	}

	for _, u := range m.Mentions {
		if u.Bot || u.ID == m.Author.ID {
			continue
		}
		if reply := h.mentionReply(ctx, u, m.GuildID); reply != "" {
			if _, err := s.ChannelMessageSend(m.ChannelID, reply); err != nil {
				h.logger.Warn("mention auto-reply failed", zap.Error(err))
			}
		}
	}
}

// mentionReply returns the status notice for a mentioned user, or "" when
// they are active (or unknown).
func (h *Handler) mentionReply(ctx context.Context, u *discordgo.User, guildID string) string {
	log, err := h.attendance.Today(ctx, u.ID, guildID)
	if err != nil {
		h.logger.Warn("mention status lookup failed",
			zap.String("user_id", u.ID),
			zap.Error(err),
		)
		return ""
	}
	if log == nil {
		return ""
	}

	name := log.UserName
	if name == "" {
		name = u.Username
	}

	if log.AttendanceStatus == model.StatusAbsent {
		reason := log.Reason
		if reason == "" {
			reason = "Absent"
		}
		return i18n.T(ctx, "mention.absent", map[string]any{
			"Name":   name,
			"Date":   log.Date,
			"Reason": reason,
		})
	}

	last := log.LastEvent()
	if last == nil {
		return ""
	}
	switch {
	case last.Command.IsDrop():
		return i18n.T(ctx, "mention.dropped", map[string]any{"Name": name})
	case last.Command == model.CommandLunch && last.EndTime == nil:
		return i18n.T(ctx, "mention.lunch", map[string]any{"Name": name})
	case last.Command == model.CommandAway && last.EndTime == nil:
		reason := last.Reason
		if reason == "" {
			reason = "AFK"
		}
		return i18n.T(ctx, "mention.away", map[string]any{"Name": name, "Reason": reason})
	}
	return ""
}

func (h *Handler) handleBhaiCount(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)

	if view := stringOption(opts, "view", ""); view != "" {
		entries, err := h.counters.Leaderboard(ctx, service.LeaderboardScope(view))
		if err != nil {
			h.logger.Error("bhai leaderboard failed", zap.Error(err))
			h.respond(s, i, i18n.T(ctx, "common.store_unavailable"), true)
			return
		}
		if len(entries) == 0 {
			h.respond(s, i, i18n.T(ctx, "bhai.no_data"), false)
			return
		}
		var b strings.Builder
		b.WriteString("**Bhai Leaderboard**\n")
		for rank, e := range entries {
			fmt.Fprintf(&b, "%d. **%s**: %d\n", rank+1, e.DisplayName, e.Count)
		}
		h.respond(s, i, b.String(), false)
		return
	}

	userID, userName := commandUser(i)
	if o, has := opts["user"]; has {
		target := o.UserValue(s)
		if target != nil {
			userID, userName = target.ID, target.Username
		}
	}

	count, err := h.counters.Count(ctx, userID, i.GuildID)
	if err != nil {
		h.logger.Error("bhai count failed", zap.String("user_id", userID), zap.Error(err))
		h.respond(s, i, i18n.T(ctx, "common.store_unavailable"), true)
		return
	}
	h.respond(s, i, i18n.T(ctx, "bhai.count", map[string]any{
		"Name":  userName,
		"Count": count,
	}), false)
}
