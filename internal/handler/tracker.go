package handler

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/model"
)

// onVoiceState translates gateway voice updates into session engine calls.
// Mute, deafen and stream toggles arrive as updates with an unchanged
// channel and are ignored.
func (h *Handler) onVoiceState(s *discordgo.Session, e *discordgo.VoiceStateUpdate) {
	if e.Member == nil || e.Member.User == nil || e.Member.User.Bot {
		return
	}

	before := ""
	if e.BeforeUpdate != nil {
		before = e.BeforeUpdate.ChannelID
	}
	after := e.ChannelID
	if before == after {
		return
	}

	userID := e.Member.User.ID
	userName := memberDisplayName(e.Member)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var err error
	switch {
	case before == "":
		err = h.engine.Start(ctx, userID, userName, e.GuildID, after, h.channelName(s, after))
	case after == "":
		err = h.engine.End(ctx, userID, e.GuildID, model.DisconnectLeft)
	default:
		err = h.engine.Hop(ctx, userID, userName, e.GuildID, after, h.channelName(s, after))
	}
	if err != nil {
		h.logger.Error("voice state handling failed",
			zap.String("user_id", userID),
			zap.String("guild_id", e.GuildID),
			zap.String("before", before),
			zap.String("after", after),
			zap.Error(err),
		)
	}
}

func (h *Handler) channelName(s *discordgo.Session, channelID string) string {
	if ch, err := s.State.Channel(channelID); err == nil {
		return ch.Name
	}
	if ch, err := s.Channel(channelID); err == nil {
		return ch.Name
	}
	return channelID
}
