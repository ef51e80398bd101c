package handler

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/clock"
	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/config"
	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/discord"
	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/i18n"
	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/service"
)

const commandTimeout = 30 * time.Second

// Handler routes gateway events to the services: slash commands, the voice
// state tracker and the message listener.
type Handler struct {
	client     *discord.Client
	attendance *service.AttendanceService
	reports    *service.ReportService
	counters   *service.CounterService
	engine     *service.Engine
	cal        *clock.Calendar
	cfg        *config.Config
	logger     *zap.Logger
}

func New(client *discord.Client, attendance *service.AttendanceService, reports *service.ReportService, counters *service.CounterService, engine *service.Engine, cal *clock.Calendar, cfg *config.Config, logger *zap.Logger) *Handler {
	return &Handler{
		client:     client,
		attendance: attendance,
		reports:    reports,
		counters:   counters,
		engine:     engine,
		cal:        cal,
		cfg:        cfg,
		logger:     logger,
	}
}

// Register attaches all gateway event handlers to the session.
func (h *Handler) Register(s *discordgo.Session) {
	s.AddHandler(h.onInteraction)
	s.AddHandler(h.onMessage)
	s.AddHandler(h.onVoiceState)
}

func (h *Handler) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	ctx, cancel := h.commandContext()
	defer cancel()

	name := i.ApplicationCommandData().Name
	if name != "help" && !h.inAttendanceChannel(ctx, i) {
		h.respond(s, i, i18n.T(ctx, "common.wrong_channel", map[string]any{
			"Channel": h.cfg.AttendanceChannelName,
		}), true)
		return
	}

	switch name {
	case "attendance":
		h.handleAttendance(ctx, s, i)
	case "absent":
		h.handleAbsent(ctx, s, i)
	case "lunch":
		h.handleLunch(ctx, s, i)
	case "away":
		h.handleAway(ctx, s, i)
	case "resume":
		h.handleResume(ctx, s, i)
	case "drop":
		h.handleDrop(ctx, s, i)
	case "bhai-count":
		h.handleBhaiCount(ctx, s, i)
	case "stats":
		h.handleStats(ctx, s, i)
	case "csv":
		h.handleCSV(ctx, s, i)
	case "export":
		h.handleExport(ctx, s, i)
	case "update":
		h.handleUpdate(ctx, s, i)
	case "help":
		h.handleHelp(ctx, s, i)
	default:
		h.logger.Warn("unknown command", zap.String("command", name))
	}
}

func (h *Handler) commandContext() (context.Context, context.CancelFunc) {
	ctx := i18n.WithLocale(context.Background(), h.cfg.DefaultLocale)
	return context.WithTimeout(ctx, commandTimeout)
}

func (h *Handler) inAttendanceChannel(ctx context.Context, i *discordgo.InteractionCreate) bool {
	channelID, err := h.client.AttendanceChannel(ctx, i.GuildID)
	if err != nil {
		h.logger.Warn("resolve attendance channel failed",
			zap.String("guild_id", i.GuildID),
			zap.Error(err),
		)
		return true
	}
	return i.ChannelID == channelID
}

func (h *Handler) respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		h.logger.Error("interaction respond failed", zap.Error(err))
	}
}

// deferResponse acknowledges the interaction so slow work has the full
// follow-up window instead of the 3-second response deadline.
func (h *Handler) deferResponse(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		h.logger.Error("interaction defer failed", zap.Error(err))
		return false
	}
	return true
}

func (h *Handler) followUp(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
	}); err != nil {
		h.logger.Error("interaction follow-up failed", zap.Error(err))
	}
}

func (h *Handler) followUpFiles(s *discordgo.Session, i *discordgo.InteractionCreate, content string, files []*discordgo.File) {
	if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Files:   files,
	}); err != nil {
		h.logger.Error("interaction file follow-up failed", zap.Error(err))
	}
}

func commandUser(i *discordgo.InteractionCreate) (id, name string) {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID, memberDisplayName(i.Member)
	}
	if i.User != nil {
		return i.User.ID, i.User.Username
	}
	return "", ""
}

func memberDisplayName(m *discordgo.Member) string {
	if m.Nick != "" {
		return m.Nick
	}
	if m.User.GlobalName != "" {
		return m.User.GlobalName
	}
	return m.User.Username
}

func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := i.ApplicationCommandData().Options
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}

func stringOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name, fallback string) string {
	if o, ok := opts[name]; ok {
		return o.StringValue()
	}
	return fallback
}
