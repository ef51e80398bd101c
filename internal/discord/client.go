package discord

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/config"
	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/service"
)

// Client wraps the gateway session and the handful of REST calls the bot
// needs: member listing for the roster, message and file posts to the
// attendance channel, and slash command registration.
type Client struct {
	session *discordgo.Session
	cfg     *config.Config
	logger  *zap.Logger

	mu       sync.Mutex
	channels map[string]string // guild id -> resolved attendance channel id
}

func New(cfg *config.Config, logger *zap.Logger) (*Client, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	return &Client{
		session:  session,
		cfg:      cfg,
		logger:   logger,
		channels: make(map[string]string),
	}, nil
}

// Session exposes the underlying gateway session for handler registration.
func (c *Client) Session() *discordgo.Session {
	return c.session
}

// Open connects to the gateway.
func (c *Client) Open() error {
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	c.logger.Info("gateway connected", zap.String("user", c.session.State.User.Username))
	return nil
}

// Close disconnects from the gateway.
func (c *Client) Close() error {
	return c.session.Close()
}

// RegisterCommands bulk-overwrites the bot's slash commands. With a target
// guild configured they register guild-scoped (instant); otherwise globally.
func (c *Client) RegisterCommands(cmds []*discordgo.ApplicationCommand) error {
	appID := c.session.State.User.ID
	_, err := c.session.ApplicationCommandBulkOverwrite(appID, c.cfg.TargetGuildID, cmds)
	if err != nil {
		return fmt.Errorf("register commands: %w", err)
	}
	c.logger.Info("slash commands registered",
		zap.Int("count", len(cmds)),
		zap.String("guild_id", c.cfg.TargetGuildID),
	)
	return nil
}

// Guilds returns the guild ids the bot operates in: the configured target
// guild if set, otherwise everything in the session state.
func (c *Client) Guilds(ctx context.Context) ([]string, error) {
	if c.cfg.TargetGuildID != "" {
		return []string{c.cfg.TargetGuildID}, nil
	}
	guilds := make([]string, 0, len(c.session.State.Guilds))
	for _, g := range c.session.State.Guilds {
		guilds = append(guilds, g.ID)
	}
	return guilds, nil
}

// Members lists a guild's non-bot members, paging through the REST endpoint.
func (c *Client) Members(ctx context.Context, guildID string) ([]service.Member, error) {
	var members []service.Member
	after := ""
	for {
		page, err := c.session.GuildMembers(guildID, after, 1000, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("list members: %w", err)
		}
		if len(page) == 0 {
			return members, nil
		}
		for _, m := range page {
			if m.User == nil || m.User.Bot {
				continue
			}
			members = append(members, service.Member{
				ID:          m.User.ID,
				DisplayName: displayName(m),
			})
		}
		after = page[len(page)-1].User.ID
		if len(page) < 1000 {
			return members, nil
		}
	}
}

// AttendanceChannel resolves the guild's attendance channel: the configured
// id wins, then a text channel matching the configured name. Resolutions are
// cached per guild.
func (c *Client) AttendanceChannel(ctx context.Context, guildID string) (string, error) {
	if c.cfg.AttendanceChannelID != "" {
		return c.cfg.AttendanceChannelID, nil
	}

	c.mu.Lock()
	cached := c.channels[guildID]
	c.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	channels, err := c.session.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("list channels: %w", err)
	}
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildText && ch.Name == c.cfg.AttendanceChannelName {
			c.mu.Lock()
			c.channels[guildID] = ch.ID
			c.mu.Unlock()
			return ch.ID, nil
		}
	}
	return "", fmt.Errorf("no text channel named %q in guild %s", c.cfg.AttendanceChannelName, guildID)
}

// PostSummary sends a text message to the guild's attendance channel.
func (c *Client) PostSummary(ctx context.Context, guildID, text string) error {
	channelID, err := c.AttendanceChannel(ctx, guildID)
	if err != nil {
		return err
	}
	if _, err := c.session.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// PostFile uploads a file to the guild's attendance channel.
func (c *Client) PostFile(ctx context.Context, guildID, filename string, data []byte) error {
	channelID, err := c.AttendanceChannel(ctx, guildID)
	if err != nil {
		return err
	}
	if _, err := c.session.ChannelFileSend(channelID, filename, bytes.NewReader(data), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send file: %w", err)
	}
	return nil
}

func displayName(m *discordgo.Member) string {
	if m.Nick != "" {
		return m.Nick
	}
	if m.User.GlobalName != "" {
		return m.User.GlobalName
	}
	return m.User.Username
}
