// Package discord binds the voice gateway of a discordgo session.
package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/genricoloni/lavaqueue/internal/domain"
	"go.uber.org/zap"
)

const _updateBuffer = 16

// Gateway implements domain.VoiceGateway on top of a discordgo session.
type Gateway struct {
	logger  *zap.Logger
	session *discordgo.Session

	serverUpdates chan domain.VoiceServerUpdate
	stateUpdates  chan domain.VoiceStateUpdate
	done          chan struct{}

	mu       sync.Mutex
	open     bool
	handlers []func()
}

// New creates a bot session for token. The session is opened by Open.
func New(token string, logger *zap.Logger) (*Gateway, error) {
	if token == "" {
		return nil, &domain.ConfigurationError{Field: "Discord.Token", Reason: "must not be empty"}
	}

	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates

	return NewFromSession(s, logger), nil
}

// NewFromSession wraps an existing session and registers the voice handlers.
func NewFromSession(s *discordgo.Session, logger *zap.Logger) *Gateway {
	g := &Gateway{
		logger:        logger,
		session:       s,
		serverUpdates: make(chan domain.VoiceServerUpdate, _updateBuffer),
		stateUpdates:  make(chan domain.VoiceStateUpdate, _updateBuffer),
		done:          make(chan struct{}),
	}
	g.handlers = append(g.handlers,
		s.AddHandler(g.onVoiceServerUpdate),
		s.AddHandler(g.onVoiceStateUpdate),
	)
	return g
}

// Open connects the session to the gateway.
func (g *Gateway) Open(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.open {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := g.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	g.open = true
	g.logger.Info("Discord session opened", zap.String("userId", g.CurrentUserID()))
	return nil
}

// Close unregisters the handlers and closes the session.
func (g *Gateway) Close(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	select {
	case <-g.done:
		return nil
	default:
	}
	close(g.done)

	for _, remove := range g.handlers {
		remove()
	}
	g.handlers = nil

	if !g.open {
		return nil
	}
	g.open = false
	if err := g.session.Close(); err != nil {
		return fmt.Errorf("failed to close discord session: %w", err)
	}
	g.logger.Info("Discord session closed")
	return nil
}

// CurrentUserID returns the bot's own user id, or "" before Ready.
func (g *Gateway) CurrentUserID() string {
	if g.session.State == nil || g.session.State.User == nil {
		return ""
	}
	return g.session.State.User.ID
}

// ChannelUsers lists the users in a voice channel, excluding the bot.
func (g *Gateway) ChannelUsers(guildID, channelID string) ([]string, error) {
	if g.session.State == nil {
		return nil, fmt.Errorf("state tracking disabled")
	}
	guild, err := g.session.State.Guild(guildID)
	if err != nil {
		return nil, fmt.Errorf("guild %s: %w", guildID, err)
	}

	self := g.CurrentUserID()
	var users []string
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID == channelID && vs.UserID != self {
			users = append(users, vs.UserID)
		}
	}
	return users, nil
}

// SendVoiceUpdate joins channelID, or leaves when it is empty.
func (g *Gateway) SendVoiceUpdate(ctx context.Context, guildID, channelID string, selfDeaf, selfMute bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := g.session.ChannelVoiceJoinManual(guildID, channelID, selfMute, selfDeaf); err != nil {
		return fmt.Errorf("voice state update for guild %s: %w", guildID, err)
	}
	g.logger.Debug("Voice state update sent",
		zap.String("guildId", guildID),
		zap.String("channelId", channelID))
	return nil
}

func (g *Gateway) VoiceServerUpdates() <-chan domain.VoiceServerUpdate {
	return g.serverUpdates
}

func (g *Gateway) VoiceStateUpdates() <-chan domain.VoiceStateUpdate {
	return g.stateUpdates
}

func (g *Gateway) onVoiceServerUpdate(_ *discordgo.Session, e *discordgo.VoiceServerUpdate) {
	u := domain.VoiceServerUpdate{
		GuildID:  e.GuildID,
		Token:    e.Token,
		Endpoint: e.Endpoint,
	}
	select {
	case g.serverUpdates <- u:
	case <-g.done:
	}
}

func (g *Gateway) onVoiceStateUpdate(_ *discordgo.Session, e *discordgo.VoiceStateUpdate) {
	if e.VoiceState == nil {
		return
	}
	u := domain.VoiceStateUpdate{
		GuildID:   e.GuildID,
		UserID:    e.UserID,
		ChannelID: e.ChannelID,
		SessionID: e.SessionID,
	}
	select {
	case g.stateUpdates <- u:
	case <-g.done:
	}
}
