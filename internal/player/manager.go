package player

import (
	"context"
	"sync"

	"github.com/genricoloni/lavaqueue/internal/domain"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Manager owns the players of every guild and assembles their voice
// credentials from gateway updates.
type Manager struct {
	logger   *zap.Logger
	sessions domain.SessionProvider
	voice    domain.VoiceGateway
	opts     Options
	selfDeaf bool

	mu      sync.Mutex
	players map[string]*QueuedPlayer
	creds   map[string]*voiceCredentials
	closed  bool
}

// voiceCredentials collects the halves of a voice connection as they arrive.
type voiceCredentials struct {
	channelID string
	sessionID string
	token     string
	endpoint  string
}

func (c *voiceCredentials) state() (domain.VoiceState, bool) {
	vs := domain.VoiceState{Token: c.token, Endpoint: c.endpoint, SessionID: c.sessionID}
	return vs, vs.IsComplete()
}

// NewManager creates an empty manager. voice may be nil when voice
// connections are handled elsewhere.
func NewManager(logger *zap.Logger, sessions domain.SessionProvider, voice domain.VoiceGateway, opts Options, selfDeaf bool) *Manager {
	return &Manager{
		logger:   logger,
		sessions: sessions,
		voice:    voice,
		opts:     opts,
		selfDeaf: selfDeaf,
		players:  make(map[string]*QueuedPlayer),
		creds:    make(map[string]*voiceCredentials),
	}
}

// Get returns the player of guildID, if any.
func (m *Manager) Get(guildID string) (*QueuedPlayer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[guildID]
	return p, ok
}

// GetOrCreate returns the player of guildID, creating it on first use.
func (m *Manager) GetOrCreate(guildID string) (*QueuedPlayer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, domain.ErrPlayerClosed
	}
	if p, ok := m.players[guildID]; ok {
		return p, nil
	}

	p := New(guildID, m.sessions, m.opts, m.logger)
	m.players[guildID] = p
	m.logger.Info("Player created", zap.String("guildId", guildID))
	return p, nil
}

// Players returns every live player.
func (m *Manager) Players() []*QueuedPlayer {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*QueuedPlayer, 0, len(m.players))
	for _, p := range m.players {
		out = append(out, p)
	}
	return out
}

// Join asks the gateway to connect to channelID and returns the guild's
// player. Voice credentials reach the player once the gateway delivers them.
func (m *Manager) Join(ctx context.Context, guildID, channelID string) (*QueuedPlayer, error) {
	p, err := m.GetOrCreate(guildID)
	if err != nil {
		return nil, err
	}
	if m.voice == nil {
		return p, nil
	}
	if err := m.voice.SendVoiceUpdate(ctx, guildID, channelID, m.selfDeaf, false); err != nil {
		return nil, err
	}
	return p, nil
}

// Leave disconnects from voice and destroys the guild's player.
func (m *Manager) Leave(ctx context.Context, guildID string) error {
	var errs error
	if m.voice != nil {
		errs = m.voice.SendVoiceUpdate(ctx, guildID, "", m.selfDeaf, false)
	}
	return multierr.Append(errs, m.Destroy(ctx, guildID))
}

// Listeners returns the users sharing the bot's voice channel in guildID.
func (m *Manager) Listeners(guildID string) ([]string, error) {
	m.mu.Lock()
	var channelID string
	if c, ok := m.creds[guildID]; ok {
		channelID = c.channelID
	}
	m.mu.Unlock()

	if channelID == "" || m.voice == nil {
		return nil, nil
	}
	return m.voice.ChannelUsers(guildID, channelID)
}

// Destroy removes the guild's player and tears it down on the node.
func (m *Manager) Destroy(ctx context.Context, guildID string) error {
	m.mu.Lock()
	p, ok := m.players[guildID]
	delete(m.players, guildID)
	delete(m.creds, guildID)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	m.logger.Info("Destroying player", zap.String("guildId", guildID))
	return p.Close(ctx)
}

// Dispatch routes a node event to its guild. Events for unknown guilds are
// dropped.
func (m *Manager) Dispatch(ctx context.Context, ev domain.GuildEvent) error {
	p, ok := m.Get(ev.Guild())
	if !ok {
		m.logger.Debug("Event for unknown guild",
			zap.String("guildId", ev.Guild()),
			zap.String("type", string(ev.Type())))
		return nil
	}
	return p.Dispatch(ctx, ev)
}

// InvalidateSessions makes every player acquire a fresh session on its next
// update. Used when the node starts a new, non-resumed session.
func (m *Manager) InvalidateSessions(ctx context.Context) error {
	var errs error
	for _, p := range m.Players() {
		errs = multierr.Append(errs, p.InvalidateSession(ctx))
	}
	return errs
}

// Reconcile aligns local players with the players a resumed session still
// holds on the node. Local players missing from states are treated as
// stopped; node players without a local counterpart are left alone.
func (m *Manager) Reconcile(ctx context.Context, states []*domain.PlayerState) error {
	remote := make(map[string]*domain.PlayerState, len(states))
	for _, st := range states {
		if st != nil {
			remote[st.GuildID] = st
		}
	}

	var errs error
	for _, p := range m.Players() {
		st, ok := remote[p.GuildID()]
		if !ok {
			m.logger.Info("Player missing after resume", zap.String("guildId", p.GuildID()))
		}
		errs = multierr.Append(errs, p.Sync(ctx, st))
		delete(remote, p.GuildID())
	}
	for guildID := range remote {
		m.logger.Debug("Node player without local owner", zap.String("guildId", guildID))
	}
	return errs
}

// HandleVoiceServerUpdate records the voice token and endpoint of a guild.
func (m *Manager) HandleVoiceServerUpdate(ctx context.Context, u domain.VoiceServerUpdate) error {
	m.mu.Lock()
	c := m.credsFor(u.GuildID)
	c.token, c.endpoint = u.Token, u.Endpoint
	m.mu.Unlock()

	return m.pushVoice(ctx, u.GuildID)
}

// HandleVoiceStateUpdate records our own voice session. Other users'
// updates are ignored. Leaving the channel destroys the player.
func (m *Manager) HandleVoiceStateUpdate(ctx context.Context, u domain.VoiceStateUpdate) error {
	if m.voice == nil || u.UserID != m.voice.CurrentUserID() {
		return nil
	}

	if u.ChannelID == "" {
		m.logger.Info("Left voice channel", zap.String("guildId", u.GuildID))
		return m.Destroy(ctx, u.GuildID)
	}

	m.mu.Lock()
	c := m.credsFor(u.GuildID)
	c.channelID, c.sessionID = u.ChannelID, u.SessionID
	m.mu.Unlock()

	return m.pushVoice(ctx, u.GuildID)
}

// credsFor must be called with m.mu held.
func (m *Manager) credsFor(guildID string) *voiceCredentials {
	c, ok := m.creds[guildID]
	if !ok {
		c = &voiceCredentials{}
		m.creds[guildID] = c
	}
	return c
}

func (m *Manager) pushVoice(ctx context.Context, guildID string) error {
	m.mu.Lock()
	var (
		vs       domain.VoiceState
		complete bool
	)
	if c, known := m.creds[guildID]; known {
		vs, complete = c.state()
	}
	p, ok := m.players[guildID]
	m.mu.Unlock()

	if !complete || !ok {
		return nil
	}
	return p.UpdateVoice(ctx, vs)
}

// Close destroys every player. Later GetOrCreate calls fail.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	guilds := make([]string, 0, len(m.players))
	for id := range m.players {
		guilds = append(guilds, id)
	}
	m.mu.Unlock()

	var errs error
	for _, id := range guilds {
		errs = multierr.Append(errs, m.Destroy(ctx, id))
	}
	return errs
}
