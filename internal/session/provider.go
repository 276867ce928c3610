// Package session tracks the node session that guild players bind to.
package session

import (
	"context"
	"sync"

	"github.com/genricoloni/lavaqueue/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Provider hands out the current node session. Callers block until the
// node's ready message arrives.
type Provider struct {
	logger    *zap.Logger
	api       domain.NodeAPIClient
	resumeKey string

	mu        sync.Mutex
	sessionID string
	ready     chan struct{}
	done      chan struct{}
	closed    bool
}

// NewProvider creates a provider whose sessions use api. An empty resumeKey
// is replaced by a random one.
func NewProvider(api domain.NodeAPIClient, resumeKey string, logger *zap.Logger) *Provider {
	if resumeKey == "" {
		resumeKey = uuid.NewString()
	}
	return &Provider{
		logger:    logger,
		api:       api,
		resumeKey: resumeKey,
		ready:     make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// ResumeKey identifies this client to the node across reconnects.
func (p *Provider) ResumeKey() string {
	return p.resumeKey
}

// SessionID returns the current session id, if the node is connected.
func (p *Provider) SessionID() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessionID, p.sessionID != ""
}

// HandleReady adopts the session announced by the node. It reports whether
// sessions handed out earlier are no longer valid.
func (p *Provider) HandleReady(ev domain.ReadyEvent) (invalidated bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	previous := p.sessionID
	invalidated = !ev.Resumed || (previous != "" && previous != ev.SessionID)

	p.sessionID = ev.SessionID
	select {
	case <-p.ready:
	default:
		close(p.ready)
	}

	p.logger.Info("Node session ready",
		zap.String("sessionId", ev.SessionID),
		zap.Bool("resumed", ev.Resumed),
		zap.Bool("invalidated", invalidated))
	return invalidated
}

// Invalidate forgets the current session; GetSession blocks again until the
// next ready message.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sessionID == "" {
		return
	}
	p.sessionID = ""
	p.ready = make(chan struct{})
}

// GetSession waits for a session and returns it bound to guildID's player.
func (p *Provider) GetSession(ctx context.Context, guildID string) (domain.PlayerSession, error) {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return domain.PlayerSession{}, &domain.SessionUnavailableError{GuildID: guildID, Err: domain.ErrProviderClosed}
		}
		if p.sessionID != "" {
			s := domain.PlayerSession{API: p.api, SessionID: p.sessionID, ResumeKey: p.resumeKey}
			p.mu.Unlock()
			return s, nil
		}
		ready := p.ready
		p.mu.Unlock()

		select {
		case <-ready:
		case <-p.done:
		case <-ctx.Done():
			return domain.PlayerSession{}, &domain.SessionUnavailableError{GuildID: guildID, Err: ctx.Err()}
		}
	}
}

// Close wakes every waiter with ErrProviderClosed.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	close(p.done)
}
