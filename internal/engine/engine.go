// Package engine routes node and voice events to the guild players.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/genricoloni/lavaqueue/internal/domain"
	"go.uber.org/zap"
)

const (
	_defaultDebounce = 500 * time.Millisecond
	_artworkBacklog  = 16
)

// SessionTracker follows the node session announced on the event stream.
type SessionTracker interface {
	HandleReady(ev domain.ReadyEvent) (invalidated bool)
	Invalidate()
}

// PlayerRouter owns the guild players.
type PlayerRouter interface {
	Dispatch(ctx context.Context, ev domain.GuildEvent) error
	InvalidateSessions(ctx context.Context) error
	HandleVoiceServerUpdate(ctx context.Context, u domain.VoiceServerUpdate) error
	HandleVoiceStateUpdate(ctx context.Context, u domain.VoiceStateUpdate) error
	Reconcile(ctx context.Context, states []*domain.PlayerState) error
}

// NodeSession is the session-level part of the node REST API.
type NodeSession interface {
	ConfigureResuming(ctx context.Context, sessionID string, timeout time.Duration) error
	GetPlayers(ctx context.Context, sessionID string) ([]*domain.PlayerState, error)
}

type artworkJob struct {
	guildID string
	track   *domain.Track
}

// Options tunes the engine.
type Options struct {
	// ResumeTimeout is announced to the node after every Ready; zero skips it.
	ResumeTimeout time.Duration

	Artwork         bool
	ArtworkDebounce time.Duration
}

// Engine consumes the node event stream and the voice gateway.
type Engine struct {
	logger   *zap.Logger
	opts     Options
	source   domain.EventSource
	sessions SessionTracker
	players  PlayerRouter
	voice    domain.VoiceGateway
	node     NodeSession
	fetcher  domain.Fetcher
	renderer domain.ArtworkRenderer

	artwork chan artworkJob
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewEngine creates an engine. fetcher and renderer are only used when
// opts.Artwork is set.
func NewEngine(
	logger *zap.Logger,
	opts Options,
	source domain.EventSource,
	sessions SessionTracker,
	players PlayerRouter,
	voice domain.VoiceGateway,
	node NodeSession,
	fetcher domain.Fetcher,
	renderer domain.ArtworkRenderer,
) *Engine {
	if opts.ArtworkDebounce <= 0 {
		opts.ArtworkDebounce = _defaultDebounce
	}
	return &Engine{
		logger:   logger,
		opts:     opts,
		source:   source,
		sessions: sessions,
		players:  players,
		voice:    voice,
		node:     node,
		fetcher:  fetcher,
		renderer: renderer,
		artwork:  make(chan artworkJob, _artworkBacklog),
	}
}

// Start launches the processing loops. It returns immediately.
func (e *Engine) Start(ctx context.Context) error {
	e.logger.Info("Engine starting...")

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e.cancel = cancel

	e.wg.Add(2)
	go e.runLoop(loopCtx)
	go e.voiceLoop(loopCtx)
	if e.opts.Artwork {
		e.wg.Add(1)
		go e.artworkLoop(loopCtx)
	}
	return nil
}

// Stop ends the loops and waits for them.
func (e *Engine) Stop(ctx context.Context) error {
	e.logger.Info("Engine stopping...")
	if e.cancel != nil {
		e.cancel()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop handles node events. Artwork for rapidly changing tracks is
// debounced so only the last track of a burst is rendered; rendering itself
// happens on artworkLoop.
func (e *Engine) runLoop(ctx context.Context) {
	defer e.wg.Done()

	events := e.source.Events()

	timer := time.NewTimer(e.opts.ArtworkDebounce)
	timer.Stop()

	pending := make(map[string]*domain.Track)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Engine loop stopped")
			return

		case ev, ok := <-events:
			if !ok {
				e.logger.Info("Node events channel closed")
				return
			}
			e.handleEvent(ctx, ev)

			if !e.opts.Artwork {
				continue
			}
			switch ev := ev.(type) {
			case domain.TrackStartEvent:
				if ev.Track != nil && ev.Track.ArtworkURI != "" {
					e.logger.Debug("Artwork pending, debouncing...",
						zap.String("guildId", ev.GuildID),
						zap.String("title", ev.Track.Title))
					pending[ev.GuildID] = ev.Track
					timer.Reset(e.opts.ArtworkDebounce)
				}
			case domain.TrackEndEvent:
				delete(pending, ev.GuildID)
			}

		case <-timer.C:
			for guildID, track := range pending {
				select {
				case e.artwork <- artworkJob{guildID: guildID, track: track}:
				default:
					e.logger.Warn("Artwork backlog full, dropping render",
						zap.String("guildId", guildID),
						zap.String("title", track.Title))
				}
			}
			clear(pending)
		}
	}
}

func (e *Engine) handleEvent(ctx context.Context, ev domain.Event) {
	switch ev := ev.(type) {
	case domain.ReadyEvent:
		e.logger.Info("Node session ready",
			zap.String("sessionId", ev.SessionID),
			zap.Bool("resumed", ev.Resumed))

		if e.sessions.HandleReady(ev) {
			if err := e.players.InvalidateSessions(ctx); err != nil {
				e.logger.Warn("Failed to invalidate player sessions", zap.Error(err))
			}
		} else if ev.Resumed && e.node != nil {
			e.reconcile(ctx, ev.SessionID)
		}
		if e.opts.ResumeTimeout > 0 && e.node != nil {
			if err := e.node.ConfigureResuming(ctx, ev.SessionID, e.opts.ResumeTimeout); err != nil {
				e.logger.Warn("Failed to enable session resuming", zap.Error(err))
			}
		}

	case domain.DisconnectedEvent:
		e.logger.Warn("Node socket lost",
			zap.Int("code", ev.Code),
			zap.String("reason", ev.Reason))
		e.sessions.Invalidate()

	case domain.StatisticsEvent:
		e.logger.Debug("Node statistics",
			zap.Int("players", ev.Players),
			zap.Int("playingPlayers", ev.PlayingPlayers),
			zap.Duration("uptime", ev.Uptime))

	case domain.GuildEvent:
		if err := e.players.Dispatch(ctx, ev); err != nil {
			e.logger.Warn("Failed to dispatch event",
				zap.String("guildId", ev.Guild()),
				zap.String("type", string(ev.Type())),
				zap.Error(err))
		}

	default:
		e.logger.Debug("Unhandled node event", zap.String("type", string(ev.Type())))
	}
}

// reconcile pulls the players a resumed session kept on the node so local
// state reflects what happened while the socket was down.
func (e *Engine) reconcile(ctx context.Context, sessionID string) {
	states, err := e.node.GetPlayers(ctx, sessionID)
	if err != nil {
		e.logger.Warn("Failed to fetch players of resumed session",
			zap.String("sessionId", sessionID), zap.Error(err))
		return
	}
	if err := e.players.Reconcile(ctx, states); err != nil {
		e.logger.Warn("Failed to reconcile players", zap.Error(err))
		return
	}
	e.logger.Info("Players reconciled after resume",
		zap.String("sessionId", sessionID),
		zap.Int("players", len(states)))
}

func (e *Engine) voiceLoop(ctx context.Context) {
	defer e.wg.Done()

	servers := e.voice.VoiceServerUpdates()
	states := e.voice.VoiceStateUpdates()

	for {
		select {
		case <-ctx.Done():
			return

		case u, ok := <-servers:
			if !ok {
				servers = nil
				continue
			}
			if err := e.players.HandleVoiceServerUpdate(ctx, u); err != nil {
				e.logger.Warn("Failed to apply voice server update",
					zap.String("guildId", u.GuildID), zap.Error(err))
			}

		case u, ok := <-states:
			if !ok {
				states = nil
				continue
			}
			if err := e.players.HandleVoiceStateUpdate(ctx, u); err != nil {
				e.logger.Warn("Failed to apply voice state update",
					zap.String("guildId", u.GuildID), zap.Error(err))
			}
		}
	}
}

func (e *Engine) artworkLoop(ctx context.Context) {
	defer e.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-e.artwork:
			e.renderArtwork(ctx, job.guildID, job.track)
		}
	}
}

func (e *Engine) renderArtwork(ctx context.Context, guildID string, track *domain.Track) {
	imgData, err := e.fetcher.Fetch(ctx, track.ArtworkURI)
	if err != nil {
		e.logger.Error("Failed to fetch artwork",
			zap.String("guildId", guildID), zap.Error(err))
		return
	}

	path, err := e.renderer.Generate(imgData, guildID)
	if err != nil {
		e.logger.Error("Failed to render artwork",
			zap.String("guildId", guildID), zap.Error(err))
		return
	}

	e.logger.Info("Now playing artwork updated",
		zap.String("guildId", guildID),
		zap.String("track", track.Title),
		zap.String("path", path))
}
