// Package player implements the per-guild queued player.
//
// Every QueuedPlayer runs its own loop goroutine. Public methods post a
// command to the loop and wait for its reply, so at most one update is in
// flight per guild and the queue is only ever touched by the loop.
package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/genricoloni/lavaqueue/internal/codec"
	"github.com/genricoloni/lavaqueue/internal/domain"
	"github.com/genricoloni/lavaqueue/internal/queue"
	"go.uber.org/zap"
)

const (
	_commandBuffer       = 32
	_defaultEventTimeout = 10 * time.Second

	// MaxVolume is the loudest volume the node accepts (1000%).
	MaxVolume float32 = 10
)

// Options configures a QueuedPlayer.
type Options struct {
	// RespectTrackRepeatOnSkip makes Skip replay the current track while
	// RepeatMode is RepeatTrack.
	RespectTrackRepeatOnSkip bool

	// RepeatMode is the initial repeat mode.
	RepeatMode domain.RepeatMode

	// EventTimeout bounds updates triggered by node events.
	EventTimeout time.Duration
}

// PlayOptions tunes Play.
type PlayOptions struct {
	// Enqueue appends the track to the queue when something is already playing.
	Enqueue bool

	StartPosition time.Duration
	EndTime       *time.Duration
	NoReplace     bool
}

type command struct {
	ctx   context.Context
	fn    func(ctx context.Context) error
	reply chan error
}

// QueuedPlayer is the player of one guild.
type QueuedPlayer struct {
	guildID  string
	logger   *zap.Logger
	sessions domain.SessionProvider
	opts     Options

	commands chan command
	done     chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
	wg       sync.WaitGroup

	// Events wait in inbox until the loop drains it; notify is signalled
	// whenever inbox becomes non-empty.
	inboxMu sync.Mutex
	inbox   []domain.GuildEvent
	notify  chan struct{}

	// Owned by the loop.
	state   domain.PlayerState
	repeat  domain.RepeatMode
	queue   *queue.Queue
	session *domain.PlayerSession
}

// New starts the loop of a player for guildID.
func New(guildID string, sessions domain.SessionProvider, opts Options, logger *zap.Logger) *QueuedPlayer {
	if opts.EventTimeout <= 0 {
		opts.EventTimeout = _defaultEventTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())

	p := &QueuedPlayer{
		guildID:  guildID,
		logger:   logger.With(zap.String("guildId", guildID)),
		sessions: sessions,
		opts:     opts,
		commands: make(chan command, _commandBuffer),
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
		state:    domain.PlayerState{GuildID: guildID, Volume: 1},
		repeat:   opts.RepeatMode,
		queue:    queue.New(),
	}

	p.wg.Add(1)
	go p.run()
	return p
}

func (p *QueuedPlayer) GuildID() string {
	return p.guildID
}

func (p *QueuedPlayer) run() {
	defer p.wg.Done()

	for {
		select {
		case <-p.done:
			return
		case cmd := <-p.commands:
			if err := cmd.ctx.Err(); err != nil {
				cmd.reply <- err
				continue
			}
			cmd.reply <- cmd.fn(cmd.ctx)
		case <-p.notify:
			for _, ev := range p.takeInbox() {
				p.handleEvent(ev)
			}
		}
	}
}

func (p *QueuedPlayer) takeInbox() []domain.GuildEvent {
	p.inboxMu.Lock()
	defer p.inboxMu.Unlock()

	events := p.inbox
	p.inbox = nil
	return events
}

// do runs fn on the loop and waits for its result. Once the loop accepted
// the command the caller waits for fn to return, so a cancellation that
// arrives mid-flight is reported by fn itself and never leaves a half
// applied change behind.
func (p *QueuedPlayer) do(ctx context.Context, fn func(ctx context.Context) error) error {
	reply := make(chan error, 1)

	select {
	case p.commands <- command{ctx: ctx, fn: fn, reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return domain.ErrPlayerClosed
	}

	select {
	case err := <-reply:
		return err
	case <-p.done:
		return domain.ErrPlayerClosed
	}
}

// Dispatch hands a node event to the loop without waiting for it, so a
// guild whose loop is busy with a slow update never holds up the caller.
func (p *QueuedPlayer) Dispatch(_ context.Context, ev domain.GuildEvent) error {
	select {
	case <-p.done:
		return domain.ErrPlayerClosed
	default:
	}

	p.inboxMu.Lock()
	p.inbox = append(p.inbox, ev)
	p.inboxMu.Unlock()

	select {
	case p.notify <- struct{}{}:
	default:
	}
	return nil
}

// Skip advances count tracks. The first count-1 queued items are dropped and
// the count-th one is played; when the queue runs out playback stops.
func (p *QueuedPlayer) Skip(ctx context.Context, count int) error {
	if count < 1 {
		return domain.ErrInvalidSkipCount
	}

	return p.do(ctx, func(ctx context.Context) error {
		if p.repeat == domain.RepeatTrack && p.opts.RespectTrackRepeatOnSkip && p.state.CurrentTrack != nil {
			current := domain.NewTrackReference(p.state.CurrentTrack)
			return p.advance(ctx, &current, 0, nil)
		}

		var target *domain.TrackReference
		if item, ok := p.queue.At(count - 1); ok {
			target = &item.Reference
		}
		return p.advance(ctx, target, count, nil)
	})
}

// TrackEnded applies the repeat policy after ended stopped playing. Only
// TrackEndFinished advances; other reasons report advanced=false and send
// nothing.
func (p *QueuedPlayer) TrackEnded(ctx context.Context, ended *domain.Track, reason domain.TrackEndReason) (advanced bool, err error) {
	err = p.do(ctx, func(ctx context.Context) error {
		var err error
		advanced, err = p.trackEnded(ctx, ended, reason)
		return err
	})
	return advanced, err
}

func (p *QueuedPlayer) trackEnded(ctx context.Context, ended *domain.Track, reason domain.TrackEndReason) (bool, error) {
	if reason != domain.TrackEndFinished {
		p.logger.Debug("Track ended without advancing", zap.String("reason", string(reason)))
		return false, nil
	}
	if ended == nil {
		ended = p.state.CurrentTrack
	}

	var (
		target  *domain.TrackReference
		consume int
		requeue *domain.Track
	)

	switch p.repeat {
	case domain.RepeatTrack:
		if ended != nil {
			ref := domain.NewTrackReference(ended)
			target = &ref
		}
	case domain.RepeatQueue:
		if item, ok := p.queue.PeekFront(); ok {
			target, consume, requeue = &item.Reference, 1, ended
		} else if ended != nil {
			ref := domain.NewTrackReference(ended)
			target = &ref
		}
	default:
		if item, ok := p.queue.PeekFront(); ok {
			target, consume = &item.Reference, 1
		}
	}

	if err := p.advance(ctx, target, consume, requeue); err != nil {
		return false, err
	}
	return true, nil
}

// advance plays target (nil stops playback). The queue is only changed once
// the node acknowledged the update: consume items are removed from the
// front and requeue, if set, is appended.
func (p *QueuedPlayer) advance(ctx context.Context, target *domain.TrackReference, consume int, requeue *domain.Track) error {
	patch, err := trackPatch(target)
	if err != nil {
		return err
	}
	if err := p.submit(ctx, patch); err != nil {
		return err
	}

	p.queue.RemoveFront(consume)
	if requeue != nil {
		p.queue.Append(domain.NewQueueItem(domain.NewTrackReference(requeue)))
	}
	return nil
}

func trackPatch(target *domain.TrackReference) (domain.UpdatePatch, error) {
	var patch domain.UpdatePatch
	switch {
	case target == nil:
		patch.TrackData = domain.Set[*string](nil)
	case target.IsResolved():
		form, err := codec.String(target.Track)
		if err != nil {
			return patch, fmt.Errorf("encode track: %w", err)
		}
		patch.TrackData = domain.Set(&form)
	default:
		patch.Identifier = domain.Set(target.Identifier)
	}
	return patch, nil
}

// submit sends patch and adopts the node's answer. Nothing is changed
// locally when it fails.
func (p *QueuedPlayer) submit(ctx context.Context, patch domain.UpdatePatch) error {
	session, err := p.acquireSession(ctx)
	if err != nil {
		return err
	}

	state, err := session.API.UpdatePlayer(ctx, session.SessionID, p.guildID, patch)
	if err != nil {
		p.logger.Warn("Player update failed", zap.Error(err))
		return fmt.Errorf("update player: %w", err)
	}
	if state == nil {
		return fmt.Errorf("update player: empty response")
	}
	// The caller gave up while the request was in flight; it is told the
	// update failed, so nothing may change locally either.
	if err := ctx.Err(); err != nil {
		p.logger.Debug("Dropping update acknowledged after cancellation", zap.Error(err))
		return err
	}

	p.adopt(*state)
	return nil
}

func (p *QueuedPlayer) acquireSession(ctx context.Context) (*domain.PlayerSession, error) {
	if p.session != nil {
		return p.session, nil
	}

	session, err := p.sessions.GetSession(ctx, p.guildID)
	if err != nil {
		var unavailable *domain.SessionUnavailableError
		if errors.As(err, &unavailable) {
			return nil, err
		}
		return nil, &domain.SessionUnavailableError{GuildID: p.guildID, Err: err}
	}

	p.logger.Debug("Session acquired", zap.String("sessionId", session.SessionID))
	p.session = &session
	return p.session, nil
}

func (p *QueuedPlayer) adopt(state domain.PlayerState) {
	state.GuildID = p.guildID
	if state.Progress.Time.IsZero() {
		state.Progress = p.state.Progress
	}
	p.state = state
}

func (p *QueuedPlayer) handleEvent(ev domain.GuildEvent) {
	switch e := ev.(type) {
	case domain.TrackStartEvent:
		p.state.CurrentTrack = e.Track
	case domain.PlayerUpdateEvent:
		p.state.Progress = e.Progress
	case domain.TrackEndEvent:
		ctx, cancel := context.WithTimeout(p.ctx, p.opts.EventTimeout)
		defer cancel()
		if _, err := p.trackEnded(ctx, e.Track, e.Reason); err != nil {
			p.logger.Error("Failed to advance after track end", zap.Error(err))
		}
	case domain.TrackExceptionEvent:
		p.logger.Warn("Track exception",
			zap.String("message", e.Exception.Message),
			zap.String("severity", string(e.Exception.Severity)),
			zap.String("cause", e.Exception.Cause))
	case domain.TrackStuckEvent:
		p.logger.Warn("Track stuck", zap.Duration("threshold", e.Threshold))
	case domain.WebSocketClosedEvent:
		p.logger.Info("Voice connection closed",
			zap.Int("code", e.Code),
			zap.String("reason", e.Reason),
			zap.Bool("byRemote", e.ByRemote))
	}
}

// Play starts ref. With opts.Enqueue and a track already playing the
// reference is queued instead; the returned position is its 1-based queue
// position, or 0 when it started playing.
func (p *QueuedPlayer) Play(ctx context.Context, ref domain.TrackReference, opts PlayOptions) (position int, err error) {
	err = p.do(ctx, func(ctx context.Context) error {
		if opts.Enqueue && p.state.CurrentTrack != nil {
			p.queue.Append(domain.NewQueueItem(ref))
			position = p.queue.Len()
			return nil
		}

		patch, err := trackPatch(&ref)
		if err != nil {
			return err
		}
		if opts.StartPosition > 0 {
			patch.Position = domain.Set(opts.StartPosition)
		}
		if opts.EndTime != nil {
			patch.EndTime = domain.Set(opts.EndTime)
		}
		patch.NoReplace = opts.NoReplace
		return p.submit(ctx, patch)
	})
	return position, err
}

// Stop ends playback and clears the queue.
func (p *QueuedPlayer) Stop(ctx context.Context) error {
	return p.do(ctx, func(ctx context.Context) error {
		if err := p.advance(ctx, nil, 0, nil); err != nil {
			return err
		}
		p.queue.Clear()
		return nil
	})
}

func (p *QueuedPlayer) Pause(ctx context.Context) error {
	return p.update(ctx, domain.UpdatePatch{Paused: domain.Set(true)})
}

func (p *QueuedPlayer) Resume(ctx context.Context) error {
	return p.update(ctx, domain.UpdatePatch{Paused: domain.Set(false)})
}

func (p *QueuedPlayer) Seek(ctx context.Context, position time.Duration) error {
	if position < 0 {
		return &domain.ConfigurationError{Field: "position", Reason: "must not be negative"}
	}
	return p.update(ctx, domain.UpdatePatch{Position: domain.Set(position)})
}

// SetVolume sets the volume; 1 is 100%.
func (p *QueuedPlayer) SetVolume(ctx context.Context, volume float32) error {
	if volume < 0 || volume > MaxVolume {
		return &domain.ConfigurationError{Field: "volume", Reason: fmt.Sprintf("%.2f is outside [0, %.0f]", volume, MaxVolume)}
	}
	return p.update(ctx, domain.UpdatePatch{Volume: domain.Set(volume)})
}

func (p *QueuedPlayer) SetFilters(ctx context.Context, filters domain.Filters) error {
	return p.update(ctx, domain.UpdatePatch{Filters: domain.Set(filters)})
}

// UpdateVoice forwards the guild's voice credentials to the node.
func (p *QueuedPlayer) UpdateVoice(ctx context.Context, voice domain.VoiceState) error {
	return p.update(ctx, domain.UpdatePatch{VoiceState: domain.Set(voice)})
}

func (p *QueuedPlayer) update(ctx context.Context, patch domain.UpdatePatch) error {
	return p.do(ctx, func(ctx context.Context) error {
		return p.submit(ctx, patch)
	})
}

func (p *QueuedPlayer) SetRepeatMode(ctx context.Context, mode domain.RepeatMode) error {
	return p.do(ctx, func(context.Context) error {
		p.repeat = mode
		return nil
	})
}

// Enqueue appends refs and returns the new queue length.
func (p *QueuedPlayer) Enqueue(ctx context.Context, refs ...domain.TrackReference) (n int, err error) {
	err = p.do(ctx, func(context.Context) error {
		for _, ref := range refs {
			p.queue.Append(domain.NewQueueItem(ref))
		}
		n = p.queue.Len()
		return nil
	})
	return n, err
}

// ClearQueue drops every queued item and returns how many were removed.
func (p *QueuedPlayer) ClearQueue(ctx context.Context) (n int, err error) {
	err = p.do(ctx, func(context.Context) error {
		n = p.queue.Clear()
		return nil
	})
	return n, err
}

// Snapshot is a consistent view of a player.
type Snapshot struct {
	State      domain.PlayerState
	RepeatMode domain.RepeatMode
	Queue      []domain.TrackQueueItem
}

func (p *QueuedPlayer) Snapshot(ctx context.Context) (snap Snapshot, err error) {
	err = p.do(ctx, func(context.Context) error {
		snap = Snapshot{State: p.state, RepeatMode: p.repeat, Queue: p.queue.Items()}
		return nil
	})
	return snap, err
}

func (p *QueuedPlayer) State(ctx context.Context) (domain.PlayerState, error) {
	snap, err := p.Snapshot(ctx)
	return snap.State, err
}

func (p *QueuedPlayer) Queue(ctx context.Context) ([]domain.TrackQueueItem, error) {
	snap, err := p.Snapshot(ctx)
	return snap.Queue, err
}

func (p *QueuedPlayer) RepeatMode(ctx context.Context) (domain.RepeatMode, error) {
	snap, err := p.Snapshot(ctx)
	return snap.RepeatMode, err
}

// Sync adopts state as reported by the node, e.g. after a session resumed.
// A nil state means the node no longer knows the player: playback is
// considered stopped. The queue is kept either way.
func (p *QueuedPlayer) Sync(ctx context.Context, state *domain.PlayerState) error {
	return p.do(ctx, func(context.Context) error {
		if state == nil {
			p.state = domain.PlayerState{GuildID: p.guildID, Volume: 1}
			return nil
		}
		p.adopt(*state)
		return nil
	})
}

// InvalidateSession drops the cached session; the next update acquires a
// new one.
func (p *QueuedPlayer) InvalidateSession(ctx context.Context) error {
	return p.do(ctx, func(context.Context) error {
		p.session = nil
		return nil
	})
}

// Close destroys the player on the node, if it ever reached it, and stops
// the loop. The loop is stopped even when the node call fails.
func (p *QueuedPlayer) Close(ctx context.Context) error {
	err := p.do(ctx, func(ctx context.Context) error {
		if p.session == nil {
			return nil
		}
		return p.session.API.DestroyPlayer(ctx, p.session.SessionID, p.guildID)
	})
	p.stop()

	if errors.Is(err, domain.ErrPlayerClosed) {
		return nil
	}
	return err
}

func (p *QueuedPlayer) stop() {
	p.stopOnce.Do(func() {
		p.cancel()
		close(p.done)
	})
	p.wg.Wait()
}
