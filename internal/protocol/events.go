package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/genricoloni/lavaqueue/internal/domain"
)

// Op values of socket messages.
const (
	OpReady        = "ready"
	OpPlayerUpdate = "playerUpdate"
	OpStats        = "stats"
	OpEvent        = "event"
)

// Message is the envelope shared by every socket message
type Message struct {
	Op      string `json:"op"`
	Type    string `json:"type,omitempty"`
	GuildID string `json:"guildId,omitempty"`
}

type readyMessage struct {
	Resumed   bool   `json:"resumed"`
	SessionID string `json:"sessionId"`
}

type playerUpdateMessage struct {
	GuildID string         `json:"guildId"`
	State   PlayerProgress `json:"state"`
}

type trackEventMessage struct {
	GuildID     string     `json:"guildId"`
	Track       *Track     `json:"track"`
	Reason      string     `json:"reason"`
	Exception   *Exception `json:"exception"`
	ThresholdMs int64      `json:"thresholdMs"`
	Code        int        `json:"code"`
	ByRemote    bool       `json:"byRemote"`
}

// ErrUnknownMessage is wrapped by ParseEvent for ops and event types this
// client does not handle.
var ErrUnknownMessage = errors.New("unknown message")

// ParseEvent decodes one socket message.
func ParseEvent(data []byte) (domain.Event, error) {
	var env Message
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Op {
	case OpReady:
		var m readyMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode ready: %w", err)
		}
		return domain.ReadyEvent{SessionID: m.SessionID, Resumed: m.Resumed}, nil

	case OpPlayerUpdate:
		var m playerUpdateMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode playerUpdate: %w", err)
		}
		return domain.PlayerUpdateEvent{GuildID: m.GuildID, Progress: ToProgress(m.State)}, nil

	case OpStats:
		var s Stats
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("decode stats: %w", err)
		}
		return ToStatistics(s), nil

	case OpEvent:
		return parseTrackEvent(env.Type, data)
	}
	return nil, fmt.Errorf("%w: op %q", ErrUnknownMessage, env.Op)
}

func parseTrackEvent(typ string, data []byte) (domain.Event, error) {
	var m trackEventMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", typ, err)
	}

	var track *domain.Track
	if m.Track != nil {
		t, err := ToTrack(*m.Track)
		if err != nil {
			return nil, fmt.Errorf("decode %s track: %w", typ, err)
		}
		track = t
	}

	switch domain.EventType(typ) {
	case domain.EventTrackStart:
		return domain.TrackStartEvent{GuildID: m.GuildID, Track: track}, nil
	case domain.EventTrackEnd:
		return domain.TrackEndEvent{GuildID: m.GuildID, Track: track, Reason: domain.TrackEndReason(m.Reason)}, nil
	case domain.EventTrackException:
		var ex domain.TrackException
		if m.Exception != nil {
			ex = ToException(*m.Exception)
		}
		return domain.TrackExceptionEvent{GuildID: m.GuildID, Track: track, Exception: ex}, nil
	case domain.EventTrackStuck:
		return domain.TrackStuckEvent{GuildID: m.GuildID, Track: track, Threshold: domain.MillisDuration(m.ThresholdMs)}, nil
	case domain.EventWebSocketClosed:
		return domain.WebSocketClosedEvent{GuildID: m.GuildID, Code: m.Code, Reason: m.Reason, ByRemote: m.ByRemote}, nil
	}
	return nil, fmt.Errorf("%w: event %q", ErrUnknownMessage, typ)
}

// ToStatistics converts a stats payload.
func ToStatistics(s Stats) domain.StatisticsEvent {
	ev := domain.StatisticsEvent{
		Players:        s.Players,
		PlayingPlayers: s.PlayingPlayers,
		Uptime:         time.Duration(s.Uptime) * time.Millisecond,
		Memory: domain.MemoryStatistics{
			Free:       s.Memory.Free,
			Used:       s.Memory.Used,
			Allocated:  s.Memory.Allocated,
			Reservable: s.Memory.Reservable,
		},
		CPU: domain.CPUStatistics{
			Cores:        s.CPU.Cores,
			SystemLoad:   s.CPU.SystemLoad,
			LavalinkLoad: s.CPU.LavalinkLoad,
		},
	}
	if s.FrameStats != nil {
		ev.Frames = &domain.FrameStatistics{
			Sent:    s.FrameStats.Sent,
			Nulled:  s.FrameStats.Nulled,
			Deficit: s.FrameStats.Deficit,
		}
	}
	return ev
}
