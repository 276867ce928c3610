package domain

import "time"

// EventType identifies a node event.
type EventType string

const (
	EventReady              EventType = "ready"
	EventPlayerUpdate       EventType = "playerUpdate"
	EventStatistics         EventType = "stats"
	EventTrackStart         EventType = "TrackStartEvent"
	EventTrackEnd           EventType = "TrackEndEvent"
	EventTrackException     EventType = "TrackExceptionEvent"
	EventTrackStuck         EventType = "TrackStuckEvent"
	EventWebSocketClosed    EventType = "WebSocketClosedEvent"
	EventSocketDisconnected EventType = "disconnected"
)

// Event is anything the node's event stream delivers.
type Event interface {
	Type() EventType
}

// GuildEvent is an Event addressed to one guild player.
type GuildEvent interface {
	Event
	Guild() string
}

// ReadyEvent is sent once the socket is established.
type ReadyEvent struct {
	SessionID string
	Resumed   bool
}

func (ReadyEvent) Type() EventType { return EventReady }

// DisconnectedEvent is emitted locally when the socket drops.
type DisconnectedEvent struct {
	Code   int
	Reason string
}

func (DisconnectedEvent) Type() EventType { return EventSocketDisconnected }

// PlayerUpdateEvent carries the periodic playback progress of a guild.
type PlayerUpdateEvent struct {
	GuildID  string
	Progress PlaybackProgress
}

func (PlayerUpdateEvent) Type() EventType { return EventPlayerUpdate }
func (e PlayerUpdateEvent) Guild() string { return e.GuildID }

// StatisticsEvent reports node resource usage.
type StatisticsEvent struct {
	Players        int
	PlayingPlayers int
	Uptime         time.Duration
	Memory         MemoryStatistics
	CPU            CPUStatistics
	Frames         *FrameStatistics
}

type MemoryStatistics struct {
	Free       int64
	Used       int64
	Allocated  int64
	Reservable int64
}

type CPUStatistics struct {
	Cores        int
	SystemLoad   float64
	LavalinkLoad float64
}

type FrameStatistics struct {
	Sent    int
	Nulled  int
	Deficit int
}

func (StatisticsEvent) Type() EventType { return EventStatistics }

// TrackStartEvent is sent when the node starts playing a track.
type TrackStartEvent struct {
	GuildID string
	Track   *Track
}

func (TrackStartEvent) Type() EventType { return EventTrackStart }
func (e TrackStartEvent) Guild() string { return e.GuildID }

// TrackEndEvent is sent when a track stops, for whatever reason.
type TrackEndEvent struct {
	GuildID string
	Track   *Track
	Reason  TrackEndReason
}

func (TrackEndEvent) Type() EventType { return EventTrackEnd }
func (e TrackEndEvent) Guild() string { return e.GuildID }

// ExceptionSeverity grades a TrackException.
type ExceptionSeverity string

const (
	SeverityCommon     ExceptionSeverity = "common"
	SeveritySuspicious ExceptionSeverity = "suspicious"
	SeverityFault      ExceptionSeverity = "fault"
)

// TrackException describes a node-side playback or lookup failure.
type TrackException struct {
	Message  string
	Severity ExceptionSeverity
	Cause    string
}

// TrackExceptionEvent is sent when playback fails.
type TrackExceptionEvent struct {
	GuildID   string
	Track     *Track
	Exception TrackException
}

func (TrackExceptionEvent) Type() EventType { return EventTrackException }
func (e TrackExceptionEvent) Guild() string { return e.GuildID }

// TrackStuckEvent is sent when the node receives no audio for Threshold.
type TrackStuckEvent struct {
	GuildID   string
	Track     *Track
	Threshold time.Duration
}

func (TrackStuckEvent) Type() EventType { return EventTrackStuck }
func (e TrackStuckEvent) Guild() string { return e.GuildID }

// WebSocketClosedEvent is sent when the node's voice connection closes.
type WebSocketClosedEvent struct {
	GuildID  string
	Code     int
	Reason   string
	ByRemote bool
}

func (WebSocketClosedEvent) Type() EventType { return EventWebSocketClosed }
func (e WebSocketClosedEvent) Guild() string { return e.GuildID }

// VoiceServerUpdate is the voice token and endpoint handed out by the gateway.
type VoiceServerUpdate struct {
	GuildID  string
	Token    string
	Endpoint string
}

// VoiceStateUpdate is a change to one user's voice connection.
type VoiceStateUpdate struct {
	GuildID   string
	UserID    string
	ChannelID string
	SessionID string
}
