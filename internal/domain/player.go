package domain

import (
	"encoding/json"
	"time"
)

// RepeatMode controls what happens when a track finishes.
type RepeatMode int

const (
	// RepeatNone advances through the queue and stops when it is empty.
	RepeatNone RepeatMode = iota
	// RepeatTrack replays the current track.
	RepeatTrack
	// RepeatQueue re-appends finished tracks to the queue tail.
	RepeatQueue
)

func (m RepeatMode) String() string {
	switch m {
	case RepeatTrack:
		return "track"
	case RepeatQueue:
		return "queue"
	default:
		return "none"
	}
}

// ParseRepeatMode parses the String form of a RepeatMode.
func ParseRepeatMode(s string) (RepeatMode, bool) {
	switch s {
	case "none", "off", "":
		return RepeatNone, true
	case "track":
		return RepeatTrack, true
	case "queue":
		return RepeatQueue, true
	}
	return RepeatNone, false
}

// TrackEndReason tells why the node stopped playing a track.
type TrackEndReason string

const (
	TrackEndFinished   TrackEndReason = "finished"
	TrackEndLoadFailed TrackEndReason = "loadFailed"
	TrackEndStopped    TrackEndReason = "stopped"
	TrackEndReplaced   TrackEndReason = "replaced"
	TrackEndCleanup    TrackEndReason = "cleanup"
)

// VoiceState is the voice connection data the node needs to join a channel.
type VoiceState struct {
	Token     string `json:"token"`
	Endpoint  string `json:"endpoint"`
	SessionID string `json:"sessionId"`
}

// IsComplete reports whether all three fields are known.
func (v VoiceState) IsComplete() bool {
	return v.Token != "" && v.Endpoint != "" && v.SessionID != ""
}

// PlaybackProgress is the periodic position report of a player.
type PlaybackProgress struct {
	Time      time.Time
	Position  time.Duration
	Connected bool
	Ping      time.Duration
}

// PlayerState is the node's view of a guild player.
type PlayerState struct {
	GuildID      string
	CurrentTrack *Track
	Volume       float32
	IsPaused     bool
	VoiceState   VoiceState
	Filters      Filters
	Progress     PlaybackProgress
}

// UpdatePatch is a sparse player update. Only set fields reach the node.
type UpdatePatch struct {
	Identifier Optional[string]
	// TrackData set to nil stops playback.
	TrackData  Optional[*string]
	Position   Optional[time.Duration]
	EndTime    Optional[*time.Duration]
	Volume     Optional[float32]
	Paused     Optional[bool]
	Filters    Optional[Filters]
	VoiceState Optional[VoiceState]

	// NoReplace keeps the current track if one is playing.
	NoReplace bool
}

// IsEmpty reports whether no field is set.
func (p UpdatePatch) IsEmpty() bool {
	return !p.Identifier.IsSet() && !p.TrackData.IsSet() && !p.Position.IsSet() &&
		!p.EndTime.IsSet() && !p.Volume.IsSet() && !p.Paused.IsSet() &&
		!p.Filters.IsSet() && !p.VoiceState.IsSet()
}

// Filters is the node's audio filter chain.
type Filters struct {
	Volume        *float32                   `json:"volume,omitempty"`
	Equalizer     []EqualizerBand            `json:"equalizer,omitempty"`
	Karaoke       *KaraokeFilter             `json:"karaoke,omitempty"`
	Timescale     *TimescaleFilter           `json:"timescale,omitempty"`
	Tremolo       *TremoloFilter             `json:"tremolo,omitempty"`
	Vibrato       *VibratoFilter             `json:"vibrato,omitempty"`
	Rotation      *RotationFilter            `json:"rotation,omitempty"`
	Distortion    *DistortionFilter          `json:"distortion,omitempty"`
	ChannelMix    *ChannelMixFilter          `json:"channelMix,omitempty"`
	LowPass       *LowPassFilter             `json:"lowPass,omitempty"`
	PluginFilters map[string]json.RawMessage `json:"pluginFilters,omitempty"`
}

type EqualizerBand struct {
	Band int     `json:"band"`
	Gain float32 `json:"gain"`
}

type KaraokeFilter struct {
	Level       *float32 `json:"level,omitempty"`
	MonoLevel   *float32 `json:"monoLevel,omitempty"`
	FilterBand  *float32 `json:"filterBand,omitempty"`
	FilterWidth *float32 `json:"filterWidth,omitempty"`
}

type TimescaleFilter struct {
	Speed *float32 `json:"speed,omitempty"`
	Pitch *float32 `json:"pitch,omitempty"`
	Rate  *float32 `json:"rate,omitempty"`
}

type TremoloFilter struct {
	Frequency *float32 `json:"frequency,omitempty"`
	Depth     *float32 `json:"depth,omitempty"`
}

type VibratoFilter struct {
	Frequency *float32 `json:"frequency,omitempty"`
	Depth     *float32 `json:"depth,omitempty"`
}

type RotationFilter struct {
	Frequency *float32 `json:"rotationHz,omitempty"`
}

type DistortionFilter struct {
	SinOffset *float32 `json:"sinOffset,omitempty"`
	SinScale  *float32 `json:"sinScale,omitempty"`
	CosOffset *float32 `json:"cosOffset,omitempty"`
	CosScale  *float32 `json:"cosScale,omitempty"`
	TanOffset *float32 `json:"tanOffset,omitempty"`
	TanScale  *float32 `json:"tanScale,omitempty"`
	Offset    *float32 `json:"offset,omitempty"`
	Scale     *float32 `json:"scale,omitempty"`
}

type ChannelMixFilter struct {
	LeftToLeft   *float32 `json:"leftToLeft,omitempty"`
	LeftToRight  *float32 `json:"leftToRight,omitempty"`
	RightToLeft  *float32 `json:"rightToLeft,omitempty"`
	RightToRight *float32 `json:"rightToRight,omitempty"`
}

type LowPassFilter struct {
	Smoothing *float32 `json:"smoothing,omitempty"`
}

// PlayerSession binds a guild player to a node connection.
type PlayerSession struct {
	API       NodeAPIClient
	SessionID string
	ResumeKey string
}

// LoadResultType is the kind of result a track lookup produced.
type LoadResultType string

const (
	LoadResultTrack    LoadResultType = "track"
	LoadResultPlaylist LoadResultType = "playlist"
	LoadResultSearch   LoadResultType = "search"
	LoadResultEmpty    LoadResultType = "empty"
	LoadResultError    LoadResultType = "error"
)

// LoadResult is the outcome of resolving an identifier on the node.
type LoadResult struct {
	Type     LoadResultType
	Tracks   []*Track
	Playlist *PlaylistInfo
	Error    *TrackException
}

// PlaylistInfo describes a loaded playlist.
type PlaylistInfo struct {
	Name          string
	SelectedTrack int
}
