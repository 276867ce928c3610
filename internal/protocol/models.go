// Package protocol holds the JSON messages exchanged with the node and their
// conversion to domain types.
package protocol

import (
	"encoding/json"

	"github.com/genricoloni/lavaqueue/internal/domain"
)

// Track is a track as the node serializes it
type Track struct {
	Encoded    string                     `json:"encoded"`
	Info       TrackInfo                  `json:"info"`
	PluginInfo map[string]json.RawMessage `json:"pluginInfo,omitempty"`
	UserData   map[string]json.RawMessage `json:"userData,omitempty"`
}

// TrackInfo carries the decoded track fields
type TrackInfo struct {
	Identifier string  `json:"identifier"`
	IsSeekable bool    `json:"isSeekable"`
	Author     string  `json:"author"`
	Length     int64   `json:"length"`
	IsStream   bool    `json:"isStream"`
	Position   int64   `json:"position"`
	Title      string  `json:"title"`
	URI        *string `json:"uri"`
	ArtworkURL *string `json:"artworkUrl"`
	ISRC       *string `json:"isrc"`
	SourceName string  `json:"sourceName"`
}

// Player is the node's player object
type Player struct {
	GuildID string            `json:"guildId"`
	Track   *Track            `json:"track"`
	Volume  int               `json:"volume"`
	Paused  bool              `json:"paused"`
	State   PlayerProgress    `json:"state"`
	Voice   domain.VoiceState `json:"voice"`
	Filters domain.Filters    `json:"filters"`
}

// PlayerProgress is the state object of playerUpdate messages
type PlayerProgress struct {
	Time      int64 `json:"time"`
	Position  int64 `json:"position"`
	Connected bool  `json:"connected"`
	Ping      int64 `json:"ping"`
}

// Exception describes a node side failure
type Exception struct {
	Message  *string `json:"message"`
	Severity string  `json:"severity"`
	Cause    string  `json:"cause"`
}

// ErrorResponse is the body of a failed REST call
type ErrorResponse struct {
	Timestamp int64  `json:"timestamp"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Trace     string `json:"trace,omitempty"`
	Message   string `json:"message"`
	Path      string `json:"path"`
}

// LoadResult is the response of /v4/loadtracks
type LoadResult struct {
	LoadType string          `json:"loadType"`
	Data     json.RawMessage `json:"data"`
}

// Playlist is the data of a playlist load result
type Playlist struct {
	Info struct {
		Name          string `json:"name"`
		SelectedTrack int    `json:"selectedTrack"`
	} `json:"info"`
	PluginInfo map[string]json.RawMessage `json:"pluginInfo,omitempty"`
	Tracks     []Track                    `json:"tracks"`
}

// SessionUpdate configures resuming of a node session
type SessionUpdate struct {
	Resuming *bool `json:"resuming,omitempty"`
	Timeout  *int  `json:"timeout,omitempty"`
}

// Session is the node's answer to a SessionUpdate
type Session struct {
	Resuming bool `json:"resuming"`
	Timeout  int  `json:"timeout"`
}

// Info describes the node build
type Info struct {
	Version struct {
		Semver     string  `json:"semver"`
		Major      int     `json:"major"`
		Minor      int     `json:"minor"`
		Patch      int     `json:"patch"`
		PreRelease *string `json:"preRelease"`
		Build      *string `json:"build"`
	} `json:"version"`
	BuildTime int64 `json:"buildTime"`
	Git       struct {
		Branch     string `json:"branch"`
		Commit     string `json:"commit"`
		CommitTime int64  `json:"commitTime"`
	} `json:"git"`
	JVM            string   `json:"jvm"`
	Lavaplayer     string   `json:"lavaplayer"`
	SourceManagers []string `json:"sourceManagers"`
	Filters        []string `json:"filters"`
	Plugins        []struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"plugins"`
}

// Stats is the node's load report, sent over REST and as the stats op.
type Stats struct {
	Players        int   `json:"players"`
	PlayingPlayers int   `json:"playingPlayers"`
	Uptime         int64 `json:"uptime"`
	Memory         struct {
		Free       int64 `json:"free"`
		Used       int64 `json:"used"`
		Allocated  int64 `json:"allocated"`
		Reservable int64 `json:"reservable"`
	} `json:"memory"`
	CPU struct {
		Cores        int     `json:"cores"`
		SystemLoad   float64 `json:"systemLoad"`
		LavalinkLoad float64 `json:"lavalinkLoad"`
	} `json:"cpu"`
	FrameStats *struct {
		Sent    int `json:"sent"`
		Nulled  int `json:"nulled"`
		Deficit int `json:"deficit"`
	} `json:"frameStats"`
}
