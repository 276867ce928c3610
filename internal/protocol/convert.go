package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/genricoloni/lavaqueue/internal/codec"
	"github.com/genricoloni/lavaqueue/internal/domain"
)

// Plugin info keys with a typed home in domain.TrackExtension.
var extensionKeys = map[string]func(*domain.TrackExtension, json.RawMessage) error{
	"albumName":        stringInto(func(e *domain.TrackExtension) *string { return &e.AlbumName }),
	"albumUrl":         stringInto(func(e *domain.TrackExtension) *string { return &e.AlbumURL }),
	"artistUrl":        stringInto(func(e *domain.TrackExtension) *string { return &e.ArtistURL }),
	"artistArtworkUrl": stringInto(func(e *domain.TrackExtension) *string { return &e.ArtistArtworkURL }),
	"previewUrl":       stringInto(func(e *domain.TrackExtension) *string { return &e.PreviewURL }),
	"isPreview": func(e *domain.TrackExtension, raw json.RawMessage) error {
		return json.Unmarshal(raw, &e.IsPreview)
	},
}

func stringInto(field func(*domain.TrackExtension) *string) func(*domain.TrackExtension, json.RawMessage) error {
	return func(e *domain.TrackExtension, raw json.RawMessage) error {
		var s *string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		if s != nil {
			*field(e) = *s
		}
		return nil
	}
}

// ToTrack converts a node track. The encoded form becomes the track's
// canonical form, so resubmitting it sends the node's bytes back verbatim.
func ToTrack(t Track) (*domain.Track, error) {
	out := &domain.Track{
		Title:         t.Info.Title,
		Author:        t.Info.Author,
		Duration:      domain.MillisDuration(t.Info.Length),
		Identifier:    t.Info.Identifier,
		IsSeekable:    t.Info.IsSeekable,
		IsLiveStream:  t.Info.IsStream,
		URI:           deref(t.Info.URI),
		ArtworkURI:    deref(t.Info.ArtworkURL),
		ISRC:          deref(t.Info.ISRC),
		SourceName:    t.Info.SourceName,
		StartPosition: domain.MillisDuration(t.Info.Position),
	}

	for key, raw := range t.PluginInfo {
		if set, ok := extensionKeys[key]; ok {
			if err := set(&out.Extension, raw); err != nil {
				return nil, fmt.Errorf("plugin info %q: %w", key, err)
			}
			continue
		}

		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("plugin info %q: %w", key, err)
		}
		if out.AdditionalInformation == nil {
			out.AdditionalInformation = make(map[string]any)
		}
		out.AdditionalInformation[key] = v
	}

	// Probe info is only carried inside the binary form.
	if t.Encoded != "" {
		if decoded, err := codec.DecodeString(t.Encoded); err == nil {
			out.ProbeInfo = decoded.ProbeInfo
		}
		out.SetCanonicalForm(t.Encoded)
	}
	return out, nil
}

// FromTrack converts a domain track to its node representation.
func FromTrack(t *domain.Track) (Track, error) {
	encoded, err := codec.String(t)
	if err != nil {
		return Track{}, err
	}

	out := Track{
		Encoded: encoded,
		Info: TrackInfo{
			Identifier: t.Identifier,
			IsSeekable: t.IsSeekable,
			Author:     t.Author,
			Length:     domain.DurationMillis(t.Duration),
			IsStream:   t.IsLiveStream,
			Position:   domain.DurationMillis(t.StartPosition),
			Title:      t.Title,
			URI:        ref(t.URI),
			ArtworkURL: ref(t.ArtworkURI),
			ISRC:       ref(t.ISRC),
			SourceName: t.SourceName,
		},
	}

	if !t.Extension.IsZero() || len(t.AdditionalInformation) > 0 {
		out.PluginInfo = make(map[string]json.RawMessage)
		for k, v := range t.AdditionalInformation {
			raw, err := json.Marshal(v)
			if err != nil {
				return Track{}, fmt.Errorf("additional information %q: %w", k, err)
			}
			out.PluginInfo[k] = raw
		}
		e := t.Extension
		for k, v := range map[string]string{
			"albumName":        e.AlbumName,
			"albumUrl":         e.AlbumURL,
			"artistUrl":        e.ArtistURL,
			"artistArtworkUrl": e.ArtistArtworkURL,
			"previewUrl":       e.PreviewURL,
		} {
			if v != "" {
				out.PluginInfo[k], _ = json.Marshal(v)
			}
		}
		if e.IsPreview {
			out.PluginInfo["isPreview"] = json.RawMessage("true")
		}
	}
	return out, nil
}

// ToPlayerState converts a node player.
func ToPlayerState(p Player) (*domain.PlayerState, error) {
	state := &domain.PlayerState{
		GuildID:    p.GuildID,
		Volume:     float32(p.Volume) / 100,
		IsPaused:   p.Paused,
		VoiceState: p.Voice,
		Filters:    p.Filters,
		Progress:   ToProgress(p.State),
	}
	if p.Track != nil {
		t, err := ToTrack(*p.Track)
		if err != nil {
			return nil, err
		}
		state.CurrentTrack = t
	}
	return state, nil
}

// ToProgress converts a playerUpdate state.
func ToProgress(s PlayerProgress) domain.PlaybackProgress {
	var at time.Time
	if s.Time > 0 {
		at = time.UnixMilli(s.Time)
	}
	return domain.PlaybackProgress{
		Time:      at,
		Position:  domain.MillisDuration(s.Position),
		Connected: s.Connected,
		Ping:      domain.MillisDuration(s.Ping),
	}
}

// ToLoadResult converts a /v4/loadtracks response.
func ToLoadResult(r LoadResult) (*domain.LoadResult, error) {
	out := &domain.LoadResult{Type: domain.LoadResultType(r.LoadType)}

	switch out.Type {
	case domain.LoadResultTrack:
		var t Track
		if err := json.Unmarshal(r.Data, &t); err != nil {
			return nil, fmt.Errorf("decode track result: %w", err)
		}
		track, err := ToTrack(t)
		if err != nil {
			return nil, err
		}
		out.Tracks = []*domain.Track{track}
	case domain.LoadResultSearch:
		var ts []Track
		if err := json.Unmarshal(r.Data, &ts); err != nil {
			return nil, fmt.Errorf("decode search result: %w", err)
		}
		tracks, err := toTracks(ts)
		if err != nil {
			return nil, err
		}
		out.Tracks = tracks
	case domain.LoadResultPlaylist:
		var pl Playlist
		if err := json.Unmarshal(r.Data, &pl); err != nil {
			return nil, fmt.Errorf("decode playlist result: %w", err)
		}
		tracks, err := toTracks(pl.Tracks)
		if err != nil {
			return nil, err
		}
		out.Tracks = tracks
		out.Playlist = &domain.PlaylistInfo{Name: pl.Info.Name, SelectedTrack: pl.Info.SelectedTrack}
	case domain.LoadResultError:
		var ex Exception
		if err := json.Unmarshal(r.Data, &ex); err != nil {
			return nil, fmt.Errorf("decode error result: %w", err)
		}
		e := ToException(ex)
		out.Error = &e
	case domain.LoadResultEmpty:
	default:
		return nil, fmt.Errorf("unknown load type %q", r.LoadType)
	}
	return out, nil
}

func toTracks(ts []Track) ([]*domain.Track, error) {
	out := make([]*domain.Track, 0, len(ts))
	for _, t := range ts {
		track, err := ToTrack(t)
		if err != nil {
			return nil, err
		}
		out = append(out, track)
	}
	return out, nil
}

// ToException converts a node exception.
func ToException(e Exception) domain.TrackException {
	return domain.TrackException{
		Message:  deref(e.Message),
		Severity: domain.ExceptionSeverity(e.Severity),
		Cause:    e.Cause,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ref(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
