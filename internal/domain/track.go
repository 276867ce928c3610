package domain

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// DurationUnbounded marks a track without a known end (live streams).
const DurationUnbounded time.Duration = math.MaxInt64

// DurationMillis converts d to whole milliseconds as the node expects them.
// DurationUnbounded maps to math.MaxInt64.
func DurationMillis(d time.Duration) int64 {
	if d == DurationUnbounded {
		return math.MaxInt64
	}
	return d.Round(time.Millisecond).Milliseconds()
}

// MillisDuration is the inverse of DurationMillis. Values too large for a
// time.Duration become DurationUnbounded.
func MillisDuration(ms int64) time.Duration {
	if ms > math.MaxInt64/int64(time.Millisecond) {
		return DurationUnbounded
	}
	return time.Duration(ms) * time.Millisecond
}

// TrackExtension carries the metadata extended sources (Spotify, Apple Music,
// Deezer, ...) attach to a track on top of the base schema.
type TrackExtension struct {
	AlbumName        string
	AlbumURL         string
	ArtistURL        string
	ArtistArtworkURL string
	PreviewURL       string
	IsPreview        bool
}

// IsZero reports whether no extension field is set.
func (e TrackExtension) IsZero() bool {
	return e == TrackExtension{}
}

// Track describes a playable track as known by the node.
//
// A Track must not be copied after first use: it owns the memoized canonical
// form. Pass it by pointer.
type Track struct {
	Title         string
	Author        string
	Duration      time.Duration
	Identifier    string
	IsSeekable    bool
	IsLiveStream  bool
	URI           string
	ArtworkURI    string
	ISRC          string
	SourceName    string
	ProbeInfo     string
	StartPosition time.Duration

	// Extension holds the known extended-source keys.
	Extension TrackExtension

	// AdditionalInformation keeps plugin fields that have no typed home yet.
	AdditionalInformation map[string]any

	canonical canonicalCell
}

// CanonicalForm returns the memoized default-version canonical form.
func (t *Track) CanonicalForm() (string, bool) {
	if v := t.canonical.value.Load(); v != nil {
		return *v, true
	}
	return "", false
}

// SetCanonicalForm stores form as the canonical form unless one is already
// present. It reports whether form was stored.
func (t *Track) SetCanonicalForm(form string) bool {
	t.canonical.mu.Lock()
	defer t.canonical.mu.Unlock()

	if t.canonical.value.Load() != nil {
		return false
	}
	t.canonical.value.Store(&form)
	return true
}

// LoadOrComputeCanonicalForm returns the memoized canonical form, computing it
// with compute on first use. Failed computations are not memoized.
func (t *Track) LoadOrComputeCanonicalForm(compute func(*Track) (string, error)) (string, error) {
	if v := t.canonical.value.Load(); v != nil {
		return *v, nil
	}

	t.canonical.mu.Lock()
	defer t.canonical.mu.Unlock()

	if v := t.canonical.value.Load(); v != nil {
		return *v, nil
	}

	form, err := compute(t)
	if err != nil {
		return "", err
	}
	t.canonical.value.Store(&form)
	return form, nil
}

// canonicalCell is a write-once cache; readers never take the lock.
type canonicalCell struct {
	mu    sync.Mutex
	value atomic.Pointer[string]
}

// TrackReference points at something playable: either a raw identifier the
// node still has to resolve, or a resolved Track.
type TrackReference struct {
	Identifier string
	Track      *Track
}

// NewIdentifierReference creates an unresolved reference.
func NewIdentifierReference(identifier string) TrackReference {
	return TrackReference{Identifier: identifier}
}

// NewTrackReference creates a reference to a resolved track.
func NewTrackReference(track *Track) TrackReference {
	return TrackReference{Track: track}
}

// IsResolved reports whether the reference carries a Track.
func (r TrackReference) IsResolved() bool {
	return r.Track != nil
}

// String returns a short human readable form for logs.
func (r TrackReference) String() string {
	if r.Track != nil {
		if r.Track.Title != "" {
			return r.Track.Title
		}
		return r.Track.Identifier
	}
	return r.Identifier
}

// TrackQueueItem is one entry of a guild queue.
type TrackQueueItem struct {
	Reference TrackReference
}

// NewQueueItem wraps a reference.
func NewQueueItem(ref TrackReference) TrackQueueItem {
	return TrackQueueItem{Reference: ref}
}
