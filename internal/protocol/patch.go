package protocol

import (
	"encoding/json"
	"math"

	"github.com/genricoloni/lavaqueue/internal/domain"
)

// MarshalPatch encodes the set fields of patch as a player update body.
// A TrackData set to nil is sent as "encodedTrack": null.
func MarshalPatch(p domain.UpdatePatch) ([]byte, error) {
	body := make(map[string]any)

	if v, ok := p.TrackData.Get(); ok {
		body["encodedTrack"] = v
	}
	if v, ok := p.Identifier.Get(); ok {
		body["identifier"] = v
	}
	if v, ok := p.Position.Get(); ok {
		body["position"] = domain.DurationMillis(v)
	}
	if v, ok := p.EndTime.Get(); ok {
		if v == nil {
			body["endTime"] = nil
		} else {
			body["endTime"] = domain.DurationMillis(*v)
		}
	}
	if v, ok := p.Volume.Get(); ok {
		body["volume"] = int(math.Round(float64(v) * 100))
	}
	if v, ok := p.Paused.Get(); ok {
		body["paused"] = v
	}
	if v, ok := p.Filters.Get(); ok {
		body["filters"] = v
	}
	if v, ok := p.VoiceState.Get(); ok {
		body["voice"] = v
	}

	return json.Marshal(body)
}
