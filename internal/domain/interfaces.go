package domain

import "context"

//go:generate mockgen -destination=mocks/mocks.go -package=mocks github.com/genricoloni/lavaqueue/internal/domain NodeAPIClient,SessionProvider,VoiceGateway,Fetcher

// NodeAPIClient is the request/response channel to the audio node.
type NodeAPIClient interface {
	// UpdatePlayer applies patch to the guild player and returns the node's
	// resulting state.
	UpdatePlayer(ctx context.Context, sessionID, guildID string, patch UpdatePatch) (*PlayerState, error)

	// DestroyPlayer removes the guild player from the node.
	DestroyPlayer(ctx context.Context, sessionID, guildID string) error
}

// SessionProvider hands out node sessions for guild players.
type SessionProvider interface {
	// GetSession blocks until a session is available or ctx is done.
	GetSession(ctx context.Context, guildID string) (PlayerSession, error)
}

// EventSource is a stream of node events.
type EventSource interface {
	Events() <-chan Event
}

// VoiceGateway is the chat platform's voice binding.
type VoiceGateway interface {
	CurrentUserID() string

	// ChannelUsers lists the users in a voice channel, excluding ourselves.
	ChannelUsers(guildID, channelID string) ([]string, error)

	// SendVoiceUpdate joins channelID, or leaves when channelID is empty.
	SendVoiceUpdate(ctx context.Context, guildID, channelID string, selfDeaf, selfMute bool) error

	VoiceServerUpdates() <-chan VoiceServerUpdate
	VoiceStateUpdates() <-chan VoiceStateUpdate
}

// Fetcher defines the interface for retrieving track artwork
type Fetcher interface {
	// Fetch downloads image data from a URL
	// Returns the raw image bytes or an error
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ArtworkRenderer turns artwork into a stored thumbnail.
type ArtworkRenderer interface {
	// Generate writes a thumbnail for name and returns its path.
	Generate(imgData []byte, name string) (string, error)
}
