package discord

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/genricoloni/lavaqueue/internal/domain"
	"go.uber.org/zap"
)

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()

	state := discordgo.NewState()
	state.User = &discordgo.User{ID: "bot"}
	err := state.GuildAdd(&discordgo.Guild{
		ID: "g1",
		VoiceStates: []*discordgo.VoiceState{
			{GuildID: "g1", ChannelID: "c1", UserID: "bot"},
			{GuildID: "g1", ChannelID: "c1", UserID: "alice"},
			{GuildID: "g1", ChannelID: "c2", UserID: "bob"},
			{GuildID: "g1", ChannelID: "c1", UserID: "carol"},
		},
	})
	if err != nil {
		t.Fatalf("GuildAdd() error = %v", err)
	}

	return NewFromSession(&discordgo.Session{State: state}, zap.NewNop())
}

func TestChannelUsers(t *testing.T) {
	g := newTestGateway(t)

	tests := []struct {
		name    string
		guild   string
		channel string
		want    []string
		wantErr bool
	}{
		{name: "excludes self", guild: "g1", channel: "c1", want: []string{"alice", "carol"}},
		{name: "other channel", guild: "g1", channel: "c2", want: []string{"bob"}},
		{name: "empty channel", guild: "g1", channel: "c3", want: nil},
		{name: "unknown guild", guild: "g2", channel: "c1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.ChannelUsers(tt.guild, tt.channel)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ChannelUsers() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("ChannelUsers() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCurrentUserID(t *testing.T) {
	g := newTestGateway(t)
	if got := g.CurrentUserID(); got != "bot" {
		t.Errorf("CurrentUserID() = %q, want bot", got)
	}

	empty := NewFromSession(&discordgo.Session{}, zap.NewNop())
	if got := empty.CurrentUserID(); got != "" {
		t.Errorf("CurrentUserID() without state = %q", got)
	}
}

func TestVoiceUpdatesAreForwarded(t *testing.T) {
	g := newTestGateway(t)

	g.onVoiceServerUpdate(nil, &discordgo.VoiceServerUpdate{GuildID: "g1", Token: "tok", Endpoint: "ep"})
	g.onVoiceStateUpdate(nil, &discordgo.VoiceStateUpdate{
		VoiceState: &discordgo.VoiceState{GuildID: "g1", UserID: "bot", ChannelID: "c1", SessionID: "sess"},
	})
	g.onVoiceStateUpdate(nil, &discordgo.VoiceStateUpdate{})

	server := <-g.VoiceServerUpdates()
	if server != (domain.VoiceServerUpdate{GuildID: "g1", Token: "tok", Endpoint: "ep"}) {
		t.Errorf("server update = %#v", server)
	}
	state := <-g.VoiceStateUpdates()
	if state != (domain.VoiceStateUpdate{GuildID: "g1", UserID: "bot", ChannelID: "c1", SessionID: "sess"}) {
		t.Errorf("state update = %#v", state)
	}
	if n := len(g.VoiceStateUpdates()); n != 0 {
		t.Errorf("nil voice state produced %d updates", n)
	}
}

func TestHandlersDoNotBlockAfterClose(t *testing.T) {
	g := newTestGateway(t)
	if err := g.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	for i := 0; i < _updateBuffer+1; i++ {
		g.onVoiceServerUpdate(nil, &discordgo.VoiceServerUpdate{GuildID: "g1"})
	}

	if err := g.Close(context.Background()); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestSendVoiceUpdateHonorsContext(t *testing.T) {
	g := newTestGateway(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := g.SendVoiceUpdate(ctx, "g1", "c1", true, false); !errors.Is(err, context.Canceled) {
		t.Errorf("SendVoiceUpdate() error = %v, want context.Canceled", err)
	}
}

func TestNewRequiresToken(t *testing.T) {
	_, err := New("", zap.NewNop())
	var cfgErr *domain.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("New() error = %v, want ConfigurationError", err)
	}
}
