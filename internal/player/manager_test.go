package player

import (
	"context"
	"errors"
	"testing"

	"github.com/genricoloni/lavaqueue/internal/domain"
	"github.com/genricoloni/lavaqueue/internal/domain/mocks"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

const botUser = "bot-user"

func newTestManager(t *testing.T) (*Manager, *mocks.MockNodeAPIClient, *mocks.MockVoiceGateway) {
	t.Helper()
	ctrl := gomock.NewController(t)

	api := mocks.NewMockNodeAPIClient(ctrl)
	sessions := mocks.NewMockSessionProvider(ctrl)
	voice := mocks.NewMockVoiceGateway(ctrl)

	sessions.EXPECT().GetSession(gomock.Any(), gomock.Any()).
		Return(domain.PlayerSession{API: api, SessionID: testSession}, nil).AnyTimes()
	voice.EXPECT().CurrentUserID().Return(botUser).AnyTimes()

	m := NewManager(zap.NewNop(), sessions, voice, Options{}, true)
	t.Cleanup(func() {
		for _, p := range m.Players() {
			p.stop()
		}
	})
	return m, api, voice
}

func TestManagerGetOrCreate(t *testing.T) {
	m, _, _ := newTestManager(t)

	first, err := m.GetOrCreate(testGuild)
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	second, _ := m.GetOrCreate(testGuild)
	if first != second {
		t.Error("GetOrCreate() returned a new player for the same guild")
	}
	if p, ok := m.Get(testGuild); !ok || p != first {
		t.Error("Get() did not return the created player")
	}
	if _, ok := m.Get("other"); ok {
		t.Error("Get() found a player that was never created")
	}
}

func TestManagerJoinAssemblesVoiceCredentials(t *testing.T) {
	m, api, voice := newTestManager(t)
	ctx := context.Background()

	voice.EXPECT().SendVoiceUpdate(gomock.Any(), testGuild, "channel-1", true, false).Return(nil)

	var got domain.VoiceState
	api.EXPECT().UpdatePlayer(gomock.Any(), testSession, testGuild, gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, patch domain.UpdatePatch) (*domain.PlayerState, error) {
			got, _ = patch.VoiceState.Get()
			return &domain.PlayerState{VoiceState: got}, nil
		})

	if _, err := m.Join(ctx, testGuild, "channel-1"); err != nil {
		t.Fatalf("Join() error = %v", err)
	}

	// Another user's state is ignored.
	if err := m.HandleVoiceStateUpdate(ctx, domain.VoiceStateUpdate{GuildID: testGuild, UserID: "someone", ChannelID: "channel-1", SessionID: "nope"}); err != nil {
		t.Fatalf("HandleVoiceStateUpdate() error = %v", err)
	}
	// Half the credentials: nothing is sent yet.
	if err := m.HandleVoiceServerUpdate(ctx, domain.VoiceServerUpdate{GuildID: testGuild, Token: "tok", Endpoint: "voice.example:443"}); err != nil {
		t.Fatalf("HandleVoiceServerUpdate() error = %v", err)
	}
	if err := m.HandleVoiceStateUpdate(ctx, domain.VoiceStateUpdate{GuildID: testGuild, UserID: botUser, ChannelID: "channel-1", SessionID: "voice-session"}); err != nil {
		t.Fatalf("HandleVoiceStateUpdate() error = %v", err)
	}

	want := domain.VoiceState{Token: "tok", Endpoint: "voice.example:443", SessionID: "voice-session"}
	if got != want {
		t.Errorf("voice state = %+v, want %+v", got, want)
	}
}

func TestManagerLeaveDestroysPlayer(t *testing.T) {
	m, api, voice := newTestManager(t)
	ctx := context.Background()

	p, _ := m.GetOrCreate(testGuild)
	api.EXPECT().UpdatePlayer(gomock.Any(), testSession, testGuild, gomock.Any()).Return(&domain.PlayerState{}, nil)
	if err := p.Pause(ctx); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}

	voice.EXPECT().SendVoiceUpdate(gomock.Any(), testGuild, "", true, false).Return(nil)
	api.EXPECT().DestroyPlayer(gomock.Any(), testSession, testGuild).Return(nil)

	if err := m.Leave(ctx, testGuild); err != nil {
		t.Fatalf("Leave() error = %v", err)
	}
	if _, ok := m.Get(testGuild); ok {
		t.Error("player still registered after Leave()")
	}
	if err := p.Pause(ctx); !errors.Is(err, domain.ErrPlayerClosed) {
		t.Errorf("Pause() on destroyed player error = %v", err)
	}
}

func TestManagerOwnChannelLeaveDestroys(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	// The player never reached the node, so no DestroyPlayer call is expected.
	if _, err := m.GetOrCreate(testGuild); err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if err := m.HandleVoiceStateUpdate(ctx, domain.VoiceStateUpdate{GuildID: testGuild, UserID: botUser}); err != nil {
		t.Fatalf("HandleVoiceStateUpdate() error = %v", err)
	}
	if _, ok := m.Get(testGuild); ok {
		t.Error("player still registered after leaving the channel")
	}
}

func TestManagerDispatchUnknownGuild(t *testing.T) {
	m, _, _ := newTestManager(t)
	ev := domain.TrackStartEvent{GuildID: "nobody"}
	if err := m.Dispatch(context.Background(), ev); err != nil {
		t.Errorf("Dispatch() error = %v", err)
	}
}

func TestManagerCloseAggregatesErrors(t *testing.T) {
	m, api, _ := newTestManager(t)
	ctx := context.Background()

	for _, id := range []string{"g1", "g2"} {
		p, _ := m.GetOrCreate(id)
		api.EXPECT().UpdatePlayer(gomock.Any(), testSession, id, gomock.Any()).Return(&domain.PlayerState{}, nil)
		if err := p.Pause(ctx); err != nil {
			t.Fatalf("Pause() error = %v", err)
		}
	}
	api.EXPECT().DestroyPlayer(gomock.Any(), testSession, "g1").Return(errors.New("boom"))
	api.EXPECT().DestroyPlayer(gomock.Any(), testSession, "g2").Return(nil)

	if err := m.Close(ctx); err == nil {
		t.Error("Close() error = nil, want aggregated error")
	}
	if _, err := m.GetOrCreate("g3"); !errors.Is(err, domain.ErrPlayerClosed) {
		t.Errorf("GetOrCreate() after Close error = %v", err)
	}
}

func TestManagerListeners(t *testing.T) {
	m, _, voice := newTestManager(t)
	ctx := context.Background()

	if users, err := m.Listeners(testGuild); err != nil || users != nil {
		t.Errorf("Listeners() before joining = %v, %v", users, err)
	}

	if err := m.HandleVoiceStateUpdate(ctx, domain.VoiceStateUpdate{GuildID: testGuild, UserID: botUser, ChannelID: "channel-1", SessionID: "s"}); err != nil {
		t.Fatalf("HandleVoiceStateUpdate() error = %v", err)
	}
	voice.EXPECT().ChannelUsers(testGuild, "channel-1").Return([]string{"alice", "bob"}, nil)

	users, err := m.Listeners(testGuild)
	if err != nil {
		t.Fatalf("Listeners() error = %v", err)
	}
	if len(users) != 2 || users[0] != "alice" {
		t.Errorf("Listeners() = %v", users)
	}
}

func TestManagerReconcile(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	kept, _ := m.GetOrCreate("g1")
	lost, _ := m.GetOrCreate("g2")
	if _, err := lost.Enqueue(ctx, ref("a")); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if err := lost.Sync(ctx, &domain.PlayerState{CurrentTrack: sampleTrack("old"), Volume: 1}); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	playing := sampleTrack("x")
	states := []*domain.PlayerState{
		{GuildID: "g1", CurrentTrack: playing, IsPaused: true, Volume: 0.5},
		{GuildID: "stranger", Volume: 1},
	}
	if err := m.Reconcile(ctx, states); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	st, _ := kept.State(ctx)
	if st.CurrentTrack != playing || !st.IsPaused || st.Volume != 0.5 {
		t.Errorf("g1 state = %+v, want node state", st)
	}
	if st := currentTrack(t, lost); st != nil {
		t.Errorf("g2 CurrentTrack = %v, want nil after the node lost it", st.Identifier)
	}
	if ids := queueIDs(t, lost); len(ids) != 1 || ids[0] != ref("a").String() {
		t.Errorf("g2 queue = %v, want kept", ids)
	}
	if _, ok := m.Get("stranger"); ok {
		t.Error("Reconcile() created a player for an unknown guild")
	}
}
