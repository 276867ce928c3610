package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/genricoloni/lavaqueue/internal/domain"
	"go.uber.org/zap"
)

const goldenTrack = "QAAAMwMABXZpZGVvAAZhdXRob3IAAAAAAAAnEAAFdmlkZW8AAAAAAAZtYW51YWwAAAAAAAAnEA=="

const trackJSON = `{"encoded":"` + goldenTrack + `","info":{"identifier":"video","isSeekable":true,"author":"author","length":10000,"isStream":false,"position":10000,"title":"video","uri":null,"artworkUrl":null,"isrc":null,"sourceName":"manual"},"pluginInfo":{},"userData":{}}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := New(Options{BaseURL: server.URL, Passphrase: "secret"}, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestValidatePassphrase(t *testing.T) {
	tests := []struct {
		name       string
		passphrase string
		wantErr    bool
	}{
		{"Default", DefaultPassphrase, false},
		{"Symbols", "a-b_c.d~e!#$&'()*+,/:;=?@[] ", false},
		{"Empty", "", false},
		{"Non ASCII", "pässword", true},
		{"Newline", "pass\nword", true},
		{"Quote", `pass"word`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassphrase(tt.passphrase)
			var cfgErr *domain.ConfigurationError
			if tt.wantErr != errors.As(err, &cfgErr) {
				t.Errorf("ValidatePassphrase(%q) error = %v, wantErr %v", tt.passphrase, err, tt.wantErr)
			}
		})
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	if _, err := New(Options{BaseURL: "http://node:2333", Passphrase: "bad\x00"}, zap.NewNop()); err == nil {
		t.Error("New() accepted an invalid passphrase")
	}
	if _, err := New(Options{BaseURL: "node:2333"}, zap.NewNop()); err == nil {
		t.Error("New() accepted a URL without scheme")
	}
}

func TestUpdatePlayer(t *testing.T) {
	bodies := make(chan map[string]any, 1)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/v4/sessions/s1/players/g1" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if r.URL.Query().Get("noReplace") != "true" {
			t.Errorf("noReplace = %q", r.URL.Query().Get("noReplace"))
		}
		if r.Header.Get("Authorization") != "secret" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		body, _ := io.ReadAll(r.Body)
		var decoded map[string]any
		if err := json.Unmarshal(body, &decoded); err != nil {
			t.Errorf("body %s: %v", body, err)
		}
		bodies <- decoded

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"guildId":"g1","track":`+trackJSON+`,"volume":50,"paused":false,"state":{"time":0,"position":0,"connected":true,"ping":5},"voice":{"token":"t","endpoint":"e","sessionId":"s"},"filters":{}}`)
	})

	state, err := c.UpdatePlayer(context.Background(), "s1", "g1", domain.UpdatePatch{
		Identifier: domain.Set("ytsearch:song"),
		NoReplace:  true,
	})
	if err != nil {
		t.Fatalf("UpdatePlayer() error = %v", err)
	}

	gotBody := <-bodies
	if len(gotBody) != 1 || gotBody["identifier"] != "ytsearch:song" {
		t.Errorf("body = %v, want only identifier", gotBody)
	}
	if state.CurrentTrack == nil || state.CurrentTrack.Identifier != "video" {
		t.Errorf("CurrentTrack = %+v", state.CurrentTrack)
	}
	if state.Volume != 0.5 || state.VoiceState.Token != "t" || !state.Progress.Connected {
		t.Errorf("state = %+v", state)
	}
}

func TestUpdatePlayerStopSendsNull(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"encodedTrack":null}` {
			t.Errorf("body = %s", body)
		}
		io.WriteString(w, `{"guildId":"g1","track":null,"volume":100}`)
	})

	state, err := c.UpdatePlayer(context.Background(), "s1", "g1", domain.UpdatePatch{TrackData: domain.Set[*string](nil)})
	if err != nil {
		t.Fatalf("UpdatePlayer() error = %v", err)
	}
	if state.CurrentTrack != nil {
		t.Error("CurrentTrack should be none")
	}
}

func TestRemoteRejection(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantReason  string
		wantMessage string
	}{
		{
			name:        "Node error body",
			status:      http.StatusNotFound,
			body:        `{"timestamp":1667857581613,"status":404,"error":"Not Found","message":"Session not found","path":"/v4/sessions/s1/players/g1"}`,
			wantReason:  "Not Found",
			wantMessage: "Session not found",
		},
		{
			name:        "Plain text",
			status:      http.StatusUnauthorized,
			body:        "Unauthorized",
			wantReason:  "Unauthorized",
			wantMessage: "Unauthorized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			_, err := c.UpdatePlayer(context.Background(), "s1", "g1", domain.UpdatePatch{Paused: domain.Set(true)})
			var rej *domain.RemoteRejectionError
			if !errors.As(err, &rej) {
				t.Fatalf("error = %v, want RemoteRejectionError", err)
			}
			if rej.Status != tt.status || rej.Reason != tt.wantReason || rej.Message != tt.wantMessage {
				t.Errorf("rejection = %+v", rej)
			}
			if rej.Path != "/v4/sessions/s1/players/g1" {
				t.Errorf("path = %q", rej.Path)
			}
		})
	}
}

func TestDestroyPlayer(t *testing.T) {
	var called atomic.Bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called.Store(r.Method == http.MethodDelete && r.URL.Path == "/v4/sessions/s1/players/g1")
		w.WriteHeader(http.StatusNoContent)
	})

	if err := c.DestroyPlayer(context.Background(), "s1", "g1"); err != nil {
		t.Fatalf("DestroyPlayer() error = %v", err)
	}
	if !called.Load() {
		t.Error("DELETE not received")
	}
}

func TestLoadTracks(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v4/loadtracks" || r.URL.Query().Get("identifier") != "ytsearch:never gonna" {
			t.Errorf("request = %s", r.URL)
		}
		io.WriteString(w, `{"loadType":"search","data":[`+trackJSON+`]}`)
	})

	result, err := c.LoadTracks(context.Background(), "ytsearch:never gonna")
	if err != nil {
		t.Fatalf("LoadTracks() error = %v", err)
	}
	if result.Type != domain.LoadResultSearch || len(result.Tracks) != 1 {
		t.Errorf("result = %+v", result)
	}
	if form, _ := result.Tracks[0].CanonicalForm(); form != goldenTrack {
		t.Errorf("canonical form = %q", form)
	}
}

func TestDecodeTrack(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("encodedTrack") != goldenTrack {
			t.Errorf("encodedTrack = %q", r.URL.Query().Get("encodedTrack"))
		}
		io.WriteString(w, trackJSON)
	})

	track, err := c.DecodeTrack(context.Background(), goldenTrack)
	if err != nil {
		t.Fatalf("DecodeTrack() error = %v", err)
	}
	if track.Title != "video" {
		t.Errorf("Title = %q", track.Title)
	}
}

func TestDecodeTracks(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v4/decodetracks" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `["`+goldenTrack+`","`+goldenTrack+`"]` {
			t.Errorf("body = %s", body)
		}
		io.WriteString(w, "["+trackJSON+","+trackJSON+"]")
	})

	tracks, err := c.DecodeTracks(context.Background(), []string{goldenTrack, goldenTrack})
	if err != nil {
		t.Fatalf("DecodeTracks() error = %v", err)
	}
	if len(tracks) != 2 || tracks[1].Identifier != "video" {
		t.Errorf("tracks = %+v", tracks)
	}
}

func TestGetPlayers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v4/sessions/s1/players" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		io.WriteString(w, `[`+
			`{"guildId":"g1","track":`+trackJSON+`,"volume":100,"paused":true,"state":{"time":1000,"position":2500,"connected":true,"ping":5},"voice":{"token":"t","endpoint":"e","sessionId":"s"},"filters":{}},`+
			`{"guildId":"g2","track":null,"volume":20,"paused":false,"state":{"time":0,"position":0,"connected":false,"ping":-1},"voice":{"token":"","endpoint":"","sessionId":""},"filters":{}}`+
			`]`)
	})

	states, err := c.GetPlayers(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GetPlayers() error = %v", err)
	}
	if len(states) != 2 {
		t.Fatalf("len(states) = %d, want 2", len(states))
	}
	if st := states[0]; st.GuildID != "g1" || !st.IsPaused || st.CurrentTrack == nil || st.Progress.Position != 2500*time.Millisecond {
		t.Errorf("states[0] = %+v", st)
	}
	if st := states[1]; st.GuildID != "g2" || st.CurrentTrack != nil || st.Volume != 0.2 {
		t.Errorf("states[1] = %+v", st)
	}
}

func TestUpdateSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if r.Method != http.MethodPatch || r.URL.Path != "/v4/sessions/s1" || string(body) != `{"resuming":true,"timeout":60}` {
			t.Errorf("request = %s %s %s", r.Method, r.URL.Path, body)
		}
		io.WriteString(w, `{"resuming":true,"timeout":60}`)
	})

	s, err := c.UpdateSession(context.Background(), "s1", true, time.Minute)
	if err != nil || !s.Resuming || s.Timeout != 60 {
		t.Errorf("UpdateSession() = %+v, %v", s, err)
	}
}

func TestConfigureResumingWrapsRejection(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"timestamp":1,"status":404,"error":"Not Found","message":"Session not found","path":"/v4/sessions/gone"}`)
	})

	err := c.ConfigureResuming(context.Background(), "gone", time.Minute)
	var rejection *domain.RemoteRejectionError
	if !errors.As(err, &rejection) || rejection.Status != http.StatusNotFound {
		t.Errorf("ConfigureResuming() error = %v, want RemoteRejectionError 404", err)
	}
}

func TestVersionAndStats(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/version":
			io.WriteString(w, "4.0.8\n")
		case "/v4/stats":
			io.WriteString(w, `{"players":3,"playingPlayers":1,"uptime":60000,"memory":{},"cpu":{"cores":8},"frameStats":null}`)
		default:
			http.NotFound(w, r)
		}
	})

	v, err := c.Version(context.Background())
	if err != nil || v != "4.0.8" {
		t.Errorf("Version() = %q, %v", v, err)
	}
	stats, err := c.Stats(context.Background())
	if err != nil || stats.Players != 3 || stats.Uptime != time.Minute || stats.Frames != nil {
		t.Errorf("Stats() = %+v, %v", stats, err)
	}
}

func TestRateLimiterHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "4.0.8")
	}))
	defer server.Close()

	c, err := New(Options{BaseURL: server.URL, RequestsPerSecond: 0.001, Burst: 1}, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := c.Version(context.Background()); err != nil {
		t.Fatalf("first Version() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.Version(ctx); err == nil {
		t.Error("second Version() should wait for the limiter and fail on the deadline")
	}
}
