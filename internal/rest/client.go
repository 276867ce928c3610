// Package rest is the HTTP client of the node's v4 REST API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/genricoloni/lavaqueue/internal/domain"
	"github.com/genricoloni/lavaqueue/internal/protocol"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultPassphrase is the node's out of the box password.
	DefaultPassphrase = "youshallnotpass"

	allowedPassphraseChars = " ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_.~!#$&'()*+,/:;=?@[]"

	_defaultTimeout = 10 * time.Second
	_maxErrorBody   = 64 << 10
)

var defaultPassphraseWarned atomic.Bool

// Options configures a Client.
type Options struct {
	BaseURL    string
	Passphrase string
	UserAgent  string
	Timeout    time.Duration

	// RequestsPerSecond limits outgoing requests; zero disables the limit.
	RequestsPerSecond float64
	Burst             int
}

// Client talks to one node. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	passphrase string
	userAgent  string
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// ValidatePassphrase rejects characters the node cannot receive in a header.
func ValidatePassphrase(passphrase string) error {
	for _, r := range passphrase {
		if !strings.ContainsRune(allowedPassphraseChars, r) {
			return &domain.ConfigurationError{
				Field:  "passphrase",
				Reason: fmt.Sprintf("contains invalid character %q; allowed characters are '%s'", r, allowedPassphraseChars),
			}
		}
	}
	return nil
}

// New creates a client for the node at opts.BaseURL.
func New(opts Options, logger *zap.Logger) (*Client, error) {
	if err := ValidatePassphrase(opts.Passphrase); err != nil {
		return nil, err
	}
	if opts.Passphrase == DefaultPassphrase && defaultPassphraseWarned.CompareAndSwap(false, true) {
		logger.Warn("The default node passphrase is in use; change it to secure the node")
	}

	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, &domain.ConfigurationError{Field: "baseURL", Reason: fmt.Sprintf("invalid URL %q", opts.BaseURL)}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = _defaultTimeout
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), max(opts.Burst, 1))
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    base,
		passphrase: opts.Passphrase,
		userAgent:  opts.UserAgent,
		limiter:    limiter,
		logger:     logger,
	}, nil
}

// BuildURL resolves path and query against the base URL.
func (c *Client) BuildURL(path string, query url.Values) string {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) request(ctx context.Context, method, path string, query url.Values, body []byte, result any) error {
	raw, err := c.requestRaw(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if result == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) requestRaw(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	fullURL := c.BuildURL(path, query)

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.passphrase)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debug("Node request", zap.String("method", method), zap.String("url", fullURL))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, rejection(resp, data)
	}
	return data, nil
}

func rejection(resp *http.Response, data []byte) error {
	rej := &domain.RemoteRejectionError{
		Status: resp.StatusCode,
		Reason: http.StatusText(resp.StatusCode),
		Path:   resp.Request.URL.Path,
	}

	var body protocol.ErrorResponse
	if len(data) > _maxErrorBody {
		data = data[:_maxErrorBody]
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Error != "" {
			rej.Reason = body.Error
		}
		if body.Path != "" {
			rej.Path = body.Path
		}
		rej.Message = body.Message
	} else {
		rej.Message = strings.TrimSpace(string(data))
	}
	return rej
}

// UpdatePlayer sends the set fields of patch to the guild's player.
func (c *Client) UpdatePlayer(ctx context.Context, sessionID, guildID string, patch domain.UpdatePatch) (*domain.PlayerState, error) {
	body, err := protocol.MarshalPatch(patch)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal patch: %w", err)
	}

	query := url.Values{"noReplace": {strconv.FormatBool(patch.NoReplace)}}

	var player protocol.Player
	if err := c.request(ctx, http.MethodPatch, playerPath(sessionID, guildID), query, body, &player); err != nil {
		return nil, err
	}
	return protocol.ToPlayerState(player)
}

// GetPlayers returns every player the node holds for the session.
func (c *Client) GetPlayers(ctx context.Context, sessionID string) ([]*domain.PlayerState, error) {
	var players []protocol.Player
	if err := c.request(ctx, http.MethodGet, "/v4/sessions/"+url.PathEscape(sessionID)+"/players", nil, nil, &players); err != nil {
		return nil, err
	}

	out := make([]*domain.PlayerState, 0, len(players))
	for _, p := range players {
		state, err := protocol.ToPlayerState(p)
		if err != nil {
			return nil, err
		}
		out = append(out, state)
	}
	return out, nil
}

// DestroyPlayer removes the guild's player from the node.
func (c *Client) DestroyPlayer(ctx context.Context, sessionID, guildID string) error {
	return c.request(ctx, http.MethodDelete, playerPath(sessionID, guildID), nil, nil, nil)
}

// UpdateSession configures resuming for the session.
func (c *Client) UpdateSession(ctx context.Context, sessionID string, resuming bool, timeout time.Duration) (*protocol.Session, error) {
	seconds := int(timeout / time.Second)
	body, err := json.Marshal(protocol.SessionUpdate{Resuming: &resuming, Timeout: &seconds})
	if err != nil {
		return nil, err
	}

	var session protocol.Session
	if err := c.request(ctx, http.MethodPatch, "/v4/sessions/"+url.PathEscape(sessionID), nil, body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// ConfigureResuming asks the node to keep sessionID alive for timeout after
// the socket drops.
func (c *Client) ConfigureResuming(ctx context.Context, sessionID string, timeout time.Duration) error {
	session, err := c.UpdateSession(ctx, sessionID, true, timeout)
	if err != nil {
		return fmt.Errorf("configure resuming: %w", err)
	}
	c.logger.Info("Session resuming enabled",
		zap.String("sessionId", sessionID),
		zap.Int("timeoutSeconds", session.Timeout))
	return nil
}

// LoadTracks resolves identifier, which may be a URL or a search such as
// "ytsearch:query".
func (c *Client) LoadTracks(ctx context.Context, identifier string) (*domain.LoadResult, error) {
	var result protocol.LoadResult
	if err := c.request(ctx, http.MethodGet, "/v4/loadtracks", url.Values{"identifier": {identifier}}, nil, &result); err != nil {
		return nil, err
	}
	return protocol.ToLoadResult(result)
}

// DecodeTrack asks the node to decode an encoded track.
func (c *Client) DecodeTrack(ctx context.Context, encoded string) (*domain.Track, error) {
	var track protocol.Track
	if err := c.request(ctx, http.MethodGet, "/v4/decodetrack", url.Values{"encodedTrack": {encoded}}, nil, &track); err != nil {
		return nil, err
	}
	return protocol.ToTrack(track)
}

// DecodeTracks decodes several tracks in one call.
func (c *Client) DecodeTracks(ctx context.Context, encoded []string) ([]*domain.Track, error) {
	body, err := json.Marshal(encoded)
	if err != nil {
		return nil, err
	}

	var tracks []protocol.Track
	if err := c.request(ctx, http.MethodPost, "/v4/decodetracks", nil, body, &tracks); err != nil {
		return nil, err
	}

	out := make([]*domain.Track, 0, len(tracks))
	for _, t := range tracks {
		track, err := protocol.ToTrack(t)
		if err != nil {
			return nil, err
		}
		out = append(out, track)
	}
	return out, nil
}

// Version returns the node version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	raw, err := c.requestRaw(ctx, http.MethodGet, "/version", nil, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

// Info returns build information of the node.
func (c *Client) Info(ctx context.Context) (*protocol.Info, error) {
	var info protocol.Info
	if err := c.request(ctx, http.MethodGet, "/v4/info", nil, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Stats returns the node's current load.
func (c *Client) Stats(ctx context.Context) (domain.StatisticsEvent, error) {
	var stats protocol.Stats
	if err := c.request(ctx, http.MethodGet, "/v4/stats", nil, nil, &stats); err != nil {
		return domain.StatisticsEvent{}, err
	}
	return protocol.ToStatistics(stats), nil
}

func playerPath(sessionID, guildID string) string {
	return "/v4/sessions/" + url.PathEscape(sessionID) + "/players/" + url.PathEscape(guildID)
}
