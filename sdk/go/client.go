package sdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Option configures the Client.
type Option func(*Client)

// Client provides typed access to the LearnLedger HTTP + WebSocket API.
type Client struct {
	baseURL    string
	wsURL      string
	httpClient *http.Client
	headers    http.Header
}

// NewClient constructs a new SDK client targeting the given baseURL (e.g., http://localhost:8080/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	c := &Client{
		baseURL:    baseURL,
		wsURL:      deriveWSURL(baseURL),
		httpClient: http.DefaultClient,
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithAuthToken adds an Authorization: Bearer token header to all requests (HTTP + WS).
func WithAuthToken(token string) Option {
	return func(c *Client) {
		if strings.TrimSpace(token) != "" {
			c.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithAPIKey adds an X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if strings.TrimSpace(key) != "" {
			c.headers.Set("X-API-Key", key)
		}
	}
}

// WithHeader sets an arbitrary header applied to HTTP and WS calls.
func WithHeader(k, v string) Option {
	return func(c *Client) {
		if k != "" {
			c.headers.Set(k, v)
		}
	}
}

// RecordOption adjusts a single RecordEvent call.
type RecordOption func(url.Values)

// WithPoints overrides the configured base award for the event.
func WithPoints(amount int64) RecordOption {
	return func(q url.Values) { q.Set("points", fmt.Sprintf("%d", amount)) }
}

// WithReason sets a human-readable description on the transaction.
func WithReason(reason string) RecordOption {
	return func(q url.Values) { q.Set("reason", reason) }
}

// WithTags attaches structured tags to the transaction.
func WithTags(tags ...string) RecordOption {
	return func(q url.Values) { q.Set("tags", strings.Join(tags, ",")) }
}

// RecordEvent records a platform event for a learner and returns the
// transaction, updated aggregate, and any unlocks it produced.
func (c *Client) RecordEvent(ctx context.Context, learnerID string, category string, opts ...RecordOption) (RecordResult, error) {
	if strings.TrimSpace(learnerID) == "" {
		return RecordResult{}, ErrEmptyLearnerID
	}
	if strings.TrimSpace(category) == "" {
		return RecordResult{}, errors.New("category is required")
	}

	u, err := url.Parse(fmt.Sprintf("%s/learners/%s/events", c.baseURL, url.PathEscape(learnerID)))
	if err != nil {
		return RecordResult{}, err
	}
	q := u.Query()
	q.Set("category", category)
	for _, opt := range opts {
		opt(q)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	if err != nil {
		return RecordResult{}, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return RecordResult{}, err
	}
	defer resp.Body.Close()

	var res RecordResult
	if err := decodeJSON(resp, &res); err != nil {
		return RecordResult{}, err
	}
	return res, nil
}

// GetLearner fetches the learner's current aggregate state.
func (c *Client) GetLearner(ctx context.Context, learnerID string) (LearnerState, error) {
	if strings.TrimSpace(learnerID) == "" {
		return LearnerState{}, ErrEmptyLearnerID
	}
	var st LearnerState
	if err := c.getJSON(ctx, fmt.Sprintf("%s/learners/%s", c.baseURL, url.PathEscape(learnerID)), &st); err != nil {
		return LearnerState{}, err
	}
	return st, nil
}

// GetHistory fetches the learner's transaction log, newest first.
func (c *Client) GetHistory(ctx context.Context, learnerID string) ([]Transaction, error) {
	if strings.TrimSpace(learnerID) == "" {
		return nil, ErrEmptyLearnerID
	}
	var body struct {
		Transactions []Transaction `json:"transactions"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("%s/learners/%s/history", c.baseURL, url.PathEscape(learnerID)), &body); err != nil {
		return nil, err
	}
	return body.Transactions, nil
}

// GetAchievements fetches the learner's unlock-state map keyed by achievement id.
func (c *Client) GetAchievements(ctx context.Context, learnerID string) (map[string]AchievementState, error) {
	if strings.TrimSpace(learnerID) == "" {
		return nil, ErrEmptyLearnerID
	}
	var body struct {
		Achievements map[string]AchievementState `json:"achievements"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("%s/learners/%s/achievements", c.baseURL, url.PathEscape(learnerID)), &body); err != nil {
		return nil, err
	}
	return body.Achievements, nil
}

// GetRewards fetches every reward minted for the learner.
func (c *Client) GetRewards(ctx context.Context, learnerID string) ([]Reward, error) {
	if strings.TrimSpace(learnerID) == "" {
		return nil, ErrEmptyLearnerID
	}
	var body struct {
		Rewards []Reward `json:"rewards"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("%s/learners/%s/rewards", c.baseURL, url.PathEscape(learnerID)), &body); err != nil {
		return nil, err
	}
	return body.Rewards, nil
}

// Leaderboard fetches the top-n ranked learners.
func (c *Client) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	u := fmt.Sprintf("%s/leaderboard", c.baseURL)
	if limit > 0 {
		u = fmt.Sprintf("%s?limit=%d", u, limit)
	}
	var body struct {
		Entries []LeaderboardEntry `json:"entries"`
	}
	if err := c.getJSON(ctx, u, &body); err != nil {
		return nil, err
	}
	return body.Entries, nil
}

// Health probes /healthz and returns status + storage check.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var hs HealthStatus
	if err := c.getJSON(ctx, c.baseURL+"/healthz", &hs); err != nil {
		return HealthStatus{}, err
	}
	return hs, nil
}

// SubscribeEvents connects to the WebSocket stream and emits Event values.
// The returned channel closes when ctx is done or the connection drops.
func (c *Client) SubscribeEvents(ctx context.Context) (<-chan Event, error) {
	if c.wsURL == "" {
		return nil, errors.New("wsURL is not set; ensure baseURL is http/https")
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, c.wsURL, c.headers)
	if err != nil {
		return nil, err
	}

	out := make(chan Event, 32)
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				return
			default:
				var evt Event
				if err := conn.ReadJSON(&evt); err != nil {
					return
				}
				select {
				case out <- evt:
				default:
					// drop if consumer is slow
				}
			}
		}
	}()
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, u string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeJSON(resp, target)
}

func (c *Client) applyHeaders(r *http.Request) {
	for k, vals := range c.headers {
		for _, v := range vals {
			r.Header.Add(k, v)
		}
	}
}

func deriveWSURL(httpBase string) string {
	u, err := url.Parse(httpBase)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		// leave as-is for custom schemes
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String()
}
