package issuance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"learnledger/core"
)

// Client talks to the external chain/issuance service that mints and
// confirms reward records. It is deliberately thin: the ledger treats
// every call as best-effort, so the client does not retry.
type Client struct {
	client   *http.Client
	endpoint string
	apiKey   string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client (defaults to 2s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(s *Client) {
		if c != nil {
			s.client = c
		}
	}
}

// WithAPIKey adds an X-API-Key header to every request.
func WithAPIKey(key string) Option {
	return func(s *Client) { s.apiKey = key }
}

// New creates an issuance client for the given endpoint.
func New(endpoint string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, errors.New("issuance endpoint is required")
	}
	c := &Client{
		client:   &http.Client{Timeout: 2 * time.Second},
		endpoint: strings.TrimSuffix(endpoint, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type mintRequest struct {
	Learner core.LearnerID    `json:"learner"`
	Reward  core.RewardRecord `json:"reward"`
}

type mintResponse struct {
	ExternalRef string `json:"external_ref"`
}

// NotifyReward asks the collaborator to mint the reward on chain and
// returns the external reference it assigned.
func (c *Client) NotifyReward(ctx context.Context, learner core.LearnerID, reward core.RewardRecord) (string, error) {
	body, err := json.Marshal(mintRequest{Learner: learner, Reward: reward})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/mint", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("issuance service returned status %d", resp.StatusCode)
	}

	var out mintResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.ExternalRef == "" {
		return "", errors.New("issuance service returned empty external ref")
	}
	return out.ExternalRef, nil
}
