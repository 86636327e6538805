package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AwsThamer/ranger/internal/config"
	"github.com/AwsThamer/ranger/internal/core"
)

// RealtimeDB pushes events to a realtime database list over its REST API.
// Each push creates a child under Path whose generated key is returned.
type RealtimeDB struct {
	endpoint *url.URL
	client   *http.Client
}

// NewRealtimeDB builds the push endpoint from cfg. A nil client uses one with
// a 10s timeout.
func NewRealtimeDB(cfg config.RealtimeConfig, client *http.Client) (*RealtimeDB, error) {
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse rtdb url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("rtdb url %q must be absolute", cfg.URL)
	}

	endpoint := base.JoinPath(strings.Trim(cfg.Path, "/") + ".json")
	if cfg.Auth != "" {
		q := endpoint.Query()
		q.Set("auth", cfg.Auth)
		endpoint.RawQuery = q.Encode()
	}

	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RealtimeDB{endpoint: endpoint, client: client}, nil
}

type pushResponse struct {
	Name string `json:"name"`
}

func (r *RealtimeDB) Write(ctx context.Context, ev core.SelectionEvent) (string, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return "", fmt.Errorf("encode selection %q: %w", ev.Key, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("push selection %q: %w", ev.Key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("push selection %q: unexpected status %d: %s",
			ev.Key, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out pushResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode push response: %w", err)
	}
	return out.Name, nil
}

func (r *RealtimeDB) Kind() string { return config.SinkRealtime }

// Endpoint returns the push URL without the auth token.
func (r *RealtimeDB) Endpoint() string {
	u := *r.endpoint
	u.RawQuery = ""
	return u.String()
}
