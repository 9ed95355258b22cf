// Package streamclient resolves stream payloads from a remote server over HTTP.
package streamclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/ports"
	"github.com/tejashwikalptaru/tunecast/internal/visualizer"
)

// maxPayloadBytes bounds the size of a stream payload response.
const maxPayloadBytes = 4 << 20

// Client is a ports.StreamSource backed by GET /api/embed/{slug}/stream.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// New creates a client for the server at baseURL. httpClient may be nil.
func New(baseURL string, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, domain.NewValidationError("server_url", baseURL, "must be an absolute http(s) URL")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    httpClient,
		logger:  logger.With(slog.String("component", "stream-client")),
	}, nil
}

// BaseURL returns the server URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Resolve implements ports.StreamSource. A 404 maps to
// domain.ErrEndpointNotFound; transport failures and other non-2xx
// statuses wrap domain.ErrStreamUnavailable.
func (c *Client) Resolve(ctx context.Context, slug string) (*domain.StreamPayload, error) {
	endpoint := c.baseURL + "/api/embed/" + url.PathEscape(slug) + "/stream"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStreamUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrEndpointNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: server answered %d", domain.ErrStreamUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStreamUnavailable, err)
	}
	var payload domain.StreamPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode payload: %w", domain.ErrStreamUnavailable, err)
	}
	if payload.Tracks == nil {
		payload.Tracks = []domain.Track{}
	}

	c.logger.Debug("stream payload fetched",
		slog.String("slug", slug),
		slog.String("status", string(payload.Endpoint.Status)),
		slog.Int("tracks", len(payload.Tracks)))
	return &payload, nil
}

// Presets fetches the server's visualizer preset catalog. Entries the
// catalog does not accept are dropped, as with a local catalog file.
func (c *Client) Presets(ctx context.Context) (*visualizer.Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/visualizer/presets", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch presets: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch presets: server answered %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("fetch presets: %w", err)
	}
	catalog, err := visualizer.ParseCatalog(body)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("preset catalog fetched", slog.Int("presets", catalog.Len()))
	return catalog, nil
}

var _ ports.StreamSource = (*Client)(nil)
