package lyrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"
)

// Result holds what LRCLib knows about one track.
type Result struct {
	Synced string // LRC with timestamps
	Plain  string
}

// Text returns the lyrics to embed, preferring timestamped ones.
func (r Result) Text() string {
	if r.Synced != "" {
		return r.Synced
	}
	return r.Plain
}

// Client queries LRCLib.
type Client struct {
	httpClient *http.Client
	apiURL     string
	userAgent  string
	retryDelay time.Duration
}

// NewClient creates an LRCLib client identifying itself as userAgent.
func NewClient(userAgent string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiURL:     "https://lrclib.net/api/get",
		userAgent:  userAgent,
		retryDelay: 2 * time.Second,
	}
}

// Fetch looks up the lyrics of a track. A track LRCLib does not know
// yields an empty Result and no error. Network failures are retried once.
func (c *Client) Fetch(ctx context.Context, artist, title, album string) (Result, error) {
	if artist == "" || title == "" {
		return Result{}, nil
	}

	res, err := c.get(ctx, artist, title, album)
	if err == nil {
		return res, nil
	}

	var netErr net.Error
	if !errors.As(err, &netErr) || ctx.Err() != nil {
		return Result{}, err
	}

	select {
	case <-ctx.Done():
		return Result{}, err
	case <-time.After(c.retryDelay):
	}
	return c.get(ctx, artist, title, album)
}

func (c *Client) get(ctx context.Context, artist, title, album string) (Result, error) {
	params := url.Values{}
	params.Set("artist_name", artist)
	params.Set("track_name", title)
	if album != "" {
		params.Set("album_name", album)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create lrclib request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("lrclib request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return Result{}, nil
	default:
		return Result{}, fmt.Errorf("lrclib returned status %d", resp.StatusCode)
	}

	var body struct {
		Instrumental bool   `json:"instrumental"`
		SyncedLyrics string `json:"syncedLyrics"`
		PlainLyrics  string `json:"plainLyrics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Result{}, fmt.Errorf("failed to decode lrclib response: %w", err)
	}
	if body.Instrumental {
		return Result{}, nil
	}
	return Result{Synced: body.SyncedLyrics, Plain: body.PlainLyrics}, nil
}
