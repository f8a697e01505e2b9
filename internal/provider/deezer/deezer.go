package deezer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"xp3/internal/provider"
)

// Client is a Deezer API client used as an album cover fallback. It
// implements metadata.ArtworkSource.
type Client struct {
	httpClient *http.Client
	apiURL     string
	userAgent  string
}

// New creates a new Deezer client.
func New(userAgent string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiURL:     "https://api.deezer.com",
		userAgent:  userAgent,
	}
}

func (c *Client) Name() string { return "deezer" }

// ByReleaseGroup always misses: Deezer does not know MusicBrainz ids.
func (c *Client) ByReleaseGroup(context.Context, string) ([]byte, error) {
	return nil, nil
}

// ByText searches Deezer albums and downloads the largest cover of the
// first album by artist with a matching title.
func (c *Client) ByText(ctx context.Context, artist, album string) ([]byte, error) {
	q := buildQuery(artist, album)
	if q == "" {
		return nil, nil
	}

	reqURL := fmt.Sprintf("%s/search/album?q=%s&limit=5", c.apiURL, url.QueryEscape(q))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create deezer request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deezer search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("deezer search returned %d: %s", resp.StatusCode, body)
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode deezer response: %w", err)
	}

	if searchResp.Error != nil {
		return nil, fmt.Errorf("deezer API error: %s", searchResp.Error.Message)
	}

	cover := pickCover(searchResp.Data, artist, album)
	if cover == "" {
		return nil, nil
	}
	return provider.FetchImage(ctx, c.httpClient, cover, c.userAgent)
}

func buildQuery(artist, album string) string {
	if artist == "" || album == "" {
		return ""
	}
	escape := func(s string) string {
		return strings.ReplaceAll(s, "\"", "")
	}
	return "artist:\"" + escape(artist) + "\" album:\"" + escape(album) + "\""
}

func pickCover(items []albumItem, artist, album string) string {
	for _, item := range items {
		if !strings.EqualFold(item.Artist.Name, artist) || !strings.EqualFold(item.Title, album) {
			continue
		}
		if item.CoverXL != "" {
			return item.CoverXL
		}
		if item.CoverBig != "" {
			return item.CoverBig
		}
	}
	return ""
}

// Deezer API response types

type searchResponse struct {
	Data  []albumItem `json:"data"`
	Error *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type albumItem struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	CoverBig string `json:"cover_big"`
	CoverXL  string `json:"cover_xl"`
	Artist   artist `json:"artist"`
}

type artist struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
