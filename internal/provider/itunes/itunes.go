package itunes

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

// Client is an iTunes Search API client used as an album cover fallback.
// It implements metadata.ArtworkSource.
type Client struct {
	httpClient *http.Client
	apiURL     string
	userAgent  string
}

// New creates a new iTunes client.
func New(userAgent string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiURL:     "https://itunes.apple.com/search",
		userAgent:  userAgent,
	}
}

func (c *Client) Name() string { return "itunes" }

// ByReleaseGroup always misses: iTunes does not know MusicBrainz ids.
func (c *Client) ByReleaseGroup(context.Context, string) ([]byte, error) {
	return nil, nil
}

// ByText searches albums by artist and title and downloads the 600px cover
// of the best match.
func (c *Client) ByText(ctx context.Context, artist, album string) ([]byte, error) {
	if artist == "" || album == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("term", artist+" "+album)
	params.Set("media", "music")
	params.Set("entity", "album")
	params.Set("limit", "5")

	reqURL := fmt.Sprintf("%s?%s", c.apiURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create itunes request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("itunes search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("itunes search returned %d: %s", resp.StatusCode, body)
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode itunes response: %w", err)
	}

	artworkURL := pickArtwork(searchResp.Results, artist, album)
	if artworkURL == "" {
		return nil, nil
	}
	return provider.FetchImage(ctx, c.httpClient, artworkURL, c.userAgent)
}

// pickArtwork returns the artwork of the first result by artist, preferring
// an exact album title. Results by other artists are never used.
func pickArtwork(items []resultItem, artist, album string) string {
	var fallback string
	for _, item := range items {
		if item.ArtworkURL100 == "" || !strings.EqualFold(item.ArtistName, artist) {
			continue
		}
		// Upgrade to 600x600 artwork
		art := strings.Replace(item.ArtworkURL100, "100x100", "600x600", 1)
		if strings.EqualFold(item.CollectionName, album) {
			return art
		}
		if fallback == "" {
			fallback = art
		}
	}
	return fallback
}

// iTunes Search API response types

type searchResponse struct {
	ResultCount int          `json:"resultCount"`
	Results     []resultItem `json:"results"`
}

type resultItem struct {
	ArtistName     string `json:"artistName"`
	CollectionName string `json:"collectionName"`
	ArtworkURL100  string `json:"artworkUrl100"`
	ReleaseDate    string `json:"releaseDate"`
}
