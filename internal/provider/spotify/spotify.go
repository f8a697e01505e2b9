package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"xp3/internal/provider"
)

// Client is a Spotify Web API client used as an album cover source. It
// authenticates with the client credentials flow and implements
// metadata.ArtworkSource.
type Client struct {
	clientID     string
	clientSecret string
	userAgent    string
	httpClient   *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time

	// Overridable for testing
	tokenURL string
	apiURL   string
}

// New creates a new Spotify client.
func New(clientID, clientSecret, userAgent string, timeout time.Duration) *Client {
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		userAgent:    userAgent,
		httpClient:   &http.Client{Timeout: timeout},
		tokenURL:     "https://accounts.spotify.com/api/token",
		apiURL:       "https://api.spotify.com/v1",
	}
}

func (c *Client) Name() string { return "spotify" }

// ByReleaseGroup always misses: Spotify does not know MusicBrainz ids.
func (c *Client) ByReleaseGroup(context.Context, string) ([]byte, error) {
	return nil, nil
}

// ByText searches albums by artist and title and downloads the largest cover
// of the best match.
func (c *Client) ByText(ctx context.Context, artist, album string) ([]byte, error) {
	if artist == "" || album == "" {
		return nil, nil
	}

	token, err := c.getToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("spotify auth failed: %w", err)
	}

	q := "album:" + album + " artist:" + artist
	reqURL := fmt.Sprintf("%s/search?type=album&limit=5&q=%s", c.apiURL, url.QueryEscape(q))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.doWithRetry(req)
	if err != nil {
		return nil, fmt.Errorf("spotify search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("spotify search returned %d: %s", resp.StatusCode, body)
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode spotify response: %w", err)
	}

	artworkURL := pickArtwork(searchResp.Albums.Items, artist, album)
	if artworkURL == "" {
		return nil, nil
	}
	return provider.FetchImage(ctx, c.httpClient, artworkURL, c.userAgent)
}

// pickArtwork returns the cover of the first album credited to artist,
// preferring an exact title match.
func pickArtwork(items []albumItem, artist, album string) string {
	var fallback string
	for _, item := range items {
		if len(item.Images) == 0 || !creditedTo(item, artist) {
			continue
		}
		art := largest(item.Images)
		if strings.EqualFold(item.Name, album) {
			return art
		}
		if fallback == "" {
			fallback = art
		}
	}
	return fallback
}

func creditedTo(item albumItem, artist string) bool {
	for _, a := range item.Artists {
		if strings.EqualFold(a.Name, artist) {
			return true
		}
	}
	return false
}

func largest(images []image) string {
	best := images[0]
	for _, img := range images[1:] {
		if img.Width > best.Width {
			best = img
		}
	}
	return best.URL
}

// getToken returns a valid access token, refreshing if necessary.
func (c *Client) getToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	data := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.clientID, c.clientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token request returned %d: %s", resp.StatusCode, body)
	}

	var tokenResp tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	c.accessToken = tokenResp.AccessToken
	// Refresh a minute early so a token never expires mid-request.
	c.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn-60) * time.Second)

	return c.accessToken, nil
}

// doWithRetry executes the request, retrying once on 429 after the delay
// the server asks for.
func (c *Client) doWithRetry(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		return resp, nil
	}
	resp.Body.Close()

	retryAfter := 1
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if parsed, err := strconv.Atoi(ra); err == nil {
			retryAfter = parsed
		}
	}

	select {
	case <-req.Context().Done():
		return nil, req.Context().Err()
	case <-time.After(time.Duration(retryAfter) * time.Second):
	}
	return c.httpClient.Do(req.Clone(req.Context()))
}

// Spotify API response types

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type searchResponse struct {
	Albums struct {
		Items []albumItem `json:"items"`
	} `json:"albums"`
}

type albumItem struct {
	Name        string   `json:"name"`
	Artists     []artist `json:"artists"`
	ReleaseDate string   `json:"release_date"`
	Images      []image  `json:"images"`
}

type artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}
