package musicbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"xp3/internal/logger"
	"xp3/internal/metadata"
	"xp3/internal/provider"

	"github.com/agnivade/levenshtein"
	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const (
	defaultAPIURL   = "https://musicbrainz.org/ws/2"
	defaultCoverURL = "https://coverartarchive.org"
)

// Client is a MusicBrainz Web API client. It implements metadata.Catalog
// and, through the Cover Art Archive, metadata.ArtworkSource.
type Client struct {
	httpClient  *http.Client
	apiURL      string
	coverURL    string
	userAgent   string
	snapshotDir string
	logger      *logger.Logger

	interval    time.Duration
	mu          sync.Mutex
	lastRequest time.Time
}

// New creates a new MusicBrainz client. MusicBrainz asks clients to send a
// User-Agent with a contact address.
func New(userAgent string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiURL:     defaultAPIURL,
		coverURL:   defaultCoverURL,
		userAgent:  userAgent,
		logger:     log,
		interval:   time.Second,
	}
}

// SetSnapshotDir makes the client save every recording search result as
// JSON under dir. An empty dir disables snapshots.
func (c *Client) SetSnapshotDir(dir string) {
	c.snapshotDir = dir
}

func (c *Client) Name() string { return "musicbrainz" }

// Search returns the deduplicated releases containing a recording of title
// by artist. Artists unknown under the given name are retried by artist id,
// with the requested name kept on the results.
func (c *Client) Search(ctx context.Context, artist, title string) ([]metadata.Candidate, error) {
	if artist == "" || title == "" {
		return nil, nil
	}

	resp, err := c.searchRecordings(ctx, fmt.Sprintf("artist:%q AND recording:%q", artist, title))
	if err != nil {
		return nil, err
	}

	if resp.Count == 0 {
		c.logger.Debug("  No recordings for %q by %q, searching by artist id", title, artist)
		resp, err = c.searchByArtistID(ctx, artist, title)
		if err != nil {
			return nil, err
		}
	}

	c.snapshot(artist, title, resp)
	return candidates(resp.Recordings, artist, title, c.logger), nil
}

func (c *Client) searchByArtistID(ctx context.Context, artist, title string) (*searchResponse, error) {
	var artists artistSearchResponse
	if err := c.getJSON(ctx, "artist", fmt.Sprintf("artist:%q", artist), &artists); err != nil {
		return nil, err
	}
	if len(artists.Artists) == 0 {
		return &searchResponse{}, nil
	}

	resp, err := c.searchRecordings(ctx, fmt.Sprintf("arid:%s AND recording:%q", artists.Artists[0].ID, title))
	if err != nil {
		return nil, err
	}
	for i := range resp.Recordings {
		credits := resp.Recordings[i].ArtistCredit
		if len(credits) == 0 {
			resp.Recordings[i].ArtistCredit = []artistCredit{{Artist: artistInfo{Name: artist}}}
			continue
		}
		credits[0].Artist.Name = artist
	}
	return resp, nil
}

func (c *Client) searchRecordings(ctx context.Context, query string) (*searchResponse, error) {
	var resp searchResponse
	if err := c.getJSON(ctx, "recording", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReleaseGroupID finds the release group of album by artist through a
// release search. It returns "" when no release group has that title.
func (c *Client) ReleaseGroupID(ctx context.Context, artist, album string) (string, error) {
	var resp releaseSearchResponse
	if err := c.getJSON(ctx, "release", fmt.Sprintf("artist:%q AND release:%q", artist, album), &resp); err != nil {
		return "", err
	}
	want := fold(album)
	for _, rel := range resp.Releases {
		if rel.ReleaseGroup.ID != "" && fold(rel.ReleaseGroup.Title) == want {
			return rel.ReleaseGroup.ID, nil
		}
	}
	return "", nil
}

// ByReleaseGroup downloads the 500px front cover of a release group from
// the Cover Art Archive. A group without art yields (nil, nil).
func (c *Client) ByReleaseGroup(ctx context.Context, id string) ([]byte, error) {
	reqURL := fmt.Sprintf("%s/release-group/%s/front-500", c.coverURL, url.PathEscape(id))
	return provider.FetchImage(ctx, c.httpClient, reqURL, c.userAgent)
}

// ByText looks up the release group of album and downloads its cover.
func (c *Client) ByText(ctx context.Context, artist, album string) ([]byte, error) {
	id, err := c.ReleaseGroupID(ctx, artist, album)
	if err != nil || id == "" {
		return nil, err
	}
	return c.ByReleaseGroup(ctx, id)
}

func (c *Client) getJSON(ctx context.Context, entity, query string, out interface{}) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	reqURL := fmt.Sprintf("%s/%s?query=%s&fmt=json", c.apiURL, entity, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create musicbrainz request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("  GET %s", reqURL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("musicbrainz %s search failed: %w", entity, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("musicbrainz %s search returned %d: %s", entity, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode musicbrainz response: %w", err)
	}
	return nil
}

// wait enforces MusicBrainz's 1 request/second limit. Each caller reserves
// the next free slot, so concurrent callers are spaced out too.
func (c *Client) wait(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	next := c.lastRequest.Add(c.interval)
	if next.Before(now) {
		next = now
	}
	c.lastRequest = next
	c.mu.Unlock()

	delay := time.Until(next)
	if delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func (c *Client) snapshot(artist, title string, resp *searchResponse) {
	if c.snapshotDir == "" {
		return
	}
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		c.logger.Debug("  Snapshot of %q failed: %v", title, err)
		return
	}
	if err := os.MkdirAll(c.snapshotDir, 0755); err != nil {
		c.logger.Debug("  Snapshot dir: %v", err)
		return
	}
	path := filepath.Join(c.snapshotDir, slug.Make(artist+" - "+title)+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		c.logger.Debug("  Snapshot of %q failed: %v", title, err)
		return
	}
	c.logger.Debug("  Saved response to %s", path)
}

// candidates turns recordings into one candidate per release, dropping
// recordings whose title or credited artist do not match the request.
func candidates(recordings []recording, artist, title string, log *logger.Logger) []metadata.Candidate {
	wantTitle := cleanTitle(title)
	wantArtist := fold(artist)

	var out []metadata.Candidate
	for _, rec := range recordings {
		credited := firstCredit(rec.ArtistCredit)

		if !closeEnough(cleanTitle(rec.Title), wantTitle) {
			log.Debug("  Skipping %q: title mismatch", rec.Title)
			continue
		}
		if !closeEnough(fold(credited), wantArtist) {
			log.Debug("  Skipping %q: artist mismatch (%q)", rec.Title, credited)
			continue
		}

		for _, rel := range rec.Releases {
			if rel.Title == "" {
				continue
			}
			out = append(out, metadata.Candidate{
				Album:          rel.Title,
				Year:           parseYear(rel.Date),
				Artist:         credited,
				Track:          trackNumber(rel),
				Kind:           metadata.ParseKind(rel.ReleaseGroup.PrimaryType),
				Title:          rec.Title,
				Status:         metadata.ParseStatus(rel.Status),
				ReleaseGroupID: rel.ReleaseGroup.ID,
			})
		}
	}
	return metadata.Dedupe(out)
}

func firstCredit(credits []artistCredit) string {
	if len(credits) == 0 {
		return ""
	}
	return credits[0].Artist.Name
}

// Characters ignored when comparing titles.
var titleNoise = regexp.MustCompile(`[\\/:*?"<>|'’]`)

func cleanTitle(s string) string {
	return fold(titleNoise.ReplaceAllString(s, ""))
}

// fold normalizes s for comparison: NFC, case folded, single spaces.
func fold(s string) string {
	s = cases.Fold().String(norm.NFC.String(s))
	return strings.Join(strings.Fields(s), " ")
}

// closeEnough allows one edit per ten characters, so "Papercut" matches
// only itself but longer titles survive small spelling differences.
func closeEnough(got, want string) bool {
	if got == want {
		return true
	}
	limit := len([]rune(want)) / 10
	if limit == 0 {
		return false
	}
	return levenshtein.ComputeDistance(got, want) <= limit
}

// trackNumber prefers the listed track number and falls back to the
// offset of the matched track on the first medium.
func trackNumber(rel release) int {
	if len(rel.Media) == 0 {
		return 0
	}
	m := rel.Media[0]
	if len(m.Track) > 0 {
		if n, err := strconv.Atoi(m.Track[0].Number); err == nil {
			return n
		}
	}
	return m.TrackOffset + 1
}

func parseYear(date string) int {
	if len(date) >= 4 {
		if y, err := strconv.Atoi(date[:4]); err == nil {
			return y
		}
	}
	return 0
}

// MusicBrainz API response types

type searchResponse struct {
	Count      int         `json:"count"`
	Recordings []recording `json:"recordings"`
}

type artistSearchResponse struct {
	Artists []artistInfo `json:"artists"`
}

type releaseSearchResponse struct {
	Releases []release `json:"releases"`
}

type recording struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	ArtistCredit []artistCredit `json:"artist-credit"`
	Releases     []release      `json:"releases"`
}

type artistCredit struct {
	Artist artistInfo `json:"artist"`
}

type artistInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type release struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Status       string       `json:"status,omitempty"`
	Date         string       `json:"date,omitempty"`
	ReleaseGroup releaseGroup `json:"release-group"`
	Media        []media      `json:"media,omitempty"`
}

type releaseGroup struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	PrimaryType string `json:"primary-type,omitempty"`
}

type media struct {
	TrackOffset int     `json:"track-offset"`
	Track       []track `json:"track,omitempty"`
}

type track struct {
	Number string `json:"number"`
}
