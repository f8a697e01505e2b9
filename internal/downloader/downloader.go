package downloader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"xp3/internal/logger"
)

// ErrEmptyPlaylist is returned when a playlist lists no videos.
var ErrEmptyPlaylist = errors.New("no videos found in playlist - the playlist may be empty or private")

// Entry is one video of a playlist.
type Entry struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	Uploader string `json:"uploader"`
	Channel  string `json:"channel"`
}

// Author returns the channel name, falling back to the uploader.
func (e Entry) Author() string {
	if e.Channel != "" {
		return e.Channel
	}
	return e.Uploader
}

// WatchURL returns a URL yt-dlp can download.
func (e Entry) WatchURL() string {
	if strings.HasPrefix(e.URL, "http") {
		return e.URL
	}
	return "https://www.youtube.com/watch?v=" + e.ID
}

// Job is one download request.
type Job struct {
	Index int
	URL   string
	Name  string // file name without extension
}

// Downloader runs yt-dlp to list playlists and fetch audio.
type Downloader struct {
	binary      string
	audioFormat string
	verbose     bool
	logger      *logger.Logger
}

// New creates a new Downloader producing audioFormat files.
func New(audioFormat string, verbose bool, log *logger.Logger) *Downloader {
	return &Downloader{
		binary:      "yt-dlp",
		audioFormat: audioFormat,
		verbose:     verbose,
		logger:      log,
	}
}

// ListPlaylist returns the videos of a playlist. start and end are 1-based
// and inclusive; zero means the first and last video respectively.
func (d *Downloader) ListPlaylist(ctx context.Context, url string, start, end int) ([]Entry, error) {
	d.logger.Info("=== Listing playlist ===")
	d.logger.Debug("Playlist URL: %s", url)

	cmd := exec.CommandContext(ctx, d.binary, "-J", "--flat-playlist", url)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("listing cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("yt-dlp failed to list playlist: %w\nDetails: %s", err, stderr.String())
	}

	entries, err := parsePlaylist(stdout.Bytes())
	if err != nil {
		return nil, err
	}
	entries = slicePlaylist(entries, start, end)
	if len(entries) == 0 {
		return nil, ErrEmptyPlaylist
	}

	d.logger.Info("Found %d videos", len(entries))
	return entries, nil
}

func parsePlaylist(data []byte) ([]Entry, error) {
	var doc struct {
		Entry
		Type    string  `json:"_type"`
		Entries []Entry `json:"entries"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode yt-dlp output: %w", err)
	}

	// A single video URL yields the video itself instead of a playlist.
	if doc.Type != "playlist" {
		if doc.ID == "" {
			return nil, nil
		}
		return []Entry{doc.Entry}, nil
	}

	entries := make([]Entry, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		if e.ID == "" && e.URL == "" {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func slicePlaylist(entries []Entry, start, end int) []Entry {
	if start < 1 {
		start = 1
	}
	if end <= 0 || end > len(entries) {
		end = len(entries)
	}
	if start > end {
		return nil
	}
	return entries[start-1 : end]
}

// Download fetches url as audio into outDir/name.<format> and returns the
// resulting path.
func (d *Downloader) Download(ctx context.Context, url, outDir, name string) (string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create download folder: %w", err)
	}

	cmd := exec.CommandContext(ctx, d.binary, d.downloadArgs(url, outDir, name)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if d.verbose {
		cmd.Stdout = os.Stdout
	}

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("download cancelled: %w", ctx.Err())
		}
		return "", fmt.Errorf("yt-dlp failed for %s: %w\nDetails: %s", url, err, strings.TrimSpace(stderr.String()))
	}

	path := filepath.Join(outDir, name+"."+d.audioFormat)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("yt-dlp produced no %s file for %s: %w", d.audioFormat, url, err)
	}
	return path, nil
}

func (d *Downloader) downloadArgs(url, outDir, name string) []string {
	return []string{
		"--extract-audio",
		"--audio-format", d.audioFormat,
		"-f", "bestaudio[ext=m4a]/bestaudio/best",
		"--no-playlist",
		"--retries", "10",
		"--fragment-retries", "10",
		"--no-embed-metadata",
		"--no-embed-thumbnail",
		"-o", filepath.Join(outDir, name+".%(ext)s"),
		url,
	}
}

// Stats counts the outcome of DownloadAll.
type Stats struct {
	Total      int
	Successful int
	Failed     int
}

// DownloadAll downloads jobs into outDir with at most parallel downloads in
// flight. done is called once per job, from the worker goroutine, with the
// produced path or the download error. Only cancellation or every job
// failing is reported as an error.
func (d *Downloader) DownloadAll(ctx context.Context, jobs []Job, outDir string, parallel int, done func(Job, string, error)) (Stats, error) {
	stats := Stats{Total: len(jobs)}
	if len(jobs) == 0 {
		return stats, fmt.Errorf("no URLs to download")
	}
	if parallel < 1 {
		parallel = 1
	}

	d.logger.Info("=== Starting download (%d videos, %d parallel) ===", len(jobs), parallel)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for _, job := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			d.logger.Debug("Downloading [%d/%d]: %s", job.Index+1, len(jobs), job.URL)

			path, err := d.Download(gctx, job.URL, outDir, job.Name)
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}

			mu.Lock()
			if err != nil {
				stats.Failed++
				d.logger.Debug("Download error %s: %v", job.URL, err)
			} else {
				stats.Successful++
			}
			mu.Unlock()

			if done != nil {
				done(job, path, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		d.logger.Warn("Downloads cancelled")
		return stats, fmt.Errorf("downloads cancelled: %w", err)
	}
	if ctx.Err() != nil {
		return stats, fmt.Errorf("downloads cancelled: %w", ctx.Err())
	}

	if stats.Failed > 0 {
		d.logger.Warn("%d videos not downloaded (private or unavailable)", stats.Failed)
		if stats.Failed == stats.Total {
			return stats, fmt.Errorf("all %d videos failed to download (private, unavailable, or geo-restricted)", stats.Total)
		}
	}

	d.logger.Info("Download completed: %d successful, %d failed", stats.Successful, stats.Failed)
	return stats, nil
}
