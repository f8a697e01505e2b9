package metadata

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"xp3/internal/logger"
)

// ImageStore persists fetched artwork at a path.
type ImageStore interface {
	Save(path string, data []byte) error
}

// ArtResolver keeps one cover image per artist and album (or song, for
// records without an album) in a directory.
type ArtResolver struct {
	dir    string
	source ArtworkSource
	store  ImageStore
	logger *logger.Logger
}

// NewArtResolver creates an ArtResolver storing images under dir.
func NewArtResolver(dir string, source ArtworkSource, store ImageStore, log *logger.Logger) *ArtResolver {
	return &ArtResolver{dir: dir, source: source, store: store, logger: log}
}

// ArtPath returns <dir>/<artist> - <album or song>.png.
func (a *ArtResolver) ArtPath(artist, song, album string) string {
	name := album
	if name == "" {
		name = song
	}
	file := safeName(artist) + titleSeparator + safeName(name) + ".png"
	return filepath.Join(a.dir, file)
}

func safeName(s string) string {
	return illegalChars.ReplaceAllString(strings.TrimSpace(s), "_")
}

// Ensure makes sure rec has cover art on disk. An existing image is reused
// unless force is set. Fetch failures only mean the record gets no art;
// the returned error is the context's.
func (a *ArtResolver) Ensure(ctx context.Context, rec *Record, force bool) error {
	if rec.Artist == "" || (rec.Album == "" && rec.Song == "") {
		return nil
	}
	path := a.ArtPath(rec.Artist, rec.Song, rec.Album)

	if !force && fileExists(path) {
		rec.ArtPath = path
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if data := a.fetch(ctx, rec); len(data) > 0 {
		if err := a.store.Save(path, data); err != nil {
			a.logger.Warn("Failed to save artwork for %s: %v", rec.Title(), err)
		}
	}

	if fileExists(path) {
		rec.ArtPath = path
	}
	return ctx.Err()
}

func (a *ArtResolver) fetch(ctx context.Context, rec *Record) []byte {
	if rec.ReleaseGroupID != "" {
		data, err := a.source.ByReleaseGroup(ctx, rec.ReleaseGroupID)
		if err != nil {
			a.logger.Debug("  Artwork by release group %s failed: %v", rec.ReleaseGroupID, err)
		}
		if len(data) > 0 {
			return data
		}
	}

	name := rec.Album
	if name == "" {
		name = rec.Song
	}
	data, err := a.source.ByText(ctx, rec.Artist, name)
	if err != nil {
		a.logger.Debug("  Artwork search for %q by %q failed: %v", name, rec.Artist, err)
		return nil
	}
	if len(data) == 0 {
		a.logger.Debug("  No artwork found for %q by %q", name, rec.Artist)
	}
	return data
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
