package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"xp3/internal/logger"

	"go.senan.xyz/taglib"
)

// Tag keys without a constant in taglib's common set.
const (
	tagReleaseGroupID = "MUSICBRAINZ_RELEASEGROUPID"
	tagLyrics         = "LYRICS"
)

// TagWriter writes records into audio files.
type TagWriter struct {
	logger *logger.Logger
}

// NewTagWriter creates a TagWriter.
func NewTagWriter(log *logger.Logger) *TagWriter {
	return &TagWriter{logger: log}
}

// Apply writes the non-empty fields of rec into the file at path, plus the
// image at rec.ArtPath when set.
func (w *TagWriter) Apply(path string, rec *Record) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot tag %s: %w", path, err)
	}

	tags := make(map[string][]string)
	set := func(key, value, field string) {
		if value == "" {
			w.logger.Debug("  %s: %s is empty, not written", filepath.Base(path), field)
			return
		}
		tags[key] = []string{value}
	}

	set(taglib.Title, rec.Song, "song")
	set(taglib.Artist, rec.Artist, "artist")
	set(taglib.AlbumArtist, rec.Artist, "album artist")
	set(taglib.Album, rec.Album, "album")
	set(taglib.Date, positive(rec.Year), "year")
	set(taglib.TrackNumber, positive(rec.Track), "track")
	set(tagReleaseGroupID, rec.ReleaseGroupID, "release group")
	if rec.Lyrics != "" {
		tags[tagLyrics] = []string{rec.Lyrics}
	}

	if err := taglib.WriteTags(path, tags, 0); err != nil {
		return fmt.Errorf("failed to write tags to %s: %w", path, err)
	}
	return w.EmbedArt(path, rec)
}

// EmbedArt writes the image at rec.ArtPath into the file at path and
// leaves the other tags alone. A record without artwork is a no-op.
func (w *TagWriter) EmbedArt(path string, rec *Record) error {
	if rec.ArtPath == "" {
		w.logger.Debug("  %s: no artwork to embed", filepath.Base(path))
		return nil
	}
	image, err := os.ReadFile(rec.ArtPath)
	if err != nil {
		return fmt.Errorf("failed to read artwork %s: %w", rec.ArtPath, err)
	}
	if err := taglib.WriteImage(path, image); err != nil {
		return fmt.Errorf("failed to write artwork to %s: %w", path, err)
	}
	return nil
}

func positive(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// TagReader reads records back from audio files.
type TagReader struct {
	logger *logger.Logger
}

// NewTagReader creates a TagReader.
func NewTagReader(log *logger.Logger) *TagReader {
	return &TagReader{logger: log}
}

// Load returns the metadata stored in the file. Files whose tags cannot be
// read yield an empty record.
func (r *TagReader) Load(path string) *Record {
	tags, err := taglib.ReadTags(path)
	if err != nil {
		r.logger.Debug("  Cannot read tags of %s: %v", path, err)
		return &Record{}
	}

	return &Record{
		Artist:         firstTag(tags, taglib.Artist),
		Song:           firstTag(tags, taglib.Title),
		Album:          firstTag(tags, taglib.Album),
		Year:           leadingInt(firstTag(tags, taglib.Date)),
		Track:          leadingInt(firstTag(tags, taglib.TrackNumber)),
		ReleaseGroupID: firstTag(tags, tagReleaseGroupID),
		Lyrics:         firstTag(tags, tagLyrics),
	}
}

// LoadFile is Load with fallbacks for untagged files: artist and song come
// from an "Artist - Song" file name, album and year from an
// "Album (Year)" parent directory.
func (r *TagReader) LoadFile(path string, p Prompter) *Record {
	rec := r.Load(path)

	if rec.Artist == "" || rec.Song == "" {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		artist, song, err := Suggest(SuggestInput{Title: name, Prompter: p})
		if err != nil {
			r.logger.Debug("  No title in file name %q: %v", name, err)
		} else if artist != "" && song != "" {
			rec.Artist, rec.Song = artist, song
		}
	}

	if rec.Album == "" || rec.Year == 0 {
		if album, year, ok := AlbumInfoFromPath(path); ok {
			if rec.Album == "" {
				rec.Album = album
			}
			if rec.Year == 0 {
				rec.Year = year
			}
		}
	}
	return rec
}

func firstTag(tags map[string][]string, key string) string {
	if vals, ok := tags[key]; ok && len(vals) > 0 {
		return strings.TrimSpace(vals[0])
	}
	return ""
}

// leadingInt parses the digits at the start of "2011-05-02" or "3/12".
func leadingInt(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, _ := strconv.Atoi(s[:end])
	return n
}
