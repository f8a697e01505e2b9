package metadata

import (
	"fmt"
	"strings"
)

const titleSeparator = " - "

// Record holds the metadata of one song while it is being resolved.
type Record struct {
	Artist string
	Song   string
	Album  string
	Year   int // 0 when unknown
	Track  int // 0 when unknown

	// ArtPath is only set once the image is known to exist on disk.
	ArtPath        string
	ReleaseGroupID string
	Lyrics         string
}

// Title returns "Artist - Song", or "" while either half is missing.
func (r *Record) Title() string {
	if r.Artist == "" || r.Song == "" {
		return ""
	}
	return r.Artist + titleSeparator + r.Song
}

// SetTitle splits title on its single " - " separator into artist and song.
func (r *Record) SetTitle(title string) error {
	if strings.Count(title, titleSeparator) != 1 {
		return fmt.Errorf("%w: %q", ErrTitleFormat, title)
	}
	artist, song, _ := strings.Cut(title, titleSeparator)
	artist = strings.TrimSpace(artist)
	song = strings.TrimSpace(song)
	if artist == "" || song == "" {
		return fmt.Errorf("%w: %q", ErrTitleFormat, title)
	}
	r.Artist = artist
	r.Song = song
	return nil
}

// HasFullFields reports whether album, year and track are all known.
func (r *Record) HasFullFields() bool {
	return r.Album != "" && r.Year > 0 && r.Track > 0
}

// FileName returns the audio file name for the record, "Artist - Song"
// plus ext, with characters illegal in file names replaced.
func (r *Record) FileName(ext string) string {
	return safeName(r.Artist) + titleSeparator + safeName(r.Song) + ext
}

func (r *Record) String() string {
	title := r.Title()
	if title == "" {
		title = "<untitled>"
	}
	if r.Album == "" {
		return title
	}
	return fmt.Sprintf("%s [%s (%d) #%d]", title, r.Album, r.Year, r.Track)
}

// apply copies the release fields of c into r. Artist and song are only
// replaced when full is set and the candidate carries them.
func (r *Record) apply(c Candidate, full bool) {
	r.Album = c.Album
	r.Year = c.Year
	r.Track = c.Track
	r.ReleaseGroupID = c.ReleaseGroupID
	if !full {
		return
	}
	if c.Artist != "" {
		r.Artist = c.Artist
	}
	if c.Title != "" {
		r.Song = c.Title
	}
}
