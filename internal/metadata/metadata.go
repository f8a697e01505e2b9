package metadata

import (
	"context"
	"errors"
)

var (
	// ErrMissingTitle is returned when neither a title nor an artist and song
	// pair was supplied, or when both were.
	ErrMissingTitle = errors.New("either a title or an artist and song are required")

	// ErrTitleFormat is returned when a title cannot be split into a
	// non-empty artist and song around a single " - " separator.
	ErrTitleFormat = errors.New(`title must have the form "Artist - Song"`)
)

// Catalog is a music metadata service that can be searched for releases
// containing a recording.
type Catalog interface {
	Search(ctx context.Context, artist, title string) ([]Candidate, error)
}

// ArtworkSource fetches cover art. Both lookups return (nil, nil) when the
// source has no image.
type ArtworkSource interface {
	Name() string
	ByReleaseGroup(ctx context.Context, id string) ([]byte, error)
	ByText(ctx context.Context, artist, album string) ([]byte, error)
}

// Prompter is the interactive console collaborator. Ask blocks until the
// user answers; an empty answer means def.
type Prompter interface {
	Ask(prompt, def string) (string, error)
	Show(text string)
}
