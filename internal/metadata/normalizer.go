package metadata

import (
	"fmt"
	"regexp"
	"strings"
)

// Characters that cannot appear in file names on common filesystems.
var illegalChars = regexp.MustCompile(`[\\/:*?"<>|]`)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Parenthesized and bracketed groups, usually "(Official Video)" or "[HD]".
var bracketedGroup = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)

var dashSeparator = regexp.MustCompile(`\s?-\s?`)

// Noise left behind in video titles, removed case-sensitively in this order.
var noiseSubstrings = [...]string{"with Lyrics", "Lyrics", "720p", "1080p", "Video", "LYRICS"}

const topicSuffix = " - Topic"

// SuggestInput is the raw material for a title suggestion. Either Title or
// both Artist and Song must be set. Channel is the uploader name and is used
// as the artist when the title carries none. A nil Prompter means the
// suggestion is never shown to the user.
type SuggestInput struct {
	Title    string
	Artist   string
	Song     string
	Channel  string
	Prompter Prompter
}

// Suggest turns a noisy video title into an artist and song. Both are empty
// when no separator could be found.
func Suggest(in SuggestInput) (artist, song string, err error) {
	original, err := in.working()
	if err != nil {
		return "", "", err
	}

	suggestion := cleanTitle(original, in.Channel)

	if in.Prompter != nil && suggestion != original {
		in.Prompter.Show(fmt.Sprintf("Original:  %s\nSuggested: %s", original, suggestion))
		ok, err := confirm(in.Prompter, "Accept the suggested title?", true)
		if err != nil {
			return "", "", err
		}
		if !ok {
			manual, err := in.Prompter.Ask("Enter the title (Artist - Song)", original)
			if err != nil {
				return "", "", err
			}
			suggestion = strings.TrimSpace(manual)
		}
	}

	artist, song = splitTitle(suggestion)
	return artist, song, nil
}

func (in SuggestInput) working() (string, error) {
	hasTitle := strings.TrimSpace(in.Title) != ""
	hasPair := in.Artist != "" && in.Song != ""
	switch {
	case hasTitle && (in.Artist != "" || in.Song != ""):
		return "", fmt.Errorf("%w: got both a title and an artist/song", ErrMissingTitle)
	case hasTitle:
		return in.Title, nil
	case hasPair:
		return in.Artist + titleSeparator + in.Song, nil
	default:
		return "", ErrMissingTitle
	}
}

// cleanTitle applies the normalization steps that do not involve the user.
func cleanTitle(title, channel string) string {
	if !strings.Contains(title, "-") && strings.Contains(title, ":") {
		title = strings.ReplaceAll(title, ":", "-")
	}

	title = collapse(illegalChars.ReplaceAllString(title, ""))
	title = collapse(bracketedGroup.ReplaceAllString(title, ""))

	if strings.Contains(title, "-") {
		title = dashSeparator.ReplaceAllString(title, titleSeparator)
	} else if channel = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(channel), topicSuffix)); channel != "" {
		title = channel + titleSeparator + title
	}

	for _, noise := range noiseSubstrings {
		title = strings.ReplaceAll(title, noise, "")
	}
	return collapse(title)
}

// splitTitle splits on " - ". Extra separators stay in the song, since
// song names may contain dashes themselves.
func splitTitle(title string) (artist, song string) {
	parts := strings.Split(title, titleSeparator)
	if len(parts) < 2 {
		return "", ""
	}
	artist = strings.TrimSpace(parts[0])
	song = strings.TrimSpace(strings.Join(parts[1:], titleSeparator))
	return artist, song
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// FromTitle builds a record from a raw title.
func FromTitle(title string, p Prompter) (*Record, error) {
	return FromVideo(title, "", p)
}

// FromVideo builds a record from a video title and its uploader channel.
func FromVideo(title, channel string, p Prompter) (*Record, error) {
	artist, song, err := Suggest(SuggestInput{Title: title, Channel: channel, Prompter: p})
	if err != nil {
		return nil, err
	}
	if artist == "" || song == "" {
		return nil, fmt.Errorf("%w: cannot split %q", ErrTitleFormat, title)
	}
	return &Record{Artist: artist, Song: song}, nil
}
