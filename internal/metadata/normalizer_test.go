package metadata

import (
	"errors"
	"fmt"
	"testing"
)

// scriptedPrompter answers prompts from a fixed list and records what it
// was asked. Running out of answers is an error so unexpected prompts fail.
type scriptedPrompter struct {
	answers []string
	asked   []string
	shown   []string
}

func (p *scriptedPrompter) Ask(prompt, def string) (string, error) {
	p.asked = append(p.asked, prompt)
	if len(p.answers) == 0 {
		return "", fmt.Errorf("unexpected prompt %q (default %q)", prompt, def)
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	return answer, nil
}

func (p *scriptedPrompter) Show(text string) { p.shown = append(p.shown, text) }

func TestSuggest(t *testing.T) {
	tests := []struct {
		name       string
		in         SuggestInput
		wantArtist string
		wantSong   string
	}{
		{
			name:       "illegal characters stripped",
			in:         SuggestInput{Title: "Linkin Park - Paper?cut"},
			wantArtist: "Linkin Park",
			wantSong:   "Papercut",
		},
		{
			name:       "colon as separator and quotes stripped",
			in:         SuggestInput{Title: `The Book Of Mormon: "I Believe"`},
			wantArtist: "The Book Of Mormon",
			wantSong:   "I Believe",
		},
		{
			name:       "channel used as artist",
			in:         SuggestInput{Title: "Six Feet Under", Channel: "Smash Into Pieces"},
			wantArtist: "Smash Into Pieces",
			wantSong:   "Six Feet Under",
		},
		{
			name:       "topic channel suffix removed",
			in:         SuggestInput{Title: "Six Feet Under", Channel: "Smash Into Pieces - Topic"},
			wantArtist: "Smash Into Pieces",
			wantSong:   "Six Feet Under",
		},
		{
			name:       "channel ignored when title has artist",
			in:         SuggestInput{Title: "Skillet - Hero", Channel: "SkilletVEVO"},
			wantArtist: "Skillet",
			wantSong:   "Hero",
		},
		{
			name:       "parenthetical and noise removed",
			in:         SuggestInput{Title: "My Chemical Romance - Dead! Lyrics 1080p (mega official video by X)"},
			wantArtist: "My Chemical Romance",
			wantSong:   "Dead!",
		},
		{
			name:       "brackets removed",
			in:         SuggestInput{Title: "Skillet - Feel Invincible (Official Video) [1080p]"},
			wantArtist: "Skillet",
			wantSong:   "Feel Invincible",
		},
		{
			name:       "tight dash normalized",
			in:         SuggestInput{Title: "Skillet-Monster"},
			wantArtist: "Skillet",
			wantSong:   "Monster",
		},
		{
			name:       "extra separators stay in song",
			in:         SuggestInput{Title: "Artist - Song - Acoustic"},
			wantArtist: "Artist",
			wantSong:   "Song - Acoustic",
		},
		{
			name:       "artist and song input",
			in:         SuggestInput{Artist: "Linkin Park", Song: "Numb (Official Video)"},
			wantArtist: "Linkin Park",
			wantSong:   "Numb",
		},
		{
			name: "no separator and no channel",
			in:   SuggestInput{Title: "Just a title"},
		},
		{
			name:       "with Lyrics removed before Lyrics",
			in:         SuggestInput{Title: "Three Days Grace - Animal I Have Become with Lyrics"},
			wantArtist: "Three Days Grace",
			wantSong:   "Animal I Have Become",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artist, song, err := Suggest(tt.in)
			if err != nil {
				t.Fatalf("Suggest() error: %v", err)
			}
			if artist != tt.wantArtist || song != tt.wantSong {
				t.Errorf("Suggest() = (%q, %q), want (%q, %q)", artist, song, tt.wantArtist, tt.wantSong)
			}
		})
	}
}

func TestSuggestInputErrors(t *testing.T) {
	tests := []struct {
		name string
		in   SuggestInput
	}{
		{"nothing", SuggestInput{}},
		{"blank title", SuggestInput{Title: "   "}},
		{"artist only", SuggestInput{Artist: "Linkin Park"}},
		{"song only", SuggestInput{Song: "Numb"}},
		{"title and pair", SuggestInput{Title: "A - B", Artist: "A", Song: "B"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Suggest(tt.in)
			if !errors.Is(err, ErrMissingTitle) {
				t.Errorf("Suggest() error = %v, want ErrMissingTitle", err)
			}
		})
	}
}

func TestSuggestIdempotent(t *testing.T) {
	titles := []string{
		"Linkin Park - Paper?cut",
		"Skillet - Feel Invincible (Official Video) [1080p]",
		"My Chemical Romance - Dead! Lyrics 1080p (mega official video by X)",
		"Smash Into Pieces - Six Feet Under [HD]",
		"Starset - My Demons Video",
	}
	for _, title := range titles {
		artist, song, err := Suggest(SuggestInput{Title: title})
		if err != nil {
			t.Fatalf("Suggest(%q) error: %v", title, err)
		}
		cleaned := artist + " - " + song

		a2, s2, err := Suggest(SuggestInput{Title: cleaned})
		if err != nil {
			t.Fatalf("Suggest(%q) error: %v", cleaned, err)
		}
		if got := a2 + " - " + s2; got != cleaned {
			t.Errorf("re-normalizing %q gave %q", cleaned, got)
		}
	}
}

func TestSuggestInteractive(t *testing.T) {
	t.Run("accept by default", func(t *testing.T) {
		p := &scriptedPrompter{answers: []string{""}}
		artist, song, err := Suggest(SuggestInput{Title: "Linkin Park - Paper?cut", Prompter: p})
		if err != nil {
			t.Fatal(err)
		}
		if artist != "Linkin Park" || song != "Papercut" {
			t.Errorf("got (%q, %q)", artist, song)
		}
		if len(p.shown) != 1 {
			t.Errorf("expected the suggestion to be shown once, got %v", p.shown)
		}
	})

	t.Run("decline and type a replacement", func(t *testing.T) {
		p := &scriptedPrompter{answers: []string{"n", "Linkin Park - Papercut (Live)"}}
		artist, song, err := Suggest(SuggestInput{Title: "Linkin Park - Paper?cut", Prompter: p})
		if err != nil {
			t.Fatal(err)
		}
		if artist != "Linkin Park" || song != "Papercut (Live)" {
			t.Errorf("got (%q, %q)", artist, song)
		}
	})

	t.Run("unrecognized answer asks again", func(t *testing.T) {
		p := &scriptedPrompter{answers: []string{"maybe", "yes"}}
		if _, _, err := Suggest(SuggestInput{Title: "Skillet-Hero", Prompter: p}); err != nil {
			t.Fatal(err)
		}
		if len(p.asked) != 2 {
			t.Errorf("expected 2 prompts, got %d", len(p.asked))
		}
	})

	t.Run("unchanged title is not shown", func(t *testing.T) {
		p := &scriptedPrompter{}
		artist, song, err := Suggest(SuggestInput{Title: "Skillet - Hero", Prompter: p})
		if err != nil {
			t.Fatal(err)
		}
		if artist != "Skillet" || song != "Hero" || len(p.asked) != 0 {
			t.Errorf("got (%q, %q), asked %v", artist, song, p.asked)
		}
	})
}

func TestFromVideo(t *testing.T) {
	rec, err := FromVideo("Six Feet Under (Official Video)", "Smash Into Pieces - Topic", nil)
	if err != nil {
		t.Fatalf("FromVideo() error: %v", err)
	}
	if rec.Title() != "Smash Into Pieces - Six Feet Under" {
		t.Errorf("Title() = %q", rec.Title())
	}

	if _, err := FromTitle("no separator here", nil); !errors.Is(err, ErrTitleFormat) {
		t.Errorf("FromTitle() error = %v, want ErrTitleFormat", err)
	}
}
