package metadata

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"xp3/internal/logger"
)

type fakeCatalog struct {
	candidates []Candidate
	err        error
	calls      int
}

func (c *fakeCatalog) Search(_ context.Context, _, _ string) ([]Candidate, error) {
	c.calls++
	// callers sort the slice in place
	out := make([]Candidate, len(c.candidates))
	copy(out, c.candidates)
	return out, c.err
}

func linkinPark() []Candidate {
	return []Candidate{
		{Album: "Hybrid Theory", Year: 2000, Track: 5, Kind: KindAlbum, Artist: "LINKIN PARK", Title: "Papercut", ReleaseGroupID: "rg-ht"},
		{Album: "Papercut", Year: 2001, Track: 1, Kind: KindSingle, Artist: "LINKIN PARK", Title: "Papercut", ReleaseGroupID: "rg-single"},
		{Album: "Live in Texas", Year: 2003, Track: 2, Kind: KindAlbum, Artist: "LINKIN PARK", Title: "Papercut (live)", ReleaseGroupID: "rg-live"},
	}
}

func newTestResolver(c Catalog, opts ResolverOptions) *Resolver {
	return NewResolver(c, logger.New(false), opts)
}

func TestResolveNonInteractive(t *testing.T) {
	catalog := &fakeCatalog{candidates: linkinPark()}
	r := newTestResolver(catalog, DefaultResolverOptions())

	rec := &Record{Artist: "Linkin Park", Song: "Papercut"}
	state, err := r.Resolve(context.Background(), rec)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if state != Resolved {
		t.Errorf("state = %v, want resolved", state)
	}
	if rec.Album != "Hybrid Theory" || rec.Year != 2000 || rec.Track != 5 || rec.ReleaseGroupID != "rg-ht" {
		t.Errorf("record = %+v", rec)
	}
	if rec.Artist != "LINKIN PARK" {
		t.Errorf("full update should take the catalog artist, got %q", rec.Artist)
	}
}

func TestResolvePartialUpdateKeepsArtist(t *testing.T) {
	r := newTestResolver(&fakeCatalog{candidates: linkinPark()}, ResolverOptions{})

	rec := &Record{Artist: "Linkin Park", Song: "Papercut"}
	if _, err := r.Resolve(context.Background(), rec); err != nil {
		t.Fatal(err)
	}
	if rec.Artist != "Linkin Park" || rec.Song != "Papercut" || rec.Album != "Hybrid Theory" {
		t.Errorf("record = %+v", rec)
	}
}

func TestResolveClampsUnrankedToFirst(t *testing.T) {
	catalog := &fakeCatalog{candidates: []Candidate{
		{Album: "Greatest Hits", Year: 2010, Track: 9},
		{Album: "Live", Year: 2005, Track: 3},
	}}
	r := newTestResolver(catalog, DefaultResolverOptions())

	rec := &Record{Artist: "A", Song: "B"}
	if _, err := r.Resolve(context.Background(), rec); err != nil {
		t.Fatal(err)
	}
	// sorted by year, "Live" comes first
	if rec.Album != "Live" || rec.Year != 2005 {
		t.Errorf("record = %+v, want the first sorted candidate", rec)
	}
}

func TestResolveNoCandidates(t *testing.T) {
	for name, catalog := range map[string]*fakeCatalog{
		"empty":         {},
		"network error": {err: errors.New("timeout")},
	} {
		t.Run(name, func(t *testing.T) {
			r := newTestResolver(catalog, DefaultResolverOptions())
			rec := &Record{Artist: "A", Song: "B"}
			state, err := r.Resolve(context.Background(), rec)
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if state != Resolved || rec.Album != "" || rec.Year != 0 || rec.Track != 0 {
				t.Errorf("state = %v, record = %+v", state, rec)
			}
		})
	}
}

func TestResolveRequiresTitle(t *testing.T) {
	catalog := &fakeCatalog{}
	r := newTestResolver(catalog, DefaultResolverOptions())

	state, err := r.Resolve(context.Background(), &Record{Artist: "A"})
	if !errors.Is(err, ErrTitleFormat) {
		t.Errorf("error = %v, want ErrTitleFormat", err)
	}
	if state != Unresolved || catalog.calls != 0 {
		t.Errorf("state = %v, calls = %d", state, catalog.calls)
	}
}

func TestResolveKeepCurrent(t *testing.T) {
	full := func() *Record {
		return &Record{Artist: "Linkin Park", Song: "Papercut", Album: "Mine", Year: 1999, Track: 2}
	}

	t.Run("non-interactive keep", func(t *testing.T) {
		catalog := &fakeCatalog{candidates: linkinPark()}
		r := newTestResolver(catalog, ResolverOptions{KeepCurrent: true, FullUpdate: true})
		rec := full()
		state, err := r.Resolve(context.Background(), rec)
		if err != nil || state != Resolved {
			t.Fatalf("Resolve() = %v, %v", state, err)
		}
		if catalog.calls != 0 || rec.Album != "Mine" {
			t.Errorf("calls = %d, album = %q", catalog.calls, rec.Album)
		}
	})

	t.Run("non-interactive requery", func(t *testing.T) {
		catalog := &fakeCatalog{candidates: linkinPark()}
		r := newTestResolver(catalog, DefaultResolverOptions())
		rec := full()
		if _, err := r.Resolve(context.Background(), rec); err != nil {
			t.Fatal(err)
		}
		if catalog.calls != 1 || rec.Album != "Hybrid Theory" {
			t.Errorf("calls = %d, album = %q", catalog.calls, rec.Album)
		}
	})

	t.Run("interactive skip by default", func(t *testing.T) {
		catalog := &fakeCatalog{candidates: linkinPark()}
		p := &scriptedPrompter{answers: []string{""}}
		r := newTestResolver(catalog, ResolverOptions{Prompter: p, FullUpdate: true})
		rec := full()
		state, err := r.Resolve(context.Background(), rec)
		if err != nil || state != Resolved {
			t.Fatalf("Resolve() = %v, %v", state, err)
		}
		if catalog.calls != 0 || rec.Album != "Mine" {
			t.Errorf("calls = %d, album = %q", catalog.calls, rec.Album)
		}
	})

	t.Run("interactive decline queries", func(t *testing.T) {
		catalog := &fakeCatalog{candidates: linkinPark()}
		p := &scriptedPrompter{answers: []string{"no", "2"}}
		r := newTestResolver(catalog, ResolverOptions{Prompter: p, FullUpdate: true})
		rec := full()
		if _, err := r.Resolve(context.Background(), rec); err != nil {
			t.Fatal(err)
		}
		if catalog.calls != 1 || rec.Album != "Papercut" || rec.Year != 2001 {
			t.Errorf("calls = %d, record = %+v", catalog.calls, rec)
		}
	})

	t.Run("interactive with keep never asks", func(t *testing.T) {
		catalog := &fakeCatalog{candidates: linkinPark()}
		p := &scriptedPrompter{}
		r := newTestResolver(catalog, ResolverOptions{Prompter: p, KeepCurrent: true})
		state, err := r.Resolve(context.Background(), full())
		if err != nil || state != Resolved || len(p.asked) != 0 || catalog.calls != 0 {
			t.Errorf("state = %v, err = %v, asked = %v, calls = %d", state, err, p.asked, catalog.calls)
		}
	})
}

func TestResolveInteractive(t *testing.T) {
	tests := []struct {
		name      string
		answers   []string
		wantState State
		want      Record
	}{
		{
			name:      "accept suggestion",
			answers:   []string{""},
			wantState: Resolved,
			want:      Record{Artist: "LINKIN PARK", Song: "Papercut", Album: "Hybrid Theory", Year: 2000, Track: 5, ReleaseGroupID: "rg-ht"},
		},
		{
			name:      "pick another candidate",
			answers:   []string{"3"},
			wantState: Resolved,
			want:      Record{Artist: "LINKIN PARK", Song: "Papercut (live)", Album: "Live in Texas", Year: 2003, Track: 2, ReleaseGroupID: "rg-live"},
		},
		{
			name:      "skip",
			answers:   []string{"-1"},
			wantState: Skipped,
			want:      Record{Artist: "Linkin Park", Song: "Papercut"},
		},
		{
			name:      "manual entry keeps artist and song",
			answers:   []string{"0", "My Album", "1999", "x", "7"},
			wantState: Resolved,
			want:      Record{Artist: "Linkin Park", Song: "Papercut", Album: "My Album", Year: 1999, Track: 7},
		},
		{
			name:      "manual entry defaults to suggestion",
			answers:   []string{"0", "", "", ""},
			wantState: Resolved,
			want:      Record{Artist: "Linkin Park", Song: "Papercut", Album: "Hybrid Theory", Year: 2000, Track: 5},
		},
		{
			name:      "invalid choices asked again",
			answers:   []string{"abc", "9", "-4", "2"},
			wantState: Resolved,
			want:      Record{Artist: "LINKIN PARK", Song: "Papercut", Album: "Papercut", Year: 2001, Track: 1, ReleaseGroupID: "rg-single"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &scriptedPrompter{answers: tt.answers}
			r := newTestResolver(&fakeCatalog{candidates: linkinPark()}, ResolverOptions{Prompter: p, FullUpdate: true})

			rec := &Record{Artist: "Linkin Park", Song: "Papercut"}
			state, err := r.Resolve(context.Background(), rec)
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if state != tt.wantState {
				t.Errorf("state = %v, want %v", state, tt.wantState)
			}
			if *rec != tt.want {
				t.Errorf("record = %+v\nwant     %+v", *rec, tt.want)
			}
			if len(p.answers) != 0 {
				t.Errorf("unused answers: %v", p.answers)
			}
			if len(p.shown) == 0 {
				t.Error("candidate table was not shown")
			}
		})
	}
}

func TestResolveInteractiveNoSuggestionDefaultsToManual(t *testing.T) {
	catalog := &fakeCatalog{candidates: []Candidate{{Album: "Best Of", Year: 2009, Track: 4}}}
	p := &scriptedPrompter{answers: []string{"", "", "", ""}}
	r := newTestResolver(catalog, ResolverOptions{Prompter: p})

	rec := &Record{Artist: "A", Song: "B"}
	state, err := r.Resolve(context.Background(), rec)
	if err != nil || state != Resolved {
		t.Fatalf("Resolve() = %v, %v", state, err)
	}
	// manual entry offers the first candidate when nothing is suggested
	if rec.Album != "Best Of" || rec.Year != 2009 || rec.Track != 4 {
		t.Errorf("record = %+v", rec)
	}
}

func TestResolvePrompterError(t *testing.T) {
	p := &scriptedPrompter{}
	r := newTestResolver(&fakeCatalog{candidates: linkinPark()}, ResolverOptions{Prompter: p})

	state, err := r.Resolve(context.Background(), &Record{Artist: "A", Song: "B"})
	if err == nil {
		t.Fatal("expected the prompter error to surface")
	}
	if state != FieldsQueried {
		t.Errorf("state = %v, want fields queried", state)
	}
}

func TestBatch(t *testing.T) {
	catalog := &fakeCatalog{candidates: linkinPark()}
	r := newTestResolver(catalog, DefaultResolverOptions())

	records := []*Record{
		{Artist: "Linkin Park", Song: "Papercut"},
		{Artist: "No Song"},
		nil,
		{Artist: "Linkin Park", Song: "Papercut"},
	}
	var done []int
	res, err := r.Batch(context.Background(), records, func(i int, rec *Record) error {
		if i == 3 {
			return fmt.Errorf("tagging failed")
		}
		done = append(done, i)
		return nil
	})
	if err != nil {
		t.Fatalf("Batch() error: %v", err)
	}
	if res.Resolved != 1 || res.Failed != 3 || res.Skipped != 0 {
		t.Errorf("result = %+v", res)
	}
	if len(done) != 1 || done[0] != 0 {
		t.Errorf("done called for %v", done)
	}
	want := []State{Resolved, Unresolved, Unresolved, Unresolved}
	for i, s := range want {
		if res.States[i] != s {
			t.Errorf("States[%d] = %v, want %v", i, res.States[i], s)
		}
	}
}

func TestBatchAllFailed(t *testing.T) {
	r := newTestResolver(&fakeCatalog{}, DefaultResolverOptions())
	_, err := r.Batch(context.Background(), []*Record{{Artist: "A"}, {Song: "B"}}, nil)
	if err == nil {
		t.Error("expected an error when every record failed")
	}
}

func TestBatchCancelled(t *testing.T) {
	catalog := &fakeCatalog{candidates: linkinPark()}
	r := newTestResolver(catalog, DefaultResolverOptions())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Batch(ctx, []*Record{{Artist: "A", Song: "B"}}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if catalog.calls != 0 {
		t.Errorf("catalog called %d times after cancel", catalog.calls)
	}
}
