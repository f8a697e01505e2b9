package metadata

import (
	"context"
	"fmt"
	"strconv"

	"xp3/internal/logger"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// State is the resolution state of one song.
type State int

const (
	Unresolved State = iota
	TitleKnown
	FieldsQueried
	Resolved
	Skipped
)

func (s State) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case TitleKnown:
		return "title known"
	case FieldsQueried:
		return "fields queried"
	case Resolved:
		return "resolved"
	case Skipped:
		return "skipped"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// ResolverOptions controls how a Resolver settles on a candidate.
type ResolverOptions struct {
	// Prompter makes resolution interactive. Nil means batch mode, where
	// nothing ever blocks on user input.
	Prompter Prompter

	// KeepCurrent keeps records whose album, year and track are already
	// known without asking the catalog.
	KeepCurrent bool

	// FullUpdate lets the chosen candidate replace artist and song too.
	FullUpdate bool
}

// DefaultResolverOptions returns non-interactive options with FullUpdate set.
func DefaultResolverOptions() ResolverOptions {
	return ResolverOptions{FullUpdate: true}
}

// Resolver fills album, year and track of records from a Catalog.
type Resolver struct {
	catalog Catalog
	logger  *logger.Logger
	opts    ResolverOptions
}

// NewResolver creates a Resolver backed by catalog.
func NewResolver(catalog Catalog, log *logger.Logger, opts ResolverOptions) *Resolver {
	return &Resolver{
		catalog: catalog,
		logger:  log,
		opts:    opts,
	}
}

// Interactive reports whether the resolver prompts the user.
func (r *Resolver) Interactive() bool {
	return r.opts.Prompter != nil
}

// Resolve drives rec to Resolved or Skipped. Catalog failures are logged
// and handled as an empty result.
func (r *Resolver) Resolve(ctx context.Context, rec *Record) (State, error) {
	if err := ctx.Err(); err != nil {
		return Unresolved, err
	}
	if rec.Title() == "" {
		return Unresolved, fmt.Errorf("%w: missing artist or song", ErrTitleFormat)
	}

	if rec.HasFullFields() {
		keep, err := r.keepCurrent(rec)
		if err != nil {
			return TitleKnown, err
		}
		if keep {
			r.logger.Debug("  Keeping current metadata for %s", rec)
			return Resolved, nil
		}
	}

	candidates := r.query(ctx, rec)
	SortByRelease(candidates)
	suggested := Rank(candidates, rec)
	r.logger.Debug("  %d candidates for %q, suggested index %d", len(candidates), rec.Title(), suggested)

	if r.opts.Prompter == nil {
		return r.resolveAuto(rec, candidates, suggested), nil
	}
	return r.resolveInteractive(rec, candidates, suggested)
}

func (r *Resolver) keepCurrent(rec *Record) (bool, error) {
	p := r.opts.Prompter
	if p == nil || r.opts.KeepCurrent {
		return r.opts.KeepCurrent, nil
	}
	p.Show(fmt.Sprintf("Metadata already set: %s", rec))
	return confirm(p, "Skip the catalog lookup?", true)
}

func (r *Resolver) query(ctx context.Context, rec *Record) []Candidate {
	candidates, err := r.catalog.Search(ctx, rec.Artist, rec.Song)
	if err != nil {
		r.logger.Warn("Catalog search for %q failed: %v", rec.Title(), err)
		return nil
	}
	return candidates
}

func (r *Resolver) resolveAuto(rec *Record, candidates []Candidate, suggested int) State {
	if len(candidates) == 0 {
		r.logger.Debug("  No candidates for %q, leaving release fields empty", rec.Title())
		return Resolved
	}
	if suggested < 0 {
		suggested = 0
	}
	rec.apply(candidates[suggested], r.opts.FullUpdate)
	return Resolved
}

func (r *Resolver) resolveInteractive(rec *Record, candidates []Candidate, suggested int) (State, error) {
	p := r.opts.Prompter
	p.Show(fmt.Sprintf("Candidates for %s:\n%s", rec.Title(), candidateTable(candidates, suggested)))

	for {
		choice, err := askInt(p, "Enter the correct album number (-1 to skip, 0 to type it in)", suggested+1)
		if err != nil {
			return FieldsQueried, err
		}
		switch {
		case choice == -1:
			return Skipped, nil
		case choice == 0:
			if err := r.manualEntry(rec, candidates, suggested); err != nil {
				return FieldsQueried, err
			}
			return Resolved, nil
		case choice >= 1 && choice <= len(candidates):
			rec.apply(candidates[choice-1], r.opts.FullUpdate)
			return Resolved, nil
		}
		p.Show(fmt.Sprintf("%d is not between -1 and %d", choice, len(candidates)))
	}
}

// manualEntry asks for album, year and track, offering the suggested
// candidate (or the first one) as defaults.
func (r *Resolver) manualEntry(rec *Record, candidates []Candidate, suggested int) error {
	p := r.opts.Prompter
	base := Candidate{Album: rec.Album, Year: rec.Year, Track: rec.Track}
	switch {
	case suggested >= 0:
		base = candidates[suggested]
	case len(candidates) > 0:
		base = candidates[0]
	}

	album, err := askString(p, "Album", base.Album)
	if err != nil {
		return err
	}
	year, err := askInt(p, "Year", base.Year)
	if err != nil {
		return err
	}
	track, err := askInt(p, "Track", base.Track)
	if err != nil {
		return err
	}

	rec.Album = album
	rec.Year = year
	rec.Track = track
	return nil
}

func candidateTable(candidates []Candidate, suggested int) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Album", "Year", "Track", "Kind", "Status", "Artist", "Hits"})
	for i, c := range candidates {
		n := strconv.Itoa(i + 1)
		if i == suggested {
			n = "*" + n
		}
		tw.AppendRow(table.Row{n, c.Album, c.Year, c.Track, string(c.Kind), string(c.Status), c.Artist, c.Hits})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
	})
	return tw.Render()
}

// BatchResult counts the outcomes of a batch. States holds the final state
// of each record; failed records stay Unresolved.
type BatchResult struct {
	Resolved int
	Skipped  int
	Failed   int
	States   []State
}

// Batch resolves records one after another. done runs for every resolved
// record; its error marks the record failed. A failing record never stops
// the batch. An error is returned only on cancellation or when every
// record failed.
func (r *Resolver) Batch(ctx context.Context, records []*Record, done func(i int, rec *Record) error) (BatchResult, error) {
	res := BatchResult{States: make([]State, len(records))}

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("metadata resolution cancelled: %w", err)
		}
		if rec == nil {
			res.Failed++
			continue
		}

		r.logger.Debug("[%d/%d] Resolving: %s", i+1, len(records), rec.Title())

		state, err := r.Resolve(ctx, rec)
		if err != nil {
			if ctx.Err() != nil {
				return res, fmt.Errorf("metadata resolution cancelled: %w", ctx.Err())
			}
			r.logger.Warn("[%d/%d] Failed to resolve %q: %v", i+1, len(records), rec.Title(), err)
			res.Failed++
			continue
		}

		if state == Skipped {
			res.States[i] = Skipped
			res.Skipped++
			continue
		}

		if done != nil {
			if err := done(i, rec); err != nil {
				r.logger.Warn("[%d/%d] %v", i+1, len(records), err)
				res.Failed++
				continue
			}
		}
		res.States[i] = Resolved
		res.Resolved++
	}

	if len(records) > 0 && res.Failed == len(records) {
		return res, fmt.Errorf("all %d songs failed metadata resolution", len(records))
	}
	if res.Failed > 0 {
		r.logger.Warn("%d of %d songs failed metadata resolution", res.Failed, len(records))
	}
	return res, nil
}
