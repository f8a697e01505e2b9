package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"

	"xp3/internal/downloader"
	"xp3/internal/logger"
	"xp3/internal/lyrics"
	"xp3/internal/metadata"
	"xp3/pkg/utils"
)

// Stages reported through Hooks.OnStage.
const (
	StageResolve  = "resolve"
	StageDownload = "download"
	StageTag      = "tag"
	StageArt      = "art"
)

// Source lists and downloads playlist videos.
type Source interface {
	ListPlaylist(ctx context.Context, url string, start, end int) ([]downloader.Entry, error)
	DownloadAll(ctx context.Context, jobs []downloader.Job, outDir string, parallel int, done func(downloader.Job, string, error)) (downloader.Stats, error)
}

// LyricsSource finds lyrics for a song.
type LyricsSource interface {
	Fetch(ctx context.Context, artist, title, album string) (lyrics.Result, error)
}

// Hooks observe a run. OnProgress may be called from several goroutines.
type Hooks struct {
	OnStage    func(stage string, total int)
	OnProgress func(err error)
	OnWarning  func(msg string)
}

// Services are the collaborators of a run. Art and Lyrics are optional.
type Services struct {
	Resolver *metadata.Resolver
	Reader   *metadata.TagReader
	Writer   *metadata.TagWriter
	Art      *metadata.ArtResolver
	Lyrics   LyricsSource
	Source   Source
}

// Options control where files go and how much runs in parallel.
type Options struct {
	MP3Dir       string
	TmpDir       string
	ParallelJobs int
	ForceArt     bool
	Recursive    bool
}

// Summary counts what a run did.
type Summary struct {
	Total      int `json:"total"`
	Resolved   int `json:"resolved"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
	Downloaded int `json:"downloaded"`
	Tagged     int `json:"tagged"`
}

// Pipeline runs batches of songs through resolution, artwork and tagging.
type Pipeline struct {
	svc    Services
	opts   Options
	logger *logger.Logger
	hooks  Hooks
}

// New creates a Pipeline.
func New(svc Services, opts Options, log *logger.Logger, hooks Hooks) *Pipeline {
	return &Pipeline{svc: svc, opts: opts, logger: log, hooks: hooks}
}

// Playlist lists the videos of url (start and end 1-based, 0 for open),
// resolves metadata for every song, then downloads the songs in parallel
// and tags each one into MP3Dir as it finishes.
func (p *Pipeline) Playlist(ctx context.Context, url string, start, end int, prompter metadata.Prompter) (Summary, error) {
	var sum Summary
	if p.svc.Source == nil {
		return sum, errors.New("no download source configured")
	}

	entries, err := p.svc.Source.ListPlaylist(ctx, url, start, end)
	if err != nil {
		return sum, fmt.Errorf("failed to list playlist: %w", err)
	}
	sum.Total = len(entries)

	records := make([]*metadata.Record, len(entries))
	for i, e := range entries {
		rec, err := metadata.FromVideo(e.Title, e.Author(), prompter)
		if err != nil {
			p.warn(fmt.Sprintf("[%d/%d] Cannot read a song title from %q: %v", i+1, len(entries), e.Title, err))
			continue
		}
		records[i] = rec
	}

	p.stage(StageResolve, len(records))
	batch, err := p.svc.Resolver.Batch(ctx, records, func(int, *metadata.Record) error {
		p.progress(nil)
		return nil
	})
	sum.Resolved, sum.Skipped, sum.Failed = batch.Resolved, batch.Skipped, batch.Failed
	if err != nil {
		return sum, err
	}

	jobs := downloadJobs(entries, records, batch.States)
	if len(jobs) == 0 {
		return sum, errors.New("no songs left to download")
	}

	tmpDir, err := utils.CreateTempDir(p.opts.TmpDir)
	if err != nil {
		return sum, err
	}
	defer func() {
		if err := utils.Cleanup(tmpDir, p.opts.TmpDir); err != nil {
			p.logger.Warn("Failed to remove %s: %v", tmpDir, err)
		}
	}()

	p.stage(StageDownload, len(jobs))
	var mu sync.Mutex
	stats, err := p.svc.Source.DownloadAll(ctx, jobs, tmpDir, p.opts.ParallelJobs, func(job downloader.Job, path string, dlErr error) {
		if dlErr != nil {
			p.progress(dlErr)
			return
		}
		tagErr := p.finish(ctx, path, records[job.Index])
		if tagErr != nil {
			p.warn(tagErr.Error())
		}
		if _, err := p.store(path); err != nil {
			p.warn(err.Error())
			tagErr = err
		}

		mu.Lock()
		if tagErr == nil {
			sum.Tagged++
		}
		mu.Unlock()
		p.progress(tagErr)
	})
	sum.Downloaded = stats.Successful
	if err != nil {
		return sum, err
	}
	if stats.Failed > 0 {
		p.warn(fmt.Sprintf("%d of %d videos failed to download (private, unavailable, or geo-restricted)", stats.Failed, stats.Total))
	}

	p.logger.Info("Saved %d songs to %s", sum.Downloaded, p.opts.MP3Dir)
	return sum, nil
}

// downloadJobs turns every resolved or skipped record into a job with a
// file name unique within the batch.
func downloadJobs(entries []downloader.Entry, records []*metadata.Record, states []metadata.State) []downloader.Job {
	seen := make(map[string]int)
	var jobs []downloader.Job
	for i, rec := range records {
		if rec == nil || (states[i] != metadata.Resolved && states[i] != metadata.Skipped) {
			continue
		}
		name := rec.FileName("")
		seen[name]++
		if n := seen[name]; n > 1 {
			name += " (" + strconv.Itoa(n) + ")"
		}
		jobs = append(jobs, downloader.Job{Index: i, URL: entries[i].WatchURL(), Name: name})
	}
	return jobs
}

// store moves a finished download into MP3Dir without overwriting.
func (p *Pipeline) store(path string) (string, error) {
	dst := utils.UniquePath(filepath.Join(p.opts.MP3Dir, filepath.Base(path)))
	if err := utils.MoveFile(path, dst); err != nil {
		return "", err
	}
	p.logger.Debug("Saved %s", dst)
	return dst, nil
}

// Directory resolves and re-tags the audio files under dir.
func (p *Pipeline) Directory(ctx context.Context, dir string, prompter metadata.Prompter) (Summary, error) {
	var sum Summary

	files, err := utils.FindAudioFiles(dir, p.opts.Recursive)
	if err != nil {
		return sum, err
	}
	if len(files) == 0 {
		return sum, fmt.Errorf("no audio files found in %s", dir)
	}
	sum.Total = len(files)

	records := make([]*metadata.Record, len(files))
	for i, f := range files {
		records[i] = p.svc.Reader.LoadFile(f, prompter)
	}

	p.stage(StageTag, len(files))
	batch, err := p.svc.Resolver.Batch(ctx, records, func(i int, rec *metadata.Record) error {
		err := p.finish(ctx, files[i], rec)
		p.progress(err)
		if err == nil {
			sum.Tagged++
		}
		return err
	})
	sum.Resolved, sum.Skipped, sum.Failed = batch.Resolved, batch.Skipped, batch.Failed
	return sum, err
}

// Artwork refreshes only the embedded cover art of the files under dir.
func (p *Pipeline) Artwork(ctx context.Context, dir string) (Summary, error) {
	var sum Summary
	if p.svc.Art == nil {
		return sum, errors.New("artwork is disabled")
	}

	files, err := utils.FindAudioFiles(dir, p.opts.Recursive)
	if err != nil {
		return sum, err
	}
	sum.Total = len(files)

	p.stage(StageArt, len(files))
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return sum, fmt.Errorf("artwork update cancelled: %w", err)
		}

		rec := p.svc.Reader.LoadFile(f, nil)
		if err := p.svc.Art.Ensure(ctx, rec, p.opts.ForceArt); err != nil {
			return sum, err
		}
		if rec.ArtPath == "" {
			p.logger.Warn("[%d/%d] No artwork for %s", i+1, len(files), filepath.Base(f))
			sum.Skipped++
			p.progress(nil)
			continue
		}
		if err := p.svc.Writer.EmbedArt(f, rec); err != nil {
			p.logger.Warn("[%d/%d] %v", i+1, len(files), err)
			sum.Failed++
			p.progress(err)
			continue
		}
		sum.Tagged++
		p.progress(nil)
	}

	if sum.Total > 0 && sum.Failed == sum.Total {
		return sum, fmt.Errorf("all %d files failed the artwork update", sum.Total)
	}
	return sum, nil
}

// finish adds artwork and lyrics to rec and writes it into the file.
func (p *Pipeline) finish(ctx context.Context, path string, rec *metadata.Record) error {
	if p.svc.Art != nil {
		if err := p.svc.Art.Ensure(ctx, rec, p.opts.ForceArt); err != nil {
			return err
		}
	}

	if p.svc.Lyrics != nil && rec.Lyrics == "" {
		res, err := p.svc.Lyrics.Fetch(ctx, rec.Artist, rec.Song, rec.Album)
		if err != nil {
			p.logger.Debug("  No lyrics for %s: %v", rec.Title(), err)
		}
		rec.Lyrics = res.Text()
	}

	if err := p.svc.Writer.Apply(path, rec); err != nil {
		return fmt.Errorf("failed to tag %s: %w", filepath.Base(path), err)
	}
	p.logger.Debug("Tagged %s: %s", filepath.Base(path), rec)
	return nil
}

func (p *Pipeline) stage(name string, total int) {
	if p.hooks.OnStage != nil {
		p.hooks.OnStage(name, total)
	}
}

func (p *Pipeline) progress(err error) {
	if p.hooks.OnProgress != nil {
		p.hooks.OnProgress(err)
	}
}

func (p *Pipeline) warn(msg string) {
	p.logger.Warn("%s", msg)
	if p.hooks.OnWarning != nil {
		p.hooks.OnWarning(msg)
	}
}
