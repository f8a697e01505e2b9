package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"xp3/internal/artwork"
	"xp3/internal/config"
	"xp3/internal/downloader"
	"xp3/internal/logger"
	"xp3/internal/lyrics"
	"xp3/internal/metadata"
	"xp3/internal/pipeline"
	"xp3/internal/progress"
	"xp3/internal/prompt"
	"xp3/internal/provider/deezer"
	"xp3/internal/provider/itunes"
	"xp3/internal/provider/musicbrainz"
	"xp3/internal/provider/spotify"
)

type globalFlags struct {
	configPath  string
	verbose     bool
	interactive bool
}

// commandContext carries the configuration and logger shared by commands.
type commandContext struct {
	flags *globalFlags

	cfg        config.Config
	configPath string
	log        *logger.Logger
	stdout     io.Writer
	stdin      io.Reader
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags, stdout: os.Stdout, stdin: os.Stdin}
}

// setup loads the configuration, applies flag overrides and opens the log.
// Priority: CLI flags > config file > defaults
func (c *commandContext) setup(cmd *cobra.Command, validate bool) error {
	c.stdout = cmd.OutOrStdout()
	c.stdin = cmd.InOrStdin()

	cfg, err := config.LoadConfigFile(c.flags.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	c.configPath = c.flags.configPath
	if c.configPath == "" {
		c.configPath = config.FindConfigFile()
	}

	flags := cmd.Flags()
	if flags.Changed("verbose") {
		cfg.Verbose = c.flags.verbose
	}
	if flags.Changed("interactive") {
		cfg.Interactive = c.flags.interactive
	}
	c.cfg = cfg

	if validate {
		if err := c.cfg.Validate(); err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
	}

	if c.stdout == os.Stdout {
		c.log = logger.New(c.cfg.Verbose)
	} else {
		c.log = logger.NewWithWriter(c.cfg.Verbose, c.stdout)
	}
	if !c.cfg.Verbose && validate {
		c.openLogFile()
	}
	if c.configPath != "" {
		c.log.Debug("Loaded configuration from: %s", c.configPath)
	}
	return nil
}

func (c *commandContext) openLogFile() {
	logDir := config.GetDefaultLogPath()
	if err := os.MkdirAll(logDir, 0755); err != nil {
		c.log.Warn("Failed to create log directory: %v", err)
		return
	}
	logFile := filepath.Join(logDir, fmt.Sprintf("xp3_%s.log", time.Now().Format("2006-01-02_15-04-05")))
	if err := c.log.SetFileLog(logFile); err != nil {
		c.log.Warn("Failed to setup file logging: %v", err)
		return
	}
	c.log.Debug("Logging to file: %s", logFile)
}

func (c *commandContext) close() error {
	if c.log == nil {
		return nil
	}
	return c.log.Close()
}

// prompter returns nil unless interactive mode is on. Interactive mode
// needs a terminal.
func (c *commandContext) prompter() (metadata.Prompter, error) {
	if !c.cfg.Interactive {
		return nil, nil
	}
	if f, ok := c.stdin.(*os.File); ok && !prompt.IsTerminal(f) {
		return nil, prompt.ErrNotTerminal
	}
	return prompt.NewConsole(c.stdin, c.stdout), nil
}

func (c *commandContext) timeout() time.Duration {
	return time.Duration(c.cfg.RequestTimeoutSeconds) * time.Second
}

func (c *commandContext) musicBrainz() *musicbrainz.Client {
	mb := musicbrainz.New(c.cfg.UserAgent(version), c.timeout(), c.log)
	if c.cfg.Debug {
		mb.SetSnapshotDir(c.cfg.SnapshotDir)
	}
	return mb
}

// artworkSources returns the configured artwork providers in order.
func (c *commandContext) artworkSources(mb *musicbrainz.Client) []metadata.ArtworkSource {
	ua := c.cfg.UserAgent(version)
	var sources []metadata.ArtworkSource
	for _, name := range c.cfg.ArtworkProviders {
		switch name {
		case "musicbrainz":
			sources = append(sources, mb)
		case "itunes":
			sources = append(sources, itunes.New(ua, c.timeout()))
		case "deezer":
			sources = append(sources, deezer.New(ua, c.timeout()))
		case "spotify":
			sources = append(sources, spotify.New(c.cfg.SpotifyClientID, c.cfg.SpotifyClientSecret, ua, c.timeout()))
		}
	}
	return sources
}

func (c *commandContext) artResolver(mb *musicbrainz.Client) *metadata.ArtResolver {
	chain := metadata.NewArtworkChain(c.artworkSources(mb), c.log)
	return metadata.NewArtResolver(c.cfg.ImageDir, chain, artwork.NewStore(), c.log)
}

// services wires the collaborators of a pipeline run from the configuration.
func (c *commandContext) services(p metadata.Prompter) pipeline.Services {
	mb := c.musicBrainz()
	svc := pipeline.Services{
		Resolver: metadata.NewResolver(mb, c.log, metadata.ResolverOptions{
			Prompter:    p,
			KeepCurrent: c.cfg.KeepCurrent,
			FullUpdate:  c.cfg.FullUpdate,
		}),
		Reader: metadata.NewTagReader(c.log),
		Writer: metadata.NewTagWriter(c.log),
		Source: downloader.New(c.cfg.AudioFormat, c.cfg.Verbose, c.log),
	}
	if c.cfg.UpdateArt {
		svc.Art = c.artResolver(mb)
	}
	if c.cfg.FetchLyrics {
		svc.Lyrics = lyrics.NewClient(c.cfg.UserAgent(version), c.timeout())
	}
	return svc
}

func (c *commandContext) options(recursive bool) pipeline.Options {
	return pipeline.Options{
		MP3Dir:       c.cfg.MP3Dir,
		TmpDir:       c.cfg.TmpDir,
		ParallelJobs: c.cfg.ParallelJobs,
		ForceArt:     c.cfg.ForceArt,
		Recursive:    recursive,
	}
}

// progressHooks shows one progress bar per stage. Bars are only drawn in
// quiet, non-interactive runs; otherwise log lines tell the story. The
// returned func ends the last bar.
func (c *commandContext) progressHooks() (pipeline.Hooks, func()) {
	if c.cfg.Verbose || c.cfg.Interactive {
		return pipeline.Hooks{}, func() {}
	}

	var mu sync.Mutex
	var bar *progress.Bar
	finish := func() {
		mu.Lock()
		defer mu.Unlock()
		if bar != nil {
			bar.Finish()
			bar = nil
			c.log.SetProgressBar(false)
		}
	}

	labels := map[string]string{
		pipeline.StageResolve:  "Resolving  ",
		pipeline.StageDownload: "Downloading",
		pipeline.StageTag:      "Tagging    ",
		pipeline.StageArt:      "Artwork    ",
	}

	hooks := pipeline.Hooks{
		OnStage: func(stage string, total int) {
			finish()
			mu.Lock()
			defer mu.Unlock()
			bar = progress.NewWithWriter(labels[stage], total, c.stdout)
			c.log.SetProgressBar(true)
		},
		OnProgress: func(err error) {
			mu.Lock()
			defer mu.Unlock()
			if bar != nil {
				bar.Increment(err)
			}
		},
	}
	return hooks, finish
}
