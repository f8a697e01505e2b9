package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"xp3/internal/pipeline"
	"xp3/internal/shutdown"
	"xp3/pkg/utils"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var (
		start, end int
		outDir     string
		jobs       int
	)

	cmd := &cobra.Command{
		Use:   "download [playlist-url]",
		Short: "Download a playlist and tag every song",
		Long: `Download lists the videos of a playlist, works out artist and title of
each song, resolves album, year and track on MusicBrainz, then downloads
the audio and writes the metadata and cover art into it.

Without a URL the default_playlist of the configuration is used.`,
		Example: `  xp3 download https://www.youtube.com/playlist?list=...
  xp3 download -i --start 5 --end 10 https://www.youtube.com/playlist?list=...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := ctx.cfg.DefaultPlaylist
			if len(args) == 1 {
				url = args[0]
			}
			if url == "" {
				return errors.New("no playlist URL given and no default_playlist configured")
			}
			if start < 0 || end < 0 || (end > 0 && start > end) {
				return fmt.Errorf("invalid playlist range %d-%d", start, end)
			}
			if outDir != "" {
				ctx.cfg.MP3Dir = outDir
			}
			if cmd.Flags().Changed("jobs") {
				if jobs < 1 || jobs > 10 {
					return fmt.Errorf("parallel jobs must be between 1 and 10, got %d", jobs)
				}
				ctx.cfg.ParallelJobs = jobs
			}

			ctx.log.Debug("Checking dependencies...")
			if err := utils.CheckDependencies("yt-dlp", "ffmpeg"); err != nil {
				return fmt.Errorf("dependency check failed: %w", err)
			}

			p, err := ctx.prompter()
			if err != nil {
				return err
			}

			sh := shutdown.New(cmd.Context())
			sh.Listen()
			defer sh.Stop()

			hooks, finish := ctx.progressHooks()
			run := pipeline.New(ctx.services(p), ctx.options(false), ctx.log, hooks)
			sum, err := run.Playlist(sh.Context(), url, start, end, p)
			finish()
			if err != nil {
				return err
			}

			printSummary(ctx.stdout, "Download", sum, true)
			ctx.log.Info("=== Process completed successfully ===")
			return nil
		},
	}

	cmd.Flags().IntVar(&start, "start", 0, "First playlist position to download (1-based)")
	cmd.Flags().IntVar(&end, "end", 0, "Last playlist position to download (inclusive)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Folder for the finished songs (default mp3_dir)")
	cmd.Flags().IntVarP(&jobs, "jobs", "p", 4, "Number of parallel downloads (1-10)")
	return cmd
}
