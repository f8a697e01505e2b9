package main

import (
	"github.com/spf13/cobra"

	"xp3/internal/pipeline"
	"xp3/internal/shutdown"
)

func newTagCommand(ctx *commandContext) *cobra.Command {
	var (
		recursive   bool
		keepCurrent bool
		art         bool
		forceArt    bool
		withLyrics  bool
	)

	cmd := &cobra.Command{
		Use:   "tag <dir>",
		Short: "Resolve and write metadata for the songs in a folder",
		Long: `Tag reads the audio files of a folder, falls back to "Artist - Song" file
names and "Album (Year)" folder names where tags are missing, resolves
each song on MusicBrainz and writes the result back.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("keep-current") {
				ctx.cfg.KeepCurrent = keepCurrent
			}
			if flags.Changed("art") {
				ctx.cfg.UpdateArt = art
			}
			if flags.Changed("force-art") {
				ctx.cfg.ForceArt = forceArt
			}
			if flags.Changed("lyrics") {
				ctx.cfg.FetchLyrics = withLyrics
			}

			p, err := ctx.prompter()
			if err != nil {
				return err
			}

			sh := shutdown.New(cmd.Context())
			sh.Listen()
			defer sh.Stop()

			hooks, finish := ctx.progressHooks()
			run := pipeline.New(ctx.services(p), ctx.options(recursive), ctx.log, hooks)
			sum, err := run.Directory(sh.Context(), args[0], p)
			finish()
			if err != nil {
				return err
			}

			printSummary(ctx.stdout, "Tag", sum, false)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Descend into subfolders")
	cmd.Flags().BoolVar(&keepCurrent, "keep-current", false, "Keep songs that already have album, year and track")
	cmd.Flags().BoolVar(&art, "art", true, "Fetch and embed cover art")
	cmd.Flags().BoolVar(&forceArt, "force-art", false, "Fetch cover art again even when an image exists")
	cmd.Flags().BoolVar(&withLyrics, "lyrics", false, "Embed lyrics from LRCLib")
	return cmd
}

func newArtCommand(ctx *commandContext) *cobra.Command {
	var (
		recursive bool
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "art <dir>",
		Short: "Fetch and embed cover art for the songs in a folder",
		Long: `Art only refreshes the embedded cover of each song, using the artist and
album already stored in its tags. No MusicBrainz recording lookup is made.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("force") {
				ctx.cfg.ForceArt = force
			}
			ctx.cfg.UpdateArt = true

			sh := shutdown.New(cmd.Context())
			sh.Listen()
			defer sh.Stop()

			hooks, finish := ctx.progressHooks()
			run := pipeline.New(ctx.services(nil), ctx.options(recursive), ctx.log, hooks)
			sum, err := run.Artwork(sh.Context(), args[0])
			finish()
			if err != nil {
				return err
			}

			printSummary(ctx.stdout, "Artwork", sum, false)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Descend into subfolders")
	cmd.Flags().BoolVar(&force, "force", false, "Fetch cover art again even when an image exists")
	return cmd
}
