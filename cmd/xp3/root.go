package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var flags globalFlags
	ctx := newCommandContext(&flags)

	rootCmd := &cobra.Command{
		Use:   "xp3",
		Short: "Download playlists and tag songs with MusicBrainz metadata",
		Long: `xp3 downloads songs from video playlists, turns noisy video titles into
"Artist - Song", looks the songs up on MusicBrainz and writes album, year,
track number and cover art into the audio files.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.setup(cmd, !shouldSkipValidation(cmd))
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Configuration file path")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Show detailed output instead of a progress bar")
	pf.BoolVarP(&flags.interactive, "interactive", "i", false, "Confirm titles and pick releases by hand")

	rootCmd.AddCommand(newDownloadCommand(ctx))
	rootCmd.AddCommand(newTagCommand(ctx))
	rootCmd.AddCommand(newArtCommand(ctx))
	rootCmd.AddCommand(newSuggestCommand(ctx))
	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newInitConfigCommand(ctx))

	return rootCmd
}

const skipValidation = "skipValidation"

// shouldSkipValidation reports whether cmd works without a complete
// configuration. Built-in cobra commands never need one.
func shouldSkipValidation(cmd *cobra.Command) bool {
	if !cmd.HasParent() || cmd.Name() == "help" || cmd.Name() == "completion" {
		return true
	}
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations[skipValidation] == "true" {
			return true
		}
	}
	return false
}
