package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"xp3/internal/metadata"
)

func newSuggestCommand(ctx *commandContext) *cobra.Command {
	var channel string

	cmd := &cobra.Command{
		Use:   "suggest <video-title>",
		Short: "Print the Artist - Song suggestion for a video title",
		Example: `  xp3 suggest "Daft Punk - Around The World (Official Video)"
  xp3 suggest --channel "Daft Punk - Topic" "Around The World"`,
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{skipValidation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			artist, song, err := metadata.Suggest(metadata.SuggestInput{
				Title:   args[0],
				Channel: channel,
			})
			if err != nil {
				return err
			}
			if artist == "" || song == "" {
				return fmt.Errorf("no artist and song found in %q", args[0])
			}
			fmt.Fprintf(ctx.stdout, "%s - %s\n", artist, song)
			return nil
		},
	}

	cmd.Flags().StringVar(&channel, "channel", "", "Uploader name, used as artist when the title has none")
	return cmd
}
