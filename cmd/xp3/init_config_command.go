package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"xp3/internal/config"
)

func newInitConfigCommand(ctx *commandContext) *cobra.Command {
	var (
		path  string
		force bool
	)

	cmd := &cobra.Command{
		Use:         "init-config",
		Short:       "Write a configuration file with the default settings",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipValidation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = config.GetDefaultConfigPath()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
			}

			if err := config.SaveConfigFile(config.DefaultConfig(), path); err != nil {
				return err
			}

			fmt.Fprintf(ctx.stdout, "Created config file: %s\n", path)
			fmt.Fprintln(ctx.stdout, "Set contact_email before running download, tag or art;")
			fmt.Fprintln(ctx.stdout, "MusicBrainz requires it in the User-Agent of every request.")
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Where to write the file (default user config dir)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
