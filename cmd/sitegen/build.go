package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func (c *cli) buildCmd() *cobra.Command {
	var clean bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Generate every page listed in the config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(c.config.Pages) == 0 {
				return fmt.Errorf("no pages configured")
			}
			if clean {
				if err := os.RemoveAll(c.config.OutputDir); err != nil {
					return fmt.Errorf("clean output: %w", err)
				}
			}

			b, err := c.openBuilder()
			if err != nil {
				return err
			}
			defer b.Close()

			res, err := b.Build(cmd.Context(), c.config.Pages)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Built %d pages (%d unchanged, %d skipped) in %s\n",
				len(res.Generated), len(res.Unchanged), len(res.Skipped), res.Duration.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().BoolVar(&clean, "clean", false, "remove the output directory before building")
	return cmd
}
