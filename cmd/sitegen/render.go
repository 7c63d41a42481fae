package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eringen/sitegen"
)

func (c *cli) renderCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "render <content> <template>",
		Short: "Render a single page to stdout or a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := sitegen.New(c.config.SiteConfig, sitegen.WithLogger(c.logger))
			site, err := b.SiteData()
			if err != nil {
				return err
			}
			pc := sitegen.PageConfig{SiteConfig: site}

			if output != "" {
				ok, err := b.GeneratePage(args[0], args[1], output, pc)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("content %s not found", args[0])
				}
				return nil
			}

			out, ok, err := b.RenderPage(args[0], args[1], pc)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("content %s not found", args[0])
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "out", "o", "", "write to this file instead of stdout")
	return cmd
}
