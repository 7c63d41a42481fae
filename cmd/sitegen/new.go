package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/eringen/sitegen/scaffold"
)

func (c *cli) newCmd() *cobra.Command {
	var siteURL string

	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a new site with starter content and templates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			name := filepath.Base(dir)
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Creating new site: %s\n\n", dir)
			data := scaffold.Data{
				ProjectName: name,
				SiteName:    scaffold.Title(name),
				SiteURL:     siteURL,
			}
			if err := scaffold.Generate(dir, data, out); err != nil {
				return err
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Done! Next steps:")
			fmt.Fprintln(out)
			fmt.Fprintf(out, "  cd %s\n", dir)
			fmt.Fprintln(out, "  sitegen serve")
			return nil
		},
	}
	cmd.Flags().StringVar(&siteURL, "url", "https://example.com", "canonical site URL")
	return cmd
}
