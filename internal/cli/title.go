package cli

import (
	"github.com/spf13/cobra"
)

// NewTitleCommand creates the title command.
func NewTitleCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "title <url>",
		Short: "Look up a page title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rootOpts.client(cmd, true)
			if err != nil {
				return err
			}
			r, err := c.FetchTitle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return rootOpts.printer(cmd.OutOrStdout()).line(r, "%s (%s)", r.Title, r.Source)
		},
	}
}
