package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/smartbookmarks/smartbookmarks/internal/client"
)

// NewShareCommand creates the share command group.
func NewShareCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Manage shared collections",
	}

	cmd.AddCommand(newShareCreateCommand(rootOpts))
	cmd.AddCommand(newShareListCommand(rootOpts))
	cmd.AddCommand(newShareEditCommand(rootOpts))
	cmd.AddCommand(newShareRemoveCommand(rootOpts))
	cmd.AddCommand(newShareShowCommand(rootOpts))

	return cmd
}

func newShareCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var description string
	var private bool

	cmd := &cobra.Command{
		Use:   "create <name> <bookmark-id>...",
		Short: "Share bookmarks under a public link",
		Long: `Create a collection of bookmarks, in the order given, reachable through
a random link. Collections are public unless --private is set.

Example:
  bookmarks share create "Go reading" bm_abc bm_def --description "Start here"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rootOpts.client(cmd, true)
			if err != nil {
				return err
			}
			in := client.NewCollection{Name: args[0], BookmarkIDs: args[1:]}
			if cmd.Flags().Changed("description") {
				in.Description = &description
			}
			if private {
				public := false
				in.IsPublic = &public
			}
			col, err := c.CreateCollection(cmd.Context(), in)
			if err != nil {
				return err
			}
			return rootOpts.printer(cmd.OutOrStdout()).line(col, "Created %s: %s", col.ID, c.ShareURL(col.Slug))
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "collection description")
	cmd.Flags().BoolVar(&private, "private", false, "create without a working public link")

	return cmd
}

func newShareListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List your collections",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rootOpts.client(cmd, true)
			if err != nil {
				return err
			}
			cols, err := c.ListCollections(cmd.Context())
			if err != nil {
				return err
			}

			p := rootOpts.printer(cmd.OutOrStdout())
			if p.json() {
				return p.value(cols)
			}
			if len(cols) == 0 {
				_, err := fmt.Fprintln(p.w, "No collections.")
				return err
			}
			tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tBOOKMARKS\tPUBLIC\tLINK\tUPDATED")
			for _, col := range cols {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%t\t%s\t%s\n",
					col.ID, col.Name, len(col.BookmarkIDs), col.IsPublic, c.ShareURL(col.Slug), humanize.Time(col.UpdatedAt))
			}
			return tw.Flush()
		},
	}
}

func newShareEditCommand(rootOpts *RootOptions) *cobra.Command {
	var name, description string
	var public bool

	cmd := &cobra.Command{
		Use:   "edit <collection-id>",
		Short: "Change a collection's name, description or visibility",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch client.CollectionPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("public") {
				patch.IsPublic = &public
			}
			if patch.Name == nil && patch.Description == nil && patch.IsPublic == nil {
				return NewExitError(ExitUsage, "nothing to change: pass --name, --description or --public")
			}

			c, err := rootOpts.client(cmd, true)
			if err != nil {
				return err
			}
			col, err := c.UpdateCollection(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			return rootOpts.printer(cmd.OutOrStdout()).line(col, "Updated %s", col.ID)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description, empty to clear")
	cmd.Flags().BoolVar(&public, "public", true, "whether the link works")

	return cmd
}

func newShareRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <collection-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a collection; its bookmarks stay",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rootOpts.client(cmd, true)
			if err != nil {
				return err
			}
			if err := c.DeleteCollection(cmd.Context(), args[0]); err != nil {
				return err
			}
			return rootOpts.printer(cmd.OutOrStdout()).line(map[string]string{"deleted": args[0]}, "Deleted %s", args[0])
		},
	}
}

func newShareShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <slug>",
		Short: "Show a public collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rootOpts.client(cmd, false)
			if err != nil {
				return err
			}
			col, err := c.GetSharedCollection(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			p := rootOpts.printer(cmd.OutOrStdout())
			if p.json() {
				return p.value(col)
			}
			fmt.Fprintf(p.w, "%s\n", col.Name)
			if col.Description != nil {
				fmt.Fprintf(p.w, "%s\n", *col.Description)
			}
			tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
			for i, b := range col.Bookmarks {
				fmt.Fprintf(tw, "%d.\t%s\t%s\n", i+1, b.Title, b.URL)
			}
			return tw.Flush()
		},
	}
}
