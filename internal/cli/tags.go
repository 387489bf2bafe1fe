package cli

import (
	"github.com/spf13/cobra"

	"github.com/smartbookmarks/smartbookmarks/internal/client"
)

// NewTagCommand creates the tag command group.
func NewTagCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage tags",
	}

	cmd.AddCommand(newTagListCommand(rootOpts))
	cmd.AddCommand(newTagAddCommand(rootOpts))
	cmd.AddCommand(newTagEditCommand(rootOpts))
	cmd.AddCommand(newTagRemoveCommand(rootOpts))
	cmd.AddCommand(newTagApplyCommand(rootOpts, true))
	cmd.AddCommand(newTagApplyCommand(rootOpts, false))

	return cmd
}

func newTagListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List tags",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rootOpts.client(cmd, true)
			if err != nil {
				return err
			}
			tags, err := c.ListTags(cmd.Context(), "")
			if err != nil {
				return err
			}
			return rootOpts.printer(cmd.OutOrStdout()).tags(tags)
		},
	}
}

func newTagAddCommand(rootOpts *RootOptions) *cobra.Command {
	var color string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rootOpts.client(cmd, true)
			if err != nil {
				return err
			}
			t, err := c.CreateTag(cmd.Context(), args[0], color)
			if err != nil {
				return err
			}
			return rootOpts.printer(cmd.OutOrStdout()).line(t, "Created tag %s %s", t.ID, tagLabel(*t))
		},
	}

	cmd.Flags().StringVar(&color, "color", "", "tag color (default: blue)")

	return cmd
}

func newTagEditCommand(rootOpts *RootOptions) *cobra.Command {
	var name, color string

	cmd := &cobra.Command{
		Use:   "edit <tag>",
		Short: "Rename or recolor a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch client.TagPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("color") {
				patch.Color = &color
			}
			if patch.Name == nil && patch.Color == nil {
				return NewExitError(ExitUsage, "nothing to change: pass --name and/or --color")
			}

			ctx := cmd.Context()
			c, err := rootOpts.client(cmd, true)
			if err != nil {
				return err
			}
			ids, err := resolveTags(ctx, c, args)
			if err != nil {
				return err
			}
			t, err := c.UpdateTag(ctx, ids[0], patch)
			if err != nil {
				return err
			}
			return rootOpts.printer(cmd.OutOrStdout()).line(t, "Updated tag %s %s", t.ID, tagLabel(*t))
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&color, "color", "", "new color")

	return cmd
}

func newTagRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <tag>",
		Aliases: []string{"delete"},
		Short:   "Delete a tag from every bookmark",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := rootOpts.client(cmd, true)
			if err != nil {
				return err
			}
			ids, err := resolveTags(ctx, c, args)
			if err != nil {
				return err
			}
			if err := c.DeleteTag(ctx, ids[0]); err != nil {
				return err
			}
			return rootOpts.printer(cmd.OutOrStdout()).line(map[string]string{"deleted": ids[0]}, "Deleted tag %s", ids[0])
		},
	}
}

// newTagApplyCommand builds "tag apply" or "tag unapply".
func newTagApplyCommand(rootOpts *RootOptions, apply bool) *cobra.Command {
	use, short, verb := "apply", "Apply a tag to a bookmark", "Tagged"
	if !apply {
		use, short, verb = "unapply", "Remove a tag from a bookmark", "Untagged"
	}

	return &cobra.Command{
		Use:   use + " <bookmark-id> <tag>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := rootOpts.client(cmd, true)
			if err != nil {
				return err
			}
			ids, err := resolveTags(ctx, c, args[1:])
			if err != nil {
				return err
			}
			if apply {
				err = c.AddTag(ctx, args[0], ids[0])
			} else {
				err = c.RemoveTag(ctx, args[0], ids[0])
			}
			if err != nil {
				return err
			}
			result := map[string]string{"bookmark_id": args[0], "tag_id": ids[0]}
			return rootOpts.printer(cmd.OutOrStdout()).line(result, "%s %s with %s", verb, args[0], ids[0])
		},
	}
}
