package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newGroupCmd(current func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Create, list, update and delete groups",
	}

	var title, slug, description string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := current().groups.Create(cmd.Context(), title, slug, description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created group %s (%s)\n", g.Slug, g.ID)
			return nil
		},
	}
	create.Flags().StringVar(&title, "title", "", "group title (required)")
	create.Flags().StringVar(&slug, "slug", "", "URL slug (required)")
	create.Flags().StringVar(&description, "description", "", "group description")
	create.MarkFlagRequired("title")
	create.MarkFlagRequired("slug")

	list := &cobra.Command{
		Use:   "list",
		Short: "List groups in creation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := current().groups.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSLUG\tTITLE")
			for _, g := range groups {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", g.ID, g.Slug, g.Title)
			}
			return tw.Flush()
		},
	}

	var newTitle, newDescription string
	update := &cobra.Command{
		Use:   "update <slug>",
		Short: "Change a group's title or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var t, d *string
			if cmd.Flags().Changed("title") {
				t = &newTitle
			}
			if cmd.Flags().Changed("description") {
				d = &newDescription
			}
			if t == nil && d == nil {
				return errors.New("nothing to update: pass --title and/or --description")
			}
			g, err := current().groups.Update(cmd.Context(), args[0], t, d)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated group %s\n", g.Slug)
			return nil
		},
	}
	update.Flags().StringVar(&newTitle, "title", "", "new title")
	update.Flags().StringVar(&newDescription, "description", "", "new description")

	del := &cobra.Command{
		Use:   "delete <slug>",
		Short: "Delete a group; its posts stay, without a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := current().groups.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted group %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(create, list, update, del)
	return cmd
}
