package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/yatube/internal/service"
)

const (
	dateLayout = "2006-01-02 15:04"
	dayLayout  = "2006-01-02"
)

func newPostCmd(current func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Inspect posts and move them between groups",
	}
	cmd.AddCommand(newPostListCmd(current), newPostSetGroupCmd(current))
	return cmd
}

func newPostListCmd(current func() *app) *cobra.Command {
	var (
		search       string
		since, until string
		page         int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List posts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := service.SearchQuery{Text: search}
			var err error
			if q.Since, err = parseDay(since); err != nil {
				return fmt.Errorf("--since: %w", err)
			}
			if q.Until, err = parseDay(until); err != nil {
				return fmt.Errorf("--until: %w", err)
			}
			// --until names the last day to include
			if !q.Until.IsZero() {
				q.Until = q.Until.AddDate(0, 0, 1)
			}

			p, err := current().posts.Search(cmd.Context(), q, strconv.Itoa(page))
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tDATE\tAUTHOR\tGROUP")
			for i := range p.Items {
				post := &p.Items[i]
				group := "-"
				if post.Group != nil {
					group = post.Group.Slug
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					post.ID, post.Title(), post.CreatedAt.Local().Format(dateLayout), post.Author.Username, group)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d, %d posts\n", p.Number, p.NumPages, p.Count)
			return nil
		},
	}
	list.Flags().StringVar(&search, "search", "", "only posts whose text contains this")
	list.Flags().StringVar(&since, "since", "", "only posts published on or after this day (YYYY-MM-DD)")
	list.Flags().StringVar(&until, "until", "", "only posts published on or before this day (YYYY-MM-DD)")
	list.Flags().IntVar(&page, "page", 1, "page number")
	return list
}

func newPostSetGroupCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-group <post-id> [group-slug]",
		Short: "File a post under a group, or remove it from its group when no slug is given",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			var groupID *string
			if len(args) == 2 {
				g, err := a.groups.GetBySlug(cmd.Context(), args[1])
				if err != nil {
					return err
				}
				groupID = &g.ID
			}

			post, err := a.posts.SetGroup(cmd.Context(), args[0], groupID)
			if err != nil {
				return err
			}
			if post.Group == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "post %s has no group\n", post.ID)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "post %s moved to %s\n", post.ID, post.Group.Slug)
			return nil
		},
	}
}

// parseDay reads a YYYY-MM-DD day in local time; "" is no bound.
func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(dayLayout, s, time.Local)
}
