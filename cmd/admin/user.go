package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUserCmd(current func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	del := &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete a user with their posts, comments and follows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := current().accounts.DeleteUser(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted user %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(del)
	return cmd
}
