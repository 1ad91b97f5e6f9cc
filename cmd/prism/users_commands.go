package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"prism/internal/mirror"
)

func newUsersCommand(ctx *commandContext) *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Manage per-user language assignments",
	}

	usersCmd.AddCommand(newUsersAssignCommand(ctx))
	usersCmd.AddCommand(newUsersUnassignCommand(ctx))
	usersCmd.AddCommand(newUsersListCommand(ctx))

	return usersCmd
}

func newUsersAssignCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <user-id> <alternative>",
		Short: "Assign a media server user to an alternative",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID := strings.TrimSpace(args[0])
			if userID == "" {
				return errors.New("user id is required")
			}
			return ctx.openStore(func(store *mirror.Store) error {
				alt, err := resolveAlternative(cmd, store, args[1])
				if err != nil {
					return err
				}
				if err := store.AssignUserLanguage(cmd.Context(), userID, alt.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "User %s assigned to %s\n", userID, alt.Name)
				return nil
			})
		},
	}
}

func newUsersUnassignCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unassign <user-id>",
		Short: "Clear a user's language assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.openStore(func(store *mirror.Store) error {
				removed, err := store.UnassignUserLanguage(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if !removed {
					fmt.Fprintf(cmd.OutOrStdout(), "User %s has no assignment\n", args[0])
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "User %s unassigned\n", args[0])
				return nil
			})
		},
	}
}

func newUsersListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List user language assignments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.openStore(func(store *mirror.Store) error {
				assignments, err := store.ListUserLanguages(cmd.Context())
				if err != nil {
					return err
				}
				if len(assignments) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No user assignments")
					return nil
				}

				alternatives, err := store.ListAlternatives(cmd.Context())
				if err != nil {
					return err
				}
				names := make(map[string]string, len(alternatives))
				for _, alt := range alternatives {
					names[alt.ID] = alt.Name
				}

				rows := make([][]string, 0, len(assignments))
				for _, assignment := range assignments {
					name := names[assignment.AlternativeID]
					if name == "" {
						name = shortID(assignment.AlternativeID)
					}
					rows = append(rows, []string{
						assignment.UserID,
						name,
						assignment.UpdatedAt.UTC().Format("2006-01-02 15:04"),
					})
				}
				table := renderTable(
					[]string{"User", "Alternative", "Updated"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}
