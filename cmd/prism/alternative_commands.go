package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"prism/internal/language"
	"prism/internal/mirror"
)

func newAlternativeCommand(ctx *commandContext) *cobra.Command {
	alternativeCmd := &cobra.Command{
		Use:     "alternative",
		Aliases: []string{"alt"},
		Short:   "Manage language alternatives",
	}

	alternativeCmd.AddCommand(newAlternativeAddCommand(ctx))
	alternativeCmd.AddCommand(newAlternativeListCommand(ctx))
	alternativeCmd.AddCommand(newAlternativeRemoveCommand(ctx))

	return alternativeCmd
}

func newAlternativeAddCommand(ctx *commandContext) *cobra.Command {
	var languageFlag string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a language alternative",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return errors.New("alternative name is required")
			}

			tagInput := strings.TrimSpace(languageFlag)
			if tagInput == "" {
				tagInput = name
			}
			tag, err := language.Canonicalize(tagInput)
			if err != nil {
				if strings.TrimSpace(languageFlag) == "" {
					return fmt.Errorf("cannot derive a language tag from %q; pass one with --language", name)
				}
				return err
			}

			return ctx.openStore(func(store *mirror.Store) error {
				alt, err := store.NewAlternative(cmd.Context(), name, tag)
				if errors.Is(err, mirror.ErrDuplicateName) {
					return fmt.Errorf("alternative %q already exists", name)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added alternative %s (%s, language %s)\n",
					alt.Name, alt.ID, language.DisplayName(alt.LanguageTag))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&languageFlag, "language", "l", "", "BCP 47 language tag (defaults to the name when it parses as one)")
	return cmd
}

func newAlternativeListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List language alternatives",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.openStore(func(store *mirror.Store) error {
				alternatives, err := store.ListAlternatives(cmd.Context())
				if err != nil {
					return err
				}
				if len(alternatives) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No alternatives configured")
					return nil
				}

				rows := make([][]string, 0, len(alternatives))
				for _, alt := range alternatives {
					rows = append(rows, []string{
						alt.ID,
						alt.Name,
						fmt.Sprintf("%s (%s)", language.DisplayName(alt.LanguageTag), alt.LanguageTag),
						strconv.Itoa(alt.MirrorCount),
					})
				}
				table := renderTable(
					[]string{"ID", "Name", "Language", "Mirrors"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
				)
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func newAlternativeRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id-or-name>",
		Short: "Remove an alternative and its mirror records",
		Long: "Remove an alternative. Its mirror records and user assignments are " +
			"deleted with it; target trees on disk and registered host libraries " +
			"are left in place.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.openStore(func(store *mirror.Store) error {
				alt, err := resolveAlternative(cmd, store, args[0])
				if err != nil {
					return err
				}
				assignments, err := store.ListUserLanguagesForAlternative(cmd.Context(), alt.ID)
				if err != nil {
					return err
				}
				removed, err := store.RemoveAlternative(cmd.Context(), alt.ID)
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("alternative %q not found", args[0])
				}
				if n := len(assignments); n > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed alternative %s (%d mirror records, %d user assignments dropped)\n", alt.Name, alt.MirrorCount, n)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed alternative %s (%d mirror records dropped)\n", alt.Name, alt.MirrorCount)
				return nil
			})
		},
	}
}
