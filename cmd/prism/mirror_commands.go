package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"prism/internal/classify"
	"prism/internal/ipc"
	"prism/internal/lifecycle"
	"prism/internal/mirror"
	"prism/internal/reconcile"
)

func newMirrorCommand(ctx *commandContext) *cobra.Command {
	mirrorCmd := &cobra.Command{
		Use:   "mirror",
		Short: "Manage library mirrors",
	}

	mirrorCmd.AddCommand(newMirrorAddCommand(ctx))
	mirrorCmd.AddCommand(newMirrorListCommand(ctx))
	mirrorCmd.AddCommand(newMirrorRemoveCommand(ctx))
	mirrorCmd.AddCommand(newMirrorHealthCommand(ctx))

	return mirrorCmd
}

func newMirrorAddCommand(ctx *commandContext) *cobra.Command {
	var alternativeFlag string
	var nameFlag string

	cmd := &cobra.Command{
		Use:   "add <source-library> <target-path>",
		Short: "Mirror a source library into a new target tree",
		Long: "Mirror a source library. The target tree is seeded with hardlinks to " +
			"the source's content files and registered with the media server as a " +
			"new library carrying the alternative's language.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			host, err := ctx.hostService()
			if err != nil {
				return err
			}

			return ctx.openStore(func(store *mirror.Store) error {
				out := cmd.OutOrStdout()

				alt, err := resolveAlternative(cmd, store, alternativeFlag)
				if err != nil {
					return err
				}
				source, err := resolveSourceLibrary(cmd, host, args[0])
				if err != nil {
					return err
				}

				logger := cliLogger()
				syncer := reconcile.NewSyncer(store, classify.New(cfg), logger)
				controller := lifecycle.NewController(store, host, syncer, logger)

				prog := newSyncProgress(out, fmt.Sprintf("Linking %s", source.Name))
				m, err := controller.Create(cmd.Context(), alt.ID, lifecycle.CreateRequest{
					SourceLibraryID: source.ID,
					TargetPath:      args[1],
					Name:            nameFlag,
				}, prog.fn())
				prog.stop()

				if m == nil {
					if errors.Is(err, mirror.ErrDuplicateSource) {
						return fmt.Errorf("alternative %q already mirrors library %q", alt.Name, source.Name)
					}
					return err
				}

				fmt.Fprintf(out, "Mirror %s created for %s (%s)\n", m.DisplayName(), alt.Name, m.ID)
				if err != nil {
					fmt.Fprintf(out, "Initial sync failed: %v\n", err)
					fmt.Fprintln(out, "The mirror is registered and will be retried; see `prism status`")
					return nil
				}
				if m.LastSyncFileCount != nil {
					fmt.Fprintf(out, "Linked %d files into %s\n", *m.LastSyncFileCount, m.TargetPath)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&alternativeFlag, "alternative", "a", "", "Owning alternative (id or name)")
	cmd.Flags().StringVar(&nameFlag, "name", "", "Target library name (defaults to \"<source> (<alternative>)\")")
	_ = cmd.MarkFlagRequired("alternative")
	return cmd
}

func newMirrorListCommand(ctx *commandContext) *cobra.Command {
	var statusFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured mirrors",
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter []mirror.Status
			if strings.TrimSpace(statusFlag) != "" {
				status, ok := mirror.ParseStatus(statusFlag)
				if !ok {
					return fmt.Errorf("unknown status %q (valid: %s)", statusFlag, statusNames())
				}
				filter = append(filter, status)
			}

			return ctx.withStore(func(client *ipc.Client, store *mirror.Store) error {
				var records []ipc.MirrorRecord
				if client != nil {
					resp, err := client.MirrorList()
					if err != nil {
						return err
					}
					records = resp.Mirrors
					if len(filter) > 0 {
						records = filterMirrorRecords(records, filter[0])
					}
				} else {
					mirrors, err := store.ListMirrors(cmd.Context(), filter...)
					if err != nil {
						return err
					}
					alternatives, err := store.ListAlternatives(cmd.Context())
					if err != nil {
						return err
					}
					names := make(map[string]string, len(alternatives))
					for _, alt := range alternatives {
						names[alt.ID] = alt.Name
					}
					records = mirrorRecords(mirrors, names)
				}

				if len(records) == 0 {
					if len(filter) > 0 {
						fmt.Fprintf(cmd.OutOrStdout(), "No mirrors with status %s\n", filter[0])
						return nil
					}
					fmt.Fprintln(cmd.OutOrStdout(), "No mirrors configured")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Alternative", "Source", "Target", "Status", "Synced", "Files"},
					buildMirrorListRows(records),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
				)
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&statusFlag, "status", "", "Only show mirrors in this state ("+statusNames()+")")
	return cmd
}

func statusNames() string {
	statuses := mirror.AllStatuses()
	names := make([]string, 0, len(statuses))
	for _, status := range statuses {
		names = append(names, string(status))
	}
	return strings.Join(names, ", ")
}

func filterMirrorRecords(records []ipc.MirrorRecord, status mirror.Status) []ipc.MirrorRecord {
	var filtered []ipc.MirrorRecord
	for _, record := range records {
		if record.Status == string(status) {
			filtered = append(filtered, record)
		}
	}
	return filtered
}

func newMirrorHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check mirror database health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			dbPath := cfg.DatabasePath()
			fmt.Fprintf(out, "Database path: %s\n", dbPath)

			_, statErr := os.Stat(dbPath)
			fmt.Fprintf(out, "Database exists: %s\n", yesNo(statErr == nil))
			if statErr != nil {
				fmt.Fprintln(out, "The database is created when the daemon starts or an alternative is added")
				return nil
			}

			return ctx.openStore(func(store *mirror.Store) error {
				if err := store.CheckHealth(cmd.Context()); err != nil {
					fmt.Fprintf(out, "Responding to queries: %s\n", yesNo(false))
					return err
				}
				fmt.Fprintf(out, "Responding to queries: %s\n", yesNo(true))

				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Mirror records: %d\n", stats.Total)
				return nil
			})
		},
	}
}

func newMirrorRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <mirror-id>",
		Short: "Remove a mirror record",
		Long: "Remove a mirror record. The target tree on disk and the registered " +
			"host library are left in place; delete them separately if they are " +
			"no longer wanted.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.openStore(func(store *mirror.Store) error {
				m, err := resolveMirror(cmd, store, args[0])
				if err != nil {
					return err
				}
				removed, err := store.RemoveMirror(cmd.Context(), m.ID)
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("mirror %q not found", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed mirror %s; target tree %s left on disk\n", m.DisplayName(), m.TargetPath)
				return nil
			})
		},
	}
}

func mirrorRecords(mirrors []*mirror.Mirror, alternativeNames map[string]string) []ipc.MirrorRecord {
	records := make([]ipc.MirrorRecord, 0, len(mirrors))
	for _, m := range mirrors {
		if m == nil {
			continue
		}
		records = append(records, ipc.MirrorRecord{
			ID:                m.ID,
			AlternativeID:     m.AlternativeID,
			AlternativeName:   alternativeNames[m.AlternativeID],
			SourceLibraryID:   m.SourceLibraryID,
			SourceLibraryName: m.SourceLibraryName,
			TargetPath:        m.TargetPath,
			TargetLibraryID:   m.TargetLibraryID,
			TargetLibraryName: m.TargetLibraryName,
			CollectionType:    m.CollectionType,
			Status:            string(m.Status),
			ProgressPercent:   m.ProgressPercent,
			ProgressMessage:   m.ProgressMessage,
			LastError:         m.LastError,
			LastSyncedAt:      m.LastSyncedAt,
			LastSyncFileCount: m.LastSyncFileCount,
		})
	}
	return records
}

func buildMirrorListRows(records []ipc.MirrorRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		source := record.SourceLibraryName
		if strings.TrimSpace(source) == "" {
			source = record.SourceLibraryID
		}
		rows = append(rows, []string{
			shortID(record.ID),
			record.AlternativeName,
			source,
			record.TargetPath,
			mirrorStatusCell(record),
			formatSyncedCell(record.LastSyncedAt),
			formatFileCount(record.LastSyncFileCount),
		})
	}
	return rows
}
