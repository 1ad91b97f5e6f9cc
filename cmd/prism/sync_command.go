package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"prism/internal/classify"
	"prism/internal/ipc"
	"prism/internal/mirror"
	"prism/internal/reconcile"
	"prism/internal/services/jellyfin"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var mirrorFlag string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize mirrors with their source libraries",
		Long: "Synchronize mirrors. With the daemon running the work is handed to " +
			"its scheduler; otherwise the reconciliation runs in this process.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *mirror.Store) error {
				out := cmd.OutOrStdout()

				if client != nil {
					mirrorID := ""
					if mirrorFlag != "" {
						resp, err := client.MirrorList()
						if err != nil {
							return err
						}
						record, err := matchMirrorRecord(resp.Mirrors, mirrorFlag)
						if err != nil {
							return err
						}
						mirrorID = record.ID
					}
					resp, err := client.SyncNow(mirrorID)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, firstNonEmpty(resp.Message, "Sync requested"))
					return nil
				}

				return runDirectSync(cmd, ctx, store, mirrorFlag)
			})
		},
	}

	cmd.Flags().StringVarP(&mirrorFlag, "mirror", "m", "", "Synchronize only this mirror (id or prefix)")
	return cmd
}

// runDirectSync reconciles mirrors without the daemon. Per-mirror failures
// are reported and the batch continues.
func runDirectSync(cmd *cobra.Command, ctx *commandContext, store *mirror.Store, mirrorFlag string) error {
	out := cmd.OutOrStdout()
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	host, err := ctx.hostService()
	if err != nil {
		return err
	}

	var mirrors []*mirror.Mirror
	if mirrorFlag != "" {
		m, err := resolveMirror(cmd, store, mirrorFlag)
		if err != nil {
			return err
		}
		mirrors = []*mirror.Mirror{m}
	} else {
		mirrors, err = store.ListMirrors(cmd.Context())
		if err != nil {
			return err
		}
	}
	if len(mirrors) == 0 {
		fmt.Fprintln(out, "No mirrors configured")
		return nil
	}

	libraries, err := host.ListLibraries(cmd.Context())
	if err != nil {
		return fmt.Errorf("list libraries: %w", err)
	}
	byID := make(map[string]jellyfin.VirtualLibrary, len(libraries))
	for _, lib := range libraries {
		byID[lib.ID] = lib
	}

	syncer := reconcile.NewSyncer(store, classify.New(cfg), cliLogger())

	prog := newSyncProgress(out, "Synchronizing")
	defer prog.stop()

	synced, failed, skipped := 0, 0, 0
	for _, m := range mirrors {
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		source, ok := byID[m.SourceLibraryID]
		if !ok || len(source.Locations) == 0 {
			skipped++
			fmt.Fprintf(out, "Skipped %s: source library unavailable\n", m.DisplayName())
			continue
		}

		prog.retarget(fmt.Sprintf("Syncing %s", m.DisplayName()))
		err := syncer.Synchronize(cmd.Context(), m, source.Locations, prog.fn())
		switch {
		case err == nil:
			synced++
		case errors.Is(err, context.Canceled):
			return err
		case errors.Is(err, reconcile.ErrSyncInProgress):
			skipped++
			fmt.Fprintf(out, "Skipped %s: sync already in progress\n", m.DisplayName())
		default:
			failed++
			fmt.Fprintf(out, "Failed %s: %v\n", m.DisplayName(), err)
		}
	}
	prog.stop()

	fmt.Fprintf(out, "Synchronized %d mirrors", synced)
	if failed > 0 {
		fmt.Fprintf(out, ", %d failed", failed)
	}
	if skipped > 0 {
		fmt.Fprintf(out, ", %d skipped", skipped)
	}
	fmt.Fprintln(out)
	return nil
}

func matchMirrorRecord(records []ipc.MirrorRecord, value string) (*ipc.MirrorRecord, error) {
	var prefixMatches []*ipc.MirrorRecord
	for i := range records {
		if records[i].ID == value {
			return &records[i], nil
		}
		if len(value) > 0 && len(records[i].ID) >= len(value) && records[i].ID[:len(value)] == value {
			prefixMatches = append(prefixMatches, &records[i])
		}
	}
	switch len(prefixMatches) {
	case 1:
		return prefixMatches[0], nil
	case 0:
		return nil, fmt.Errorf("mirror %q not found", value)
	default:
		return nil, fmt.Errorf("mirror id %q is ambiguous (%d matches)", value, len(prefixMatches))
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
