package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"prism/internal/ipc"
	"prism/internal/mirror"
	"prism/internal/orphan"
)

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove mirrors whose source or target library disappeared",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *mirror.Store) error {
				if client != nil {
					resp, err := client.CleanupNow()
					if err != nil {
						return err
					}
					printCleanupResult(cmd, resp.Cleaned, resp.Reasons, resp.BytesFreed, resp.UnmirroredSourceIDs)
					return nil
				}

				host, err := ctx.hostService()
				if err != nil {
					return err
				}
				cleaner := orphan.NewCleaner(store, host, cliLogger())
				result, err := cleaner.CleanupOrphanedMirrors(cmd.Context())
				if err != nil {
					return err
				}
				printCleanupResult(cmd, result.Cleaned, result.Reasons, result.BytesFreed, result.UnmirroredSourceIDs)
				return nil
			})
		},
	}
}

func printCleanupResult(cmd *cobra.Command, cleaned int, reasons []string, bytesFreed int64, unmirrored []string) {
	out := cmd.OutOrStdout()

	if cleaned == 0 {
		fmt.Fprintln(out, "No orphaned mirrors found")
	} else {
		fmt.Fprintf(out, "Cleaned %d orphaned mirrors", cleaned)
		if bytesFreed > 0 {
			fmt.Fprintf(out, " (%s freed)", humanize.Bytes(uint64(bytesFreed)))
		}
		fmt.Fprintln(out)
		for _, reason := range reasons {
			fmt.Fprintf(out, "  - %s\n", reason)
		}
	}

	if len(unmirrored) > 0 {
		fmt.Fprintf(out, "Source libraries without mirrors: %d (see `prism libraries`)\n", len(unmirrored))
	}
}
