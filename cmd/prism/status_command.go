package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"prism/internal/daemonctl"
	"prism/internal/mirror"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show system and mirror status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			snapshot, err := daemonctl.BuildStatusSnapshot(cmd.Context(), ctx.socketPath(), cfg)
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("System Status", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, check := range snapshot.Checks {
				fmt.Fprintln(stdout, renderStatusLine(check.Name, statusKindFromPassed(check.Passed), check.Detail, colorize))
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range daemonStatusLines(snapshot, ctx.socketPath(), colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Mirror Status", colorize) {
				fmt.Fprintln(stdout, line)
			}

			rows := buildMirrorStatusRows(snapshot.Stats)
			if len(rows) == 0 {
				fmt.Fprintln(stdout, "No mirrors registered")
				return nil
			}

			table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
			fmt.Fprint(stdout, table)
			return nil
		},
	}
}

func daemonStatusLines(snapshot *daemonctl.StatusSnapshot, socketPath string, colorize bool) []string {
	if snapshot.Daemon == nil {
		return []string{
			renderStatusLine("Daemon", statusWarn, "Not running (showing database state)", colorize),
		}
	}

	resp := snapshot.Daemon
	lines := make([]string, 0, 5)
	if resp.Running {
		detail := "Running"
		if resp.PID > 0 {
			detail = fmt.Sprintf("Running (pid %d)", resp.PID)
		}
		lines = append(lines, renderStatusLine("Daemon", statusOK, detail, colorize))
	} else {
		lines = append(lines, renderStatusLine("Daemon", statusWarn, "Process up, services stopped", colorize))
	}
	if path := strings.TrimSpace(resp.DatabasePath); path != "" {
		lines = append(lines, renderStatusLine("Database", statusInfo, path, colorize))
	}
	if socketPath != "" {
		lines = append(lines, renderStatusLine("Socket", statusInfo, socketPath, colorize))
	}
	if !resp.LastCycle.IsZero() {
		lines = append(lines, renderStatusLine("Last Sync Cycle", statusInfo, formatRelativeTime(resp.LastCycle), colorize))
	}
	if msg := strings.TrimSpace(resp.LastError); msg != "" {
		lines = append(lines, renderStatusLine("Last Error", statusError, msg, colorize))
	}
	return lines
}

func buildMirrorStatusRows(stats mirror.Summary) [][]string {
	if stats.Total == 0 {
		return nil
	}
	rows := [][]string{}
	add := func(label string, count int) {
		if count > 0 {
			rows = append(rows, []string{label, strconv.Itoa(count)})
		}
	}
	add("Pending", stats.Pending)
	add("Syncing", stats.Syncing)
	add("Synced", stats.Synced)
	add("Error", stats.Errored)
	rows = append(rows, []string{"Total", strconv.Itoa(stats.Total)})
	return rows
}

// formatRelativeTime keeps fresh cycles readable at a glance and switches to
// an absolute stamp once "days ago" would stop being useful.
func formatRelativeTime(t time.Time) string {
	if time.Since(t) < 24*time.Hour {
		return humanize.Time(t)
	}
	return t.Format("2006-01-02 15:04")
}
