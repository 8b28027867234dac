package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"ledgersync/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent synchronization cycles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := history.Open(cfg.HistoryDBPath())
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No cycles recorded yet")
				return nil
			}

			if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
				fmt.Fprintln(cmd.OutOrStdout(), renderCycleTable(entries))
				return nil
			}
			writeCycleTSV(cmd.OutOrStdout(), entries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of cycles to show")
	return cmd
}

// renderCycleTable renders cycle history for interactive terminals. Count
// columns are right-aligned; everything else reads left to right.
func renderCycleTable(entries []history.Entry) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"CYCLE", "STARTED", "TOOK", "OUTCOME", "UPLOADED", "CANCELLED", "ERROR"})
	for _, entry := range entries {
		tw.AppendRow(table.Row{
			entry.CycleID,
			entry.StartedAt.Local().Format("2006-01-02 15:04"),
			cycleDuration(entry),
			entry.Outcome,
			entry.Uploaded,
			entry.Cancellations,
			cycleError(entry),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Name: "TOOK", Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Name: "UPLOADED", Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Name: "CANCELLED", Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// writeCycleTSV emits one tab-separated line per cycle for piped output.
func writeCycleTSV(w io.Writer, entries []history.Entry) {
	for _, entry := range entries {
		fmt.Fprintln(w, strings.Join([]string{
			entry.CycleID,
			entry.StartedAt.Local().Format("2006-01-02 15:04"),
			cycleDuration(entry),
			entry.Outcome,
			fmt.Sprintf("%d", entry.Uploaded),
			fmt.Sprintf("%d", entry.Cancellations),
			cycleError(entry),
		}, "\t"))
	}
}

func cycleDuration(entry history.Entry) string {
	return entry.FinishedAt.Sub(entry.StartedAt).Round(time.Second).String()
}

func cycleError(entry history.Entry) string {
	if entry.Error == "" {
		return "-"
	}
	return entry.Error
}
