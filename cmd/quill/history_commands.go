package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently processed newsletters",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			history, err := client.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(history.Records) == 0 {
				fmt.Fprintln(out, "No processed newsletters yet")
				return nil
			}

			rows := make([][]string, 0, len(history.Records))
			for _, record := range history.Records {
				rows = append(rows, []string{
					formatProcessedAt(record.ProcessedAt),
					truncateCell(record.Subject, 48),
					record.Sender,
					strconv.Itoa(record.Score),
					record.Status,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Processed", "Subject", "Sender", "Score", "Status"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries to show")
	return cmd
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate processing statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			stats, err := client.Stats(cmd.Context())
			if err != nil {
				return err
			}

			rows := [][]string{
				{"Total processed", strconv.Itoa(stats.Total)},
				{"Published", strconv.Itoa(stats.Published)},
				{"Published partially", strconv.Itoa(stats.Partial)},
				{"Skipped", strconv.Itoa(stats.Skipped)},
				{"Failed", strconv.Itoa(stats.Failed)},
				{"Recorded errors", strconv.Itoa(stats.Errors)},
				{"Average score", fmt.Sprintf("%.1f", stats.AvgScore)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Metric", "Value"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}

func formatProcessedAt(value string) string {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return parsed.Local().Format("2006-01-02 15:04")
}

func truncateCell(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
