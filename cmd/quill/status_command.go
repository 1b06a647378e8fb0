package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"quill/internal/api"
	"quill/internal/pipeline"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and pipeline status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			daemonKind := statusWarn
			daemonDetail := "not running"
			if status.Running {
				daemonKind = statusOK
				daemonDetail = fmt.Sprintf("running (pid %d)", status.PID)
			}
			fmt.Fprintln(out, renderStatusLine("Daemon", daemonKind, daemonDetail, colorize))

			schedulerKind := statusOK
			schedulerDetail := "active"
			if status.SchedulerPaused {
				schedulerKind = statusWarn
				schedulerDetail = "paused"
			} else if !status.NextRunAt.IsZero() {
				schedulerDetail = "next run " + status.NextRunAt.Local().Format(time.Kitchen)
			}
			fmt.Fprintln(out, renderStatusLine("Scheduler", schedulerKind, schedulerDetail, colorize))

			fmt.Fprintln(out, renderStatusLine("Run", runStatusKind(status.Run), describeRun(status.Run), colorize))
			if status.Run.LastError != "" {
				fmt.Fprintln(out, renderStatusLine("Last error", statusError, status.Run.LastError, colorize))
			}
			fmt.Fprintln(out, renderStatusLine("Ledger", statusInfo, status.LedgerPath, colorize))
			return nil
		},
	}
}

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check connectivity to the mailbox, extractor, and destination",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			health, err := client.Health(cmd.Context())
			if err != nil && len(health.Checks) == 0 {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, check := range health.Checks {
				kind := statusOK
				detail := "reachable"
				if !check.Healthy {
					kind = statusError
					detail = check.Detail
				}
				fmt.Fprintln(out, renderStatusLine(check.Name, kind, detail, colorize))
			}
			if !health.Healthy {
				return fmt.Errorf("one or more collaborators are unreachable")
			}
			return nil
		},
	}
}

func runStatusKind(run api.RunStatus) statusKind {
	switch run.Phase {
	case pipeline.PhaseFailed:
		return statusError
	case pipeline.PhaseCompletedWithErrors, pipeline.PhaseInterrupted:
		return statusWarn
	case pipeline.PhaseIdle:
		return statusInfo
	default:
		return statusOK
	}
}

func describeRun(run api.RunStatus) string {
	if run.Phase == pipeline.PhaseIdle || run.RunID == "" {
		return "idle"
	}
	detail := fmt.Sprintf("%s (%d published, %d skipped, %d errors)",
		run.Phase, run.Stats.Published, run.Stats.Skipped, run.Stats.Errors)
	if run.IsRunning {
		return detail + " since " + run.StartedAt.Local().Format(time.Kitchen)
	}
	return detail
}
