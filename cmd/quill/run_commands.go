package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Trigger a pipeline run now",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.TriggerRun(cmd.Context())
			if err != nil {
				if resp.Message != "" {
					return fmt.Errorf("%s", resp.Message)
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Run started")
			return nil
		},
	}
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Ask the daemon to shut down",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			if _, err := client.Shutdown(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Shutdown requested; any in-flight run stops at the next document boundary")
			return nil
		},
	}
}

func newSchedulerCommand(ctx *commandContext) *cobra.Command {
	schedulerCmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Control timer-triggered runs",
	}

	schedulerCmd.AddCommand(&cobra.Command{
		Use:   "pause",
		Short: "Suspend timer-triggered runs (manual runs keep working)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			if _, err := client.PauseScheduler(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Scheduler paused")
			return nil
		},
	})
	schedulerCmd.AddCommand(&cobra.Command{
		Use:   "resume",
		Short: "Re-enable timer-triggered runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			if _, err := client.ResumeScheduler(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Scheduler resumed")
			return nil
		},
	})

	return schedulerCmd
}

func newPromptsCommand(ctx *commandContext) *cobra.Command {
	promptsCmd := &cobra.Command{
		Use:   "prompts",
		Short: "Manage extraction prompts",
	}

	promptsCmd.AddCommand(&cobra.Command{
		Use:   "reload",
		Short: "Re-read the prompt files without restarting the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.ReloadPrompts(cmd.Context())
			if err != nil {
				return err
			}
			if !resp.Reloaded {
				return fmt.Errorf("prompt reload failed: %s", resp.Message)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Prompts reloaded")
			return nil
		},
	})

	return promptsCmd
}
