package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"govcore/internal/bootstrap"
	"govcore/internal/bootstrap/logging"
	"govcore/internal/errs"
)

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Repo maturity stage progression",
}

var stageCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether a repo can advance to the next stage",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		repoID, _ := cmd.Flags().GetUint64("repo")
		check, err := svc.Stage.CheckAdvancement(ctx, repoID)
		if err != nil {
			logging.Error(ctx, "stage check failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "check stage advancement")
		}

		out := cmd.OutOrStdout()
		if check.NextStage == "" {
			_, err = fmt.Fprintf(out, "stage: repo=%d current=%s reason=%s\n",
				repoID, check.CurrentStage, check.Reason)
			return errs.Wrap(err, "write stage output")
		}

		if _, err := fmt.Fprintf(out, "stage: repo=%d current=%s next=%s eligible=%t\n",
			repoID, check.CurrentStage, check.NextStage, check.Eligible); err != nil {
			return errs.Wrap(err, "write stage output")
		}
		if len(check.Unmet) > 0 {
			if _, err := fmt.Fprintf(out, "  unmet: %s\n", strings.Join(check.Unmet, "; ")); err != nil {
				return errs.Wrap(err, "write unmet output")
			}
		}
		return nil
	}),
}

var stageAdvanceCmd = &cobra.Command{
	Use:   "advance",
	Short: "Advance a repo to the next stage",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		repoID, _ := cmd.Flags().GetUint64("repo")
		force, _ := cmd.Flags().GetBool("force")

		transition, err := svc.Stage.AdvanceStage(ctx, repoID, force)
		if err != nil {
			logging.Error(ctx, "stage advance failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "advance stage")
		}

		out := cmd.OutOrStdout()
		if !transition.Success {
			if _, err := fmt.Fprintf(out, "stage unchanged: repo=%d current=%s reason=%s\n",
				repoID, transition.FromStage, transition.Reason); err != nil {
				return errs.Wrap(err, "write advance output")
			}
			if len(transition.Unmet) > 0 {
				if _, err := fmt.Fprintf(out, "  unmet: %s\n", strings.Join(transition.Unmet, "; ")); err != nil {
					return errs.Wrap(err, "write unmet output")
				}
			}
			return nil
		}

		_, err = fmt.Fprintf(out, "stage advanced: repo=%d %s -> %s forced=%t\n",
			repoID, transition.FromStage, transition.ToStage, transition.Forced)
		return errs.Wrap(err, "write advance output")
	}),
}

var stageSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set a repo's stage directly, up or down",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		repoID, _ := cmd.Flags().GetUint64("repo")
		target, _ := cmd.Flags().GetString("stage")

		transition, err := svc.Stage.SetStage(ctx, repoID, target)
		if err != nil {
			logging.Error(ctx, "stage set failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "set stage")
		}

		if !transition.Success {
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "stage unchanged: repo=%d current=%s reason=%s\n",
				repoID, transition.FromStage, transition.Reason)
			return errs.Wrap(err, "write set output")
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "stage set: repo=%d %s -> %s\n",
			repoID, transition.FromStage, transition.ToStage)
		return errs.Wrap(err, "write set output")
	}),
}

var stageHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show a repo's stage transition log",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		repoID, _ := cmd.Flags().GetUint64("repo")
		entries, err := svc.Stage.History(ctx, repoID)
		if err != nil {
			logging.Error(ctx, "stage history failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "load stage history")
		}

		out := cmd.OutOrStdout()
		if _, err := fmt.Fprintf(out, "stage history: repo=%d entries=%d\n", repoID, len(entries)); err != nil {
			return errs.Wrap(err, "write history output")
		}
		for _, entry := range entries {
			if _, err := fmt.Fprintf(out, "  %s: %s -> %s reason=%s forced=%t\n",
				entry.TransitionedAt.Format("2006-01-02 15:04"),
				entry.FromStage, entry.ToStage, entry.Reason, entry.Forced); err != nil {
				return errs.Wrap(err, "write history entry")
			}
		}
		return nil
	}),
}

func init() {
	stageCheckCmd.Flags().Uint64("repo", 0, "Repo id")
	_ = stageCheckCmd.MarkFlagRequired("repo")

	stageAdvanceCmd.Flags().Uint64("repo", 0, "Repo id")
	stageAdvanceCmd.Flags().Bool("force", false, "Advance even when requirements are unmet")
	_ = stageAdvanceCmd.MarkFlagRequired("repo")

	stageSetCmd.Flags().Uint64("repo", 0, "Repo id")
	stageSetCmd.Flags().String("stage", "", "Target stage: seed, growth, established, mature")
	_ = stageSetCmd.MarkFlagRequired("repo")
	_ = stageSetCmd.MarkFlagRequired("stage")

	stageHistoryCmd.Flags().Uint64("repo", 0, "Repo id")
	_ = stageHistoryCmd.MarkFlagRequired("repo")

	stageCmd.AddCommand(stageCheckCmd)
	stageCmd.AddCommand(stageAdvanceCmd)
	stageCmd.AddCommand(stageSetCmd)
	stageCmd.AddCommand(stageHistoryCmd)
	rootCmd.AddCommand(stageCmd)
}
