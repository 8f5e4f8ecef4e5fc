package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"govcore/internal/bootstrap"
	"govcore/internal/bootstrap/logging"
	"govcore/internal/errs"
)

var consensusCmd = &cobra.Command{
	Use:   "consensus",
	Short: "Weighted merge consensus checks",
}

var consensusCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether a patch's reviews satisfy the repo merge policy",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		patchID, _ := cmd.Flags().GetUint64("patch")
		repoID, _ := cmd.Flags().GetUint64("repo")

		result, err := svc.Consensus.Check(ctx, patchID, repoID)
		if err != nil {
			logging.Error(ctx, "consensus check failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "check consensus")
		}

		_, err = fmt.Fprintf(
			cmd.OutOrStdout(),
			"consensus: patch=%d repo=%d reached=%t reason=%s ratio=%.3f reviews=%d weight=%.2f/%.2f\n",
			patchID, repoID, result.Reached, result.Reason, result.Ratio,
			result.ReviewCount, result.ApprovalWeight, result.TotalWeight,
		)
		return errs.Wrap(err, "write consensus output")
	}),
}

func init() {
	consensusCheckCmd.Flags().Uint64("patch", 0, "Patch id")
	consensusCheckCmd.Flags().Uint64("repo", 0, "Repo id")
	_ = consensusCheckCmd.MarkFlagRequired("patch")
	_ = consensusCheckCmd.MarkFlagRequired("repo")

	consensusCmd.AddCommand(consensusCheckCmd)
	rootCmd.AddCommand(consensusCmd)
}
