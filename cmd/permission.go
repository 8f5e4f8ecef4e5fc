package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"govcore/internal/bootstrap"
	"govcore/internal/bootstrap/logging"
	"govcore/internal/domain/governance"
	"govcore/internal/errs"
)

var permissionCmd = &cobra.Command{
	Use:   "permission",
	Short: "Resolve agent permissions and push rights",
}

var permissionCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Resolve an agent's effective access level on a repo",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		agentID, _ := cmd.Flags().GetUint64("agent")
		repoID, _ := cmd.Flags().GetUint64("repo")
		action, _ := cmd.Flags().GetString("action")

		if action == "" {
			resolution, err := svc.Permission.Resolve(ctx, agentID, repoID)
			if err != nil {
				logging.Error(ctx, "permission resolution failed", slog.Any("err", errs.Loggable(err)))
				return errs.Wrap(err, "resolve permission")
			}
			_, err = fmt.Fprintf(
				cmd.OutOrStdout(),
				"permission: agent=%d repo=%d level=%s source=%s\n",
				agentID, repoID, resolution.Level, resolution.Source,
			)
			return errs.Wrap(err, "write permission output")
		}

		decision, err := svc.Permission.CanPerform(ctx, agentID, repoID, governance.Action(action))
		if err != nil {
			logging.Error(ctx, "permission check failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "check permission")
		}
		_, err = fmt.Fprintf(
			cmd.OutOrStdout(),
			"permission: agent=%d repo=%d action=%s allowed=%t level=%s required=%s source=%s\n",
			agentID, repoID, action, decision.Allowed, decision.Level, decision.Required, decision.Source,
		)
		return errs.Wrap(err, "write permission output")
	}),
}

var permissionPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Check whether an agent may push directly to a branch",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		agentID, _ := cmd.Flags().GetUint64("agent")
		repoID, _ := cmd.Flags().GetUint64("repo")
		branch, _ := cmd.Flags().GetString("branch")

		decision, err := svc.Permission.CanPushToBranch(ctx, agentID, repoID, branch)
		if err != nil {
			logging.Error(ctx, "branch push check failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "check branch push")
		}

		rule := "-"
		if decision.Rule != nil {
			rule = decision.Rule.BranchPattern
		}
		_, err = fmt.Fprintf(
			cmd.OutOrStdout(),
			"push: agent=%d repo=%d branch=%s allowed=%t reason=%s rule=%s\n",
			agentID, repoID, branch, decision.Allowed, decision.Reason, rule,
		)
		return errs.Wrap(err, "write push output")
	}),
}

func init() {
	permissionCheckCmd.Flags().Uint64("agent", 0, "Agent id")
	permissionCheckCmd.Flags().Uint64("repo", 0, "Repo id")
	permissionCheckCmd.Flags().String("action", "", "Optional action to gate: read, write, merge, settings")
	_ = permissionCheckCmd.MarkFlagRequired("agent")
	_ = permissionCheckCmd.MarkFlagRequired("repo")

	permissionPushCmd.Flags().Uint64("agent", 0, "Agent id")
	permissionPushCmd.Flags().Uint64("repo", 0, "Repo id")
	permissionPushCmd.Flags().String("branch", "", "Branch name")
	_ = permissionPushCmd.MarkFlagRequired("agent")
	_ = permissionPushCmd.MarkFlagRequired("repo")
	_ = permissionPushCmd.MarkFlagRequired("branch")

	permissionCmd.AddCommand(permissionCheckCmd)
	permissionCmd.AddCommand(permissionPushCmd)
	rootCmd.AddCommand(permissionCmd)
}
