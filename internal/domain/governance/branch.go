package governance

import "strings"

// DirectPushPolicy controls who may push to a protected branch without a patch.
type DirectPushPolicy string

const (
	DirectPushNone        DirectPushPolicy = "none"
	DirectPushMaintainers DirectPushPolicy = "maintainers"
	DirectPushAll         DirectPushPolicy = "all"
)

// MatchesBranchPattern matches a branch name against a rule pattern.
// Supported forms: exact equality, a trailing-wildcard prefix ("release/*"),
// and the bare "*" which matches every branch.
func MatchesBranchPattern(pattern string, branch string) bool {
	if pattern == "*" {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(branch, strings.TrimSuffix(pattern, "*"))
	}
	return pattern == branch
}

// PushReason explains a branch-push decision.
type PushReason string

const (
	PushInsufficientPermissions PushReason = "insufficient_permissions"
	PushNoBranchRule            PushReason = "no_branch_rule"
	PushBranchProtected         PushReason = "branch_protected"
	PushMaintainersOnly         PushReason = "maintainers_only"
	PushAllowed                 PushReason = "allowed"
)
