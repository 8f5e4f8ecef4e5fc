package governance

import "fmt"

// AccessLevel is a totally ordered permission tier. Comparisons go through
// Rank so callers never compare the raw strings.
type AccessLevel string

const (
	AccessNone     AccessLevel = "none"
	AccessRead     AccessLevel = "read"
	AccessWrite    AccessLevel = "write"
	AccessMaintain AccessLevel = "maintain"
	AccessAdmin    AccessLevel = "admin"
)

var accessRank = map[AccessLevel]int{
	AccessNone:     0,
	AccessRead:     1,
	AccessWrite:    2,
	AccessMaintain: 3,
	AccessAdmin:    4,
}

func (l AccessLevel) Rank() int {
	return accessRank[l]
}

func (l AccessLevel) AtLeast(other AccessLevel) bool {
	return accessRank[l] >= accessRank[other]
}

func ParseAccessLevel(raw string) (AccessLevel, error) {
	level := AccessLevel(raw)
	if _, ok := accessRank[level]; !ok {
		return "", fmt.Errorf("unknown access level %q", raw)
	}
	return level, nil
}

// Action is a caller-facing operation gated by a minimum access level.
type Action string

const (
	ActionRead     Action = "read"
	ActionWrite    Action = "write"
	ActionMerge    Action = "merge"
	ActionSettings Action = "settings"
)

var actionMinLevel = map[Action]AccessLevel{
	ActionRead:     AccessRead,
	ActionWrite:    AccessWrite,
	ActionMerge:    AccessMaintain,
	ActionSettings: AccessAdmin,
}

// MinLevelFor returns the access level required to perform action.
func MinLevelFor(action Action) (AccessLevel, error) {
	level, ok := actionMinLevel[action]
	if !ok {
		return "", fmt.Errorf("unknown action %q", action)
	}
	return level, nil
}

// PermissionSource records which waterfall step produced a resolution.
type PermissionSource string

const (
	SourceExplicit            PermissionSource = "explicit"
	SourceMaintainer          PermissionSource = "maintainer"
	SourcePublic              PermissionSource = "public"
	SourceKarma               PermissionSource = "karma"
	SourceKarmaBelowThreshold PermissionSource = "karma_below_threshold"
	SourceNotAllowlisted      PermissionSource = "not_allowlisted"
	SourcePlatformPublic      PermissionSource = "platform_public"
	SourceNotFound            PermissionSource = "not_found"
)

// MaintainerRole maps onto an effective access level: owners get admin,
// maintainers get maintain.
type MaintainerRole string

const (
	RoleOwner      MaintainerRole = "owner"
	RoleMaintainer MaintainerRole = "maintainer"
)

func (r MaintainerRole) AccessLevel() AccessLevel {
	if r == RoleOwner {
		return AccessAdmin
	}
	return AccessMaintain
}
