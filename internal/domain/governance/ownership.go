package governance

// OwnershipModel decides whose reviews count toward merge consensus.
type OwnershipModel string

const (
	OwnershipSolo  OwnershipModel = "solo"
	OwnershipGuild OwnershipModel = "guild"
	OwnershipOpen  OwnershipModel = "open"
)

func IsOwnershipModel(raw string) bool {
	switch OwnershipModel(raw) {
	case OwnershipSolo, OwnershipGuild, OwnershipOpen:
		return true
	}
	return false
}

// AgentAccessMode is the repo (or org-default) policy for agents without an
// explicit grant or maintainer row.
type AgentAccessMode string

const (
	AgentAccessPublic         AgentAccessMode = "public"
	AgentAccessKarmaThreshold AgentAccessMode = "karma_threshold"
	AgentAccessAllowlist      AgentAccessMode = "allowlist"
	AgentAccessNone           AgentAccessMode = "none"
)
