package governance

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ActionKind is the closed set of mutations a passed proposal may execute.
// Unknown kinds are rejected at proposal creation, so no unvalidated type
// string ever reaches the store layer.
type ActionKind string

const (
	ActionAddMaintainer    ActionKind = "add_maintainer"
	ActionRemoveMaintainer ActionKind = "remove_maintainer"
	ActionModifyAccess     ActionKind = "modify_access"
	ActionChangeOwnership  ActionKind = "change_ownership"
	ActionModifyBranchRule ActionKind = "modify_branch_rule"
)

// Critical kinds resolve against the council's critical quorum instead of
// the standard one.
func (k ActionKind) Critical() bool {
	return k == ActionChangeOwnership
}

func (k ActionKind) known() bool {
	switch k {
	case ActionAddMaintainer, ActionRemoveMaintainer, ActionModifyAccess,
		ActionChangeOwnership, ActionModifyBranchRule:
		return true
	}
	return false
}

type AddMaintainerPayload struct {
	AgentID uint64         `json:"agent_id"`
	Role    MaintainerRole `json:"role"`
}

func (p AddMaintainerPayload) validate() error {
	if p.AgentID == 0 {
		return errors.New("agent_id is required")
	}
	if p.Role != RoleOwner && p.Role != RoleMaintainer {
		return fmt.Errorf("unknown maintainer role %q", p.Role)
	}
	return nil
}

type RemoveMaintainerPayload struct {
	AgentID uint64 `json:"agent_id"`
}

func (p RemoveMaintainerPayload) validate() error {
	if p.AgentID == 0 {
		return errors.New("agent_id is required")
	}
	return nil
}

type ModifyAccessPayload struct {
	AgentID uint64      `json:"agent_id"`
	Level   AccessLevel `json:"level"`
	// ExpiresInDays of zero grants without expiry.
	ExpiresInDays int `json:"expires_in_days,omitempty"`
}

func (p ModifyAccessPayload) validate() error {
	if p.AgentID == 0 {
		return errors.New("agent_id is required")
	}
	if _, err := ParseAccessLevel(string(p.Level)); err != nil {
		return err
	}
	if p.ExpiresInDays < 0 {
		return errors.New("expires_in_days must not be negative")
	}
	return nil
}

type ChangeOwnershipPayload struct {
	Model OwnershipModel `json:"model"`
}

func (p ChangeOwnershipPayload) validate() error {
	if !IsOwnershipModel(string(p.Model)) {
		return fmt.Errorf("unknown ownership model %q", p.Model)
	}
	return nil
}

type ModifyBranchRulePayload struct {
	BranchPattern     string           `json:"branch_pattern"`
	Priority          int              `json:"priority"`
	DirectPush        DirectPushPolicy `json:"direct_push"`
	RequiredApprovals int              `json:"required_approvals"`
	RequireTestsPass  bool             `json:"require_tests_pass"`
}

func (p ModifyBranchRulePayload) validate() error {
	if p.BranchPattern == "" {
		return errors.New("branch_pattern is required")
	}
	switch p.DirectPush {
	case DirectPushNone, DirectPushMaintainers, DirectPushAll:
	default:
		return fmt.Errorf("unknown direct_push policy %q", p.DirectPush)
	}
	if p.RequiredApprovals < 0 {
		return errors.New("required_approvals must not be negative")
	}
	return nil
}

// ProposalAction is a tagged union: exactly the payload matching Kind is set.
type ProposalAction struct {
	Kind             ActionKind
	AddMaintainer    *AddMaintainerPayload
	RemoveMaintainer *RemoveMaintainerPayload
	ModifyAccess     *ModifyAccessPayload
	ChangeOwnership  *ChangeOwnershipPayload
	ModifyBranchRule *ModifyBranchRulePayload
}

func (a ProposalAction) Validate() error {
	if !a.Kind.known() {
		return fmt.Errorf("unknown proposal action kind %q", a.Kind)
	}
	switch a.Kind {
	case ActionAddMaintainer:
		if a.AddMaintainer == nil {
			return errors.New("add_maintainer payload is required")
		}
		return a.AddMaintainer.validate()
	case ActionRemoveMaintainer:
		if a.RemoveMaintainer == nil {
			return errors.New("remove_maintainer payload is required")
		}
		return a.RemoveMaintainer.validate()
	case ActionModifyAccess:
		if a.ModifyAccess == nil {
			return errors.New("modify_access payload is required")
		}
		return a.ModifyAccess.validate()
	case ActionChangeOwnership:
		if a.ChangeOwnership == nil {
			return errors.New("change_ownership payload is required")
		}
		return a.ChangeOwnership.validate()
	case ActionModifyBranchRule:
		if a.ModifyBranchRule == nil {
			return errors.New("modify_branch_rule payload is required")
		}
		return a.ModifyBranchRule.validate()
	}
	return nil
}

type actionEnvelope struct {
	Kind    ActionKind      `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// EncodeAction serializes a validated action for the proposals table.
func EncodeAction(a ProposalAction) (string, error) {
	if err := a.Validate(); err != nil {
		return "", err
	}

	var payload any
	switch a.Kind {
	case ActionAddMaintainer:
		payload = a.AddMaintainer
	case ActionRemoveMaintainer:
		payload = a.RemoveMaintainer
	case ActionModifyAccess:
		payload = a.ModifyAccess
	case ActionChangeOwnership:
		payload = a.ChangeOwnership
	case ActionModifyBranchRule:
		payload = a.ModifyBranchRule
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal action payload: %w", err)
	}
	out, err := json.Marshal(actionEnvelope{Kind: a.Kind, Payload: raw})
	if err != nil {
		return "", fmt.Errorf("marshal action envelope: %w", err)
	}
	return string(out), nil
}

// DecodeAction parses action_data stored on a proposal row.
func DecodeAction(data string) (ProposalAction, error) {
	var env actionEnvelope
	if err := json.Unmarshal([]byte(data), &env); err != nil {
		return ProposalAction{}, fmt.Errorf("unmarshal action envelope: %w", err)
	}

	action := ProposalAction{Kind: env.Kind}
	var target any
	switch env.Kind {
	case ActionAddMaintainer:
		action.AddMaintainer = &AddMaintainerPayload{}
		target = action.AddMaintainer
	case ActionRemoveMaintainer:
		action.RemoveMaintainer = &RemoveMaintainerPayload{}
		target = action.RemoveMaintainer
	case ActionModifyAccess:
		action.ModifyAccess = &ModifyAccessPayload{}
		target = action.ModifyAccess
	case ActionChangeOwnership:
		action.ChangeOwnership = &ChangeOwnershipPayload{}
		target = action.ChangeOwnership
	case ActionModifyBranchRule:
		action.ModifyBranchRule = &ModifyBranchRulePayload{}
		target = action.ModifyBranchRule
	default:
		return ProposalAction{}, fmt.Errorf("unknown proposal action kind %q", env.Kind)
	}

	if err := json.Unmarshal(env.Payload, target); err != nil {
		return ProposalAction{}, fmt.Errorf("unmarshal %s payload: %w", env.Kind, err)
	}
	if err := action.Validate(); err != nil {
		return ProposalAction{}, err
	}
	return action, nil
}
