package model

type BranchRule struct {
	RuleID            uint64 `gorm:"column:rule_id;primaryKey;autoIncrement"`
	RepoID            uint64 `gorm:"column:repo_id;not null;uniqueIndex:idx_branch_rule_pattern"`
	BranchPattern     string `gorm:"column:branch_pattern;type:text;not null;uniqueIndex:idx_branch_rule_pattern"`
	Priority          int    `gorm:"column:priority;not null;default:0"`
	DirectPush        string `gorm:"column:direct_push;type:text;not null;default:'maintainers'"`
	RequiredApprovals int    `gorm:"column:required_approvals;not null;default:0"`
	RequireTestsPass  bool   `gorm:"column:require_tests_pass;not null;default:0"`
}

func (BranchRule) TableName() string {
	return "branch_rules"
}
