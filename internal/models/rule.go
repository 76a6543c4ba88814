package models

import "time"

// Rule is a parent-defined rule with a point penalty for violations.
type Rule struct {
	ID            string    `db:"id" json:"id"`
	ParentID      string    `db:"parent_id" json:"parent_id"`
	Label         string    `db:"label" json:"label"`
	PenaltyPoints int       `db:"penalty_points" json:"penalty_points"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// RuleViolation records a broken rule. PointsDeducted may be less than the
// rule's penalty when the child's balance was lower; the deduction clamps at
// zero rather than driving the balance negative.
type RuleViolation struct {
	ID             string    `db:"id" json:"id"`
	ChildID        string    `db:"child_id" json:"child_id"`
	RuleID         string    `db:"rule_id" json:"rule_id"`
	PointsDeducted int       `db:"points_deducted" json:"points_deducted"`
	Note           string    `db:"note" json:"note"`
	RecordedAt     time.Time `db:"recorded_at" json:"recorded_at"`
}

// CreateRuleRequest defines a new rule.
type CreateRuleRequest struct {
	Label         string `json:"label" validate:"required"`
	PenaltyPoints int    `json:"penalty_points" validate:"required,gt=0"`
}

// RecordViolationRequest records a violation against a child.
type RecordViolationRequest struct {
	RuleID string `json:"rule_id" validate:"required,uuid4"`
	Note   string `json:"note"`
}
