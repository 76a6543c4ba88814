package models

import "time"

// Reward is a parent-defined catalog entry children exchange points for.
type Reward struct {
	ID         string    `db:"id" json:"id"`
	ParentID   string    `db:"parent_id" json:"parent_id"`
	Label      string    `db:"label" json:"label"`
	CostPoints int       `db:"cost_points" json:"cost_points"`
	Icon       string    `db:"icon" json:"icon"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// RewardClaim records a child exchanging points for a reward. Immutable once
// created; the (child_id, reward_id) pair is UNIQUE.
type RewardClaim struct {
	ID        string    `db:"id" json:"id"`
	ChildID   string    `db:"child_id" json:"child_id"`
	RewardID  string    `db:"reward_id" json:"reward_id"`
	CostPaid  int       `db:"cost_paid" json:"cost_paid"`
	ClaimedAt time.Time `db:"claimed_at" json:"claimed_at"`
}

// CreateRewardRequest defines a new catalog reward.
type CreateRewardRequest struct {
	Label      string `json:"label" validate:"required"`
	CostPoints int    `json:"cost_points" validate:"required,gt=0"`
	Icon       string `json:"icon"`
}

// UpdateRewardRequest mutates a catalog reward.
type UpdateRewardRequest struct {
	Label      *string `json:"label,omitempty"`
	CostPoints *int    `json:"cost_points,omitempty" validate:"omitempty,gt=0"`
	Icon       *string `json:"icon,omitempty"`
}

// RewardEligibility reports affordability and claim state for one reward.
type RewardEligibility struct {
	Reward     Reward `json:"reward"`
	Claimed    bool   `json:"claimed"`
	Affordable bool   `json:"affordable"`
}

// RewardStats aggregates catalog-wide eligibility counters.
type RewardStats struct {
	Total       int `json:"total"`
	ClaimedN    int `json:"claimed"`
	Available   int `json:"available"`
	Affordable  int `json:"affordable"`
	PointsSpent int `json:"points_spent"`
}

// RewardProgress names the next reward and progress toward it. NextReward is
// nil in the terminal fully-redeemed state.
type RewardProgress struct {
	NextReward   *Reward `json:"next_reward,omitempty"`
	Progress     float64 `json:"progress"`
	PointsNeeded int     `json:"points_needed"`
}
