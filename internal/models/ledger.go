package models

import "time"

// LedgerEntryType labels the origin of a point-changing event.
type LedgerEntryType string

const (
	LedgerEntryTask       LedgerEntryType = "task"
	LedgerEntryReward     LedgerEntryType = "reward"
	LedgerEntryRiddle     LedgerEntryType = "riddle"
	LedgerEntryViolation  LedgerEntryType = "violation"
	LedgerEntryPiggyBank  LedgerEntryType = "piggy_bank"
	LedgerEntryAdjustment LedgerEntryType = "adjustment"
)

// LedgerEntry is an append-only points-history row. The child's balance is
// mutated in the same transaction as the append, so the ledger always sums
// to the balance.
type LedgerEntry struct {
	ID        string          `db:"id" json:"id"`
	ChildID   string          `db:"child_id" json:"child_id"`
	Delta     int             `db:"delta" json:"delta"`
	EntryType LedgerEntryType `db:"entry_type" json:"entry_type"`
	Reason    string          `db:"reason" json:"reason"`
	TaskID    *string         `db:"task_id" json:"task_id,omitempty"`
	RewardID  *string         `db:"reward_id" json:"reward_id,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// LedgerFilter captures listing criteria for a child's points history.
type LedgerFilter struct {
	EntryType string
	Limit     int
	Offset    int
}

// CompletionDay pairs a completion's due date with its completion time, as
// returned by the ledger reader's windowed query.
type CompletionDay struct {
	DueDate     time.Time `db:"due_date" json:"due_date"`
	CompletedAt time.Time `db:"completed_at" json:"completed_at"`
}

// LedgerSnapshot is the shared read the streak calculator and the reward
// eligibility engine both consume. Either the whole window is present or the
// snapshot read failed; there is no partial result.
type LedgerSnapshot struct {
	ChildID     string          `json:"child_id"`
	Balance     int             `json:"balance"`
	Completions []CompletionDay `json:"completions"`
	Claims      []RewardClaim   `json:"claims"`
	WindowDays  int             `json:"window_days"`
}

// ClaimedSet returns the claimed reward IDs keyed for O(1) lookups.
func (s LedgerSnapshot) ClaimedSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.Claims))
	for _, claim := range s.Claims {
		set[claim.RewardID] = struct{}{}
	}
	return set
}
