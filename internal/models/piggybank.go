package models

import "time"

// PiggyBankDirection distinguishes deposits from withdrawals.
type PiggyBankDirection string

const (
	PiggyBankDeposit  PiggyBankDirection = "deposit"
	PiggyBankWithdraw PiggyBankDirection = "withdraw"
)

// PiggyBankTransaction moves points between the spendable balance and the
// saved balance. Both sides of the move happen in one transaction together
// with a ledger append.
type PiggyBankTransaction struct {
	ID        string             `db:"id" json:"id"`
	ChildID   string             `db:"child_id" json:"child_id"`
	Direction PiggyBankDirection `db:"direction" json:"direction"`
	Amount    int                `db:"amount" json:"amount"`
	CreatedAt time.Time          `db:"created_at" json:"created_at"`
}

// PiggyBankRequest deposits or withdraws an amount of points.
type PiggyBankRequest struct {
	Amount int `json:"amount" validate:"required,gt=0"`
}
