package models

import "time"

// Child is a managed profile under a parent account that accumulates points.
// Points is the authoritative spendable balance; every mutation appends a
// matching ledger entry in the same transaction. SavedPoints holds the piggy
// bank balance, moved in and out via piggy bank transactions.
type Child struct {
	ID          string    `db:"id" json:"id"`
	ParentID    string    `db:"parent_id" json:"parent_id"`
	Name        string    `db:"name" json:"name"`
	Avatar      string    `db:"avatar" json:"avatar"`
	BirthYear   *int      `db:"birth_year" json:"birth_year,omitempty"`
	Points      int       `db:"points" json:"points"`
	SavedPoints int       `db:"saved_points" json:"saved_points"`
	PINHash     string    `db:"pin_hash" json:"-"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CreateChildRequest creates a child profile under the authenticated parent.
type CreateChildRequest struct {
	Name      string `json:"name" validate:"required"`
	Avatar    string `json:"avatar"`
	BirthYear *int   `json:"birth_year,omitempty" validate:"omitempty,gte=1990,lte=2100"`
	PIN       string `json:"pin" validate:"required,len=4,numeric"`
}

// UpdateChildRequest mutates display attributes of a child profile.
type UpdateChildRequest struct {
	Name      *string `json:"name,omitempty"`
	Avatar    *string `json:"avatar,omitempty"`
	BirthYear *int    `json:"birth_year,omitempty" validate:"omitempty,gte=1990,lte=2100"`
	PIN       *string `json:"pin,omitempty" validate:"omitempty,len=4,numeric"`
}

// PointsBalance summarises a child's current point totals.
type PointsBalance struct {
	ChildID     string `db:"child_id" json:"child_id"`
	Name        string `db:"name" json:"name"`
	Points      int    `db:"points" json:"points"`
	SavedPoints int    `db:"saved_points" json:"saved_points"`
}
