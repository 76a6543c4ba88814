package dto

import "github.com/famquest-app/famquest-api/internal/models"

// ChildStats is the dashboard summary for one child.
type ChildStats struct {
	ChildID     string                `json:"child_id"`
	Name        string                `json:"name"`
	Points      int                   `json:"points"`
	SavedPoints int                   `json:"saved_points"`
	Streak      int                   `json:"streak"`
	WindowDays  int                   `json:"window_days"`
	WeekEarned  int                   `json:"week_earned"`
	WeekSpent   int                   `json:"week_spent"`
	Rewards     models.RewardStats    `json:"rewards"`
	Progress    models.RewardProgress `json:"progress"`
}

// WeeklyReportRow is one ledger line in a weekly report export.
type WeeklyReportRow struct {
	Date   string `json:"date"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
	Delta  int    `json:"delta"`
}

// WeeklyReport aggregates a child's point movements for one week.
type WeeklyReport struct {
	ChildID   string            `json:"child_id"`
	ChildName string            `json:"child_name"`
	WeekStart string            `json:"week_start"`
	Rows      []WeeklyReportRow `json:"rows"`
	Earned    int               `json:"earned"`
	Spent     int               `json:"spent"`
	Closing   int               `json:"closing"`
}

// CreateReportRequest queues a weekly report export.
type CreateReportRequest struct {
	ChildID   string              `json:"child_id" validate:"required,uuid4"`
	WeekStart string              `json:"week_start" validate:"required,datetime=2006-01-02"`
	Format    models.ReportFormat `json:"format" validate:"required,oneof=csv pdf"`
}
