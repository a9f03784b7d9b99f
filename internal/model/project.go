package model

import (
	"time"

	"github.com/google/uuid"
)

type Project struct {
	Base
	AdminID uuid.UUID `json:"admin_id" db:"admin_id"`
	Title   string    `json:"title" db:"title"`
}

// ProjectTaskStats is the raw aggregate a baseline is computed from.
type ProjectTaskStats struct {
	ProjectID          uuid.UUID `db:"project_id"`
	TotalTasks         int       `db:"total_tasks"`
	CompletedTasks     int       `db:"completed_tasks"`
	OverdueTasks       int       `db:"overdue_tasks"`
	CompletionDaysSum  float64   `db:"completion_days_sum"`
	CompletionDaysRows int       `db:"completion_days_rows"`
}

type ProjectMetricsBaseline struct {
	ProjectID         uuid.UUID `json:"project_id" db:"project_id"`
	TotalTasks        int       `json:"total_tasks" db:"total_tasks"`
	CompletedTasks    int       `json:"completed_tasks" db:"completed_tasks"`
	OverdueTasks      int       `json:"overdue_tasks" db:"overdue_tasks"`
	CompletionRate    float64   `json:"completion_rate" db:"completion_rate"`
	AvgCompletionDays float64   `json:"avg_completion_days" db:"avg_completion_days"`
	CalculatedAt      time.Time `json:"calculated_at" db:"calculated_at"`
}
