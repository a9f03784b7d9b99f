package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Frequency is the repeat unit of a recurring task series.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// Task is a row of the tasks table. A task with IsRepeating set is the root of
// a recurring series; its occurrences point back at it through ParentID.
type Task struct {
	Base
	AdminID       uuid.UUID  `json:"admin_id" db:"admin_id"`
	Title         string     `json:"title" db:"title"`
	Description   *string    `json:"description" db:"description"`
	Note          *string    `json:"note" db:"note"`
	StatusID      *uuid.UUID `json:"status_id" db:"status_id"`
	PriorityID    *uuid.UUID `json:"priority_id" db:"priority_id"`
	PriorityName  *string    `json:"priority_name,omitempty" db:"priority_name"`
	TaskTypeID    *uuid.UUID `json:"task_type_id" db:"task_type_id"`
	ProjectID     *uuid.UUID `json:"project_id" db:"project_id"`
	Quantity      *int       `json:"quantity" db:"quantity"`
	CloseDeadline bool       `json:"close_deadline" db:"close_deadline"`
	StartDate     *time.Time `json:"start_date" db:"start_date"`
	EndDate       *time.Time `json:"end_date" db:"end_date"`
	CreatedBy     *uuid.UUID `json:"created_by" db:"created_by"`
	ParentID      *uuid.UUID `json:"parent_id" db:"parent_id"`

	IsRepeating     bool       `json:"is_repeating" db:"is_repeating"`
	RepeatFrequency *Frequency `json:"repeat_frequency" db:"repeat_frequency"`
	RepeatInterval  int        `json:"repeat_interval" db:"repeat_interval"`
	RepeatUntil     *time.Time `json:"repeat_until" db:"repeat_until"`
	RepeatActive    bool       `json:"repeat_active" db:"repeat_active"`
	LastRepeatedAt  *time.Time `json:"last_repeated_at" db:"last_repeated_at"`
}

// Series returns the recurrence view of a repeating task.
func (t *Task) Series() Series {
	s := Series{
		TaskID:             t.ID,
		Repeating:          t.IsRepeating && t.ParentID == nil,
		Active:             t.RepeatActive,
		Interval:           t.RepeatInterval,
		Until:              t.RepeatUntil,
		LastMaterializedAt: t.LastRepeatedAt,
	}
	if t.RepeatFrequency != nil {
		s.Frequency = *t.RepeatFrequency
	}
	if t.StartDate != nil {
		s.Anchor = *t.StartDate
	} else {
		s.Anchor = t.CreatedAt
	}
	return s
}

// Series describes when a recurring task repeats.
type Series struct {
	TaskID             uuid.UUID
	Repeating          bool
	Active             bool
	Frequency          Frequency
	Interval           int
	Anchor             time.Time
	Until              *time.Time
	LastMaterializedAt *time.Time
}

// OccurrenceFields is the set of series fields copied onto every occurrence.
// User and tag assignments are deliberately absent: occurrences start
// unassigned.
type OccurrenceFields struct {
	AdminID       uuid.UUID
	Title         string
	Description   *string
	StatusID      *uuid.UUID
	PriorityID    *uuid.UUID
	TaskTypeID    *uuid.UUID
	ProjectID     *uuid.UUID
	Note          *string
	Quantity      *int
	CloseDeadline bool
	CreatedBy     *uuid.UUID
}

// OccurrenceFieldsVersion is bumped whenever OccurrenceFields changes.
const OccurrenceFieldsVersion = 1

func (t *Task) OccurrenceFields() OccurrenceFields {
	return OccurrenceFields{
		AdminID:       t.AdminID,
		Title:         t.Title,
		Description:   t.Description,
		StatusID:      t.StatusID,
		PriorityID:    t.PriorityID,
		TaskTypeID:    t.TaskTypeID,
		ProjectID:     t.ProjectID,
		Note:          t.Note,
		Quantity:      t.Quantity,
		CloseDeadline: t.CloseDeadline,
		CreatedBy:     t.CreatedBy,
	}
}

// SpanDays is the number of whole calendar days between start and end date.
func (t *Task) SpanDays() int {
	if t.StartDate == nil || t.EndDate == nil {
		return 0
	}
	s := DateOf(*t.StartDate)
	e := DateOf(t.EndDate.In(s.Location()))
	days := 0
	for s.Before(e) {
		s = s.AddDate(0, 0, 1)
		days++
	}
	return days
}

// DateOf truncates t to midnight in its own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// TaskAssignment is a row of the task_user pivot.
type TaskAssignment struct {
	TaskID uuid.UUID `db:"task_id"`
	UserID uuid.UUID `db:"user_id"`
}

// Priority is a row of the priorities table.
type Priority struct {
	ID    uuid.UUID `json:"id" db:"id"`
	Title string    `json:"title" db:"title"`
	Slug  string    `json:"slug" db:"slug"`
}

// NormalizePriorityName lowercases and collapses separators so "Not Urgent",
// "not_urgent" and "not-urgent" compare equal.
func NormalizePriorityName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer("_", " ", "-", " ").Replace(n)
	return strings.Join(strings.Fields(n), " ")
}
