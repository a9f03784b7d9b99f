package model

import (
	"fmt"

	"github.com/google/uuid"
)

// StatusKind enumerates the task statuses the jobs care about. The statuses
// table stores them under these slugs.
type StatusKind string

const (
	StatusPending    StatusKind = "pending"
	StatusInProgress StatusKind = "in-progress"
	StatusCompleted  StatusKind = "completed"
	StatusArchived   StatusKind = "archive"
)

type Status struct {
	ID    uuid.UUID `json:"id" db:"id"`
	Title string    `json:"title" db:"title"`
	Slug  string    `json:"slug" db:"slug"`
}

// StatusSet maps status kinds to the ids they resolved to at job start.
type StatusSet map[StatusKind]uuid.UUID

func (s StatusSet) ID(kind StatusKind) (uuid.UUID, bool) {
	id, ok := s[kind]
	return id, ok
}

// MustID is for callers that already checked the set with Require.
func (s StatusSet) MustID(kind StatusKind) uuid.UUID {
	id, ok := s[kind]
	if !ok {
		panic(fmt.Sprintf("status %q not resolved", kind))
	}
	return id
}

// Require reports the first kind missing from the set.
func (s StatusSet) Require(kinds ...StatusKind) error {
	for _, k := range kinds {
		if _, ok := s[k]; !ok {
			return fmt.Errorf("status %q is not defined", k)
		}
	}
	return nil
}

// Terminal returns the ids of statuses after which a task needs no reminders.
func (s StatusSet) Terminal() []uuid.UUID {
	ids := make([]uuid.UUID, 0, 2)
	for _, k := range []StatusKind{StatusCompleted, StatusArchived} {
		if id, ok := s[k]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}
