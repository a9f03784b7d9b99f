package occurrence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendorconnect/jobs/internal/model"
	"github.com/vendorconnect/jobs/internal/repository/memory"
	"github.com/vendorconnect/jobs/internal/schedule"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedSeries(store *memory.Store) *model.Task {
	weekly := model.FrequencyWeekly
	start, end := date(2024, 1, 1), date(2024, 1, 4)
	description := "Collect supplier invoices"
	quantity := 3
	statusID := store.AddStatus(model.StatusPending, "Pending")
	priorityID := store.AddPriority("High")
	creator := store.AddUser(model.User{FirstName: "Ada", Email: "ada@example.com"})
	projectID := uuid.New()

	id := store.AddTask(model.Task{
		AdminID:         uuid.New(),
		Title:           "Invoice review",
		Description:     &description,
		StatusID:        &statusID,
		PriorityID:      &priorityID,
		ProjectID:       &projectID,
		Quantity:        &quantity,
		CloseDeadline:   true,
		StartDate:       &start,
		EndDate:         &end,
		CreatedBy:       &creator,
		IsRepeating:     true,
		RepeatFrequency: &weekly,
		RepeatInterval:  2,
		RepeatActive:    true,
	})
	store.Assign(id, creator, uuid.New())
	return store.Task(id)
}

func TestMaterializeWeeklyScenario(t *testing.T) {
	store := memory.NewStore()
	tasks := memory.NewTaskRepository(store)
	series := seedSeries(store)

	target, outcome := schedule.NextOccurrence(series.Series(), date(2024, 1, 10))
	require.Equal(t, schedule.Due, outcome)

	child, err := NewService(tasks).Materialize(context.Background(), series, target)
	require.NoError(t, err)

	assert.Equal(t, "Invoice review 15 Jan 2024", child.Title)
	assert.Equal(t, date(2024, 1, 15), *child.StartDate)
	assert.Equal(t, date(2024, 1, 18), *child.EndDate)
	assert.Equal(t, series.ID, *child.ParentID)
	assert.False(t, child.IsRepeating)

	stored := store.Children(series.ID)
	require.Len(t, stored, 1)
	assert.Equal(t, series.Description, stored[0].Description)
	assert.Equal(t, series.StatusID, stored[0].StatusID)
	assert.Equal(t, series.PriorityID, stored[0].PriorityID)
	assert.Equal(t, series.ProjectID, stored[0].ProjectID)
	assert.Equal(t, series.Quantity, stored[0].Quantity)
	assert.Equal(t, series.CreatedBy, stored[0].CreatedBy)
	assert.True(t, stored[0].CloseDeadline)

	assignees, err := tasks.ListAssigneeIDs(context.Background(), child.ID)
	require.NoError(t, err)
	assert.Empty(t, assignees, "assignments stay on the series")

	updated := store.Task(series.ID)
	require.NotNil(t, updated.LastRepeatedAt)
	assert.Equal(t, date(2024, 1, 15), *updated.LastRepeatedAt)
}

func TestMaterializeIsIdempotent(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(memory.NewTaskRepository(store))
	series := seedSeries(store)
	target := date(2024, 1, 15)

	_, err := svc.Materialize(context.Background(), series, target)
	require.NoError(t, err)

	// a later time on the same day is the same occurrence
	_, err = svc.Materialize(context.Background(), series, target.Add(9*time.Hour))
	assert.ErrorIs(t, err, ErrOccurrenceExists)

	assert.Len(t, store.Children(series.ID), 1)
}

func TestMaterializeExistingStillAdvancesSeries(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(memory.NewTaskRepository(store))
	series := seedSeries(store)
	target := date(2024, 1, 15)
	store.AddTask(*Build(series, target))

	_, err := svc.Materialize(context.Background(), series, target)

	assert.ErrorIs(t, err, ErrOccurrenceExists)
	assert.Equal(t, target, *store.Task(series.ID).LastRepeatedAt)
}

func TestMaterializeFailureLeavesSeriesUntouched(t *testing.T) {
	store := memory.NewStore()
	store.Hooks.CreateOccurrence = func(*model.Task) error { return errors.New("disk full") }
	series := seedSeries(store)

	_, err := NewService(memory.NewTaskRepository(store)).Materialize(context.Background(), series, date(2024, 1, 15))

	require.Error(t, err)
	assert.Empty(t, store.Children(series.ID))
	assert.Nil(t, store.Task(series.ID).LastRepeatedAt)
}

func TestMaterializeRejectsChildTask(t *testing.T) {
	store := memory.NewStore()
	series := seedSeries(store)
	child := Build(series, date(2024, 1, 15))

	_, err := NewService(memory.NewTaskRepository(store)).Materialize(context.Background(), child, date(2024, 1, 29))

	assert.Error(t, err)
}

func TestBuildWithoutDatesHasZeroSpan(t *testing.T) {
	series := &model.Task{Base: model.Base{ID: uuid.New()}, Title: "Stock count", IsRepeating: true}

	child := Build(series, date(2024, 2, 29))

	assert.Equal(t, "Stock count 29 Feb 2024", child.Title)
	assert.Equal(t, *child.StartDate, *child.EndDate)
}
