package projectmetrics

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
	"github.com/vendorconnect/jobs/pkg/logger"
)

var now = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

func TestRunComputesBaselines(t *testing.T) {
	store := memory.NewStore()
	completed := store.AddStatus(model.StatusCompleted, "Completed")
	pending := store.AddStatus(model.StatusPending, "Pending")
	statuses := model.StatusSet{model.StatusCompleted: completed, model.StatusPending: pending}

	busy := store.AddProject(model.Project{Title: "Busy", Base: model.Base{CreatedAt: now.AddDate(0, -2, 0)}})
	empty := store.AddProject(model.Project{Title: "Empty", Base: model.Base{CreatedAt: now.AddDate(0, -1, 0)}})

	addTask := func(status uuid.UUID, start, updated, end time.Time) {
		store.AddTask(model.Task{
			Title:     "Task",
			ProjectID: &busy,
			StatusID:  &status,
			StartDate: &start,
			EndDate:   &end,
			Base:      model.Base{CreatedAt: start, UpdatedAt: updated},
		})
	}
	d := func(day int) time.Time { return time.Date(2024, 6, day, 12, 0, 0, 0, time.UTC) }
	addTask(completed, d(1), d(3), d(5))  // 2 days
	addTask(completed, d(1), d(5), d(10)) // 4 days
	addTask(pending, d(1), d(1), d(20))   // overdue
	addTask(pending, d(1), d(1), d(30).Add(time.Hour))

	res, err := NewService(memory.NewProjectRepository(store), logger.Nop()).Run(context.Background(), now, statuses)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)

	b := store.Baseline(busy)
	require.NotNil(t, b)
	assert.Equal(t, 4, b.TotalTasks)
	assert.Equal(t, 2, b.CompletedTasks)
	assert.Equal(t, 1, b.OverdueTasks)
	assert.Equal(t, 0.5, b.CompletionRate)
	assert.Equal(t, 3.0, b.AvgCompletionDays)
	assert.Equal(t, now, b.CalculatedAt)

	e := store.Baseline(empty)
	require.NotNil(t, e)
	assert.Zero(t, e.TotalTasks)
	assert.Zero(t, e.CompletionRate)
}

func TestRunIsolatesProjects(t *testing.T) {
	store := memory.NewStore()
	statuses := model.StatusSet{model.StatusCompleted: store.AddStatus(model.StatusCompleted, "Completed")}
	bad := store.AddProject(model.Project{Title: "Bad"})
	good := store.AddProject(model.Project{Title: "Good"})
	store.Hooks.TaskStats = func(id uuid.UUID) error {
		if id == bad {
			return errors.New("statement timeout")
		}
		return nil
	}

	res, err := NewService(memory.NewProjectRepository(store), logger.Nop()).Run(context.Background(), now, statuses)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Processed)
	assert.Nil(t, store.Baseline(bad))
	assert.NotNil(t, store.Baseline(good))
}

func TestBaselineRounding(t *testing.T) {
	b := Baseline(&model.ProjectTaskStats{
		TotalTasks:         3,
		CompletedTasks:     1,
		CompletionDaysSum:  1.0 / 3.0,
		CompletionDaysRows: 1,
	}, now)

	assert.Equal(t, 0.33, b.CompletionRate)
	assert.Equal(t, 0.33, b.AvgCompletionDays)
}
