package deadline

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
	"github.com/vendorconnect/jobs/internal/service/notification"
	apperrors "github.com/vendorconnect/jobs/pkg/errors"
	"github.com/vendorconnect/jobs/pkg/logger"
)

type fixture struct {
	store    *memory.Store
	svc      *Service
	statuses model.StatusSet
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: memory.NewStore(),
		now:   time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC),
	}
	f.statuses = model.StatusSet{
		model.StatusPending:   f.store.AddStatus(model.StatusPending, "Pending"),
		model.StatusCompleted: f.store.AddStatus(model.StatusCompleted, "Completed"),
		model.StatusArchived:  f.store.AddStatus(model.StatusArchived, "Archive"),
	}
	notifications := memory.NewNotificationRepository(f.store)
	notifier := notification.NewService(notifications, nil, nil, logger.Nop(),
		notification.WithClock(func() time.Time { return f.now }))
	f.svc = NewService(memory.NewTaskRepository(f.store), notifications, notifier, DefaultConfig(), logger.Nop())
	return f
}

func (f *fixture) addTask(end time.Time, status model.StatusKind, priority string) (taskID, assignee, creator uuid.UUID) {
	assignee = f.store.AddUser(model.User{FirstName: "Sam", Email: "sam@example.com"})
	creator = f.store.AddUser(model.User{FirstName: "Kim", Email: "kim@example.com"})
	statusID := f.statuses.MustID(status)
	task := model.Task{
		AdminID:   uuid.New(),
		Title:     "Deliver samples",
		StatusID:  &statusID,
		EndDate:   &end,
		CreatedBy: &creator,
	}
	if priority != "" {
		id := f.store.AddPriority(priority)
		task.PriorityID = &id
	}
	taskID = f.store.AddTask(task)
	f.store.Assign(taskID, assignee)
	return taskID, assignee, creator
}

func (f *fixture) run(t *testing.T) {
	t.Helper()
	_, err := f.svc.Run(context.Background(), f.now, f.statuses)
	require.NoError(t, err)
}

func TestDueSoonNotifiesAssigneeAndCreatorOnce(t *testing.T) {
	f := newFixture(t)
	taskID, assignee, creator := f.addTask(f.now.Add(2*time.Hour), model.StatusPending, "Urgent")

	res, err := f.svc.Run(context.Background(), f.now, f.statuses)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)

	created := f.store.Notifications()
	require.Len(t, created, 2)
	users := []uuid.UUID{created[0].UserID, created[1].UserID}
	assert.ElementsMatch(t, []uuid.UUID{assignee, creator}, users)
	for _, n := range created {
		assert.Equal(t, model.NotificationTaskDueSoon, n.Type)
		assert.Equal(t, model.PriorityUrgent, n.Priority)
		assert.Equal(t, taskID, *n.TaskID)
		assert.Equal(t, taskID.String(), n.Data["task_id"])
	}

	// within the hour nothing new
	f.now = f.now.Add(59 * time.Minute)
	res, err = f.svc.Run(context.Background(), f.now, f.statuses)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Processed)
	assert.Equal(t, 1, res.Skipped)
	assert.Len(t, f.store.Notifications(), 2)

	// past the window the reminder repeats
	f.now = f.now.Add(2 * time.Minute)
	f.run(t)
	assert.Len(t, f.store.Notifications(), 4)
}

func TestOverdueDedupWindowIsADay(t *testing.T) {
	f := newFixture(t)
	f.addTask(f.now.Add(-3*time.Hour), model.StatusPending, "Low")

	f.run(t)
	created := f.store.Notifications()
	require.Len(t, created, 2)
	assert.Equal(t, model.NotificationTaskOverdue, created[0].Type)
	assert.Equal(t, model.PriorityLow, created[0].Priority)

	f.now = f.now.Add(23 * time.Hour)
	f.run(t)
	assert.Len(t, f.store.Notifications(), 2)

	f.now = f.now.Add(2 * time.Hour)
	f.run(t)
	assert.Len(t, f.store.Notifications(), 4)
}

func TestTerminalAndOutOfWindowTasksAreIgnored(t *testing.T) {
	f := newFixture(t)
	f.addTask(f.now.Add(2*time.Hour), model.StatusCompleted, "")
	f.addTask(f.now.Add(-2*time.Hour), model.StatusArchived, "")
	f.addTask(f.now.Add(48*time.Hour), model.StatusPending, "")

	deletedAt := f.now
	end := f.now.Add(time.Hour)
	f.store.AddTask(model.Task{Title: "Gone", EndDate: &end, Base: model.Base{DeletedAt: &deletedAt}})

	f.run(t)

	assert.Empty(t, f.store.Notifications())
}

func TestCreatorWhoIsAssigneeGetsOneNotification(t *testing.T) {
	f := newFixture(t)
	taskID, _, creator := f.addTask(f.now.Add(time.Hour), model.StatusPending, "")
	f.store.Assign(taskID, creator)

	f.run(t)

	created := f.store.Notifications()
	require.Len(t, created, 2)
	assert.Equal(t, model.PriorityMedium, created[0].Priority)
}

func TestPerTaskFailureDoesNotStopScan(t *testing.T) {
	f := newFixture(t)
	bad, _, _ := f.addTask(f.now.Add(time.Hour), model.StatusPending, "")
	good, _, _ := f.addTask(f.now.Add(2*time.Hour), model.StatusPending, "")
	f.store.Hooks.CreateNotification = func(n *model.Notification) error {
		if *n.TaskID == bad {
			return errors.New("insert failed")
		}
		return nil
	}

	res, err := f.svc.Run(context.Background(), f.now, f.statuses)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Processed)
	for _, n := range f.store.Notifications() {
		assert.Equal(t, good, *n.TaskID)
	}
}

func TestMissingStatusIsConfigurationError(t *testing.T) {
	f := newFixture(t)
	f.addTask(f.now.Add(time.Hour), model.StatusPending, "")
	delete(f.statuses, model.StatusArchived)

	_, err := f.svc.Run(context.Background(), f.now, f.statuses)

	assert.True(t, apperrors.IsConfiguration(err))
	assert.Empty(t, f.store.Notifications())
}

func TestRecipients(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	assert.Equal(t, []uuid.UUID{a, b, c}, Recipients([]uuid.UUID{a, b, a}, &c))
	assert.Equal(t, []uuid.UUID{a, b}, Recipients([]uuid.UUID{a, b}, &a))
	assert.Equal(t, []uuid.UUID{c}, Recipients(nil, &c))
	assert.Empty(t, Recipients(nil, nil))
}
