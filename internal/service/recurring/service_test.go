package recurring

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendorconnect/jobs/internal/model"
	"github.com/vendorconnect/jobs/internal/repository/memory"
	"github.com/vendorconnect/jobs/internal/service/occurrence"
	"github.com/vendorconnect/jobs/pkg/logger"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func addSeries(store *memory.Store, title string, freq model.Frequency, interval int, start time.Time, mutate func(*model.Task)) uuid.UUID {
	end := start.AddDate(0, 0, 1)
	t := model.Task{
		AdminID:         uuid.New(),
		Title:           title,
		StartDate:       &start,
		EndDate:         &end,
		IsRepeating:     true,
		RepeatFrequency: &freq,
		RepeatInterval:  interval,
		RepeatActive:    true,
	}
	if mutate != nil {
		mutate(&t)
	}
	return store.AddTask(t)
}

func newService(store *memory.Store) *Service {
	tasks := memory.NewTaskRepository(store)
	return NewService(tasks, occurrence.NewService(tasks), logger.Nop())
}

func TestRunSweepsEverySeries(t *testing.T) {
	store := memory.NewStore()
	now := date(2024, 1, 10).Add(3 * time.Hour)

	due := addSeries(store, "Weekly sync", model.FrequencyWeekly, 2, date(2024, 1, 1), nil)
	ended := addSeries(store, "Old report", model.FrequencyDaily, 1, date(2023, 12, 1), func(t *model.Task) {
		until := date(2023, 12, 31)
		t.RepeatUntil = &until
	})
	notStarted := addSeries(store, "Next quarter", model.FrequencyMonthly, 1, date(2024, 4, 1), nil)
	broken := addSeries(store, "Broken", model.FrequencyDaily, 1, date(2024, 1, 9), nil)
	store.AddTask(model.Task{Title: "Not a series", IsRepeating: false})

	store.Hooks.CreateOccurrence = func(t *model.Task) error {
		if *t.ParentID == broken {
			return errors.New("constraint violation")
		}
		return nil
	}

	res, err := newService(store).Run(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Processed, "one generated, one deactivated")
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Skipped)

	children := store.Children(due)
	require.Len(t, children, 1)
	assert.Equal(t, "Weekly sync 15 Jan 2024", children[0].Title)

	assert.False(t, store.Task(ended).RepeatActive)
	assert.Empty(t, store.Children(ended))
	assert.Empty(t, store.Children(notStarted))
	assert.Empty(t, store.Children(broken))
	assert.Nil(t, store.Task(broken).LastRepeatedAt)
}

func TestRunAdvancesFromLastRepeatedAt(t *testing.T) {
	store := memory.NewStore()
	svc := newService(store)
	id := addSeries(store, "Daily check", model.FrequencyDaily, 1, date(2024, 3, 1), nil)
	now := date(2024, 3, 1).Add(8 * time.Hour)

	for i := 0; i < 3; i++ {
		res, err := svc.Run(context.Background(), now)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Processed)
	}

	children := store.Children(id)
	require.Len(t, children, 3)
	for i, child := range children {
		assert.Equal(t, date(2024, 3, i+2), *child.StartDate)
	}
	assert.Equal(t, date(2024, 3, 4), *store.Task(id).LastRepeatedAt)
}

func TestRunResumesMissedSeriesWithoutBackfill(t *testing.T) {
	store := memory.NewStore()
	id := addSeries(store, "Weekly audit", model.FrequencyWeekly, 1, date(2024, 1, 1), func(t *model.Task) {
		last := date(2024, 1, 8)
		t.LastRepeatedAt = &last
	})

	res, err := newService(store).Run(context.Background(), date(2024, 2, 7))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Processed)
	children := store.Children(id)
	require.Len(t, children, 1)
	assert.Equal(t, date(2024, 2, 12), *children[0].StartDate)
}

func TestRunLogsResumeAndFieldsVersion(t *testing.T) {
	store := memory.NewStore()
	addSeries(store, "Weekly audit", model.FrequencyWeekly, 1, date(2024, 1, 1), func(t *model.Task) {
		last := date(2024, 1, 8)
		t.LastRepeatedAt = &last
	})
	var buf bytes.Buffer
	tasks := memory.NewTaskRepository(store)
	log := logger.NewLogger(&logger.Config{Level: logger.InfoLevel, Output: &buf})

	_, err := NewService(tasks, occurrence.NewService(tasks), log).Run(context.Background(), date(2024, 2, 7))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"message":"series missed occurrences, resuming without backfill"`)
	assert.Contains(t, out, `"next":"2024-02-12"`)
	assert.Contains(t, out, `"fields_version":1`)
}

func TestRunDeactivatesSeriesEndingBeforeResumeDate(t *testing.T) {
	store := memory.NewStore()
	id := addSeries(store, "Monthly invoice", model.FrequencyMonthly, 1, date(2024, 1, 15), func(t *model.Task) {
		until := date(2024, 3, 1)
		t.RepeatUntil = &until
	})

	res, err := newService(store).Run(context.Background(), date(2024, 2, 20))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Processed)
	assert.False(t, store.Task(id).RepeatActive)
	assert.Empty(t, store.Children(id))
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	store := memory.NewStore()
	addSeries(store, "Daily check", model.FrequencyDaily, 1, date(2024, 3, 1), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newService(store).Run(ctx, date(2024, 3, 1).Add(time.Hour))

	assert.ErrorIs(t, err, context.Canceled)
}
