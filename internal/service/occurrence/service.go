package occurrence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vendorconnect/jobs/internal/model"
	"github.com/vendorconnect/jobs/internal/repository"
)

// TitleDateLayout is appended to an occurrence title.
const TitleDateLayout = "2 Jan 2006"

// ErrOccurrenceExists is returned when the series already has a task for the
// target date. The series is still moved past that date.
var ErrOccurrenceExists = errors.New("occurrence already exists")

type Service interface {
	Materialize(ctx context.Context, series *model.Task, targetDate time.Time) (*model.Task, error)
}

type service struct {
	tasks repository.TaskRepository
}

func NewService(tasks repository.TaskRepository) Service {
	return &service{tasks: tasks}
}

func (s *service) Materialize(ctx context.Context, series *model.Task, targetDate time.Time) (*model.Task, error) {
	if !series.IsRepeating || series.ParentID != nil {
		return nil, fmt.Errorf("task %s is not a series root", series.ID)
	}

	exists, err := s.tasks.OccurrenceExists(ctx, series.ID, targetDate)
	if err != nil {
		return nil, err
	}
	if exists {
		if err := s.tasks.MarkSeriesRepeated(ctx, series.ID, targetDate); err != nil {
			return nil, err
		}
		return nil, ErrOccurrenceExists
	}

	occurrence := Build(series, targetDate)
	if err := s.tasks.CreateOccurrence(ctx, occurrence, targetDate); err != nil {
		return nil, err
	}
	return occurrence, nil
}

// Build returns the unsaved child of series for targetDate.
func Build(series *model.Task, targetDate time.Time) *model.Task {
	f := series.OccurrenceFields()
	start := targetDate
	end := targetDate.AddDate(0, 0, series.SpanDays())
	parentID := series.ID

	return &model.Task{
		Base:          model.Base{ID: uuid.New()},
		AdminID:       f.AdminID,
		Title:         fmt.Sprintf("%s %s", f.Title, targetDate.Format(TitleDateLayout)),
		Description:   f.Description,
		Note:          f.Note,
		StatusID:      f.StatusID,
		PriorityID:    f.PriorityID,
		TaskTypeID:    f.TaskTypeID,
		ProjectID:     f.ProjectID,
		Quantity:      f.Quantity,
		CloseDeadline: f.CloseDeadline,
		StartDate:     &start,
		EndDate:       &end,
		CreatedBy:     f.CreatedBy,
		ParentID:      &parentID,
	}
}
