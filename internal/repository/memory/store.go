// Package memory is an in-process implementation of the repository
// interfaces. It enforces the same write guards as the SQL queries and is
// what the service tests run against.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vendorconnect/jobs/internal/model"
)

type settingKey struct {
	adminID uuid.UUID
	key     string
}

// Hooks inject failures for single items.
type Hooks struct {
	CreateOccurrence   func(occurrence *model.Task) error
	CreateNotification func(notification *model.Notification) error
	MarkSent           func(id uuid.UUID) error
	ArchiveCompleted   func(adminID uuid.UUID) error
	TaskStats          func(projectID uuid.UUID) error
}

type Store struct {
	mu sync.Mutex

	tasks         map[uuid.UUID]*model.Task
	assignments   []model.TaskAssignment
	statuses      []*model.Status
	priorities    map[uuid.UUID]*model.Priority
	users         map[uuid.UUID]*model.User
	notifications map[uuid.UUID]*model.Notification
	settings      map[settingKey]*model.Setting
	projects      map[uuid.UUID]*model.Project
	baselines     map[uuid.UUID]*model.ProjectMetricsBaseline

	Hooks Hooks
	Now   func() time.Time
}

func NewStore() *Store {
	return &Store{
		tasks:         make(map[uuid.UUID]*model.Task),
		priorities:    make(map[uuid.UUID]*model.Priority),
		users:         make(map[uuid.UUID]*model.User),
		notifications: make(map[uuid.UUID]*model.Notification),
		settings:      make(map[settingKey]*model.Setting),
		projects:      make(map[uuid.UUID]*model.Project),
		baselines:     make(map[uuid.UUID]*model.ProjectMetricsBaseline),
		Now:           time.Now,
	}
}

// Seeding helpers. Each stores a copy and returns the stored ID.

func (s *Store) AddStatus(kind model.StatusKind, title string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := &model.Status{ID: uuid.New(), Title: title, Slug: string(kind)}
	s.statuses = append(s.statuses, st)
	return st.ID
}

func (s *Store) AddPriority(title string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &model.Priority{ID: uuid.New(), Title: title, Slug: model.NormalizePriorityName(title)}
	s.priorities[p.ID] = p
	return p.ID
}

func (s *Store) AddUser(u model.User) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	s.users[u.ID] = &u
	return u.ID
}

func (s *Store) AddTask(t model.Task) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.Now()
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	s.tasks[t.ID] = &t
	return t.ID
}

func (s *Store) Assign(taskID uuid.UUID, userIDs ...uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range userIDs {
		s.assignments = append(s.assignments, model.TaskAssignment{TaskID: taskID, UserID: id})
	}
}

func (s *Store) AddNotification(n model.Notification) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.Now()
	}
	s.notifications[n.ID] = &n
	return n.ID
}

func (s *Store) SetSetting(adminID uuid.UUID, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[settingKey{adminID, key}] = &model.Setting{AdminID: adminID, Key: key, Value: value, UpdatedAt: s.Now()}
}

func (s *Store) AddProject(p model.Project) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.projects[p.ID] = &p
	return p.ID
}

// Inspection helpers for assertions.

func (s *Store) Task(id uuid.UUID) *model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[id]; ok {
		return s.taskCopy(t)
	}
	return nil
}

// Children returns the occurrences of a series ordered by start date.
func (s *Store) Children(seriesID uuid.UUID) []*model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Task
	for _, t := range s.tasks {
		if t.ParentID != nil && *t.ParentID == seriesID {
			out = append(out, s.taskCopy(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(*out[j].StartDate) })
	return out
}

func (s *Store) Notifications() []*model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		c := *n
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *Store) Notification(id uuid.UUID) *model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.notifications[id]; ok {
		c := *n
		return &c
	}
	return nil
}

func (s *Store) Baseline(projectID uuid.UUID) *model.ProjectMetricsBaseline {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.baselines[projectID]; ok {
		c := *b
		return &c
	}
	return nil
}

// taskCopy fills the joined priority name the way the SQL query does.
func (s *Store) taskCopy(t *model.Task) *model.Task {
	c := *t
	c.PriorityName = nil
	if t.PriorityID != nil {
		if p, ok := s.priorities[*t.PriorityID]; ok {
			name := p.Title
			c.PriorityName = &name
		}
	}
	return &c
}

func containsID(ids []uuid.UUID, id *uuid.UUID) bool {
	if id == nil {
		return false
	}
	for _, candidate := range ids {
		if candidate == *id {
			return true
		}
	}
	return false
}
