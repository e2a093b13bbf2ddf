package tracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/krono/backend/domain"
	"github.com/krono/backend/repository"
)

var errMockStore = errors.New("mock store failure")

// memStore is an in-memory TrackerStore. Units for the same user serialize on
// a per-user mutex, and a failed unit rolls back only that user's rows,
// mirroring the transactional store.
type memStore struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	tasks map[string]*domain.Task

	FailRun  bool
	RunCount int
}

func newMemStore() *memStore {
	return &memStore{
		locks: make(map[string]*sync.Mutex),
		tasks: make(map[string]*domain.Task),
	}
}

func (s *memStore) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

func (s *memStore) Run(ctx context.Context, userID string, fn func(repository.TrackerUnit) error) error {
	if s.FailRun {
		return domain.NewTransientStoreError(errMockStore)
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	s.RunCount++
	snapshot := make(map[string]*domain.Task)
	for id, task := range s.tasks {
		if task.UserID == userID {
			copied := *task
			snapshot[id] = &copied
		}
	}
	s.mu.Unlock()

	if err := fn(&memUnit{store: s}); err != nil {
		// roll back this user's rows only; concurrent commits for other
		// users stay put
		s.mu.Lock()
		for id, task := range s.tasks {
			if task.UserID == userID {
				delete(s.tasks, id)
			}
		}
		for id, task := range snapshot {
			s.tasks[id] = task
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) findOpen(userID string) *domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, task := range s.tasks {
		if task.UserID == userID && task.EndTime == nil {
			copied := *task
			return &copied
		}
	}
	return nil
}

func (s *memStore) openCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, task := range s.tasks {
		if task.UserID == userID && task.EndTime == nil {
			count++
		}
	}
	return count
}

func (s *memStore) get(taskID string) *domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if task, ok := s.tasks[taskID]; ok {
		copied := *task
		return &copied
	}
	return nil
}

type memUnit struct {
	store *memStore
}

func (u *memUnit) FindOpen(ctx context.Context, userID string) (*domain.Task, error) {
	return u.store.findOpen(userID), nil
}

func (u *memUnit) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	copied := *task
	if copied.ID == "" {
		copied.ID = uuid.NewString()
	}
	copied.CreatedAt = time.Now()
	copied.UpdatedAt = copied.CreatedAt
	u.store.tasks[copied.ID] = &copied

	result := copied
	return &result, nil
}

func (u *memUnit) Close(ctx context.Context, taskID string, end time.Time, interrupted bool) (*domain.Task, error) {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	task, ok := u.store.tasks[taskID]
	if !ok || task.EndTime != nil {
		return nil, domain.ErrNoActiveTask
	}
	task.EndTime = &end
	task.Interrupted = interrupted
	task.UpdatedAt = end

	copied := *task
	return &copied, nil
}

// memTaskRepo provides the read side over the same state as memStore.
type memTaskRepo struct {
	store *memStore
}

func (r *memTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	if task := r.store.get(id); task != nil {
		return task, nil
	}
	return nil, domain.ErrTaskNotFound
}

func (r *memTaskRepo) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.Task
	for _, task := range r.store.tasks {
		if task.UserID == filter.UserID {
			out = append(out, *task)
		}
	}
	return out, nil
}

func (r *memTaskRepo) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	unit := &memUnit{store: r.store}
	return unit.Create(ctx, task)
}

func (r *memTaskRepo) Update(ctx context.Context, task *domain.Task) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.tasks[task.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	copied := *task
	r.store.tasks[task.ID] = &copied
	return nil
}

func (r *memTaskRepo) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.tasks, id)
	return nil
}

func (r *memTaskRepo) FindOpen(ctx context.Context, userID string) (*domain.Task, error) {
	return r.store.findOpen(userID), nil
}

// memTypeRepo tracks which type ids are valid per user.
type memTypeRepo struct {
	mu    sync.Mutex
	valid map[string]bool // userID + "/" + typeID
	Err   error
}

func newMemTypeRepo() *memTypeRepo {
	return &memTypeRepo{valid: make(map[string]bool)}
}

func (r *memTypeRepo) allow(userID, typeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.valid[userID+"/"+typeID] = true
}

func (r *memTypeRepo) IsValid(ctx context.Context, userID, typeID string) (bool, error) {
	if r.Err != nil {
		return false, r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.valid[userID+"/"+typeID], nil
}

func (r *memTypeRepo) GetByID(ctx context.Context, id string) (*domain.TaskType, error) {
	return nil, domain.ErrTaskTypeNotFound
}

func (r *memTypeRepo) List(ctx context.Context, filter repository.TaskTypeFilter) ([]domain.TaskType, error) {
	return nil, nil
}

func (r *memTypeRepo) Create(ctx context.Context, taskType *domain.TaskType) (*domain.TaskType, error) {
	return taskType, nil
}

func (r *memTypeRepo) Update(ctx context.Context, taskType *domain.TaskType) error { return nil }

func (r *memTypeRepo) SetArchived(ctx context.Context, id string, archived bool) (*domain.TaskType, error) {
	return nil, domain.ErrTaskTypeNotFound
}

func (r *memTypeRepo) SetSortOrder(ctx context.Context, id string, sortOrder int) error { return nil }

// memProfileRepo records heartbeat touches.
type memProfileRepo struct {
	mu         sync.Mutex
	heartbeats map[string]time.Time
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{heartbeats: make(map[string]time.Time)}
}

func (r *memProfileRepo) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	return nil, domain.ErrProfileNotFound
}

func (r *memProfileRepo) Upsert(ctx context.Context, profile *domain.Profile) error { return nil }

func (r *memProfileRepo) Touch(ctx context.Context, userID string, heartbeat time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.heartbeats[userID] = heartbeat
	return nil
}

func (r *memProfileRepo) ListStale(ctx context.Context, olderThan time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for userID, hb := range r.heartbeats {
		if hb.Before(olderThan) {
			out = append(out, userID)
		}
	}
	return out, nil
}

// memEventRepo collects appended events.
type memEventRepo struct {
	mu     sync.Mutex
	events []domain.TaskEvent
}

func (r *memEventRepo) Append(ctx context.Context, event domain.TaskEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *memEventRepo) List(ctx context.Context, filter repository.EventFilter) ([]domain.TaskEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.TaskEvent(nil), r.events...), nil
}

func (r *memEventRepo) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Name)
	}
	return out
}

// fixedClock returns a constant, adjustable time.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock(now time.Time) *fixedClock {
	return &fixedClock{now: now}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
