package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/krono/backend/domain"
	"github.com/krono/backend/repository"
)

type fixture struct {
	store    *memStore
	tasks    *memTaskRepo
	types    *memTypeRepo
	profiles *memProfileRepo
	events   *memEventRepo
	clock    *fixedClock
	uc       *UseCase
}

func newFixture() *fixture {
	store := newMemStore()
	tasks := &memTaskRepo{store: store}
	types := newMemTypeRepo()
	profiles := newMemProfileRepo()
	events := &memEventRepo{}
	clock := newFixedClock(time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC))

	return &fixture{
		store:    store,
		tasks:    tasks,
		types:    types,
		profiles: profiles,
		events:   events,
		clock:    clock,
		uc:       New(store, tasks, types, profiles, events, clock, nil),
	}
}

func TestTracker_Start(t *testing.T) {
	ctx := context.Background()

	t.Run("Given idle user When Start Then opens a task", func(t *testing.T) {
		f := newFixture()
		f.types.allow("user-1", "type-work")

		task, err := f.uc.Start(ctx, "user-1", "type-work", "writing")
		if err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		if !task.IsOpen() {
			t.Error("expected started task to be open")
		}
		if !task.StartTime.Equal(f.clock.Now()) {
			t.Errorf("expected start time %v, got %v", f.clock.Now(), task.StartTime)
		}
		if task.Notes != "writing" {
			t.Errorf("expected notes to carry over, got %q", task.Notes)
		}
		if got := f.store.openCount("user-1"); got != 1 {
			t.Errorf("expected 1 open task, got %d", got)
		}
	})

	t.Run("Given tracking user When Start Then fails with open task identity", func(t *testing.T) {
		f := newFixture()
		f.types.allow("user-1", "type-work")
		f.types.allow("user-1", "type-email")

		first, err := f.uc.Start(ctx, "user-1", "type-work", "")
		if err != nil {
			t.Fatalf("first Start failed: %v", err)
		}

		_, err = f.uc.Start(ctx, "user-1", "type-email", "")
		var atErr *domain.AlreadyTrackingError
		if !errors.As(err, &atErr) {
			t.Fatalf("expected AlreadyTrackingError, got %v", err)
		}
		if atErr.TaskID != first.ID {
			t.Errorf("expected error to carry task id %s, got %s", first.ID, atErr.TaskID)
		}
		if atErr.TaskTypeID != "type-work" {
			t.Errorf("expected error to carry type id type-work, got %s", atErr.TaskTypeID)
		}

		// failed start leaves the original task untouched
		if open := f.store.findOpen("user-1"); open == nil || open.ID != first.ID {
			t.Error("expected original open task to survive the failed start")
		}
		if got := f.store.openCount("user-1"); got != 1 {
			t.Errorf("expected 1 open task, got %d", got)
		}
	})

	t.Run("Given unknown task type When Start Then fails before any mutation", func(t *testing.T) {
		f := newFixture()

		_, err := f.uc.Start(ctx, "user-1", "type-nope", "")
		if !errors.Is(err, domain.ErrInvalidTaskType) {
			t.Fatalf("expected ErrInvalidTaskType, got %v", err)
		}
		if f.store.RunCount != 0 {
			t.Error("expected no unit of work for invalid type")
		}
	})

	t.Run("Given empty task type When Start Then invalid", func(t *testing.T) {
		f := newFixture()

		_, err := f.uc.Start(ctx, "user-1", "", "")
		if !errors.Is(err, domain.ErrInvalidTaskType) {
			t.Fatalf("expected ErrInvalidTaskType, got %v", err)
		}
	})

	t.Run("Given type lookup failure When Start Then unavailable", func(t *testing.T) {
		f := newFixture()
		f.types.Err = errMockStore

		_, err := f.uc.Start(ctx, "user-1", "type-work", "")
		if !domain.IsDomainError(err, domain.ErrCodeUnavailable) {
			t.Fatalf("expected UNAVAILABLE, got %v", err)
		}
	})

	t.Run("Given store failure When Start Then retryable error and no task", func(t *testing.T) {
		f := newFixture()
		f.types.allow("user-1", "type-work")
		f.store.FailRun = true

		_, err := f.uc.Start(ctx, "user-1", "type-work", "")
		if !domain.IsDomainError(err, domain.ErrCodeUnavailable) {
			t.Fatalf("expected UNAVAILABLE, got %v", err)
		}
		if got := f.store.openCount("user-1"); got != 0 {
			t.Errorf("expected no open task after failed start, got %d", got)
		}
	})

	t.Run("Given two users When both Start Then both track independently", func(t *testing.T) {
		f := newFixture()
		f.types.allow("user-1", "type-work")
		f.types.allow("user-2", "type-work")

		if _, err := f.uc.Start(ctx, "user-1", "type-work", ""); err != nil {
			t.Fatalf("user-1 Start failed: %v", err)
		}
		if _, err := f.uc.Start(ctx, "user-2", "type-work", ""); err != nil {
			t.Fatalf("user-2 Start failed: %v", err)
		}
		if f.store.openCount("user-1") != 1 || f.store.openCount("user-2") != 1 {
			t.Error("expected each user to have exactly one open task")
		}
	})
}

func TestTracker_Stop(t *testing.T) {
	ctx := context.Background()

	t.Run("Given tracking user When Stop Then closes with end time", func(t *testing.T) {
		f := newFixture()
		f.types.allow("user-1", "type-work")

		started, err := f.uc.Start(ctx, "user-1", "type-work", "")
		if err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		f.clock.Advance(25 * time.Minute)

		stopped, err := f.uc.Stop(ctx, "user-1")
		if err != nil {
			t.Fatalf("Stop failed: %v", err)
		}
		if stopped.ID != started.ID {
			t.Errorf("expected stopped task %s, got %s", started.ID, stopped.ID)
		}
		if stopped.EndTime == nil || !stopped.EndTime.Equal(f.clock.Now()) {
			t.Errorf("expected end time %v, got %v", f.clock.Now(), stopped.EndTime)
		}
		if stopped.Interrupted {
			t.Error("normal stop must not mark the task interrupted")
		}
		if got := stopped.Duration(time.Time{}); got != 25*time.Minute {
			t.Errorf("expected 25m duration, got %v", got)
		}
		if f.store.openCount("user-1") != 0 {
			t.Error("expected user to be idle after stop")
		}
	})

	t.Run("Given stop at the start instant When Stop Then end strictly after start", func(t *testing.T) {
		f := newFixture()
		f.types.allow("user-1", "type-work")

		started, err := f.uc.Start(ctx, "user-1", "type-work", "")
		if err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		stopped, err := f.uc.Stop(ctx, "user-1")
		if err != nil {
			t.Fatalf("Stop failed: %v", err)
		}
		if stopped.EndTime == nil || !stopped.EndTime.After(started.StartTime) {
			t.Errorf("expected end strictly after start %v, got %v", started.StartTime, stopped.EndTime)
		}
	})

	t.Run("Given idle user When Stop Then ErrNoActiveTask", func(t *testing.T) {
		f := newFixture()

		_, err := f.uc.Stop(ctx, "user-1")
		if !errors.Is(err, domain.ErrNoActiveTask) {
			t.Fatalf("expected ErrNoActiveTask, got %v", err)
		}
	})

	t.Run("Given stopped task When Stop again Then ErrNoActiveTask", func(t *testing.T) {
		f := newFixture()
		f.types.allow("user-1", "type-work")

		if _, err := f.uc.Start(ctx, "user-1", "type-work", ""); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		if _, err := f.uc.Stop(ctx, "user-1"); err != nil {
			t.Fatalf("Stop failed: %v", err)
		}
		if _, err := f.uc.Stop(ctx, "user-1"); !errors.Is(err, domain.ErrNoActiveTask) {
			t.Fatalf("expected ErrNoActiveTask, got %v", err)
		}
	})
}

func TestTracker_Interrupt(t *testing.T) {
	ctx := context.Background()

	t.Run("Given tracking user When Interrupt Then switches atomically", func(t *testing.T) {
		f := newFixture()
		f.types.allow("user-1", "type-work")
		f.types.allow("user-1", "type-call")

		started, err := f.uc.Start(ctx, "user-1", "type-work", "")
		if err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		f.clock.Advance(10 * time.Minute)

		sw, err := f.uc.Interrupt(ctx, "user-1", "type-call", "phone rang")
		if err != nil {
			t.Fatalf("Interrupt failed: %v", err)
		}
		if sw.Interrupted == nil || sw.Interrupted.ID != started.ID {
			t.Fatal("expected the open task to be the interrupted one")
		}
		if !sw.Interrupted.Interrupted {
			t.Error("expected closed task to be marked interrupted")
		}
		if sw.Started == nil || sw.Started.TaskTypeID != "type-call" {
			t.Fatal("expected a new open task of the requested type")
		}

		// old end and new start stamped with the same instant
		if sw.Interrupted.EndTime == nil || !sw.Interrupted.EndTime.Equal(sw.Started.StartTime) {
			t.Errorf("expected seamless switch, end %v start %v", sw.Interrupted.EndTime, sw.Started.StartTime)
		}
		if got := f.store.openCount("user-1"); got != 1 {
			t.Errorf("expected exactly 1 open task after interrupt, got %d", got)
		}
	})

	t.Run("Given interrupt at the start instant When Interrupt Then ends strictly after start and stays seamless", func(t *testing.T) {
		f := newFixture()
		f.types.allow("user-1", "type-work")
		f.types.allow("user-1", "type-call")

		if _, err := f.uc.Start(ctx, "user-1", "type-work", ""); err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		sw, err := f.uc.Interrupt(ctx, "user-1", "type-call", "")
		if err != nil {
			t.Fatalf("Interrupt failed: %v", err)
		}
		if sw.Interrupted.EndTime == nil || !sw.Interrupted.EndTime.After(sw.Interrupted.StartTime) {
			t.Errorf("expected end strictly after start %v, got %v", sw.Interrupted.StartTime, sw.Interrupted.EndTime)
		}
		if !sw.Interrupted.EndTime.Equal(sw.Started.StartTime) {
			t.Errorf("expected seamless switch, end %v start %v", sw.Interrupted.EndTime, sw.Started.StartTime)
		}
	})

	t.Run("Given idle user When Interrupt Then just starts", func(t *testing.T) {
		f := newFixture()
		f.types.allow("user-1", "type-call")

		sw, err := f.uc.Interrupt(ctx, "user-1", "type-call", "")
		if err != nil {
			t.Fatalf("Interrupt failed: %v", err)
		}
		if sw.Interrupted != nil {
			t.Error("expected no interrupted task for an idle user")
		}
		if sw.Started == nil || !sw.Started.IsOpen() {
			t.Fatal("expected an open task after interrupt from idle")
		}
	})

	t.Run("Given invalid type When Interrupt Then open task survives", func(t *testing.T) {
		f := newFixture()
		f.types.allow("user-1", "type-work")

		started, err := f.uc.Start(ctx, "user-1", "type-work", "")
		if err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		_, err = f.uc.Interrupt(ctx, "user-1", "type-nope", "")
		if !errors.Is(err, domain.ErrInvalidTaskType) {
			t.Fatalf("expected ErrInvalidTaskType, got %v", err)
		}
		if open := f.store.findOpen("user-1"); open == nil || open.ID != started.ID {
			t.Error("expected original task to remain open after failed interrupt")
		}
	})
}

func TestTracker_Current(t *testing.T) {
	ctx := context.Background()

	t.Run("Given idle user When Current Then nil", func(t *testing.T) {
		f := newFixture()

		task, err := f.uc.Current(ctx, "user-1")
		if err != nil {
			t.Fatalf("Current failed: %v", err)
		}
		if task != nil {
			t.Errorf("expected nil for idle user, got %+v", task)
		}
	})

	t.Run("Given tracking user When Current Then returns the open task", func(t *testing.T) {
		f := newFixture()
		f.types.allow("user-1", "type-work")

		started, err := f.uc.Start(ctx, "user-1", "type-work", "")
		if err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		task, err := f.uc.Current(ctx, "user-1")
		if err != nil {
			t.Fatalf("Current failed: %v", err)
		}
		if task == nil || task.ID != started.ID {
			t.Error("expected Current to return the started task")
		}
	})
}

func TestTracker_Expire(t *testing.T) {
	ctx := context.Background()

	t.Run("Given tracking user When Expire Then closed as interrupted", func(t *testing.T) {
		f := newFixture()
		f.types.allow("user-1", "type-work")

		if _, err := f.uc.Start(ctx, "user-1", "type-work", ""); err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		expired, err := f.uc.Expire(ctx, "user-1")
		if err != nil {
			t.Fatalf("Expire failed: %v", err)
		}
		if expired == nil || !expired.Interrupted {
			t.Error("expected expired task to be closed as interrupted")
		}
		if f.store.openCount("user-1") != 0 {
			t.Error("expected user to be idle after expire")
		}
	})

	t.Run("Given idle user When Expire Then no-op", func(t *testing.T) {
		f := newFixture()

		expired, err := f.uc.Expire(ctx, "user-1")
		if err != nil {
			t.Fatalf("Expire failed: %v", err)
		}
		if expired != nil {
			t.Errorf("expected nil for idle user, got %+v", expired)
		}
	})
}

func TestTracker_Heartbeat(t *testing.T) {
	ctx := context.Background()

	t.Run("Given user When Heartbeat Then liveness is stamped", func(t *testing.T) {
		f := newFixture()

		if err := f.uc.Heartbeat(ctx, "user-1"); err != nil {
			t.Fatalf("Heartbeat failed: %v", err)
		}
		f.profiles.mu.Lock()
		hb, ok := f.profiles.heartbeats["user-1"]
		f.profiles.mu.Unlock()
		if !ok || !hb.Equal(f.clock.Now()) {
			t.Errorf("expected heartbeat at %v, got %v", f.clock.Now(), hb)
		}
	})
}

func TestTracker_EventLog(t *testing.T) {
	ctx := context.Background()

	t.Run("Given full session When transitions run Then events are appended in order", func(t *testing.T) {
		f := newFixture()
		f.types.allow("user-1", "type-work")
		f.types.allow("user-1", "type-call")

		if _, err := f.uc.Start(ctx, "user-1", "type-work", ""); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		if _, err := f.uc.Interrupt(ctx, "user-1", "type-call", ""); err != nil {
			t.Fatalf("Interrupt failed: %v", err)
		}
		if _, err := f.uc.Stop(ctx, "user-1"); err != nil {
			t.Fatalf("Stop failed: %v", err)
		}

		want := []string{
			domain.EventTaskStarted,
			domain.EventTaskInterrupted,
			domain.EventTaskStarted,
			domain.EventTaskStopped,
		}
		got := f.events.names()
		if len(got) != len(want) {
			t.Fatalf("expected %d events, got %d: %v", len(want), len(got), got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("event %d: expected %s, got %s", i, want[i], got[i])
			}
		}
	})
}

func TestMemStore_Rollback(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	t.Run("Given failing unit When another user commits mid-unit Then commit survives rollback", func(t *testing.T) {
		store := newMemStore()

		err := store.Run(ctx, "user-a", func(unit repository.TrackerUnit) error {
			if _, err := unit.Create(ctx, &domain.Task{UserID: "user-a", TaskTypeID: "type-work", StartTime: start}); err != nil {
				return err
			}
			// user-b's unit commits while user-a's is still in flight
			if err := store.Run(ctx, "user-b", func(u repository.TrackerUnit) error {
				_, err := u.Create(ctx, &domain.Task{UserID: "user-b", TaskTypeID: "type-work", StartTime: start})
				return err
			}); err != nil {
				return err
			}
			return errMockStore
		})
		if !errors.Is(err, errMockStore) {
			t.Fatalf("expected mock store failure, got %v", err)
		}
		if got := store.openCount("user-a"); got != 0 {
			t.Errorf("expected the failing user's write rolled back, got %d open tasks", got)
		}
		if got := store.openCount("user-b"); got != 1 {
			t.Errorf("expected the committed write to survive, got %d open tasks", got)
		}
	})
}

func TestTracker_ConcurrentStarts(t *testing.T) {
	ctx := context.Background()

	t.Run("Given N concurrent starts Then exactly one wins", func(t *testing.T) {
		f := newFixture()
		f.types.allow("user-1", "type-work")

		const n = 16
		var wg sync.WaitGroup
		errs := make([]error, n)

		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = f.uc.Start(ctx, "user-1", "type-work", "")
			}(i)
		}
		wg.Wait()

		winners := 0
		for _, err := range errs {
			if err == nil {
				winners++
				continue
			}
			var atErr *domain.AlreadyTrackingError
			if !errors.As(err, &atErr) {
				t.Errorf("loser got unexpected error: %v", err)
			}
		}
		if winners != 1 {
			t.Errorf("expected exactly 1 winner, got %d", winners)
		}
		if got := f.store.openCount("user-1"); got != 1 {
			t.Errorf("expected exactly 1 open task, got %d", got)
		}
	})

	t.Run("Given concurrent interrupts Then one open task remains", func(t *testing.T) {
		f := newFixture()
		f.types.allow("user-1", "type-work")
		f.types.allow("user-1", "type-call")

		if _, err := f.uc.Start(ctx, "user-1", "type-work", ""); err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		const n = 8
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := f.uc.Interrupt(ctx, "user-1", "type-call", ""); err != nil {
					t.Errorf("Interrupt failed: %v", err)
				}
			}()
		}
		wg.Wait()

		if got := f.store.openCount("user-1"); got != 1 {
			t.Errorf("expected exactly 1 open task, got %d", got)
		}
	})
}
