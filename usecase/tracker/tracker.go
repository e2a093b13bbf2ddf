// Package tracker implements the tracking state machine: per user it is either
// Idle (no open task) or Tracking (exactly one open task). All transitions run
// through the per-user atomic unit provided by repository.TrackerStore, which
// is what keeps the one-open-task invariant under concurrency.
package tracker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/krono/backend/domain"
	"github.com/krono/backend/repository"
	"github.com/krono/backend/usecase"
)

type UseCase struct {
	store    repository.TrackerStore
	tasks    repository.TaskRepository
	types    repository.TaskTypeRepository
	profiles repository.ProfileRepository
	events   repository.EventRepository
	clock    usecase.Clock
	logger   *zap.Logger
}

func New(
	store repository.TrackerStore,
	tasks repository.TaskRepository,
	types repository.TaskTypeRepository,
	profiles repository.ProfileRepository,
	events repository.EventRepository,
	clock usecase.Clock,
	logger *zap.Logger,
) *UseCase {
	if clock == nil {
		clock = usecase.SystemClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		store:    store,
		tasks:    tasks,
		types:    types,
		profiles: profiles,
		events:   events,
		clock:    clock,
		logger:   logger,
	}
}

// Start opens a new task for an idle user. A user that is already tracking
// gets AlreadyTrackingError carrying the open task's identity; switching
// without an explicit stop is what Interrupt is for.
func (uc *UseCase) Start(ctx context.Context, userID, taskTypeID, notes string) (*domain.Task, error) {
	if err := uc.validateType(ctx, userID, taskTypeID); err != nil {
		return nil, err
	}

	var started *domain.Task
	err := uc.store.Run(ctx, userID, func(unit repository.TrackerUnit) error {
		open, err := unit.FindOpen(ctx, userID)
		if err != nil {
			return err
		}
		if open != nil {
			return &domain.AlreadyTrackingError{TaskID: open.ID, TaskTypeID: open.TaskTypeID}
		}

		started, err = unit.Create(ctx, &domain.Task{
			UserID:     userID,
			TaskTypeID: taskTypeID,
			StartTime:  uc.clock.Now(),
			Notes:      notes,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.record(ctx, userID, started.ID, domain.EventTaskStarted)
	return started, nil
}

// Stop closes the user's open task. Stopping while idle is an error, not a
// silent success.
func (uc *UseCase) Stop(ctx context.Context, userID string) (*domain.Task, error) {
	var stopped *domain.Task
	err := uc.store.Run(ctx, userID, func(unit repository.TrackerUnit) error {
		open, err := unit.FindOpen(ctx, userID)
		if err != nil {
			return err
		}
		if open == nil {
			return domain.ErrNoActiveTask
		}

		stopped, err = unit.Close(ctx, open.ID, closeTime(open, uc.clock.Now()), false)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.record(ctx, userID, stopped.ID, domain.EventTaskStopped)
	return stopped, nil
}

// Interrupt atomically closes the open task (if any) as interrupted and opens
// a new one. A concurrent reader never observes the half-switched state: both
// writes commit in the same unit.
func (uc *UseCase) Interrupt(ctx context.Context, userID, taskTypeID, notes string) (*domain.TaskSwitch, error) {
	if err := uc.validateType(ctx, userID, taskTypeID); err != nil {
		return nil, err
	}

	result := &domain.TaskSwitch{}
	err := uc.store.Run(ctx, userID, func(unit repository.TrackerUnit) error {
		open, err := unit.FindOpen(ctx, userID)
		if err != nil {
			return err
		}

		now := uc.clock.Now()
		if open != nil {
			// the switch shares one instant: the old task ends exactly where
			// the new one starts
			now = closeTime(open, now)
			closed, err := unit.Close(ctx, open.ID, now, true)
			if err != nil {
				return err
			}
			result.Interrupted = closed
		}

		result.Started, err = unit.Create(ctx, &domain.Task{
			UserID:     userID,
			TaskTypeID: taskTypeID,
			StartTime:  now,
			Notes:      notes,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if result.Interrupted != nil {
		uc.record(ctx, userID, result.Interrupted.ID, domain.EventTaskInterrupted)
	}
	uc.record(ctx, userID, result.Started.ID, domain.EventTaskStarted)
	return result, nil
}

// Current returns the user's open task, or nil when idle. Read-only; it does
// not take the per-user lock since the atomic unit guarantees committed state
// is never half-switched.
func (uc *UseCase) Current(ctx context.Context, userID string) (*domain.Task, error) {
	return uc.tasks.FindOpen(ctx, userID)
}

// Heartbeat stamps the user's liveness; the watchdog expires open tasks of
// users that stop reporting.
func (uc *UseCase) Heartbeat(ctx context.Context, userID string) error {
	return uc.profiles.Touch(ctx, userID, uc.clock.Now())
}

// Expire closes the user's open task as interrupted without opening a new one.
// Used by the heartbeat watchdog; returns nil when the user was already idle.
func (uc *UseCase) Expire(ctx context.Context, userID string) (*domain.Task, error) {
	var expired *domain.Task
	err := uc.store.Run(ctx, userID, func(unit repository.TrackerUnit) error {
		open, err := unit.FindOpen(ctx, userID)
		if err != nil {
			return err
		}
		if open == nil {
			return nil
		}

		expired, err = unit.Close(ctx, open.ID, closeTime(open, uc.clock.Now()), true)
		return err
	})
	if err != nil {
		return nil, err
	}

	if expired != nil {
		uc.record(ctx, userID, expired.ID, domain.EventTaskExpired)
	}
	return expired, nil
}

// closeTime picks the end timestamp for a closing task. Closed tasks end
// strictly after they start, so a transition landing within the clock's
// resolution of the start is pushed forward by a nanosecond.
func closeTime(open *domain.Task, now time.Time) time.Time {
	if now.After(open.StartTime) {
		return now
	}
	return open.StartTime.Add(time.Nanosecond)
}

func (uc *UseCase) validateType(ctx context.Context, userID, taskTypeID string) error {
	if taskTypeID == "" {
		return domain.ErrInvalidTaskType
	}
	valid, err := uc.types.IsValid(ctx, userID, taskTypeID)
	if err != nil {
		return domain.NewTransientStoreError(err)
	}
	if !valid {
		return domain.ErrInvalidTaskType
	}
	return nil
}

// record appends to the event log best-effort; the transition has already
// committed and is not rolled back on audit failure.
func (uc *UseCase) record(ctx context.Context, userID, taskID, name string) {
	if uc.events == nil {
		return
	}
	if err := uc.events.Append(ctx, domain.TaskEvent{
		UserID: userID,
		TaskID: taskID,
		Name:   name,
	}); err != nil {
		uc.logger.Warn("failed to append task event",
			zap.String("event", name),
			zap.String("task_id", taskID),
			zap.Error(err))
	}
}
