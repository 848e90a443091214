package service

import (
	"context"
	"todoreminder/internal/domain/constant"
	"todoreminder/internal/domain/entity"

	"github.com/google/uuid"
)

// SchedulerService keeps one in-memory timer per todo due within the
// lookahead window and sends a reminder when it fires.
type SchedulerService interface {
	// Start runs the command loop. It must be called before any other method.
	Start(ctx context.Context) error
	// Hydrate schedules every stored todo due within the window that has no
	// job yet. It returns the number of jobs created.
	Hydrate(ctx context.Context) (int, error)
	// ScheduleIfWithinWindow arms a timer for todo if its due time is in the
	// future and within the window. An existing job is left untouched.
	ScheduleIfWithinWindow(ctx context.Context, todo *entity.Todo) (constant.ScheduleOutcome, error)
	// Reschedule cancels any job for todo and schedules it again from its current due time.
	Reschedule(ctx context.Context, todo *entity.Todo) (constant.ScheduleOutcome, error)
	// Cancel removes the job for todoID. It reports whether a job existed.
	Cancel(ctx context.Context, todoID uuid.UUID) (bool, error)
	// StartBackgroundHydrator runs Hydrate on the configured interval. Idempotent.
	StartBackgroundHydrator() error
	// Shutdown stops the hydrator and cancels every pending job. Idempotent.
	Shutdown(ctx context.Context) error
	// IsScheduled reports whether a job exists for todoID.
	IsScheduled(todoID uuid.UUID) bool
	// ScheduledCount returns the number of pending jobs.
	ScheduledCount() int
}
