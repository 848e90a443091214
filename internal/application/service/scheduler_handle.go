package service

import (
	"context"
	"sync"
	"todoreminder/internal/pkg/config"
	appErrors "todoreminder/internal/pkg/errors"
	"todoreminder/internal/pkg/logger"
)

// SchedulerFactory builds an unstarted scheduler from its configuration.
type SchedulerFactory func(cfg config.Scheduler) SchedulerService

// SchedulerProvider hands out the process's current scheduler.
type SchedulerProvider interface {
	Get() (SchedulerService, error)
}

// SchedulerHandle owns the one scheduler instance of the process. Request
// handlers reach the scheduler through it instead of a package global.
type SchedulerHandle struct {
	mu      sync.RWMutex
	factory SchedulerFactory
	current SchedulerService
	log     logger.Logger
}

// NewSchedulerHandle creates an empty handle. Call Init before Get.
func NewSchedulerHandle(factory SchedulerFactory, log logger.Logger) *SchedulerHandle {
	return &SchedulerHandle{factory: factory, log: log}
}

// Init builds and starts a scheduler from cfg and makes it current. A
// scheduler installed earlier is replaced; shut it down first or its timers
// keep running unowned.
func (h *SchedulerHandle) Init(ctx context.Context, cfg config.Scheduler) (SchedulerService, error) {
	svc := h.factory(cfg)
	if err := svc.Start(ctx); err != nil {
		return nil, err
	}

	h.mu.Lock()
	prev := h.current
	h.current = svc
	h.mu.Unlock()

	if prev != nil {
		h.log.Warn("Scheduler re-initialized while a previous instance was still installed")
	}
	return svc, nil
}

// Get returns the current scheduler or ErrNotInitialized.
func (h *SchedulerHandle) Get() (SchedulerService, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.current == nil {
		return nil, appErrors.ErrNotInitialized
	}
	return h.current, nil
}

// Shutdown stops the current scheduler and clears the handle. A handle with
// nothing installed shuts down as a no-op.
func (h *SchedulerHandle) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	svc := h.current
	h.current = nil
	h.mu.Unlock()

	if svc == nil {
		return nil
	}
	return svc.Shutdown(ctx)
}
