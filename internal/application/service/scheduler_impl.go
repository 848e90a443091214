package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"todoreminder/internal/application/dto"
	"todoreminder/internal/domain/constant"
	"todoreminder/internal/domain/entity"
	"todoreminder/internal/domain/repository"
	"todoreminder/internal/infrastructure/scheduler"
	"todoreminder/internal/pkg/clock"
	"todoreminder/internal/pkg/config"
	appErrors "todoreminder/internal/pkg/errors"
	"todoreminder/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

type commandKind int

const (
	cmdSchedule commandKind = iota
	cmdReschedule
	cmdCancel
	cmdHydrate
)

func (k commandKind) String() string {
	switch k {
	case cmdSchedule:
		return "schedule"
	case cmdReschedule:
		return "reschedule"
	case cmdCancel:
		return "cancel"
	case cmdHydrate:
		return "hydrate"
	default:
		return "unknown"
	}
}

// command is a registry mutation executed on the scheduler loop.
type command struct {
	kind  commandKind
	ctx   context.Context
	todo  *entity.Todo
	id    uuid.UUID
	reply chan commandResult
}

type commandResult struct {
	outcome constant.ScheduleOutcome
	removed bool
	count   int
	err     error
}

type runState int

const (
	stateNew runState = iota
	stateRunning
	stateStopped
)

type schedulerService struct {
	cfg           config.Scheduler
	todoRepo      repository.TodoRepository
	userRepo      repository.UserRepository
	notifier      NotifierService
	cronScheduler *scheduler.Scheduler // Runs the background hydrator
	clock         clock.Clock
	log           logger.Logger

	registry *jobRegistry
	commands chan command
	jobs     sync.WaitGroup // Live timer goroutines

	mu         sync.Mutex // Protects the fields below
	state      runState
	loopCtx    context.Context
	loopStop   context.CancelFunc
	loopDone   chan struct{}
	hydratorOn bool
	hydratorID scheduler.EntryID
}

// NewSchedulerService creates a scheduler. cronScheduler must not be shared
// with another scheduler instance since Shutdown stops it.
func NewSchedulerService(
	cfg config.Scheduler,
	todoRepo repository.TodoRepository,
	userRepo repository.UserRepository,
	notifier NotifierService,
	cronScheduler *scheduler.Scheduler,
	clk clock.Clock,
	log logger.Logger,
) SchedulerService {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	if cronScheduler == nil {
		cronScheduler = scheduler.NewScheduler(log)
	}
	buf := cfg.CommandBuffer
	if buf < 0 {
		buf = 0
	}
	return &schedulerService{
		cfg:           cfg,
		todoRepo:      todoRepo,
		userRepo:      userRepo,
		notifier:      notifier,
		cronScheduler: cronScheduler,
		clock:         clk,
		log:           log,
		registry:      newJobRegistry(),
		commands:      make(chan command, buf),
	}
}

// Start launches the command loop bound to ctx.
func (s *schedulerService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stateRunning:
		return nil
	case stateStopped:
		return appErrors.ErrSchedulerStopped
	}
	s.loopCtx, s.loopStop = context.WithCancel(ctx)
	s.loopDone = make(chan struct{})
	s.state = stateRunning
	go s.run(s.loopCtx, s.loopDone)
	s.log.Info(fmt.Sprintf("Reminder scheduler started (window %s)", s.cfg.Window))
	return nil
}

// run owns every registry mutation. Commands execute one at a time.
func (s *schedulerService) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-s.commands:
			cmd.reply <- s.execute(ctx, cmd)
		}
	}
}

func (s *schedulerService) execute(loopCtx context.Context, cmd command) commandResult {
	switch cmd.kind {
	case cmdSchedule:
		return commandResult{outcome: s.schedule(loopCtx, cmd.todo)}
	case cmdReschedule:
		if s.registry.CancelAndRemove(cmd.todo.ID) {
			s.log.Debug(fmt.Sprintf("Cancelled previous job for todo %s", cmd.todo.ID))
		}
		return commandResult{outcome: s.schedule(loopCtx, cmd.todo)}
	case cmdCancel:
		return commandResult{removed: s.registry.CancelAndRemove(cmd.id)}
	case cmdHydrate:
		n, err := s.hydrate(cmd.ctx, loopCtx)
		return commandResult{count: n, err: err}
	default:
		return commandResult{err: fmt.Errorf("unknown scheduler command %d", cmd.kind)}
	}
}

// schedule arms a timer for todo. The timer exists before the caller gets its reply.
func (s *schedulerService) schedule(loopCtx context.Context, todo *entity.Todo) constant.ScheduleOutcome {
	due := clock.Normalize(todo.DueTime)
	delay := clock.Until(s.clock, due)
	if delay <= 0 {
		return constant.OutcomePast
	}
	if delay > s.cfg.Window {
		return constant.OutcomeOutOfWindow
	}

	if !s.registry.TryInsert(todo.ID) {
		return constant.OutcomeAlreadyScheduled
	}
	jobCtx, cancel := context.WithCancel(loopCtx)
	h := &jobHandle{todoID: todo.ID, due: due, cancel: cancel}
	timer := s.clock.NewTimer(delay)
	s.registry.Attach(todo.ID, h)
	s.jobs.Add(1)
	go s.runJob(jobCtx, h, timer)

	s.log.Debug(fmt.Sprintf("Scheduled reminder for todo %s in %s", todo.ID, delay))
	return constant.OutcomeScheduled
}

func (s *schedulerService) runJob(ctx context.Context, h *jobHandle, timer clockwork.Timer) {
	defer s.jobs.Done()
	defer s.registry.RemoveIf(h.todoID, h)

	select {
	case <-ctx.Done():
		timer.Stop()
		s.log.Debug(fmt.Sprintf("Reminder job for todo %s cancelled", h.todoID))
		return
	case <-timer.Chan():
	}
	// Cancelled at the same instant the timer fired.
	if ctx.Err() != nil {
		return
	}
	s.fire(h)
}

// fire re-reads the todo and its owner and sends the reminder. It runs on
// its own context so a reschedule never interrupts a send already under way.
func (s *schedulerService) fire(h *jobHandle) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.FireTimeout)
	defer cancel()

	todo, err := s.todoRepo.FindByID(ctx, h.todoID)
	if err != nil {
		if errors.Is(err, appErrors.ErrTodoNotFound) {
			s.log.Info(fmt.Sprintf("Todo %s was deleted before its reminder fired", h.todoID))
			return
		}
		s.log.Error(fmt.Sprintf("Failed to load todo %s at fire time", h.todoID),
			fmt.Errorf("%w: %v", appErrors.ErrStoreUnavailable, err))
		return
	}
	if clock.Normalize(todo.DueTime).After(h.due) {
		s.log.Info(fmt.Sprintf("Todo %s moved to %s; skipping stale reminder", todo.ID, todo.DueTime.Format(time.RFC3339)))
		return
	}

	owner, err := s.userRepo.FindByID(ctx, todo.OwnerID)
	if err != nil {
		if errors.Is(err, appErrors.ErrUserNotFound) {
			s.log.Warn(fmt.Sprintf("Owner %s of todo %s not found; reminder dropped", todo.OwnerID, todo.ID))
			return
		}
		s.log.Error(fmt.Sprintf("Failed to load owner of todo %s", todo.ID),
			fmt.Errorf("%w: %v", appErrors.ErrStoreUnavailable, err))
		return
	}
	to, ok := s.notifier.Recipient(owner)
	if !ok {
		s.log.Warn(fmt.Sprintf("Owner %s has no address for reminders; todo %s skipped", owner.ID, todo.ID))
		return
	}

	err = s.notifier.SendDueReminder(ctx, dto.DueReminder{
		TodoID:      todo.ID,
		To:          to,
		Title:       todo.Title,
		Description: todo.Description,
		DueTime:     todo.DueTime,
	})
	if err != nil {
		s.log.Error(fmt.Sprintf("Failed to send reminder for todo %s", todo.ID), err)
		return
	}
	s.log.Info(fmt.Sprintf("Reminder sent for todo %s", todo.ID))
}

// hydrate schedules stored todos due in (now, now+window] that have no job.
func (s *schedulerService) hydrate(queryCtx, loopCtx context.Context) (int, error) {
	now := clock.Now(s.clock)
	todos, err := s.todoRepo.FindDueBetween(queryCtx, now, now.Add(s.cfg.Window))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", appErrors.ErrStoreUnavailable, err)
	}
	count := 0
	for _, t := range todos {
		if s.registry.Has(t.ID) {
			continue
		}
		if s.schedule(loopCtx, t) == constant.OutcomeScheduled {
			count++
		}
	}
	return count, nil
}

// submit sends cmd to the loop and waits for its reply.
func (s *schedulerService) submit(ctx context.Context, cmd command) (commandResult, error) {
	s.mu.Lock()
	state, done := s.state, s.loopDone
	s.mu.Unlock()
	if state != stateRunning {
		return commandResult{}, appErrors.ErrSchedulerStopped
	}

	cmd.ctx = ctx
	cmd.reply = make(chan commandResult, 1)
	select {
	case s.commands <- cmd:
	case <-done:
		return commandResult{}, appErrors.ErrSchedulerStopped
	case <-ctx.Done():
		return commandResult{}, ctx.Err()
	}

	select {
	case res := <-cmd.reply:
		return res, res.err
	case <-done:
		// The loop may have replied just before exiting.
		select {
		case res := <-cmd.reply:
			return res, res.err
		default:
			return commandResult{}, appErrors.ErrSchedulerStopped
		}
	case <-ctx.Done():
		return commandResult{}, ctx.Err()
	}
}

func (s *schedulerService) Hydrate(ctx context.Context) (int, error) {
	res, err := s.submit(ctx, command{kind: cmdHydrate})
	if err != nil {
		return 0, err
	}
	if res.count > 0 {
		s.log.Info(fmt.Sprintf("Hydration scheduled %d reminder(s)", res.count))
	}
	return res.count, nil
}

func (s *schedulerService) ScheduleIfWithinWindow(ctx context.Context, todo *entity.Todo) (constant.ScheduleOutcome, error) {
	if todo == nil {
		return 0, fmt.Errorf("%w: nil todo", appErrors.ErrValidation)
	}
	t := *todo
	res, err := s.submit(ctx, command{kind: cmdSchedule, todo: &t})
	return res.outcome, err
}

func (s *schedulerService) Reschedule(ctx context.Context, todo *entity.Todo) (constant.ScheduleOutcome, error) {
	if todo == nil {
		return 0, fmt.Errorf("%w: nil todo", appErrors.ErrValidation)
	}
	t := *todo
	res, err := s.submit(ctx, command{kind: cmdReschedule, todo: &t})
	return res.outcome, err
}

func (s *schedulerService) Cancel(ctx context.Context, todoID uuid.UUID) (bool, error) {
	res, err := s.submit(ctx, command{kind: cmdCancel, id: todoID})
	return res.removed, err
}

func (s *schedulerService) IsScheduled(todoID uuid.UUID) bool {
	return s.registry.Has(todoID)
}

func (s *schedulerService) ScheduledCount() int {
	return s.registry.Len()
}

// StartBackgroundHydrator registers the periodic hydration pass on the cron runner.
func (s *schedulerService) StartBackgroundHydrator() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateRunning {
		return appErrors.ErrSchedulerStopped
	}
	if s.hydratorOn {
		return nil
	}
	id, err := s.cronScheduler.AddJob(scheduler.Every(s.cfg.HydrateInterval), s.backgroundHydrate)
	if err != nil {
		return err
	}
	s.cronScheduler.Start()
	s.hydratorOn = true
	s.hydratorID = id
	return nil
}

// backgroundHydrate is one hydrator tick. Failures are logged and the next tick retries.
func (s *schedulerService) backgroundHydrate() {
	s.mu.Lock()
	ctx := s.loopCtx
	s.mu.Unlock()

	n, err := s.Hydrate(ctx)
	if err != nil {
		if errors.Is(err, appErrors.ErrSchedulerStopped) || errors.Is(err, context.Canceled) {
			s.log.Debug("Background hydration skipped: scheduler stopping")
			return
		}
		s.log.Error("Background hydration pass failed", err)
		return
	}
	s.log.Debug(fmt.Sprintf("Background hydration pass done, %d new job(s), %d pending", n, s.registry.Len()))
}

// Shutdown stops the hydrator, stops the loop and cancels every pending job,
// then waits for job goroutines to exit or ctx to expire.
func (s *schedulerService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	wasRunning := s.state == stateRunning
	s.state = stateStopped
	stop, done, hydrator, hydratorID := s.loopStop, s.loopDone, s.hydratorOn, s.hydratorID
	s.hydratorOn = false
	s.mu.Unlock()

	if !wasRunning {
		return nil
	}

	stop()
	if hydrator {
		s.cronScheduler.RemoveJob(hydratorID)
		s.cronScheduler.Stop()
	}
	<-done

	pending := s.registry.Handles()
	for _, h := range pending {
		h.cancel()
	}
	s.registry.Clear()

	waited := make(chan struct{})
	go func() {
		s.jobs.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for reminder jobs to exit: %w", ctx.Err())
	}
	s.log.Info(fmt.Sprintf("Reminder scheduler stopped, %d pending job(s) cancelled", len(pending)))
	return nil
}
