package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"todoreminder/internal/application/dto"
	"todoreminder/internal/domain/entity"
	"todoreminder/internal/domain/repository"
	"todoreminder/internal/pkg/clock"
	appErrors "todoreminder/internal/pkg/errors"
	"todoreminder/internal/pkg/logger"

	"github.com/google/uuid"
)

const (
	defaultPageLimit = 100
	// Scheduler calls outlive the request that triggered them, up to this long.
	schedulerCallTimeout = 5 * time.Second
)

type todoService struct {
	todoRepo   repository.TodoRepository
	schedulers SchedulerProvider
	log        logger.Logger
}

// NewTodoService creates a new instance of TodoService implementation.
func NewTodoService(todoRepo repository.TodoRepository, schedulers SchedulerProvider, log logger.Logger) TodoService {
	return &todoService{
		todoRepo:   todoRepo,
		schedulers: schedulers,
		log:        log,
	}
}

func (s *todoService) ListTodos(ctx context.Context, owner *entity.User, req dto.ListTodosRequest) (*dto.TodosResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	todos, err := s.todoRepo.FindByOwner(ctx, owner.ID, req.Skip, limit)
	if err != nil {
		return nil, err
	}
	count, err := s.todoRepo.CountByOwner(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	return &dto.TodosResponse{Data: dto.ToTodoResponseList(todos), Count: count}, nil
}

// GetTodo returns ErrTodoNotFound for unknown IDs and ErrPermissionDenied
// for todos owned by someone else.
func (s *todoService) GetTodo(ctx context.Context, owner *entity.User, id uuid.UUID) (*entity.Todo, error) {
	todo, err := s.todoRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if todo.OwnerID != owner.ID {
		return nil, appErrors.ErrPermissionDenied
	}
	return todo, nil
}

func (s *todoService) CreateTodo(ctx context.Context, owner *entity.User, req dto.CreateTodoRequest) (*entity.Todo, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title must not be empty", appErrors.ErrValidation)
	}
	due, err := clock.Parse(req.DueTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErrors.ErrInvalidDateTime, err)
	}

	todo := &entity.Todo{
		Title:       title,
		Description: req.Description,
		DueTime:     due,
		OwnerID:     owner.ID,
	}
	if err := s.todoRepo.Create(ctx, todo); err != nil {
		return nil, err
	}
	s.log.Info(fmt.Sprintf("Created todo %s for user %s due %s", todo.ID, owner.ID, due.Format(time.RFC3339)))

	s.withScheduler(ctx, todo.ID, func(ctx context.Context, sched SchedulerService) error {
		outcome, err := sched.ScheduleIfWithinWindow(ctx, todo)
		if err == nil {
			s.log.Debug(fmt.Sprintf("Todo %s: %s", todo.ID, outcome))
		}
		return err
	})
	return todo, nil
}

func (s *todoService) UpdateTodo(ctx context.Context, owner *entity.User, id uuid.UUID, req dto.UpdateTodoRequest) (*entity.Todo, error) {
	todo, err := s.GetTodo(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title must not be empty", appErrors.ErrValidation)
		}
		todo.Title = title
	}
	if req.Description != nil {
		todo.Description = req.Description
	}
	if req.DueTime != nil {
		due, err := clock.Parse(*req.DueTime)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", appErrors.ErrInvalidDateTime, err)
		}
		todo.DueTime = due
	}

	if err := s.todoRepo.Update(ctx, todo); err != nil {
		return nil, err
	}
	s.log.Info(fmt.Sprintf("Updated todo %s", todo.ID))

	// Rescheduled on every update so the reminder carries the latest fields.
	s.withScheduler(ctx, todo.ID, func(ctx context.Context, sched SchedulerService) error {
		outcome, err := sched.Reschedule(ctx, todo)
		if err == nil {
			s.log.Debug(fmt.Sprintf("Todo %s rescheduled: %s", todo.ID, outcome))
		}
		return err
	})
	return todo, nil
}

func (s *todoService) DeleteTodo(ctx context.Context, owner *entity.User, id uuid.UUID) error {
	if _, err := s.GetTodo(ctx, owner, id); err != nil {
		return err
	}
	if err := s.todoRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info(fmt.Sprintf("Deleted todo %s", id))

	s.withScheduler(ctx, id, func(ctx context.Context, sched SchedulerService) error {
		_, err := sched.Cancel(ctx, id)
		return err
	})
	return nil
}

func (s *todoService) TriggerHydration(ctx context.Context) (int, error) {
	sched, err := s.schedulers.Get()
	if err != nil {
		return 0, err
	}
	return sched.Hydrate(ctx)
}

// withScheduler runs fn against the current scheduler after the store change
// has committed. Failures are logged only; the next hydration pass repairs them.
func (s *todoService) withScheduler(ctx context.Context, todoID uuid.UUID, fn func(context.Context, SchedulerService) error) {
	sched, err := s.schedulers.Get()
	if err != nil {
		s.log.Error(fmt.Sprintf("Scheduler unavailable for todo %s", todoID), err)
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), schedulerCallTimeout)
	defer cancel()
	if err := fn(ctx, sched); err != nil {
		s.log.Error(fmt.Sprintf("Scheduler call failed for todo %s", todoID), err)
	}
}
