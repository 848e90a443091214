package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"todoreminder/internal/application/dto"
	"todoreminder/internal/domain/entity"
	"todoreminder/internal/infrastructure/scheduler"
	"todoreminder/internal/pkg/clock"
	"todoreminder/internal/pkg/config"
	appErrors "todoreminder/internal/pkg/errors"
	"todoreminder/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

var testStart = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

// memTodoRepo is an in-memory TodoRepository.
type memTodoRepo struct {
	mu       sync.Mutex
	todos    map[uuid.UUID]entity.Todo
	failDue  atomic.Int32 // FindDueBetween fails while positive
	dueCalls atomic.Int32
}

func newMemTodoRepo() *memTodoRepo {
	return &memTodoRepo{todos: make(map[uuid.UUID]entity.Todo)}
}

func (r *memTodoRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.todos[id]
	if !ok {
		return nil, fmt.Errorf("%w: todo %s", appErrors.ErrTodoNotFound, id)
	}
	return &t, nil
}

func (r *memTodoRepo) FindByOwner(_ context.Context, ownerID uuid.UUID, offset, limit int) ([]*entity.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Todo
	for _, t := range r.todos {
		if t.OwnerID == ownerID {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueTime.Before(out[j].DueTime) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *memTodoRepo) CountByOwner(_ context.Context, ownerID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, t := range r.todos {
		if t.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (r *memTodoRepo) FindDueBetween(_ context.Context, after, until time.Time) ([]*entity.Todo, error) {
	r.dueCalls.Add(1)
	if r.failDue.Load() > 0 {
		r.failDue.Add(-1)
		return nil, errors.New("disk on fire")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Todo
	for _, t := range r.todos {
		if t.DueTime.After(after) && !t.DueTime.After(until) {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueTime.Before(out[j].DueTime) })
	return out, nil
}

func (r *memTodoRepo) Create(_ context.Context, todo *entity.Todo) error {
	if todo.ID == uuid.Nil {
		todo.ID = uuid.New()
	}
	todo.DueTime = clock.Normalize(todo.DueTime)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.todos[todo.ID] = *todo
	return nil
}

func (r *memTodoRepo) Update(_ context.Context, todo *entity.Todo) error {
	todo.DueTime = clock.Normalize(todo.DueTime)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.todos[todo.ID]; !ok {
		return appErrors.ErrTodoNotFound
	}
	r.todos[todo.ID] = *todo
	return nil
}

func (r *memTodoRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.todos[id]; !ok {
		return appErrors.ErrTodoNotFound
	}
	delete(r.todos, id)
	return nil
}

// memUserRepo is an in-memory UserRepository.
type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]entity.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]entity.User)}
}

func (r *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", appErrors.ErrUserNotFound, id)
	}
	return &u, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, appErrors.ErrUserNotFound
}

func (r *memUserRepo) FindByLineUserID(_ context.Context, lineUserID string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.LineUserID != nil && *u.LineUserID == lineUserID {
			return &u, nil
		}
	}
	return nil, appErrors.ErrUserNotFound
}

func (r *memUserRepo) FindByLineLinkCode(_ context.Context, code string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.LineLinkCode != nil && *u.LineLinkCode == code {
			return &u, nil
		}
	}
	return nil, appErrors.ErrUserNotFound
}

func (r *memUserRepo) Create(_ context.Context, user *entity.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) Update(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return appErrors.ErrUserNotFound
	}
	r.users[user.ID] = *user
	return nil
}

type sentMessage struct {
	To  string
	Msg dto.Message
}

// recordingTransport records every send and optionally fails them.
type recordingTransport struct {
	mu    sync.Mutex
	sent  []sentMessage
	tries int
	err   error
}

func (t *recordingTransport) Name() string { return config.TransportLog }

func (t *recordingTransport) Send(_ context.Context, to string, msg dto.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tries++
	if t.err != nil {
		return t.err
	}
	t.sent = append(t.sent, sentMessage{To: to, Msg: msg})
	return nil
}

func (t *recordingTransport) Sent() []sentMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]sentMessage(nil), t.sent...)
}

func (t *recordingTransport) Tries() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tries
}

type testEnv struct {
	todos     *memTodoRepo
	users     *memUserRepo
	transport *recordingTransport
	clock     *clockwork.FakeClock
	cron      *scheduler.Scheduler
	sched     SchedulerService
	owner     *entity.User
}

func testSchedulerConfig() config.Scheduler {
	return config.Scheduler{
		Window:          5 * time.Minute,
		HydrateInterval: time.Second,
		FireTimeout:     5 * time.Second,
		CommandBuffer:   16,
	}
}

// newTestEnv builds a started scheduler over in-memory stores and a fake clock.
func newTestEnv(t *testing.T, cfg config.Scheduler) *testEnv {
	t.Helper()
	env := &testEnv{
		todos:     newMemTodoRepo(),
		users:     newMemUserRepo(),
		transport: &recordingTransport{},
		clock:     clockwork.NewFakeClockAt(testStart),
		cron:      scheduler.NewScheduler(logger.Nop()),
	}
	env.owner = &entity.User{Email: "owner@example.com", IsActive: true}
	if err := env.users.Create(context.Background(), env.owner); err != nil {
		t.Fatalf("create owner: %v", err)
	}
	notifier := NewNotifierService(env.transport, config.Notifier{RatePerSec: 1000, Burst: 100}, logger.Nop())
	env.sched = NewSchedulerService(cfg, env.todos, env.users, notifier, env.cron, env.clock, logger.Nop())
	if err := env.sched.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = env.sched.Shutdown(ctx)
	})
	return env
}

// addTodo stores a todo due at testStart+offset.
func (e *testEnv) addTodo(t *testing.T, title string, offset time.Duration) *entity.Todo {
	t.Helper()
	todo := &entity.Todo{Title: title, DueTime: testStart.Add(offset), OwnerID: e.owner.ID}
	if err := e.todos.Create(context.Background(), todo); err != nil {
		t.Fatalf("create todo: %v", err)
	}
	return todo
}

// waitFor polls cond until it holds or two seconds pass.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	waitForWithin(t, 2*time.Second, what, cond)
}

func waitForWithin(t *testing.T, limit time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(limit)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
