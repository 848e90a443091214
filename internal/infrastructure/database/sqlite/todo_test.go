package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
	"todoreminder/internal/domain/entity"
	"todoreminder/internal/pkg/config"
	appErrors "todoreminder/internal/pkg/errors"
	"todoreminder/internal/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := NewDB(config.Database{URL: dsn, LogLevel: "silent"}, logger.Nop())
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = CloseDB(db) })
	return db
}

func createOwner(t *testing.T, db *gorm.DB, email string) *entity.User {
	t.Helper()
	u := &entity.User{Email: email, IsActive: true}
	if err := NewUserRepository(db).Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestTodoRepositoryFindDueBetween(t *testing.T) {
	db := newTestDB(t)
	repo := NewTodoRepository(db)
	ctx := context.Background()
	owner := createOwner(t, db, "owner@example.com")

	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	offsets := map[string]time.Duration{
		"past":        -time.Minute,
		"exactly-now": 0,
		"soon":        2 * time.Minute,
		"edge":        5 * time.Minute,
		"later":       5*time.Minute + time.Second,
	}
	for title, off := range offsets {
		if err := repo.Create(ctx, &entity.Todo{Title: title, DueTime: now.Add(off), OwnerID: owner.ID}); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}

	got, err := repo.FindDueBetween(ctx, now, now.Add(5*time.Minute))
	if err != nil {
		t.Fatalf("FindDueBetween: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 todos in (now, now+5m], got %d", len(got))
	}
	if got[0].Title != "soon" || got[1].Title != "edge" {
		t.Fatalf("unexpected order/contents: %q, %q", got[0].Title, got[1].Title)
	}
	if got[0].DueTime.Location() != time.UTC {
		t.Fatalf("due time should come back in UTC, got %v", got[0].DueTime.Location())
	}
}

func TestTodoRepositoryStoresOffsetTimesAsUTC(t *testing.T) {
	db := newTestDB(t)
	repo := NewTodoRepository(db)
	ctx := context.Background()
	owner := createOwner(t, db, "tz@example.com")

	due := time.Date(2026, 10, 14, 21, 0, 0, 0, time.FixedZone("KST", 9*60*60))
	todo := &entity.Todo{Title: "tz", DueTime: due, OwnerID: owner.ID}
	if err := repo.Create(ctx, todo); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.FindByID(ctx, todo.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	want := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	if !got.DueTime.Equal(want) || got.DueTime.Location() != time.UTC {
		t.Fatalf("DueTime = %v, want %v", got.DueTime, want)
	}
}

func TestTodoRepositoryCRUD(t *testing.T) {
	db := newTestDB(t)
	repo := NewTodoRepository(db)
	ctx := context.Background()
	owner := createOwner(t, db, "crud@example.com")

	todo := &entity.Todo{Title: "write tests", DueTime: time.Now().Add(time.Hour), OwnerID: owner.ID}
	if err := repo.Create(ctx, todo); err != nil {
		t.Fatalf("create: %v", err)
	}
	if todo.ID == uuid.Nil {
		t.Fatal("expected ID to be assigned on create")
	}

	todo.Title = "write more tests"
	if err := repo.Update(ctx, todo); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repo.FindByID(ctx, todo.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Title != "write more tests" {
		t.Fatalf("Title = %q", got.Title)
	}

	count, err := repo.CountByOwner(ctx, owner.ID)
	if err != nil || count != 1 {
		t.Fatalf("CountByOwner = %d, %v", count, err)
	}
	page, err := repo.FindByOwner(ctx, owner.ID, 0, 10)
	if err != nil || len(page) != 1 {
		t.Fatalf("FindByOwner = %d items, %v", len(page), err)
	}

	if err := repo.Delete(ctx, todo.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByID(ctx, todo.ID); !errors.Is(err, appErrors.ErrTodoNotFound) {
		t.Fatalf("expected ErrTodoNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, todo.ID); !errors.Is(err, appErrors.ErrTodoNotFound) {
		t.Fatalf("expected ErrTodoNotFound deleting twice, got %v", err)
	}
}

func TestUserRepositoryFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	u := createOwner(t, db, "find@example.com")

	byID, err := repo.FindByID(ctx, u.ID)
	if err != nil || byID.Email != "find@example.com" {
		t.Fatalf("FindByID = %+v, %v", byID, err)
	}
	byEmail, err := repo.FindByEmail(ctx, "find@example.com")
	if err != nil || byEmail.ID != u.ID {
		t.Fatalf("FindByEmail = %+v, %v", byEmail, err)
	}
	if _, err := repo.FindByID(ctx, uuid.New()); !errors.Is(err, appErrors.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestTodoRepositoryUpdateAfterDelete(t *testing.T) {
	db := newTestDB(t)
	repo := NewTodoRepository(db)
	ctx := context.Background()
	owner := createOwner(t, db, "race@example.com")

	todo := &entity.Todo{Title: "short lived", DueTime: time.Now().Add(time.Minute), OwnerID: owner.ID}
	if err := repo.Create(ctx, todo); err != nil {
		t.Fatalf("create: %v", err)
	}
	stale := *todo
	if err := repo.Delete(ctx, todo.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	stale.Title = "edited after delete"
	if err := repo.Update(ctx, &stale); !errors.Is(err, appErrors.ErrTodoNotFound) {
		t.Fatalf("expected ErrTodoNotFound, got %v", err)
	}
	if _, err := repo.FindByID(ctx, todo.ID); !errors.Is(err, appErrors.ErrTodoNotFound) {
		t.Fatalf("deleted todo came back: %v", err)
	}
}

func TestUserRepositoryUpdate(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	u := createOwner(t, db, "update@example.com")

	lineID := "U-update"
	u.LineUserID = &lineID
	if err := repo.Update(ctx, u); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repo.FindByLineUserID(ctx, lineID)
	if err != nil || got.ID != u.ID {
		t.Fatalf("FindByLineUserID = %+v, %v", got, err)
	}

	// Zero values are written too.
	u.LineUserID = nil
	if err := repo.Update(ctx, u); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := repo.FindByLineUserID(ctx, lineID); !errors.Is(err, appErrors.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound after clearing, got %v", err)
	}

	missing := &entity.User{ID: uuid.New(), Email: "ghost@example.com", IsActive: true}
	if err := repo.Update(ctx, missing); !errors.Is(err, appErrors.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := repo.FindByEmail(ctx, "ghost@example.com"); !errors.Is(err, appErrors.ErrUserNotFound) {
		t.Fatalf("Update created a user: %v", err)
	}
}
