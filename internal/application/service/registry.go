package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// jobHandle is the live timer job of one todo.
type jobHandle struct {
	todoID uuid.UUID
	due    time.Time
	cancel context.CancelFunc
}

// jobRegistry maps todo IDs to their pending job. At most one entry per todo.
// An entry may briefly exist without a handle between TryInsert and Attach.
type jobRegistry struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*jobHandle
}

func newJobRegistry() *jobRegistry {
	return &jobRegistry{jobs: make(map[uuid.UUID]*jobHandle)}
}

// TryInsert reserves an entry for id. It returns false if one already exists.
func (r *jobRegistry) TryInsert(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[id]; ok {
		return false
	}
	r.jobs[id] = nil
	return true
}

// Attach sets the handle of a reserved entry. It is a no-op if the entry is gone.
func (r *jobRegistry) Attach(id uuid.UUID, h *jobHandle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[id]; !ok {
		return false
	}
	r.jobs[id] = h
	return true
}

// Remove deletes the entry for id and returns its handle, which may be nil
// for a reserved entry.
func (r *jobRegistry) Remove(id uuid.UUID) (*jobHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.jobs[id]
	delete(r.jobs, id)
	return h, ok
}

// RemoveIf deletes the entry for id only if it still points to h. A job
// finishing late must not evict a replacement that took its slot.
func (r *jobRegistry) RemoveIf(id uuid.UUID, h *jobHandle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.jobs[id]; ok && cur == h {
		delete(r.jobs, id)
		return true
	}
	return false
}

// CancelAndRemove removes the entry for id and cancels its job. It reports
// whether an entry existed.
func (r *jobRegistry) CancelAndRemove(id uuid.UUID) bool {
	h, ok := r.Remove(id)
	if h != nil {
		h.cancel()
	}
	return ok
}

// Handles returns a snapshot of the attached handles.
func (r *jobRegistry) Handles() []*jobHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*jobHandle, 0, len(r.jobs))
	for _, h := range r.jobs {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

func (r *jobRegistry) Has(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.jobs[id]
	return ok
}

func (r *jobRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// Clear drops every entry without cancelling anything.
func (r *jobRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.jobs)
}
