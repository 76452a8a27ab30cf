// Package session manages the lifecycle of interactive menu sessions: a
// registry of independently lockable handles, random IDs that fit a signed
// 64-bit storage column, a per-session inactivity supervisor, and the
// pagination helper the browse states share.
package session

import (
	"errors"
	"sync"
)

// ErrNotFound marks a lookup for a session that expired or never existed.
// This is an expected condition, surfaced to users as "this menu has
// expired", never logged as an internal failure.
var ErrNotFound = errors.New("session not found")

// Handle is a shared reference to one session's mutable state. All access
// goes through Acquire/Release; at most one in-flight interaction holds the
// lock, so two interactions on the same session are fully serialized while
// distinct sessions proceed in parallel.
type Handle[S any] struct {
	mu    sync.Mutex
	state S
}

// Acquire locks the handle and returns the state for exclusive use.
func (h *Handle[S]) Acquire() *S {
	h.mu.Lock()
	return &h.state
}

// Release unlocks the handle. The pointer returned by Acquire must not be
// used afterwards.
func (h *Handle[S]) Release() {
	h.mu.Unlock()
}

// Registry maps session IDs to handles behind one coarse lock. The lock is
// held only for the map operation itself, never across a session lock, so
// unrelated sessions never contend beyond the brief map access.
type Registry[S any] struct {
	mu       sync.Mutex
	sessions map[uint64]*Handle[S]
}

// NewRegistry creates an empty registry.
func NewRegistry[S any]() *Registry[S] {
	return &Registry[S]{sessions: make(map[uint64]*Handle[S])}
}

// Insert stores a new session and returns its handle.
func (r *Registry[S]) Insert(id uint64, state S) *Handle[S] {
	h := &Handle[S]{state: state}
	r.mu.Lock()
	r.sessions[id] = h
	r.mu.Unlock()
	return h
}

// Get looks up a live session's handle.
func (r *Registry[S]) Get(id uint64) (*Handle[S], bool) {
	r.mu.Lock()
	h, ok := r.sessions[id]
	r.mu.Unlock()
	return h, ok
}

// Remove deletes the session and returns its handle, or false if it was
// already gone. Removal is atomic with respect to Get: once Remove returns,
// no late interaction can look the session up again.
func (r *Registry[S]) Remove(id uint64) (*Handle[S], bool) {
	r.mu.Lock()
	h, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	return h, ok
}

// Len reports how many sessions are live.
func (r *Registry[S]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
