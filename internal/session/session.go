// Package session holds the transient per-owner wizard state. Nothing here
// survives a restart: a session exists only between /add and the commit (or
// /cancel) that ends it.
package session

import (
	"sync"

	"gastos/internal/core"
)

// Session tracks progress through the expense-entry wizard. The zero value
// is the idle state. Invariant: AwaitingDescription implies both Category
// and Amount are set.
type Session struct {
	Category            string
	Amount              *core.Money
	AwaitingDescription bool
}

// Empty reports whether the session carries no wizard state.
func (s Session) Empty() bool {
	return s.Category == "" && s.Amount == nil && !s.AwaitingDescription
}

// Commit is the snapshot taken when a row is about to be written.
type Commit struct {
	Category core.Category
	Amount   core.Money
}

// Store keeps sessions keyed by user ID. Only one identity is ever
// authorized, but the transport delivers updates concurrently, so every
// mutation runs under the lock.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[int64]*Session)}
}

// Snapshot returns a copy of the user's session, creating nothing.
func (st *Store) Snapshot(userID int64) Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[userID]; ok {
		return *s
	}
	return Session{}
}

// Update runs fn against the user's session under the lock, creating the
// session if needed. fn must not block.
func (st *Store) Update(userID int64, fn func(*Session)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[userID]
	if !ok {
		s = &Session{}
		st.sessions[userID] = s
	}
	fn(s)
}

// Clear resets the user's session to idle.
func (st *Store) Clear(userID int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, userID)
}

// TakeCommit atomically snapshots the commit-eligible fields and clears the
// session. It returns false when the required fields are missing, e.g. a
// stale selector replayed after the session was already consumed; the
// session is cleared either way so the user is never stuck.
func (st *Store) TakeCommit(userID int64) (Commit, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[userID]
	if ok {
		delete(st.sessions, userID)
	}
	if !ok || s.Category == "" || s.Amount == nil {
		return Commit{}, false
	}
	cat, found := core.CategoryByKey(s.Category)
	if !found {
		return Commit{}, false
	}
	return Commit{Category: cat, Amount: *s.Amount}, true
}
