// Package session keeps the per-chat state of the report conversation. A chat
// has at most one live session; a second entry trigger is rejected until the
// first one terminates.
package session

import (
	"errors"
	"sync"

	"github.com/elpekenin/docker-bot-tasks/internal/model"
)

// ErrActive is returned when a chat already has a report in progress.
var ErrActive = errors.New("session: report already in progress")

// State is the position of a session inside the conversation.
type State int

const (
	// StateConfirmation waits for the inline accept/reject decision.
	StateConfirmation State = iota + 1
	// StatePokestop waits for the point-of-interest name.
	StatePokestop
	// StateCategory waits for a category pick.
	StateCategory
	// StateTask waits for the task answer.
	StateTask
)

func (s State) String() string {
	switch s {
	case StateConfirmation:
		return "confirmation"
	case StatePokestop:
		return "pokestop"
	case StateCategory:
		return "category"
	case StateTask:
		return "task"
	default:
		return "unknown"
	}
}

// Session is one in-progress report.
type Session struct {
	ChatID   int64
	UserID   int64
	Username string
	State    State

	Latitude  float64
	Longitude float64
	// LocationID is the message id of the location share or coordinate echo.
	// It survives a successful report and is only removed on failure paths.
	LocationID int
	Pokestop   string
	Category   string

	// Group is the chat configuration resolved at entry.
	Group model.Group

	pending []int
}

// Track records transient message ids to remove when the session terminates.
// Ids are deduplicated so terminal cleanup attempts each one exactly once.
func (s *Session) Track(ids ...int) {
	for _, id := range ids {
		if id == 0 {
			continue
		}
		known := false
		for _, p := range s.pending {
			if p == id {
				known = true
				break
			}
		}
		if !known {
			s.pending = append(s.pending, id)
		}
	}
}

// Pending returns a copy of the tracked transient message ids.
func (s *Session) Pending() []int {
	out := make([]int, len(s.pending))
	copy(out, s.pending)
	return out
}

// Store holds the live sessions and a lock per chat so updates of the same
// chat are handled strictly in order while chats stay independent.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	locks    map[int64]*sync.Mutex
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[int64]*Session),
		locks:    make(map[int64]*sync.Mutex),
	}
}

// Begin opens a session for the chat. It fails with ErrActive while another
// session is live.
func (st *Store) Begin(chatID, userID int64, username string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[chatID]; ok {
		return nil, ErrActive
	}
	s := &Session{ChatID: chatID, UserID: userID, Username: username}
	st.sessions[chatID] = s
	return s, nil
}

// Get returns the chat's live session, if any.
func (st *Store) Get(chatID int64) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[chatID]
	return s, ok
}

// InProgress reports whether the chat has a live session.
func (st *Store) InProgress(chatID int64) bool {
	_, ok := st.Get(chatID)
	return ok
}

// End removes the chat's session and returns it for cleanup. The chat is free
// for a new report the moment End returns, regardless of pending deletions.
func (st *Store) End(chatID int64) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[chatID]
	if ok {
		delete(st.sessions, chatID)
	}
	return s, ok
}

// Do runs fn while holding the chat's lock. Locks are per chat, so a slow
// conversation in one group never delays another.
func (st *Store) Do(chatID int64, fn func()) {
	st.mu.Lock()
	lock, ok := st.locks[chatID]
	if !ok {
		lock = &sync.Mutex{}
		st.locks[chatID] = lock
	}
	st.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	fn()
}
