// Package dialog implements the multi-step vacancy search interview:
// a per-user finite-state machine that walks city → position → salary →
// result count and then executes the search.
//
// State graph:
//
//	IDLE ──► AWAITING_CITY ──► AWAITING_POSITION ──► AWAITING_SALARY ──► AWAITING_RESULT_COUNT ──► IDLE
//	              │ ▲                  │ ▲
//	              └─┘ (retry/custom)   └─┘ (pagination/custom/retry)
//
// The package is transport-agnostic: inbound text or location payloads come
// in, a Reply comes out, and all external collaborators sit behind
// interfaces.
package dialog

import (
	"sync"

	"github.com/Kirill-Eltsov/JobHunter/internal/model"
)

// State identifies the current interview step.
type State string

const (
	StateIdle                State = "IDLE"
	StateAwaitingCity        State = "AWAITING_CITY"
	StateAwaitingPosition    State = "AWAITING_POSITION"
	StateAwaitingSalary      State = "AWAITING_SALARY"
	StateAwaitingResultCount State = "AWAITING_RESULT_COUNT"
)

// Session is the per-user transient interview state. Fields fill in
// incrementally as the user answers; at most one of the AwaitingCustom
// flags is set at a time.
type Session struct {
	State State

	City        string
	CityID      string
	Position    string
	SalaryLabel string
	ResultCount int

	PositionPage           int
	AwaitingCustomCity     bool
	AwaitingCustomPosition bool

	// LastResults backs the inline favorite/related buttons attached to
	// the most recent search output.
	LastResults []model.Vacancy
}

// reset returns the session to IDLE. The accumulated criteria (position,
// city, salary label) survive so the post-search subscribe action can reuse
// them; flags and cursors belonging to the interview do not.
func (s *Session) reset() {
	s.State = StateIdle
	s.PositionPage = 0
	s.AwaitingCustomCity = false
	s.AwaitingCustomPosition = false
}

// SessionStore is an in-memory mapping from user ID to Session, created on
// first use. The map is guarded; the Session itself is only ever touched by
// that user's synchronous update handling, so per-user access needs no
// further locking.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[int64]*Session)}
}

// Get returns the user's session, creating an IDLE one on first use.
func (s *SessionStore) Get(userID int64) *Session {
	s.mu.RLock()
	sess, ok := s.sessions[userID]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok = s.sessions[userID]; ok {
		return sess
	}
	sess = &Session{State: StateIdle}
	s.sessions[userID] = sess
	return sess
}

// Delete removes the user's session entirely.
func (s *SessionStore) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}
