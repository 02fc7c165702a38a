package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Attempt is one in-flight /verify. Cancelled is closed when the attempt is cancelled.
type Attempt struct {
	ID        uuid.UUID
	UserID    string
	Habbo     string
	StartedAt time.Time
	Deadline  time.Time

	cancelled chan struct{}
	once      sync.Once
}

func (a *Attempt) Cancelled() <-chan struct{} { return a.cancelled }

func (a *Attempt) cancel() { a.once.Do(func() { close(a.cancelled) }) }

func (a *Attempt) isCancelled() bool {
	select {
	case <-a.cancelled:
		return true
	default:
		return false
	}
}

// AttemptRegistry admits at most one in-flight attempt per user.
type AttemptRegistry struct {
	mu     sync.Mutex
	active map[string]*Attempt
}

func NewAttemptRegistry() *AttemptRegistry {
	return &AttemptRegistry{active: make(map[string]*Attempt)}
}

// Begin registers an attempt for userID, or returns false when one is already running.
func (r *AttemptRegistry) Begin(userID, habbo string, wait time.Duration) (*Attempt, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.active[userID]; busy {
		return nil, false
	}
	now := time.Now()
	a := &Attempt{
		ID:        uuid.New(),
		UserID:    userID,
		Habbo:     habbo,
		StartedAt: now,
		Deadline:  now.Add(wait),
		cancelled: make(chan struct{}),
	}
	r.active[userID] = a
	return a, true
}

// End releases the slot held by a. A newer attempt of the same user is left alone.
func (r *AttemptRegistry) End(a *Attempt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.active[a.UserID]; ok && cur.ID == a.ID {
		delete(r.active, a.UserID)
	}
}

// Cancel wakes the running attempt of userID, if any.
func (r *AttemptRegistry) Cancel(userID string) bool {
	r.mu.Lock()
	a, ok := r.active[userID]
	r.mu.Unlock()
	if !ok {
		return false
	}
	a.cancel()
	return true
}

// AttemptInfo is the read-only view of an attempt.
type AttemptInfo struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Habbo     string    `json:"habbo"`
	StartedAt time.Time `json:"started_at"`
	Deadline  time.Time `json:"deadline"`
}

// Snapshot lists running attempts.
func (r *AttemptRegistry) Snapshot() []AttemptInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]AttemptInfo, 0, len(r.active))
	for _, a := range r.active {
		out = append(out, AttemptInfo{
			ID:        a.ID,
			UserID:    a.UserID,
			Habbo:     a.Habbo,
			StartedAt: a.StartedAt,
			Deadline:  a.Deadline,
		})
	}
	return out
}
