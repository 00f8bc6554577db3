// Package session keeps recent quiz submissions per visitor so that answers
// sent in several steps can be scored together.
package session

import (
	"fmt"
	"maps"
	"sync"
	"time"

	"quizrec/internal/score"
	"quizrec/internal/utils"
)

// DefaultCleanInterval is how often Serve looks for expired sessions.
const DefaultCleanInterval = time.Minute

// NotFoundError is returned for an unknown or expired session.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("session %q not found", e.ID)
}

// Repository is a goroutine-safe store of quiz submissions. Each session keeps
// its last length submissions in a ring buffer; sessions idle for longer than
// ttl are removed by Serve.
//
//	repo := session.NewRepository(10, 30*time.Minute)
//	go repo.Serve()
//	defer repo.Stop()
//	repo.Append("7f0c...", score.Responses{"budget": score.String("mid")})
type Repository struct {
	length        int
	ttl           time.Duration
	cleanInterval time.Duration

	sessions map[string]*utils.RingBuffer[score.Responses]
	updates  map[string]time.Time
	mu       sync.RWMutex

	now      func() time.Time
	done     chan struct{}
	stopOnce sync.Once
}

// Option configures a Repository.
type Option func(*Repository)

// WithCleanInterval overrides DefaultCleanInterval. Non-positive values are ignored.
func WithCleanInterval(d time.Duration) Option {
	return func(r *Repository) {
		if d > 0 {
			r.cleanInterval = d
		}
	}
}

// NewRepository creates a store keeping length submissions per session.
func NewRepository(length int, ttl time.Duration, opts ...Option) *Repository {
	repo := &Repository{
		length:        length,
		ttl:           ttl,
		cleanInterval: DefaultCleanInterval,
		sessions:      make(map[string]*utils.RingBuffer[score.Responses]),
		updates:       make(map[string]time.Time),
		now:           time.Now,
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Append stores a copy of responses under id and refreshes the session.
func (r *Repository) Append(id string, responses score.Responses) {
	r.mu.Lock()
	buffer, found := r.sessions[id]
	if !found {
		buffer = utils.NewRingBuffer[score.Responses](r.length)
		r.sessions[id] = buffer
	}
	r.updates[id] = r.now()
	r.mu.Unlock()

	buffer.Push(maps.Clone(responses))
}

// Get returns the stored submissions of id, oldest first.
func (r *Repository) Get(id string) ([]score.Responses, bool) {
	r.mu.RLock()
	buffer, found := r.sessions[id]
	r.mu.RUnlock()
	if !found {
		return nil, false
	}
	return buffer.ToSlice(), true
}

// Merge folds the stored submissions of id into one response set. Later
// submissions override earlier answers to the same question.
func (r *Repository) Merge(id string) (score.Responses, error) {
	submissions, found := r.Get(id)
	if !found {
		return nil, &NotFoundError{ID: id}
	}

	merged := make(score.Responses)
	for _, s := range submissions {
		maps.Copy(merged, s)
	}
	return merged, nil
}

// Len returns the number of live sessions.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Serve removes expired sessions every clean interval until Stop is called.
// It blocks and is meant to run in its own goroutine.
func (r *Repository) Serve() {
	ticker := time.NewTicker(r.cleanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.removeOutdated()
		}
	}
}

// Stop ends Serve. It is safe to call more than once or before Serve.
func (r *Repository) Stop() {
	r.stopOnce.Do(func() { close(r.done) })
}

func (r *Repository) removeOutdated() int {
	var outdated []string

	r.mu.RLock()
	now := r.now()
	for id, ts := range r.updates {
		if now.Sub(ts) > r.ttl {
			outdated = append(outdated, id)
		}
	}
	r.mu.RUnlock()

	if len(outdated) == 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for _, id := range outdated {
		// The session may have been refreshed since the read pass.
		if ts, ok := r.updates[id]; !ok || now.Sub(ts) <= r.ttl {
			continue
		}
		delete(r.sessions, id)
		delete(r.updates, id)
		removed++
	}
	return removed
}
