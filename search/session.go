package search

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Session holds the transient state of one search call. Progress is
// readable while the fan-out is still running; Results is only
// meaningful once Done is closed (progress 100).
type Session struct {
	ID    string
	Query string

	total     int
	completed atomic.Int64

	mu       sync.Mutex
	results  []Result
	combined []CombinedResult

	done chan struct{}
}

func newSession(query string, total int) *Session {
	return &Session{
		ID:    uuid.NewString(),
		Query: query,
		total: total,
		done:  make(chan struct{}),
	}
}

// Progress reports completion as a percentage in [0, 100]. It is
// monotonically non-decreasing and reaches exactly 100 once every
// task has finished. A session with no tasks is complete from the
// start.
func (s *Session) Progress() int {
	if s.total == 0 {
		return 100
	}
	return int(100 * s.completed.Load() / int64(s.total))
}

// Done is closed after the final results are available.
func (s *Session) Done() <-chan struct{} { return s.done }

// Results returns the ranked combined results, at most 10. Empty
// until the session is done.
func (s *Session) Results() []CombinedResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.combined
}

// collect appends one task's results and bumps the completed counter.
// It is only ever called from the dispatcher's consumer goroutine,
// which keeps the accumulation single-writer.
func (s *Session) collect(results []Result) {
	s.mu.Lock()
	s.results = append(s.results, results...)
	s.mu.Unlock()
	s.completed.Add(1)
}

func (s *Session) finish(combined []CombinedResult) {
	s.mu.Lock()
	s.combined = combined
	s.mu.Unlock()
	close(s.done)
}
