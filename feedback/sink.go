package feedback

import (
	"sync"
	"time"

	"github.com/altirag/prism-rag/common/logger"
)

// Entry is a single append-only feedback record, per spec.md §6's
// feedback sink contract.
type Entry struct {
	QueryID   string    `json:"query_id"`
	Rating    int       `json:"rating"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink is an append-only, in-memory feedback log. It exists to satisfy
// spec.md's feedback interface without a durable store dependency
// beyond what the retrieved pack already wires (see DESIGN.md);
// production deployments would back this with the same Redis client
// session.go already uses.
type Sink struct {
	mu      sync.Mutex
	entries []Entry
}

func NewSink() *Sink {
	return &Sink{entries: make([]Entry, 0, 128)}
}

// Record appends a feedback entry.
func (s *Sink) Record(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	logger.Infof("feedback: query_id=%s rating=%d", e.QueryID, e.Rating)
}

// ForQuery returns all entries recorded for a given query id.
func (s *Sink) ForQuery(queryID string) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0)
	for _, e := range s.entries {
		if e.QueryID == queryID {
			out = append(out, e)
		}
	}
	return out
}

// Reset clears the feedback log.
func (s *Sink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = s.entries[:0]
	logger.Infof("feedback: history reset")
}
