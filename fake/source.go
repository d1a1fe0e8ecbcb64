package fake

import (
	"io"
	"sync"
	"time"

	"tripkit/trip"
)

// Source is a tripkit.Source which generates fake raw trip rows.
type Source struct {
	mu        sync.Mutex
	g         *Generator
	remaining int
}

// NewSource creates a Source yielding count rows for the given family and
// seed.
func NewSource(service trip.Service, seed int64, count int, base time.Time) *Source {
	return &Source{
		g:         NewGenerator(service, seed, base),
		remaining: count,
	}
}

// Record implements tripkit.Source, returning io.EOF once count rows have
// been handed out.
func (s *Source) Record() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.remaining <= 0 {
		return nil, io.EOF
	}
	s.remaining--
	return s.g.Row(), nil
}
