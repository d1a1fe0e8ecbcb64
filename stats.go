package tripkit

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"
)

// Stats is a small counter set which logs itself periodically. It stands in
// for a real collector writing to an external tool - this is a batch CLI and
// the terminal is where progress goes.
type Stats struct {
	lock    sync.Mutex
	counts  map[string]int64
	lastLog time.Time
	every   time.Duration
}

// NewStats returns a Stats which logs at most every 10 seconds.
func NewStats() *Stats {
	return &Stats{
		counts:  make(map[string]int64),
		lastLog: time.Now(),
		every:   10 * time.Second,
	}
}

// Count adds n to the named counter, logging all counters if the logging
// interval has passed.
func (s *Stats) Count(name string, n int64) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.counts[name] += n
	if time.Since(s.lastLog) > s.every {
		log.Println(s.line())
		s.lastLog = time.Now()
	}
}

func (s *Stats) line() string {
	names := make([]string, 0, len(s.counts))
	for name := range s.counts {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s: %d", name, s.counts[name])
	}
	return strings.Join(parts, " ")
}
