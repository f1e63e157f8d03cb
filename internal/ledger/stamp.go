package ledger

import (
	"sync"
	"time"
)

// stamper hands out strictly increasing nanosecond timestamps, so two entries
// created within the same clock tick still get distinct keys.
type stamper struct {
	mu   sync.Mutex
	last int64
}

func (s *stamper) next(now time.Time) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := now.UnixNano()
	if ts <= s.last {
		ts = s.last + 1
	}

	s.last = ts

	return ts
}
