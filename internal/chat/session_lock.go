package chat

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 64

// sessionLocks serialises requests of the same session so concurrent
// requests cannot lose each other's history updates. Distinct sessions
// may share a stripe.
type sessionLocks struct {
	stripes [lockStripes]sync.Mutex
}

// Lock acquires the stripe for sessionID and returns its unlock function.
func (l *sessionLocks) Lock(sessionID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	m := &l.stripes[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}
