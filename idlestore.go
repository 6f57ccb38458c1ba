package connpool

import (
	"container/list"
	"sync"
)

// idleStore is the concurrent deque of connections currently owned by the
// pool and available for reuse. A single mutex guarding an
// O(1) doubly linked list satisfies the "lock-free or finely-locked"
// requirement without the hazards of a hand-rolled lock-free stack; no
// ordering is promised across concurrent pushes, only that each individual
// push/pop is linearizable, which a mutex trivially provides.
type idleStore struct {
	mu sync.Mutex
	l  list.List
}

// pushBack adds conn to the tail of the deque. The most recently released
// connection becomes the one popBack (LIFO) would return next.
func (s *idleStore) pushBack(c Conn) {
	s.mu.Lock()
	s.l.PushBack(c)
	s.mu.Unlock()
}

// popBack removes and returns the most recently pushed connection (LIFO
// selection), or nil if the store is empty.
func (s *idleStore) popBack() Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.l.Back()
	if e == nil {
		return nil
	}
	s.l.Remove(e)
	return e.Value.(Conn)
}

// popFront removes and returns the least recently pushed connection (FIFO
// selection), or nil if the store is empty.
func (s *idleStore) popFront() Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.l.Front()
	if e == nil {
		return nil
	}
	s.l.Remove(e)
	return e.Value.(Conn)
}

// isEmpty reports whether the store currently holds no connections. Like any
// such check on a concurrent structure, it is a snapshot: a push or pop from
// another goroutine may invalidate it immediately after it returns.
func (s *idleStore) isEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.l.Len() == 0
}

// len returns the current number of idle connections. Used for Stat, not for
// any correctness decision.
func (s *idleStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.l.Len()
}

// remove removes c from the store if present, reporting whether it was
// found. Used when a connection must be closed after it was already offered
// back to the idle store (e.g. an OnReleased failure discovered too late to
// stop the offer).
func (s *idleStore) remove(c Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for e := s.l.Front(); e != nil; e = e.Next() {
		if e.Value.(Conn) == c {
			s.l.Remove(e)
			return true
		}
	}
	return false
}

// drain removes and returns every connection currently in the store, leaving
// it empty. Used by Pool.Close, which must close every idle connection
// exactly once.
func (s *idleStore) drain() []Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Conn, 0, s.l.Len())
	for e := s.l.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(Conn))
	}
	s.l.Init()
	return out
}
