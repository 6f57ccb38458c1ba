package connpool

import "sync/atomic"

// ownershipTag is the per-connection attribute naming the pool that
// currently considers itself the owner of a Conn, or nil ("unowned"). It is
// the linearization point for release validation: release swaps it to nil
// and inspects the prior value atomically, so two concurrent Release calls
// on the same Conn can never both observe themselves as the rightful owner.
type ownershipTag struct {
	p atomic.Pointer[Pool]
}

// claim sets the tag to p unconditionally. Used when a Conn is newly
// created or handed out of the idle store — both cases where the caller
// already knows no one else can be racing the claim (a fresh connection has
// no other observer yet; a popped idle connection was, by the idle store's
// own invariant, not also held by anyone).
func (t *ownershipTag) claim(p *Pool) {
	t.p.Store(p)
}

// release atomically swaps the tag to nil (unowned) and returns the prior
// value. The caller must compare the prior value against the pool it called
// Release on; a mismatch means misuse (wrong pool, or a second release).
func (t *ownershipTag) release() *Pool {
	return t.p.Swap(nil)
}

// load returns the current owner without mutating the tag. It is for
// observation only and the pool does not call it; release decisions are
// made by comparing the value release's swap returns, not by a separate
// load-then-branch.
func (t *ownershipTag) load() *Pool {
	return t.p.Load()
}

// clear unconditionally sets the tag to unowned, used when closing a
// connection that may already be unowned (idempotent close).
func (t *ownershipTag) clear() {
	t.p.Store(nil)
}
