// Package connpool is an asynchronous, thread-safe pool of long-lived
// network connections.
/*
connpool hands out healthy connections on demand, creates new ones when none
are idle, and accepts connections back from callers after use. It does not
know how to dial a socket, run an event loop, or speak any particular wire
protocol — those are supplied by the caller through Config, ConnectFunc, and
the Conn each connection wraps. connpool only owns the part that is hard to
get right: interleaving asynchronous connect and health-check operations with
concurrent Acquire/Release calls, enforcing that a connection is never held
by two owners at once, and making sure every mutation of a given connection
happens on that connection's bound Executor.

A connection is, at any instant, in exactly one of three states: sitting in
the pool's idle store, held by a single caller, or closed. The ownership tag
on each Conn is what makes that invariant checkable instead of merely hoped
for — see ownership.go.

The chunked subpackage is a minor, separate concern: it turns a lazy byte
source into a sequence of HTTP content chunks terminated by a single final
chunk, the small state machine the surrounding transport would use to stream
a response body.
*/
package connpool
