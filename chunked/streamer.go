// Package chunked streams an arbitrarily long body out as a sequence of
// chunks plus exactly one terminator, mirroring the read side of HTTP
// chunked transfer encoding without taking on any of the wire framing
// itself (no status lines, no chunk-size hex prefixes, no socket writes —
// that belongs to a transport layer outside this package).
package chunked

import (
	"context"
	"net/http"
	"sync"

	"github.com/lattice-run/connpool/internal/iobufpool"
)

// ChunkSource produces the raw bytes a Streamer turns into Content values.
// NextChunk may block (e.g. on a file read or a network read) but must
// respect ctx cancellation. ready reports whether chunk carries data this
// call; a source may return ready=false with no error to signal "nothing
// available yet, but not finished either" (e.g. backpressure).
type ChunkSource interface {
	NextChunk(ctx context.Context) (chunk []byte, ready bool, err error)
	IsEnd() bool
	Length() int64
	Progress() float64
	Close() error
}

// Content is one unit of output from ReadChunk: either a data chunk or the
// terminal, zero-length marker with an optional trailer set.
//
// Data is borrowed from internal/iobufpool; the caller must call
// iobufpool.Put(&content.Data) once it has been written out, unless Last is
// true, in which case Data is always empty and there is nothing to return.
type Content struct {
	Data    []byte
	Trailer http.Header // non-nil only on the terminator
	Last    bool
}

// Streamer reads a ChunkSource to exhaustion and then emits exactly one
// terminating Content, never more than once, matching the "last-chunk
// emitted exactly once" invariant of HTTP chunked encoding.
type Streamer struct {
	src     ChunkSource
	trailer http.Header

	mu         sync.Mutex
	terminated bool
}

// New returns a Streamer with no trailer on its terminator.
func New(src ChunkSource) *Streamer {
	return &Streamer{src: src}
}

// NewWithTerminator returns a Streamer whose terminating Content carries
// trailer.
func NewWithTerminator(src ChunkSource, trailer http.Header) *Streamer {
	return &Streamer{src: src, trailer: trailer}
}

// ReadChunk returns the next Content: a data chunk copied into a buffer
// borrowed from internal/iobufpool, or — exactly once, after the source is
// exhausted — the terminator. Every call after the terminator has been
// returned yields (nil, nil), however often it is repeated.
func (s *Streamer) ReadChunk(ctx context.Context) (*Content, error) {
	s.mu.Lock()
	alreadyDone := s.terminated
	s.mu.Unlock()
	if alreadyDone {
		return nil, nil
	}

	for {
		if s.src.IsEnd() {
			return s.emitTerminator(), nil
		}

		chunk, ready, err := s.src.NextChunk(ctx)
		if err != nil {
			return nil, err
		}
		if !ready {
			return nil, nil
		}
		if len(chunk) == 0 {
			if s.src.IsEnd() {
				return s.emitTerminator(), nil
			}
			continue
		}

		buf := iobufpool.Get(len(chunk))
		copy(*buf, chunk)
		return &Content{Data: *buf}, nil
	}
}

func (s *Streamer) emitTerminator() *Content {
	s.mu.Lock()
	s.terminated = true
	s.mu.Unlock()
	return &Content{Last: true, Trailer: s.trailer}
}

// IsEnd reports whether the underlying source has been fully read. It may
// return true before the terminator has actually been returned by ReadChunk.
func (s *Streamer) IsEnd() bool { return s.src.IsEnd() }

// Length returns the source's total length, or a negative value if unknown.
func (s *Streamer) Length() int64 { return s.src.Length() }

// Progress returns the source's own progress estimate in [0, 1].
func (s *Streamer) Progress() float64 { return s.src.Progress() }

// Close releases the underlying source. Safe to call whether or not the
// terminator has been reached.
func (s *Streamer) Close() error {
	return s.src.Close()
}
