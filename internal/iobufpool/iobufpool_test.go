package iobufpool_test

import (
	"testing"

	"github.com/lattice-run/connpool/internal/iobufpool"
	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	tests := []struct {
		requestedLen int
		minCap       int
	}{
		{requestedLen: 0, minCap: 256},
		{requestedLen: 128, minCap: 256},
		{requestedLen: 255, minCap: 256},
		{requestedLen: 256, minCap: 256},
		{requestedLen: 257, minCap: 512},
		{requestedLen: 511, minCap: 512},
		{requestedLen: 512, minCap: 512},
		{requestedLen: 513, minCap: 1024},
		{requestedLen: 1023, minCap: 1024},
		{requestedLen: 1024, minCap: 1024},

		// Above the largest bucket, Get skips the pool and allocates exactly
		// the requested size.
		{requestedLen: 33554433, minCap: 33554433},
	}
	for _, tt := range tests {
		buf := iobufpool.Get(tt.requestedLen)
		assert.Equalf(t, tt.requestedLen, len(*buf), "requestedLen: %d", tt.requestedLen)
		assert.GreaterOrEqualf(t, cap(*buf), tt.minCap, "requestedLen: %d", tt.requestedLen)
		iobufpool.Put(buf)
	}
}

func TestGetPutRoundTrip(t *testing.T) {
	buf := iobufpool.Get(1000)
	for i := range *buf {
		(*buf)[i] = byte(i)
	}
	iobufpool.Put(buf)

	buf2 := iobufpool.Get(1000)
	assert.Len(t, *buf2, 1000)
}
