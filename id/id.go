// Package id generates the identifiers of ledger entries, trades and
// pending funds.
//
// Identifiers are ULIDs: they sort lexicographically by creation time, so
// records keyed by them come back from a store in the order they were written.
package id

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator makes identifiers that strictly increase, even when its clock
// stalls or steps back. It is safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	now     func() time.Time
	entropy *ulid.MonotonicEntropy
	last    uint64 // milliseconds of the last identifier
}

// NewGenerator returns a generator reading time from now.
func NewGenerator(now func() time.Time) *Generator {
	return &Generator{now: now, entropy: ulid.Monotonic(rand.Reader, 0)}
}

// New returns the next identifier.
func (g *Generator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := ulid.Timestamp(g.now())
	if ms < g.last {
		ms = g.last
	}
	g.last = ms
	return ulid.MustNew(ms, g.entropy).String()
}

var std = NewGenerator(time.Now)

// New returns an identifier from the process wide generator.
func New() string { return std.New() }

// Created returns the creation time encoded in an identifier.
func Created(s string) (time.Time, error) {
	id, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, err
	}
	return id.Timestamp(), nil
}
