// Package collision implements the layer-pair registry and the AABB sweep
// driver that reports overlaps through the event system.
package collision

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Pair is an unordered pair of layer names. A and B are stored sorted so
// (x, y) and (y, x) compare equal.
type Pair struct {
	A, B string
}

func makePair(a, b string) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// Self reports whether the pair enables intra-layer collision.
func (p Pair) Self() bool { return p.A == p.B }

func (p Pair) key() uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(p.A)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(p.B)
	return h.Sum64()
}

// Matrix registers which layer pairs collide. Registration is symmetric and
// idempotent: enabling (a, b) and (b, a) dedups to one entry.
type Matrix struct {
	mu    sync.RWMutex
	pairs map[uint64]Pair
}

func NewMatrix() *Matrix {
	return &Matrix{pairs: make(map[uint64]Pair)}
}

// Enable inserts the unordered pair. Enabling (a, a) makes members of layer a
// collide with each other; an object still never collides with itself.
func (m *Matrix) Enable(a, b string) {
	p := makePair(a, b)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairs[p.key()] = p
}

// Disable removes the unordered pair.
func (m *Matrix) Disable(a, b string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pairs, makePair(a, b).key())
}

func (m *Matrix) Enabled(a, b string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.pairs[makePair(a, b).key()]
	return ok
}

// Pairs returns a snapshot of all registered pairs.
func (m *Matrix) Pairs() []Pair {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Pair, 0, len(m.pairs))
	for _, p := range m.pairs {
		out = append(out, p)
	}
	return out
}

func (m *Matrix) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.pairs)
}
