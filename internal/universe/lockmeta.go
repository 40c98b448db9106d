package universe

import (
	"sync"

	"github.com/TaKO8Ki/bundle/internal/version"
)

// DependencyMeta is one dependency edge recorded against a resolved
// (package, version) pair: the dependency's name and the raw
// requirement-clause strings that constrained it, in discovery order.
type DependencyMeta struct {
	Name        string
	Constraints []string
}

type metaKey struct {
	name    string
	version string
}

// LockMeta is the side table of raw requirement strings the solver
// itself does not retain: pubgrub reduces every requirement to a
// VersionSet, but the lockfile writer needs the original "~> 7.0"-style
// text. This mirrors the lock_meta table the original resolver kept
// alongside its dependency_provider.
type LockMeta struct {
	mu      sync.RWMutex
	entries map[metaKey][]DependencyMeta
}

// NewLockMeta returns an empty LockMeta.
func NewLockMeta() *LockMeta {
	return &LockMeta{entries: make(map[metaKey][]DependencyMeta)}
}

// Record stores the dependency edges discovered for (name, v).
func (m *LockMeta) Record(name string, v version.Version, deps []DependencyMeta) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[metaKey{name: name, version: v.String()}] = deps
}

// Lookup returns the dependency edges previously recorded for
// (name, v), if any.
func (m *LockMeta) Lookup(name string, v version.Version) ([]DependencyMeta, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	deps, ok := m.entries[metaKey{name: name, version: v.String()}]
	return deps, ok
}
