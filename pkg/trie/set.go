package trie

import (
	"net/netip"
	"sync/atomic"
)

// Set wraps a Trie behind an atomic pointer, matching the teacher's
// pkg/ipmatcher: construction builds the trie once (constant folding
// at compile time, spec.md §4F.4), after which Contains is lock-free
// and safe for concurrent Evaluate calls.
type Set struct {
	data atomic.Value // holds *Trie
}

// NewSet builds an immutable Set from a fixed list of prefixes. This is
// the Custom<Trie> artifact the analyser produces when folding a
// literal List<Ip> over the threshold into a single opaque constant.
func NewSet(prefixes []netip.Prefix) *Set {
	t := New()
	for _, p := range prefixes {
		addr := p.Addr()
		version := 4
		if addr.Is6() {
			version = 6
		}
		var b []byte
		if addr.Is4() {
			a4 := addr.As4()
			b = a4[:]
		} else {
			a16 := addr.As16()
			b = a16[:]
		}
		t.Add(version, b, p.Bits())
	}
	s := &Set{}
	s.data.Store(t)
	return s
}

// Contains reports whether addr is covered by any prefix in the set.
// Lock-free: the underlying Trie is never mutated after NewSet returns.
func (s *Set) Contains(addr netip.Addr) bool {
	t, _ := s.data.Load().(*Trie)
	if t == nil {
		return false
	}
	version := 4
	if addr.Is6() {
		version = 6
	}
	var b []byte
	if addr.Is4() {
		a4 := addr.As4()
		b = a4[:]
	} else {
		a16 := addr.As16()
		b = a16[:]
	}
	bits := 32
	if version == 6 {
		bits = 128
	}
	return t.ContainsUnsafe(version, b, bits)
}

// Count returns the number of prefixes folded into the set.
func (s *Set) Count() int64 {
	t, _ := s.data.Load().(*Trie)
	if t == nil {
		return 0
	}
	return t.Count()
}
