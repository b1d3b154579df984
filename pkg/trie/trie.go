// Package trie implements the binary radix (Patricia) trie over IPv4
// and IPv6 bit-strings used to give homogeneous IP-address lists
// O(address-length) membership tests (spec.md §4B).
//
// The split algorithm is ported from CESNET/libfds' src/trie/trie.c:
// each node stores a packed prefix run plus an is_intermediate flag,
// and Add walks the longest matching run before splitting the first
// node whose prefix diverges from the inserted address. The package
// keeps the teacher (ELLIO pkg/iptrie)'s shape: dual version roots,
// RWMutex-guarded mutation and a lock-free Contains for read-only use.
// Prefixes are inserted one at a time through Add; there is no
// bulk-load path.
package trie

import (
	"encoding/binary"
	"sync"
)

// node is one trie node. Prefix holds up to 64 bits of a compressed
// run, right-aligned in bits [0, PrefixLen). IsIntermediate mirrors
// libfds' is_intermediate: false marks a terminal (inserted) prefix.
type node struct {
	prefix         uint64
	prefixLen      uint8
	isIntermediate bool
	children       [2]*node
}

// Trie is a binary trie for fast IP prefix lookups, one independent
// root per IP version.
type Trie struct {
	mu     sync.RWMutex
	count  int64
	rootV4 *node
	rootV6 *node
}

// New creates an empty trie.
func New() *Trie {
	return &Trie{}
}

// Count returns the number of prefixes inserted (insertions are not
// deduplicated against overlapping coverage, matching libfds: Count
// tracks Add calls, not resulting node count).
func (t *Trie) Count() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.count
}

// Add inserts an address/prefix into the trie. version is 4 or 6;
// bitLength is in [0, 32] for v4 or [0, 128] for v6. Length 0 stores a
// prefix covering the whole address family; the filter's own callers
// never pass it, since value.ParseIP rejects a /0 literal.
func (t *Trie) Add(version int, address []byte, bitLength int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	words := addressWords(version, address)
	root := &t.rootV4
	if version == 6 {
		root = &t.rootV6
	}
	addTo(root, words, bitLength)
	t.count++
}

// Contains reports whether address is covered by any previously added
// prefix: the first terminal node whose accumulated prefix matches a
// prefix of the query dominates, per spec.md §4B ("a stored terminal
// dominates any descendant").
func (t *Trie) Contains(version int, address []byte, bitLength int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ContainsUnsafe(version, address, bitLength)
}

// ContainsUnsafe performs a lockless lookup. Only safe once the trie
// is no longer mutated concurrently — the evaluator uses it on
// compile-time-folded trie constants, which are immutable for the
// life of the compiled filter.
func (t *Trie) ContainsUnsafe(version int, address []byte, bitLength int) bool {
	words := addressWords(version, address)
	root := t.rootV4
	if version == 6 {
		root = t.rootV6
	}
	return containsIn(root, words, bitLength)
}

// addressWords packs an IPv4 or IPv6 address into big-endian 32-bit
// words, matching libfds' ip_address_bytes_to_words.
func addressWords(version int, b []byte) [4]uint32 {
	var w [4]uint32
	w[0] = binary.BigEndian.Uint32(b[0:4])
	if version == 6 {
		w[1] = binary.BigEndian.Uint32(b[4:8])
		w[2] = binary.BigEndian.Uint32(b[8:12])
		w[3] = binary.BigEndian.Uint32(b[12:16])
	}
	return w
}

// extractBits returns the n bits of value starting at bit offset
// `from` (0 = MSB), right-justified in the low n bits, zero-padded
// above — the Go analogue of libfds' extract_n_bits.
func extractBits(value uint32, from, n int) uint32 {
	if n == 0 {
		return 0
	}
	return (value << from) >> (32 - n)
}

func extractBit(value uint32, index int) uint32 {
	return (value >> (31 - index)) & 1
}

// bitWalk is a cursor over a multi-word address, mirroring libfds'
// bit_array: bitOffset is relative to the current word, bitsLeft is
// the total remaining bit length across all remaining words.
type bitWalk struct {
	words    [4]uint32
	wordIdx  int
	bitOffset int
	bitsLeft int
}

func newBitWalk(words [4]uint32, bitLength int) bitWalk {
	return bitWalk{words: words, bitsLeft: bitLength}
}

func (w *bitWalk) word() uint32 { return w.words[w.wordIdx] }

func (w *bitWalk) advance(n int) {
	w.bitOffset += n
	if w.bitOffset == 32 {
		w.bitOffset = 0
		w.bitsLeft -= 32
		w.wordIdx++
	}
}

func (w *bitWalk) isLastWord() bool { return w.bitsLeft <= 32 }

func (w *bitWalk) bitsRemaining() int {
	if w.bitsLeft > 32 {
		return 32 - w.bitOffset
	}
	return w.bitsLeft - w.bitOffset
}

func findDifferingBit(a, b uint32) int {
	x := a ^ b
	for i := 0; i < 32; i++ {
		if x&(1<<(31-i)) != 0 {
			return i
		}
	}
	return 32
}

// prefixBits extracts the n-bit substring starting at logical bit
// offset `from` (0 = most significant bit) out of a right-aligned
// bit-string of length totalLen, itself right-aligned in the result.
func prefixBits(value uint64, totalLen uint8, from, n int) uint64 {
	if n == 0 {
		return 0
	}
	shift := int(totalLen) - from - n
	return (value >> shift) & ((uint64(1) << n) - 1)
}

// findAddSpot walks down from *np matching each node's stored prefix
// against the address, returning the slot where insertion should
// continue: either a nil slot (no existing node) or the first node
// whose prefix no longer fully fits the remaining address bits.
func findAddSpot(np **node, addr *bitWalk) **node {
	for *np != nil {
		n := *np
		if addr.bitsRemaining() <= int(n.prefixLen) {
			return np
		}
		if extractBits(addr.word(), addr.bitOffset, int(n.prefixLen)) != uint32(n.prefix) {
			return np
		}
		trailingBit := extractBit(addr.word(), addr.bitOffset+int(n.prefixLen))
		addr.advance(int(n.prefixLen) + 1)
		np = &n.children[trailingBit]
	}
	return np
}

// splitOnBit breaks n into a shorter-prefix node plus a sibling
// holding everything after bitIndex, per libfds' trie_node_split_on_bit.
// It returns the slot where a new child covering the remaining bits of
// the inserted address should be attached.
func splitOnBit(n *node, bitIndex int) **node {
	origPrefix, origLen := n.prefix, n.prefixLen

	child := &node{
		prefix:         prefixBits(origPrefix, origLen, bitIndex+1, int(origLen)-bitIndex-1),
		prefixLen:      origLen - uint8(bitIndex) - 1,
		isIntermediate: n.isIntermediate,
		children:       n.children,
	}

	splitBit := prefixBits(origPrefix, origLen, bitIndex, 1)

	n.prefix = prefixBits(origPrefix, origLen, 0, bitIndex)
	n.prefixLen = uint8(bitIndex)
	n.isIntermediate = true
	if splitBit != 0 {
		n.children[1] = child
		n.children[0] = nil
		return &n.children[0]
	}
	n.children[0] = child
	n.children[1] = nil
	return &n.children[1]
}

// createNodes builds the chain of nodes covering the remaining address
// bits, terminating in a non-intermediate (terminal) node.
func createNodes(np **node, addr *bitWalk) {
	for addr.bitsLeft > 32 {
		n := &node{
			prefix:         uint64(extractBits(addr.word(), addr.bitOffset, 31-addr.bitOffset)),
			prefixLen:      uint8(31 - addr.bitOffset),
			isIntermediate: true,
		}
		*np = n
		bit := extractBit(addr.word(), 31)
		np = &n.children[bit]
		addr.bitOffset = 0
		addr.bitsLeft -= 32
		addr.wordIdx++
	}

	n := &node{
		prefix:    uint64(extractBits(addr.word(), addr.bitOffset, addr.bitsLeft-addr.bitOffset)),
		prefixLen: uint8(addr.bitsLeft - addr.bitOffset),
	}
	*np = n
}

func addTo(root **node, words [4]uint32, bitLength int) {
	addr := newBitWalk(words, bitLength)
	np := findAddSpot(root, &addr)

	if *np == nil {
		createNodes(np, &addr)
		return
	}

	n := *np
	remaining := addr.bitsRemaining()

	switch {
	case remaining < int(n.prefixLen):
		differing := findDifferingBit(addr.word()<<addr.bitOffset, uint32(n.prefix)<<(32-n.prefixLen))
		if differing >= remaining {
			splitOnBit(n, remaining)
			n.isIntermediate = false
			return
		}
		next := splitOnBit(n, differing)
		addr.advance(differing + 1)
		createNodes(next, &addr)

	case remaining == int(n.prefixLen):
		differing := findDifferingBit(addr.word()<<addr.bitOffset, uint32(n.prefix)<<(32-n.prefixLen))
		if differing >= int(n.prefixLen) {
			if addr.isLastWord() {
				n.isIntermediate = false
				return
			}
			next := splitOnBit(n, int(n.prefixLen)-1)
			addr.advance(int(n.prefixLen))
			createNodes(next, &addr)
			return
		}
		next := splitOnBit(n, differing)
		addr.advance(differing + 1)
		createNodes(next, &addr)

	default: // remaining > prefixLen
		differing := findDifferingBit(addr.word()<<addr.bitOffset, uint32(n.prefix)<<(32-n.prefixLen))
		next := splitOnBit(n, differing)
		addr.advance(differing + 1)
		createNodes(next, &addr)
	}
}

func containsIn(root *node, words [4]uint32, bitLength int) bool {
	n := root
	wordIdx := 0
	bitOffset := 0
	bitsLeft := bitLength

	for bitsLeft > 32 && n != nil {
		if 32-bitOffset < int(n.prefixLen) || extractBits(words[wordIdx], bitOffset, int(n.prefixLen)) != uint32(n.prefix) {
			return false
		}
		if !n.isIntermediate {
			return true
		}
		// A run that fills the rest of the word leaves no branching bit
		// in it; only a terminal (handled above) can end there.
		if 32-bitOffset == int(n.prefixLen) {
			return false
		}
		bitOffset += int(n.prefixLen)
		bit := extractBit(words[wordIdx], bitOffset)
		n = n.children[bit]
		bitOffset++
		if bitOffset == 32 {
			bitOffset = 0
			bitsLeft -= 32
			wordIdx++
		}
	}

	for n != nil {
		if bitsLeft-bitOffset < int(n.prefixLen) || extractBits(words[wordIdx], bitOffset, int(n.prefixLen)) != uint32(n.prefix) {
			return false
		}
		if !n.isIntermediate {
			return true
		}
		bitOffset += int(n.prefixLen)
		if bitOffset == bitsLeft {
			break
		}
		bit := extractBit(words[wordIdx], bitOffset)
		n = n.children[bit]
		bitOffset++
	}

	return n != nil && !n.isIntermediate
}
