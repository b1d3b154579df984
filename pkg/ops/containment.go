package ops

import (
	"net/netip"

	"github.com/CESNET/flowfilter/pkg/ast"
	"github.com/CESNET/flowfilter/pkg/trie"
	"github.com/CESNET/flowfilter/pkg/value"
)

// containmentOps implements "in"/"contains" for IP-in-IP (longest
// common prefix against the stored prefix length, spec.md §4G),
// IP-in-trie-constant (the folded List<Ip> optimisation, spec.md §4B),
// and the generic x in List<T> fallback using element equality
// (spec.md §4C).
func containmentOps() []Entry {
	var e []Entry

	e = append(e,
		Entry{Kind: KindBinary, Op: ast.OpIn, LHS: scalar(value.TypeTagIP), RHS: scalar(value.TypeTagIP), Result: scalar(value.TypeTagBool),
			Binary: func(l, r value.Value) (value.Value, error) { return value.Bool(ipWithinPrefix(l.IPVal, r.IPVal)), nil }},
		Entry{Kind: KindBinary, Op: ast.OpContains, LHS: scalar(value.TypeTagIP), RHS: scalar(value.TypeTagIP), Result: scalar(value.TypeTagBool),
			Binary: func(l, r value.Value) (value.Value, error) { return value.Bool(ipWithinPrefix(r.IPVal, l.IPVal)), nil }},
	)

	e = append(e,
		Entry{Kind: KindBinary, Op: ast.OpIn, LHS: scalar(value.TypeTagIP), RHS: value.DataType{Tag: value.TypeTagCustom}, Result: scalar(value.TypeTagBool),
			Binary: func(l, r value.Value) (value.Value, error) {
				set, _ := r.Opaque.(*trie.Set)
				if set == nil {
					return value.Bool(false), nil
				}
				return value.Bool(set.Contains(l.IPVal.Addr())), nil
			}},
	)

	for _, tag := range []value.TypeTag{
		value.TypeTagUInt, value.TypeTagInt, value.TypeTagFloat, value.TypeTagStr, value.TypeTagIP, value.TypeTagMAC, value.TypeTagBool, value.TypeTagFlags,
	} {
		tag := tag
		e = append(e, Entry{Kind: KindBinary, Op: ast.OpIn, LHS: scalar(tag), RHS: list(tag), Result: scalar(value.TypeTagBool),
			Binary: func(l, r value.Value) (value.Value, error) {
				for _, item := range r.Lst.Items {
					if value.Equal(l, item) {
						return value.Bool(true), nil
					}
				}
				return value.Bool(false), nil
			}})
	}

	return e
}

// ipWithinPrefix reports whether addr (treated as a single address,
// regardless of its own PrefixLen) falls within prefix's network,
// i.e. addr's leading prefix.PrefixLen bits equal prefix's.
func ipWithinPrefix(addr, prefix value.IP) bool {
	if addr.Version != prefix.Version {
		return false
	}
	total := 4
	if addr.Version == 6 {
		total = 16
	}
	full := int(prefix.PrefixLen) / 8
	rem := int(prefix.PrefixLen) % 8
	for i := 0; i < full && i < total; i++ {
		if addr.Bytes[i] != prefix.Bytes[i] {
			return false
		}
	}
	if rem != 0 && full < total {
		mask := byte(0xFF << (8 - rem))
		if addr.Bytes[full]&mask != prefix.Bytes[full]&mask {
			return false
		}
	}
	return true
}

// trieConstructorEntry registers the List<Ip> -> Custom<Trie> folding
// optimisation (spec.md §4B). It is built apart from the operator
// entries because it is consulted through FindConstructor rather than
// opcode matching; builtins() appends it, and the threshold policy
// stays in pkg/analysis next to its caller.
func trieConstructorEntry() Entry {
	return Entry{
		Kind:   KindConstructor,
		LHS:    list(value.TypeTagIP),
		Result: value.DataType{Tag: value.TypeTagCustom},
		Constructor: func(v value.Value) (value.Value, error) {
			return value.Custom(value.CustomTrie, buildTrieSet(v)), nil
		},
		Destructor: func(value.Value) {
			// The underlying *trie.Set is plain Go-managed memory; Go's
			// GC reclaims it once the compiled filter is released, so
			// there is nothing to release eagerly here. The entry still
			// exists so filter teardown's destructor walk (spec.md
			// §4I) has a symmetrical hook to call.
		},
	}
}

func buildTrieSet(v value.Value) *trie.Set {
	prefixes := make([]netip.Prefix, 0, len(v.Lst.Items))
	for _, item := range v.Lst.Items {
		ip := item.IPVal
		addr := ip.Addr()
		p, err := addr.Prefix(int(ip.PrefixLen))
		if err != nil {
			continue
		}
		prefixes = append(prefixes, p)
	}
	return trie.NewSet(prefixes)
}
