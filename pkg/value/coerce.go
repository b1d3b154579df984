package value

import (
	"fmt"
	"net"
	"net/netip"
	"strings"
)

// CoercionCost weighs an implicit conversion for the analyser's
// minimum-cost operator match (spec.md §4F.2). Every entry below costs
// exactly one step; only single direct conversions are considered, never
// chains of them.
const CoercionCost = 1

// coercion describes one registered implicit conversion edge.
type coercion struct {
	from, to TypeTag
	convert  func(Value) (Value, error)
}

// Table is the ordered list of implicit coercions recognised by the
// analyser. It is package-level and immutable: conversions are a
// property of the type system, not of any one filter instance.
var Table = []coercion{
	{TypeTagUInt, TypeTagInt, func(v Value) (Value, error) {
		return Int(int64(v.UInt)), nil
	}},
	{TypeTagUInt, TypeTagFloat, func(v Value) (Value, error) {
		return Float(float64(v.UInt)), nil
	}},
	{TypeTagInt, TypeTagFloat, func(v Value) (Value, error) {
		return Float(float64(v.Int)), nil
	}},
	{TypeTagInt, TypeTagFlags, func(v Value) (Value, error) {
		return Flags(uint64(v.Int)), nil
	}},
	{TypeTagFlags, TypeTagUInt, func(v Value) (Value, error) {
		return UInt(v.Flags), nil
	}},
	{TypeTagStr, TypeTagIP, func(v Value) (Value, error) { return ParseIP(v.Str) }},
	{TypeTagStr, TypeTagMAC, func(v Value) (Value, error) { return ParseMAC(v.Str) }},
}

// CanCoerce reports whether from can be implicitly converted to to,
// including the zero-cost identity conversion.
func CanCoerce(from, to TypeTag) (steps int, ok bool) {
	if from == to {
		return 0, true
	}
	for _, c := range Table {
		if c.from == from && c.to == to {
			return CoercionCost, true
		}
	}
	return 0, false
}

// Coerce performs the conversion, failing with TypeError semantics if
// none is registered.
func Coerce(v Value, to TypeTag) (Value, error) {
	if v.Tag == to {
		return v, nil
	}
	for _, c := range Table {
		if c.from == v.Tag && c.to == to {
			return c.convert(v)
		}
	}
	return Value{}, fmt.Errorf("no implicit coercion from %s to %s", v.Tag, to)
}

// CommonNumeric returns the least upper bound of two numeric types
// under the coercion lattice UInt < Int < Float, used for list
// element-type promotion (spec.md §4A, §4F.3).
func CommonNumeric(a, b TypeTag) (TypeTag, bool) {
	if !a.Numeric() || !b.Numeric() {
		return TypeTagNone, false
	}
	if a == b {
		return a, true
	}
	rank := map[TypeTag]int{TypeTagUInt: 0, TypeTagInt: 1, TypeTagFloat: 2}
	if rank[a] > rank[b] {
		a, b = b, a
	}
	return b, true
}

// ParseIP parses the filter grammar's IP literal form: dotted-quad
// IPv4 or colon-hex IPv6, each with an optional "/n" prefix length. A
// bare address gets the maximum prefix length for its version.
func ParseIP(s string) (Value, error) {
	prefixStr := s
	explicitPrefix := -1
	if idx := strings.IndexByte(s, '/'); idx >= 0 {
		prefixStr = s[:idx]
		n, err := parseDecimal(s[idx+1:])
		if err != nil {
			return Value{}, fmt.Errorf("malformed prefix length in %q: %w", s, err)
		}
		explicitPrefix = n
	}

	addr, err := netip.ParseAddr(prefixStr)
	if err != nil {
		return Value{}, fmt.Errorf("malformed IP literal %q: %w", s, err)
	}

	maxBits := uint8(32)
	if addr.Is6() {
		maxBits = 128
	}
	prefixLen := maxBits
	if explicitPrefix >= 0 {
		if explicitPrefix < 1 || explicitPrefix > int(maxBits) {
			return Value{}, fmt.Errorf("prefix length %d out of range for %q", explicitPrefix, s)
		}
		prefixLen = uint8(explicitPrefix)
	}
	ip := IPFromAddr(addr, prefixLen)
	zeroBeyondPrefix(&ip)
	return IPAddr(ip), nil
}

// zeroBeyondPrefix clears bits beyond PrefixLen, maintaining invariant
// 4 of spec.md §3.
func zeroBeyondPrefix(ip *IP) {
	total := 16
	if ip.Version == 4 {
		total = 4
	}
	full := int(ip.PrefixLen) / 8
	rem := int(ip.PrefixLen) % 8
	for i := full; i < total; i++ {
		if i == full && rem != 0 {
			mask := byte(0xFF << (8 - rem))
			ip.Bytes[i] &= mask
			continue
		}
		if i > full || (i == full && rem == 0) {
			ip.Bytes[i] = 0
		}
	}
}

func parseDecimal(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid digit %q", r)
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

// ParseMAC parses a colon- or dash-separated hardware address.
func ParseMAC(s string) (Value, error) {
	hw, err := net.ParseMAC(s)
	if err != nil || len(hw) != 6 {
		return Value{}, fmt.Errorf("malformed MAC literal %q", s)
	}
	var m MAC
	copy(m[:], hw)
	return Mac(m), nil
}
