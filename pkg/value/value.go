package value

import (
	"bytes"
	"fmt"
	"net/netip"
)

// MAC is a 6-byte hardware address.
type MAC [6]byte

// IP carries an IPv4 or IPv6 address together with a CIDR prefix
// length. Bytes beyond Version's natural width, and bits beyond
// PrefixLen within it, are always zero (invariant 4 in spec.md §3).
type IP struct {
	Version   uint8 // 4 or 6
	PrefixLen uint8 // 1..32 for v4, 1..128 for v6
	Bytes     [16]byte
}

func (ip IP) MaxPrefix() uint8 {
	if ip.Version == 4 {
		return 32
	}
	return 128
}

// Addr converts to the stdlib representation for trie/formatting use.
func (ip IP) Addr() netip.Addr {
	if ip.Version == 4 {
		var b [4]byte
		copy(b[:], ip.Bytes[:4])
		return netip.AddrFrom4(b)
	}
	return netip.AddrFrom16(ip.Bytes)
}

func IPFromAddr(addr netip.Addr, prefixLen uint8) IP {
	ip := IP{PrefixLen: prefixLen}
	if addr.Is4() {
		ip.Version = 4
		b4 := addr.As4()
		copy(ip.Bytes[:4], b4[:])
	} else {
		ip.Version = 6
		b16 := addr.As16()
		copy(ip.Bytes[:], b16[:])
	}
	return ip
}

// List is a homogeneous sequence of values sharing one element type.
type List struct {
	ElemTag TypeTag
	Items   []Value
}

// Value is the tagged union the evaluator passes between AST nodes.
// Only the field matching Tag is meaningful.
type Value struct {
	Tag TypeTag

	Bool  bool
	UInt  uint64
	Int   int64
	Float float64
	Flags uint64
	Str   string
	Mac   MAC
	IPVal IP
	Lst   List

	// Opaque holds a Custom<id> artifact, e.g. a *trie.Set produced by
	// constant-folding a literal List<Ip>. CustomID names its kind.
	Opaque   interface{}
	CustomID CustomID
}

func None() Value                  { return Value{Tag: TypeTagNone} }
func Bool(b bool) Value            { return Value{Tag: TypeTagBool, Bool: b} }
func UInt(u uint64) Value          { return Value{Tag: TypeTagUInt, UInt: u} }
func Int(i int64) Value            { return Value{Tag: TypeTagInt, Int: i} }
func Float(f float64) Value        { return Value{Tag: TypeTagFloat, Float: f} }
func Flags(f uint64) Value         { return Value{Tag: TypeTagFlags, Flags: f} }
func Str(s string) Value           { return Value{Tag: TypeTagStr, Str: s} }
func Mac(m MAC) Value              { return Value{Tag: TypeTagMAC, Mac: m} }
func IPAddr(ip IP) Value           { return Value{Tag: TypeTagIP, IPVal: ip} }
func ListOf(elem TypeTag, items []Value) Value {
	return Value{Tag: TypeTagList, Lst: List{ElemTag: elem, Items: items}}
}
func Custom(id CustomID, opaque interface{}) Value {
	return Value{Tag: TypeTagCustom, CustomID: id, Opaque: opaque}
}

func (v Value) DataType() DataType {
	if v.Tag == TypeTagList {
		return DataType{Tag: TypeTagList, ElemTag: v.Lst.ElemTag}
	}
	return DataType{Tag: v.Tag}
}

func (v Value) String() string {
	switch v.Tag {
	case TypeTagNone:
		return "<none>"
	case TypeTagBool:
		return fmt.Sprintf("%t", v.Bool)
	case TypeTagUInt:
		return fmt.Sprintf("%d", v.UInt)
	case TypeTagInt:
		return fmt.Sprintf("%d", v.Int)
	case TypeTagFloat:
		return fmt.Sprintf("%g", v.Float)
	case TypeTagFlags:
		return fmt.Sprintf("0x%x", v.Flags)
	case TypeTagStr:
		return v.Str
	case TypeTagMAC:
		return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
			v.Mac[0], v.Mac[1], v.Mac[2], v.Mac[3], v.Mac[4], v.Mac[5])
	case TypeTagIP:
		return fmt.Sprintf("%s/%d", v.IPVal.Addr(), v.IPVal.PrefixLen)
	case TypeTagList:
		return fmt.Sprintf("List<%s>[%d]", v.Lst.ElemTag, len(v.Lst.Items))
	case TypeTagCustom:
		return fmt.Sprintf("Custom<%d>", v.CustomID)
	default:
		return "<invalid>"
	}
}

// Equal implements deep equality per spec.md §4A/§4G: IP equality
// requires the same version (mismatched versions are false, never an
// error); string equality is byte-exact; list equality is
// element-wise and order-sensitive.
func Equal(a, b Value) bool {
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case TypeTagNone:
		return true
	case TypeTagBool:
		return a.Bool == b.Bool
	case TypeTagUInt:
		return a.UInt == b.UInt
	case TypeTagInt:
		return a.Int == b.Int
	case TypeTagFloat:
		return a.Float == b.Float
	case TypeTagFlags:
		return a.Flags == b.Flags
	case TypeTagStr:
		return a.Str == b.Str
	case TypeTagMAC:
		return bytes.Equal(a.Mac[:], b.Mac[:])
	case TypeTagIP:
		if a.IPVal.Version != b.IPVal.Version {
			return false
		}
		return a.IPVal.PrefixLen == b.IPVal.PrefixLen && bytes.Equal(a.IPVal.Bytes[:], b.IPVal.Bytes[:])
	case TypeTagList:
		if a.Lst.ElemTag != b.Lst.ElemTag || len(a.Lst.Items) != len(b.Lst.Items) {
			return false
		}
		for i := range a.Lst.Items {
			if !Equal(a.Lst.Items[i], b.Lst.Items[i]) {
				return false
			}
		}
		return true
	case TypeTagCustom:
		return a.CustomID == b.CustomID && a.Opaque == b.Opaque
	default:
		return false
	}
}

// Less provides the ordering relation used by comparison operators
// over numeric, string and IP-by-address types. ok is false when the
// types are not ordered against each other.
func Less(a, b Value) (less bool, ok bool) {
	if a.Tag != b.Tag {
		return false, false
	}
	switch a.Tag {
	case TypeTagUInt:
		return a.UInt < b.UInt, true
	case TypeTagInt:
		return a.Int < b.Int, true
	case TypeTagFloat:
		return a.Float < b.Float, true
	case TypeTagStr:
		return a.Str < b.Str, true
	case TypeTagIP:
		if a.IPVal.Version != b.IPVal.Version {
			return false, false
		}
		return bytes.Compare(a.IPVal.Bytes[:], b.IPVal.Bytes[:]) < 0, true
	default:
		return false, false
	}
}
