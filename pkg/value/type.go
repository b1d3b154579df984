// Package value implements the flow-filter's typed sum value and its
// closed type-tag enumeration, along with the implicit coercion table
// used by semantic analysis.
package value

//go:generate go run github.com/dmarkham/enumer -type=TypeTag -trimprefix=TypeTag

// TypeTag is the closed enumeration of filter data types. It mirrors
// libfds' fds_filter_type: None and Count are sentinels, never a real
// node's result type once analysis succeeds.
type TypeTag uint8

const (
	TypeTagNone TypeTag = iota
	TypeTagBool
	TypeTagUInt
	TypeTagInt
	TypeTagFloat
	TypeTagStr
	TypeTagIP
	TypeTagMAC
	TypeTagFlags
	TypeTagList
	TypeTagCustom
	typeTagCount
)

// DataType is a (tag, element-tag) pair. ElemTag is TypeTagNone unless
// Tag is TypeTagList.
type DataType struct {
	Tag     TypeTag
	ElemTag TypeTag
}

// CustomID names a registered Custom<id> artifact type, e.g. the
// compiled IP trie constant produced by constant-folding a literal
// List<Ip>.
type CustomID uint32

const (
	CustomNone CustomID = iota
	CustomTrie
)

// Scalar reports whether t can appear as a list element type.
func (t TypeTag) Scalar() bool {
	switch t {
	case TypeTagBool, TypeTagUInt, TypeTagInt, TypeTagFloat, TypeTagStr, TypeTagIP, TypeTagMAC, TypeTagFlags:
		return true
	default:
		return false
	}
}

// Numeric reports whether t participates in arithmetic.
func (t TypeTag) Numeric() bool {
	switch t {
	case TypeTagUInt, TypeTagInt, TypeTagFloat:
		return true
	default:
		return false
	}
}

func (d DataType) String() string {
	if d.Tag == TypeTagList {
		return "List<" + d.ElemTag.String() + ">"
	}
	return d.Tag.String()
}

func (d DataType) IsNone() bool { return d.Tag == TypeTagNone }

func ScalarType(t TypeTag) DataType { return DataType{Tag: t} }

func ListType(elem TypeTag) DataType { return DataType{Tag: TypeTagList, ElemTag: elem} }
