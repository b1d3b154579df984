// Package ops implements the Operator Table (spec.md §4C): a flat,
// linearly-scanned registry of unary/binary/cast/constructor/destructor
// entries keyed by opcode and operand types. It is the single source
// of truth for operator semantics — the analyser never hard-codes them
// (spec.md §4C) — grounded in shape on beevik-go6502's asm expression
// opdata precedence/eval table and in exact semantics on
// original_source/src/filter/operations/*.c.
package ops

import (
	"errors"
	"strings"

	"github.com/CESNET/flowfilter/pkg/ast"
	"github.com/CESNET/flowfilter/pkg/value"
)

// ErrDivisionByZero is returned by the integer Div/Mod entries on a zero
// divisor; Float division follows IEEE 754 instead.
var ErrDivisionByZero = errors.New("division by zero")

// Kind distinguishes the five entry shapes spec.md §4C names.
type Kind int

const (
	KindUnary Kind = iota
	KindBinary
	KindCast
	KindConstructor
	KindDestructor
)

// UnaryFn computes the result of a unary operator.
type UnaryFn func(operand value.Value) (value.Value, error)

// BinaryFn computes the result of a binary operator.
type BinaryFn func(left, right value.Value) (value.Value, error)

// CastFn converts a value from one type to another explicitly. Cast
// entries are looked up only through FindCast; the evaluator runs
// OpCast nodes through value.Coerce, not through this table.
type CastFn func(v value.Value) (value.Value, error)

// ConstructorFn builds a Custom value out of a fully-evaluated operand,
// e.g. List<Ip> -> Custom<Trie>.
type ConstructorFn func(v value.Value) (value.Value, error)

// DestructorFn releases resources owned by a folded Custom constant at
// filter teardown.
type DestructorFn func(v value.Value)

// Entry is one operator registration. Only the fields relevant to Kind
// are populated.
type Entry struct {
	Kind Kind
	Op   ast.Op

	LHS    value.DataType
	RHS    value.DataType // binary only
	Result value.DataType

	Unary       UnaryFn
	Binary      BinaryFn
	Cast        CastFn
	Constructor ConstructorFn
	Destructor  DestructorFn
}

// Table is the ordered, appendable operator registry. Built-ins are
// copied in by NewTable on filter creation; extensions are appended
// after and shadow built-ins on a tied match, matching spec.md §4C and
// §4I's extend_ops.
type Table struct {
	entries []Entry
}

// NewTable returns a table pre-populated with the built-in entries.
func NewTable() *Table {
	t := &Table{}
	t.entries = append(t.entries, builtins()...)
	return t
}

// Extend appends user-supplied entries after the current contents.
func (t *Table) Extend(entries ...Entry) {
	t.entries = append(t.entries, entries...)
}

// FindUnary returns the last-registered unary entry matching (op, operandType).
func (t *Table) FindUnary(op ast.Op, operand value.DataType) (Entry, bool) {
	var found Entry
	ok := false
	for _, e := range t.entries {
		if e.Kind == KindUnary && e.Op == op && e.LHS == operand {
			found, ok = e, true
		}
	}
	return found, ok
}

// FindBinary returns the last-registered binary entry matching (op, lhs, rhs).
func (t *Table) FindBinary(op ast.Op, lhs, rhs value.DataType) (Entry, bool) {
	var found Entry
	ok := false
	for _, e := range t.entries {
		if e.Kind == KindBinary && e.Op == op && e.LHS == lhs && e.RHS == rhs {
			found, ok = e, true
		}
	}
	return found, ok
}

// FindCast returns the last-registered cast entry matching (from, to).
func (t *Table) FindCast(from, to value.DataType) (Entry, bool) {
	var found Entry
	ok := false
	for _, e := range t.entries {
		if e.Kind == KindCast && e.LHS == from && e.Result == to {
			found, ok = e, true
		}
	}
	return found, ok
}

// FindConstructor returns the last-registered constructor entry whose
// operand type is from and whose result type is to.
func (t *Table) FindConstructor(from, to value.DataType) (Entry, bool) {
	var found Entry
	ok := false
	for _, e := range t.entries {
		if e.Kind == KindConstructor && e.LHS == from && e.Result == to {
			found, ok = e, true
		}
	}
	return found, ok
}

// FindDestructor returns the registered destructor entry for t, if any.
func (t *Table) FindDestructor(typ value.DataType) (Entry, bool) {
	var found Entry
	ok := false
	for _, e := range t.entries {
		if e.Kind == KindDestructor && e.LHS == typ {
			found, ok = e, true
		}
	}
	return found, ok
}

// CandidatesBinary returns every registered binary entry for op,
// regardless of operand types — the analyser scans these to compute
// minimum-cost coercions (spec.md §4F.2).
func (t *Table) CandidatesBinary(op ast.Op) []Entry {
	var out []Entry
	for _, e := range t.entries {
		if e.Kind == KindBinary && e.Op == op {
			out = append(out, e)
		}
	}
	return out
}

// CandidatesUnary returns every registered unary entry for op.
func (t *Table) CandidatesUnary(op ast.Op) []Entry {
	var out []Entry
	for _, e := range t.entries {
		if e.Kind == KindUnary && e.Op == op {
			out = append(out, e)
		}
	}
	return out
}

func scalar(t value.TypeTag) value.DataType { return value.ScalarType(t) }

func list(t value.TypeTag) value.DataType { return value.ListType(t) }

// builtins assembles the default operator set described by spec.md
// §4C: arithmetic across numeric types, bitwise across integral types,
// comparison across ordered types, logical on Bool, string concat/
// contains, IP-in-IP, IP-in-List<Ip>, and generic x in List<T>.
func builtins() []Entry {
	var e []Entry

	e = append(e, arithmeticOps()...)
	e = append(e, bitwiseOps()...)
	e = append(e, logicalOps()...)
	e = append(e, comparisonOps()...)
	e = append(e, stringOps()...)
	e = append(e, containmentOps()...)
	e = append(e, flagsOps()...)
	e = append(e, castOps()...)
	e = append(e, trieConstructorEntry())

	return e
}

func arithmeticOps() []Entry {
	mk := func(op ast.Op, tag value.TypeTag, fn BinaryFn) Entry {
		return Entry{Kind: KindBinary, Op: op, LHS: scalar(tag), RHS: scalar(tag), Result: scalar(tag), Binary: fn}
	}
	var e []Entry
	for _, tag := range []value.TypeTag{value.TypeTagUInt, value.TypeTagInt, value.TypeTagFloat} {
		tag := tag
		e = append(e,
			mk(ast.OpAdd, tag, numericBinary(tag, func(a, b float64) float64 { return a + b },
				func(a, b int64) int64 { return a + b }, func(a, b uint64) uint64 { return a + b })),
			mk(ast.OpSub, tag, numericBinary(tag, func(a, b float64) float64 { return a - b },
				func(a, b int64) int64 { return a - b }, func(a, b uint64) uint64 { return a - b })),
			mk(ast.OpMul, tag, numericBinary(tag, func(a, b float64) float64 { return a * b },
				func(a, b int64) int64 { return a * b }, func(a, b uint64) uint64 { return a * b })),
		)
		e = append(e, Entry{Kind: KindBinary, Op: ast.OpDiv, LHS: scalar(tag), RHS: scalar(tag), Result: scalar(tag), Binary: divOp(tag)})
		if tag != value.TypeTagFloat {
			e = append(e, Entry{Kind: KindBinary, Op: ast.OpMod, LHS: scalar(tag), RHS: scalar(tag), Result: scalar(tag), Binary: modOp(tag)})
		}
	}
	e = append(e,
		Entry{Kind: KindUnary, Op: ast.OpUMinus, LHS: scalar(value.TypeTagInt), Result: scalar(value.TypeTagInt),
			Unary: func(v value.Value) (value.Value, error) { return value.Int(-v.Int), nil }},
		Entry{Kind: KindUnary, Op: ast.OpUMinus, LHS: scalar(value.TypeTagFloat), Result: scalar(value.TypeTagFloat),
			Unary: func(v value.Value) (value.Value, error) { return value.Float(-v.Float), nil }},
	)
	return e
}

func numericBinary(tag value.TypeTag, onFloat func(a, b float64) float64, onInt func(a, b int64) int64, onUint func(a, b uint64) uint64) BinaryFn {
	switch tag {
	case value.TypeTagUInt:
		return func(l, r value.Value) (value.Value, error) { return value.UInt(onUint(l.UInt, r.UInt)), nil }
	case value.TypeTagInt:
		return func(l, r value.Value) (value.Value, error) { return value.Int(onInt(l.Int, r.Int)), nil }
	default:
		return func(l, r value.Value) (value.Value, error) { return value.Float(onFloat(l.Float, r.Float)), nil }
	}
}

func divOp(tag value.TypeTag) BinaryFn {
	switch tag {
	case value.TypeTagUInt:
		return func(l, r value.Value) (value.Value, error) {
			if r.UInt == 0 {
				return value.Value{}, ErrDivisionByZero
			}
			return value.UInt(l.UInt / r.UInt), nil
		}
	case value.TypeTagInt:
		return func(l, r value.Value) (value.Value, error) {
			if r.Int == 0 {
				return value.Value{}, ErrDivisionByZero
			}
			return value.Int(l.Int / r.Int), nil
		}
	default:
		return func(l, r value.Value) (value.Value, error) {
			// IEEE-754 division by zero yields +-Inf or NaN rather than
			// an error (spec.md §4G arithmetic semantics).
			return value.Float(l.Float / r.Float), nil
		}
	}
}

func modOp(tag value.TypeTag) BinaryFn {
	if tag == value.TypeTagUInt {
		return func(l, r value.Value) (value.Value, error) {
			if r.UInt == 0 {
				return value.Value{}, ErrDivisionByZero
			}
			return value.UInt(l.UInt % r.UInt), nil
		}
	}
	return func(l, r value.Value) (value.Value, error) {
		if r.Int == 0 {
			return value.Value{}, ErrDivisionByZero
		}
		return value.Int(l.Int % r.Int), nil
	}
}

func bitwiseOps() []Entry {
	var e []Entry
	for _, tag := range []value.TypeTag{value.TypeTagUInt, value.TypeTagInt} {
		tag := tag
		e = append(e,
			Entry{Kind: KindBinary, Op: ast.OpBitAnd, LHS: scalar(tag), RHS: scalar(tag), Result: scalar(tag), Binary: bitwiseBinary(tag, func(a, b uint64) uint64 { return a & b })},
			Entry{Kind: KindBinary, Op: ast.OpBitOr, LHS: scalar(tag), RHS: scalar(tag), Result: scalar(tag), Binary: bitwiseBinary(tag, func(a, b uint64) uint64 { return a | b })},
			Entry{Kind: KindBinary, Op: ast.OpBitXor, LHS: scalar(tag), RHS: scalar(tag), Result: scalar(tag), Binary: bitwiseBinary(tag, func(a, b uint64) uint64 { return a ^ b })},
		)
	}
	e = append(e,
		Entry{Kind: KindUnary, Op: ast.OpBitNot, LHS: scalar(value.TypeTagUInt), Result: scalar(value.TypeTagUInt),
			Unary: func(v value.Value) (value.Value, error) { return value.UInt(^v.UInt), nil }},
		Entry{Kind: KindUnary, Op: ast.OpBitNot, LHS: scalar(value.TypeTagInt), Result: scalar(value.TypeTagInt),
			Unary: func(v value.Value) (value.Value, error) { return value.Int(^v.Int), nil }},
	)
	return e
}

func bitwiseBinary(tag value.TypeTag, fn func(a, b uint64) uint64) BinaryFn {
	if tag == value.TypeTagUInt {
		return func(l, r value.Value) (value.Value, error) { return value.UInt(fn(l.UInt, r.UInt)), nil }
	}
	return func(l, r value.Value) (value.Value, error) {
		return value.Int(int64(fn(uint64(l.Int), uint64(r.Int)))), nil
	}
}

func logicalOps() []Entry {
	return []Entry{
		{Kind: KindBinary, Op: ast.OpAnd, LHS: scalar(value.TypeTagBool), RHS: scalar(value.TypeTagBool), Result: scalar(value.TypeTagBool),
			Binary: func(l, r value.Value) (value.Value, error) { return value.Bool(l.Bool && r.Bool), nil }},
		{Kind: KindBinary, Op: ast.OpOr, LHS: scalar(value.TypeTagBool), RHS: scalar(value.TypeTagBool), Result: scalar(value.TypeTagBool),
			Binary: func(l, r value.Value) (value.Value, error) { return value.Bool(l.Bool || r.Bool), nil }},
		{Kind: KindUnary, Op: ast.OpNot, LHS: scalar(value.TypeTagBool), Result: scalar(value.TypeTagBool),
			Unary: func(v value.Value) (value.Value, error) { return value.Bool(!v.Bool), nil }},
	}
}

func comparisonOps() []Entry {
	var e []Entry
	orderedTypes := []value.TypeTag{value.TypeTagUInt, value.TypeTagInt, value.TypeTagFloat, value.TypeTagStr, value.TypeTagIP}
	eqTypes := append(append([]value.TypeTag{}, orderedTypes...), value.TypeTagBool, value.TypeTagMAC)

	for _, tag := range eqTypes {
		tag := tag
		e = append(e, Entry{Kind: KindBinary, Op: ast.OpEq, LHS: scalar(tag), RHS: scalar(tag), Result: scalar(value.TypeTagBool),
			Binary: func(l, r value.Value) (value.Value, error) { return value.Bool(value.Equal(l, r)), nil }})
		e = append(e, Entry{Kind: KindBinary, Op: ast.OpNe, LHS: scalar(tag), RHS: scalar(tag), Result: scalar(value.TypeTagBool),
			Binary: func(l, r value.Value) (value.Value, error) { return value.Bool(!value.Equal(l, r)), nil }})
	}
	for _, tag := range orderedTypes {
		tag := tag
		e = append(e,
			Entry{Kind: KindBinary, Op: ast.OpLt, LHS: scalar(tag), RHS: scalar(tag), Result: scalar(value.TypeTagBool),
				Binary: func(l, r value.Value) (value.Value, error) { less, _ := value.Less(l, r); return value.Bool(less), nil }},
			Entry{Kind: KindBinary, Op: ast.OpGt, LHS: scalar(tag), RHS: scalar(tag), Result: scalar(value.TypeTagBool),
				Binary: func(l, r value.Value) (value.Value, error) { less, _ := value.Less(r, l); return value.Bool(less), nil }},
			Entry{Kind: KindBinary, Op: ast.OpLe, LHS: scalar(tag), RHS: scalar(tag), Result: scalar(value.TypeTagBool),
				Binary: func(l, r value.Value) (value.Value, error) { gt, _ := value.Less(r, l); return value.Bool(!gt), nil }},
			Entry{Kind: KindBinary, Op: ast.OpGe, LHS: scalar(tag), RHS: scalar(tag), Result: scalar(value.TypeTagBool),
				Binary: func(l, r value.Value) (value.Value, error) { lt, _ := value.Less(l, r); return value.Bool(!lt), nil }},
		)
	}
	return e
}

func stringOps() []Entry {
	return []Entry{
		{Kind: KindBinary, Op: ast.OpAdd, LHS: scalar(value.TypeTagStr), RHS: scalar(value.TypeTagStr), Result: scalar(value.TypeTagStr),
			Binary: func(l, r value.Value) (value.Value, error) { return value.Str(l.Str + r.Str), nil }},
		{Kind: KindBinary, Op: ast.OpContains, LHS: scalar(value.TypeTagStr), RHS: scalar(value.TypeTagStr), Result: scalar(value.TypeTagBool),
			Binary: func(l, r value.Value) (value.Value, error) { return value.Bool(strings.Contains(l.Str, r.Str)), nil }},
	}
}

// flagsOps implements the subset-containment comparison semantics
// ported verbatim from original_source/src/filter/operations/flags.c's
// cmp_flags: (left & right) == right, not byte equality.
func flagsOps() []Entry {
	cmp := func(l, r value.Value) (value.Value, error) {
		return value.Bool((l.Flags & r.Flags) == r.Flags), nil
	}
	return []Entry{
		{Kind: KindBinary, Op: ast.OpEq, LHS: scalar(value.TypeTagFlags), RHS: scalar(value.TypeTagFlags), Result: scalar(value.TypeTagBool), Binary: cmp},
	}
}

func castOps() []Entry {
	return []Entry{
		{Kind: KindCast, LHS: scalar(value.TypeTagFlags), Result: scalar(value.TypeTagUInt),
			Cast: func(v value.Value) (value.Value, error) { return value.UInt(v.Flags), nil }},
		{Kind: KindCast, LHS: scalar(value.TypeTagUInt), Result: scalar(value.TypeTagFlags),
			Cast: func(v value.Value) (value.Value, error) { return value.Flags(v.UInt), nil }},
	}
}
