// Package eval implements the Evaluator (spec.md §4G): a post-order
// tree walk over a compiled filter's typed AST, short-circuiting
// logical operators and existentially iterating the cartesian product
// of multi-valued identifiers enclosed by an Any-marked node.
package eval

import (
	"errors"
	"fmt"

	"github.com/CESNET/flowfilter/pkg/ast"
	"github.com/CESNET/flowfilter/pkg/diag"
	"github.com/CESNET/flowfilter/pkg/ops"
	"github.com/CESNET/flowfilter/pkg/value"
)

// Result is the provider's per-call outcome (spec.md §4G/§6).
type Result int

const (
	// ResultOk means this is the last value for the identifier this record.
	ResultOk Result = iota
	// ResultOkMore means another value is available; call again with reset=false.
	ResultOkMore
	// ResultFail means no value at all for this identifier this record.
	ResultFail
)

// Provider yields runtime values for resolved identifiers, one record
// at a time. reset=true is passed exactly once per record per
// identifier id (spec.md §6).
type Provider interface {
	Value(id int, userCtx interface{}, reset bool, input interface{}) (value.Value, Result)
}

// Evaluator walks one compiled AST against a Provider. It is not safe
// for concurrent Evaluate calls against itself (spec.md §5): identifier
// bindings are local to each call, but every call drives the shared
// Provider's per-record reset/advance sequence and appends to the shared
// diagnostics channel. Distinct Evaluators sharing the same ops table
// are independent.
type Evaluator struct {
	ops      *ops.Table
	diags    *diag.Channel
	provider Provider
	userCtx  interface{}
}

// New creates an Evaluator bound to a provider and user context.
func New(table *ops.Table, diags *diag.Channel, provider Provider, userCtx interface{}) *Evaluator {
	return &Evaluator{ops: table, diags: diags, provider: provider, userCtx: userCtx}
}

// Evaluate runs root against one record (input, opaque to this
// package) and returns the filter's boolean verdict. A runtime
// internal error (should be unreachable after successful analysis)
// appends an Internal diagnostic and returns false.
func (e *Evaluator) Evaluate(root *ast.Node, input interface{}) bool {
	bindings := map[int]value.Value{}
	v, err := e.evalNode(root, input, bindings)
	if err != nil {
		code := diag.CodeInternal
		if errors.Is(err, ops.ErrDivisionByZero) {
			code = diag.CodeDivisionByZero
		}
		e.diags.Add(code, root.Span, "%v", err)
		return false
	}
	return v.Tag == value.TypeTagBool && v.Bool
}

func (e *Evaluator) evalNode(n *ast.Node, input interface{}, bindings map[int]value.Value) (value.Value, error) {
	if n.Any {
		satisfied, err := e.evalAny(n, input, bindings)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(satisfied), nil
	}
	return e.evalOp(n, input, bindings)
}

// evalAny implements the cartesian-product existential iteration
// spec.md §4G describes for a predicate enclosing one or more
// multi-valued identifiers: every identifier reachable from n is
// driven through its full sequence of provider values, left-to-right
// in expression order (spec.md §4G "Iteration order is deterministic:
// left-to-right in expression order"), and the predicate is
// re-evaluated for each combination until one satisfies it or the
// product is exhausted.
func (e *Evaluator) evalAny(n *ast.Node, input interface{}, bindings map[int]value.Value) (bool, error) {
	ids := collectIdentifierIDs(n)
	if len(ids) == 0 {
		v, err := e.evalOp(n, input, bindings)
		if err != nil {
			return false, err
		}
		return v.Tag == value.TypeTagBool && v.Bool, nil
	}

	type cursor struct {
		id      int
		value   value.Value
		hasMore bool
	}
	cursors := make([]cursor, len(ids))
	for i, id := range ids {
		v, res := e.provider.Value(id, e.userCtx, true, input)
		if res == ResultFail {
			// A Fail on the first call for any enclosed identifier
			// collapses the whole predicate to false (spec.md §9).
			return false, nil
		}
		cursors[i] = cursor{id: id, value: v, hasMore: res == ResultOkMore}
	}

	for {
		for _, c := range cursors {
			bindings[c.id] = c.value
		}
		satisfied, err := e.evalOp(n, input, bindings)
		for _, c := range cursors {
			delete(bindings, c.id)
		}
		if err != nil {
			return false, err
		}
		if satisfied.Tag == value.TypeTagBool && satisfied.Bool {
			return true, nil
		}

		advanced := false
		for i := len(cursors) - 1; i >= 0; i-- {
			if !cursors[i].hasMore {
				continue
			}
			v, res := e.provider.Value(cursors[i].id, e.userCtx, false, input)
			cursors[i].value = v
			cursors[i].hasMore = res == ResultOkMore
			for j := i + 1; j < len(cursors); j++ {
				v2, res2 := e.provider.Value(cursors[j].id, e.userCtx, true, input)
				if res2 == ResultFail {
					cursors[j].value = value.None()
					cursors[j].hasMore = false
					continue
				}
				cursors[j].value = v2
				cursors[j].hasMore = res2 == ResultOkMore
			}
			advanced = true
			break
		}
		if !advanced {
			return false, nil
		}
	}
}

// collectIdentifierIDs walks n and returns the ID of every
// OpIdentifier descendant, left-to-right, in first-occurrence order,
// deduplicated so a name referenced twice only gets one cursor.
func collectIdentifierIDs(n *ast.Node) []int {
	var ids []int
	seen := map[int]bool{}
	ast.Walk(n, func(m *ast.Node) {
		if m.Op != ast.OpIdentifier {
			return
		}
		if seen[m.ID] {
			return
		}
		seen[m.ID] = true
		ids = append(ids, m.ID)
	})
	return ids
}

// evalOp walks n's own operator, ignoring n.Any — the caller either
// is evalAny re-entering the subtree it is driving, or evalNode having
// already handled the Any case.
func (e *Evaluator) evalOp(n *ast.Node, input interface{}, bindings map[int]value.Value) (value.Value, error) {
	switch n.Op {
	case ast.OpConst:
		return n.Val, nil

	case ast.OpIdentifier:
		if v, ok := bindings[n.ID]; ok {
			return v, nil
		}
		v, res := e.provider.Value(n.ID, e.userCtx, true, input)
		if res == ResultFail {
			return value.None(), nil
		}
		return v, nil

	case ast.OpList:
		items := make([]value.Value, len(n.Items))
		for i, item := range n.Items {
			v, err := e.evalNode(item, input, bindings)
			if err != nil {
				return value.Value{}, err
			}
			items[i] = v
		}
		return value.ListOf(n.Type.ElemTag, items), nil

	case ast.OpCast:
		v, err := e.evalNode(n.Left, input, bindings)
		if err != nil {
			return value.Value{}, err
		}
		return value.Coerce(v, n.Type.Tag)

	case ast.OpAnd:
		l, err := e.evalNode(n.Left, input, bindings)
		if err != nil {
			return value.Value{}, err
		}
		if !l.Bool {
			return value.Bool(false), nil
		}
		r, err := e.evalNode(n.Right, input, bindings)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(r.Bool), nil

	case ast.OpOr:
		l, err := e.evalNode(n.Left, input, bindings)
		if err != nil {
			return value.Value{}, err
		}
		if l.Bool {
			return value.Bool(true), nil
		}
		r, err := e.evalNode(n.Right, input, bindings)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(r.Bool), nil

	case ast.OpNot:
		v, err := e.evalNode(n.Left, input, bindings)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(!v.Bool), nil

	case ast.OpUMinus:
		v, err := e.evalNode(n.Left, input, bindings)
		if err != nil {
			return value.Value{}, err
		}
		entry, ok := e.ops.FindUnary(ast.OpUMinus, v.DataType())
		if !ok {
			return value.Value{}, internalErr(n, "no unary - for %s", v.DataType())
		}
		return entry.Unary(v)

	case ast.OpBitNot:
		v, err := e.evalNode(n.Left, input, bindings)
		if err != nil {
			return value.Value{}, err
		}
		entry, ok := e.ops.FindUnary(ast.OpBitNot, v.DataType())
		if !ok {
			return value.Value{}, internalErr(n, "no unary ~ for %s", v.DataType())
		}
		return entry.Unary(v)

	default:
		return e.evalBinary(n, input, bindings)
	}
}

func (e *Evaluator) evalBinary(n *ast.Node, input interface{}, bindings map[int]value.Value) (value.Value, error) {
	l, err := e.evalNode(n.Left, input, bindings)
	if err != nil {
		return value.Value{}, err
	}
	r, err := e.evalNode(n.Right, input, bindings)
	if err != nil {
		return value.Value{}, err
	}
	// A missing identifier value (None) makes a predicate false rather
	// than an internal error.
	if l.Tag == value.TypeTagNone || r.Tag == value.TypeTagNone {
		if n.Type.Tag == value.TypeTagBool {
			return value.Bool(false), nil
		}
		return value.None(), nil
	}

	rhsType := r.DataType()
	entry, ok := e.ops.FindBinary(n.Op, l.DataType(), rhsType)
	if !ok {
		// The RHS of a folded IP-trie "in" keeps type Custom regardless
		// of CustomID; retry against the generic Custom entry shape.
		entry, ok = e.ops.FindBinary(n.Op, l.DataType(), value.DataType{Tag: rhsType.Tag})
	}
	if !ok {
		return value.Value{}, internalErr(n, "no operator %s for (%s, %s)", n.Op, l.DataType(), rhsType)
	}
	return entry.Binary(l, r)
}

func internalErr(n *ast.Node, format string, args ...interface{}) error {
	return &internalError{node: n, message: fmt.Sprintf(format, args...)}
}

type internalError struct {
	node    *ast.Node
	message string
}

func (e *internalError) Error() string { return e.message }
