// Package analysis implements the Semantic Analyser (spec.md §4F):
// name resolution against a caller-supplied resolver, type inference
// with minimum-cost implicit coercion, list element-type unification,
// the List<Ip> -> Custom<Trie> folding optimisation, constant folding,
// and Any-lift marking of multi-valued-identifier predicates.
package analysis

import (
	"github.com/CESNET/flowfilter/pkg/ast"
	"github.com/CESNET/flowfilter/pkg/diag"
	"github.com/CESNET/flowfilter/pkg/ops"
	"github.com/CESNET/flowfilter/pkg/value"
)

// ListTrieThreshold is the minimum literal List<Ip> length past which
// the analyser folds the list into a Custom<Trie> constant instead of
// a linear-scan List (spec.md §4B: "implementation-chosen, e.g., 4").
const ListTrieThreshold = 4

// Info is what a Resolver reports for one identifier name.
type Info struct {
	ID          int
	Type        value.DataType
	IsConstant  bool
	Multivalued bool
	Value       value.Value
}

// Resolver maps identifier names to typed field descriptors
// (spec.md §6's resolver callback). Multivalued is not part of the
// spec's resolver output but is required to decide Any-lifting at
// compile time rather than discovering it mid-evaluation; this
// implementation's resolution of that open point (see DESIGN.md).
type Resolver interface {
	Resolve(name string) (Info, bool)
}

// Folded records one constant-folded Custom artifact so the owning
// filter can invoke its destructor at teardown (spec.md §4I).
type Folded struct {
	Value      value.Value
	Destructor ops.DestructorFn
}

// Analyzer runs the six analysis steps over one AST in a single
// bottom-up walk.
type Analyzer struct {
	resolver Resolver
	ops      *ops.Table
	diags    *diag.Channel
	folded   []Folded
}

// New creates an Analyzer. table and diags are owned by the compiled
// filter and outlive a single Analyze call.
func New(resolver Resolver, table *ops.Table, diags *diag.Channel) *Analyzer {
	return &Analyzer{resolver: resolver, ops: table, diags: diags}
}

// Folded returns every Custom constant folded during the last Analyze
// call, for the filter to register for teardown.
func (a *Analyzer) Folded() []Folded { return a.folded }

// Analyze type-checks, coerces, folds and Any-marks root in place,
// returning the (possibly rewritten) root and whether analysis
// succeeded without diagnostics.
func (a *Analyzer) Analyze(root *ast.Node) (*ast.Node, bool) {
	n, _ := a.visit(root, value.DataType{})
	return n, !a.diags.HasErrors()
}

// visit analyses n bottom-up. ctx is the "opposite operand" type
// context used to type an empty list literal (spec.md §4F.3); it is
// the zero DataType when there is no such context.
func (a *Analyzer) visit(n *ast.Node, ctx value.DataType) (*ast.Node, bool) {
	if n == nil {
		return nil, false
	}

	switch n.Op {
	case ast.OpConst:
		return n, false

	case ast.OpIdentifier:
		return a.visitIdentifier(n)

	case ast.OpList:
		return a.visitList(n, ctx)

	case ast.OpNot:
		child, lift := a.visit(n.Left, value.DataType{})
		n.Left = child
		n.Type = value.ScalarType(value.TypeTagBool)
		if child.Type.Tag != value.TypeTagBool {
			a.diags.Add(diag.CodeType, n.Span, "operand of 'not' must be Bool, got %s", child.Type)
		}
		a.tryFoldUnary(n)
		return n, lift

	case ast.OpUMinus, ast.OpBitNot:
		return a.visitUnary(n)

	default:
		return a.visitBinary(n, ctx)
	}
}

func (a *Analyzer) visitIdentifier(n *ast.Node) (*ast.Node, bool) {
	info, ok := a.resolver.Resolve(n.Name)
	if !ok {
		a.diags.Add(diag.CodeUnknownIdentifier, n.Span, "unknown identifier %q", n.Name)
		n.Type = value.DataType{}
		return n, false
	}
	n.ID = info.ID
	n.Type = info.Type
	n.IsConstant = info.IsConstant
	if info.IsConstant {
		folded := ast.NewLeaf(ast.OpConst, n.Span)
		folded.Val = info.Value
		folded.Type = info.Value.DataType()
		return folded, false
	}
	return n, info.Multivalued
}

func (a *Analyzer) visitList(n *ast.Node, ctx value.DataType) (*ast.Node, bool) {
	lift := false
	allConst := true
	for i, item := range n.Items {
		analyzed, itemLift := a.visit(item, value.DataType{})
		n.Items[i] = analyzed
		lift = lift || itemLift
		if analyzed.Op != ast.OpConst {
			allConst = false
		}
	}

	elem := value.TypeTagNone
	if len(n.Items) == 0 {
		if ctx.Tag == value.TypeTagList {
			elem = ctx.ElemTag
		} else {
			a.diags.Add(diag.CodeList, n.Span, "empty list literal has no inferable element type")
		}
	} else {
		elem = n.Items[0].Type.Tag
		for _, item := range n.Items[1:] {
			common, ok := unifyElemType(elem, item.Type.Tag)
			if !ok {
				a.diags.Add(diag.CodeList, n.Span, "list elements are not homogeneous: %s vs %s", elem, item.Type.Tag)
				break
			}
			elem = common
		}
		for i, item := range n.Items {
			if item.Type.Tag != elem {
				n.Items[i] = insertCoercion(item, value.ScalarType(elem))
			}
		}
	}
	n.Type = value.ListType(elem)

	if elem == value.TypeTagIP && allConst && len(n.Items) > ListTrieThreshold {
		return a.foldTrieConstant(n), lift
	}
	return n, lift
}

// unifyElemType computes the least upper bound of two element types
// under the coercion lattice (spec.md §4F.3): identical types unify to
// themselves, numeric types unify via value.CommonNumeric, anything
// else fails.
func unifyElemType(a, b value.TypeTag) (value.TypeTag, bool) {
	if a == b {
		return a, true
	}
	return value.CommonNumeric(a, b)
}

// insertCoercion wraps child in an implicit-conversion site. If child
// is already constant the conversion runs immediately (folding it away
// entirely) rather than leaving a cast node for the evaluator to
// repeat on every call.
func insertCoercion(child *ast.Node, to value.DataType) *ast.Node {
	if child.Op == ast.OpConst {
		if v, err := value.Coerce(child.Val, to.Tag); err == nil {
			n := ast.NewLeaf(ast.OpConst, child.Span)
			n.Val = v
			n.Type = to
			return n
		}
	}
	cast := ast.NewUnary(ast.OpCast, child, child.Span)
	cast.Type = to
	return cast
}

// coercionCost reports the step count of converting have to want,
// including the zero-cost identity case, mirroring value.CanCoerce.
func coercionCost(have, want value.TypeTag) (int, bool) {
	if have == want {
		return 0, true
	}
	return value.CanCoerce(have, want)
}

// foldTrieConstant replaces a literal List<Ip> node with the folded
// Custom<Trie> constant (spec.md §4B/§4F.4), recording the destructor
// for filter teardown.
func (a *Analyzer) foldTrieConstant(listNode *ast.Node) *ast.Node {
	entry, ok := a.ops.FindConstructor(listNode.Type, value.DataType{Tag: value.TypeTagCustom})
	if !ok {
		return listNode
	}
	items := make([]value.Value, len(listNode.Items))
	for i, item := range listNode.Items {
		items[i] = item.Val
	}
	listVal := value.ListOf(value.TypeTagIP, items)
	folded, err := entry.Constructor(listVal)
	if err != nil {
		a.diags.Add(diag.CodeInternal, listNode.Span, "folding List<Ip> to trie: %v", err)
		return listNode
	}
	a.folded = append(a.folded, Folded{Value: folded, Destructor: entry.Destructor})

	n := ast.NewLeaf(ast.OpConst, listNode.Span)
	n.Val = folded
	n.Type = folded.DataType()
	return n
}

func (a *Analyzer) visitUnary(n *ast.Node) (*ast.Node, bool) {
	child, lift := a.visit(n.Left, value.DataType{})
	n.Left = child

	candidates := a.ops.CandidatesUnary(n.Op)
	best, bestCost, ambiguous := selectUnary(candidates, child.Type.Tag)
	if ambiguous {
		a.diags.Add(diag.CodeAmbiguous, n.Span, "ambiguous operand type for %s", n.Op)
		return n, lift
	}
	if bestCost < 0 {
		a.diags.Add(diag.CodeType, n.Span, "no operator %s for operand type %s", n.Op, child.Type)
		return n, lift
	}
	if best.LHS.Tag != child.Type.Tag {
		n.Left = insertCoercion(child, best.LHS)
	}
	n.Type = best.Result
	a.tryFoldUnary(n)
	return n, lift
}

func selectUnary(candidates []ops.Entry, operand value.TypeTag) (ops.Entry, int, bool) {
	bestCost := -1
	var best ops.Entry
	tie := false
	for _, c := range candidates {
		cost, ok := coercionCost(operand, c.LHS.Tag)
		if !ok {
			continue
		}
		if bestCost < 0 || cost < bestCost {
			bestCost, best, tie = cost, c, false
		} else if cost == bestCost {
			if c.LHS == best.LHS {
				// Same signature: the later-appended entry shadows the earlier.
				best = c
			} else {
				tie = true
			}
		}
	}
	if bestCost < 0 {
		return ops.Entry{}, -1, false
	}
	return best, bestCost, tie
}

func (a *Analyzer) visitBinary(n *ast.Node, ctx value.DataType) (*ast.Node, bool) {
	left, leftLift := a.visit(n.Left, value.DataType{})
	n.Left = left

	// An empty list literal on the right of "in"/"contains" takes its
	// element type from the left operand (spec.md §4F.3's "opposite
	// operand" context); this is the only place an empty list can
	// appear without surrounding context, since lists are never valid
	// operators' left-hand operand.
	rightCtx := value.DataType{}
	if (n.Op == ast.OpIn || n.Op == ast.OpContains) && n.Right != nil && n.Right.Op == ast.OpList {
		rightCtx = value.ListType(left.Type.Tag)
	}
	right, rightLift := a.visit(n.Right, rightCtx)
	n.Right = right

	candidates := a.ops.CandidatesBinary(n.Op)
	best, totalCost, ambiguous := selectBinary(candidates, left.Type.Tag, right.Type.Tag)
	if ambiguous {
		a.diags.Add(diag.CodeAmbiguous, n.Span, "ambiguous operand types for %s", n.Op)
		return n, leftLift || rightLift
	}
	if totalCost < 0 {
		a.diags.Add(diag.CodeType, n.Span, "no operator %s for operand types %s, %s", n.Op, left.Type, right.Type)
		return n, leftLift || rightLift
	}
	if best.LHS.Tag != left.Type.Tag && best.LHS.Tag != value.TypeTagCustom {
		n.Left = insertCoercion(left, best.LHS)
	}
	if best.RHS.Tag != right.Type.Tag && best.RHS.Tag != value.TypeTagList && best.RHS.Tag != value.TypeTagCustom {
		n.Right = insertCoercion(right, best.RHS)
	}
	n.Type = best.Result

	lift := leftLift || rightLift
	if lift && n.Type.Tag == value.TypeTagBool {
		n.Any = true
		lift = false
	}

	a.tryFoldBinary(n)
	return n, lift
}

func selectBinary(candidates []ops.Entry, lhs, rhs value.TypeTag) (ops.Entry, int, bool) {
	bestCost := -1
	var best ops.Entry
	tie := false
	for _, c := range candidates {
		lCost, ok := coercionCostForBinaryOperand(lhs, c.LHS)
		if !ok {
			continue
		}
		rCost, ok := coercionCostForBinaryOperand(rhs, c.RHS)
		if !ok {
			continue
		}
		cost := lCost + rCost
		if bestCost < 0 || cost < bestCost {
			bestCost, best, tie = cost, c, false
		} else if cost == bestCost {
			if c.LHS == best.LHS && c.RHS == best.RHS {
				// Same signature: the later-appended entry shadows the earlier.
				best = c
			} else {
				tie = true
			}
		}
	}
	if bestCost < 0 {
		return ops.Entry{}, -1, false
	}
	return best, bestCost, tie
}

// coercionCostForBinaryOperand additionally accepts an operand type
// matching a List<T> or Custom entry type verbatim (those aren't part
// of the scalar coercion lattice; they match only exactly).
func coercionCostForBinaryOperand(have value.TypeTag, want value.DataType) (int, bool) {
	if want.Tag == value.TypeTagList || want.Tag == value.TypeTagCustom {
		if have == want.Tag {
			return 0, true
		}
		if want.Tag == value.TypeTagCustom && have == value.TypeTagCustom {
			return 0, true
		}
		return 0, false
	}
	return coercionCost(have, want.Tag)
}

func (a *Analyzer) tryFoldUnary(n *ast.Node) {
	if n.Left == nil || n.Left.Op != ast.OpConst {
		return
	}
	var entry ops.Entry
	var ok bool
	if n.Op == ast.OpNot {
		entry, ok = a.ops.FindUnary(ast.OpNot, n.Left.Type)
	} else {
		entry, ok = a.ops.FindUnary(n.Op, n.Left.Type)
	}
	if !ok {
		return
	}
	v, err := entry.Unary(n.Left.Val)
	if err != nil {
		return
	}
	n.Op = ast.OpConst
	n.Val = v
	n.Left = nil
}

func (a *Analyzer) tryFoldBinary(n *ast.Node) {
	if n.Any {
		return
	}
	if n.Left == nil || n.Right == nil {
		return
	}
	if n.Left.Op != ast.OpConst || n.Right.Op != ast.OpConst {
		return
	}
	// A folded trie constant stays in the tree as the right operand of
	// its operator; the membership test runs in the evaluator.
	if n.Right.Type.Tag == value.TypeTagCustom {
		return
	}
	entry, ok := a.ops.FindBinary(n.Op, n.Left.Type, n.Right.Type)
	if !ok {
		return
	}
	v, err := entry.Binary(n.Left.Val, n.Right.Val)
	if err != nil {
		return
	}
	n.Op = ast.OpConst
	n.Val = v
	n.Left = nil
	n.Right = nil
}
