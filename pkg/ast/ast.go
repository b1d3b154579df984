// Package ast defines the shared abstract syntax tree node shared by the
// parser, semantic analyser and evaluator, grounded on libfds'
// fds_filter_ast_node (include/libfds/filter.h).
package ast

//go:generate go run github.com/dmarkham/enumer -type=Op -trimprefix=Op

import "github.com/CESNET/flowfilter/pkg/value"

// Op is the closed set of AST opcodes. It mirrors fds_filter_ast_op,
// renamed from the source's FDS_FILTER_AST_ prefix, and adds
// Constructor/Destructor opcodes. Analysis marks implicit conversions
// with OpCast and folds List<Ip> into an OpConst; it creates no
// Constructor/Destructor nodes.
type Op uint8

const (
	OpNone Op = iota
	OpAdd
	OpMul
	OpSub
	OpDiv
	OpMod
	OpUMinus
	OpBitNot
	OpBitAnd
	OpBitOr
	OpBitXor
	OpNot
	OpAnd
	OpOr
	OpEq
	OpNe
	OpGt
	OpLt
	OpGe
	OpLe
	OpConst
	OpIdentifier
	OpList
	OpListItem
	OpIn
	OpContains
	OpCast
	OpAny
	OpConstructor
	OpDestructor
	OpRoot
	opCount
)

// Span is a half-open byte range into the original expression text, the
// unit every diagnostic and AST node anchors to (spec.md §4H/§6).
type Span struct {
	Begin int
	End   int
}

// Node is one AST node. Only the fields relevant to Op are meaningful;
// e.g. Val is set only for OpConst, Name/ID/IsConstant only for
// OpIdentifier (until name resolution rewrites it to OpConst).
type Node struct {
	Op Op

	Left  *Node
	Right *Node
	// Items holds OpList/OpListItem children in source order; binary
	// operators use Left/Right exclusively.
	Items []*Node

	Name       string
	ID         int
	IsConstant bool

	Type value.DataType
	Val  value.Value

	// Any marks the least enclosing predicate-producing ancestor of a
	// multi-valued identifier (spec.md §4F.6); the evaluator iterates
	// the cartesian product of enclosed identifiers at this node.
	Any bool

	Span Span
}

// NewLeaf builds a childless node (Const, Identifier).
func NewLeaf(op Op, span Span) *Node {
	return &Node{Op: op, Span: span}
}

// NewUnary builds a node with a single child stored in Left, matching
// libfds' convention of using Left for the sole operand of unary ops.
func NewUnary(op Op, operand *Node, span Span) *Node {
	return &Node{Op: op, Left: operand, Span: span}
}

// NewBinary builds a two-child node.
func NewBinary(op Op, left, right *Node, span Span) *Node {
	return &Node{Op: op, Left: left, Right: right, Span: span}
}

// NewList builds an OpList node over items, with element-type left
// None until semantic analysis assigns it (spec.md §4F.3).
func NewList(items []*Node, span Span) *Node {
	return &Node{Op: OpList, Items: items, Span: span}
}

// Walk visits n and every descendant in pre-order, depth-first,
// following Left, Right, then Items in source order.
func Walk(n *Node, visit func(*Node)) {
	if n == nil {
		return
	}
	visit(n)
	Walk(n.Left, visit)
	Walk(n.Right, visit)
	for _, item := range n.Items {
		Walk(item, visit)
	}
}
