package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CESNET/flowfilter/pkg/ast"
	"github.com/CESNET/flowfilter/pkg/diag"
	"github.com/CESNET/flowfilter/pkg/ops"
	"github.com/CESNET/flowfilter/pkg/value"
)

// sequenceProvider streams a fixed list of values per identifier id,
// resetting its cursor to 0 whenever reset=true is passed.
type sequenceProvider struct {
	sequences map[int][]value.Value
	cursor    map[int]int
}

func newSequenceProvider(sequences map[int][]value.Value) *sequenceProvider {
	return &sequenceProvider{sequences: sequences, cursor: map[int]int{}}
}

func (p *sequenceProvider) Value(id int, _ interface{}, reset bool, _ interface{}) (value.Value, Result) {
	if reset {
		p.cursor[id] = 0
	}
	seq := p.sequences[id]
	idx := p.cursor[id]
	if idx >= len(seq) {
		return value.None(), ResultFail
	}
	p.cursor[id] = idx + 1
	if idx == len(seq)-1 {
		return seq[idx], ResultOk
	}
	return seq[idx], ResultOkMore
}

func constNode(v value.Value) *ast.Node {
	n := ast.NewLeaf(ast.OpConst, ast.Span{})
	n.Val = v
	n.Type = v.DataType()
	return n
}

func identNode(id int, typ value.DataType) *ast.Node {
	n := ast.NewLeaf(ast.OpIdentifier, ast.Span{})
	n.ID = id
	n.Type = typ
	return n
}

func newEvaluator(provider Provider) *Evaluator {
	return New(ops.NewTable(), diag.NewChannel(), provider, nil)
}

func TestEvaluateConstantExpression(t *testing.T) {
	root := ast.NewBinary(ast.OpEq, constNode(value.UInt(10)), constNode(value.UInt(10)), ast.Span{})
	root.Type = value.ScalarType(value.TypeTagBool)
	e := newEvaluator(nil)
	assert.True(t, e.Evaluate(root, nil))
}

func TestEvaluateShortCircuitsAnd(t *testing.T) {
	root := ast.NewBinary(ast.OpAnd, constNode(value.Bool(false)), constNode(value.Bool(true)), ast.Span{})
	root.Type = value.ScalarType(value.TypeTagBool)
	e := newEvaluator(nil)
	assert.False(t, e.Evaluate(root, nil))
}

func TestEvaluateShortCircuitsOr(t *testing.T) {
	root := ast.NewBinary(ast.OpOr, constNode(value.Bool(true)), constNode(value.Bool(false)), ast.Span{})
	root.Type = value.ScalarType(value.TypeTagBool)
	e := newEvaluator(nil)
	assert.True(t, e.Evaluate(root, nil))
}

func TestEvaluateExistentialSatisfiesOnSomeCombination(t *testing.T) {
	provider := newSequenceProvider(map[int][]value.Value{
		0: {value.UInt(1), value.UInt(2), value.UInt(3)},
	})
	eq := ast.NewBinary(ast.OpEq, identNode(0, value.ScalarType(value.TypeTagUInt)), constNode(value.UInt(2)), ast.Span{})
	eq.Type = value.ScalarType(value.TypeTagBool)
	eq.Any = true

	e := newEvaluator(provider)
	assert.True(t, e.Evaluate(eq, nil))
}

func TestEvaluateExistentialFailsWhenNoneMatch(t *testing.T) {
	provider := newSequenceProvider(map[int][]value.Value{
		0: {value.UInt(1), value.UInt(2), value.UInt(3)},
	})
	eq := ast.NewBinary(ast.OpEq, identNode(0, value.ScalarType(value.TypeTagUInt)), constNode(value.UInt(99)), ast.Span{})
	eq.Type = value.ScalarType(value.TypeTagBool)
	eq.Any = true

	e := newEvaluator(provider)
	assert.False(t, e.Evaluate(eq, nil))
}

func TestEvaluateExistentialCollapsesToFalseOnFirstCallFail(t *testing.T) {
	provider := newSequenceProvider(map[int][]value.Value{})
	eq := ast.NewBinary(ast.OpEq, identNode(0, value.ScalarType(value.TypeTagUInt)), constNode(value.UInt(1)), ast.Span{})
	eq.Type = value.ScalarType(value.TypeTagBool)
	eq.Any = true

	e := newEvaluator(provider)
	assert.False(t, e.Evaluate(eq, nil))
}

func TestEvaluateExistentialCartesianProductOverTwoIdentifiers(t *testing.T) {
	provider := newSequenceProvider(map[int][]value.Value{
		0: {value.UInt(1), value.UInt(2)},
		1: {value.UInt(10), value.UInt(20)},
	})
	// (ip == 2) and (port == 20): only satisfied on the last combination
	// of the cartesian product, confirmed reachable via odometer advance.
	left := ast.NewBinary(ast.OpEq, identNode(0, value.ScalarType(value.TypeTagUInt)), constNode(value.UInt(2)), ast.Span{})
	left.Type = value.ScalarType(value.TypeTagBool)
	right := ast.NewBinary(ast.OpEq, identNode(1, value.ScalarType(value.TypeTagUInt)), constNode(value.UInt(20)), ast.Span{})
	right.Type = value.ScalarType(value.TypeTagBool)
	root := ast.NewBinary(ast.OpAnd, left, right, ast.Span{})
	root.Type = value.ScalarType(value.TypeTagBool)
	root.Any = true

	e := newEvaluator(provider)
	assert.True(t, e.Evaluate(root, nil))
}

func TestEvaluateDivisionByZeroReportsDivisionByZeroDiagnostic(t *testing.T) {
	root := ast.NewBinary(ast.OpDiv, constNode(value.UInt(10)), constNode(value.UInt(0)), ast.Span{})
	root.Type = value.ScalarType(value.TypeTagUInt)
	diags := diag.NewChannel()
	e := New(ops.NewTable(), diags, nil, nil)
	assert.False(t, e.Evaluate(root, nil))
	require.Equal(t, 1, diags.Count())
	d, ok := diags.At(0)
	require.True(t, ok)
	assert.Equal(t, diag.CodeDivisionByZero, d.Code)
}

func TestEvaluateUnknownIdentifierValueIsNoneNotError(t *testing.T) {
	provider := newSequenceProvider(map[int][]value.Value{})
	root := ast.NewBinary(ast.OpEq, identNode(0, value.ScalarType(value.TypeTagUInt)), constNode(value.UInt(1)), ast.Span{})
	root.Type = value.ScalarType(value.TypeTagBool)
	// Any is false here: a single-valued identifier with no data resolves
	// to None through the ordinary evalOp path rather than evalAny.
	e := newEvaluator(provider)
	assert.False(t, e.Evaluate(root, nil))
}
