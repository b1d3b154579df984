package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CESNET/flowfilter/pkg/ast"
)

func mustParse(t *testing.T, src string) *ast.Node {
	t.Helper()
	n, err := Parse(src, nil)
	require.NoError(t, err, "parsing %q", src)
	return n
}

func TestPrecedenceMulBeforeAdd(t *testing.T) {
	n := mustParse(t, "1 + 2 * 3")
	require.Equal(t, ast.OpAdd, n.Op)
	assert.Equal(t, ast.OpMul, n.Right.Op)
}

func TestParenOverridesPrecedence(t *testing.T) {
	n := mustParse(t, "(1 + 2) * 3")
	require.Equal(t, ast.OpMul, n.Op)
	assert.Equal(t, ast.OpAdd, n.Left.Op)
}

func TestAndBindsTighterThanOr(t *testing.T) {
	n := mustParse(t, "1 or 2 and 3")
	require.Equal(t, ast.OpOr, n.Op)
	assert.Equal(t, ast.OpAnd, n.Right.Op)
}

func TestNotBindsTighterThanAnd(t *testing.T) {
	n := mustParse(t, "not 1 and 2")
	require.Equal(t, ast.OpAnd, n.Op)
	assert.Equal(t, ast.OpNot, n.Left.Op)
}

func TestInAndContains(t *testing.T) {
	n := mustParse(t, "1 in [1, 2, 3]")
	require.Equal(t, ast.OpIn, n.Op)
	assert.Equal(t, ast.OpList, n.Right.Op)
	assert.Len(t, n.Right.Items, 3)
}

func TestEmptyListLiteral(t *testing.T) {
	n := mustParse(t, "1 in []")
	require.Equal(t, ast.OpIn, n.Op)
	assert.Empty(t, n.Right.Items)
}

func TestImplicitEqualityJuxtaposition(t *testing.T) {
	n := mustParse(t, "ip 127.0.0.1")
	require.Equal(t, ast.OpEq, n.Op)
	require.Equal(t, ast.OpIdentifier, n.Left.Op)
	require.Equal(t, ast.OpConst, n.Right.Op)
}

func TestImplicitEqualityInsideAnd(t *testing.T) {
	n := mustParse(t, "ip 127.0.0.1 and port 80")
	require.Equal(t, ast.OpAnd, n.Op)
	assert.Equal(t, ast.OpEq, n.Left.Op)
	assert.Equal(t, ast.OpEq, n.Right.Op)
}

func TestExplicitOperatorDoesNotDoubleUpWithImplicitEquality(t *testing.T) {
	n := mustParse(t, "port == 80")
	require.Equal(t, ast.OpEq, n.Op)
	assert.Equal(t, ast.OpIdentifier, n.Left.Op)
	assert.Equal(t, ast.OpConst, n.Right.Op)
}

func TestBitwiseAndUnary(t *testing.T) {
	n := mustParse(t, "~1 & 2")
	require.Equal(t, ast.OpBitAnd, n.Op)
	assert.Equal(t, ast.OpBitNot, n.Left.Op)
}

func TestUnaryMinus(t *testing.T) {
	n := mustParse(t, "-1 + 2")
	require.Equal(t, ast.OpAdd, n.Op)
	assert.Equal(t, ast.OpUMinus, n.Left.Op)
}

func TestUnexpectedTrailingTokenIsParseError(t *testing.T) {
	_, err := Parse("1 + 2 3", nil)
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
}

func TestMissingClosingParenIsParseError(t *testing.T) {
	_, err := Parse("(1 + 2", nil)
	require.Error(t, err)
}

func TestLexErrorPropagatesFromParse(t *testing.T) {
	_, err := Parse(`"unterminated`, nil)
	require.Error(t, err)
}
