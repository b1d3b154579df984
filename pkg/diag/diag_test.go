package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CESNET/flowfilter/pkg/ast"
)

func TestAddAndAt(t *testing.T) {
	c := NewChannel()
	assert.False(t, c.HasErrors())

	c.Add(CodeType, ast.Span{Begin: 3, End: 7}, "mismatched %s and %s", "Int", "Str")
	require.Equal(t, 1, c.Count())
	assert.True(t, c.HasErrors())

	d, ok := c.At(0)
	require.True(t, ok)
	assert.Equal(t, CodeType, d.Code)
	assert.Equal(t, "mismatched Int and Str", d.Message)
	assert.Equal(t, ast.Span{Begin: 3, End: 7}, d.Span)

	_, ok = c.At(1)
	assert.False(t, ok)
}

func TestResetKeepsInstanceID(t *testing.T) {
	c := NewChannel()
	id := c.InstanceID
	c.Add(CodeLex, ast.Span{}, "boom")
	require.Equal(t, 1, c.Count())

	c.Reset()
	assert.Equal(t, 0, c.Count())
	assert.Equal(t, id, c.InstanceID, "instance id must survive repeated Compile calls")
}

func TestAllPreservesAppendOrder(t *testing.T) {
	c := NewChannel()
	c.Add(CodeLex, ast.Span{}, "first")
	c.Add(CodeParse, ast.Span{}, "second")
	all := c.All()
	require.Len(t, all, 2)
	assert.Equal(t, "first", all[0].Message)
	assert.Equal(t, "second", all[1].Message)
}

func TestCodeStringCoversEveryValue(t *testing.T) {
	for code := CodeLex; code <= CodeInternal; code++ {
		assert.NotEqual(t, "Unknown", code.String())
	}
}
