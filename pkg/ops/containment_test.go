package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CESNET/flowfilter/pkg/ast"
	"github.com/CESNET/flowfilter/pkg/value"
)

func mustIP(t *testing.T, s string) value.Value {
	t.Helper()
	v, err := value.ParseIP(s)
	require.NoError(t, err)
	return v
}

func TestIPInPrefix(t *testing.T) {
	table := NewTable()
	entry, ok := table.FindBinary(ast.OpIn, value.ScalarType(value.TypeTagIP), value.ScalarType(value.TypeTagIP))
	require.True(t, ok)

	inside, err := entry.Binary(mustIP(t, "192.168.0.7"), mustIP(t, "192.168.0.0/24"))
	require.NoError(t, err)
	assert.True(t, inside.Bool)

	outside, err := entry.Binary(mustIP(t, "192.168.1.7"), mustIP(t, "192.168.0.0/24"))
	require.NoError(t, err)
	assert.False(t, outside.Bool)
}

func TestIPInPrefixMixedVersionIsFalse(t *testing.T) {
	table := NewTable()
	entry, ok := table.FindBinary(ast.OpIn, value.ScalarType(value.TypeTagIP), value.ScalarType(value.TypeTagIP))
	require.True(t, ok)
	got, err := entry.Binary(mustIP(t, "::1"), mustIP(t, "192.168.0.0/24"))
	require.NoError(t, err)
	assert.False(t, got.Bool)
}

func TestGenericListContainment(t *testing.T) {
	table := NewTable()
	entry, ok := table.FindBinary(ast.OpIn, value.ScalarType(value.TypeTagUInt), value.ListType(value.TypeTagUInt))
	require.True(t, ok)
	lst := value.ListOf(value.TypeTagUInt, []value.Value{value.UInt(1), value.UInt(2), value.UInt(3)})

	got, err := entry.Binary(value.UInt(2), lst)
	require.NoError(t, err)
	assert.True(t, got.Bool)

	got, err = entry.Binary(value.UInt(9), lst)
	require.NoError(t, err)
	assert.False(t, got.Bool)
}

func TestEmptyListContainmentIsAlwaysFalse(t *testing.T) {
	table := NewTable()
	entry, ok := table.FindBinary(ast.OpIn, value.ScalarType(value.TypeTagUInt), value.ListType(value.TypeTagUInt))
	require.True(t, ok)
	got, err := entry.Binary(value.UInt(1), value.ListOf(value.TypeTagUInt, nil))
	require.NoError(t, err)
	assert.False(t, got.Bool)
}

func TestTrieConstructorFoldsIPListAndContains(t *testing.T) {
	entry := trieConstructorEntry()
	lst := value.ListOf(value.TypeTagIP, []value.Value{
		mustIP(t, "10.0.0.0/24"), mustIP(t, "192.168.1.0/24"),
	})
	folded, err := entry.Constructor(lst)
	require.NoError(t, err)
	require.Equal(t, value.TypeTagCustom, folded.Tag)

	table := NewTable()
	inEntry, ok := table.FindBinary(ast.OpIn, value.ScalarType(value.TypeTagIP), value.DataType{Tag: value.TypeTagCustom})
	require.True(t, ok)

	got, err := inEntry.Binary(mustIP(t, "10.0.0.5"), folded)
	require.NoError(t, err)
	assert.True(t, got.Bool)

	got, err = inEntry.Binary(mustIP(t, "8.8.8.8"), folded)
	require.NoError(t, err)
	assert.False(t, got.Bool)
}
