package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqual(t *testing.T) {
	cases := []struct {
		name string
		a, b Value
		want bool
	}{
		{"uint equal", UInt(7), UInt(7), true},
		{"uint not equal", UInt(7), UInt(8), false},
		{"different tags", UInt(7), Int(7), false},
		{"str equal", Str("a"), Str("a"), true},
		{"none always equal", None(), None(), true},
		{"list order sensitive", ListOf(TypeTagUInt, []Value{UInt(1), UInt(2)}), ListOf(TypeTagUInt, []Value{UInt(2), UInt(1)}), false},
		{"list equal", ListOf(TypeTagUInt, []Value{UInt(1), UInt(2)}), ListOf(TypeTagUInt, []Value{UInt(1), UInt(2)}), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Equal(c.a, c.b))
		})
	}
}

func TestEqualIPMixedVersionIsFalseNotError(t *testing.T) {
	v4, err := ParseIP("1.2.3.4")
	require.NoError(t, err)
	v6, err := ParseIP("::1")
	require.NoError(t, err)
	assert.False(t, Equal(v4, v6))
}

func TestLess(t *testing.T) {
	less, ok := Less(UInt(1), UInt(2))
	assert.True(t, ok)
	assert.True(t, less)

	_, ok = Less(UInt(1), Int(2))
	assert.False(t, ok, "mismatched tags are not ordered")

	a, err := ParseIP("10.0.0.1")
	require.NoError(t, err)
	b, err := ParseIP("10.0.0.2")
	require.NoError(t, err)
	less, ok = Less(a, b)
	assert.True(t, ok)
	assert.True(t, less)
}

func TestZeroBeyondPrefixInvariant(t *testing.T) {
	v, err := ParseIP("192.168.1.200/24")
	require.NoError(t, err)
	assert.Equal(t, uint8(24), v.IPVal.PrefixLen)
	assert.Equal(t, byte(0), v.IPVal.Bytes[3], "host bits beyond /24 must be zeroed")
}

func TestParseIPBarePrefixDefaultsToMax(t *testing.T) {
	v4, err := ParseIP("1.1.1.1")
	require.NoError(t, err)
	assert.Equal(t, uint8(32), v4.IPVal.PrefixLen)

	v6, err := ParseIP("::1")
	require.NoError(t, err)
	assert.Equal(t, uint8(128), v6.IPVal.PrefixLen)
}

func TestParseIPRejectsMalformed(t *testing.T) {
	_, err := ParseIP("f::a::f")
	assert.Error(t, err)

	_, err = ParseIP("10.0.0.1/99")
	assert.Error(t, err)
}

func TestParseMAC(t *testing.T) {
	v, err := ParseMAC("aa:bb:cc:dd:ee:ff")
	require.NoError(t, err)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", v.String())

	_, err = ParseMAC("not-a-mac")
	assert.Error(t, err)
}

func TestDataType(t *testing.T) {
	assert.Equal(t, DataType{Tag: TypeTagUInt}, UInt(1).DataType())
	l := ListOf(TypeTagIP, nil)
	assert.Equal(t, DataType{Tag: TypeTagList, ElemTag: TypeTagIP}, l.DataType())
}
