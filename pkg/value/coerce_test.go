package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanCoerce(t *testing.T) {
	steps, ok := CanCoerce(TypeTagUInt, TypeTagUInt)
	assert.True(t, ok)
	assert.Equal(t, 0, steps, "identity coercion is free")

	steps, ok = CanCoerce(TypeTagUInt, TypeTagFloat)
	assert.True(t, ok)
	assert.Equal(t, CoercionCost, steps)

	_, ok = CanCoerce(TypeTagFloat, TypeTagUInt)
	assert.False(t, ok, "coercion table is directional, Float does not narrow to UInt")
}

func TestCoerceFlagsRoundTrip(t *testing.T) {
	v, err := Coerce(Int(5), TypeTagFlags)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), v.Flags)

	back, err := Coerce(v, TypeTagUInt)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), back.UInt)
}

func TestCoerceStrToIPAndMAC(t *testing.T) {
	v, err := Coerce(Str("127.0.0.1"), TypeTagIP)
	require.NoError(t, err)
	assert.Equal(t, uint8(4), v.IPVal.Version)

	_, err = Coerce(Str("not an ip"), TypeTagIP)
	assert.Error(t, err)
}

func TestCommonNumeric(t *testing.T) {
	t_, ok := CommonNumeric(TypeTagUInt, TypeTagInt)
	assert.True(t, ok)
	assert.Equal(t, TypeTagInt, t_)

	t2, ok := CommonNumeric(TypeTagInt, TypeTagFloat)
	assert.True(t, ok)
	assert.Equal(t, TypeTagFloat, t2)

	_, ok = CommonNumeric(TypeTagStr, TypeTagUInt)
	assert.False(t, ok)
}
