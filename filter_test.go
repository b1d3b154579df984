package flowfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CESNET/flowfilter/pkg/eval"
	"github.com/CESNET/flowfilter/pkg/value"
)

// fieldDef describes one resolver entry for the tests below: a name,
// its type, and either a fixed list of values to stream per record
// (multi-valued) or a single constant value.
type fieldDef struct {
	typ        value.DataType
	values     []value.Value
	constant   bool
	constValue value.Value
}

// testResolver implements Resolver over a fixed name->fieldDef map,
// assigning sequential ids in first-Resolve order.
type testResolver struct {
	fields map[string]fieldDef
	ids    map[string]int
	next   int
}

func newTestResolver(fields map[string]fieldDef) *testResolver {
	return &testResolver{fields: fields, ids: map[string]int{}}
}

func (r *testResolver) Resolve(name string) (Symbol, bool) {
	f, ok := r.fields[name]
	if !ok {
		return Symbol{}, false
	}
	id, ok := r.ids[name]
	if !ok {
		id = r.next
		r.ids[name] = id
		r.next++
	}
	if f.constant {
		return Symbol{ID: id, Type: f.constValue.DataType(), IsConstant: true, Value: f.constValue}, true
	}
	return Symbol{ID: id, Type: f.typ, Multivalued: len(f.values) > 1}, true
}

// testProvider streams testResolver's per-field value lists, tracking
// a cursor per (record, id) reset by reset=true.
type testProvider struct {
	resolver *testResolver
	cursor   map[int]int
}

func newTestProvider(r *testResolver) *testProvider {
	return &testProvider{resolver: r, cursor: map[int]int{}}
}

func (p *testProvider) nameForID(id int) string {
	for name, fid := range p.resolver.ids {
		if fid == id {
			return name
		}
	}
	return ""
}

func (p *testProvider) Value(id int, _ interface{}, reset bool, _ interface{}) (value.Value, eval.Result) {
	name := p.nameForID(id)
	f := p.resolver.fields[name]
	if reset {
		p.cursor[id] = 0
	}
	idx := p.cursor[id]
	if idx >= len(f.values) {
		return value.None(), eval.ResultFail
	}
	p.cursor[id] = idx + 1
	if idx == len(f.values)-1 {
		return f.values[idx], eval.ResultOk
	}
	return f.values[idx], eval.ResultOkMore
}

func mustIP(t *testing.T, s string) value.Value {
	t.Helper()
	v, err := value.ParseIP(s)
	require.NoError(t, err)
	return v
}

func TestLiteralIPListFoldsToTrie(t *testing.T) {
	f := New()
	ok := f.Compile("127.0.0.1 in [127.0.0.1, 127.0.0.2, 192.168.1.21, 1.1.1.1, 8.8.8.8, 4.4.4.4]")
	require.True(t, ok, "compile errors: %v", f.Diagnostics())
	assert.True(t, f.Evaluate(nil))

	// The literal list on the right of "in" must have folded to a
	// Custom<Trie> constant (spec.md §8 scenario 1's test hook).
	right := f.Root().Right
	require.NotNil(t, right)
	assert.Equal(t, value.TypeTagCustom, right.Type.Tag)
}

func TestMultivaluedIdentifiersExistentialSemantics(t *testing.T) {
	resolver := newTestResolver(map[string]fieldDef{
		"ip": {typ: value.ScalarType(value.TypeTagIP), values: []value.Value{
			mustIP(t, "85.123.45.6"), mustIP(t, "127.0.0.1"), mustIP(t, "192.168.0.1"),
		}},
		"port": {typ: value.ScalarType(value.TypeTagUInt), values: []value.Value{
			value.UInt(80), value.UInt(443), value.UInt(22),
		}},
	})
	provider := newTestProvider(resolver)

	run := func(expr string) bool {
		f := New()
		f.SetResolver(resolver)
		f.SetProvider(provider)
		require.True(t, f.Compile(expr), "compile errors for %q: %v", expr, f.Diagnostics())
		return f.Evaluate(nil)
	}

	assert.True(t, run("ip 127.0.0.1 and port 80"))
	assert.False(t, run("ip 127.0.0.1 and not port 80"))
	assert.False(t, run("not ip 192.168.0.1 or not port 443"))
}

func TestArithmeticAndConstantFolding(t *testing.T) {
	f := New()
	require.True(t, f.Compile("10 + 20 == 30"))
	assert.True(t, f.Evaluate(nil))

	f2 := New()
	require.True(t, f2.Compile("(10 * 20) + 30 > 100"))
	assert.True(t, f2.Evaluate(nil))

	resolver := newTestResolver(map[string]fieldDef{
		"a": {constant: true, constValue: value.UInt(10)},
		"b": {constant: true, constValue: value.UInt(20)},
		"c": {constant: true, constValue: value.UInt(30)},
	})
	f3 := New()
	f3.SetResolver(resolver)
	require.True(t, f3.Compile("a + b == c"))
	assert.True(t, f3.Evaluate(nil))
}

func TestIPv6LiteralsAndMalformedCompression(t *testing.T) {
	for _, expr := range []string{"::1 == ::1", "1:: == 1::", "aabb:ccdd:: == aabb:ccdd::"} {
		f := New()
		assert.True(t, f.Compile(expr), "expected %q to compile, diags=%v", expr, f.Diagnostics())
	}

	f := New()
	assert.False(t, f.Compile("f::a::f == f::a::f"))
	require.Greater(t, f.ErrorCount(), 0)
}

func TestMultivaluedIPv6Containment(t *testing.T) {
	resolver := newTestResolver(map[string]fieldDef{
		"ip": {typ: value.ScalarType(value.TypeTagIP), values: []value.Value{
			mustIP(t, "aabb:ccdd::"), mustIP(t, "2001:db8::1"), mustIP(t, "::1"),
		}},
	})
	f := New()
	f.SetResolver(resolver)
	f.SetProvider(newTestProvider(resolver))
	require.True(t, f.Compile("ip aabb:ccdd::"))
	assert.True(t, f.Evaluate(nil))
}

func TestMultiWordIdentifierResolution(t *testing.T) {
	resolver := newTestResolver(map[string]fieldDef{
		"src ip": {typ: value.ScalarType(value.TypeTagIP), values: []value.Value{mustIP(t, "127.0.0.1")}},
	})
	f := New()
	f.SetResolver(resolver)
	f.SetProvider(newTestProvider(resolver))
	require.True(t, f.Compile("src ip 127.0.0.1"), "diags=%v", f.Diagnostics())
}

func TestEmptyListIsAlwaysFalse(t *testing.T) {
	f := New()
	require.True(t, f.Compile("1 in []"))
	assert.False(t, f.Evaluate(nil))
}

func TestIPv4PrefixContainment(t *testing.T) {
	f := New()
	require.True(t, f.Compile("192.168.0.7 in 192.168.0.0/24"))
	assert.True(t, f.Evaluate(nil))

	f2 := New()
	require.True(t, f2.Compile("192.168.1.7 in 192.168.0.0/24"))
	assert.False(t, f2.Evaluate(nil))
}

func TestMixedVersionIPEqualityIsFalseNotError(t *testing.T) {
	f := New()
	require.True(t, f.Compile("::1 == 1.2.3.4"))
	assert.False(t, f.Evaluate(nil))
}

func TestUnknownIdentifierDiagnostic(t *testing.T) {
	f := New()
	ok := f.Compile("nonexistent == 1")
	require.False(t, ok)
	require.Greater(t, f.ErrorCount(), 0)
	begin, end, found := f.ErrorLocation(0)
	assert.True(t, found)
	assert.Equal(t, 0, begin)
	assert.Greater(t, end, begin)
}

func TestDivisionByZeroIsRuntimeErrorNotCompile(t *testing.T) {
	f := New()
	require.True(t, f.Compile("10 / 0 == 10"))
}

func TestDestroyRunsTrieDestructor(t *testing.T) {
	f := New()
	require.True(t, f.Compile("127.0.0.1 in [127.0.0.1, 127.0.0.2, 192.168.1.21, 1.1.1.1, 8.8.8.8, 4.4.4.4]"))
	f.Destroy()
	assert.False(t, f.compiled)
}
