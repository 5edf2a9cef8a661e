package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndRead(t *testing.T) {
	s := New(Schema{Type: String})

	require.NoError(t, s.Create("color", "red", "blue"))
	assert.Equal(t, []Value{"red", "blue"}, s.Read("color"))

	// Create appends to existing content.
	require.NoError(t, s.Create("color", "green"))
	assert.Equal(t, []Value{"red", "blue", "green"}, s.Read("color"))
	assert.Equal(t, 3, s.Length("color"))
	assert.True(t, s.Exists("color"))
}

func TestCreateWithoutValuesCreatesEntry(t *testing.T) {
	s := New(Schema{})
	require.NoError(t, s.Create("empty"))
	assert.True(t, s.Exists("empty"))
	assert.Equal(t, 0, s.Length("empty"))
	assert.Equal(t, []Value{}, s.Read("empty"))
}

func TestReadMissingKey(t *testing.T) {
	s := New(Schema{})
	got := s.Read("nope")
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got = s.Read("")
	assert.NotNil(t, got)
	assert.Empty(t, got)

	assert.False(t, s.Exists("nope"))
	assert.Equal(t, 0, s.Length("nope"))
}

func TestReadIsDefensiveCopy(t *testing.T) {
	s := New(Schema{})
	require.NoError(t, s.Create("k", "a", map[string]any{"n": "x"}))

	got := s.Read("k")
	got[0] = "changed"
	got[1].(map[string]any)["n"] = "changed"

	again := s.Read("k")
	assert.Equal(t, "a", again[0])
	assert.Equal(t, "x", again[1].(map[string]any)["n"])
}

func TestInvalidKey(t *testing.T) {
	s := New(Schema{})
	assert.ErrorIs(t, s.Create("", "a"), ErrInvalidKey)
	assert.ErrorIs(t, s.Update("", []Value{"a"}), ErrInvalidKey)
	assert.Empty(t, s.Keys())
}

func TestInvalidValueType(t *testing.T) {
	s := New(Schema{Type: String})

	require.NoError(t, s.Create("k", "ok"))
	err := s.Create("k", "fine", 42)
	assert.ErrorIs(t, err, ErrInvalidValueType)
	assert.Equal(t, []Value{"ok"}, s.Read("k"), "rejected create must not mutate")

	err = s.Update("k", []Value{true})
	assert.ErrorIs(t, err, ErrInvalidValueType)
	assert.Equal(t, []Value{"ok"}, s.Read("k"), "rejected update must not mutate")
}

func TestUpdateReplaces(t *testing.T) {
	s := New(Schema{})
	require.NoError(t, s.Update("k", []Value{"a"}))
	require.NoError(t, s.Update("k", []Value{"b", "c"}))
	assert.Equal(t, []Value{"b", "c"}, s.Read("k"))
}

func TestUniqueSchema(t *testing.T) {
	s := New(Schema{Unique: true})

	require.NoError(t, s.Create("k", "v1"))
	err := s.Create("k", "v2")
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.Equal(t, []Value{"v1"}, s.Read("k"))

	assert.ErrorIs(t, s.Create("other", "a", "b"), ErrDuplicateKey)
	assert.False(t, s.Exists("other"))

	assert.ErrorIs(t, s.Update("k", []Value{"x", "y"}), ErrDuplicateKey)
	require.NoError(t, s.Update("k", []Value{"x"}))
	assert.Equal(t, []Value{"x"}, s.Read("k"))
}

func TestValidateDoesNotMutate(t *testing.T) {
	s := New(Schema{Type: String, Unique: true})
	require.NoError(t, s.Validate("k", []Value{"a"}))
	assert.False(t, s.Exists("k"))
	assert.ErrorIs(t, s.Validate("k", []Value{"a", "b"}), ErrDuplicateKey)
	assert.ErrorIs(t, s.Validate("k", []Value{1}), ErrInvalidValueType)
	assert.ErrorIs(t, s.Validate("", nil), ErrInvalidKey)
}

func TestDelete(t *testing.T) {
	s := New(Schema{})
	require.NoError(t, s.Create("k", "a"))
	s.Delete("k")
	assert.False(t, s.Exists("k"))

	// Deleting again is a no-op.
	s.Delete("k")
	s.Delete("")
}

func TestKeysSorted(t *testing.T) {
	s := New(Schema{})
	for _, k := range []string{"b", "a", "c"} {
		require.NoError(t, s.Create(k, k))
	}
	assert.Equal(t, []string{"a", "b", "c"}, s.Keys())

	s.Clear()
	assert.Empty(t, s.Keys())
}

func TestExportImportRoundTrip(t *testing.T) {
	src := New(Schema{Type: String})
	require.NoError(t, src.Create("color", "red", "blue"))
	require.NoError(t, src.Create("animal", "cat"))
	require.NoError(t, src.Create("empty"))

	snap := src.Export()
	dst := New(Schema{Type: String})
	require.NoError(t, dst.Import(snap))
	assert.Equal(t, src.Export(), dst.Export())

	// The snapshot is a copy.
	snap["color"][0] = "changed"
	assert.Equal(t, "red", src.Read("color")[0])
}

func TestImportMerges(t *testing.T) {
	s := New(Schema{})
	require.NoError(t, s.Create("k", "a"))
	require.NoError(t, s.Import(map[string][]Value{"k": {"b"}, "n": {"c"}}))
	assert.Equal(t, []Value{"a", "b"}, s.Read("k"))
	assert.Equal(t, []Value{"c"}, s.Read("n"))
}

func TestImportIsAllOrNothing(t *testing.T) {
	s := New(Schema{Type: String})
	err := s.Import(map[string][]Value{"good": {"a"}, "bad": {1.5}})
	assert.ErrorIs(t, err, ErrInvalidValueType)
	assert.Empty(t, s.Keys())
}

func TestImportJSONSnapshot(t *testing.T) {
	var snap map[string][]Value
	require.NoError(t, json.Unmarshal([]byte(`{"color":["red","blue"],"n":[1,true,{"a":[2]}]}`), &snap))

	s := New(Schema{})
	require.NoError(t, s.Import(snap))
	assert.Equal(t, 2, s.Length("color"))
	assert.Equal(t, 3, s.Length("n"))
}

func TestApproximateSize(t *testing.T) {
	s := New(Schema{})
	require.NoError(t, s.Create("a", "abc", 1, true))
	require.NoError(t, s.Create("b", map[string]any{"x": "hello", "y": []any{2.5, false}}))

	// 3 + 8 + 4 + 5 + 8 + 4
	assert.Equal(t, 32, s.ApproximateSize())
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		value Value
		want  ValueType
	}{
		{"s", String},
		{3, Number},
		{3.5, Number},
		{json.Number("7"), Number},
		{true, Bool},
		{nil, Null},
		{map[string]any{}, Object},
		{[]any{}, Array},
		{struct{}{}, Unknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TypeOf(tt.value), "%#v", tt.value)
	}
}

func TestParseValueType(t *testing.T) {
	vt, err := ParseValueType("string")
	require.NoError(t, err)
	assert.Equal(t, String, vt)

	vt, err = ParseValueType("any")
	require.NoError(t, err)
	assert.Equal(t, Any, vt)

	_, err = ParseValueType("widget")
	assert.Error(t, err)
}

func TestText(t *testing.T) {
	assert.Equal(t, "plain", Text("plain"))
	assert.Equal(t, "42", Text(42))
	assert.Equal(t, "true", Text(true))
	assert.Equal(t, "", Text(nil))
	assert.Equal(t, `{"a":1}`, Text(map[string]any{"a": 1}))
	assert.Equal(t, []string{"a", "1"}, Strings([]Value{"a", 1}))
	assert.Equal(t, []Value{"x"}, Values([]string{"x"}))
}
