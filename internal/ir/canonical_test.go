package ir

import (
	"testing"

	"github.com/roach88/spine/internal/rational"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"int", 42, "42"},
		{"negative int64", int64(-100), "-100"},
		{"bool", true, "true"},
		{"time value", rational.MustNew(1001, 30000), `"1001/30000s"`},
		{"string slice", []string{"a", "b"}, `["a","b"]`},
		{"empty array", []any{}, "[]"},
		{"empty object", map[string]any{}, "{}"},
		{"no html escaping", "<a&b>", `"<a&b>"`},
		{"control chars", "a\nb\x01", `"a\nb\u0001"`},
		{"line separator kept", "a\u2028b", "\"a\u2028b\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(got))
		})
	}
}

func TestMarshalCanonicalSortsKeysByUTF16(t *testing.T) {
	obj := map[string]any{
		"\uE000":     1,
		"\U00010000": 2,
		"b":          map[string]any{"z": 1, "a": 2},
	}
	got, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"b\":{\"a\":2,\"z\":1},\"\U00010000\":2,\"\uE000\":1}", string(got))
}

func TestMarshalCanonicalNormalizesNFC(t *testing.T) {
	composed, err := MarshalCanonical("caf\u00e9")
	require.NoError(t, err)
	decomposed, err := MarshalCanonical("cafe\u0301")
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}

func TestMarshalCanonicalRejects(t *testing.T) {
	for _, v := range []any{nil, 1.5, map[string]any{"x": 2.0}, struct{}{}} {
		_, err := MarshalCanonical(v)
		assert.Error(t, err, "%T", v)
	}
}

func TestFingerprintDomainSeparation(t *testing.T) {
	data := []byte("<fcpxml/>")
	a := Fingerprint(DomainDocument, data)
	b := Fingerprint(DomainChangeSet, data)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Fingerprint(DomainDocument, data))
}

func TestOperationIDStable(t *testing.T) {
	args := map[string]any{"clip": "c1", "at": "5s"}
	id1, err := OperationID("split", args, "abc")
	require.NoError(t, err)
	id2, err := OperationID("split", map[string]any{"at": "5s", "clip": "c1"}, "abc")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	id3, err := OperationID("split", args, "abd")
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)
}
