package jsvalue

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"undefined", Undefined, "undefined"},
		{"null", nil, "null"},
		{"integral float", float64(7), "7"},
		{"fraction", 1.5, "1.5"},
		{"bool", true, "true"},
		{"array", []any{float64(1), "a", nil}, "1,a,"},
		{"object", map[string]any{"a": 1}, "[object Object]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, String(tt.in))
		})
	}
}

func TestNumber(t *testing.T) {
	assert.Equal(t, 0.0, Number(nil))
	assert.Equal(t, 0.0, Number(""))
	assert.Equal(t, 42.0, Number(" 42 "))
	assert.Equal(t, 26.0, Number("0x1A"))
	assert.Equal(t, 1.0, Number(true))
	assert.True(t, math.IsNaN(Number(Undefined)))
	assert.True(t, math.IsNaN(Number("abc")))
	assert.True(t, math.IsNaN(Number(map[string]any{})))
	assert.Equal(t, 5.0, Number([]any{"5"}))
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, "undefined", TypeOf(Undefined))
	assert.Equal(t, "object", TypeOf(nil))
	assert.Equal(t, "number", TypeOf(3.0))
	assert.Equal(t, "string", TypeOf("x"))
	assert.Equal(t, "boolean", TypeOf(false))
	assert.Equal(t, "object", TypeOf([]any{}))
}

func TestStrictEqual(t *testing.T) {
	assert.True(t, StrictEqual(7, 7.0))
	assert.False(t, StrictEqual("7", 7.0))
	assert.True(t, StrictEqual(nil, nil))
	assert.False(t, StrictEqual(nil, Undefined))
	assert.False(t, StrictEqual([]any{}, []any{}))
	assert.False(t, StrictEqual(math.NaN(), math.NaN()))
}

func TestJSONStringify(t *testing.T) {
	assert.Equal(t, `{"a":"<b>"}`, JSONStringify(map[string]any{"a": "<b>"}))
	assert.Equal(t, `"text"`, JSONStringify("text"))
	assert.Equal(t, "", JSONStringify(Undefined))
}

func TestStringifySource(t *testing.T) {
	source := []byte(" {\n  \"name\": \"x\",\n  \"id\": 1\n}\n")
	decoded := map[string]any{"name": "x", "id": float64(1)}

	assert.Equal(t, `{"name":"x","id":1}`, StringifySource(source, decoded))
	assert.Equal(t, `{"id":1,"name":"x"}`, StringifySource(nil, decoded))
	assert.Equal(t, `{"id":1,"name":"x"}`, StringifySource([]byte("not json"), decoded))
	assert.Equal(t, `"plain text"`, StringifySource([]byte("plain text"), "plain text"))
}

func TestLength_CountsUTF16CodeUnits(t *testing.T) {
	n, ok := Length("a😀")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	n, ok = Length("héllo")
	assert.True(t, ok)
	assert.Equal(t, 5, n)

	_, ok = Length(float64(1))
	assert.False(t, ok)
}
