package bodypath

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestResolve(t *testing.T) {
	doc := decode(t, `{"items":[{"id":7}],"data":{"user":{"name":"ann","tags":["a","b"]},"empty":null},"list":[[1,2]]}`)

	tests := []struct {
		name   string
		path   string
		want   any
		wantOK bool
	}{
		{"indexed then key", "items[0].id", float64(7), true},
		{"index out of range", "items[5].id", nil, false},
		{"nested keys", "data.user.name", "ann", true},
		{"missing key", "data.user.age", nil, false},
		{"null mid-walk", "data.empty.x", nil, false},
		{"null leaf", "data.empty", nil, true},
		{"index into non-array", "data.user[0]", nil, false},
		{"bare index", "list.[0]", []any{float64(1), float64(2)}, true},
		{"array length", "data.user.tags.length", float64(2), true},
		{"numeric member", "data.user.tags.1", "b", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(doc, tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_EmptyPathReturnsDocument(t *testing.T) {
	doc := decode(t, `{"a":1}`)
	got, ok := Resolve(doc, "")
	require.True(t, ok)
	assert.Equal(t, doc, got)
}

func TestResolve_NilDocument(t *testing.T) {
	got, ok := Resolve(nil, "a.b")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestResolve_StringLengthCountsUTF16CodeUnits(t *testing.T) {
	doc := decode(t, `{"emoji":"a😀","plain":"abc"}`)
	got, ok := Resolve(doc, "emoji.length")
	require.True(t, ok)
	assert.Equal(t, float64(3), got)

	got, ok = Resolve(doc, "plain.length")
	require.True(t, ok)
	assert.Equal(t, float64(3), got)
}
