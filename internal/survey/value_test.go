package survey

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_ZeroIsEmpty(t *testing.T) {
	var v Value
	assert.Equal(t, KindEmpty, v.Kind())
	assert.True(t, v.IsEmpty())
}

func TestValue_EmptyStringAndListCountAsEmpty(t *testing.T) {
	assert.True(t, String("").IsEmpty(), "empty string is no answer")
	assert.True(t, List().IsEmpty(), "empty list is no answer")
	assert.False(t, String("x").IsEmpty())
	assert.False(t, Number(0).IsEmpty(), "zero is a real numeric answer")
	assert.False(t, List("a").IsEmpty())
}

func TestValue_StringNormalization(t *testing.T) {
	// U+0065 U+0301 (e + combining acute) composes to U+00E9.
	decomposed := String("café")
	composed := String("café")

	assert.Equal(t, composed.Text(), decomposed.Text())
	assert.True(t, decomposed.Equal(composed))
}

func TestValue_ListNormalization(t *testing.T) {
	v := List("café", "plain")
	assert.Equal(t, []string{"café", "plain"}, v.Items())
}

func TestValue_Equal(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"equal strings", String("a"), String("a"), true},
		{"different strings", String("a"), String("b"), false},
		{"equal numbers", Number(7), Number(7), true},
		{"different numbers", Number(7), Number(8), false},
		{"equal lists", List("a", "b"), List("a", "b"), true},
		{"different list order", List("a", "b"), List("b", "a"), false},
		{"different list length", List("a"), List("a", "b"), false},
		{"kind mismatch", String("7"), Number(7), false},
		{"both empty", Value{}, Value{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
		})
	}
}

func TestValue_MarshalRawForms(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"string", String("hello"), `"hello"`},
		{"number", Number(8), `8`},
		{"list", List("a", "b"), `["a","b"]`},
		{"empty", Value{}, `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func TestValue_UnmarshalRoundTrip(t *testing.T) {
	var v Value
	require.NoError(t, json.Unmarshal([]byte(`["a","b"]`), &v))
	assert.True(t, v.Equal(List("a", "b")))

	require.NoError(t, json.Unmarshal([]byte(`9.5`), &v))
	assert.True(t, v.Equal(Number(9.5)))

	require.NoError(t, json.Unmarshal([]byte(`null`), &v))
	assert.True(t, v.IsEmpty())
}

func TestFromAny(t *testing.T) {
	v, err := FromAny("text")
	require.NoError(t, err)
	assert.Equal(t, KindString, v.Kind())

	v, err = FromAny(3) // YAML decodes integers as int
	require.NoError(t, err)
	assert.Equal(t, float64(3), v.Num())

	v, err = FromAny([]any{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, v.Items())

	v, err = FromAny(nil)
	require.NoError(t, err)
	assert.True(t, v.IsEmpty())

	_, err = FromAny([]any{"a", 1})
	assert.Error(t, err, "mixed lists are rejected")

	_, err = FromAny(map[string]any{})
	assert.Error(t, err)
}
