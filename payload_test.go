package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayload(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		decoded bool
		want    any
	}{
		{name: "object", raw: `{"a":1}`, decoded: true, want: map[string]any{"a": float64(1)}},
		{name: "array", raw: `[1,2]`, decoded: true, want: []any{float64(1), float64(2)}},
		{name: "object with leading whitespace", raw: "  {\"a\":1}", decoded: true, want: map[string]any{"a": float64(1)}},
		{name: "number stays raw", raw: "123"},
		{name: "bool stays raw", raw: "true"},
		{name: "quoted string stays raw", raw: `"x"`},
		{name: "malformed JSON stays raw", raw: `{"a":`},
		{name: "plain text stays raw", raw: "hello world"},
		{name: "empty stays raw", raw: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DecodePayload([]byte(tt.raw))
			v, ok := p.Decoded()
			assert.Equal(t, tt.decoded, ok)
			if tt.decoded {
				assert.Equal(t, tt.want, v)
			}
			assert.Equal(t, tt.raw, p.String(), "raw body is always preserved")
		})
	}
}

func TestEncodeMessage(t *testing.T) {
	t.Run("string verbatim", func(t *testing.T) {
		body, err := encodeMessage("hello")
		require.NoError(t, err)
		assert.Equal(t, "hello", string(body))
	})

	t.Run("bytes verbatim", func(t *testing.T) {
		body, err := encodeMessage([]byte("hello"))
		require.NoError(t, err)
		assert.Equal(t, "hello", string(body))
	})

	t.Run("struct marshalled", func(t *testing.T) {
		body, err := encodeMessage(struct {
			A int `json:"a"`
		}{A: 1})
		require.NoError(t, err)
		assert.JSONEq(t, `{"a":1}`, string(body))
	})

	t.Run("nil rejected", func(t *testing.T) {
		_, err := encodeMessage(nil)
		require.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("typed nil pointer rejected", func(t *testing.T) {
		type order struct{}
		_, err := encodeMessage((*order)(nil))
		require.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("nil map rejected", func(t *testing.T) {
		var m map[string]any
		_, err := encodeMessage(m)
		require.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestStructuredRoundTrip(t *testing.T) {
	body, err := encodeMessage(map[string]any{"a": 1})
	require.NoError(t, err)

	p := DecodePayload(body)
	v, ok := p.Decoded()
	require.True(t, ok)
	assert.Equal(t, map[string]any{"a": float64(1)}, v)
}

func TestScalarStringRoundTrip(t *testing.T) {
	// a plain string that happens to parse as JSON must come back verbatim
	body, err := encodeMessage("123")
	require.NoError(t, err)

	p := DecodePayload(body)
	_, ok := p.Decoded()
	assert.False(t, ok)
	assert.Equal(t, "123", p.String())
}
