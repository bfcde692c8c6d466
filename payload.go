package pubsub

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// Payload is the result of the best-effort decode attempt applied to every
// delivered message body. Decoded reports the structured value when the body
// parsed as a JSON object or array; in every other case the payload stays
// raw. Scalars that happen to be valid JSON ("123", "true", `"x"`) are
// deliberately kept raw so that plain-string publishes round-trip unchanged.
type Payload struct {
	raw     []byte
	value   any
	decoded bool
}

// Decoded returns the parsed value and true when the body was a JSON object
// or array.
func (p Payload) Decoded() (any, bool) {
	return p.value, p.decoded
}

// Raw returns the message body as delivered by the broker.
func (p Payload) Raw() []byte {
	return p.raw
}

func (p Payload) String() string {
	return string(p.raw)
}

// DecodePayload applies the decode policy to a raw message body.
func DecodePayload(raw []byte) Payload {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return Payload{raw: raw}
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return Payload{raw: raw}
	}
	switch v.(type) {
	case map[string]any, []any:
		return Payload{raw: raw, value: v, decoded: true}
	}
	return Payload{raw: raw}
}

// encodeMessage prepares an outgoing message body. Strings and byte slices
// are transmitted verbatim; anything else is JSON-marshalled. Nil and empty
// messages are rejected rather than serialized.
func encodeMessage(message any) ([]byte, error) {
	switch v := message.(type) {
	case nil:
		return nil, fmt.Errorf("%w: message is required", ErrInvalidArgument)
	case string:
		if v == "" {
			return nil, fmt.Errorf("%w: message is required", ErrInvalidArgument)
		}
		return []byte(v), nil
	case []byte:
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: message is required", ErrInvalidArgument)
		}
		return v, nil
	default:
		if isNilValue(v) {
			return nil, fmt.Errorf("%w: message is required", ErrInvalidArgument)
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message: %w", err)
		}
		return data, nil
	}
}

// isNilValue catches typed nils hiding inside a non-nil interface, which
// would otherwise marshal to "null".
func isNilValue(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
