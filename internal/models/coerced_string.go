package models

import (
	"bytes"
	"encoding/json"
	"reflect"
)

// CoercedString is a request field that accepts a JSON string, number or boolean.
// Numbers keep their literal text and booleans become "True" or "False".
// Objects and arrays are rejected with a *json.UnmarshalTypeError.
type CoercedString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *CoercedString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case len(data) == 0:
		return &json.UnmarshalTypeError{Value: "empty", Type: reflect.TypeOf("")}
	case data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = CoercedString(v)
	case bytes.Equal(data, []byte("true")):
		*s = "True"
	case bytes.Equal(data, []byte("false")):
		*s = "False"
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*s = CoercedString(n.String())
	case data[0] == '{':
		return &json.UnmarshalTypeError{Value: "object", Type: reflect.TypeOf("")}
	case data[0] == '[':
		return &json.UnmarshalTypeError{Value: "array", Type: reflect.TypeOf("")}
	default:
		return &json.UnmarshalTypeError{Value: string(data), Type: reflect.TypeOf("")}
	}

	return nil
}
