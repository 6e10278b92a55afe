// Package contracts holds helpers shared by the component implementations.
//
// Messages are externally tagged JSON objects: {"<variant>": {params}}.
// In Go a message is a struct of pointer fields, one per variant, and
// exactly one must be set.
package contracts

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"

	"github.com/roach88/mintgate/internal/chain"
)

// Decode strictly decodes a tagged message into v (a pointer to a struct
// of pointer fields) and returns the variant name. Unknown variants,
// unknown fields and messages with zero or several variants fail with a
// VALIDATION error.
func Decode(raw []byte, v any) (string, error) {
	if err := DecodeStruct(raw, v); err != nil {
		return "", err
	}
	return Variant(v)
}

// DecodeStruct strictly decodes a plain (untagged) message such as an
// instantiate message.
func DecodeStruct(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return chain.ValidationError("invalid message: %v", err)
	}
	if dec.More() {
		return chain.ValidationError("invalid message: trailing data")
	}
	return nil
}

// Variant returns the JSON name of the single non-nil pointer field of v.
func Variant(v any) (string, error) {
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return "", chain.ValidationError("invalid message type %T", v)
	}
	var names []string
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if f.Kind() != reflect.Pointer || f.IsNil() {
			continue
		}
		name, _, _ := strings.Cut(rv.Type().Field(i).Tag.Get("json"), ",")
		names = append(names, name)
	}
	switch len(names) {
	case 0:
		return "", chain.ValidationError("message has no variant")
	case 1:
		return names[0], nil
	default:
		return "", chain.ValidationError("message has several variants: %s", strings.Join(names, ", "))
	}
}

// ToBinary encodes a query response.
func ToBinary(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, chain.ValidationError("encode response: %v", err)
	}
	return b, nil
}

// Empty is the parameter object of variants without parameters.
type Empty struct{}
