package query

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/roach88/mintgate/internal/chain"
)

// Envelope is a decoded wire request together with the shape it used.
type Envelope struct {
	Shape   Shape
	Request Request
}

// NewEnvelope wraps req in the given shape. ShapeAuto resolves to the
// route's native shape.
func NewEnvelope(req Request, shape Shape) Envelope {
	return Envelope{Shape: shape.resolve(req.Route()), Request: req}
}

type wireEnvelope struct {
	Route     Route           `json:"route"`
	QueryData json.RawMessage `json:"query_data"`
}

// Encode writes the envelope in its shape.
func Encode(env Envelope) ([]byte, error) {
	if env.Request == nil {
		return nil, chain.TransportError(nil, "encode: nil request")
	}
	route, op := env.Request.Route(), env.Request.Op()
	if _, ok := defaultRegistry.lookup(route, op); !ok {
		return nil, chain.TransportError(nil, "encode: unknown operation %s/%s", route, op)
	}

	params, err := json.Marshal(env.Request)
	if err != nil {
		return nil, chain.TransportError(err, "encode %s/%s params", route, op)
	}

	var data []byte
	switch env.Shape.resolve(route) {
	case ShapeAdjacent:
		data, err = singleKey(op, params)
	case ShapeWrapped:
		var inner []byte
		inner, err = singleKey(op, params)
		if err == nil {
			data, err = singleKey(string(route), inner)
		}
	default:
		return nil, chain.TransportError(nil, "encode: unknown shape %q", env.Shape)
	}
	if err != nil {
		return nil, chain.TransportError(err, "encode %s/%s", route, op)
	}

	out, err := json.Marshal(wireEnvelope{Route: route, QueryData: data})
	if err != nil {
		return nil, chain.TransportError(err, "encode %s/%s envelope", route, op)
	}
	return out, nil
}

func singleKey(key string, value json.RawMessage) ([]byte, error) {
	return json.Marshal(map[string]json.RawMessage{key: value})
}

// Decode parses a wire request in either shape. The returned Envelope
// records the detected shape.
func Decode(data []byte) (Envelope, error) {
	var wire wireEnvelope
	if err := strictUnmarshal(data, &wire); err != nil {
		return Envelope{}, chain.TransportError(err, "decode envelope")
	}
	if wire.Route == "" {
		return Envelope{}, chain.TransportError(nil, "decode envelope: missing route")
	}
	if !defaultRegistry.knownRoute(wire.Route) {
		return Envelope{}, chain.TransportError(nil, "decode envelope: unknown route %q", wire.Route)
	}

	key, value, err := onlyKey(wire.QueryData)
	if err != nil {
		return Envelope{}, chain.TransportError(err, "decode %s query_data", wire.Route)
	}

	shape := ShapeAdjacent
	op, params := key, value
	if key == string(wire.Route) {
		if innerKey, innerValue, err := onlyKey(value); err == nil {
			if _, ok := defaultRegistry.lookup(wire.Route, innerKey); ok {
				shape = ShapeWrapped
				op, params = innerKey, innerValue
			}
		}
	}

	schema, ok := defaultRegistry.lookup(wire.Route, op)
	if !ok {
		return Envelope{}, chain.TransportError(nil, "decode: unknown operation %s/%s", wire.Route, op)
	}
	req, err := decodeParams(schema, params)
	if err != nil {
		return Envelope{}, chain.TransportError(err, "decode %s/%s params", wire.Route, op)
	}
	return Envelope{Shape: shape, Request: req}, nil
}

// onlyKey splits a JSON object holding exactly one key.
func onlyKey(data json.RawMessage) (string, json.RawMessage, error) {
	if !isObject(data) {
		return "", nil, errors.New("expected an object")
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return "", nil, err
	}
	if len(m) != 1 {
		return "", nil, fmt.Errorf("expected exactly one tag, got %d", len(m))
	}
	var key string
	var value json.RawMessage
	for k, v := range m {
		key, value = k, v
	}
	return key, value, nil
}

func decodeParams(schema OpSchema, params json.RawMessage) (Request, error) {
	if !isObject(params) {
		return nil, errors.New("parameters must be an object")
	}
	ptr := reflect.New(schema.typ)
	if err := strictUnmarshal(params, ptr.Interface()); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface().(Request), nil
}

func isObject(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// strictUnmarshal rejects unknown fields and trailing data.
func strictUnmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}

// DecodeResponse strictly decodes a domain service response into out.
func DecodeResponse(data []byte, out any) error {
	if err := strictUnmarshal(data, out); err != nil {
		return chain.TransportError(err, "decode response into %T", out)
	}
	return nil
}
