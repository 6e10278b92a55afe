// Package query translates typed domain queries into wire envelopes for the
// out-of-process domain service and decodes its typed responses.
//
// ENVELOPES:
//
// Every request is a two-level tagged union. The outer "route" selects a
// domain area; the inner tag selects one operation of that domain, carrying
// its parameters. Two wire shapes coexist in the protocol family:
//
//	adjacent: {"route":"subspaces","query_data":{"subspace":{"subspace_id":"1"}}}
//	wrapped:  {"route":"profiles","query_data":{"profiles":{"profile":{"user":"..."}}}}
//
// Both are first-class. Decode detects the shape and records it in the
// Envelope, so re-encoding a decoded envelope reproduces the original shape.
// Neither shape is normalized into the other.
//
// SHAPE DETECTION:
//
// query_data must hold exactly one key. If that key equals the route and
// its value is an object whose single key is an operation of that route,
// the envelope is wrapped; otherwise the key itself must be an operation
// and the envelope is adjacent. Detection is unambiguous because no
// parameter of a route shares its name with an operation of that route
// (enforced by the registry tests).
//
// FAILURES:
//
// Unknown routes or operations, malformed JSON, unknown parameter fields
// and undecodable responses all fail with a chain TRANSPORT error. A
// domain refusal (NOT_FOUND) is passed through with its own code.
package query
