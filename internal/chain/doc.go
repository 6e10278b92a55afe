// Package chain defines the primitives shared by the host and the components
// it runs: addresses, block environment, responses, sub-messages, replies,
// the error taxonomy, canonical encoding and typed storage access.
//
// Components never talk to each other directly. A component returns a
// Response whose sub-messages are executed by the host after the component
// returns. When a sub-message is issued with a reply mode, the host later
// resumes the issuing component through its Reply entry point, carrying the
// sub-message's correlation id and outcome.
//
// # Wire Conventions
//
//   - Messages are externally tagged snake_case JSON objects, e.g. {"claim":{}}
//   - 64-bit integers (Uint64) are encoded as decimal JSON strings
//   - Timestamps are nanoseconds since the Unix epoch, as decimal strings
//   - Instantiate reply data is the protobuf encoding of
//     MsgInstantiateContractResponse (see instantiate.go)
//
// # Storage
//
// Components persist state through the Storage interface. Item and Map give
// typed load/save access to a namespaced key; they are the only way component
// code touches storage.
package chain
