// Package harness runs YAML scenarios against a real host.
//
// A scenario stores the component codes, then drives a sequence of
// steps (instantiate, execute, query, clock moves) through a fresh host
// over its own SQLite database. Each step may state the outcome it
// expects. After the steps, assertions check the trace, contract state
// and the tx log.
//
// Every run is deterministic: contract addresses come from the
// scenario's address list, tx ids are sequential and block time only
// moves when a step moves it. The trace of a run can therefore be
// compared byte for byte against a golden file.
//
// Scenario format:
//
//	name: claim
//	codes: [collection, poap, manager]
//	addresses: [manager1, poap1, collection1]
//	domain:
//	  profiles:
//	    - account: {address: user}
//	steps:
//	  - instantiate:
//	      code: manager
//	      sender: admin
//	      msg: {admin: admin, poap_code_id: $code.poap, ...}
//	  - set_time: 100
//	  - execute: {contract: poap1, sender: admin, msg: {enable_mint: {}}}
//	  - execute: {contract: manager1, sender: user, msg: {claim: {}}}
//	  - execute: {contract: manager1, sender: user, msg: {claim: {}}}
//	    expect: {error: QUOTA_EXCEEDED}
//	assertions:
//	  - type: query
//	    contract: collection1
//	    msg: {owner_of: {token_id: "1"}}
//	    expect: {owner: user}
//
// String values of the form "$code.<name>" are replaced with the code id
// the named code was stored under, and "$time.<seconds>" with that many
// seconds as a nanosecond timestamp string.
package harness
