// Package host implements the mock execution environment components run in.
//
// ARCHITECTURE:
//
// Single-Writer Calls:
// The host serialises top-level calls with a mutex over a single SQLite
// connection. Each top-level call runs in one transaction:
//  1. the entry point runs against the component's key space
//  2. sub-messages run depth-first in the order they were attached
//  3. outcomes are delivered to the caller's Reply entry point per reply_on
//  4. any unhandled failure rolls the whole transaction back
//
// A sub-message that replies on error runs inside a SAVEPOINT. If it fails,
// only its writes are discarded and the failure is delivered as a reply.
//
// Block Clock:
// Block height and time change only through SetBlockTime and AdvanceBlock.
// NEVER read the wall clock inside a call.
//
// Every top-level call, committed or failed, is appended to the tx log
// after its transaction ends.
package host
