package chain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Addr is a validated component or account address.
// The zero value is the empty (unresolved) address.
type Addr string

// String implements fmt.Stringer.
func (a Addr) String() string { return string(a) }

// IsEmpty reports whether the address is unresolved.
func (a Addr) IsEmpty() bool { return a == "" }

// Uint64 is a uint64 that marshals to a JSON string.
// JSON numbers lose precision above 2^53 in most clients.
type Uint64 uint64

// MarshalJSON encodes the value as a decimal string.
func (u Uint64) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(u), 10))
}

// UnmarshalJSON accepts a decimal string.
func (u *Uint64) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("uint64: expected string: %w", err)
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("uint64: %w", err)
	}
	*u = Uint64(v)
	return nil
}

// Timestamp is a point in block time with nanosecond precision.
type Timestamp uint64

// TimestampFromSeconds builds a Timestamp from whole seconds.
func TimestampFromSeconds(sec uint64) Timestamp {
	return Timestamp(sec * uint64(time.Second))
}

// Seconds returns the whole seconds of the timestamp.
func (t Timestamp) Seconds() uint64 { return uint64(t) / uint64(time.Second) }

// Nanos returns the timestamp in nanoseconds.
func (t Timestamp) Nanos() uint64 { return uint64(t) }

// Plus returns t advanced by d.
func (t Timestamp) Plus(d time.Duration) Timestamp { return Timestamp(uint64(t) + uint64(d)) }

// Before reports whether t is strictly before other.
func (t Timestamp) Before(other Timestamp) bool { return t < other }

// After reports whether t is strictly after other.
func (t Timestamp) After(other Timestamp) bool { return t > other }

// String renders the timestamp as seconds.nanos.
func (t Timestamp) String() string {
	return fmt.Sprintf("%d.%09d", uint64(t)/uint64(time.Second), uint64(t)%uint64(time.Second))
}

// MarshalJSON encodes nanoseconds as a decimal string.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return Uint64(t).MarshalJSON()
}

// UnmarshalJSON accepts nanoseconds as a decimal string.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var u Uint64
	if err := u.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	*t = Timestamp(u)
	return nil
}

// BlockInfo describes the block a call executes in.
type BlockInfo struct {
	Height  uint64    `json:"height"`
	Time    Timestamp `json:"time"`
	ChainID string    `json:"chain_id"`
}

// ContractInfo identifies the executing component.
type ContractInfo struct {
	Address Addr `json:"address"`
}

// Env is the environment of a single component invocation.
type Env struct {
	Block    BlockInfo    `json:"block"`
	Contract ContractInfo `json:"contract"`
	// TxID correlates every invocation belonging to one top-level call.
	TxID string `json:"tx_id"`
}

// MessageInfo carries the identity of the caller.
type MessageInfo struct {
	Sender Addr `json:"sender"`
}

// Attribute is a key/value pair attached to an event.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Event is an emitted, typed set of attributes.
type Event struct {
	Type       string      `json:"type"`
	Attributes []Attribute `json:"attributes"`
}

// Attr returns the value of the first attribute named key.
func (e Event) Attr(key string) (string, bool) {
	for _, a := range e.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// WasmInstantiate asks the host to deploy a new component.
type WasmInstantiate struct {
	CodeID Uint64          `json:"code_id"`
	Msg    json.RawMessage `json:"msg"`
	Label  string          `json:"label"`
}

// WasmExecute asks the host to run an operation on a component.
type WasmExecute struct {
	ContractAddr Addr            `json:"contract_addr"`
	Msg          json.RawMessage `json:"msg"`
}

// CosmosMsg is a message dispatched by the host on behalf of a component.
// Exactly one field is set.
type CosmosMsg struct {
	Instantiate *WasmInstantiate `json:"instantiate,omitempty"`
	Execute     *WasmExecute     `json:"execute,omitempty"`
}

// Kind names the message variant.
func (m CosmosMsg) Kind() string {
	switch {
	case m.Instantiate != nil:
		return "instantiate"
	case m.Execute != nil:
		return "execute"
	default:
		return "unknown"
	}
}

// NewInstantiateMsg builds an instantiate message with a JSON-encoded payload.
func NewInstantiateMsg(codeID uint64, msg any, label string) (CosmosMsg, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return CosmosMsg{}, fmt.Errorf("encode instantiate msg: %w", err)
	}
	return CosmosMsg{Instantiate: &WasmInstantiate{CodeID: Uint64(codeID), Msg: raw, Label: label}}, nil
}

// NewExecuteMsg builds an execute message with a JSON-encoded payload.
func NewExecuteMsg(contract Addr, msg any) (CosmosMsg, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return CosmosMsg{}, fmt.Errorf("encode execute msg: %w", err)
	}
	return CosmosMsg{Execute: &WasmExecute{ContractAddr: contract, Msg: raw}}, nil
}

// ReplyOn selects which sub-message outcomes are delivered back.
type ReplyOn string

const (
	ReplyNever   ReplyOn = "never"
	ReplySuccess ReplyOn = "success"
	ReplyError   ReplyOn = "error"
	ReplyAlways  ReplyOn = "always"
)

// OnSuccess reports whether successful outcomes are replied.
func (r ReplyOn) OnSuccess() bool { return r == ReplySuccess || r == ReplyAlways }

// OnError reports whether failed outcomes are replied.
func (r ReplyOn) OnError() bool { return r == ReplyError || r == ReplyAlways }

// SubMsg is a message whose outcome may be correlated back by ID.
type SubMsg struct {
	ID      uint64    `json:"id"`
	Msg     CosmosMsg `json:"msg"`
	ReplyOn ReplyOn   `json:"reply_on"`
}

// SubMsgResponse is the successful outcome of a sub-message.
type SubMsgResponse struct {
	Events []Event `json:"events"`
	Data   []byte  `json:"data,omitempty"`
}

// SubMsgResult is either Ok or Err.
type SubMsgResult struct {
	Ok  *SubMsgResponse `json:"ok,omitempty"`
	Err string          `json:"error,omitempty"`
}

// IsOk reports whether the outcome is a success.
func (r SubMsgResult) IsOk() bool { return r.Ok != nil }

// Reply is the asynchronous outcome of a sub-message, keyed by its ID.
type Reply struct {
	ID     uint64       `json:"id"`
	Result SubMsgResult `json:"result"`
}

// Response is what a component entry point returns to the host.
type Response struct {
	Messages   []SubMsg    `json:"messages"`
	Attributes []Attribute `json:"attributes"`
	Events     []Event     `json:"events"`
	Data       []byte      `json:"data,omitempty"`
}

// NewResponse returns an empty response.
func NewResponse() *Response {
	return &Response{}
}

// AddAttribute appends a wasm attribute and returns the response.
func (r *Response) AddAttribute(key, value string) *Response {
	r.Attributes = append(r.Attributes, Attribute{Key: key, Value: value})
	return r
}

// AddMessage appends a fire-and-forget message (never replied).
func (r *Response) AddMessage(msg CosmosMsg) *Response {
	r.Messages = append(r.Messages, SubMsg{Msg: msg, ReplyOn: ReplyNever})
	return r
}

// AddSubMessage appends a correlated sub-message.
func (r *Response) AddSubMessage(sub SubMsg) *Response {
	r.Messages = append(r.Messages, sub)
	return r
}

// AddEvent appends a custom event.
func (r *Response) AddEvent(ev Event) *Response {
	r.Events = append(r.Events, ev)
	return r
}

// SetData sets the response data.
func (r *Response) SetData(data []byte) *Response {
	r.Data = data
	return r
}
