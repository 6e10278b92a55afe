package harness

import (
	"encoding/json"

	"github.com/roach88/mintgate/internal/chain"
)

// Step kinds recorded in the trace.
const (
	StepInstantiate = "instantiate"
	StepExecute     = "execute"
	StepQuery       = "query"
	StepSetTime     = "set_time"
	StepAdvance     = "advance"
)

// Step statuses recorded in the trace.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// TraceEvent is the observable outcome of one step.
type TraceEvent struct {
	Seq      int    `json:"seq"`
	Step     string `json:"step"`
	Sender   string `json:"sender,omitempty"`
	Contract string `json:"contract,omitempty"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`

	// Actions lists "<contract>:<action>" for every wasm event the call
	// emitted, in emission order.
	Actions []string `json:"actions,omitempty"`

	// Result is the raw query response.
	Result json.RawMessage `json:"result,omitempty"`

	// Events are the full events of the call. Not part of golden traces.
	Events []chain.Event `json:"-"`

	// Height is the block height the step ran at.
	Height uint64 `json:"height"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every step matched its expectation and every
	// assertion held.
	Pass bool `json:"pass"`

	Trace []TraceEvent `json:"trace"`

	// Errors contains one message per mismatch. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Contracts maps each deployed address to its code name.
	Contracts map[string]string `json:"contracts,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Trace:     []TraceEvent{},
		Errors:    []string{},
		Contracts: make(map[string]string),
	}
}

// AddError adds a mismatch and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// addTrace appends ev with the next sequence number.
func (r *Result) addTrace(ev TraceEvent) TraceEvent {
	ev.Seq = len(r.Trace) + 1
	r.Trace = append(r.Trace, ev)
	return ev
}

// actions flattens the wasm events of a call.
func actions(events []chain.Event) []string {
	var out []string
	for _, ev := range events {
		if ev.Type != "wasm" {
			continue
		}
		action, ok := ev.Attr("action")
		if !ok {
			continue
		}
		addr, _ := ev.Attr("_contract_address")
		out = append(out, addr+":"+action)
	}
	return out
}
