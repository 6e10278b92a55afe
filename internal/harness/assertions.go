package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/mintgate/internal/chain"
)

// AssertionError represents a failed assertion with context.
type AssertionError struct {
	Index    int
	Type     string
	Message  string
	Expected any
	Actual   any
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	if e.Expected != nil || e.Actual != nil {
		return fmt.Sprintf("assertion %d (%s) failed: %s\n  expected: %v\n  actual:   %v",
			e.Index, e.Type, e.Message, e.Expected, e.Actual)
	}
	return fmt.Sprintf("assertion %d (%s) failed: %s", e.Index, e.Type, e.Message)
}

// evaluate checks every scenario assertion and returns one message per
// failure.
func (h *Harness) evaluate(ctx context.Context, result *Result) []string {
	var errs []string
	for i, a := range h.sc.Assertions {
		var err error
		switch a.Type {
		case AssertEventContains:
			err = assertEventContains(result.Trace, a)
		case AssertActionOrder:
			err = assertActionOrder(result.Trace, a)
		case AssertActionCount:
			err = assertActionCount(result.Trace, a)
		case AssertQuery:
			err = h.assertQuery(ctx, a)
		case AssertTxCount:
			err = h.assertTxCount(ctx, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			if ae, ok := err.(*AssertionError); ok {
				ae.Index = i
				ae.Type = a.Type
			}
			errs = append(errs, err.Error())
		}
	}
	return errs
}

// assertEventContains passes if any committed step emitted an event of
// the given type whose attributes include the expected ones.
func assertEventContains(trace []TraceEvent, a Assertion) error {
	for _, te := range trace {
		for _, ev := range te.Events {
			if ev.Type != a.Event {
				continue
			}
			if a.Contract != "" {
				if addr, _ := ev.Attr("_contract_address"); addr != a.Contract {
					continue
				}
			}
			if hasAttributes(ev, a.Attributes) {
				return nil
			}
		}
	}
	return &AssertionError{
		Message:  fmt.Sprintf("no %s event matched", a.Event),
		Expected: a.Attributes,
	}
}

func hasAttributes(ev chain.Event, want map[string]string) bool {
	for k, v := range want {
		got, ok := ev.Attr(k)
		if !ok || got != v {
			return false
		}
	}
	return true
}

// assertActionOrder passes if the expected actions occur in the given
// relative order across the whole run. Other actions may interleave.
func assertActionOrder(trace []TraceEvent, a Assertion) error {
	all := allActions(trace)
	next := 0
	for _, got := range all {
		if next < len(a.Actions) && actionMatches(got, a.Actions[next]) {
			next++
		}
	}
	if next < len(a.Actions) {
		return &AssertionError{
			Message:  fmt.Sprintf("action %s not found in order", a.Actions[next]),
			Expected: a.Actions,
			Actual:   all,
		}
	}
	return nil
}

// assertActionCount passes if exactly Count actions match.
func assertActionCount(trace []TraceEvent, a Assertion) error {
	n := 0
	for _, got := range allActions(trace) {
		if actionMatches(got, a.Action) {
			n++
		}
	}
	if n != a.Count {
		return &AssertionError{
			Message:  fmt.Sprintf("wrong number of %s actions", a.Action),
			Expected: a.Count,
			Actual:   n,
		}
	}
	return nil
}

func allActions(trace []TraceEvent) []string {
	var out []string
	for _, te := range trace {
		out = append(out, te.Actions...)
	}
	return out
}

// actionMatches compares "<contract>:<action>" against want, which is
// either the same form or a bare action name.
func actionMatches(got, want string) bool {
	if strings.Contains(want, ":") {
		return got == want
	}
	_, action, _ := strings.Cut(got, ":")
	return action == want
}

// assertQuery runs a smart query against the final state.
func (h *Harness) assertQuery(ctx context.Context, a Assertion) error {
	msg, err := h.encode(a.Msg)
	if err != nil {
		return err
	}
	raw, err := h.host.QuerySmart(ctx, chain.Addr(a.Contract), msg)
	if err != nil {
		return &AssertionError{Message: fmt.Sprintf("query %s: %v", a.Contract, err)}
	}
	if a.Expect == nil {
		return nil
	}
	if mismatch := matchJSON(a.Expect, raw); mismatch != "" {
		return &AssertionError{
			Message:  fmt.Sprintf("query %s: %s", a.Contract, mismatch),
			Expected: a.Expect,
			Actual:   string(raw),
		}
	}
	return nil
}

// assertTxCount counts tx log records, optionally by contract and status.
func (h *Harness) assertTxCount(ctx context.Context, a Assertion) error {
	recs, err := h.store.ReadTxs(ctx, chain.Addr(a.Contract))
	if err != nil {
		return err
	}
	n := 0
	for _, rec := range recs {
		if a.Status == "" || rec.Status == a.Status {
			n++
		}
	}
	if n != a.Count {
		return &AssertionError{
			Message:  "wrong number of tx records",
			Expected: a.Count,
			Actual:   n,
		}
	}
	return nil
}

// matchJSON reports how raw fails to contain want, or "" if it does.
// Objects match as subsets; arrays and scalars must be equal.
func matchJSON(want map[string]any, raw []byte) string {
	// Round-trip want so YAML ints and JSON numbers compare equal.
	wb, err := json.Marshal(want)
	if err != nil {
		return fmt.Sprintf("encode expected: %v", err)
	}
	var w, got any
	if err := json.Unmarshal(wb, &w); err != nil {
		return fmt.Sprintf("decode expected: %v", err)
	}
	if err := json.Unmarshal(raw, &got); err != nil {
		return fmt.Sprintf("decode response: %v", err)
	}
	return subset("$", w, got)
}

func subset(path string, want, got any) string {
	switch w := want.(type) {
	case map[string]any:
		g, ok := got.(map[string]any)
		if !ok {
			return fmt.Sprintf("%s: expected object, got %v", path, got)
		}
		keys := make([]string, 0, len(w))
		for k := range w {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			gv, ok := g[k]
			if !ok {
				return fmt.Sprintf("%s.%s: missing", path, k)
			}
			if msg := subset(path+"."+k, w[k], gv); msg != "" {
				return msg
			}
		}
		return ""
	case []any:
		g, ok := got.([]any)
		if !ok || len(g) != len(w) {
			return fmt.Sprintf("%s: expected %v, got %v", path, want, got)
		}
		for i := range w {
			if msg := subset(fmt.Sprintf("%s[%d]", path, i), w[i], g[i]); msg != "" {
				return msg
			}
		}
		return ""
	default:
		if !reflect.DeepEqual(want, got) {
			return fmt.Sprintf("%s: expected %v, got %v", path, want, got)
		}
		return ""
	}
}
