package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/mintgate/internal/admission"
	"github.com/roach88/mintgate/internal/chain"
	"github.com/roach88/mintgate/internal/contracts/collection"
	"github.com/roach88/mintgate/internal/contracts/manager"
	"github.com/roach88/mintgate/internal/contracts/poap"
	"github.com/roach88/mintgate/internal/domain"
	"github.com/roach88/mintgate/internal/host"
	"github.com/roach88/mintgate/internal/msgschema"
	"github.com/roach88/mintgate/internal/query"
	"github.com/roach88/mintgate/internal/reply"
	"github.com/roach88/mintgate/internal/store"
	"github.com/roach88/mintgate/internal/testutil"
)

// Code names a scenario can store.
const (
	CodeCollection = "collection"
	CodePoap       = "poap"
	CodeManager    = "manager"
)

type codeFactory func(o *options) chain.Contract

var builtinCodes = map[string]codeFactory{
	CodeCollection: func(o *options) chain.Contract {
		return collection.New(o.logger)
	},
	CodePoap: func(o *options) chain.Contract {
		return poap.New(
			poap.WithLogger(o.logger),
			poap.WithResolvedPolicy(o.resolved),
			poap.WithDefaultPolicy(o.policy),
		)
	},
	CodeManager: func(o *options) chain.Contract {
		return manager.New(
			manager.WithLogger(o.logger),
			manager.WithResolvedPolicy(o.resolved),
			manager.WithQueryShape(o.shape),
		)
	},
}

// BuiltinCodes lists the code names a scenario can store, sorted.
func BuiltinCodes() []string {
	names := make([]string, 0, len(builtinCodes))
	for name := range builtinCodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type options struct {
	logger    *slog.Logger
	validator *msgschema.Validator
	policy    admission.Policy
	resolved  reply.ResolvedPolicy
	shape     query.Shape
	domain    query.Channel
	dbPath    string
	chainID   string
	maxDepth  int
	prefix    string
}

// Option configures a run.
type Option func(*options)

// WithLogger sets the logger handed to the host and components.
//
// Default: discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithValidator sets the schema validator used by scenarios with
// validate: true.
func WithValidator(v *msgschema.Validator) Option {
	return func(o *options) { o.validator = v }
}

// WithPolicy sets the admission policy POAP deployments default to.
func WithPolicy(p admission.Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithResolvedPolicy sets what a second address resolution does.
func WithResolvedPolicy(p reply.ResolvedPolicy) Option {
	return func(o *options) { o.resolved = p }
}

// WithQueryShape sets the manager's domain query shape. A scenario's
// query_shape takes precedence.
func WithQueryShape(s query.Shape) Option {
	return func(o *options) { o.shape = s }
}

// WithDomain replaces the scenario's fixtures with ch.
func WithDomain(ch query.Channel) Option {
	return func(o *options) { o.domain = ch }
}

// WithDBPath runs against the SQLite database at path.
//
// Default: ":memory:".
func WithDBPath(path string) Option {
	return func(o *options) { o.dbPath = path }
}

// WithChainID sets the chain id components see in their block info.
func WithChainID(id string) Option {
	return func(o *options) { o.chainID = id }
}

// WithMaxDepth bounds sub-message nesting in the host.
func WithMaxDepth(n int) Option {
	return func(o *options) { o.maxDepth = n }
}

// WithAddressPrefix sets the prefix of generated addresses used once the
// scenario's address list runs out.
func WithAddressPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// Harness drives one scenario through a host.
type Harness struct {
	sc        *Scenario
	host      *host.Host
	store     *store.Store
	logger    *slog.Logger
	validator *msgschema.Validator

	// codes maps code name to code id; names is the reverse.
	codes map[string]uint64
	names map[uint64]string
}

// Run executes sc against a fresh host and returns its trace.
//
// Step and assertion mismatches are reported in the Result. The error is
// non-nil only if the run could not be set up.
func Run(ctx context.Context, sc *Scenario, opts ...Option) (*Result, error) {
	o := &options{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		policy:   admission.DefaultPolicy(),
		resolved: reply.PolicyReject,
		shape:    query.ShapeAuto,
		dbPath:   ":memory:",
		chainID:  host.DefaultChainID,
		maxDepth: host.DefaultMaxDepth,
		prefix:   host.DefaultAddressPrefix,
	}
	for _, opt := range opts {
		opt(o)
	}
	if sc.QueryShape != "" {
		shape, err := query.ParseShape(sc.QueryShape)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
		o.shape = shape
	}

	h, err := newHarness(ctx, sc, o)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	defer h.store.Close()

	result := NewResult()
	for i, step := range sc.Steps {
		if err := h.runStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("scenario %s: %s: %w", sc.Name, stepLabel(i, step), err)
		}
	}

	for _, msg := range h.evaluate(ctx, result) {
		result.AddError(msg)
	}

	contracts, err := h.host.Contracts(ctx)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	for _, rec := range contracts {
		result.Contracts[string(rec.Address)] = h.names[rec.CodeID]
	}

	h.logger.Info("scenario finished", "scenario", sc.Name, "pass", result.Pass, "steps", len(result.Trace), "errors", len(result.Errors))
	return result, nil
}

func newHarness(ctx context.Context, sc *Scenario, o *options) (*Harness, error) {
	ch := o.domain
	if ch == nil {
		f, err := loadFixtures(sc)
		if err != nil {
			return nil, err
		}
		ch = domain.NewService(f, domain.WithLogger(o.logger))
	}

	validator := o.validator
	if sc.Validate && validator == nil {
		v, err := msgschema.New()
		if err != nil {
			return nil, err
		}
		validator = v
	}

	st, err := store.Open(o.dbPath)
	if err != nil {
		return nil, err
	}

	hostOpts := []host.Option{
		host.WithDomain(ch),
		host.WithTxIDs(testutil.NewSequentialTxIDs("tx")),
		host.WithClock(host.NewClock(o.chainID, chain.TimestampFromSeconds(sc.StartTime))),
		host.WithLogger(o.logger),
		host.WithMaxDepth(o.maxDepth),
	}
	seq := host.SequentialAddresses{Prefix: o.prefix}
	if len(sc.Addresses) > 0 {
		addrs := make([]chain.Addr, len(sc.Addresses))
		for i, a := range sc.Addresses {
			addrs[i] = chain.Addr(a)
		}
		fixed := host.NewFixedAddresses(addrs...)
		fixed.Fallback = seq
		hostOpts = append(hostOpts, host.WithAddresses(fixed))
	} else {
		hostOpts = append(hostOpts, host.WithAddresses(seq))
	}

	h := &Harness{
		sc:        sc,
		host:      host.New(st, hostOpts...),
		store:     st,
		logger:    o.logger.With("scenario", sc.Name),
		validator: validator,
		codes:     make(map[string]uint64),
		names:     make(map[uint64]string),
	}
	for _, name := range sc.codes() {
		factory, ok := builtinCodes[name]
		if !ok {
			st.Close()
			return nil, fmt.Errorf("unknown code %q", name)
		}
		id, err := h.host.StoreCode(ctx, name, factory(o))
		if err != nil {
			st.Close()
			return nil, err
		}
		h.codes[name] = id
		h.names[id] = name
	}
	return h, nil
}

// loadFixtures merges the scenario's fixtures file and inline domain.
func loadFixtures(sc *Scenario) (*domain.Fixtures, error) {
	var f *domain.Fixtures
	if path := sc.fixturesPath(); path != "" {
		loaded, err := domain.LoadFixtures(path)
		if err != nil {
			return nil, err
		}
		f = loaded
	}
	merged := f.Merge(sc.Domain)
	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("domain fixtures: %w", err)
	}
	return merged, nil
}

func (h *Harness) runStep(ctx context.Context, i int, step Step, result *Result) error {
	ev := TraceEvent{}
	var (
		stepErr error
		res     *host.Result
	)

	switch {
	case step.Instantiate != nil:
		s := step.Instantiate
		ev.Step, ev.Sender = StepInstantiate, s.Sender
		msg, err := h.encode(s.Msg)
		if err != nil {
			return err
		}
		stepErr = h.validate(ctx, s.Code, "", "instantiate", msg)
		if stepErr == nil {
			var addr chain.Addr
			addr, res, stepErr = h.host.Instantiate(ctx, h.codes[s.Code], chain.Addr(s.Sender), msg, s.Label)
			ev.Contract = string(addr)
		}

	case step.Execute != nil:
		s := step.Execute
		ev.Step, ev.Sender, ev.Contract = StepExecute, s.Sender, s.Contract
		msg, err := h.encode(s.Msg)
		if err != nil {
			return err
		}
		stepErr = h.validate(ctx, "", s.Contract, "execute", msg)
		if stepErr == nil {
			res, stepErr = h.host.Execute(ctx, chain.Addr(s.Sender), chain.Addr(s.Contract), msg)
		}

	case step.Query != nil:
		s := step.Query
		ev.Step, ev.Contract = StepQuery, s.Contract
		msg, err := h.encode(s.Msg)
		if err != nil {
			return err
		}
		stepErr = h.validate(ctx, "", s.Contract, "query", msg)
		if stepErr == nil {
			var raw []byte
			raw, stepErr = h.host.QuerySmart(ctx, chain.Addr(s.Contract), msg)
			if stepErr == nil {
				ev.Result = json.RawMessage(raw)
			}
		}

	case step.SetTime != nil:
		ev.Step = StepSetTime
		h.host.SetBlockTime(chain.TimestampFromSeconds(*step.SetTime))

	case step.Advance != "":
		ev.Step = StepAdvance
		d, err := time.ParseDuration(step.Advance)
		if err != nil {
			return err
		}
		h.host.AdvanceBlock(d)
	}

	ev.Height = h.host.Block().Height
	if stepErr != nil {
		ev.Status = StatusError
		ev.Error = errorCode(stepErr)
	} else {
		ev.Status = StatusOK
		if res != nil {
			ev.Events = res.Events
			ev.Actions = actions(res.Events)
		}
	}
	ev = result.addTrace(ev)

	h.logger.Debug("step", "seq", ev.Seq, "step", ev.Step, "contract", ev.Contract, "status", ev.Status, "error", stepErr)
	for _, msg := range h.check(step, ev, stepErr) {
		result.AddError(stepLabel(i, step) + ": " + msg)
	}
	return nil
}

// check compares a step's outcome with its expectation.
func (h *Harness) check(step Step, ev TraceEvent, stepErr error) []string {
	var want Expect
	if step.Expect != nil {
		want = *step.Expect
	}

	switch {
	case want.Error == "" && stepErr != nil:
		return []string{fmt.Sprintf("unexpected error: %v", stepErr)}
	case want.Error != "" && stepErr == nil:
		return []string{fmt.Sprintf("expected %s error, got success", want.Error)}
	case want.Error != "" && ev.Error != want.Error:
		return []string{fmt.Sprintf("expected %s error, got %v", want.Error, stepErr)}
	case stepErr != nil:
		return nil
	}

	var errs []string
	if want.Address != "" && ev.Contract != want.Address {
		errs = append(errs, fmt.Sprintf("expected address %s, got %s", want.Address, ev.Contract))
	}
	if want.Result != nil {
		if msg := matchJSON(want.Result, ev.Result); msg != "" {
			errs = append(errs, "result: "+msg)
		}
	}
	return errs
}

// validate checks msg against its schema when the scenario asks for it.
// The component is code, or the code contract was deployed from.
func (h *Harness) validate(ctx context.Context, code, contract, entry string, msg []byte) error {
	if !h.sc.Validate || h.validator == nil {
		return nil
	}
	if code == "" {
		name, err := h.host.CodeName(ctx, chain.Addr(contract))
		if err != nil {
			// Unknown contracts are left for the host to refuse.
			return nil
		}
		code = name
	}
	kind, err := msgschema.KindFor(code, entry)
	if err != nil {
		return nil
	}
	return h.validator.Validate(kind, msg)
}

// encode substitutes placeholders in msg and marshals it to JSON.
func (h *Harness) encode(msg map[string]any) ([]byte, error) {
	if msg == nil {
		return []byte("{}"), nil
	}
	v, err := h.substitute(msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// Placeholder prefixes recognized in message strings.
const (
	codePrefix = "$code."
	timePrefix = "$time."
)

// substitute replaces "$code.<name>" with the named code id and
// "$time.<seconds>" with the nanosecond timestamp.
func (h *Harness) substitute(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			s, err := h.substitute(elem)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = s
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			s, err := h.substitute(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = s
		}
		return out, nil
	case string:
		switch {
		case strings.HasPrefix(val, codePrefix):
			id, ok := h.codes[strings.TrimPrefix(val, codePrefix)]
			if !ok {
				return nil, fmt.Errorf("%s: code not stored", val)
			}
			return strconv.FormatUint(id, 10), nil
		case strings.HasPrefix(val, timePrefix):
			sec, err := strconv.ParseUint(strings.TrimPrefix(val, timePrefix), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", val, err)
			}
			return strconv.FormatUint(chain.TimestampFromSeconds(sec).Nanos(), 10), nil
		}
		return val, nil
	default:
		return v, nil
	}
}

// errorCode is the trace form of err: its chain code, or the message for
// host faults that carry none.
func errorCode(err error) string {
	if code := chain.CodeOf(err); code != "" {
		return string(code)
	}
	return err.Error()
}

func stepLabel(i int, step Step) string {
	if step.Name != "" {
		return fmt.Sprintf("steps[%d] %q", i, step.Name)
	}
	return fmt.Sprintf("steps[%d]", i)
}
