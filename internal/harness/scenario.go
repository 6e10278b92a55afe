package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/mintgate/internal/domain"
)

// Scenario is a scripted run against a fresh host.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Codes lists code names in the order they are stored; the first gets
	// code id 1. Defaults to DefaultCodes.
	Codes []string `yaml:"codes,omitempty"`

	// Addresses are handed out to deployments in order. Deployments past
	// the end get sequential "contract<N>" addresses.
	Addresses []string `yaml:"addresses,omitempty"`

	// StartTime is the initial block time in seconds.
	StartTime uint64 `yaml:"start_time,omitempty"`

	// Fixtures is a domain fixtures file, relative to the scenario file.
	Fixtures string `yaml:"fixtures,omitempty"`

	// Domain holds inline domain fixtures. Merged after Fixtures.
	Domain *domain.Fixtures `yaml:"domain,omitempty"`

	// QueryShape forces the wire shape of the manager's domain queries.
	QueryShape string `yaml:"query_shape,omitempty"`

	// Validate checks every message against its CUE schema before
	// sending it.
	Validate bool `yaml:"validate,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// dir is the directory relative paths resolve against.
	dir string
}

// Step is one action of a scenario. Exactly one of the action fields is set.
type Step struct {
	Name string `yaml:"name,omitempty"`

	Instantiate *InstantiateStep `yaml:"instantiate,omitempty"`
	Execute     *ExecuteStep     `yaml:"execute,omitempty"`
	Query       *QueryStep       `yaml:"query,omitempty"`

	// SetTime moves block time to the given second without a new block.
	SetTime *uint64 `yaml:"set_time,omitempty"`

	// Advance produces a new block this much later (e.g. "30s").
	Advance string `yaml:"advance,omitempty"`

	// Expect states the outcome. Nil means the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// InstantiateStep deploys a component.
type InstantiateStep struct {
	Code   string         `yaml:"code"`
	Sender string         `yaml:"sender"`
	Label  string         `yaml:"label,omitempty"`
	Msg    map[string]any `yaml:"msg"`
}

// ExecuteStep runs an operation.
type ExecuteStep struct {
	Contract string         `yaml:"contract"`
	Sender   string         `yaml:"sender"`
	Msg      map[string]any `yaml:"msg"`
}

// QueryStep runs a smart query.
type QueryStep struct {
	Contract string         `yaml:"contract"`
	Msg      map[string]any `yaml:"msg"`
}

// Expect is the expected outcome of a step.
type Expect struct {
	// Error is the expected chain error code. Empty means success.
	Error string `yaml:"error,omitempty"`

	// Address is the expected address of an instantiated component.
	Address string `yaml:"address,omitempty"`

	// Result is a subset match against a query response.
	Result map[string]any `yaml:"result,omitempty"`
}

// Assertion checks the run after all steps.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Action is "<contract>:<action>" or a bare action name (action_count).
	Action string `yaml:"action,omitempty"`

	// Actions is the expected relative order (action_order).
	Actions []string `yaml:"actions,omitempty"`

	// Count is the expected number of matches (action_count, tx_count).
	Count int `yaml:"count,omitempty"`

	// Event is the event type (event_contains), e.g. "wasm" or "instantiate".
	Event string `yaml:"event,omitempty"`

	// Attributes are matched as a subset (event_contains).
	Attributes map[string]string `yaml:"attributes,omitempty"`

	// Contract and Msg select a query (query); Contract also filters
	// tx_count.
	Contract string         `yaml:"contract,omitempty"`
	Msg      map[string]any `yaml:"msg,omitempty"`

	// Expect is a subset match against the query response (query).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Status filters tx_count by tx log status.
	Status string `yaml:"status,omitempty"`
}

// Assertion types.
const (
	AssertEventContains = "event_contains"
	AssertActionOrder   = "action_order"
	AssertActionCount   = "action_count"
	AssertQuery         = "query"
	AssertTxCount       = "tx_count"
)

// DefaultCodes is the code table used when a scenario names none.
var DefaultCodes = []string{CodeCollection, CodePoap, CodeManager}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sc.dir = filepath.Dir(path)
	return sc, nil
}

// ParseScenario parses scenario YAML. Relative fixture paths resolve
// against the working directory.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &sc, nil
}

// LoadScenarios loads path, or every *.yaml / *.yml file directly inside
// path if it is a directory, sorted by file name.
func LoadScenarios(path string) ([]*Scenario, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios: %w", err)
	}
	if !info.IsDir() {
		sc, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		return []*Scenario{sc}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios: %w", err)
	}
	var files []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", path)
	}

	out := make([]*Scenario, 0, len(files))
	for _, f := range files {
		sc, err := LoadScenario(f)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}

// Dir is the directory the scenario was loaded from, or "" if it was
// parsed from memory.
func (s *Scenario) Dir() string { return s.dir }

// codes returns the scenario's code table.
func (s *Scenario) codes() []string {
	if len(s.Codes) == 0 {
		return DefaultCodes
	}
	return s.Codes
}

// fixturesPath resolves Fixtures against the scenario directory.
func (s *Scenario) fixturesPath() string {
	if s.Fixtures == "" || filepath.IsAbs(s.Fixtures) || s.dir == "" {
		return s.Fixtures
	}
	return filepath.Join(s.dir, s.Fixtures)
}

// validateScenario checks required fields and step shape.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if len(s.Steps) == 0 {
		return errors.New("at least one step is required")
	}

	known := make(map[string]bool)
	for _, name := range s.codes() {
		if _, ok := builtinCodes[name]; !ok {
			return fmt.Errorf("codes: unknown code %q (want one of %s)", name, strings.Join(BuiltinCodes(), ", "))
		}
		if known[name] {
			return fmt.Errorf("codes: duplicate code %q", name)
		}
		known[name] = true
	}

	for i, step := range s.Steps {
		if err := validateStep(step, known); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step Step, codes map[string]bool) error {
	set := 0
	if step.Instantiate != nil {
		set++
		if !codes[step.Instantiate.Code] {
			return fmt.Errorf("instantiate: code %q is not in the code table", step.Instantiate.Code)
		}
		if step.Instantiate.Sender == "" {
			return errors.New("instantiate: sender is required")
		}
	}
	if step.Execute != nil {
		set++
		if step.Execute.Contract == "" || step.Execute.Sender == "" {
			return errors.New("execute: contract and sender are required")
		}
	}
	if step.Query != nil {
		set++
		if step.Query.Contract == "" {
			return errors.New("query: contract is required")
		}
	}
	if step.SetTime != nil {
		set++
	}
	if step.Advance != "" {
		set++
		if _, err := time.ParseDuration(step.Advance); err != nil {
			return fmt.Errorf("advance: %w", err)
		}
	}
	if set != 1 {
		return fmt.Errorf("exactly one action is required, got %d", set)
	}
	if step.Expect != nil && step.Expect.Result != nil && step.Query == nil {
		return errors.New("expect.result is only valid on query steps")
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertEventContains:
		if a.Event == "" {
			return errors.New("event_contains: event is required")
		}
	case AssertActionOrder:
		if len(a.Actions) < 2 {
			return errors.New("action_order: at least two actions are required")
		}
	case AssertActionCount:
		if a.Action == "" {
			return errors.New("action_count: action is required")
		}
	case AssertQuery:
		if a.Contract == "" || a.Msg == nil {
			return errors.New("query: contract and msg are required")
		}
	case AssertTxCount:
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
