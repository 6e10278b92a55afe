package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/mintgate/internal/harness"
)

// ScenarioOptions holds flags for the scenario command.
type ScenarioOptions struct {
	*RootOptions
	Update    bool   // regenerate golden files
	GoldenDir string // golden file directory
	Filter    string // scenario name filter (glob pattern)
	DBDir     string // keep each scenario's database here
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Golden string   `json:"golden,omitempty"` // "match", "updated" or "mismatch"
	Errors []string `json:"errors,omitempty"`
}

// ScenarioSummary holds the overall result.
type ScenarioSummary struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewScenarioCommand creates the scenario command.
func NewScenarioCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScenarioOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scenario <file|dir>",
		Short: "Run YAML scenarios",
		Long: `Run scenario files against a fresh host each.

Each scenario's steps and assertions are checked. When a golden file
named after the scenario exists, the trace must also match it byte for
byte.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  mintgate scenario ./scenarios
  mintgate scenario ./scenarios/claim.yaml --golden ./golden
  mintgate scenario ./scenarios --filter "claim*" --update
  mintgate scenario ./scenarios --db-dir ./runs --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden", "", "golden file directory (default: <scenario dir>/golden)")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by name glob")
	cmd.Flags().StringVar(&opts.DBDir, "db-dir", "", "write each scenario's database to <dir>/<name>.db")

	return cmd
}

func runScenarios(ctx context.Context, opts *ScenarioOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := os.Stat(path); err != nil {
		return WrapExitError(ExitCommandError, "scenario path not found", err)
	}
	if opts.Filter != "" {
		if _, err := filepath.Match(opts.Filter, ""); err != nil {
			return WrapExitError(ExitCommandError, "invalid filter pattern", err)
		}
	}
	scenarios, err := harness.LoadScenarios(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenarios", err)
	}
	if opts.DBDir != "" {
		if err := os.MkdirAll(opts.DBDir, 0755); err != nil {
			return WrapExitError(ExitCommandError, "failed to create database directory", err)
		}
	}

	runOpts, err := opts.harnessOptions()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	summary := ScenarioSummary{Scenarios: []ScenarioResult{}}
	for _, sc := range scenarios {
		if opts.Filter != "" {
			if ok, _ := filepath.Match(opts.Filter, sc.Name); !ok {
				continue
			}
		}
		res := runOneScenario(ctx, opts, sc, runOpts, cmd)
		summary.Scenarios = append(summary.Scenarios, res)
		summary.Total++
		if res.Pass {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}

	if opts.Format == "json" {
		return outputScenarioJSON(cmd, summary)
	}
	return outputScenarioText(cmd, summary)
}

// harnessOptions maps the configuration onto harness options.
func (o *ScenarioOptions) harnessOptions() ([]harness.Option, error) {
	cfg := o.Config
	policy, err := cfg.AdmissionPolicy()
	if err != nil {
		return nil, err
	}
	resolved, err := cfg.Resolved()
	if err != nil {
		return nil, err
	}
	shape, err := cfg.Shape()
	if err != nil {
		return nil, err
	}
	runOpts := []harness.Option{
		harness.WithLogger(o.logger()),
		harness.WithPolicy(policy),
		harness.WithResolvedPolicy(resolved),
		harness.WithQueryShape(shape),
	}
	if cfg.ChainID != "" {
		runOpts = append(runOpts, harness.WithChainID(cfg.ChainID))
	}
	if cfg.MaxDepth > 0 {
		runOpts = append(runOpts, harness.WithMaxDepth(cfg.MaxDepth))
	}
	if cfg.AddrPrefix != "" {
		runOpts = append(runOpts, harness.WithAddressPrefix(cfg.AddrPrefix))
	}
	return runOpts, nil
}

func runOneScenario(ctx context.Context, opts *ScenarioOptions, sc *harness.Scenario, runOpts []harness.Option, cmd *cobra.Command) ScenarioResult {
	w := cmd.OutOrStdout()
	text := opts.Format != "json"
	fail := func(errs ...string) ScenarioResult {
		if text {
			fmt.Fprintf(w, "✗ %s\n", sc.Name)
			for _, e := range errs {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
		return ScenarioResult{Name: sc.Name, Pass: false, Errors: errs}
	}

	if opts.DBDir != "" {
		dbPath := filepath.Join(opts.DBDir, sc.Name+".db")
		if err := os.Remove(dbPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fail(fmt.Sprintf("failed to reset database: %v", err))
		}
		runOpts = append(runOpts, harness.WithDBPath(dbPath))
	}

	opts.formatter(cmd).VerboseLog("running %s", sc.Name)
	result, err := harness.Run(ctx, sc, runOpts...)
	if err != nil {
		return fail(fmt.Sprintf("execution failed: %v", err))
	}

	goldenPath := filepath.Join(opts.goldenDir(sc), sc.Name+".golden")
	trace, err := harness.MarshalTrace(sc.Name, result)
	if err != nil {
		return fail(fmt.Sprintf("failed to marshal trace: %v", err))
	}

	golden := ""
	switch {
	case opts.Update:
		if err := writeGolden(goldenPath, trace); err != nil {
			return fail(fmt.Sprintf("failed to update golden file: %v", err))
		}
		golden = "updated"
	default:
		want, err := os.ReadFile(goldenPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// No golden file: assertions only.
		case err != nil:
			return fail(fmt.Sprintf("failed to read golden file: %v", err))
		case bytes.Equal(want, trace):
			golden = "match"
		default:
			golden = "mismatch"
		}
	}

	errs := result.Errors
	if golden == "mismatch" {
		errs = append(errs, "trace does not match golden file (run with --update to regenerate)")
	}
	if len(errs) > 0 {
		res := fail(errs...)
		res.Golden = golden
		return res
	}

	if text {
		if golden == "updated" {
			fmt.Fprintf(w, "✓ %s (golden updated)\n", sc.Name)
		} else {
			fmt.Fprintf(w, "✓ %s\n", sc.Name)
		}
	}
	return ScenarioResult{Name: sc.Name, Pass: true, Golden: golden}
}

func (o *ScenarioOptions) goldenDir(sc *harness.Scenario) string {
	if o.GoldenDir != "" {
		return o.GoldenDir
	}
	return filepath.Join(sc.Dir(), "golden")
}

// writeGolden writes the trace as the golden file.
func writeGolden(path string, trace []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, trace, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// outputScenarioJSON outputs the summary as JSON.
func outputScenarioJSON(cmd *cobra.Command, summary ScenarioSummary) error {
	response := CLIResponse{Status: "ok", Data: summary}
	if summary.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeScenarioFailed,
			Message: fmt.Sprintf("%d scenario(s) failed", summary.Failed),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}
	if summary.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", summary.Failed))
	}
	return nil
}

// outputScenarioText outputs the summary as text.
func outputScenarioText(cmd *cobra.Command, summary ScenarioSummary) error {
	w := cmd.OutOrStdout()
	if summary.Total == 0 {
		fmt.Fprintln(w, "No scenarios matched.")
		return nil
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Summary: %d passed, %d failed, %d total\n", summary.Passed, summary.Failed, summary.Total)
	if summary.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", summary.Failed))
	}
	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
