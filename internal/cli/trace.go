package cli

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/mintgate/internal/chain"
	"github.com/roach88/mintgate/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Contract string
	Status   string
	Events   bool
}

// TraceResult holds the trace output.
type TraceResult struct {
	Txs   []store.TxRecord `json:"txs"`
	Stats TraceStats       `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Total     int `json:"total"`
	Committed int `json:"committed"`
	Failed    int `json:"failed"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the tx log of a host database",
		Long: `Show the tx log recorded by a host database.

Every top-level instantiate and execute is logged in order, committed or
failed, with the events it emitted.

Examples:
  mintgate trace --db ./runs/claim.db
  mintgate trace --db ./runs/claim.db --contract manager1 --status failed
  mintgate trace --db ./runs/claim.db --events --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.Contract, "contract", "", "only calls addressed to this contract")
	cmd.Flags().StringVar(&opts.Status, "status", "", "only calls with this status (committed|failed)")
	cmd.Flags().BoolVar(&opts.Events, "events", false, "include events in text output")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	path := opts.Database
	if path == "" {
		path = opts.Config.DB
	}
	if path == "" || path == ":memory:" {
		return NewExitError(ExitCommandError, "--db must name a database file")
	}
	if opts.Status != "" && !slices.Contains([]string{store.StatusCommitted, store.StatusFailed}, opts.Status) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid status %q: must be committed or failed", opts.Status))
	}
	// Open would create a missing file.
	if _, err := os.Stat(path); err != nil {
		return WrapExitError(ExitCommandError, "database not found", err)
	}

	st, err := store.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	recs, err := st.ReadTxs(cmd.Context(), chain.Addr(opts.Contract))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read tx log", err)
	}

	result := TraceResult{Txs: []store.TxRecord{}}
	for _, rec := range recs {
		if opts.Status != "" && rec.Status != opts.Status {
			continue
		}
		result.Txs = append(result.Txs, rec)
		result.Stats.Total++
		if rec.Status == store.StatusCommitted {
			result.Stats.Committed++
		} else {
			result.Stats.Failed++
		}
	}
	formatter.VerboseLog("read %d of %d tx records from %s", result.Stats.Total, len(recs), path)

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	outputTraceText(cmd, opts, result)
	return nil
}

func outputTraceText(cmd *cobra.Command, opts *TraceOptions, result TraceResult) {
	w := cmd.OutOrStdout()
	if result.Stats.Total == 0 {
		fmt.Fprintln(w, "No transactions found.")
		return
	}
	for _, rec := range result.Txs {
		mark := "✓"
		if rec.Status == store.StatusFailed {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s #%d %s %s %s -> %s (height %d)\n",
			mark, rec.Seq, rec.TxID, rec.Kind, rec.Sender, rec.Contract, rec.Height)
		if rec.Status == store.StatusFailed {
			fmt.Fprintf(w, "    [%s] %s\n", rec.ErrorCode, rec.Error)
		}
		if opts.Events {
			for _, ev := range rec.Events {
				fmt.Fprintf(w, "    %s", ev.Type)
				for _, a := range ev.Attributes {
					fmt.Fprintf(w, " %s=%s", a.Key, a.Value)
				}
				fmt.Fprintln(w)
			}
		}
	}
	fmt.Fprintf(w, "\n%d transactions: %d committed, %d failed\n",
		result.Stats.Total, result.Stats.Committed, result.Stats.Failed)
}
