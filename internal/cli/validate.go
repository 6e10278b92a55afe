package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/mintgate/internal/msgschema"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Kind  msgschema.Kind `json:"kind"`
	Valid bool           `json:"valid"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <kind> <file|->",
		Short: "Validate a component message against its schema",
		Long: `Validate a JSON message against the schema of one component entry point.

Kinds are named <component>.<entry point>, for example manager.execute or
poap.query. Use - to read the message from stdin.

Exit codes:
  0 - Message is valid
  1 - Message is invalid
  2 - Command error (unknown kind, unreadable file)`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], args[1], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, kindName, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	kind, err := msgschema.ParseKind(kindName)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), map[string]any{"kinds": msgschema.Kinds()})
		return WrapExitError(ExitCommandError, "unknown message kind", err)
	}
	msg, err := readInput(cmd, path)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read message", err)
	}

	v, err := msgschema.New()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to compile schemas", err)
	}
	formatter.VerboseLog("validating %d bytes as %s", len(msg), kind)

	if err := v.Validate(kind, msg); err != nil {
		_ = formatter.ChainError(err)
		return WrapExitError(ExitFailure, "message is invalid", err)
	}
	return formatter.Result(ValidationResult{Kind: kind, Valid: true}, fmt.Sprintf("✓ valid %s message", kind))
}

// readInput reads path, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
