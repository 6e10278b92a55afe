package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/mintgate/internal/domain"
	"github.com/roach88/mintgate/internal/domain/grpcdomain"
	"github.com/roach88/mintgate/internal/query"
)

// QueryOptions holds flags for the query commands.
type QueryOptions struct {
	*RootOptions
	Shape    string
	Fixtures string
	Addr     string
}

// DecodedQuery is the decoded form of a wire envelope.
type DecodedQuery struct {
	Route  query.Route     `json:"route"`
	Op     string          `json:"op"`
	Shape  query.Shape     `json:"shape"`
	Params json.RawMessage `json:"params"`
}

// NewQueryCommand creates the query command group.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Encode, decode and send domain queries",
		Long: `Work with domain query envelopes.

Envelopes come in two shapes: adjacent, where the operation sits directly
under query_data, and wrapped, where it is nested under the route name.
The auto shape picks each route's native shape.`,
	}
	cmd.PersistentFlags().StringVar(&opts.Shape, "shape", "", "envelope shape (auto|adjacent|wrapped, default from config)")

	cmd.AddCommand(newQueryEncodeCommand(opts))
	cmd.AddCommand(newQueryDecodeCommand(opts))
	cmd.AddCommand(newQuerySendCommand(opts))
	return cmd
}

func newQueryEncodeCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "encode <route> <op> [params]",
		Short: "Print the wire envelope of a query",
		Example: `  mintgate query encode profiles profile '{"user":"desmos1abc"}'
  mintgate query encode subspaces subspace '{"subspace_id":"1"}' --shape wrapped`,
		Args:          cobra.RangeArgs(2, 3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := opts.formatter(cmd)
			wire, err := opts.encode(args)
			if err != nil {
				_ = formatter.ChainError(err)
				return WrapExitError(ExitFailure, "failed to encode query", err)
			}
			return formatter.Result(json.RawMessage(wire), string(wire))
		},
	}
}

func newQueryDecodeCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "decode <file|->",
		Short:         "Decode a wire envelope in either shape",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := opts.formatter(cmd)
			data, err := readInput(cmd, args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read envelope", err)
			}
			env, err := query.Decode(data)
			if err != nil {
				_ = formatter.ChainError(err)
				return WrapExitError(ExitFailure, "failed to decode envelope", err)
			}
			params, err := json.Marshal(env.Request)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to encode params", err)
			}
			out := DecodedQuery{
				Route:  env.Request.Route(),
				Op:     env.Request.Op(),
				Shape:  env.Shape,
				Params: params,
			}
			return formatter.Result(out, fmt.Sprintf("%s/%s (%s) %s", out.Route, out.Op, out.Shape, params))
		},
	}
}

func newQuerySendCommand(opts *QueryOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <route> <op> [params]",
		Short: "Send a query to the domain service",
		Long: `Send a query and print the raw response.

The query goes to the gRPC domain service at --addr (or domain_addr in the
configuration). Without an address it is answered in process from the
fixtures file.`,
		Args:          cobra.RangeArgs(2, 3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := opts.formatter(cmd)
			wire, err := opts.encode(args)
			if err != nil {
				_ = formatter.ChainError(err)
				return WrapExitError(ExitFailure, "failed to encode query", err)
			}
			ch, closeFn, err := opts.channel()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open domain channel", err)
			}
			defer closeFn()

			formatter.VerboseLog("sending %s", wire)
			resp, err := ch.QueryRaw(cmd.Context(), wire)
			if err != nil {
				_ = formatter.ChainError(err)
				return WrapExitError(ExitFailure, "query failed", err)
			}
			return formatter.Result(json.RawMessage(resp), string(resp))
		},
	}
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "domain service address (default from config)")
	cmd.Flags().StringVar(&opts.Fixtures, "fixtures", "", "fixtures file for the in-process service (default from config)")
	return cmd
}

// encode builds the request from route, op and optional JSON params, then
// encodes it in the selected shape.
func (o *QueryOptions) encode(args []string) ([]byte, error) {
	params := json.RawMessage(`{}`)
	if len(args) == 3 {
		params = json.RawMessage(args[2])
	}
	adjacent, err := json.Marshal(map[string]any{
		"route":      args[0],
		"query_data": map[string]json.RawMessage{args[1]: params},
	})
	if err != nil {
		return nil, fmt.Errorf("build envelope: %w", err)
	}
	env, err := query.Decode(adjacent)
	if err != nil {
		return nil, err
	}
	shape, err := o.shape()
	if err != nil {
		return nil, err
	}
	return query.Encode(query.NewEnvelope(env.Request, shape))
}

func (o *QueryOptions) shape() (query.Shape, error) {
	if o.Shape != "" {
		return query.ParseShape(o.Shape)
	}
	return o.Config.Shape()
}

// channel returns the configured domain channel and its close function.
func (o *QueryOptions) channel() (query.Channel, func(), error) {
	addr := o.Addr
	if addr == "" {
		addr = o.Config.DomainAddr
	}
	if addr != "" {
		client, err := grpcdomain.Dial(addr, grpcdomain.DialOptions{Timeout: o.Config.DomainTimeout})
		if err != nil {
			return nil, nil, err
		}
		return client, func() { _ = client.Close() }, nil
	}

	svc, err := loadService(o.fixturesPath(), o.RootOptions)
	if err != nil {
		return nil, nil, err
	}
	return svc, func() {}, nil
}

func (o *QueryOptions) fixturesPath() string {
	if o.Fixtures != "" {
		return o.Fixtures
	}
	return o.Config.Fixtures
}

// loadService builds the in-process domain service. An empty path serves
// no data.
func loadService(path string, opts *RootOptions) (*domain.Service, error) {
	var fixtures *domain.Fixtures
	if path != "" {
		f, err := domain.LoadFixtures(path)
		if err != nil {
			return nil, err
		}
		fixtures = f
	}
	return domain.NewService(fixtures, domain.WithLogger(opts.logger())), nil
}
