package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/roach88/mintgate/internal/domain"
	"github.com/roach88/mintgate/internal/domain/grpcdomain"
)

// ServeOptions holds flags for the serve-domain command.
type ServeOptions struct {
	*RootOptions
	Listen   string
	Fixtures string
}

// NewServeDomainCommand creates the serve-domain command.
func NewServeDomainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve-domain",
		Short: "Serve fixture-backed domain queries over gRPC",
		Long: `Serve the domain query service over gRPC, answering from a fixtures file.

SIGHUP reloads the fixtures file. SIGINT or SIGTERM stops the server
after in-flight queries finish.

Examples:
  mintgate serve-domain --fixtures ./fixtures.yaml
  mintgate serve-domain --listen 0.0.0.0:9090 --fixtures ./fixtures.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServeDomain(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", "", "listen address (default from config)")
	cmd.Flags().StringVar(&opts.Fixtures, "fixtures", "", "fixtures file (default from config)")
	return cmd
}

func runServeDomain(cmd *cobra.Command, opts *ServeOptions) error {
	addr := opts.Listen
	if addr == "" {
		addr = opts.Config.ListenAddr
	}
	path := opts.Fixtures
	if path == "" {
		path = opts.Config.Fixtures
	}

	svc, err := loadService(path, opts.RootOptions)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load fixtures", err)
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go reloadOnSignal(ctx, hup, svc, path, opts.logger())

	fmt.Fprintf(cmd.OutOrStdout(), "serving domain queries on %s\n", lis.Addr())
	if err := serveDomain(ctx, lis, svc, opts.logger()); err != nil {
		return WrapExitError(ExitFailure, "domain server failed", err)
	}
	return nil
}

// serveDomain serves svc on lis until ctx is done, then stops gracefully.
func serveDomain(ctx context.Context, lis net.Listener, svc *domain.Service, logger *slog.Logger) error {
	srv := grpc.NewServer()
	grpcdomain.RegisterQueryServer(srv, &grpcdomain.Server{Channel: svc})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(lis)
	}()
	logger.Info("domain service started", "addr", lis.Addr().String())

	select {
	case <-ctx.Done():
		logger.Info("domain service stopping")
		srv.GracefulStop()
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}

// reloadOnSignal swaps in freshly loaded fixtures on each signal. A file
// that fails to load leaves the current fixtures in place.
func reloadOnSignal(ctx context.Context, sig <-chan os.Signal, svc *domain.Service, path string, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
			if path == "" {
				continue
			}
			f, err := domain.LoadFixtures(path)
			if err != nil {
				logger.Error("fixture reload failed", "path", path, "error", err)
				continue
			}
			svc.Replace(f)
			logger.Info("fixtures reloaded", "path", path)
		}
	}
}
