// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package serve implements the "serve" command.
package serve

import (
	"context"
	"errors"
	"net/http"
	"time"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/subctl/cmd/subctl/internal/subctlcmd"
	"github.com/bufdev/subctl/internal/subctl/subctlserver"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

const (
	// addressFlagName is the flag name for the listen address.
	addressFlagName = "address"
	// shutdownTimeout bounds how long in-flight requests may take after an interrupt.
	shutdownTimeout = 10 * time.Second
)

// NewCommand returns a new serve command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Serve the subscription HTTP API",
		Long: `Serve the subscription HTTP API.

Routes:
  GET    /v1/overview?period=&currency=
  GET    /v1/subscriptions
  POST   /v1/subscriptions
  GET    /v1/subscriptions/{id}
  PUT    /v1/subscriptions/{id}
  DELETE /v1/subscriptions/{id}
  GET    /v1/preferences/reporting-currency
  PUT    /v1/preferences/reporting-currency
  GET    /v1/currencies
  GET    /v1/stats
  GET    /metrics`,
		Args: appcmd.NoArgs,
		Run: builder.NewRunFunc(
			func(ctx context.Context, container appext.Container) error {
				return run(ctx, container, flags)
			},
		),
		BindFlags: flags.Bind,
	}
}

type flags struct {
	// Dir is the subctl directory containing subctl.yaml.
	Dir string
	// Address is the listen address.
	Address string
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, subctlcmd.DirFlagName, ".", subctlcmd.DirFlagUsage)
	flagSet.StringVar(&f.Address, addressFlagName, "localhost:8080", "The address to listen on")
}

func run(ctx context.Context, container appext.Container, flags *flags) (retErr error) {
	if flags.Address == "" {
		return appcmd.NewInvalidArgumentErrorf("--%s is required", addressFlagName)
	}
	runtime, err := subctlcmd.NewRuntime(ctx, container, flags.Dir)
	if err != nil {
		return err
	}
	defer func() {
		retErr = errors.Join(retErr, runtime.Close())
	}()
	if err := runtime.SeedReportingCurrency(ctx); err != nil {
		return err
	}
	logger := container.Logger()
	server := subctlserver.NewServer(
		logger,
		runtime.Store,
		runtime.Engine,
		subctlserver.ServerWithViewPeriod(runtime.Config.ViewPeriod),
		subctlserver.ServerWithMetrics(runtime.Metrics),
	)
	defer server.Close()
	httpServer := &http.Server{
		Addr:              flags.Address,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		logger.Info("serving", "address", flags.Address, "storage_backend", runtime.Config.StorageBackend)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}
