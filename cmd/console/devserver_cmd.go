package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jrsteele09/retail-console/devserver"
	"github.com/jrsteele09/retail-console/internal/config"
	tenantrepofakes "github.com/jrsteele09/retail-console/tenants/repofakes"
	fakeuserrepo "github.com/jrsteele09/retail-console/users/repofake"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownGrace = 5 * time.Second

func devServerCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "dev-server",
		Short: "Run a local console API with demo stores and accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := config.New()
			if addr == "" {
				addr = c.GetDevServerAddr()
			}
			displayAppname(c.GetAppName())

			userRepo := fakeuserrepo.NewFakeUserRepo()
			tenantRepo := tenantrepofakes.NewFakeTenantRepo()
			if err := devserver.SeedDemoData(userRepo, tenantRepo); err != nil {
				return err
			}
			handler, err := devserver.New(c, userRepo, tenantRepo)
			if err != nil {
				return err
			}
			info("Demo accounts: %s, %s (password %s)", devserver.ManagerEmail, devserver.AuditorEmail, devserver.DemoPassword)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serveUntilDone(ctx, &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (DEV_SERVER_ADDR)")
	return cmd
}

// serveUntilDone runs server until it fails or ctx ends, then drains it for up to shutdownGrace
func serveUntilDone(ctx context.Context, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("Dev server listening")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- errors.Wrap(err, "[serveUntilDone] ListenAndServe")
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "[serveUntilDone] Shutdown")
	}
	log.Info().Msg("Dev server stopped")
	return nil
}
