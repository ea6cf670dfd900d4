package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fundwire/ledgerd/internal/api"
	"github.com/fundwire/ledgerd/internal/infra/logging"
	"github.com/fundwire/ledgerd/internal/infra/pgutils"
	"github.com/fundwire/ledgerd/internal/infra/redisutils"
	"github.com/fundwire/ledgerd/internal/notify"
	"github.com/fundwire/ledgerd/internal/services/identity"
	"github.com/fundwire/ledgerd/internal/services/ledger"
	"github.com/fundwire/ledgerd/pkg/envconf"
	"github.com/fundwire/ledgerd/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	cfg := new(apiConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Infra ---
	dbConns, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	shutdownqueue.Add(func(context.Context) error {
		slog.Info("Close database pool")

		return dbConns.Close()
	})

	redisClient, err := redisutils.Open(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("open redis: %w", err)
	}

	shutdownqueue.Add(func(context.Context) error {
		slog.Info("Close redis client")

		return redisClient.Close()
	})

	// --- Services ---
	fanout := notify.NewRedisFanout(redisClient)
	ledgerSvc := ledger.New(dbConns, cfg.Ledger, fanout)
	identitySvc := identity.New(dbConns, cfg.Auth, cfg.Ledger)

	// --- HTTP server ---
	srv := api.NewServer(cfg.Port, identitySvc, ledgerSvc, fanout)

	shutdownqueue.Add(func(c context.Context) error {
		slog.Info("Shut down server")

		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("API started", "port", cfg.Port)

	select {
	case <-ctx.Done():
		// graceful path; deferred shutdownqueue.Shutdown will run
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}
