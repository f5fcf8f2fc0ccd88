package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/grzegorzmaniak/fieldguard/api"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	serveAddress string
	serveWarm    bool
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddress, "address", "", "Overrides server.address")
	serveCmd.Flags().BoolVar(&serveWarm, "warm", true, "Resolve every rule before accepting requests")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()
	defer zap.L().Sync()

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	if serveAddress != "" {
		cfg.Server.Address = serveAddress
	}

	if serveWarm {
		if err := rt.Engine.Initialize(ctx); err != nil {
			zap.L().Warn("Some rules could not be resolved at startup", zap.Error(err))
		}
	}

	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           api.NewRouter(&api.Routes{Metrics: rt.Metrics}, rt.Engine),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	zap.L().Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
