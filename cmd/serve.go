package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/KaramelBytes/callpulse/internal/menu"
	"github.com/KaramelBytes/callpulse/internal/transport/httpapi"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis menu over HTTP",
	Example: `  callpulse serve --addr :8080
  curl -XPOST localhost:8080/v1/conversations/c1/intents -d '{"intent":"run:sentiment"}'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		addr := cfg.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		if !debug {
			gin.SetMode(gin.ReleaseMode)
		}
		m := menu.New(a.registry, a.log.Named("menu"))
		srv := &http.Server{
			Addr:              addr,
			Handler:           httpapi.NewHandler(m, a.registry, a.log.Named("http")).Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			a.log.Info("listening", zap.String("addr", addr))
			errCh <- srv.ListenAndServe()
		}()
		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		case <-ctx.Done():
		}
		// in-flight analyses get one more timeout window to finish
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTPTimeoutSec)*time.Second)
		defer cancel()
		a.log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides listen_addr)")
}
