package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KaramelBytes/trendloom/internal/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	serveAddr       string
	serveSessionTTL time.Duration
	serveSource     sourceFlags
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload, statistics, trend and edit API over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := config()
		popt, err := serveSource.options()
		if err != nil {
			return err
		}
		addr := c.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		log := newLogger()

		srv := server.New(server.Options{
			MaxUploadBytes: int64(c.MaxUploadMB) << 20,
			HeadRows:       c.HeadRows,
			Parse:          popt,
			Metrics:        c.MetricsEnabled,
			Logger:         log,
		})
		httpSrv := &http.Server{
			Addr:              addr,
			Handler:           srv.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		g, ctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			log.Info("listening", slog.String("addr", addr), slog.Bool("metrics", c.MetricsEnabled))
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			log.Info("shutting down")
			return httpSrv.Shutdown(shutdownCtx)
		})
		g.Go(func() error {
			return srv.PruneLoop(ctx, time.Minute, serveSessionTTL)
		})
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config listen_addr)")
	serveCmd.Flags().DurationVar(&serveSessionTTL, "session-ttl", 2*time.Hour, "drop sessions idle for longer than this")
	serveSource.register(serveCmd)
}
