package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/okian/scoreboard/internal/adapters/http/api"
	"github.com/okian/scoreboard/internal/adapters/http/site"
	"github.com/okian/scoreboard/internal/adapters/http/swagger"
	"github.com/okian/scoreboard/internal/adapters/surface"
	service "github.com/okian/scoreboard/internal/app"
	"github.com/okian/scoreboard/pkg/logger"
	"github.com/okian/scoreboard/pkg/metrics"
	"github.com/spf13/cobra"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 10 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

type serveFlags struct {
	addr string
	file string
	root string
}

func newServeCommand(rt *commandRuntime) *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the editor API and the browser display",
		Long: `Serve the JSON editor API, the browser display at /display/ and the
API docs at /api-docs. Reveals started through POST /reveal play on every
connected display.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if f.addr == "" {
				f.addr = rt.cfg.Addr
			}
			if f.file == "" {
				f.file = rt.cfg.DataFile
			}
			return rt.serve(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVar(&f.addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&f.file, "file", "", "scoreboard to open on startup (default from config)")
	cmd.Flags().StringVar(&f.root, "root", ".", "directory API open and save paths are confined to")
	return cmd
}

func (rt *commandRuntime) serve(ctx context.Context, f serveFlags) error {
	log := rt.log.Named("serve")

	hub := surface.NewHub(surface.WithHubLogger(rt.log))
	go hub.Run(ctx)

	sess := rt.session(service.WithSurface(hub))
	if f.file != "" {
		if err := sess.Open(ctx, f.file); err != nil {
			return err
		}
		log.Info(ctx, "opened scoreboard", logger.String("file", f.file))
	}
	defer rt.stop(sess)

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	mux := http.NewServeMux()
	site.Register(ctx, mux)
	swagger.Register(ctx, mux)
	api.NewServer(sess,
		api.WithDocumentRoot(f.root),
		api.WithDefaultShape(rt.cfg.DefaultTeams, rt.cfg.DefaultCategories),
		api.WithDisplay(surface.NewHandler(ctx, hub).HandleWebSocket),
		api.WithStats("display", hub),
	).Register(ctx, mux)

	srv := &http.Server{
		Addr:              f.addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", f.addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// startSystemMetricsUpdater refreshes process gauges until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	updateSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystem(m.Alloc, runtime.NumGoroutine())
}
