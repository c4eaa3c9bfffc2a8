package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/catalog-sync/internal/adapters/driving/inbox"
	"github.com/custodia-labs/catalog-sync/internal/logger"
)

var (
	inboxRate        int
	inboxOnce        bool
	inboxMetricsAddr string
)

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Apply index files dropped into a directory",
}

var inboxWatchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory for verified index files",
	Long: `Applies index files named <repo>-full-<version>.json or
<repo>-diff-<base>-<version>.json. Applied files move to done/, all others
to failed/. The directory defaults to inbox.dir from config.toml. While
watching, installed apps are checked for updates every
updates.check_interval.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInboxWatch,
}

func init() {
	inboxWatchCmd.Flags().IntVar(&inboxRate, "rate", -1, "files applied per second, 0 for unlimited (default from config)")
	inboxWatchCmd.Flags().BoolVar(&inboxOnce, "once", false, "apply pending files and exit")
	inboxWatchCmd.Flags().StringVar(&inboxMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	inboxCmd.AddCommand(inboxWatchCmd)
	rootCmd.AddCommand(inboxCmd)
}

func runInboxWatch(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	opts := inbox.Options{Rate: inboxRate}
	var dir string
	if len(args) == 1 {
		dir = args[0]
	}
	if settingsService != nil && (dir == "" || inboxRate < 0) {
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		if dir == "" {
			dir = settings.Inbox.Dir
		}
		if inboxRate < 0 {
			opts.Rate = settings.Inbox.Rate
		}
	}
	if dir == "" {
		return errors.New("no inbox directory, pass one or set inbox.dir")
	}
	if opts.Rate < 0 {
		opts.Rate = 0
	}

	w, err := inbox.NewWatcher(dir, indexService, opts)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	if inboxOnce {
		return w.ProcessPending(ctx)
	}

	if inboxMetricsAddr != "" {
		stop := serveMetrics(ctx, inboxMetricsAddr)
		defer stop()
	}
	cmd.Printf("Watching %s, press Ctrl+C to stop\n", dir)
	logger.SetTimestamps(true)
	defer logger.SetTimestamps(false)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(ctx) })
	if schedulerService != nil {
		g.Go(func() error { return schedulerService.Start(ctx) })
	}
	return g.Wait()
}

// serveMetrics exposes the default Prometheus registry until stop is called.
func serveMetrics(ctx context.Context, addr string) (stop func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Serving metrics on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Metrics server failed: %v", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx) //nolint:errcheck // best effort on exit
	}
}
