package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/playback-monitor/internal/identity"
	"github.com/pfrederiksen/playback-monitor/internal/logger"
	"github.com/pfrederiksen/playback-monitor/internal/monitor"
	"github.com/pfrederiksen/playback-monitor/internal/playback"
	"github.com/pfrederiksen/playback-monitor/internal/upstream"
)

const shutdownTimeout = 5 * time.Second

var (
	flagUpstreamURL      string
	flagDiagAddr         string
	flagResolverURL      string
	flagLogLevel         string
	flagRegisterInterval time.Duration
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg, cfgErr := LoadConfig()

	cmd := &cobra.Command{
		Use:   "playback-monitord",
		Short: "Track active audio players and their recency order",
		Long: `A daemon that tracks which audio players are active, keeps clients
ordered by most recent activation (head of the list is the client that should
receive hardware media-button events), and logs every player state transition.
Snapshots arrive from the playback service over a websocket; state is exposed
on a diagnostic HTTP endpoint.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfgErr != nil {
				return cfgErr
			}
			return runDaemon()
		},
	}

	// Flags default to the environment-derived config.
	cmd.Flags().StringVar(&flagUpstreamURL, "upstream-url", cfg.UpstreamURL, "Playback service websocket URL (env: PM_UPSTREAM_URL)")
	cmd.Flags().StringVar(&flagDiagAddr, "diag-addr", cfg.DiagAddr, "Diagnostic HTTP listen address (env: PM_DIAG_ADDR)")
	cmd.Flags().StringVar(&flagResolverURL, "resolver-url", cfg.ResolverURL, "Registry service URL for client names (env: PM_RESOLVER_URL)")
	cmd.Flags().StringVar(&flagLogLevel, "log-level", cfg.LogLevel, "Minimum log level (env: PM_LOG_LEVEL)")
	cmd.Flags().DurationVar(&flagRegisterInterval, "register-interval", cfg.RegisterInterval, "Upstream registration retry interval (env: PM_REGISTER_INTERVAL)")

	cmd.AddCommand(newStateCmd(cfg))

	return cmd
}

// runDaemon wires the monitor to the playback service and serves diagnostics
// until interrupted.
func runDaemon() error {
	logger.SetDefault(logger.New(logger.ParseLevel(flagLogLevel), os.Stdout))

	var resolver identity.Resolver = identity.Static{}
	if flagResolverURL != "" {
		resolver = identity.NewHTTPResolver(flagResolverURL)
	}

	mon := monitor.New()

	sock := upstream.NewSocket(flagUpstreamURL)
	defer sock.Close()

	// Log every transition so operators can follow playback activity.
	sub := mon.Register(monitor.ListenerFunc(func(cfg playback.PlayerConfig, removed bool) {
		logger.Info("player state changed", logger.Fields{
			"interface": int32(cfg.InterfaceID),
			"client":    int32(cfg.ClientID),
			"active":    cfg.Active,
			"removed":   removed,
		})
	}))
	defer mon.Unregister(sub)

	mon.EnsureRegistered(sock)

	httpSrv := &http.Server{
		Addr:    flagDiagAddr,
		Handler: newDiagServer(mon, resolver).routes(),
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpSrv.ListenAndServe()
	}()
	logger.Info("diagnostic endpoint listening", logger.Fields{"addr": flagDiagAddr})

	retry := time.NewTicker(flagRegisterInterval)
	defer retry.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-retry.C:
			if !mon.Registered() {
				mon.EnsureRegistered(sock)
			}
		case err := <-serveErr:
			if err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("diagnostic server: %w", err)
			}
			return nil
		case s := <-sig:
			logger.Info("shutting down", logger.Fields{"signal": s.String()})
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := httpSrv.Shutdown(ctx); err != nil {
				logger.Warn("diagnostic server shutdown", logger.Fields{"error": err.Error()})
			}
			return nil
		}
	}
}
