package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"github.com/Yasin4161/Internet-download-agent/config"
	"github.com/Yasin4161/Internet-download-agent/fetch"
	"github.com/Yasin4161/Internet-download-agent/gateway"
	"github.com/Yasin4161/Internet-download-agent/handler"
	"github.com/Yasin4161/Internet-download-agent/metrics"
	"github.com/Yasin4161/Internet-download-agent/storage"
)

// version is set at build time via ldflags.
var version = "dev"

const shutdownTimeout = 30 * time.Second

var (
	flagConfig string
	cfg        *config.Config
	logger     *slog.Logger
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "gateway",
		Short:             "Video download gateway",
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
		RunE:              serveRun,
	}
	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "TOML config file")
	root.PersistentFlags().Int("port", 3000, "HTTP port")
	root.PersistentFlags().String("provider", config.ProviderYoutube, "stream provider: youtube | ytdlp")
	root.PersistentFlags().String("log-level", "info", "log level: debug | info | warn | error")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP gateway (default)",
			Args:  cobra.NoArgs,
			RunE:  serveRun,
		},
		newFormatsCmd(),
		&cobra.Command{
			Use:               "version",
			Short:             "Print the version",
			PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version)
			},
		},
	)

	return root
}

// loadConfig merges defaults < config file < environment < flags.
func loadConfig(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(afero.NewOsFs(), flagConfig, cmd.Flags())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err = newLogger(cfg)
	return err
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
}

func newProvider(cfg *config.Config, logger *slog.Logger) gateway.Provider {
	if cfg.Provider == config.ProviderYtDlp {
		return fetch.NewYtDlp(cfg.YtDlpPath, logger)
	}
	return fetch.NewYoutube(fetch.NewHTTPClient(cfg.ProviderTimeout), logger)
}

// openJournal returns a nil repository when no journal is configured.
func openJournal(cfg *config.Config) (storage.DownloadRepository, func() error, error) {
	noop := func() error { return nil }
	if cfg.JournalDriver == config.JournalNone {
		return nil, noop, nil
	}

	db, err := sql.Open(cfg.JournalDriver, cfg.JournalDSN)
	if err != nil {
		return nil, noop, fmt.Errorf("opening %s journal: %w", cfg.JournalDriver, err)
	}

	switch cfg.JournalDriver {
	case config.JournalPostgres:
		postgres, err := storage.NewPostgres(db)
		if err != nil {
			db.Close()
			return nil, noop, fmt.Errorf("unable to migrate postgres: %w", err)
		}
		return storage.NewPostgresDownloadRepository(postgres), db.Close, nil
	default:
		sqlite, err := storage.NewSQLite(db)
		if err != nil {
			db.Close()
			return nil, noop, fmt.Errorf("unable to migrate sqlite: %w", err)
		}
		return storage.NewSQLiteDownloadRepository(sqlite), db.Close, nil
	}
}

func serveRun(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	gwConfig := gateway.Config{
		Provider:        newProvider(cfg, logger),
		ProviderTimeout: cfg.ProviderTimeout,
		Metrics:         m,
	}

	if cfg.YoutubeAPIKey != "" {
		dataAPI, err := fetch.NewDataAPI(ctx, cfg.YoutubeAPIKey, logger)
		if err != nil {
			logger.Error("unable to create youtube service", slog.String("err", err.Error()))
			return err
		}
		gwConfig.Enricher = dataAPI
	}

	downloadRepo, closeJournal, err := openJournal(cfg)
	if err != nil {
		logger.Error("unable to open download journal", slog.String("err", err.Error()))
		return err
	}
	defer closeJournal()
	if downloadRepo != nil {
		gwConfig.Journal = downloadRepo
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler.NewServer(gateway.New(gwConfig, logger), downloadRepo, m, cfg.CORSOrigins, logger),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()
	logger.Info("http server started",
		slog.Int("port", cfg.Port),
		slog.String("provider", cfg.Provider),
		slog.String("journal", cfg.JournalDriver),
		slog.String("version", version),
	)

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", slog.String("err", err.Error()))
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("downloads still running at shutdown, closing them", slog.String("err", err.Error()))
		server.Close()
	}

	logger.Info("service stopped")
	return nil
}
