// Package cli provides the Cobra-based admin CLI for the stock ledger.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/logging"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/metrics"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/bootstrap"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/config"
)

// app holds what the subcommands share. It is filled in lazily by the root
// command's PersistentPreRunE so that --help never touches the store.
type app struct {
	out io.Writer

	configFile string
	backend    string
	logLevel   string

	cfg      *config.Config
	logger   *logging.Logger
	metrics  *metrics.Metrics
	store    *bootstrap.Backend
	services *bootstrap.Services
	redis    *redis.Client
}

const shutdownTimeout = 5 * time.Second

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "stockctl",
		Short:         "Administer the Rapitienda stock ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context())
		},
	}
	root.SetOut(a.out)

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "YAML config file (defaults to $CONFIG_FILE)")
	root.PersistentFlags().StringVar(&a.backend, "store", "", "store backend: mongodb|memory")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level")

	root.AddCommand(
		newMigrateCommand(a),
		newItemCommand(a),
		newOrderCommand(a),
		newReportCommand(a),
		newOutboxCommand(a),
	)
	return root
}

// Execute runs stockctl with the process arguments
func Execute(ctx context.Context) error {
	a := &app{out: os.Stdout}
	defer a.close()
	return newRootCommand(a).ExecuteContext(ctx)
}

func (a *app) open(ctx context.Context) error {
	if a.services != nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := config.Default()
	path := a.configFile
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return err
		}
	}
	cfg.ApplyEnv()
	if a.backend != "" {
		cfg.Store.Backend = a.backend
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	lc := cfg.LoggerConfig()
	lc.ServiceName = "stockctl"
	lc.Output = os.Stderr
	a.logger = logging.New(lc)
	a.metrics = metrics.New(metrics.DefaultConfig(config.ServiceName))
	a.cfg = cfg

	store, err := bootstrap.OpenStore(ctx, cfg, a.metrics, a.logger)
	if err != nil {
		return err
	}
	a.store = store

	reportCache, client, err := bootstrap.OpenReportCache(ctx, cfg, a.logger)
	if err != nil {
		a.logger.WithError(err).Warn("Report cache unavailable, summaries will be recomputed")
	}
	a.redis = client

	services, err := bootstrap.NewServices(cfg, store, reportCache, a.metrics, a.logger)
	if err != nil {
		return err
	}
	a.services = services
	return nil
}

func (a *app) close() {
	ctx, cancel := bootstrap.ShutdownContext(shutdownTimeout)
	defer cancel()

	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.store != nil {
		if err := a.store.Close(ctx); err != nil {
			a.logger.WithError(err).Warn("Failed to close store")
		}
	}
}

func (a *app) printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, string(b))
	return err
}
