package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/tender-acquirer/internal/api"
	"github.com/JakeFAU/tender-acquirer/internal/app"
	"github.com/JakeFAU/tender-acquirer/internal/checkpoint"
	"github.com/JakeFAU/tender-acquirer/internal/config"
	"github.com/JakeFAU/tender-acquirer/internal/logging"
	"github.com/JakeFAU/tender-acquirer/internal/tender"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// Searcher is every search entry point the commands use.
type Searcher interface {
	api.Searcher
	SearchResumable(
		ctx context.Context,
		q tender.Query,
		state *tender.AcquisitionState,
	) (tender.Outcome, *tender.Checkpoint, error)
}

// App is what commands need from the application container. Tests inject
// a fake through newApp.
type App interface {
	Close(ctx context.Context) error
	Logger() *zap.Logger
	Config() config.Config
	Searcher() Searcher
	Checkpoints() checkpoint.Manager
}

type services struct {
	*app.App
}

func (s services) Searcher() Searcher { return s.Acquirer() }

// newApp is the application factory. It's a variable so tests can replace it.
var newApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (App, error) {
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return services{a}, nil
}

// newLogger is replaced in tests to keep output quiet.
var newLogger = logging.New

func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "tender-acquirer",
		Short: "Downloads and parses public procurement archives.",
		Long: `tender-acquirer queries the procurement document service for the archives
published for a region and date, downloads them, and extracts tender notices
into structured records.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := newLogger(logging.Options{
				Development: cfg.Logging.Development,
				Level:       cfg.Logging.Level,
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			appInstance, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), 10*time.Second)
			defer cancel()
			return appInstance.Close(ctx)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml, /etc/tender-acquirer, $HOME/.tender-acquirer)")

	cmd.AddCommand(newSearchCmd(), newResumeCmd(), newServeCmd())
	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point. SIGINT and SIGTERM cancel the running command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "tender-acquirer: %v\n", err)
		stop()
		os.Exit(1)
	}
}
