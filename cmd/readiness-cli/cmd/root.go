package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"readiness-workers/internal/app"
	"readiness-workers/internal/common/config"
	"readiness-workers/internal/common/logger"
)

const cliName = "readiness-cli"

var (
	// Used for flags.
	cfgFile string
	debug   bool
	jsonLog bool

	rootCmd = &cobra.Command{
		Use:           cliName,
		Short:         "readiness-cli runs career readiness operations outside of a workflow",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is configs/config.yaml or environment only)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&jsonLog, "json", "j", false, "json format for logging")
}

func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFromFile(cfgFile)
	}
	return config.Load()
}

func newLogger(cfg *config.Config) (*zap.Logger, logger.Logger) {
	level, format := cfg.Logging.Level, "console"
	if debug {
		level = "debug"
	}
	if jsonLog {
		format = "json"
	}
	z := logger.New(level, format)
	return z, logger.NewZapAdapter(z)
}

// withApp connects the services a command needs and closes them afterwards.
func withApp(cmd *cobra.Command, opts app.Options, fn func(ctx context.Context, svc *app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	zapLog, log := newLogger(cfg)
	defer zapLog.Sync()

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	opts.ServiceName = cliName
	svc, err := app.New(ctx, cfg, log, opts)
	if err != nil {
		return err
	}
	defer svc.Close()

	return fn(ctx, svc)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
