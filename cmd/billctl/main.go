// Command billctl runs the People's Bill pipeline from a terminal: clustering
// runs, clause drafting and statistics against the configured database, or a
// self-contained demo against an in-memory store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"peoples-bill-be/internal/bootstrap"
	"peoples-bill-be/internal/config"
	"peoples-bill-be/internal/pkg/logger"
	"peoples-bill-be/internal/repository/unitofwork"
	"peoples-bill-be/pkg/database"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "billctl",
	Short:         "Administer the People's Bill pipeline",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline internals to stderr")
	rootCmd.AddCommand(clusterCmd, clauseCmd, statsCmd, demoCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func cliLogger() logger.ILogger {
	if verbose {
		return logger.NewConsoleLogger(zapcore.DebugLevel)
	}
	return logger.NewConsoleLogger(zapcore.WarnLevel)
}

// openPipeline wires the services against the configured PostgreSQL database.
func openPipeline(ctx context.Context) (*bootstrap.Pipeline, error) {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		return nil, fmt.Errorf("DB_CONNECTION_STRING is not set")
	}
	level := gormlogger.Warn
	if verbose {
		level = gormlogger.Info
	}
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, level)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return bootstrap.NewPipeline(ctx, cfg, unitofwork.NewRepositoryFactory(db), bootstrap.PipelineDeps{}, cliLogger())
}
