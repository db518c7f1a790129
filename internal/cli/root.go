// Package cli implements the temporal-events CLI commands.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/rcliao/temporal-events/internal/config"
	"github.com/rcliao/temporal-events/internal/observability"
	"github.com/rcliao/temporal-events/internal/store"
	"github.com/spf13/cobra"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	configPath  string
	backendFlag string
	dbPath      string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "temporal-events",
	Short: "Store and query temporal events",
	Long:  "Create, query and serve events extracted from text, keyed by owner. SQLite, PostgreSQL, Firestore or in-memory backed.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $TEMPORAL_EVENTS_CONFIG)")
	RootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "Backend: memory, sqlite, postgres, firestore")
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "SQLite database path (default: $TEMPORAL_EVENTS_DB or ~/.temporal-events/events.db)")
}

// loadConfig reads the config file and applies the persistent flags over it.
func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("TEMPORAL_EVENTS_CONFIG")
	}
	c, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if backendFlag != "" {
		c.Backend = backendFlag
	}
	if dbPath != "" {
		c.SQLite.Path = dbPath
	}
	return c, c.Validate()
}

func newLogger(c config.Config) (*slog.Logger, error) {
	return observability.NewLogger(os.Stderr, c.Log.Level, c.Log.Format)
}

func openStore(ctx context.Context) (*store.Store, error) {
	c, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(c)
	if err != nil {
		return nil, err
	}
	return c.OpenStore(ctx, logger)
}

func printJSON(cmd *cobra.Command, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
