// Command ecoswap drives the interception pipeline from the terminal.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ecoswap/backend/config"
	"github.com/ecoswap/backend/internal/app"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "ecoswap",
	Short: "Nudge catalog purchases towards sustainable alternatives",
	Long: "Classifies catalog items and simulates the interception pipeline against\n" +
		"a saved catalog page: the commit action is held, a decision is shown, and\n" +
		"the original action either continues or is replaced by a search.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("ECOSWAP_CONFIG"), "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline internals to stderr")
}

// cliEnv is the loaded configuration shared by every subcommand.
type cliEnv struct {
	cfg    *config.Config
	viper  *viper.Viper
	logger *slog.Logger
}

func loadRuntime(stderr io.Writer) (*cliEnv, error) {
	cfg, v, err := config.LoadFile(configPath)
	if err != nil {
		return nil, err
	}
	logCfg := cfg.Log
	if !verbose {
		logCfg.Level = "error"
	}
	return &cliEnv{cfg: cfg, viper: v, logger: app.NewLogger(stderr, logCfg)}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
