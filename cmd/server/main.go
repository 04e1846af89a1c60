package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/ecoswap/backend/config"
	"github.com/ecoswap/backend/internal/app"
	httpDelivery "github.com/ecoswap/backend/internal/delivery/http"
	"github.com/ecoswap/backend/internal/infrastructure/directory"
	"github.com/ecoswap/backend/internal/usecase"
)

func main() {
	configPath := flag.String("config", os.Getenv("ECOSWAP_CONFIG"), "path to config file")
	flag.Parse()

	// Load configuration
	cfg, _, err := config.LoadFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := app.NewLogger(os.Stdout, cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting ecoswap classification service",
		"version", httpDelivery.Version,
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port)

	// Supplier directory backs find_suppliers
	dir, err := directory.Load(cfg.Suppliers.Directory)
	if err != nil {
		logger.Error("failed to load supplier directory", "path", cfg.Suppliers.Directory, "error", err)
		os.Exit(1)
	}
	logger.Info("supplier directory loaded", "suppliers", dir.Len(), "builtin", cfg.Suppliers.Directory == "")

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(usecase.NewLocalClassifier(), dir, logger)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("server listening", "addr", addr, "rate_limit_per_ip", cfg.RateLimit.PerIP)

	if err := router.Run(addr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
