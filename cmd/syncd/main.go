package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/888MAXiM/meetzy-frontend-sub001/internal/config"
	"github.com/888MAXiM/meetzy-frontend-sub001/internal/engine"
	"github.com/888MAXiM/meetzy-frontend-sub001/internal/logger"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "syncd",
		Short: "Headless meetzy sync engine",
		Long: "syncd connects to the meetzy server, keeps a local conversation\n" +
			"model in sync with the push event stream and exposes it over a\n" +
			"local status API.",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")

	root.AddCommand(runCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect and sync until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			// local .env overrides are optional
			_ = godotenv.Load()

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			log, err := logger.New(logger.Config{Development: cfg.Log.Development, Level: cfg.Log.Level})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() { _ = log.Sync() }()

			eng, err := engine.New(cfg, log, engine.Options{})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return eng.Run(ctx)
		},
	}
}
