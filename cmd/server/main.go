package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"ebook_checkout/internal/config"
)

var Version = "dev"

func main() {
	cfg := config.Load()
	setupLogger(cfg.LogLevel)

	rootCmd := &cobra.Command{
		Use:     "server",
		Short:   "Ebook checkout: mobile-money payment initiation and status polling",
		Version: Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg)
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd(cfg))
	rootCmd.AddCommand(checkCmd(cfg))
	rootCmd.AddCommand(transactionsCmd(cfg))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogger(level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
