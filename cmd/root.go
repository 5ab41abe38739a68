package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/finsight/finchat/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "finchat",
	Short: "Financial Q&A assistant over an earnings-report corpus",
	Long:  "Routes questions between a research agent that retrieves similar report excerpts and a math agent that evaluates the resulting arithmetic.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
