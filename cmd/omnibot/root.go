package main

import (
	"fmt"
	"os"

	"github.com/aretw0/omnibot/internal/cli"
	"github.com/aretw0/omnibot/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "omnibot",
	Short: "Omnibot runs scripted customer-service chatbot flows",
	Long: `Omnibot executes chatbot flows (menus, data collection, ERP lookups and
write actions) and hands conversations over to human queues.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("env-file", ".env", "Dotenv file read before the environment")
	rootCmd.PersistentFlags().String("flows", "", "Flow file or directory (overrides OMNIBOT_FLOWS)")
	rootCmd.PersistentFlags().String("active", "", "Active flow id (overrides OMNIBOT_ACTIVE_FLOW)")
	rootCmd.PersistentFlags().String("actions", "", "Write-action catalog file (overrides OMNIBOT_ACTIONS)")
	rootCmd.PersistentFlags().String("log-level", "", "debug, info, warn or error (overrides OMNIBOT_LOG_LEVEL)")
}

// loadConfig reads the env file and environment, then applies flags that were set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Config{}, err
	}

	override := func(flag string, dst *string) {
		if cmd.Flags().Changed(flag) {
			*dst, _ = cmd.Flags().GetString(flag)
		}
	}
	override("flows", &cfg.FlowsPath)
	override("active", &cfg.ActiveFlow)
	override("actions", &cfg.Actions)
	override("log-level", &cfg.LogLevel)
	return cfg, cfg.Validate()
}

// buildStack loads the configuration and wires the engine.
func buildStack(cmd *cobra.Command) (*cli.Stack, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := cli.NewLogger(os.Stderr, cfg)
	if err != nil {
		return nil, err
	}
	return cli.Build(cmd.Context(), cfg, logger)
}
