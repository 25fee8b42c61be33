package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/litellm-tools/spanstrap/internal/config"
	"github.com/litellm-tools/spanstrap/pkg/logger"
)

// Build information variables, set via -ldflags at release time.
var (
	Version   = "dev"     // Default version for development
	GitCommit = "unknown" // Git commit hash
	BuildTime = "unknown" // Build timestamp
)

var log = logger.New("spanstrap", Version)

// printVersionInfo displays detailed version information
func printVersionInfo() {
	fmt.Printf("spanstrap v%s (build %s)\n", Version, GitCommit)
	fmt.Printf("Built: %s\n", BuildTime)
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "spanstrap",
	Short: "Provision the LiteLLM token database on Cloud Spanner",
	Long: "spanstrap probes a Cloud Spanner instance, creates the LiteLLM token database " +
		"(PostgreSQL dialect) when absent, applies the table and index DDL in ordered batches, " +
		"verifies the catalog, and exercises sample read/write operations. " +
		"Configuration comes from the environment: GOOGLE_CLOUD_PROJECT, SPANNER_INSTANCE_ID, " +
		"SPANNER_DATABASE_ID, GOOGLE_APPLICATION_CREDENTIALS.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Lookup("version").Changed {
			printVersionInfo()
			return nil
		}
		return cmd.Help()
	},
}

// loadConfig reads and validates the environment configuration.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	log.Infof("target: %s", cfg.DatabasePath())
	return cfg, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().Bool("version", false, "Show version information and exit")
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	setupCommands()
}

func main() {
	Execute()
}
