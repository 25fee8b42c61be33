package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/litellm-tools/spanstrap/internal/config"
	"github.com/litellm-tools/spanstrap/internal/database/spanner"
	"github.com/litellm-tools/spanstrap/internal/schema"
	"github.com/litellm-tools/spanstrap/internal/workflow"
	"github.com/litellm-tools/spanstrap/pkg/dbadapter"
)

var (
	skipSamples bool
	batchSize   int
)

// setupCmd runs the full pipeline: probe, create database, apply schema,
// verify, samples.
var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the database and apply the LiteLLM schema",
	Long: "Probe the configured instance, create the token database (PostgreSQL dialect) if it " +
		"does not exist, apply all table and index DDL in ordered batches, verify the catalog, " +
		"and run a sample write/read/delete cycle.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		runner := newRunner(cfg)
		result, err := runner.Run(cmd.Context(), workflow.Options{
			Provision:   true,
			SkipSamples: skipSamples,
			BatchSize:   batchSize,
			DriverCheck: spanner.DriverPing,
		})
		if err != nil {
			return err
		}
		log.Infof("setup complete: %d tables verified", len(result.Report.Present))
		return printProxyConfig(cfg)
	},
}

// probeCmd checks connectivity without mutating anything.
var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check instance, database, and liveness without changing anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		prober := workflow.NewProber(dbadapter.GlobalRegistry(), log)
		res := prober.Probe(cmd.Context(), cfg.Instance(), cfg.Target())
		defer closeProbe(res)

		log.Infof("probe outcome: %s", res.Outcome)
		if res.Outcome != workflow.OutcomeReady {
			if res.Err != nil {
				return fmt.Errorf("probe: %s: %w", res.Outcome, res.Err)
			}
			return fmt.Errorf("probe: %s", res.Outcome)
		}

		for _, entry := range prober.ScanTables(cmd.Context(), res.Conn) {
			if entry.Accessible {
				log.Infof("table %s accessible", entry.Table)
			} else {
				log.Warnf("table %s not accessible", entry.Table)
			}
		}

		if err := spanner.DriverPing(cmd.Context(), cfg.Target()); err != nil {
			log.Warnf("driver-level check failed: %v", err)
		} else {
			log.Info("driver-level check passed")
		}
		return nil
	},
}

// verifyCmd diffs the catalog against the expected table set.
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the expected tables exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		runner := newRunner(cfg)
		result, err := runner.Run(cmd.Context(), workflow.Options{})
		if err != nil {
			return err
		}
		log.Infof("all %d expected tables present", len(result.Report.Present))
		return nil
	},
}

// ddlCmd prints the DDL sequence without connecting anywhere.
var ddlCmd = &cobra.Command{
	Use:   "ddl",
	Short: "Print the schema DDL in batch order",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := schema.Validate(); err != nil {
			return err
		}
		size := batchSize
		if size < 1 {
			size = schema.DefaultBatchSize
		}
		batches, err := schema.Batches(size)
		if err != nil {
			return err
		}
		for i, batch := range batches {
			fmt.Printf("-- batch %d/%d\n", i+1, len(batches))
			for _, stmt := range batch {
				fmt.Printf("%s;\n\n", stmt)
			}
		}
		return nil
	},
}

func newRunner(cfg config.Config) *workflow.Runner {
	return workflow.NewRunner(dbadapter.GlobalRegistry(), cfg.Instance(), cfg.Target(), log)
}

func closeProbe(res workflow.ProbeResult) {
	if res.Conn != nil {
		res.Conn.Close()
	}
	if res.Instance != nil {
		res.Instance.Close()
	}
}

// printProxyConfig emits the connection block to paste into the LiteLLM proxy
// configuration once setup succeeds.
func printProxyConfig(cfg config.Config) error {
	snippet := map[string]interface{}{
		"database": map[string]string{
			"type":     "spanner",
			"project":  cfg.ProjectID,
			"instance": cfg.InstanceID,
			"database": cfg.DatabaseID,
			"dialect":  "postgresql",
			"path":     cfg.DatabasePath(),
		},
	}
	out, err := json.MarshalIndent(snippet, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(out))
	return nil
}

// setupCommands attaches all subcommands and their flags to the root command.
func setupCommands() {
	setupCmd.Flags().BoolVar(&skipSamples, "skip-samples", false, "Skip the sample write/read/delete cycle")
	setupCmd.Flags().IntVar(&batchSize, "batch-size", schema.DefaultBatchSize, "DDL statements per administrative operation")
	ddlCmd.Flags().IntVar(&batchSize, "batch-size", schema.DefaultBatchSize, "DDL statements per batch marker")

	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(ddlCmd)
}
