package workflow

import (
	"context"
	"fmt"

	"github.com/litellm-tools/spanstrap/pkg/dbadapter"
	"github.com/litellm-tools/spanstrap/pkg/logger"
)

// DriverCheck is an optional secondary liveness probe using an independent
// client path (e.g. the database/sql driver instead of the native client).
// Failures are logged as warnings, never fatal: the native path already
// proved the database is usable.
type DriverCheck func(ctx context.Context, config dbadapter.ConnectionConfig) error

// Options control which phases a run executes.
type Options struct {
	// Provision enables the mutating phases (create database, apply DDL).
	// Without it the run is a read-only probe plus verification.
	Provision bool

	// SkipSamples disables the sample write/read/delete cycle.
	SkipSamples bool

	// BatchSize overrides the DDL batch size. Values below 1 use the
	// default.
	BatchSize int

	// DriverCheck, when set, runs after a successful liveness check.
	DriverCheck DriverCheck
}

// Result summarizes a completed run for the caller.
type Result struct {
	Outcome         Outcome
	DatabaseCreated bool
	SchemaApplied   bool
	SamplesRun      bool
	Report          Report
}

// Runner wires the pipeline phases together: probe, then optionally provision
// and apply schema, then verify, then optionally run samples. All state lives
// in the backend; the runner itself is stateless and safe to rerun.
type Runner struct {
	registry *dbadapter.Registry
	instCfg  dbadapter.InstanceConfig
	target   dbadapter.ConnectionConfig
	log      *logger.Logger
}

// NewRunner creates a runner for the configured instance and database.
func NewRunner(registry *dbadapter.Registry, instCfg dbadapter.InstanceConfig, target dbadapter.ConnectionConfig, log *logger.Logger) *Runner {
	return &Runner{registry: registry, instCfg: instCfg, target: target, log: log}
}

// Run executes the pipeline. A missing instance is always fatal; a missing
// database is fatal unless opts.Provision is set.
func (r *Runner) Run(ctx context.Context, opts Options) (Result, error) {
	probe := NewProber(r.registry, r.log)
	res := probe.Probe(ctx, r.instCfg, r.target)
	defer func() {
		if res.Conn != nil {
			res.Conn.Close()
		}
		if res.Instance != nil {
			res.Instance.Close()
		}
	}()

	result := Result{Outcome: res.Outcome}

	switch res.Outcome {
	case OutcomeUnreachable:
		return result, fmt.Errorf("backend unreachable: %w", res.Err)
	case OutcomeInstanceMissing:
		return result, fmt.Errorf("instance %s not found; create it before running this tool", r.instCfg.InstanceID)
	case OutcomeLivenessCheckFailed:
		return result, fmt.Errorf("database %s failed liveness check: %w", r.target.DatabaseName, res.Err)
	case OutcomeDatabaseMissing:
		if !opts.Provision {
			return result, fmt.Errorf("database %s does not exist; rerun with provisioning enabled", r.target.DatabaseName)
		}
	case OutcomeReady:
		// Fall through to provisioning or verification.
	}

	conn := res.Conn

	if opts.Provision {
		prov := NewProvisioner(res.Instance, r.target.DatabaseName, r.target.Dialect, opts.BatchSize, r.log)

		created, err := prov.EnsureDatabase(ctx)
		if err != nil {
			return result, err
		}
		result.DatabaseCreated = created

		if conn == nil {
			conn, err = r.registry.Connect(ctx, r.target)
			if err != nil {
				return result, err
			}
			defer conn.Close()
		}

		if err := prov.ApplySchema(ctx, conn.SchemaOperations()); err != nil {
			return result, err
		}
		result.SchemaApplied = true
	}

	if conn == nil {
		return result, fmt.Errorf("database %s is not connected", r.target.DatabaseName)
	}

	if opts.DriverCheck != nil {
		if err := opts.DriverCheck(ctx, r.target); err != nil {
			r.log.Warnf("driver-level check failed: %v", err)
		} else {
			r.log.Info("driver-level check passed")
		}
	}

	report, err := NewVerifier(conn.SchemaOperations(), conn.DataOperations(), r.log).Verify(ctx)
	if err != nil {
		return result, err
	}
	result.Report = report
	if !report.Complete() {
		return result, fmt.Errorf("verification failed: %d of %d expected tables missing",
			len(report.Missing), len(report.Missing)+len(report.Present))
	}

	if opts.Provision && !opts.SkipSamples {
		if err := NewSampleRunner(conn.DataOperations(), r.log).Run(ctx); err != nil {
			return result, err
		}
		result.SamplesRun = true
	}

	return result, nil
}
