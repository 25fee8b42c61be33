// Package workflow implements the provisioning pipeline for the LiteLLM token
// database: probe connectivity, ensure the database exists, apply the schema,
// verify the catalog, and exercise sample operations. Each phase works against
// the dbadapter interfaces so the pipeline is testable without a live backend.
package workflow

import (
	"context"
	"fmt"

	"github.com/litellm-tools/spanstrap/internal/schema"
	"github.com/litellm-tools/spanstrap/pkg/dbadapter"
	"github.com/litellm-tools/spanstrap/pkg/logger"
)

// livenessQuery is the minimal statement used to prove a usable data-plane
// session. It must return exactly one row with the value 1.
const livenessQuery = "SELECT 1"

// Outcome classifies the result of a connectivity probe. Outcomes are ordered
// by how far the probe got before stopping.
type Outcome int

const (
	// OutcomeUnreachable means the admin or data plane could not be reached
	// at all (bad credentials, network failure, permission denied).
	OutcomeUnreachable Outcome = iota

	// OutcomeInstanceMissing means the configured instance does not exist.
	// No database-level checks run in this state.
	OutcomeInstanceMissing

	// OutcomeDatabaseMissing means the instance exists but the target
	// database does not. Provisioning can proceed from here.
	OutcomeDatabaseMissing

	// OutcomeLivenessCheckFailed means the database exists but the liveness
	// query did not return the expected single row.
	OutcomeLivenessCheckFailed

	// OutcomeReady means the database exists and answered the liveness
	// query.
	OutcomeReady
)

// String returns a human-readable outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeUnreachable:
		return "unreachable"
	case OutcomeInstanceMissing:
		return "instance_missing"
	case OutcomeDatabaseMissing:
		return "database_missing"
	case OutcomeLivenessCheckFailed:
		return "liveness_check_failed"
	case OutcomeReady:
		return "ready"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// ProbeResult carries the probe outcome plus any connections opened along the
// way. Instance is set whenever the admin plane was reachable; Conn is set
// only for OutcomeReady. The caller owns both and must close them.
type ProbeResult struct {
	Outcome  Outcome
	Instance dbadapter.InstanceConnection
	Conn     dbadapter.Connection

	// Err holds the failure detail for OutcomeUnreachable and
	// OutcomeLivenessCheckFailed.
	Err error
}

// TableAccess records the result of a best-effort read against one expected
// table during the probe's accessibility scan.
type TableAccess struct {
	Table      string
	Accessible bool
	Err        error
}

// Prober checks, in order, that the instance exists, that the target database
// exists, and that the database answers a trivial query. It never mutates
// anything.
type Prober struct {
	registry *dbadapter.Registry
	log      *logger.Logger
}

// NewProber creates a prober resolving adapters from registry.
func NewProber(registry *dbadapter.Registry, log *logger.Logger) *Prober {
	return &Prober{registry: registry, log: log}
}

// Probe runs the connectivity checks against the configured instance and
// database. Checks short-circuit: a missing instance stops before any
// database lookup, a missing database stops before liveness.
func (p *Prober) Probe(ctx context.Context, instCfg dbadapter.InstanceConfig, target dbadapter.ConnectionConfig) ProbeResult {
	inst, err := p.registry.ConnectInstance(ctx, instCfg)
	if err != nil {
		return ProbeResult{Outcome: OutcomeUnreachable, Err: err}
	}

	exists, err := inst.InstanceExists(ctx)
	if err != nil {
		return ProbeResult{Outcome: OutcomeUnreachable, Instance: inst, Err: err}
	}
	if !exists {
		p.log.Errorf("instance %s not found in project %s", instCfg.InstanceID, instCfg.ProjectID)
		return ProbeResult{Outcome: OutcomeInstanceMissing, Instance: inst}
	}
	p.log.Infof("instance %s is reachable", instCfg.InstanceID)

	dbExists, err := inst.DatabaseExists(ctx, target.DatabaseName)
	if err != nil {
		return ProbeResult{Outcome: OutcomeUnreachable, Instance: inst, Err: err}
	}
	if !dbExists {
		p.log.Warnf("database %s does not exist", target.DatabaseName)
		p.listDatabases(ctx, inst)
		return ProbeResult{Outcome: OutcomeDatabaseMissing, Instance: inst}
	}

	conn, err := p.registry.Connect(ctx, target)
	if err != nil {
		return ProbeResult{Outcome: OutcomeUnreachable, Instance: inst, Err: err}
	}

	if err := p.checkLiveness(ctx, conn); err != nil {
		conn.Close()
		p.log.Errorf("liveness check failed: %v", err)
		return ProbeResult{Outcome: OutcomeLivenessCheckFailed, Instance: inst, Err: err}
	}
	p.log.Infof("database %s answered liveness query", target.DatabaseName)
	p.describe(ctx, conn)

	return ProbeResult{Outcome: OutcomeReady, Instance: inst, Conn: conn}
}

// listDatabases logs what does exist in the instance when the target database
// is missing. Diagnostic only; failures are logged, never propagated.
func (p *Prober) listDatabases(ctx context.Context, inst dbadapter.InstanceConnection) {
	names, err := inst.ListDatabases(ctx)
	if err != nil {
		p.log.Debugf("could not list databases: %v", err)
		return
	}
	if len(names) == 0 {
		p.log.Info("instance has no databases")
		return
	}
	for _, name := range names {
		p.log.Infof("existing database: %s", name)
	}
}

// describe logs server version and database metadata for a live connection.
// Diagnostic only; failures are logged, never propagated.
func (p *Prober) describe(ctx context.Context, conn dbadapter.Connection) {
	meta := conn.MetadataOperations()

	if version, err := meta.GetVersion(ctx); err != nil {
		p.log.Debugf("could not read server version: %v", err)
	} else {
		p.log.Infof("server version: %s", version)
	}

	if md, err := meta.CollectDatabaseMetadata(ctx); err != nil {
		p.log.Debugf("could not collect database metadata: %v", err)
	} else {
		p.log.Infof("database metadata: dialect=%v tables=%v", md["dialect"], md["tableCount"])
	}
}

// checkLiveness requires the liveness query to return exactly one row whose
// single column holds the value 1.
func (p *Prober) checkLiveness(ctx context.Context, conn dbadapter.Connection) error {
	rows, err := conn.DataOperations().Snapshot(ctx, livenessQuery, nil)
	if err != nil {
		return err
	}
	if len(rows) != 1 {
		return fmt.Errorf("liveness query returned %d rows, want 1", len(rows))
	}
	if len(rows[0]) != 1 {
		return fmt.Errorf("liveness query returned %d columns, want 1", len(rows[0]))
	}
	for _, v := range rows[0] {
		if n, ok := v.(int64); !ok || n != 1 {
			return fmt.Errorf("liveness query returned %v, want 1", v)
		}
	}
	return nil
}

// ScanTables attempts one trivial read against each expected table and
// records, per table, whether it succeeded. Failures are reported in the
// result, never propagated; a freshly created database legitimately has no
// tables yet.
func (p *Prober) ScanTables(ctx context.Context, conn dbadapter.Connection) []TableAccess {
	names := schema.TableNames()
	out := make([]TableAccess, 0, len(names))
	for _, name := range names {
		_, err := conn.DataOperations().Snapshot(ctx, accessQuery(name), nil)
		access := TableAccess{Table: name, Accessible: err == nil, Err: err}
		if err != nil {
			p.log.Debugf("table %s not accessible: %v", name, err)
		}
		out = append(out, access)
	}
	return out
}

// accessQuery builds the probe read for one table. Table names come from the
// static DDL catalog, never from user input.
func accessQuery(table string) string {
	return fmt.Sprintf("SELECT 1 FROM %s LIMIT 1", table)
}
