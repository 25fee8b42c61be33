package workflow

import (
	"context"

	"github.com/litellm-tools/spanstrap/internal/schema"
	"github.com/litellm-tools/spanstrap/pkg/dbadapter"
	"github.com/litellm-tools/spanstrap/pkg/dbcapabilities"
	"github.com/litellm-tools/spanstrap/pkg/logger"
)

// Provisioner creates the target database when absent and applies the DDL
// catalog in ordered batches. Both steps are idempotent at the database level:
// an existing database is left untouched by EnsureDatabase, and re-running
// ApplySchema against a provisioned database surfaces the backend's duplicate
// object error rather than guessing at reconciliation.
type Provisioner struct {
	inst      dbadapter.InstanceConnection
	database  string
	dialect   string
	batchSize int
	log       *logger.Logger
}

// NewProvisioner creates a provisioner for the named database. A batchSize
// below 1 falls back to schema.DefaultBatchSize.
func NewProvisioner(inst dbadapter.InstanceConnection, database, dialect string, batchSize int, log *logger.Logger) *Provisioner {
	if batchSize < 1 {
		batchSize = schema.DefaultBatchSize
	}
	if dialect == "" {
		dialect = string(dbcapabilities.DialectPostgreSQL)
	}
	return &Provisioner{
		inst:      inst,
		database:  database,
		dialect:   dialect,
		batchSize: batchSize,
		log:       log,
	}
}

// EnsureDatabase creates the database if it does not exist. Returns whether a
// create was performed. A failed create wraps the cause in a CreateError.
func (p *Provisioner) EnsureDatabase(ctx context.Context) (bool, error) {
	exists, err := p.inst.DatabaseExists(ctx, p.database)
	if err != nil {
		return false, &CreateError{Database: p.database, Err: err}
	}
	if exists {
		p.log.Infof("database %s already exists, skipping create", p.database)
		return false, nil
	}

	p.log.Infof("creating database %s (%s dialect)", p.database, p.dialect)
	opts := map[string]interface{}{"dialect": p.dialect}
	if err := p.inst.CreateDatabase(ctx, p.database, opts); err != nil {
		return false, &CreateError{Database: p.database, Err: err}
	}
	p.log.Infof("database %s created", p.database)
	return true, nil
}

// ApplySchema validates the DDL catalog ordering and submits it in batches.
// The first failing batch stops the run; earlier batches stay applied and the
// returned DDLBatchError reports how many statements made it through.
func (p *Provisioner) ApplySchema(ctx context.Context, ops dbadapter.SchemaOperator) error {
	if err := schema.Validate(); err != nil {
		return err
	}
	batches, err := schema.Batches(p.batchSize)
	if err != nil {
		return err
	}

	applied := 0
	for i, batch := range batches {
		p.log.Infof("applying ddl batch %d/%d (%d statements)", i+1, len(batches), len(batch))
		if err := ops.ApplyDDL(ctx, batch); err != nil {
			return &DDLBatchError{Batch: i, Applied: applied, Err: err}
		}
		applied += len(batch)
	}
	p.log.Infof("schema applied: %d statements in %d batches", applied, len(batches))
	return nil
}
