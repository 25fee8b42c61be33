package spanner

import (
	"context"
	"fmt"

	"github.com/litellm-tools/spanstrap/pkg/dbadapter"
	"github.com/litellm-tools/spanstrap/pkg/dbcapabilities"
)

// InstanceExists reports whether the configured instance exists.
func (i *InstanceConnection) InstanceExists(ctx context.Context) (bool, error) {
	exists, err := i.instAdmin.InstanceExists(ctx, i.instPath)
	if err != nil {
		return false, dbadapter.WrapError(dbcapabilities.Spanner, "instance_exists", err)
	}
	return exists, nil
}

// DatabaseExists reports whether the named database exists in the instance.
func (i *InstanceConnection) DatabaseExists(ctx context.Context, name string) (bool, error) {
	dbPath := fmt.Sprintf("%s/databases/%s", i.instPath, name)
	exists, err := i.dbAdmin.DatabaseExists(ctx, dbPath)
	if err != nil {
		return false, dbadapter.WrapError(dbcapabilities.Spanner, "database_exists", err)
	}
	return exists, nil
}

// CreateDatabase creates the named database and blocks until the
// administrative operation completes or the admin timeout elapses. The
// "dialect" option selects the SQL dialect; it defaults to PostgreSQL.
func (i *InstanceConnection) CreateDatabase(ctx context.Context, name string, options map[string]interface{}) error {
	dialect := dbcapabilities.DialectPostgreSQL
	if raw, ok := options["dialect"].(string); ok && raw != "" {
		dialect = dbcapabilities.Dialect(raw)
	}
	if !dbcapabilities.SupportsDialect(dbcapabilities.Spanner, dialect) {
		return dbadapter.NewConfigurationError(
			dbcapabilities.Spanner,
			"dialect",
			fmt.Sprintf("unsupported dialect: %s", dialect),
		)
	}

	if err := i.dbAdmin.CreateDatabase(ctx, i.instPath, name, dialect, i.adminTimeout); err != nil {
		return dbadapter.WrapError(dbcapabilities.Spanner, "create_database", err)
	}
	return nil
}

// ListDatabases lists the database IDs in the instance.
func (i *InstanceConnection) ListDatabases(ctx context.Context) ([]string, error) {
	names, err := i.dbAdmin.ListDatabases(ctx, i.instPath)
	if err != nil {
		return nil, dbadapter.WrapError(dbcapabilities.Spanner, "list_databases", err)
	}
	return names, nil
}
