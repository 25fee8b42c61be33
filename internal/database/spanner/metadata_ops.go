package spanner

import (
	"context"
	"fmt"

	"github.com/litellm-tools/spanstrap/pkg/dbadapter"
	"github.com/litellm-tools/spanstrap/pkg/dbcapabilities"
)

// MetadataOps implements dbadapter.MetadataOperator for Spanner.
type MetadataOps struct {
	conn *Connection
}

// GetVersion returns the server version string. The PostgreSQL dialect
// exposes it through the standard version() function.
func (m *MetadataOps) GetVersion(ctx context.Context) (string, error) {
	rows, err := (&DataOps{conn: m.conn}).Snapshot(ctx, "SELECT version() AS version", nil)
	if err != nil {
		return "", dbadapter.WrapError(dbcapabilities.Spanner, "get_version", err)
	}
	if len(rows) != 1 {
		return "", dbadapter.NewDatabaseError(
			dbcapabilities.Spanner,
			"get_version",
			fmt.Errorf("expected one row, got %d", len(rows)),
		)
	}
	version, _ := rows[0]["version"].(string)
	return version, nil
}

// CollectDatabaseMetadata returns database-level metadata.
func (m *MetadataOps) CollectDatabaseMetadata(ctx context.Context) (map[string]interface{}, error) {
	tables, err := (&SchemaOps{conn: m.conn}).ListTables(ctx)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"database":   m.conn.dbPath,
		"dialect":    m.conn.config.Dialect,
		"tableCount": len(tables),
	}, nil
}
