package spanner

import (
	"context"

	"github.com/litellm-tools/spanstrap/pkg/dbadapter"
	"github.com/litellm-tools/spanstrap/pkg/dbcapabilities"
)

// SchemaOps implements dbadapter.SchemaOperator for Spanner.
type SchemaOps struct {
	conn *Connection
}

// ApplyDDL submits one batch of DDL statements as a single administrative
// operation and blocks until it completes or the admin timeout elapses.
func (s *SchemaOps) ApplyDDL(ctx context.Context, statements []string) error {
	if len(statements) == 0 {
		return nil
	}
	if err := s.conn.dbAdmin.UpdateDDL(ctx, s.conn.dbPath, statements, s.conn.adminTimeout); err != nil {
		return dbadapter.WrapError(dbcapabilities.Spanner, "apply_ddl", err)
	}
	return nil
}

// ListTables returns the names of all tables in the public schema in
// lexicographic order. The PostgreSQL dialect exposes the catalog through
// information_schema.
func (s *SchemaOps) ListTables(ctx context.Context) ([]string, error) {
	const query = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		ORDER BY table_name
	`
	return s.tableNames(ctx, query, nil)
}

// ListTablesWithPrefix returns the names of public-schema tables whose name
// starts with prefix, in lexicographic order.
func (s *SchemaOps) ListTablesWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	const query = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		AND starts_with(table_name, $1)
		ORDER BY table_name
	`
	return s.tableNames(ctx, query, map[string]interface{}{"p1": prefix})
}

func (s *SchemaOps) tableNames(ctx context.Context, query string, params map[string]interface{}) ([]string, error) {
	rows, err := (&DataOps{conn: s.conn}).Snapshot(ctx, query, params)
	if err != nil {
		return nil, dbadapter.WrapError(dbcapabilities.Spanner, "list_tables", err)
	}

	var tables []string
	for _, row := range rows {
		if name, ok := row["table_name"].(string); ok {
			tables = append(tables, name)
		}
	}
	return tables, nil
}
