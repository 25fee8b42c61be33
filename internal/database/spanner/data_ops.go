package spanner

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/spanner"
	"cloud.google.com/go/spanner/apiv1/spannerpb"
	"github.com/litellm-tools/spanstrap/pkg/dbadapter"
	"github.com/litellm-tools/spanstrap/pkg/dbcapabilities"
	"google.golang.org/api/iterator"
	"google.golang.org/protobuf/types/known/structpb"
)

// DataOps implements dbadapter.DataOperator for Spanner.
type DataOps struct {
	conn *Connection
}

// Snapshot runs a read-only, consistent point-in-time query. Params are bound
// positionally for the PostgreSQL dialect: $1 in SQL maps to key "p1".
func (d *DataOps) Snapshot(ctx context.Context, sql string, params map[string]interface{}) ([]dbadapter.Row, error) {
	stmt := spanner.Statement{SQL: sql, Params: params}

	it := d.conn.data.Single().Query(ctx, stmt)
	defer it.Stop()

	var rows []dbadapter.Row
	for {
		row, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, dbadapter.WrapError(dbcapabilities.Spanner, "snapshot", err)
		}

		decoded, err := rowToMap(row)
		if err != nil {
			return nil, dbadapter.WrapError(dbcapabilities.Spanner, "snapshot", err)
		}
		rows = append(rows, decoded)
	}
	return rows, nil
}

// ReadWrite runs fn inside a single read-write transaction.
func (d *DataOps) ReadWrite(ctx context.Context, fn func(ctx context.Context, tx dbadapter.WriteTx) error) error {
	_, err := d.conn.data.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		return fn(ctx, &writeTx{txn: txn})
	})
	if err != nil {
		return dbadapter.WrapError(dbcapabilities.Spanner, "read_write_transaction", err)
	}
	return nil
}

// GetRowCount returns the number of rows in a table.
func (d *DataOps) GetRowCount(ctx context.Context, table string) (int64, error) {
	if table == "" {
		return 0, dbadapter.NewDatabaseError(
			dbcapabilities.Spanner,
			"get_row_count",
			fmt.Errorf("table name cannot be empty"),
		)
	}

	rows, err := d.Snapshot(ctx, fmt.Sprintf("SELECT COUNT(*) AS n FROM %s", table), nil)
	if err != nil {
		return 0, err
	}
	if len(rows) != 1 {
		return 0, dbadapter.NewDatabaseError(
			dbcapabilities.Spanner,
			"get_row_count",
			fmt.Errorf("expected one row, got %d", len(rows)),
		).WithContext("table", table)
	}

	n, ok := rows[0]["n"].(int64)
	if !ok {
		return 0, dbadapter.NewDatabaseError(
			dbcapabilities.Spanner,
			"get_row_count",
			fmt.Errorf("unexpected count type %T", rows[0]["n"]),
		)
	}
	return n, nil
}

// writeTx adapts a Spanner read-write transaction to dbadapter.WriteTx.
type writeTx struct {
	txn *spanner.ReadWriteTransaction
}

// Update executes a DML statement and returns the affected row count.
func (w *writeTx) Update(ctx context.Context, sql string, params map[string]interface{}) (int64, error) {
	return w.txn.Update(ctx, spanner.Statement{SQL: sql, Params: params})
}

// rowToMap decodes a result row into a generic column map.
func rowToMap(row *spanner.Row) (dbadapter.Row, error) {
	out := make(dbadapter.Row, row.Size())
	for i, name := range row.ColumnNames() {
		var gcv spanner.GenericColumnValue
		if err := row.Column(i, &gcv); err != nil {
			return nil, err
		}
		value, err := decodeGeneric(gcv)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		out[name] = value
	}
	return out, nil
}

// decodeGeneric converts the scalar column types the workflow queries.
// Compound types (arrays, structs) are not needed here and are rejected.
func decodeGeneric(gcv spanner.GenericColumnValue) (interface{}, error) {
	if _, isNull := gcv.Value.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, nil
	}

	switch gcv.Type.GetCode() {
	case spannerpb.TypeCode_BOOL:
		return gcv.Value.GetBoolValue(), nil
	case spannerpb.TypeCode_INT64:
		return strconv.ParseInt(gcv.Value.GetStringValue(), 10, 64)
	case spannerpb.TypeCode_FLOAT64:
		return gcv.Value.GetNumberValue(), nil
	case spannerpb.TypeCode_STRING, spannerpb.TypeCode_JSON:
		return gcv.Value.GetStringValue(), nil
	case spannerpb.TypeCode_TIMESTAMP:
		return time.Parse(time.RFC3339Nano, gcv.Value.GetStringValue())
	default:
		return nil, fmt.Errorf("unsupported column type %s", gcv.Type.GetCode())
	}
}
