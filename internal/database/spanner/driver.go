package spanner

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/litellm-tools/spanstrap/pkg/dbadapter"
	"github.com/litellm-tools/spanstrap/pkg/dbcapabilities"

	// Register the "spanner" database/sql driver.
	_ "github.com/googleapis/go-sql-spanner"
)

// DriverPing verifies connectivity through the database/sql driver, a second
// access path independent of the session-based client. Some consumers reach
// the database only through database/sql, so a passing client-level probe
// alone does not prove the database is usable for them.
func DriverPing(ctx context.Context, config dbadapter.ConnectionConfig) error {
	dsn := driverDSN(config)

	db, err := sql.Open("spanner", dsn)
	if err != nil {
		return dbadapter.NewConnectionError(dbcapabilities.Spanner, dsn, err)
	}
	defer db.Close()

	var one int64
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return dbadapter.WrapError(dbcapabilities.Spanner, "driver_ping", err)
	}
	if one != 1 {
		return dbadapter.NewDatabaseError(
			dbcapabilities.Spanner,
			"driver_ping",
			fmt.Errorf("expected 1, got %d", one),
		)
	}
	return nil
}

func driverDSN(config dbadapter.ConnectionConfig) string {
	dsn := databasePath(config.ProjectID, config.InstanceID, config.DatabaseName)
	if config.CredentialsFile != "" {
		dsn += ";credentials=" + config.CredentialsFile
	}
	return dsn
}
