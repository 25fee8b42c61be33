// Package spanner implements the dbadapter contracts for Google Cloud
// Spanner, covering both the administrative plane (instance and database
// admin APIs) and the data plane (sessions, snapshots, transactions).
package spanner

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"cloud.google.com/go/spanner"
	"github.com/litellm-tools/spanstrap/pkg/dbadapter"
	"github.com/litellm-tools/spanstrap/pkg/dbcapabilities"
)

// defaultAdminTimeout bounds create-database and DDL operations when the
// configuration does not set one.
const defaultAdminTimeout = 300 * time.Second

// Adapter implements the dbadapter.DatabaseAdapter interface for Spanner.
type Adapter struct{}

// NewAdapter creates a new Spanner adapter.
func NewAdapter() dbadapter.DatabaseAdapter {
	return &Adapter{}
}

// Type returns the database type identifier.
func (a *Adapter) Type() dbcapabilities.DatabaseID {
	return dbcapabilities.Spanner
}

// Capabilities returns the capabilities metadata for Spanner.
func (a *Adapter) Capabilities() dbcapabilities.Capability {
	return dbcapabilities.MustGet(dbcapabilities.Spanner)
}

// Connect establishes a connection to a specific Spanner database.
func (a *Adapter) Connect(ctx context.Context, config dbadapter.ConnectionConfig) (dbadapter.Connection, error) {
	dbPath := databasePath(config.ProjectID, config.InstanceID, config.DatabaseName)

	data, err := spanner.NewClient(ctx, dbPath, clientOptions(config.CredentialsFile, config.CredentialsJSON)...)
	if err != nil {
		return nil, dbadapter.NewConnectionError(
			dbcapabilities.Spanner,
			dbPath,
			fmt.Errorf("error creating data client: %w", err),
		)
	}

	dbAdmin, err := newDatabaseAdminClient(ctx, config.CredentialsFile, config.CredentialsJSON)
	if err != nil {
		data.Close()
		return nil, dbadapter.NewConnectionError(
			dbcapabilities.Spanner,
			dbPath,
			fmt.Errorf("error creating database admin client: %w", err),
		)
	}

	conn := &Connection{
		id:           config.DatabaseName,
		dbPath:       dbPath,
		data:         data,
		dbAdmin:      dbAdmin,
		adminTimeout: adminTimeout(config.AdminTimeout),
		config:       config,
		adapter:      a,
		connected:    1,
	}

	return conn, nil
}

// ConnectInstance establishes an admin-level connection to a Spanner instance.
func (a *Adapter) ConnectInstance(ctx context.Context, config dbadapter.InstanceConfig) (dbadapter.InstanceConnection, error) {
	instPath := instancePath(config.ProjectID, config.InstanceID)

	instAdmin, err := newInstanceAdminClient(ctx, config.CredentialsFile, config.CredentialsJSON)
	if err != nil {
		return nil, dbadapter.NewConnectionError(
			dbcapabilities.Spanner,
			instPath,
			fmt.Errorf("error creating instance admin client: %w", err),
		)
	}

	dbAdmin, err := newDatabaseAdminClient(ctx, config.CredentialsFile, config.CredentialsJSON)
	if err != nil {
		instAdmin.Close()
		return nil, dbadapter.NewConnectionError(
			dbcapabilities.Spanner,
			instPath,
			fmt.Errorf("error creating database admin client: %w", err),
		)
	}

	conn := &InstanceConnection{
		id:           config.InstanceID,
		instPath:     instPath,
		instAdmin:    instAdmin,
		dbAdmin:      dbAdmin,
		adminTimeout: adminTimeout(config.AdminTimeout),
		config:       config,
		adapter:      a,
		connected:    1,
	}

	return conn, nil
}

func adminTimeout(configured time.Duration) time.Duration {
	if configured > 0 {
		return configured
	}
	return defaultAdminTimeout
}

// Connection implements dbadapter.Connection for Spanner.
type Connection struct {
	id           string
	dbPath       string
	data         *spanner.Client
	dbAdmin      *databaseAdminClient
	adminTimeout time.Duration
	config       dbadapter.ConnectionConfig
	adapter      *Adapter
	connected    int32
}

// ID returns the connection identifier.
func (c *Connection) ID() string {
	return c.id
}

// Type returns the database type.
func (c *Connection) Type() dbcapabilities.DatabaseID {
	return dbcapabilities.Spanner
}

// IsConnected returns whether the connection is active.
func (c *Connection) IsConnected() bool {
	return atomic.LoadInt32(&c.connected) == 1
}

// Ping checks if the connection is alive by running a trivial query.
func (c *Connection) Ping(ctx context.Context) error {
	rows, err := (&DataOps{conn: c}).Snapshot(ctx, "SELECT 1", nil)
	if err != nil {
		return err
	}
	if len(rows) != 1 {
		return dbadapter.NewDatabaseError(
			dbcapabilities.Spanner,
			"ping",
			fmt.Errorf("expected one row, got %d", len(rows)),
		)
	}
	return nil
}

// Close closes the connection.
func (c *Connection) Close() error {
	atomic.StoreInt32(&c.connected, 0)
	c.data.Close()
	return c.dbAdmin.Close()
}

// SchemaOperations returns the schema operator for Spanner.
func (c *Connection) SchemaOperations() dbadapter.SchemaOperator {
	return &SchemaOps{conn: c}
}

// DataOperations returns the data operator for Spanner.
func (c *Connection) DataOperations() dbadapter.DataOperator {
	return &DataOps{conn: c}
}

// MetadataOperations returns the metadata operator for Spanner.
func (c *Connection) MetadataOperations() dbadapter.MetadataOperator {
	return &MetadataOps{conn: c}
}

// Raw returns the underlying spanner.Client.
func (c *Connection) Raw() interface{} {
	return c.data
}

// Config returns the connection configuration.
func (c *Connection) Config() dbadapter.ConnectionConfig {
	return c.config
}

// Adapter returns the database adapter.
func (c *Connection) Adapter() dbadapter.DatabaseAdapter {
	return c.adapter
}

// InstanceConnection implements dbadapter.InstanceConnection for Spanner.
type InstanceConnection struct {
	id           string
	instPath     string
	instAdmin    *instanceAdminClient
	dbAdmin      *databaseAdminClient
	adminTimeout time.Duration
	config       dbadapter.InstanceConfig
	adapter      *Adapter
	connected    int32
}

// ID returns the instance connection identifier.
func (i *InstanceConnection) ID() string {
	return i.id
}

// Type returns the database type.
func (i *InstanceConnection) Type() dbcapabilities.DatabaseID {
	return dbcapabilities.Spanner
}

// IsConnected returns whether the connection is active.
func (i *InstanceConnection) IsConnected() bool {
	return atomic.LoadInt32(&i.connected) == 1
}

// Ping checks if the instance is reachable.
func (i *InstanceConnection) Ping(ctx context.Context) error {
	exists, err := i.InstanceExists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return dbadapter.NewNotFoundError(dbcapabilities.Spanner, "instance", i.instPath)
	}
	return nil
}

// Close closes the admin clients.
func (i *InstanceConnection) Close() error {
	atomic.StoreInt32(&i.connected, 0)
	instErr := i.instAdmin.Close()
	dbErr := i.dbAdmin.Close()
	if instErr != nil {
		return instErr
	}
	return dbErr
}

// Raw returns the underlying instance admin client.
func (i *InstanceConnection) Raw() interface{} {
	return i.instAdmin.Raw()
}

// Config returns the instance configuration.
func (i *InstanceConnection) Config() dbadapter.InstanceConfig {
	return i.config
}

// Adapter returns the database adapter.
func (i *InstanceConnection) Adapter() dbadapter.DatabaseAdapter {
	return i.adapter
}
