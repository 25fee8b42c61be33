package dbadapter

import (
	"context"

	"github.com/litellm-tools/spanstrap/pkg/dbcapabilities"
)

// DatabaseAdapter represents a database technology adapter.
// Each supported database type must implement this interface.
type DatabaseAdapter interface {
	// Type returns the canonical database type identifier
	Type() dbcapabilities.DatabaseID

	// Capabilities returns the capability metadata for this database type
	Capabilities() dbcapabilities.Capability

	// Connect establishes a connection to a specific database
	Connect(ctx context.Context, config ConnectionConfig) (Connection, error)

	// ConnectInstance establishes a connection to a database instance (admin-level)
	ConnectInstance(ctx context.Context, config InstanceConfig) (InstanceConnection, error)
}

// Connection represents an active connection to a specific database.
// This is the main interface for interacting with a database.
type Connection interface {
	// Identity and status
	ID() string
	Type() dbcapabilities.DatabaseID
	IsConnected() bool

	// Lifecycle management
	Ping(ctx context.Context) error
	Close() error

	// Operation interfaces
	SchemaOperations() SchemaOperator
	DataOperations() DataOperator
	MetadataOperations() MetadataOperator

	// Raw returns the underlying database-specific client object.
	// Type assertion is required when using Raw().
	Raw() interface{}

	// Configuration
	Config() ConnectionConfig
	Adapter() DatabaseAdapter
}

// InstanceConnection represents an active connection to a database instance.
// This is used for instance-level operations like existence checks and
// creating databases.
type InstanceConnection interface {
	// Identity and status
	ID() string
	Type() dbcapabilities.DatabaseID
	IsConnected() bool

	// Lifecycle management
	Ping(ctx context.Context) error
	Close() error

	// InstanceExists reports whether the configured instance exists and is
	// accessible.
	InstanceExists(ctx context.Context) (bool, error)

	// DatabaseExists reports whether the named database exists within the
	// instance. Requires the instance to exist.
	DatabaseExists(ctx context.Context, name string) (bool, error)

	// CreateDatabase creates the named database and blocks until the
	// administrative operation completes or ctx expires. Options carry
	// database-specific settings; "dialect" selects the SQL dialect.
	CreateDatabase(ctx context.Context, name string, options map[string]interface{}) error

	// ListDatabases lists all databases in the instance.
	ListDatabases(ctx context.Context) ([]string, error)

	// Raw returns the underlying database-specific admin client object
	Raw() interface{}

	// Configuration
	Config() InstanceConfig
	Adapter() DatabaseAdapter
}

// SchemaOperator handles schema modification and catalog introspection.
type SchemaOperator interface {
	// ApplyDDL submits one batch of DDL statements as a single
	// administrative operation and blocks until it completes or ctx
	// expires. Statements are applied in order.
	ApplyDDL(ctx context.Context, statements []string) error

	// ListTables returns the names of all tables in the database's public
	// schema, in lexicographic order.
	ListTables(ctx context.Context) ([]string, error)

	// ListTablesWithPrefix returns the names of public-schema tables whose
	// name starts with prefix, in lexicographic order.
	ListTablesWithPrefix(ctx context.Context, prefix string) ([]string, error)
}

// Row is one result row keyed by column name.
type Row map[string]interface{}

// WriteTx is the handle passed to a read-write transaction body.
type WriteTx interface {
	// Update executes a DML statement and returns the affected row count.
	Update(ctx context.Context, sql string, params map[string]interface{}) (int64, error)
}

// DataOperator handles data read and write operations.
type DataOperator interface {
	// Snapshot runs a read-only, consistent point-in-time query.
	Snapshot(ctx context.Context, sql string, params map[string]interface{}) ([]Row, error)

	// ReadWrite runs fn inside a single read-write transaction. The
	// transaction commits when fn returns nil and aborts otherwise.
	ReadWrite(ctx context.Context, fn func(ctx context.Context, tx WriteTx) error) error

	// GetRowCount returns the number of rows in a table.
	GetRowCount(ctx context.Context, table string) (int64, error)
}

// MetadataOperator handles metadata collection and introspection.
type MetadataOperator interface {
	// GetVersion returns the server version string.
	GetVersion(ctx context.Context) (string, error)

	// CollectDatabaseMetadata returns database-level metadata (dialect,
	// table count, ...).
	CollectDatabaseMetadata(ctx context.Context) (map[string]interface{}, error)
}
