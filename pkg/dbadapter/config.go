package dbadapter

import "time"

// ConnectionConfig contains the configuration for a connection to a specific
// database. Immutable per run; supplied by the environment resolver.
type ConnectionConfig struct {
	// Database type (see dbcapabilities), e.g. "spanner".
	ConnectionType string `json:"connectionType"`

	// Cloud resource hierarchy identifiers.
	ProjectID  string `json:"projectId"`
	InstanceID string `json:"instanceId"`

	// DatabaseName is the database identifier within the instance.
	DatabaseName string `json:"databaseName"`

	// Dialect the database is (or will be) created with, e.g. "postgresql".
	Dialect string `json:"dialect,omitempty"`

	// CredentialsFile is a path to a service-account key file. Empty means
	// application default credentials.
	CredentialsFile string `json:"credentialsFile,omitempty"`
	CredentialsJSON string `json:"credentialsJson,omitempty"`

	// AdminTimeout bounds blocking administrative operations (create
	// database, DDL batches). Zero means the adapter's default.
	AdminTimeout time.Duration `json:"adminTimeout,omitempty"`

	// Database-specific options (use sparingly).
	Options map[string]interface{} `json:"options,omitempty"`
}

// InstanceConfig contains the configuration for an instance-level connection,
// used for database existence checks and creation.
type InstanceConfig struct {
	// Database type (see dbcapabilities), e.g. "spanner".
	ConnectionType string `json:"connectionType"`

	// Cloud resource hierarchy identifiers.
	ProjectID  string `json:"projectId"`
	InstanceID string `json:"instanceId"`

	// Credentials, as in ConnectionConfig.
	CredentialsFile string `json:"credentialsFile,omitempty"`
	CredentialsJSON string `json:"credentialsJson,omitempty"`

	// AdminTimeout bounds blocking administrative operations.
	AdminTimeout time.Duration `json:"adminTimeout,omitempty"`

	// Database-specific options.
	Options map[string]interface{} `json:"options,omitempty"`
}

// ToConnectionConfig derives a database-level config from an instance-level
// one. The caller fills in the database name.
func (c InstanceConfig) ToConnectionConfig(databaseName string) ConnectionConfig {
	return ConnectionConfig{
		ConnectionType:  c.ConnectionType,
		ProjectID:       c.ProjectID,
		InstanceID:      c.InstanceID,
		DatabaseName:    databaseName,
		CredentialsFile: c.CredentialsFile,
		CredentialsJSON: c.CredentialsJSON,
		AdminTimeout:    c.AdminTimeout,
		Options:         c.Options,
	}
}
