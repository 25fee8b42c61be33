// Package dbadapter defines the contracts between the provisioning workflow
// and the managed database it targets.
//
// The workflow never talks to a driver directly: it consumes the Connection
// and InstanceConnection interfaces, which a database-specific adapter
// implements and registers with the global Registry from its init function.
// This keeps the provisioning, verification, and sample-operation logic
// testable against an in-memory fake.
//
// Two connection levels exist because the administrative surface differs from
// the data surface:
//
//   - InstanceConnection operates at the instance level: existence checks,
//     listing and creating databases.
//   - Connection operates on one database: schema changes, snapshot reads,
//     and read-write transactions, exposed through the SchemaOperator,
//     DataOperator, and MetadataOperator accessors.
//
// Adapters wrap every failure in the package's typed errors (DatabaseError,
// ConnectionError, NotFoundError, ...) so callers can branch with errors.Is
// without knowing driver-specific error types.
package dbadapter
