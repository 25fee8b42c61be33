package spanner

import (
	"context"
	"fmt"
	"time"

	databaseadmin "cloud.google.com/go/spanner/admin/database/apiv1"
	"cloud.google.com/go/spanner/admin/database/apiv1/databasepb"
	instanceadmin "cloud.google.com/go/spanner/admin/instance/apiv1"
	"cloud.google.com/go/spanner/admin/instance/apiv1/instancepb"
	"github.com/litellm-tools/spanstrap/pkg/dbcapabilities"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// clientOptions builds the credential options shared by all Spanner clients.
// No explicit credentials means application default credentials.
func clientOptions(credentialsFile, credentialsJSON string) []option.ClientOption {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	} else if credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	return opts
}

func instancePath(project, instance string) string {
	return fmt.Sprintf("projects/%s/instances/%s", project, instance)
}

func databasePath(project, instance, database string) string {
	return fmt.Sprintf("%s/databases/%s", instancePath(project, instance), database)
}

// databaseAdminClient wraps the Spanner database admin API with the blocking,
// timeout-bounded calls the provisioning workflow needs.
type databaseAdminClient struct {
	c *databaseadmin.DatabaseAdminClient
}

func newDatabaseAdminClient(ctx context.Context, credentialsFile, credentialsJSON string) (*databaseAdminClient, error) {
	c, err := databaseadmin.NewDatabaseAdminClient(ctx, clientOptions(credentialsFile, credentialsJSON)...)
	if err != nil {
		return nil, err
	}
	return &databaseAdminClient{c: c}, nil
}

func (a *databaseAdminClient) Close() error {
	return a.c.Close()
}

func (a *databaseAdminClient) Raw() interface{} {
	return a.c
}

// DatabaseExists checks whether the database resource exists. A NotFound
// status is reported as false, not as an error.
func (a *databaseAdminClient) DatabaseExists(ctx context.Context, dbPath string) (bool, error) {
	_, err := a.c.GetDatabase(ctx, &databasepb.GetDatabaseRequest{Name: dbPath})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CreateDatabase issues the create-database administrative operation with the
// requested dialect and blocks until it completes or timeout elapses.
func (a *databaseAdminClient) CreateDatabase(ctx context.Context, instPath, databaseID string, dialect dbcapabilities.Dialect, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	op, err := a.c.CreateDatabase(ctx, &databasepb.CreateDatabaseRequest{
		Parent:          instPath,
		CreateStatement: createDatabaseStatement(databaseID, dialect),
		DatabaseDialect: protoDialect(dialect),
	})
	if err != nil {
		return err
	}
	if _, err := op.Wait(ctx); err != nil {
		return err
	}
	return nil
}

// UpdateDDL submits one batch of DDL statements and blocks until the
// operation completes or timeout elapses.
func (a *databaseAdminClient) UpdateDDL(ctx context.Context, dbPath string, statements []string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	op, err := a.c.UpdateDatabaseDdl(ctx, &databasepb.UpdateDatabaseDdlRequest{
		Database:   dbPath,
		Statements: statements,
	})
	if err != nil {
		return err
	}
	return op.Wait(ctx)
}

// ListDatabases lists the database IDs under the instance.
func (a *databaseAdminClient) ListDatabases(ctx context.Context, instPath string) ([]string, error) {
	it := a.c.ListDatabases(ctx, &databasepb.ListDatabasesRequest{Parent: instPath})

	var names []string
	for {
		db, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		names = append(names, db.GetName())
	}
	return names, nil
}

// createDatabaseStatement quotes the database identifier per dialect. The
// PostgreSQL dialect rejects extra statements in the create call, so only the
// bare CREATE DATABASE is issued here; tables follow as DDL batches.
func createDatabaseStatement(databaseID string, dialect dbcapabilities.Dialect) string {
	if dialect == dbcapabilities.DialectPostgreSQL {
		return fmt.Sprintf(`CREATE DATABASE "%s"`, databaseID)
	}
	return fmt.Sprintf("CREATE DATABASE `%s`", databaseID)
}

func protoDialect(dialect dbcapabilities.Dialect) databasepb.DatabaseDialect {
	switch dialect {
	case dbcapabilities.DialectPostgreSQL:
		return databasepb.DatabaseDialect_POSTGRESQL
	case dbcapabilities.DialectGoogleSQL:
		return databasepb.DatabaseDialect_GOOGLE_STANDARD_SQL
	default:
		return databasepb.DatabaseDialect_DATABASE_DIALECT_UNSPECIFIED
	}
}

// instanceAdminClient wraps the Spanner instance admin API.
type instanceAdminClient struct {
	c *instanceadmin.InstanceAdminClient
}

func newInstanceAdminClient(ctx context.Context, credentialsFile, credentialsJSON string) (*instanceAdminClient, error) {
	c, err := instanceadmin.NewInstanceAdminClient(ctx, clientOptions(credentialsFile, credentialsJSON)...)
	if err != nil {
		return nil, err
	}
	return &instanceAdminClient{c: c}, nil
}

func (a *instanceAdminClient) Close() error {
	return a.c.Close()
}

func (a *instanceAdminClient) Raw() interface{} {
	return a.c
}

// InstanceExists checks whether the instance resource exists. A NotFound
// status is reported as false, not as an error.
func (a *instanceAdminClient) InstanceExists(ctx context.Context, instPath string) (bool, error) {
	_, err := a.c.GetInstance(ctx, &instancepb.GetInstanceRequest{Name: instPath})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
