package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litellm-tools/spanstrap/internal/schema"
	"github.com/litellm-tools/spanstrap/pkg/dbadapter"
)

func provisionedBackend(t *testing.T) (*fakeBackend, dbadapter.Connection) {
	t.Helper()
	backend := newFakeBackend()
	db := backend.addDatabase("litellm-tokens")
	for _, stmt := range schema.Statements() {
		require.NoError(t, applyFakeDDL(db, stmt))
	}
	reg := newFakeRegistry(backend)
	conn, err := reg.Connect(context.Background(), testTargetConfig())
	require.NoError(t, err)
	return backend, conn
}

func TestSampleRunLeavesNoResidue(t *testing.T) {
	ctx := context.Background()
	backend, conn := provisionedBackend(t)

	r := NewSampleRunner(conn.DataOperations(), quietLogger())
	require.NoError(t, r.Run(ctx))
	assert.Equal(t, 0, backend.rowCount("litellm-tokens"))
}

func TestSampleRunsUseFreshIdentifiers(t *testing.T) {
	ctx := context.Background()
	backend, conn := provisionedBackend(t)

	r := NewSampleRunner(conn.DataOperations(), quietLogger())
	require.NoError(t, r.Run(ctx))
	require.NoError(t, r.Run(ctx))
	assert.Equal(t, 0, backend.rowCount("litellm-tokens"))
}

func TestSampleInsertConflictNamesStepAndSkipsCleanup(t *testing.T) {
	ctx := context.Background()
	backend, conn := provisionedBackend(t)

	// Plant a row colliding with the primary key the run will generate.
	db := backend.databases["litellm-tokens"]
	db.tables["litellm_usertable"]["smoke-user-fixed-id"] = dbadapter.Row{
		"user_id": "smoke-user-fixed-id",
	}

	r := NewSampleRunner(conn.DataOperations(), quietLogger())
	r.newID = func() string { return "fixed-id" }

	err := r.Run(ctx)
	require.Error(t, err)

	var sampleErr *SampleError
	require.ErrorAs(t, err, &sampleErr)
	assert.Equal(t, "insert", sampleErr.Step)

	// The failed run must not clean up after itself.
	assert.Equal(t, 1, backend.rowCount("litellm-tokens"))
}

func TestSampleInsertIsAtomic(t *testing.T) {
	ctx := context.Background()
	backend, conn := provisionedBackend(t)

	// Colliding token but free user id: the transaction must abort with
	// neither row committed.
	db := backend.databases["litellm-tokens"]
	db.tables["litellm_verificationtoken"]["sk-smoke-fixed-id"] = dbadapter.Row{
		"token": "sk-smoke-fixed-id",
	}

	r := NewSampleRunner(conn.DataOperations(), quietLogger())
	r.newID = func() string { return "fixed-id" }

	err := r.Run(ctx)
	require.Error(t, err)
	assert.Empty(t, db.tables["litellm_usertable"])
}

func TestSampleInsertFailsWithoutSchema(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	backend.addDatabase("litellm-tokens")

	reg := newFakeRegistry(backend)
	conn, err := reg.Connect(ctx, testTargetConfig())
	require.NoError(t, err)

	r := NewSampleRunner(conn.DataOperations(), quietLogger())
	runErr := r.Run(ctx)
	require.Error(t, runErr)

	var sampleErr *SampleError
	require.ErrorAs(t, runErr, &sampleErr)
	assert.Equal(t, "insert", sampleErr.Step)
}

func TestSampleReadBackChecksFieldValues(t *testing.T) {
	ctx := context.Background()
	backend, conn := provisionedBackend(t)

	db := backend.databases["litellm-tokens"]
	db.tables["litellm_usertable"]["u1"] = dbadapter.Row{
		"user_id":    "u1",
		"user_email": "wrong@example.com",
		"max_budget": sampleUserBudget,
	}

	r := NewSampleRunner(conn.DataOperations(), quietLogger())
	err := r.readBackUser(ctx, "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user_email")
}
