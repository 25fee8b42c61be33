package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/litellm-tools/spanstrap/pkg/dbadapter"
	"github.com/litellm-tools/spanstrap/pkg/logger"
)

// Sample DML, PostgreSQL dialect. Commit timestamps are filled server-side
// via the pending-commit-timestamp marker.
const (
	sampleInsertUserSQL = `INSERT INTO litellm_usertable
    (user_id, user_email, user_role, max_budget, spend, table_name, created_at, updated_at)
    VALUES ($1, $2, $3, $4, $5, $6, SPANNER.PENDING_COMMIT_TIMESTAMP(), SPANNER.PENDING_COMMIT_TIMESTAMP())`

	sampleInsertTokenSQL = `INSERT INTO litellm_verificationtoken
    (token, user_id, spend, max_budget, blocked, created_at, updated_at)
    VALUES ($1, $2, $3, $4, $5, SPANNER.PENDING_COMMIT_TIMESTAMP(), SPANNER.PENDING_COMMIT_TIMESTAMP())`

	sampleSelectUserSQL = `SELECT user_id, user_email, user_role, max_budget, spend
    FROM litellm_usertable WHERE user_id = $1`

	sampleSelectTokenSQL = `SELECT token, user_id, max_budget, blocked
    FROM litellm_verificationtoken WHERE token = $1`

	sampleDeleteUserSQL  = `DELETE FROM litellm_usertable WHERE user_id = $1`
	sampleDeleteTokenSQL = `DELETE FROM litellm_verificationtoken WHERE token = $1`
)

// Sample row values. Budgets are arbitrary but asserted on read-back.
const (
	sampleUserEmail = "smoke-test@example.com"
	sampleUserRole  = "internal_user"

	sampleUserBudget  = 100.0
	sampleTokenBudget = 50.0
)

// SampleRunner writes one user and one token row, reads both back by primary
// key, and deletes them again, proving the schema accepts the proxy's core
// access patterns. Each run uses fresh random identifiers so concurrent or
// repeated runs never collide. On failure the partial rows are left in place
// for inspection; the failed step is named in the returned SampleError.
type SampleRunner struct {
	data dbadapter.DataOperator
	log  *logger.Logger

	// newID is swappable in tests.
	newID func() string
}

// NewSampleRunner creates a sample runner over data.
func NewSampleRunner(data dbadapter.DataOperator, log *logger.Logger) *SampleRunner {
	return &SampleRunner{data: data, log: log, newID: uuid.NewString}
}

// Run executes the write, read-back, and delete steps in order. The first
// failing step aborts the run.
func (r *SampleRunner) Run(ctx context.Context) error {
	id := r.newID()
	userID := "smoke-user-" + id
	token := "sk-smoke-" + id

	if err := r.insert(ctx, userID, token); err != nil {
		return &SampleError{Step: "insert", Err: err}
	}
	r.log.Infof("sample rows written (user %s)", userID)

	if err := r.readBackUser(ctx, userID); err != nil {
		return &SampleError{Step: "read user", Err: err}
	}
	if err := r.readBackToken(ctx, token, userID); err != nil {
		return &SampleError{Step: "read token", Err: err}
	}
	r.log.Info("sample rows read back and verified")

	if err := r.delete(ctx, userID, token); err != nil {
		return &SampleError{Step: "delete", Err: err}
	}
	r.log.Info("sample rows deleted")
	return nil
}

// insert writes both rows in one transaction so a failure leaves either both
// or neither.
func (r *SampleRunner) insert(ctx context.Context, userID, token string) error {
	return r.data.ReadWrite(ctx, func(ctx context.Context, tx dbadapter.WriteTx) error {
		n, err := tx.Update(ctx, sampleInsertUserSQL, map[string]interface{}{
			"p1": userID,
			"p2": sampleUserEmail,
			"p3": sampleUserRole,
			"p4": sampleUserBudget,
			"p5": 0.0,
			"p6": "user",
		})
		if err != nil {
			return err
		}
		if n != 1 {
			return fmt.Errorf("user insert affected %d rows, want 1", n)
		}

		n, err = tx.Update(ctx, sampleInsertTokenSQL, map[string]interface{}{
			"p1": token,
			"p2": userID,
			"p3": 0.0,
			"p4": sampleTokenBudget,
			"p5": false,
		})
		if err != nil {
			return err
		}
		if n != 1 {
			return fmt.Errorf("token insert affected %d rows, want 1", n)
		}
		return nil
	})
}

func (r *SampleRunner) readBackUser(ctx context.Context, userID string) error {
	rows, err := r.data.Snapshot(ctx, sampleSelectUserSQL, map[string]interface{}{"p1": userID})
	if err != nil {
		return err
	}
	if len(rows) != 1 {
		return fmt.Errorf("user read-back returned %d rows, want 1", len(rows))
	}
	row := rows[0]
	if got := row["user_email"]; got != sampleUserEmail {
		return fmt.Errorf("user_email = %v, want %s", got, sampleUserEmail)
	}
	if got := row["max_budget"]; got != sampleUserBudget {
		return fmt.Errorf("max_budget = %v, want %v", got, sampleUserBudget)
	}
	return nil
}

func (r *SampleRunner) readBackToken(ctx context.Context, token, userID string) error {
	rows, err := r.data.Snapshot(ctx, sampleSelectTokenSQL, map[string]interface{}{"p1": token})
	if err != nil {
		return err
	}
	if len(rows) != 1 {
		return fmt.Errorf("token read-back returned %d rows, want 1", len(rows))
	}
	row := rows[0]
	if got := row["user_id"]; got != userID {
		return fmt.Errorf("token user_id = %v, want %s", got, userID)
	}
	if got := row["max_budget"]; got != sampleTokenBudget {
		return fmt.Errorf("token max_budget = %v, want %v", got, sampleTokenBudget)
	}
	return nil
}

// delete removes both rows in one transaction, leaving the database as it was
// before the run.
func (r *SampleRunner) delete(ctx context.Context, userID, token string) error {
	return r.data.ReadWrite(ctx, func(ctx context.Context, tx dbadapter.WriteTx) error {
		if _, err := tx.Update(ctx, sampleDeleteTokenSQL, map[string]interface{}{"p1": token}); err != nil {
			return err
		}
		if _, err := tx.Update(ctx, sampleDeleteUserSQL, map[string]interface{}{"p1": userID}); err != nil {
			return err
		}
		return nil
	})
}
