package tx

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	dErrors "stockroom/pkg/domain-errors"
)

// Runner provides a transactional boundary for multi-statement workflows.
// Implementations wrap a database transaction or, in-memory, a coarse lock.
// Everything inside fn either commits together or rolls back together.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PostgresRunner executes fn inside a single *sql.Tx. The transaction is
// stashed in the context so stores pick it up through From and all statements
// share one connection.
type PostgresRunner struct {
	db *sql.DB
}

func NewPostgresRunner(db *sql.DB) *PostgresRunner {
	return &PostgresRunner{db: db}
}

func (r *PostgresRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	// Rollback after commit is a no-op; this keeps every early return safe.
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(WithTx(ctx, sqlTx)); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// defaultMemoryTxTimeout bounds how long an in-memory transaction may run.
const defaultMemoryTxTimeout = 5 * time.Second

// MemoryRunner serializes transactions with a single mutex. It backs unit
// tests and local development where atomicity matters but PostgreSQL is not
// wired in.
type MemoryRunner struct {
	mu      sync.Mutex
	timeout time.Duration
}

func NewMemoryRunner() *MemoryRunner {
	return &MemoryRunner{timeout: defaultMemoryTxTimeout}
}

func (r *MemoryRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Check again after acquiring the lock.
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(ctx)
}
