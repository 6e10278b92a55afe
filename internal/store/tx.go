package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/roach88/mintgate/internal/chain"
)

// ErrNotFound is returned when a code or contract record does not exist.
var ErrNotFound = errors.New("not found")

var savepointName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Tx is the transaction of one top-level call.
type Tx struct {
	tx *sql.Tx
}

// Commit makes all writes of the call durable.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback discards all writes of the call.
// Rolling back a finished transaction is a no-op.
func (t *Tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// Savepoint opens a nested rollback point.
func (t *Tx) Savepoint(ctx context.Context, name string) error {
	if !savepointName.MatchString(name) {
		return fmt.Errorf("savepoint: invalid name %q", name)
	}
	if _, err := t.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("savepoint %s: %w", name, err)
	}
	return nil
}

// RollbackTo discards writes since the savepoint and closes it.
func (t *Tx) RollbackTo(ctx context.Context, name string) error {
	if !savepointName.MatchString(name) {
		return fmt.Errorf("rollback to: invalid name %q", name)
	}
	if _, err := t.tx.ExecContext(ctx, "ROLLBACK TO "+name); err != nil {
		return fmt.Errorf("rollback to %s: %w", name, err)
	}
	return t.Release(ctx, name)
}

// Release keeps writes since the savepoint and closes it.
func (t *Tx) Release(ctx context.Context, name string) error {
	if !savepointName.MatchString(name) {
		return fmt.Errorf("release: invalid name %q", name)
	}
	if _, err := t.tx.ExecContext(ctx, "RELEASE "+name); err != nil {
		return fmt.Errorf("release %s: %w", name, err)
	}
	return nil
}

// ContractStorage returns the key space of contract inside this transaction.
func (t *Tx) ContractStorage(contract chain.Addr) chain.Storage {
	return &contractStorage{tx: t.tx, contract: string(contract)}
}
