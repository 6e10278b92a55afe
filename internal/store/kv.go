package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/mintgate/internal/chain"
)

// contractStorage implements chain.Storage over the kv table.
type contractStorage struct {
	tx       *sql.Tx
	contract string
}

func (c *contractStorage) Get(ctx context.Context, key []byte) ([]byte, error) {
	var value []byte
	err := c.tx.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE contract = ? AND key = ?`,
		c.contract, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("kv get: %w", err)
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

func (c *contractStorage) Set(ctx context.Context, key, value []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv set: empty key")
	}
	if value == nil {
		value = []byte{}
	}
	_, err := c.tx.ExecContext(ctx, `
		INSERT INTO kv (contract, key, value) VALUES (?, ?, ?)
		ON CONFLICT(contract, key) DO UPDATE SET value = excluded.value
	`, c.contract, key, value)
	if err != nil {
		return fmt.Errorf("kv set: %w", err)
	}
	return nil
}

func (c *contractStorage) Delete(ctx context.Context, key []byte) error {
	if _, err := c.tx.ExecContext(ctx,
		`DELETE FROM kv WHERE contract = ? AND key = ?`, c.contract, key,
	); err != nil {
		return fmt.Errorf("kv delete: %w", err)
	}
	return nil
}

func (c *contractStorage) Range(ctx context.Context, start, end []byte, order chain.Order, limit int) ([]chain.KV, error) {
	var sb strings.Builder
	args := []any{c.contract}
	sb.WriteString(`SELECT key, value FROM kv WHERE contract = ?`)
	if start != nil {
		sb.WriteString(` AND key >= ?`)
		args = append(args, start)
	}
	if end != nil {
		sb.WriteString(` AND key < ?`)
		args = append(args, end)
	}
	if order == chain.Descending {
		sb.WriteString(` ORDER BY key DESC`)
	} else {
		sb.WriteString(` ORDER BY key ASC`)
	}
	if limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, limit)
	}

	rows, err := c.tx.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("kv range: %w", err)
	}
	defer rows.Close()

	var out []chain.KV
	for rows.Next() {
		var kv chain.KV
		if err := rows.Scan(&kv.Key, &kv.Value); err != nil {
			return nil, fmt.Errorf("kv range scan: %w", err)
		}
		out = append(out, kv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("kv range: %w", err)
	}
	return out, nil
}
