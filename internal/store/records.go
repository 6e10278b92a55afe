package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/mintgate/internal/chain"
)

// CodeRecord is a registered component implementation.
type CodeRecord struct {
	ID       uint64
	Name     string
	Checksum string
}

// ContractRecord is a deployed component instance.
type ContractRecord struct {
	Address chain.Addr
	CodeID  uint64
	Label   string
	Creator chain.Addr
	Admin   chain.Addr
	Seq     uint64
}

// UpsertCode registers name and returns its code id. Registering an
// existing name returns the id it was first given, so ids survive reopening
// the database. Ids start at 1.
func (t *Tx) UpsertCode(ctx context.Context, name string) (uint64, error) {
	var id uint64
	err := t.tx.QueryRowContext(ctx, `SELECT id FROM codes WHERE name = ?`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("lookup code %q: %w", name, err)
	}

	if err := t.tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM codes`).Scan(&id); err != nil {
		return 0, fmt.Errorf("next code id: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx,
		`INSERT INTO codes (id, name, checksum) VALUES (?, ?, ?)`,
		id, name, chain.CodeChecksum(name),
	); err != nil {
		return 0, fmt.Errorf("insert code %q: %w", name, err)
	}
	return id, nil
}

// Code loads a code record by id.
func (t *Tx) Code(ctx context.Context, id uint64) (CodeRecord, error) {
	rec := CodeRecord{ID: id}
	err := t.tx.QueryRowContext(ctx,
		`SELECT name, checksum FROM codes WHERE id = ?`, id,
	).Scan(&rec.Name, &rec.Checksum)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, fmt.Errorf("code %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return rec, fmt.Errorf("code %d: %w", id, err)
	}
	return rec, nil
}

// NextContractSeq returns the sequence number the next contract will get.
// Sequence numbers start at 1.
func (t *Tx) NextContractSeq(ctx context.Context) (uint64, error) {
	var seq uint64
	if err := t.tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM contracts`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next contract seq: %w", err)
	}
	return seq, nil
}

// InsertContract records a newly deployed contract.
func (t *Tx) InsertContract(ctx context.Context, rec ContractRecord) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO contracts (address, code_id, label, creator, admin, seq)
		VALUES (?, ?, ?, ?, ?, ?)
	`, string(rec.Address), rec.CodeID, rec.Label, string(rec.Creator), string(rec.Admin), rec.Seq)
	if err != nil {
		return fmt.Errorf("insert contract %s: %w", rec.Address, err)
	}
	return nil
}

// Contract loads a contract record by address.
func (t *Tx) Contract(ctx context.Context, addr chain.Addr) (ContractRecord, error) {
	return scanContract(t.tx.QueryRowContext(ctx, `
		SELECT address, code_id, label, creator, admin, seq
		FROM contracts WHERE address = ?
	`, string(addr)), addr)
}

// Contracts lists all deployed contracts in deployment order.
func (s *Store) Contracts(ctx context.Context) ([]ContractRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT address, code_id, label, creator, admin, seq
		FROM contracts ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	defer rows.Close()

	var out []ContractRecord
	for rows.Next() {
		var rec ContractRecord
		var addr, creator, admin string
		if err := rows.Scan(&addr, &rec.CodeID, &rec.Label, &creator, &admin, &rec.Seq); err != nil {
			return nil, fmt.Errorf("scan contract: %w", err)
		}
		rec.Address, rec.Creator, rec.Admin = chain.Addr(addr), chain.Addr(creator), chain.Addr(admin)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanContract(row *sql.Row, addr chain.Addr) (ContractRecord, error) {
	var rec ContractRecord
	var address, creator, admin string
	err := row.Scan(&address, &rec.CodeID, &rec.Label, &creator, &admin, &rec.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, fmt.Errorf("contract %s: %w", addr, ErrNotFound)
	}
	if err != nil {
		return rec, fmt.Errorf("contract %s: %w", addr, err)
	}
	rec.Address, rec.Creator, rec.Admin = chain.Addr(address), chain.Addr(creator), chain.Addr(admin)
	return rec, nil
}
