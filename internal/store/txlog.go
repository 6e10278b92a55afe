package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/mintgate/internal/chain"
)

// Tx log status values.
const (
	StatusCommitted = "committed"
	StatusFailed    = "failed"
)

// TxRecord is one top-level call in the tx log.
type TxRecord struct {
	Seq       int64           `json:"seq"`
	TxID      string          `json:"tx_id"`
	Kind      string          `json:"kind"`
	Sender    chain.Addr      `json:"sender"`
	Contract  chain.Addr      `json:"contract"`
	Msg       json.RawMessage `json:"msg"`
	Status    string          `json:"status"`
	ErrorCode string          `json:"error_code,omitempty"`
	Error     string          `json:"error,omitempty"`
	Events    []chain.Event   `json:"events"`
	Height    uint64          `json:"height"`
	Time      chain.Timestamp `json:"time"`
}

// AppendTx appends a record to the tx log and returns its seq.
//
// Messages and events are stored as canonical JSON so that logs of
// identical runs are byte-identical. A message that is not valid JSON is
// stored as a JSON string.
func (s *Store) AppendTx(ctx context.Context, rec TxRecord) (int64, error) {
	msg, err := canonicalMsg(rec.Msg)
	if err != nil {
		return 0, fmt.Errorf("append tx: %w", err)
	}
	events := rec.Events
	if events == nil {
		events = []chain.Event{}
	}
	eventsJSON, err := chain.MarshalCanonical(events)
	if err != nil {
		return 0, fmt.Errorf("append tx: events: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO txs
		(tx_id, kind, sender, contract, msg, status, error_code, error, events, block_height, block_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.TxID,
		rec.Kind,
		string(rec.Sender),
		string(rec.Contract),
		string(msg),
		rec.Status,
		rec.ErrorCode,
		rec.Error,
		string(eventsJSON),
		rec.Height,
		int64(rec.Time),
	)
	if err != nil {
		return 0, fmt.Errorf("append tx: %w", err)
	}
	return res.LastInsertId()
}

func canonicalMsg(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 {
		return []byte("null"), nil
	}
	if json.Valid(raw) {
		if c, err := chain.MarshalCanonical(raw); err == nil {
			return c, nil
		}
	}
	return json.Marshal(string(raw))
}

// ReadTxs returns the tx log in seq order. If contract is non-empty only
// calls addressed to it are returned.
func (s *Store) ReadTxs(ctx context.Context, contract chain.Addr) ([]TxRecord, error) {
	query := `
		SELECT seq, tx_id, kind, sender, contract, msg, status, error_code, error, events, block_height, block_time
		FROM txs`
	var args []any
	if contract != "" {
		query += ` WHERE contract = ?`
		args = append(args, string(contract))
	}
	query += ` ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read txs: %w", err)
	}
	defer rows.Close()

	var out []TxRecord
	for rows.Next() {
		var rec TxRecord
		var sender, addr, msg, events string
		var blockTime int64
		if err := rows.Scan(&rec.Seq, &rec.TxID, &rec.Kind, &sender, &addr, &msg,
			&rec.Status, &rec.ErrorCode, &rec.Error, &events, &rec.Height, &blockTime); err != nil {
			return nil, fmt.Errorf("scan tx: %w", err)
		}
		rec.Sender = chain.Addr(sender)
		rec.Contract = chain.Addr(addr)
		rec.Msg = json.RawMessage(msg)
		rec.Time = chain.Timestamp(blockTime)
		if err := json.Unmarshal([]byte(events), &rec.Events); err != nil {
			return nil, fmt.Errorf("decode tx %s events: %w", rec.TxID, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read txs: %w", err)
	}
	return out, nil
}
