package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// History returns the most recent operations, newest first. A limit of
// zero or less returns everything.
func (j *Journal) History(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT o.id, o.seq, o.kind, o.mod_id, o.subject, o.started_at,
		       r.seq, r.status, r.mod_id, r.error_code, r.message, r.details
		FROM operations o
		LEFT JOIN outcomes r ON r.operation_id = o.id
		ORDER BY o.seq DESC, o.id COLLATE BINARY ASC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		e            Entry
		kind         string
		opModID      sql.NullInt64
		startedAt    string
		outSeq       sql.NullInt64
		outStatus    sql.NullString
		outModID     sql.NullInt64
		outCode      sql.NullString
		outMessage   sql.NullString
		outDetailsJS sql.NullString
	)
	err := rows.Scan(
		&e.Operation.ID, &e.Operation.Seq, &kind, &opModID, &e.Operation.Subject, &startedAt,
		&outSeq, &outStatus, &outModID, &outCode, &outMessage, &outDetailsJS,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("scan history: %w", err)
	}

	e.Operation.Kind = Kind(kind)
	e.Operation.ModID = uint64(opModID.Int64)
	e.Operation.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parse started_at: %w", err)
	}

	if outStatus.Valid {
		details, err := unmarshalDetails(outDetailsJS.String)
		if err != nil {
			return Entry{}, err
		}
		e.Outcome = &Outcome{
			Seq:     outSeq.Int64,
			Status:  Status(outStatus.String),
			ModID:   uint64(outModID.Int64),
			Code:    outCode.String,
			Message: outMessage.String,
			Details: details,
		}
	}
	return e, nil
}

// Pending returns every unconfirmed injection row ordered by seq.
func (j *Journal) Pending(ctx context.Context) ([]PendingInjection, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT operation_id, mod_id, path, seq
		FROM pending_injections
		ORDER BY seq ASC, path COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query pending: %w", err)
	}
	defer rows.Close()

	pending := []PendingInjection{}
	for rows.Next() {
		var (
			p     PendingInjection
			modID int64
		)
		if err := rows.Scan(&p.OperationID, &modID, &p.Path, &p.Seq); err != nil {
			return nil, fmt.Errorf("scan pending: %w", err)
		}
		p.ModID = uint64(modID)
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending: %w", err)
	}
	return pending, nil
}
