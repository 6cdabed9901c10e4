package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Begin records the start of an operation and returns it.
func (j *Journal) Begin(ctx context.Context, kind Kind, modID uint64, subject string) (Operation, error) {
	op := Operation{
		ID:        j.ids.Generate(),
		Seq:       j.clock.Next(),
		Kind:      kind,
		ModID:     modID,
		Subject:   subject,
		StartedAt: j.now().UTC().Truncate(time.Millisecond),
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO operations (id, seq, kind, mod_id, subject, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		op.ID,
		op.Seq,
		string(op.Kind),
		nullableID(op.ModID),
		op.Subject,
		op.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Operation{}, fmt.Errorf("write operation: %w", err)
	}
	return op, nil
}

// Finish records the outcome of op. A nil opErr is StatusOK; otherwise the
// error code and structured payload are kept.
//
// Uses ON CONFLICT DO NOTHING: an operation has exactly one outcome.
func (j *Journal) Finish(ctx context.Context, op Operation, modID uint64, opErr error) error {
	out := outcomeFromError(opErr)
	out.ModID = modID
	return j.writeOutcome(ctx, op, out)
}

// Decline records that the user refused to continue op.
func (j *Journal) Decline(ctx context.Context, op Operation, modID uint64) error {
	return j.writeOutcome(ctx, op, Outcome{Status: StatusDeclined, ModID: modID})
}

func (j *Journal) writeOutcome(ctx context.Context, op Operation, out Outcome) error {
	details, err := marshalDetails(out.Details)
	if err != nil {
		return fmt.Errorf("write outcome: %w", err)
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO outcomes (operation_id, seq, status, mod_id, error_code, message, details)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		op.ID,
		j.clock.Next(),
		string(out.Status),
		nullableID(out.ModID),
		out.Code,
		out.Message,
		details,
	)
	if err != nil {
		return fmt.Errorf("write outcome: %w", err)
	}
	return nil
}

// RecordPending announces that op is about to write paths for modID.
// All rows are inserted in one transaction.
func (j *Journal) RecordPending(ctx context.Context, op Operation, modID uint64, paths []string) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record pending: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pending_injections (operation_id, mod_id, path, seq)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(operation_id, path) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("record pending: prepare: %w", err)
	}
	defer stmt.Close()

	for _, p := range paths {
		if _, err := stmt.ExecContext(ctx, op.ID, modID, p, j.clock.Next()); err != nil {
			return fmt.Errorf("record pending %q: %w", p, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record pending: commit: %w", err)
	}
	return nil
}

// ClearPendingForMod drops every pending row announced for modID, by any
// operation. Called once the mod's ownership is committed, which also
// settles rows left by earlier failed activations of the same mod.
func (j *Journal) ClearPendingForMod(ctx context.Context, modID uint64) error {
	_, err := j.db.ExecContext(ctx, `DELETE FROM pending_injections WHERE mod_id = ?`, int64(modID))
	if err != nil {
		return fmt.Errorf("clear pending: %w", err)
	}
	return nil
}

func nullableID(id uint64) sql.NullInt64 {
	if id == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(id), Valid: true}
}
