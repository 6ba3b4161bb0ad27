package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/mapview/internal/bundle"
)

// SaveBundle stores b and its views in one transaction.
//
// Returns the bundle ID and whether a new row was inserted. A bundle whose
// container pair, closure digest and views digest are already stored is not
// written again; the existing ID is returned with inserted=false.
func (s *Store) SaveBundle(ctx context.Context, b *bundle.Bundle) (id string, inserted bool, err error) {
	if b == nil {
		return "", false, fmt.Errorf("save bundle: nil bundle")
	}
	if _, err := b.ViewMap(); err != nil {
		return "", false, fmt.Errorf("save bundle: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, fmt.Errorf("save bundle: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	err = tx.QueryRowContext(ctx, `
		SELECT id FROM bundles
		WHERE conceptual_container = ? AND store_container = ?
		  AND closure_digest = ? AND views_digest = ?
	`, b.ConceptualContainer, b.StoreContainer, string(b.ClosureDigest), string(b.ViewsDigest)).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if !isNoRows(err) {
		return "", false, fmt.Errorf("save bundle: select existing: %w", err)
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM bundles`).Scan(&seq); err != nil {
		return "", false, fmt.Errorf("save bundle: next seq: %w", err)
	}

	newID, err := uuid.NewV7()
	if err != nil {
		return "", false, fmt.Errorf("save bundle: generate id: %w", err)
	}
	id = newID.String()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bundles
		(id, seq, conceptual_container, store_container, closure_digest, views_digest)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		id,
		seq,
		b.ConceptualContainer,
		b.StoreContainer,
		string(b.ClosureDigest),
		string(b.ViewsDigest),
	)
	if err != nil {
		return "", false, fmt.Errorf("save bundle: insert: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bundle_views (bundle_id, set_name, text) VALUES (?, ?, ?)
	`)
	if err != nil {
		return "", false, fmt.Errorf("save bundle: prepare views: %w", err)
	}
	defer stmt.Close()

	for _, v := range b.Views {
		if _, err := stmt.ExecContext(ctx, id, v.Set, v.Text); err != nil {
			return "", false, fmt.Errorf("save bundle: insert view %s: %w", v.Set, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("save bundle: commit: %w", err)
	}

	return id, true, nil
}

// DeleteBundle removes the bundle with id and its views. Deleting an
// unknown ID returns ErrNotFound.
func (s *Store) DeleteBundle(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bundles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete bundle: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete bundle: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete bundle %s: %w", id, ErrNotFound)
	}
	return nil
}
