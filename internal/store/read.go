package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/mapview/internal/bundle"
	"github.com/roach88/mapview/internal/closurehash"
)

// Summary describes one stored bundle without its views.
type Summary struct {
	ID                  string
	Seq                 int64
	ConceptualContainer string
	StoreContainer      string
	ClosureDigest       closurehash.Digest
	ViewsDigest         closurehash.Digest
	Views               int
}

// ListBundles returns every stored bundle, oldest first.
//
// Returns an empty slice (not nil) if the store holds no bundles.
func (s *Store) ListBundles(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.seq, b.conceptual_container, b.store_container, b.closure_digest, b.views_digest,
		       (SELECT COUNT(*) FROM bundle_views v WHERE v.bundle_id = b.id)
		FROM bundles b
		ORDER BY b.seq ASC, b.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query bundles: %w", err)
	}
	defer rows.Close()

	summaries := []Summary{}
	for rows.Next() {
		var sum Summary
		var closure, views string
		if err := rows.Scan(&sum.ID, &sum.Seq, &sum.ConceptualContainer, &sum.StoreContainer, &closure, &views, &sum.Views); err != nil {
			return nil, fmt.Errorf("scan bundle: %w", err)
		}
		sum.ClosureDigest = closurehash.Digest(closure)
		sum.ViewsDigest = closurehash.Digest(views)
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bundles: %w", err)
	}
	return summaries, nil
}

// ReadBundle returns the bundle with id, views ordered by set name.
func (s *Store) ReadBundle(ctx context.Context, id string) (*bundle.Bundle, error) {
	var b bundle.Bundle
	var closure, views string
	err := s.db.QueryRowContext(ctx, `
		SELECT conceptual_container, store_container, closure_digest, views_digest
		FROM bundles WHERE id = ?
	`, id).Scan(&b.ConceptualContainer, &b.StoreContainer, &closure, &views)
	if isNoRows(err) {
		return nil, fmt.Errorf("read bundle %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read bundle %s: %w", id, err)
	}
	b.ClosureDigest = closurehash.Digest(closure)
	b.ViewsDigest = closurehash.Digest(views)

	if b.Views, err = s.readViews(ctx, id); err != nil {
		return nil, err
	}
	return &b, nil
}

// LatestBundle returns the most recently saved bundle for the container
// pair, or ErrNotFound.
func (s *Store) LatestBundle(ctx context.Context, conceptual, storeContainer string) (*bundle.Bundle, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM bundles
		WHERE conceptual_container = ? AND store_container = ?
		ORDER BY seq DESC, id COLLATE BINARY DESC
		LIMIT 1
	`, conceptual, storeContainer).Scan(&id)
	if isNoRows(err) {
		return nil, fmt.Errorf("latest bundle for %s/%s: %w", conceptual, storeContainer, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("latest bundle for %s/%s: %w", conceptual, storeContainer, err)
	}
	return s.ReadBundle(ctx, id)
}

func (s *Store) readViews(ctx context.Context, id string) ([]bundle.View, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT set_name, text FROM bundle_views
		WHERE bundle_id = ?
		ORDER BY set_name COLLATE BINARY ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query views: %w", err)
	}
	defer rows.Close()

	var views []bundle.View
	for rows.Next() {
		var v bundle.View
		if err := rows.Scan(&v.Set, &v.Text); err != nil {
			return nil, fmt.Errorf("scan view: %w", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate views: %w", err)
	}
	return views, nil
}

// Provider returns a bundle provider loading the latest bundle for the
// container pair. Registering it with a bundle.Registry defers the read
// until the container is first resolved.
func (s *Store) Provider(ctx context.Context, conceptual, storeContainer string) bundle.Provider {
	return bundle.ProviderFunc(func() (*bundle.Bundle, error) {
		return s.LatestBundle(ctx, conceptual, storeContainer)
	})
}

// Providers returns one provider per distinct container pair in the store,
// each loading that pair's latest bundle.
func (s *Store) Providers(ctx context.Context) ([]bundle.Provider, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT conceptual_container, store_container
		FROM bundles
		GROUP BY conceptual_container, store_container
		ORDER BY MIN(seq) ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query containers: %w", err)
	}
	defer rows.Close()

	var providers []bundle.Provider
	for rows.Next() {
		var conceptual, storeContainer string
		if err := rows.Scan(&conceptual, &storeContainer); err != nil {
			return nil, fmt.Errorf("scan container: %w", err)
		}
		providers = append(providers, s.Provider(ctx, conceptual, storeContainer))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate containers: %w", err)
	}
	return providers, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
