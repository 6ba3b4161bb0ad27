package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/roach88/mapview/internal/bundle"
)

func TestSaveBundle_Inserts(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	b := createTestBundle("Model", "closure-1", "Model.People", "SELECT 1", "Model.Addresses", "SELECT 2")
	id, inserted, err := s.SaveBundle(ctx, b)
	if err != nil {
		t.Fatalf("SaveBundle() failed: %v", err)
	}
	if !inserted {
		t.Error("inserted = false, want true")
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("id %q is not a UUID: %v", id, err)
	}
	if parsed.Version() != 7 {
		t.Errorf("id version = %d, want 7", parsed.Version())
	}

	var views int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM bundle_views WHERE bundle_id = ?", id).Scan(&views); err != nil {
		t.Fatalf("count views: %v", err)
	}
	if views != 2 {
		t.Errorf("stored %d views, want 2", views)
	}
}

func TestSaveBundle_IdempotentOnClosure(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, _, err := s.SaveBundle(ctx, createTestBundle("Model", "closure-1", "Model.People", "SELECT 1"))
	if err != nil {
		t.Fatalf("first SaveBundle() failed: %v", err)
	}
	second, inserted, err := s.SaveBundle(ctx, createTestBundle("Model", "closure-1", "Model.People", "SELECT 1"))
	if err != nil {
		t.Fatalf("second SaveBundle() failed: %v", err)
	}
	if inserted {
		t.Error("second save inserted a duplicate bundle")
	}
	if first != second {
		t.Errorf("second save returned id %s, want %s", second, first)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM bundles").Scan(&count); err != nil {
		t.Fatalf("count bundles: %v", err)
	}
	if count != 1 {
		t.Errorf("stored %d bundles, want 1", count)
	}
}

func TestSaveBundle_NewViewsSameClosure(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, _, err := s.SaveBundle(ctx, createTestBundle("Model", "closure-1", "Model.People", "SELECT 1"))
	if err != nil {
		t.Fatalf("first SaveBundle() failed: %v", err)
	}
	second, inserted, err := s.SaveBundle(ctx, createTestBundle("Model", "closure-1", "Model.People", "SELECT 2"))
	if err != nil {
		t.Fatalf("second SaveBundle() failed: %v", err)
	}
	if !inserted {
		t.Error("bundle with different views was not stored")
	}
	if first == second {
		t.Errorf("second save reused id %s", first)
	}

	latest, err := s.LatestBundle(ctx, "Model", "Store")
	if err != nil {
		t.Fatalf("LatestBundle() failed: %v", err)
	}
	if got := latest.Views[0].Text; got != "SELECT 2" {
		t.Errorf("latest bundle view = %q, want %q", got, "SELECT 2")
	}
}

func TestSaveBundle_AssignsIncreasingSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i, closure := range []string{"c1", "c2", "c3"} {
		id, _, err := s.SaveBundle(ctx, createTestBundle("Model", closure))
		if err != nil {
			t.Fatalf("SaveBundle(%s) failed: %v", closure, err)
		}
		var seq int64
		if err := s.db.QueryRow("SELECT seq FROM bundles WHERE id = ?", id).Scan(&seq); err != nil {
			t.Fatalf("select seq: %v", err)
		}
		if seq != int64(i+1) {
			t.Errorf("bundle %s seq = %d, want %d", closure, seq, i+1)
		}
	}
}

func TestSaveBundle_RejectsDuplicateSet(t *testing.T) {
	s := createTestStore(t)
	b := createTestBundle("Model", "closure-1", "Model.People", "SELECT 1")
	b.Views = append(b.Views, bundle.View{Set: "Model.People", Text: "SELECT 2"})

	if _, _, err := s.SaveBundle(context.Background(), b); err == nil {
		t.Fatal("SaveBundle() accepted a bundle listing a set twice")
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM bundles").Scan(&count); err != nil {
		t.Fatalf("count bundles: %v", err)
	}
	if count != 0 {
		t.Errorf("stored %d bundles after a rejected save, want 0", count)
	}
}

func TestSaveBundle_Nil(t *testing.T) {
	s := createTestStore(t)
	if _, _, err := s.SaveBundle(context.Background(), nil); err == nil {
		t.Fatal("SaveBundle(nil) succeeded")
	}
}

func TestDeleteBundle(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	id, _, err := s.SaveBundle(ctx, createTestBundle("Model", "closure-1", "Model.People", "SELECT 1"))
	if err != nil {
		t.Fatalf("SaveBundle() failed: %v", err)
	}
	if err := s.DeleteBundle(ctx, id); err != nil {
		t.Fatalf("DeleteBundle() failed: %v", err)
	}

	var views int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM bundle_views").Scan(&views); err != nil {
		t.Fatalf("count views: %v", err)
	}
	if views != 0 {
		t.Errorf("%d views survived their bundle", views)
	}

	if err := s.DeleteBundle(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteBundle() = %v, want ErrNotFound", err)
	}
}
