package cart

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFilePersister(t *testing.T) {
	t.Run("requires directory", func(t *testing.T) {
		if _, err := NewFilePersister("  "); err == nil {
			t.Fatalf("expected error for blank directory")
		}
	})

	t.Run("round trips a slot", func(t *testing.T) {
		disk, err := NewFilePersister(t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ctx := context.Background()

		lines := []Line{
			{ProductID: "p1", Slug: "night-runner-hoodie", Name: "Night Runner Hoodie", UnitPrice: 10000, Size: SizeOf("M"), Quantity: 2},
			{ProductID: "p2", Slug: "logo-tee", Name: "Logo Tee", UnitPrice: 5000, Quantity: 1},
		}
		if err := disk.Save(ctx, "p9-cart", lines); err != nil {
			t.Fatalf("unexpected save error: %v", err)
		}

		got, ok, err := disk.Load(ctx, "p9-cart")
		if err != nil {
			t.Fatalf("unexpected load error: %v", err)
		}
		if !ok {
			t.Fatalf("expected slot to exist")
		}
		if !reflect.DeepEqual(got, lines) {
			t.Fatalf("expected %#v, got %#v", lines, got)
		}
	})

	t.Run("missing slot reports not ok", func(t *testing.T) {
		disk, err := NewFilePersister(t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, ok, err := disk.Load(context.Background(), "never-written")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Fatalf("expected ok=false for missing slot")
		}
	})

	t.Run("corrupted slot surfaces an error for the store to swallow", func(t *testing.T) {
		dir := t.TempDir()
		disk, err := NewFilePersister(dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, "p9-cart.json"), []byte("{not json"), 0o644); err != nil {
			t.Fatalf("write corrupt slot: %v", err)
		}

		if _, _, err := disk.Load(context.Background(), "p9-cart"); err == nil {
			t.Fatalf("expected decode error")
		}

		// The store built on top starts empty rather than failing.
		s, err := NewStore(context.Background(), StoreDeps{Key: "p9-cart", Persister: disk})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := len(s.Lines()); got != 0 {
			t.Fatalf("expected empty store over corrupt slot, got %d lines", got)
		}
	})

	t.Run("keys with separators map to distinct files", func(t *testing.T) {
		disk, err := NewFilePersister(t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ctx := context.Background()

		a := []Line{{ProductID: "a", Name: "A", UnitPrice: 100, Quantity: 1}}
		b := []Line{{ProductID: "b", Name: "B", UnitPrice: 200, Quantity: 2}}
		if err := disk.Save(ctx, "p9-cart:one", a); err != nil {
			t.Fatalf("unexpected save error: %v", err)
		}
		if err := disk.Save(ctx, "p9-cart:two", b); err != nil {
			t.Fatalf("unexpected save error: %v", err)
		}

		got, ok, err := disk.Load(ctx, "p9-cart:one")
		if err != nil || !ok {
			t.Fatalf("expected slot one, ok=%v err=%v", ok, err)
		}
		if !reflect.DeepEqual(got, a) {
			t.Fatalf("expected %#v, got %#v", a, got)
		}
	})
}

func TestManager(t *testing.T) {
	t.Run("same id returns same store", func(t *testing.T) {
		m := NewManager(ManagerDeps{Persister: NewMemoryPersister()})
		ctx := context.Background()
		if m.Store(ctx, "abc") != m.Store(ctx, "abc") {
			t.Fatalf("expected cached store for repeated id")
		}
	})

	t.Run("distinct ids get distinct slots", func(t *testing.T) {
		disk := NewMemoryPersister()
		m := NewManager(ManagerDeps{Persister: disk})
		ctx := context.Background()

		m.Store(ctx, "one").AddLine(ctx, Candidate{ProductID: "p1", Name: "A", UnitPrice: 100}, 1)
		if got := m.Store(ctx, "two").ItemCount(); got != 0 {
			t.Fatalf("expected empty store for fresh id, got %d items", got)
		}
	})
}
