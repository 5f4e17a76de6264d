package cart

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func testStore(t *testing.T, disk Persister) *Store {
	t.Helper()
	s, err := NewStore(context.Background(), StoreDeps{Key: "p9-cart", Persister: disk})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

func hoodie(size Size) Candidate {
	return Candidate{
		ProductID: "p1",
		Slug:      "night-runner-hoodie",
		Name:      "Night Runner Hoodie",
		Image:     "https://cdn.example.com/p1.jpg",
		UnitPrice: 10000,
		Size:      size,
	}
}

func TestNewStore(t *testing.T) {
	t.Run("requires key", func(t *testing.T) {
		if _, err := NewStore(context.Background(), StoreDeps{Key: "  "}); err == nil {
			t.Fatalf("expected error for blank key")
		}
	})

	t.Run("starts empty without persister", func(t *testing.T) {
		s := testStore(t, nil)
		if got := s.ItemCount(); got != 0 {
			t.Fatalf("expected empty store, got %d items", got)
		}
		if got := s.Subtotal(); got != 0 {
			t.Fatalf("expected zero subtotal, got %d", got)
		}
	})
}

func TestAddLineMerge(t *testing.T) {
	t.Run("same key accumulates quantity and keeps first snapshot", func(t *testing.T) {
		s := testStore(t, nil)
		ctx := context.Background()

		s.AddLine(ctx, hoodie(SizeOf("M")), 1)

		changed := hoodie(SizeOf("M"))
		changed.Name = "Renamed Hoodie"
		changed.UnitPrice = 99999
		changed.Image = "https://cdn.example.com/other.jpg"
		s.AddLine(ctx, changed, 2)

		lines := s.Lines()
		if len(lines) != 1 {
			t.Fatalf("expected one merged line, got %d", len(lines))
		}
		if got, want := lines[0].Quantity, 3; got != want {
			t.Fatalf("expected quantity %d, got %d", want, got)
		}
		if got, want := lines[0].Name, "Night Runner Hoodie"; got != want {
			t.Fatalf("expected first-add name %q, got %q", want, got)
		}
		if got, want := lines[0].UnitPrice, int64(10000); got != want {
			t.Fatalf("expected first-add price %d, got %d", want, got)
		}
		if got, want := lines[0].Image, "https://cdn.example.com/p1.jpg"; got != want {
			t.Fatalf("expected first-add image %q, got %q", want, got)
		}
	})

	t.Run("null size and sized are distinct lines", func(t *testing.T) {
		s := testStore(t, nil)
		ctx := context.Background()

		s.AddLine(ctx, hoodie(NoSize), 1)
		s.AddLine(ctx, hoodie(SizeOf("M")), 1)

		if got := len(s.Lines()); got != 2 {
			t.Fatalf("expected two distinct lines, got %d", got)
		}
	})

	t.Run("blank size label equals no size", func(t *testing.T) {
		s := testStore(t, nil)
		ctx := context.Background()

		s.AddLine(ctx, hoodie(NoSize), 1)
		s.AddLine(ctx, hoodie(SizeOf("   ")), 1)

		lines := s.Lines()
		if len(lines) != 1 {
			t.Fatalf("expected blank label to merge with unsized line, got %d lines", len(lines))
		}
		if got, want := lines[0].Quantity, 2; got != want {
			t.Fatalf("expected quantity %d, got %d", want, got)
		}
	})

	t.Run("clamps quantity below one", func(t *testing.T) {
		s := testStore(t, nil)
		s.AddLine(context.Background(), hoodie(NoSize), -3)
		lines := s.Lines()
		if len(lines) != 1 || lines[0].Quantity != 1 {
			t.Fatalf("expected single line with quantity 1, got %#v", lines)
		}
	})

	t.Run("preserves insertion order", func(t *testing.T) {
		s := testStore(t, nil)
		ctx := context.Background()

		tee := Candidate{ProductID: "p2", Slug: "logo-tee", Name: "Logo Tee", UnitPrice: 5000}
		cap := Candidate{ProductID: "p3", Slug: "mesh-cap", Name: "Mesh Cap", UnitPrice: 2000}

		s.AddLine(ctx, hoodie(SizeOf("L")), 1)
		s.AddLine(ctx, tee, 1)
		s.AddLine(ctx, cap, 1)
		s.AddLine(ctx, hoodie(SizeOf("L")), 1)

		var ids []string
		for _, l := range s.Lines() {
			ids = append(ids, l.ProductID)
		}
		if want := []string{"p1", "p2", "p3"}; !reflect.DeepEqual(ids, want) {
			t.Fatalf("expected order %v, got %v", want, ids)
		}
	})
}

func TestRemoveLine(t *testing.T) {
	t.Run("removes only the matching key", func(t *testing.T) {
		s := testStore(t, nil)
		ctx := context.Background()

		s.AddLine(ctx, hoodie(NoSize), 1)
		s.AddLine(ctx, hoodie(SizeOf("M")), 1)
		s.RemoveLine(ctx, "p1", SizeOf("M"))

		lines := s.Lines()
		if len(lines) != 1 {
			t.Fatalf("expected one remaining line, got %d", len(lines))
		}
		if lines[0].Size != NoSize {
			t.Fatalf("expected the unsized line to survive, got %#v", lines[0])
		}
	})

	t.Run("absent key is a no-op", func(t *testing.T) {
		s := testStore(t, nil)
		ctx := context.Background()

		s.AddLine(ctx, hoodie(SizeOf("M")), 2)
		before := s.Lines()
		s.RemoveLine(ctx, "missing", NoSize)

		if after := s.Lines(); !reflect.DeepEqual(before, after) {
			t.Fatalf("expected unchanged lines, got %#v", after)
		}
	})
}

func TestSetQuantity(t *testing.T) {
	t.Run("sets absolute value", func(t *testing.T) {
		s := testStore(t, nil)
		ctx := context.Background()

		s.AddLine(ctx, hoodie(SizeOf("M")), 5)
		s.SetQuantity(ctx, "p1", SizeOf("M"), 2)

		if got := s.Lines()[0].Quantity; got != 2 {
			t.Fatalf("expected quantity 2, got %d", got)
		}
	})

	t.Run("zero and negative collapse to removal", func(t *testing.T) {
		for _, qty := range []int{0, -5} {
			s := testStore(t, nil)
			ctx := context.Background()
			s.AddLine(ctx, hoodie(SizeOf("M")), 3)
			s.SetQuantity(ctx, "p1", SizeOf("M"), qty)
			if got := len(s.Lines()); got != 0 {
				t.Fatalf("SetQuantity(%d): expected empty cart, got %d lines", qty, got)
			}
		}
	})

	t.Run("absent key never creates a line", func(t *testing.T) {
		s := testStore(t, nil)
		s.SetQuantity(context.Background(), "ghost", SizeOf("M"), 4)
		if got := len(s.Lines()); got != 0 {
			t.Fatalf("expected no lines, got %d", got)
		}
	})
}

func TestTotals(t *testing.T) {
	s := testStore(t, nil)
	ctx := context.Background()

	s.AddLine(ctx, Candidate{ProductID: "a", Name: "A", UnitPrice: 5000}, 2)
	s.AddLine(ctx, Candidate{ProductID: "b", Name: "B", UnitPrice: 2000}, 3)

	if got, want := s.Subtotal(), int64(16000); got != want {
		t.Fatalf("expected subtotal %d, got %d", want, got)
	}
	if got, want := s.ItemCount(), 5; got != want {
		t.Fatalf("expected item count %d, got %d", want, got)
	}
}

func TestClear(t *testing.T) {
	s := testStore(t, nil)
	ctx := context.Background()

	s.AddLine(ctx, hoodie(SizeOf("M")), 2)
	s.AddLine(ctx, hoodie(NoSize), 1)
	s.Clear(ctx)

	if got := len(s.Lines()); got != 0 {
		t.Fatalf("expected empty cart after clear, got %d lines", got)
	}
	if got := s.Subtotal(); got != 0 {
		t.Fatalf("expected zero subtotal after clear, got %d", got)
	}
}

func TestEndToEndScenario(t *testing.T) {
	s := testStore(t, nil)
	ctx := context.Background()

	s.AddLine(ctx, hoodie(SizeOf("M")), 1)
	s.AddLine(ctx, hoodie(SizeOf("M")), 2)

	lines := s.Lines()
	if len(lines) != 1 || lines[0].Quantity != 3 {
		t.Fatalf("expected one line with quantity 3, got %#v", lines)
	}
	if got, want := s.Subtotal(), int64(30000); got != want {
		t.Fatalf("expected subtotal %d, got %d", want, got)
	}

	s.SetQuantity(ctx, "p1", SizeOf("M"), 1)
	if got, want := s.Subtotal(), int64(10000); got != want {
		t.Fatalf("expected subtotal %d, got %d", want, got)
	}

	s.RemoveLine(ctx, "p1", SizeOf("M"))
	if got := len(s.Lines()); got != 0 {
		t.Fatalf("expected empty cart, got %d lines", got)
	}
	if got := s.Subtotal(); got != 0 {
		t.Fatalf("expected zero subtotal, got %d", got)
	}
}

func TestSubscribe(t *testing.T) {
	s := testStore(t, nil)
	ctx := context.Background()

	var seen []int
	cancel := s.Subscribe(func(snap Snapshot) {
		seen = append(seen, snap.ItemCount)
	})

	s.AddLine(ctx, hoodie(NoSize), 2)
	s.SetQuantity(ctx, "p1", NoSize, 1)
	cancel()
	s.Clear(ctx)

	if want := []int{2, 1}; !reflect.DeepEqual(seen, want) {
		t.Fatalf("expected notifications %v, got %v", want, seen)
	}
}

type failingPersister struct {
	loadErr error
	saveErr error
	saved   [][]Line
}

func (f *failingPersister) Load(context.Context, string) ([]Line, bool, error) {
	if f.loadErr != nil {
		return nil, false, f.loadErr
	}
	return nil, false, nil
}

func (f *failingPersister) Save(_ context.Context, _ string, lines []Line) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, lines)
	return nil
}

func TestPersistenceBestEffort(t *testing.T) {
	t.Run("load failure starts empty", func(t *testing.T) {
		disk := &failingPersister{loadErr: errors.New("disk on fire")}
		s := testStore(t, disk)
		if got := len(s.Lines()); got != 0 {
			t.Fatalf("expected empty cart, got %d lines", got)
		}
	})

	t.Run("save failure keeps in-memory state", func(t *testing.T) {
		disk := &failingPersister{saveErr: errors.New("disk full")}
		s := testStore(t, disk)
		s.AddLine(context.Background(), hoodie(NoSize), 2)
		if got := s.ItemCount(); got != 2 {
			t.Fatalf("expected in-memory state to survive save failure, got %d items", got)
		}
	})

	t.Run("every mutation saves the full state", func(t *testing.T) {
		disk := &failingPersister{}
		s := testStore(t, disk)
		ctx := context.Background()

		s.AddLine(ctx, hoodie(NoSize), 1)
		s.SetQuantity(ctx, "p1", NoSize, 4)
		s.RemoveLine(ctx, "p1", NoSize)
		s.Clear(ctx)

		if got, want := len(disk.saved), 4; got != want {
			t.Fatalf("expected %d saves, got %d", want, got)
		}
		if got := len(disk.saved[1]); got != 1 {
			t.Fatalf("expected second save to hold one line, got %d", got)
		}
		if got := disk.saved[1][0].Quantity; got != 4 {
			t.Fatalf("expected saved quantity 4, got %d", got)
		}
	})
}

func TestRoundTrip(t *testing.T) {
	disk := NewMemoryPersister()
	ctx := context.Background()

	first := testStore(t, disk)
	first.AddLine(ctx, hoodie(SizeOf("M")), 2)
	first.AddLine(ctx, Candidate{ProductID: "p2", Slug: "logo-tee", Name: "Logo Tee", UnitPrice: 5000}, 1)

	// Simulates a fresh process reading the same slot.
	second := testStore(t, disk)
	if got, want := second.Lines(), first.Lines(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected round-tripped lines %#v, got %#v", want, got)
	}
}
