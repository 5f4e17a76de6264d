package cart

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var errStoreKeyRequired = errors.New("cart store: storage key is required")

// Line is one entry of the cart. Name, Slug, Image and UnitPrice are a
// snapshot taken when the line is first added; a later add of the same
// (ProductID, Size) key only accumulates Quantity and never refreshes the
// snapshot. UnitPrice is whole Naira.
type Line struct {
	ProductID string `json:"productId" firestore:"productId"`
	Slug      string `json:"slug" firestore:"slug"`
	Name      string `json:"name" firestore:"name"`
	Image     string `json:"image,omitempty" firestore:"image,omitempty"`
	UnitPrice int64  `json:"unitPrice" firestore:"unitPrice"`
	Size      Size   `json:"size" firestore:"size"`
	Quantity  int    `json:"quantity" firestore:"quantity"`
}

// Candidate describes a line to add, without a quantity.
type Candidate struct {
	ProductID string
	Slug      string
	Name      string
	Image     string
	UnitPrice int64
	Size      Size
}

func (l Line) sameKey(productID string, size Size) bool {
	return l.ProductID == productID && l.Size == size
}

// Snapshot is an immutable copy of the store state handed to readers and
// subscribers.
type Snapshot struct {
	Lines     []Line
	ItemCount int
	Subtotal  int64
}

// Subscriber receives a snapshot after every committed mutation.
type Subscriber func(Snapshot)

// StoreDeps wires the persistence slot and ambient dependencies of a Store.
type StoreDeps struct {
	// Key is the fixed slot the state is saved under. Required.
	Key string
	// Persister is optional; a nil persister leaves the store in-memory only.
	Persister Persister
	Logger    *zap.Logger
}

// Store is the cart aggregation store: an insertion-ordered collection of
// lines, unique per (ProductID, Size) key. Every mutation rewrites the full
// state through the persister before returning; persistence failures are
// swallowed and the in-memory state stays authoritative.
type Store struct {
	mu     sync.Mutex
	lines  []Line
	key    string
	disk   Persister
	logger *zap.Logger

	subMu  sync.Mutex
	subs   map[int]Subscriber
	nextID int
}

// NewStore constructs a Store and loads prior state from the persistence slot.
// A missing or unreadable slot yields an empty cart, never an error.
func NewStore(ctx context.Context, deps StoreDeps) (*Store, error) {
	key := strings.TrimSpace(deps.Key)
	if key == "" {
		return nil, errStoreKeyRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{
		key:    key,
		disk:   deps.Persister,
		logger: logger,
		subs:   make(map[int]Subscriber),
	}

	if s.disk != nil {
		lines, ok, err := s.disk.Load(ctx, key)
		switch {
		case err != nil:
			logger.Warn("cart load failed, starting empty",
				zap.String("key", key), zap.Error(err))
		case ok:
			s.lines = sanitizeLines(lines)
		}
	}
	return s, nil
}

// AddLine merges the candidate into the cart. An existing (ProductID, Size)
// line accumulates quantity and keeps its original snapshot fields; otherwise
// a new line is appended. Quantity is clamped to at least 1.
func (s *Store) AddLine(ctx context.Context, c Candidate, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	merged := false
	for i := range s.lines {
		if s.lines[i].sameKey(c.ProductID, c.Size) {
			s.lines[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		s.lines = append(s.lines, Line{
			ProductID: c.ProductID,
			Slug:      c.Slug,
			Name:      c.Name,
			Image:     c.Image,
			UnitPrice: c.UnitPrice,
			Size:      c.Size,
			Quantity:  quantity,
		})
	}
	snap := s.commitLocked(ctx)
	s.mu.Unlock()

	s.notify(snap)
}

// RemoveLine drops the line matching the key. Absent keys are a no-op.
func (s *Store) RemoveLine(ctx context.Context, productID string, size Size) {
	s.mu.Lock()
	kept := s.lines[:0]
	for _, l := range s.lines {
		if !l.sameKey(productID, size) {
			kept = append(kept, l)
		}
	}
	s.lines = kept
	snap := s.commitLocked(ctx)
	s.mu.Unlock()

	s.notify(snap)
}

// SetQuantity sets the matching line's quantity to an absolute value. A value
// below 1 removes the line entirely. Absent keys are a no-op and never create
// a line.
func (s *Store) SetQuantity(ctx context.Context, productID string, size Size, quantity int) {
	if quantity < 1 {
		s.RemoveLine(ctx, productID, size)
		return
	}

	s.mu.Lock()
	for i := range s.lines {
		if s.lines[i].sameKey(productID, size) {
			s.lines[i].Quantity = quantity
			break
		}
	}
	snap := s.commitLocked(ctx)
	s.mu.Unlock()

	s.notify(snap)
}

// Clear empties the cart unconditionally. Checkout calls this once an order
// is placed.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.lines = nil
	snap := s.commitLocked(ctx)
	s.mu.Unlock()

	s.notify(snap)
}

// Lines returns a copy of the lines in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyLines(s.lines)
}

// ItemCount sums quantities across all lines.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return countItems(s.lines)
}

// Subtotal sums UnitPrice*Quantity across all lines, in whole Naira.
func (s *Store) Subtotal() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sumLines(s.lines)
}

// View returns a consistent snapshot of lines and totals.
func (s *Store) View() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to run after every committed mutation. The returned
// cancel function unregisters it.
func (s *Store) Subscribe(fn Subscriber) func() {
	if fn == nil {
		return func() {}
	}
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// commitLocked persists the current state best-effort and returns a snapshot.
// Callers must hold mu.
func (s *Store) commitLocked(ctx context.Context) Snapshot {
	snap := s.snapshotLocked()
	if s.disk == nil {
		return snap
	}
	if err := s.disk.Save(ctx, s.key, snap.Lines); err != nil {
		s.logger.Warn("cart save failed, keeping in-memory state",
			zap.String("key", s.key), zap.Error(err))
	}
	return snap
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Lines:     copyLines(s.lines),
		ItemCount: countItems(s.lines),
		Subtotal:  sumLines(s.lines),
	}
}

func (s *Store) notify(snap Snapshot) {
	s.subMu.Lock()
	subs := make([]Subscriber, 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func copyLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}

func countItems(lines []Line) int {
	total := 0
	for _, l := range lines {
		total += l.Quantity
	}
	return total
}

func sumLines(lines []Line) int64 {
	var total int64
	for _, l := range lines {
		total += l.UnitPrice * int64(l.Quantity)
	}
	return total
}

// sanitizeLines drops unusable persisted entries and re-normalises sizes so a
// hand-edited or corrupted slot cannot violate the key invariant.
func sanitizeLines(lines []Line) []Line {
	var out []Line
	for _, l := range lines {
		l.ProductID = strings.TrimSpace(l.ProductID)
		if l.ProductID == "" || l.Quantity < 1 {
			continue
		}
		l.Size = SizeOf(l.Size.Label)
		dup := false
		for i := range out {
			if out[i].sameKey(l.ProductID, l.Size) {
				out[i].Quantity += l.Quantity
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, l)
		}
	}
	return out
}
