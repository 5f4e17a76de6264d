package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/osegonte/p9-commerce/internal/cart"
	pfirestore "github.com/osegonte/p9-commerce/internal/platform/firestore"
	"github.com/osegonte/p9-commerce/internal/repositories"
)

const cartCollection = "carts"

// CartRepository stores each cart slot as one document keyed by the slot's
// namespace key. It implements cart.Persister for hosted deployments; the
// store treats its failures as best-effort.
type CartRepository struct {
	base *pfirestore.BaseRepository[cartDocument]
}

// NewCartRepository constructs a Firestore-backed cart persister.
func NewCartRepository(provider *pfirestore.Provider) (*CartRepository, error) {
	if provider == nil {
		return nil, errors.New("cart repository requires firestore provider")
	}
	return &CartRepository{
		base: pfirestore.NewBaseRepository[cartDocument](provider, cartCollection),
	}, nil
}

// Load reads the slot document. A missing document reports ok=false.
func (r *CartRepository) Load(ctx context.Context, key string) ([]cart.Line, bool, error) {
	if r == nil || r.base == nil {
		return nil, false, errors.New("cart repository not initialised")
	}
	id := slotDocumentID(key)
	if id == "" {
		return nil, false, errors.New("cart repository: key is required")
	}

	doc, err := r.base.Get(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	lines := make([]cart.Line, 0, len(doc.Data.Lines))
	for _, l := range doc.Data.Lines {
		lines = append(lines, cart.Line{
			ProductID: l.ProductID,
			Slug:      l.Slug,
			Name:      l.Name,
			Image:     l.Image,
			UnitPrice: l.UnitPrice,
			Size:      cart.SizeOf(l.Size),
			Quantity:  l.Quantity,
		})
	}
	return lines, true, nil
}

// Save overwrites the slot document with the full state.
func (r *CartRepository) Save(ctx context.Context, key string, lines []cart.Line) error {
	if r == nil || r.base == nil {
		return errors.New("cart repository not initialised")
	}
	id := slotDocumentID(key)
	if id == "" {
		return errors.New("cart repository: key is required")
	}

	doc := cartDocument{
		Lines:     make([]cartLineDocument, 0, len(lines)),
		UpdatedAt: time.Now().UTC(),
	}
	for _, l := range lines {
		size := ""
		if l.Size.Set {
			size = l.Size.Label
		}
		doc.Lines = append(doc.Lines, cartLineDocument{
			ProductID: l.ProductID,
			Slug:      l.Slug,
			Name:      l.Name,
			Image:     l.Image,
			UnitPrice: l.UnitPrice,
			Size:      size,
			Quantity:  l.Quantity,
		})
	}

	_, err := r.base.Set(ctx, id, doc)
	return err
}

// slotDocumentID flattens the slot key into a document ID. Firestore forbids
// forward slashes in IDs; everything else in a namespace key is already safe.
func slotDocumentID(key string) string {
	trimmed := strings.TrimSpace(key)
	return strings.ReplaceAll(trimmed, "/", "_")
}

type cartDocument struct {
	Lines     []cartLineDocument `firestore:"lines"`
	UpdatedAt time.Time          `firestore:"updatedAt"`
}

type cartLineDocument struct {
	ProductID string `firestore:"productId"`
	Slug      string `firestore:"slug,omitempty"`
	Name      string `firestore:"name"`
	Image     string `firestore:"image,omitempty"`
	UnitPrice int64  `firestore:"unitPrice"`
	Size      string `firestore:"size,omitempty"`
	Quantity  int    `firestore:"quantity"`
}

var _ cart.Persister = (*CartRepository)(nil)
