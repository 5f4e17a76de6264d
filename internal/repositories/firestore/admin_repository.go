package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/osegonte/p9-commerce/internal/domain"
	pfirestore "github.com/osegonte/p9-commerce/internal/platform/firestore"
	"github.com/osegonte/p9-commerce/internal/repositories"
)

const adminCollection = "admins"

// AdminRepository persists the allow-list within Firestore.
type AdminRepository struct {
	base *pfirestore.BaseRepository[adminDocument]
}

// NewAdminRepository constructs a Firestore-backed admin repository.
func NewAdminRepository(provider *pfirestore.Provider) (*AdminRepository, error) {
	if provider == nil {
		return nil, errors.New("admin repository requires firestore provider")
	}
	return &AdminRepository{
		base: pfirestore.NewBaseRepository[adminDocument](provider, adminCollection),
	}, nil
}

// List returns allow-list rows oldest first, matching the panel's display
// order.
func (r *AdminRepository) List(ctx context.Context) ([]domain.Admin, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("admin repository not initialised")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("createdAt", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.Admin, 0, len(docs))
	for _, doc := range docs {
		out = append(out, decodeAdmin(doc))
	}
	return out, nil
}

// GetByEmail loads the allow-list row for the email. Emails are stored
// lower-cased, and the lookup lower-cases its input to match.
func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (domain.Admin, error) {
	if r == nil || r.base == nil {
		return domain.Admin{}, errors.New("admin repository not initialised")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domain.Admin{}, errors.New("admin repository: email is required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("email", "==", email).Limit(1)
	})
	if err != nil {
		return domain.Admin{}, err
	}
	if len(docs) == 0 {
		return domain.Admin{}, errAdminNotFound{key: email}
	}
	return decodeAdmin(docs[0]), nil
}

// GetByID loads an allow-list row by document ID.
func (r *AdminRepository) GetByID(ctx context.Context, id string) (domain.Admin, error) {
	if r == nil || r.base == nil {
		return domain.Admin{}, errors.New("admin repository not initialised")
	}
	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Admin{}, err
	}
	return decodeAdmin(doc), nil
}

// Create writes a new allow-list row keyed by the admin's ID.
func (r *AdminRepository) Create(ctx context.Context, admin domain.Admin) (domain.Admin, error) {
	if r == nil || r.base == nil {
		return domain.Admin{}, errors.New("admin repository not initialised")
	}
	id := strings.TrimSpace(admin.ID)
	if id == "" {
		return domain.Admin{}, errors.New("admin repository: admin id is required")
	}

	doc := adminDocument{
		Email:     strings.ToLower(strings.TrimSpace(admin.Email)),
		CreatedBy: strings.ToLower(strings.TrimSpace(admin.CreatedBy)),
		CreatedAt: admin.CreatedAt.UTC(),
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	if _, err := r.base.Set(ctx, id, doc); err != nil {
		return domain.Admin{}, err
	}

	saved := admin
	saved.ID = id
	saved.Email = doc.Email
	saved.CreatedBy = doc.CreatedBy
	saved.CreatedAt = doc.CreatedAt
	return saved, nil
}

// Delete removes the allow-list row.
func (r *AdminRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.base == nil {
		return errors.New("admin repository not initialised")
	}
	return r.base.Delete(ctx, id)
}

func decodeAdmin(doc pfirestore.Document[adminDocument]) domain.Admin {
	return domain.Admin{
		ID:        doc.ID,
		Email:     doc.Data.Email,
		CreatedBy: doc.Data.CreatedBy,
		CreatedAt: doc.Data.CreatedAt,
	}
}

type adminDocument struct {
	Email     string    `firestore:"email"`
	CreatedBy string    `firestore:"createdBy,omitempty"`
	CreatedAt time.Time `firestore:"createdAt"`
}

type errAdminNotFound struct {
	key string
}

func (e errAdminNotFound) Error() string       { return "admins.get: no admin " + e.key }
func (e errAdminNotFound) IsNotFound() bool    { return true }
func (e errAdminNotFound) IsConflict() bool    { return false }
func (e errAdminNotFound) IsUnavailable() bool { return false }

var _ repositories.AdminRepository = (*AdminRepository)(nil)
var _ repositories.RepositoryError = errAdminNotFound{}
