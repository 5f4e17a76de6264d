// Package admingate guards the back-office behind an email allow-list. An
// email that passes token verification is only admitted when a matching row
// exists in the allow-list, so the gate fails closed when the list cannot be
// read.
package admingate

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/osegonte/p9-commerce/internal/domain"
	"github.com/osegonte/p9-commerce/internal/repositories"
)

var errGateRepositoryRequired = errors.New("admin gate: repository is required")

// ErrInvalidInput indicates a malformed email or ID.
var ErrInvalidInput = errors.New("admin gate: invalid input")

// ErrNotAuthorized indicates the email is not on the allow-list.
var ErrNotAuthorized = errors.New("admin gate: not authorized")

// ErrAdminNotFound indicates the allow-list row does not exist.
var ErrAdminNotFound = errors.New("admin gate: admin not found")

// ErrAlreadyAdmin indicates the email is already on the allow-list.
var ErrAlreadyAdmin = errors.New("admin gate: email already on the allow-list")

// ErrSelfRemoval indicates an admin tried to remove their own entry.
var ErrSelfRemoval = errors.New("admin gate: admins cannot remove themselves")

// ErrUnavailable indicates the allow-list could not be read or written.
var ErrUnavailable = errors.New("admin gate: unavailable")

// ServiceDeps wires the allow-list repository and ambient dependencies.
type ServiceDeps struct {
	Admins      repositories.AdminRepository
	Clock       func() time.Time
	Logger      *zap.Logger
	IDGenerator func() string
}

// Service manages and enforces the admin allow-list.
type Service struct {
	admins repositories.AdminRepository
	now    func() time.Time
	logger *zap.Logger
	newID  func() string
}

// NewService constructs a Service enforcing dependency validation.
func NewService(deps ServiceDeps) (*Service, error) {
	if deps.Admins == nil {
		return nil, errGateRepositoryRequired
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}

	return &Service{
		admins: deps.Admins,
		now:    func() time.Time { return clock().UTC() },
		logger: logger,
		newID:  idGen,
	}, nil
}

// Authorize reports whether the email may enter the back-office. Any failure
// to read the allow-list denies access.
func (s *Service) Authorize(ctx context.Context, email string) error {
	email, ok := normaliseEmail(email)
	if !ok {
		return ErrNotAuthorized
	}

	_, err := s.admins.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil
	case repositories.IsNotFound(err):
		return ErrNotAuthorized
	default:
		s.logger.Warn("allow-list lookup failed", zap.Error(err))
		return ErrNotAuthorized
	}
}

// ListAdmins returns every allow-list entry, oldest first.
func (s *Service) ListAdmins(ctx context.Context) ([]domain.Admin, error) {
	admins, err := s.admins.List(ctx)
	if err != nil {
		s.logger.Warn("allow-list read failed", zap.Error(err))
		return nil, ErrUnavailable
	}
	return admins, nil
}

// AddAdmin puts a new email on the allow-list, recording who added it.
func (s *Service) AddAdmin(ctx context.Context, email, createdBy string) (domain.Admin, error) {
	email, ok := normaliseEmail(email)
	if !ok {
		return domain.Admin{}, ErrInvalidInput
	}
	creator, _ := normaliseEmail(createdBy)

	if _, err := s.admins.GetByEmail(ctx, email); err == nil {
		return domain.Admin{}, ErrAlreadyAdmin
	} else if !repositories.IsNotFound(err) {
		s.logger.Warn("allow-list lookup failed", zap.Error(err))
		return domain.Admin{}, ErrUnavailable
	}

	admin := domain.Admin{
		ID:        s.newID(),
		Email:     email,
		CreatedBy: creator,
		CreatedAt: s.now(),
	}
	created, err := s.admins.Create(ctx, admin)
	if err != nil {
		s.logger.Warn("allow-list write failed", zap.Error(err))
		return domain.Admin{}, ErrUnavailable
	}

	s.logger.Info("admin added",
		zap.String("admin_id", created.ID),
		zap.String("email", created.Email),
	)
	return created, nil
}

// RemoveAdmin deletes an allow-list entry. The check that admins cannot
// remove themselves runs here, not in the UI, so it holds for direct requests
// too.
func (s *Service) RemoveAdmin(ctx context.Context, id, requestedBy string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}
	requester, _ := normaliseEmail(requestedBy)

	admin, err := s.admins.GetByID(ctx, id)
	switch {
	case repositories.IsNotFound(err):
		return ErrAdminNotFound
	case err != nil:
		s.logger.Warn("allow-list lookup failed", zap.Error(err))
		return ErrUnavailable
	}

	if requester != "" && admin.Email == requester {
		return ErrSelfRemoval
	}

	if err := s.admins.Delete(ctx, id); err != nil {
		s.logger.Warn("allow-list delete failed", zap.Error(err))
		return ErrUnavailable
	}

	s.logger.Info("admin removed",
		zap.String("admin_id", id),
		zap.String("email", admin.Email),
	)
	return nil
}

// normaliseEmail lower-cases and trims, rejecting anything that does not look
// like an address.
func normaliseEmail(email string) (string, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", false
	}
	return email, true
}
