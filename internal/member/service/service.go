// Package service holds member administration. Eligibility itself (active and
// not deleted) is enforced by the loan workflow at borrow time; this service
// only manages the flags.
package service

import (
	"context"
	"errors"

	"novabook/internal/member"
	dErrors "novabook/pkg/domain-errors"
	"novabook/pkg/platform/sentinel"
)

type Store interface {
	FindByID(ctx context.Context, id int64) (*member.Member, error)
	List(ctx context.Context) ([]member.Member, error)
	FindByName(ctx context.Context, name string) ([]member.Member, error)
	Create(ctx context.Context, m *member.Member) error
	Update(ctx context.Context, m *member.Member) error
	SoftDelete(ctx context.Context, id int64) error
	HardDelete(ctx context.Context, id int64) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create normalizes defaults before persisting: new members start active with
// a regular, read-only membership unless told otherwise.
func (s *Service) Create(ctx context.Context, m *member.Member) (*member.Member, error) {
	if m.Name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if m.Role == "" {
		m.Role = member.RoleRegular
	}
	if m.AccessLevel == "" {
		m.AccessLevel = member.AccessReadOnly
	}
	m.Active = true
	m.Deleted = false

	if err := s.store.Create(ctx, m); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create member")
	}
	return m, nil
}

func (s *Service) Update(ctx context.Context, m *member.Member) (*member.Member, error) {
	if m.Name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if err := s.store.Update(ctx, m); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "member %d not found", m.ID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update member")
	}
	return m, nil
}

func (s *Service) SoftDelete(ctx context.Context, id int64) error {
	if err := s.store.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "member %d not found", id)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete member")
	}
	return nil
}

// HardDelete removes the row entirely. Reserved for purging records with no
// loan history; soft delete is the normal path.
func (s *Service) HardDelete(ctx context.Context, id int64) error {
	if err := s.store.HardDelete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "member %d not found", id)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete member")
	}
	return nil
}

func (s *Service) FindByID(ctx context.Context, id int64) (*member.Member, error) {
	m, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "member %d not found", id)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to find member")
	}
	return m, nil
}

func (s *Service) List(ctx context.Context) ([]member.Member, error) {
	return s.store.List(ctx)
}

func (s *Service) FindByName(ctx context.Context, name string) ([]member.Member, error) {
	return s.store.FindByName(ctx, name)
}
