// Package service holds catalog management: plain CRUD plus the validation
// that keeps stock from ever being created negative. Stock transitions after
// creation belong to the loan workflow, not here.
package service

import (
	"context"
	"errors"

	"novabook/internal/book"
	dErrors "novabook/pkg/domain-errors"
	"novabook/pkg/platform/sentinel"
)

type Store interface {
	FindByID(ctx context.Context, id int64) (*book.Book, error)
	FindByISBN(ctx context.Context, isbn string) (*book.Book, error)
	List(ctx context.Context) ([]book.Book, error)
	Search(ctx context.Context, term string) ([]book.Book, error)
	Create(ctx context.Context, b *book.Book) error
	Update(ctx context.Context, b *book.Book) error
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func validate(b *book.Book) error {
	if b.ISBN == "" {
		return dErrors.New(dErrors.CodeValidation, "isbn is required")
	}
	if b.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if b.Stock < 0 {
		return dErrors.New(dErrors.CodeValidation, "stock must not be negative")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, b *book.Book) (*book.Book, error) {
	if err := validate(b); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, b); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a book with this isbn already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create book")
	}
	return b, nil
}

func (s *Service) Update(ctx context.Context, b *book.Book) (*book.Book, error) {
	if err := validate(b); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, b); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "book %d not found", b.ID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update book")
	}
	return b, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "book %d not found", id)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete book")
	}
	return nil
}

func (s *Service) FindByID(ctx context.Context, id int64) (*book.Book, error) {
	b, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "book %d not found", id)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to find book")
	}
	return b, nil
}

func (s *Service) FindByISBN(ctx context.Context, isbn string) (*book.Book, error) {
	b, err := s.store.FindByISBN(ctx, isbn)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "book with isbn %s not found", isbn)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to find book")
	}
	return b, nil
}

func (s *Service) List(ctx context.Context) ([]book.Book, error) {
	return s.store.List(ctx)
}

func (s *Service) Search(ctx context.Context, term string) ([]book.Book, error) {
	return s.store.Search(ctx, term)
}
