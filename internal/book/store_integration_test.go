//go:build integration

package book_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"novabook/internal/book"
	"novabook/pkg/platform/sentinel"
	"novabook/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *book.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = book.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "loan", "book")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	b := &book.Book{ISBN: "978-1-4919-4195-9", Title: "Concurrency in Go", Author: "Cox-Buday", Stock: 4}
	s.Require().NoError(s.store.Create(ctx, b))
	s.Require().NotZero(b.ID)

	got, err := s.store.FindByID(ctx, b.ID)
	s.Require().NoError(err)
	s.Equal("Concurrency in Go", got.Title)
	s.Equal(4, got.Stock)

	byISBN, err := s.store.FindByISBN(ctx, b.ISBN)
	s.Require().NoError(err)
	s.Equal(b.ID, byISBN.ID)
}

func (s *PostgresStoreSuite) TestFindMissingReturnsNotFound() {
	_, err := s.store.FindByID(context.Background(), 9999)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestSearchMatchesTitleAndAuthor() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, &book.Book{ISBN: "i1", Title: "The Go Programming Language", Author: "Donovan", Stock: 1}))
	s.Require().NoError(s.store.Create(ctx, &book.Book{ISBN: "i2", Title: "Learning Rust", Author: "Gomez", Stock: 1}))

	results, err := s.store.Search(ctx, "go")
	s.Require().NoError(err)
	s.Len(results, 2)

	results, err = s.store.Search(ctx, "donovan")
	s.Require().NoError(err)
	s.Len(results, 1)
}

// TestConcurrentUniqueISBNViolation verifies that concurrent creation attempts
// with the same ISBN result in exactly one success.
func (s *PostgresStoreSuite) TestConcurrentUniqueISBNViolation() {
	ctx := context.Background()
	const goroutines = 50

	var wg sync.WaitGroup
	var successCount atomic.Int32
	var conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			b := &book.Book{ISBN: "978-0-00-000000-0", Title: fmt.Sprintf("Copy %d", n), Stock: 1}
			err := s.store.Create(ctx, b)
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflictCount.Add(1)
			default:
				s.T().Errorf("unexpected create error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load())
	s.Equal(int32(goroutines-1), conflictCount.Load())
}
