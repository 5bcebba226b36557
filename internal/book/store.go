package book

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"novabook/internal/platform/db"
	"novabook/pkg/platform/sentinel"
)

// PostgresStore persists books in PostgreSQL. All statements go through the
// shared gateway and join an open transaction when the context carries one.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed book store.
func NewPostgres(pool *sql.DB) *PostgresStore {
	return &PostgresStore{db: pool}
}

func (s *PostgresStore) exec(ctx context.Context) db.Executor {
	return db.ExecutorFor(ctx, s.db)
}

const bookColumns = "id, isbn, title, author, stock, created_at, updated_at"

func scanBook(sc db.Scanner) (Book, error) {
	var b Book
	err := sc.Scan(&b.ID, &b.ISBN, &b.Title, &b.Author, &b.Stock, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*Book, error) {
	row, err := db.QueryOne(ctx, s.exec(ctx),
		"SELECT "+bookColumns+" FROM book WHERE id = $1",
		[]any{id}, scanBook)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, sentinel.ErrNotFound
	}
	return row, nil
}

// FindByIDForUpdate loads a book and takes a row lock for the duration of the
// surrounding transaction. Borrow uses it so concurrent borrowers of the same
// book serialize on the row instead of racing the stock check.
func (s *PostgresStore) FindByIDForUpdate(ctx context.Context, id int64) (*Book, error) {
	row, err := db.QueryOne(ctx, s.exec(ctx),
		"SELECT "+bookColumns+" FROM book WHERE id = $1 FOR UPDATE",
		[]any{id}, scanBook)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, sentinel.ErrNotFound
	}
	return row, nil
}

func (s *PostgresStore) FindByISBN(ctx context.Context, isbn string) (*Book, error) {
	row, err := db.QueryOne(ctx, s.exec(ctx),
		"SELECT "+bookColumns+" FROM book WHERE isbn = $1",
		[]any{isbn}, scanBook)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, sentinel.ErrNotFound
	}
	return row, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Book, error) {
	return db.Query(ctx, s.exec(ctx),
		"SELECT "+bookColumns+" FROM book ORDER BY title",
		nil, scanBook)
}

// Search matches title or author, case-insensitively.
func (s *PostgresStore) Search(ctx context.Context, term string) ([]Book, error) {
	pattern := "%" + term + "%"
	return db.Query(ctx, s.exec(ctx),
		"SELECT "+bookColumns+" FROM book WHERE title ILIKE $1 OR author ILIKE $1 ORDER BY title",
		[]any{pattern}, scanBook)
}

func (s *PostgresStore) Create(ctx context.Context, b *Book) error {
	id, err := db.InsertReturningID(ctx, s.exec(ctx),
		"INSERT INTO book (isbn, title, author, stock) VALUES ($1, $2, $3, $4) RETURNING id",
		b.ISBN, b.Title, b.Author, b.Stock)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return err
	}
	b.ID = id
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, b *Book) error {
	affected, err := db.Exec(ctx, s.exec(ctx),
		"UPDATE book SET isbn = $1, title = $2, author = $3, stock = $4, updated_at = now() WHERE id = $5",
		b.ISBN, b.Title, b.Author, b.Stock, b.ID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// UpdateStock persists a new stock count for the book. The loan workflow is
// the only caller while a transaction is open.
func (s *PostgresStore) UpdateStock(ctx context.Context, id int64, stock int) error {
	affected, err := db.Exec(ctx, s.exec(ctx),
		"UPDATE book SET stock = $1, updated_at = now() WHERE id = $2",
		stock, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	affected, err := db.Exec(ctx, s.exec(ctx), "DELETE FROM book WHERE id = $1", id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
