package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"novabook/internal/platform/db"
	"novabook/pkg/platform/sentinel"
)

// PostgresStore persists accounts in PostgreSQL. The table is named
// app_user because user is reserved in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(pool *sql.DB) *PostgresStore {
	return &PostgresStore{db: pool}
}

func (s *PostgresStore) exec(ctx context.Context) db.Executor {
	return db.ExecutorFor(ctx, s.db)
}

const userColumns = "id, email, name, password_hash, role, active, deleted, created_at, updated_at"

func scanUser(sc db.Scanner) (User, error) {
	var u User
	err := sc.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.Active, &u.Deleted, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*User, error) {
	row, err := db.QueryOne(ctx, s.exec(ctx),
		"SELECT "+userColumns+" FROM app_user WHERE id = $1",
		[]any{id}, scanUser)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, sentinel.ErrNotFound
	}
	return row, nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	row, err := db.QueryOne(ctx, s.exec(ctx),
		"SELECT "+userColumns+" FROM app_user WHERE email = $1",
		[]any{email}, scanUser)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, sentinel.ErrNotFound
	}
	return row, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]User, error) {
	return db.Query(ctx, s.exec(ctx),
		"SELECT "+userColumns+" FROM app_user WHERE deleted = FALSE ORDER BY email",
		nil, scanUser)
}

func (s *PostgresStore) FindByRole(ctx context.Context, role Role) ([]User, error) {
	return db.Query(ctx, s.exec(ctx),
		"SELECT "+userColumns+" FROM app_user WHERE role = $1 AND deleted = FALSE ORDER BY email",
		[]any{role}, scanUser)
}

func (s *PostgresStore) Create(ctx context.Context, u *User) error {
	id, err := db.InsertReturningID(ctx, s.exec(ctx),
		"INSERT INTO app_user (email, name, password_hash, role, active, deleted) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id",
		u.Email, u.Name, u.PasswordHash, u.Role, u.Active, u.Deleted)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return err
	}
	u.ID = id
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, u *User) error {
	affected, err := db.Exec(ctx, s.exec(ctx),
		"UPDATE app_user SET email = $1, name = $2, password_hash = $3, role = $4, active = $5, updated_at = now() WHERE id = $6 AND deleted = FALSE",
		u.Email, u.Name, u.PasswordHash, u.Role, u.Active, u.ID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SoftDelete(ctx context.Context, id int64) error {
	affected, err := db.Exec(ctx, s.exec(ctx),
		"UPDATE app_user SET deleted = TRUE, active = FALSE, updated_at = now() WHERE id = $1",
		id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
