package member

import (
	"context"
	"database/sql"

	"novabook/internal/platform/db"
	"novabook/pkg/platform/sentinel"
)

// PostgresStore persists members in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed member store.
func NewPostgres(pool *sql.DB) *PostgresStore {
	return &PostgresStore{db: pool}
}

func (s *PostgresStore) exec(ctx context.Context) db.Executor {
	return db.ExecutorFor(ctx, s.db)
}

const memberColumns = "id, name, active, deleted, role, access_level, created_at, updated_at"

func scanMember(sc db.Scanner) (Member, error) {
	var m Member
	err := sc.Scan(&m.ID, &m.Name, &m.Active, &m.Deleted, &m.Role, &m.AccessLevel, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*Member, error) {
	row, err := db.QueryOne(ctx, s.exec(ctx),
		"SELECT "+memberColumns+" FROM member WHERE id = $1",
		[]any{id}, scanMember)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, sentinel.ErrNotFound
	}
	return row, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Member, error) {
	return db.Query(ctx, s.exec(ctx),
		"SELECT "+memberColumns+" FROM member WHERE deleted = FALSE ORDER BY name",
		nil, scanMember)
}

func (s *PostgresStore) FindByName(ctx context.Context, name string) ([]Member, error) {
	return db.Query(ctx, s.exec(ctx),
		"SELECT "+memberColumns+" FROM member WHERE name ILIKE $1 AND deleted = FALSE ORDER BY name",
		[]any{"%" + name + "%"}, scanMember)
}

func (s *PostgresStore) Create(ctx context.Context, m *Member) error {
	id, err := db.InsertReturningID(ctx, s.exec(ctx),
		"INSERT INTO member (name, active, deleted, role, access_level) VALUES ($1, $2, $3, $4, $5) RETURNING id",
		m.Name, m.Active, m.Deleted, m.Role, m.AccessLevel)
	if err != nil {
		return err
	}
	m.ID = id
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, m *Member) error {
	affected, err := db.Exec(ctx, s.exec(ctx),
		"UPDATE member SET name = $1, active = $2, deleted = $3, role = $4, access_level = $5, updated_at = now() WHERE id = $6",
		m.Name, m.Active, m.Deleted, m.Role, m.AccessLevel, m.ID)
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
		"UPDATE member SET deleted = TRUE, active = FALSE, updated_at = now() WHERE id = $1", id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) HardDelete(ctx context.Context, id int64) error {
	affected, err := db.Exec(ctx, s.exec(ctx), "DELETE FROM member WHERE id = $1", id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
