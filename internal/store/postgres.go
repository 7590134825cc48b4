package store

import (
	"context"
	"fmt"

	"github.com/alfagnish/users-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// Pool is the subset of *pgxpool.Pool used by PostgresStore.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username TEXT NOT NULL,
		age INTEGER NOT NULL,
		hobbies TEXT[] NOT NULL DEFAULT '{}',
		position INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_position ON users(position)`,
}

// PostgresStore keeps the collection in the users table. Row order is
// preserved through the position column.
type PostgresStore struct {
	pool Pool
	log  logrus.FieldLogger
}

// Connect opens a pgx pool and verifies the connection.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

func NewPostgresStore(pool Pool, log logrus.FieldLogger) *PostgresStore {
	return &PostgresStore{
		pool: pool,
		log:  log.WithField("store", "postgres"),
	}
}

// Migrate creates the users table if it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := s.pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}

func (s *PostgresStore) ReadAll(ctx context.Context) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, username, age, hobbies
		FROM users ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var (
			id uuid.UUID
			u  models.User
		)
		if err := rows.Scan(&id, &u.Username, &u.Age, &u.Hobbies); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.ID = id.String()
		users = append(users, u.Normalize())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}
	return users, nil
}

func (s *PostgresStore) WriteAll(ctx context.Context, users []models.User) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM users`); err != nil {
		return fmt.Errorf("failed to clear users: %w", err)
	}

	for i, u := range users {
		id, err := uuid.Parse(u.ID)
		if err != nil {
			return fmt.Errorf("invalid user id %q: %w", u.ID, err)
		}
		u = u.Normalize()
		_, err = tx.Exec(ctx, `
			INSERT INTO users (id, username, age, hobbies, position)
			VALUES ($1, $2, $3, $4, $5)
		`, id, u.Username, u.Age, u.Hobbies, i)
		if err != nil {
			return fmt.Errorf("failed to insert user %s: %w", u.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.log.WithField("count", len(users)).Debug("users collection written")
	return nil
}

func (s *PostgresStore) Reset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM users`); err != nil {
		return fmt.Errorf("failed to reset users: %w", err)
	}
	return nil
}
