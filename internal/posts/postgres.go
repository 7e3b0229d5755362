package posts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgLogPrefix = "posts:postgres"

// schema creates the posts table when it is missing.
const schema = `CREATE TABLE IF NOT EXISTS posts (
	id         BIGSERIAL PRIMARY KEY,
	title      VARCHAR(255) NOT NULL,
	body       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const postColumns = `id, title, body, created_at, updated_at`

// DB is the subset of *pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPool connects to Postgres and verifies the connection.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	slog.Info(fmt.Sprintf("%s - Connecting to database", pgLogPrefix))

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to parse database URL: %w", pgLogPrefix, err)
	}
	cfg.MaxConns = 10

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to create pool: %w", pgLogPrefix, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s - failed to ping database: %w", pgLogPrefix, err)
	}
	return pool, nil
}

// PGStore keeps posts in a Postgres table.
type PGStore struct {
	db DB
}

// NewPGStore returns a store over db. Call Migrate before first use on a
// fresh database.
func NewPGStore(db DB) *PGStore {
	return &PGStore{db: db}
}

// Migrate creates the posts table.
func (s *PGStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("%s - migrate: %w", pgLogPrefix, err)
	}
	return nil
}

func (s *PGStore) List(ctx context.Context, opts ListOptions) ([]Post, error) {
	order := "DESC"
	if opts.Order == Asc {
		order = "ASC"
	}
	query := `SELECT ` + postColumns + ` FROM posts ORDER BY created_at ` + order + `, id ` + order
	var args []any
	if opts.Limit > 0 {
		query += ` LIMIT $1`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s - list: %w", pgLogPrefix, err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Post])
	if err != nil {
		return nil, fmt.Errorf("%s - list: %w", pgLogPrefix, err)
	}
	return out, nil
}

func (s *PGStore) Get(ctx context.Context, id int64) (*Post, error) {
	row := s.db.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
	return scanPost(row, "get")
}

func (s *PGStore) Create(ctx context.Context, np NewPost) (*Post, error) {
	slog.Debug(fmt.Sprintf("%s - Create title=%q", pgLogPrefix, np.Title))
	row := s.db.QueryRow(ctx,
		`INSERT INTO posts (title, body) VALUES ($1, $2) RETURNING `+postColumns,
		np.Title, np.Body)
	return scanPost(row, "create")
}

func (s *PGStore) Update(ctx context.Context, id int64, np NewPost) (*Post, error) {
	row := s.db.QueryRow(ctx,
		`UPDATE posts SET title = $2, body = $3, updated_at = now() WHERE id = $1 RETURNING `+postColumns,
		id, np.Title, np.Body)
	return scanPost(row, "update")
}

func (s *PGStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s - delete: %w", pgLogPrefix, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPost(row pgx.Row, op string) (*Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.Title, &p.Body, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s - %s: %w", pgLogPrefix, op, err)
	}
	return &p, nil
}
