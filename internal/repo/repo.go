package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// ErrUserExists is returned by CreateUser for a taken login or email.
var ErrUserExists = errors.New("user already exists")

// Operation tells how a drawing entered the history.
type Operation string

const (
	OpGenerate Operation = "generate"
	OpParse    Operation = "parse"
	OpBatch    Operation = "batch"
)

// Drawing is one history entry.
type Drawing struct {
	ID          int64              `json:"id"`
	UserID      int                `json:"-"`
	Operation   Operation          `json:"operation"`
	Type        string             `json:"type"`
	Params      map[string]float64 `json:"params"`
	VertexCount int                `json:"vertex_count"`
	CreatedAt   time.Time          `json:"created_at"`
}

type Repository interface {
	CreateUser(ctx context.Context, login, email, password string) (int, error)
	GetByLogin(ctx context.Context, login string) (int, string, error)
	RecordDrawing(ctx context.Context, d Drawing) error
	ListDrawings(ctx context.Context, userID, limit int) ([]Drawing, error)
}

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// InitDB opens and pings a Postgres pool. sslmode defaults to require.
func InitDB(connStr string) (*sql.DB, error) {
	if !strings.Contains(connStr, "sslmode=") {
		if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
			sep := "?"
			if strings.Contains(connStr, "?") {
				sep = "&"
			}
			connStr = connStr + sep + "sslmode=require"
		} else {
			connStr = connStr + " sslmode=require"
		}
	}
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         SERIAL PRIMARY KEY,
	login      TEXT NOT NULL UNIQUE,
	email      TEXT NOT NULL UNIQUE,
	password   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS drawings (
	id           BIGSERIAL PRIMARY KEY,
	user_id      INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	operation    TEXT NOT NULL,
	type         TEXT NOT NULL,
	params       JSONB NOT NULL,
	vertex_count INTEGER NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS drawings_user_created ON drawings (user_id, created_at DESC);
`

// Migrate creates the tables if they do not exist.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

func (r *PostgresRepository) CreateUser(ctx context.Context, login, email, password string) (int, error) {
	var id int
	query := "INSERT INTO users (login, email, password) VALUES ($1, $2, $3) RETURNING id"
	err := r.db.QueryRowContext(ctx, query, login, email, password).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return 0, ErrUserExists
		}
		return 0, err
	}
	return id, nil
}

// GetByLogin returns the id and password hash of login, or a zero id when
// no such user exists.
func (r *PostgresRepository) GetByLogin(ctx context.Context, login string) (int, string, error) {
	var id int
	var hash string

	query := "SELECT id, password FROM users WHERE login=$1"

	err := r.db.QueryRowContext(ctx, query, login).Scan(&id, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, "", nil
		}
		return 0, "", err
	}
	return id, hash, nil
}

func (r *PostgresRepository) RecordDrawing(ctx context.Context, d Drawing) error {
	params, err := json.Marshal(d.Params)
	if err != nil {
		return err
	}
	query := `INSERT INTO drawings (user_id, operation, type, params, vertex_count)
		VALUES ($1, $2, $3, $4, $5)`
	_, err = r.db.ExecContext(ctx, query, d.UserID, string(d.Operation), d.Type, params, d.VertexCount)
	return err
}

func (r *PostgresRepository) ListDrawings(ctx context.Context, userID, limit int) ([]Drawing, error) {
	query := `SELECT id, user_id, operation, type, params, vertex_count, created_at
		FROM drawings WHERE user_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Drawing
	for rows.Next() {
		var d Drawing
		var op string
		var params []byte
		if err := rows.Scan(&d.ID, &d.UserID, &op, &d.Type, &params, &d.VertexCount, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.Operation = Operation(op)
		if err := json.Unmarshal(params, &d.Params); err != nil {
			return nil, fmt.Errorf("drawing %d params: %w", d.ID, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
