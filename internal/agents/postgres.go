package agents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists agents in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	s := &PostgresStore{pool: pool}
	if err := s.seedDefault(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS agents (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			system_instructions TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'inactive',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_agents_created ON agents (created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) seedDefault(ctx context.Context) error {
	seed := defaultAgent(time.Now().UTC())
	_, err := s.pool.Exec(ctx,
		`INSERT INTO agents (id, name, description, system_instructions, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO NOTHING`,
		seed.ID, seed.Name, seed.Description, seed.SystemInstructions, string(seed.Status), seed.CreatedAt, seed.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("seed default agent: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Agent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, description, system_instructions, status, created_at, updated_at
		 FROM agents ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var out []Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agents: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Agent, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, description, system_instructions, status, created_at, updated_at
		 FROM agents WHERE id=$1`, id)
	a, err := scanAgent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Agent{}, ErrNotFound
	}
	return a, err
}

func (s *PostgresStore) Create(ctx context.Context, name, description, instructions string) (Agent, error) {
	now := time.Now().UTC()
	a := Agent{
		ID:                 uuid.NewString(),
		Name:               name,
		Description:        description,
		SystemInstructions: instructions,
		Status:             StatusInactive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO agents (id, name, description, system_instructions, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.Name, a.Description, a.SystemInstructions, string(a.Status), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return Agent{}, fmt.Errorf("create agent: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) Update(ctx context.Context, id string, upd Update) (Agent, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE agents SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			system_instructions = COALESCE($4, system_instructions),
			status = COALESCE($5, status),
			updated_at = now()
		 WHERE id=$1`,
		id, upd.Name, upd.Description, upd.SystemInstructions, (*string)(upd.Status),
	)
	if err != nil {
		return Agent{}, fmt.Errorf("update agent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Agent{}, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM agents WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanAgent(row pgx.Row) (Agent, error) {
	var a Agent
	var status string
	if err := row.Scan(&a.ID, &a.Name, &a.Description, &a.SystemInstructions, &status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return Agent{}, err
	}
	a.Status = Status(status)
	return a, nil
}
