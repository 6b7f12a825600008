package vector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

const pgUndefinedTable = "42P01"

// PGVectorStore keeps one Postgres table per collection and searches with the
// pgvector cosine distance operator.
type PGVectorStore struct {
	pool       *pgxpool.Pool
	dimensions int
}

// NewPGVectorStore connects to databaseURL, ensures the vector extension exists,
// and registers the pgvector types on every pooled connection.
func NewPGVectorStore(ctx context.Context, databaseURL string, dimensions int) (*PGVectorStore, error) {
	if databaseURL == "" {
		return nil, errors.New("postgres url is required for the pgvector store")
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}

	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	_, err = conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	_ = conn.Close(ctx)
	if err != nil {
		return nil, fmt.Errorf("create vector extension: %w", err)
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PGVectorStore{pool: pool, dimensions: dimensions}, nil
}

// Type returns the store type identifier.
func (s *PGVectorStore) Type() string {
	return string(IndexTypePGVector)
}

// TableName maps a collection name to its quoted table identifier.
func TableName(collection string) string {
	return pgx.Identifier{"vec_" + strings.ToLower(collection)}.Sanitize()
}

func (s *PGVectorStore) ensureCollection(ctx context.Context, collection string) error {
	table := TableName(collection)
	index := pgx.Identifier{"vec_" + strings.ToLower(collection) + "_embedding_idx"}.Sanitize()
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			payload TEXT NOT NULL DEFAULT '',
			embedding vector(%d) NOT NULL
		)`, table, s.dimensions),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)`, index, table),
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure collection %s: %w", collection, err)
		}
	}
	return nil
}

// Add upserts points into the collection table, creating it if needed.
func (s *PGVectorStore) Add(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	if err := s.ensureCollection(ctx, collection); err != nil {
		return err
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, payload, embedding) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, embedding = EXCLUDED.embedding`,
		TableName(collection))
	batch := &pgx.Batch{}
	for _, p := range points {
		if len(p.Vector) != s.dimensions {
			return fmt.Errorf("vector dimension mismatch for %s: got %d, expected %d", p.ID, len(p.Vector), s.dimensions)
		}
		batch.Queue(query, p.ID, p.Payload, pgvector.NewVector(p.Vector))
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert into %s: %w", collection, err)
	}
	return nil
}

// Search returns the limit closest rows by cosine distance.
func (s *PGVectorStore) Search(ctx context.Context, collection string, query []float32, limit int) ([]*ScoredResult, error) {
	if len(query) != s.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), s.dimensions)
	}
	if limit <= 0 {
		return nil, nil
	}
	sql := fmt.Sprintf(`SELECT id, payload, embedding <=> $1 AS distance
		FROM %s ORDER BY distance, id LIMIT $2`, TableName(collection))
	rows, err := s.pool.Query(ctx, sql, pgvector.NewVector(query), limit)
	if err != nil {
		return nil, mapPGError(collection, err)
	}
	defer rows.Close()

	var results []*ScoredResult
	for rows.Next() {
		r := &ScoredResult{}
		if err := rows.Scan(&r.ID, &r.Payload, &r.Score); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPGError(collection, err)
	}
	return results, nil
}

// Remove deletes rows by id.
func (s *PGVectorStore) Remove(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, TableName(collection)), ids)
	if err := mapPGError(collection, err); err != nil && !errors.Is(err, ErrCollectionNotFound) {
		return err
	}
	return nil
}

// Size returns the row count of the collection table.
func (s *PGVectorStore) Size(ctx context.Context, collection string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, TableName(collection))).Scan(&n)
	if err := mapPGError(collection, err); err != nil {
		if errors.Is(err, ErrCollectionNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

// Close closes the connection pool.
func (s *PGVectorStore) Close() error {
	s.pool.Close()
	return nil
}

func mapPGError(collection string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable {
		return fmt.Errorf("%s: %w", collection, ErrCollectionNotFound)
	}
	return fmt.Errorf("search %s: %w", collection, err)
}
