package store

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"sitechat/internal/models"
)

type VectorStoreConfig struct {
	ConnString string
	TableName  string
	VectorDim  int
}

type VectorStore struct {
	config VectorStoreConfig
	pool   *pgxpool.Pool
}

func NewWithConfig(ctx context.Context, config VectorStoreConfig) (*VectorStore, error) {
	if config.TableName == "" {
		config.TableName = "site_documents"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 384
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	vs := &VectorStore{
		config: config,
		pool:   pool,
	}

	if err := vs.EnsureReady(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return vs, nil
}

// EnsureReady creates the pgvector extension, the documents table and the
// similarity index if they do not exist yet. Idempotent.
func (vs *VectorStore) EnsureReady(ctx context.Context) error {
	_, err := vs.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %v", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			url TEXT NOT NULL,
			content_preview TEXT,
			full_content TEXT,
			embedding vector(%d)
		)`, vs.config.TableName, vs.config.VectorDim)

	_, err = vs.pool.Exec(ctx, createTable)
	if err != nil {
		return fmt.Errorf("failed to create table: %v", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		vs.config.TableName, vs.config.TableName)

	_, err = vs.pool.Exec(ctx, createIndex)
	if err != nil {
		return fmt.Errorf("failed to create index: %v", err)
	}

	return nil
}

// Upsert writes rec, overwriting any existing record with the same id.
func (vs *VectorStore) Upsert(ctx context.Context, rec models.Record) error {
	if len(rec.Embedding) != vs.config.VectorDim {
		return fmt.Errorf("embedding dimension mismatch: got %d, want %d",
			len(rec.Embedding), vs.config.VectorDim)
	}

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, url, content_preview, full_content, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			url = EXCLUDED.url,
			content_preview = EXCLUDED.content_preview,
			full_content = EXCLUDED.full_content,
			embedding = EXCLUDED.embedding`,
		vs.config.TableName)

	_, err := vs.pool.Exec(ctx, stmt,
		rec.ID,
		sanitizeUTF8(rec.Metadata.URL),
		sanitizeUTF8(rec.Metadata.ContentPreview),
		sanitizeUTF8(rec.Metadata.FullContent),
		pgvector.NewVector(rec.Embedding),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert record %s: %v", rec.ID, err)
	}

	return nil
}

// Query returns the topK nearest records by cosine similarity, best first.
// Scores land in [0,1]; anti-correlated vectors clamp to 0.
func (vs *VectorStore) Query(ctx context.Context, embedding []float32, topK int) ([]models.Match, error) {
	if topK <= 0 {
		topK = 5
	}

	query := fmt.Sprintf(`
		SELECT id, url, content_preview, full_content,
		       1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2`,
		vs.config.TableName)

	rows, err := vs.pool.Query(ctx, query, pgvector.NewVector(embedding), topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %v", err)
	}
	defer rows.Close()

	var matches []models.Match
	for rows.Next() {
		var m models.Match
		err := rows.Scan(
			&m.ID,
			&m.Metadata.URL,
			&m.Metadata.ContentPreview,
			&m.Metadata.FullContent,
			&m.Score,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		if m.Score < 0 {
			m.Score = 0
		}
		matches = append(matches, m)
	}

	return matches, rows.Err()
}

func (vs *VectorStore) Close() {
	if vs.pool != nil {
		vs.pool.Close()
	}
}

func sanitizeUTF8(s string) string {
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for i, r := range s {
			if r == utf8.RuneError {
				_, size := utf8.DecodeRuneInString(s[i:])
				if size == 1 {
					continue
				}
			}
			v = append(v, r)
		}
		return string(v)
	}
	return s
}
