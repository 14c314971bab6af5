package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/futig/joke-flows/internal/entity"
)

const (
	insertIndexQuery = `INSERT INTO vector_indexes (name, embedder) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`
	lockIndexQuery   = `SELECT embedder FROM vector_indexes WHERE name = $1 FOR UPDATE`
	getIndexQuery    = `SELECT embedder FROM vector_indexes WHERE name = $1`
	insertEntryQuery = `INSERT INTO index_entries (id, index_name, content, metadata, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	searchQuery = `SELECT content, metadata, 1 - (embedding <=> $2) AS score
		FROM index_entries
		WHERE index_name = $1
		ORDER BY embedding <=> $2, seq
		LIMIT $3`
	countQuery = `SELECT count(*) FROM index_entries WHERE index_name = $1`
)

var _ VectorStore = &VectorPostgres{}

// VectorPostgres implements VectorStore with PostgreSQL and pgvector
type VectorPostgres struct {
	db *pgxpool.Pool
}

func NewVectorPostgres(db *pgxpool.Pool) *VectorPostgres {
	return &VectorPostgres{db: db}
}

func (r *VectorPostgres) Append(ctx context.Context, index, embedder string, entries []entity.IndexEntry) error {
	if err := validateIndexName(index); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, insertIndexQuery, index, embedder); err != nil {
		return fmt.Errorf("create index %q: %w", index, err)
	}

	var bound string
	if err := tx.QueryRow(ctx, lockIndexQuery, index).Scan(&bound); err != nil {
		return fmt.Errorf("lock index %q: %w", index, err)
	}
	if bound != embedder {
		return fmt.Errorf("%w: index %q uses %q, got %q", entity.ErrEmbedderMismatch, index, bound, embedder)
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		id, err := uuid.Parse(e.ID)
		if err != nil {
			return fmt.Errorf("parse entry ID: %w", err)
		}

		metadata, err := json.Marshal(e.Document.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}

		batch.Queue(insertEntryQuery,
			pgtype.UUID{Bytes: id, Valid: true},
			index,
			e.Document.Content,
			metadata,
			pgvector.NewVector(e.Embedding),
			e.CreatedAt,
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert entries: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *VectorPostgres) Search(ctx context.Context, index, embedder string, query []float32, k int) (entity.RetrievalResult, error) {
	bound, err := r.Embedder(ctx, index)
	if err != nil {
		return nil, err
	}
	if bound != embedder {
		return nil, fmt.Errorf("%w: index %q uses %q, got %q", entity.ErrEmbedderMismatch, index, bound, embedder)
	}

	rows, err := r.db.Query(ctx, searchQuery, index, pgvector.NewVector(query), k)
	if err != nil {
		return nil, fmt.Errorf("search index %q: %w", index, err)
	}
	defer rows.Close()

	var result entity.RetrievalResult
	for rows.Next() {
		var (
			content  string
			metadata []byte
			score    float64
		)
		if err := rows.Scan(&content, &metadata, &score); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		var md map[string]any
		if err := json.Unmarshal(metadata, &md); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}

		result = append(result, entity.ScoredDocument{
			Document: entity.Document{Content: content, Metadata: md},
			Score:    score,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search index %q: %w", index, err)
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("%w: index %q is empty", entity.ErrIndexNotFound, index)
	}
	return result, nil
}

func (r *VectorPostgres) Count(ctx context.Context, index string) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, countQuery, index).Scan(&n); err != nil {
		return 0, fmt.Errorf("count index %q: %w", index, err)
	}
	return n, nil
}

func (r *VectorPostgres) Embedder(ctx context.Context, index string) (string, error) {
	if err := validateIndexName(index); err != nil {
		return "", err
	}

	var embedder string
	err := r.db.QueryRow(ctx, getIndexQuery, index).Scan(&embedder)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: %q", entity.ErrIndexNotFound, index)
	}
	if err != nil {
		return "", fmt.Errorf("get index %q: %w", index, err)
	}
	return embedder, nil
}
