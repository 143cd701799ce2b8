package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"dom-search/internal/config"
	"dom-search/internal/models"
)

// HTMLChunk is the persistent schema: two text fields plus the vector.
type HTMLChunk struct {
	bun.BaseModel `bun:"table:html_chunks,alias:hc"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Content       string    `bun:"content,notnull"`
	URL           string    `bun:"url,notnull"`
	Sequence      int       `bun:"sequence,notnull"`
	TokenCount    int       `bun:"token_count,notnull"`
	Embedding     []float32 `bun:"embedding,notnull,type:vector(768)"`
}

// PostgresStore delegates nearest-neighbor search to pgvector. Concurrency
// control is the database's problem, not ours.
type PostgresStore struct {
	db *bun.DB
}

func NewPostgresStore(ctx context.Context, cfg *config.PostgresConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: postgres backend requires a dsn", ErrStore)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	s := &PostgresStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// initSchema creates the vector extension and chunk table if they are not
// there yet, safe to run on every startup.
func (s *PostgresStore) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("%w: failed to create vector extension: %v", ErrStore, err)
	}
	if _, err := s.db.NewCreateTable().Model((*HTMLChunk)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("%w: failed to create table: %v", ErrStore, err)
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([]HTMLChunk, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, HTMLChunk{
			Content:    e.Chunk.Content,
			URL:        e.Chunk.SourceURL,
			Sequence:   e.Chunk.SequenceIndex,
			TokenCount: e.Chunk.TokenCount,
			Embedding:  e.Embedding,
		})
	}

	if _, err := s.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("%w: failed to store chunks: %v", ErrStore, err)
	}
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, embedding []float32, topK int, filterURL string) ([]models.ScoredChunk, error) {
	if topK <= 0 {
		return []models.ScoredChunk{}, nil
	}

	var rows []struct {
		HTMLChunk
		Distance float64 `bun:"distance"`
	}

	q := s.db.NewSelect().
		Model((*HTMLChunk)(nil)).
		ColumnExpr("hc.*").
		ColumnExpr("embedding <=> ?::vector AS distance", vectorLiteral(embedding)).
		OrderExpr("distance ASC, sequence ASC, id ASC").
		Limit(topK)
	if filterURL != "" {
		q = q.Where("url = ?", filterURL)
	}

	if err := q.Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("%w: failed to search chunks: %v", ErrStore, err)
	}

	scored := make([]models.ScoredChunk, 0, len(rows))
	for _, r := range rows {
		scored = append(scored, models.ScoredChunk{
			Chunk: models.Chunk{
				Content:       r.Content,
				SourceURL:     r.URL,
				TokenCount:    r.TokenCount,
				SequenceIndex: r.Sequence,
			},
			// <=> is cosine distance
			Score: 1 - r.Distance,
		})
	}
	return scored, nil
}

func (s *PostgresStore) Clear(ctx context.Context, sourceURL string) error {
	q := s.db.NewDelete().Model((*HTMLChunk)(nil))
	if sourceURL != "" {
		q = q.Where("url = ?", sourceURL)
	} else {
		q = q.Where("TRUE")
	}
	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("%w: failed to clear chunks: %v", ErrStore, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// vectorLiteral renders an embedding in pgvector's input syntax.
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
