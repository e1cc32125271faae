// Package postgres provides a Postgres-backed article store for deployments
// that share one dedup index across several ingest hosts.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/JakeFAU/aero-news-crawler/internal/news"
)

const uniqueViolation = "23505"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ArticleStoreConfig controls the Postgres connection pool used for article rows.
type ArticleStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MaxConnLifetime time.Duration
	// ReadOnly skips schema creation and opens every session with
	// default_transaction_read_only, so the server rejects writes.
	ReadOnly bool
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Query(context.Context, string, ...any) (pgx.Rows, error)
	Close()
}

// ArticleStore implements news.Store on Postgres. Concurrent callers rely on
// the unique constraints; no client-side lock is taken.
type ArticleStore struct {
	pool   pool
	table  string
	logger *zap.Logger
}

// NewArticleStore connects to Postgres and ensures the articles table exists.
// A read-only store leaves the schema untouched.
func NewArticleStore(ctx context.Context, cfg ArticleStoreConfig, logger *zap.Logger) (*ArticleStore, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("store.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.ReadOnly {
		poolCfg.ConnConfig.RuntimeParams["default_transaction_read_only"] = "on"
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store, err := NewArticleStoreWithPool(p, cfg.Table, logger)
	if err != nil {
		p.Close()
		return nil, err
	}
	if cfg.ReadOnly {
		return store, nil
	}
	if err := store.EnsureSchema(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return store, nil
}

// NewArticleStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewArticleStoreWithPool(p pool, table string, logger *zap.Logger) (*ArticleStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "articles"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArticleStore{pool: p, table: table, logger: logger.Named("postgres_store")}, nil
}

// EnsureSchema creates the table and its unique keys when missing.
func (s *ArticleStore) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
	id              BIGSERIAL PRIMARY KEY,
	url             TEXT NOT NULL,
	heading         TEXT NOT NULL,
	category        TEXT NOT NULL,
	body_text       TEXT NOT NULL,
	image_reference TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT %[1]s_url_key UNIQUE (url),
	CONSTRAINT %[1]s_heading_key UNIQUE (heading)
)`, s.table)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create %s table: %w", s.table, err)
	}
	index := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_created_at_idx ON %[1]s (created_at DESC)`, s.table)
	if _, err := s.pool.Exec(ctx, index); err != nil {
		return fmt.Errorf("create %s index: %w", s.table, err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *ArticleStore) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

// ExistsByURL reports whether an article with this exact URL is stored.
func (s *ArticleStore) ExistsByURL(ctx context.Context, url string) (bool, error) {
	return s.exists(ctx, "url", url)
}

// ExistsByHeading reports whether an article with this exact heading is stored.
func (s *ArticleStore) ExistsByHeading(ctx context.Context, heading string) (bool, error) {
	return s.exists(ctx, "heading", heading)
}

func (s *ArticleStore) exists(ctx context.Context, column, value string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE %s = $1)`, s.table, column)
	var found bool
	if err := s.pool.QueryRow(ctx, query, value).Scan(&found); err != nil {
		return false, fmt.Errorf("lookup by %s: %w", column, err)
	}
	return found, nil
}

// Insert stores the article or reports which unique key it collided with.
func (s *ArticleStore) Insert(ctx context.Context, article news.Article) (news.InsertResult, error) {
	query := fmt.Sprintf(`
INSERT INTO %s (url, heading, category, body_text, image_reference)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`, s.table)

	var id int64
	err := s.pool.QueryRow(ctx, query,
		article.URL,
		article.Heading,
		article.Category,
		article.BodyText,
		article.ImageReference,
	).Scan(&id)
	if err == nil {
		return news.Inserted(id), nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		reason := news.DuplicateURL
		if strings.HasSuffix(pgErr.ConstraintName, "_heading_key") {
			reason = news.DuplicateHeading
		}
		s.logger.Debug("insert skipped",
			zap.String("url", article.URL),
			zap.String("constraint", pgErr.ConstraintName),
		)
		return news.Skipped(reason), nil
	}
	return news.InsertResult{}, fmt.Errorf("insert article: %w", err)
}

// Latest returns up to limit articles, newest first.
func (s *ArticleStore) Latest(ctx context.Context, limit int) ([]news.Article, error) {
	return s.list(ctx, "created_at DESC, id DESC", limit)
}

// LatestByID returns up to limit articles with the highest ids first.
// created_at is the inserting transaction's start time, so under concurrent
// inserts it can disagree with id order.
func (s *ArticleStore) LatestByID(ctx context.Context, limit int) ([]news.Article, error) {
	return s.list(ctx, "id DESC", limit)
}

func (s *ArticleStore) list(ctx context.Context, orderBy string, limit int) ([]news.Article, error) {
	if limit <= 0 {
		return []news.Article{}, nil
	}
	query := fmt.Sprintf(`
SELECT id, url, heading, category, body_text, image_reference, created_at
FROM %s
ORDER BY %s
LIMIT $1`, s.table, orderBy)

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	articles := make([]news.Article, 0, limit)
	for rows.Next() {
		var a news.Article
		if err := rows.Scan(&a.ID, &a.URL, &a.Heading, &a.Category, &a.BodyText, &a.ImageReference, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		a.CreatedAt = a.CreatedAt.UTC()
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}
	return articles, nil
}

// Count returns the number of stored articles.
func (s *ArticleStore) Count(ctx context.Context) (int, error) {
	var n int64
	query := fmt.Sprintf(`SELECT count(*) FROM %s`, s.table)
	if err := s.pool.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return int(n), nil
}

var _ news.Store = (*ArticleStore)(nil)
