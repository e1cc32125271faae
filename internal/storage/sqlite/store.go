// Package sqlite implements the deduplicating article store on an embedded
// SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/JakeFAU/aero-news-crawler/internal/news"
)

// ArticleStore serializes every operation behind a mutex so callers get
// atomic ExistsBy*/Insert without coordinating among themselves. Uniqueness
// of url and heading is enforced by the table's UNIQUE constraints.
type ArticleStore struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string, logger *zap.Logger) (*ArticleStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single connection is the single writer; the mutex orders callers on it.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close() //nolint:errcheck // schema error takes precedence
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &ArticleStore{db: db, path: path, logger: logger}, nil
}

// OpenReadOnly opens an existing database without creating it or applying
// the schema. Every write through the returned store fails.
func OpenReadOnly(ctx context.Context, path string, logger *zap.Logger) (*ArticleStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("sqlite database %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", readOnlyDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close() //nolint:errcheck // ping error takes precedence
		return nil, fmt.Errorf("open sqlite %s read-only: %w", path, err)
	}
	return &ArticleStore{db: db, path: path, logger: logger}, nil
}

// readOnlyDSN builds a file URI so SQLite honors mode=ro; query_only also
// rejects writes on the connection itself.
func readOnlyDSN(path string) string {
	escaped := strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23").Replace(path)
	return "file:" + escaped + "?mode=ro&_pragma=busy_timeout(5000)&_pragma=query_only(1)"
}

// Path returns the database file path.
func (s *ArticleStore) Path() string {
	return s.path
}

// Close releases the database handle.
func (s *ArticleStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}

// ExistsByURL reports whether an article with this URL is stored.
func (s *ArticleStore) ExistsByURL(ctx context.Context, url string) (bool, error) {
	return s.exists(ctx, "SELECT 1 FROM articles WHERE url = ? LIMIT 1", url)
}

// ExistsByHeading reports whether an article with this exact heading is stored.
func (s *ArticleStore) ExistsByHeading(ctx context.Context, heading string) (bool, error) {
	return s.exists(ctx, "SELECT 1 FROM articles WHERE heading = ? LIMIT 1", heading)
}

func (s *ArticleStore) exists(ctx context.Context, query string, arg string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var one int
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("exists query: %w", err)
	default:
		return true, nil
	}
}

// Insert adds the article. A url or heading conflict yields a Skipped result,
// not an error.
func (s *ArticleStore) Insert(ctx context.Context, article news.Article) (news.InsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO articles (url, heading, category, body_text, image_reference)
		VALUES (?, ?, ?, ?, ?)
	`, article.URL, article.Heading, article.Category, article.BodyText, article.ImageReference)
	if err != nil {
		if reason, ok := uniqueViolation(err); ok {
			s.logger.Debug("insert skipped on unique constraint",
				zap.String("url", article.URL),
				zap.String("reason", string(reason)),
			)
			return news.Skipped(reason), nil
		}
		return news.InsertResult{}, fmt.Errorf("insert article: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return news.InsertResult{}, fmt.Errorf("read inserted id: %w", err)
	}
	return news.Inserted(id), nil
}

func uniqueViolation(err error) (news.SkipReason, bool) {
	var sqliteErr *moderncsqlite.Error
	if !errors.As(err, &sqliteErr) {
		return "", false
	}
	code := sqliteErr.Code()
	if code != sqlite3.SQLITE_CONSTRAINT_UNIQUE && code&0xff != sqlite3.SQLITE_CONSTRAINT {
		return "", false
	}
	msg := sqliteErr.Error()
	switch {
	case strings.Contains(msg, "articles.url"):
		return news.DuplicateURL, true
	case strings.Contains(msg, "articles.heading"):
		return news.DuplicateHeading, true
	default:
		return "", false
	}
}

// Latest returns up to limit articles, newest first.
func (s *ArticleStore) Latest(ctx context.Context, limit int) ([]news.Article, error) {
	return s.list(ctx, "created_at DESC, id DESC", limit)
}

// LatestByID returns up to limit articles with the highest ids first.
func (s *ArticleStore) LatestByID(ctx context.Context, limit int) ([]news.Article, error) {
	return s.list(ctx, "id DESC", limit)
}

func (s *ArticleStore) list(ctx context.Context, orderBy string, limit int) ([]news.Article, error) {
	if limit <= 0 {
		return []news.Article{}, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, url, heading, category, body_text, image_reference, created_at
		FROM articles
		ORDER BY `+orderBy+`
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer func() {
		_ = rows.Close() //nolint:errcheck // read-only cursor
	}()

	out := make([]news.Article, 0, limit)
	for rows.Next() {
		var (
			a       news.Article
			created string
		)
		if err := rows.Scan(&a.ID, &a.URL, &a.Heading, &a.Category, &a.BodyText, &a.ImageReference, &created); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		ts, err := time.ParseInLocation(createdAtLayout, created, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", created, err)
		}
		a.CreatedAt = ts
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}
	return out, nil
}

// Count returns the number of stored articles.
func (s *ArticleStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&n); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}
