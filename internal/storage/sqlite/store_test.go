package sqlite

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/aero-news-crawler/internal/news"
)

func openTestStore(t *testing.T) *ArticleStore {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "articles.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func article(url, heading string) news.Article {
	return news.Article{
		URL:            url,
		Heading:        heading,
		Category:       "Commercial",
		BodyText:       "body",
		ImageReference: news.SentinelNoImage,
	}
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), " ", nil)
	require.Error(t, err)
}

func TestOpenIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "articles.db")
	first, err := Open(context.Background(), path, nil)
	require.NoError(t, err)
	_, err = first.Insert(context.Background(), article("https://a.example/1", "One"))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(context.Background(), path, nil)
	require.NoError(t, err)
	defer func() { _ = second.Close() }()

	n, err := second.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, path, second.Path())
}

func TestInsertAndExists(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTestStore(t)

	res, err := store.Insert(ctx, article("https://a.example/1", "Runway reopens"))
	require.NoError(t, err)
	assert.True(t, res.Inserted)
	assert.Positive(t, res.ID)

	ok, err := store.ExistsByURL(ctx, "https://a.example/1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.ExistsByHeading(ctx, "Runway reopens")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.ExistsByHeading(ctx, "runway reopens")
	require.NoError(t, err)
	assert.False(t, ok, "heading match is case-sensitive")

	ok, err = store.ExistsByURL(ctx, "https://a.example/2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInsertDuplicateURL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTestStore(t)

	_, err := store.Insert(ctx, article("https://a.example/1", "First heading"))
	require.NoError(t, err)

	res, err := store.Insert(ctx, article("https://a.example/1", "Different heading"))
	require.NoError(t, err)
	assert.False(t, res.Inserted)
	assert.Equal(t, news.DuplicateURL, res.Reason)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestInsertDuplicateHeading(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTestStore(t)

	_, err := store.Insert(ctx, article("https://a.example/1", "Same heading"))
	require.NoError(t, err)

	res, err := store.Insert(ctx, article("https://b.example/other", "Same heading"))
	require.NoError(t, err)
	assert.False(t, res.Inserted)
	assert.Equal(t, news.DuplicateHeading, res.Reason)
}

func TestConcurrentInsertSameURL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTestStore(t)

	const writers = 16
	var (
		wg       sync.WaitGroup
		inserted atomic.Int32
		skipped  atomic.Int32
	)
	start := make(chan struct{})
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			res, err := store.Insert(ctx, article("https://a.example/race", fmt.Sprintf("heading %d", i)))
			if !assert.NoError(t, err) {
				return
			}
			if res.Inserted {
				inserted.Add(1)
			} else {
				assert.Equal(t, news.DuplicateURL, res.Reason)
				skipped.Add(1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), inserted.Load())
	assert.Equal(t, int32(writers-1), skipped.Load())

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLatestOrdering(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTestStore(t)

	for i := 1; i <= 4; i++ {
		_, err := store.Insert(ctx, article(fmt.Sprintf("https://a.example/%d", i), fmt.Sprintf("Heading %d", i)))
		require.NoError(t, err)
	}

	latest, err := store.Latest(ctx, 3)
	require.NoError(t, err)
	require.Len(t, latest, 3)
	assert.Equal(t, "Heading 4", latest[0].Heading)
	assert.Equal(t, "Heading 3", latest[1].Heading)
	assert.Equal(t, "Heading 2", latest[2].Heading)
	assert.False(t, latest[0].CreatedAt.IsZero())
	assert.Equal(t, news.SentinelNoImage, latest[0].ImageReference)

	none, err := store.Latest(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLatestByIDIgnoresCreatedAt(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTestStore(t)

	for i := 1; i <= 3; i++ {
		_, err := store.Insert(ctx, article(fmt.Sprintf("https://a.example/%d", i), fmt.Sprintf("Heading %d", i)))
		require.NoError(t, err)
	}
	_, err := store.db.ExecContext(ctx, `UPDATE articles SET created_at = '2999-01-01 00:00:00.000' WHERE id = 1`)
	require.NoError(t, err)

	byTime, err := store.Latest(ctx, 3)
	require.NoError(t, err)
	require.Len(t, byTime, 3)
	assert.Equal(t, int64(1), byTime[0].ID)

	byID, err := store.LatestByID(ctx, 3)
	require.NoError(t, err)
	require.Len(t, byID, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{byID[0].ID, byID[1].ID, byID[2].ID})
}

func TestOpenReadOnly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "news.db")

	_, err := OpenReadOnly(ctx, path, nil)
	require.ErrorIs(t, err, fs.ErrNotExist)
	_, statErr := os.Stat(path)
	require.ErrorIs(t, statErr, fs.ErrNotExist, "read-only open must not create the file")

	writer, err := Open(ctx, path, nil)
	require.NoError(t, err)
	_, err = writer.Insert(ctx, article("https://a.example/1", "Heading 1"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader, err := OpenReadOnly(ctx, path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reader.Close() })

	got, err := reader.LatestByID(ctx, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Heading 1", got[0].Heading)

	_, err = reader.Insert(ctx, article("https://a.example/2", "Heading 2"))
	require.Error(t, err)
	n, err := reader.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
