package news

import "context"

// ArticleStore is the deduplicating article table. Every method is safe for
// concurrent use and individually atomic.
type ArticleStore interface {
	ExistsByURL(ctx context.Context, url string) (bool, error)
	ExistsByHeading(ctx context.Context, heading string) (bool, error)
	Insert(ctx context.Context, article Article) (InsertResult, error)
}

// ArticleReader exposes read-only queries used by the browsing surface.
type ArticleReader interface {
	Latest(ctx context.Context, limit int) ([]Article, error)
	LatestByID(ctx context.Context, limit int) ([]Article, error)
	Count(ctx context.Context) (int, error)
}

// Store combines the write and read sides with lifecycle management.
type Store interface {
	ArticleStore
	ArticleReader
	Close() error
}

// Extractor discovers candidate links for a site and extracts article content.
type Extractor interface {
	Discover(ctx context.Context, siteURL string) ([]string, error)
	Extract(ctx context.Context, articleURL string) (ExtractedArticle, error)
}

// Fetcher retrieves a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// Classifier maps body text to a category label.
type Classifier interface {
	Classify(text string) string
}

// ImageAcquirer downloads, validates, and stores a lead image.
type ImageAcquirer interface {
	Acquire(ctx context.Context, imageURL string) ImageResult
}

// BlobStore writes named binary objects and returns their location.
type BlobStore interface {
	PutObject(ctx context.Context, name string, data []byte) (string, error)
}
