package news

import (
	"errors"
	"time"
)

// Sentinel errors surfaced by extraction collaborators.
var (
	// ErrDiscovery marks a failure to reach or parse a site's front page.
	ErrDiscovery = errors.New("site discovery failed")
	// ErrExtraction marks a failure to fetch or parse a single article.
	ErrExtraction = errors.New("article extraction failed")
)

// Article is the unit of storage. ID and CreatedAt are assigned by the store.
type Article struct {
	ID             int64     `json:"id"`
	URL            string    `json:"url"`
	Heading        string    `json:"heading"`
	Category       string    `json:"category"`
	BodyText       string    `json:"body_text"`
	ImageReference string    `json:"image_reference"`
	CreatedAt      time.Time `json:"created_at"`
}

// HasStoredImage reports whether ImageReference points at a saved image file
// rather than one of the sentinel strings.
func (a Article) HasStoredImage() bool {
	return a.ImageReference != "" && !IsSentinelReference(a.ImageReference)
}

// ExtractedArticle is what the extraction collaborator returns for a single
// candidate URL.
type ExtractedArticle struct {
	URL      string
	Title    string
	Text     string
	ImageURL string
}

// Page is a fetched HTTP resource.
type Page struct {
	URL         string
	FinalURL    string
	StatusCode  int
	ContentType string
	Body        []byte
	Duration    time.Duration
}

// SiteJob is a unit of work pulled by orchestrator workers.
type SiteJob struct {
	Index int
	URL   string
}
