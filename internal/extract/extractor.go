package extract

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/JakeFAU/aero-news-crawler/internal/news"
)

// Extractor implements news.Extractor on top of a news.Fetcher.
type Extractor struct {
	fetcher news.Fetcher
	feeds   *gofeed.Parser
	logger  *zap.Logger
}

// New builds an Extractor.
func New(fetcher news.Fetcher, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		fetcher: fetcher,
		feeds:   gofeed.NewParser(),
		logger:  logger.Named("extract"),
	}
}

// Discover fetches the site and returns candidate article URLs in page order.
// Every failure wraps news.ErrDiscovery.
func (e *Extractor) Discover(ctx context.Context, siteURL string) ([]string, error) {
	base, err := url.Parse(strings.TrimSpace(siteURL))
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("%w: invalid site url %q", news.ErrDiscovery, siteURL)
	}
	page, err := e.fetcher.Fetch(ctx, base.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", news.ErrDiscovery, err)
	}
	if final, err := url.Parse(page.FinalURL); err == nil && final.Host != "" {
		base = final
	}

	if looksLikeFeed(page.ContentType, page.Body) {
		links, err := feedLinks(e.feeds, base, page.Body)
		if err == nil {
			e.logger.Debug("discovered feed items", zap.String("site", siteURL), zap.Int("links", len(links)))
			return links, nil
		}
		e.logger.Debug("feed parse failed, falling back to html", zap.String("site", siteURL), zap.Error(err))
	}

	links, err := htmlLinks(base, page.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", news.ErrDiscovery, siteURL, err)
	}
	e.logger.Debug("discovered links", zap.String("site", siteURL), zap.Int("links", len(links)))
	return links, nil
}

// Extract fetches and parses one article. Every failure wraps news.ErrExtraction.
func (e *Extractor) Extract(ctx context.Context, articleURL string) (news.ExtractedArticle, error) {
	parsed, err := url.Parse(articleURL)
	if err != nil || parsed.Host == "" {
		return news.ExtractedArticle{}, fmt.Errorf("%w: invalid article url %q", news.ErrExtraction, articleURL)
	}
	page, err := e.fetcher.Fetch(ctx, articleURL)
	if err != nil {
		return news.ExtractedArticle{}, fmt.Errorf("%w: %w", news.ErrExtraction, err)
	}
	if final, err := url.Parse(page.FinalURL); err == nil && final.Host != "" {
		parsed = final
	}

	article, err := readability.FromReader(bytes.NewReader(page.Body), parsed)
	if err != nil {
		return news.ExtractedArticle{}, fmt.Errorf("%w: readability %s: %w", news.ErrExtraction, articleURL, err)
	}

	out := news.ExtractedArticle{
		URL:      articleURL,
		Title:    strings.TrimSpace(article.Title),
		Text:     strings.TrimSpace(article.TextContent),
		ImageURL: strings.TrimSpace(article.Image),
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return news.ExtractedArticle{}, fmt.Errorf("%w: parse %s: %w", news.ErrExtraction, articleURL, err)
	}
	if out.Text == "" && scriptShell(doc, page.Body) {
		return news.ExtractedArticle{}, fmt.Errorf("%w: %s is rendered by script", news.ErrExtraction, articleURL)
	}
	if out.Title == "" {
		out.Title = firstNonEmpty(
			metaContent(doc, "og:title"),
			strings.TrimSpace(doc.Find("title").First().Text()),
		)
	}
	if out.ImageURL == "" {
		out.ImageURL = firstNonEmpty(
			metaContent(doc, "og:image"),
			metaContent(doc, "twitter:image"),
		)
	}
	if out.ImageURL != "" {
		if abs, ok := resolve(parsed, out.ImageURL); ok {
			out.ImageURL = abs
		} else {
			out.ImageURL = ""
		}
	}
	if out.Title == "" {
		return news.ExtractedArticle{}, fmt.Errorf("%w: no title at %s", news.ErrExtraction, articleURL)
	}
	return out, nil
}

func metaContent(doc *goquery.Document, key string) string {
	sel := doc.Find(fmt.Sprintf(`meta[property=%q], meta[name=%q]`, key, key)).First()
	v, _ := sel.Attr("content")
	return strings.TrimSpace(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

var _ news.Extractor = (*Extractor)(nil)
