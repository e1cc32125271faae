// Package pipeline drives a single news site from link discovery to stored
// articles.
package pipeline

import (
	"context"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/JakeFAU/aero-news-crawler/internal/metrics"
	"github.com/JakeFAU/aero-news-crawler/internal/news"
)

// Config controls per-site limits.
type Config struct {
	MaxLinks     int
	Quota        int
	MinBodyChars int
}

func (c Config) withDefaults() Config {
	if c.MaxLinks <= 0 {
		c.MaxLinks = 20
	}
	if c.Quota <= 0 {
		c.Quota = 10
	}
	if c.MinBodyChars <= 0 {
		c.MinBodyChars = 200
	}
	return c
}

// Processor runs the candidate pipeline for one site at a time. It holds no
// per-site state and is safe to share across workers.
type Processor struct {
	cfg        Config
	extractor  news.Extractor
	store      news.ArticleStore
	classifier news.Classifier
	images     news.ImageAcquirer
	logger     *zap.Logger
}

// New constructs a Processor.
func New(
	cfg Config,
	extractor news.Extractor,
	store news.ArticleStore,
	classifier news.Classifier,
	images news.ImageAcquirer,
	logger *zap.Logger,
) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		cfg:        cfg.withDefaults(),
		extractor:  extractor,
		store:      store,
		classifier: classifier,
		images:     images,
		logger:     logger.Named("processor"),
	}
}

// Process discovers candidates for site and stores up to the quota of new
// articles. A discovery failure is reported in the outcome with zero counts;
// no failure escapes as a panic or error return.
func (p *Processor) Process(ctx context.Context, site string) news.SiteOutcome {
	outcome := news.SiteOutcome{Site: site}
	logger := p.logger.With(zap.String("site", site))
	start := time.Now()

	links, err := p.extractor.Discover(ctx, site)
	if err != nil {
		logger.Warn("site discovery failed", zap.Error(err))
		outcome.Err = err
		return outcome
	}
	if len(links) > p.cfg.MaxLinks {
		links = links[:p.cfg.MaxLinks]
	}

	// Candidates run to completion once started; cancellation is only
	// observed between candidates.
	work := context.WithoutCancel(ctx)
	for _, link := range links {
		if outcome.Accepted >= p.cfg.Quota {
			break
		}
		if ctx.Err() != nil {
			logger.Info("stopping site on shutdown", zap.Int("accepted", outcome.Accepted))
			break
		}
		outcome.Attempted++
		result := p.candidate(work, logger, site, link)
		outcome.Record(result)
		metrics.ObserveCandidate(string(result))
	}

	logger.Info("site complete",
		zap.Int("candidates", len(links)),
		zap.Int("attempted", outcome.Attempted),
		zap.Int("accepted", outcome.Accepted),
		zap.Duration("duration", time.Since(start)),
	)
	return outcome
}

func (p *Processor) candidate(ctx context.Context, logger *zap.Logger, site, link string) news.CandidateOutcome {
	logger = logger.With(zap.String("url", link))

	known, err := p.store.ExistsByURL(ctx, link)
	if err != nil {
		logger.Error("url lookup failed", zap.Error(err))
		return news.CandidateStoreError
	}
	if known {
		logger.Debug("skipping known url")
		return news.CandidateKnownURL
	}

	extracted, err := p.extractor.Extract(ctx, link)
	if err != nil {
		logger.Debug("extraction failed", zap.Error(err))
		return news.CandidateExtractFailed
	}
	if n := utf8.RuneCountInString(extracted.Text); n < p.cfg.MinBodyChars {
		logger.Debug("body too short", zap.Int("chars", n))
		return news.CandidateShortBody
	}

	known, err = p.store.ExistsByHeading(ctx, extracted.Title)
	if err != nil {
		logger.Error("heading lookup failed", zap.Error(err))
		return news.CandidateStoreError
	}
	if known {
		logger.Debug("skipping known heading", zap.String("heading", extracted.Title))
		return news.CandidateKnownHeading
	}

	category := p.classifier.Classify(extracted.Text)
	image := p.images.Acquire(ctx, extracted.ImageURL)

	res, err := p.store.Insert(ctx, news.Article{
		URL:            link,
		Heading:        extracted.Title,
		Category:       category,
		BodyText:       extracted.Text,
		ImageReference: image.Reference(),
	})
	if err != nil {
		logger.Error("insert failed", zap.Error(err))
		return news.CandidateStoreError
	}
	if !res.Inserted {
		logger.Debug("insert skipped", zap.String("reason", string(res.Reason)))
		return news.CandidateDuplicateOnWrite
	}

	metrics.ObserveArticle(site, category)
	logger.Info("article stored",
		zap.Int64("id", res.ID),
		zap.String("heading", extracted.Title),
		zap.String("category", category),
		zap.String("image", image.Status.String()),
	)
	return news.CandidateAccepted
}
