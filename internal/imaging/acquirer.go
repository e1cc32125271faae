// Package imaging downloads lead images, rejects placeholders and undecodable
// payloads, and writes accepted images under a filename derived from the
// source URL.
package imaging

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/webp" // register decoder

	"github.com/JakeFAU/aero-news-crawler/internal/metrics"
	"github.com/JakeFAU/aero-news-crawler/internal/news"
)

// DefaultUserAgent identifies as a desktop browser; several image CDNs refuse
// requests without one.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

const defaultMaxBytes = 32 << 20

// errTooLarge marks a body that exceeded MaxBytes. Such images are never
// stored, since keeping the prefix would leave a truncated file.
var errTooLarge = errors.New("image exceeds size limit")

// Config controls acquisition thresholds.
type Config struct {
	MinBytes  int
	MaxBytes  int64
	Timeout   time.Duration
	Extension string
	UserAgent string
}

func (c Config) withDefaults() Config {
	if c.MinBytes <= 0 {
		c.MinBytes = 5 * 1024
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = defaultMaxBytes
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	c.Extension = strings.TrimPrefix(strings.TrimSpace(c.Extension), ".")
	if c.Extension == "" {
		c.Extension = "jpg"
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	return c
}

// Acquirer implements news.ImageAcquirer.
type Acquirer struct {
	cfg    Config
	client *http.Client
	blobs  news.BlobStore
	logger *zap.Logger
}

// Option customizes an Acquirer.
type Option func(*Acquirer)

// WithHTTPClient overrides the HTTP client. The configured timeout still applies.
func WithHTTPClient(client *http.Client) Option {
	return func(a *Acquirer) {
		if client != nil {
			a.client = client
		}
	}
}

// New constructs an Acquirer writing accepted images to blobs.
func New(cfg Config, blobs news.BlobStore, logger *zap.Logger, opts ...Option) *Acquirer {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	a := &Acquirer{
		cfg:    cfg,
		client: &http.Client{Transport: newHTTPTransport()},
		blobs:  blobs,
		logger: logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Filename returns the content-addressed file name for an image URL.
func (a *Acquirer) Filename(imageURL string) string {
	sum := sha256.Sum256([]byte(imageURL))
	return hex.EncodeToString(sum[:]) + "." + a.cfg.Extension
}

// Acquire never returns an error; every failure is folded into the result.
func (a *Acquirer) Acquire(ctx context.Context, imageURL string) news.ImageResult {
	result := a.acquire(ctx, strings.TrimSpace(imageURL))
	metrics.ObserveImage(result.Status.String())
	return result
}

func (a *Acquirer) acquire(ctx context.Context, imageURL string) news.ImageResult {
	if imageURL == "" {
		return news.FailedImage(news.ImageNoURL)
	}

	data, err := a.download(ctx, imageURL)
	if err != nil {
		a.logger.Debug("image download failed", zap.String("image_url", imageURL), zap.Error(err))
		return news.FailedImage(news.ImageDownloadError)
	}
	if len(data) < a.cfg.MinBytes {
		a.logger.Debug("image below minimum size",
			zap.String("image_url", imageURL),
			zap.Int("bytes", len(data)),
		)
		return news.FailedImage(news.ImageTooSmall)
	}
	// Header-only decode: rejects HTML error pages and unknown formats
	// served with a 200 without paying for a full decode.
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		a.logger.Debug("image failed validation", zap.String("image_url", imageURL), zap.Error(err))
		return news.FailedImage(news.ImageCorrupt)
	}

	path, err := a.blobs.PutObject(ctx, a.Filename(imageURL), data)
	if err != nil {
		a.logger.Warn("image write failed", zap.String("image_url", imageURL), zap.Error(err))
		return news.FailedImage(news.ImageDownloadError)
	}
	return news.StoredImage(path)
}

func (a *Acquirer) download(ctx context.Context, imageURL string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", a.cfg.UserAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get image: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() //nolint:errcheck // body fully consumed or abandoned
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, a.cfg.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	if int64(len(data)) > a.cfg.MaxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", errTooLarge, a.cfg.MaxBytes)
	}
	return data, nil
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
	}
}
