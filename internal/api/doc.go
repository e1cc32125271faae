// Package api hosts the read-only HTTP surface over stored articles. Notable
// routes:
//   - GET /healthz and /readyz for probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /api/news for the latest articles, newest first.
//   - GET /images/{filename} for stored lead images.
//
// The server never writes to the article store.
package api
