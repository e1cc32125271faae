// Package memory holds the in-process queue of sites a run works through.
package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/JakeFAU/aero-news-crawler/internal/news"
)

// ErrDrained is returned by Next once every site has been handed out.
var ErrDrained = errors.New("site queue drained")

// SiteQueue is a fixed list of site jobs shared by a pool of workers. It is
// loaded once at construction and never grows, so workers stop when it is
// drained.
type SiteQueue struct {
	jobs chan news.SiteJob
}

// NewSiteQueue loads one job per site, keeping each site's input index.
func NewSiteQueue(sites []string) *SiteQueue {
	jobs := make(chan news.SiteJob, len(sites))
	for i, site := range sites {
		jobs <- news.SiteJob{Index: i, URL: site}
	}
	close(jobs)
	return &SiteQueue{jobs: jobs}
}

// Next hands out the next site. A canceled context wins over remaining jobs
// so that shutdown stops new sites from starting.
func (q *SiteQueue) Next(ctx context.Context) (news.SiteJob, error) {
	if err := ctx.Err(); err != nil {
		return news.SiteJob{}, fmt.Errorf("next site: %w", err)
	}
	select {
	case <-ctx.Done():
		return news.SiteJob{}, fmt.Errorf("next site: %w", ctx.Err())
	case job, ok := <-q.jobs:
		if !ok {
			return news.SiteJob{}, ErrDrained
		}
		return job, nil
	}
}

// Remaining reports how many sites have not been handed out.
func (q *SiteQueue) Remaining() int {
	return len(q.jobs)
}
