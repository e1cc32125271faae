package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/JakeFAU/aero-news-crawler/internal/news"
)

var longBody = strings.Repeat("The airline confirmed a new widebody order for its long-haul fleet. ", 5)

type fakeExtractor struct {
	mu          sync.Mutex
	links       []string
	discoverErr error
	articles    map[string]news.ExtractedArticle
	extracted   []string
}

func (f *fakeExtractor) Discover(context.Context, string) ([]string, error) {
	if f.discoverErr != nil {
		return nil, f.discoverErr
	}
	return f.links, nil
}

func (f *fakeExtractor) Extract(_ context.Context, u string) (news.ExtractedArticle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.extracted = append(f.extracted, u)
	a, ok := f.articles[u]
	if !ok {
		return news.ExtractedArticle{}, fmt.Errorf("%w: %s", news.ErrExtraction, u)
	}
	return a, nil
}

func (f *fakeExtractor) extractedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.extracted)
}

// validSite builds n unique, valid candidates.
func validSite(n int) *fakeExtractor {
	f := &fakeExtractor{articles: map[string]news.ExtractedArticle{}}
	for i := 0; i < n; i++ {
		u := fmt.Sprintf("https://aero.example/story-%d", i)
		f.links = append(f.links, u)
		f.articles[u] = news.ExtractedArticle{
			URL:      u,
			Title:    fmt.Sprintf("Story %d", i),
			Text:     longBody,
			ImageURL: fmt.Sprintf("https://cdn.aero.example/%d.jpg", i),
		}
	}
	return f
}

type memStore struct {
	mu        sync.Mutex
	byURL     map[string]news.Article
	headings  map[string]struct{}
	nextID    int64
	inserts   int
	lookupErr error
	insertErr error
}

func newMemStore() *memStore {
	return &memStore{byURL: map[string]news.Article{}, headings: map[string]struct{}{}}
}

func (s *memStore) ExistsByURL(_ context.Context, u string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookupErr != nil {
		return false, s.lookupErr
	}
	_, ok := s.byURL[u]
	return ok, nil
}

func (s *memStore) ExistsByHeading(_ context.Context, h string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookupErr != nil {
		return false, s.lookupErr
	}
	_, ok := s.headings[h]
	return ok, nil
}

func (s *memStore) Insert(_ context.Context, a news.Article) (news.InsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts++
	if s.insertErr != nil {
		return news.InsertResult{}, s.insertErr
	}
	if _, ok := s.byURL[a.URL]; ok {
		return news.Skipped(news.DuplicateURL), nil
	}
	if _, ok := s.headings[a.Heading]; ok {
		return news.Skipped(news.DuplicateHeading), nil
	}
	s.nextID++
	a.ID = s.nextID
	s.byURL[a.URL] = a
	s.headings[a.Heading] = struct{}{}
	return news.Inserted(a.ID), nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byURL)
}

func (s *memStore) get(u string) (news.Article, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byURL[u]
	return a, ok
}

type fixedImages struct {
	result news.ImageResult
	calls  int
	mu     sync.Mutex
}

func (f *fixedImages) Acquire(context.Context, string) news.ImageResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.result
}

var errBoom = errors.New("boom")
