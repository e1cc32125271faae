package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/aero-news-crawler/internal/news"
)

const dateLayout = "2006-01-02 15:04:05"

// newsItem is the wire shape of one article in /api/news.
type newsItem struct {
	ID          int64   `json:"id"`
	Heading     string  `json:"heading"`
	Category    string  `json:"category"`
	Body        string  `json:"body"`
	ImageURL    *string `json:"image_url"`
	OriginalURL string  `json:"original_url"`
	Date        string  `json:"date"`
}

func (s *Server) listNews(w http.ResponseWriter, r *http.Request) {
	articles, err := s.articles.Latest(r.Context(), s.opts.LatestLimit)
	if err != nil {
		s.logger.Error("list news failed", zap.String("request_id", requestID(r.Context())), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to load news")
		return
	}
	items := make([]newsItem, 0, len(articles))
	for _, a := range articles {
		items = append(items, s.toItem(a))
	}
	s.writeJSON(w, http.StatusOK, items)
}

func (s *Server) toItem(a news.Article) newsItem {
	item := newsItem{
		ID:          a.ID,
		Heading:     a.Heading,
		Category:    a.Category,
		Body:        preview(a.BodyText, s.opts.PreviewChars),
		OriginalURL: a.URL,
		Date:        a.CreatedAt.UTC().Format(dateLayout),
	}
	if a.HasStoredImage() {
		u := "/images/" + filepath.Base(a.ImageReference)
		item.ImageURL = &u
	}
	return item
}

// preview returns the first n characters followed by an ellipsis.
func preview(body string, n int) string {
	if utf8.RuneCountInString(body) <= n {
		return body + "..."
	}
	runes := []rune(body)
	return string(runes[:n]) + "..."
}

func (s *Server) serveImage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") || strings.ContainsRune(name, '\\') {
		s.writeError(w, http.StatusBadRequest, "invalid image name")
		return
	}
	path := filepath.Join(s.imageDir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		s.writeError(w, http.StatusNotFound, "image not found")
		return
	}
	http.ServeFile(w, r, path)
}
