package extract

import (
	"bytes"
	"net/url"
	"path"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// looksLikeFeed reports whether the payload is RSS, Atom or RSS-in-XML.
func looksLikeFeed(contentType string, body []byte) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "rss") || strings.Contains(ct, "atom") || strings.Contains(ct, "xml") {
		return true
	}
	head := bytes.TrimSpace(body)
	if len(head) > 512 {
		head = head[:512]
	}
	lower := bytes.ToLower(head)
	return bytes.HasPrefix(lower, []byte("<?xml")) ||
		bytes.HasPrefix(lower, []byte("<rss")) ||
		bytes.HasPrefix(lower, []byte("<feed"))
}

func feedLinks(parser *gofeed.Parser, base *url.URL, body []byte) ([]string, error) {
	feed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(feed.Items))
	links := make([]string, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		link := strings.TrimSpace(item.Link)
		if link == "" && len(item.Links) > 0 {
			link = strings.TrimSpace(item.Links[0])
		}
		abs, ok := resolve(base, link)
		if !ok {
			continue
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	}
	return links, nil
}

// htmlLinks returns same-host, article-like anchors in document order.
func htmlLinks(base *url.URL, body []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	self := canonical(base)
	seen := map[string]struct{}{self: {}}
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		abs, ok := resolve(base, href)
		if !ok {
			return
		}
		u, err := url.Parse(abs)
		if err != nil || !sameSite(base, u) || !articleLike(u) {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	})
	return links, nil
}

func resolve(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	u := ref
	if base != nil {
		u = base.ResolveReference(ref)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if u.Host == "" {
		return "", false
	}
	u.Fragment = ""
	return u.String(), true
}

func canonical(u *url.URL) string {
	c := *u
	c.Fragment = ""
	return c.String()
}

func sameSite(base, u *url.URL) bool {
	return strings.TrimPrefix(strings.ToLower(base.Hostname()), "www.") ==
		strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// articleLike keeps slug-shaped or dated paths and drops section indexes
// such as /news or /about.
func articleLike(u *url.URL) bool {
	p := strings.TrimSuffix(u.Path, "/")
	if p == "" {
		return false
	}
	last := path.Base(p)
	ext := strings.ToLower(path.Ext(last))
	if ext == ".html" || ext == ".htm" {
		return true
	}
	if ext != "" {
		return false
	}
	if strings.ContainsAny(last, "-_") {
		return true
	}
	return strings.IndexFunc(last, unicode.IsDigit) >= 0
}
