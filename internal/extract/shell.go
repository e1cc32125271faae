package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Mount points client-side frameworks render into.
var shellMounts = []string{"#__next", "#root", "#app", "[data-reactroot]"}

const (
	shellScriptShare = 25
	shellTextChars   = 2048
)

// scriptShell reports whether a page carries its content in scripts rather
// than markup, so static extraction cannot recover an article from it.
func scriptShell(doc *goquery.Document, raw []byte) bool {
	if len(raw) == 0 {
		return true
	}
	body := doc.Find("body")
	scripts := 0
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		scripts += len(s.Text())
	})
	visible := len(strings.TrimSpace(body.Text())) - scripts
	if visible >= shellTextChars {
		return false
	}
	if scripts*100/len(raw) >= shellScriptShare {
		return true
	}
	for _, sel := range shellMounts {
		mount := doc.Find(sel).First()
		if mount.Length() > 0 && strings.TrimSpace(mount.Text()) == "" {
			return true
		}
	}
	return false
}
