// Package sites loads the list of news site URLs to ingest.
package sites

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrSiteListMissing is returned when the site list file does not exist.
var ErrSiteListMissing = errors.New("site list missing")

// Load reads a JSON or YAML array of site URLs. YAML is a superset of JSON,
// so sites.json files parse unchanged. Entries are trimmed and blanks dropped;
// order is preserved.
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSiteListMissing, path)
		}
		return nil, fmt.Errorf("read site list %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a site list document.
func Parse(data []byte) ([]string, error) {
	var raw []string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode site list: %w", err)
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}
