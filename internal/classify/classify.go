// Package classify assigns articles to a fixed, ordered category taxonomy by
// case-insensitive keyword substring match.
package classify

import "strings"

// Fallback is returned when no category keyword matches.
const Fallback = "General"

// Category is one taxonomy entry.
type Category struct {
	Name     string   `mapstructure:"name" yaml:"name"`
	Keywords []string `mapstructure:"keywords" yaml:"keywords"`
}

// Taxonomy is an ordered list of categories. Earlier entries win ties.
type Taxonomy []Category

// DefaultTaxonomy returns the aviation taxonomy in precedence order:
// Commercial, Defence, MRO, Cargo, Business.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		{Name: "Commercial", Keywords: []string{
			"IndiGo", "Air India", "Delta", "United", "American Airlines",
			"Etihad", "Emirates", "Pakistan International", "Air New Zealand",
			"Ryanair", "passenger", "commercial", "airline", "scheduled",
		}},
		{Name: "Defence", Keywords: []string{
			"defence", "military", "air force", "fighter", "navy", "drdo", "iaf",
		}},
		{Name: "MRO", Keywords: []string{
			"maintenance", "repair", "overhaul", "technical", "engineering", "mro", "spare parts",
		}},
		{Name: "Cargo", Keywords: []string{
			"cargo", "freight", "logistics", "ground handling", "baggage",
		}},
		{Name: "Business", Keywords: []string{
			"private jet", "charter", "business jet", "corporate", "non-scheduled",
		}},
	}
}

type compiledCategory struct {
	name     string
	keywords []string
}

// Classifier is immutable after construction and safe for concurrent use.
type Classifier struct {
	categories []compiledCategory
}

// New compiles the taxonomy, lowercasing keywords once and dropping blanks.
func New(taxonomy Taxonomy) *Classifier {
	compiled := make([]compiledCategory, 0, len(taxonomy))
	for _, cat := range taxonomy {
		name := strings.TrimSpace(cat.Name)
		if name == "" {
			continue
		}
		keywords := make([]string, 0, len(cat.Keywords))
		for _, kw := range cat.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				keywords = append(keywords, kw)
			}
		}
		compiled = append(compiled, compiledCategory{name: name, keywords: keywords})
	}
	return &Classifier{categories: compiled}
}

// Classify returns the first category with a keyword contained in text, or
// Fallback.
func (c *Classifier) Classify(text string) string {
	lower := strings.ToLower(text)
	for _, cat := range c.categories {
		for _, kw := range cat.keywords {
			if strings.Contains(lower, kw) {
				return cat.name
			}
		}
	}
	return Fallback
}

// Names returns the category names in precedence order, followed by Fallback.
func (c *Classifier) Names() []string {
	names := make([]string, 0, len(c.categories)+1)
	for _, cat := range c.categories {
		names = append(names, cat.name)
	}
	return append(names, Fallback)
}
