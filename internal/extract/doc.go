// Package extract turns fetched pages into candidate article links and
// extracted article content. Link discovery reads anchors with goquery, or
// feed items with gofeed when the site URL serves RSS or Atom; article
// content comes from go-readability with Open Graph fallbacks.
package extract
