// Package facebook builds share-button markup for canvas and regular
// pages.
package facebook

import (
	"fmt"
	"html"
	"sort"
	"strings"
)

const descriptionLimit = 200

// ShareItem is anything that can be shared to a timeline.
type ShareItem interface {
	ItemTitle() string
	ItemDescription() string
	ItemImageURL() string
	ItemTargetURL() string
}

// MetaShareButton renders the canvas-page share button with the item
// metadata inlined. All values are html-escaped.
func MetaShareButton(item ShareItem) string {
	var b strings.Builder
	b.WriteString(`<fb:share-button class="meta"><meta name="medium" content="news" />`)
	fmt.Fprintf(&b, `<meta name="title" content="%s" />`, html.EscapeString(item.ItemTitle()))
	fmt.Fprintf(&b, `<meta name="description" content="%s" />`, html.EscapeString(caption(item.ItemDescription(), descriptionLimit)))
	if img := item.ItemImageURL(); img != "" {
		fmt.Fprintf(&b, `<link rel="image_src" href="%s" />`, html.EscapeString(img))
	}
	fmt.Fprintf(&b, `<link rel="target_url" href="%s" />`, html.EscapeString(item.ItemTargetURL()))
	b.WriteString(`</fb:share-button>`)
	return b.String()
}

// ShareButton renders the plain share button pointing at url.
func ShareButton(url string) string {
	return fmt.Sprintf(`<fb:share-button href="%s"></fb:share-button>`, html.EscapeString(url))
}

// MP3Tag renders an fb:mp3 player tag for src with optional extra
// attributes.
func MP3Tag(src string, attrs map[string]string) string {
	var b strings.Builder
	b.WriteString(`<fb:mp3`)
	fmt.Fprintf(&b, ` src="%s"`, html.EscapeString(src))
	for _, key := range sortedKeys(attrs) {
		fmt.Fprintf(&b, ` %s="%s"`, key, html.EscapeString(attrs[key]))
	}
	b.WriteString(` />`)
	return b.String()
}

// caption truncates text to limit runes, appending an ellipsis when
// something was cut.
func caption(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
