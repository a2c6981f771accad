package facebook

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeItem struct {
	title       string
	description string
	imageURL    string
	targetURL   string
}

func (i fakeItem) ItemTitle() string       { return i.title }
func (i fakeItem) ItemDescription() string { return i.description }
func (i fakeItem) ItemImageURL() string    { return i.imageURL }
func (i fakeItem) ItemTargetURL() string   { return i.targetURL }

func TestMetaShareButton(t *testing.T) {
	item := fakeItem{
		title:       "Garage sale",
		description: "Everything must go",
		imageURL:    "http://cdn.example.com/1.jpg",
		targetURL:   "http://example.com/listings/1",
	}

	markup := MetaShareButton(item)

	assert.True(t, strings.HasPrefix(markup, `<fb:share-button class="meta">`))
	assert.True(t, strings.HasSuffix(markup, `</fb:share-button>`))
	assert.Contains(t, markup, `<meta name="medium" content="news" />`)
	assert.Contains(t, markup, `<meta name="title" content="Garage sale" />`)
	assert.Contains(t, markup, `<meta name="description" content="Everything must go" />`)
	assert.Contains(t, markup, `<link rel="image_src" href="http://cdn.example.com/1.jpg" />`)
	assert.Contains(t, markup, `<link rel="target_url" href="http://example.com/listings/1" />`)
}

func TestMetaShareButton_NoImage(t *testing.T) {
	item := fakeItem{title: "t", description: "d", targetURL: "http://example.com/x"}
	assert.NotContains(t, MetaShareButton(item), "image_src")
}

func TestMetaShareButton_EscapesAndTruncates(t *testing.T) {
	item := fakeItem{
		title:       `Couch <free> & "clean"`,
		description: strings.Repeat("a", 250),
		targetURL:   "http://example.com/x?a=1&b=2",
	}

	markup := MetaShareButton(item)

	assert.Contains(t, markup, "Couch &lt;free&gt; &amp; &#34;clean&#34;")
	assert.Contains(t, markup, strings.Repeat("a", 200)+"...")
	assert.NotContains(t, markup, strings.Repeat("a", 201))
	assert.Contains(t, markup, "http://example.com/x?a=1&amp;b=2")
}

func TestShareButton(t *testing.T) {
	assert.Equal(t,
		`<fb:share-button href="http://example.com/listings/7"></fb:share-button>`,
		ShareButton("http://example.com/listings/7"),
	)
}

func TestMP3Tag(t *testing.T) {
	markup := MP3Tag("http://cdn.example.com/a.mp3", map[string]string{
		"title":  "Interview",
		"artist": "Newsroom",
	})
	assert.Equal(t, `<fb:mp3 src="http://cdn.example.com/a.mp3" artist="Newsroom" title="Interview" />`, markup)
}
