package tweeter

import (
	"context"
	"regexp"
	"strings"

	"github.com/go-resty/resty/v2"
)

// maxRedirectHops bounds the redirect chain walk so a redirect loop
// cannot hang the resolver.
const maxRedirectHops = 10

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// ExtractURLs returns every http(s) URL found in the tweet text.
func ExtractURLs(text string) []string {
	return urlPattern.FindAllString(text, -1)
}

// URLResolver expands shortened URLs by following redirect Location
// headers one hop at a time.
type URLResolver struct {
	client *resty.Client
}

func NewURLResolver() *URLResolver {
	client := resty.New().SetRedirectPolicy(resty.NoRedirectPolicy())
	return &URLResolver{client: client}
}

// ResolveURL walks the redirect chain of url and returns the final
// location. Any fetch error ends the walk; the last known location
// (or the input itself) is returned.
func (r *URLResolver) ResolveURL(ctx context.Context, url string) string {
	resolved := url
	next := url
	for i := 0; i < maxRedirectHops; i++ {
		loc := r.fetchLocation(ctx, next)
		if loc == "" {
			break
		}
		resolved = loc
		next = loc
	}
	return resolved
}

func (r *URLResolver) ResolveURLs(ctx context.Context, urls []string) []string {
	resolved := make([]string, 0, len(urls))
	for _, u := range urls {
		resolved = append(resolved, r.ResolveURL(ctx, u))
	}
	return resolved
}

func (r *URLResolver) fetchLocation(ctx context.Context, url string) string {
	resp, err := r.client.R().SetContext(ctx).Get(strings.TrimSpace(url))
	if resp == nil {
		return ""
	}
	// NoRedirectPolicy reports the first redirect as an error while
	// still exposing the response headers.
	if err != nil && resp.StatusCode() < 300 {
		return ""
	}
	return resp.Header().Get("Location")
}
