// Package linkpreview finds the first URL in a message and fetches its
// Open Graph metadata within a bounded time budget. Direct-media and
// rich-embed URLs are recognized and skipped; the client renders those
// itself.
package linkpreview

import (
	"context"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
)

var (
	urlPattern     = regexp.MustCompile(`https?://[^\s]+`)
	gifPattern     = regexp.MustCompile(`(?i)\.gif(\?.*)?$`)
	spotifyPattern = regexp.MustCompile(`(?i)https?://open\.spotify\.com/(track|album|artist|playlist)/[a-zA-Z0-9]+`)
)

// maxBodyBytes caps how much of a page is read for metadata.
const maxBodyBytes = 512 * 1024

type Preview struct {
	SiteName    string
	Title       string
	Description string
	Image       string
	URL         string
}

// FirstURL returns the first URL found in content, or "".
func FirstURL(content string) string {
	return urlPattern.FindString(content)
}

// SkipEnrichment reports whether a URL renders its own preview
// client-side: animated images (gif files, tenor, giphy) and Spotify
// track/album/artist/playlist links.
func SkipEnrichment(url string) bool {
	if gifPattern.MatchString(url) {
		return true
	}
	if strings.Contains(url, "tenor") || strings.Contains(url, "giphy") {
		return true
	}
	return spotifyPattern.MatchString(url)
}

// Fetcher fetches Open Graph metadata over HTTP.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
}

func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client:  &http.Client{},
		timeout: timeout,
	}
}

// Fetch retrieves the page and reads its og:* meta tags. The timeout
// bounds the whole call; any failure means "no preview", never a
// user-visible error.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Preview, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "go-cord-linkpreview/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.New("preview fetch: " + resp.Status)
	}

	preview := parseMeta(io.LimitReader(resp.Body, maxBodyBytes))
	if preview == nil {
		return nil, errors.New("no open graph metadata")
	}

	preview.URL = rawURL
	return preview, nil
}

// parseMeta tokenizes the document head and collects og:* properties.
// Returns nil when no og tag was present at all.
func parseMeta(r io.Reader) *Preview {
	tokenizer := html.NewTokenizer(r)
	preview := Preview{}
	found := false

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if found {
				return &preview
			}
			return nil
		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			if token.Data == "body" {
				// Metadata lives in the head; stop before the content.
				if found {
					return &preview
				}
				return nil
			}
			if token.Data != "meta" {
				continue
			}

			var property, content string
			for _, attr := range token.Attr {
				switch attr.Key {
				case "property", "name":
					property = attr.Val
				case "content":
					content = attr.Val
				}
			}

			switch property {
			case "og:site_name":
				preview.SiteName = content
				found = true
			case "og:title":
				preview.Title = content
				found = true
			case "og:description":
				preview.Description = content
				found = true
			case "og:image":
				if preview.Image == "" {
					preview.Image = content
				}
				found = true
			}
		}
	}
}
