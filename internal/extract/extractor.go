// Package extract turns web pages into plain-text evidence for analysis.
// Two modes share the same fetch and parse machinery: fast mode trades
// fidelity for a short timeout, robust mode spends more time on a
// readability-style pass for pages where the quick selectors come up short.
package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/contentradar/contentradar/internal/config"
	"github.com/contentradar/contentradar/pkg/models"
	"golang.org/x/net/html"
)

const (
	maxTitleLen     = 200
	maxContentLen   = 10000
	fastMaxImages   = 3
	robustMaxImages = 5

	// Robust extraction below this length is treated as a failed
	// readability pass and falls back to selector concatenation.
	minReadableLen = 500

	fastUserAgent   = "Mozilla/5.0 (compatible; ContentRadar/1.0)"
	robustUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	defaultTitle = "Untitled"
)

// Extractor fetches pages and extracts title, body text and image URLs.
// It holds no mutable state and is safe for concurrent use.
type Extractor struct {
	fastClient   *http.Client
	robustClient *http.Client
}

// New creates an Extractor with per-mode timeouts and a shared redirect cap.
func New(cfg config.ExtractConfig) *Extractor {
	maxRedirects := cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 3
	}
	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		return nil
	}
	return &Extractor{
		fastClient: &http.Client{
			Timeout:       cfg.FastTimeout,
			CheckRedirect: redirectPolicy,
		},
		robustClient: &http.Client{
			Timeout:       cfg.RobustTimeout,
			CheckRedirect: redirectPolicy,
		},
	}
}

// Extract runs fast-mode extraction: title from <title> then first <h1>,
// body text from the first matching structural probe with whole-body text
// as the last resort, up to 3 image URLs.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (*models.ExtractedContent, error) {
	doc, base, err := e.fetch(ctx, e.fastClient, rawURL, fastUserAgent)
	if err != nil {
		return nil, err
	}

	title := titleTag(doc)
	if title == "" {
		title = firstH1(doc)
	}
	if title == "" {
		title = defaultTitle
	}

	content := nodeText(probeContentNode(doc))
	if content == "" {
		content = nodeText(doc)
	}
	if content == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoContent, rawURL)
	}

	return &models.ExtractedContent{
		Title:   truncate(title, maxTitleLen),
		Content: truncate(content, maxContentLen),
		Author:  extractAuthor(doc),
		Images:  extractImages(doc, base, fastMaxImages),
	}, nil
}

// ExtractRobust runs robust-mode extraction: a browser user agent, a longer
// timeout, a readability-style scoring pass over candidate containers, and
// a prioritized selector fallback when the scored text is too short.
func (e *Extractor) ExtractRobust(ctx context.Context, rawURL string) (*models.ExtractedContent, error) {
	doc, base, err := e.fetch(ctx, e.robustClient, rawURL, robustUserAgent)
	if err != nil {
		return nil, err
	}

	title := robustTitle(doc)

	content := readableText(doc)
	if len(content) < minReadableLen {
		if fallback := selectorText(doc); len(fallback) > len(content) {
			content = fallback
		}
	}
	if content == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoContent, rawURL)
	}

	return &models.ExtractedContent{
		Title:   truncate(title, maxTitleLen),
		Content: truncate(content, maxContentLen),
		Author:  extractAuthor(doc),
		Images:  extractImages(doc, base, robustMaxImages),
	}, nil
}

// fetch GETs the URL and parses the response body. Transport failures are
// classified into sentinel errors; parse failures surface as ErrNoContent
// since nothing usable can be recovered from an unparseable body.
func (e *Extractor) fetch(ctx context.Context, client *http.Client, rawURL, userAgent string) (*html.Node, *url.URL, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, nil, fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: parse: %v", ErrNoContent, err)
	}

	// Redirects may have landed elsewhere; resolve images against the
	// final URL.
	final := resp.Request.URL
	if final == nil {
		final = parsed
	}
	return doc, final, nil
}

// probeContentNode tries structural selectors in a fixed order and falls
// back to <body> (or the document root) when none match.
func probeContentNode(doc *html.Node) *html.Node {
	if n := findElement(doc, "article"); n != nil {
		return n
	}
	if n := findElement(doc, "main"); n != nil {
		return n
	}
	for _, hint := range contentClassHints {
		if n := findByClassHint(doc, hint); n != nil {
			return n
		}
	}
	if body := findElement(doc, "body"); body != nil {
		return body
	}
	return doc
}

// robustTitle prefers social-card metadata over document structure.
// Priority: og:title, twitter:title, <h1>, <title>.
func robustTitle(doc *html.Node) string {
	for _, probe := range []func() string{
		func() string { return metaContent(doc, "og:title") },
		func() string { return metaContent(doc, "twitter:title") },
		func() string { return firstH1(doc) },
		func() string { return titleTag(doc) },
	} {
		if t := probe(); t != "" {
			return t
		}
	}
	return defaultTitle
}

// readableText scores candidate containers by text volume discounted by
// link density and returns the text of the best one. Containers dominated
// by anchors (navigation, listings) score near zero.
func readableText(doc *html.Node) string {
	best := ""
	bestScore := 0.0
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		switch n.Data {
		case "article", "main", "section", "div":
		default:
			return true
		}
		text := nodeText(n)
		if len(text) < 80 {
			return true
		}
		linkLen := 0
		walk(n, func(c *html.Node) bool {
			if c.Type == html.ElementNode && c.Data == "a" {
				linkLen += len(nodeText(c))
				return false
			}
			return true
		})
		density := float64(linkLen) / float64(len(text))
		score := float64(len(text)) * (1 - density)
		if score > bestScore {
			bestScore = score
			best = text
		}
		return true
	})
	return best
}

// selectorText concatenates text from a prioritized list of structural
// selectors, stopping once the accumulated length reaches the content cap.
func selectorText(doc *html.Node) string {
	var parts []string
	total := 0
	add := func(text string) bool {
		if text == "" {
			return true
		}
		parts = append(parts, text)
		total += len(text)
		return total < maxContentLen
	}

	for _, find := range []func() *html.Node{
		func() *html.Node { return findElement(doc, "article") },
		func() *html.Node { return findElement(doc, "main") },
		func() *html.Node { return findByRole(doc, "main") },
	} {
		if n := find(); n != nil {
			if !add(nodeText(n)) {
				return collapseWhitespace(joinParts(parts))
			}
		}
	}
	for _, hint := range contentClassHints {
		if n := findByClassHint(doc, hint); n != nil {
			if !add(nodeText(n)) {
				return collapseWhitespace(joinParts(parts))
			}
		}
	}

	// Last resort: every paragraph in document order.
	walk(doc, func(n *html.Node) bool {
		if total >= maxContentLen {
			return false
		}
		if n.Type == html.ElementNode && n.Data == "p" {
			add(nodeText(n))
			return false
		}
		return true
	})
	return collapseWhitespace(joinParts(parts))
}

func joinParts(parts []string) string {
	var b []byte
	for i, p := range parts {
		if i > 0 {
			b = append(b, ' ')
		}
		b = append(b, p...)
	}
	return string(b)
}
