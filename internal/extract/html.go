package extract

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Elements whose subtrees carry chrome rather than content.
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"nav":      true,
	"footer":   true,
	"header":   true,
	"aside":    true,
	"iframe":   true,
	"form":     true,
}

// Class-name fragments that typically mark the main content container.
var contentClassHints = []string{"article-body", "post-content", "entry-content", "story-body", "content"}

// walk visits every node in depth-first order until fn returns false.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// findElement returns the first element with the given tag name.
func findElement(n *html.Node, name string) *html.Node {
	var found *html.Node
	walk(n, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode && n.Data == name {
			found = n
			return false
		}
		return true
	})
	return found
}

// findByClassHint returns the first div or section whose class attribute
// contains hint.
func findByClassHint(n *html.Node, hint string) *html.Node {
	var found *html.Node
	walk(n, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode && (n.Data == "div" || n.Data == "section") {
			if strings.Contains(strings.ToLower(attr(n, "class")), hint) {
				found = n
				return false
			}
		}
		return true
	})
	return found
}

// findByRole returns the first element carrying the given ARIA role.
func findByRole(n *html.Node, role string) *html.Node {
	var found *html.Node
	walk(n, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode && attr(n, "role") == role {
			found = n
			return false
		}
		return true
	})
	return found
}

// nodeText collects the visible text under n, skipping chrome elements,
// with whitespace collapsed to single spaces.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode && skipElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if b.Len() > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return collapseWhitespace(b.String())
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// titleTag returns the text of the <title> element.
func titleTag(doc *html.Node) string {
	if t := findElement(doc, "title"); t != nil && t.FirstChild != nil {
		return strings.TrimSpace(t.FirstChild.Data)
	}
	return ""
}

// firstH1 returns the text of the first <h1>.
func firstH1(doc *html.Node) string {
	if h := findElement(doc, "h1"); h != nil {
		return nodeText(h)
	}
	return ""
}

// metaContent returns the content of the first meta tag whose name or
// property attribute matches key.
func metaContent(doc *html.Node, key string) string {
	var content string
	walk(doc, func(n *html.Node) bool {
		if content != "" {
			return false
		}
		if n.Type == html.ElementNode && n.Data == "meta" {
			name := strings.ToLower(attr(n, "name"))
			property := strings.ToLower(attr(n, "property"))
			if name == key || property == key {
				content = strings.TrimSpace(attr(n, "content"))
				return false
			}
		}
		return true
	})
	return content
}

// extractAuthor probes common author metadata locations.
func extractAuthor(doc *html.Node) string {
	if a := metaContent(doc, "author"); a != "" {
		return a
	}
	return metaContent(doc, "article:author")
}

// extractImages collects up to max absolute image URLs, resolving relative
// srcs against the page URL. Duplicates and data URIs are dropped.
func extractImages(doc *html.Node, base *url.URL, max int) []string {
	images := []string{}
	seen := make(map[string]bool)
	walk(doc, func(n *html.Node) bool {
		if len(images) >= max {
			return false
		}
		if n.Type == html.ElementNode && n.Data == "img" {
			src := attr(n, "src")
			if src == "" || strings.HasPrefix(src, "data:") {
				return true
			}
			parsed, err := url.Parse(src)
			if err != nil {
				return true
			}
			resolved := base.ResolveReference(parsed).String()
			if !seen[resolved] {
				seen[resolved] = true
				images = append(images, resolved)
			}
		}
		return true
	})
	return images
}

// truncate cuts s to at most max runes without splitting a character.
func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max]))
}
