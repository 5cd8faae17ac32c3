// Package snapshot extracts classification signals from a loaded page: the
// text a human skims (title, headings, breadcrumbs) plus the machine hints
// (meta tags, JSON-LD) the site classifier scores against.
package snapshot

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/playwright-community/playwright-go"
)

const maxBodyText = 20000

// Summary is one page's accumulated text, gathered in a single pass.
type Summary struct {
	URL             string
	Title           string
	MetaDescription string
	MetaKeywords    string
	Headings        []string
	Breadcrumbs     []string
	StructuredData  []string
	BodyText        string
	HasCartElement  bool
}

// Text concatenates every textual signal for keyword scoring.
func (s Summary) Text() string {
	parts := []string{s.Title, s.MetaDescription, s.MetaKeywords, s.BodyText}
	parts = append(parts, s.Headings...)
	parts = append(parts, s.Breadcrumbs...)
	return strings.Join(parts, " ")
}

// Collect snapshots the current page. The DOM is serialized once and parsed
// host-side; no further page-context execution is needed.
func Collect(ctx context.Context, page playwright.Page) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	html, err := page.Content()
	if err != nil {
		return Summary{}, fmt.Errorf("page content: %w", err)
	}
	return Parse(page.URL(), html)
}

// Parse extracts the summary from raw HTML.
func Parse(url, html string) (Summary, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Summary{}, fmt.Errorf("parse html: %w", err)
	}

	sum := Summary{URL: url}
	sum.Title = clean(doc.Find("title").First().Text())
	sum.MetaDescription, _ = doc.Find(`meta[name="description"]`).First().Attr("content")
	sum.MetaKeywords, _ = doc.Find(`meta[name="keywords"]`).First().Attr("content")

	doc.Find("h1, h2, h3").Each(func(_ int, sel *goquery.Selection) {
		if t := clean(sel.Text()); t != "" {
			sum.Headings = append(sum.Headings, t)
		}
	})

	doc.Find(`[class*="breadcrumb" i], [class*="category" i], [class*="tag" i], nav[aria-label*="breadcrumb" i]`).
		Each(func(_ int, sel *goquery.Selection) {
			if t := clean(sel.Text()); t != "" {
				sum.Breadcrumbs = append(sum.Breadcrumbs, t)
			}
		})

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		if t := strings.TrimSpace(sel.Text()); t != "" {
			sum.StructuredData = append(sum.StructuredData, t)
		}
	})

	sum.HasCartElement = doc.Find(`[class*="cart" i], [id*="cart" i], a[href*="cart"], a[href*="checkout"], [class*="checkout" i]`).Length() > 0

	// Strip non-visible text before reading the body; JSON-LD was already
	// captured above.
	doc.Find("script, style, noscript, svg").Remove()
	body := clean(doc.Find("body").Text())
	if len(body) > maxBodyText {
		body = body[:maxBodyText]
	}
	sum.BodyText = body

	return sum, nil
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
