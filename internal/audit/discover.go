package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog"

	"github.com/storelens/croaudit/internal/browser"
)

// Storefront markup conventions vary too much for a single rule, so
// discovery is layered: cheap static anchor matching first, a simulated
// click on a product card only when that finds nothing.

var (
	collectionPathRe = regexp.MustCompile(`/(collections?|categories?|category|shop|store|catalog|browse)/`)
	productPathRe    = regexp.MustCompile(`/(products?|product|items?|item)/`)
	purchaseTextRe   = regexp.MustCompile(`(?i)\$\d+|£\d+|€\d+|buy|add to`)
	nonAlnumRe       = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
)

// extractLinksScript collects every same-origin anchor in DOM order. The
// classification itself happens host-side so it stays deterministic and
// testable; the page only reports raw facts.
const extractLinksScript = `() => {
	const origin = window.location.origin;
	const here = window.location.href;
	const out = [];
	document.querySelectorAll('a[href]').forEach(a => {
		try {
			const href = a.href;
			if (!href || !href.startsWith(origin) || href === here) return;
			out.push({
				href: href,
				text: (a.textContent || '').trim().slice(0, 120),
				productClass: !!a.closest('[class*="product" i]')
			});
		} catch (e) {}
	});
	return out.slice(0, 400);
}`

// findProductCardScript looks for an on-screen anchor that visually
// resembles a product card and returns its center point for a real mouse
// click. Selector strategies are ordered from most to least specific.
const findProductCardScript = `(origin) => {
	const selectors = [
		'[class*="product-card"] a[href], [class*="product-item"] a[href]',
		'.product-grid a[href], .product-list a[href]',
		'a[href]'
	];
	for (const sel of selectors) {
		const els = Array.from(document.querySelectorAll(sel));
		for (const el of els) {
			try {
				const rect = el.getBoundingClientRect();
				if (!el.href || !el.href.startsWith(origin)) continue;
				if (rect.width <= 60 || rect.height <= 60) continue;
				if (rect.top < 0 || rect.bottom > window.innerHeight) continue;
				if (sel === 'a[href]' && !(el.querySelector('img') && el.querySelector('[class*="price"]'))) continue;
				const img = el.querySelector('img');
				const title = el.querySelector('[class*="title"], [class*="name"]');
				const name = (
					(img && img.getAttribute('alt')) ||
					(title && title.textContent) ||
					el.href.split('/').pop() ||
					'product'
				).substring(0, 30);
				return { href: el.href, name: name, x: rect.left + rect.width / 2, y: rect.top + rect.height / 2 };
			} catch (e) {}
		}
	}
	return null;
}`

type pageLink struct {
	Href         string `json:"href"`
	Text         string `json:"text"`
	ProductClass bool   `json:"productClass"`
}

type candidate struct {
	Name string
	URL  string
}

// classifyLinks walks anchors in DOM order and picks the first collection
// and first product candidate. Each category keeps only its first match, so
// duplicate URLs dedupe per category while a URL whose earlier occurrence
// matched nothing can still classify through a later, richer occurrence
// (same anchor rendered once as an image link and once with purchase text).
func classifyLinks(baseURL string, links []pageLink) (collection, product *candidate) {
	for _, link := range links {
		if !strings.HasPrefix(link.Href, baseURL) || link.Href == baseURL || link.Href == baseURL+"/" {
			continue
		}

		path := strings.ToLower(strings.TrimPrefix(link.Href, baseURL))
		name := cleanLinkText(link.Text)

		switch {
		case collectionPathRe.MatchString(path):
			if collection == nil {
				if name == "" {
					name = lastPathSegment(path)
				}
				if name == "" {
					name = "collection"
				}
				collection = &candidate{Name: name, URL: link.Href}
			}
		case productPathRe.MatchString(path) || link.ProductClass || purchaseTextRe.MatchString(link.Text):
			if product == nil {
				if name == "" {
					name = "product"
				}
				product = &candidate{Name: name, URL: link.Href}
			}
		}
		if collection != nil && product != nil {
			break
		}
	}
	return collection, product
}

func cleanLinkText(text string) string {
	if r := []rune(text); len(r) > 30 {
		text = string(r[:30])
	}
	return strings.TrimSpace(nonAlnumRe.ReplaceAllString(text, ""))
}

func lastPathSegment(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

// discovery is the outcome of the homepage link scan: the targets to
// capture (homepage always, plus at most one collection and one product)
// and the signals the classifier consumes.
type discovery struct {
	Targets      []PageTarget
	ProductName  string
	ProductFound bool
}

// discoverTargets runs on the sanitized homepage.
func discoverTargets(ctx context.Context, s *browser.Session, baseURL string, logger zerolog.Logger) discovery {
	d := discovery{Targets: []PageTarget{NewTarget(RoleHomepage, "", baseURL)}}

	links, err := extractLinks(ctx, s.Page())
	if err != nil {
		logger.Warn().Err(err).Msg("static link extraction failed")
	}
	collection, product := classifyLinks(baseURL, links)

	// Interactive fallback fires only when static matching found no product
	// at all; JavaScript-rendered storefronts sometimes expose product URLs
	// only through a real click.
	if product == nil {
		logger.Info().Msg("no static product links found, attempting interactive click")
		product = clickProductCard(ctx, s, baseURL, logger)
	}

	if collection != nil {
		d.Targets = append(d.Targets, NewTarget(RoleCollection, collection.Name, collection.URL))
	}
	if product != nil {
		d.Targets = append(d.Targets, NewTarget(RoleProduct, product.Name, product.URL))
		d.ProductName = product.Name
		d.ProductFound = true
	}
	return d
}

func extractLinks(ctx context.Context, page playwright.Page) ([]pageLink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	val, err := page.Evaluate(extractLinksScript)
	if err != nil {
		return nil, fmt.Errorf("extract links: %w", err)
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return nil, fmt.Errorf("marshal links: %w", err)
	}
	var links []pageLink
	if err := json.Unmarshal(raw, &links); err != nil {
		return nil, fmt.Errorf("decode links: %w", err)
	}
	return links, nil
}

type productCard struct {
	Href string  `json:"href"`
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// clickProductCard simulates a human click at the visual center of a
// heuristically identified product card and validates where the navigation
// landed. Any failure reverts to the homepage and reports no product.
func clickProductCard(ctx context.Context, s *browser.Session, baseURL string, logger zerolog.Logger) *candidate {
	page := s.Page()

	val, err := page.Evaluate(findProductCardScript, baseURL)
	if err != nil || val == nil {
		return nil
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return nil
	}
	var card productCard
	if err := json.Unmarshal(raw, &card); err != nil || card.Href == "" {
		return nil
	}

	if err := page.Mouse().Click(card.X, card.Y); err != nil {
		logger.Debug().Err(err).Msg("product card click failed")
		return nil
	}
	_ = page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateDomcontentloaded,
		Timeout: playwright.Float(float64(10 * time.Second / time.Millisecond)),
	})

	newURL := page.URL()
	if strings.HasPrefix(newURL, baseURL) && newURL != baseURL && newURL != baseURL+"/" {
		logger.Info().Str("url", newURL).Msg("interactive discovery found product page")
		return &candidate{Name: card.Name, URL: newURL}
	}

	logger.Info().Str("url", newURL).Msg("click did not lead to a product page, reverting")
	if err := s.Load(ctx, baseURL); err != nil {
		logger.Warn().Err(err).Msg("revert to homepage failed")
	}
	return nil
}
