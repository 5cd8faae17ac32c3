package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog"

	"github.com/storelens/croaudit/internal/browser"
)

type deviceProfile struct {
	name        string
	width       int
	height      int
	lazyOffsets []int
}

var deviceProfiles = []deviceProfile{
	{name: "desktop", width: 1440, height: 900, lazyOffsets: []int{400, 800}},
	{name: "mobile", width: 390, height: 844, lazyOffsets: []int{300, 600}},
}

const (
	settleAfterLoad   = 1500 * time.Millisecond
	settleAfterClean  = 500 * time.Millisecond
	settleAfterLazy   = 1000 * time.Millisecond
	settleAfterScroll = 500 * time.Millisecond
)

// highlightSelectors pick the primary content region to outline per page
// role; the first selector present in the document wins, `main` is the
// universal fallback.
var highlightSelectors = map[Role][]string{
	RoleHomepage:   {"main"},
	RoleCollection: {".products-grid", ".product-list", ".collection-products", "main"},
	RoleProduct:    {".product-main", ".product-container", ".product-details", "main"},
}

const highlightScript = `(selectors) => {
	let el = null;
	for (const sel of selectors) {
		try { el = document.querySelector(sel); } catch (e) {}
		if (el) break;
	}
	if (!el) return;
	el.setAttribute('data-cro-highlight', '1');
	el.style.boxShadow = '0 0 0 4px #1e90ff, 0 0 20px 4px #1e90ff55';
	el.style.borderRadius = '18px';
	el.style.position = 'relative';
	el.style.zIndex = '9999';
}`

const unhighlightScript = `() => {
	const el = document.querySelector('[data-cro-highlight="1"]');
	if (el) {
		el.style.cssText = '';
		el.removeAttribute('data-cro-highlight');
	}
}`

// hoverPointsScript finds a few visible interactive elements worth hovering
// before capture, so hover-revealed UI shows up in the image. Oversized
// elements are skipped to avoid opening full-width mega menus.
const hoverPointsScript = `() => {
	const out = [];
	const nodes = document.querySelectorAll('a, button, [role="button"]');
	for (const el of nodes) {
		if (out.length >= 3) break;
		try {
			const rect = el.getBoundingClientRect();
			if (rect.width < 40 || rect.height < 20 || rect.width > 400) continue;
			if (rect.top < 0 || rect.bottom > window.innerHeight) continue;
			out.push({ x: rect.left + rect.width / 2, y: rect.top + rect.height / 2 });
		} catch (e) {}
	}
	return out;
}`

// Capturer drives the deterministic capture sequence for every target,
// device and fold: navigate, settle, sanitize, highlight, shoot.
type Capturer struct {
	store  *ScreenshotStore
	clock  captureClock
	logger zerolog.Logger
}

func NewCapturer(store *ScreenshotStore, logger zerolog.Logger) *Capturer {
	return &Capturer{store: store, logger: logger}
}

func foldCount(role Role) int {
	if role == RoleHomepage {
		return 1
	}
	return 2
}

// CaptureTarget shoots one target across both device profiles. A device
// whose navigation fails is skipped; the target only counts as lost when
// no device produced an artifact.
func (c *Capturer) CaptureTarget(ctx context.Context, s *browser.Session, target PageTarget) []ScreenshotArtifact {
	var artifacts []ScreenshotArtifact
	for _, device := range deviceProfiles {
		shots, err := c.captureDevice(ctx, s, target, device)
		if err != nil {
			c.logger.Warn().Err(err).
				Str("target", target.Key).
				Str("device", device.name).
				Msg("device capture skipped")
			continue
		}
		artifacts = append(artifacts, shots...)
	}
	return artifacts
}

func (c *Capturer) captureDevice(ctx context.Context, s *browser.Session, target PageTarget, device deviceProfile) ([]ScreenshotArtifact, error) {
	if err := s.SetViewport(device.width, device.height); err != nil {
		return nil, err
	}
	if err := s.Load(ctx, target.URL); err != nil {
		return nil, err
	}

	// Two sanitizer passes: the first catches popups present at first
	// paint, the second those that appear after a short delay.
	if err := s.Settle(ctx, settleAfterLoad); err != nil {
		return nil, err
	}
	s.RemovePopups(ctx)
	if err := s.Settle(ctx, settleAfterClean); err != nil {
		return nil, err
	}
	s.RemovePopups(ctx)

	s.TriggerLazyContent(ctx, device.lazyOffsets)
	if err := s.Settle(ctx, settleAfterLazy); err != nil {
		return nil, err
	}
	s.RemovePopups(ctx)

	c.highlight(ctx, s.Page(), target.Role)

	var artifacts []ScreenshotArtifact
	for fold := 1; fold <= foldCount(target.Role); fold++ {
		if fold > 1 {
			if _, err := s.Page().Evaluate(`(y) => window.scrollTo(0, y)`, device.height*(fold-1)); err != nil {
				c.logger.Debug().Err(err).Int("fold", fold).Msg("fold scroll failed")
			}
			if err := s.Settle(ctx, settleAfterScroll); err != nil {
				return artifacts, err
			}
			s.RemovePopups(ctx)
			c.highlight(ctx, s.Page(), target.Role)
		}

		c.hoverInteractive(ctx, s.Page())
		s.SettleImages(ctx)

		art, err := c.shoot(s.Page(), target, device, fold)
		if err != nil {
			c.logger.Warn().Err(err).
				Str("target", target.Key).
				Str("device", device.name).
				Int("fold", fold).
				Msg("screenshot failed")
		} else {
			artifacts = append(artifacts, art)
		}

		c.unhighlight(s.Page())
	}
	return artifacts, nil
}

func (c *Capturer) shoot(page playwright.Page, target PageTarget, device deviceProfile, fold int) (ScreenshotArtifact, error) {
	filename := fmt.Sprintf("%s-%s-fold%d-%d.png", target.Key, device.name, fold, c.clock.next())
	// The homepage is captured full length; deeper roles get viewport-sized
	// fold crops at increasing scroll offsets.
	fullPage := target.Role == RoleHomepage
	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(c.store.Path(filename)),
		Type:     playwright.ScreenshotTypePng,
		FullPage: playwright.Bool(fullPage),
	}); err != nil {
		return ScreenshotArtifact{}, fmt.Errorf("screenshot: %w", err)
	}
	return ScreenshotArtifact{
		TargetKey:  target.Key,
		Device:     device.name,
		Fold:       fold,
		Filename:   filename,
		PublicPath: c.store.PublicPath(filename),
	}, nil
}

func (c *Capturer) highlight(ctx context.Context, page playwright.Page, role Role) {
	if err := ctx.Err(); err != nil {
		return
	}
	if _, err := page.Evaluate(highlightScript, highlightSelectors[role]); err != nil {
		c.logger.Debug().Err(err).Msg("highlight failed")
	}
}

func (c *Capturer) unhighlight(page playwright.Page) {
	if _, err := page.Evaluate(unhighlightScript); err != nil {
		c.logger.Debug().Err(err).Msg("unhighlight failed")
	}
}

// hoverInteractive moves the mouse over a few visible controls so
// hover-reveal UI is rendered in the capture.
func (c *Capturer) hoverInteractive(ctx context.Context, page playwright.Page) {
	if err := ctx.Err(); err != nil {
		return
	}
	val, err := page.Evaluate(hoverPointsScript)
	if err != nil {
		return
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return
	}
	var points []struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := json.Unmarshal(raw, &points); err != nil {
		return
	}
	for _, p := range points {
		if err := page.Mouse().Move(p.X, p.Y); err != nil {
			return
		}
		time.Sleep(150 * time.Millisecond)
	}
}
