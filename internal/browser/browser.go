package browser

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog"
)

const (
	headlessEnv = "AUDIT_HEADLESS"

	// Realistic desktop profile. Third-party storefronts serve degraded or
	// blocked pages to obvious automation user agents.
	desktopUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// challengeTokens mark requests to bot-verification services. Aborting them
// reduces interference from anti-automation scripts; it is best effort, not
// a bypass guarantee.
var challengeTokens = []string{
	"recaptcha", "captcha", "cloudflare", "hcaptcha", "funcaptcha", "challenge",
}

// BlockedRequest reports whether a request URL belongs to a known
// challenge service.
func BlockedRequest(url string) bool {
	lower := strings.ToLower(url)
	for _, token := range challengeTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

// Launcher owns the playwright driver lifecycle. One per process; browser
// processes themselves are launched per audit session.
type Launcher struct {
	pw       *playwright.Playwright
	headless bool
}

func NewLauncher() (*Launcher, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	return &Launcher{pw: pw, headless: parseBoolEnv(headlessEnv, true)}, nil
}

func (l *Launcher) Close() error {
	if l.pw != nil {
		return l.pw.Stop()
	}
	return nil
}

// Session is one isolated browser process plus a single page, scoped to one
// audit request. Callers must Close it on every exit path.
type Session struct {
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	logger  zerolog.Logger
}

// NewSession launches a fresh Chromium, configures a context that looks like
// an ordinary en-US desktop visitor, and installs the challenge-service
// request filter.
func (l *Launcher) NewSession(ctx context.Context, logger zerolog.Logger) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	br, err := l.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(l.headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-http2",
			"--no-sandbox",
			"--disable-dev-shm-usage",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	bctx, err := br.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(desktopUserAgent),
		Locale:    playwright.String("en-US"),
		Viewport:  &playwright.Size{Width: 1440, Height: 900},
		ExtraHttpHeaders: map[string]string{
			"Accept-Language":           "en-US,en;q=0.9",
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"DNT":                       "1",
			"Connection":                "keep-alive",
			"Upgrade-Insecure-Requests": "1",
			"Referer":                   "https://www.google.com/",
		},
	})
	if err != nil {
		_ = br.Close()
		return nil, fmt.Errorf("new context: %w", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		_ = br.Close()
		return nil, fmt.Errorf("new page: %w", err)
	}
	if err := page.Route("**/*", func(route playwright.Route) {
		if BlockedRequest(route.Request().URL()) {
			_ = route.Abort()
			return
		}
		_ = route.Continue()
	}); err != nil {
		_ = bctx.Close()
		_ = br.Close()
		return nil, fmt.Errorf("install route filter: %w", err)
	}
	return &Session{browser: br, context: bctx, page: page, logger: logger}, nil
}

func (s *Session) Page() playwright.Page {
	return s.page
}

// SetViewport switches the page between device profiles.
func (s *Session) SetViewport(width, height int) error {
	return wrap(s.page.SetViewportSize(width, height))
}

// Close tears the whole browser process down. Safe to call from a deferred
// cleanup regardless of how the audit ended.
func (s *Session) Close() {
	if s.context != nil {
		if err := s.context.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("close context")
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("close browser")
		}
	}
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("playwright: %w", err)
}

func parseBoolEnv(name string, def bool) bool {
	val := strings.TrimSpace(os.Getenv(name))
	if val == "" {
		return def
	}
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
