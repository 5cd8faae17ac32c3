package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

const navTimeout = 15 * time.Second

// loadStages order the navigation ladder from the strongest load guarantee
// to the weakest. Each later stage accepts less of the page in exchange for
// a better chance of not timing out on a slow or hostile site.
var loadStages = []*playwright.WaitUntilState{
	playwright.WaitUntilStateDomcontentloaded,
	playwright.WaitUntilStateNetworkidle,
	playwright.WaitUntilStateCommit,
}

// Load navigates with a staged fallback ladder: domcontentloaded,
// network-idle, bare commit, then a best-effort in-page reload. Only when
// every rung fails does the target count as unreachable.
func (s *Session) Load(ctx context.Context, url string) error {
	before := s.page.URL()
	var lastErr error
	for _, stage := range loadStages {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := s.page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: stage,
			Timeout:   playwright.Float(float64(navTimeout.Milliseconds())),
		})
		if err == nil {
			return nil
		}
		lastErr = err
		s.logger.Debug().Err(err).Str("url", url).Str("wait_until", string(*stage)).Msg("navigation stage failed")
	}

	// Last rung: the navigation may have partially committed, so a reload
	// sometimes recovers a usable DOM where a fresh Goto keeps timing out.
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.page.Reload(playwright.PageReloadOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(navTimeout.Milliseconds())),
	}); err == nil {
		if reloadRecovered(before, url, s.page.URL()) {
			return nil
		}
		return fmt.Errorf("load %s: reload left page on %s: %w", url, s.page.URL(), wrap(lastErr))
	}

	return fmt.Errorf("load %s: %w", url, wrap(lastErr))
}

// reloadRecovered reports whether the reload rung actually produced the
// requested page. Redirects off the requested URL are acceptable; a page
// still sitting on whatever URL it held before navigation began means no
// Goto attempt ever committed and the reload only refreshed the previous
// target.
func reloadRecovered(before, requested, current string) bool {
	if trimSlash(current) == trimSlash(requested) {
		return true
	}
	return trimSlash(current) != trimSlash(before)
}

func trimSlash(u string) string {
	return strings.TrimSuffix(u, "/")
}

// Settle gives the page a fixed interval for first-paint animation and
// late-arriving popups before sanitation.
func (s *Session) Settle(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
