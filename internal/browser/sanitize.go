package browser

import (
	"context"
)

// removePopupsScript runs in the page context. It is deliberately broad:
// storefront markup is unknown, so it combines attribute-substring pattern
// matching with geometric overlay detection. Each selector is isolated so a
// single bad match cannot abort the rest. Idempotent; later invocations
// catch popups that appeared after DOM mutation.
//
// The geometric pass can also delete legitimate oversized layout elements
// (a full-width hero with a high z-index looks exactly like an overlay).
// Known false-positive source, kept for capture stability.
const removePopupsScript = `() => {
	const popupSelectors = [
		'[aria-label*="close" i]', '[role="dialog"]', '[role="alertdialog"]', '[role="alert"]',
		'[class*="popup" i]', '[class*="modal" i]', '[id*="popup" i]', '[id*="modal" i]',
		'[class*="newsletter" i]', '[id*="newsletter" i]', '[class*="cookie" i]', '[id*="cookie" i]',
		'[class*="overlay" i]', '[id*="overlay" i]', '[class*="backdrop" i]', '[id*="backdrop" i]',
		'[class*="dialog" i]', '[id*="dialog" i]', '[class*="subscribe" i]', '[id*="subscribe" i]',
		'[class*="consent" i]', '[id*="consent" i]',

		'[class*="captcha" i]', '[id*="captcha" i]', '[class*="recaptcha" i]', '[id*="recaptcha" i]',
		'[class*="verification" i]', '[id*="verification" i]', '[class*="security" i]', '[id*="security" i]',
		'[class*="challenge" i]', '[id*="challenge" i]', '[class*="cloudflare" i]', '[id*="cloudflare" i]',
		'[class*="bot-check" i]', '[id*="bot-check" i]', '[class*="human" i]', '[id*="human" i]',
		'[class*="verify" i]', '[id*="verify" i]', '[class*="protection" i]', '[id*="protection" i]',

		'[class*="age-gate" i]', '[id*="age-gate" i]', '[class*="disclaimer" i]', '[id*="disclaimer" i]',
		'[class*="warning" i]', '[id*="warning" i]', '[class*="notice" i]', '[id*="notice" i]',

		'[class*="email" i]', '[id*="email" i]', '[class*="signup" i]', '[id*="signup" i]',
		'[class*="promo" i]', '[id*="promo" i]', '[class*="discount" i]', '[id*="discount" i]',
		'[class*="sale" i]', '[id*="sale" i]', '[class*="offer" i]', '[id*="offer" i]',

		'[class*="exit" i]', '[id*="exit" i]', '[class*="interstitial" i]', '[id*="interstitial" i]',
		'[class*="lightbox" i]', '[id*="lightbox" i]'
	];

	for (const sel of popupSelectors) {
		try {
			document.querySelectorAll(sel).forEach(el => el.remove());
		} catch (e) {
			// keep going, one failing selector must not stop the sweep
		}
	}

	document.querySelectorAll('*').forEach(el => {
		try {
			const style = window.getComputedStyle(el);
			const rect = el.getBoundingClientRect();

			if ((style.position === 'fixed' || style.position === 'sticky' || style.position === 'absolute') &&
				(rect.width > window.innerWidth * 0.5 || rect.height > window.innerHeight * 0.5) &&
				style.zIndex && parseInt(style.zIndex) > 100) {
				el.remove();
			}

			if (style.zIndex && parseInt(style.zIndex) > 9999) {
				el.remove();
			}

			if (rect.width >= window.innerWidth * 0.9 && rect.height >= window.innerHeight * 0.9 &&
				(style.position === 'fixed' || style.position === 'absolute')) {
				el.remove();
			}
		} catch (e) {
			// detached node or cross-origin style read, skip
		}
	});

	document.querySelectorAll('iframe').forEach(iframe => {
		const src = (iframe.src || '').toLowerCase();
		if (src.includes('captcha') || src.includes('recaptcha') || src.includes('challenge') ||
			src.includes('cloudflare') || src.includes('security')) {
			iframe.remove();
		}
	});

	// A removed overlay often leaves a scroll lock behind.
	if (document.body) {
		document.body.style.overflow = 'visible';
	}
}`

// RemovePopups runs the sanitizer in the page. Failures are logged and
// swallowed: a page that resists cleanup still gets captured as-is.
func (s *Session) RemovePopups(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
	if _, err := s.page.Evaluate(removePopupsScript); err != nil {
		s.logger.Debug().Err(err).Msg("popup removal failed")
	}
}
