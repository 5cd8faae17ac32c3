package browser

import (
	"context"
)

// triggerLazyScript simulates a quick scroll-down-and-back so
// IntersectionObserver-driven content materializes, then promotes deferred
// image sources into the live attributes.
const triggerLazyScript = `async (offsets) => {
	for (const y of offsets) {
		window.scrollTo(0, y);
		await new Promise(r => setTimeout(r, 250));
	}
	window.scrollTo(0, 0);
	await new Promise(r => setTimeout(r, 300));

	document.querySelectorAll('img[data-src], img[data-srcset], img[data-lazy-src]').forEach(img => {
		try {
			if (!img.getAttribute('src') && img.dataset.src) img.src = img.dataset.src;
			if (!img.getAttribute('src') && img.dataset.lazySrc) img.src = img.dataset.lazySrc;
			if (!img.getAttribute('srcset') && img.dataset.srcset) img.srcset = img.dataset.srcset;
		} catch (e) {}
	});
}`

// settleImagesScript is the strict pre-capture variant: every image is
// scrolled into view and awaited until load or error, capped per image so a
// dead CDN cannot stall the fold forever.
const settleImagesScript = `async (timeoutMs) => {
	const startY = window.scrollY;
	const imgs = Array.from(document.querySelectorAll('img'));
	for (const img of imgs) {
		try {
			const rect = img.getBoundingClientRect();
			if (rect.width === 0 && rect.height === 0) continue;
			img.scrollIntoView({ block: 'nearest', behavior: 'auto' });
			if (img.complete) continue;
			await new Promise(resolve => {
				img.addEventListener('load', resolve, { once: true });
				img.addEventListener('error', resolve, { once: true });
				setTimeout(resolve, timeoutMs);
			});
		} catch (e) {}
	}
	window.scrollTo(0, startY);
}`

const imageSettleTimeoutMs = 4000

// TriggerLazyContent walks the viewport through intermediate offsets and
// activates deferred image sources. Non-fatal on failure.
func (s *Session) TriggerLazyContent(ctx context.Context, offsets []int) {
	if err := ctx.Err(); err != nil {
		return
	}
	if _, err := s.page.Evaluate(triggerLazyScript, offsets); err != nil {
		s.logger.Debug().Err(err).Msg("lazy trigger failed")
	}
}

// SettleImages blocks until every rendered image has loaded, errored, or hit
// its per-image timeout. Called immediately before each screenshot.
func (s *Session) SettleImages(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
	if _, err := s.page.Evaluate(settleImagesScript, imageSettleTimeoutMs); err != nil {
		s.logger.Debug().Err(err).Msg("image settle failed")
	}
}
