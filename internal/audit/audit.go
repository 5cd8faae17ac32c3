// Package audit implements the CRO audit pipeline: discover representative
// pages of a storefront, capture desktop and mobile screenshots of each,
// classify the site's retail niche and produce prioritized suggestions.
package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/storelens/croaudit/internal/browser"
	"github.com/storelens/croaudit/internal/llm"
	"github.com/storelens/croaudit/internal/monitoring"
	"github.com/storelens/croaudit/internal/snapshot"
)

// ErrHomepageUnreachable marks the one fatal load failure: if the entry URL
// cannot be reached on any ladder rung the whole run is abandoned.
var ErrHomepageUnreachable = errors.New("homepage unreachable")

// targetCapturer is the capture step as the run loop sees it. An interface
// so the loop's skip behavior can be driven without a live browser.
type targetCapturer interface {
	CaptureTarget(ctx context.Context, s *browser.Session, target PageTarget) []ScreenshotArtifact
}

// Runner wires the pipeline stages together. One Runner serves the whole
// process; every Run gets its own browser session.
type Runner struct {
	launcher *browser.Launcher
	store    *ScreenshotStore
	capturer targetCapturer
	client   llm.Client
	logger   zerolog.Logger
}

// NewRunner builds a Runner. client may be nil, in which case suggestions
// come from the heuristic templates instead of a vision model.
func NewRunner(launcher *browser.Launcher, store *ScreenshotStore, client llm.Client, logger zerolog.Logger) *Runner {
	return &Runner{
		launcher: launcher,
		store:    store,
		capturer: NewCapturer(store, logger.With().Str("comp", "capture").Logger()),
		client:   client,
		logger:   logger,
	}
}

// Run executes one full audit. The browser session is torn down on every
// exit path.
func (r *Runner) Run(ctx context.Context, rawURL string, auditType Type) (*Report, error) {
	start := time.Now()
	report, err := r.run(ctx, rawURL, auditType)
	outcome := "ok"
	switch {
	case errors.Is(err, ErrHomepageUnreachable):
		outcome = "unreachable"
	case err != nil:
		outcome = "error"
	}
	monitoring.ObserveAudit(outcome, time.Since(start))
	return report, err
}

func (r *Runner) run(ctx context.Context, rawURL string, auditType Type) (*Report, error) {
	url := NormalizeURL(rawURL)
	logger := r.logger.With().Str("url", url).Logger()

	session, err := r.launcher.NewSession(ctx, logger.With().Str("comp", "browser").Logger())
	if err != nil {
		return nil, fmt.Errorf("browser session: %w", err)
	}
	defer session.Close()

	if err := session.Load(ctx, url); err != nil {
		logger.Error().Err(err).Msg("entry page unreachable")
		return nil, fmt.Errorf("%w: %s", ErrHomepageUnreachable, err)
	}

	// Sanitize before reading anything off the page: popups pollute both
	// link discovery and the classifier's text signals.
	if err := session.Settle(ctx, settleAfterLoad); err != nil {
		return nil, err
	}
	session.RemovePopups(ctx)
	if err := session.Settle(ctx, settleAfterClean); err != nil {
		return nil, err
	}
	session.RemovePopups(ctx)

	sum, err := snapshot.Collect(ctx, session.Page())
	if err != nil {
		logger.Warn().Err(err).Msg("snapshot collection failed")
	}

	var disc discovery
	if auditType == TypeProduct {
		// Caller already pointed us at a product page; no discovery pass.
		disc = discovery{
			Targets:      []PageTarget{{Key: "product", URL: url, Role: RoleProduct}},
			ProductFound: true,
		}
	} else {
		disc = discoverTargets(ctx, session, url, logger.With().Str("comp", "discover").Logger())
	}
	logger.Info().Int("targets", len(disc.Targets)).Msg("discovery complete")

	screenshots, sets, err := r.captureTargets(ctx, session, disc.Targets)
	if err != nil {
		return nil, err
	}
	report := &Report{Screenshots: screenshots}

	// Target keys embed the discovered link display names, so they feed the
	// keyword scorer alongside the page text.
	linkNames := make([]string, 0, len(disc.Targets))
	for _, target := range disc.Targets {
		linkNames = append(linkNames, target.Key)
	}
	cls := Classify(sum, disc.ProductName, disc.ProductFound, linkNames...)
	report.Classification = &cls
	logger.Info().
		Bool("is_ecommerce", cls.IsEcommerce).
		Str("niche", cls.Niche).
		Msg("site classified")

	report.Suggestions = r.suggest(ctx, sets, cls.Niche)
	SortByPriority(report.Suggestions)

	return report, nil
}

// captureTargets shoots every target in order. A target whose capture
// produces no artifacts is skipped without touching the result or aborting
// the loop; the remaining targets still land in the report.
func (r *Runner) captureTargets(ctx context.Context, session *browser.Session, targets []PageTarget) (map[string][]string, []ScreenshotSet, error) {
	screenshots := map[string][]string{}
	var sets []ScreenshotSet
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		artifacts := r.capturer.CaptureTarget(ctx, session, target)
		if len(artifacts) == 0 {
			r.logger.Warn().Str("target", target.Key).Msg("target skipped, no device produced a capture")
			monitoring.TargetSkipped()
			continue
		}
		monitoring.AddScreenshots(len(artifacts))
		for _, a := range artifacts {
			screenshots[target.Key] = append(screenshots[target.Key], a.PublicPath)
		}
		if set, ok := buildSet(target.Role, artifacts); ok {
			sets = append(sets, set)
		}
	}
	return screenshots, sets, nil
}

// buildSet pairs the first desktop and first mobile artifact of a target,
// the unit the suggestion engine consumes. Targets captured on only one
// device produce no set.
func buildSet(role Role, artifacts []ScreenshotArtifact) (ScreenshotSet, bool) {
	set := ScreenshotSet{Role: role}
	var haveDesktop, haveMobile bool
	for _, a := range artifacts {
		switch {
		case a.Device == "desktop" && !haveDesktop:
			set.Desktop = a
			haveDesktop = true
		case a.Device == "mobile" && !haveMobile:
			set.Mobile = a
			haveMobile = true
		}
	}
	return set, haveDesktop && haveMobile
}

func (r *Runner) suggest(ctx context.Context, sets []ScreenshotSet, niche string) []Suggestion {
	var out []Suggestion
	if r.client == nil {
		for _, set := range sets {
			out = append(out, HeuristicSuggestions(set.Role, niche)...)
		}
		return out
	}
	engine := NewVisionEngine(r.client, r.store, r.logger.With().Str("comp", "suggest").Logger())
	for _, set := range sets {
		out = append(out, engine.Analyze(ctx, set)...)
	}
	return out
}
