package browser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlockedRequest(t *testing.T) {
	blocked := []string{
		"https://www.google.com/recaptcha/api.js",
		"https://challenges.cloudflare.com/turnstile/v0/api.js",
		"https://hcaptcha.com/1/api.js",
		"https://client-api.arkoselabs.com/funcaptcha/load",
		"https://shop.example.com/cdn/CAPTCHA/widget.js",
		"https://shop.example.com/challenge-platform/script.js",
	}
	for _, url := range blocked {
		assert.True(t, BlockedRequest(url), "expected %s to be blocked", url)
	}

	allowed := []string{
		"https://shop.example.com/",
		"https://shop.example.com/products/blue-shirt",
		"https://cdn.shopify.com/s/files/1/theme.css",
		"https://fonts.googleapis.com/css2?family=Inter",
	}
	for _, url := range allowed {
		assert.False(t, BlockedRequest(url), "expected %s to pass", url)
	}
}

func TestBlockedRequestCaseInsensitive(t *testing.T) {
	assert.True(t, BlockedRequest("https://example.com/ReCaptcha/load"))
	assert.True(t, BlockedRequest("https://EXAMPLE.COM/CLOUDFLARE/check"))
}

func TestSanitizerScriptShape(t *testing.T) {
	// The sanitizer crosses the automation boundary as source text; it must
	// stay a self-contained arrow function with no host-side interpolation.
	assert.True(t, strings.HasPrefix(removePopupsScript, "() =>"))
	assert.NotContains(t, removePopupsScript, "%s")
	assert.NotContains(t, removePopupsScript, "%d")

	// Both halves of the strategy are present: pattern matching and the
	// geometric overlay sweep.
	assert.Contains(t, removePopupsScript, `[class*="modal" i]`)
	assert.Contains(t, removePopupsScript, "getBoundingClientRect")
	assert.Contains(t, removePopupsScript, "parseInt(style.zIndex) > 9999")
	assert.Contains(t, removePopupsScript, "overflow = 'visible'")
}

func TestReloadRecovered(t *testing.T) {
	const (
		home   = "https://shop.example.com"
		target = "https://shop.example.com/products/x"
	)
	cases := []struct {
		name      string
		before    string
		requested string
		current   string
		want      bool
	}{
		{"landed on requested", home, target, target, true},
		{"trailing slash difference", home, target, target + "/", true},
		{"redirected elsewhere", home, target, "https://www.shop.example.com/products/x", true},
		{"stuck on previous page", home, target, home, false},
		{"fresh page never committed", "about:blank", target, "about:blank", false},
		{"reloading current page", target, target, target, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, reloadRecovered(tc.before, tc.requested, tc.current), tc.name)
	}
}

func TestParseBoolEnv(t *testing.T) {
	t.Setenv("AUDIT_TEST_FLAG", "")
	assert.True(t, parseBoolEnv("AUDIT_TEST_FLAG", true))
	assert.False(t, parseBoolEnv("AUDIT_TEST_FLAG", false))

	t.Setenv("AUDIT_TEST_FLAG", "0")
	assert.False(t, parseBoolEnv("AUDIT_TEST_FLAG", true))

	t.Setenv("AUDIT_TEST_FLAG", "yes")
	assert.True(t, parseBoolEnv("AUDIT_TEST_FLAG", false))

	t.Setenv("AUDIT_TEST_FLAG", "junk")
	assert.True(t, parseBoolEnv("AUDIT_TEST_FLAG", true))
}
