package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/storelens/croaudit/internal/llm"
	"github.com/storelens/croaudit/internal/monitoring"
)

// Suggestion is one CRO recommendation.
type Suggestion struct {
	Priority    string `json:"priority"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
}

var priorityOrder = map[string]int{
	"critical": 0,
	"high":     1,
	"medium":   2,
}

// SortByPriority orders critical before high before medium; unknown
// priorities sink to the end. The sort is stable so within a priority group
// suggestions keep the order they were produced in.
func SortByPriority(suggestions []Suggestion) {
	sort.SliceStable(suggestions, func(i, j int) bool {
		oi, ok := priorityOrder[suggestions[i].Priority]
		if !ok {
			oi = 3
		}
		oj, ok := priorityOrder[suggestions[j].Priority]
		if !ok {
			oj = 3
		}
		return oi < oj
	})
}

const visionPromptTemplate = `You are a conversion rate optimization (CRO) expert with 10+ years of ecommerce experience. Analyze these %s page screenshots (desktop and mobile) to identify conversion barriers and optimization opportunities.

CRITICAL AREAS TO ANALYZE:

1. **Call-to-Action (CTA) Issues**
   - Is the primary CTA button clearly visible above the fold?
   - Button color contrast with background (should be high)
   - CTA text clarity and urgency (e.g., "Add to Cart", "Buy Now", "Get Started")
   - Multiple CTAs competing for attention?
   - Mobile button clickability (at least 44x44px)

2. **Trust & Security Signals**
   - Customer reviews, ratings, testimonials visible?
   - Trust badges, SSL certificates, payment logos?
   - Company information, contact details, return policy?
   - Social proof (number of purchases, customer count)?
   - Money-back guarantee or confidence builder?

3. **Product/Service Information**
   - Is key information above the fold?
   - Product images quality and size?
   - Price clearly displayed?
   - Shipping costs and delivery time transparent?
   - Product features/benefits listed clearly?

4. **Form & Checkout Friction**
   - Number of form fields (each field reduces conversions by 3-5%%)
   - Required vs optional fields clearly marked?
   - Form error messages helpful and visible?
   - Guest checkout option available?
   - Progress indicator for multi-step processes?

5. **Mobile-Specific Issues**
   - Navigation menu accessible and functional?
   - Text readable without zooming (16px minimum)?
   - Button spacing adequate (no fat-finger errors)?
   - Page load time indicators?
   - One-handed usability?

6. **Visual Hierarchy & Design**
   - Whitespace appropriate (not cluttered)?
   - Distracting pop-ups or overlays?
   - Colors create urgency or confusion?
   - Typography readable and scannable?
   - Ads or unrelated content causing distraction?

7. **Social Proof & Urgency**
   - Stock availability indicators ("Only 3 left" / "In stock")?
   - Real-time purchase notifications?
   - Recent customer reviews visible?
   - Time-sensitive offers or countdown timers?
   - User count or popularity metrics?

8. **Navigation & Site Structure**
   - Search functionality visible and functional?
   - Breadcrumb navigation for context?
   - Related products/upsell opportunities visible?
   - Easy way to contact support?
   - FAQ or help section prominent?

RESPONSE FORMAT:
Return ONLY a valid JSON array (no markdown, no explanation):
[
  {
    "priority": "critical|high|medium",
    "title": "Short, specific title (5-10 words)",
    "description": "Detailed description of the issue observed in the screenshot",
    "impact": "Expected improvement (e.g., '20-30%% conversion increase', '15%% bounce rate reduction')"
  }
]

PRIORITY LEVELS:
- critical: Directly blocks conversions or causes immediate friction
- high: Reduces conversion probability but not blocking
- medium: Nice-to-have improvements for optimization

Return 4-7 recommendations per page type. Be specific - reference what you actually see in the images.`

// VisionEngine sends a target's desktop/mobile screenshot pair to a
// vision-capable model and parses the structured suggestions out of the
// reply.
type VisionEngine struct {
	client llm.Client
	store  *ScreenshotStore
	logger zerolog.Logger
}

func NewVisionEngine(client llm.Client, store *ScreenshotStore, logger zerolog.Logger) *VisionEngine {
	return &VisionEngine{client: client, store: store, logger: logger}
}

// Analyze produces suggestions for one target. Engine failures surface as a
// single synthetic suggestion rather than an error so one bad target never
// sinks the run.
func (e *VisionEngine) Analyze(ctx context.Context, set ScreenshotSet) []Suggestion {
	suggestions, err := e.analyze(ctx, set)
	if err != nil {
		e.logger.Error().Err(err).Str("role", string(set.Role)).Msg("suggestion analysis failed")
		monitoring.SuggestionEngineError()
		return []Suggestion{{
			Priority:    "high",
			Title:       fmt.Sprintf("[%s] Analysis Error", set.Role.Title()),
			Description: fmt.Sprintf("Failed to analyze %s page. Error: %s", set.Role, err.Error()),
			Impact:      "Please try auditing again",
		}}
	}
	return suggestions
}

func (e *VisionEngine) analyze(ctx context.Context, set ScreenshotSet) ([]Suggestion, error) {
	desktop, err := e.store.Read(set.Desktop.Filename)
	if err != nil {
		return nil, fmt.Errorf("read desktop screenshot: %w", err)
	}
	mobile, err := e.store.Read(set.Mobile.Filename)
	if err != nil {
		return nil, fmt.Errorf("read mobile screenshot: %w", err)
	}

	resp, err := e.client.Generate(ctx, llm.Request{
		Prompt: fmt.Sprintf(visionPromptTemplate, set.Role),
		Images: []llm.Image{
			{MIMEType: "image/png", Data: desktop},
			{MIMEType: "image/png", Data: mobile},
		},
		Temperature: 0.4,
		MaxTokens:   2000,
	})
	if err != nil {
		return nil, err
	}

	suggestions := parseSuggestions(resp.Text)
	for i := range suggestions {
		suggestions[i].Title = fmt.Sprintf("[%s] %s", set.Role.Title(), suggestions[i].Title)
	}
	return suggestions, nil
}

// parseSuggestions extracts the first bracket-delimited JSON array from
// free-form model output and validates its shape. Any parse or validation
// failure yields the fixed fallback suggestion, never an error.
func parseSuggestions(text string) []Suggestion {
	if raw := extractJSONArray(text); raw != "" {
		var parsed []Suggestion
		if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
			var valid []Suggestion
			for _, s := range parsed {
				if s.Priority != "" && s.Title != "" && s.Description != "" && s.Impact != "" {
					valid = append(valid, s)
				}
			}
			if len(valid) > 0 {
				return valid
			}
		}
	}
	return []Suggestion{{
		Priority:    "high",
		Title:       "Unable to parse AI response",
		Description: "The AI analysis could not be formatted properly. Please try again.",
		Impact:      "Manual review recommended",
	}}
}

// extractJSONArray returns the first balanced bracket-delimited substring,
// skipping brackets inside string literals.
func extractJSONArray(text string) string {
	start := strings.IndexByte(text, '[')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
