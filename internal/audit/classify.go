package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/storelens/croaudit/internal/snapshot"
)

// nicheEntry couples a niche label with its keyword vocabulary. Declaration
// order matters: on tied scores the earlier niche wins, and Scores serializes
// in this order.
type nicheEntry struct {
	Name     string
	Keywords []string
}

var niches = []nicheEntry{
	{"fashion", []string{
		"fashion", "clothing", "apparel", "dress", "shirt", "pants", "jeans",
		"jacket", "coat", "sweater", "shoes", "sneakers", "boots", "wear",
		"outfit", "style", "wardrobe", "denim", "tshirt", "hoodie",
	}},
	{"electronics", []string{
		"electronics", "phone", "smartphone", "laptop", "computer", "tablet",
		"headphones", "camera", "gadget", "tech", "charger", "speaker",
		"monitor", "keyboard", "console", "gaming",
	}},
	{"beauty", []string{
		"beauty", "makeup", "cosmetics", "skincare", "serum", "moisturizer",
		"lipstick", "mascara", "foundation", "fragrance", "perfume",
		"shampoo", "conditioner", "lotion",
	}},
	{"home", []string{
		"furniture", "home", "decor", "sofa", "table", "chair", "lamp",
		"bedding", "pillow", "curtain", "rug", "kitchen", "cookware",
		"interior", "garden",
	}},
	{"food", []string{
		"food", "snack", "coffee", "tea", "chocolate", "organic", "gourmet",
		"grocery", "beverage", "wine", "sauce", "spice", "recipe",
	}},
	{"sports", []string{
		"sports", "fitness", "gym", "workout", "running", "yoga", "bike",
		"cycling", "outdoor", "hiking", "camping", "athletic", "training",
	}},
	{"kids", []string{
		"kids", "baby", "toddler", "children", "toy", "toys", "stroller",
		"diaper", "nursery", "infant",
	}},
	{"pet", []string{
		"pet", "dog", "cat", "puppy", "kitten", "leash", "collar",
		"aquarium", "treats",
	}},
	{"jewelry", []string{
		"jewelry", "ring", "necklace", "bracelet", "earrings", "gold",
		"silver", "diamond", "gemstone", "watch", "watches",
	}},
	{"health", []string{
		"health", "vitamin", "supplement", "protein", "wellness", "herbal",
		"immune", "probiotic", "collagen",
	}},
}

const (
	nicheGeneralRetail = "general-retail"
	nicheUnknown       = "unknown"
)

// Classification is the audit's verdict on what the store sells.
type Classification struct {
	IsEcommerce bool        `json:"isEcommerce"`
	Niche       string      `json:"niche"`
	Scores      nicheScores `json:"scores"`
}

// nicheScores serializes in niche declaration order rather than Go's
// randomized map order, so repeated runs produce byte-identical reports.
type nicheScores map[string]int

func (s nicheScores) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, entry := range niches {
		score, ok := s[entry.Name]
		if !ok {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		fmt.Fprintf(&buf, "%q:%d", entry.Name, score)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *nicheScores) UnmarshalJSON(data []byte) error {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*s = m
	return nil
}

var (
	wordRe         = regexp.MustCompile(`[a-z0-9]+`)
	storeVocabRe   = regexp.MustCompile(`(?i)\b(store|shop|shopping|retail|boutique|marketplace)\b`)
	commerceTextRe = regexp.MustCompile(`(?i)\b(add to cart|add to bag|cart|checkout|shop now|buy now|free shipping|in stock|sold out|sku|price)\b`)
	structuredRe   = regexp.MustCompile(`"@type"\s*:\s*"(Product|Offer|AggregateOffer)"`)
)

// Classify scores the accumulated page text, plus any discovered link
// display names, against every niche vocabulary. Matching is whole-word:
// "health" inside "healthy" does not count. A keyword appearing in the
// discovered product's display name counts double.
func Classify(sum snapshot.Summary, productName string, productFound bool, linkNames ...string) Classification {
	words := wordSet(sum.Text() + " " + strings.Join(linkNames, " "))
	productWords := wordSet(productName)

	scores := nicheScores{}
	best := ""
	bestScore := 0
	for _, entry := range niches {
		score := 0
		for _, kw := range entry.Keywords {
			switch {
			case productWords[kw]:
				score += 2
			case words[kw]:
				score++
			}
		}
		if score > 0 {
			scores[entry.Name] = score
		}
		// Strict > keeps the first declared niche on ties.
		if score > bestScore {
			best = entry.Name
			bestScore = score
		}
	}

	if bestScore == 0 {
		if storeVocabRe.MatchString(sum.Text()) {
			best = nicheGeneralRetail
		} else {
			best = nicheUnknown
		}
	}

	return Classification{
		IsEcommerce: isEcommerce(sum, productFound),
		Niche:       best,
		Scores:      scores,
	}
}

func wordSet(text string) map[string]bool {
	set := map[string]bool{}
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		set[w] = true
	}
	return set
}

// isEcommerce is satisfied by any one signal: a product link was discovered,
// commerce vocabulary appears in the page text, a cart or checkout element
// exists, or structured data declares a Product or Offer.
func isEcommerce(sum snapshot.Summary, productFound bool) bool {
	if productFound || sum.HasCartElement {
		return true
	}
	if commerceTextRe.MatchString(sum.Text()) {
		return true
	}
	for _, sd := range sum.StructuredData {
		if structuredRe.MatchString(sd) {
			return true
		}
	}
	return false
}
