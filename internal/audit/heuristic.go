package audit

import "fmt"

// HeuristicSuggestions is the no-model fallback: a fixed set of CRO
// recommendations per page role, lightly tailored to the classified niche.
// Used when no language-model client is configured.
func HeuristicSuggestions(role Role, niche string) []Suggestion {
	var suggestions []Suggestion
	switch role {
	case RoleHomepage:
		suggestions = []Suggestion{
			{
				Priority:    "critical",
				Title:       "Verify primary call-to-action above the fold",
				Description: "The homepage should present one dominant call-to-action within the first viewport. Competing banners and rotating carousels dilute the visitor's first decision.",
				Impact:      "10-20% click-through increase on the primary path",
			},
			{
				Priority:    "high",
				Title:       "Surface trust signals near the hero",
				Description: "Reviews, ratings, payment logos and shipping guarantees placed near the hero section reduce first-visit hesitation.",
				Impact:      "5-15% bounce rate reduction",
			},
			{
				Priority:    "medium",
				Title:       "Keep navigation shallow",
				Description: fmt.Sprintf("Visitors browsing %s stores expect to reach a product list in one click. Audit the header menu for dead ends and duplicate entries.", nicheLabel(niche)),
				Impact:      "Shorter path to product pages",
			},
		}
	case RoleCollection:
		suggestions = []Suggestion{
			{
				Priority:    "high",
				Title:       "Show price and availability on product cards",
				Description: "Every card in the listing should carry price, availability and a recognizable image. Cards that require a click to reveal price lose comparison shoppers.",
				Impact:      "10-15% more product page entries",
			},
			{
				Priority:    "high",
				Title:       "Expose filtering and sorting controls",
				Description: fmt.Sprintf("Filters appropriate to %s (size, brand, price range) should be visible without scrolling, especially on mobile.", nicheLabel(niche)),
				Impact:      "Lower listing abandonment",
			},
			{
				Priority:    "medium",
				Title:       "Add breadcrumb navigation",
				Description: "Breadcrumbs orient visitors arriving from search and let them widen the category without using the back button.",
				Impact:      "Improved multi-category browsing",
			},
		}
	case RoleProduct:
		suggestions = []Suggestion{
			{
				Priority:    "critical",
				Title:       "Keep add-to-cart visible above the fold",
				Description: "Price, availability and the add-to-cart button must be visible without scrolling on both desktop and mobile. On mobile the button should be at least 44x44px.",
				Impact:      "20-30% conversion increase",
			},
			{
				Priority:    "high",
				Title:       "State shipping cost and delivery time up front",
				Description: "Unexpected shipping cost at checkout is the leading abandonment cause. Show it on the product page, before the cart.",
				Impact:      "15-25% cart abandonment reduction",
			},
			{
				Priority:    "high",
				Title:       "Show customer reviews near the buy box",
				Description: "A rating summary adjacent to the price anchors trust at the decision point. Link it to full reviews further down the page.",
				Impact:      "Higher add-to-cart rate",
			},
			{
				Priority:    "medium",
				Title:       "Offer related product recommendations",
				Description: "A related-items row below the product details recovers visitors the main product did not convert.",
				Impact:      "Increased average order value",
			},
		}
	}
	for i := range suggestions {
		suggestions[i].Title = fmt.Sprintf("[%s] %s", role.Title(), suggestions[i].Title)
	}
	return suggestions
}

func nicheLabel(niche string) string {
	if niche == "" || niche == nicheUnknown {
		return nicheGeneralRetail
	}
	return niche
}
