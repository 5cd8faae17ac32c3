package audit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storelens/croaudit/internal/snapshot"
)

func TestClassifyTieBreakFirstDeclared(t *testing.T) {
	sum := snapshot.Summary{BodyText: "a new dress and a shirt beside a table"}
	cls := Classify(sum, "", false)

	assert.Equal(t, "fashion", cls.Niche)
	assert.Equal(t, 2, cls.Scores["fashion"])
	assert.Equal(t, 1, cls.Scores["home"])
}

func TestClassifyWholeWordMatching(t *testing.T) {
	// "healthy" must not count as the keyword "health".
	sum := snapshot.Summary{BodyText: "healthy living blog"}
	cls := Classify(sum, "", false)
	assert.Zero(t, cls.Scores["health"])
	assert.Equal(t, nicheUnknown, cls.Niche)
}

func TestClassifyProductNameBonus(t *testing.T) {
	// One keyword in body text for home, one in the product name for
	// fashion; the doubled product-name weight must win.
	sum := snapshot.Summary{BodyText: "our sofa sale"}
	cls := Classify(sum, "leather boots", false)

	assert.Equal(t, "fashion", cls.Niche)
	assert.Equal(t, 2, cls.Scores["fashion"])
	assert.Equal(t, 1, cls.Scores["home"])
}

func TestClassifyGeneralRetailFallback(t *testing.T) {
	sum := snapshot.Summary{BodyText: "welcome to our online shop"}
	cls := Classify(sum, "", false)
	assert.Equal(t, nicheGeneralRetail, cls.Niche)
	assert.Empty(t, cls.Scores)
}

func TestScoresMarshalDeclarationOrder(t *testing.T) {
	scores := nicheScores{"home": 1, "fashion": 2, "pet": 3}
	data, err := json.Marshal(scores)
	require.NoError(t, err)
	assert.Equal(t, `{"fashion":2,"home":1,"pet":3}`, string(data))

	var back nicheScores
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, scores, back)
}

func TestIsEcommerceSignals(t *testing.T) {
	assert.True(t, isEcommerce(snapshot.Summary{}, true), "discovered product link")
	assert.True(t, isEcommerce(snapshot.Summary{HasCartElement: true}, false), "cart element")
	assert.True(t, isEcommerce(snapshot.Summary{BodyText: "Add to cart"}, false), "commerce vocabulary")
	assert.True(t, isEcommerce(snapshot.Summary{
		StructuredData: []string{`{"@type": "Product", "name": "X"}`},
	}, false), "structured data")
	assert.False(t, isEcommerce(snapshot.Summary{BodyText: "a personal blog about hiking"}, false))
}
