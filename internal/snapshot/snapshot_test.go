package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storefrontHTML = `<!DOCTYPE html>
<html>
<head>
	<title>Acme Outfitters — Women's Fashion</title>
	<meta name="description" content="Dresses, shoes and accessories.">
	<meta name="keywords" content="fashion, dresses, shoes">
	<script type="application/ld+json">{"@type":"Product","name":"Linen Dress","offers":{"@type":"Offer","price":"79.00"}}</script>
	<style>.hidden { display: none; }</style>
</head>
<body>
	<nav class="breadcrumb"><a href="/">Home</a> / <a href="/collections/dresses">Dresses</a></nav>
	<h1>New Season Dresses</h1>
	<h2>Best Sellers</h2>
	<a href="/cart" class="cart-link">Cart (0)</a>
	<main>Shop our latest dress and shoe styles.</main>
	<script>console.log("tracking pixel");</script>
</body>
</html>`

func TestParseExtractsSignals(t *testing.T) {
	sum, err := Parse("https://acme.example", storefrontHTML)
	require.NoError(t, err)

	assert.Equal(t, "https://acme.example", sum.URL)
	assert.Equal(t, "Acme Outfitters — Women's Fashion", sum.Title)
	assert.Equal(t, "Dresses, shoes and accessories.", sum.MetaDescription)
	assert.Equal(t, "fashion, dresses, shoes", sum.MetaKeywords)
	assert.Contains(t, sum.Headings, "New Season Dresses")
	assert.Contains(t, sum.Headings, "Best Sellers")
	require.NotEmpty(t, sum.Breadcrumbs)
	assert.Contains(t, sum.Breadcrumbs[0], "Dresses")
	require.Len(t, sum.StructuredData, 1)
	assert.Contains(t, sum.StructuredData[0], `"@type":"Product"`)
	assert.True(t, sum.HasCartElement)
}

func TestParseBodyTextExcludesScripts(t *testing.T) {
	sum, err := Parse("https://acme.example", storefrontHTML)
	require.NoError(t, err)

	assert.Contains(t, sum.BodyText, "Shop our latest dress and shoe styles.")
	assert.NotContains(t, sum.BodyText, "tracking pixel")
	assert.NotContains(t, sum.BodyText, "display: none")
}

func TestParseNoCartNoCrash(t *testing.T) {
	sum, err := Parse("https://blog.example", `<html><head><title>A blog</title></head><body><h1>Hello</h1><p>Notes on things.</p></body></html>`)
	require.NoError(t, err)

	assert.False(t, sum.HasCartElement)
	assert.Empty(t, sum.StructuredData)
	assert.Equal(t, "A blog", sum.Title)
}

func TestSummaryTextJoinsSignals(t *testing.T) {
	sum := Summary{
		Title:       "Store",
		Headings:    []string{"Deals"},
		Breadcrumbs: []string{"Home / Shoes"},
		BodyText:    "welcome",
	}
	text := sum.Text()
	assert.Contains(t, text, "Store")
	assert.Contains(t, text, "Deals")
	assert.Contains(t, text, "Home / Shoes")
	assert.Contains(t, text, "welcome")
}
