package audit

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const base = "https://shop.example.com"

func TestClassifyLinksFindsBothCandidates(t *testing.T) {
	links := []pageLink{
		{Href: base + "/about", Text: "About us"},
		{Href: base + "/collections/summer", Text: "Summer Collection"},
		{Href: base + "/products/blue-shirt", Text: "Blue Shirt"},
	}
	collection, product := classifyLinks(base, links)

	require.NotNil(t, collection)
	assert.Equal(t, base+"/collections/summer", collection.URL)
	assert.Equal(t, "Summer Collection", collection.Name)

	require.NotNil(t, product)
	assert.Equal(t, base+"/products/blue-shirt", product.URL)
}

func TestClassifyLinksFirstInOrderWins(t *testing.T) {
	links := []pageLink{
		{Href: base + "/products/first", Text: "First"},
		{Href: base + "/products/second", Text: "Second"},
		{Href: base + "/collections/a", Text: "A"},
		{Href: base + "/collections/b", Text: "B"},
	}
	collection, product := classifyLinks(base, links)

	require.NotNil(t, product)
	assert.Equal(t, base+"/products/first", product.URL)
	require.NotNil(t, collection)
	assert.Equal(t, base+"/collections/a", collection.URL)
}

func TestClassifyLinksSkipsHomepageAndForeignOrigins(t *testing.T) {
	links := []pageLink{
		{Href: base, Text: "Home"},
		{Href: base + "/", Text: "Home"},
		{Href: "https://other.example.com/products/x", Text: "Elsewhere"},
	}
	collection, product := classifyLinks(base, links)
	assert.Nil(t, collection)
	assert.Nil(t, product)
}

func TestClassifyLinksProductByAncestorClass(t *testing.T) {
	links := []pageLink{
		{Href: base + "/p/123", Text: "Nice thing", ProductClass: true},
	}
	_, product := classifyLinks(base, links)
	require.NotNil(t, product)
	assert.Equal(t, "Nice thing", product.Name)
}

func TestClassifyLinksProductByPurchaseText(t *testing.T) {
	links := []pageLink{
		{Href: base + "/deal", Text: "Only $19.99 today"},
	}
	_, product := classifyLinks(base, links)
	require.NotNil(t, product)
}

func TestClassifyLinksLaterOccurrenceCanClassify(t *testing.T) {
	// The first occurrence of /x carries no product signal; the second does.
	// The URL must still be discovered as a product.
	links := []pageLink{
		{Href: base + "/x", Text: "plain"},
		{Href: base + "/x", Text: "buy now"},
	}
	_, product := classifyLinks(base, links)
	require.NotNil(t, product)
	assert.Equal(t, base+"/x", product.URL)
}

func TestClassifyLinksDuplicatesDedupePerCategory(t *testing.T) {
	links := []pageLink{
		{Href: base + "/products/first", Text: "First"},
		{Href: base + "/products/first", Text: "First again"},
	}
	_, product := classifyLinks(base, links)
	require.NotNil(t, product)
	assert.Equal(t, "First", product.Name)
}

func TestCleanLinkText(t *testing.T) {
	assert.Equal(t, "Blue Shirt", cleanLinkText("  Blue Shirt! "))
	assert.Equal(t, "", cleanLinkText("★★★"))
	long := "abcdefghijklmnopqrstuvwxyz abcdefghijklmnopqrstuvwxyz"
	assert.LessOrEqual(t, len(cleanLinkText(long)), 30)
}

func TestNewTargetKeys(t *testing.T) {
	home := NewTarget(RoleHomepage, "", base)
	assert.Equal(t, "homepage", home.Key)

	product := NewTarget(RoleProduct, "Blue Suede Shoes Limited Edition", base+"/products/x")
	assert.Equal(t, "product_blue_suede_shoes_lim", product.Key)
}

func TestNewTargetKeyMultibyteName(t *testing.T) {
	// Interactive discovery takes names straight from image alt text, which
	// may be non-ASCII. Truncation must not split a rune.
	product := NewTarget(RoleProduct, "Crème Brûlée Torch Deluxe Édition", base+"/products/y")
	assert.True(t, utf8.ValidString(product.Key))
	assert.LessOrEqual(t, utf8.RuneCountInString(strings.TrimPrefix(product.Key, "product_")), 20)
}

func TestCleanLinkTextMultibyte(t *testing.T) {
	long := strings.Repeat("é", 40) + " extra"
	assert.True(t, utf8.ValidString(cleanLinkText(long)))
}
