package audit

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storelens/croaudit/internal/llm"
)

func TestSortByPriorityStable(t *testing.T) {
	in := []Suggestion{
		{Priority: "medium", Title: "m1"},
		{Priority: "critical", Title: "c1"},
		{Priority: "high", Title: "h1"},
		{Priority: "critical", Title: "c2"},
		{Priority: "bogus", Title: "x1"},
		{Priority: "high", Title: "h2"},
	}
	SortByPriority(in)

	titles := make([]string, len(in))
	for i, s := range in {
		titles[i] = s.Title
	}
	assert.Equal(t, []string{"c1", "c2", "h1", "h2", "m1", "x1"}, titles)
}

func TestParseSuggestionsFromMarkdownFence(t *testing.T) {
	text := "Here is my analysis:\n```json\n[{\"priority\":\"critical\",\"title\":\"CTA hidden\",\"description\":\"The button is below the fold\",\"impact\":\"20% uplift\"}]\n```"
	got := parseSuggestions(text)
	require.Len(t, got, 1)
	assert.Equal(t, "CTA hidden", got[0].Title)
}

func TestParseSuggestionsFiltersIncomplete(t *testing.T) {
	text := `[
		{"priority":"high","title":"ok","description":"d","impact":"i"},
		{"priority":"high","title":"missing fields"}
	]`
	got := parseSuggestions(text)
	require.Len(t, got, 1)
	assert.Equal(t, "ok", got[0].Title)
}

func TestParseSuggestionsFallback(t *testing.T) {
	for _, text := range []string{
		"no json here at all",
		"[not valid json]",
		"[]",
		`[{"priority":"high"}]`,
	} {
		got := parseSuggestions(text)
		require.Len(t, got, 1, "input %q", text)
		assert.Equal(t, "Unable to parse AI response", got[0].Title)
		assert.Equal(t, "high", got[0].Priority)
	}
}

func TestExtractJSONArray(t *testing.T) {
	assert.Equal(t, `[1,2,3]`, extractJSONArray("prefix [1,2,3] suffix"))
	assert.Equal(t, `[[1],[2]]`, extractJSONArray("[[1],[2]]"))
	assert.Equal(t, `["a]b"]`, extractJSONArray(`["a]b"] rest`), "bracket inside string literal")
	assert.Equal(t, "", extractJSONArray("no array"))
	assert.Equal(t, "", extractJSONArray("[unclosed"))
}

type stubClient struct {
	reply   string
	err     error
	lastReq llm.Request
}

func (c *stubClient) Generate(_ context.Context, req llm.Request) (llm.Response, error) {
	c.lastReq = req
	if c.err != nil {
		return llm.Response{}, c.err
	}
	return llm.Response{Text: c.reply}, nil
}

func (c *stubClient) Name() string { return "stub" }

func testSet(t *testing.T, store *ScreenshotStore) ScreenshotSet {
	t.Helper()
	for _, name := range []string{"d.png", "m.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), name), []byte("png"), 0o644))
	}
	return ScreenshotSet{
		Role:    RoleProduct,
		Desktop: ScreenshotArtifact{Device: "desktop", Filename: "d.png"},
		Mobile:  ScreenshotArtifact{Device: "mobile", Filename: "m.png"},
	}
}

func TestVisionEnginePrefixesRole(t *testing.T) {
	store, err := NewScreenshotStore(t.TempDir())
	require.NoError(t, err)
	set := testSet(t, store)

	client := &stubClient{reply: `[{"priority":"critical","title":"CTA hidden","description":"d","impact":"i"}]`}
	engine := NewVisionEngine(client, store, zerolog.Nop())

	got := engine.Analyze(context.Background(), set)
	require.Len(t, got, 1)
	assert.Equal(t, "[Product] CTA hidden", got[0].Title)
	require.Len(t, client.lastReq.Images, 2)
	assert.Equal(t, "image/png", client.lastReq.Images[0].MIMEType)
}

func TestVisionEngineErrorYieldsSyntheticSuggestion(t *testing.T) {
	store, err := NewScreenshotStore(t.TempDir())
	require.NoError(t, err)
	set := testSet(t, store)

	client := &stubClient{err: assert.AnError}
	engine := NewVisionEngine(client, store, zerolog.Nop())

	got := engine.Analyze(context.Background(), set)
	require.Len(t, got, 1)
	assert.Equal(t, "[Product] Analysis Error", got[0].Title)
	assert.Equal(t, "high", got[0].Priority)
}

func TestHeuristicSuggestionsPerRole(t *testing.T) {
	for _, role := range []Role{RoleHomepage, RoleCollection, RoleProduct} {
		got := HeuristicSuggestions(role, "fashion")
		require.NotEmpty(t, got, "role %s", role)
		for _, s := range got {
			assert.Contains(t, s.Title, "["+role.Title()+"] ")
			assert.Contains(t, priorityOrder, s.Priority)
		}
	}
}
