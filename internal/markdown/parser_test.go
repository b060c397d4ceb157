package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	p := NewParser()

	html, err := p.Render("**Perfect!** Your goal is ready.\nNext line")
	require.NoError(t, err)
	assert.Contains(t, html, "<strong>Perfect!</strong>")
	assert.Contains(t, html, "<br>")
}

func TestRender_EscapesRawHTML(t *testing.T) {
	html, err := NewParser().Render(`<script>alert(1)</script>`)
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}

func TestRenderWithFrontmatter(t *testing.T) {
	source := []byte("---\nname: Daily Habit Formation\npopularity: 91\ntags: [habits, daily]\n---\n# Build a habit\n")

	var meta struct {
		Name       string   `yaml:"name"`
		Popularity int      `yaml:"popularity"`
		Tags       []string `yaml:"tags"`
	}
	html, err := NewParser().RenderWithFrontmatter(source, &meta)
	require.NoError(t, err)

	assert.Equal(t, "Daily Habit Formation", meta.Name)
	assert.Equal(t, 91, meta.Popularity)
	assert.Equal(t, []string{"habits", "daily"}, meta.Tags)
	assert.Contains(t, string(html), `<h1 id="build-a-habit">Build a habit</h1>`)
	assert.NotContains(t, string(html), "popularity")
}

func TestRenderWithFrontmatter_None(t *testing.T) {
	meta := struct {
		Name string `yaml:"name"`
	}{Name: "unchanged"}

	_, err := NewParser().RenderWithFrontmatter([]byte("plain"), &meta)
	require.NoError(t, err)
	assert.Equal(t, "unchanged", meta.Name)
}
