// Package markdown renders assistant replies and goal template files.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/frontmatter"
)

// Parser converts markdown to HTML. Raw HTML in the source is escaped, so the
// output is safe to embed in a page.
type Parser struct {
	md goldmark.Markdown
}

func NewParser() *Parser {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			&frontmatter.Extender{},
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithHardWraps(),
		),
	)

	return &Parser{md: md}
}

// Render converts a markdown string to HTML.
func (p *Parser) Render(source string) (string, error) {
	var buf bytes.Buffer
	err := p.md.Convert([]byte(source), &buf)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderWithFrontmatter converts source to HTML and decodes its YAML
// frontmatter into meta. A document without frontmatter leaves meta untouched.
func (p *Parser) RenderWithFrontmatter(source []byte, meta any) ([]byte, error) {
	ctx := parser.NewContext()
	var buf bytes.Buffer

	err := p.md.Convert(source, &buf, parser.WithContext(ctx))
	if err != nil {
		return nil, err
	}

	data := frontmatter.Get(ctx)
	if data != nil {
		err = data.Decode(meta)
		if err != nil {
			return nil, fmt.Errorf("failed to decode frontmatter: %w", err)
		}
	}

	return buf.Bytes(), nil
}
