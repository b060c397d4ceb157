package goalcoach

import "embed"

// TemplatesFS holds the goal template catalogue, one markdown file per
// template with its metadata in frontmatter.
//
//go:embed content/templates/*.md
var TemplatesFS embed.FS
