// Package export renders goal collections as downloadable documents.
package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/templui/goalcoach/internal/model"
)

type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatPDF      Format = "pdf"
)

const (
	Version        = "1.0"
	DefaultProduct = "goalcoach"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat accepts format names and common file extensions.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "pdf", "html":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatPDF:
		return "html"
	}
	return string(f)
}

func (f Format) MimeType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatMarkdown:
		return "text/markdown"
	case FormatCSV:
		return "text/csv"
	case FormatPDF:
		return "text/html"
	}
	return "application/octet-stream"
}

type Theme string

const (
	ThemeDefault  Theme = "default"
	ThemeMinimal  Theme = "minimal"
	ThemeDetailed Theme = "detailed"
)

type Customization struct {
	Title                  string
	Subtitle               string
	IncludeInsights        bool
	IncludeRecommendations bool
	Theme                  Theme
}

type Options struct {
	IncludeProgress    bool
	IncludeMilestones  bool
	IncludeReflections bool
	UserContext        *model.UserContext
	Customization      Customization
	// Product is the slug used in filenames; ProductName is shown in documents.
	Product     string
	ProductName string
	// ExportDate stamps the document. Zero means now.
	ExportDate time.Time
}

func DefaultOptions() Options {
	return Options{
		IncludeProgress:   true,
		IncludeMilestones: true,
		Customization: Customization{
			IncludeInsights:        true,
			IncludeRecommendations: true,
			Theme:                  ThemeDefault,
		},
		Product:     DefaultProduct,
		ProductName: "Goalcoach",
	}
}

type Metadata struct {
	GoalCount  int       `json:"goalCount"`
	ExportDate time.Time `json:"exportDate"`
	Format     Format    `json:"format"`
	Version    string    `json:"version"`
}

type Result struct {
	Content  string   `json:"content"`
	Filename string   `json:"filename"`
	MimeType string   `json:"mimeType"`
	Size     int      `json:"size"`
	Metadata Metadata `json:"metadata"`
}

// Export renders goals in the requested format. It only reads goals.
func Export(goals []*model.Goal, format Format, opts Options) (*Result, error) {
	if opts.ExportDate.IsZero() {
		opts.ExportDate = time.Now().UTC()
	}
	if opts.Product == "" {
		opts.Product = DefaultProduct
	}
	if opts.ProductName == "" {
		opts.ProductName = opts.Product
	}
	if opts.Customization.Theme == "" {
		opts.Customization.Theme = ThemeDefault
	}

	r := &renderer{goals: goals, opts: opts, loc: location(opts.UserContext)}

	var (
		content string
		err     error
	)
	switch format {
	case FormatJSON:
		content, err = r.json()
	case FormatMarkdown:
		content = r.markdown()
	case FormatCSV:
		content, err = r.csv()
	case FormatPDF:
		content, err = r.html()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render %s export: %w", format, err)
	}

	return &Result{
		Content:  content,
		Filename: Filename(opts.Product, format, opts.ExportDate),
		MimeType: format.MimeType(),
		Size:     len(content),
		Metadata: Metadata{
			GoalCount:  len(goals),
			ExportDate: opts.ExportDate,
			Format:     format,
			Version:    Version,
		},
	}, nil
}

// Filename follows <product>-goals-<YYYY-MM-DD>.<ext>.
func Filename(product string, format Format, date time.Time) string {
	return fmt.Sprintf("%s-goals-%s.%s", product, date.UTC().Format("2006-01-02"), format.Extension())
}

type renderer struct {
	goals []*model.Goal
	opts  Options
	loc   *time.Location
}

func (r *renderer) title() string {
	if r.opts.Customization.Title != "" {
		return r.opts.Customization.Title
	}
	if r.opts.UserContext != nil && r.opts.UserContext.Name != "" {
		return r.opts.UserContext.Name + "'s Goal Profile"
	}
	return "Goal Profile"
}

func (r *renderer) subtitle() string {
	if r.opts.Customization.Subtitle != "" {
		return r.opts.Customization.Subtitle
	}
	return "Generated by " + r.opts.ProductName + " Goal Management System"
}

func (r *renderer) date(t time.Time) string {
	return t.In(r.loc).Format("Jan 2, 2006")
}

func location(uc *model.UserContext) *time.Location {
	if uc == nil || uc.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(uc.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
