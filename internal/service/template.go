package service

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/templui/goalcoach/internal/markdown"
	"github.com/templui/goalcoach/internal/model"
)

var ErrTemplateNotFound = errors.New("template not found")

type templateMeta struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Type        string   `yaml:"type"`
	Category    string   `yaml:"category"`
	Title       string   `yaml:"title"`
	Priority    string   `yaml:"priority"`
	TargetValue *float64 `yaml:"targetValue"`
	Unit        string   `yaml:"unit"`
	Popularity  int      `yaml:"popularity"`
	Tags        []string `yaml:"tags"`
}

// TemplateService serves the goal template catalogue. Templates are loaded
// once and kept sorted by popularity.
type TemplateService struct {
	templates []*model.GoalTemplate
}

// NewTemplateService loads every *.md file at the root of fsys.
func NewTemplateService(fsys fs.FS, parser *markdown.Parser) (*TemplateService, error) {
	files, err := fs.Glob(fsys, "*.md")
	if err != nil {
		return nil, err
	}

	templates := make([]*model.GoalTemplate, 0, len(files))
	for _, file := range files {
		t, err := loadTemplate(fsys, parser, file)
		if err != nil {
			return nil, fmt.Errorf("failed to load template %s: %w", file, err)
		}
		templates = append(templates, t)
	}

	sort.SliceStable(templates, func(i, j int) bool {
		if templates[i].Popularity != templates[j].Popularity {
			return templates[i].Popularity > templates[j].Popularity
		}
		return templates[i].Name < templates[j].Name
	})

	return &TemplateService{templates: templates}, nil
}

func loadTemplate(fsys fs.FS, parser *markdown.Parser, file string) (*model.GoalTemplate, error) {
	content, err := fs.ReadFile(fsys, file)
	if err != nil {
		return nil, err
	}

	var meta templateMeta
	html, err := parser.RenderWithFrontmatter(content, &meta)
	if err != nil {
		return nil, err
	}

	goalType := model.GoalType(meta.Type)
	if !goalType.Valid() {
		return nil, fmt.Errorf("unknown goal type %q", meta.Type)
	}
	priority := model.Priority(meta.Priority)
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("unknown priority %q", meta.Priority)
	}

	id := meta.ID
	if id == "" {
		id = strings.TrimSuffix(path.Base(file), ".md")
	}
	tags := meta.Tags
	if tags == nil {
		tags = []string{}
	}

	return &model.GoalTemplate{
		ID:          id,
		Name:        meta.Name,
		Description: meta.Description,
		Type:        goalType,
		Category:    meta.Category,
		Title:       meta.Title,
		Priority:    priority,
		TargetValue: meta.TargetValue,
		Unit:        meta.Unit,
		Popularity:  meta.Popularity,
		Tags:        tags,
		HTMLContent: string(html),
	}, nil
}

// Templates lists the catalogue, most popular first.
func (s *TemplateService) Templates() []*model.GoalTemplate {
	return append([]*model.GoalTemplate(nil), s.templates...)
}

func (s *TemplateService) ByID(id string) (*model.GoalTemplate, error) {
	for _, t := range s.templates {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, ErrTemplateNotFound
}

// Suggest returns the templates matching goalType by type or category.
func (s *TemplateService) Suggest(goalType model.GoalType) []*model.GoalTemplate {
	var matches []*model.GoalTemplate
	for _, t := range s.templates {
		if t.Matches(goalType) {
			matches = append(matches, t)
		}
	}
	return matches
}
