package model

// GoalTemplate is a reusable starting point for a goal, loaded from a
// markdown file with frontmatter.
type GoalTemplate struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        GoalType `json:"type"`
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	Priority    Priority `json:"priority"`
	TargetValue *float64 `json:"targetValue,omitempty"`
	Unit        string   `json:"unit,omitempty"`
	Popularity  int      `json:"popularity"`
	Tags        []string `json:"tags"`
	HTMLContent string   `json:"-"`
}

// Matches reports whether the template fits a goal of type t, either by its
// own type or by its category.
func (t *GoalTemplate) Matches(goalType GoalType) bool {
	return t.Type == goalType || t.Category == string(goalType)
}
