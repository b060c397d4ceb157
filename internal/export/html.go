package export

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/templui/goalcoach/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Label renders an enum value for display ("very_challenging" -> "Very Challenging").
func Label[T ~string](v T) string {
	b := []byte(v)
	for i, c := range b {
		if c == '_' {
			b[i] = ' '
		}
	}
	return cases.Title(language.English).String(string(b))
}

type htmlMilestone struct {
	Title     string
	Icon      string
	Due       string
	Completed bool
}

type htmlGoal struct {
	Title          string
	Badge          string
	ShowProgress   bool
	Progress       string
	ProgressStyle  template.CSS
	Description    string
	Motivation     string
	Timeline       string
	Due            string
	Target         string
	Current        string
	Milestones     []htmlMilestone
	Accountability string
	Reward         string
	Reflection     string
	Tags           []string
}

type htmlDocument struct {
	Title     string
	Subtitle  string
	Generated string
	Count     int
	Goals     []htmlGoal
	Product   string
	Insights  []string
	Advice    []string
}

var htmlTemplate = template.Must(template.New("profile").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', system-ui, sans-serif; line-height: 1.6; color: #134611; max-width: 800px; margin: 0 auto; padding: 20px; background: #fafef5;">
<div style="border-bottom: 3px solid #3da35d; margin-bottom: 30px; padding-bottom: 20px;">
<h1 style="margin: 0;">{{.Title}}</h1>
<p style="color: #3e8914; margin: 5px 0;">{{.Subtitle}}</p>
<p style="color: #3e8914; margin: 5px 0;"><strong>Generated:</strong> {{.Generated}} | <strong>Goals:</strong> {{.Count}}</p>
</div>
{{range .Goals}}
<div style="margin-bottom: 40px; padding: 20px; background: white; border-left: 4px solid #96e072; border-radius: 8px;">
<h2 style="margin-top: 0; border-bottom: 1px solid #e8fccf; padding-bottom: 10px;">{{.Title}}</h2>
{{if .Badge}}<p style="color: #3e8914;">{{.Badge}}</p>{{end}}
{{if .ShowProgress}}<div style="margin: 15px 0;">
<strong>Progress: {{.Progress}}%</strong>
<div style="width: 100%; height: 8px; background: #e8fccf; border-radius: 4px; overflow: hidden; margin: 10px 0;">
<div style="height: 100%; background: #3da35d; {{.ProgressStyle}}"></div>
</div>
</div>{{end}}
{{if .Description}}<p><strong>Goal:</strong> {{.Description}}</p>{{end}}
{{if .Motivation}}<p><strong>💫 Motivation:</strong> {{.Motivation}}</p>{{end}}
<p><strong>📅 Timeline:</strong> {{.Timeline}}{{if .Due}} (Due: {{.Due}}){{end}}</p>
{{if .Target}}<p><strong>🎯 Target:</strong> {{.Target}}{{if .Current}} | <strong>Current:</strong> {{.Current}}{{end}}</p>{{end}}
{{if .Milestones}}<div style="margin-top: 20px;">
<strong>🎪 Milestones:</strong>
{{range .Milestones}}<div style="padding: 8px 12px; margin: 5px 0; border-radius: 4px; {{if .Completed}}background: #d5f0de; border-left: 3px solid #3da35d;{{else}}background: #f1fde2; border-left: 3px solid #96e072;{{end}}">{{.Icon}} {{.Title}}{{if .Due}} <em>(Due: {{.Due}})</em>{{end}}</div>
{{end}}</div>{{end}}
{{if .Accountability}}<p><strong>🤝 Accountability:</strong> {{.Accountability}}</p>{{end}}
{{if .Reward}}<p><strong>🎉 Reward:</strong> {{.Reward}}</p>{{end}}
{{if .Reflection}}<p><strong>💭 Reflection:</strong> {{.Reflection}}</p>{{end}}
{{if .Tags}}<div style="margin-top: 15px;">{{range .Tags}}<span style="display: inline-block; background: #e8fccf; padding: 2px 8px; border-radius: 12px; font-size: 0.85em; margin: 2px;">{{.}}</span>{{end}}</div>{{end}}
</div>
{{end}}
{{if .Insights}}<h2>💡 Insights</h2>
<ul>{{range .Insights}}<li>{{.}}</li>{{end}}</ul>{{end}}
{{if .Advice}}<h2>📈 Recommendations</h2>
<ul>{{range .Advice}}<li>{{.}}</li>{{end}}</ul>{{end}}
<div style="margin-top: 40px; text-align: center; color: #3e8914; font-size: 0.9em; border-top: 1px solid #e8fccf; padding-top: 20px;">
<p>Generated by <strong>{{.Product}} Goal Management System</strong></p>
</div>
</body>
</html>
`))

func (r *renderer) html() (string, error) {
	doc := htmlDocument{
		Title:     r.title(),
		Subtitle:  r.subtitle(),
		Generated: r.date(r.opts.ExportDate),
		Count:     len(r.goals),
		Product:   r.opts.ProductName,
	}
	if r.opts.Customization.IncludeInsights {
		doc.Insights = Insights(r.goals)
	}
	if r.opts.Customization.IncludeRecommendations {
		doc.Advice = Recommendations(r.goals, r.opts.ExportDate)
	}

	for _, g := range r.goals {
		doc.Goals = append(doc.Goals, r.htmlGoal(g))
	}

	var buf bytes.Buffer
	err := htmlTemplate.Execute(&buf, doc)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *renderer) htmlGoal(g *model.Goal) htmlGoal {
	progress := progressOf(g)

	hg := htmlGoal{
		Title:          g.Title,
		Description:    g.Description,
		Motivation:     g.Motivation,
		Timeline:       model.FormatDuration(g.StartDate, g.EndDate, r.opts.ExportDate),
		Accountability: g.Accountability,
		Reward:         g.Reward,
	}

	if r.opts.Customization.Theme == ThemeDetailed {
		hg.Badge = fmt.Sprintf("%s · %s priority · %s", Label(g.Type), Label(g.Priority), Label(g.Status))
	}
	if r.opts.Customization.Theme != ThemeMinimal {
		hg.Tags = g.Tags
	}

	if r.opts.IncludeProgress && progress > 0 {
		hg.ShowProgress = true
		hg.Progress = fmt.Sprintf("%.1f", progress)
		hg.ProgressStyle = template.CSS(fmt.Sprintf("width: %.1f%%;", progress))
	}

	if g.EndDate != nil {
		hg.Due = r.date(*g.EndDate)
	}

	if g.HasTarget() && g.Unit != "" {
		hg.Target = formatNumber(*g.TargetValue) + " " + g.Unit
		if r.opts.IncludeProgress {
			hg.Current = formatNumber(g.CurrentValue) + " " + g.Unit
		}
	}

	if r.opts.IncludeMilestones {
		for _, m := range g.Milestones {
			hm := htmlMilestone{
				Title:     m.Title,
				Icon:      milestoneIcon(m.Status),
				Completed: m.Status == model.MilestoneStatusCompleted,
			}
			if m.DueDate != nil {
				hm.Due = r.date(*m.DueDate)
			}
			hg.Milestones = append(hg.Milestones, hm)
		}
	}

	if r.opts.IncludeReflections {
		hg.Reflection = g.Reflection
	}

	return hg
}
