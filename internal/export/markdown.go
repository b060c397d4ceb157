package export

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/templui/goalcoach/internal/model"
)

const progressBarCells = 20

var (
	slugSpaces  = regexp.MustCompile(`\s+`)
	slugInvalid = regexp.MustCompile(`[^\w-]`)
)

// Anchor turns a heading into the fragment used by the table of contents.
func Anchor(title string) string {
	s := slugSpaces.ReplaceAllString(strings.ToLower(title), "-")
	return slugInvalid.ReplaceAllString(s, "")
}

// ProgressBar draws progress as filled and empty block cells followed by
// the percentage.
func ProgressBar(progress float64) string {
	filled := int(progress/100*progressBarCells + 0.5)
	filled = max(0, min(progressBarCells, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", progressBarCells-filled) + fmt.Sprintf(" %.1f%%", progress)
}

func milestoneIcon(status model.MilestoneStatus) string {
	switch status {
	case model.MilestoneStatusCompleted:
		return "✅"
	case model.MilestoneStatusInProgress:
		return "🔄"
	}
	return "⭕"
}

func progressOf(g *model.Goal) float64 {
	return model.CalculateProgress(g)
}

func (r *renderer) markdown() string {
	var b strings.Builder
	exported := r.date(r.opts.ExportDate)

	fmt.Fprintf(&b, "# %s\n\n", r.title())
	fmt.Fprintf(&b, "*%s*\n\n", r.subtitle())
	fmt.Fprintf(&b, "**Generated:** %s\n", exported)
	fmt.Fprintf(&b, "**Goals Count:** %d\n\n", len(r.goals))
	b.WriteString("---\n\n")

	b.WriteString("## 📋 Table of Contents\n\n")
	for i, g := range r.goals {
		fmt.Fprintf(&b, "%d. [%s](#%s)\n", i+1, g.Title, Anchor(g.Title))
	}
	b.WriteString("\n---\n\n")

	b.WriteString("## 🎯 Goals\n\n")
	for i, g := range r.goals {
		r.markdownGoal(&b, g)
		if i < len(r.goals)-1 {
			b.WriteString("\n---\n\n")
		}
	}

	if r.opts.Customization.IncludeInsights {
		b.WriteString("\n## 💡 Insights\n\n")
		for _, insight := range Insights(r.goals) {
			fmt.Fprintf(&b, "- %s\n", insight)
		}
	}

	if r.opts.Customization.IncludeRecommendations {
		b.WriteString("\n## 📈 Recommendations\n\n")
		for _, rec := range Recommendations(r.goals, r.opts.ExportDate) {
			fmt.Fprintf(&b, "- %s\n", rec)
		}
	}

	b.WriteString("\n---\n\n")
	fmt.Fprintf(&b, "*Generated by %s Goal Management System on %s*\n", r.opts.ProductName, exported)

	return b.String()
}

func (r *renderer) markdownGoal(b *strings.Builder, g *model.Goal) {
	progress := progressOf(g)

	fmt.Fprintf(b, "### %s\n\n", g.Title)

	if r.opts.Customization.Theme == ThemeDetailed {
		fmt.Fprintf(b, "**Type:** %s | **Priority:** %s | **Status:** %s\n\n", g.Type, g.Priority, g.Status)
	}

	if r.opts.IncludeProgress && progress > 0 {
		fmt.Fprintf(b, "**Progress:** %s\n\n", ProgressBar(progress))
	}

	if g.Description != "" {
		fmt.Fprintf(b, "%s\n\n", g.Description)
	}

	if g.Motivation != "" {
		fmt.Fprintf(b, "**💫 Why this matters:** %s\n\n", g.Motivation)
	}

	fmt.Fprintf(b, "**📅 Timeline:** %s", model.FormatDuration(g.StartDate, g.EndDate, r.opts.ExportDate))
	if g.EndDate != nil {
		fmt.Fprintf(b, " (Due: %s)", r.date(*g.EndDate))
	}
	b.WriteString("\n\n")

	if g.HasTarget() && g.Unit != "" {
		fmt.Fprintf(b, "**🎯 Target:** %s %s\n", formatNumber(*g.TargetValue), g.Unit)
		if r.opts.IncludeProgress {
			fmt.Fprintf(b, "**📊 Current:** %s %s\n", formatNumber(g.CurrentValue), g.Unit)
		}
		b.WriteString("\n")
	}

	if r.opts.IncludeMilestones && len(g.Milestones) > 0 {
		b.WriteString("**🎪 Milestones:**\n\n")
		for _, m := range g.Milestones {
			fmt.Fprintf(b, "- %s %s", milestoneIcon(m.Status), m.Title)
			if m.DueDate != nil {
				fmt.Fprintf(b, " *(Due: %s)*", r.date(*m.DueDate))
			}
			b.WriteString("\n")
			if m.Description != "" {
				fmt.Fprintf(b, "  - %s\n", m.Description)
			}
		}
		b.WriteString("\n")
	}

	if g.Accountability != "" {
		fmt.Fprintf(b, "**🤝 Accountability Partner:** %s\n\n", g.Accountability)
	}

	if len(g.Resources) > 0 {
		b.WriteString("**📚 Resources:**\n")
		for _, res := range g.Resources {
			fmt.Fprintf(b, "- %s\n", res)
		}
		b.WriteString("\n")
	}

	if len(g.Obstacles) > 0 {
		b.WriteString("**⚠️ Anticipated Challenges:**\n")
		for _, o := range g.Obstacles {
			fmt.Fprintf(b, "- %s\n", o)
		}
		b.WriteString("\n")
	}

	if g.Reward != "" {
		fmt.Fprintf(b, "**🎉 Completion Reward:** %s\n\n", g.Reward)
	}

	if len(g.Tags) > 0 && r.opts.Customization.Theme != ThemeMinimal {
		tags := make([]string, len(g.Tags))
		for i, tag := range g.Tags {
			tags[i] = "`" + tag + "`"
		}
		fmt.Fprintf(b, "**🏷️ Tags:** %s\n\n", strings.Join(tags, " "))
	}

	if r.opts.IncludeReflections && g.Reflection != "" {
		fmt.Fprintf(b, "**💭 Reflection:** %s\n\n", g.Reflection)
	}
}
