package export

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/goalcoach/internal/model"
)

var exportDate = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func sampleGoals() []*model.Goal {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return []*model.Goal{
		{
			ID:             "g1",
			Title:          "Run a half marathon",
			Description:    "Build up to 21km",
			Type:           model.GoalTypeFitness,
			Status:         model.GoalStatusActive,
			Priority:       model.PriorityHigh,
			StartDate:      start,
			EndDate:        ptr(start.AddDate(0, 6, 0)),
			TargetValue:    ptr(21.0),
			CurrentValue:   10.5,
			Unit:           "km",
			Motivation:     `Feel "strong", healthy`,
			Accountability: "Sam",
			Reflection:     "Long runs are getting easier",
			Tags:           model.StringList{"fitness", "high"},
			Milestones: []model.Milestone{
				{ID: "m1", Title: "Run 5km", Status: model.MilestoneStatusCompleted},
				{ID: "m2", Title: "Run 10km", Status: model.MilestoneStatusInProgress},
			},
		},
		{
			ID:        "g2",
			Title:     "Read every day",
			Type:      model.GoalTypeHabit,
			Status:    model.GoalStatusDraft,
			Priority:  model.PriorityMedium,
			StartDate: start,
			Tags:      model.StringList{"habit"},
		},
	}
}

func options() Options {
	opts := DefaultOptions()
	opts.ExportDate = exportDate
	return opts
}

func TestExport_FilenameAndMimeType(t *testing.T) {
	tests := []struct {
		format   Format
		filename string
		mime     string
	}{
		{FormatJSON, "goalcoach-goals-2025-03-14.json", "application/json"},
		{FormatMarkdown, "goalcoach-goals-2025-03-14.md", "text/markdown"},
		{FormatCSV, "goalcoach-goals-2025-03-14.csv", "text/csv"},
		{FormatPDF, "goalcoach-goals-2025-03-14.html", "text/html"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			res, err := Export(sampleGoals(), tt.format, options())
			require.NoError(t, err)
			assert.Equal(t, tt.filename, res.Filename)
			assert.Equal(t, tt.mime, res.MimeType)
			assert.Equal(t, len(res.Content), res.Size)
			assert.Equal(t, 2, res.Metadata.GoalCount)
			assert.Equal(t, Version, res.Metadata.Version)
		})
	}
}

func TestExport_UnsupportedFormat(t *testing.T) {
	_, err := Export(sampleGoals(), Format("docx"), options())
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ParseFormat("xlsx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	f, err := ParseFormat("MD")
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, f)
}

func TestExport_JSONRoundTrip(t *testing.T) {
	goals := sampleGoals()
	res, err := Export(goals, FormatJSON, options())
	require.NoError(t, err)

	var profile model.GoalProfile
	require.NoError(t, json.Unmarshal([]byte(res.Content), &profile))

	require.Len(t, profile.Goals, len(goals))
	for i, g := range goals {
		assert.Equal(t, g.ID, profile.Goals[i].ID)
		assert.Equal(t, g.Title, profile.Goals[i].Title)
		assert.Equal(t, g.Type, profile.Goals[i].Type)
	}
	assert.Equal(t, Version, profile.Version)
	assert.True(t, profile.GeneratedAt.Equal(exportDate))
	assert.NotEmpty(t, profile.Insights)
	assert.Contains(t, res.Content, "\n  \"goals\"")
}

func TestExport_JSONStripsMilestonesAndReflection(t *testing.T) {
	opts := options()
	opts.IncludeMilestones = false

	res, err := Export(sampleGoals(), FormatJSON, opts)
	require.NoError(t, err)

	var profile model.GoalProfile
	require.NoError(t, json.Unmarshal([]byte(res.Content), &profile))
	assert.Empty(t, profile.Goals[0].Milestones)
	assert.Empty(t, profile.Goals[0].Reflection)
	assert.Contains(t, res.Content, `"milestones": []`)

	opts.IncludeReflections = true
	res, err = Export(sampleGoals(), FormatJSON, opts)
	require.NoError(t, err)
	assert.Contains(t, res.Content, "Long runs are getting easier")
}

func TestExport_JSONDoesNotMutateInput(t *testing.T) {
	goals := sampleGoals()
	opts := options()
	opts.IncludeMilestones = false

	_, err := Export(goals, FormatJSON, opts)
	require.NoError(t, err)
	assert.Len(t, goals[0].Milestones, 2)
	assert.NotEmpty(t, goals[0].Reflection)
}

func TestExport_Idempotent(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatMarkdown, FormatCSV, FormatPDF} {
		a, err := Export(sampleGoals(), format, options())
		require.NoError(t, err)
		b, err := Export(sampleGoals(), format, options())
		require.NoError(t, err)
		assert.Equal(t, a.Content, b.Content, "format %s", format)
	}
}

func TestExport_CSVEmptyList(t *testing.T) {
	res, err := Export(nil, FormatCSV, options())
	require.NoError(t, err)

	want := "Title,Type,Priority,Status,Start Date,End Date,Target Value,Current Value,Unit,Progress %,Motivation,Accountability,Tags,Milestones Count,Completed Milestones\n"
	assert.Equal(t, want, res.Content)
	assert.Greater(t, res.Size, 0)
}

func TestExport_CSVWithoutMilestoneColumns(t *testing.T) {
	opts := options()
	opts.IncludeMilestones = false

	res, err := Export(nil, FormatCSV, opts)
	require.NoError(t, err)
	assert.Equal(t, "Title,Type,Priority,Status,Start Date,End Date,Target Value,Current Value,Unit,Progress %,Motivation,Accountability,Tags\n", res.Content)
}

func TestExport_CSVRows(t *testing.T) {
	res, err := Export(sampleGoals(), FormatCSV, options())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(res.Content, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `Run a half marathon,fitness,high,active,2025-01-01,2025-07-01,21,10.5,km,50.0,"Feel ""strong"", healthy",Sam,fitness; high,2,1`, lines[1])
	assert.Equal(t, "Read every day,habit,medium,draft,2025-01-01,,,0,,0.0,,,habit,0,0", lines[2])
}

func TestExport_Markdown(t *testing.T) {
	opts := options()
	opts.UserContext = &model.UserContext{Name: "Ada"}
	opts.Customization.Theme = ThemeDetailed

	res, err := Export(sampleGoals(), FormatMarkdown, opts)
	require.NoError(t, err)

	c := res.Content
	assert.True(t, strings.HasPrefix(c, "# Ada's Goal Profile\n\n"))
	assert.Contains(t, c, "**Goals Count:** 2")
	assert.Contains(t, c, "1. [Run a half marathon](#run-a-half-marathon)")
	assert.Contains(t, c, "**Type:** fitness | **Priority:** high | **Status:** active")
	assert.Contains(t, c, "**Progress:** ██████████░░░░░░░░░░ 50.0%")
	assert.Contains(t, c, "- ✅ Run 5km")
	assert.Contains(t, c, "- 🔄 Run 10km")
	assert.Contains(t, c, "**🏷️ Tags:** `fitness` `high`")
	assert.Contains(t, c, "## 💡 Insights")
	assert.Contains(t, c, "## 📈 Recommendations")
	assert.NotContains(t, c, "Reflection")
}

func TestAnchor(t *testing.T) {
	assert.Equal(t, "read-12-books-this-year", Anchor("Read 12 books this year!"))
	assert.Equal(t, "learn-go--rust", Anchor("Learn Go & Rust"))
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, strings.Repeat("█", 5)+strings.Repeat("░", 15)+" 25.0%", ProgressBar(25))
	assert.Equal(t, strings.Repeat("█", 20)+" 100.0%", ProgressBar(100))
}

func TestExport_HTMLEscapesContent(t *testing.T) {
	goals := sampleGoals()
	goals[0].Title = "<script>alert(1)</script>"

	res, err := Export(goals, FormatPDF, options())
	require.NoError(t, err)
	assert.NotContains(t, res.Content, "<script>alert(1)</script>")
	assert.Contains(t, res.Content, "width: 50.0%;")
	assert.Contains(t, res.Content, "<!DOCTYPE html>")
}

func TestInsights(t *testing.T) {
	insights := Insights(sampleGoals())
	assert.Equal(t, []string{
		"You have a strong focus on fitness goals (1 out of 2 goals)",
		"Your average progress across active goals is 50.0% - great momentum!",
		"You've completed 1 out of 2 milestones (50.0%)",
	}, insights)

	assert.Empty(t, Insights(nil))
}

func TestInsights_FocusWarning(t *testing.T) {
	var goals []*model.Goal
	for range 4 {
		goals = append(goals, &model.Goal{Type: model.GoalTypeCareer, Status: model.GoalStatusActive})
	}
	insights := Insights(goals)
	assert.Contains(t, insights, "You have 4 active goals - consider prioritizing 2-3 key goals for better focus")
}

func TestRecommendations_Overdue(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	goals := []*model.Goal{
		{Type: model.GoalTypeCareer, Status: model.GoalStatusActive, EndDate: ptr(now.AddDate(0, 0, -1)), Accountability: "boss",
			Milestones: []model.Milestone{{Status: model.MilestoneStatusNotStarted}}},
		{Type: model.GoalTypeCareer, Status: model.GoalStatusCompleted, EndDate: ptr(now.AddDate(0, 0, -5)), Accountability: "boss",
			Milestones: []model.Milestone{{Status: model.MilestoneStatusCompleted}}},
	}

	recs := Recommendations(goals, now)
	var overdue []string
	for _, r := range recs {
		if strings.Contains(r, "overdue") {
			overdue = append(overdue, r)
		}
	}
	require.Len(t, overdue, 1)
	assert.Equal(t, "Review and update 1 overdue goals - consider adjusting timelines or breaking them down", overdue[0])
}

func TestRecommendations_Counts(t *testing.T) {
	recs := Recommendations(sampleGoals(), exportDate)
	assert.Equal(t, []string{
		"Add accountability partners to 1 goals to increase success rates",
	}, recs)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Very Challenging", Label("very_challenging"))
	assert.Equal(t, "Fitness", Label(model.GoalTypeFitness))
}
