package export

import (
	"encoding/json"

	"github.com/templui/goalcoach/internal/model"
)

func (r *renderer) json() (string, error) {
	goals := make([]*model.Goal, len(r.goals))
	for i, g := range r.goals {
		c := *g
		if !r.opts.IncludeMilestones {
			c.Milestones = []model.Milestone{}
		}
		if c.Milestones == nil {
			c.Milestones = []model.Milestone{}
		}
		if !r.opts.IncludeReflections {
			c.Reflection = ""
		}
		goals[i] = &c
	}

	profile := model.GoalProfile{
		UserContext:     r.opts.UserContext,
		Goals:           goals,
		Recommendations: Recommendations(r.goals, r.opts.ExportDate),
		GeneratedAt:     r.opts.ExportDate,
		Version:         Version,
	}
	if r.opts.IncludeProgress {
		profile.Insights = Insights(r.goals)
	}

	b, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
