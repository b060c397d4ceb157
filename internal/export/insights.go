package export

import (
	"fmt"
	"time"

	"github.com/templui/goalcoach/internal/model"
)

const focusWarningThreshold = 3

// Insights summarizes a goal collection. Each sentence is emitted only when
// its precondition holds.
func Insights(goals []*model.Goal) []string {
	insights := []string{}
	if len(goals) == 0 {
		return insights
	}

	goalType, count := mostCommonType(goals)
	insights = append(insights, fmt.Sprintf("You have a strong focus on %s goals (%d out of %d goals)", goalType, count, len(goals)))

	active := 0
	for _, g := range goals {
		if g.Status == model.GoalStatusActive || g.Status == model.GoalStatusDraft {
			active++
		}
	}
	if active > focusWarningThreshold {
		insights = append(insights, fmt.Sprintf("You have %d active goals - consider prioritizing 2-3 key goals for better focus", active))
	}

	var (
		progressSum   float64
		withProgress  int
		milestones    int
		completedMile int
	)
	for _, g := range goals {
		p := model.CalculateProgress(g)
		if p > 0 {
			progressSum += p
			withProgress++
		}
		milestones += len(g.Milestones)
		completedMile += g.CompletedMilestones()
	}

	if withProgress > 0 {
		insights = append(insights, fmt.Sprintf("Your average progress across active goals is %.1f%% - great momentum!", progressSum/float64(withProgress)))
	}

	if milestones > 0 {
		ratio := float64(completedMile) / float64(milestones) * 100
		insights = append(insights, fmt.Sprintf("You've completed %d out of %d milestones (%.1f%%)", completedMile, milestones, ratio))
	}

	return insights
}

// mostCommonType breaks ties by first appearance.
func mostCommonType(goals []*model.Goal) (model.GoalType, int) {
	counts := make(map[model.GoalType]int)
	var order []model.GoalType
	for _, g := range goals {
		if counts[g.Type] == 0 {
			order = append(order, g.Type)
		}
		counts[g.Type]++
	}

	best := order[0]
	for _, t := range order[1:] {
		if counts[t] > counts[best] {
			best = t
		}
	}
	return best, counts[best]
}

// Recommendations lists structural gaps across goals, each with a count.
// now decides which goals are overdue.
func Recommendations(goals []*model.Goal, now time.Time) []string {
	recommendations := []string{}

	var noDeadline, noAccountability, noMilestones, overdue int
	for _, g := range goals {
		if g.EndDate == nil && g.Type != model.GoalTypeHabit {
			noDeadline++
		}
		if g.Accountability == "" {
			noAccountability++
		}
		if len(g.Milestones) == 0 && g.EndDate != nil {
			noMilestones++
		}
		if g.EndDate != nil && g.EndDate.Before(now) && g.Status != model.GoalStatusCompleted {
			overdue++
		}
	}

	if noDeadline > 0 {
		recommendations = append(recommendations, fmt.Sprintf("Consider setting deadlines for %d goals to improve focus and urgency", noDeadline))
	}
	if noAccountability > 0 {
		recommendations = append(recommendations, fmt.Sprintf("Add accountability partners to %d goals to increase success rates", noAccountability))
	}
	if noMilestones > 0 {
		recommendations = append(recommendations, fmt.Sprintf("Break down %d long-term goals into smaller milestones for better tracking", noMilestones))
	}
	if overdue > 0 {
		recommendations = append(recommendations, fmt.Sprintf("Review and update %d overdue goals - consider adjusting timelines or breaking them down", overdue))
	}

	return recommendations
}
