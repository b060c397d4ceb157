package goalflow

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/templui/goalcoach/internal/model"
)

type Difficulty string

const (
	DifficultyEasy            Difficulty = "easy"
	DifficultyModerate        Difficulty = "moderate"
	DifficultyChallenging     Difficulty = "challenging"
	DifficultyVeryChallenging Difficulty = "very_challenging"
)

const (
	maxTitleLength    = 50
	defaultMotivation = "Personal growth and achievement"
	longGoalDays      = 30
)

type TimeframeInput struct {
	Start    time.Time  `json:"startDate"`
	End      *time.Time `json:"endDate,omitempty"`
	Duration string     `json:"duration,omitempty"`
}

type MetricsInput struct {
	Target  *float64 `json:"targetValue,omitempty"`
	Current float64  `json:"currentValue"`
	Unit    string   `json:"unit,omitempty"`
}

type MotivationInput struct {
	Why         string   `json:"why"`
	Inspiration string   `json:"inspiration,omitempty"`
	Values      []string `json:"values,omitempty"`
}

type StrategyInput struct {
	Approach    string   `json:"approach,omitempty"`
	Frequency   string   `json:"frequency,omitempty"`
	Environment string   `json:"environment,omitempty"`
	Habits      []string `json:"habits,omitempty"`
}

type MilestoneInput struct {
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	DueDate         *time.Time `json:"dueDate,omitempty"`
	EstimatedEffort string     `json:"estimatedEffort,omitempty"`
}

type SupportInput struct {
	Accountability string   `json:"accountability,omitempty"`
	Resources      []string `json:"resources,omitempty"`
	Mentorship     string   `json:"mentorship,omitempty"`
	Community      string   `json:"community,omitempty"`
}

type ObstaclesInput struct {
	Anticipated []string `json:"anticipated,omitempty"`
	Mitigation  []string `json:"mitigation,omitempty"`
	BackupPlans []string `json:"backupPlans,omitempty"`
}

type RewardsInput struct {
	MilestoneRewards    []string `json:"milestoneRewards,omitempty"`
	CompletionReward    string   `json:"completionReward,omitempty"`
	IntrinsicMotivation string   `json:"intrinsicMotivation,omitempty"`
}

// CreationRequest is everything known about a goal at the moment it is
// materialized.
type CreationRequest struct {
	UserID      string           `json:"userId,omitempty"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Type        model.GoalType   `json:"type"`
	Priority    model.Priority   `json:"priority"`
	Timeframe   TimeframeInput   `json:"timeframe"`
	Metrics     MetricsInput     `json:"metrics"`
	Motivation  MotivationInput  `json:"motivation"`
	Strategy    StrategyInput    `json:"strategy"`
	Milestones  []MilestoneInput `json:"milestones,omitempty"`
	Support     SupportInput     `json:"support"`
	Obstacles   ObstaclesInput   `json:"obstacles"`
	Rewards     RewardsInput     `json:"rewards"`
}

type CreationResult struct {
	Goal                *model.Goal `json:"goal"`
	Confidence          float64     `json:"confidence"`
	Recommendations     []string    `json:"recommendations"`
	NextSteps           []string    `json:"nextSteps"`
	EstimatedDifficulty Difficulty  `json:"estimatedDifficulty"`
	SuccessProbability  float64     `json:"successProbability"`
}

// BuildCreationRequest maps an extraction onto a creation request. The title
// comes from the message that introduced the goal.
func BuildCreationRequest(extraction ExtractionResult, raw string, now time.Time) CreationRequest {
	subject := extraction.Subject
	if subject == "" {
		subject = raw
	}

	attrs := extraction.Attributes

	goalType := attrs.GoalType
	if goalType == "" {
		goalType = model.GoalTypePersonal
	}
	priority := attrs.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	why := attrs.Motivation
	if why == "" {
		why = defaultMotivation
	}

	req := CreationRequest{
		Title:       truncateTitle(subject),
		Description: subject,
		Type:        goalType,
		Priority:    priority,
		Timeframe: TimeframeInput{
			Start:    now,
			Duration: string(attrs.Timeframe),
		},
		Motivation: MotivationInput{Why: why},
		Obstacles:  ObstaclesInput{Anticipated: attrs.Obstacles},
	}

	days := attrs.Timeframe.Days()
	if days > 0 {
		end := now.AddDate(0, 0, days)
		req.Timeframe.End = &end
	}

	if attrs.SpecificTarget != nil {
		target := attrs.SpecificTarget.Value
		req.Metrics = MetricsInput{Target: &target, Unit: attrs.SpecificTarget.Unit}
	}

	return req
}

// CreateGoal materializes a draft goal from req and scores how complete and
// achievable it is.
func CreateGoal(req CreationRequest, now time.Time) (*CreationResult, error) {
	err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	milestones := make([]model.Milestone, 0, len(req.Milestones))
	for i, m := range req.Milestones {
		milestone := model.Milestone{
			ID:          uuid.New().String(),
			Position:    i,
			Title:       m.Title,
			Description: m.Description,
			DueDate:     m.DueDate,
			Status:      model.MilestoneStatusNotStarted,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if m.EstimatedEffort != "" {
			milestone.Notes = "Estimated effort: " + m.EstimatedEffort
		}
		milestones = append(milestones, milestone)
	}

	goal := &model.Goal{
		ID:             uuid.New().String(),
		UserID:         req.UserID,
		Title:          req.Title,
		Description:    req.Description,
		Type:           req.Type,
		Status:         model.GoalStatusDraft,
		Priority:       req.Priority,
		StartDate:      req.Timeframe.Start,
		EndDate:        req.Timeframe.End,
		TargetValue:    req.Metrics.Target,
		CurrentValue:   req.Metrics.Current,
		Unit:           req.Metrics.Unit,
		Motivation:     req.Motivation.Why,
		Accountability: req.Support.Accountability,
		Reward:         req.Rewards.CompletionReward,
		Tags:           buildTags(req),
		Obstacles:      nonNil(req.Obstacles.Anticipated),
		Resources:      nonNil(req.Support.Resources),
		Milestones:     milestones,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	difficulty := estimateDifficulty(req, len(milestones))

	return &CreationResult{
		Goal:                goal,
		Confidence:          creationConfidence(goal),
		Recommendations:     recommend(req, goal),
		NextSteps:           nextSteps(req, goal),
		EstimatedDifficulty: difficulty,
		SuccessProbability:  successProbability(req, len(milestones), difficulty),
	}, nil
}

func validateRequest(req CreationRequest) error {
	switch {
	case strings.TrimSpace(req.Title) == "":
		return &CreationError{Field: "title", Reason: "is required"}
	case !req.Type.Valid():
		return &CreationError{Field: "type", Reason: fmt.Sprintf("unknown goal type %q", req.Type)}
	case !req.Priority.Valid():
		return &CreationError{Field: "priority", Reason: fmt.Sprintf("unknown priority %q", req.Priority)}
	case req.Timeframe.Start.IsZero():
		return &CreationError{Field: "timeframe.startDate", Reason: "is required"}
	case req.Timeframe.End != nil && req.Timeframe.End.Before(req.Timeframe.Start):
		return &CreationError{Field: "timeframe.endDate", Reason: "is before the start date"}
	case req.Metrics.Target != nil && (*req.Metrics.Target < 0 || math.IsNaN(*req.Metrics.Target)):
		return &CreationError{Field: "metrics.targetValue", Reason: "must be a positive number"}
	}

	for i, m := range req.Milestones {
		if strings.TrimSpace(m.Title) == "" {
			return &CreationError{Field: fmt.Sprintf("milestones[%d].title", i), Reason: "is required"}
		}
	}
	return nil
}

func creationConfidence(goal *model.Goal) float64 {
	confidence := 0.3

	if goal.Description != "" {
		confidence += 0.1
	}
	if goal.EndDate != nil {
		confidence += 0.1
	}
	if goal.HasTarget() {
		confidence += 0.15
	}
	if len(goal.Milestones) > 0 {
		confidence += 0.15
	}
	if goal.Accountability != "" {
		confidence += 0.1
	}
	if len(goal.Obstacles) > 0 {
		confidence += 0.1
	}

	return math.Min(1, roundConfidence(confidence))
}

func recommend(req CreationRequest, goal *model.Goal) []string {
	recommendations := []string{}

	if goal.Description == "" {
		recommendations = append(recommendations, "Consider adding more detail about what success looks like")
	}

	if goal.EndDate == nil && goal.Type != model.GoalTypeHabit {
		recommendations = append(recommendations, "Setting a target completion date would help with planning")
	}

	if !goal.HasTarget() {
		switch goal.Type {
		case model.GoalTypeFitness, model.GoalTypeLearning, model.GoalTypeFinancial:
			recommendations = append(recommendations, "Adding a specific measurable target would make progress easier to track")
		}
	}

	if len(goal.Milestones) == 0 && goal.EndDate != nil && durationDays(goal.StartDate, *goal.EndDate) > longGoalDays {
		recommendations = append(recommendations, "Consider breaking this into smaller milestones to maintain motivation")
	}

	if goal.Accountability == "" {
		recommendations = append(recommendations, "Finding someone to help keep you accountable could increase your success rate")
	}

	if len(req.Obstacles.Anticipated) == 0 {
		recommendations = append(recommendations, "Think about potential challenges you might face and how to overcome them")
	}

	return recommendations
}

func nextSteps(req CreationRequest, goal *model.Goal) []string {
	var steps []string

	if len(goal.Milestones) > 0 {
		steps = append(steps, "Start with: "+goal.Milestones[0].Title)
	} else {
		steps = append(steps, "Define your first concrete action step")
	}

	resources := req.Support.Resources
	if len(resources) > 0 {
		if len(resources) > 2 {
			resources = resources[:2]
		}
		steps = append(steps, "Gather resources: "+strings.Join(resources, ", "))
	}

	if req.Strategy.Environment != "" {
		steps = append(steps, "Set up your environment: "+req.Strategy.Environment)
	}

	return append(steps, "Set a regular check-in schedule for progress review")
}

func estimateDifficulty(req CreationRequest, milestones int) Difficulty {
	score := 0

	if req.Timeframe.End != nil {
		days := durationDays(req.Timeframe.Start, *req.Timeframe.End)
		if days > 365 {
			score += 2
		} else if days > 90 {
			score++
		}
	}

	if milestones > 5 {
		score++
	}
	if len(req.Obstacles.Anticipated) > 3 {
		score++
	}
	if req.Priority == model.PriorityCritical {
		score++
	}
	if req.Support.Accountability == "" {
		score++
	}

	switch {
	case score <= 1:
		return DifficultyEasy
	case score <= 3:
		return DifficultyModerate
	case score <= 5:
		return DifficultyChallenging
	}
	return DifficultyVeryChallenging
}

func successProbability(req CreationRequest, milestones int, difficulty Difficulty) float64 {
	p := 0.5

	if req.Support.Accountability != "" {
		p += 0.2
	}
	if milestones > 0 {
		p += 0.15
	}
	if len(req.Motivation.Why) > 20 {
		p += 0.1
	}
	if len(req.Obstacles.Mitigation) > 0 {
		p += 0.1
	}
	if req.Strategy.Frequency != "" {
		p += 0.05
	}

	switch difficulty {
	case DifficultyVeryChallenging:
		p -= 0.2
	case DifficultyChallenging:
		p -= 0.1
	}

	return math.Max(0.1, math.Min(0.95, roundConfidence(p)))
}

var whitespace = regexp.MustCompile(`\s+`)

// buildTags collects type, values, habits and priority, keeping the first
// occurrence of each tag.
func buildTags(req CreationRequest) model.StringList {
	candidates := []string{strings.ToLower(string(req.Type))}
	candidates = append(candidates, req.Motivation.Values...)
	for _, habit := range req.Strategy.Habits {
		candidates = append(candidates, "habit:"+whitespace.ReplaceAllString(strings.ToLower(habit), "-"))
	}
	candidates = append(candidates, strings.ToLower(string(req.Priority)))

	seen := make(map[string]bool, len(candidates))
	tags := model.StringList{}
	for _, tag := range candidates {
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

func truncateTitle(message string) string {
	runes := []rune(strings.TrimSpace(message))
	if len(runes) > maxTitleLength {
		return string(runes[:maxTitleLength]) + "..."
	}
	return string(runes)
}

func durationDays(start, end time.Time) int {
	return int(math.Ceil(end.Sub(start).Hours() / 24))
}

func nonNil(s []string) model.StringList {
	if s == nil {
		return model.StringList{}
	}
	return s
}
