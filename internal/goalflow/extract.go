package goalflow

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/templui/goalcoach/internal/model"
)

type Intent string

const (
	IntentGoalCreation   Intent = "goal_creation"
	IntentGoalRefinement Intent = "goal_refinement"
	IntentProgressUpdate Intent = "progress_update"
	IntentGeneralInquiry Intent = "general_inquiry"
)

type Timeframe string

const (
	TimeframeWeekly    Timeframe = "weekly"
	TimeframeMonthly   Timeframe = "monthly"
	TimeframeQuarterly Timeframe = "quarterly"
	TimeframeYearly    Timeframe = "yearly"
)

// Days is the offset from the start date used for the goal's end date.
func (t Timeframe) Days() int {
	switch t {
	case TimeframeWeekly:
		return 7
	case TimeframeMonthly:
		return 30
	case TimeframeQuarterly:
		return 90
	case TimeframeYearly:
		return 365
	}
	return 0
}

// Noun is the timeframe as a period ("week", "month", ...).
func (t Timeframe) Noun() string {
	switch t {
	case TimeframeWeekly:
		return "week"
	case TimeframeMonthly:
		return "month"
	case TimeframeQuarterly:
		return "quarter"
	case TimeframeYearly:
		return "year"
	}
	return string(t)
}

// Names of attributes reported in ExtractionResult.MissingElements.
const (
	ElementGoalType   = "goal_type"
	ElementTimeframe  = "timeframe"
	ElementMotivation = "motivation"
	ElementPriority   = "priority"
)

const (
	baseConfidence       = 0.2
	attributeConfidence  = 0.2
	priorityConfidence   = 0.1
	lengthConfidence     = 0.1
	detailedMessageChars = 50

	readyConfidence = 0.7
	maxMissing      = 2
)

var (
	creationKeywords   = []string{"goal", "want to", "achieve", "weekly", "monthly", "habit", "learn", "improve"}
	refinementKeywords = []string{"adjust", "modify", "change", "update"}
	progressKeywords   = []string{"progress", "completed", "finished", "done"}

	motivationIndicators = []string{"because", "want to", "need to", "hope to", "desire to"}
)

type typeRule struct {
	goalType model.GoalType
	keywords []string
}

// Checked in order; the first match wins.
var typeRules = []typeRule{
	{model.GoalTypeWeekly, []string{"weekly"}},
	{model.GoalTypeMonthly, []string{"monthly"}},
	{model.GoalTypeYearly, []string{"yearly", "year"}},
	{model.GoalTypeHabit, []string{"habit", "daily"}},
	{model.GoalTypeFitness, []string{"fitness", "exercise"}},
	{model.GoalTypeLearning, []string{"learn", "study"}},
	{model.GoalTypeFinancial, []string{"money", "save", "financial"}},
	{model.GoalTypeCareer, []string{"career", "job"}},
}

var timeframeRules = []struct {
	keyword   string
	timeframe Timeframe
}{
	{"week", TimeframeWeekly},
	{"month", TimeframeMonthly},
	{"quarter", TimeframeQuarterly},
	{"year", TimeframeYearly},
}

var targetPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s+([a-z]+)`)

// Attributes is the partial attribute bag recovered from free text.
type Attributes struct {
	GoalType       model.GoalType `json:"goalType,omitempty"`
	Timeframe      Timeframe      `json:"timeframe,omitempty"`
	Priority       model.Priority `json:"priority,omitempty"`
	Motivation     string         `json:"motivation,omitempty"`
	Obstacles      []string       `json:"obstacles,omitempty"`
	SpecificTarget *Target        `json:"specificTarget,omitempty"`
}

type Target struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

type ExtractionResult struct {
	Intent          Intent     `json:"intent"`
	Attributes      Attributes `json:"extractedInfo"`
	Confidence      float64    `json:"confidence"`
	NeedsMoreInfo   bool       `json:"needsMoreInfo"`
	MissingElements []string   `json:"missingElements"`
	// Subject is the message that introduced the goal being discussed.
	Subject string `json:"subject"`
}

// Extract classifies message and recovers goal attributes from it. history
// holds the user's earlier turns in the thread, oldest first; attributes the
// message lacks are taken from the most recent turn that has them.
func Extract(message string, history []string) ExtractionResult {
	lower := strings.ToLower(message)

	result := ExtractionResult{
		Intent:     classifyIntent(lower),
		Attributes: extractAttributes(lower),
		Subject:    message,
	}

	for i := len(history) - 1; i >= 0; i-- {
		prior := strings.ToLower(history[i])
		result.Attributes = mergeAttributes(result.Attributes, extractAttributes(prior))
		if result.Intent != IntentGoalCreation && result.Subject == message && classifyIntent(prior) == IntentGoalCreation {
			result.Subject = history[i]
		}
	}

	confidence := baseConfidence
	missing := []string{}

	attrs := result.Attributes
	if attrs.GoalType != "" {
		confidence += attributeConfidence
	} else {
		missing = append(missing, ElementGoalType)
	}
	if attrs.Timeframe != "" {
		confidence += attributeConfidence
	} else {
		missing = append(missing, ElementTimeframe)
	}
	if attrs.Motivation != "" {
		confidence += attributeConfidence
	} else {
		missing = append(missing, ElementMotivation)
	}
	if attrs.Priority != "" {
		confidence += priorityConfidence
	} else {
		missing = append(missing, ElementPriority)
	}
	if len(message) > detailedMessageChars {
		confidence += lengthConfidence
	}

	result.Confidence = roundConfidence(confidence)
	result.MissingElements = missing
	result.NeedsMoreInfo = result.Confidence < readyConfidence || len(missing) > maxMissing

	return result
}

func classifyIntent(lower string) Intent {
	switch {
	case containsAny(lower, creationKeywords):
		return IntentGoalCreation
	case containsAny(lower, refinementKeywords):
		return IntentGoalRefinement
	case containsAny(lower, progressKeywords):
		return IntentProgressUpdate
	}
	return IntentGeneralInquiry
}

func extractAttributes(lower string) Attributes {
	var attrs Attributes

	for _, rule := range typeRules {
		if containsAny(lower, rule.keywords) {
			attrs.GoalType = rule.goalType
			break
		}
	}

	for _, rule := range timeframeRules {
		if strings.Contains(lower, rule.keyword) {
			attrs.Timeframe = rule.timeframe
			break
		}
	}

	switch {
	case containsAny(lower, []string{"urgent", "critical", "asap"}):
		attrs.Priority = model.PriorityCritical
	case containsAny(lower, []string{"important", "high"}):
		attrs.Priority = model.PriorityHigh
	case containsAny(lower, []string{"low priority", "eventually"}):
		attrs.Priority = model.PriorityLow
	}

	for _, indicator := range motivationIndicators {
		_, after, found := strings.Cut(lower, indicator)
		if found {
			attrs.Motivation = strings.TrimSpace(after)
			break
		}
	}

	match := targetPattern.FindStringSubmatch(lower)
	if match != nil {
		value, err := strconv.ParseFloat(match[1], 64)
		if err == nil && value > 0 {
			attrs.SpecificTarget = &Target{Value: value, Unit: match[2]}
		}
	}

	return attrs
}

func mergeAttributes(current, prior Attributes) Attributes {
	if current.GoalType == "" {
		current.GoalType = prior.GoalType
	}
	if current.Timeframe == "" {
		current.Timeframe = prior.Timeframe
	}
	if current.Priority == "" {
		current.Priority = prior.Priority
	}
	if current.Motivation == "" {
		current.Motivation = prior.Motivation
	}
	if current.SpecificTarget == nil {
		current.SpecificTarget = prior.SpecificTarget
	}
	if len(current.Obstacles) == 0 {
		current.Obstacles = prior.Obstacles
	}
	return current
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// roundConfidence strips float noise from the summed bonuses.
func roundConfidence(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
