package goalflow

import (
	"sort"
	"strings"

	"github.com/templui/goalcoach/internal/model"
)

type Question struct {
	Text     string         `json:"text"`
	Priority model.Priority `json:"priority"`
}

type Questions struct {
	Questions []Question `json:"questions"`
	Reply     string     `json:"reply"`
}

// Texts returns the question texts in generation order.
func (q Questions) Texts() []string {
	texts := make([]string, len(q.Questions))
	for i, question := range q.Questions {
		texts[i] = question.Text
	}
	return texts
}

// Top returns up to n questions, highest priority first. Ties keep their
// generation order.
func (q Questions) Top(n int) []string {
	sorted := make([]Question, len(q.Questions))
	copy(sorted, q.Questions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return priorityRank(sorted[i].Priority) > priorityRank(sorted[j].Priority)
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}
	texts := make([]string, len(sorted))
	for i, question := range sorted {
		texts[i] = question.Text
	}
	return texts
}

const (
	questionGoalType       = "What area of your life is this goal focused on? (fitness, learning, career, personal habits, etc.)"
	questionTimeframe      = "What timeframe are you thinking about for this goal? (weekly, monthly, quarterly, yearly)"
	questionMotivation     = "What's driving this goal for you? What would achieving it mean to you?"
	questionSpecificTarget = "How will you know when you've succeeded? What specific outcome are you aiming for?"
	questionPriority       = "How important is this goal compared to other things in your life right now?"

	replyAcknowledgedSuffix = "That's great! "
	replyGenericOpener      = "I'd love to help you create a meaningful goal! "
	replyQuestionLead       = "To make sure we create something that really works for you, "
	replyReady              = "It sounds like you have a clear vision. Let me help you structure this into an actionable goal profile."

	acknowledgeConfidence = 0.5
)

var followUps = map[model.GoalType]string{
	model.GoalTypeFitness:  "What's your current activity level, and what would you like it to be?",
	model.GoalTypeLearning: "What's your current knowledge level in this area, and how do you prefer to learn?",
	model.GoalTypeHabit:    "What time of day or situation would work best for building this habit?",
}

// GenerateQuestions turns the gaps in an extraction into clarifying
// questions and a conversational reply.
func GenerateQuestions(message string, extraction ExtractionResult) Questions {
	attrs := extraction.Attributes
	var questions []Question

	if attrs.GoalType == "" {
		questions = append(questions, Question{questionGoalType, model.PriorityHigh})
	}
	if attrs.Timeframe == "" {
		questions = append(questions, Question{questionTimeframe, model.PriorityHigh})
	}
	if attrs.Motivation == "" {
		questions = append(questions, Question{questionMotivation, model.PriorityHigh})
	}
	if attrs.SpecificTarget == nil {
		questions = append(questions, Question{questionSpecificTarget, model.PriorityMedium})
	}
	if attrs.Priority == "" {
		questions = append(questions, Question{questionPriority, model.PriorityMedium})
	}

	followUp, ok := followUps[attrs.GoalType]
	if ok {
		questions = append(questions, Question{followUp, model.PriorityMedium})
	}

	return Questions{
		Questions: questions,
		Reply:     buildReply(extraction, questions),
	}
}

func buildReply(extraction ExtractionResult, questions []Question) string {
	var b strings.Builder

	attrs := extraction.Attributes
	if extraction.Confidence > acknowledgeConfidence {
		b.WriteString("I can see you're interested in ")
		if attrs.GoalType != "" {
			b.WriteString("a " + string(attrs.GoalType) + " goal")
		} else {
			b.WriteString("setting a goal")
		}
		if attrs.Timeframe != "" {
			b.WriteString(" with a " + string(attrs.Timeframe) + " focus")
		}
		b.WriteString(". " + replyAcknowledgedSuffix)
	} else {
		b.WriteString(replyGenericOpener)
	}

	if len(questions) == 0 {
		b.WriteString(replyReady)
		return b.String()
	}

	primary := questions[0]
	for _, q := range questions {
		if q.Priority == model.PriorityHigh {
			primary = q
			break
		}
	}
	b.WriteString(replyQuestionLead + strings.ToLower(primary.Text))

	return b.String()
}

func priorityRank(p model.Priority) int {
	switch p {
	case model.PriorityCritical:
		return 3
	case model.PriorityHigh:
		return 2
	case model.PriorityMedium:
		return 1
	}
	return 0
}
