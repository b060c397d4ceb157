package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"
	"github.com/templui/goalcoach/internal/export"
	"github.com/templui/goalcoach/internal/llm"
	"github.com/templui/goalcoach/internal/model"
	"github.com/templui/goalcoach/internal/repository"
)

const (
	SourceLLM   = "llm"
	SourceRules = "rules"

	recommendationSystem = `You are a goal coach. Analyze the user's goals and answer with JSON only: an object with "insights", "recommendations" and "riskAssessment", each an array of short sentences.`

	defaultRecommendation = "Continue working consistently toward your goals"
	defaultRisk           = "Monitor progress regularly to stay on track"
)

var errEmptyRecommendations = errors.New("no recommendations in model output")

type Recommendations struct {
	Insights        []string `json:"insights"`
	Recommendations []string `json:"recommendations"`
	RiskAssessment  []string `json:"riskAssessment"`
	// Source is SourceLLM or SourceRules.
	Source string `json:"source"`
}

// RecommendationService reviews a user's goals. The language model is asked
// first; its output is repaired when it is not quite JSON, and the rule based
// review is used whenever the model cannot help.
type RecommendationService struct {
	goals     *GoalService
	completer llm.Completer
	now       func() time.Time
}

func NewRecommendationService(goals *GoalService, completer llm.Completer) *RecommendationService {
	return &RecommendationService{
		goals:     goals,
		completer: completer,
		now:       time.Now,
	}
}

func (s *RecommendationService) Recommend(ctx context.Context, userID string) (*Recommendations, error) {
	goals, err := s.goals.Goals(userID, repository.GoalSortRecent)
	if err != nil {
		return nil, err
	}

	rules := s.rules(goals)
	if s.completer == nil || len(goals) == 0 {
		return rules, nil
	}

	payload, err := json.MarshalIndent(goals, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode goals: %w", err)
	}

	resp, err := s.completer.Complete(ctx, llm.Request{
		Prompt:   "Analyze the following goals and provide insights, recommendations, and risk assessment.\n\nGoals: " + string(payload),
		ThreadID: "recommendations",
		UserID:   userID,
		System:   recommendationSystem,
	})
	if err != nil {
		slog.Warn("language model recommendations failed, using rules", "error", err, "user_id", userID)
		return rules, nil
	}

	parsed, err := parseRecommendations(resp.Text)
	if err != nil {
		slog.Warn("unusable model recommendations, using rules", "error", err, "user_id", userID)
		return rules, nil
	}
	return parsed, nil
}

func (s *RecommendationService) rules(goals []*model.Goal) *Recommendations {
	insights := append([]string{fmt.Sprintf("You have %d goals in progress", openGoals(goals))}, export.Insights(goals)...)

	recommendations := export.Recommendations(goals, s.now().UTC())
	if len(recommendations) == 0 {
		recommendations = []string{defaultRecommendation}
	}

	return &Recommendations{
		Insights:        insights,
		Recommendations: recommendations,
		RiskAssessment:  []string{defaultRisk},
		Source:          SourceRules,
	}
}

func openGoals(goals []*model.Goal) int {
	n := 0
	for _, g := range goals {
		if g.Status != model.GoalStatusCompleted && g.Status != model.GoalStatusCancelled {
			n++
		}
	}
	return n
}

// parseRecommendations accepts the model's answer with or without a markdown
// code fence, repairing malformed JSON.
func parseRecommendations(text string) (*Recommendations, error) {
	text = stripCodeFence(text)

	var r Recommendations
	err := json.Unmarshal([]byte(text), &r)
	if err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(text)
		if repairErr != nil {
			return nil, fmt.Errorf("failed to repair model JSON: %w", repairErr)
		}
		r = Recommendations{}
		err = json.Unmarshal([]byte(repaired), &r)
		if err != nil {
			return nil, fmt.Errorf("failed to decode model JSON: %w", err)
		}
	}

	if len(r.Insights)+len(r.Recommendations)+len(r.RiskAssessment) == 0 {
		return nil, errEmptyRecommendations
	}
	if r.Insights == nil {
		r.Insights = []string{}
	}
	if r.Recommendations == nil {
		r.Recommendations = []string{}
	}
	if r.RiskAssessment == nil {
		r.RiskAssessment = []string{}
	}
	r.Source = SourceLLM
	return &r, nil
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimPrefix(text, "json")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
