package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

type GoalType string

const (
	GoalTypeWeekly    GoalType = "weekly"
	GoalTypeMonthly   GoalType = "monthly"
	GoalTypeQuarterly GoalType = "quarterly"
	GoalTypeYearly    GoalType = "yearly"
	GoalTypeHabit     GoalType = "habit"
	GoalTypeProject   GoalType = "project"
	GoalTypeLearning  GoalType = "learning"
	GoalTypeFitness   GoalType = "fitness"
	GoalTypeFinancial GoalType = "financial"
	GoalTypeCareer    GoalType = "career"
	GoalTypePersonal  GoalType = "personal"
	GoalTypeCreative  GoalType = "creative"
)

var goalTypes = []GoalType{
	GoalTypeWeekly, GoalTypeMonthly, GoalTypeQuarterly, GoalTypeYearly,
	GoalTypeHabit, GoalTypeProject, GoalTypeLearning, GoalTypeFitness,
	GoalTypeFinancial, GoalTypeCareer, GoalTypePersonal, GoalTypeCreative,
}

func (t GoalType) Valid() bool {
	for _, gt := range goalTypes {
		if t == gt {
			return true
		}
	}
	return false
}

type GoalStatus string

const (
	GoalStatusDraft     GoalStatus = "draft"
	GoalStatusActive    GoalStatus = "active"
	GoalStatusPaused    GoalStatus = "paused"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusCancelled GoalStatus = "cancelled"
)

func (s GoalStatus) Valid() bool {
	switch s {
	case GoalStatusDraft, GoalStatusActive, GoalStatusPaused, GoalStatusCompleted, GoalStatusCancelled:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Goal is a trackable aspiration. Milestones are owned by the goal and stored
// in their own table, so they are not mapped to a column.
type Goal struct {
	ID             string      `db:"id" json:"id"`
	UserID         string      `db:"user_id" json:"userId,omitempty"`
	Title          string      `db:"title" json:"title"`
	Description    string      `db:"description" json:"description,omitempty"`
	Type           GoalType    `db:"type" json:"type"`
	Status         GoalStatus  `db:"status" json:"status"`
	Priority       Priority    `db:"priority" json:"priority"`
	StartDate      time.Time   `db:"start_date" json:"startDate"`
	EndDate        *time.Time  `db:"end_date" json:"endDate,omitempty"`
	TargetValue    *float64    `db:"target_value" json:"targetValue,omitempty"`
	CurrentValue   float64     `db:"current_value" json:"currentValue"`
	Unit           string      `db:"unit" json:"unit,omitempty"`
	Motivation     string      `db:"motivation" json:"motivation,omitempty"`
	Reflection     string      `db:"reflection" json:"reflection,omitempty"`
	Accountability string      `db:"accountability" json:"accountability,omitempty"`
	Reward         string      `db:"reward" json:"reward,omitempty"`
	Tags           StringList  `db:"tags" json:"tags"`
	Obstacles      StringList  `db:"obstacles" json:"obstacles"`
	Resources      StringList  `db:"resources" json:"resources"`
	Milestones     []Milestone `db:"-" json:"milestones"`
	CreatedAt      time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updatedAt"`
}

// Touch advances UpdatedAt to now. It never moves the timestamp backwards.
func (g *Goal) Touch(now time.Time) {
	if now.After(g.UpdatedAt) {
		g.UpdatedAt = now
	}
}

// HasTarget reports whether the goal carries a usable numeric target.
func (g *Goal) HasTarget() bool {
	return g.TargetValue != nil && *g.TargetValue != 0
}

func (g *Goal) CompletedMilestones() int {
	n := 0
	for _, m := range g.Milestones {
		if m.Status == MilestoneStatusCompleted {
			n++
		}
	}
	return n
}

// CalculateProgress returns the goal's completion percentage in [0, 100].
// A numeric target wins over milestones.
func CalculateProgress(g *Goal) float64 {
	if g.HasTarget() {
		return clampPercent(g.CurrentValue / *g.TargetValue * 100)
	}

	if len(g.Milestones) > 0 {
		return float64(g.CompletedMilestones()) / float64(len(g.Milestones)) * 100
	}

	return 0
}

func clampPercent(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

// FormatDuration renders the span between start and end (or now when end is
// nil) as days, weeks, months or years.
func FormatDuration(start time.Time, end *time.Time, now time.Time) string {
	to := now
	if end != nil {
		to = *end
	}

	diff := to.Sub(start)
	if diff < 0 {
		diff = -diff
	}
	days := int(math.Ceil(diff.Hours() / 24))

	switch {
	case days <= 7:
		return plural(days, "day")
	case days <= 30:
		return plural(days/7, "week")
	case days <= 365:
		return plural(days/30, "month")
	default:
		return plural(days/365, "year")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// StringList is a list column persisted as a JSON array.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return errors.New("unsupported type for StringList")
	}

	var out []string
	err := json.Unmarshal(data, &out)
	if err != nil {
		return fmt.Errorf("failed to decode string list: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}

// GoalProfile is the export envelope around a set of goals.
type GoalProfile struct {
	UserContext     *UserContext `json:"userContext,omitempty"`
	Goals           []*Goal      `json:"goals"`
	Insights        []string     `json:"insights,omitempty"`
	Recommendations []string     `json:"recommendations,omitempty"`
	GeneratedAt     time.Time    `json:"generatedAt"`
	Version         string       `json:"version"`
}

type UserContext struct {
	Name     string `json:"name,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}
