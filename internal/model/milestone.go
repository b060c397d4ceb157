package model

import (
	"time"
)

type MilestoneStatus string

const (
	MilestoneStatusNotStarted MilestoneStatus = "not_started"
	MilestoneStatusInProgress MilestoneStatus = "in_progress"
	MilestoneStatusCompleted  MilestoneStatus = "completed"
	MilestoneStatusOverdue    MilestoneStatus = "overdue"
)

func (s MilestoneStatus) Valid() bool {
	switch s {
	case MilestoneStatusNotStarted, MilestoneStatusInProgress, MilestoneStatusCompleted, MilestoneStatusOverdue:
		return true
	}
	return false
}

type Milestone struct {
	ID          string          `db:"id" json:"id"`
	GoalID      string          `db:"goal_id" json:"-"`
	Position    int             `db:"position" json:"-"`
	Title       string          `db:"title" json:"title"`
	Description string          `db:"description" json:"description,omitempty"`
	DueDate     *time.Time      `db:"due_date" json:"dueDate,omitempty"`
	Status      MilestoneStatus `db:"status" json:"status"`
	Progress    float64         `db:"progress" json:"progress"`
	Notes       string          `db:"notes" json:"notes,omitempty"`
	CompletedAt *time.Time      `db:"completed_at" json:"completedAt,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updatedAt"`
}

// Normalize keeps status and progress consistent: a completed milestone is at
// 100% with a completion time, and reaching 100% completes it. Leaving the
// completed state clears the completion time.
func (m *Milestone) Normalize(now time.Time) {
	m.Progress = clampPercent(m.Progress)

	if m.Status != MilestoneStatusCompleted && m.Progress >= 100 {
		m.Status = MilestoneStatusCompleted
	}

	if m.Status == MilestoneStatusCompleted {
		m.Progress = 100
		if m.CompletedAt == nil {
			completed := now
			m.CompletedAt = &completed
		}
		return
	}

	m.CompletedAt = nil
}
