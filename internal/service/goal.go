package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/templui/goalcoach/internal/export"
	"github.com/templui/goalcoach/internal/model"
	"github.com/templui/goalcoach/internal/repository"
)

var (
	ErrGoalLimitReached = errors.New("open goal limit reached")
	ErrInvalidProgress  = errors.New("invalid progress update")
)

// ProgressUpdate changes the tracked state of a goal. Nil fields are left
// as they are.
type ProgressUpdate struct {
	CurrentValue *float64          `json:"currentValue,omitempty"`
	Status       *model.GoalStatus `json:"status,omitempty"`
	Reflection   *string           `json:"reflection,omitempty"`
	Milestones   []MilestoneUpdate `json:"milestoneUpdates,omitempty"`
}

type MilestoneUpdate struct {
	ID       string                 `json:"id"`
	Status   *model.MilestoneStatus `json:"status,omitempty"`
	Progress *float64               `json:"progress,omitempty"`
	Notes    *string                `json:"notes,omitempty"`
}

type GoalService struct {
	repo  repository.GoalRepository
	limit int
	now   func() time.Time
}

// NewGoalService creates the service. A limit <= 0 allows any number of
// open goals.
func NewGoalService(repo repository.GoalRepository, limit int) *GoalService {
	return &GoalService{
		repo:  repo,
		limit: limit,
		now:   time.Now,
	}
}

// Save persists a goal produced by the chat workflow.
func (s *GoalService) Save(goal *model.Goal) error {
	if s.limit > 0 {
		count, err := s.repo.CountOpenGoals(goal.UserID)
		if err != nil {
			return err
		}
		if count >= s.limit {
			return ErrGoalLimitReached
		}
	}

	err := s.repo.Create(goal)
	if err != nil {
		return fmt.Errorf("failed to create goal: %w", err)
	}
	return nil
}

func (s *GoalService) ByID(userID, goalID string) (*model.Goal, error) {
	return s.repo.ByID(userID, goalID)
}

func (s *GoalService) Goals(userID, sortBy string) ([]*model.Goal, error) {
	return s.repo.Goals(userID, sortBy)
}

func (s *GoalService) Delete(userID, goalID string) error {
	return s.repo.Delete(userID, goalID)
}

func (s *GoalService) UpdateProgress(userID, goalID string, u ProgressUpdate) (*model.Goal, error) {
	goal, err := s.repo.ByID(userID, goalID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()

	if u.CurrentValue != nil {
		if *u.CurrentValue < 0 {
			return nil, fmt.Errorf("%w: current value must not be negative", ErrInvalidProgress)
		}
		goal.CurrentValue = *u.CurrentValue
	}
	if u.Status != nil {
		if !u.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidProgress, *u.Status)
		}
		goal.Status = *u.Status
	}
	if u.Reflection != nil {
		goal.Reflection = *u.Reflection
	}

	for _, mu := range u.Milestones {
		m := findMilestone(goal, mu.ID)
		if m == nil {
			return nil, fmt.Errorf("%w: %s", repository.ErrMilestoneNotFound, mu.ID)
		}
		if mu.Status != nil {
			if !mu.Status.Valid() {
				return nil, fmt.Errorf("%w: unknown milestone status %q", ErrInvalidProgress, *mu.Status)
			}
			m.Status = *mu.Status
		}
		if mu.Progress != nil {
			m.Progress = *mu.Progress
		}
		if mu.Notes != nil {
			m.Notes = *mu.Notes
		}
		m.Normalize(now)
		if now.After(m.UpdatedAt) {
			m.UpdatedAt = now
		}
	}

	goal.Touch(now)

	err = s.repo.Update(goal)
	if err != nil {
		return nil, fmt.Errorf("failed to update goal progress: %w", err)
	}
	return goal, nil
}

func findMilestone(goal *model.Goal, id string) *model.Milestone {
	for i := range goal.Milestones {
		if goal.Milestones[i].ID == id {
			return &goal.Milestones[i]
		}
	}
	return nil
}

// Export renders all of a user's goals, most recently updated first.
func (s *GoalService) Export(userID string, format export.Format, opts export.Options) (*export.Result, error) {
	goals, err := s.repo.Goals(userID, repository.GoalSortRecent)
	if err != nil {
		return nil, err
	}
	if opts.ExportDate.IsZero() {
		opts.ExportDate = s.now().UTC()
	}
	return export.Export(goals, format, opts)
}
