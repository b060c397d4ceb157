package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/goalcoach/internal/export"
	"github.com/templui/goalcoach/internal/model"
	"github.com/templui/goalcoach/internal/repository"
)

func TestGoalService_SaveRespectsLimit(t *testing.T) {
	s := newGoalService(t, testDB(t), 2)

	seedGoal(t, s, "u1", "Run 5k")
	done := seedGoal(t, s, "u1", "Read 12 books")

	extra := seedGoalUnsaved("u1", "Learn Spanish")
	assert.ErrorIs(t, s.Save(extra), ErrGoalLimitReached)

	// Completed goals no longer count.
	_, err := s.UpdateProgress("u1", done.ID, ProgressUpdate{Status: ptr(model.GoalStatusCompleted)})
	require.NoError(t, err)
	assert.NoError(t, s.Save(extra))

	// Other users are unaffected.
	assert.NoError(t, s.Save(seedGoalUnsaved("u2", "Save money")))
}

func TestGoalService_Unlimited(t *testing.T) {
	s := newGoalService(t, testDB(t), 0)
	for i := 0; i < 5; i++ {
		seedGoal(t, s, "u1", "Goal")
	}
	goals, err := s.Goals("u1", repository.GoalSortRecent)
	require.NoError(t, err)
	assert.Len(t, goals, 5)
}

func TestGoalService_UpdateProgress(t *testing.T) {
	s := newGoalService(t, testDB(t), 0)
	goal := seedGoal(t, s, "u1", "Run 5k", "Buy shoes", "First run")

	got, err := s.UpdateProgress("u1", goal.ID, ProgressUpdate{
		CurrentValue: ptr(3.0),
		Reflection:   ptr("Felt great"),
		Milestones: []MilestoneUpdate{
			{ID: goal.Milestones[0].ID, Status: ptr(model.MilestoneStatusCompleted)},
			{ID: goal.Milestones[1].ID, Progress: ptr(40.0), Notes: ptr("halfway")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, now, got.UpdatedAt)

	stored, err := s.ByID("u1", goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.0, stored.CurrentValue)
	assert.Equal(t, "Felt great", stored.Reflection)
	assert.Equal(t, model.MilestoneStatusCompleted, stored.Milestones[0].Status)
	assert.Equal(t, 100.0, stored.Milestones[0].Progress)
	require.NotNil(t, stored.Milestones[0].CompletedAt)
	assert.True(t, now.Equal(*stored.Milestones[0].CompletedAt))
	assert.Equal(t, 40.0, stored.Milestones[1].Progress)
	assert.Equal(t, "halfway", stored.Milestones[1].Notes)
	assert.Equal(t, 50.0, model.CalculateProgress(stored))
}

func TestGoalService_UpdateProgressNeverMovesBackwards(t *testing.T) {
	s := newGoalService(t, testDB(t), 0)
	goal := seedGoal(t, s, "u1", "Run 5k")

	s.now = func() time.Time { return now.AddDate(-1, 0, 0) }
	got, err := s.UpdateProgress("u1", goal.ID, ProgressUpdate{CurrentValue: ptr(1.0)})
	require.NoError(t, err)
	assert.True(t, goal.UpdatedAt.Equal(got.UpdatedAt), "updatedAt moved from %s to %s", goal.UpdatedAt, got.UpdatedAt)
	assert.Equal(t, time.UTC, got.UpdatedAt.Location())
}

func TestGoalService_UpdateProgressErrors(t *testing.T) {
	s := newGoalService(t, testDB(t), 0)
	goal := seedGoal(t, s, "u1", "Run 5k", "Buy shoes")

	_, err := s.UpdateProgress("u2", goal.ID, ProgressUpdate{})
	assert.ErrorIs(t, err, repository.ErrGoalNotFound)

	_, err = s.UpdateProgress("u1", goal.ID, ProgressUpdate{CurrentValue: ptr(-1.0)})
	assert.ErrorIs(t, err, ErrInvalidProgress)

	_, err = s.UpdateProgress("u1", goal.ID, ProgressUpdate{Status: ptr(model.GoalStatus("abandoned"))})
	assert.ErrorIs(t, err, ErrInvalidProgress)

	_, err = s.UpdateProgress("u1", goal.ID, ProgressUpdate{Milestones: []MilestoneUpdate{{ID: "missing"}}})
	assert.ErrorIs(t, err, repository.ErrMilestoneNotFound)

	_, err = s.UpdateProgress("u1", goal.ID, ProgressUpdate{Milestones: []MilestoneUpdate{
		{ID: goal.Milestones[0].ID, Status: ptr(model.MilestoneStatus("someday"))},
	}})
	assert.ErrorIs(t, err, ErrInvalidProgress)
}

func TestGoalService_DeleteIsScopedToOwner(t *testing.T) {
	s := newGoalService(t, testDB(t), 0)
	goal := seedGoal(t, s, "u1", "Run 5k")

	assert.ErrorIs(t, s.Delete("u2", goal.ID), repository.ErrGoalNotFound)
	require.NoError(t, s.Delete("u1", goal.ID))

	_, err := s.ByID("u1", goal.ID)
	assert.ErrorIs(t, err, repository.ErrGoalNotFound)
}

func TestGoalService_Export(t *testing.T) {
	s := newGoalService(t, testDB(t), 0)
	seedGoal(t, s, "u1", "Run 5k")
	seedGoal(t, s, "u2", "Somebody else's goal")

	result, err := s.Export("u1", export.FormatCSV, export.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "goalcoach-goals-2025-05-01.csv", result.Filename)
	assert.Equal(t, 1, result.Metadata.GoalCount)
	assert.Contains(t, result.Content, "Run 5k")
	assert.NotContains(t, result.Content, "Somebody else")

	_, err = s.Export("u1", export.Format("docx"), export.DefaultOptions())
	assert.ErrorIs(t, err, export.ErrUnsupportedFormat)
}

func seedGoalUnsaved(userID, title string) *model.Goal {
	return &model.Goal{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Type:      model.GoalTypePersonal,
		Status:    model.GoalStatusDraft,
		Priority:  model.PriorityMedium,
		StartDate: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
