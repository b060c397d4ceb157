package repository

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/templui/goalcoach/internal/model"
)

var (
	ErrMilestoneNotFound = errors.New("milestone not found")
)

// Milestones have no repository of their own; they are written and read
// through the goal that owns them.

func insertMilestones(tx sqlx.Execer, goalID string, milestones []model.Milestone) error {
	query := `INSERT INTO milestones (id, goal_id, position, title, description, due_date, status, progress,
	              notes, completed_at, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	for i := range milestones {
		m := &milestones[i]
		m.GoalID = goalID
		_, err := tx.Exec(query,
			m.ID,
			goalID,
			m.Position,
			m.Title,
			m.Description,
			m.DueDate,
			m.Status,
			m.Progress,
			m.Notes,
			m.CompletedAt,
			m.CreatedAt,
			m.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert milestone %d: %w", m.Position, err)
		}
	}
	return nil
}

func updateMilestone(tx sqlx.Execer, goalID string, m *model.Milestone) error {
	query := `UPDATE milestones
	          SET status = $1, progress = $2, notes = $3, completed_at = $4, updated_at = $5
	          WHERE id = $6 AND goal_id = $7`

	result, err := tx.Exec(query, m.Status, m.Progress, m.Notes, m.CompletedAt, m.UpdatedAt, m.ID, goalID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrMilestoneNotFound, m.ID)
	}
	return nil
}

func milestonesByGoal(q sqlx.Queryer, goalID string) ([]model.Milestone, error) {
	milestones := []model.Milestone{}
	query := `SELECT * FROM milestones WHERE goal_id = $1 ORDER BY position ASC`

	err := sqlx.Select(q, &milestones, query, goalID)
	if err != nil {
		return nil, err
	}
	for i := range milestones {
		milestoneToUTC(&milestones[i])
	}
	return milestones, nil
}

// milestonesByGoals loads the milestones of several goals in one query.
// Every requested goal gets a non-nil slice.
func milestonesByGoals(db *sqlx.DB, goalIDs []string) (map[string][]model.Milestone, error) {
	query, args, err := sqlx.In(`SELECT * FROM milestones WHERE goal_id IN (?) ORDER BY goal_id, position ASC`, goalIDs)
	if err != nil {
		return nil, err
	}

	var milestones []model.Milestone
	err = db.Select(&milestones, db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}

	byGoal := make(map[string][]model.Milestone, len(goalIDs))
	for _, id := range goalIDs {
		byGoal[id] = []model.Milestone{}
	}
	for _, m := range milestones {
		milestoneToUTC(&m)
		byGoal[m.GoalID] = append(byGoal[m.GoalID], m)
	}
	return byGoal, nil
}
