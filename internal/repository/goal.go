package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/templui/goalcoach/internal/model"
)

const (
	GoalSortRecent   = "recent"
	GoalSortPriority = "priority"
	GoalSortDue      = "due"
	GoalSortTitle    = "title"
)

var (
	ErrGoalNotFound = errors.New("goal not found")
)

type GoalRepository interface {
	Create(goal *model.Goal) error
	ByID(userID, goalID string) (*model.Goal, error)
	Goals(userID, sortBy string) ([]*model.Goal, error)
	CountOpenGoals(userID string) (int, error)
	Update(goal *model.Goal) error
	Delete(userID, goalID string) error
}

type goalRepository struct {
	db *sqlx.DB
}

func NewGoalRepository(db *sqlx.DB) GoalRepository {
	return &goalRepository{db: db}
}

// Create stores the goal together with its milestones.
func (r *goalRepository) Create(goal *model.Goal) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO goals (id, user_id, title, description, type, status, priority, start_date, end_date,
	              target_value, current_value, unit, motivation, reflection, accountability, reward,
	              tags, obstacles, resources, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`

	_, err = tx.Exec(query,
		goal.ID,
		goal.UserID,
		goal.Title,
		goal.Description,
		goal.Type,
		goal.Status,
		goal.Priority,
		goal.StartDate,
		goal.EndDate,
		goal.TargetValue,
		goal.CurrentValue,
		goal.Unit,
		goal.Motivation,
		goal.Reflection,
		goal.Accountability,
		goal.Reward,
		goal.Tags,
		goal.Obstacles,
		goal.Resources,
		goal.CreatedAt,
		goal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert goal: %w", err)
	}

	err = insertMilestones(tx, goal.ID, goal.Milestones)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *goalRepository) ByID(userID, goalID string) (*model.Goal, error) {
	goal := &model.Goal{}
	query := `SELECT * FROM goals WHERE id = $1 AND user_id = $2`

	err := r.db.Get(goal, query, goalID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}
	goalToUTC(goal)

	goal.Milestones, err = milestonesByGoal(r.db, goalID)
	if err != nil {
		return nil, err
	}
	return goal, nil
}

func (r *goalRepository) Goals(userID, sortBy string) ([]*model.Goal, error) {
	var goals []*model.Goal

	var orderBy string
	switch sortBy {
	case GoalSortPriority:
		orderBy = `ORDER BY CASE priority WHEN 'critical' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END, updated_at DESC`
	case GoalSortDue:
		orderBy = `ORDER BY end_date IS NULL, end_date ASC, updated_at DESC`
	case GoalSortTitle:
		orderBy = `ORDER BY LOWER(title) ASC`
	default:
		orderBy = `ORDER BY updated_at DESC`
	}

	query := `SELECT * FROM goals WHERE user_id = $1 ` + orderBy

	err := r.db.Select(&goals, query, userID)
	if err != nil {
		return nil, err
	}
	if len(goals) == 0 {
		return goals, nil
	}

	ids := make([]string, len(goals))
	for i, g := range goals {
		ids[i] = g.ID
	}
	byGoal, err := milestonesByGoals(r.db, ids)
	if err != nil {
		return nil, err
	}
	for _, g := range goals {
		goalToUTC(g)
		g.Milestones = byGoal[g.ID]
	}

	return goals, nil
}

// CountOpenGoals counts goals that are neither completed nor cancelled.
func (r *goalRepository) CountOpenGoals(userID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM goals WHERE user_id = $1 AND status NOT IN ($2, $3)`
	err := r.db.QueryRow(query, userID, model.GoalStatusCompleted, model.GoalStatusCancelled).Scan(&count)
	return count, err
}

// Update writes the goal's mutable fields and the state of its milestones.
func (r *goalRepository) Update(goal *model.Goal) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `UPDATE goals
	          SET title = $1, description = $2, status = $3, priority = $4, end_date = $5, target_value = $6,
	              current_value = $7, unit = $8, motivation = $9, reflection = $10, accountability = $11,
	              reward = $12, tags = $13, obstacles = $14, resources = $15, updated_at = $16
	          WHERE id = $17 AND user_id = $18`

	result, err := tx.Exec(query,
		goal.Title,
		goal.Description,
		goal.Status,
		goal.Priority,
		goal.EndDate,
		goal.TargetValue,
		goal.CurrentValue,
		goal.Unit,
		goal.Motivation,
		goal.Reflection,
		goal.Accountability,
		goal.Reward,
		goal.Tags,
		goal.Obstacles,
		goal.Resources,
		goal.UpdatedAt,
		goal.ID,
		goal.UserID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrGoalNotFound
	}

	for i := range goal.Milestones {
		err = updateMilestone(tx, goal.ID, &goal.Milestones[i])
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *goalRepository) Delete(userID, goalID string) error {
	query := `DELETE FROM goals WHERE id = $1 AND user_id = $2`
	result, err := r.db.Exec(query, goalID, userID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrGoalNotFound
	}

	return nil
}
