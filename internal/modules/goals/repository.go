package goals

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sagarwalke-dev/portfolio-engine/internal/domain"
)

// Repository handles goal persistence in core.db
type Repository struct {
	coreDB *sql.DB
	log    zerolog.Logger
}

// NewRepository creates a new goal repository
func NewRepository(coreDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		coreDB: coreDB,
		log:    log.With().Str("repo", "goals").Logger(),
	}
}

// Insert stores a new goal
func (r *Repository) Insert(goal domain.Goal) error {
	query := `
		INSERT INTO goals
		(id, user_id, name, target_amount, current_amount, deadline, priority, goal_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.coreDB.Exec(query,
		goal.ID,
		goal.UserID,
		goal.Name,
		goal.TargetAmount,
		goal.CurrentAmount,
		goal.Deadline.Unix(),
		string(goal.Priority),
		goal.GoalType,
		goal.CreatedAt.Unix(),
		goal.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert goal: %w", err)
	}

	r.log.Info().Str("id", goal.ID).Str("user_id", goal.UserID).Str("name", goal.Name).Msg("Goal created")
	return nil
}

// GetByID returns a user's goal by ID. A goal that exists but belongs to
// another user is reported as a NotFoundError, same as one that never did.
func (r *Repository) GetByID(userID, id string) (*domain.Goal, error) {
	query := `SELECT id, user_id, name, target_amount, current_amount, deadline, priority,
		goal_type, created_at, updated_at
		FROM goals WHERE user_id = ? AND id = ?`

	row := r.coreDB.QueryRow(query, userID, id)
	goal, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "goal", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query goal: %w", err)
	}

	return goal, nil
}

// ListByUser returns a user's goals ordered by priority then deadline
func (r *Repository) ListByUser(userID string) ([]domain.Goal, error) {
	query := `SELECT id, user_id, name, target_amount, current_amount, deadline, priority,
		goal_type, created_at, updated_at
		FROM goals WHERE user_id = ?
		ORDER BY CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, deadline ASC`

	rows, err := r.coreDB.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	var goals []domain.Goal
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, *goal)
	}

	return goals, rows.Err()
}

// UpdateCurrentAmount sets a user's goal to a new current amount
func (r *Repository) UpdateCurrentAmount(userID, id string, amount float64) error {
	result, err := r.coreDB.Exec(
		"UPDATE goals SET current_amount = ?, updated_at = ? WHERE user_id = ? AND id = ?",
		amount, time.Now().Unix(), userID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update goal amount: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return &domain.NotFoundError{Entity: "goal", ID: id}
	}

	return nil
}

// Delete removes a user's goal
func (r *Repository) Delete(userID, id string) error {
	result, err := r.coreDB.Exec("DELETE FROM goals WHERE user_id = ? AND id = ?", userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return &domain.NotFoundError{Entity: "goal", ID: id}
	}

	r.log.Info().Str("id", id).Msg("Goal deleted")
	return nil
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanGoal(row scanner) (*domain.Goal, error) {
	var goal domain.Goal
	var priority string
	var deadlineUnix, createdAtUnix, updatedAtUnix int64

	err := row.Scan(
		&goal.ID,
		&goal.UserID,
		&goal.Name,
		&goal.TargetAmount,
		&goal.CurrentAmount,
		&deadlineUnix,
		&priority,
		&goal.GoalType,
		&createdAtUnix,
		&updatedAtUnix,
	)
	if err != nil {
		return nil, err
	}

	goal.Priority = domain.GoalPriority(priority)
	goal.Deadline = time.Unix(deadlineUnix, 0).UTC()
	goal.CreatedAt = time.Unix(createdAtUnix, 0).UTC()
	goal.UpdatedAt = time.Unix(updatedAtUnix, 0).UTC()

	return &goal, nil
}
