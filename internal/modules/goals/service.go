package goals

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sagarwalke-dev/portfolio-engine/internal/domain"
)

// Service validates and manages goals. Projections are delegated to the
// pure Project function.
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a new goal service
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "goals").Logger(),
	}
}

// Create validates and stores a new goal.
// The deadline must be strictly after the creation timestamp and the target
// amount positive; violations are ValidationErrors and nothing is stored.
func (s *Service) Create(ctx context.Context, goal domain.Goal) (domain.Goal, error) {
	if err := ctx.Err(); err != nil {
		return domain.Goal{}, err
	}

	goal.UserID = strings.TrimSpace(goal.UserID)
	if goal.UserID == "" {
		return domain.Goal{}, &domain.ValidationError{Field: "user_id", Reason: "must not be empty"}
	}

	goal.Name = strings.TrimSpace(goal.Name)
	if goal.Name == "" {
		return domain.Goal{}, &domain.ValidationError{Field: "name", Reason: "must not be empty"}
	}

	if goal.TargetAmount <= 0 {
		return domain.Goal{}, &domain.ValidationError{Field: "target_amount", Reason: "must be positive"}
	}

	if goal.CurrentAmount < 0 {
		return domain.Goal{}, &domain.ValidationError{Field: "current_amount", Reason: "must not be negative"}
	}

	now := time.Now().UTC()
	if !goal.Deadline.After(now) {
		return domain.Goal{}, &domain.ValidationError{Field: "deadline", Reason: "must be in the future"}
	}

	if goal.Priority == "" {
		goal.Priority = domain.PriorityMedium
	}
	if !goal.Priority.Valid() {
		return domain.Goal{}, &domain.ValidationError{Field: "priority", Reason: "must be low, medium or high"}
	}

	if goal.GoalType == "" {
		goal.GoalType = "other"
	}

	goal.ID = uuid.NewString()
	goal.CreatedAt = now
	goal.UpdatedAt = now

	if err := s.repo.Insert(goal); err != nil {
		return domain.Goal{}, err
	}

	return goal, nil
}

// List returns a user's goals with projections attached
func (s *Service) List(ctx context.Context, userID string) ([]GoalWithProjection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	goals, err := s.repo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	out := make([]GoalWithProjection, 0, len(goals))
	for _, g := range goals {
		out = append(out, GoalWithProjection{
			Goal:       g,
			Projection: Project(g, now),
		})
	}

	return out, nil
}

// Contribute adds a contribution to one of the user's goals. A goal owned
// by another user is a NotFoundError, never a cross-user update.
func (s *Service) Contribute(ctx context.Context, userID, id string, amount float64) (domain.Goal, error) {
	if err := ctx.Err(); err != nil {
		return domain.Goal{}, err
	}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.Goal{}, &domain.ValidationError{Field: "user_id", Reason: "must not be empty"}
	}

	if amount <= 0 {
		return domain.Goal{}, &domain.ValidationError{Field: "amount", Reason: "must be positive"}
	}

	goal, err := s.repo.GetByID(userID, id)
	if err != nil {
		return domain.Goal{}, err
	}

	newAmount := goal.CurrentAmount + amount
	if err := s.repo.UpdateCurrentAmount(userID, id, newAmount); err != nil {
		return domain.Goal{}, err
	}

	goal.CurrentAmount = newAmount
	s.log.Info().Str("id", id).Float64("amount", amount).Float64("current", newAmount).Msg("Goal contribution recorded")

	return *goal, nil
}

// Delete removes one of the user's goals
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return &domain.ValidationError{Field: "user_id", Reason: "must not be empty"}
	}

	return s.repo.Delete(userID, id)
}

// GoalWithProjection pairs a goal with its derived progress report
type GoalWithProjection struct {
	domain.Goal
	Projection domain.GoalProjection `json:"projection"`
}
