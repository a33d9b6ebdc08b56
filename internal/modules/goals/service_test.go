package goals

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/sagarwalke-dev/portfolio-engine/internal/domain"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE goals (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			target_amount REAL NOT NULL CHECK (target_amount > 0),
			current_amount REAL NOT NULL DEFAULT 0 CHECK (current_amount >= 0),
			deadline INTEGER NOT NULL,
			priority TEXT NOT NULL DEFAULT 'medium' CHECK (priority IN ('low', 'medium', 'high')),
			goal_type TEXT NOT NULL DEFAULT 'other',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`)
	require.NoError(t, err)

	return db
}

func setupService(t *testing.T) *Service {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())
	return NewService(repo, zerolog.Nop())
}

func validGoal() domain.Goal {
	return domain.Goal{
		UserID:       "user-1",
		Name:         "House downpayment",
		TargetAmount: 2000000,
		Deadline:     time.Now().UTC().AddDate(0, 18, 0),
		Priority:     domain.PriorityHigh,
		GoalType:     "house",
	}
}

func TestServiceCreateGoal(t *testing.T) {
	svc := setupService(t)

	created, err := svc.Create(context.Background(), validGoal())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, domain.PriorityHigh, created.Priority)

	goals, err := svc.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, created.ID, goals[0].ID)
	assert.Equal(t, 18, goals[0].Projection.MonthsRemaining)
}

func TestServiceCreateDefaults(t *testing.T) {
	svc := setupService(t)

	goal := validGoal()
	goal.Priority = ""
	goal.GoalType = ""

	created, err := svc.Create(context.Background(), goal)
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityMedium, created.Priority)
	assert.Equal(t, "other", created.GoalType)
}

func TestServiceCreateValidation(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*domain.Goal)
		field  string
	}{
		{"missing user", func(g *domain.Goal) { g.UserID = "" }, "user_id"},
		{"missing name", func(g *domain.Goal) { g.Name = "  " }, "name"},
		{"zero target", func(g *domain.Goal) { g.TargetAmount = 0 }, "target_amount"},
		{"negative current", func(g *domain.Goal) { g.CurrentAmount = -1 }, "current_amount"},
		{"past deadline", func(g *domain.Goal) { g.Deadline = time.Now().AddDate(0, -1, 0) }, "deadline"},
		{"unknown priority", func(g *domain.Goal) { g.Priority = "urgent" }, "priority"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			goal := validGoal()
			tc.mutate(&goal)

			_, err := svc.Create(ctx, goal)
			var validationErr *domain.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tc.field, validationErr.Field)
		})
	}

	goals, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, goals)
}

func TestServiceContribute(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validGoal())
	require.NoError(t, err)

	updated, err := svc.Contribute(ctx, "user-1", created.ID, 50000)
	require.NoError(t, err)
	assert.InDelta(t, 50000.0, updated.CurrentAmount, 1e-6)

	updated, err = svc.Contribute(ctx, "user-1", created.ID, 25000)
	require.NoError(t, err)
	assert.InDelta(t, 75000.0, updated.CurrentAmount, 1e-6)
}

func TestServiceContributeValidation(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validGoal())
	require.NoError(t, err)

	_, err = svc.Contribute(ctx, "user-1", created.ID, 0)
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)

	_, err = svc.Contribute(ctx, "", created.ID, 100)
	require.ErrorAs(t, err, &validationErr)

	_, err = svc.Contribute(ctx, "user-1", "no-such-goal", 100)
	var notFoundErr *domain.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}

func TestServiceContributeOtherUsersGoal(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validGoal())
	require.NoError(t, err)

	_, err = svc.Contribute(ctx, "user-2", created.ID, 100)
	var notFoundErr *domain.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)

	// The owner's goal is untouched
	goals, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.InDelta(t, 0.0, goals[0].CurrentAmount, 1e-6)
}

func TestServiceListOrdering(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	low := validGoal()
	low.Name = "Vacation"
	low.Priority = domain.PriorityLow
	_, err := svc.Create(ctx, low)
	require.NoError(t, err)

	high := validGoal()
	high.Name = "Emergency fund"
	high.Priority = domain.PriorityHigh
	_, err = svc.Create(ctx, high)
	require.NoError(t, err)

	goals, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, "Emergency fund", goals[0].Name)
	assert.Equal(t, "Vacation", goals[1].Name)
}

func TestServiceDelete(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validGoal())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "user-1", created.ID))

	goals, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, goals)

	var notFoundErr *domain.NotFoundError
	require.ErrorAs(t, svc.Delete(ctx, "user-1", created.ID), &notFoundErr)
}

func TestServiceDeleteOtherUsersGoal(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validGoal())
	require.NoError(t, err)

	var notFoundErr *domain.NotFoundError
	require.ErrorAs(t, svc.Delete(ctx, "user-2", created.ID), &notFoundErr)

	goals, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, goals, 1)
}
