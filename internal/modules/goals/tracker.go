// Package goals manages financial goals and their progress projections.
package goals

import (
	"time"

	"github.com/sagarwalke-dev/portfolio-engine/internal/domain"
)

// Project computes the progress report for a goal at the given time.
//
// Months remaining is a whole-month calendar difference
// (year*12 + month arithmetic), not an elapsed-day count: a deadline next
// month is always "1 month out" regardless of the day.
//
// A goal whose deadline has arrived with the target unmet is overdue, a
// distinct outcome. No contribution is recommended for an overdue goal; the
// division by monthsRemaining is never performed when it is zero, so the
// result can never be Inf or NaN.
func Project(goal domain.Goal, now time.Time) domain.GoalProjection {
	months := calendarMonthsBetween(now, goal.Deadline)
	if months < 0 {
		months = 0
	}

	remaining := goal.TargetAmount - goal.CurrentAmount
	if remaining < 0 {
		remaining = 0
	}

	progress := 0.0
	if goal.TargetAmount > 0 {
		progress = goal.CurrentAmount / goal.TargetAmount * 100
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	p := domain.GoalProjection{
		MonthsRemaining: months,
		AmountRemaining: remaining,
		ProgressPercent: progress,
	}

	if months > 0 {
		p.RecommendedMonthlyContribution = remaining / float64(months)
	} else if remaining > 0 {
		p.Overdue = true
	}

	return p
}

// calendarMonthsBetween returns the whole-month difference from a to b
func calendarMonthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}
