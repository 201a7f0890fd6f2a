package service

import (
	"context"
	"time"

	"freshplate/internal/analyzer"
	"freshplate/internal/cache"
	"freshplate/internal/models"
	"freshplate/internal/nutrition"
	"freshplate/internal/repository"
)

// GoalService owns versioned nutrition goals.
type GoalService struct {
	goals    repository.GoalRepository
	profiles repository.ProfileRepository
	advice   analyzer.AdviceClient
}

// NewGoalService returns a new GoalService.
func NewGoalService(goals repository.GoalRepository, profiles repository.ProfileRepository, advice analyzer.AdviceClient) *GoalService {
	return &GoalService{goals: goals, profiles: profiles, advice: advice}
}

type SetGoalInput struct {
	UserID        uint
	Daily         models.Nutrients
	Reasoning     string
	EffectiveFrom time.Time
}

// SetGoal appends a new goal version. Weekly, monthly, and yearly targets
// are derived from the daily values at save time.
func (s *GoalService) SetGoal(ctx context.Context, input SetGoalInput) (*models.NutritionGoal, error) {
	if input.Daily.Calories <= 0 {
		return nil, models.NewFieldValidationError("daily.calories", "daily calories must be positive")
	}
	if input.EffectiveFrom.IsZero() {
		input.EffectiveFrom = time.Now().UTC()
	}

	goal := models.NewNutritionGoal(input.UserID, input.Daily, input.Reasoning, input.EffectiveFrom)
	if err := s.goals.Create(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

// calculatedGoalReasoning labels goal versions that were computed locally
// rather than generated by the advice service.
const calculatedGoalReasoning = "Calculated from your health profile using the Mifflin-St Jeor equation."

// GenerateGoal asks the advice service for personalized targets from the
// user's health profile and saves them as a new version. When the advice
// service is unavailable the targets are computed locally from the profile
// instead.
func (s *GoalService) GenerateGoal(ctx context.Context, userID uint) (*models.NutritionGoal, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, models.NewValidationError("health profile required to generate goals")
	}

	daily := models.Nutrients{}
	reasoning := calculatedGoalReasoning
	if advice, err := s.advice.GenerateGoals(ctx, profileAttributes(profile)); err == nil && advice != nil {
		daily = advice.Daily
		reasoning = advice.Reasoning
	}
	if daily.Calories <= 0 {
		daily = nutrition.DefaultDailyGoal(profile)
		reasoning = calculatedGoalReasoning
	}

	return s.SetGoal(ctx, SetGoalInput{
		UserID:    userID,
		Daily:     daily,
		Reasoning: reasoning,
	})
}

// GetEffectiveGoal returns the goal version in force on the given date, with
// targets expressed for the requested period. When the user has no stored
// goal in force, default targets are computed from the health profile and
// returned unpersisted with a zero ID. Current-day lookups are served
// cache-aside; storing a new version invalidates the entry.
func (s *GoalService) GetEffectiveGoal(ctx context.Context, userID uint, date time.Time, period string) (*models.NutritionGoal, models.Nutrients, error) {
	switch period {
	case "", models.GoalPeriodDaily, models.GoalPeriodWeekly, models.GoalPeriodMonthly, models.GoalPeriodYearly:
	default:
		return nil, models.Nutrients{}, models.NewFieldValidationError("period", "unknown goal period")
	}

	var goal *models.NutritionGoal
	load := func() error {
		g, err := s.goals.GetEffective(ctx, userID, date)
		if err != nil {
			return err
		}
		if g == nil {
			profile, err := s.profiles.GetByUserID(ctx, userID)
			if err != nil {
				return err
			}
			g = models.NewNutritionGoal(userID, nutrition.DefaultDailyGoal(profile), calculatedGoalReasoning, date)
		}
		goal = g
		return nil
	}

	// Only the current goal is cached; historical lookups go to the source.
	var err error
	if sameUTCDay(date, time.Now()) {
		err = cache.Aside(ctx, cache.GoalKey(userID), &goal, cache.GoalTTL, load)
	} else {
		err = load()
	}
	if err != nil {
		return nil, models.Nutrients{}, err
	}

	if period == "" {
		period = models.GoalPeriodDaily
	}
	return goal, goal.ForPeriod(period), nil
}

func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// ListGoals returns goal versions, newest first.
func (s *GoalService) ListGoals(ctx context.Context, userID uint, limit, offset int) ([]models.NutritionGoal, error) {
	return s.goals.List(ctx, userID, limit, offset)
}

func profileAttributes(p *models.HealthProfile) map[string]any {
	attrs := map[string]any{
		"gender":                    p.Gender,
		"has_diabetes":              p.HasDiabetes,
		"has_blood_pressure_issues": p.HasBloodPressureIssues,
		"has_heart_issues":          p.HasHeartIssues,
		"has_gut_issues":            p.HasGutIssues,
		"is_smoker":                 p.IsSmoker,
		"is_drinker":                p.IsDrinker,
		"allergies":                 p.Allergies,
		"eating_habits":             p.EatingHabits,
		"goals":                     p.Goals,
	}
	if p.Age != nil {
		attrs["age"] = *p.Age
	}
	if p.HeightCM != nil {
		attrs["height_cm"] = *p.HeightCM
	}
	if p.WeightKG != nil {
		attrs["weight_kg"] = *p.WeightKG
	}
	return attrs
}
