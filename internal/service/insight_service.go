package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"freshplate/internal/analyzer"
	"freshplate/internal/models"
	"freshplate/internal/repository"
)

// InsightService owns AI-generated insights.
type InsightService struct {
	insights   repository.InsightRepository
	aggregates repository.AggregateRepository
	profiles   repository.ProfileRepository
	advice     analyzer.AdviceClient
}

// NewInsightService returns a new InsightService.
func NewInsightService(insights repository.InsightRepository, aggregates repository.AggregateRepository, profiles repository.ProfileRepository, advice analyzer.AdviceClient) *InsightService {
	return &InsightService{insights: insights, aggregates: aggregates, profiles: profiles, advice: advice}
}

// GenerateInsights builds a summary of the user's last week of intake, sends
// it to the advice service, and stores whatever comes back.
func (s *InsightService) GenerateInsights(ctx context.Context, userID uint) ([]models.AIInsight, error) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -7)

	aggs, err := s.aggregates.Range(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	days := make([]map[string]any, 0, len(aggs))
	for i := range aggs {
		view := aggs[i].View()
		days = append(days, map[string]any{
			"day":         view.DayDate,
			"totals":      view.Totals,
			"meals_count": view.MealsCount,
		})
	}

	summary := map[string]any{"days": days}
	if profile, err := s.profiles.GetByUserID(ctx, userID); err == nil && profile != nil {
		summary["profile"] = profileAttributes(profile)
	}

	generated, err := s.advice.GenerateInsights(ctx, summary)
	if err != nil {
		return nil, err
	}

	insights := make([]models.AIInsight, 0, len(generated))
	for _, g := range generated {
		insightType := g.InsightType
		switch insightType {
		case models.InsightTypeDailyAdvice, models.InsightTypeWarning, models.InsightTypeGoalUpdate:
		default:
			insightType = models.InsightTypeDailyAdvice
		}
		insights = append(insights, models.AIInsight{
			UserID:      userID,
			InsightType: insightType,
			Title:       g.Title,
			Content:     g.Content,
		})
	}

	if err := s.insights.CreateBatch(ctx, insights); err != nil {
		return nil, err
	}
	return insights, nil
}

// Chat relays a user message to the nutrition assistant, attaching the
// user's profile and a summary of the last week of intake as context.
func (s *InsightService) Chat(ctx context.Context, userID uint, message string, history []analyzer.ChatMessage) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", models.NewFieldValidationError("message", "message is required")
	}

	profile := map[string]any{}
	if p, err := s.profiles.GetByUserID(ctx, userID); err == nil && p != nil {
		profile = profileAttributes(p)
	}

	to := time.Now().UTC()
	if aggs, err := s.aggregates.Range(ctx, userID, to.AddDate(0, 0, -6), to); err == nil && len(aggs) > 0 {
		var total models.Nutrients
		for i := range aggs {
			total = total.Add(aggs[i].Totals.Data())
		}
		days := float64(len(aggs))
		profile["consumption_context"] = fmt.Sprintf("Weekly avg: %.0f cal, %.0fg protein",
			total.Calories/days, total.Protein/days)
	}

	return s.advice.Chat(ctx, analyzer.ChatRequest{
		Message: message,
		History: history,
		Profile: profile,
	})
}

// ListInsights returns stored insights, newest first.
func (s *InsightService) ListInsights(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]models.AIInsight, error) {
	return s.insights.List(ctx, userID, unreadOnly, limit, offset)
}

// MarkRead flags one insight as read.
func (s *InsightService) MarkRead(ctx context.Context, userID, insightID uint) error {
	return s.insights.MarkRead(ctx, userID, insightID)
}

// CountUnread returns the user's unread insight count.
func (s *InsightService) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return s.insights.CountUnread(ctx, userID)
}
