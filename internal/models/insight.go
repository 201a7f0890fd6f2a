package models

import "time"

// Insight types produced by the advice generator.
const (
	InsightTypeDailyAdvice = "daily_advice"
	InsightTypeWarning     = "warning"
	InsightTypeGoalUpdate  = "goal_update"
)

// AIInsight is one generated advisory for a user, with read/unread state.
type AIInsight struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"index;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	InsightType string    `gorm:"default:daily_advice" json:"insight_type"`
	Title       string    `json:"title"`
	Content     string    `gorm:"type:text" json:"content"`
	IsRead      bool      `gorm:"default:false" json:"is_read"`
	GeneratedAt time.Time `gorm:"autoCreateTime" json:"generated_at"`
}
