package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Scan session lifecycle statuses.
const (
	ScanStatusPending   = "pending"
	ScanStatusCompleted = "completed"
	ScanStatusFailed    = "failed"
)

// ScanSession is the result of one food-image analysis. The analysis payloads
// (freshness, nutrition, recommendations) arrive from the vision service and
// are stored as JSONB verbatim. A session is immutable once written except for
// the AddedToMeal flag.
type ScanSession struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	SessionID string `gorm:"type:uuid;uniqueIndex;not null" json:"session_id"`
	UserID    uint   `gorm:"index;not null" json:"user_id"`
	User      User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	FoodName string `gorm:"not null" json:"food_name"`
	Category string `json:"category"`
	// Freshness holds {"level": "Fresh", "score": 87}.
	Freshness datatypes.JSONMap `gorm:"type:jsonb;default:'{}'" json:"freshness"`
	// Nutrition holds the per-100g reference profile as a list of
	// {"name", "value", "unit"} entries, exactly as the classifier returned it.
	Nutrition                  datatypes.JSON `gorm:"type:jsonb;default:'[]'" json:"nutrition"`
	StorageRecommendations     datatypes.JSON `gorm:"type:jsonb;default:'[]'" json:"storage_recommendations"`
	ConsumptionRecommendations datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"consumption_recommendations"`
	HealthRiskFactors          datatypes.JSON `gorm:"type:jsonb;default:'[]'" json:"health_risk_factors"`

	ImageURL    string    `json:"image_url"`
	Status      string    `gorm:"default:completed" json:"status"`
	AddedToMeal bool      `gorm:"default:false" json:"added_to_meal"`
	AnalyzedAt  time.Time `json:"analyzed_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ScanHistoryEntry is the denormalized per-user index of scan sessions, kept
// small for fast history listing. Written alongside each session.
type ScanHistoryEntry struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	UserID    uint   `gorm:"index:idx_scan_history_user_time;not null" json:"user_id"`
	User      User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	SessionID string `gorm:"type:uuid;index;not null" json:"session_id"`

	FoodName       string    `json:"food_name"`
	Category       string    `json:"category"`
	FreshnessScore float64   `json:"freshness_score"`
	ImageURL       string    `json:"image_url"`
	AnalyzedAt     time.Time `gorm:"index:idx_scan_history_user_time,sort:desc" json:"analyzed_at"`

	CreatedAt time.Time `json:"-"`
}

// SavedItem bookmarks a scan session for later, with consumed/risky state.
// Unique per (user, session).
type SavedItem struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	UserID    uint   `gorm:"uniqueIndex:idx_saved_user_session;not null" json:"user_id"`
	User      User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	SessionID string `gorm:"type:uuid;uniqueIndex:idx_saved_user_session;not null" json:"session_id"`

	IsConsumed    bool       `gorm:"default:false" json:"is_consumed"`
	ConsumedAt    *time.Time `json:"consumed_at,omitempty"`
	IsRisky       bool       `gorm:"default:false" json:"is_risky"`
	HealthWarning string     `json:"health_warning,omitempty"`
	SavedAt       time.Time  `gorm:"autoCreateTime" json:"saved_at"`

	// Session payload joined in for listing; not persisted on this row.
	Session *ScanSession `gorm:"-" json:"session,omitempty"`
}
