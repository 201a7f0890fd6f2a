package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix         = "user:%d"
	ScanSessionKeyPrefix  = "scan:%s"
	TodaySummaryKeyPrefix = "summary:%d:%s"
	GoalKeyPrefix         = "goal:%d"
)

const (
	UserTTL         = 5 * time.Minute
	ScanSessionTTL  = 30 * time.Minute
	TodaySummaryTTL = 2 * time.Minute
	GoalTTL         = 10 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func ScanSessionKey(sessionID string) string {
	return fmt.Sprintf(ScanSessionKeyPrefix, sessionID)
}

// TodaySummaryKey builds the key for a user's cached daily summary
// for the given day (formatted YYYY-MM-DD).
func TodaySummaryKey(userID uint, day string) string {
	return fmt.Sprintf(TodaySummaryKeyPrefix, userID, day)
}

func GoalKey(userID uint) string {
	return fmt.Sprintf(GoalKeyPrefix, userID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateScanSession(ctx context.Context, sessionID string) {
	Invalidate(ctx, ScanSessionKey(sessionID))
}

// InvalidateSummary drops the cached summary for the user's day. Any write
// to a meal or aggregate row for that day must call this.
func InvalidateSummary(ctx context.Context, userID uint, day string) {
	Invalidate(ctx, TodaySummaryKey(userID, day))
}

func InvalidateGoal(ctx context.Context, userID uint) {
	Invalidate(ctx, GoalKey(userID))
}
