package repository

import (
	"context"
	"time"

	"github.com/rfbooking/rfbooking/internal/domain"
)

type AIRepository interface {
	ListRules(ctx context.Context, enabledOnly bool) ([]*domain.AISpecificationRule, error)
	GetRule(ctx context.Context, id int64) (*domain.AISpecificationRule, error)
	CreateRule(ctx context.Context, rule *domain.AISpecificationRule) (*domain.AISpecificationRule, error)
	UpdateRule(ctx context.Context, rule *domain.AISpecificationRule) error
	DeleteRule(ctx context.Context, id int64) error

	// AddUsage upserts the daily aggregate row for day.
	AddUsage(ctx context.Context, day time.Time, queries, inputTokens, outputTokens int) error
	UsageRange(ctx context.Context, from, to time.Time) ([]*domain.AIUsage, error)

	LogQuery(ctx context.Context, log *domain.AIQueryLog) error
	CountUserQueriesSince(ctx context.Context, userID int64, since time.Time) (int, error)
	DeleteOldQueryLogs(ctx context.Context, cutoff time.Time) (int64, error)
}
