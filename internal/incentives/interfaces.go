package incentives

import (
	"context"
	"time"

	"github.com/cesarmartin1/crm-david/internal/quotes"
	"github.com/google/uuid"
)

// RepositoryInterface defines the incentive persistence operations
type RepositoryInterface interface {
	LoadConfig(ctx context.Context) (*Config, error)

	CreateBracket(ctx context.Context, b *CommissionBracket) error
	UpdateBracket(ctx context.Context, b *CommissionBracket) error
	DeleteBracket(ctx context.Context, id uuid.UUID) error

	CreateBonusRule(ctx context.Context, r *BonusRule) error
	UpdateBonusRule(ctx context.Context, r *BonusRule) error
	DeleteBonusRule(ctx context.Context, id uuid.UUID) error

	CreatePointAction(ctx context.Context, a *PointAction) error
	UpdatePointAction(ctx context.Context, a *PointAction) error
	DeletePointAction(ctx context.Context, id uuid.UUID) error

	CreateReward(ctx context.Context, r *Reward) error
	UpdateReward(ctx context.Context, r *Reward) error
	DeleteReward(ctx context.Context, id uuid.UUID) error

	ListPrizes(ctx context.Context, salesperson string) ([]QuotePrize, error)
	CreatePrize(ctx context.Context, p *QuotePrize) error
	UpdatePrize(ctx context.Context, p *QuotePrize) error
	DeletePrize(ctx context.Context, id uuid.UUID) error

	CreatePointEvent(ctx context.Context, e *PointEvent) error
	PointEventCounts(ctx context.Context, from, to time.Time) (map[string]map[string]int, error)

	SaveHistory(ctx context.Context, h *HistoryEntry) error
	ListHistory(ctx context.Context, f HistoryFilter) ([]HistoryEntry, error)
}

// LineSource provides the quote lines incentives are computed from
type LineSource interface {
	ListLines(ctx context.Context) ([]quotes.QuoteLine, error)
}
