package incentives

import (
	"context"
	"fmt"
	"time"

	"github.com/cesarmartin1/crm-david/pkg/cache"
	"github.com/cesarmartin1/crm-david/pkg/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const configCacheKey = "incentives:config"

// Repository handles database operations for incentives. The calculator
// tables are cached together and dropped on any write to them.
type Repository struct {
	db    *pgxpool.Pool
	cache cache.Store
	ttl   time.Duration
}

// NewRepository creates a new incentives repository
func NewRepository(db *pgxpool.Pool, store cache.Store, ttl time.Duration) *Repository {
	return &Repository{db: db, cache: store, ttl: ttl}
}

// LoadConfig returns brackets, bonus rules, point actions and rewards
func (r *Repository) LoadConfig(ctx context.Context) (*Config, error) {
	return cache.GetOrLoad(ctx, r.cache, configCacheKey, r.ttl, r.loadConfig)
}

func (r *Repository) loadConfig(ctx context.Context) (*Config, error) {
	cfg := &Config{}
	var err error
	if cfg.Brackets, err = r.listBrackets(ctx); err != nil {
		return nil, err
	}
	if cfg.BonusRules, err = r.listBonusRules(ctx); err != nil {
		return nil, err
	}
	if cfg.PointActions, err = r.listPointActions(ctx); err != nil {
		return nil, err
	}
	if cfg.Rewards, err = r.listRewards(ctx); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (r *Repository) invalidate(ctx context.Context) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, configCacheKey); err != nil {
		logger.WithContext(ctx).Warn("failed to invalidate incentive cache", zap.Error(err))
	}
}

func checkWrite(tag pgconn.CommandTag, err error, what string) error {
	if err != nil {
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to %s: %w", what, pgx.ErrNoRows)
	}
	return nil
}

func (r *Repository) afterConfigWrite(ctx context.Context, tag pgconn.CommandTag, err error, what string) error {
	if err := checkWrite(tag, err, what); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *Repository) listBrackets(ctx context.Context) ([]CommissionBracket, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, amount_from::float8, amount_to::float8, percent::float8, is_active, created_at, updated_at
		FROM commission_brackets ORDER BY amount_from
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list commission brackets: %w", err)
	}
	defer rows.Close()

	items := make([]CommissionBracket, 0)
	for rows.Next() {
		var b CommissionBracket
		if err := rows.Scan(&b.ID, &b.AmountFrom, &b.AmountTo, &b.Percent, &b.IsActive, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan commission bracket: %w", err)
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

// CreateBracket creates a commission bracket
func (r *Repository) CreateBracket(ctx context.Context, b *CommissionBracket) error {
	b.ID = uuid.New()
	err := r.db.QueryRow(ctx, `
		INSERT INTO commission_brackets (id, amount_from, amount_to, percent, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, b.ID, b.AmountFrom, b.AmountTo, b.Percent, b.IsActive).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create commission bracket: %w", err)
	}
	r.invalidate(ctx)
	return nil
}

// UpdateBracket updates a commission bracket
func (r *Repository) UpdateBracket(ctx context.Context, b *CommissionBracket) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE commission_brackets SET amount_from = $2, amount_to = $3, percent = $4,
			is_active = $5, updated_at = NOW()
		WHERE id = $1
	`, b.ID, b.AmountFrom, b.AmountTo, b.Percent, b.IsActive)
	return r.afterConfigWrite(ctx, tag, err, "update commission bracket")
}

// DeleteBracket deletes a commission bracket
func (r *Repository) DeleteBracket(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM commission_brackets WHERE id = $1`, id)
	return r.afterConfigWrite(ctx, tag, err, "delete commission bracket")
}

func (r *Repository) listBonusRules(ctx context.Context) ([]BonusRule, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, period, metric, operator, threshold::float8, payout::float8,
		       is_active, created_at, updated_at
		FROM bonus_rules ORDER BY period, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list bonus rules: %w", err)
	}
	defer rows.Close()

	items := make([]BonusRule, 0)
	for rows.Next() {
		var b BonusRule
		err := rows.Scan(&b.ID, &b.Name, &b.Period, &b.Metric, &b.Operator, &b.Threshold, &b.Payout,
			&b.IsActive, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bonus rule: %w", err)
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

// CreateBonusRule creates a bonus rule
func (r *Repository) CreateBonusRule(ctx context.Context, b *BonusRule) error {
	b.ID = uuid.New()
	err := r.db.QueryRow(ctx, `
		INSERT INTO bonus_rules (id, name, period, metric, operator, threshold, payout, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, b.ID, b.Name, b.Period, b.Metric, b.Operator, b.Threshold, b.Payout, b.IsActive,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create bonus rule: %w", err)
	}
	r.invalidate(ctx)
	return nil
}

// UpdateBonusRule updates a bonus rule
func (r *Repository) UpdateBonusRule(ctx context.Context, b *BonusRule) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE bonus_rules SET name = $2, period = $3, metric = $4, operator = $5,
			threshold = $6, payout = $7, is_active = $8, updated_at = NOW()
		WHERE id = $1
	`, b.ID, b.Name, b.Period, b.Metric, b.Operator, b.Threshold, b.Payout, b.IsActive)
	return r.afterConfigWrite(ctx, tag, err, "update bonus rule")
}

// DeleteBonusRule deletes a bonus rule
func (r *Repository) DeleteBonusRule(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM bonus_rules WHERE id = $1`, id)
	return r.afterConfigWrite(ctx, tag, err, "delete bonus rule")
}

func (r *Repository) listPointActions(ctx context.Context) ([]PointAction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, code, name, points, is_active, created_at, updated_at
		FROM point_actions ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list point actions: %w", err)
	}
	defer rows.Close()

	items := make([]PointAction, 0)
	for rows.Next() {
		var a PointAction
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.Points, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan point action: %w", err)
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// CreatePointAction creates a point action
func (r *Repository) CreatePointAction(ctx context.Context, a *PointAction) error {
	a.ID = uuid.New()
	err := r.db.QueryRow(ctx, `
		INSERT INTO point_actions (id, code, name, points, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, a.ID, a.Code, a.Name, a.Points, a.IsActive).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create point action: %w", err)
	}
	r.invalidate(ctx)
	return nil
}

// UpdatePointAction updates a point action
func (r *Repository) UpdatePointAction(ctx context.Context, a *PointAction) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE point_actions SET code = $2, name = $3, points = $4, is_active = $5, updated_at = NOW()
		WHERE id = $1
	`, a.ID, a.Code, a.Name, a.Points, a.IsActive)
	return r.afterConfigWrite(ctx, tag, err, "update point action")
}

// DeletePointAction deletes a point action
func (r *Repository) DeletePointAction(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM point_actions WHERE id = $1`, id)
	return r.afterConfigWrite(ctx, tag, err, "delete point action")
}

func (r *Repository) listRewards(ctx context.Context) ([]Reward, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, points_required, description, is_active, created_at, updated_at
		FROM rewards ORDER BY points_required, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	defer rows.Close()

	items := make([]Reward, 0)
	for rows.Next() {
		var rw Reward
		if err := rows.Scan(&rw.ID, &rw.Name, &rw.PointsRequired, &rw.Description, &rw.IsActive, &rw.CreatedAt, &rw.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reward: %w", err)
		}
		items = append(items, rw)
	}
	return items, rows.Err()
}

// CreateReward creates a reward
func (r *Repository) CreateReward(ctx context.Context, rw *Reward) error {
	rw.ID = uuid.New()
	err := r.db.QueryRow(ctx, `
		INSERT INTO rewards (id, name, points_required, description, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, rw.ID, rw.Name, rw.PointsRequired, rw.Description, rw.IsActive).Scan(&rw.CreatedAt, &rw.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create reward: %w", err)
	}
	r.invalidate(ctx)
	return nil
}

// UpdateReward updates a reward
func (r *Repository) UpdateReward(ctx context.Context, rw *Reward) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE rewards SET name = $2, points_required = $3, description = $4,
			is_active = $5, updated_at = NOW()
		WHERE id = $1
	`, rw.ID, rw.Name, rw.PointsRequired, rw.Description, rw.IsActive)
	return r.afterConfigWrite(ctx, tag, err, "update reward")
}

// DeleteReward deletes a reward
func (r *Repository) DeleteReward(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM rewards WHERE id = $1`, id)
	return r.afterConfigWrite(ctx, tag, err, "delete reward")
}

// ListPrizes lists quote prizes, all of them when salesperson is empty
func (r *Repository) ListPrizes(ctx context.Context, salesperson string) ([]QuotePrize, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, quote_code, customer_code, salesperson, amount::float8, prize::float8,
		       reason, achieved, created_at, updated_at
		FROM quote_prizes
		WHERE $1 = '' OR salesperson = $1
		ORDER BY created_at DESC
	`, salesperson)
	if err != nil {
		return nil, fmt.Errorf("failed to list quote prizes: %w", err)
	}
	defer rows.Close()

	items := make([]QuotePrize, 0)
	for rows.Next() {
		var p QuotePrize
		err := rows.Scan(&p.ID, &p.QuoteCode, &p.CustomerCode, &p.Salesperson, &p.Amount, &p.Prize,
			&p.Reason, &p.Achieved, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote prize: %w", err)
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// CreatePrize creates a quote prize
func (r *Repository) CreatePrize(ctx context.Context, p *QuotePrize) error {
	p.ID = uuid.New()
	err := r.db.QueryRow(ctx, `
		INSERT INTO quote_prizes (id, quote_code, customer_code, salesperson, amount, prize, reason, achieved)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, p.ID, p.QuoteCode, p.CustomerCode, p.Salesperson, p.Amount, p.Prize, p.Reason, p.Achieved,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create quote prize: %w", err)
	}
	return nil
}

// UpdatePrize updates a quote prize
func (r *Repository) UpdatePrize(ctx context.Context, p *QuotePrize) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE quote_prizes SET quote_code = $2, customer_code = $3, salesperson = $4, amount = $5,
			prize = $6, reason = $7, achieved = $8, updated_at = NOW()
		WHERE id = $1
	`, p.ID, p.QuoteCode, p.CustomerCode, p.Salesperson, p.Amount, p.Prize, p.Reason, p.Achieved)
	return checkWrite(tag, err, "update quote prize")
}

// DeletePrize deletes a quote prize
func (r *Repository) DeletePrize(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM quote_prizes WHERE id = $1`, id)
	return checkWrite(tag, err, "delete quote prize")
}

// CreatePointEvent records a performed action
func (r *Repository) CreatePointEvent(ctx context.Context, e *PointEvent) error {
	e.ID = uuid.New()
	err := r.db.QueryRow(ctx, `
		INSERT INTO point_events (id, salesperson, action_code, quote_code, occurred_on)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, e.ID, e.Salesperson, e.ActionCode, e.QuoteCode, e.OccurredOn).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create point event: %w", err)
	}
	return nil
}

// PointEventCounts counts events in [from, to) by salesperson and action code
func (r *Repository) PointEventCounts(ctx context.Context, from, to time.Time) (map[string]map[string]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT salesperson, action_code, COUNT(*)
		FROM point_events
		WHERE occurred_on >= $1 AND occurred_on < $2
		GROUP BY salesperson, action_code
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to count point events: %w", err)
	}
	defer rows.Close()

	out := make(map[string]map[string]int)
	for rows.Next() {
		var salesperson, code string
		var n int
		if err := rows.Scan(&salesperson, &code, &n); err != nil {
			return nil, fmt.Errorf("failed to scan point event count: %w", err)
		}
		if out[salesperson] == nil {
			out[salesperson] = make(map[string]int)
		}
		out[salesperson][code] = n
	}
	return out, rows.Err()
}

// SaveHistory stores a settlement, replacing an earlier one for the same period
func (r *Repository) SaveHistory(ctx context.Context, h *HistoryEntry) error {
	h.ID = uuid.New()
	err := r.db.QueryRow(ctx, `
		INSERT INTO incentive_history (id, salesperson, period_type, year, period, revenue,
		       commission, bonuses, points, details, recorded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (salesperson, period_type, year, period) DO UPDATE SET
			revenue = EXCLUDED.revenue, commission = EXCLUDED.commission,
			bonuses = EXCLUDED.bonuses, points = EXCLUDED.points,
			details = EXCLUDED.details, recorded_by = EXCLUDED.recorded_by,
			created_at = NOW()
		RETURNING id, created_at
	`, h.ID, h.Salesperson, h.PeriodType, h.Year, h.Period, h.Revenue,
		h.Commission, h.Bonuses, h.Points, h.Details, h.RecordedBy,
	).Scan(&h.ID, &h.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save incentive history: %w", err)
	}
	return nil
}

// ListHistory lists stored settlements, newest period first
func (r *Repository) ListHistory(ctx context.Context, f HistoryFilter) ([]HistoryEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, salesperson, period_type, year, period, revenue::float8, commission::float8,
		       bonuses::float8, points, details, recorded_by, created_at
		FROM incentive_history
		WHERE ($1 = '' OR salesperson = $1)
		  AND ($2 = '' OR period_type = $2)
		  AND ($3 = 0 OR year = $3)
		ORDER BY year DESC, period DESC, salesperson
	`, f.Salesperson, string(f.PeriodType), f.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to list incentive history: %w", err)
	}
	defer rows.Close()

	items := make([]HistoryEntry, 0)
	for rows.Next() {
		var h HistoryEntry
		err := rows.Scan(&h.ID, &h.Salesperson, &h.PeriodType, &h.Year, &h.Period, &h.Revenue,
			&h.Commission, &h.Bonuses, &h.Points, &h.Details, &h.RecordedBy, &h.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incentive history: %w", err)
		}
		items = append(items, h)
	}
	return items, rows.Err()
}
