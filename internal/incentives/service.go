package incentives

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/cesarmartin1/crm-david/internal/quotes"
	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/cesarmartin1/crm-david/pkg/database"
	"github.com/cesarmartin1/crm-david/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service handles commissions, bonuses, points and their configuration
type Service struct {
	repo  RepositoryInterface
	lines LineSource
	calc  Calculator
	now   func() time.Time
}

// NewService creates a new incentives service
func NewService(repo RepositoryInterface, lines LineSource, settings Settings) *Service {
	return &Service{repo: repo, lines: lines, calc: NewCalculator(settings), now: time.Now}
}

// Settings returns the built-in incentive parameters
func (s *Service) Settings() Settings {
	return s.calc.Settings()
}

func (s *Service) loadLines(ctx context.Context) ([]quotes.QuoteLine, error) {
	lines, err := s.lines.ListLines(ctx)
	if err != nil {
		return nil, common.NewInternalError("failed to load quotes", err)
	}
	return lines, nil
}

// Config returns the incentive tables
func (s *Service) Config(ctx context.Context) (*Config, error) {
	cfg, err := s.repo.LoadConfig(ctx)
	if err != nil {
		return nil, common.NewInternalError("failed to load incentive config", err)
	}
	return cfg, nil
}

// config loads the incentive tables, computing with none when unavailable
func (s *Service) config(ctx context.Context) *Config {
	cfg, err := s.repo.LoadConfig(ctx)
	if err != nil {
		logger.WithContext(ctx).Warn("incentive config unavailable, using built-in rules only", zap.Error(err))
		return &Config{}
	}
	return cfg
}

func (s *Service) pointCounts(ctx context.Context, from, to time.Time) map[string]map[string]int {
	counts, err := s.repo.PointEventCounts(ctx, from, to)
	if err != nil {
		logger.WithContext(ctx).Warn("point events unavailable", zap.Error(err))
		return map[string]map[string]int{}
	}
	return counts
}

func (s *Service) prizes(ctx context.Context, salesperson string) []QuotePrize {
	prizes, err := s.repo.ListPrizes(ctx, salesperson)
	if err != nil {
		logger.WithContext(ctx).Warn("quote prizes unavailable", zap.Error(err))
		return nil
	}
	return prizes
}

func validPeriod(year, month int) error {
	if year < 2000 || year > 2100 {
		return common.NewBadRequestError("invalid year", nil)
	}
	if month < 1 || month > 12 {
		return common.NewBadRequestError("invalid month", nil)
	}
	return nil
}

// Summary computes the incentives of salesperson for a month and its quarter
func (s *Service) Summary(ctx context.Context, salesperson string, year, month int) (*Summary, error) {
	salesperson = strings.TrimSpace(salesperson)
	if salesperson == "" {
		return nil, common.NewBadRequestError("salesperson is required", nil)
	}
	if err := validPeriod(year, month); err != nil {
		return nil, err
	}
	lines, err := s.loadLines(ctx)
	if err != nil {
		return nil, err
	}

	m := time.Month(month)
	from, to := MonthBounds(year, m)
	counts := s.pointCounts(ctx, from, to)
	sum := s.calc.summarize(salesperson, year, m, tallyPeriods(lines, year, m),
		s.config(ctx), counts[salesperson], s.prizes(ctx, salesperson))
	return &sum, nil
}

// Leaderboard ranks every salesperson with business in the month or its quarter
func (s *Service) Leaderboard(ctx context.Context, year, month int) ([]LeaderboardEntry, error) {
	if err := validPeriod(year, month); err != nil {
		return nil, err
	}
	lines, err := s.loadLines(ctx)
	if err != nil {
		return nil, err
	}

	m := time.Month(month)
	periods := tallyPeriods(lines, year, m)
	cfg := s.config(ctx)
	from, to := MonthBounds(year, m)
	counts := s.pointCounts(ctx, from, to)
	prizes := s.prizes(ctx, "")

	entries := make([]LeaderboardEntry, 0)
	for _, agent := range periods.agents() {
		sum := s.calc.summarize(agent, year, m, periods, cfg, counts[agent], prizes)
		entries = append(entries, LeaderboardEntry{
			Salesperson: agent,
			Revenue:     sum.Monthly.Revenue,
			Orders:      sum.Monthly.Orders,
			Commission:  sum.Monthly.Commission,
			Bonuses:     sum.Monthly.BonusTotal,
			Points:      sum.Points,
			Total:       sum.Total,
		})
	}
	rank(entries)
	return entries, nil
}

// Salespeople lists every agent found in the quote lines
func (s *Service) Salespeople(ctx context.Context) ([]string, error) {
	lines, err := s.loadLines(ctx)
	if err != nil {
		return nil, err
	}
	return Agents(lines), nil
}

// Record settles a month or a quarter and stores it in the history.
// Quarters are settled with the figures of their last month.
func (s *Service) Record(ctx context.Context, req RecordRequest, recordedBy string) (*HistoryEntry, error) {
	month := req.Period
	if req.PeriodType == PeriodQuarterly {
		if req.Period > 3 {
			return nil, common.NewBadRequestError("quarter must be between 1 and 3", nil)
		}
		month = req.Period * 4
	}

	sum, err := s.Summary(ctx, req.Salesperson, req.Year, month)
	if err != nil {
		return nil, err
	}

	entry := &HistoryEntry{
		Salesperson: sum.Salesperson,
		PeriodType:  req.PeriodType,
		Year:        req.Year,
		Period:      req.Period,
		RecordedBy:  recordedBy,
	}
	switch req.PeriodType {
	case PeriodQuarterly:
		from, to := QuarterBounds(req.Year, req.Period)
		counts := s.pointCounts(ctx, from, to)
		entry.Revenue = sum.Quarterly.Revenue
		entry.Commission = sum.Quarterly.Commission
		entry.Bonuses = sum.Quarterly.BonusTotal
		entry.Points = s.calc.Points(sum.Quarterly.Orders, s.config(ctx).PointActions, counts[sum.Salesperson])
	default:
		entry.Revenue = sum.Monthly.Revenue
		entry.Commission = sum.Monthly.Commission
		entry.Bonuses = sum.Monthly.BonusTotal
		entry.Points = sum.Points
	}

	details, err := json.Marshal(sum)
	if err != nil {
		return nil, common.NewInternalError("failed to encode incentive details", err)
	}
	entry.Details = details

	if err := s.repo.SaveHistory(ctx, entry); err != nil {
		return nil, common.NewInternalError("failed to save incentive history", err)
	}

	logger.WithContext(ctx).Info("incentives recorded",
		zap.String("salesperson", entry.Salesperson),
		zap.String("period_type", string(entry.PeriodType)),
		zap.Int("year", entry.Year),
		zap.Int("period", entry.Period),
		zap.Float64("commission", entry.Commission),
	)
	return entry, nil
}

// History lists stored settlements
func (s *Service) History(ctx context.Context, f HistoryFilter) ([]HistoryEntry, error) {
	items, err := s.repo.ListHistory(ctx, f)
	if err != nil {
		return nil, common.NewInternalError("failed to list incentive history", err)
	}
	return items, nil
}

// LogPoints registers a performed action. salesperson is used when the
// request does not name one.
func (s *Service) LogPoints(ctx context.Context, req LogPointsRequest, salesperson string) (*PointEvent, error) {
	e := &PointEvent{
		Salesperson: strings.TrimSpace(req.Salesperson),
		ActionCode:  req.ActionCode,
		QuoteCode:   req.QuoteCode,
		OccurredOn:  s.now().UTC().Truncate(24 * time.Hour),
	}
	if e.Salesperson == "" {
		e.Salesperson = salesperson
	}
	if e.Salesperson == "" {
		return nil, common.NewBadRequestError("salesperson is required", nil)
	}
	if req.OccurredOn != "" {
		d, err := time.Parse("2006-01-02", req.OccurredOn)
		if err != nil {
			return nil, common.NewBadRequestError("invalid occurred_on, expected YYYY-MM-DD", err)
		}
		e.OccurredOn = d
	}

	cfg, err := s.Config(ctx)
	if err != nil {
		return nil, err
	}
	known := false
	for _, a := range cfg.PointActions {
		if a.Code == e.ActionCode && a.IsActive {
			known = true
			break
		}
	}
	if !known {
		return nil, common.NewBadRequestError("unknown point action "+e.ActionCode, nil)
	}

	if err := s.repo.CreatePointEvent(ctx, e); err != nil {
		return nil, common.NewInternalError("failed to register points", err)
	}
	return e, nil
}

// Prizes lists quote prizes, all of them when salesperson is empty
func (s *Service) Prizes(ctx context.Context, salesperson string) ([]QuotePrize, error) {
	items, err := s.repo.ListPrizes(ctx, salesperson)
	if err != nil {
		return nil, common.NewInternalError("failed to list quote prizes", err)
	}
	return items, nil
}

// writeError maps repository write failures to API errors
func writeError(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case database.IsNoRows(err):
		return common.NewNotFoundError(entity+" not found", err)
	case database.IsUniqueViolation(err):
		return common.NewConflictError(entity + " already exists")
	default:
		return common.NewInternalError("failed to save "+entity, err)
	}
}

func validateBracket(b *CommissionBracket) error {
	if b.AmountTo != nil && *b.AmountTo <= b.AmountFrom {
		return common.NewBadRequestError("amount_to must be greater than amount_from", nil)
	}
	return nil
}

func validateBonusRule(r *BonusRule) error {
	if !r.Operator.Valid() {
		return common.NewBadRequestError("operator must be one of >=, >, <=, <, ==", nil)
	}
	return nil
}

// CreateBracket creates a commission bracket
func (s *Service) CreateBracket(ctx context.Context, b *CommissionBracket) error {
	if err := validateBracket(b); err != nil {
		return err
	}
	return writeError(s.repo.CreateBracket(ctx, b), "commission bracket")
}

// UpdateBracket updates a commission bracket
func (s *Service) UpdateBracket(ctx context.Context, b *CommissionBracket) error {
	if err := validateBracket(b); err != nil {
		return err
	}
	return writeError(s.repo.UpdateBracket(ctx, b), "commission bracket")
}

// DeleteBracket deletes a commission bracket
func (s *Service) DeleteBracket(ctx context.Context, id uuid.UUID) error {
	return writeError(s.repo.DeleteBracket(ctx, id), "commission bracket")
}

// CreateBonusRule creates a bonus rule
func (s *Service) CreateBonusRule(ctx context.Context, r *BonusRule) error {
	if err := validateBonusRule(r); err != nil {
		return err
	}
	return writeError(s.repo.CreateBonusRule(ctx, r), "bonus rule")
}

// UpdateBonusRule updates a bonus rule
func (s *Service) UpdateBonusRule(ctx context.Context, r *BonusRule) error {
	if err := validateBonusRule(r); err != nil {
		return err
	}
	return writeError(s.repo.UpdateBonusRule(ctx, r), "bonus rule")
}

// DeleteBonusRule deletes a bonus rule
func (s *Service) DeleteBonusRule(ctx context.Context, id uuid.UUID) error {
	return writeError(s.repo.DeleteBonusRule(ctx, id), "bonus rule")
}

// CreatePointAction creates a point action
func (s *Service) CreatePointAction(ctx context.Context, a *PointAction) error {
	return writeError(s.repo.CreatePointAction(ctx, a), "point action")
}

// UpdatePointAction updates a point action
func (s *Service) UpdatePointAction(ctx context.Context, a *PointAction) error {
	return writeError(s.repo.UpdatePointAction(ctx, a), "point action")
}

// DeletePointAction deletes a point action
func (s *Service) DeletePointAction(ctx context.Context, id uuid.UUID) error {
	return writeError(s.repo.DeletePointAction(ctx, id), "point action")
}

// CreateReward creates a reward
func (s *Service) CreateReward(ctx context.Context, r *Reward) error {
	return writeError(s.repo.CreateReward(ctx, r), "reward")
}

// UpdateReward updates a reward
func (s *Service) UpdateReward(ctx context.Context, r *Reward) error {
	return writeError(s.repo.UpdateReward(ctx, r), "reward")
}

// DeleteReward deletes a reward
func (s *Service) DeleteReward(ctx context.Context, id uuid.UUID) error {
	return writeError(s.repo.DeleteReward(ctx, id), "reward")
}

// CreatePrize creates a quote prize
func (s *Service) CreatePrize(ctx context.Context, p *QuotePrize) error {
	return writeError(s.repo.CreatePrize(ctx, p), "quote prize")
}

// UpdatePrize updates a quote prize
func (s *Service) UpdatePrize(ctx context.Context, p *QuotePrize) error {
	return writeError(s.repo.UpdatePrize(ctx, p), "quote prize")
}

// DeletePrize deletes a quote prize
func (s *Service) DeletePrize(ctx context.Context, id uuid.UUID) error {
	return writeError(s.repo.DeletePrize(ctx, id), "quote prize")
}
