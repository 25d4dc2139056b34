package customers

import (
	"context"
	"time"

	"github.com/cesarmartin1/crm-david/internal/quotes"
	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/cesarmartin1/crm-david/pkg/database"
	"github.com/cesarmartin1/crm-david/pkg/logger"
	"go.uber.org/zap"
)

// Service handles customer segmentation and master data
type Service struct {
	repo           RepositoryInterface
	lines          LineSource
	thresholds     Thresholds
	inactiveMonths int
	now            func() time.Time
}

// NewService creates a new customers service. thresholds and inactiveMonths
// are the defaults used when a request does not override them.
func NewService(repo RepositoryInterface, lines LineSource, thresholds Thresholds, inactiveMonths int) *Service {
	if inactiveMonths <= 0 {
		inactiveMonths = 6
	}
	return &Service{
		repo:           repo,
		lines:          lines,
		thresholds:     thresholds,
		inactiveMonths: inactiveMonths,
		now:            time.Now,
	}
}

// Thresholds returns the configured thresholds
func (s *Service) Thresholds() Thresholds {
	return s.thresholds
}

func (s *Service) loadLines(ctx context.Context) ([]quotes.QuoteLine, error) {
	lines, err := s.lines.ListLines(ctx)
	if err != nil {
		return nil, common.NewInternalError("failed to load quotes", err)
	}
	return lines, nil
}

// Metrics classifies every customer as of asOf (today when zero)
func (s *Service) Metrics(ctx context.Context, asOf time.Time, t Thresholds) ([]Metrics, error) {
	lines, err := s.loadLines(ctx)
	if err != nil {
		return nil, err
	}
	if asOf.IsZero() {
		asOf = s.now()
	}
	return BuildMetrics(lines, asOf, t), nil
}

// Segments summarises customers per segment
func (s *Service) Segments(ctx context.Context, asOf time.Time, t Thresholds) ([]SegmentCount, error) {
	metrics, err := s.Metrics(ctx, asOf, t)
	if err != nil {
		return nil, err
	}
	return SegmentSummary(metrics), nil
}

// Inactive lists customers without activity in the last months (the
// configured default when months <= 0). Deactivated customers are excluded.
func (s *Service) Inactive(ctx context.Context, months int) ([]InactiveCustomer, error) {
	if months <= 0 {
		months = s.inactiveMonths
	}
	lines, err := s.loadLines(ctx)
	if err != nil {
		return nil, err
	}
	hidden := s.deactivatedSet(ctx)

	all := InactiveCustomers(lines, months, s.now())
	out := make([]InactiveCustomer, 0, len(all))
	for _, c := range all {
		if _, ok := hidden[c.CustomerCode]; !ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// Segmentation lists reachable customers matching f, deactivated ones excluded
func (s *Service) Segmentation(ctx context.Context, f SegmentFilter) ([]Contact, error) {
	if f.MinAmount != nil && f.MaxAmount != nil && *f.MinAmount > *f.MaxAmount {
		return nil, common.NewBadRequestError("min_amount must not exceed max_amount", nil)
	}
	lines, err := s.loadLines(ctx)
	if err != nil {
		return nil, err
	}
	hidden := s.deactivatedSet(ctx)

	all := Segmentation(lines, f)
	out := make([]Contact, 0, len(all))
	for _, c := range all {
		if _, ok := hidden[c.CustomerCode]; !ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// Stats returns the quote statistics of one customer
func (s *Service) Stats(ctx context.Context, code string) (Stats, error) {
	lines, err := s.loadLines(ctx)
	if err != nil {
		return Stats{}, err
	}
	st, ok := ComputeStats(lines, code)
	if !ok {
		return Stats{}, common.NewNotFoundError("customer has no quotes", nil)
	}
	return st, nil
}

// Profile returns the master record and live metrics of a customer. Either
// part may be missing; both missing is not found.
func (s *Service) Profile(ctx context.Context, code string, t Thresholds) (*CustomerProfile, error) {
	profile := &CustomerProfile{}

	c, err := s.repo.GetCustomer(ctx, code)
	switch {
	case err == nil:
		profile.Customer = c
	case database.IsNoRows(err):
	default:
		return nil, common.NewInternalError("failed to load customer", err)
	}

	lines, err := s.loadLines(ctx)
	if err != nil {
		return nil, err
	}
	own := make([]quotes.QuoteLine, 0)
	for _, l := range lines {
		if l.CustomerCode == code {
			own = append(own, l)
		}
	}
	if len(own) > 0 {
		if m := BuildMetrics(own, s.now(), t); len(m) == 1 {
			profile.Metrics = &m[0]
		}
	}

	if profile.Customer == nil && profile.Metrics == nil {
		return nil, common.NewNotFoundError("customer not found", nil)
	}

	_, profile.Deactivated = s.deactivatedSet(ctx)[code]
	return profile, nil
}

// List returns a page of master records
func (s *Service) List(ctx context.Context, search string, limit, offset int) ([]*Customer, int64, error) {
	items, total, err := s.repo.ListCustomers(ctx, search, limit, offset)
	if err != nil {
		return nil, 0, common.NewInternalError("failed to list customers", err)
	}
	return items, total, nil
}

// SetClientType assigns the client type used for tariff multipliers
func (s *Service) SetClientType(ctx context.Context, code string, clientTypeCode *string) error {
	if err := s.repo.SetClientType(ctx, code, clientTypeCode); err != nil {
		if database.IsNoRows(err) {
			return common.NewNotFoundError("customer not found", err)
		}
		return common.NewInternalError("failed to set client type", err)
	}
	return nil
}

// Deactivate hides a customer from contact lists
func (s *Service) Deactivate(ctx context.Context, code, reason, by string) (*Deactivation, error) {
	d := &Deactivation{CustomerCode: code, Reason: reason, DeactivatedBy: by}
	if err := s.repo.Deactivate(ctx, d); err != nil {
		return nil, common.NewInternalError("failed to deactivate customer", err)
	}
	logger.WithContext(ctx).Info("customer deactivated",
		zap.String("customer_code", code),
		zap.String("by", by),
	)
	return d, nil
}

// Reactivate restores a deactivated customer
func (s *Service) Reactivate(ctx context.Context, code string) error {
	ok, err := s.repo.Reactivate(ctx, code)
	if err != nil {
		return common.NewInternalError("failed to reactivate customer", err)
	}
	if !ok {
		return common.NewNotFoundError("customer is not deactivated", nil)
	}
	return nil
}

// ListDeactivated returns every deactivated customer
func (s *Service) ListDeactivated(ctx context.Context) ([]Deactivation, error) {
	items, err := s.repo.ListDeactivated(ctx)
	if err != nil {
		return nil, common.NewInternalError("failed to list deactivated customers", err)
	}
	return items, nil
}

// deactivatedSet never fails: without the list nobody is hidden
func (s *Service) deactivatedSet(ctx context.Context) map[string]struct{} {
	set := make(map[string]struct{})
	items, err := s.repo.ListDeactivated(ctx)
	if err != nil {
		logger.WithContext(ctx).Warn("deactivated customers unavailable", zap.Error(err))
		return set
	}
	for _, d := range items {
		set[d.CustomerCode] = struct{}{}
	}
	return set
}
