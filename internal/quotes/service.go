package quotes

import (
	"context"

	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/cesarmartin1/crm-david/pkg/logger"
	"go.uber.org/zap"
)

// Service handles quote analytics and the few quote mutations the CRM allows
type Service struct {
	repo         RepositoryInterface
	descriptions DescriptionSource
}

// NewService creates a new quotes service. descriptions may be nil.
func NewService(repo RepositoryInterface, descriptions DescriptionSource) *Service {
	return &Service{repo: repo, descriptions: descriptions}
}

// Lines returns the lines matching f
func (s *Service) Lines(ctx context.Context, f Filter) ([]QuoteLine, error) {
	lines, err := s.repo.ListLines(ctx)
	if err != nil {
		return nil, common.NewInternalError("failed to load quotes", err)
	}
	return f.Apply(lines), nil
}

// KPIs returns the headline figures for the lines matching f
func (s *Service) KPIs(ctx context.Context, f Filter) (KPIs, error) {
	lines, err := s.Lines(ctx, f)
	if err != nil {
		return KPIs{}, err
	}
	return ComputeKPIs(lines), nil
}

// Pending returns sent or valued lines matching f
func (s *Service) Pending(ctx context.Context, f Filter) ([]QuoteLine, error) {
	lines, err := s.Lines(ctx, f)
	if err != nil {
		return nil, err
	}
	return PendingLines(lines), nil
}

// Conversion groups the lines matching f by d
func (s *Service) Conversion(ctx context.Context, f Filter, d Dimension) ([]ConversionRow, error) {
	if !ValidDimension(d) {
		return nil, common.NewBadRequestError("invalid conversion dimension", nil)
	}
	lines, err := s.Lines(ctx, f)
	if err != nil {
		return nil, err
	}
	return ConversionBy(lines, d), nil
}

// Trend returns monthly line counts per status
func (s *Service) Trend(ctx context.Context, f Filter) ([]TrendPoint, error) {
	lines, err := s.Lines(ctx, f)
	if err != nil {
		return nil, err
	}
	return MonthlyTrend(lines), nil
}

// LeadTimes returns per-line anticipation of accepted lines
func (s *Service) LeadTimes(ctx context.Context, f Filter) ([]LeadTime, error) {
	lines, err := s.Lines(ctx, f)
	if err != nil {
		return nil, err
	}
	return LeadTimes(lines, true), nil
}

// LeadTimeByServiceType aggregates anticipation per service type
func (s *Service) LeadTimeByServiceType(ctx context.Context, f Filter) ([]LeadTimeStats, error) {
	lines, err := s.Lines(ctx, f)
	if err != nil {
		return nil, err
	}
	return LeadTimeByServiceType(lines, s.serviceTypeDescriptions(ctx)), nil
}

// LeadTimeTrend returns mean anticipation per request month
func (s *Service) LeadTimeTrend(ctx context.Context, f Filter) ([]LeadTimeTrendPoint, error) {
	lines, err := s.Lines(ctx, f)
	if err != nil {
		return nil, err
	}
	return LeadTimeMonthlyTrend(lines), nil
}

// FilterOptions lists the values available for each filter
func (s *Service) FilterOptions(ctx context.Context) (FilterOptions, error) {
	lines, err := s.Lines(ctx, Filter{})
	if err != nil {
		return FilterOptions{}, err
	}
	return Options(lines), nil
}

// UpdateStatus changes the status of a quote
func (s *Service) UpdateStatus(ctx context.Context, quoteCode string, status Status) error {
	n, err := s.repo.UpdateStatus(ctx, quoteCode, status)
	if err != nil {
		return common.NewInternalError("failed to update quote status", err)
	}
	if n == 0 {
		return common.NewNotFoundError("quote not found", nil)
	}
	logger.WithContext(ctx).Info("quote status updated",
		zap.String("quote_code", quoteCode),
		zap.String("status", string(status)),
	)
	return nil
}

// UpdateNotes replaces the notes of a quote
func (s *Service) UpdateNotes(ctx context.Context, quoteCode, notes string) error {
	n, err := s.repo.UpdateNotes(ctx, quoteCode, notes)
	if err != nil {
		return common.NewInternalError("failed to update quote notes", err)
	}
	if n == 0 {
		return common.NewNotFoundError("quote not found", nil)
	}
	return nil
}

func (s *Service) serviceTypeDescriptions(ctx context.Context) map[string]string {
	if s.descriptions == nil {
		return nil
	}
	desc, err := s.descriptions.ServiceTypeDescriptions(ctx)
	if err != nil {
		logger.WithContext(ctx).Warn("service type descriptions unavailable", zap.Error(err))
		return nil
	}
	return desc
}
