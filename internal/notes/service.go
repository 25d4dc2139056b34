package notes

import (
	"context"
	"strings"

	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/cesarmartin1/crm-david/pkg/database"
	"github.com/cesarmartin1/crm-david/pkg/pagination"
	"github.com/cesarmartin1/crm-david/pkg/security"
	"github.com/google/uuid"
)

const (
	maxContentLength = 10000
	maxRemarkLength  = 2000
	maxNameLength    = 200
)

// Service handles notes and highlights
type Service struct {
	repo       RepositoryInterface
	highlights HighlightStoreInterface
}

// NewService creates a new notes service
func NewService(repo RepositoryInterface, highlights HighlightStoreInterface) *Service {
	return &Service{repo: repo, highlights: highlights}
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// List returns one page of notes matching f and the total match count.
// An empty filter lists every note.
func (s *Service) List(ctx context.Context, f NoteFilter, p pagination.Params) ([]Note, int64, error) {
	f.QuoteCode = strings.TrimSpace(f.QuoteCode)
	f.CustomerCode = strings.TrimSpace(f.CustomerCode)
	f.Search = security.SanitizeLine(f.Search, 200)

	items, total, err := s.repo.ListNotes(ctx, f, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, common.NewInternalError("failed to list notes", err)
	}
	return items, total, nil
}

// Create adds a note written by author
func (s *Service) Create(ctx context.Context, req CreateNoteRequest, author string) (*Note, error) {
	n := &Note{
		QuoteCode:    optional(req.QuoteCode),
		CustomerCode: optional(req.CustomerCode),
		Content:      security.SanitizeText(req.Content, maxContentLength),
		Type:         req.Type,
		Author:       author,
	}
	if n.QuoteCode == nil && n.CustomerCode == nil {
		return nil, common.NewBadRequestError("quote_code or customer_code is required", nil)
	}
	if n.Content == "" {
		return nil, common.NewBadRequestError("content is required", nil)
	}
	if n.Type == "" {
		n.Type = TypeNote
	}
	if err := s.repo.CreateNote(ctx, n); err != nil {
		return nil, common.NewInternalError("failed to save note", err)
	}
	return n, nil
}

// Delete removes a note
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.DeleteNote(ctx, id)
	if database.IsNoRows(err) {
		return common.NewNotFoundError("note not found", err)
	}
	if err != nil {
		return common.NewInternalError("failed to delete note", err)
	}
	return nil
}

func priority(p int) int {
	if p <= 0 {
		return 1
	}
	return p
}

// HighlightQuote flags a quote
func (s *Service) HighlightQuote(ctx context.Context, code string, req MarkRequest) (*HighlightedQuote, error) {
	h := &HighlightedQuote{QuoteCode: code, Priority: priority(req.Priority), Note: security.SanitizeText(req.Note, maxRemarkLength)}
	if err := s.highlights.MarkQuote(ctx, h); err != nil {
		return nil, common.NewInternalError("failed to highlight quote", err)
	}
	return h, nil
}

// UnhighlightQuote removes a quote flag
func (s *Service) UnhighlightQuote(ctx context.Context, code string) error {
	found, err := s.highlights.UnmarkQuote(ctx, code)
	if err != nil {
		return common.NewInternalError("failed to remove quote highlight", err)
	}
	if !found {
		return common.NewNotFoundError("quote is not highlighted", nil)
	}
	return nil
}

// QuoteHighlight returns the flag of a quote, nil when it has none
func (s *Service) QuoteHighlight(ctx context.Context, code string) (*HighlightedQuote, error) {
	h, err := s.highlights.GetQuote(ctx, code)
	if err != nil {
		return nil, common.NewInternalError("failed to get quote highlight", err)
	}
	return h, nil
}

// HighlightedQuotes lists flagged quotes
func (s *Service) HighlightedQuotes(ctx context.Context) ([]HighlightedQuote, error) {
	items, err := s.highlights.ListQuotes(ctx)
	if err != nil {
		return nil, common.NewInternalError("failed to list highlighted quotes", err)
	}
	return items, nil
}

// HighlightCustomer flags a customer
func (s *Service) HighlightCustomer(ctx context.Context, code string, req MarkRequest) (*HighlightedCustomer, error) {
	h := &HighlightedCustomer{
		CustomerCode: code,
		CustomerName: security.SanitizeLine(req.CustomerName, maxNameLength),
		Priority:     priority(req.Priority),
		Note:         security.SanitizeText(req.Note, maxRemarkLength),
	}
	if err := s.highlights.MarkCustomer(ctx, h); err != nil {
		return nil, common.NewInternalError("failed to highlight customer", err)
	}
	return h, nil
}

// UnhighlightCustomer removes a customer flag
func (s *Service) UnhighlightCustomer(ctx context.Context, code string) error {
	found, err := s.highlights.UnmarkCustomer(ctx, code)
	if err != nil {
		return common.NewInternalError("failed to remove customer highlight", err)
	}
	if !found {
		return common.NewNotFoundError("customer is not highlighted", nil)
	}
	return nil
}

// CustomerHighlight returns the flag of a customer, nil when it has none
func (s *Service) CustomerHighlight(ctx context.Context, code string) (*HighlightedCustomer, error) {
	h, err := s.highlights.GetCustomer(ctx, code)
	if err != nil {
		return nil, common.NewInternalError("failed to get customer highlight", err)
	}
	return h, nil
}

// HighlightedCustomers lists flagged customers
func (s *Service) HighlightedCustomers(ctx context.Context) ([]HighlightedCustomer, error) {
	items, err := s.highlights.ListCustomers(ctx)
	if err != nil {
		return nil, common.NewInternalError("failed to list highlighted customers", err)
	}
	return items, nil
}
