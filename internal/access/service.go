package access

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/cesarmartin1/crm-david/pkg/logger"
	"github.com/cesarmartin1/crm-david/pkg/middleware"
	"github.com/cesarmartin1/crm-david/pkg/pagination"
	"go.uber.org/zap"
)

// logWriteTimeout bounds the access log insert made after a response
const logWriteTimeout = 2 * time.Second

// Service resolves section permissions and keeps the access log
type Service struct {
	repo RepositoryInterface
}

// NewService creates a new access service
func NewService(repo RepositoryInterface) *Service {
	return &Service{repo: repo}
}

// roleDefault is the permission a role holds on a section without overrides
func roleDefault(role, section string) Permission {
	switch role {
	case middleware.RoleAdmin:
		return Permission{Section: section, CanView: true, CanEdit: true}
	case middleware.RoleComercial:
		return Permission{Section: section, CanView: true, CanEdit: section != SectionAccess}
	case middleware.RoleViewer:
		return Permission{Section: section, CanView: section != SectionAccess}
	}
	return Permission{Section: section}
}

// Resolve combines the role defaults with the stored overrides of a user.
// Admins keep full access whatever is stored. An override can only grant
// editing together with viewing.
func Resolve(role string, overrides []Permission) []Permission {
	stored := make(map[string]Permission, len(overrides))
	for _, o := range overrides {
		stored[o.Section] = o
	}

	out := make([]Permission, 0, len(Sections))
	for _, section := range Sections {
		p := roleDefault(role, section)
		if o, ok := stored[section]; ok && role != middleware.RoleAdmin {
			p.CanView = o.CanView
			p.CanEdit = o.CanEdit && o.CanView
		}
		out = append(out, p)
	}
	return out
}

func (s *Service) overrides(ctx context.Context, userID string) ([]Permission, error) {
	items, err := s.repo.ListOverrides(ctx, userID)
	if err != nil {
		return nil, common.NewInternalError("failed to load section permissions", err)
	}
	return items, nil
}

// Allowed reports whether the user may view, or edit when write is set, a section
func (s *Service) Allowed(ctx context.Context, userID, role, section string, write bool) (bool, error) {
	if role == middleware.RoleAdmin {
		return true, nil
	}
	overrides, err := s.overrides(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, p := range Resolve(role, overrides) {
		if p.Section == section {
			if write {
				return p.CanEdit, nil
			}
			return p.CanView, nil
		}
	}
	return false, nil
}

// Permissions returns the effective permissions of a user holding role
func (s *Service) Permissions(ctx context.Context, userID, role string) (*UserPermissions, error) {
	overrides, err := s.overrides(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserPermissions{
		UserID:      userID,
		Role:        role,
		Permissions: Resolve(role, overrides),
		Overrides:   overrides,
	}, nil
}

// UpdatePermissions stores overrides for the listed sections of a user
func (s *Service) UpdatePermissions(ctx context.Context, userID, role string, req UpdatePermissionsRequest, updatedBy string) (*UserPermissions, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, common.NewBadRequestError("user id is required", nil)
	}

	perms := make([]Permission, 0, len(req.Permissions))
	for _, p := range req.Permissions {
		p.Section = strings.ToLower(strings.TrimSpace(p.Section))
		if !slices.Contains(Sections, p.Section) {
			return nil, common.NewBadRequestError("unknown section "+p.Section, nil)
		}
		p.CanEdit = p.CanEdit && p.CanView
		perms = append(perms, p)
	}

	if err := s.repo.SaveOverrides(ctx, userID, perms, updatedBy); err != nil {
		return nil, common.NewInternalError("failed to save section permissions", err)
	}
	logger.WithContext(ctx).Info("section permissions updated",
		zap.String("target_user", userID),
		zap.Int("sections", len(perms)),
	)
	return s.Permissions(ctx, userID, role)
}

// ResetPermissions drops the overrides of a user, back to the role defaults
func (s *Service) ResetPermissions(ctx context.Context, userID string) error {
	if err := s.repo.DeleteOverrides(ctx, userID); err != nil {
		return common.NewInternalError("failed to reset section permissions", err)
	}
	return nil
}

// Record writes e to the access log. Failures are logged and counted but
// never reach the caller, and a cancelled request still gets its entry.
func (s *Service) Record(ctx context.Context, e LogEntry) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), logWriteTimeout)
	defer cancel()

	if err := s.repo.InsertLogEntry(writeCtx, &e); err != nil {
		logFailures.Inc()
		logger.WithContext(ctx).Warn("failed to write access log entry",
			zap.String("action", e.Action),
			zap.String("route", e.Route),
			zap.Error(err),
		)
	}
}

// Log returns one page of the access log and the number of matching entries
func (s *Service) Log(ctx context.Context, f LogFilter, p pagination.Params) ([]LogEntry, int64, error) {
	f.UserID = strings.TrimSpace(f.UserID)
	f.Section = strings.ToLower(strings.TrimSpace(f.Section))
	items, total, err := s.repo.ListLog(ctx, f, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, common.NewInternalError("failed to list access log", err)
	}
	return items, total, nil
}
