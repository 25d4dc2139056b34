// Package secrets resolves credentials from an external secret store so they
// do not have to live in the environment.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cesarmartin1/crm-david/pkg/config"
	"github.com/cesarmartin1/crm-david/pkg/logger"
	"go.uber.org/zap"
)

// ProviderType names a secret backend
type ProviderType string

const (
	ProviderNone  ProviderType = ""
	ProviderAWS   ProviderType = "aws"
	ProviderGCP   ProviderType = "gcp"
	ProviderVault ProviderType = "vault"
	ProviderFile  ProviderType = "file"
)

var (
	ErrProviderNotConfigured = errors.New("secrets: provider not configured")
	ErrInvalidReference      = errors.New("secrets: invalid reference")
	ErrKeyNotFound           = errors.New("secrets: key not found")
)

// Reference locates a value inside a secret store
type Reference struct {
	Name    string
	Mount   string
	Path    string
	Version string
	Key     string
}

// CacheKey identifies the secret payload, ignoring the selected key
func (r Reference) CacheKey() string {
	var sb strings.Builder
	if r.Mount != "" {
		sb.WriteString(r.Mount)
		sb.WriteString("::")
	}
	sb.WriteString(r.Path)
	if r.Version != "" {
		sb.WriteString("@")
		sb.WriteString(r.Version)
	}
	return sb.String()
}

// ParseReference parses [mount::]path[@version][#key]
func ParseReference(name, raw string) (Reference, error) {
	ref := Reference{Name: name}
	clean := strings.TrimSpace(raw)

	if i := strings.Index(clean, "#"); i >= 0 {
		ref.Key = strings.TrimSpace(clean[i+1:])
		clean = clean[:i]
	}
	if i := strings.Index(clean, "@"); i >= 0 {
		ref.Version = strings.TrimSpace(clean[i+1:])
		clean = clean[:i]
	}
	if i := strings.Index(clean, "::"); i >= 0 {
		ref.Mount = strings.Trim(strings.TrimSpace(clean[:i]), "/")
		clean = clean[i+2:]
	}

	ref.Path = strings.Trim(strings.TrimSpace(clean), "/")
	if ref.Path == "" {
		return ref, fmt.Errorf("%w: %q", ErrInvalidReference, raw)
	}
	return ref, nil
}

// Secret is a resolved payload
type Secret struct {
	Data    map[string]string
	Version string
}

// Value returns one non-empty entry of the payload
func (s Secret) Value(key string) (string, bool) {
	v, ok := s.Data[key]
	return v, ok && v != ""
}

type provider interface {
	Name() ProviderType
	Fetch(ctx context.Context, ref Reference) (Secret, error)
}

type cachedSecret struct {
	secret    Secret
	expiresAt time.Time
}

// Manager fetches secrets from one provider and caches payloads for a TTL
type Manager struct {
	provider provider
	ttl      time.Duration
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]cachedSecret
}

// NewManager creates a manager for the configured provider
func NewManager(ctx context.Context, cfg config.SecretsConfig) (*Manager, error) {
	var (
		prov provider
		err  error
	)
	switch ProviderType(cfg.Provider) {
	case ProviderNone:
		return nil, ErrProviderNotConfigured
	case ProviderAWS:
		prov, err = newAWSProvider(ctx, cfg.AWSRegion, cfg.AWSEndpoint)
	case ProviderGCP:
		prov, err = newGCPProvider(ctx, cfg.GCPProjectID, cfg.GCPCredentials, cfg.GCPCredsFile)
	case ProviderVault:
		prov, err = newVaultProvider(cfg.VaultAddress, cfg.VaultToken, cfg.VaultNamespace, cfg.VaultMount)
	case ProviderFile:
		prov, err = newFileProvider(cfg.FileBasePath)
	default:
		err = fmt.Errorf("secrets: unsupported provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return newManager(prov, cfg.CacheTTL), nil
}

func newManager(prov provider, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Manager{provider: prov, ttl: ttl, now: time.Now, cache: make(map[string]cachedSecret)}
}

// GetSecret returns the whole payload at ref
func (m *Manager) GetSecret(ctx context.Context, ref Reference) (Secret, error) {
	key := ref.CacheKey()

	m.mu.Lock()
	entry, ok := m.cache[key]
	m.mu.Unlock()
	if ok && m.now().Before(entry.expiresAt) {
		return entry.secret, nil
	}

	secret, err := m.provider.Fetch(ctx, ref)
	if err != nil {
		logger.WithContext(ctx).Warn("Secret fetch failed",
			zap.String("secret", ref.Name),
			zap.String("provider", string(m.provider.Name())),
			zap.Error(err),
		)
		return Secret{}, err
	}

	m.mu.Lock()
	m.cache[key] = cachedSecret{secret: secret, expiresAt: m.now().Add(m.ttl)}
	m.mu.Unlock()

	logger.WithContext(ctx).Info("Secret fetched",
		zap.String("secret", ref.Name),
		zap.String("provider", string(m.provider.Name())),
		zap.String("version", secret.Version),
	)
	return secret, nil
}

// GetString returns the value selected by ref.Key. Without a key the
// payload must hold exactly one entry.
func (m *Manager) GetString(ctx context.Context, ref Reference) (string, error) {
	secret, err := m.GetSecret(ctx, ref)
	if err != nil {
		return "", err
	}
	if ref.Key == "" {
		if len(secret.Data) == 1 {
			for _, v := range secret.Data {
				if v != "" {
					return v, nil
				}
			}
		}
		return "", fmt.Errorf("%w: %s holds %d values, select one with #key", ErrKeyNotFound, ref.Path, len(secret.Data))
	}
	if v, ok := secret.Value(ref.Key); ok {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s#%s", ErrKeyNotFound, ref.Path, ref.Key)
}
