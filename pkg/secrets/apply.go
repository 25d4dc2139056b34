package secrets

import (
	"context"
	"fmt"

	"github.com/cesarmartin1/crm-david/pkg/config"
)

// Apply replaces the credentials in cfg that have a secret reference
// configured. Fields without a reference keep their environment value.
func Apply(ctx context.Context, m *Manager, cfg *config.Config) error {
	targets := []struct {
		name string
		raw  string
		dst  *string
	}{
		{"jwt_secret", cfg.Secrets.JWTSecretRef, &cfg.JWT.Secret},
		{"db_password", cfg.Secrets.DBPasswordRef, &cfg.Database.Password},
		{"google_places_key", cfg.Secrets.GooglePlacesKeyRef, &cfg.Routing.GooglePlacesKey},
		{"storage_secret_key", cfg.Secrets.StorageSecretKeyRef, &cfg.Storage.SecretKey},
	}

	for _, t := range targets {
		if t.raw == "" {
			continue
		}
		ref, err := ParseReference(t.name, t.raw)
		if err != nil {
			return err
		}
		value, err := m.GetString(ctx, ref)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", t.name, err)
		}
		*t.dst = value
	}

	if cfg.Server.Environment == "production" && cfg.JWT.Secret == "" {
		return fmt.Errorf("jwt secret resolved empty")
	}
	return nil
}
