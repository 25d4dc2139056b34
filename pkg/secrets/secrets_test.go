package secrets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cesarmartin1/crm-david/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	data  map[string]Secret
	err   error
	calls int
}

func (f *fakeProvider) Name() ProviderType { return "fake" }

func (f *fakeProvider) Fetch(ctx context.Context, ref Reference) (Secret, error) {
	f.calls++
	if f.err != nil {
		return Secret{}, f.err
	}
	s, ok := f.data[ref.CacheKey()]
	if !ok {
		return Secret{}, errors.New("not found")
	}
	return s, nil
}

func TestParseReference(t *testing.T) {
	tests := []struct {
		raw  string
		want Reference
	}{
		{"crm/jwt#secret", Reference{Name: "n", Path: "crm/jwt", Key: "secret"}},
		{"kv::crm/db@3#password", Reference{Name: "n", Mount: "kv", Path: "crm/db", Version: "3", Key: "password"}},
		{" /crm/places/ ", Reference{Name: "n", Path: "crm/places"}},
		{"arn:aws:secretsmanager:eu-west-1:1:secret:crm#key", Reference{Name: "n", Path: "arn:aws:secretsmanager:eu-west-1:1:secret:crm", Key: "key"}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseReference("n", tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseReference("n", "  #key")
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestNewManager_NoProvider(t *testing.T) {
	_, err := NewManager(context.Background(), config.SecretsConfig{})
	assert.ErrorIs(t, err, ErrProviderNotConfigured)

	_, err = NewManager(context.Background(), config.SecretsConfig{Provider: "vault"})
	assert.Error(t, err, "vault needs an address and token")
}

func TestManager_CachesPayload(t *testing.T) {
	prov := &fakeProvider{data: map[string]Secret{
		"crm/db": {Data: map[string]string{"user": "crm", "password": "s3cret"}},
	}}
	m := newManager(prov, time.Minute)
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	v, err := m.GetString(context.Background(), Reference{Path: "crm/db", Key: "password"})
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v)

	v, err = m.GetString(context.Background(), Reference{Path: "crm/db", Key: "user"})
	require.NoError(t, err)
	assert.Equal(t, "crm", v)
	assert.Equal(t, 1, prov.calls)

	now = now.Add(2 * time.Minute)
	_, err = m.GetSecret(context.Background(), Reference{Path: "crm/db"})
	require.NoError(t, err)
	assert.Equal(t, 2, prov.calls)
}

func TestManager_GetString_KeySelection(t *testing.T) {
	prov := &fakeProvider{data: map[string]Secret{
		"single": {Data: map[string]string{"value": "only"}},
		"multi":  {Data: map[string]string{"a": "1", "b": "2"}},
	}}
	m := newManager(prov, time.Minute)
	ctx := context.Background()

	v, err := m.GetString(ctx, Reference{Path: "single"})
	require.NoError(t, err)
	assert.Equal(t, "only", v)

	_, err = m.GetString(ctx, Reference{Path: "multi"})
	assert.ErrorIs(t, err, ErrKeyNotFound)

	_, err = m.GetString(ctx, Reference{Path: "multi", Key: "c"})
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestManager_FetchErrorNotCached(t *testing.T) {
	prov := &fakeProvider{err: errors.New("access denied")}
	m := newManager(prov, time.Minute)

	_, err := m.GetSecret(context.Background(), Reference{Path: "crm/jwt"})
	assert.Error(t, err)
	_, err = m.GetSecret(context.Background(), Reference{Path: "crm/jwt"})
	assert.Error(t, err)
	assert.Equal(t, 2, prov.calls)
}

func TestFileProvider(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "db"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "db", "password"), []byte("s3cret\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(base, "db", "user"), []byte("crm"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(base, "jwt"), []byte(" signing-key "), 0o600))

	m, err := NewManager(context.Background(), config.SecretsConfig{Provider: "file", FileBasePath: base})
	require.NoError(t, err)

	s, err := m.GetSecret(context.Background(), Reference{Path: "db"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"password": "s3cret", "user": "crm"}, s.Data)

	v, err := m.GetString(context.Background(), Reference{Path: "jwt"})
	require.NoError(t, err)
	assert.Equal(t, "signing-key", v)

	_, err = m.GetSecret(context.Background(), Reference{Path: "../etc/passwd"})
	assert.Error(t, err, "paths cannot leave the base directory")

	_, err = NewManager(context.Background(), config.SecretsConfig{Provider: "file", FileBasePath: filepath.Join(base, "missing")})
	assert.Error(t, err)
}

func TestDecodeAWSPayload(t *testing.T) {
	obj := `{"password":"s3cret","port":5432}`
	assert.Equal(t, map[string]string{"password": "s3cret", "port": "5432"}, decodeAWSPayload(&obj, nil))

	plain := "just-a-token"
	assert.Equal(t, map[string]string{"value": "just-a-token"}, decodeAWSPayload(&plain, nil))

	assert.Equal(t, map[string]string{"binary": "AQI="}, decodeAWSPayload(nil, []byte{1, 2}))
}

func TestGCPSecretName(t *testing.T) {
	tests := []struct {
		name string
		ref  Reference
		want string
	}{
		{"bare id", Reference{Path: "crm-jwt"}, "projects/autocares/secrets/crm-jwt/versions/latest"},
		{"pinned version", Reference{Path: "crm-db", Version: "4"}, "projects/autocares/secrets/crm-db/versions/4"},
		{"resource without version", Reference{Path: "projects/other/secrets/places"}, "projects/other/secrets/places/versions/latest"},
		{"full resource", Reference{Path: "projects/other/secrets/places/versions/2", Version: "9"}, "projects/other/secrets/places/versions/2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, gcpSecretName("autocares", tt.ref))
		})
	}
}

func TestDecodeGCPPayload(t *testing.T) {
	assert.Equal(t, map[string]string{"password": "s3cret", "port": "5432"},
		decodeGCPPayload([]byte(`{"password":"s3cret","port":5432}`)))
	assert.Equal(t, map[string]string{"value": "places-key"}, decodeGCPPayload([]byte("places-key\n")))
}

func TestNewManager_GCPNeedsProject(t *testing.T) {
	_, err := NewManager(context.Background(), config.SecretsConfig{Provider: "gcp"})
	assert.ErrorContains(t, err, "project id")
}

func TestApply(t *testing.T) {
	prov := &fakeProvider{data: map[string]Secret{
		"crm/app": {Data: map[string]string{"jwt": "from-store", "places": "places-key"}},
	}}
	m := newManager(prov, time.Minute)

	cfg := &config.Config{}
	cfg.JWT.Secret = "from-env"
	cfg.Database.Password = "postgres"
	cfg.Secrets.JWTSecretRef = "crm/app#jwt"
	cfg.Secrets.GooglePlacesKeyRef = "crm/app#places"

	require.NoError(t, Apply(context.Background(), m, cfg))
	assert.Equal(t, "from-store", cfg.JWT.Secret)
	assert.Equal(t, "places-key", cfg.Routing.GooglePlacesKey)
	assert.Equal(t, "postgres", cfg.Database.Password, "fields without a reference are kept")
	assert.Equal(t, 1, prov.calls)

	cfg.Secrets.DBPasswordRef = "crm/app#db"
	assert.ErrorIs(t, Apply(context.Background(), m, cfg), ErrKeyNotFound)
}
