package secrets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	vault "github.com/hashicorp/vault/api"
)

type vaultProvider struct {
	client       *vault.Client
	defaultMount string
}

func newVaultProvider(address, token, namespace, mount string) (provider, error) {
	if address == "" || token == "" {
		return nil, fmt.Errorf("secrets: vault provider requires address and token")
	}
	if mount == "" {
		mount = "secret"
	}

	cfg := vault.DefaultConfig()
	cfg.Address = address
	client, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("secrets: failed to create vault client: %w", err)
	}
	client.SetToken(token)
	if namespace != "" {
		client.SetNamespace(namespace)
	}

	return &vaultProvider{client: client, defaultMount: strings.Trim(mount, "/")}, nil
}

func (v *vaultProvider) Name() ProviderType {
	return ProviderVault
}

// Fetch reads a KV v2 secret. A "data/" prefix copied from the HTTP API path
// is tolerated.
func (v *vaultProvider) Fetch(ctx context.Context, ref Reference) (Secret, error) {
	mount := v.defaultMount
	if ref.Mount != "" {
		mount = ref.Mount
	}
	path := strings.Trim(strings.TrimPrefix(ref.Path, "data/"), "/")

	kv := v.client.KVv2(mount)
	var (
		s   *vault.KVSecret
		err error
	)
	if ref.Version != "" {
		version, convErr := strconv.Atoi(ref.Version)
		if convErr != nil {
			return Secret{}, fmt.Errorf("secrets: invalid vault version %q: %w", ref.Version, convErr)
		}
		s, err = kv.GetVersion(ctx, path, version)
	} else {
		s, err = kv.Get(ctx, path)
	}
	if err != nil {
		var respErr *vault.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return Secret{}, fmt.Errorf("secrets: vault path %s::%s not found", mount, path)
		}
		return Secret{}, fmt.Errorf("secrets: vault fetch failed for %s::%s: %w", mount, path, err)
	}

	secret := Secret{Data: make(map[string]string, len(s.Data))}
	for k, raw := range s.Data {
		secret.Data[k] = fmt.Sprint(raw)
	}
	if s.VersionMetadata != nil {
		secret.Version = strconv.Itoa(s.VersionMetadata.Version)
	}
	return secret, nil
}
