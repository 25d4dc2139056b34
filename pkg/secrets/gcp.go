package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

type gcpProvider struct {
	client  *secretmanager.Client
	project string
}

func newGCPProvider(ctx context.Context, project, credentialsJSON, credentialsFile string) (provider, error) {
	if project == "" {
		return nil, fmt.Errorf("secrets: gcp provider requires a project id")
	}

	var opts []option.ClientOption
	if credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	} else if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("secrets: failed to create gcp secret manager client: %w", err)
	}
	return &gcpProvider{client: client, project: project}, nil
}

func (g *gcpProvider) Name() ProviderType {
	return ProviderGCP
}

func (g *gcpProvider) Fetch(ctx context.Context, ref Reference) (Secret, error) {
	name := gcpSecretName(g.project, ref)
	resp, err := g.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return Secret{}, fmt.Errorf("secrets: gcp fetch failed for %s: %w", ref.Path, err)
	}

	secret := Secret{Data: map[string]string{}, Version: resp.GetName()}
	if resp.GetPayload() != nil {
		secret.Data = decodeGCPPayload(resp.GetPayload().GetData())
	}
	return secret, nil
}

// gcpSecretName builds the version resource name of ref. Full resource names
// are used as they are; a bare secret id resolves in project, at the latest
// version unless one is pinned.
func gcpSecretName(project string, ref Reference) string {
	if strings.HasPrefix(ref.Path, "projects/") {
		if strings.Contains(ref.Path, "/versions/") {
			return ref.Path
		}
		return ref.Path + "/versions/" + versionOrLatest(ref.Version)
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/%s", project, strings.Trim(ref.Path, "/"), versionOrLatest(ref.Version))
}

func versionOrLatest(v string) string {
	if v == "" {
		return "latest"
	}
	return v
}

// decodeGCPPayload flattens a JSON object payload into its keys. Anything
// else is stored under "value".
func decodeGCPPayload(data []byte) map[string]string {
	out := make(map[string]string)
	var obj map[string]interface{}
	if err := json.Unmarshal(data, &obj); err == nil {
		for k, v := range obj {
			out[k] = fmt.Sprint(v)
		}
		return out
	}
	out["value"] = strings.TrimSpace(string(data))
	return out
}
