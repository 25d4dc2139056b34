package secrets

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

type awsProvider struct {
	client *secretsmanager.Client
}

func newAWSProvider(ctx context.Context, region, endpoint string) (provider, error) {
	if region == "" {
		return nil, fmt.Errorf("secrets: aws provider requires a region")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("secrets: failed to load AWS config: %w", err)
	}

	var opts []func(*secretsmanager.Options)
	if endpoint != "" {
		opts = append(opts, func(o *secretsmanager.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	return &awsProvider{client: secretsmanager.NewFromConfig(awsCfg, opts...)}, nil
}

func (a *awsProvider) Name() ProviderType {
	return ProviderAWS
}

func (a *awsProvider) Fetch(ctx context.Context, ref Reference) (Secret, error) {
	input := &secretsmanager.GetSecretValueInput{SecretId: aws.String(ref.Path)}
	if ref.Version != "" {
		input.VersionId = aws.String(ref.Version)
	}

	out, err := a.client.GetSecretValue(ctx, input)
	if err != nil {
		return Secret{}, fmt.Errorf("secrets: aws fetch failed for %s: %w", ref.Path, err)
	}

	secret := Secret{Data: decodeAWSPayload(out.SecretString, out.SecretBinary)}
	if out.VersionId != nil {
		secret.Version = *out.VersionId
	}
	return secret, nil
}

// decodeAWSPayload flattens a JSON object secret into its keys. Any other
// string is stored under "value" and binary secrets under "binary".
func decodeAWSPayload(str *string, binary []byte) map[string]string {
	data := make(map[string]string)
	if str != nil {
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(*str), &obj); err == nil {
			for k, v := range obj {
				data[k] = fmt.Sprint(v)
			}
		} else {
			data["value"] = *str
		}
	}
	if binary != nil {
		data["binary"] = base64.StdEncoding.EncodeToString(binary)
	}
	return data
}
