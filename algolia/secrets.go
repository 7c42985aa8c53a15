// Package algolia mirrors the guideline collection into an Algolia index and
// searches it through the metis.Searcher interface.
package algolia

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/cockroachdb/errors"
)

// Secrets holds the Algolia application credentials.
type Secrets struct {
	AppID       string `json:"app_id"`
	WriteApiKey string `json:"write_api_key"`
}

// FetchSecrets retrieves Algolia credentials. It is called at most once per
// Client, on first use.
type FetchSecrets func() (Secrets, error)

// StaticSecrets returns a FetchSecrets that always yields the given credentials.
func StaticSecrets(appID, writeApiKey string) FetchSecrets {
	return func() (Secrets, error) {
		return Secrets{
			AppID:       appID,
			WriteApiKey: writeApiKey,
		}, nil
	}
}

// EnvSecrets reads ALGOLIA_APP_ID and ALGOLIA_API_KEY.
func EnvSecrets() FetchSecrets {
	return func() (Secrets, error) {
		appID := os.Getenv("ALGOLIA_APP_ID")
		if appID == "" {
			return Secrets{}, errors.New("ALGOLIA_APP_ID environment variable is not set")
		}

		apiKey := os.Getenv("ALGOLIA_API_KEY")
		if apiKey == "" {
			return Secrets{}, errors.New("ALGOLIA_API_KEY environment variable is not set")
		}

		return Secrets{
			AppID:       appID,
			WriteApiKey: apiKey,
		}, nil
	}
}

// SecretsManagerClient defines the Secrets Manager operation used here.
type SecretsManagerClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretPath returns the conventional secret name for an environment.
func SecretPath(env string) string {
	return fmt.Sprintf("%s/algolia", env)
}

// AWSSecrets reads credentials from the Secrets Manager secret secretID,
// which may be a name such as SecretPath(env) or a full ARN. The secret
// string must be JSON with app_id and write_api_key.
func AWSSecrets(ctx context.Context, client SecretsManagerClient, secretID string) FetchSecrets {
	return func() (Secrets, error) {
		result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
			SecretId: aws.String(secretID),
		})
		if err != nil {
			return Secrets{}, errors.Wrapf(err, "failed to get secret %s from AWS Secrets Manager", secretID)
		}

		if result.SecretString == nil {
			return Secrets{}, errors.Newf("secret %s has no string value", secretID)
		}

		var secrets Secrets
		if err := json.Unmarshal([]byte(aws.ToString(result.SecretString)), &secrets); err != nil {
			return Secrets{}, errors.Wrapf(err, "failed to unmarshal secret JSON from %s", secretID)
		}

		return secrets, nil
	}
}
