package algolia

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// mockSecretsManagerClient implements SecretsManagerClient for testing
type mockSecretsManagerClient struct {
	secretValue *string
	err         error
	requested   string
}

func (m *mockSecretsManagerClient) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	m.requested = aws.ToString(params.SecretId)
	if m.err != nil {
		return nil, m.err
	}

	return &secretsmanager.GetSecretValueOutput{
		SecretString: m.secretValue,
	}, nil
}

func TestAWSSecrets(t *testing.T) {
	tests := map[string]struct {
		secretID    string
		client      *mockSecretsManagerClient
		expectedErr string
	}{
		"success_by_path": {
			secretID: SecretPath("production"),
			client:   &mockSecretsManagerClient{secretValue: aws.String(`{"app_id":"test-app-id","write_api_key":"test-api-key"}`)},
		},
		"success_by_arn": {
			secretID: "arn:aws:secretsmanager:us-east-1:123456789012:secret:algolia-AbCdEf",
			client:   &mockSecretsManagerClient{secretValue: aws.String(`{"app_id":"test-app-id","write_api_key":"test-api-key"}`)},
		},
		"get_secret_error": {
			secretID:    SecretPath("production"),
			client:      &mockSecretsManagerClient{err: errors.New("secrets manager error")},
			expectedErr: "failed to get secret production/algolia",
		},
		"nil_secret_string": {
			secretID:    SecretPath("staging"),
			client:      &mockSecretsManagerClient{},
			expectedErr: "has no string value",
		},
		"invalid_json": {
			secretID:    SecretPath("dev"),
			client:      &mockSecretsManagerClient{secretValue: aws.String(`{not json`)},
			expectedErr: "failed to unmarshal secret JSON",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			secrets, err := AWSSecrets(context.Background(), tt.client, tt.secretID)()

			if tt.client.requested != tt.secretID {
				t.Errorf("Expected secret %q to be requested, got %q", tt.secretID, tt.client.requested)
			}

			if tt.expectedErr != "" {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.expectedErr) {
					t.Errorf("Expected error to contain %q, got %q", tt.expectedErr, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if secrets.AppID != "test-app-id" {
				t.Errorf("Expected AppID to be 'test-app-id', got '%s'", secrets.AppID)
			}
			if secrets.WriteApiKey != "test-api-key" {
				t.Errorf("Expected WriteApiKey to be 'test-api-key', got '%s'", secrets.WriteApiKey)
			}
		})
	}
}

func TestEnvSecrets(t *testing.T) {
	t.Run("Set", func(t *testing.T) {
		t.Setenv("ALGOLIA_APP_ID", "env-app")
		t.Setenv("ALGOLIA_API_KEY", "env-key")

		secrets, err := EnvSecrets()()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if secrets.AppID != "env-app" || secrets.WriteApiKey != "env-key" {
			t.Errorf("Unexpected secrets: %+v", secrets)
		}
	})

	t.Run("MissingKey", func(t *testing.T) {
		t.Setenv("ALGOLIA_APP_ID", "env-app")
		t.Setenv("ALGOLIA_API_KEY", "")

		if _, err := EnvSecrets()(); err == nil {
			t.Error("Expected error when ALGOLIA_API_KEY is empty")
		}
	})
}

func TestStaticSecrets(t *testing.T) {
	secrets, err := StaticSecrets("app", "key")()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if secrets.AppID != "app" || secrets.WriteApiKey != "key" {
		t.Errorf("Unexpected secrets: %+v", secrets)
	}
}
