package config

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsOverlay holds the credentials kept out of the config file. Empty
// fields leave the file-provided value in place.
type SecretsOverlay struct {
	DatabasePassword string `json:"database_password"`
	MarketDataAPIKey string `json:"market_data_api_key"`
}

// LoadSecretsFromAWS fetches the named secret from AWS Secrets Manager and
// overlays it onto the configuration.
func LoadSecretsFromAWS(ctx context.Context, cfg *Config, region, secretName string) error {
	secrets, err := fetchSecretsFromAWS(ctx, region, secretName)
	if err != nil {
		return err
	}
	if secrets.DatabasePassword != "" {
		cfg.Database.Password = secrets.DatabasePassword
	}
	if secrets.MarketDataAPIKey != "" {
		cfg.MarketData.APIKey = secrets.MarketDataAPIKey
	}
	return nil
}

func fetchSecretsFromAWS(ctx context.Context, region, secretName string) (*SecretsOverlay, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := secretsmanager.NewFromConfig(awsCfg)
	result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get secret %q: %w", secretName, err)
	}

	var payload []byte
	switch {
	case result.SecretString != nil:
		payload = []byte(*result.SecretString)
	case result.SecretBinary != nil:
		payload = result.SecretBinary
	default:
		return nil, fmt.Errorf("secret %q holds no data", secretName)
	}

	var secrets SecretsOverlay
	if err := json.Unmarshal(payload, &secrets); err != nil {
		return nil, fmt.Errorf("failed to parse secret %q: %w", secretName, err)
	}
	return &secrets, nil
}
