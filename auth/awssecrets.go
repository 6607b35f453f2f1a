package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

// secretsManagerAPI is the subset of the Secrets Manager client this backend
// uses, kept narrow so tests can fake it.
type secretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	PutSecretValue(ctx context.Context, params *secretsmanager.PutSecretValueInput,
		optFns ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error)
	CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput,
		optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error)
	DeleteSecret(ctx context.Context, params *secretsmanager.DeleteSecretInput,
		optFns ...func(*secretsmanager.Options)) (*secretsmanager.DeleteSecretOutput, error)
}

// SecretsManagerBackend stores the token as a secret in AWS Secrets Manager.
type SecretsManagerBackend struct {
	client   secretsManagerAPI
	secretID string
}

// NewSecretsManagerBackend creates a backend using the default AWS
// configuration chain (environment, shared config, instance role).
func NewSecretsManagerBackend(ctx context.Context, secretID string) (*SecretsManagerBackend, error) {
	if secretID == "" {
		return nil, fmt.Errorf("auth: secret id is required")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &SecretsManagerBackend{
		client:   secretsmanager.NewFromConfig(cfg),
		secretID: secretID,
	}, nil
}

// NewSecretsManagerBackendWithClient creates a backend with an explicit
// client, mainly for tests and callers with custom AWS configuration.
func NewSecretsManagerBackendWithClient(client secretsManagerAPI, secretID string) *SecretsManagerBackend {
	return &SecretsManagerBackend{client: client, secretID: secretID}
}

// Load retrieves and decodes the secret value.
func (b *SecretsManagerBackend) Load(ctx context.Context) (*Token, error) {
	out, err := b.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(b.secretID),
	})
	if err != nil {
		if isSecretNotFound(err) {
			return nil, ErrNoToken
		}
		return nil, fmt.Errorf("get secret %s: %w", b.secretID, err)
	}
	if out.SecretString == nil || *out.SecretString == "" {
		return nil, ErrNoToken
	}

	var token Token
	if err := json.Unmarshal([]byte(*out.SecretString), &token); err != nil {
		return nil, fmt.Errorf("decode secret %s: %w", b.secretID, err)
	}
	return &token, nil
}

// Store writes the token as the secret value, creating the secret if it does
// not exist yet.
func (b *SecretsManagerBackend) Store(ctx context.Context, token *Token) error {
	if token == nil {
		return fmt.Errorf("auth: cannot store a nil token")
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	value := string(data)

	_, err = b.client.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(b.secretID),
		SecretString: aws.String(value),
	})
	if err == nil {
		return nil
	}
	if !isSecretNotFound(err) {
		return fmt.Errorf("put secret %s: %w", b.secretID, err)
	}

	_, err = b.client.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:         aws.String(b.secretID),
		SecretString: aws.String(value),
	})
	if err != nil {
		return fmt.Errorf("create secret %s: %w", b.secretID, err)
	}
	return nil
}

// Delete removes the secret without a recovery window.
func (b *SecretsManagerBackend) Delete(ctx context.Context) error {
	_, err := b.client.DeleteSecret(ctx, &secretsmanager.DeleteSecretInput{
		SecretId:                   aws.String(b.secretID),
		ForceDeleteWithoutRecovery: aws.Bool(true),
	})
	if err != nil && !isSecretNotFound(err) {
		return fmt.Errorf("delete secret %s: %w", b.secretID, err)
	}
	return nil
}

// Exists reports whether the secret holds a value.
func (b *SecretsManagerBackend) Exists(ctx context.Context) (bool, error) {
	_, err := b.Load(ctx)
	if errors.Is(err, ErrNoToken) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func isSecretNotFound(err error) bool {
	var notFound *types.ResourceNotFoundException
	return errors.As(err, &notFound)
}
