package aws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"go.uber.org/zap"
)

// ErrSecretNotFound is returned when a secret or a field inside it does not
// exist. Callers fall back to environment values on it.
var ErrSecretNotFound = errors.New("secret not found")

// SecretGetter is what config loading needs from Secrets Manager.
type SecretGetter interface {
	GetSecret(ctx context.Context, name string) (string, error)
	GetSecretField(ctx context.Context, name, field string) (string, error)
}

// SecretValueAPI is the subset of the Secrets Manager client used here.
type SecretValueAPI interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsClient reads the service's secrets, all stored under one name
// prefix (e.g. "marketplace/"), and caches them for the life of the process.
type SecretsClient struct {
	api    SecretValueAPI
	prefix string
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[string]string
}

func NewSecretsClient(cfg sdkaws.Config, prefix string, logger *zap.Logger) *SecretsClient {
	return NewSecretsClientWithAPI(secretsmanager.NewFromConfig(cfg), prefix, logger)
}

func NewSecretsClientWithAPI(api SecretValueAPI, prefix string, logger *zap.Logger) *SecretsClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SecretsClient{api: api, prefix: prefix, logger: logger, cache: make(map[string]string)}
}

// GetSecret returns the string value of prefix+name.
func (s *SecretsClient) GetSecret(ctx context.Context, name string) (string, error) {
	id := s.prefix + name

	s.mu.RLock()
	v, ok := s.cache[id]
	s.mu.RUnlock()
	if ok {
		return v, nil
	}

	out, err := s.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: sdkaws.String(id)})
	if err != nil {
		var nf *types.ResourceNotFoundException
		if errors.As(err, &nf) {
			return "", fmt.Errorf("%s: %w", id, ErrSecretNotFound)
		}
		return "", fmt.Errorf("failed to read secret %s: %w", id, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", id)
	}

	s.mu.Lock()
	s.cache[id] = *out.SecretString
	s.mu.Unlock()
	s.logger.Debug("Secret loaded", zap.String("secret_id", id))

	return *out.SecretString, nil
}

// GetSecretField reads one key of a secret stored as a flat JSON object.
func (s *SecretsClient) GetSecretField(ctx context.Context, name, field string) (string, error) {
	raw, err := s.GetSecret(ctx, name)
	if err != nil {
		return "", err
	}
	var fields map[string]string
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return "", fmt.Errorf("secret %s%s is not a JSON object: %w", s.prefix, name, err)
	}
	v, ok := fields[field]
	if !ok || v == "" {
		return "", fmt.Errorf("%s%s.%s: %w", s.prefix, name, field, ErrSecretNotFound)
	}
	return v, nil
}
