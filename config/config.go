package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	aws_pkg "marketplace-service/pkg/aws"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds all environment configuration for the marketplace service.
type Config struct {
	Env  string
	Port string

	MongoURI string
	MongoDB  string

	RedisURL        string
	CatalogCacheTTL time.Duration

	// FirstPartyBackend selects where platform-owned products are read from: mongo or dynamodb.
	FirstPartyBackend   string
	DynamoProductsTable string

	// EventBus selects the moderation event transport: kafka, sns or none.
	EventBus          string
	KafkaBrokers      []string
	KafkaTopic        string
	SellerSNSTopicARN string

	PostgresDSN    string
	JWTSecret      string
	SellerTokenTTL time.Duration

	CategoryMappingFile string

	S3Bucket      string
	S3Prefix      string
	S3PublicBase  string
	PresignExpiry time.Duration

	RequestTimeout        time.Duration
	CatalogSourceTimeout  time.Duration
	CredentialMaxAttempts int

	ExposeErrorDetails bool
	AllowedOrigins     []string
	CloudWatchEnabled  bool
	UseSecrets         bool
}

// Load reads configuration from the environment (and .env when present),
// optionally overriding secrets from AWS Secrets Manager.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:                   getEnv("APP_ENV", "development"),
		Port:                  getEnv("PORT", "8088"),
		MongoURI:              os.Getenv("MONGO_URI"),
		MongoDB:               getEnv("MONGO_DB", "marketplace"),
		RedisURL:              os.Getenv("REDIS_URL"),
		CatalogCacheTTL:       getDuration("CATALOG_CACHE_TTL", 10*time.Minute),
		FirstPartyBackend:     strings.ToLower(getEnv("FIRST_PARTY_BACKEND", "mongo")),
		DynamoProductsTable:   getEnv("DDB_TABLE_PRODUCTS", "Products"),
		EventBus:              strings.ToLower(getEnv("EVENT_BUS", "none")),
		KafkaBrokers:          splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:            getEnv("KAFKA_TOPIC", "marketplace.moderation"),
		SellerSNSTopicARN:     os.Getenv("SELLER_SNS_TOPIC_ARN"),
		PostgresDSN:           os.Getenv("POSTGRES_DSN"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		SellerTokenTTL:        getDuration("SELLER_TOKEN_TTL", 24*time.Hour),
		CategoryMappingFile:   os.Getenv("CATEGORY_MAPPING_FILE"),
		S3Bucket:              getEnv("AWS_S3_BUCKET", "marketplace-listings"),
		S3Prefix:              getEnv("AWS_S3_PREFIX", "listings/"),
		S3PublicBase:          os.Getenv("AWS_S3_PUBLIC_BASE"),
		PresignExpiry:         getDuration("PRESIGN_EXPIRY", 15*time.Minute),
		RequestTimeout:        getDuration("REQUEST_TIMEOUT", 30*time.Second),
		CatalogSourceTimeout:  getDuration("CATALOG_SOURCE_TIMEOUT", 5*time.Second),
		CredentialMaxAttempts: getInt("CREDENTIAL_MAX_ATTEMPTS", 3),
		ExposeErrorDetails:    getBool("EXPOSE_ERROR_DETAILS", false),
		AllowedOrigins:        splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		CloudWatchEnabled:     getBool("CLOUDWATCH_ENABLED", false),
		UseSecrets:            getBool("AWS_USE_SECRETS", false),
	}

	if cfg.UseSecrets {
		if awsCfg, err := aws_pkg.LoadAWSConfig(context.Background()); err == nil {
			applySecrets(context.Background(), cfg, aws_pkg.NewSecretsClient(awsCfg, SecretsPrefix, zap.L()))
		} else {
			zap.L().Warn("Secrets Manager unavailable, using environment values", zap.Error(err))
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SecretsPrefix namespaces the service's entries in Secrets Manager.
const SecretsPrefix = "marketplace/"

// applySecrets overrides connection strings and credentials with values from
// Secrets Manager. Missing secrets leave the environment value in place.
func applySecrets(ctx context.Context, cfg *Config, sm aws_pkg.SecretGetter) {
	override := func(target *string, name string, v string, err error) {
		if err != nil {
			if !errors.Is(err, aws_pkg.ErrSecretNotFound) {
				zap.L().Warn("Failed to read secret, using environment value", zap.String("secret", name), zap.Error(err))
			}
			return
		}
		if v != "" {
			*target = v
		}
	}

	v, err := sm.GetSecret(ctx, "MONGO_URI")
	override(&cfg.MongoURI, "MONGO_URI", v, err)
	v, err = sm.GetSecret(ctx, "JWT_SECRET")
	override(&cfg.JWTSecret, "JWT_SECRET", v, err)
	v, err = sm.GetSecretField(ctx, "DB_CREDENTIALS", "POSTGRES_DSN")
	override(&cfg.PostgresDSN, "DB_CREDENTIALS", v, err)
}

// Validate checks required fields and enumerated values.
func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.FirstPartyBackend {
	case "mongo", "dynamodb":
	default:
		return fmt.Errorf("FIRST_PARTY_BACKEND must be mongo or dynamodb, got %q", c.FirstPartyBackend)
	}
	switch c.EventBus {
	case "kafka", "sns", "none":
	default:
		return fmt.Errorf("EVENT_BUS must be kafka, sns or none, got %q", c.EventBus)
	}
	if c.EventBus == "sns" && c.SellerSNSTopicARN == "" {
		return fmt.Errorf("SELLER_SNS_TOPIC_ARN is required when EVENT_BUS=sns")
	}
	if c.CredentialMaxAttempts < 1 {
		return fmt.Errorf("CREDENTIAL_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		zap.L().Warn("Invalid duration, using default", zap.String("key", key), zap.String("value", val))
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(strings.TrimSuffix(part, "/")); p != "" {
			out = append(out, p)
		}
	}
	return out
}
