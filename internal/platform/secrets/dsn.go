// Package secrets resolves database credentials from AWS Secrets Manager.
package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-secretsmanager-caching-go/v2/secretcache"
	"github.com/go-sql-driver/mysql"
)

// rdsSecret is the JSON layout RDS writes for managed database credentials
type rdsSecret struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Host     string      `json:"host"`
	Port     json.Number `json:"port"`
	DBName   string      `json:"dbname"`
}

// DSNResolver reads a MySQL DSN from a secret, caching it between calls
type DSNResolver struct {
	secretsClient *secretsmanager.Client
	secretCache   *secretcache.Cache
	logger        *slog.Logger
}

// NewDSNResolver creates a resolver for the given region
func NewDSNResolver(ctx context.Context, region string, logger *slog.Logger) (*DSNResolver, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	secretsClient := secretsmanager.NewFromConfig(cfg)

	cache, err := secretcache.New(func(c *secretcache.Cache) {
		c.Client = secretsClient
	})
	if err != nil {
		// Fall back to direct API calls
		logger.Warn("failed to initialize secret cache", "error", err)
		cache = nil
	}

	return &DSNResolver{
		secretsClient: secretsClient,
		secretCache:   cache,
		logger:        logger,
	}, nil
}

// ResolveDSN returns the DSN stored in the secret
func (r *DSNResolver) ResolveDSN(ctx context.Context, secretID string) (string, error) {
	var (
		secretString string
		err          error
	)
	if r.secretCache != nil {
		secretString, err = r.secretCache.GetSecretStringWithContext(ctx, secretID)
	} else {
		var result *secretsmanager.GetSecretValueOutput
		result, err = r.secretsClient.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
			SecretId: aws.String(secretID),
		})
		if err == nil {
			secretString = aws.ToString(result.SecretString)
		}
	}
	if err != nil {
		return "", fmt.Errorf("failed to read secret %s: %w", secretID, err)
	}

	dsn, err := DSNFromSecret(secretString)
	if err != nil {
		return "", fmt.Errorf("secret %s: %w", secretID, err)
	}
	r.logger.Debug("resolved database DSN from secret", "secretId", secretID)
	return dsn, nil
}

// DSNFromSecret accepts either a plain DSN or RDS credential JSON
func DSNFromSecret(secret string) (string, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return "", fmt.Errorf("secret is empty")
	}
	if !strings.HasPrefix(secret, "{") {
		return secret, nil
	}

	var s rdsSecret
	if err := json.Unmarshal([]byte(secret), &s); err != nil {
		return "", fmt.Errorf("failed to parse credential JSON: %w", err)
	}
	if s.Username == "" || s.Host == "" || s.DBName == "" {
		return "", fmt.Errorf("credential JSON needs username, host and dbname")
	}

	port := 3306
	if s.Port != "" {
		p, err := strconv.Atoi(s.Port.String())
		if err != nil {
			return "", fmt.Errorf("invalid port %q", s.Port)
		}
		port = p
	}

	cfg := mysql.NewConfig()
	cfg.User = s.Username
	cfg.Passwd = s.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", s.Host, port)
	cfg.DBName = s.DBName
	return cfg.FormatDSN(), nil
}
