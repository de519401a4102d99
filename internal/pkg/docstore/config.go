package docstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/tollsetu/fastag-portal/internal/pkg/env"
)

// Config holds KYC document storage configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services (MinIO etc.)
}

// LoadConfig loads document storage configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "ap-south-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
	}

	if config.AccessKeyID == "" {
		return nil, errors.New("S3_ACCESS_KEY_ID is required")
	}
	if config.SecretAccessKey == "" {
		return nil, errors.New("S3_SECRET_ACCESS_KEY is required")
	}
	if config.BucketName == "" {
		return nil, errors.New("S3_BUCKET_NAME is required")
	}

	return config, nil
}

// ObjectKey generates a standardized object key for one KYC document.
func (c *Config) ObjectKey(applicationUUID, documentUUID, fileExtension string, now time.Time) string {
	// Format: kyc/YYYY/MM/<application>/<document>.ext
	return fmt.Sprintf("kyc/%04d/%02d/%s/%s%s", now.Year(), int(now.Month()), applicationUUID, documentUUID, fileExtension)
}

// PreviewKey derives the thumbnail key for a stored document.
func (c *Config) PreviewKey(objectKey string) string {
	return objectKey + ".preview.jpg"
}

// GetAppEnv returns the current application environment
func GetAppEnv() string {
	return env.GetEnv("APP_ENV", "dev")
}
