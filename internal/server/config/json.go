package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/chatauth/internal/flagx"
	"github.com/dmitrijs2005/chatauth/internal/timex"
)

// JsonConfig is the on-disk shape of the -c/-config file. Durations use
// timex.Duration so both "720h" and integer nanoseconds are accepted.
// Absent keys leave the corresponding Config field untouched.
type JsonConfig struct {
	HTTPAddr        string          `json:"http_addr"`
	DatabaseDSN     string          `json:"database_dsn"`
	SecretKey       string          `json:"secret_key"`
	TokenValidity   *timex.Duration `json:"token_validity"`
	Env             string          `json:"env"`
	ClientURL       string          `json:"client_url"`
	S3RootUser      string          `json:"s3_root_user"`
	S3RootPassword  string          `json:"s3_root_password"`
	S3Bucket        string          `json:"s3_bucket"`
	S3Region        string          `json:"s3_region"`
	S3BaseEndpoint  string          `json:"s3_base_endpoint"`
	S3PublicBaseURL string          `json:"s3_public_base_url"`
	AvatarMaxBytes  int64           `json:"avatar_max_bytes"`
	RedisURL        string          `json:"redis_url"`
	MailMaxRetry    int             `json:"mail_max_retry"`
	ResendAPIKey    string          `json:"resend_api_key"`
	ResendBaseURL   string          `json:"resend_base_url"`
	EmailFrom       string          `json:"email_from"`
	EmailFromName   string          `json:"email_from_name"`
	AppName         string          `json:"app_name"`
}

// parseJson overlays config with the JSON file named by -c or -config.
// Without the flag nothing is loaded.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	overlay(&config.HTTPAddr, c.HTTPAddr)
	overlay(&config.DatabaseDSN, c.DatabaseDSN)
	overlay(&config.SecretKey, c.SecretKey)
	overlay(&config.Env, c.Env)
	overlay(&config.ClientURL, c.ClientURL)
	overlay(&config.S3RootUser, c.S3RootUser)
	overlay(&config.S3RootPassword, c.S3RootPassword)
	overlay(&config.S3Bucket, c.S3Bucket)
	overlay(&config.S3Region, c.S3Region)
	overlay(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	overlay(&config.S3PublicBaseURL, c.S3PublicBaseURL)
	overlay(&config.RedisURL, c.RedisURL)
	overlay(&config.ResendAPIKey, c.ResendAPIKey)
	overlay(&config.ResendBaseURL, c.ResendBaseURL)
	overlay(&config.EmailFrom, c.EmailFrom)
	overlay(&config.EmailFromName, c.EmailFromName)
	overlay(&config.AppName, c.AppName)

	if c.TokenValidity != nil {
		config.TokenValidity = c.TokenValidity.Duration
	}
	if c.AvatarMaxBytes > 0 {
		config.AvatarMaxBytes = c.AvatarMaxBytes
	}
	if c.MailMaxRetry > 0 {
		config.MailMaxRetry = c.MailMaxRetry
	}
	return nil
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
