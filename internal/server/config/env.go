package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/chatauth/internal/flagx"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// parseEnv seeds the process environment from a dotenv file and copies
// recognized variables into config. The file named by -env-file must
// exist; the default .env is optional. Variables already set in the
// environment win over the file, as with godotenv.Load.
func parseEnv(config *Config, args []string) error {
	file := flagx.EnvFileFlag(args)
	required := file != ""
	if file == "" {
		file = defaultEnvFile
	}

	if err := godotenv.Load(file); err != nil {
		if required || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file %s: %w", file, err)
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		config.HTTPAddr = ":" + port
	}
	setString(&config.HTTPAddr, "HTTP_ADDR")
	setString(&config.DatabaseDSN, "DATABASE_URL")
	setString(&config.SecretKey, "JWT_SECRET")
	switch os.Getenv("NODE_ENV") {
	case "":
	case EnvProduction:
		config.Env = EnvProduction
	default:
		config.Env = EnvDevelopment
	}
	setString(&config.Env, "APP_ENV")
	setString(&config.ClientURL, "CLIENT_URL")
	setString(&config.S3RootUser, "S3_ROOT_USER")
	setString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	setString(&config.S3Bucket, "S3_BUCKET")
	setString(&config.S3Region, "S3_REGION")
	setString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	setString(&config.S3PublicBaseURL, "S3_PUBLIC_BASE_URL")
	setString(&config.RedisURL, "REDIS_URL")
	setString(&config.ResendAPIKey, "RESEND_API_KEY")
	setString(&config.ResendBaseURL, "RESEND_BASE_URL")
	setString(&config.EmailFrom, "EMAIL_FROM")
	setString(&config.EmailFromName, "EMAIL_FROM_NAME")
	setString(&config.AppName, "APP_NAME")

	if err := setDuration(&config.TokenValidity, "TOKEN_VALIDITY"); err != nil {
		return err
	}
	if err := setInt64(&config.AvatarMaxBytes, "AVATAR_MAX_BYTES"); err != nil {
		return err
	}
	if v := os.Getenv("MAIL_MAX_RETRY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MAIL_MAX_RETRY: %w", err)
		}
		config.MailMaxRetry = n
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func setInt64(dst *int64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}
