package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv_Variables(t *testing.T) {
	unsetEnv(t)
	t.Setenv("PORT", "8081")
	t.Setenv("DATABASE_URL", "postgres://db")
	t.Setenv("JWT_SECRET", "s3cr3t")
	t.Setenv("APP_ENV", "production")
	t.Setenv("TOKEN_VALIDITY", "48h")
	t.Setenv("AVATAR_MAX_BYTES", "1024")
	t.Setenv("MAIL_MAX_RETRY", "2")
	t.Setenv("REDIS_URL", "redis://localhost:6379/1")
	t.Setenv("EMAIL_FROM_NAME", "Support")
	t.Setenv("APP_NAME", "Chatify")

	var c Config
	c.LoadDefaults()
	require.NoError(t, parseEnv(&c, nil))

	assert.Equal(t, ":8081", c.HTTPAddr)
	assert.Equal(t, "postgres://db", c.DatabaseDSN)
	assert.Equal(t, "s3cr3t", c.SecretKey)
	assert.True(t, c.IsProduction())
	assert.Equal(t, 48*time.Hour, c.TokenValidity)
	assert.Equal(t, int64(1024), c.AvatarMaxBytes)
	assert.Equal(t, 2, c.MailMaxRetry)
	assert.Equal(t, "redis://localhost:6379/1", c.RedisURL)
	assert.Equal(t, "Support", c.EmailFromName)
	assert.Equal(t, "Chatify", c.AppName)
}

func TestParseEnv_EnvironmentMode(t *testing.T) {
	tests := []struct {
		name    string
		nodeEnv string
		appEnv  string
		want    string
	}{
		{"default", "", "", EnvDevelopment},
		{"node production", "production", "", EnvProduction},
		{"node test is development", "test", "", EnvDevelopment},
		{"app env wins", "production", "development", EnvDevelopment},
		{"app env alone", "", "production", EnvProduction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unsetEnv(t)
			if tt.nodeEnv != "" {
				t.Setenv("NODE_ENV", tt.nodeEnv)
			}
			if tt.appEnv != "" {
				t.Setenv("APP_ENV", tt.appEnv)
			}

			var c Config
			c.LoadDefaults()
			require.NoError(t, parseEnv(&c, nil))
			assert.Equal(t, tt.want, c.Env)

			c.SecretKey = "k"
			assert.NoError(t, c.Validate())
		})
	}
}

func TestParseEnv_HTTPAddrWinsOverPort(t *testing.T) {
	unsetEnv(t)
	t.Setenv("PORT", "8081")
	t.Setenv("HTTP_ADDR", "127.0.0.1:9999")

	var c Config
	require.NoError(t, parseEnv(&c, nil))
	assert.Equal(t, "127.0.0.1:9999", c.HTTPAddr)
}

func TestParseEnv_BadNumbers(t *testing.T) {
	for key, val := range map[string]string{
		"TOKEN_VALIDITY":   "forever",
		"AVATAR_MAX_BYTES": "big",
		"MAIL_MAX_RETRY":   "x",
	} {
		t.Run(key, func(t *testing.T) {
			unsetEnv(t)
			t.Setenv(key, val)

			var c Config
			err := parseEnv(&c, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestParseEnv_DotenvFile(t *testing.T) {
	unsetEnv(t)

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("JWT_SECRET=from-file\nCLIENT_URL=http://file.example\n"), 0o600))

	// Already exported variables are not overridden by the file.
	t.Setenv("CLIENT_URL", "http://shell.example")

	var c Config
	require.NoError(t, parseEnv(&c, []string{"-env-file", path}))

	assert.Equal(t, "from-file", c.SecretKey)
	assert.Equal(t, "http://shell.example", c.ClientURL)
}

func TestParseEnv_MissingExplicitFile(t *testing.T) {
	unsetEnv(t)

	var c Config
	err := parseEnv(&c, []string{"-env-file", filepath.Join(t.TempDir(), "nope.env")})
	assert.Error(t, err)
}
