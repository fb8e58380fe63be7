package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, k := range keys {
		t.Setenv(k, "")
	}

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, AuthModeDev, cfg.AuthMode)
	assert.Equal(t, StorageLocal, cfg.StorageDriver)
	assert.Equal(t, int64(25<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 30*time.Minute, cfg.ShareSessionTTL)
	assert.Equal(t, 5*time.Minute, cfg.DirectoryCacheTTL)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	chdir(t, t.TempDir())
	for _, k := range keys {
		t.Setenv(k, "")
	}
	t.Setenv("PORT", "9090")
	t.Setenv("AUTH_MODE", "JWT")
	t.Setenv("JWT_SECRET", "s3cr3t")
	t.Setenv("SHARE_SESSION_TTL", "90s")
	t.Setenv("MAX_UPLOAD_BYTES", "1048576")
	t.Setenv("S3_USE_SSL", "true")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, AuthModeJWT, cfg.AuthMode)
	assert.Equal(t, 90*time.Second, cfg.ShareSessionTTL)
	assert.Equal(t, int64(1<<20), cfg.MaxUploadBytes)
	assert.True(t, cfg.S3UseSSL)
}

func TestValidate(t *testing.T) {
	base := Config{AuthMode: AuthModeDev, StorageDriver: StorageLocal, StorageDir: "x", MaxUploadBytes: 1}
	require.NoError(t, base.Validate())

	cases := map[string]func(c *Config){
		"jwt sin secreto":    func(c *Config) { c.AuthMode = AuthModeJWT },
		"iam sin url":        func(c *Config) { c.AuthMode = AuthModeIAM },
		"auth desconocido":   func(c *Config) { c.AuthMode = "magic" },
		"s3 sin endpoint":    func(c *Config) { c.StorageDriver = StorageS3 },
		"storage inválido":   func(c *Config) { c.StorageDriver = "ftp" },
		"upload no positivo": func(c *Config) { c.MaxUploadBytes = 0 },
	}
	for name, mut := range cases {
		t.Run(name, func(t *testing.T) {
			c := base
			mut(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestString_MasksSecrets(t *testing.T) {
	c := Config{
		DBDSN:         "postgres://u:pw@localhost/db",
		JWTSecret:     "jwt-secret-value",
		S3SecretKey:   "s3-secret-value",
		RedisPassword: "redis-secret",
	}
	out := c.String()
	for _, secret := range []string{"pw@localhost", "jwt-secret-value", "s3-secret-value", "redis-secret"} {
		assert.False(t, strings.Contains(out, secret), "leaked %q", secret)
	}
	assert.Contains(t, out, "JWTSecret: ********")
	assert.Contains(t, out, "IAMAPIKey: (empty)")
}
