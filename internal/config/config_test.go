package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvJWTSecret, EnvMongoURI, EnvMySQLDSN, EnvRedisURL} {
		t.Setenv(key, "")
	}
}

func TestParseDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, DriverMongo, cfg.Database.Driver)
	assert.Equal(t, "mongodb://127.0.0.1:27017", cfg.Database.Mongo.URI)
	assert.Equal(t, 30*24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
	assert.False(t, cfg.Redis.Enable)
	assert.Equal(t, UploadLocal, cfg.Uploads.Driver)
	assert.Equal(t, "/uploads", cfg.Uploads.PublicPath)
	assert.EqualValues(t, 5<<20, cfg.MaxUploadBytes())
	assert.Equal(t, []string{"jpg", "jpeg", "png", "gif", "webp"}, cfg.Uploads.AllowedFormats)
}

func TestParseFullFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse([]byte(`
port: 8080
env: Production
jwt_secret: s3cret
jwt_ttl: 12h
database:
  driver: MySQL
  mysql:
    host: db
    user: blog
    password: pw
    name: blogdb
    parse_time: true
redis:
  url: cache:6379/1
  cache_ttl: 30s
uploads:
  driver: s3
  max_size_mb: 2
  allowed_formats: [".PNG", " jpg "]
  s3:
    bucket: media
    prefix: /posts/
cors_allowed_origins: [" https://a.example ", ""]
`))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "production", cfg.Env)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, 12*time.Hour, cfg.JWTTTL)
	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, "blog:pw@tcp(db:3306)/blogdb?charset=utf8mb4&loc=Local&parseTime=true", cfg.Database.MySQL.DSNValue())
	assert.True(t, cfg.Redis.Enable)
	assert.Equal(t, "redis://cache:6379/1", cfg.Redis.URLValue())
	assert.Equal(t, 30*time.Second, cfg.Redis.CacheTTL)
	assert.Equal(t, []string{"png", "jpg"}, cfg.Uploads.AllowedFormats)
	assert.Equal(t, "posts", cfg.Uploads.S3.Prefix)
	assert.Equal(t, []string{"https://a.example"}, cfg.AllowedOrigins)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	clearEnv(t)
	_, err := Parse([]byte("portt: 1\n"))
	assert.Error(t, err)
}

func TestParseValidation(t *testing.T) {
	clearEnv(t)
	cases := map[string]string{
		"port":          "port: 70000\n",
		"driver":        "database:\n  driver: sqlite\n",
		"s3 bucket":     "uploads:\n  driver: s3\n",
		"secret":        "env: production\n",
		"duration":      "jwt_ttl: forever\n",
		"parse time":    "database:\n  driver: mysql\n  mysql:\n    dsn: root@tcp(localhost:3306)/blog\n",
		"upload driver": "uploads:\n  driver: ftp\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(content))
			assert.Error(t, err)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvJWTSecret, "from-env")
	t.Setenv(EnvMongoURI, "mongodb://mongo:27017")
	t.Setenv(EnvMySQLDSN, "")
	t.Setenv(EnvRedisURL, "redis:6379")

	cfg, err := Parse([]byte("env: production\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, "mongodb://mongo:27017", cfg.Database.Mongo.URI)
	assert.True(t, cfg.Redis.Enable)
	assert.Equal(t, "redis://redis:6379", cfg.Redis.URLValue())
}

func TestLoadReadsFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("port: 6000\ndatabase:\n  driver: memory\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6000, cfg.Port)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestResolveRuntimePath(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "logs")
	assert.Equal(t, abs, ResolveRuntimePath(abs, "ignored"))
	assert.Equal(t, filepath.Join(BaseDir(), "uploads"), ResolveRuntimePath("", "uploads"))
}

func TestParseLocation(t *testing.T) {
	loc, err := ParseLocation("+05:30")
	require.NoError(t, err)
	_, offset := time.Date(2026, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, 5*3600+30*60, offset)

	loc, err = ParseLocation("Europe/Berlin")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())

	_, err = ParseLocation("Mars/Olympus")
	assert.Error(t, err)
}
