package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at configPath, applies defaults, environment
// overrides and normalization, then validates the result.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	cfg, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("config file %q: %w", path, err)
	}
	return cfg, nil
}

// Parse builds a config from YAML content. Empty content yields the defaults.
func Parse(content []byte) (*AppConfig, error) {
	cfg := defaultAppConfig()
	raw := rawAppConfig{}
	if len(bytes.TrimSpace(content)) > 0 {
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		if err := decoder.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parse: %w", err)
		}
	}

	if err := applyRawAppConfig(&cfg, raw); err != nil {
		return nil, err
	}
	applyEnvOverrides(&cfg, os.LookupEnv)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port:   defaultPort,
		Env:    defaultEnv,
		JWTTTL: defaultJWTTTL,
		Database: DatabaseConfig{
			Driver: defaultDriver,
			Mongo: MongoRuntimeConfig{
				URI:     defaultMongoURI,
				Name:    defaultMongoName,
				Timeout: defaultMongoTimeout,
			},
			MySQL: normalizeMySQLConfig(MySQLRuntimeConfig{ParseTime: true}),
		},
		Redis: normalizeRedisConfig(RedisRuntimeConfig{
			CacheTTL:       defaultCacheTTL,
			RateLimitRPM:   defaultRateLimitRPM,
			IdempotenceTTL: defaultIdempotenceTTL,
		}),
		Uploads:  normalizeUploadsConfig(UploadsConfig{}),
		Timezone: defaultTimezone,
	}
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) error {
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.Env); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(raw.GoEnv); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(raw.JWTSecret); v != "" {
		cfg.JWTSecret = v
	}
	if err := setDuration(&cfg.JWTTTL, raw.JWTTTL, "jwt_ttl"); err != nil {
		return err
	}

	db, err := applyRawDatabaseConfig(cfg.Database, raw.Database)
	if err != nil {
		return err
	}
	cfg.Database = db

	redisCfg, err := applyRawRedisConfig(cfg.Redis, raw)
	if err != nil {
		return err
	}
	cfg.Redis = redisCfg
	cfg.Uploads = applyRawUploadsConfig(cfg.Uploads, raw.Uploads)

	switch {
	case raw.AllowedOrigins != nil:
		cfg.AllowedOrigins = normalizeOrigins(raw.AllowedOrigins)
	case raw.CORSAllowedOrigins != nil:
		cfg.AllowedOrigins = normalizeOrigins(raw.CORSAllowedOrigins)
	}

	if v := strings.TrimSpace(raw.Paths.Logs); v != "" {
		cfg.Paths.Logs = v
	}
	if v := strings.TrimSpace(raw.LogDir); v != "" {
		cfg.Paths.Logs = v
	}
	if v := strings.TrimSpace(raw.Timezone); v != "" {
		cfg.Timezone = v
	}
	if v := strings.TrimSpace(raw.TZ); v != "" {
		cfg.Timezone = v
	}

	cfg.Env = normalizeEnv(cfg.Env)
	cfg.Paths = normalizeRuntimePaths(cfg.Paths)
	return nil
}

func applyRawDatabaseConfig(current DatabaseConfig, raw rawDatabaseConfig) (DatabaseConfig, error) {
	cfg := current
	if v := strings.TrimSpace(raw.Driver); v != "" {
		cfg.Driver = strings.ToLower(v)
	}

	if v := strings.TrimSpace(raw.Mongo.URI); v != "" {
		cfg.Mongo.URI = v
	}
	if v := strings.TrimSpace(raw.Mongo.Name); v != "" {
		cfg.Mongo.Name = v
	}
	if err := setDuration(&cfg.Mongo.Timeout, raw.Mongo.Timeout, "database.mongo.timeout"); err != nil {
		return cfg, err
	}

	my := cfg.MySQL
	if v := strings.TrimSpace(raw.MySQL.DSN); v != "" {
		my.DSN = v
	}
	if v := strings.TrimSpace(raw.MySQL.Host); v != "" {
		my.Host = v
	}
	if raw.MySQL.Port != 0 {
		my.Port = raw.MySQL.Port
	}
	if v := strings.TrimSpace(raw.MySQL.User); v != "" {
		my.User = v
	}
	if v := strings.TrimSpace(raw.MySQL.Username); v != "" {
		my.User = v
	}
	if v := strings.TrimSpace(raw.MySQL.Password); v != "" {
		my.Password = v
	}
	if v := strings.TrimSpace(raw.MySQL.Name); v != "" {
		my.Name = v
	}
	if v := strings.TrimSpace(raw.MySQL.DBName); v != "" {
		my.Name = v
	}
	if v := strings.TrimSpace(raw.MySQL.Charset); v != "" {
		my.Charset = v
	}
	if raw.MySQL.ParseTime != nil {
		my.ParseTime = *raw.MySQL.ParseTime
	}
	if v := strings.TrimSpace(raw.MySQL.Loc); v != "" {
		my.Loc = v
	}
	if raw.MySQL.Params != nil {
		my.Params = copyStringMap(raw.MySQL.Params)
	}
	cfg.MySQL = normalizeMySQLConfig(my)
	return cfg, nil
}

func applyRawRedisConfig(current RedisRuntimeConfig, raw rawAppConfig) (RedisRuntimeConfig, error) {
	cfg := current
	r := raw.Redis

	if r.Enable != nil {
		cfg.Enable = *r.Enable
	}
	if v := strings.TrimSpace(r.URL); v != "" {
		cfg.URL = v
	}
	if v := strings.TrimSpace(raw.RedisURL); v != "" {
		cfg.URL = v
	}
	if v := strings.TrimSpace(r.Host); v != "" {
		cfg.Host = v
	}
	if r.Port != 0 {
		cfg.Port = r.Port
	}
	if v := strings.TrimSpace(r.Username); v != "" {
		cfg.Username = v
	}
	if v := strings.TrimSpace(r.Password); v != "" {
		cfg.Password = v
	}
	if r.DB != nil {
		cfg.DB = *r.DB
	}
	if r.TLS != nil {
		cfg.TLS = *r.TLS
	}
	if v := strings.TrimSpace(r.Scheme); v != "" {
		cfg.Scheme = v
	}
	if r.Params != nil {
		cfg.Params = copyStringMap(r.Params)
	}
	if r.RateLimitRPM != nil {
		cfg.RateLimitRPM = *r.RateLimitRPM
	}
	if err := setDuration(&cfg.CacheTTL, r.CacheTTL, "redis.cache_ttl"); err != nil {
		return cfg, err
	}
	if err := setDuration(&cfg.IdempotenceTTL, r.IdempotenceTTL, "redis.idempotence_ttl"); err != nil {
		return cfg, err
	}
	// Configuring an address without an explicit switch turns redis on.
	if r.Enable == nil && (strings.TrimSpace(r.URL) != "" || strings.TrimSpace(raw.RedisURL) != "" || strings.TrimSpace(r.Host) != "") {
		cfg.Enable = true
	}

	return normalizeRedisConfig(cfg), nil
}

func applyRawUploadsConfig(current UploadsConfig, raw rawUploadsConfig) UploadsConfig {
	cfg := current
	if v := strings.TrimSpace(raw.Driver); v != "" {
		cfg.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.Dir); v != "" {
		cfg.Dir = v
	}
	if v := strings.TrimSpace(raw.PublicPath); v != "" {
		cfg.PublicPath = v
	}
	if raw.MaxSizeMB != 0 {
		cfg.MaxSizeMB = raw.MaxSizeMB
	}
	if raw.AllowedFormats != nil {
		cfg.AllowedFormats = raw.AllowedFormats
	}

	s3 := cfg.S3
	if v := strings.TrimSpace(raw.S3.Bucket); v != "" {
		s3.Bucket = v
	}
	if v := strings.TrimSpace(raw.S3.Region); v != "" {
		s3.Region = v
	}
	if v := strings.TrimSpace(raw.S3.Endpoint); v != "" {
		s3.Endpoint = v
	}
	if v := strings.TrimSpace(raw.S3.AccessKey); v != "" {
		s3.AccessKey = v
	}
	if v := strings.TrimSpace(raw.S3.SecretKey); v != "" {
		s3.SecretKey = v
	}
	if v := strings.TrimSpace(raw.S3.Prefix); v != "" {
		s3.Prefix = v
	}
	if v := strings.TrimSpace(raw.S3.PublicURL); v != "" {
		s3.PublicURL = v
	}
	if raw.S3.PathStyle != nil {
		s3.PathStyle = *raw.S3.PathStyle
	}
	cfg.S3 = s3
	return normalizeUploadsConfig(cfg)
}

// applyEnvOverrides lets deployments keep secrets out of the file.
func applyEnvOverrides(cfg *AppConfig, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvJWTSecret); ok && strings.TrimSpace(v) != "" {
		cfg.JWTSecret = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvMongoURI); ok && strings.TrimSpace(v) != "" {
		cfg.Database.Mongo.URI = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvMySQLDSN); ok && strings.TrimSpace(v) != "" {
		cfg.Database.MySQL.DSN = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvRedisURL); ok && strings.TrimSpace(v) != "" {
		cfg.Redis.URL = normalizeRedisRawURL(v)
		cfg.Redis.Enable = true
	}
}

func (c *AppConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", c.Port)
	}
	switch c.Database.Driver {
	case DriverMongo, DriverMemory:
	case DriverMySQL:
		if c.Database.MySQL.Port < 1 || c.Database.MySQL.Port > 65535 {
			return fmt.Errorf("invalid database.mysql.port %d, expected 1-65535", c.Database.MySQL.Port)
		}
		if err := c.Database.MySQL.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid database.driver %q, expected %s, %s or %s", c.Database.Driver, DriverMongo, DriverMySQL, DriverMemory)
	}
	if c.Redis.Enable {
		if c.Redis.Port < 1 || c.Redis.Port > 65535 {
			return fmt.Errorf("invalid redis.port %d, expected 1-65535", c.Redis.Port)
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("invalid redis.db %d, expected >= 0", c.Redis.DB)
		}
	}
	switch c.Uploads.Driver {
	case UploadLocal:
	case UploadS3:
		if c.Uploads.S3.Bucket == "" {
			return fmt.Errorf("uploads.s3.bucket is required when uploads.driver is %s", UploadS3)
		}
	default:
		return fmt.Errorf("invalid uploads.driver %q, expected %s or %s", c.Uploads.Driver, UploadLocal, UploadS3)
	}
	if c.Uploads.MaxSizeMB < 1 {
		return fmt.Errorf("invalid uploads.max_size_mb %d, expected >= 1", c.Uploads.MaxSizeMB)
	}
	if c.JWTSecret == "" {
		if !c.IsDev() {
			return fmt.Errorf("jwt_secret is required outside development (or set %s)", EnvJWTSecret)
		}
		c.JWTSecret = devJWTSecret
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("invalid jwt_ttl %s, expected a positive duration", c.JWTTTL)
	}
	if _, err := ParseLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// ParseLocation accepts an IANA zone or a "+08:00" style UTC offset.
func ParseLocation(raw string) (*time.Location, error) {
	tz := strings.TrimSpace(raw)
	if loc, err := time.LoadLocation(tz); err == nil {
		return loc, nil
	}
	if len(tz) == 6 && (tz[0] == '+' || tz[0] == '-') && tz[3] == ':' {
		h, errH := strconv.Atoi(tz[1:3])
		m, errM := strconv.Atoi(tz[4:6])
		if errH == nil && errM == nil && h <= 23 && m <= 59 {
			offset := h*3600 + m*60
			if tz[0] == '-' {
				offset = -offset
			}
			return time.FixedZone(tz, offset), nil
		}
	}
	return nil, errors.New("expect IANA zone (e.g. Europe/Berlin) or UTC offset (e.g. +08:00)")
}

func setDuration(dst *time.Duration, raw, key string) error {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = d
	return nil
}

func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, defaultEnv)
}

func (c *AppConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *AppConfig) LogDir() string {
	if c == nil {
		return ResolveRuntimePath("", "logs")
	}
	return ResolveRuntimePath(c.Paths.Logs, "logs")
}

func (c *AppConfig) UploadDir() string {
	return ResolveRuntimePath(c.Uploads.Dir, defaultUploadDir)
}

// MaxUploadBytes is the per-file upload limit.
func (c *AppConfig) MaxUploadBytes() int64 {
	return int64(c.Uploads.MaxSizeMB) << 20
}
