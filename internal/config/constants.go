package config

import "time"

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort     = 5000
	defaultEnv      = "development"
	defaultDriver   = DriverMongo
	defaultJWTTTL   = 30 * 24 * time.Hour
	devJWTSecret    = "blogsphere-dev-secret"
	defaultTimezone = "UTC"

	defaultMongoURI     = "mongodb://127.0.0.1:27017"
	defaultMongoName    = "blogsphere"
	defaultMongoTimeout = 10 * time.Second

	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "blogsphere"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"

	defaultRedisHost = "localhost"
	defaultRedisPort = 6379
	defaultRedisDB   = 0

	defaultUploadDriver   = UploadLocal
	defaultUploadDir      = "uploads"
	defaultUploadMaxMB    = 5
	defaultUploadPublic   = "/uploads"
	defaultS3Region       = "us-east-1"
	defaultCacheTTL       = 60 * time.Second
	defaultRateLimitRPM   = 300
	defaultIdempotenceTTL = 10 * time.Second
)

// Store drivers.
const (
	DriverMongo  = "mongo"
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Upload backends.
const (
	UploadLocal = "local"
	UploadS3    = "s3"
)

// Environment variables that override secrets from the file.
const (
	EnvJWTSecret = "BLOG_JWT_SECRET"
	EnvMongoURI  = "BLOG_MONGO_URI"
	EnvMySQLDSN  = "BLOG_MYSQL_DSN"
	EnvRedisURL  = "BLOG_REDIS_URL"
)

var defaultAllowedFormats = []string{"jpg", "jpeg", "png", "gif", "webp"}
