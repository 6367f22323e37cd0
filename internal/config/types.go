package config

import "time"

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int
	Env            string // "development" | "production" | "test"
	Database       DatabaseConfig
	Redis          RedisRuntimeConfig
	JWTSecret      string
	JWTTTL         time.Duration
	Uploads        UploadsConfig
	AllowedOrigins []string
	Paths          RuntimePathsConfig
	Timezone       string
}

type DatabaseConfig struct {
	Driver string
	Mongo  MongoRuntimeConfig
	MySQL  MySQLRuntimeConfig
}

type MongoRuntimeConfig struct {
	URI     string
	Name    string
	Timeout time.Duration
}

type MySQLRuntimeConfig struct {
	DSN       string
	Host      string
	Port      int
	User      string
	Password  string
	Name      string
	Charset   string
	ParseTime bool
	Loc       string
	Params    map[string]string
}

type RedisRuntimeConfig struct {
	Enable   bool
	URL      string
	Host     string
	Port     int
	Username string
	Password string
	DB       int
	TLS      bool
	Scheme   string
	Params   map[string]string

	CacheTTL       time.Duration
	RateLimitRPM   int
	IdempotenceTTL time.Duration
}

type UploadsConfig struct {
	Driver         string
	Dir            string
	PublicPath     string
	MaxSizeMB      int
	AllowedFormats []string
	S3             S3RuntimeConfig
}

type S3RuntimeConfig struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Prefix    string
	PublicURL string
	PathStyle bool
}

type RuntimePathsConfig struct {
	Logs string
}

// raw* mirror the YAML file. Pointers separate "absent" from zero values.

type rawAppConfig struct {
	Port               int               `yaml:"port"`
	Env                string            `yaml:"env"`
	GoEnv              string            `yaml:"go_env"`
	Database           rawDatabaseConfig `yaml:"database"`
	Redis              rawRedisConfig    `yaml:"redis"`
	RedisURL           string            `yaml:"redis_url"`
	JWTSecret          string            `yaml:"jwt_secret"`
	JWTTTL             string            `yaml:"jwt_ttl"`
	Uploads            rawUploadsConfig  `yaml:"uploads"`
	AllowedOrigins     []string          `yaml:"allowed_origins"`
	CORSAllowedOrigins []string          `yaml:"cors_allowed_origins"`
	Paths              rawPathsConfig    `yaml:"paths"`
	LogDir             string            `yaml:"log_dir"`
	Timezone           string            `yaml:"timezone"`
	TZ                 string            `yaml:"tz"`
}

type rawDatabaseConfig struct {
	Driver string         `yaml:"driver"`
	Mongo  rawMongoConfig `yaml:"mongo"`
	MySQL  rawMySQLConfig `yaml:"mysql"`
}

type rawMongoConfig struct {
	URI     string `yaml:"uri"`
	Name    string `yaml:"name"`
	Timeout string `yaml:"timeout"`
}

type rawMySQLConfig struct {
	DSN       string            `yaml:"dsn"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Username  string            `yaml:"username"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	DBName    string            `yaml:"db_name"`
	Charset   string            `yaml:"charset"`
	ParseTime *bool             `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type rawRedisConfig struct {
	Enable         *bool             `yaml:"enable"`
	URL            string            `yaml:"url"`
	Host           string            `yaml:"host"`
	Port           int               `yaml:"port"`
	Username       string            `yaml:"username"`
	Password       string            `yaml:"password"`
	DB             *int              `yaml:"db"`
	TLS            *bool             `yaml:"tls"`
	Scheme         string            `yaml:"scheme"`
	Params         map[string]string `yaml:"params"`
	CacheTTL       string            `yaml:"cache_ttl"`
	RateLimitRPM   *int              `yaml:"rate_limit_rpm"`
	IdempotenceTTL string            `yaml:"idempotence_ttl"`
}

type rawUploadsConfig struct {
	Driver         string      `yaml:"driver"`
	Dir            string      `yaml:"dir"`
	PublicPath     string      `yaml:"public_path"`
	MaxSizeMB      int         `yaml:"max_size_mb"`
	AllowedFormats []string    `yaml:"allowed_formats"`
	S3             rawS3Config `yaml:"s3"`
}

type rawS3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Prefix    string `yaml:"prefix"`
	PublicURL string `yaml:"public_url"`
	PathStyle *bool  `yaml:"path_style"`
}

type rawPathsConfig struct {
	Logs string `yaml:"logs"`
}
