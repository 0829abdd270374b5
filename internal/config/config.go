package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Tracing   TracingConfig `mapstructure:"tracing"`
	Redis     RedisConfig
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Resume    ResumeConfig    `mapstructure:"resume"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	MigrateOnly bool   `mapstructure:"-"` // 仅迁移模式（迁移后退出）
	ConfigDir   string `mapstructure:"-"` // 配置文件所在目录，用于热更新
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Secret  string `mapstructure:"secret"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Host     string
	Port     int
	Password string
	DB       int
}

// EngineConfig 自适应学习引擎
type EngineConfig struct {
	// mysql | memory
	ProfileStorage string `mapstructure:"profile_storage"`
}

// ResumeConfig 学习位置追踪
type ResumeConfig struct {
	KeyPrefix                string `mapstructure:"key_prefix"`
	BackendTimeoutMS         int    `mapstructure:"backend_timeout_ms"`
	RecommendationTTLMinutes int    `mapstructure:"recommendation_ttl_minutes"`
	InProgressTTLMinutes     int    `mapstructure:"in_progress_ttl_minutes"`
	// redis | memory
	LocalStore string `mapstructure:"local_store"`
}

func (c ResumeConfig) BackendTimeout() time.Duration {
	return time.Duration(c.BackendTimeoutMS) * time.Millisecond
}

func (c ResumeConfig) RecommendationTTL() time.Duration {
	return time.Duration(c.RecommendationTTLMinutes) * time.Minute
}

func (c ResumeConfig) InProgressTTL() time.Duration {
	return time.Duration(c.InProgressTTLMinutes) * time.Minute
}

// CatalogConfig 内容目录来源
type CatalogConfig struct {
	// file | minio
	Source        string `mapstructure:"source"`
	Path          string `mapstructure:"path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	MinioObject   string `mapstructure:"minio_object"`
	MinioUseSSL   bool   `mapstructure:"minio_use_ssl"`
	ReloadMinutes int    `mapstructure:"reload_minutes"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)
	v.SetDefault("rate_limit.max_requests", 6000)
	v.SetDefault("rate_limit.window_minutes", 1)
	v.SetDefault("engine.profile_storage", "mysql")
	v.SetDefault("resume.key_prefix", "learning_position:")
	v.SetDefault("resume.backend_timeout_ms", 3000)
	v.SetDefault("resume.recommendation_ttl_minutes", 10)
	v.SetDefault("resume.in_progress_ttl_minutes", 5)
	v.SetDefault("resume.local_store", "memory")
	v.SetDefault("catalog.source", "file")
	v.SetDefault("catalog.path", "configs/catalog.yaml")
	v.SetDefault("catalog.reload_minutes", 30)
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("ADAPTIVE")
	v.AutomaticEnv()
	setDefaults(v)

	// Database
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	v.BindEnv("jwt.enabled", "JWT_ENABLED")
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")

	// Catalog / MinIO
	v.BindEnv("catalog.source", "CATALOG_SOURCE")
	v.BindEnv("catalog.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("catalog.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("catalog.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("catalog.minio_bucket", "MINIO_BUCKET")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.ConfigDir = path
	return &cfg, nil
}

// Validate 校验配置取值
func (c *Config) Validate() error {
	switch c.Engine.ProfileStorage {
	case "mysql", "memory":
	default:
		return fmt.Errorf("engine.profile_storage must be mysql or memory, got %q", c.Engine.ProfileStorage)
	}

	switch c.Resume.LocalStore {
	case "memory":
	case "redis":
		if !c.Redis.Enabled {
			return fmt.Errorf("resume.local_store=redis requires redis.enabled")
		}
	default:
		return fmt.Errorf("resume.local_store must be redis or memory, got %q", c.Resume.LocalStore)
	}

	switch c.Catalog.Source {
	case "file":
		if c.Catalog.Path == "" {
			return fmt.Errorf("catalog.path is required for file source")
		}
	case "minio":
		if c.Catalog.MinioEndpoint == "" || c.Catalog.MinioBucket == "" || c.Catalog.MinioObject == "" {
			return fmt.Errorf("catalog.minio_endpoint, minio_bucket and minio_object are required for minio source")
		}
	default:
		return fmt.Errorf("catalog.source must be file or minio, got %q", c.Catalog.Source)
	}

	if c.Resume.BackendTimeoutMS <= 0 {
		return fmt.Errorf("resume.backend_timeout_ms must be positive")
	}

	// 生产环境校验 JWT Secret 强度
	if c.JWT.Enabled && c.Server.Mode == "release" && len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(c.JWT.Secret))
	}

	return nil
}
