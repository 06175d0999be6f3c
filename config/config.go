package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Redis   RedisConfig   `mapstructure:"redis"`
	API     APIConfig     `mapstructure:"api"`
	Service ServiceConfig `mapstructure:"service"`
	Log     LogConfig     `mapstructure:"log"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Sentry  SentryConfig  `mapstructure:"sentry"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	Mode            string        `mapstructure:"mode" validate:"oneof=debug release test"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// RedisConfig 存储连接配置
type RedisConfig struct {
	Addr        string        `mapstructure:"addr" validate:"required"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db" validate:"min=0"`
	PoolSize    int           `mapstructure:"pool_size" validate:"min=0"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	KeyPrefix   string        `mapstructure:"key_prefix" validate:"required"`
}

// APIConfig 接口参数
type APIConfig struct {
	DefaultCount int    `mapstructure:"default_count" validate:"min=0"`
	MaxCount     int    `mapstructure:"max_count" validate:"min=1"`
	HelpFile     string `mapstructure:"help_file"`
	Gzip         bool   `mapstructure:"gzip"`
	Swagger      bool   `mapstructure:"swagger"`
}

// ServiceConfig 聚合服务参数
type ServiceConfig struct {
	// 0 表示不限制单次批量查询的并发
	MaxConcurrency int `mapstructure:"max_concurrency" validate:"min=0"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// TracingConfig OpenTelemetry 配置
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure    bool    `mapstructure:"insecure"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate" validate:"min=0,max=1"`
}

// SentryConfig 错误上报配置
type SentryConfig struct {
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate" validate:"min=0,max=1"`
}

// Addr 监听地址
func (c ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Load 从默认位置加载配置
func Load() (*Config, error) {
	return LoadFrom(viper.New(), "")
}

// LoadFrom 使用给定的 viper 实例加载配置；path 为空时按默认路径查找 config.yaml，
// 配置文件不存在时只使用默认值与环境变量。
func LoadFrom(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("HYDRATION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// 兼容旧部署的环境变量
	_ = v.BindEnv("server.port", "HYDRATION_SERVER_PORT", "API_PORT")
	_ = v.BindEnv("redis.addr", "HYDRATION_REDIS_ADDR", "REDIS_ADDR")
	_ = v.BindEnv("sentry.dsn", "HYDRATION_SENTRY_DSN", "SENTRY_DSN")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置取值
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.API.DefaultCount > c.API.MaxCount {
		return fmt.Errorf("invalid config: api.default_count %d exceeds api.max_count %d", c.API.DefaultCount, c.API.MaxCount)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 0)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.key_prefix", "post")

	v.SetDefault("api.default_count", 10)
	v.SetDefault("api.max_count", 1000)
	v.SetDefault("api.help_file", "README.md")
	v.SetDefault("api.gzip", true)
	v.SetDefault("api.swagger", true)

	v.SetDefault("service.max_concurrency", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "hydration")
	v.SetDefault("tracing.sample_rate", 1.0)

	v.SetDefault("sentry.environment", "development")
	v.SetDefault("sentry.sample_rate", 1.0)
}
