package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/xela07ax/webapi-auth-demo/internal/domain"
)

const (
	DefaultIssuer            = "WebApiDemo"
	DefaultAudience          = "WebAppClient"
	DefaultExpirationMinutes = 60
)

// Config — корневая структура конфигурации сервиса верификации.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Jwt     JwtConfig     `mapstructure:"jwt"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logger  LoggerConfig  `mapstructure:"logger"`
}

// ServerConfig описывает настройки HTTP-сервера.
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port" validate:"gt=0,lte=65535"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"` // фронтенд (React dev server)
}

// Addr возвращает адрес для http.Server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// JwtConfig — всё, что нужно издателю и валидатору токенов. Читается один раз при старте.
type JwtConfig struct {
	SecretKey         string `mapstructure:"secret_key" validate:"required"`
	Issuer            string `mapstructure:"issuer" validate:"required"`
	Audience          string `mapstructure:"audience" validate:"required"`
	ExpirationMinutes int    `mapstructure:"expiration_minutes" validate:"gt=0"`
}

// Expiration — время жизни токена.
func (c JwtConfig) Expiration() time.Duration {
	return time.Duration(c.ExpirationMinutes) * time.Minute
}

// WithDefaults подставляет дефолты для необязательных полей. Секрет дефолта не имеет.
func (c JwtConfig) WithDefaults() JwtConfig {
	if c.Issuer == "" {
		c.Issuer = DefaultIssuer
	}
	if c.Audience == "" {
		c.Audience = DefaultAudience
	}
	if c.ExpirationMinutes <= 0 {
		c.ExpirationMinutes = DefaultExpirationMinutes
	}
	return c
}

// AuthConfig — настройки проверки учетных данных.
type AuthConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost" validate:"gte=4,lte=31"`
}

// MetricsConfig — отдельный листенер для Prometheus.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

var configValidator = validator.New()

// LoadConfig инициализирует конфигурацию, объединяя значения из файла, .env и ENV.
// Без paths ищем config.yaml в корне и в ./configs.
func LoadConfig(paths ...string) (*Config, error) {
	// .env не обязателен: в Docker/K8s переменные приходят напрямую
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./configs"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// JWT_SECRET_KEY=... перекроет jwt.secret_key
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// У секрета нет дефолта, поэтому AutomaticEnv его не увидит при Unmarshal, биндим явно
	if err := v.BindEnv("jwt.secret_key"); err != nil {
		return nil, fmt.Errorf("bind jwt.secret_key: %w", err)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Если файла нет, работаем на ENV и дефолтах
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет конфиг при старте, а не на первом запросе.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Jwt.SecretKey) == "" {
		return fmt.Errorf("%w: jwt.secret_key", domain.ErrConfigurationMissing)
	}
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://localhost:3001"})
	v.SetDefault("jwt.issuer", DefaultIssuer)
	v.SetDefault("jwt.audience", DefaultAudience)
	v.SetDefault("jwt.expiration_minutes", DefaultExpirationMinutes)
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}
