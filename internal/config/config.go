// Package config loads service configuration from the environment and an
// optional storefront.yaml file.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	Kafka          KafkaConfig
	PaymentGateway GatewayConfig
	AuthService    ServiceConfig
	Features       FeatureFlags
	Log            LogConfig
}

type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

func (d DatabaseConfig) ConnectionString() string {
	return "host=" + d.Host +
		" port=" + strconv.Itoa(d.Port) +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" sslmode=" + d.SSLMode
}

// URL is the postgres:// form golang-migrate expects.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CartTTL  time.Duration
}

type KafkaConfig struct {
	Brokers       []string
	OrdersTopic   string
	PaymentsTopic string
	GroupID       string
}

type ServiceConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// GatewayConfig adds circuit breaker settings to the payment gateway client.
type GatewayConfig struct {
	ServiceConfig
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
}

type FeatureFlags struct {
	CartCache       bool
	PersistentStore bool
	Events          bool
	MigrateOnBoot   bool
}

type LogConfig struct {
	Level       string
	Development bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 10)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "acme")
	v.SetDefault("DB_PASSWORD", "acme")
	v.SetDefault("DB_NAME", "acme_storefront")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_MAX_LIFETIME", 300)

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_CART_TTL", 24*60*60)

	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_ORDERS_TOPIC", "storefront.orders")
	v.SetDefault("KAFKA_PAYMENTS_TOPIC", "storefront.payments")
	v.SetDefault("KAFKA_GROUP_ID", "storefront-service")

	v.SetDefault("PAYMENT_GATEWAY_URL", "https://api.mercadopago.com")
	v.SetDefault("PAYMENT_GATEWAY_ACCESS_TOKEN", "")
	v.SetDefault("PAYMENT_GATEWAY_TIMEOUT", 30)
	v.SetDefault("PAYMENT_GATEWAY_BREAKER_MAX_FAILURES", 5)
	v.SetDefault("PAYMENT_GATEWAY_BREAKER_OPEN_TIMEOUT", 30)

	v.SetDefault("AUTH_SERVICE_URL", "http://localhost:54321")
	v.SetDefault("AUTH_SERVICE_API_KEY", "")
	v.SetDefault("AUTH_SERVICE_TIMEOUT", 10)

	v.SetDefault("FEATURE_CART_CACHE", true)
	v.SetDefault("FEATURE_PERSISTENT_STORE", true)
	v.SetDefault("FEATURE_EVENTS", true)
	v.SetDefault("FEATURE_MIGRATE_ON_BOOT", true)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DEVELOPMENT", false)
}

// Load reads configFile when given, otherwise looks for an optional
// storefront.yaml in the working directory and /etc/storefront. Environment
// variables override file values.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("storefront")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/storefront/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v), nil
}

func seconds(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetInt(key)) * time.Second
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:            v.GetInt("SERVER_PORT"),
			ReadTimeout:     seconds(v, "SERVER_READ_TIMEOUT"),
			WriteTimeout:    seconds(v, "SERVER_WRITE_TIMEOUT"),
			ShutdownTimeout: seconds(v, "SERVER_SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetInt("DB_PORT"),
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			Name:         v.GetString("DB_NAME"),
			SSLMode:      v.GetString("DB_SSLMODE"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
			MaxLifetime:  seconds(v, "DB_MAX_LIFETIME"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			CartTTL:  seconds(v, "REDIS_CART_TTL"),
		},
		Kafka: KafkaConfig{
			Brokers:       splitList(v.GetString("KAFKA_BROKERS")),
			OrdersTopic:   v.GetString("KAFKA_ORDERS_TOPIC"),
			PaymentsTopic: v.GetString("KAFKA_PAYMENTS_TOPIC"),
			GroupID:       v.GetString("KAFKA_GROUP_ID"),
		},
		PaymentGateway: GatewayConfig{
			ServiceConfig: ServiceConfig{
				BaseURL: v.GetString("PAYMENT_GATEWAY_URL"),
				APIKey:  v.GetString("PAYMENT_GATEWAY_ACCESS_TOKEN"),
				Timeout: seconds(v, "PAYMENT_GATEWAY_TIMEOUT"),
			},
			BreakerMaxFailures: v.GetUint32("PAYMENT_GATEWAY_BREAKER_MAX_FAILURES"),
			BreakerOpenTimeout: seconds(v, "PAYMENT_GATEWAY_BREAKER_OPEN_TIMEOUT"),
		},
		AuthService: ServiceConfig{
			BaseURL: v.GetString("AUTH_SERVICE_URL"),
			APIKey:  v.GetString("AUTH_SERVICE_API_KEY"),
			Timeout: seconds(v, "AUTH_SERVICE_TIMEOUT"),
		},
		Features: FeatureFlags{
			CartCache:       v.GetBool("FEATURE_CART_CACHE"),
			PersistentStore: v.GetBool("FEATURE_PERSISTENT_STORE"),
			Events:          v.GetBool("FEATURE_EVENTS"),
			MigrateOnBoot:   v.GetBool("FEATURE_MIGRATE_ON_BOOT"),
		},
		Log: LogConfig{
			Level:       v.GetString("LOG_LEVEL"),
			Development: v.GetBool("LOG_DEVELOPMENT"),
		},
	}
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
