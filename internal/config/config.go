package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	Logger LoggerConfig
	DB     DBConfig
	Redis  RedisConfig
	Queue  QueueConfig
	LLM    LLMConfig
	Worker WorkerConfig
	Auth   AuthConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigin   string
}

type LoggerConfig struct {
	Level string
	Env   string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type QueueConfig struct {
	URL       string
	QueueName string
}

// LLMConfig selects and parameterizes the completion backend.
// Source is "openai" (any OpenAI-compatible endpoint) or "ollama".
type LLMConfig struct {
	Source      string
	Model       string
	APIKey      string
	Endpoint    string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

type WorkerConfig struct {
	Concurrency int
	MaxRetries  int
	RetryDelay  time.Duration
}

type AuthConfig struct {
	JWTSecret string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Add config paths based on environment
	if os.Getenv("ENV") == "test" {
		viper.AddConfigPath("../../config")
		viper.AddConfigPath("../../")
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.AutomaticEnv()

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8090)
	viper.SetDefault("server.read_timeout", 20)
	viper.SetDefault("server.write_timeout", 20)
	viper.SetDefault("server.cors_origin", "*")
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("db.ssl_mode", "disable")
	viper.SetDefault("queue.name", "quiz_requests")
	viper.SetDefault("llm.source", "openai")
	viper.SetDefault("llm.temperature", 0.7)
	viper.SetDefault("llm.max_tokens", 8192)
	viper.SetDefault("llm.timeout", 120)
	viper.SetDefault("worker.concurrency", 1)
	viper.SetDefault("worker.max_retries", 3)
	viper.SetDefault("worker.retry_delay", 2)

	if err := viper.ReadInConfig(); err != nil {
		// A config file is optional when everything arrives via environment.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Host:         viper.GetString("server.host"),
			Port:         viper.GetInt("server.port"),
			ReadTimeout:  viper.GetDuration("server.read_timeout") * time.Second,
			WriteTimeout: viper.GetDuration("server.write_timeout") * time.Second,
			CORSOrigin:   viper.GetString("server.cors_origin"),
		},
		Logger: LoggerConfig{
			Level: viper.GetString("logger.level"),
			Env:   viper.GetString("logger.env"),
		},
		DB: DBConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetInt("db.port"),
			User:     viper.GetString("db.user"),
			Password: viper.GetString("db.password"),
			DBName:   viper.GetString("db.name"),
			SSLMode:  viper.GetString("db.ssl_mode"),
		},
		Redis: RedisConfig{
			Address:  viper.GetString("redis.address"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		Queue: QueueConfig{
			URL:       viper.GetString("queue.url"),
			QueueName: viper.GetString("queue.name"),
		},
		LLM: LLMConfig{
			Source:      viper.GetString("llm.source"),
			Model:       viper.GetString("llm.model"),
			APIKey:      viper.GetString("llm.api_key"),
			Endpoint:    viper.GetString("llm.endpoint"),
			Temperature: viper.GetFloat64("llm.temperature"),
			MaxTokens:   viper.GetInt("llm.max_tokens"),
			Timeout:     viper.GetDuration("llm.timeout") * time.Second,
		},
		Worker: WorkerConfig{
			Concurrency: viper.GetInt("worker.concurrency"),
			MaxRetries:  viper.GetInt("worker.max_retries"),
			RetryDelay:  viper.GetDuration("worker.retry_delay") * time.Second,
		},
		Auth: AuthConfig{
			JWTSecret: viper.GetString("auth.jwt_secret"),
		},
	}

	// Override with environment variables if set
	if host := os.Getenv("DB_HOST"); host != "" {
		config.DB.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		config.DB.Port = viper.GetInt("DB_PORT")
	}
	if user := os.Getenv("DB_USER"); user != "" {
		config.DB.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		config.DB.Password = password
	}
	if dbname := os.Getenv("DB_NAME"); dbname != "" {
		config.DB.DBName = dbname
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		config.Redis.Address = redisAddress
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.Redis.Password = redisPassword
	}
	if amqpURL := os.Getenv("AMQP_URL"); amqpURL != "" {
		config.Queue.URL = amqpURL
	}
	if apiKey := os.Getenv("LLM_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey
	}
	if model := os.Getenv("LLM_MODEL"); model != "" {
		config.LLM.Model = model
	}
	if endpoint := os.Getenv("LLM_ENDPOINT"); endpoint != "" {
		config.LLM.Endpoint = endpoint
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}

	return config, nil
}

// GetDSN returns the Postgres connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DB.User,
		c.DB.Password,
		c.DB.Host,
		c.DB.Port,
		c.DB.DBName,
		c.DB.SSLMode,
	)
}
