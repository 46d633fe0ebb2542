package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
    Server    ServerConfig    `mapstructure:"server"`
    Database  DatabaseConfig  `mapstructure:"database"`
    Logger    LoggerConfig    `mapstructure:"logger"`
    Auth      AuthConfig      `mapstructure:"auth"`
    Scheduler SchedulerConfig `mapstructure:"scheduler"`
    Features  FeaturesConfig  `mapstructure:"features"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type LoggerConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

type AuthConfig struct {
	AdminAPIKey    string   `mapstructure:"admin_api_key"`
	BotToken       string   `mapstructure:"bot_token"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SchedulerConfig controls the reminder engine and the overdue sweep.
type SchedulerConfig struct {
	SweepInterval       time.Duration `mapstructure:"sweep_interval"`
	ReminderLeadTime    time.Duration `mapstructure:"reminder_lead_time"`
	ConfidenceThreshold float64       `mapstructure:"confidence_threshold"`
}

type FeaturesConfig struct {
	RequestIDHeader      string `mapstructure:"request_id_header"`
	EnableRequestLogging bool   `mapstructure:"enable_request_logging"`
}

func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.SetEnvPrefix("TASKHUB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("scheduler.sweep_interval", 30*time.Minute)
	viper.SetDefault("scheduler.reminder_lead_time", 30*time.Minute)
	viper.SetDefault("scheduler.confidence_threshold", 0.7)

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
