// Package conf provides configuration management using Viper.
// It supports loading configuration from YAML files and environment variables,
// with CLI flag overrides.
package conf

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"google.golang.org/protobuf/types/known/durationpb"
)

// NewBootstrap creates and initializes a Bootstrap configuration.
// It loads configuration from the specified config file path, applies defaults,
// and allows overrides from environment variables prefixed with PROOFLINE_.
//
// Configuration priority: CLI flags > Environment variables > Config file > Defaults
//
// Required environment variables:
//   - MYSQL_DSN or PROOFLINE_DATA_DATABASE_SOURCE: MySQL connection string
//
// Parameters:
//   - configPath: Path to the configuration file or directory
//
// Returns:
//   - *Bootstrap: Loaded configuration
//   - error: Configuration loading or validation error
func NewBootstrap(configPath string) (*Bootstrap, error) {
	v := viper.New()

	setDefaults(v)

	// Enable environment variable support with PROOFLINE_ prefix
	v.SetEnvPrefix("PROOFLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Allow direct environment variable names (without PROOFLINE_ prefix) for
	// deployment compatibility
	_ = v.BindEnv("data.database.source", "MYSQL_DSN", "PROOFLINE_DATA_DATABASE_SOURCE")
	_ = v.BindEnv("data.redis.addr", "REDIS_ADDR", "PROOFLINE_DATA_REDIS_ADDR")
	_ = v.BindEnv("admin.api_key", "ADMIN_API_KEY", "PROOFLINE_ADMIN_API_KEY")
	_ = v.BindEnv("health.alert.webhook_url", "ALERT_WEBHOOK_URL", "PROOFLINE_HEALTH_ALERT_WEBHOOK_URL")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	bc := &Bootstrap{
		Server: &Server{
			Http: &Server_HTTP{
				Network:        v.GetString("server.http.network"),
				Addr:           v.GetString("server.http.addr"),
				Timeout:        durationpb.New(v.GetDuration("server.http.timeout")),
				MaxConnections: v.GetInt32("server.http.max_connections"),
			},
		},
		Data: &Data{
			Database: &Data_Database{
				Driver:          v.GetString("data.database.driver"),
				Source:          v.GetString("data.database.source"),
				MaxIdleConns:    v.GetInt32("data.database.max_idle_conns"),
				MaxOpenConns:    v.GetInt32("data.database.max_open_conns"),
				ConnMaxLifetime: durationpb.New(v.GetDuration("data.database.conn_max_lifetime")),
				ConnMaxIdleTime: durationpb.New(v.GetDuration("data.database.conn_max_idle_time")),
			},
			Redis: &Data_Redis{
				Network:      v.GetString("data.redis.network"),
				Addr:         v.GetString("data.redis.addr"),
				ReadTimeout:  durationpb.New(v.GetDuration("data.redis.read_timeout")),
				WriteTimeout: durationpb.New(v.GetDuration("data.redis.write_timeout")),
			},
		},
		Health: &Health{
			Breaker: &Health_Breaker{
				FailureThreshold: v.GetInt32("health.breaker.failure_threshold"),
				RecoveryTimeout:  durationpb.New(v.GetDuration("health.breaker.recovery_timeout")),
				MonitorWindow:    durationpb.New(v.GetDuration("health.breaker.monitor_window")),
			},
			Probe: &Health_Probe{
				Interval: durationpb.New(v.GetDuration("health.probe.interval")),
				Timeout:  durationpb.New(v.GetDuration("health.probe.timeout")),
			},
			Alert: &Health_Alert{
				WebhookUrl: v.GetString("health.alert.webhook_url"),
				Timeout:    durationpb.New(v.GetDuration("health.alert.timeout")),
			},
		},
		Log: &Log{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			Env:        v.GetString("log.env"),
			OutputFile: v.GetString("log.output_file"),
		},
		Admin: &Admin{
			ApiKey: v.GetString("admin.api_key"),
		},
	}

	if err := Validate(bc); err != nil {
		return nil, err
	}

	return bc, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.http.network", "tcp")
	v.SetDefault("server.http.addr", ":8080")
	v.SetDefault("server.http.timeout", 60*time.Second)
	v.SetDefault("server.http.max_connections", 1024)

	// Data defaults
	v.SetDefault("data.database.driver", "mysql")
	// Note: data.database.source (MYSQL_DSN) is required from environment
	v.SetDefault("data.database.max_idle_conns", 10)
	v.SetDefault("data.database.max_open_conns", 100)
	v.SetDefault("data.database.conn_max_lifetime", time.Hour)
	v.SetDefault("data.database.conn_max_idle_time", 10*time.Minute)

	v.SetDefault("data.redis.network", "tcp")
	v.SetDefault("data.redis.addr", "127.0.0.1:6379")
	v.SetDefault("data.redis.read_timeout", 200*time.Millisecond)
	v.SetDefault("data.redis.write_timeout", 200*time.Millisecond)

	// Health defaults: breaker trips after 5 consecutive failures, probes run
	// every 30 seconds
	v.SetDefault("health.breaker.failure_threshold", 5)
	v.SetDefault("health.breaker.recovery_timeout", 30*time.Second)
	v.SetDefault("health.breaker.monitor_window", 60*time.Second)
	v.SetDefault("health.probe.interval", 30*time.Second)
	v.SetDefault("health.probe.timeout", 5*time.Second)
	v.SetDefault("health.alert.timeout", 5*time.Second)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks that all required configuration fields are present and valid.
// It returns an error listing all missing required fields.
func Validate(bc *Bootstrap) error {
	var missingFields []string

	if bc.Data == nil || bc.Data.Database == nil || bc.Data.Database.Source == "" {
		missingFields = append(missingFields, "data.database.source (MYSQL_DSN)")
	}

	if len(missingFields) > 0 {
		return fmt.Errorf("missing required configuration fields: %s", strings.Join(missingFields, ", "))
	}

	return nil
}
