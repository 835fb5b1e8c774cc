package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBootstrap_Defaults(t *testing.T) {
	// Create a minimal valid config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `server:
  http:
    addr: :8080
data:
  database:
    driver: mysql
  redis:
    addr: 127.0.0.1:6379
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	t.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/proofline")

	bc, err := NewBootstrap(configPath)
	require.NoError(t, err)
	require.NotNil(t, bc)

	// Verify server defaults
	assert.Equal(t, ":8080", bc.Server.Http.Addr)
	assert.Equal(t, "tcp", bc.Server.Http.Network)
	assert.Equal(t, 60*time.Second, bc.Server.Http.Timeout.AsDuration())
	assert.Equal(t, int32(1024), bc.Server.Http.MaxConnections)

	// Verify data defaults
	assert.Equal(t, "mysql", bc.Data.Database.Driver)
	assert.Equal(t, "user:pass@tcp(localhost:3306)/proofline", bc.Data.Database.Source)
	assert.Equal(t, int32(10), bc.Data.Database.MaxIdleConns)
	assert.Equal(t, int32(100), bc.Data.Database.MaxOpenConns)
	assert.Equal(t, time.Hour, bc.Data.Database.ConnMaxLifetime.AsDuration())
	assert.Equal(t, 10*time.Minute, bc.Data.Database.ConnMaxIdleTime.AsDuration())

	assert.Equal(t, "127.0.0.1:6379", bc.Data.Redis.Addr)
	assert.Equal(t, "tcp", bc.Data.Redis.Network)
	assert.Equal(t, 200*time.Millisecond, bc.Data.Redis.ReadTimeout.AsDuration())
	assert.Equal(t, 200*time.Millisecond, bc.Data.Redis.WriteTimeout.AsDuration())

	// Verify health defaults
	assert.Equal(t, int32(5), bc.Health.Breaker.FailureThreshold)
	assert.Equal(t, 30*time.Second, bc.Health.Breaker.RecoveryTimeout.AsDuration())
	assert.Equal(t, 60*time.Second, bc.Health.Breaker.MonitorWindow.AsDuration())
	assert.Equal(t, 30*time.Second, bc.Health.Probe.Interval.AsDuration())
	assert.Equal(t, 5*time.Second, bc.Health.Probe.Timeout.AsDuration())
	assert.Empty(t, bc.Health.Alert.WebhookUrl)

	// Verify log defaults
	assert.Equal(t, "info", bc.Log.Level)
	assert.Equal(t, "json", bc.Log.Format)
}

func TestNewBootstrap_EnvOverrides(t *testing.T) {
	tests := []struct {
		name        string
		envVars     map[string]string
		expectedVal func(*Bootstrap) bool
		description string
	}{
		{
			name: "override_http_addr",
			envVars: map[string]string{
				"PROOFLINE_SERVER_HTTP_ADDR": ":9999",
				"MYSQL_DSN":                  "user:pass@tcp(localhost:3306)/proofline",
			},
			expectedVal: func(bc *Bootstrap) bool {
				return bc.Server.Http.Addr == ":9999"
			},
			description: "PROOFLINE_SERVER_HTTP_ADDR should override default :8080",
		},
		{
			name: "override_redis_addr",
			envVars: map[string]string{
				"REDIS_ADDR": "redis.example.com:6379",
				"MYSQL_DSN":  "user:pass@tcp(localhost:3306)/proofline",
			},
			expectedVal: func(bc *Bootstrap) bool {
				return bc.Data.Redis.Addr == "redis.example.com:6379"
			},
			description: "REDIS_ADDR should override default",
		},
		{
			name: "override_log_level",
			envVars: map[string]string{
				"PROOFLINE_LOG_LEVEL": "debug",
				"MYSQL_DSN":           "user:pass@tcp(localhost:3306)/proofline",
			},
			expectedVal: func(bc *Bootstrap) bool {
				return bc.Log.Level == "debug"
			},
			description: "PROOFLINE_LOG_LEVEL should override default info",
		},
		{
			name: "override_breaker_threshold",
			envVars: map[string]string{
				"PROOFLINE_HEALTH_BREAKER_FAILURE_THRESHOLD": "3",
				"MYSQL_DSN": "user:pass@tcp(localhost:3306)/proofline",
			},
			expectedVal: func(bc *Bootstrap) bool {
				return bc.Health.Breaker.FailureThreshold == 3
			},
			description: "PROOFLINE_HEALTH_BREAKER_FAILURE_THRESHOLD should override default 5",
		},
		{
			name: "override_admin_key",
			envVars: map[string]string{
				"ADMIN_API_KEY": "ops-key-123",
				"MYSQL_DSN":     "user:pass@tcp(localhost:3306)/proofline",
			},
			expectedVal: func(bc *Bootstrap) bool {
				return bc.Admin.ApiKey == "ops-key-123"
			},
			description: "ADMIN_API_KEY should populate admin.api_key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Create minimal config file
			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.yaml")

			configContent := `server:
  http:
    addr: :8080
data:
  redis:
    addr: 127.0.0.1:6379
`
			err := os.WriteFile(configPath, []byte(configContent), 0644)
			require.NoError(t, err)

			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			bc, err := NewBootstrap(configPath)
			require.NoError(t, err, tt.description)
			require.NotNil(t, bc)

			assert.True(t, tt.expectedVal(bc), tt.description)
		})
	}
}

func TestNewBootstrap_MissingRequired(t *testing.T) {
	// Create minimal config file without a database source
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `server:
  http:
    addr: :8080
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	// Clear relevant environment variables to ensure isolation
	os.Unsetenv("MYSQL_DSN")
	os.Unsetenv("PROOFLINE_DATA_DATABASE_SOURCE")

	bc, err := NewBootstrap(configPath)
	assert.Error(t, err, "expected error for missing database source")
	assert.Nil(t, bc, "Bootstrap should be nil when validation fails")
	assert.Contains(t, err.Error(), "data.database.source (MYSQL_DSN)")
}

func TestNewBootstrap_ConfigFileNotFound(t *testing.T) {
	t.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/proofline")

	bc, err := NewBootstrap("/non/existent/config.yaml")
	assert.Error(t, err)
	assert.Nil(t, bc)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestNewBootstrap_EmptyConfigPath(t *testing.T) {
	t.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/proofline")

	// Load with empty config path (should use defaults + env vars)
	bc, err := NewBootstrap("")
	require.NoError(t, err)
	require.NotNil(t, bc)

	assert.Equal(t, ":8080", bc.Server.Http.Addr)
	assert.Equal(t, "user:pass@tcp(localhost:3306)/proofline", bc.Data.Database.Source)
	assert.Equal(t, int32(5), bc.Health.Breaker.FailureThreshold)
}

func TestNewBootstrap_PriorityOrder(t *testing.T) {
	// Create config file with one value
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `server:
  http:
    addr: :7777
data:
  redis:
    addr: 127.0.0.1:6379
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	// Environment variable should override the file value
	t.Setenv("PROOFLINE_SERVER_HTTP_ADDR", ":8888")
	t.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/proofline")

	bc, err := NewBootstrap(configPath)
	require.NoError(t, err)
	require.NotNil(t, bc)

	assert.Equal(t, ":8888", bc.Server.Http.Addr, "environment variable should override config file")
}

func TestValidate_AllFieldsPresent(t *testing.T) {
	bc := &Bootstrap{
		Server: &Server{
			Http: &Server_HTTP{Addr: ":8080"},
		},
		Data: &Data{
			Database: &Data_Database{
				Driver: "mysql",
				Source: "user:pass@tcp(localhost:3306)/proofline",
			},
			Redis: &Data_Redis{Addr: "127.0.0.1:6379"},
		},
		Log: &Log{
			Level:  "info",
			Format: "json",
		},
	}

	err := Validate(bc)
	assert.NoError(t, err)
}

func TestValidate_NilBootstrap(t *testing.T) {
	err := Validate(&Bootstrap{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing required configuration fields")
}
