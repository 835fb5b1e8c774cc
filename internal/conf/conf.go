package conf

import (
	"google.golang.org/protobuf/types/known/durationpb"
)

// Bootstrap is the root configuration for the Proofline service.
type Bootstrap struct {
	Server *Server
	Data   *Data
	Health *Health
	Log    *Log
	Admin  *Admin
}

// Server holds transport configuration.
type Server struct {
	Http *Server_HTTP
}

// Server_HTTP configures the HTTP server.
type Server_HTTP struct {
	Network string
	Addr    string
	Timeout *durationpb.Duration
	// MaxConnections caps concurrent accepted connections; 0 disables the cap.
	MaxConnections int32
}

// Data holds datasource configuration.
type Data struct {
	Database *Data_Database
	Redis    *Data_Redis
}

// Data_Database configures the MySQL connection and pool.
type Data_Database struct {
	Driver          string
	Source          string
	MaxIdleConns    int32
	MaxOpenConns    int32
	ConnMaxLifetime *durationpb.Duration
	ConnMaxIdleTime *durationpb.Duration
}

// Data_Redis configures the Redis cache client.
type Data_Redis struct {
	Network      string
	Addr         string
	ReadTimeout  *durationpb.Duration
	WriteTimeout *durationpb.Duration
}

// Health configures the database resilience layer.
type Health struct {
	Breaker *Health_Breaker
	Probe   *Health_Probe
	Alert   *Health_Alert
}

// Health_Breaker configures the database circuit breaker.
type Health_Breaker struct {
	FailureThreshold int32
	RecoveryTimeout  *durationpb.Duration
	MonitorWindow    *durationpb.Duration
}

// Health_Probe configures the periodic database health probe.
type Health_Probe struct {
	Interval *durationpb.Duration
	Timeout  *durationpb.Duration
}

// Health_Alert configures the circuit breaker alert webhook.
type Health_Alert struct {
	WebhookUrl string
	Timeout    *durationpb.Duration
}

// Log configures logging output.
type Log struct {
	Level      string
	Format     string
	Env        string
	OutputFile string
}

// Admin configures the operator API.
type Admin struct {
	ApiKey string
}
