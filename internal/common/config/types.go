package config

import "time"

type PostgresConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Connection      map[string]string `validate:"required"`
}

type PulsarConfig struct {
	// Pulsar URL
	URL string `validate:"required"`
	// Path to the trusted TLS certificate file (must exist)
	TLSTrustCertsFilePath string
	// Whether Pulsar client accept untrusted TLS certificate from broker
	TLSAllowInsecureConnection bool
	// Whether the Pulsar client will validate the hostname in the broker's TLS Cert matches the actual hostname.
	TLSValidateHostname bool
	// Max number of connections to a single broker that will be kept in the pool. (Default: 1 connection)
	MaxConnectionsPerBroker int
	// Whether Pulsar authentication is enabled
	AuthenticationEnabled bool
	// Authentication type. For now only "JWT" auth is valid
	AuthenticationType string
	// Path to the JWT token (must exist). This must be set if AuthenticationType is "JWT"
	JwtTokenPath string
	// Maximum time to wait for a message before returning control to the caller
	ReceiveTimeout time.Duration
	// Time to wait after a Pulsar error before trying again
	BackoffTime time.Duration
	// Size of the consumer receiver queue
	ReceiverQueueSize int
}

type MetricsConfig struct {
	Port uint16
}

type LoggingConfig struct {
	// Either "text" or "json"
	Format string
	Level  string
}
