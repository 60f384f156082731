package service

import (
	"strings"
	"time"
)

type Config struct {
	DatabaseUri             string        `envconfig:"DATABASE_URI" required:"true"`
	DatabaseMaxConns        int           `envconfig:"DATABASE_MAX_CONNS" default:"10"`
	DatabaseMaxIdleConns    int           `envconfig:"DATABASE_MAX_IDLE_CONNS" default:"5"`
	DatabaseConnMaxLifetime int           `envconfig:"DATABASE_CONN_MAX_LIFETIME" default:"1800"` // 30 minutes
	SentryDSN               string        `envconfig:"SENTRY_DSN"`
	DatadogAgentUrl         string        `envconfig:"DATADOG_AGENT_URL"`
	SentryTracesSampleRate  float64       `envconfig:"SENTRY_TRACES_SAMPLE_RATE"`
	LogFilePath             string        `envconfig:"LOG_FILE_PATH"`
	JWTSecret               []byte        `envconfig:"JWT_SECRET" required:"true"`
	JWTAccessTokenExpiry    int           `envconfig:"JWT_ACCESS_EXPIRY" default:"172800"` // in seconds, default 2 days
	AdminAddress            string        `envconfig:"ADMIN_ADDRESS" required:"true"`
	TokenOwnerAddress       string        `envconfig:"TOKEN_OWNER_ADDRESS"`
	CustodyAddress          string        `envconfig:"ESCROW_CUSTODY_ADDRESS" default:"0xe7f1725e7734ce288f8367e1bb143e90bb3f0512"`
	StablecoinAddress       string        `envconfig:"STABLECOIN_ADDRESS" default:"0x5fbdb2315678afecb367f032d93f642f64180aa3"`
	StablecoinName          string        `envconfig:"STABLECOIN_NAME" default:"Mock USD Coin"`
	StablecoinSymbol        string        `envconfig:"STABLECOIN_SYMBOL" default:"mUSDC"`
	StablecoinDecimals      int32         `envconfig:"STABLECOIN_DECIMALS" default:"6"`
	StablecoinInitialSupply int64         `envconfig:"STABLECOIN_INITIAL_SUPPLY" default:"10000000000000"` // 10,000,000 tokens in base units
	FaucetAmount            int64         `envconfig:"FAUCET_AMOUNT" default:"1000000000"`                 // 1000 tokens in base units
	FaucetCooldown          time.Duration `envconfig:"FAUCET_COOLDOWN" default:"24h"`
	Port                    int           `envconfig:"PORT" default:"3000"`
	DefaultRateLimit        int           `envconfig:"DEFAULT_RATE_LIMIT" default:"10"`
	StrictRateLimit         int           `envconfig:"STRICT_RATE_LIMIT" default:"10"`
	BurstRateLimit          int           `envconfig:"BURST_RATE_LIMIT" default:"1"`
	EnablePrometheus        bool          `envconfig:"ENABLE_PROMETHEUS" default:"false"`
	PrometheusPort          int           `envconfig:"PROMETHEUS_PORT" default:"9092"`
	CustodyAuditInterval    time.Duration `envconfig:"CUSTODY_AUDIT_INTERVAL" default:"5m"`
	EventRelayInterval      time.Duration `envconfig:"EVENT_RELAY_INTERVAL" default:"1s"`
	WebhookUrl              string        `envconfig:"WEBHOOK_URL"`
	WebhookTimeout          time.Duration `envconfig:"WEBHOOK_TIMEOUT" default:"10s"`
	RabbitMQUri             string        `envconfig:"RABBITMQ_URI"`
	RabbitMQEscrowExchange  string        `envconfig:"RABBITMQ_ESCROW_EXCHANGE" default:"escrow_events"`
	KafkaBrokers            []string      `envconfig:"KAFKA_BROKERS"`
	KafkaEscrowTopic        string        `envconfig:"KAFKA_ESCROW_TOPIC" default:"escrow-events"`
}

// UsesMemoryStore reports whether DATABASE_URI selects the in-process store.
func (c *Config) UsesMemoryStore() bool {
	return strings.HasPrefix(c.DatabaseUri, "memory://")
}

func (c *Config) StablecoinOwner() string {
	if c.TokenOwnerAddress != "" {
		return c.TokenOwnerAddress
	}
	return c.AdminAddress
}
