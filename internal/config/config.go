package config

import "time"

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN"`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS" default:"10"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" default:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" default:"1h"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" default:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD" default:""`
	DB       int    `env:"REDIS_DB" default:"0"`
}

type AuthConfig struct {
	JWTSecret string        `env:"AUTH_JWT_SECRET"`
	TokenTTL  time.Duration `env:"AUTH_TOKEN_TTL" default:"24h"`
}

type LedgerConfig struct {
	// Balance granted to every account at registration, in minor units.
	InitialBalanceMinor int64 `env:"APP_INITIAL_BALANCE_MINOR" default:"100000"`
	// Bounded retry budget for lock/commit contention before the transfer
	// is reported as a transient failure.
	MaxRetries  int           `env:"APP_TRANSFER_MAX_RETRIES" default:"3"`
	LockTimeout time.Duration `env:"APP_TRANSFER_LOCK_TIMEOUT" default:"3s"`
}
