package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Dojah        DojahConfig
	Paystack     PaystackConfig
	Verification VerificationConfig
	Wallet       WalletConfig
	SMTP         SMTPConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

// DojahConfig holds credentials for the identity verification provider.
type DojahConfig struct {
	BaseURL string
	APIKey  string
	AppID   string
	Timeout time.Duration
	UseMock bool
}

// PaystackConfig holds credentials for the payout provider.
type PaystackConfig struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
	UseMock   bool
}

// VerificationConfig carries the policy knobs of the vendor verification
// state machine.
type VerificationConfig struct {
	OTPTTL             time.Duration
	MaxAttempts        int
	AttemptWindow      time.Duration
	RiskApprovalLimit  int
	MinimumSellerAge   int
	NameMatchThreshold float64
}

// WalletConfig carries the ledger policy knobs.
type WalletConfig struct {
	MinimumPayout         string
	DefaultCommissionRate string
}

// SMTPConfig carries the mail relay used for ops notification emails. Email
// delivery is disabled when Host is empty.
type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	UseTLS     bool
	OpsAddress string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:      normalizeRedisURL(getEnv("REDIS_URL", "localhost:6379")),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", "change-this-secret"),
			Expiration: getDurationEnv("JWT_EXPIRATION", 15*time.Minute),
		},
		Dojah: DojahConfig{
			BaseURL: getEnv("DOJAH_BASE_URL", "https://api.dojah.io"),
			APIKey:  getEnv("DOJAH_API_KEY", ""),
			AppID:   getEnv("DOJAH_APP_ID", ""),
			Timeout: getDurationEnv("DOJAH_TIMEOUT", 30*time.Second),
			UseMock: getBoolEnv("USE_MOCK_DOJAH", true),
		},
		Paystack: PaystackConfig{
			BaseURL:   getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
			SecretKey: getEnv("PAYSTACK_SECRET_KEY", ""),
			Timeout:   getDurationEnv("PAYSTACK_TIMEOUT", 30*time.Second),
			UseMock:   getBoolEnv("USE_MOCK_PAYSTACK", true),
		},
		Verification: VerificationConfig{
			OTPTTL:             getDurationEnv("VERIFICATION_OTP_TTL", 10*time.Minute),
			MaxAttempts:        getIntEnv("VERIFICATION_MAX_ATTEMPTS", 3),
			AttemptWindow:      getDurationEnv("VERIFICATION_ATTEMPT_WINDOW", time.Hour),
			RiskApprovalLimit:  getIntEnv("VERIFICATION_RISK_APPROVAL_LIMIT", 50),
			MinimumSellerAge:   getIntEnv("VERIFICATION_MINIMUM_AGE", 18),
			NameMatchThreshold: getFloatEnv("VERIFICATION_NAME_MATCH_THRESHOLD", 0.7),
		},
		Wallet: WalletConfig{
			MinimumPayout:         getEnv("WALLET_MINIMUM_PAYOUT", "1000.00"),
			DefaultCommissionRate: getEnv("WALLET_DEFAULT_COMMISSION_RATE", "10.00"),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getIntEnv("SMTP_PORT", 587),
			Username:   getEnv("SMTP_USERNAME", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			From:       getEnv("SMTP_FROM", ""),
			UseTLS:     getBoolEnv("SMTP_USE_TLS", false),
			OpsAddress: getEnv("SMTP_OPS_ADDRESS", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func normalizeRedisURL(url string) string {
	// Strip redis:// or redis+tls:// scheme if present
	if strings.HasPrefix(url, "redis+tls://") {
		return url[len("redis+tls://"):]
	}
	if strings.HasPrefix(url, "redis://") {
		return url[len("redis://"):]
	}
	return url
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return defaultValue
}
