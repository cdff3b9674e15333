package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	ListenAddr  string `mapstructure:"LISTEN_ADDR"`
	Env         string `mapstructure:"ENV"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	QuoteTTL   time.Duration `mapstructure:"QUOTE_TTL"`
	SessionTTL time.Duration `mapstructure:"SESSION_TTL"`

	FacilitatorURL     string        `mapstructure:"FACILITATOR_URL"`
	FacilitatorTimeout time.Duration `mapstructure:"FACILITATOR_TIMEOUT"`
	MerchantAddress    string        `mapstructure:"MERCHANT_EVM_ADDRESS"`
	Network            string        `mapstructure:"EVM_NETWORK"`

	CommissionBps           int           `mapstructure:"COMMISSION_BPS"`
	CommissionTimeout       time.Duration `mapstructure:"COMMISSION_TIMEOUT"`
	CommissionRetrySchedule string        `mapstructure:"COMMISSION_RETRY_SCHEDULE"`
	CommissionMaxAttempts   int           `mapstructure:"COMMISSION_MAX_ATTEMPTS"`

	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	RedisURL       string        `mapstructure:"REDIS_URL"`
	LockTTL        time.Duration `mapstructure:"LOCK_TTL"`
	RabbitMQURL    string        `mapstructure:"RABBITMQ_URL"`
	EventsExchange string        `mapstructure:"EVENTS_EXCHANGE"`
	FHEServiceURL  string        `mapstructure:"FHE_SERVICE_URL"`

	Ethereum EthereumConfig `mapstructure:",squash"`
}

// EthereumConfig drives the on-chain commission transfer. The leg is
// disabled unless RPC URL, treasury key and commission address are all set.
type EthereumConfig struct {
	RPCURL              string `mapstructure:"EVM_RPC_URL"`
	TreasuryKey         string `mapstructure:"EVM_TREASURY_PRIVATE_KEY"`
	CommissionAddress   string `mapstructure:"COMMISSION_EVM_ADDRESS"`
	USDCContractAddress string `mapstructure:"USDC_CONTRACT_ADDRESS"`
	ChainID             int64  `mapstructure:"EVM_CHAIN_ID"`
}

func (e EthereumConfig) Enabled() bool {
	return e.RPCURL != "" && e.TreasuryKey != "" && e.CommissionAddress != ""
}

var defaults = map[string]interface{}{
	"LISTEN_ADDR":               ":8080",
	"ENV":                       "dev",
	"QUOTE_TTL":                 "5m",
	"SESSION_TTL":               "5m",
	"FACILITATOR_URL":           "https://facilitator.payai.network",
	"FACILITATOR_TIMEOUT":       "30s",
	"EVM_NETWORK":               "base-sepolia",
	"COMMISSION_BPS":            500,
	"COMMISSION_TIMEOUT":        "2m",
	"COMMISSION_RETRY_SCHEDULE": "0 * * * * *",
	"COMMISSION_MAX_ATTEMPTS":   5,
	"LOCK_TTL":                  "3m",
	"EVENTS_EXCHANGE":           "payments",
	"USDC_CONTRACT_ADDRESS":     "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
	"EVM_CHAIN_ID":              84532,
}

var envKeys = []string{
	"DATABASE_URL",
	"MERCHANT_EVM_ADDRESS",
	"JWT_SECRET",
	"REDIS_URL",
	"RABBITMQ_URL",
	"FHE_SERVICE_URL",
	"EVM_RPC_URL",
	"EVM_TREASURY_PRIVATE_KEY",
	"COMMISSION_EVM_ADDRESS",
}

// LoadFromEnv reads configuration from environment variables with fallback defaults.
// It also loads `.env` if present (for local development).
func LoadFromEnv() (*Config, error) {
	// Load .env if exists, ignore error if no file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded, relying on environment variables")
	}

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
		_ = v.BindEnv(key)
	}
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.MerchantAddress == "" {
		errs = append(errs, errors.New("MERCHANT_EVM_ADDRESS is required"))
	} else if !common.IsHexAddress(c.MerchantAddress) {
		errs = append(errs, fmt.Errorf("MERCHANT_EVM_ADDRESS %q is not a hex address", c.MerchantAddress))
	}
	if u, err := url.Parse(c.FacilitatorURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("FACILITATOR_URL %q is not an absolute url", c.FacilitatorURL))
	}
	if c.CommissionBps < 0 || c.CommissionBps > 10000 {
		errs = append(errs, fmt.Errorf("COMMISSION_BPS must be within 0..10000, got %d", c.CommissionBps))
	}
	for name, d := range map[string]time.Duration{
		"QUOTE_TTL":           c.QuoteTTL,
		"SESSION_TTL":         c.SessionTTL,
		"FACILITATOR_TIMEOUT": c.FacilitatorTimeout,
		"COMMISSION_TIMEOUT":  c.CommissionTimeout,
		"LOCK_TTL":            c.LockTTL,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	// a lock must outlive the slowest call made while holding it
	if longest := max(c.FacilitatorTimeout, c.CommissionTimeout); c.LockTTL > 0 && c.LockTTL <= longest {
		errs = append(errs, fmt.Errorf("LOCK_TTL (%s) must exceed FACILITATOR_TIMEOUT and COMMISSION_TIMEOUT (%s)", c.LockTTL, longest))
	}
	if c.Ethereum.CommissionAddress != "" && !common.IsHexAddress(c.Ethereum.CommissionAddress) {
		errs = append(errs, fmt.Errorf("COMMISSION_EVM_ADDRESS %q is not a hex address", c.Ethereum.CommissionAddress))
	}
	return errors.Join(errs...)
}
