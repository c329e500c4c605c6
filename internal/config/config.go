// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"math/bits"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Well-known mints used as defaults.
const (
	WrappedSOLMint = "So11111111111111111111111111111111111111112"
	USDCMint       = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	USDTMint       = "Es9vMFrzaCERmJfrF4H2FYD5KsAbeiFRE6gn8gtPtWT7"
)

// Config holds the operator settings of the arbitrage daemon.
type Config struct {
	PrivateKey     string `mapstructure:"private_key"`
	RPCURL         string `mapstructure:"rpc_url"`
	MinOutRequired uint64 `mapstructure:"upper_amount"`

	QuoteBaseURL string   `mapstructure:"quote_base_url"`
	BaseMint     string   `mapstructure:"base_mint"`
	TargetMints  []string `mapstructure:"target_mints"`
	AmountIn     uint64   `mapstructure:"amount_in"`
	SlippageBps  int      `mapstructure:"slippage_bps"`
	GasEstimate  uint64   `mapstructure:"gas_estimate"`
	SafetyMargin uint64   `mapstructure:"safety_margin"`

	PairDelay        time.Duration `mapstructure:"-"`
	PairDelayMS      int           `mapstructure:"pair_delay_ms"`
	CycleDelay       time.Duration `mapstructure:"-"`
	CycleDelayMS     int           `mapstructure:"cycle_delay_ms"`
	SettleDelay      time.Duration `mapstructure:"-"`
	SettleDelayMS    int           `mapstructure:"settle_delay_ms"`
	ConfirmTimeout   time.Duration `mapstructure:"-"`
	ConfirmTimeoutMS int           `mapstructure:"confirm_timeout_ms"`

	Relay            string `mapstructure:"relay"`
	JitoRegion       string `mapstructure:"jito_region"`
	ComputeUnitPrice uint64 `mapstructure:"compute_unit_price"`
	ComputeUnitLimit uint32 `mapstructure:"compute_unit_limit"`
	VenueProbe       bool   `mapstructure:"venue_probe"`

	MetricsAddr  string `mapstructure:"metrics_addr"`
	DebugLogging bool   `mapstructure:"debug_logging"`
	LogFile      string `mapstructure:"log_file"`
}

// Defaults mirror the rate-limit friendly pacing of the public quote API.
const (
	DefaultQuoteBaseURL     = "https://quote-api.jup.ag/v6"
	DefaultAmountIn         = 5_000_000
	DefaultSlippageBps      = 50
	DefaultGasEstimate      = 15_000
	DefaultSafetyMargin     = 75_000
	DefaultPairDelayMS      = 3_000
	DefaultCycleDelayMS     = 15_000
	DefaultSettleDelayMS    = 1_500
	DefaultConfirmTimeoutMS = 20_000
	DefaultRelay            = "solayer"
	DefaultJitoRegion       = "mainnet"
	DefaultLogFile          = "logs/arb-bot.log"
)

var (
	ErrMissingPrivateKey = errors.New("PRIVATE_KEY is not set")
	ErrMissingRPCURL     = errors.New("MAINNET_RPC is not set")
)

// envBindings maps config keys to the environment names operators already use.
var envBindings = map[string][]string{
	"private_key":  {"PRIVATE_KEY", "ARB_PRIVATE_KEY"},
	"rpc_url":      {"MAINNET_RPC", "ARB_RPC_URL"},
	"upper_amount": {"UPPER_AMOUNT_WITH_DECIMAL", "ARB_UPPER_AMOUNT"},
}

// Load reads an optional .env file and an optional config file, then applies
// environment overrides. configPath may be empty.
func Load(configPath string) (*Config, error) {
	// .env is optional; a missing file is not an error.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()

	defaults := map[string]interface{}{
		"upper_amount":       0,
		"quote_base_url":     DefaultQuoteBaseURL,
		"base_mint":          WrappedSOLMint,
		"target_mints":       []string{USDCMint, USDTMint},
		"amount_in":          DefaultAmountIn,
		"slippage_bps":       DefaultSlippageBps,
		"gas_estimate":       DefaultGasEstimate,
		"safety_margin":      DefaultSafetyMargin,
		"pair_delay_ms":      DefaultPairDelayMS,
		"cycle_delay_ms":     DefaultCycleDelayMS,
		"settle_delay_ms":    DefaultSettleDelayMS,
		"confirm_timeout_ms": DefaultConfirmTimeoutMS,
		"relay":              DefaultRelay,
		"jito_region":        DefaultJitoRegion,
		"compute_unit_price": 0,
		"compute_unit_limit": 0,
		"venue_probe":        false,
		"metrics_addr":       "",
		"debug_logging":      false,
		"log_file":           DefaultLogFile,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config error: %w", err)
		}
	}

	if err := bindEnvironment(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal error: %w", err)
	}

	// target_mints from env arrive as one comma separated string
	if raw := v.GetString("target_mints"); raw != "" && strings.Contains(raw, ",") {
		cfg.TargetMints = splitList(raw)
	}

	cfg.PairDelay = time.Duration(cfg.PairDelayMS) * time.Millisecond
	cfg.CycleDelay = time.Duration(cfg.CycleDelayMS) * time.Millisecond
	cfg.SettleDelay = time.Duration(cfg.SettleDelayMS) * time.Millisecond
	cfg.ConfirmTimeout = time.Duration(cfg.ConfirmTimeoutMS) * time.Millisecond

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func bindEnvironment(v *viper.Viper) error {
	for key, names := range envBindings {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	v.SetEnvPrefix("ARB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return nil
}

// validate checks required fields and numeric ranges.
func (c *Config) validate() error {
	if c.PrivateKey == "" {
		return ErrMissingPrivateKey
	}
	if c.RPCURL == "" {
		return ErrMissingRPCURL
	}
	if err := validateURL(c.RPCURL, "http"); err != nil {
		return fmt.Errorf("invalid MAINNET_RPC: %w", err)
	}
	if err := validateURL(c.QuoteBaseURL, "http"); err != nil {
		return fmt.Errorf("invalid quote_base_url: %w", err)
	}
	if c.BaseMint == "" {
		return errors.New("base_mint is required")
	}
	if len(c.TargetMints) == 0 {
		return errors.New("target_mints must contain at least one mint")
	}
	if c.AmountIn == 0 {
		return errors.New("amount_in must be positive")
	}
	if !fitsUint64(c.AmountIn, c.MinOutRequired, c.GasEstimate, c.SafetyMargin) {
		return errors.New("amount_in + upper_amount + gas_estimate + safety_margin overflows uint64")
	}
	if c.SlippageBps < 0 || c.SlippageBps > 10_000 {
		return fmt.Errorf("slippage_bps out of range: %d", c.SlippageBps)
	}
	if c.PairDelayMS < 0 || c.CycleDelayMS < 0 || c.SettleDelayMS < 0 {
		return errors.New("delays must not be negative")
	}
	if c.ConfirmTimeoutMS <= 0 {
		return errors.New("confirm_timeout_ms must be positive")
	}
	switch c.Relay {
	case "solayer", "jito", "rpc":
	default:
		return fmt.Errorf("unknown relay %q", c.Relay)
	}
	return nil
}

func fitsUint64(values ...uint64) bool {
	var sum uint64
	for _, v := range values {
		var carry uint64
		if sum, carry = bits.Add64(sum, v, 0); carry != 0 {
			return false
		}
	}
	return true
}

func validateURL(rawURL string, protocol string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) || parsed.Host == "" {
		return errors.New("invalid URL protocol")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if clean := strings.TrimSpace(item); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

// MaskedRPCURL hides the query string (API keys) of the RPC endpoint for logging.
func (c *Config) MaskedRPCURL() string {
	parsed, err := url.Parse(c.RPCURL)
	if err != nil || parsed.RawQuery == "" {
		return c.RPCURL
	}
	parsed.RawQuery = "***"
	return parsed.String()
}
