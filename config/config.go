package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// ChainConfig describes one settlement network: its RPC endpoint and the
// CCTP contract addresses deployed on it.
type ChainConfig struct {
	RPCUrl             string  `mapstructure:"rpc_url"`
	ChainID            int64   `mapstructure:"chain_id"`
	Domain             uint32  `mapstructure:"domain"`
	USDC               string  `mapstructure:"usdc"`
	TokenMessenger     string  `mapstructure:"token_messenger"`
	MessageTransmitter string  `mapstructure:"message_transmitter"`
	PrivateKey         string  `mapstructure:"private_key"`
	GasLimit           *uint64 `mapstructure:"gas_limit"`
	GasPrice           *int64  `mapstructure:"gas_price"`
}

// Config holds the application configuration
type Config struct {
	AttestationBaseURL string
	RelayerBaseURL     string
	BackendBaseURL     string
	ApproveMultiplier  int64
	PollInterval       time.Duration
	PollMaxWait        time.Duration
	ConfirmTimeout     time.Duration
	DefaultSourceChain string
	DefaultDestChain   string
	Chains             map[string]ChainConfig
}

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName(".split-pay")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	// Set default values
	viper.SetDefault("attestation_base_url", "https://iris-api-sandbox.circle.com")
	viper.SetDefault("relayer_base_url", "http://localhost:3000")
	viper.SetDefault("backend_base_url", "")
	viper.SetDefault("approve_multiplier", 2)
	viper.SetDefault("poll_interval_seconds", 5)
	viper.SetDefault("poll_max_wait_seconds", 0)
	viper.SetDefault("confirm_timeout_seconds", 0)
	viper.SetDefault("default_source_chain", "sepolia")
	viper.SetDefault("default_dest_chain", "fuji")

	// Read from environment variables
	viper.SetEnvPrefix("SPLIT_PAY")
	viper.AutomaticEnv()

	// Read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		AttestationBaseURL: viper.GetString("attestation_base_url"),
		RelayerBaseURL:     viper.GetString("relayer_base_url"),
		BackendBaseURL:     viper.GetString("backend_base_url"),
		ApproveMultiplier:  viper.GetInt64("approve_multiplier"),
		PollInterval:       time.Duration(viper.GetInt64("poll_interval_seconds")) * time.Second,
		PollMaxWait:        time.Duration(viper.GetInt64("poll_max_wait_seconds")) * time.Second,
		ConfirmTimeout:     time.Duration(viper.GetInt64("confirm_timeout_seconds")) * time.Second,
		DefaultSourceChain: viper.GetString("default_source_chain"),
		DefaultDestChain:   viper.GetString("default_dest_chain"),
		Chains:             defaultChains(),
	}

	// Chains from the config file override the built-in registry; fields left
	// empty keep the built-in value.
	configured := map[string]ChainConfig{}
	if err := viper.UnmarshalKey("chains", &configured); err != nil {
		return nil, fmt.Errorf("invalid chains configuration: %w", err)
	}
	for name, chain := range configured {
		cfg.Chains[name] = mergeChain(cfg.Chains[name], chain)
	}

	// Per-chain private keys may also come from the environment, e.g.
	// SPLIT_PAY_SEPOLIA_PRIVATE_KEY
	for name, chain := range cfg.Chains {
		if key := viper.GetString(name + "_private_key"); key != "" {
			chain.PrivateKey = key
			cfg.Chains[name] = chain
		}
	}

	globalConfig = cfg
	return cfg, nil
}

// Chain looks up a configured network by name
func (c *Config) Chain(name string) (ChainConfig, error) {
	chain, exists := c.Chains[name]
	if !exists {
		return ChainConfig{}, fmt.Errorf("chain %q is not configured", name)
	}
	return chain, nil
}

// defaultChains is the built-in registry for the two supported testnets
func defaultChains() map[string]ChainConfig {
	return map[string]ChainConfig{
		"sepolia": {
			RPCUrl:             "https://ethereum-sepolia-rpc.publicnode.com",
			ChainID:            11155111,
			Domain:             0,
			USDC:               "0x1c7d4b196cb0c7b01d743fbc6116a902379c7238",
			TokenMessenger:     "0x8fe6b999dc680ccfdd5bf7eb0974218be2542daa",
			MessageTransmitter: "0xe737e5cebeeba77efe34d4aa090756590b1ce275",
		},
		"fuji": {
			RPCUrl:             "https://api.avax-test.network/ext/bc/C/rpc",
			ChainID:            43113,
			Domain:             1,
			USDC:               "0x5425890298aed601595a70ab815c96711a31bc65",
			TokenMessenger:     "0x8fe6b999dc680ccfdd5bf7eb0974218be2542daa",
			MessageTransmitter: "0xe737e5cebeeba77efe34d4aa090756590b1ce275",
		},
	}
}

func mergeChain(base, override ChainConfig) ChainConfig {
	if override.RPCUrl != "" {
		base.RPCUrl = override.RPCUrl
	}
	if override.ChainID != 0 {
		base.ChainID = override.ChainID
	}
	if override.Domain != 0 {
		base.Domain = override.Domain
	}
	if override.USDC != "" {
		base.USDC = override.USDC
	}
	if override.TokenMessenger != "" {
		base.TokenMessenger = override.TokenMessenger
	}
	if override.MessageTransmitter != "" {
		base.MessageTransmitter = override.MessageTransmitter
	}
	if override.PrivateKey != "" {
		base.PrivateKey = override.PrivateKey
	}
	if override.GasLimit != nil {
		base.GasLimit = override.GasLimit
	}
	if override.GasPrice != nil {
		base.GasPrice = override.GasPrice
	}
	return base
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}
