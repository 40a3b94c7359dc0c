package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"qststaking/crypto"
	"qststaking/native/staking"
)

// Config is the runtime configuration of a staking node.
type Config struct {
	Service     string          `toml:"Service" yaml:"service"`
	Environment string          `toml:"Environment" yaml:"environment"`
	DataDir     string          `toml:"DataDir" yaml:"data_dir"`
	Staking     StakingConfig   `toml:"Staking" yaml:"staking"`
	Logging     LoggingConfig   `toml:"Logging" yaml:"logging"`
	Telemetry   TelemetryConfig `toml:"Telemetry" yaml:"telemetry"`
	Indexer     IndexerConfig   `toml:"Indexer" yaml:"indexer"`
}

// StakingConfig selects a built-in profile and overrides individual fields.
// Zero values keep the profile's setting.
type StakingConfig struct {
	Profile    string `toml:"Profile" yaml:"profile"`
	WindowMode string `toml:"WindowMode" yaml:"window_mode"`

	MinStake uint64 `toml:"MinStake" yaml:"min_stake"`
	MaxStake uint64 `toml:"MaxStake" yaml:"max_stake"`
	TierUnit uint64 `toml:"TierUnit" yaml:"tier_unit"`

	WindowDuration       Duration `toml:"WindowDuration" yaml:"window_duration"`
	LockDuration         Duration `toml:"LockDuration" yaml:"lock_duration"`
	BonusExtension       Duration `toml:"BonusExtension" yaml:"bonus_extension"`
	EnrollmentPeriod     Duration `toml:"EnrollmentPeriod" yaml:"enrollment_period"`
	BonusWithdrawalDelay Duration `toml:"BonusWithdrawalDelay" yaml:"bonus_withdrawal_delay"`
	ClaimPeriod          Duration `toml:"ClaimPeriod" yaml:"claim_period"`

	EarlyExit []PenaltyTierConfig `toml:"EarlyExit" yaml:"early_exit"`

	DeployAuthority      string `toml:"DeployAuthority" yaml:"deploy_authority"`
	DustRecipient        string `toml:"DustRecipient" yaml:"dust_recipient"`
	RequiredMintDecimals uint8  `toml:"RequiredMintDecimals" yaml:"required_mint_decimals"`
}

// PenaltyTierConfig is one early-exit tier.
type PenaltyTierConfig struct {
	Within  Duration `toml:"Within" yaml:"within"`
	RateBps uint64   `toml:"RateBps" yaml:"rate_bps"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	Level      string `toml:"Level" yaml:"level"`
	File       string `toml:"File" yaml:"file"`
	MaxSizeMB  int    `toml:"MaxSizeMB" yaml:"max_size_mb"`
	MaxBackups int    `toml:"MaxBackups" yaml:"max_backups"`
	MaxAgeDays int    `toml:"MaxAgeDays" yaml:"max_age_days"`
}

// TelemetryConfig controls OTLP export.
type TelemetryConfig struct {
	Endpoint    string  `toml:"Endpoint" yaml:"endpoint"`
	Insecure    bool    `toml:"Insecure" yaml:"insecure"`
	Headers     string  `toml:"Headers" yaml:"headers"`
	Traces      bool    `toml:"Traces" yaml:"traces"`
	Metrics     bool    `toml:"Metrics" yaml:"metrics"`
	SampleRatio float64 `toml:"SampleRatio" yaml:"sample_ratio"`
}

// IndexerConfig enables the event history store when DSN is set. DSNs
// starting with postgres:// use Postgres, anything else is a SQLite path.
type IndexerConfig struct {
	DSN string `toml:"DSN" yaml:"dsn"`
}

// Default returns the configuration used when a file leaves fields unset.
func Default() *Config {
	return &Config{
		Service: "qst-staking",
		Staking: StakingConfig{Profile: "devnet"},
		Logging: LoggingConfig{Level: "info", MaxSizeMB: 100, MaxBackups: 5, MaxAgeDays: 30},
	}
}

// Load reads a TOML or YAML configuration file, selected by extension, on
// top of Default and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("config %s: unsupported extension %q", path, ext)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// StakingParams resolves the profile and applies every override.
func (c *Config) StakingParams() (staking.Params, error) {
	sc := c.Staking
	profile := strings.TrimSpace(sc.Profile)
	if profile == "" {
		profile = "devnet"
	}
	params, err := staking.ProfileParams(profile)
	if err != nil {
		return staking.Params{}, err
	}
	if mode := strings.TrimSpace(sc.WindowMode); mode != "" {
		params.WindowMode = staking.WindowMode(strings.ToLower(mode))
	}
	overrideUint(&params.MinStake, sc.MinStake)
	overrideUint(&params.MaxStake, sc.MaxStake)
	overrideUint(&params.TierUnit, sc.TierUnit)
	overrideSeconds(&params.WindowDuration, sc.WindowDuration)
	overrideSeconds(&params.LockDuration, sc.LockDuration)
	overrideSeconds(&params.BonusExtension, sc.BonusExtension)
	overrideSeconds(&params.EnrollmentPeriod, sc.EnrollmentPeriod)
	overrideSeconds(&params.BonusWithdrawalDelay, sc.BonusWithdrawalDelay)
	overrideSeconds(&params.ClaimPeriod, sc.ClaimPeriod)
	if len(sc.EarlyExit) > 0 {
		params.EarlyExit = make([]staking.PenaltyTier, 0, len(sc.EarlyExit))
		for _, tier := range sc.EarlyExit {
			params.EarlyExit = append(params.EarlyExit, staking.PenaltyTier{Within: tier.Within.Seconds(), RateBps: tier.RateBps})
		}
	}
	if sc.RequiredMintDecimals != 0 {
		params.RequiredMintDecimals = sc.RequiredMintDecimals
	}
	if raw := strings.TrimSpace(sc.DeployAuthority); raw != "" {
		if params.DeployAuthority, err = crypto.ParseIdentity(raw); err != nil {
			return staking.Params{}, fmt.Errorf("staking: deploy authority: %w", err)
		}
	}
	if raw := strings.TrimSpace(sc.DustRecipient); raw != "" {
		if params.DustRecipient, err = crypto.ParseIdentity(raw); err != nil {
			return staking.Params{}, fmt.Errorf("staking: dust recipient: %w", err)
		}
	}
	return params, nil
}

func overrideUint(dst *uint64, v uint64) {
	if v != 0 {
		*dst = v
	}
}

func overrideSeconds(dst *int64, d Duration) {
	if d.Duration != 0 {
		*dst = d.Seconds()
	}
}
