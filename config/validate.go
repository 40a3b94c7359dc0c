package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate rejects configurations the node cannot run with.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil configuration")
	}
	if strings.TrimSpace(cfg.Service) == "" {
		return fmt.Errorf("config: service name required")
	}
	params, err := cfg.StakingParams()
	if err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return err
	}
	for _, tier := range cfg.Staking.EarlyExit {
		if tier.Within.Duration%time.Second != 0 {
			return fmt.Errorf("staking: early exit window %s must be whole seconds", tier.Within)
		}
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Level)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging: unknown level %q", cfg.Logging.Level)
	}
	if r := cfg.Telemetry.SampleRatio; r < 0 || r > 1 {
		return fmt.Errorf("telemetry: sample_ratio %v outside [0,1]", r)
	}
	return nil
}
