package staking

import (
	"errors"
	"fmt"
)

// WindowMode selects how the stake window opens.
type WindowMode string

const (
	// WindowExplicit requires the authority to call StartStakeWindow before
	// any deposit is accepted.
	WindowExplicit WindowMode = "explicit"
	// WindowAuto opens the window on the first accepted deposit.
	WindowAuto WindowMode = "auto"
)

// PenaltyTier applies RateBps to an early unstake whose remaining lock time is
// at most Within seconds.
type PenaltyTier struct {
	Within  int64
	RateBps uint64
}

// Params carries the deployment constants of a staking pool. Durations are in
// seconds, amounts in base units of the staked mint.
type Params struct {
	MinStake uint64
	MaxStake uint64
	TierUnit uint64

	WindowMode       WindowMode
	WindowDuration   int64
	LockDuration     int64
	BonusExtension   int64
	EnrollmentPeriod int64

	BonusWithdrawalDelay int64
	ClaimPeriod          int64

	// EarlyExit is sorted by Within. Empty means every early unstake fails
	// with StillLocked.
	EarlyExit []PenaltyTier

	// DeployAuthority, when non-zero, is the only identity allowed to
	// initialize the pool.
	DeployAuthority [20]byte
	// RequiredMintDecimals, when non-zero, must match the staked mint.
	RequiredMintDecimals uint8
	// DustRecipient receives collected dust. Zero means the pool authority.
	DustRecipient [20]byte
}

const (
	minute = int64(60)
	hour   = 60 * minute
	day    = 24 * hour
)

// DevnetParams returns the short-timescale profile used for testing
// deployments: tiny amounts, second-scale locks and an auto-opening window.
func DevnetParams() Params {
	return Params{
		MinStake:             2_000_000,
		MaxStake:             10_000_000_000,
		TierUnit:             1_000_000,
		WindowMode:           WindowAuto,
		WindowDuration:       300,
		LockDuration:         60,
		BonusExtension:       30,
		EnrollmentPeriod:     120,
		BonusWithdrawalDelay: 60,
		ClaimPeriod:          300,
	}
}

// MainnetParams returns the production profile for a 6-decimal mint.
func MainnetParams() Params {
	const unit = uint64(1_000_000)
	return Params{
		MinStake:             200_000 * unit,
		MaxStake:             10_000_000 * unit,
		TierUnit:             100_000 * unit,
		WindowMode:           WindowExplicit,
		WindowDuration:       9 * day,
		LockDuration:         25 * day,
		BonusExtension:       10 * day,
		EnrollmentPeriod:     48 * hour,
		BonusWithdrawalDelay: day,
		ClaimPeriod:          60 * day,
		RequiredMintDecimals: 6,
	}
}

// ProfileParams resolves a profile by name.
func ProfileParams(name string) (Params, error) {
	switch name {
	case "devnet", "a", "A":
		return DevnetParams(), nil
	case "mainnet", "b", "B":
		return MainnetParams(), nil
	default:
		return Params{}, fmt.Errorf("staking: unknown profile %q", name)
	}
}

// Validate reports the first inconsistency in the parameter set.
func (p Params) Validate() error {
	if p.MinStake == 0 {
		return errors.New("staking params: min stake must be positive")
	}
	if p.MaxStake < p.MinStake {
		return fmt.Errorf("staking params: max stake %d below min stake %d", p.MaxStake, p.MinStake)
	}
	if p.TierUnit == 0 {
		return errors.New("staking params: tier unit must be positive")
	}
	switch p.WindowMode {
	case WindowExplicit, WindowAuto:
	default:
		return fmt.Errorf("staking params: unknown window mode %q", p.WindowMode)
	}
	if p.WindowDuration <= 0 {
		return errors.New("staking params: window duration must be positive")
	}
	if p.LockDuration <= 0 {
		return errors.New("staking params: lock duration must be positive")
	}
	if p.BonusExtension <= 0 {
		return errors.New("staking params: bonus extension must be positive")
	}
	if p.EnrollmentPeriod <= 0 {
		return errors.New("staking params: enrollment period must be positive")
	}
	if p.BonusWithdrawalDelay < 0 || p.ClaimPeriod < 0 {
		return errors.New("staking params: bonus delays must not be negative")
	}
	var prev int64
	for i, tier := range p.EarlyExit {
		if tier.Within <= prev {
			return fmt.Errorf("staking params: early exit tier %d must be sorted and positive", i)
		}
		if tier.RateBps > bpsDenominator {
			return fmt.Errorf("staking params: early exit tier %d rate %d exceeds 100%%", i, tier.RateBps)
		}
		prev = tier.Within
	}
	return nil
}

// earlyExitRate returns the penalty rate for an unstake with remaining lock
// time left, and false when no tier covers it.
func (p Params) earlyExitRate(remaining int64) (uint64, bool) {
	for _, tier := range p.EarlyExit {
		if remaining <= tier.Within {
			return tier.RateBps, true
		}
	}
	return 0, false
}
