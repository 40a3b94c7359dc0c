package staking

import "testing"

func TestBuiltInProfilesValidate(t *testing.T) {
	for _, name := range []string{"devnet", "mainnet"} {
		params, err := ProfileParams(name)
		if err != nil {
			t.Fatalf("profile %s: %v", name, err)
		}
		if err := params.Validate(); err != nil {
			t.Fatalf("profile %s invalid: %v", name, err)
		}
		if params.BonusExtension <= 0 {
			t.Fatalf("profile %s: bonus extension must be positive", name)
		}
	}
	if _, err := ProfileParams("testnet"); err == nil {
		t.Fatalf("expected unknown profile error")
	}
}

func TestParamsValidateRejectsInconsistentValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"zero min", func(p *Params) { p.MinStake = 0 }},
		{"max below min", func(p *Params) { p.MaxStake = p.MinStake - 1 }},
		{"zero tier", func(p *Params) { p.TierUnit = 0 }},
		{"unknown window mode", func(p *Params) { p.WindowMode = "sometimes" }},
		{"zero lock", func(p *Params) { p.LockDuration = 0 }},
		{"zero bonus extension", func(p *Params) { p.BonusExtension = 0 }},
		{"zero enrollment", func(p *Params) { p.EnrollmentPeriod = 0 }},
		{"negative claim", func(p *Params) { p.ClaimPeriod = -1 }},
		{"unsorted tiers", func(p *Params) {
			p.EarlyExit = []PenaltyTier{{Within: 30, RateBps: 100}, {Within: 10, RateBps: 200}}
		}},
		{"rate above 100%", func(p *Params) { p.EarlyExit = []PenaltyTier{{Within: 10, RateBps: 10_001}} }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			params := DevnetParams()
			tc.mutate(&params)
			if err := params.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestMathHelpers(t *testing.T) {
	if _, err := checkedAdd(^uint64(0), 1); err != ErrNumericOverflow {
		t.Fatalf("expected overflow, got %v", err)
	}
	if _, err := checkedSub(1, 2); err != ErrNumericOverflow {
		t.Fatalf("expected underflow, got %v", err)
	}
	got, err := mulDiv(^uint64(0), ^uint64(0), ^uint64(0))
	if err != nil || got != ^uint64(0) {
		t.Fatalf("mulDiv wide product: got %d err %v", got, err)
	}
	if _, err := mulDiv(^uint64(0), 2, 1); err != ErrNumericOverflow {
		t.Fatalf("expected overflow, got %v", err)
	}
	if keys, _ := nodeKeys(6_999_999, 1_000_000); keys != 6 {
		t.Fatalf("expected 6 keys, got %d", keys)
	}
}

func TestDerivedAddressesAreDistinct(t *testing.T) {
	seen := map[[20]byte]string{
		PoolAddress():              "pool",
		EscrowAddress():            "escrow",
		StakeAccountAddress(alice): "alice",
		StakeAccountAddress(bob):   "bob",
	}
	if len(seen) != 4 {
		t.Fatalf("derived addresses collide: %v", seen)
	}
}
