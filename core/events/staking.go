package events

import (
	"strconv"

	"qststaking/core/types"
)

const (
	// TypeStakingInitialized is emitted once when the staking pool is created.
	TypeStakingInitialized = "staking.initialized"
	// TypeStakeWindowStarted is emitted when the stake window opens, either by
	// the authority or by the first deposit.
	TypeStakeWindowStarted = "staking.windowStarted"
	// TypeStaked captures a successful deposit.
	TypeStaked = "staking.staked"
	// TypeBonusEnrolled captures a one-way bonus enrollment.
	TypeBonusEnrolled = "staking.bonusEnrolled"
	// TypeUnstaked captures a partial withdrawal by a non-enrolled account.
	TypeUnstaked = "staking.unstaked"
	// TypeWithdrawn captures a full principal withdrawal.
	TypeWithdrawn = "staking.withdrawn"
	// TypeBonusWithdrawn captures a pro-rata bonus payout.
	TypeBonusWithdrawn = "staking.bonusWithdrawn"
	// TypeDustCollected captures the sweep of unclaimed penalties.
	TypeDustCollected = "staking.dustCollected"
)

// StakingInitialized describes the pool created by initialize.
type StakingInitialized struct {
	Pool      [20]byte
	Authority [20]byte
	Mint      [20]byte
}

// EventType satisfies the Event interface.
func (StakingInitialized) EventType() string { return TypeStakingInitialized }

// Event converts the structured payload into a broadcastable event.
func (e StakingInitialized) Event() *types.Event {
	return &types.Event{
		Type: TypeStakingInitialized,
		Attributes: map[string]string{
			"pool":      formatAddress(e.Pool),
			"authority": formatAddress(e.Authority),
			"mint":      formatAddress(e.Mint),
		},
	}
}

// StakeWindowStarted describes the window fields set when the window opens.
type StakeWindowStarted struct {
	StartTime          int64
	WindowEnd          int64
	EnrollmentDeadline int64
	AutoStarted        bool
}

// EventType satisfies the Event interface.
func (StakeWindowStarted) EventType() string { return TypeStakeWindowStarted }

// Event converts the structured payload into a broadcastable event.
func (e StakeWindowStarted) Event() *types.Event {
	return &types.Event{
		Type: TypeStakeWindowStarted,
		Attributes: map[string]string{
			"startTime":          intToString(e.StartTime),
			"windowEnd":          intToString(e.WindowEnd),
			"enrollmentDeadline": intToString(e.EnrollmentDeadline),
			"autoStarted":        strconv.FormatBool(e.AutoStarted),
		},
	}
}

// Staked captures the account and pool totals after a deposit.
type Staked struct {
	Owner               [20]byte
	Amount              uint64
	AccountAmount       uint64
	TotalStaked         uint64
	NodeKeysEarned      uint32
	PrincipalUnlockTime int64
	BonusUnlockTime     int64
	EnrolledInBonus     bool
	Timestamp           int64
}

// EventType satisfies the Event interface.
func (Staked) EventType() string { return TypeStaked }

// Event converts the structured payload into a broadcastable event.
func (e Staked) Event() *types.Event {
	attrs := map[string]string{
		"owner":               formatAddress(e.Owner),
		"amount":              formatUint(e.Amount),
		"accountAmount":       formatUint(e.AccountAmount),
		"totalStaked":         formatUint(e.TotalStaked),
		"nodeKeysEarned":      formatUint(uint64(e.NodeKeysEarned)),
		"principalUnlockTime": intToString(e.PrincipalUnlockTime),
		"enrolledInBonus":     strconv.FormatBool(e.EnrolledInBonus),
		"timestamp":           intToString(e.Timestamp),
	}
	if e.BonusUnlockTime > 0 {
		attrs["bonusUnlockTime"] = intToString(e.BonusUnlockTime)
	}
	return &types.Event{Type: TypeStaked, Attributes: attrs}
}

// BonusEnrolled captures the stake committed to the bonus program.
type BonusEnrolled struct {
	Owner           [20]byte
	EnrolledStake   uint64
	BonusUnlockTime int64
	Timestamp       int64
}

// EventType satisfies the Event interface.
func (BonusEnrolled) EventType() string { return TypeBonusEnrolled }

// Event converts the structured payload into a broadcastable event.
func (e BonusEnrolled) Event() *types.Event {
	return &types.Event{
		Type: TypeBonusEnrolled,
		Attributes: map[string]string{
			"owner":           formatAddress(e.Owner),
			"amount":          formatUint(e.EnrolledStake),
			"bonusUnlockTime": intToString(e.BonusUnlockTime),
			"timestamp":       intToString(e.Timestamp),
		},
	}
}

// Unstaked captures a partial withdrawal and any early-exit penalty.
type Unstaked struct {
	Owner        [20]byte
	Amount       uint64
	Remaining    uint64
	Penalty      uint64
	NetToUser    uint64
	PenaltyVault uint64
	Timestamp    int64
}

// EventType satisfies the Event interface.
func (Unstaked) EventType() string { return TypeUnstaked }

// Event converts the structured payload into a broadcastable event.
func (e Unstaked) Event() *types.Event {
	attrs := map[string]string{
		"owner":     formatAddress(e.Owner),
		"amount":    formatUint(e.Amount),
		"remaining": formatUint(e.Remaining),
		"netToUser": formatUint(e.NetToUser),
		"timestamp": intToString(e.Timestamp),
	}
	if e.Penalty > 0 {
		attrs["penalty"] = formatUint(e.Penalty)
		attrs["penaltyVault"] = formatUint(e.PenaltyVault)
	}
	return &types.Event{Type: TypeUnstaked, Attributes: attrs}
}

// Withdrawn captures a full principal withdrawal.
type Withdrawn struct {
	Owner            [20]byte
	Principal        uint64
	NodeKeysRetained uint32
	Timestamp        int64
}

// EventType satisfies the Event interface.
func (Withdrawn) EventType() string { return TypeWithdrawn }

// Event converts the structured payload into a broadcastable event.
func (e Withdrawn) Event() *types.Event {
	return &types.Event{
		Type: TypeWithdrawn,
		Attributes: map[string]string{
			"owner":            formatAddress(e.Owner),
			"amount":           formatUint(e.Principal),
			"nodeKeysRetained": formatUint(uint64(e.NodeKeysRetained)),
			"timestamp":        intToString(e.Timestamp),
		},
	}
}

// BonusWithdrawn captures a bonus payout.
type BonusWithdrawn struct {
	Owner     [20]byte
	Bonus     uint64
	Timestamp int64
}

// EventType satisfies the Event interface.
func (BonusWithdrawn) EventType() string { return TypeBonusWithdrawn }

// Event converts the structured payload into a broadcastable event.
func (e BonusWithdrawn) Event() *types.Event {
	return &types.Event{
		Type: TypeBonusWithdrawn,
		Attributes: map[string]string{
			"owner":     formatAddress(e.Owner),
			"amount":    formatUint(e.Bonus),
			"timestamp": intToString(e.Timestamp),
		},
	}
}

// DustCollected captures the sweep of the remaining penalty vault.
type DustCollected struct {
	Recipient [20]byte
	Amount    uint64
	Timestamp int64
}

// EventType satisfies the Event interface.
func (DustCollected) EventType() string { return TypeDustCollected }

// Event converts the structured payload into a broadcastable event.
func (e DustCollected) Event() *types.Event {
	return &types.Event{
		Type: TypeDustCollected,
		Attributes: map[string]string{
			"owner":     formatAddress(e.Recipient),
			"amount":    formatUint(e.Amount),
			"timestamp": intToString(e.Timestamp),
		},
	}
}
