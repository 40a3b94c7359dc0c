package staking

// Pool is the singleton aggregate state of a staking deployment.
type Pool struct {
	Authority [20]byte
	Mint      [20]byte

	TotalStaked        uint64
	TotalEnrolledStake uint64

	WindowStarted           bool
	FirstStakeTimestamp     int64
	StakeWindowEnd          int64
	BonusEnrollmentDeadline int64
	LatestBonusUnlockTime   int64

	// PenaltyVault holds early-exit penalties retained in escrow for the
	// bonus program.
	PenaltyVault       uint64
	TotalBonusWeight   uint64
	BonusPoolSnapshot  uint64
	BonusSnapshotTaken bool
}

// WindowOpened reports whether the stake window has been started.
func (p *Pool) WindowOpened() bool {
	return p != nil && p.WindowStarted
}

// Clone returns a copy of the pool.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// Account is the per-participant stake record. It is created on the first
// deposit and never deleted.
type Account struct {
	Owner            [20]byte
	Amount           uint64
	CumulativeStaked uint64
	NodeKeysEarned   uint32
	EnrolledInBonus  bool

	PrincipalUnlockTime int64
	BonusUnlockTime     int64

	BonusWeight  uint64
	BonusClaimed bool
}

// Clone returns a copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

// UnlockTime returns the timestamp after which the whole principal may leave
// the pool: the principal unlock, or the later bonus unlock once enrolled.
func (a *Account) UnlockTime() int64 {
	if a == nil {
		return 0
	}
	if a.EnrolledInBonus && a.BonusUnlockTime > a.PrincipalUnlockTime {
		return a.BonusUnlockTime
	}
	return a.PrincipalUnlockTime
}

// StakeInfo is the read-only snapshot returned by get_stake_info.
type StakeInfo struct {
	Owner               [20]byte
	Amount              uint64
	NodeKeysEarned      uint32
	EnrolledInBonus     bool
	PrincipalUnlockTime int64
	BonusUnlockTime     int64
	UnlockTime          int64
	IsUnlocked          bool
	TimeUntilUnlock     int64
	PotentialBonus      uint64
}

// UnstakeResult describes the outcome of a partial withdrawal.
type UnstakeResult struct {
	Amount    uint64
	Penalty   uint64
	NetToUser uint64
	Remaining uint64
}
