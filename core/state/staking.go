package state

import (
	"fmt"

	"qststaking/native/staking"
)

type storedStakingPool struct {
	Authority               [20]byte
	Mint                    [20]byte
	TotalStaked             uint64
	TotalEnrolledStake      uint64
	FirstStakeTimestamp     uint64
	StakeWindowEnd          uint64
	BonusEnrollmentDeadline uint64
	LatestBonusUnlockTime   uint64
	PenaltyVault            uint64
	TotalBonusWeight        uint64
	BonusPoolSnapshot       uint64
	BonusSnapshotTaken      bool
	WindowStarted           bool
}

func newStoredStakingPool(p *staking.Pool) *storedStakingPool {
	return &storedStakingPool{
		Authority:               p.Authority,
		Mint:                    p.Mint,
		TotalStaked:             p.TotalStaked,
		TotalEnrolledStake:      p.TotalEnrolledStake,
		FirstStakeTimestamp:     toUnsigned(p.FirstStakeTimestamp),
		StakeWindowEnd:          toUnsigned(p.StakeWindowEnd),
		BonusEnrollmentDeadline: toUnsigned(p.BonusEnrollmentDeadline),
		LatestBonusUnlockTime:   toUnsigned(p.LatestBonusUnlockTime),
		PenaltyVault:            p.PenaltyVault,
		TotalBonusWeight:        p.TotalBonusWeight,
		BonusPoolSnapshot:       p.BonusPoolSnapshot,
		BonusSnapshotTaken:      p.BonusSnapshotTaken,
		WindowStarted:           p.WindowStarted,
	}
}

func (s *storedStakingPool) toPool() *staking.Pool {
	return &staking.Pool{
		Authority:               s.Authority,
		Mint:                    s.Mint,
		TotalStaked:             s.TotalStaked,
		TotalEnrolledStake:      s.TotalEnrolledStake,
		FirstStakeTimestamp:     int64(s.FirstStakeTimestamp),
		StakeWindowEnd:          int64(s.StakeWindowEnd),
		BonusEnrollmentDeadline: int64(s.BonusEnrollmentDeadline),
		LatestBonusUnlockTime:   int64(s.LatestBonusUnlockTime),
		PenaltyVault:            s.PenaltyVault,
		TotalBonusWeight:        s.TotalBonusWeight,
		BonusPoolSnapshot:       s.BonusPoolSnapshot,
		BonusSnapshotTaken:      s.BonusSnapshotTaken,
		WindowStarted:           s.WindowStarted,
	}
}

type storedStakeAccount struct {
	Owner               [20]byte
	Amount              uint64
	CumulativeStaked    uint64
	NodeKeysEarned      uint32
	EnrolledInBonus     bool
	PrincipalUnlockTime uint64
	BonusUnlockTime     uint64
	BonusWeight         uint64
	BonusClaimed        bool
}

func newStoredStakeAccount(a *staking.Account) *storedStakeAccount {
	return &storedStakeAccount{
		Owner:               a.Owner,
		Amount:              a.Amount,
		CumulativeStaked:    a.CumulativeStaked,
		NodeKeysEarned:      a.NodeKeysEarned,
		EnrolledInBonus:     a.EnrolledInBonus,
		PrincipalUnlockTime: toUnsigned(a.PrincipalUnlockTime),
		BonusUnlockTime:     toUnsigned(a.BonusUnlockTime),
		BonusWeight:         a.BonusWeight,
		BonusClaimed:        a.BonusClaimed,
	}
}

func (s *storedStakeAccount) toAccount() *staking.Account {
	return &staking.Account{
		Owner:               s.Owner,
		Amount:              s.Amount,
		CumulativeStaked:    s.CumulativeStaked,
		NodeKeysEarned:      s.NodeKeysEarned,
		EnrolledInBonus:     s.EnrolledInBonus,
		PrincipalUnlockTime: int64(s.PrincipalUnlockTime),
		BonusUnlockTime:     int64(s.BonusUnlockTime),
		BonusWeight:         s.BonusWeight,
		BonusClaimed:        s.BonusClaimed,
	}
}

// Timestamps are unix seconds and never negative once set.
func toUnsigned(v int64) uint64 {
	if v < 0 {
		return 0
	}
	return uint64(v)
}

// StakingPoolGet loads the pool singleton.
func (m *Manager) StakingPoolGet() (*staking.Pool, bool, error) {
	stored := new(storedStakingPool)
	ok, err := m.KVGet(stakingPoolKey(staking.PoolAddress()), stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return stored.toPool(), true, nil
}

// StakingPoolPut persists the pool singleton.
func (m *Manager) StakingPoolPut(pool *staking.Pool) error {
	if pool == nil {
		return fmt.Errorf("staking: nil pool")
	}
	return m.KVPut(stakingPoolKey(staking.PoolAddress()), newStoredStakingPool(pool))
}

// StakeAccountGet loads the stake account owned by owner. Records live under
// the owner's derived stake-account address.
func (m *Manager) StakeAccountGet(owner [20]byte) (*staking.Account, bool, error) {
	stored := new(storedStakeAccount)
	ok, err := m.KVGet(stakingAccountKey(staking.StakeAccountAddress(owner)), stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return stored.toAccount(), true, nil
}

// StakeAccountPut persists a stake account.
func (m *Manager) StakeAccountPut(account *staking.Account) error {
	if account == nil {
		return fmt.Errorf("staking: nil account")
	}
	return m.KVPut(stakingAccountKey(staking.StakeAccountAddress(account.Owner)), newStoredStakeAccount(account))
}
