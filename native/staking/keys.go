package staking

import "qststaking/crypto"

var (
	poolSeed         = []byte("staking_pool")
	stakeAccountSeed = []byte("stake_account")
	escrowSeed       = []byte("pool_escrow")
)

// PoolAddress returns the deterministic address of the pool record.
func PoolAddress() [20]byte {
	return crypto.DeriveAddress(poolSeed)
}

// StakeAccountAddress returns the deterministic address of owner's stake
// account, so any caller can locate it without a lookup table.
func StakeAccountAddress(owner [20]byte) [20]byte {
	return crypto.DeriveAddress(stakeAccountSeed, owner[:])
}

// EscrowAddress returns the pool-owned token account that holds staked
// principal and retained penalties.
func EscrowAddress() [20]byte {
	pool := PoolAddress()
	return crypto.DeriveAddress(escrowSeed, pool[:])
}

func formatAddr(addr [20]byte) string {
	return crypto.FromRaw(addr).String()
}
