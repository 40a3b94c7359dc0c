package state

import ethcrypto "github.com/ethereum/go-ethereum/crypto"

var (
	stakingPoolPrefix    = []byte("staking/pool/")
	stakingAccountPrefix = []byte("staking/account/")
	mintPrefix           = []byte("token/mint/")
	balancePrefix        = []byte("token/balance/")
	callNoncePrefix      = []byte("node/nonce/")
)

func prefixedKey(prefix []byte, parts ...[]byte) []byte {
	size := len(prefix)
	for _, part := range parts {
		size += len(part)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, prefix...)
	for _, part := range parts {
		buf = append(buf, part...)
	}
	return ethcrypto.Keccak256(buf)
}

func stakingPoolKey(pool [20]byte) []byte {
	return prefixedKey(stakingPoolPrefix, pool[:])
}

func stakingAccountKey(account [20]byte) []byte {
	return prefixedKey(stakingAccountPrefix, account[:])
}

func mintKey(mint [20]byte) []byte {
	return prefixedKey(mintPrefix, mint[:])
}

func balanceKey(mint, owner [20]byte) []byte {
	return prefixedKey(balancePrefix, mint[:], owner[:])
}

func callNonceKey(addr [20]byte) []byte {
	return prefixedKey(callNoncePrefix, addr[:])
}
