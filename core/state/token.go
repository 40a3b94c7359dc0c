package state

import (
	"fmt"

	"qststaking/native/token"
)

type storedMint struct {
	Address   [20]byte
	Symbol    string
	Decimals  uint8
	Authority [20]byte
	Supply    uint64
}

// MintGet loads the metadata of a registered mint.
func (m *Manager) MintGet(addr [20]byte) (*token.Mint, bool, error) {
	stored := new(storedMint)
	ok, err := m.KVGet(mintKey(addr), stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &token.Mint{
		Address:   stored.Address,
		Symbol:    stored.Symbol,
		Decimals:  stored.Decimals,
		Authority: stored.Authority,
		Supply:    stored.Supply,
	}, true, nil
}

// MintPut persists mint metadata.
func (m *Manager) MintPut(mint *token.Mint) error {
	if mint == nil {
		return fmt.Errorf("token: nil mint")
	}
	return m.KVPut(mintKey(mint.Address), &storedMint{
		Address:   mint.Address,
		Symbol:    mint.Symbol,
		Decimals:  mint.Decimals,
		Authority: mint.Authority,
		Supply:    mint.Supply,
	})
}

// TokenBalance returns owner's balance of mint. Missing accounts hold zero.
func (m *Manager) TokenBalance(mint, owner [20]byte) (uint64, error) {
	var balance uint64
	if _, err := m.KVGet(balanceKey(mint, owner), &balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// SetTokenBalance overwrites owner's balance of mint.
func (m *Manager) SetTokenBalance(mint, owner [20]byte, amount uint64) error {
	return m.KVPut(balanceKey(mint, owner), amount)
}

// CallNonce returns the last nonce accepted from addr.
func (m *Manager) CallNonce(addr [20]byte) (uint64, error) {
	var nonce uint64
	if _, err := m.KVGet(callNonceKey(addr), &nonce); err != nil {
		return 0, err
	}
	return nonce, nil
}

// SetCallNonce records the last nonce accepted from addr.
func (m *Manager) SetCallNonce(addr [20]byte, nonce uint64) error {
	return m.KVPut(callNonceKey(addr), nonce)
}
