package token

import (
	"fmt"
	"math"
	"strings"
)

// ledgerState describes the persistence the ledger needs from the surrounding
// state implementation.
type ledgerState interface {
	MintGet(addr [20]byte) (*Mint, bool, error)
	MintPut(mint *Mint) error
	TokenBalance(mint, owner [20]byte) (uint64, error)
	SetTokenBalance(mint, owner [20]byte, amount uint64) error
}

// Ledger moves fungible balances between token accounts. All writes go through
// the supplied state, so callers that stage state changes get transfers that
// commit or roll back together with their own updates.
type Ledger struct {
	state ledgerState
}

// NewLedger creates a ledger over the provided state.
func NewLedger(state ledgerState) *Ledger {
	return &Ledger{state: state}
}

// RegisterMint stores the metadata for a new mint.
func (l *Ledger) RegisterMint(mint *Mint) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	if mint == nil || mint.Address == ([20]byte{}) {
		return ErrInvalidMint
	}
	symbol := strings.ToUpper(strings.TrimSpace(mint.Symbol))
	if symbol == "" {
		return fmt.Errorf("%w: symbol required", ErrInvalidMint)
	}
	if _, ok, err := l.state.MintGet(mint.Address); err != nil {
		return err
	} else if ok {
		return ErrMintExists
	}
	stored := mint.Clone()
	stored.Symbol = symbol
	stored.Supply = 0
	return l.state.MintPut(stored)
}

// Mint returns the metadata for the supplied mint address.
func (l *Ledger) Mint(addr [20]byte) (*Mint, error) {
	if l == nil || l.state == nil {
		return nil, ErrNilState
	}
	mint, ok, err := l.state.MintGet(addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrMintNotFound
	}
	return mint, nil
}

// MintTo issues new supply to the recipient. Only the mint authority may
// issue.
func (l *Ledger) MintTo(caller, mintAddr, to [20]byte, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	mint, err := l.Mint(mintAddr)
	if err != nil {
		return err
	}
	if mint.Authority != caller {
		return ErrUnauthorized
	}
	if mint.Supply > math.MaxUint64-amount {
		return ErrSupplyOverflow
	}
	balance, err := l.state.TokenBalance(mintAddr, to)
	if err != nil {
		return err
	}
	if balance > math.MaxUint64-amount {
		return ErrSupplyOverflow
	}
	mint.Supply += amount
	if err := l.state.MintPut(mint); err != nil {
		return err
	}
	return l.state.SetTokenBalance(mintAddr, to, balance+amount)
}

// Balance returns the balance held by owner for the given mint.
func (l *Ledger) Balance(mintAddr, owner [20]byte) (uint64, error) {
	if l == nil || l.state == nil {
		return 0, ErrNilState
	}
	return l.state.TokenBalance(mintAddr, owner)
}

// Transfer moves amount from one token account to another. The debit and the
// credit are both validated before either is written.
func (l *Ledger) Transfer(mintAddr, from, to [20]byte, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	if _, err := l.Mint(mintAddr); err != nil {
		return err
	}
	fromBal, err := l.state.TokenBalance(mintAddr, from)
	if err != nil {
		return err
	}
	if fromBal < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, fromBal, amount)
	}
	if from == to {
		return nil
	}
	toBal, err := l.state.TokenBalance(mintAddr, to)
	if err != nil {
		return err
	}
	if toBal > math.MaxUint64-amount {
		return ErrSupplyOverflow
	}
	if err := l.state.SetTokenBalance(mintAddr, from, fromBal-amount); err != nil {
		return err
	}
	return l.state.SetTokenBalance(mintAddr, to, toBal+amount)
}
