package core

import (
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"qststaking/crypto"
	"qststaking/native/staking"
)

// Method identifies the staking operation a call invokes.
type Method uint8

const (
	MethodInitialize Method = iota + 1
	MethodStartStakeWindow
	MethodStake
	MethodEnrollInBonus
	MethodUnstake
	MethodWithdrawAll
	MethodWithdrawBonus
	MethodCollectDust
)

var methodNames = map[Method]string{
	MethodInitialize:       "initialize",
	MethodStartStakeWindow: "start_stake_window",
	MethodStake:            "stake_tokens",
	MethodEnrollInBonus:    "enroll_in_bonus",
	MethodUnstake:          "unstake_tokens",
	MethodWithdrawAll:      "withdraw_all",
	MethodWithdrawBonus:    "withdraw_bonus",
	MethodCollectDust:      "collect_dust",
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("method(%d)", uint8(m))
}

// callDomain separates staking call digests from any other signed payload.
const callDomain = "qst-staking/call/v1"

// Call is a signed staking invocation. Amount is read by stake and unstake;
// Admin and Mint by initialize.
type Call struct {
	Method    Method
	Caller    [20]byte
	Nonce     uint64
	Amount    uint64
	Admin     [20]byte
	Mint      [20]byte
	Signature []byte
}

type callPayload struct {
	Domain string
	Method uint8
	Caller [20]byte
	Nonce  uint64
	Amount uint64
	Admin  [20]byte
	Mint   [20]byte
}

// Digest returns the Keccak256 hash of the call's canonical RLP encoding.
// The signature is not part of the digest.
func (c *Call) Digest() ([]byte, error) {
	encoded, err := rlp.EncodeToBytes(&callPayload{
		Domain: callDomain,
		Method: uint8(c.Method),
		Caller: c.Caller,
		Nonce:  c.Nonce,
		Amount: c.Amount,
		Admin:  c.Admin,
		Mint:   c.Mint,
	})
	if err != nil {
		return nil, fmt.Errorf("core: encode call: %w", err)
	}
	return ethcrypto.Keccak256(encoded), nil
}

// Sign sets Caller to the key's address and signs the call.
func (c *Call) Sign(key *crypto.PrivateKey) error {
	c.Caller = key.PubKey().Address().Raw()
	digest, err := c.Digest()
	if err != nil {
		return err
	}
	sig, err := key.Sign(digest)
	if err != nil {
		return fmt.Errorf("core: sign call: %w", err)
	}
	c.Signature = sig
	return nil
}

// Receipt reports the outcome of a committed call.
type Receipt struct {
	Method  Method
	Caller  [20]byte
	Nonce   uint64
	Pool    *staking.Pool
	Account *staking.Account
	Unstake *staking.UnstakeResult
	// Amount is the principal, bonus or dust paid out by withdraw_all,
	// withdraw_bonus and collect_dust.
	Amount uint64
	Events []EventView
}

// EventView is the broadcast form of an event committed with the call.
type EventView struct {
	Type       string
	Attributes map[string]string
}
