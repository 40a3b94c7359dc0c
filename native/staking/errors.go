package staking

import (
	"errors"

	"qststaking/native/token"
)

// Code names a protocol failure so callers can match on it programmatically.
type Code string

const (
	CodeAlreadyInitialized             Code = "AlreadyInitialized"
	CodeNotInitialized                 Code = "NotInitialized"
	CodeUnauthorized                   Code = "Unauthorized"
	CodeInvalidAuthority               Code = "InvalidAuthority"
	CodeMintNotFound                   Code = "MintNotFound"
	CodeInvalidMintDecimals            Code = "InvalidMintDecimals"
	CodeInvalidAmount                  Code = "InvalidAmount"
	CodeInsufficientStakeAmount        Code = "InsufficientStakeAmount"
	CodeStakeAmountTooLarge            Code = "StakeAmountTooLarge"
	CodeStakeWindowNotStarted          Code = "StakeWindowNotStarted"
	CodeStakeWindowClosed              Code = "StakeWindowClosed"
	CodeStakeAccountNotFound           Code = "StakeAccountNotFound"
	CodeBonusEnrollmentClosed          Code = "BonusEnrollmentClosed"
	CodeNoStakeToEnroll                Code = "NoStakeToEnroll"
	CodeAlreadyEnrolled                Code = "AlreadyEnrolled"
	CodeBonusEnrolledCannotUnstake     Code = "BonusEnrolledCannotUnstake"
	CodeInsufficientStakeBalance       Code = "InsufficientStakeBalance"
	CodeStillLocked                    Code = "StillLocked"
	CodeNoStakeToWithdraw              Code = "NoStakeToWithdraw"
	CodeInsufficientBalance            Code = "InsufficientBalance"
	CodeNumericOverflow                Code = "NumericOverflow"
	CodeBonusWithdrawalNotYetAvailable Code = "BonusWithdrawalNotYetAvailable"
	CodeNotEnrolledInBonus             Code = "NotEnrolledInBonus"
	CodeMustWithdrawPrincipalFirst     Code = "MustWithdrawPrincipalFirst"
	CodeBonusAlreadyClaimed            Code = "BonusAlreadyClaimed"
	CodeBonusClaimPeriodNotExpired     Code = "BonusClaimPeriodNotExpired"
	CodeNoDustToCollect                Code = "NoDustToCollect"
)

// Error is a terminal protocol failure. Every exported sentinel below is an
// *Error so errors.Is matches by identity and CodeOf recovers the name.
type Error struct {
	Code Code
	msg  string
}

func (e *Error) Error() string {
	return "staking: " + e.msg
}

func newError(code Code, msg string) *Error {
	return &Error{Code: code, msg: msg}
}

var (
	ErrAlreadyInitialized             = newError(CodeAlreadyInitialized, "pool already initialized")
	ErrNotInitialized                 = newError(CodeNotInitialized, "pool not initialized")
	ErrUnauthorized                   = newError(CodeUnauthorized, "unauthorized")
	ErrInvalidAuthority               = newError(CodeInvalidAuthority, "authority must not be empty")
	ErrMintNotFound                   = newError(CodeMintNotFound, "mint not found")
	ErrInvalidMintDecimals            = newError(CodeInvalidMintDecimals, "mint decimals do not match deployment")
	ErrInvalidAmount                  = newError(CodeInvalidAmount, "amount must be greater than zero")
	ErrInsufficientStakeAmount        = newError(CodeInsufficientStakeAmount, "stake amount below minimum")
	ErrStakeAmountTooLarge            = newError(CodeStakeAmountTooLarge, "stake amount above maximum")
	ErrStakeWindowNotStarted          = newError(CodeStakeWindowNotStarted, "stake window has not been started")
	ErrStakeWindowClosed              = newError(CodeStakeWindowClosed, "stake window is closed")
	ErrStakeAccountNotFound           = newError(CodeStakeAccountNotFound, "stake account not found")
	ErrBonusEnrollmentClosed          = newError(CodeBonusEnrollmentClosed, "bonus enrollment period has closed")
	ErrNoStakeToEnroll                = newError(CodeNoStakeToEnroll, "no stake to enroll in bonus")
	ErrAlreadyEnrolled                = newError(CodeAlreadyEnrolled, "already enrolled in bonus")
	ErrBonusEnrolledCannotUnstake     = newError(CodeBonusEnrolledCannotUnstake, "cannot unstake while enrolled in bonus")
	ErrInsufficientStakeBalance       = newError(CodeInsufficientStakeBalance, "insufficient stake balance")
	ErrStillLocked                    = newError(CodeStillLocked, "stake is still locked")
	ErrNoStakeToWithdraw              = newError(CodeNoStakeToWithdraw, "no stake to withdraw")
	ErrInsufficientBalance            = newError(CodeInsufficientBalance, "insufficient token balance")
	ErrNumericOverflow                = newError(CodeNumericOverflow, "numeric overflow")
	ErrBonusWithdrawalNotYetAvailable = newError(CodeBonusWithdrawalNotYetAvailable, "bonus withdrawal not yet available")
	ErrNotEnrolledInBonus             = newError(CodeNotEnrolledInBonus, "not enrolled in bonus")
	ErrMustWithdrawPrincipalFirst     = newError(CodeMustWithdrawPrincipalFirst, "principal must be withdrawn before the bonus")
	ErrBonusAlreadyClaimed            = newError(CodeBonusAlreadyClaimed, "bonus already claimed")
	ErrBonusClaimPeriodNotExpired     = newError(CodeBonusClaimPeriodNotExpired, "bonus claim period has not expired")
	ErrNoDustToCollect                = newError(CodeNoDustToCollect, "no dust to collect")
)

var errNilState = errors.New("staking engine: state not configured")

// CodeOf returns the protocol failure named by err, or "" when err is not a
// protocol failure. Insufficient balances reported by the token ledger map to
// CodeInsufficientBalance.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var protoErr *Error
	if errors.As(err, &protoErr) {
		return protoErr.Code
	}
	if errors.Is(err, token.ErrInsufficientBalance) {
		return CodeInsufficientBalance
	}
	return ""
}
