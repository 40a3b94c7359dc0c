package token

import "errors"

var (
	ErrNilState            = errors.New("token: state not configured")
	ErrMintExists          = errors.New("token: mint already registered")
	ErrMintNotFound        = errors.New("token: mint not found")
	ErrInvalidMint         = errors.New("token: invalid mint")
	ErrUnauthorized        = errors.New("token: unauthorized")
	ErrInvalidAmount       = errors.New("token: amount must be positive")
	ErrInsufficientBalance = errors.New("token: insufficient balance")
	ErrSupplyOverflow      = errors.New("token: supply overflow")
)
