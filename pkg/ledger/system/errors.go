package system

import "github.com/pkg/errors"

var (
	// ErrAccountAlreadyInUse indicates the address targeted by CreateAccount
	// already holds funds or data.
	ErrAccountAlreadyInUse = errors.New("account already in use")

	// ErrInsufficientFunds indicates the funding account cannot cover the
	// requested lamport transfer.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNotRentExempt indicates the requested funding is below the storage
	// exemption minimum for the requested account size.
	ErrNotRentExempt = errors.New("insufficient funds for rent exemption")
)
