package ledger

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrAccountNotFound indicates an instruction referenced an account
	// that was not supplied to the invocation.
	ErrAccountNotFound = errors.New("account not found in invocation context")

	// ErrMissingSigner indicates an instruction required a signature that
	// neither the caller's context nor program-derived authority provides.
	ErrMissingSigner = errors.New("missing required signature")

	// ErrAccountNotWritable indicates an instruction attempted to mutate an
	// account referenced without the writable privilege.
	ErrAccountNotWritable = errors.New("account is not writable")
)

// CustomError is the numerical error returned by a non-system program.
type CustomError int

func (c CustomError) Error() string {
	return fmt.Sprintf("custom program error: %x", int(c))
}
