package ledger

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
)

// AccountInfo is the view of a ledger-resident account handed to a program
// for the duration of one invocation. The lamport balance is shared by
// pointer so that delegated calls observe each other's balance changes
// within the same invocation.
type AccountInfo struct {
	Address  ed25519.PublicKey
	Lamports *uint64
	Data     []byte
	Owner    ed25519.PublicKey

	IsSigner   bool
	IsWritable bool
}

// NewAccountInfo creates an AccountInfo with the given starting balance and
// no data. Ownership defaults to the system allocator (the zero key).
func NewAccountInfo(address ed25519.PublicKey, lamports uint64, isSigner, isWritable bool) *AccountInfo {
	owner := make(ed25519.PublicKey, ed25519.PublicKeySize)
	return &AccountInfo{
		Address:    address,
		Lamports:   &lamports,
		Owner:      owner,
		IsSigner:   isSigner,
		IsWritable: isWritable,
	}
}

func (a *AccountInfo) String() string {
	return base58.Encode(a.Address)
}

// FindAccount returns the supplied account whose address matches the given
// key, or nil if the invocation was not handed that account.
func FindAccount(accounts []*AccountInfo, key ed25519.PublicKey) *AccountInfo {
	for _, a := range accounts {
		if bytes.Equal(a.Address, key) {
			return a
		}
	}

	return nil
}
