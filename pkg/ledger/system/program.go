package system

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/minterlabs/minter/pkg/ledger"
)

// ProgramKey is the address of the system allocator program. All zeros,
// base58 "11111111111111111111111111111111".
var ProgramKey [32]byte

const (
	commandCreateAccount uint32 = iota
	// nolint:varcheck,deadcode,unused
	commandAssign
	commandTransfer
)

const createAccountDataSize = 4 + 2*8 + ed25519.PublicKeySize

// CreateAccount returns an instruction that creates a new account at the
// given address, funded from the funder, sized and owned as requested.
func CreateAccount(funder, address, owner ed25519.PublicKey, lamports, size uint64) ledger.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE, SIGNER] New account
	//
	// CreateAccount {
	//   // Number of lamports to transfer to the new account
	//   lamports: u64,
	//   // Number of bytes of memory to allocate
	//   space: u64,
	//
	//   // Address of program that will own the new account
	//   owner: Pubkey,
	// }
	data := make([]byte, createAccountDataSize)
	binary.LittleEndian.PutUint32(data, commandCreateAccount)
	binary.LittleEndian.PutUint64(data[4:], lamports)
	binary.LittleEndian.PutUint64(data[4+8:], size)
	copy(data[4+2*8:], owner)

	return ledger.NewInstruction(
		ProgramKey[:],
		data,
		ledger.NewAccountMeta(funder, true),
		ledger.NewAccountMeta(address, true),
	)
}

type DecompiledCreateAccount struct {
	Funder  ed25519.PublicKey
	Address ed25519.PublicKey

	Lamports uint64
	Size     uint64
	Owner    ed25519.PublicKey
}

func DecompileCreateAccount(in ledger.Instruction) (*DecompiledCreateAccount, error) {
	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], commandCreateAccount)

	if !bytes.Equal(in.Program, ProgramKey[:]) {
		return nil, ledger.ErrIncorrectProgram
	}
	if !bytes.HasPrefix(in.Data, prefix[:]) {
		return nil, ledger.ErrIncorrectInstruction
	}
	if len(in.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(in.Accounts))
	}
	if len(in.Data) != createAccountDataSize {
		return nil, errors.Errorf("invalid instruction data size: %d", len(in.Data))
	}

	v := &DecompiledCreateAccount{
		Funder:  in.Accounts[0].PublicKey,
		Address: in.Accounts[1].PublicKey,
	}
	v.Lamports = binary.LittleEndian.Uint64(in.Data[4:])
	v.Size = binary.LittleEndian.Uint64(in.Data[4+8:])
	v.Owner = make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(v.Owner, in.Data[4+2*8:])

	return v, nil
}

// Transfer returns an instruction that moves lamports between two system
// owned accounts.
func Transfer(source, dest ed25519.PublicKey, lamports uint64) ledger.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Source account
	//   1. [WRITE] Destination account
	data := make([]byte, 4+8)
	binary.LittleEndian.PutUint32(data, commandTransfer)
	binary.LittleEndian.PutUint64(data[4:], lamports)

	return ledger.NewInstruction(
		ProgramKey[:],
		data,
		ledger.NewAccountMeta(source, true),
		ledger.NewAccountMeta(dest, false),
	)
}
