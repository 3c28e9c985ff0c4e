package token

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/minterlabs/minter/pkg/ledger"
	"github.com/minterlabs/minter/pkg/ledger/system"
)

// AssociatedTokenAccountProgramKey is the address of the program that
// derives and creates canonical token accounts.
//
// Current key: ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL
var AssociatedTokenAccountProgramKey ed25519.PublicKey

func init() {
	var err error
	AssociatedTokenAccountProgramKey, err = base58.Decode("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	if err != nil {
		panic(err)
	}
}

// GetAssociatedAccount returns the deterministic token account address for
// the (wallet, mint) pair. At most one such account exists per pair.
func GetAssociatedAccount(wallet, mint ed25519.PublicKey) (ed25519.PublicKey, error) {
	return ledger.FindProgramAddress(
		AssociatedTokenAccountProgramKey,
		wallet,
		ProgramKey,
		mint,
	)
}

// CreateAssociatedTokenAccount returns an instruction that creates and
// initializes the associated token account for the (wallet, mint) pair,
// funded by the subsidizer. The derived address is returned alongside.
func CreateAssociatedTokenAccount(subsidizer, wallet, mint ed25519.PublicKey) (ledger.Instruction, ed25519.PublicKey, error) {
	addr, err := GetAssociatedAccount(wallet, mint)
	if err != nil {
		return ledger.Instruction{}, nil, err
	}

	return ledger.NewInstruction(
		AssociatedTokenAccountProgramKey,
		[]byte{},
		ledger.NewAccountMeta(subsidizer, true),
		ledger.NewAccountMeta(addr, false),
		ledger.NewReadonlyAccountMeta(wallet, false),
		ledger.NewReadonlyAccountMeta(mint, false),
		ledger.NewReadonlyAccountMeta(system.ProgramKey[:], false),
		ledger.NewReadonlyAccountMeta(ProgramKey, false),
		ledger.NewReadonlyAccountMeta(system.RentSysVar, false),
	), addr, nil
}

type DecompiledCreateAssociatedAccount struct {
	Subsidizer ed25519.PublicKey
	Address    ed25519.PublicKey
	Owner      ed25519.PublicKey
	Mint       ed25519.PublicKey
}

func DecompileCreateAssociatedAccount(in ledger.Instruction) (*DecompiledCreateAssociatedAccount, error) {
	if !bytes.Equal(in.Program, AssociatedTokenAccountProgramKey) {
		return nil, ledger.ErrIncorrectProgram
	}
	if len(in.Data) != 0 {
		return nil, errors.Errorf("unexpected data")
	}
	if len(in.Accounts) != 7 {
		return nil, errors.Errorf("invalid number of accounts: %d (expected %d)", len(in.Accounts), 7)
	}

	if !bytes.Equal(in.Accounts[4].PublicKey, system.ProgramKey[:]) {
		return nil, errors.Errorf("system program key mismatch")
	}
	if !bytes.Equal(in.Accounts[5].PublicKey, ProgramKey) {
		return nil, errors.Errorf("token program key mismatch")
	}
	if !bytes.Equal(in.Accounts[6].PublicKey, system.RentSysVar) {
		return nil, errors.Errorf("rent sysvar mismatch")
	}

	return &DecompiledCreateAssociatedAccount{
		Subsidizer: in.Accounts[0].PublicKey,
		Address:    in.Accounts[1].PublicKey,
		Owner:      in.Accounts[2].PublicKey,
		Mint:       in.Accounts[3].PublicKey,
	}, nil
}
