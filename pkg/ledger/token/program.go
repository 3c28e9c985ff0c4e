package token

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/minterlabs/minter/pkg/ledger"
	"github.com/minterlabs/minter/pkg/ledger/system"
)

// ProgramKey is the address of the ledger-engine program that owns all mint
// and token accounts.
//
// Current key: TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA
var ProgramKey ed25519.PublicKey

func init() {
	var err error
	ProgramKey, err = base58.Decode("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	if err != nil {
		panic(err)
	}
}

type Command byte

const (
	CommandInitializeMint Command = iota
	CommandInitializeAccount
	// nolint:varcheck,deadcode,unused
	CommandInitializeMultisig
	// nolint:varcheck,deadcode,unused
	CommandTransfer
	// nolint:varcheck,deadcode,unused
	CommandApprove
	// nolint:varcheck,deadcode,unused
	CommandRevoke
	// nolint:varcheck,deadcode,unused
	CommandSetAuthority
	CommandMintTo
	// nolint:varcheck,deadcode,unused
	CommandBurn
	// nolint:varcheck,deadcode,unused
	CommandCloseAccount
)

const initializeMintDataSize = 1 + 1 + ed25519.PublicKeySize + 1 + ed25519.PublicKeySize

// InitializeMint returns an instruction that initializes a newly allocated
// mint account with the given decimals and mint authority. A nil freeze
// authority leaves the mint unfreezable.
func InitializeMint(mint, mintAuthority, freezeAuthority ed25519.PublicKey, decimals byte) ledger.Instruction {
	// Accounts expected by this instruction:
	//
	//   0. `[writable]` The mint to initialize.
	//   1. `[]` Rent sysvar
	data := make([]byte, 2, initializeMintDataSize)
	data[0] = byte(CommandInitializeMint)
	data[1] = decimals
	data = append(data, mintAuthority...)
	if len(freezeAuthority) > 0 {
		data = append(data, 1)
		data = append(data, freezeAuthority...)
	} else {
		data = append(data, 0)
	}

	return ledger.NewInstruction(
		ProgramKey,
		data,
		ledger.NewAccountMeta(mint, false),
		ledger.NewReadonlyAccountMeta(system.RentSysVar, false),
	)
}

type DecompiledInitializeMint struct {
	Mint            ed25519.PublicKey
	MintAuthority   ed25519.PublicKey
	FreezeAuthority ed25519.PublicKey
	Decimals        byte
}

func DecompileInitializeMint(in ledger.Instruction) (*DecompiledInitializeMint, error) {
	if !bytes.Equal(in.Program, ProgramKey) {
		return nil, ledger.ErrIncorrectProgram
	}
	if !bytes.HasPrefix(in.Data, []byte{byte(CommandInitializeMint)}) {
		return nil, ledger.ErrIncorrectInstruction
	}
	if len(in.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(in.Accounts))
	}
	if len(in.Data) < 2+ed25519.PublicKeySize+1 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(in.Data))
	}
	if !bytes.Equal(system.RentSysVar, in.Accounts[1].PublicKey) {
		return nil, errors.Errorf("invalid rent program")
	}

	v := &DecompiledInitializeMint{
		Mint:     in.Accounts[0].PublicKey,
		Decimals: in.Data[1],
	}
	v.MintAuthority = make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(v.MintAuthority, in.Data[2:])

	if in.Data[2+ed25519.PublicKeySize] == 1 {
		if len(in.Data) != initializeMintDataSize {
			return nil, errors.Errorf("invalid instruction data size: %d", len(in.Data))
		}
		v.FreezeAuthority = make(ed25519.PublicKey, ed25519.PublicKeySize)
		copy(v.FreezeAuthority, in.Data[2+ed25519.PublicKeySize+1:])
	}

	return v, nil
}

// InitializeAccount returns an instruction that initializes a newly
// allocated token account holding a zero balance of the given mint.
func InitializeAccount(account, mint, owner ed25519.PublicKey) ledger.Instruction {
	// Accounts expected by this instruction:
	//
	//   0. `[writable]` The account to initialize.
	//   1. `[]` The mint this account will be associated with.
	//   2. `[]` The new account's owner.
	//   3. `[]` Rent sysvar
	return ledger.NewInstruction(
		ProgramKey,
		[]byte{byte(CommandInitializeAccount)},
		ledger.NewAccountMeta(account, false),
		ledger.NewReadonlyAccountMeta(mint, false),
		ledger.NewReadonlyAccountMeta(owner, false),
		ledger.NewReadonlyAccountMeta(system.RentSysVar, false),
	)
}

// MintTo returns an instruction that mints new tokens to an account,
// increasing the mint's total supply. The authority must match the mint's
// recorded mint authority and must sign.
func MintTo(mint, dest, authority ed25519.PublicKey, amount uint64) ledger.Instruction {
	// Accounts expected by this instruction:
	//
	//   0. `[writable]` The mint.
	//   1. `[writable]` The account to mint tokens to.
	//   2. `[signer]` The mint's minting authority.
	data := make([]byte, 1+8)
	data[0] = byte(CommandMintTo)
	binary.LittleEndian.PutUint64(data[1:], amount)

	return ledger.NewInstruction(
		ProgramKey,
		data,
		ledger.NewAccountMeta(mint, false),
		ledger.NewAccountMeta(dest, false),
		ledger.NewReadonlyAccountMeta(authority, true),
	)
}

type DecompiledMintTo struct {
	Mint        ed25519.PublicKey
	Destination ed25519.PublicKey
	Authority   ed25519.PublicKey
	Amount      uint64
}

func DecompileMintTo(in ledger.Instruction) (*DecompiledMintTo, error) {
	if !bytes.Equal(in.Program, ProgramKey) {
		return nil, ledger.ErrIncorrectProgram
	}
	if !bytes.HasPrefix(in.Data, []byte{byte(CommandMintTo)}) {
		return nil, ledger.ErrIncorrectInstruction
	}
	if len(in.Accounts) != 3 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(in.Accounts))
	}
	if len(in.Data) != 9 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(in.Data))
	}

	return &DecompiledMintTo{
		Mint:        in.Accounts[0].PublicKey,
		Destination: in.Accounts[1].PublicKey,
		Authority:   in.Accounts[2].PublicKey,
		Amount:      binary.LittleEndian.Uint64(in.Data[1:]),
	}, nil
}
