package minter

import (
	"github.com/pkg/errors"

	"github.com/minterlabs/minter/pkg/ledger"
)

// ErrNotEnoughAccounts indicates fewer accounts were supplied than the
// decoded instruction requires.
var ErrNotEnoughAccounts = errors.New("not enough accounts")

// CreateMintAccounts is the ordered account set for CreateMint. The caller
// must supply the accounts in exactly this order.
type CreateMintAccounts struct {
	// The mint to create. Must sign account creation.
	Mint *ledger.AccountInfo
	// The authority recorded on the new mint.
	MintAuthority *ledger.AccountInfo
	// Funds account creation. Must sign.
	Payer *ledger.AccountInfo
	// Rent sysvar.
	Rent *ledger.AccountInfo
	// System allocator program.
	SystemProgram *ledger.AccountInfo
	// Token program that will own the mint.
	TokenProgram *ledger.AccountInfo
}

func getCreateMintAccounts(accounts []*ledger.AccountInfo) (*CreateMintAccounts, error) {
	if len(accounts) < 6 {
		return nil, errors.Wrapf(ErrNotEnoughAccounts, "got %d, need 6", len(accounts))
	}

	return &CreateMintAccounts{
		Mint:          accounts[0],
		MintAuthority: accounts[1],
		Payer:         accounts[2],
		Rent:          accounts[3],
		SystemProgram: accounts[4],
		TokenProgram:  accounts[5],
	}, nil
}

// MintToAccounts is the ordered account set for MintTo.
type MintToAccounts struct {
	// The mint whose supply increases.
	Mint *ledger.AccountInfo
	// The payer's associated token account, created lazily when its
	// lamport balance is zero.
	Destination *ledger.AccountInfo
	// Rent sysvar.
	Rent *ledger.AccountInfo
	// Funds destination creation and acts as the mint authority. Must sign.
	Payer *ledger.AccountInfo
	// System allocator program.
	SystemProgram *ledger.AccountInfo
	// Token program.
	TokenProgram *ledger.AccountInfo
	// Associated token account program.
	AssociatedTokenProgram *ledger.AccountInfo
}

func getMintToAccounts(accounts []*ledger.AccountInfo) (*MintToAccounts, error) {
	if len(accounts) < 7 {
		return nil, errors.Wrapf(ErrNotEnoughAccounts, "got %d, need 7", len(accounts))
	}

	return &MintToAccounts{
		Mint:                   accounts[0],
		Destination:            accounts[1],
		Rent:                   accounts[2],
		Payer:                  accounts[3],
		SystemProgram:          accounts[4],
		TokenProgram:           accounts[5],
		AssociatedTokenProgram: accounts[6],
	}, nil
}
