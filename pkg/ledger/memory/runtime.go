// Package memory implements an in-process hosting runtime for the system
// allocator, ledger engine, and associated account programs. It executes
// delegated calls against the caller-supplied accounts and is primarily
// used to run program invocations end to end in tests.
package memory

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/minterlabs/minter/pkg/ledger"
	"github.com/minterlabs/minter/pkg/ledger/system"
	"github.com/minterlabs/minter/pkg/ledger/token"
)

var ErrUnknownProgram = errors.New("unknown program")

type resolvedAccount struct {
	meta ledger.AccountMeta
	info *ledger.AccountInfo
}

// Runtime executes delegated calls synchronously against in-memory account
// state. It implements ledger.Invoker on behalf of a single program, whose
// identity is used to verify program-derived signing authority.
type Runtime struct {
	programID ed25519.PublicKey
	rent      ledger.Rent
	log       *logrus.Entry
}

func NewRuntime(programID ed25519.PublicKey) *Runtime {
	return &Runtime{
		programID: programID,
		rent:      ledger.DefaultRent(),
		log:       logrus.StandardLogger().WithField("type", "ledger/memory/runtime"),
	}
}

// Invoke executes the instruction using only the signers already present in
// the caller's context.
func (r *Runtime) Invoke(in ledger.Instruction, accounts []*ledger.AccountInfo) error {
	return r.invoke(in, accounts, nil)
}

// InvokeSigned executes the instruction, additionally treating the address
// derived from the calling program and the given seeds as a signer.
func (r *Runtime) InvokeSigned(in ledger.Instruction, accounts []*ledger.AccountInfo, seeds ...[]byte) error {
	var derived ed25519.PublicKey
	if len(seeds) > 0 {
		var err error
		derived, err = ledger.CreateProgramAddress(r.programID, seeds...)
		if err != nil {
			return errors.Wrap(err, "failed to derive signing address")
		}
	}

	return r.invoke(in, accounts, derived)
}

func (r *Runtime) invoke(in ledger.Instruction, accounts []*ledger.AccountInfo, derivedSigner ed25519.PublicKey) error {
	resolved := make([]resolvedAccount, len(in.Accounts))
	for i, meta := range in.Accounts {
		info := ledger.FindAccount(accounts, meta.PublicKey)
		if info == nil {
			return errors.Wrapf(ledger.ErrAccountNotFound, "account %d", i)
		}

		// A callee signer privilege must be backed by a caller signer or
		// by the calling program's derived authority.
		if meta.IsSigner && !info.IsSigner && !bytes.Equal(meta.PublicKey, derivedSigner) {
			return errors.Wrapf(ledger.ErrMissingSigner, "account %d", i)
		}

		resolved[i] = resolvedAccount{meta: meta, info: info}
	}

	switch {
	case bytes.Equal(in.Program, system.ProgramKey[:]):
		return r.executeSystem(in.Data, resolved)
	case bytes.Equal(in.Program, token.ProgramKey):
		return r.executeToken(in.Data, resolved)
	case bytes.Equal(in.Program, token.AssociatedTokenAccountProgramKey):
		return r.executeCreateAssociatedAccount(in.Data, resolved)
	default:
		return ErrUnknownProgram
	}
}

// Atomic runs fn and, if it fails, restores every supplied account to its
// state from before the call. This is the runtime's all-or-nothing
// execution guarantee: a failed invocation leaves no partial mutation.
func (r *Runtime) Atomic(accounts []*ledger.AccountInfo, fn func() error) error {
	type snapshot struct {
		lamports uint64
		data     []byte
		owner    ed25519.PublicKey
	}

	snapshots := make([]snapshot, len(accounts))
	for i, a := range accounts {
		snapshots[i] = snapshot{
			lamports: *a.Lamports,
			data:     bytes.Clone(a.Data),
			owner:    bytes.Clone(a.Owner),
		}
	}

	err := fn()
	if err == nil {
		return nil
	}

	for i, a := range accounts {
		*a.Lamports = snapshots[i].lamports
		a.Data = snapshots[i].data
		a.Owner = snapshots[i].owner
	}

	return err
}

func (r *Runtime) executeSystem(data []byte, accounts []resolvedAccount) error {
	if len(data) < 4 {
		return errors.New("system instruction missing command")
	}

	switch binary.LittleEndian.Uint32(data) {
	case 0: // CreateAccount
		return r.executeCreateAccount(data, accounts)
	default:
		return errors.New("unsupported system instruction")
	}
}

func (r *Runtime) executeCreateAccount(data []byte, accounts []resolvedAccount) error {
	if len(data) != 4+2*8+ed25519.PublicKeySize {
		return errors.New("invalid create account data")
	}
	if len(accounts) < 2 {
		return errors.New("create account requires 2 accounts")
	}

	lamports := binary.LittleEndian.Uint64(data[4:])
	size := binary.LittleEndian.Uint64(data[4+8:])
	owner := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(owner, data[4+2*8:])

	funder := accounts[0]
	created := accounts[1]
	if !funder.meta.IsWritable {
		return errors.Wrap(ledger.ErrAccountNotWritable, "funding account")
	}
	if !created.meta.IsWritable {
		return errors.Wrap(ledger.ErrAccountNotWritable, "new account")
	}

	if *created.info.Lamports > 0 || len(created.info.Data) > 0 {
		return system.ErrAccountAlreadyInUse
	}
	if lamports < r.rent.MinimumBalance(size) {
		return errors.Wrapf(system.ErrNotRentExempt, "need %d lamports", r.rent.MinimumBalance(size))
	}
	if *funder.info.Lamports < lamports {
		return errors.Wrapf(system.ErrInsufficientFunds, "need %d lamports, have %d", lamports, *funder.info.Lamports)
	}

	*funder.info.Lamports -= lamports
	*created.info.Lamports += lamports
	created.info.Data = make([]byte, size)
	created.info.Owner = owner

	r.log.WithFields(logrus.Fields{
		"address":  created.info.String(),
		"lamports": lamports,
		"size":     size,
	}).Trace("created account")

	return nil
}

func (r *Runtime) executeToken(data []byte, accounts []resolvedAccount) error {
	if len(data) == 0 {
		return token.ErrorInvalidInstruction
	}

	switch token.Command(data[0]) {
	case token.CommandInitializeMint:
		return r.executeInitializeMint(data, accounts)
	case token.CommandInitializeAccount:
		return r.executeInitializeAccount(accounts)
	case token.CommandMintTo:
		return r.executeMintTo(data, accounts)
	default:
		return token.ErrorInvalidInstruction
	}
}

func (r *Runtime) executeInitializeMint(data []byte, accounts []resolvedAccount) error {
	decompiled, err := token.DecompileInitializeMint(ledger.NewInstruction(token.ProgramKey, data, metasOf(accounts)...))
	if err != nil {
		return err
	}

	mintAccount := accounts[0]
	if !mintAccount.meta.IsWritable {
		return errors.Wrap(ledger.ErrAccountNotWritable, "mint account")
	}
	if len(mintAccount.info.Data) != token.MintSize {
		return token.ErrorInvalidMint
	}

	var mint token.Mint
	if mint.Unmarshal(mintAccount.info.Data) && mint.IsInitialized {
		return token.ErrorAlreadyInUse
	}

	mint = token.Mint{
		MintAuthority:   decompiled.MintAuthority,
		Decimals:        decompiled.Decimals,
		IsInitialized:   true,
		FreezeAuthority: decompiled.FreezeAuthority,
	}
	copy(mintAccount.info.Data, mint.Marshal())

	return nil
}

func (r *Runtime) executeInitializeAccount(accounts []resolvedAccount) error {
	if len(accounts) < 4 {
		return errors.New("initialize account requires 4 accounts")
	}

	tokenAccount := accounts[0]
	mintAccount := accounts[1]
	owner := accounts[2]

	if !tokenAccount.meta.IsWritable {
		return errors.Wrap(ledger.ErrAccountNotWritable, "token account")
	}
	if len(tokenAccount.info.Data) != token.AccountSize {
		return token.ErrorUninitializedState
	}

	var existing token.Account
	if existing.Unmarshal(tokenAccount.info.Data) && existing.State != token.AccountStateUninitialized {
		return token.ErrorAlreadyInUse
	}

	var mint token.Mint
	if !mint.Unmarshal(mintAccount.info.Data) || !mint.IsInitialized {
		return token.ErrorInvalidMint
	}

	account := token.Account{
		Mint:  mintAccount.info.Address,
		Owner: owner.info.Address,
		State: token.AccountStateInitialized,
	}
	copy(tokenAccount.info.Data, account.Marshal())

	return nil
}

func (r *Runtime) executeMintTo(data []byte, accounts []resolvedAccount) error {
	decompiled, err := token.DecompileMintTo(ledger.NewInstruction(token.ProgramKey, data, metasOf(accounts)...))
	if err != nil {
		return err
	}

	mintAccount := accounts[0]
	destAccount := accounts[1]
	authority := accounts[2]

	if !mintAccount.meta.IsWritable {
		return errors.Wrap(ledger.ErrAccountNotWritable, "mint account")
	}
	if !destAccount.meta.IsWritable {
		return errors.Wrap(ledger.ErrAccountNotWritable, "destination account")
	}

	var mint token.Mint
	if !mint.Unmarshal(mintAccount.info.Data) || !mint.IsInitialized {
		return token.ErrorInvalidMint
	}

	var dest token.Account
	if !dest.Unmarshal(destAccount.info.Data) || dest.State == token.AccountStateUninitialized {
		return token.ErrorUninitializedState
	}
	if !bytes.Equal(dest.Mint, mintAccount.info.Address) {
		return token.ErrorMintMismatch
	}

	if len(mint.MintAuthority) == 0 {
		return token.ErrorFixedSupply
	}
	if !bytes.Equal(mint.MintAuthority, authority.info.Address) {
		return token.ErrorOwnerMismatch
	}

	if mint.Supply > ^uint64(0)-decompiled.Amount {
		return token.ErrorOverflow
	}
	if dest.Amount > ^uint64(0)-decompiled.Amount {
		return token.ErrorOverflow
	}

	mint.Supply += decompiled.Amount
	dest.Amount += decompiled.Amount

	copy(mintAccount.info.Data, mint.Marshal())
	copy(destAccount.info.Data, dest.Marshal())

	return nil
}

func (r *Runtime) executeCreateAssociatedAccount(data []byte, accounts []resolvedAccount) error {
	decompiled, err := token.DecompileCreateAssociatedAccount(ledger.NewInstruction(token.AssociatedTokenAccountProgramKey, data, metasOf(accounts)...))
	if err != nil {
		return err
	}

	expected, err := token.GetAssociatedAccount(decompiled.Owner, decompiled.Mint)
	if err != nil {
		return errors.Wrap(err, "failed to derive associated account")
	}
	if !bytes.Equal(expected, decompiled.Address) {
		return errors.New("associated account address mismatch")
	}

	// Fund and allocate the account at the derived address, then hand it to
	// the token program for initialization.
	createAccount := system.CreateAccount(
		decompiled.Subsidizer,
		decompiled.Address,
		token.ProgramKey,
		r.rent.MinimumBalance(token.AccountSize),
		token.AccountSize,
	)
	createAccounts := []resolvedAccount{
		accounts[0],
		{meta: ledger.NewAccountMeta(decompiled.Address, false), info: accounts[1].info},
	}
	if err := r.executeCreateAccount(createAccount.Data, createAccounts); err != nil {
		return err
	}

	initializeAccounts := []resolvedAccount{
		{meta: ledger.NewAccountMeta(decompiled.Address, false), info: accounts[1].info},
		{meta: ledger.NewReadonlyAccountMeta(decompiled.Mint, false), info: accounts[3].info},
		{meta: ledger.NewReadonlyAccountMeta(decompiled.Owner, false), info: accounts[2].info},
		accounts[6],
	}
	return r.executeInitializeAccount(initializeAccounts)
}

func metasOf(accounts []resolvedAccount) []ledger.AccountMeta {
	metas := make([]ledger.AccountMeta, len(accounts))
	for i, a := range accounts {
		metas[i] = a.meta
	}
	return metas
}
