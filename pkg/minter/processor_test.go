package minter

import (
	"crypto/ed25519"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minterlabs/minter/pkg/ledger"
	"github.com/minterlabs/minter/pkg/ledger/memory"
	"github.com/minterlabs/minter/pkg/ledger/system"
	"github.com/minterlabs/minter/pkg/ledger/token"
)

type testEnv struct {
	runtime   *memory.Runtime
	processor *Processor

	mint      *ledger.AccountInfo
	authority *ledger.AccountInfo
	payer     *ledger.AccountInfo

	rent        *ledger.AccountInfo
	systemProg  *ledger.AccountInfo
	tokenProg   *ledger.AccountInfo
	ataProg     *ledger.AccountInfo
	destination *ledger.AccountInfo
}

func newTestEnv(t *testing.T) *testEnv {
	keys := generateKeys(t, 4)

	env := &testEnv{
		runtime: memory.NewRuntime(keys[0]),

		mint:      ledger.NewAccountInfo(keys[1], 0, true, true),
		authority: ledger.NewAccountInfo(keys[2], 0, false, false),
		payer:     ledger.NewAccountInfo(keys[3], 10_000_000, true, true),

		rent:       ledger.NewAccountInfo(system.RentSysVar, 0, false, false),
		systemProg: ledger.NewAccountInfo(system.ProgramKey[:], 0, false, false),
		tokenProg:  ledger.NewAccountInfo(token.ProgramKey, 0, false, false),
		ataProg:    ledger.NewAccountInfo(token.AssociatedTokenAccountProgramKey, 0, false, false),
	}
	env.processor = NewProcessor(env.runtime)

	destination, err := token.GetAssociatedAccount(env.payer.Address, env.mint.Address)
	require.NoError(t, err)
	env.destination = ledger.NewAccountInfo(destination, 0, false, true)

	return env
}

// createMintAccounts returns the ordered account set for CreateMint.
func (e *testEnv) createMintAccounts() []*ledger.AccountInfo {
	return []*ledger.AccountInfo{e.mint, e.authority, e.payer, e.rent, e.systemProg, e.tokenProg}
}

// mintToAccounts returns the ordered account set for MintTo.
func (e *testEnv) mintToAccounts() []*ledger.AccountInfo {
	return []*ledger.AccountInfo{e.mint, e.destination, e.rent, e.payer, e.systemProg, e.tokenProg, e.ataProg}
}

func (e *testEnv) process(accounts []*ledger.AccountInfo, in Instruction) error {
	return e.runtime.Atomic(accounts, func() error {
		return e.processor.Process(accounts, in.Marshal())
	})
}

func TestProcessor_CreateMint(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.process(env.createMintAccounts(), CreateMint{Decimals: 6}))

	lamports := ledger.DefaultRent().MinimumBalance(token.MintSize)
	assert.EqualValues(t, 10_000_000-lamports, *env.payer.Lamports)
	assert.EqualValues(t, lamports, *env.mint.Lamports)
	assert.EqualValues(t, token.ProgramKey, env.mint.Owner)

	var mint token.Mint
	require.True(t, mint.Unmarshal(env.mint.Data))
	assert.True(t, mint.IsInitialized)
	assert.EqualValues(t, 6, mint.Decimals)
	assert.EqualValues(t, 0, mint.Supply)
	assert.Equal(t, env.authority.Address, mint.MintAuthority)
	assert.Nil(t, mint.FreezeAuthority)
}

func TestProcessor_CreateMint_UnderfundedPayer(t *testing.T) {
	env := newTestEnv(t)
	*env.payer.Lamports = 100

	err := env.process(env.createMintAccounts(), CreateMint{Decimals: 6})
	assert.Equal(t, system.ErrInsufficientFunds, errors.Cause(err))

	// A failed invocation leaves every account untouched.
	assert.EqualValues(t, 100, *env.payer.Lamports)
	assert.EqualValues(t, 0, *env.mint.Lamports)
	assert.Empty(t, env.mint.Data)
}

func TestProcessor_CreateMint_AlreadyExists(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.process(env.createMintAccounts(), CreateMint{Decimals: 6}))

	payerBefore := *env.payer.Lamports
	err := env.process(env.createMintAccounts(), CreateMint{Decimals: 6})
	assert.Equal(t, system.ErrAccountAlreadyInUse, errors.Cause(err))
	assert.EqualValues(t, payerBefore, *env.payer.Lamports)
}

func TestProcessor_MintTo_CreatesDestination(t *testing.T) {
	env := newTestEnv(t)

	// The payer acts as the mint authority for its own mints.
	env.authority = env.payer
	require.NoError(t, env.process(env.createMintAccounts(), CreateMint{Decimals: 2}))

	require.NoError(t, env.process(env.mintToAccounts(), MintTo{Amount: 1_000}))

	// The destination was created at the derived address and funded for
	// rent exemption.
	assert.EqualValues(t, ledger.DefaultRent().MinimumBalance(token.AccountSize), *env.destination.Lamports)
	assert.EqualValues(t, token.ProgramKey, env.destination.Owner)

	var dest token.Account
	require.True(t, dest.Unmarshal(env.destination.Data))
	assert.Equal(t, env.mint.Address, dest.Mint)
	assert.Equal(t, env.payer.Address, dest.Owner)
	assert.EqualValues(t, 1_000, dest.Amount)

	var mint token.Mint
	require.True(t, mint.Unmarshal(env.mint.Data))
	assert.EqualValues(t, 1_000, mint.Supply)
}

func TestProcessor_MintTo_ExistingDestination(t *testing.T) {
	env := newTestEnv(t)

	env.authority = env.payer
	require.NoError(t, env.process(env.createMintAccounts(), CreateMint{Decimals: 2}))

	require.NoError(t, env.process(env.mintToAccounts(), MintTo{Amount: 1_000}))
	payerAfterFirst := *env.payer.Lamports

	// The second mint reuses the destination without funding it again.
	require.NoError(t, env.process(env.mintToAccounts(), MintTo{Amount: 500}))
	assert.EqualValues(t, payerAfterFirst, *env.payer.Lamports)

	var dest token.Account
	require.True(t, dest.Unmarshal(env.destination.Data))
	assert.EqualValues(t, 1_500, dest.Amount)

	var mint token.Mint
	require.True(t, mint.Unmarshal(env.mint.Data))
	assert.EqualValues(t, 1_500, mint.Supply)
}

func TestProcessor_MintTo_Overflow(t *testing.T) {
	env := newTestEnv(t)

	env.authority = env.payer
	require.NoError(t, env.process(env.createMintAccounts(), CreateMint{Decimals: 0}))
	require.NoError(t, env.process(env.mintToAccounts(), MintTo{Amount: 1}))

	err := env.process(env.mintToAccounts(), MintTo{Amount: ^uint64(0)})
	assert.Equal(t, token.ErrorOverflow, errors.Cause(err))

	// Neither the supply nor the balance moved.
	var dest token.Account
	require.True(t, dest.Unmarshal(env.destination.Data))
	assert.EqualValues(t, 1, dest.Amount)

	var mint token.Mint
	require.True(t, mint.Unmarshal(env.mint.Data))
	assert.EqualValues(t, 1, mint.Supply)
}

func TestProcessor_MintTo_AuthorityMismatch(t *testing.T) {
	env := newTestEnv(t)

	// The mint authority is a third party, not the payer.
	require.NoError(t, env.process(env.createMintAccounts(), CreateMint{Decimals: 6}))

	err := env.process(env.mintToAccounts(), MintTo{Amount: 1})
	assert.Equal(t, token.ErrorOwnerMismatch, errors.Cause(err))

	var mint token.Mint
	require.True(t, mint.Unmarshal(env.mint.Data))
	assert.EqualValues(t, 0, mint.Supply)
}

func TestProcessor_MintTo_MissingPayerSignature(t *testing.T) {
	env := newTestEnv(t)

	env.authority = env.payer
	require.NoError(t, env.process(env.createMintAccounts(), CreateMint{Decimals: 6}))

	env.payer.IsSigner = false
	err := env.process(env.mintToAccounts(), MintTo{Amount: 1})
	assert.Equal(t, ledger.ErrMissingSigner, errors.Cause(err))
}

func TestProcessor_TwoMints(t *testing.T) {
	env := newTestEnv(t)
	env.authority = env.payer
	require.NoError(t, env.process(env.createMintAccounts(), CreateMint{Decimals: 6}))

	otherKeys := generateKeys(t, 1)
	other := newTestEnv(t)
	other.runtime = env.runtime
	other.processor = env.processor
	other.payer = env.payer
	other.authority = env.payer
	other.mint = ledger.NewAccountInfo(otherKeys[0], 0, true, true)

	destination, err := token.GetAssociatedAccount(other.payer.Address, other.mint.Address)
	require.NoError(t, err)
	other.destination = ledger.NewAccountInfo(destination, 0, false, true)

	require.NoError(t, other.process(other.createMintAccounts(), CreateMint{Decimals: 0}))

	require.NoError(t, env.process(env.mintToAccounts(), MintTo{Amount: 10}))
	require.NoError(t, other.process(other.mintToAccounts(), MintTo{Amount: 20}))

	var a, b token.Mint
	require.True(t, a.Unmarshal(env.mint.Data))
	require.True(t, b.Unmarshal(other.mint.Data))
	assert.EqualValues(t, 10, a.Supply)
	assert.EqualValues(t, 20, b.Supply)
}

func TestProcessor_NotEnoughAccounts(t *testing.T) {
	env := newTestEnv(t)

	err := env.processor.Process(env.createMintAccounts()[:5], CreateMint{Decimals: 6}.Marshal())
	assert.Equal(t, ErrNotEnoughAccounts, errors.Cause(err))

	err = env.processor.Process(env.mintToAccounts()[:6], MintTo{Amount: 1}.Marshal())
	assert.Equal(t, ErrNotEnoughAccounts, errors.Cause(err))
}

func TestProcessor_MalformedData(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, ErrMalformedInstruction, env.processor.Process(env.createMintAccounts(), nil))
	assert.Equal(t, ErrUnknownInstruction, env.processor.Process(env.createMintAccounts(), []byte{0xff}))
}

func generateKeys(t *testing.T, amount int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, amount)

	for i := 0; i < amount; i++ {
		pub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = pub
	}

	return keys
}
