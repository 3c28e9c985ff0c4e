// Package minter implements a program exposing two operations over a
// fungible token registry: creating a mint with a fixed decimal precision,
// and minting additional tokens into the payer's associated token account,
// creating that account when absent. The program holds no state of its own;
// it sequences delegated calls against the system allocator, the token
// program, and the associated token account program.
package minter

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/minterlabs/minter/pkg/ledger"
	"github.com/minterlabs/minter/pkg/ledger/system"
	"github.com/minterlabs/minter/pkg/ledger/token"
)

// Processor decodes and executes program instructions. Each invocation is
// independent and runs to completion within the atomic execution context
// the hosting runtime provides.
type Processor struct {
	invoker ledger.Invoker
	log     *logrus.Entry
}

func NewProcessor(invoker ledger.Invoker) *Processor {
	return &Processor{
		invoker: invoker,
		log:     logrus.StandardLogger().WithField("type", "minter/processor"),
	}
}

// Process decodes the instruction payload and routes it to its handler.
// Every failure, from decoding through the final delegated call, aborts the
// invocation and is returned to the caller unchanged.
func (p *Processor) Process(accounts []*ledger.AccountInfo, data []byte) error {
	instruction, err := DecodeInstruction(data)
	if err != nil {
		return err
	}

	switch t := instruction.(type) {
	case CreateMint:
		return p.createMint(accounts, t.Decimals)
	case MintTo:
		return p.mintTo(accounts, t.Amount)
	default:
		// Unreachable while the instruction set stays closed; kept only so
		// a future instruction added without a handler fails loudly.
		return ErrUnknownInstruction
	}
}

func (p *Processor) createMint(accounts []*ledger.AccountInfo, decimals uint8) error {
	ctx, err := getCreateMintAccounts(accounts)
	if err != nil {
		return err
	}

	log := p.log.WithFields(logrus.Fields{
		"method": "createMint",
		"mint":   ctx.Mint.String(),
	})

	lamports := ledger.DefaultRent().MinimumBalance(token.MintSize)

	log.Debug("creating mint account")
	err = p.invoker.Invoke(
		system.CreateAccount(
			ctx.Payer.Address,
			ctx.Mint.Address,
			token.ProgramKey,
			lamports,
			token.MintSize,
		),
		accounts,
	)
	if err != nil {
		return errors.Wrap(err, "failed to create mint account")
	}

	log.Debug("initializing mint account")

	// No seeds are attached: the initialization needs no program-derived
	// authority, only the signers already present in this invocation.
	err = p.invoker.InvokeSigned(
		token.InitializeMint(ctx.Mint.Address, ctx.MintAuthority.Address, nil, decimals),
		accounts,
	)
	if err != nil {
		return errors.Wrap(err, "failed to initialize mint")
	}

	return nil
}

func (p *Processor) mintTo(accounts []*ledger.AccountInfo, amount uint64) error {
	ctx, err := getMintToAccounts(accounts)
	if err != nil {
		return err
	}

	log := p.log.WithFields(logrus.Fields{
		"method":      "mintTo",
		"mint":        ctx.Mint.String(),
		"destination": ctx.Destination.String(),
	})

	// A zero lamport balance means the destination does not exist yet.
	if *ctx.Destination.Lamports == 0 {
		log.Debug("creating associated token account")

		createAccount, _, err := token.CreateAssociatedTokenAccount(
			ctx.Payer.Address,
			ctx.Payer.Address,
			ctx.Mint.Address,
		)
		if err != nil {
			return errors.Wrap(err, "failed to build associated token account creation")
		}

		if err := p.invoker.Invoke(createAccount, accounts); err != nil {
			return errors.Wrap(err, "failed to create associated token account")
		}
	}

	log.WithField("amount", amount).Debug("minting tokens")
	err = p.invoker.Invoke(
		token.MintTo(ctx.Mint.Address, ctx.Destination.Address, ctx.Payer.Address, amount),
		accounts,
	)
	if err != nil {
		return errors.Wrap(err, "failed to mint tokens")
	}

	return nil
}
