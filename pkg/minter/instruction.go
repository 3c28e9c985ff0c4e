package minter

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

var (
	// ErrMalformedInstruction indicates the payload is too short for its
	// tag, or carries trailing bytes beyond the tag's fields.
	ErrMalformedInstruction = errors.New("malformed instruction data")

	// ErrUnknownInstruction indicates a tag outside the defined set.
	ErrUnknownInstruction = errors.New("unknown instruction")
)

const (
	tagCreateMint byte = iota
	tagMintTo
)

// Instruction is the closed set of operations the program accepts. Exactly
// two implementations exist; the decoder is exhaustive over them.
type Instruction interface {
	Marshal() []byte

	isInstruction()
}

// CreateMint creates a new mint with a fixed decimal precision.
type CreateMint struct {
	Decimals uint8
}

func (CreateMint) isInstruction() {}

func (i CreateMint) Marshal() []byte {
	return []byte{tagCreateMint, i.Decimals}
}

// MintTo mints new tokens into the payer's associated token account,
// creating that account if it does not yet exist.
type MintTo struct {
	Amount uint64
}

func (MintTo) isInstruction() {}

func (i MintTo) Marshal() []byte {
	data := make([]byte, 1+8)
	data[0] = tagMintTo
	binary.LittleEndian.PutUint64(data[1:], i.Amount)
	return data
}

// DecodeInstruction decodes the tagged wire payload: one tag byte selecting
// the variant, then that variant's fixed-width little-endian fields. The
// payload must be consumed exactly.
func DecodeInstruction(data []byte) (Instruction, error) {
	if len(data) == 0 {
		return nil, ErrMalformedInstruction
	}

	switch data[0] {
	case tagCreateMint:
		if len(data) != 2 {
			return nil, ErrMalformedInstruction
		}
		return CreateMint{Decimals: data[1]}, nil
	case tagMintTo:
		if len(data) != 1+8 {
			return nil, ErrMalformedInstruction
		}
		return MintTo{Amount: binary.LittleEndian.Uint64(data[1:])}, nil
	default:
		return nil, ErrUnknownInstruction
	}
}
