package ledger

// accountStorageOverhead is the per-account metadata size included in every
// rent calculation on top of the account's own data.
const accountStorageOverhead = 128

// Rent is the rule set determining the minimum funding required for an
// account to persist without paying ongoing storage fees.
type Rent struct {
	// LamportsPerByteYear is the rental rate in lamports per byte-year.
	LamportsPerByteYear uint64
	// ExemptionThreshold is the number of years of rent that must be
	// deposited up front for the account to be storage exempt.
	ExemptionThreshold float64
}

// DefaultRent returns the cluster default rent parameters.
func DefaultRent() Rent {
	return Rent{
		LamportsPerByteYear: 3480,
		ExemptionThreshold:  2.0,
	}
}

// MinimumBalance returns the minimum lamport balance for an account of the
// given data size to be storage exempt.
func (r Rent) MinimumBalance(dataSize uint64) uint64 {
	return uint64(float64((accountStorageOverhead+dataSize)*r.LamportsPerByteYear) * r.ExemptionThreshold)
}
