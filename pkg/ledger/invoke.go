package ledger

// Invoker executes delegated calls against the hosting runtime on behalf of
// the current program invocation. Both primitives run synchronously and
// within the caller's atomic execution context.
type Invoker interface {
	// Invoke executes the instruction using only the signers already
	// present in the caller's context.
	Invoke(instruction Instruction, accounts []*AccountInfo) error

	// InvokeSigned executes the instruction with additional program-derived
	// signing authority for the address produced by the given seeds. With no
	// seeds it behaves exactly like Invoke.
	InvokeSigned(instruction Instruction, accounts []*AccountInfo, seeds ...[]byte) error
}
