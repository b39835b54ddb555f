package chain

import "fmt"

// ChainErrType identifies the check that rejected a block or a chain.
type ChainErrType uint32

const (
	// IndexMismatch means the block index is not its predecessor's index + 1
	IndexMismatch ChainErrType = iota
	// LinkMismatch means the previousHash is not the hash of the predecessor
	LinkMismatch
	// HashMismatch means the hash does not match the block's content
	HashMismatch
	// GenesisMismatch means the first block is not the genesis block
	GenesisMismatch
	// EmptyChain means the candidate chain has no blocks
	EmptyChain
	// NotLonger means the candidate chain is not longer than the current one
	NotLonger
)

// String ...
func (t ChainErrType) String() string {
	switch t {
	case IndexMismatch:
		return "Index Mismatch"
	case LinkMismatch:
		return "Link Mismatch"
	case HashMismatch:
		return "Hash Mismatch"
	case GenesisMismatch:
		return "Genesis Mismatch"
	case EmptyChain:
		return "Empty Chain"
	case NotLonger:
		return "Not Longer"
	default:
		return "Unknown"
	}
}

// ChainErr is returned when a block or a chain fails validation, or when a
// valid chain loses the longest-chain comparison.
type ChainErr struct {
	errType  ChainErrType
	position int
	expected string
	got      string
}

// NewChainErr ...
func NewChainErr(errType ChainErrType, position int, expected, got string) ChainErr {
	return ChainErr{
		errType:  errType,
		position: position,
		expected: expected,
		got:      got,
	}
}

// Type returns the check that failed.
func (e ChainErr) Type() ChainErrType {
	return e.errType
}

// Position returns the index, within the candidate chain, of the offending
// block. It is the index of the block itself for single-block checks.
func (e ChainErr) Position() int {
	return e.position
}

// Error implements the error interface
func (e ChainErr) Error() string {
	return fmt.Sprintf("block %d, %s, expected %s, got %s",
		e.position, e.errType, e.expected, e.got)
}

// IsChainErr checks that an error is of type ChainErr and that its code matches
// the provided ChainErrType.
func IsChainErr(err error, t ChainErrType) bool {
	chainErr, ok := err.(ChainErr)
	return ok && chainErr.errType == t
}
