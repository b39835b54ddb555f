package chain

import "strconv"

// ValidateNewBlock checks that candidate can follow predecessor: the index is
// contiguous, the previousHash links to the predecessor, and the hash matches
// the content. The checks run in that order and the first failure is
// returned.
func ValidateNewBlock(candidate, predecessor Block) error {
	if predecessor.Index+1 != candidate.Index {
		return NewChainErr(IndexMismatch,
			candidate.Index,
			strconv.Itoa(predecessor.Index+1),
			strconv.Itoa(candidate.Index))
	}

	if predecessor.Hash != candidate.PreviousHash {
		return NewChainErr(LinkMismatch,
			candidate.Index,
			predecessor.Hash,
			candidate.PreviousHash)
	}

	if hash := candidate.ComputeHash(); hash != candidate.Hash {
		return NewChainErr(HashMismatch,
			candidate.Index,
			hash,
			candidate.Hash)
	}

	return nil
}

// IsValidNewBlock reports whether candidate can follow predecessor.
func IsValidNewBlock(candidate, predecessor Block) bool {
	return ValidateNewBlock(candidate, predecessor) == nil
}

// ValidateChain checks that blocks starts with the genesis block and that
// every block is a valid successor of the one before it. It stops at the first
// invalid block.
func ValidateChain(blocks []Block) error {
	if len(blocks) == 0 {
		return NewChainErr(EmptyChain, 0, "1", "0")
	}

	if !IsGenesis(blocks[0]) {
		return NewChainErr(GenesisMismatch, 0, GenesisHash, blocks[0].Hash)
	}

	for i := 1; i < len(blocks); i++ {
		if err := ValidateNewBlock(blocks[i], blocks[i-1]); err != nil {
			chainErr := err.(ChainErr)
			chainErr.position = i
			return chainErr
		}
	}

	return nil
}

// IsValidChain reports whether blocks forms a valid chain.
func IsValidChain(blocks []Block) bool {
	return ValidateChain(blocks) == nil
}
