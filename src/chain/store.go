package chain

import (
	"strconv"
	"sync"
)

// Store owns the canonical chain of a node. It only exposes atomic
// operations: appending a validated block at the tip, or replacing the whole
// chain with a longer valid one. Readers receive copies.
type Store struct {
	sync.RWMutex
	blocks []Block
}

// NewStore creates a Store holding only the genesis block.
func NewStore() *Store {
	return &Store{
		blocks: []Block{Genesis()},
	}
}

// Tip returns the last block of the canonical chain.
func (s *Store) Tip() Block {
	s.RLock()
	defer s.RUnlock()
	return s.blocks[len(s.blocks)-1]
}

// All returns a copy of the canonical chain.
func (s *Store) All() []Block {
	s.RLock()
	defer s.RUnlock()
	res := make([]Block, len(s.blocks))
	copy(res, s.blocks)
	return res
}

// Len returns the number of blocks in the canonical chain.
func (s *Store) Len() int {
	s.RLock()
	defer s.RUnlock()
	return len(s.blocks)
}

// TryAppend appends b to the chain if it is a valid successor of the current
// tip, and returns the new tip. Otherwise the chain is left untouched and the
// validation error is returned.
func (s *Store) TryAppend(b Block) (Block, error) {
	s.Lock()
	defer s.Unlock()
	return s.append(b)
}

// AppendNext builds the block following the current tip with the given payload
// and appends it. Building and appending happen under the same lock so the
// block can not be overtaken by a concurrent append or replacement.
func (s *Store) AppendNext(data string, timestamp float64) (Block, error) {
	s.Lock()
	defer s.Unlock()
	next := NextBlock(s.blocks[len(s.blocks)-1], timestamp, data)
	return s.append(next)
}

func (s *Store) append(b Block) (Block, error) {
	if err := ValidateNewBlock(b, s.blocks[len(s.blocks)-1]); err != nil {
		return Block{}, err
	}
	s.blocks = append(s.blocks, b)
	return b, nil
}

// TryReplace swaps the canonical chain for candidate if candidate is a valid
// chain strictly longer than the current one. Ties and shorter chains are
// rejected with a NotLonger error. The store keeps its own copy of candidate.
func (s *Store) TryReplace(candidate []Block) error {
	if err := ValidateChain(candidate); err != nil {
		return err
	}

	s.Lock()
	defer s.Unlock()

	if len(candidate) <= len(s.blocks) {
		return NewChainErr(NotLonger,
			len(candidate)-1,
			"length > "+strconv.Itoa(len(s.blocks)),
			"length "+strconv.Itoa(len(candidate)))
	}

	blocks := make([]Block, len(candidate))
	copy(blocks, candidate)
	s.blocks = blocks

	return nil
}
