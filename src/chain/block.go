package chain

import (
	"strconv"

	"github.com/mosaicnetworks/naivechain/src/crypto"
)

// Block is one unit of the ledger.
type Block struct {
	Index        int     `json:"index"`
	PreviousHash string  `json:"previousHash"`
	Timestamp    float64 `json:"timestamp"`
	Data         string  `json:"data"`
	Hash         string  `json:"hash"`
}

// NewBlock creates a Block and computes its hash.
func NewBlock(index int, previousHash string, timestamp float64, data string) Block {
	return Block{
		Index:        index,
		PreviousHash: previousHash,
		Timestamp:    timestamp,
		Data:         data,
		Hash:         CalculateHash(index, previousHash, timestamp, data),
	}
}

// NextBlock builds the block that follows prev with the given payload.
func NextBlock(prev Block, timestamp float64, data string) Block {
	return NewBlock(prev.Index+1, prev.Hash, timestamp, data)
}

// CalculateHash returns the digest binding the fields of a block. Numbers are
// written in their shortest decimal form, without exponent, before being
// concatenated with the strings.
func CalculateHash(index int, previousHash string, timestamp float64, data string) string {
	return crypto.SHA256Hex(
		strconv.Itoa(index),
		previousHash,
		strconv.FormatFloat(timestamp, 'f', -1, 64),
		data,
	)
}

// ComputeHash recomputes the hash of the block from its fields.
func (b Block) ComputeHash() string {
	return CalculateHash(b.Index, b.PreviousHash, b.Timestamp, b.Data)
}

// Equal reports whether two blocks are structurally identical.
func (b Block) Equal(other Block) bool {
	return b.Index == other.Index &&
		b.PreviousHash == other.PreviousHash &&
		b.Timestamp == other.Timestamp &&
		b.Data == other.Data &&
		b.Hash == other.Hash
}

// SortedBlocks implements sort.Interface to order blocks by ascending index.
type SortedBlocks []Block

// Len implements the sort.Interface
func (a SortedBlocks) Len() int { return len(a) }

// Swap implements the sort.Interface
func (a SortedBlocks) Swap(i, j int) { a[i], a[j] = a[j], a[i] }

// Less implements the sort.Interface
func (a SortedBlocks) Less(i, j int) bool { return a[i].Index < a[j].Index }
