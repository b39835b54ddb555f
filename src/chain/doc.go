// Package chain implements the ledger of a naivechain node: the Block type,
// the genesis constant, block and chain validation, the canonical chain store,
// and the longest-chain fork selector.
//
// Blocks
//
// A Block binds an index, the hash of its predecessor, a producer-supplied
// timestamp and an opaque data payload. Its hash is the SHA256 digest of those
// four fields, which makes it both an integrity check and the link used by the
// next block. Every valid chain starts with the same hard-coded genesis block.
//
// Store
//
// The Store owns the canonical chain. It is never mutated partially: either a
// single validated block is appended at the tip, or the whole chain is swapped
// for a strictly longer valid one. Both operations perform their checks and
// the mutation under the same lock, so concurrent appends and replacements can
// not break the linkage of the chain.
package chain
