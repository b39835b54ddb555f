// Package node implements the reactive component of a naivechain node.
//
// Node consumes the events of a net.Transport in a single loop. When a
// connection opens, the peer is registered and asked for the tip of its
// chain. When it closes, the peer is forgotten. There is no reconnection.
//
// Gossip
//
// Nodes talk to each other with three messages. QUERY_LATEST asks a peer for
// the last block of its chain, QUERY_ALL asks for the whole chain, and
// RESPONSE_BLOCKCHAIN carries one or more blocks. Every change of the local
// chain, whether it comes from a peer or from local mining, is followed by a
// broadcast of the new tip to all open peers.
//
// Upon receiving a RESPONSE_BLOCKCHAIN, the blocks are sorted by index and
// the last one is compared with the local tip:
//
//  not ahead of the local tip          => ignore
//  ahead and linking to the local tip  => append it
//  ahead, not linking, single block    => broadcast QUERY_ALL
//  ahead, not linking, several blocks  => replace the chain if valid and longer
//
// Writes never wait for the remote end. A peer that does not answer simply
// leaves the local chain as it is.
package node
