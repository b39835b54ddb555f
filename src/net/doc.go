// Package net implements the transports used by naivechain nodes to exchange
// gossip messages.
//
// Unlike a request/response RPC layer, peers keep long-lived bidirectional
// connections and push messages to each other without waiting for an
// acknowledgement. A Transport reports everything that happens on its
// connections as a stream of Events (connection opened, message received,
// message dropped, connection closed), which a node consumes in order.
//
// There are two implementations:
//
// - Inmem: in-memory transport used only for testing
//
// - Websocket: messages are JSON text frames over websocket connections, which
// is compatible with existing javascript naivechain nodes.
//
// Messages
//
// Three messages make up the gossip protocol:
//
//	{ "type": 0 }                        QUERY_LATEST
//	{ "type": 1 }                        QUERY_ALL
//	{ "type": 2, "data": "[...]" }       RESPONSE_BLOCKCHAIN
//
// The data field of a RESPONSE_BLOCKCHAIN message is a string containing the
// JSON encoding of an array of blocks. Messages that can not be decoded are
// reported as EventDrop and never close the connection they arrived on.
package net
