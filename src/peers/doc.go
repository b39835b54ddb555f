// Package peers keeps track of the live connections of a naivechain node and
// fans messages out to them.
//
// A peer is the remote end of an open transport connection. Peers are not
// authenticated; they are identified by the connection itself and described
// by its remote address. A peer goes through three states: Connecting while the
// transport establishes the connection, Open once it is registered and
// receives broadcasts, and Closed, which is terminal. There is no automatic
// reconnection.
//
// Writes and broadcasts are fire-and-forget. A message is handed to the
// connection's outbound queue and the Registry never waits for, or checks,
// delivery.
package peers
