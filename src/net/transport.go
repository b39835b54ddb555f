package net

// Transport provides an interface for network transports to allow a node to
// communicate with other nodes.
type Transport interface {

	// Starts the transport listening
	Listen()

	// Connect opens an outbound connection to the node at addr. The new
	// connection is reported through the Consumer channel.
	Connect(addr string) error

	// Consumer returns a channel that can be used to consume the events of
	// all the connections of the transport.
	Consumer() <-chan Event

	// LocalAddr is used to return our local address
	LocalAddr() string

	// Close permanently closes a transport, stopping
	// any associated goroutines and freeing other resources.
	Close() error
}

// Conn is a live connection to another node.
type Conn interface {
	// RemoteAddr returns the address of the other end of the connection.
	RemoteAddr() string

	// Send queues a message for delivery and returns immediately. There is no
	// acknowledgement and no retry.
	Send(msg *Message) error

	// Close terminates the connection. It is safe to call more than once.
	Close() error
}
