package net

// EventKind ...
type EventKind uint8

const (
	// EventOpen is emitted once when a connection is established
	EventOpen EventKind = iota
	// EventMessage carries a decoded message
	EventMessage
	// EventDrop reports a message that could not be decoded
	EventDrop
	// EventClose is emitted once when a connection is closed or fails
	EventClose
)

// String ...
func (k EventKind) String() string {
	switch k {
	case EventOpen:
		return "Open"
	case EventMessage:
		return "Message"
	case EventDrop:
		return "Drop"
	case EventClose:
		return "Close"
	default:
		return "Unknown"
	}
}

// Event is something that happened on a connection. Events of a single
// connection are delivered in the order they occurred: Open first, then
// Message and Drop events in arrival order, then Close.
type Event struct {
	Kind    EventKind
	Conn    Conn
	Message *Message
	Err     error
}
