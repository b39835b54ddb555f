package net

import (
	"github.com/mosaicnetworks/naivechain/src/chain"
)

// MessageType identifies one of the three gossip messages.
type MessageType int

const (
	// QueryLatest asks a peer for the tip of its chain
	QueryLatest MessageType = iota
	// QueryAll asks a peer for its whole chain
	QueryAll
	// ResponseBlockchain carries one or more blocks
	ResponseBlockchain
)

// String ...
func (t MessageType) String() string {
	switch t {
	case QueryLatest:
		return "QUERY_LATEST"
	case QueryAll:
		return "QUERY_ALL"
	case ResponseBlockchain:
		return "RESPONSE_BLOCKCHAIN"
	default:
		return "UNKNOWN"
	}
}

// Message is a gossip message. Data is only set for ResponseBlockchain, in
// which case it contains a JSON array of blocks.
type Message struct {
	Type MessageType `json:"type"`
	Data string      `json:"data,omitempty"`
}

// NewQueryLatestMessage ...
func NewQueryLatestMessage() *Message {
	return &Message{Type: QueryLatest}
}

// NewQueryAllMessage ...
func NewQueryAllMessage() *Message {
	return &Message{Type: QueryAll}
}

// NewResponseMessage creates a ResponseBlockchain message carrying blocks.
func NewResponseMessage(blocks []chain.Block) (*Message, error) {
	data, err := EncodeBlocks(blocks)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type: ResponseBlockchain,
		Data: string(data),
	}, nil
}

// Blocks decodes the blocks carried by a ResponseBlockchain message.
func (m *Message) Blocks() ([]chain.Block, error) {
	if m.Type != ResponseBlockchain {
		return nil, ErrNotResponse
	}
	return DecodeBlocks([]byte(m.Data))
}
