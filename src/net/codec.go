package net

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/mosaicnetworks/naivechain/src/chain"
	"github.com/ugorji/go/codec"
)

var (
	// ErrMissingType is returned when decoding a message without a type.
	ErrMissingType = errors.New("message has no type")

	// ErrInvalidType is returned when the type of a message is not a number.
	ErrInvalidType = errors.New("message type is not a number")

	// ErrNotResponse is returned when reading blocks from a message that is
	// not a ResponseBlockchain.
	ErrNotResponse = errors.New("message is not a blockchain response")
)

var jsonHandle = newJSONHandle()

func newJSONHandle() *codec.JsonHandle {
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	jh.HTMLCharsAsIs = true
	jh.Raw = true
	return jh
}

// wireMessage distinguishes a missing type from QueryLatest, which is 0, and
// keeps the raw type so that strings are not coerced into numbers.
type wireMessage struct {
	Type interface{} `json:"type"`
	Data string      `json:"data"`
}

// EncodeMessage returns the JSON encoding of msg.
func EncodeMessage(msg *Message) ([]byte, error) {
	var b []byte
	enc := codec.NewEncoderBytes(&b, jsonHandle)
	if err := enc.Encode(msg); err != nil {
		return nil, err
	}
	return b, nil
}

// DecodeMessage parses a JSON message and checks that its type is known.
func DecodeMessage(data []byte) (*Message, error) {
	var wm wireMessage
	dec := codec.NewDecoderBytes(data, jsonHandle)
	if err := dec.Decode(&wm); err != nil {
		return nil, err
	}

	msgType, err := messageType(wm.Type)
	if err != nil {
		return nil, err
	}

	switch msgType {
	case QueryLatest, QueryAll, ResponseBlockchain:
	default:
		return nil, fmt.Errorf("unknown message type %d", msgType)
	}

	return &Message{Type: msgType, Data: wm.Data}, nil
}

func messageType(v interface{}) (MessageType, error) {
	switch t := v.(type) {
	case nil:
		return 0, ErrMissingType
	case uint64:
		if t > math.MaxInt32 {
			return 0, fmt.Errorf("unknown message type %d", t)
		}
		return MessageType(t), nil
	case int64:
		if t < 0 || t > math.MaxInt32 {
			return 0, fmt.Errorf("unknown message type %d", t)
		}
		return MessageType(t), nil
	case float64:
		if t != math.Trunc(t) || t < 0 || t > math.MaxInt32 {
			return 0, fmt.Errorf("unknown message type %v", t)
		}
		return MessageType(t), nil
	default:
		return 0, ErrInvalidType
	}
}

// wireBlock is a chain.Block as javascript nodes serialize it, keys in field
// order and integral timestamps without a fractional part. Those nodes
// compare the serialized genesis block, so the bytes matter.
type wireBlock chain.Block

// blockFields decodes the fields of a block without going through the
// methods of wireBlock.
type blockFields chain.Block

// CodecEncodeSelf implements codec.Selfer.
func (b *wireBlock) CodecEncodeSelf(e *codec.Encoder) {
	raw, err := b.appendJSON(nil)
	if err != nil {
		panic(err)
	}
	e.MustEncode(codec.Raw(raw))
}

// CodecDecodeSelf implements codec.Selfer.
func (b *wireBlock) CodecDecodeSelf(d *codec.Decoder) {
	d.MustDecode((*blockFields)(b))
}

func (b *wireBlock) appendJSON(buf []byte) ([]byte, error) {
	previousHash, err := encodeString(b.PreviousHash)
	if err != nil {
		return nil, err
	}
	data, err := encodeString(b.Data)
	if err != nil {
		return nil, err
	}
	hash, err := encodeString(b.Hash)
	if err != nil {
		return nil, err
	}

	w := bytes.NewBuffer(buf)
	w.WriteString(`{"index":`)
	w.WriteString(strconv.Itoa(b.Index))
	w.WriteString(`,"previousHash":`)
	w.Write(previousHash)
	w.WriteString(`,"timestamp":`)
	w.WriteString(strconv.FormatFloat(b.Timestamp, 'f', -1, 64))
	w.WriteString(`,"data":`)
	w.Write(data)
	w.WriteString(`,"hash":`)
	w.Write(hash)
	w.WriteString(`}`)

	return w.Bytes(), nil
}

func encodeString(s string) ([]byte, error) {
	var b []byte
	enc := codec.NewEncoderBytes(&b, jsonHandle)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return b, nil
}

// EncodeBlocks returns the JSON array encoding of blocks.
func EncodeBlocks(blocks []chain.Block) ([]byte, error) {
	wire := make([]wireBlock, len(blocks))
	for i, blk := range blocks {
		wire[i] = wireBlock(blk)
	}

	var b []byte
	enc := codec.NewEncoderBytes(&b, jsonHandle)
	if err := enc.Encode(wire); err != nil {
		return nil, err
	}
	return b, nil
}

// DecodeBlocks parses a JSON array of blocks.
func DecodeBlocks(data []byte) ([]chain.Block, error) {
	var wire []wireBlock
	dec := codec.NewDecoderBytes(data, jsonHandle)
	if err := dec.Decode(&wire); err != nil {
		return nil, err
	}

	blocks := make([]chain.Block, len(wire))
	for i, wb := range wire {
		blocks[i] = chain.Block(wb)
	}
	return blocks, nil
}
