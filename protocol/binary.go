package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/cato541265/sockrpc/transport"
)

// frame layout: 4 byte length (seqID + body, big endian) | 4 byte seqID | body
const binaryHeaderSize = 8

// maxBinaryFrameSize guards against corrupted length fields
const maxBinaryFrameSize = 64 << 20

// --------------------------------------------------------------------------
// Binary Message
// --------------------------------------------------------------------------

// BinaryMessage is a message of the length-prefixed binary protocol
type BinaryMessage struct {
	seqID int32
	body  []byte
}

// SeqID returns the sequence id of the message
func (m *BinaryMessage) SeqID() int32 {
	return m.seqID
}

// Body returns the message payload without framing
func (m *BinaryMessage) Body() []byte {
	return m.body
}

// --------------------------------------------------------------------------
// Binary Protocol
// --------------------------------------------------------------------------

// binaryProtocol implements the length-prefixed binary framing. It is an
// async protocol: any number of requests may be in flight per connection.
type binaryProtocol struct{}

// NewBinaryProtocol creates the default async binary protocol
func NewBinaryProtocol() IProtocol {
	return &binaryProtocol{}
}

func (p *binaryProtocol) IsAsync() bool {
	return true
}

func (p *binaryProtocol) Parse(_ transport.IConnection, buf []byte) (IMessage, int, error) {
	if len(buf) < 4 {
		return nil, 0, nil
	}

	length := binary.BigEndian.Uint32(buf[:4])
	if length < 4 || length > maxBinaryFrameSize {
		return nil, 0, fmt.Errorf("invalid frame length %d", length)
	}

	// Wait until the whole frame has arrived
	if len(buf) < 4+int(length) {
		return nil, 0, nil
	}

	seqID := int32(binary.BigEndian.Uint32(buf[4:8]))

	// Copy the body out of the receive buffer, it is reused by the host
	body := make([]byte, length-4)
	copy(body, buf[binaryHeaderSize:4+length])

	return &BinaryMessage{seqID: seqID, body: body}, 4 + int(length), nil
}

// MarshalBinaryFrame builds the wire form of a single frame. Callers use it
// to construct request payloads and servers use it to frame responses.
func MarshalBinaryFrame(seqID int32, body []byte) []byte {
	frame := make([]byte, binaryHeaderSize+len(body))
	binary.BigEndian.PutUint32(frame[:4], uint32(4+len(body)))
	binary.BigEndian.PutUint32(frame[4:8], uint32(seqID))
	copy(frame[binaryHeaderSize:], body)
	return frame
}
