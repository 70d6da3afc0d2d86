package protocol

import (
	"bytes"
	"strconv"

	"github.com/cato541265/sockrpc/transport"
)

// --------------------------------------------------------------------------
// Text Message
// --------------------------------------------------------------------------

// TextMessage is a single response line of the command line protocol
type TextMessage struct {
	seqID int32
	body  []byte
}

// SeqID returns the sequence id of the message, -1 if the line carried none
func (m *TextMessage) SeqID() int32 {
	return m.seqID
}

// Body returns the line content after the sequence id token
func (m *TextMessage) Body() []byte {
	return m.body
}

// --------------------------------------------------------------------------
// Command Line Protocol
// --------------------------------------------------------------------------

// commandLineProtocol implements a newline-terminated text protocol. A
// response line is "<seqID> <body>\r\n". It is a sync protocol: one
// outstanding request per connection.
type commandLineProtocol struct{}

// NewCommandLineProtocol creates the newline-terminated text protocol
func NewCommandLineProtocol() IProtocol {
	return &commandLineProtocol{}
}

func (p *commandLineProtocol) IsAsync() bool {
	return false
}

func (p *commandLineProtocol) Parse(_ transport.IConnection, buf []byte) (IMessage, int, error) {
	idx := bytes.IndexByte(buf, '\n')
	if idx < 0 {
		return nil, 0, nil
	}

	line := buf[:idx]
	line = bytes.TrimSuffix(line, []byte{'\r'})

	// The leading token is the echoed sequence id. Lines without one are
	// routed to the unknown-message handler via seqID -1.
	seqID := int32(-1)
	body := line
	if sp := bytes.IndexByte(line, ' '); sp > 0 {
		if id, err := strconv.ParseInt(string(line[:sp]), 10, 32); err == nil {
			seqID = int32(id)
			body = line[sp+1:]
		}
	} else if id, err := strconv.ParseInt(string(line), 10, 32); err == nil {
		seqID = int32(id)
		body = nil
	}

	// Copy out of the receive buffer
	out := make([]byte, len(body))
	copy(out, body)

	return &TextMessage{seqID: seqID, body: out}, idx + 1, nil
}

// MarshalCommandLine builds the wire form of a single line
func MarshalCommandLine(seqID int32, body []byte) []byte {
	line := make([]byte, 0, len(body)+16)
	line = strconv.AppendInt(line, int64(seqID), 10)
	if len(body) > 0 {
		line = append(line, ' ')
		line = append(line, body...)
	}
	return append(line, '\r', '\n')
}
