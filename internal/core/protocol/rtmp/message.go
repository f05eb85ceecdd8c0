// This file handles protocol control message bodies (Set
// Chunk Size, Window Ack Size, Set Peer Bandwidth, User Control) — chunk
// framing itself lives in chunk.go.

package rtmp

import (
	"encoding/binary"
	"io"
)

// Message is a fully reassembled RTMP message.
type Message struct {
	Type      byte
	Timestamp uint32
	StreamID  uint32
	Body      []byte
}

// ParseSetChunkSize parses a Set Chunk Size message body.
func ParseSetChunkSize(body []byte) (uint32, error) {
	if len(body) < 4 {
		return 0, io.ErrUnexpectedEOF
	}
	size := binary.BigEndian.Uint32(body[0:4])
	if size > MaxChunkSize {
		return 0, ErrChunkTooLarge
	}
	return size, nil
}

// CreateSetChunkSize builds a Set Chunk Size message body.
func CreateSetChunkSize(size uint32) []byte {
	body := make([]byte, 4)
	binary.BigEndian.PutUint32(body, size)
	return body
}

// ParseWindowAckSize parses a Window Acknowledgement Size message body.
func ParseWindowAckSize(body []byte) (uint32, error) {
	if len(body) < 4 {
		return 0, io.ErrUnexpectedEOF
	}
	return binary.BigEndian.Uint32(body[0:4]), nil
}

// ParseAbortMessage parses an Abort Message body, the chunk stream id
// whose partially buffered message the peer wants dropped.
func ParseAbortMessage(body []byte) (csID uint32, err error) {
	if len(body) < 4 {
		return 0, io.ErrUnexpectedEOF
	}
	return binary.BigEndian.Uint32(body[0:4]), nil
}

// ParseAck parses an Acknowledgement message body, the cumulative byte
// count the peer is acknowledging.
func ParseAck(body []byte) (uint32, error) {
	if len(body) < 4 {
		return 0, io.ErrUnexpectedEOF
	}
	return binary.BigEndian.Uint32(body[0:4]), nil
}

// CreateWindowAckSize builds a Window Acknowledgement Size message body.
func CreateWindowAckSize(size uint32) []byte {
	body := make([]byte, 4)
	binary.BigEndian.PutUint32(body, size)
	return body
}

// ParseSetPeerBandwidth parses a Set Peer Bandwidth message body.
func ParseSetPeerBandwidth(body []byte) (size uint32, limitType byte, err error) {
	if len(body) < 5 {
		return 0, 0, io.ErrUnexpectedEOF
	}
	return binary.BigEndian.Uint32(body[0:4]), body[4], nil
}

// CreateAck builds an Acknowledgement message body reporting the number
// of bytes received so far.
func CreateAck(sequenceNumber uint32) []byte {
	body := make([]byte, 4)
	binary.BigEndian.PutUint32(body, sequenceNumber)
	return body
}

// CreatePingResponse builds a User Control "PingResponse" message body
// echoing the timestamp from the server's PingRequest.
func CreatePingResponse(timestamp uint32) []byte {
	body := make([]byte, 6)
	binary.BigEndian.PutUint16(body[0:2], ControlPingResponse)
	binary.BigEndian.PutUint32(body[2:6], timestamp)
	return body
}

// CreatePingRequest builds a User Control "PingRequest" message body, used
// by the session's own keepalive timer to detect a silently dead peer.
func CreatePingRequest(timestamp uint32) []byte {
	body := make([]byte, 6)
	binary.BigEndian.PutUint16(body[0:2], ControlPingRequest)
	binary.BigEndian.PutUint32(body[2:6], timestamp)
	return body
}

// ParseUserControl parses a User Control message into its event type and
// the raw event data that follows it.
func ParseUserControl(body []byte) (eventType uint16, data []byte, err error) {
	if len(body) < 2 {
		return 0, nil, io.ErrUnexpectedEOF
	}
	return binary.BigEndian.Uint16(body[0:2]), body[2:], nil
}
