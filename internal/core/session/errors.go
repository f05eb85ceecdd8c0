// This file re-exposes the structured error taxonomy at the
// session boundary: NetworkError (from byteio), ProtocolError (from rtmp),
// DecodeError (from amf0), plus BackpressureDropped, a notification rather
// than an error.

package session

import (
	"campublish/internal/core/protocol/amf0"
	"campublish/internal/core/protocol/byteio"
	"campublish/internal/core/protocol/rtmp"
)

type (
	NetworkError  = byteio.NetworkError
	ProtocolError = rtmp.ProtocolError
	DecodeError   = amf0.DecodeError
)

const (
	ProtocolUnsupportedVersion = rtmp.ProtocolUnsupportedVersion
	ProtocolTruncated          = rtmp.ProtocolTruncated
	ProtocolUnexpectedMessage  = rtmp.ProtocolUnexpectedMessage
	ProtocolCommandRejected    = rtmp.ProtocolCommandRejected
	ProtocolWriteStalled       = rtmp.ProtocolWriteStalled
)

const (
	KindUnreachable     = byteio.KindUnreachable
	KindConnectTimeout  = byteio.KindConnectTimeout
	KindReadTimeout     = byteio.KindReadTimeout
	KindWriteFailed     = byteio.KindWriteFailed
	KindPeerClosed      = byteio.KindPeerClosed
)

// BackpressureKind distinguishes what kind of frame was dropped.
type BackpressureKind int

const (
	BackpressureVideo BackpressureKind = iota
	BackpressureAudio
)

// BackpressureDropped is a notification, not an error: it reports that a
// frame was dropped under queue backpressure.
type BackpressureDropped struct {
	Kind  BackpressureKind
	Count uint64
}
