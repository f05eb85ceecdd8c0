// This file implements RTMP chunk stream framing:
// reassembly of inbound chunks into messages, and header-compressed
// framing of outbound messages. Chunk type (0/1/2/3) is chosen per chunk
// stream from what changed since the last chunk sent on it, not hardcoded
// to type 0 — servers that police header compression reject a client that
// never uses it.

package rtmp

import (
	"encoding/binary"
	"errors"
	"io"
	"sync"

	"campublish/internal/core/protocol/bele"
)

var (
	ErrInvalidChunkHeader = errors.New("invalid chunk header")
	ErrChunkTooLarge      = errors.New("chunk size too large")
)

// ChunkStream holds inbound reassembly state for one chunk stream id.
type ChunkStream struct {
	chunkStreamID     uint32
	messageType       byte
	messageLength     uint32
	streamID          uint32
	timestamp         uint32
	timestampDelta    uint32
	usingExtendedTS   bool
	buffer            []byte
	bytesRead         uint32
}

// ChunkParser reassembles inbound chunks into complete messages.
type ChunkParser struct {
	chunkStreams map[uint32]*ChunkStream
	chunkSize    uint32
	mu           sync.RWMutex
}

// NewChunkParser creates a chunk reassembler using the RTMP default
// incoming chunk size until a Set Chunk Size message changes it.
func NewChunkParser() *ChunkParser {
	return &ChunkParser{
		chunkStreams: make(map[uint32]*ChunkStream),
		chunkSize:    DefaultChunkSize,
	}
}

// SetChunkSize updates the size used to bound each inbound chunk's payload.
// Applies to every chunk stream immediately, including ones already
// mid-message — the peer is required to apply its own Set Chunk Size
// message at the same chunk boundary.
func (p *ChunkParser) SetChunkSize(size uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chunkSize = size
}

// DiscardChunkStream drops csID's partially reassembled message, per an
// inbound Abort Message for that chunk stream. A chunk stream the parser
// has never seen has nothing to discard.
func (p *ChunkParser) DiscardChunkStream(csID uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cs, ok := p.chunkStreams[csID]; ok {
		cs.buffer = cs.buffer[:0]
		cs.bytesRead = 0
	}
}

func readBasicHeader(r io.Reader) (format byte, csID uint32, err error) {
	var b0 [1]byte
	if _, err = io.ReadFull(r, b0[:]); err != nil {
		return 0, 0, err
	}
	format = (b0[0] >> 6) & 0x03
	low := uint32(b0[0] & 0x3F)

	switch low {
	case 0:
		var ext [1]byte
		if _, err = io.ReadFull(r, ext[:]); err != nil {
			return 0, 0, err
		}
		csID = uint32(ext[0]) + 64
	case 1:
		var ext [2]byte
		if _, err = io.ReadFull(r, ext[:]); err != nil {
			return 0, 0, err
		}
		csID = uint32(ext[0]) + uint32(ext[1])*256 + 64
	default:
		csID = low
	}
	return format, csID, nil
}

// ReadChunk reads and reassembles one chunk, returning its chunk stream id.
func (p *ChunkParser) ReadChunk(r io.Reader) (uint32, error) {
	format, csID, err := readBasicHeader(r)
	if err != nil {
		return 0, err
	}

	p.mu.Lock()
	cs, exists := p.chunkStreams[csID]
	if !exists {
		cs = &ChunkStream{chunkStreamID: csID}
		p.chunkStreams[csID] = cs
	}
	chunkSize := p.chunkSize
	p.mu.Unlock()

	if err := readMessageHeader(r, cs, format); err != nil {
		return csID, err
	}

	payloadSize := chunkSize
	remaining := cs.messageLength - cs.bytesRead
	if payloadSize > remaining {
		payloadSize = remaining
	}

	if cs.buffer == nil {
		cs.buffer = make([]byte, 0, cs.messageLength)
	}

	payload := make([]byte, payloadSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return csID, err
	}
	cs.buffer = append(cs.buffer, payload...)
	cs.bytesRead += payloadSize

	return csID, nil
}

// readMessageHeader reads the message header portion for the given format,
// applying RTMP's delta/extended-timestamp rules.
func readMessageHeader(r io.Reader, cs *ChunkStream, format byte) error {
	switch format {
	case ChunkFmt0:
		var hdr [11]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return err
		}
		ts := bele.BeUint24(hdr[0:3])
		cs.messageLength = bele.BeUint24(hdr[3:6])
		cs.messageType = hdr[6]
		cs.streamID = binary.LittleEndian.Uint32(hdr[7:11])
		cs.usingExtendedTS = ts == 0xFFFFFF
		if cs.usingExtendedTS {
			var ext [4]byte
			if _, err := io.ReadFull(r, ext[:]); err != nil {
				return err
			}
			ts = binary.BigEndian.Uint32(ext[:])
		}
		cs.timestamp = ts
		cs.timestampDelta = 0
		cs.bytesRead = 0
		cs.buffer = cs.buffer[:0]

	case ChunkFmt1:
		var hdr [7]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return err
		}
		delta := bele.BeUint24(hdr[0:3])
		cs.messageLength = bele.BeUint24(hdr[3:6])
		cs.messageType = hdr[6]
		cs.usingExtendedTS = delta == 0xFFFFFF
		if cs.usingExtendedTS {
			var ext [4]byte
			if _, err := io.ReadFull(r, ext[:]); err != nil {
				return err
			}
			delta = binary.BigEndian.Uint32(ext[:])
		}
		cs.timestampDelta = delta
		cs.timestamp += delta
		cs.bytesRead = 0
		cs.buffer = cs.buffer[:0]

	case ChunkFmt2:
		var hdr [3]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return err
		}
		delta := bele.BeUint24(hdr[:])
		cs.usingExtendedTS = delta == 0xFFFFFF
		if cs.usingExtendedTS {
			var ext [4]byte
			if _, err := io.ReadFull(r, ext[:]); err != nil {
				return err
			}
			delta = binary.BigEndian.Uint32(ext[:])
		}
		cs.timestampDelta = delta
		cs.timestamp += delta
		cs.bytesRead = 0
		cs.buffer = cs.buffer[:0]

	case ChunkFmt3:
		if cs.bytesRead == 0 {
			// First chunk of a new message reusing the prior header: only
			// the timestamp field repeats, and only when extended.
			if cs.usingExtendedTS {
				var ext [4]byte
				if _, err := io.ReadFull(r, ext[:]); err != nil {
					return err
				}
				cs.timestamp += binary.BigEndian.Uint32(ext[:]) - cs.timestampDelta
				cs.timestampDelta = binary.BigEndian.Uint32(ext[:])
			}
			cs.buffer = cs.buffer[:0]
		} else if cs.usingExtendedTS {
			// Mid-message continuation: the extended timestamp repeats on
			// every type-3 chunk once in use, per the handshake-phase
			// chunk stream's first fmt0/1/2 chunk establishing it.
			var ext [4]byte
			if _, err := io.ReadFull(r, ext[:]); err != nil {
				return err
			}
		}
	}
	return nil
}

// GetCompleteMessage returns the reassembled message for csID if complete.
func (p *ChunkParser) GetCompleteMessage(csID uint32) ([]byte, byte, uint32, uint32, bool) {
	p.mu.RLock()
	cs, exists := p.chunkStreams[csID]
	p.mu.RUnlock()

	if !exists || cs.bytesRead < cs.messageLength {
		return nil, 0, 0, 0, false
	}

	msg := make([]byte, len(cs.buffer))
	copy(msg, cs.buffer)
	msgType := cs.messageType
	timestamp := cs.timestamp
	streamID := cs.streamID

	cs.buffer = cs.buffer[:0]
	cs.bytesRead = 0

	return msg, msgType, timestamp, streamID, true
}

// chunkWriteState is the outbound header-compression state for one chunk
// stream id: what the last chunk 0/1 header on it said, so the next
// message's first chunk can be framed as a 0, 1, or 2 depending on what
// changed.
type chunkWriteState struct {
	has             bool
	lastTimestamp   uint32
	lastDelta       uint32
	lastLength      uint32
	lastType        byte
	lastStreamID    uint32
	usingExtendedTS bool
}

// ChunkWriter frames outbound messages as compressed RTMP chunks.
type ChunkWriter struct {
	mu        sync.Mutex
	chunkSize uint32
	states    map[uint32]*chunkWriteState
}

// NewChunkWriter creates a chunk writer using the RTMP default outgoing
// chunk size until SetChunkSize changes it.
func NewChunkWriter() *ChunkWriter {
	return &ChunkWriter{
		chunkSize: DefaultChunkSize,
		states:    make(map[uint32]*chunkWriteState),
	}
}

// SetChunkSize updates the size used to split outbound message bodies.
func (cw *ChunkWriter) SetChunkSize(size uint32) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.chunkSize = size
}

func writeBasicHeader(w io.Writer, format byte, csID uint32) error {
	switch {
	case csID >= 64 && csID < 320:
		if _, err := w.Write([]byte{format << 6}); err != nil {
			return err
		}
		_, err := w.Write([]byte{byte(csID - 64)})
		return err
	case csID >= 320:
		if _, err := w.Write([]byte{format<<6 | 1}); err != nil {
			return err
		}
		rel := csID - 64
		_, err := w.Write([]byte{byte(rel), byte(rel >> 8)})
		return err
	default:
		_, err := w.Write([]byte{format<<6 | byte(csID)})
		return err
	}
}

// WriteMessage frames body as one or more chunks on csID, choosing the
// cheapest header form (fmt 0/1/2) whose fields still match prior state,
// and fmt 3 for every continuation chunk of the same message.
func (cw *ChunkWriter) WriteMessage(w io.Writer, csID uint32, msgType byte, timestamp uint32, streamID uint32, body []byte) error {
	cw.mu.Lock()
	chunkSize := cw.chunkSize
	state, exists := cw.states[csID]
	if !exists {
		state = &chunkWriteState{}
		cw.states[csID] = state
	}
	cw.mu.Unlock()

	bodyLen := uint32(len(body))
	format, delta := selectFormat(state, timestamp, bodyLen, msgType, streamID)
	extended := timestamp >= 0xFFFFFF || (format != ChunkFmt0 && delta >= 0xFFFFFF)

	offset := uint32(0)
	for offset < bodyLen || (bodyLen == 0 && offset == 0) {
		chunkFormat := format
		if offset > 0 {
			chunkFormat = ChunkFmt3
		}

		if err := writeBasicHeader(w, chunkFormat, csID); err != nil {
			return err
		}

		if offset == 0 {
			if err := writeMessageHeader(w, chunkFormat, timestamp, delta, bodyLen, msgType, streamID, extended); err != nil {
				return err
			}
		} else if extended {
			var ext [4]byte
			binary.BigEndian.PutUint32(ext[:], timestampForExtended(format, timestamp, delta))
			if _, err := w.Write(ext[:]); err != nil {
				return err
			}
		}

		chunkLen := chunkSize
		if offset+chunkLen > bodyLen {
			chunkLen = bodyLen - offset
		}
		if chunkLen > 0 {
			if _, err := w.Write(body[offset : offset+chunkLen]); err != nil {
				return err
			}
		}
		offset += chunkLen
		if bodyLen == 0 {
			break
		}
	}

	cw.mu.Lock()
	state.has = true
	state.lastTimestamp = timestamp
	state.lastDelta = delta
	state.lastLength = bodyLen
	state.lastType = msgType
	state.lastStreamID = streamID
	state.usingExtendedTS = extended
	cw.mu.Unlock()

	if flusher, ok := w.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

func timestampForExtended(format byte, timestamp, delta uint32) uint32 {
	if format == ChunkFmt0 {
		return timestamp
	}
	return delta
}

// selectFormat picks the cheapest header compression level: type 2 when
// only the timestamp advanced, type 1 when the message length or type also
// changed but the stream id didn't, type 0 otherwise (first use of this
// chunk stream, or the stream id changed).
func selectFormat(state *chunkWriteState, timestamp, bodyLen uint32, msgType byte, streamID uint32) (format byte, delta uint32) {
	if !state.has || state.lastStreamID != streamID {
		return ChunkFmt0, timestamp
	}
	delta = timestamp - state.lastTimestamp
	if state.lastLength != bodyLen || state.lastType != msgType {
		return ChunkFmt1, delta
	}
	return ChunkFmt2, delta
}

func writeMessageHeader(w io.Writer, format byte, timestamp, delta, bodyLen uint32, msgType byte, streamID uint32, extended bool) error {
	switch format {
	case ChunkFmt0:
		var hdr [11]byte
		ts := timestamp
		if extended {
			ts = 0xFFFFFF
		}
		bele.PutBeUint24(hdr[0:3], ts)
		bele.PutBeUint24(hdr[3:6], bodyLen)
		hdr[6] = msgType
		binary.LittleEndian.PutUint32(hdr[7:11], streamID)
		if _, err := w.Write(hdr[:]); err != nil {
			return err
		}
		if extended {
			var ext [4]byte
			binary.BigEndian.PutUint32(ext[:], timestamp)
			if _, err := w.Write(ext[:]); err != nil {
				return err
			}
		}
		return nil

	case ChunkFmt1:
		var hdr [7]byte
		d := delta
		if extended {
			d = 0xFFFFFF
		}
		bele.PutBeUint24(hdr[0:3], d)
		bele.PutBeUint24(hdr[3:6], bodyLen)
		hdr[6] = msgType
		if _, err := w.Write(hdr[:]); err != nil {
			return err
		}
		if extended {
			var ext [4]byte
			binary.BigEndian.PutUint32(ext[:], delta)
			if _, err := w.Write(ext[:]); err != nil {
				return err
			}
		}
		return nil

	case ChunkFmt2:
		var hdr [3]byte
		d := delta
		if extended {
			d = 0xFFFFFF
		}
		bele.PutBeUint24(hdr[:], d)
		if _, err := w.Write(hdr[:]); err != nil {
			return err
		}
		if extended {
			var ext [4]byte
			binary.BigEndian.PutUint32(ext[:], delta)
			if _, err := w.Write(ext[:]); err != nil {
				return err
			}
		}
		return nil
	}
	return ErrInvalidChunkHeader
}
