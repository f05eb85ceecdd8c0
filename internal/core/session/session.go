// This file implements the session task: the connect→createStream→publish
// FSM, and after STREAMING is reached, the cooperative writer/reader loop.
// Start runs the handshake and command sequence synchronously; once
// STREAMING begins, a writer goroutine becomes the sole socket writer and
// a reader goroutine becomes the sole socket reader, communicating over
// the channels set up here. Protocol-control replies discovered by the
// reader (ping responses, window ack bookkeeping) are handed to the writer
// over outCtrl rather than written directly, so there is never more than
// one writer of the socket.

package session

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"campublish/internal/config"
	"campublish/internal/core/protocol/amf0"
	"campublish/internal/core/protocol/byteio"
	"campublish/internal/core/protocol/rtmp"
	"campublish/internal/core/queue"
	"campublish/internal/log"
)

// State is one value of the session FSM.
type State int32

const (
	StateDisconnected State = iota
	StateTCPConnected
	StateHandshakeDone
	StateNetConnectOK
	StateStreamCreated
	StateStreaming
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateTCPConnected:
		return "TCP_CONNECTED"
	case StateHandshakeDone:
		return "HANDSHAKE_DONE"
	case StateNetConnectOK:
		return "NETCONNECT_OK"
	case StateStreamCreated:
		return "STREAM_CREATED"
	case StateStreaming:
		return "STREAMING"
	case StateClosing:
		return "CLOSING"
	default:
		return "UNKNOWN"
	}
}

const (
	commandChunkStreamID         uint32 = 3
	publishChunkStreamID         uint32 = 4
	protocolControlChunkStreamID uint32 = 2
	videoMessageType             byte   = rtmp.MessageTypeVideo
	audioMessageType             byte   = rtmp.MessageTypeAudio
)

// rawOut is a protocol-control reply the reader wants written; the writer
// goroutine is the only thing that ever touches the socket for writing.
type rawOut struct {
	csID    uint32
	msgType byte
	body    []byte
}

// Session is one RTMP publish connection. It is not safe to reuse after
// Start returns an error or after Disconnect — a fresh Session is required
// per the session FSM's recovery policy.
type Session struct {
	cfg config.SessionConfig

	conn        *byteio.Conn
	chunkWriter *rtmp.ChunkWriter
	chunkParser *rtmp.ChunkParser

	state atomic.Int32

	target     *Target
	streamID   float64
	cmdBuilder *commandBuilder

	videoQueue *queue.VideoQueue
	audioQueue *queue.AudioQueue

	lastTimestamp map[uint32]uint32
	tsMu          sync.Mutex

	stats Stats

	// remoteWindowAckSize is the peer's last announced Window
	// Acknowledgement Size (the configured WindowAckSize until the peer
	// announces one); bytesSinceAck is reset to 0 whenever the peer sends
	// an Acknowledgement. The writer stops taking media frames once
	// bytesSinceAck has reached remoteWindowAckSize. The check runs before
	// a frame is popped, so the frame that crosses the window is still
	// written whole and bytesSinceAck can end up above the window by up to
	// one frame.
	remoteWindowAckSize atomic.Uint32
	bytesSinceAck       atomic.Uint32

	wake    chan struct{}
	outCtrl chan rawOut
	done    chan struct{}

	closeErr error
	closeOne sync.Once

	missedPings atomic.Int32
}

// New creates a Session with the given configuration. Call Start to
// connect and run the handshake/command sequence.
func New(cfg config.SessionConfig) *Session {
	s := &Session{
		cfg:           cfg,
		chunkWriter:   rtmp.NewChunkWriter(),
		chunkParser:   rtmp.NewChunkParser(),
		cmdBuilder:    newCommandBuilder(),
		videoQueue:    queue.NewVideoQueue(cfg.MaxVideoQueue),
		audioQueue:    queue.NewAudioQueue(cfg.MaxAudioQueue),
		lastTimestamp: make(map[uint32]uint32),
		wake:          make(chan struct{}, 1),
		outCtrl:       make(chan rawOut, 8),
		done:          make(chan struct{}),
	}
	s.state.Store(int32(StateDisconnected))
	// Assume a symmetric window until the peer announces its own.
	s.remoteWindowAckSize.Store(uint32(cfg.WindowAckSize))
	return s
}

// State returns the session's current state. Safe to call from any goroutine.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Stats returns a point-in-time snapshot of the session's counters.
func (s *Session) Stats() Snapshot {
	return s.stats.Snapshot()
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}

// Start connects to rawURL, runs the handshake and connect/createStream/
// publish command sequence, and on success leaves the session in
// STREAMING with its writer and reader goroutines running.
func (s *Session) Start(rawURL, streamKey string) error {
	target, err := ParseTarget(rawURL, streamKey)
	if err != nil {
		return err
	}
	s.target = target

	timeout := time.Duration(s.cfg.ConnectTimeoutMS) * time.Millisecond
	conn, err := byteio.Dial(target.Host, target.Port, timeout)
	if err != nil {
		return err
	}
	s.conn = conn
	s.setState(StateTCPConnected)

	if err := rtmp.PerformClientHandshake(conn); err != nil {
		s.abort()
		return err
	}
	s.setState(StateHandshakeDone)

	if err := s.runConnectSequence(); err != nil {
		s.abort()
		return err
	}

	s.setState(StateStreaming)
	go s.readLoop()
	go s.writeLoop()
	go s.keepaliveLoop()
	return nil
}

func (s *Session) abort() {
	s.conn.Close()
	s.setState(StateDisconnected)
}

// runConnectSequence drives connect → releaseStream/FCPublish →
// createStream → publish synchronously, reading and dispatching responses
// directly (the reader/writer goroutines start only once this returns).
func (s *Session) runConnectSequence() error {
	connectBody, connectTxn, err := s.cmdBuilder.buildConnect(s.target)
	if err != nil {
		return err
	}
	if err := s.sendCommand(commandChunkStreamID, 0, connectBody); err != nil {
		return err
	}
	if err := s.awaitResult(connectTxn); err != nil {
		return err
	}
	s.setState(StateNetConnectOK)

	if err := s.writeRaw(commandChunkStreamID, rtmp.MessageTypeSetChunkSize, 0,
		rtmp.CreateSetChunkSize(uint32(s.cfg.OutChunkSize))); err != nil {
		return err
	}
	s.chunkWriter.SetChunkSize(uint32(s.cfg.OutChunkSize))
	if err := s.writeRaw(commandChunkStreamID, rtmp.MessageTypeWinAckSize, 0,
		rtmp.CreateWindowAckSize(uint32(s.cfg.WindowAckSize))); err != nil {
		return err
	}

	relBody, _, err := s.cmdBuilder.buildReleaseStream(s.target.StreamKey)
	if err != nil {
		return err
	}
	if err := s.sendCommand(commandChunkStreamID, 0, relBody); err != nil {
		return err
	}

	fcBody, _, err := s.cmdBuilder.buildFCPublish(s.target.StreamKey)
	if err != nil {
		return err
	}
	if err := s.sendCommand(commandChunkStreamID, 0, fcBody); err != nil {
		return err
	}

	csBody, csTxn, err := s.cmdBuilder.buildCreateStream()
	if err != nil {
		return err
	}
	if err := s.sendCommand(commandChunkStreamID, 0, csBody); err != nil {
		return err
	}
	cmd, err := s.awaitCommandResult(csTxn)
	if err != nil {
		return err
	}
	s.streamID = 1
	for _, v := range cmd.Values {
		if n, ok := v.(float64); ok {
			s.streamID = n
		}
	}
	s.setState(StateStreamCreated)

	pubBody, err := s.cmdBuilder.buildPublish(s.target.StreamKey)
	if err != nil {
		return err
	}
	if err := s.writeRaw(publishChunkStreamID, rtmp.MessageTypeCommandAMF0, 0, pubBody); err != nil {
		return err
	}
	return s.awaitPublishStart()
}

func (s *Session) sendCommand(csID uint32, streamID uint32, body []byte) error {
	return s.writeRaw(csID, rtmp.MessageTypeCommandAMF0, streamID, body)
}

func (s *Session) writeRaw(csID uint32, msgType byte, streamID uint32, body []byte) error {
	deadline := time.Now().Add(time.Duration(s.cfg.CommandTimeoutMS) * time.Millisecond)
	s.conn.SetWriteDeadline(deadline)
	if err := s.chunkWriter.WriteMessage(s.conn.Underlying(), csID, msgType, 0, streamID, body); err != nil {
		return err
	}
	s.recordBytesSent(len(body))
	return nil
}

// recordBytesSent updates both the telemetry counter and the window-ack
// budget counter; the latter is reset to 0 whenever the peer acknowledges.
func (s *Session) recordBytesSent(n int) {
	s.stats.addBytesSent(n)
	s.bytesSinceAck.Add(uint32(n))
}

// windowBudgetExceeded reports whether the session has sent as many bytes
// as the peer's announced window without an intervening Acknowledgement. A
// zero window never blocks the writer; the window starts at the configured
// WindowAckSize, so it is zero only if the peer announces a size of 0.
func (s *Session) windowBudgetExceeded() bool {
	remote := s.remoteWindowAckSize.Load()
	return remote > 0 && s.bytesSinceAck.Load() >= remote
}

// readCommandSync reads raw chunks synchronously (used only during the
// pre-STREAMING handshake/connect phase, before the reader goroutine
// starts) until a full AMF0 command message is reassembled.
func (s *Session) readCommandSync() (*amf0.Command, error) {
	for {
		deadline := time.Now().Add(time.Duration(s.cfg.CommandTimeoutMS) * time.Millisecond)
		s.conn.Underlying().SetReadDeadline(deadline)
		csID, err := s.chunkParser.ReadChunk(s.conn.Underlying())
		if err != nil {
			return nil, err
		}
		body, msgType, _, _, complete := s.chunkParser.GetCompleteMessage(csID)
		if !complete {
			continue
		}
		switch msgType {
		case rtmp.MessageTypeSetChunkSize:
			if size, err := rtmp.ParseSetChunkSize(body); err == nil {
				s.chunkParser.SetChunkSize(size)
			}
		case rtmp.MessageTypeSetPeerBandwidth:
			if err := s.writeRaw(protocolControlChunkStreamID, rtmp.MessageTypeWinAckSize, 0,
				rtmp.CreateWindowAckSize(uint32(s.cfg.WindowAckSize))); err != nil {
				return nil, err
			}
		case rtmp.MessageTypeWinAckSize:
			if size, err := rtmp.ParseWindowAckSize(body); err == nil {
				s.remoteWindowAckSize.Store(size)
			}
		case rtmp.MessageTypeAck:
			s.bytesSinceAck.Store(0)
		case rtmp.MessageTypeAbortMessage:
			if csID, err := rtmp.ParseAbortMessage(body); err == nil {
				s.chunkParser.DiscardChunkStream(csID)
			}
		case rtmp.MessageTypeUserCtrl:
			// no action required before STREAMING
		case rtmp.MessageTypeCommandAMF0:
			cmd, err := amf0.DecodeCommand(bytes.NewReader(body))
			if err != nil {
				log.Debugf("session: command decode error: %v", err)
				continue
			}
			return cmd, nil
		}
	}
}

func (s *Session) awaitResult(wantTxn float64) error {
	cmd, err := s.readCommandSync()
	if err != nil {
		return err
	}
	return checkResult(cmd, wantTxn)
}

func (s *Session) awaitCommandResult(wantTxn float64) (*amf0.Command, error) {
	for {
		cmd, err := s.readCommandSync()
		if err != nil {
			return nil, err
		}
		if cmd.Name == cmdResult && cmd.TxnID == wantTxn {
			return cmd, nil
		}
		if cmd.Name == cmdError && cmd.TxnID == wantTxn {
			return nil, &ProtocolError{Kind: ProtocolCommandRejected, Reason: commandErrorReason(cmd)}
		}
	}
}

func checkResult(cmd *amf0.Command, wantTxn float64) error {
	if cmd.Name == cmdError && cmd.TxnID == wantTxn {
		return &ProtocolError{Kind: ProtocolCommandRejected, Reason: commandErrorReason(cmd)}
	}
	if cmd.Name != cmdResult || cmd.TxnID != wantTxn {
		return &ProtocolError{Kind: ProtocolUnexpectedMessage}
	}
	return nil
}

func commandErrorReason(cmd *amf0.Command) string {
	for _, v := range cmd.Values {
		if obj, ok := v.(*amf0.Object); ok {
			if desc, ok := obj.Get("description"); ok {
				if str, ok := desc.(string); ok {
					return str
				}
			}
		}
	}
	return fmt.Sprintf("%s rejected", cmd.Name)
}

func (s *Session) awaitPublishStart() error {
	for {
		cmd, err := s.readCommandSync()
		if err != nil {
			return err
		}
		if cmd.Name != cmdOnStatus {
			continue
		}
		switch onStatusCode(cmd) {
		case "NetStream.Publish.Start":
			return nil
		case "NetStream.Publish.BadName", "NetStream.Publish.Failed", "NetStream.Publish.Denied":
			return &ProtocolError{Kind: ProtocolCommandRejected, Reason: onStatusCode(cmd)}
		}
	}
}

func onStatusCode(cmd *amf0.Command) string {
	for _, v := range cmd.Values {
		if obj, ok := v.(*amf0.Object); ok {
			if code, ok := obj.Get("code"); ok {
				if str, ok := code.(string); ok {
					return str
				}
			}
		}
	}
	return ""
}

// Disconnect requests an orderly shutdown: best-effort FCUnpublish and
// deleteStream, then closes the socket. Safe to call more than once.
func (s *Session) Disconnect() {
	s.closeOne.Do(func() {
		s.setState(StateClosing)
		if s.conn != nil {
			if body, err := s.cmdBuilder.buildFCUnpublish(s.target.StreamKey); err == nil {
				s.conn.SetWriteDeadline(time.Now().Add(time.Second))
				_ = s.chunkWriter.WriteMessage(s.conn.Underlying(), commandChunkStreamID, rtmp.MessageTypeCommandAMF0, 0, 0, body)
			}
			if body, err := s.cmdBuilder.buildDeleteStream(s.streamID); err == nil {
				s.conn.SetWriteDeadline(time.Now().Add(time.Second))
				_ = s.chunkWriter.WriteMessage(s.conn.Underlying(), commandChunkStreamID, rtmp.MessageTypeCommandAMF0, 0, 0, body)
			}
			s.conn.Close()
		}
		s.setState(StateDisconnected)
		close(s.done)
	})
}

// fail records a fatal error, transitions to CLOSING, and tears down the
// connection. Called from the writer or reader goroutine.
func (s *Session) fail(err error) {
	s.closeOne.Do(func() {
		s.closeErr = err
		s.setState(StateClosing)
		if s.conn != nil {
			s.conn.Close()
		}
		s.setState(StateDisconnected)
		close(s.done)
	})
}

// Err returns the error that ended the session, if it ended abnormally.
func (s *Session) Err() error {
	return s.closeErr
}

// Done returns a channel closed when the session has finished, either via
// Disconnect or a fatal error.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) wakeWriter() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// writeMediaFrame enforces the monotonic-timestamp invariant per chunk
// stream (ts = max(ts, last_ts + 1)) and writes the frame.
func (s *Session) writeMediaFrame(f *queue.Frame, csID uint32, msgType byte, kind queue.Kind) {
	ts := s.nextTimestamp(csID, f.TimestampMS)

	deadline := time.Now().Add(time.Duration(s.cfg.ReadTimeoutMS) * time.Millisecond)
	s.conn.SetWriteDeadline(deadline)
	err := s.chunkWriter.WriteMessage(s.conn.Underlying(), csID, msgType, ts, uint32(s.streamID), f.Payload)
	if err != nil {
		queue.ReleaseFrame(f)
		s.fail(err)
		return
	}
	s.recordBytesSent(len(f.Payload))
	s.stats.addFrameSent(backpressureKindFor(kind))
	queue.ReleaseFrame(f)
}

func backpressureKindFor(kind queue.Kind) BackpressureKind {
	if kind == queue.KindAudio {
		return BackpressureAudio
	}
	return BackpressureVideo
}

func (s *Session) nextTimestamp(csID uint32, wantTS uint32) uint32 {
	s.tsMu.Lock()
	defer s.tsMu.Unlock()
	last, ok := s.lastTimestamp[csID]
	ts := wantTS
	if ok && ts <= last {
		ts = last + 1
	}
	s.lastTimestamp[csID] = ts
	return ts
}

// writeLoop is the session's sole socket writer once STREAMING begins: it
// drains queued media frames and forwards protocol-control replies the
// reader discovered, until Disconnect or fail closes done.
func (s *Session) writeLoop() {
	for {
		select {
		case <-s.done:
			return
		case out := <-s.outCtrl:
			if err := s.writeRaw(out.csID, out.msgType, 0, out.body); err != nil {
				s.fail(err)
				return
			}
		case <-s.wake:
			for s.drainFrame() {
				select {
				case <-s.done:
					return
				default:
				}
			}
		}
	}
}

// readLoop is the session's sole socket reader once STREAMING begins.
func (s *Session) readLoop() {
	for {
		select {
		case <-s.done:
			return
		default:
		}

		deadline := time.Now().Add(time.Duration(s.cfg.ReadTimeoutMS) * time.Millisecond)
		s.conn.Underlying().SetReadDeadline(deadline)
		csID, err := s.chunkParser.ReadChunk(s.conn.Underlying())
		if err != nil {
			s.fail(err)
			return
		}
		body, msgType, timestamp, _, complete := s.chunkParser.GetCompleteMessage(csID)
		if !complete {
			continue
		}
		s.handleInbound(msgType, timestamp, body)
	}
}

func (s *Session) handleInbound(msgType byte, timestamp uint32, body []byte) {
	switch msgType {
	case rtmp.MessageTypeSetChunkSize:
		if size, err := rtmp.ParseSetChunkSize(body); err == nil {
			s.chunkParser.SetChunkSize(size)
		}
	case rtmp.MessageTypeSetPeerBandwidth:
		s.postCtrl(protocolControlChunkStreamID, rtmp.MessageTypeWinAckSize,
			rtmp.CreateWindowAckSize(uint32(s.cfg.WindowAckSize)))
	case rtmp.MessageTypeWinAckSize:
		if size, err := rtmp.ParseWindowAckSize(body); err == nil {
			s.remoteWindowAckSize.Store(size)
		}
	case rtmp.MessageTypeAck:
		s.bytesSinceAck.Store(0)
		s.wakeWriter()
	case rtmp.MessageTypeAbortMessage:
		if csID, err := rtmp.ParseAbortMessage(body); err == nil {
			s.chunkParser.DiscardChunkStream(csID)
		}
	case rtmp.MessageTypeUserCtrl:
		eventType, data, err := rtmp.ParseUserControl(body)
		if err != nil {
			return
		}
		if eventType == rtmp.ControlPingResponse {
			s.missedPings.Store(0)
			return
		}
		if eventType == rtmp.ControlPingRequest && len(data) >= 4 {
			s.postCtrl(protocolControlChunkStreamID, rtmp.MessageTypeUserCtrl, rtmp.CreatePingResponse(binary.BigEndian.Uint32(data[0:4])))
		}
	case rtmp.MessageTypeCommandAMF0:
		cmd, err := amf0.DecodeCommand(bytes.NewReader(body))
		if err != nil {
			log.Debugf("session: command decode error: %v", err)
			return
		}
		if cmd.Name == cmdOnStatus {
			if code := onStatusCode(cmd); code == "NetStream.Publish.BadName" || code == "NetStream.Unpublish.Success" {
				s.fail(&ProtocolError{Kind: ProtocolCommandRejected, Reason: code})
			}
		}
	}
}

func (s *Session) postCtrl(csID uint32, msgType byte, body []byte) {
	select {
	case s.outCtrl <- rawOut{csID: csID, msgType: msgType, body: body}:
	case <-s.done:
	}
}
