// This file implements a synthetic camera/microphone pair for exercising a
// session without real capture hardware: fixed-cadence placeholder frames,
// useful for smoke-testing a publish target and for the CLI's --synthetic
// mode.

package producer

import (
	"context"
	"time"

	"campublish/internal/core/protocol/flv"
	"campublish/internal/core/session"
)

// Synthetic drives a *session.Session with placeholder video and audio
// frames on fixed intervals, standing in for a camera/mic pipeline.
type Synthetic struct {
	sess      *session.Session
	videoFPS  int
	audioRate int // frames per second, e.g. 50 for 20ms AAC frames
}

// NewSynthetic creates a producer targeting sess at videoFPS frames/sec of
// video and audioFPS frames/sec of audio.
func NewSynthetic(sess *session.Session, videoFPS, audioFPS int) *Synthetic {
	return &Synthetic{sess: sess, videoFPS: videoFPS, audioRate: audioFPS}
}

// Run emits frames until ctx is cancelled. It is meant to run in its own
// goroutine alongside the session's own reader/writer tasks.
func (p *Synthetic) Run(ctx context.Context) {
	videoTick := time.NewTicker(time.Second / time.Duration(p.videoFPS))
	audioTick := time.NewTicker(time.Second / time.Duration(p.audioRate))
	defer videoTick.Stop()
	defer audioTick.Stop()

	start := time.Now()
	frameIndex := 0

	// AVC sequence header (SPS/PPS) must precede the first NALU per the
	// codec's own framing rules, independent of anything RTMP-specific.
	p.sess.SubmitVideo(avcSequenceHeaderPlaceholder, flv.VideoCodecAVC, true, true, 0)
	p.sess.SubmitAudio(aacSequenceHeaderPlaceholder, flv.AudioFormatAAC, flv.AudioRate44kHz, flv.AudioSize16Bit, flv.AudioStereo, true, 0)

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-videoTick.C:
			ts := uint32(t.Sub(start).Milliseconds())
			isKeyframe := frameIndex%int(p.videoFPS*2) == 0
			p.sess.SubmitVideo(avcFramePlaceholder, flv.VideoCodecAVC, isKeyframe, false, ts)
			frameIndex++
		case t := <-audioTick.C:
			ts := uint32(t.Sub(start).Milliseconds())
			p.sess.SubmitAudio(aacFramePlaceholder, flv.AudioFormatAAC, flv.AudioRate44kHz, flv.AudioSize16Bit, flv.AudioStereo, false, ts)
		}
	}
}

// Placeholder payloads: minimal, fixed byte strings standing in for a real
// encoder's bitstream output. A real producer replaces these with AVC NALUs
// (length-prefixed per the AVCDecoderConfigurationRecord already sent in
// the sequence header) and AAC raw frames.
var (
	avcSequenceHeaderPlaceholder = []byte{0x01, 0x42, 0x00, 0x1e, 0xff, 0xe1, 0x00, 0x00}
	avcFramePlaceholder          = []byte{0x00, 0x00, 0x00, 0x04, 0x65, 0x88, 0x84, 0x00}
	aacSequenceHeaderPlaceholder = []byte{0x12, 0x10}
	aacFramePlaceholder          = []byte{0x21, 0x19, 0x56, 0xe5}
)
