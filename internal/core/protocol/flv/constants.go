// This file defines the tag-body constants the muxer uses to label
// video/audio payloads. This package builds RTMP message bodies only — it
// has no file-container concerns (no FLV header, no previous-tag-size
// field); those belong to a recording pipeline this client does not
// implement.

package flv

// Video codec ids, per the FLV VideoTagHeader CodecID field. JPEG (2) is
// not a standard slot most ingests accept; the core carries whatever the
// producer hands it rather than rewriting it.
const (
	VideoCodecJPEG = 2
	VideoCodecAVC  = 7
)

// Video frame types.
const (
	VideoFrameKeyFrame   = 1
	VideoFrameInterFrame = 2
)

// AVCPacketType values for the byte following an AVC video tag's
// frame-type/codec-id byte.
const (
	AVCPacketTypeSequenceHeader = 0
	AVCPacketTypeNALU           = 1
)

// Audio format ids, per the FLV AudioTagHeader SoundFormat field.
const (
	AudioFormatPCM = 3
	AudioFormatAAC = 10
)

// Audio sample rate codes. RTMP's 2-bit rate field cannot express 16 kHz;
// callers publishing 16 kHz PCM must accept rate=0 and rely on the ingest
// to resample.
const (
	AudioRate5_5kHz = 0
	AudioRate11kHz  = 1
	AudioRate22kHz  = 2
	AudioRate44kHz  = 3
)

// Audio sample size codes.
const (
	AudioSize8Bit  = 0
	AudioSize16Bit = 1
)

// Audio channel codes.
const (
	AudioMono   = 0
	AudioStereo = 1
)

// AACPacketType values for the byte following an AAC audio tag's format
// byte.
const (
	AACPacketTypeSequenceHeader = 0
	AACPacketTypeRaw            = 1
)

// IsVideoKeyframe reports whether a video tag body's leading byte marks a
// keyframe: upper nibble is the frame type.
func IsVideoKeyframe(body []byte) bool {
	return len(body) >= 1 && (body[0]>>4) == VideoFrameKeyFrame
}
