// This file builds video/audio tag bodies
// for RTMP message payloads. No FLV container framing here — these bytes
// go straight into a chunk.Message body, not into a recorded .flv file.

package flv

// VideoTagBody builds an RTMP video message body: frame-type/codec-id
// byte, then (for AVC) packet type + 3-byte composition time, then the
// raw payload. JPEG frames carry only the frame-type/codec-id byte.
func VideoTagBody(codecID byte, isKeyframe bool, isSequenceHeader bool, compositionTime int32, payload []byte) []byte {
	frameType := byte(VideoFrameInterFrame)
	if isKeyframe {
		frameType = VideoFrameKeyFrame
	}
	header := frameType<<4 | codecID

	if codecID != VideoCodecAVC {
		body := make([]byte, 1+len(payload))
		body[0] = header
		copy(body[1:], payload)
		return body
	}

	packetType := byte(AVCPacketTypeNALU)
	if isSequenceHeader {
		packetType = AVCPacketTypeSequenceHeader
	}

	body := make([]byte, 5+len(payload))
	body[0] = header
	body[1] = packetType
	body[2] = byte(compositionTime >> 16)
	body[3] = byte(compositionTime >> 8)
	body[4] = byte(compositionTime)
	copy(body[5:], payload)
	return body
}

// AudioTagBody builds an RTMP audio message body: format/rate/size/channel
// byte, then (for AAC) a packet type byte, then the raw payload.
func AudioTagBody(format, rate, size, channels byte, isSequenceHeader bool, payload []byte) []byte {
	header := format<<4 | rate<<2 | size<<1 | channels

	if format != AudioFormatAAC {
		body := make([]byte, 1+len(payload))
		body[0] = header
		copy(body[1:], payload)
		return body
	}

	packetType := byte(AACPacketTypeRaw)
	if isSequenceHeader {
		packetType = AACPacketTypeSequenceHeader
	}

	body := make([]byte, 2+len(payload))
	body[0] = header
	body[1] = packetType
	copy(body[2:], payload)
	return body
}
