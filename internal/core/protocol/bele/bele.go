// This file provides big-endian field helpers for wire formats
// that don't have a native width in encoding/binary — 24-bit timestamps and
// lengths show up throughout RTMP chunk and FLV tag framing.

package bele

// BeUint24 decodes a 3-byte big-endian unsigned integer.
func BeUint24(p []byte) uint32 {
	_ = p[2]
	return uint32(p[0])<<16 | uint32(p[1])<<8 | uint32(p[2])
}

// PutBeUint24 encodes v into the low 24 bits of p as big-endian.
// The high byte of v is discarded by the caller's convention (RTMP
// callers write 0xFFFFFF as a sentinel and carry the overflow in an
// extended timestamp field).
func PutBeUint24(p []byte, v uint32) {
	_ = p[2]
	p[0] = byte(v >> 16)
	p[1] = byte(v >> 8)
	p[2] = byte(v)
}
