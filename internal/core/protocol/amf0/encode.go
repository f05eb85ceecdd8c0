// This file implements the AMF0 encoder. One function per
// value variant; property ordering is explicit data (Object.Pairs), never
// code structure.

package amf0

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Encode writes a single AMF0 value to w in strict AMF0.
func Encode(w io.Writer, val Value) error {
	switch v := val.(type) {
	case nil:
		return encodeNull(w)
	case Null:
		return encodeNull(w)
	case Undefined:
		return encodeUndefined(w)
	case float64:
		return encodeNumber(w, v)
	case int:
		return encodeNumber(w, float64(v))
	case bool:
		return encodeBoolean(w, v)
	case string:
		return encodeString(w, v)
	case *Object:
		return encodeObject(w, v)
	case *EcmaArray:
		return encodeEcmaArray(w, v)
	default:
		return fmt.Errorf("amf0: unsupported value type %T", val)
	}
}

func writeMarker(w io.Writer, marker byte) error {
	_, err := w.Write([]byte{marker})
	return err
}

func encodeNumber(w io.Writer, num float64) error {
	if err := writeMarker(w, TypeNumber); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, num)
}

func encodeBoolean(w io.Writer, b bool) error {
	if err := writeMarker(w, TypeBoolean); err != nil {
		return err
	}
	val := byte(0)
	if b {
		val = 1
	}
	_, err := w.Write([]byte{val})
	return err
}

// encodeString chooses the short-string (0x02) or long-string (0x0C)
// marker by length.
func encodeString(w io.Writer, s string) error {
	if len(s) <= 0xFFFF {
		if err := writeMarker(w, TypeString); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, uint16(len(s))); err != nil {
			return err
		}
	} else {
		if err := writeMarker(w, TypeLongString); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, uint32(len(s))); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, s)
	return err
}

func encodeNull(w io.Writer) error {
	return writeMarker(w, TypeNull)
}

func encodeUndefined(w io.Writer) error {
	return writeMarker(w, TypeUndefined)
}

func writeKey(w io.Writer, key string) error {
	if err := binary.Write(w, binary.BigEndian, uint16(len(key))); err != nil {
		return err
	}
	_, err := io.WriteString(w, key)
	return err
}

func writeObjectEnd(w io.Writer) error {
	_, err := w.Write([]byte{0, 0, TypeObjectEnd})
	return err
}

func encodeObject(w io.Writer, obj *Object) error {
	if err := writeMarker(w, TypeObject); err != nil {
		return err
	}
	for _, p := range obj.Pairs {
		if err := writeKey(w, p.Key); err != nil {
			return err
		}
		if err := Encode(w, p.Value); err != nil {
			return err
		}
	}
	return writeObjectEnd(w)
}

func encodeEcmaArray(w io.Writer, arr *EcmaArray) error {
	if err := writeMarker(w, TypeECMAArray); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(arr.Pairs))); err != nil {
		return err
	}
	for _, p := range arr.Pairs {
		if err := writeKey(w, p.Key); err != nil {
			return err
		}
		if err := Encode(w, p.Value); err != nil {
			return err
		}
	}
	return writeObjectEnd(w)
}

// EncodeValues encodes a sequence of top-level values back to back — this
// is how an RTMP command body is built (command name, transaction id,
// command object, ...args), never wrapped in a strict array.
func EncodeValues(vals ...Value) ([]byte, error) {
	var buf bytes.Buffer
	for _, v := range vals {
		if err := Encode(&buf, v); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
