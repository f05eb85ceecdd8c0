// This file tests AMF0 encoding, especially command encoding.
package amf0

import (
	"bytes"
	"testing"
)

// TestEncodeValues_NoStrictArray verifies that EncodeValues writes items
// sequentially without wrapping them in a StrictArray (0x0A). RTMP command
// bodies must start with the first item's own type marker (e.g., 0x02 for
// string "_result").
func TestEncodeValues_NoStrictArray(t *testing.T) {
	body, err := EncodeValues(
		"_result",
		float64(1),
		NewObject(
			Pair{Key: "fmsVer", Value: "FMS/3,0,1,123"},
			Pair{Key: "capabilities", Value: float64(31)},
		),
		NewObject(
			Pair{Key: "level", Value: "status"},
			Pair{Key: "code", Value: "NetConnection.Connect.Success"},
			Pair{Key: "description", Value: "Connection succeeded."},
		),
	)
	if err != nil {
		t.Fatalf("EncodeValues failed: %v", err)
	}
	if len(body) == 0 {
		t.Fatal("encoded body is empty")
	}

	firstByte := body[0]
	if firstByte == TypeStrictArray {
		t.Fatalf("command encoding incorrectly wraps items in StrictArray (0x%02x)", TypeStrictArray)
	}
	if firstByte != TypeString {
		t.Fatalf("first byte should be 0x02 (TypeString), got 0x%02x", firstByte)
	}

	const want = "_result"
	if len(body) < 3+len(want) {
		t.Fatalf("encoded body too short: %d bytes", len(body))
	}
	if string(body[3:3+len(want)]) != want {
		t.Errorf("expected string %q after type marker, got %q", want, string(body[3:3+len(want)]))
	}
}

// TestEncodeValues_CreateStreamResult verifies createStream _result encoding
// carries the stream id as a plain trailing Number, not hardcoded elsewhere.
func TestEncodeValues_CreateStreamResult(t *testing.T) {
	body, err := EncodeValues("_result", float64(2), Null{}, float64(7))
	if err != nil {
		t.Fatalf("EncodeValues failed: %v", err)
	}
	if body[0] == TypeStrictArray {
		t.Fatal("command encoding incorrectly wraps items in StrictArray")
	}
	if body[0] != TypeString {
		t.Fatalf("first byte should be 0x02 (TypeString), got 0x%02x", body[0])
	}

	cmd, err := DecodeCommand(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("DecodeCommand failed: %v", err)
	}
	if cmd.Name != "_result" || cmd.TxnID != 2 {
		t.Fatalf("unexpected command header: %+v", cmd)
	}
	if len(cmd.Values) != 2 {
		t.Fatalf("expected 2 trailing values, got %d", len(cmd.Values))
	}
	if _, ok := cmd.Values[0].(Null); !ok {
		t.Fatalf("expected Null command object, got %T", cmd.Values[0])
	}
	streamID, ok := cmd.Values[1].(float64)
	if !ok || streamID != 7 {
		t.Fatalf("expected stream id 7, got %v", cmd.Values[1])
	}
}

// TestObjectPropertyOrderPreserved guards the ordering invariant some
// ingests rely on for the connect command object.
func TestObjectPropertyOrderPreserved(t *testing.T) {
	obj := NewObject(
		Pair{Key: "app", Value: "live"},
		Pair{Key: "flashVer", Value: "FMLE/3.0 (compatible; Lavf)"},
		Pair{Key: "tcUrl", Value: "rtmp://example.com/live"},
	)

	var buf bytes.Buffer
	if err := Encode(&buf, obj); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	got, ok := decoded.(*Object)
	if !ok {
		t.Fatalf("expected *Object, got %T", decoded)
	}
	want := []string{"app", "flashVer", "tcUrl"}
	if len(got.Pairs) != len(want) {
		t.Fatalf("expected %d properties, got %d", len(want), len(got.Pairs))
	}
	for i, key := range want {
		if got.Pairs[i].Key != key {
			t.Fatalf("property %d: expected key %q, got %q", i, key, got.Pairs[i].Key)
		}
	}
}

// TestRoundTripValues checks that every supported value kind survives an
// encode/decode cycle unchanged.
func TestRoundTripValues(t *testing.T) {
	longString := bytes.Repeat([]byte("x"), 70000)

	cases := []struct {
		name string
		val  Value
	}{
		{"number", float64(3.5)},
		{"negative number", float64(-42)},
		{"zero", float64(0)},
		{"bool true", true},
		{"bool false", false},
		{"short string", "hello"},
		{"empty string", ""},
		{"long string", string(longString)},
		{"null", Null{}},
		{"undefined", Undefined{}},
		{"object", NewObject(Pair{Key: "a", Value: float64(1)}, Pair{Key: "b", Value: "two"})},
		{"ecma array", &EcmaArray{Pairs: []Pair{{Key: "x", Value: true}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, tc.val); err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := Decode(&buf)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}

			switch want := tc.val.(type) {
			case *Object:
				gotObj, ok := got.(*Object)
				if !ok || len(gotObj.Pairs) != len(want.Pairs) {
					t.Fatalf("got %#v, want %#v", got, want)
				}
				for i := range want.Pairs {
					if gotObj.Pairs[i] != want.Pairs[i] {
						t.Fatalf("pair %d: got %#v, want %#v", i, gotObj.Pairs[i], want.Pairs[i])
					}
				}
			case *EcmaArray:
				gotArr, ok := got.(*EcmaArray)
				if !ok || len(gotArr.Pairs) != len(want.Pairs) {
					t.Fatalf("got %#v, want %#v", got, want)
				}
			default:
				if got != tc.val {
					t.Fatalf("got %#v, want %#v", got, tc.val)
				}
			}
		})
	}
}

// TestDecodeTruncationNeverPanics feeds every proper prefix of a valid
// command encoding back through DecodeCommand and checks that none of them
// panics; the returned command or error is not inspected.
func TestDecodeTruncationNeverPanics(t *testing.T) {
	full, err := EncodeValues(
		"connect",
		float64(1),
		NewObject(
			Pair{Key: "app", Value: "live"},
			Pair{Key: "flashVer", Value: "FMLE/3.0 (compatible; Lavf)"},
			Pair{Key: "tcUrl", Value: "rtmp://example.com/live"},
		),
	)
	if err != nil {
		t.Fatalf("EncodeValues: %v", err)
	}

	for n := 0; n < len(full); n++ {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("Decode panicked at truncation length %d: %v", n, r)
				}
			}()
			_, _ = DecodeCommand(bytes.NewReader(full[:n]))
		}()
	}
}

// TestEncodeDeterministic checks that encoding the same value twice
// produces byte-identical output.
func TestEncodeDeterministic(t *testing.T) {
	obj := NewObject(
		Pair{Key: "app", Value: "live"},
		Pair{Key: "objectEncoding", Value: float64(0)},
	)

	a, err := EncodeValues("connect", float64(1), obj)
	if err != nil {
		t.Fatalf("EncodeValues: %v", err)
	}
	b, err := EncodeValues("connect", float64(1), obj)
	if err != nil {
		t.Fatalf("EncodeValues: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("encoding the same value twice produced different output")
	}
}

// TestDecodeUnsupportedMarker checks that an unrecognized type marker is
// reported as a structured DecodeError carrying the offending byte.
func TestDecodeUnsupportedMarker(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte{0xff}))
	de, ok := err.(*DecodeError)
	if !ok {
		t.Fatalf("expected *DecodeError, got %T (%v)", err, err)
	}
	if de.Kind != ErrUnsupportedMarker || de.Marker != 0xff {
		t.Fatalf("expected UnsupportedMarker(0xff), got %+v", de)
	}
}
