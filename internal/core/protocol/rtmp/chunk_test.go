package rtmp

import (
	"bytes"
	"testing"
)

func TestChunkWriterSplitsLargeMessage(t *testing.T) {
	cw := NewChunkWriter()
	cw.SetChunkSize(128)

	body := make([]byte, 300)
	for i := range body {
		body[i] = byte(i)
	}

	var buf bytes.Buffer
	if err := cw.WriteMessage(&buf, 3, MessageTypeCommandAMF0, 0, 0, body); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	data := buf.Bytes()
	if data[0]>>6 != ChunkFmt0 || data[0]&0x3F != 3 {
		t.Fatalf("first basic header = %#x, want fmt0/csID3", data[0])
	}
	offset := 1 + 11
	payload1 := data[offset : offset+128]
	offset += 128
	if len(payload1) != 128 {
		t.Fatalf("first chunk payload = %d bytes, want 128", len(payload1))
	}

	if data[offset]>>6 != ChunkFmt3 {
		t.Fatalf("second chunk fmt = %d, want 3", data[offset]>>6)
	}
	offset++
	payload2 := data[offset : offset+128]
	offset += 128
	if len(payload2) != 128 {
		t.Fatalf("second chunk payload = %d bytes, want 128", len(payload2))
	}

	if data[offset]>>6 != ChunkFmt3 {
		t.Fatalf("third chunk fmt = %d, want 3", data[offset]>>6)
	}
	offset++
	payload3 := data[offset:]
	if len(payload3) != 44 {
		t.Fatalf("third chunk payload = %d bytes, want 44", len(payload3))
	}

	reassembled := append(append(append([]byte{}, payload1...), payload2...), payload3...)
	if !bytes.Equal(reassembled, body) {
		t.Fatal("reassembled payload does not match original body")
	}
}

func TestChunkWriterExtendedTimestampRollover(t *testing.T) {
	cw := NewChunkWriter()
	var buf bytes.Buffer
	ts := uint32(0x1000000)
	if err := cw.WriteMessage(&buf, 4, MessageTypeVideo, ts, 1, []byte{0xAA}); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	data := buf.Bytes()
	if !bytes.Equal(data[1:4], []byte{0xFF, 0xFF, 0xFF}) {
		t.Fatalf("timestamp field = % x, want ff ff ff", data[1:4])
	}
	want := []byte{0x01, 0x00, 0x00, 0x00}
	if !bytes.Equal(data[12:16], want) {
		t.Fatalf("extended timestamp field = % x, want % x", data[12:16], want)
	}

	parser := NewChunkParser()
	csID, err := parser.ReadChunk(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadChunk: %v", err)
	}
	body, msgType, timestamp, streamID, complete := parser.GetCompleteMessage(csID)
	if !complete {
		t.Fatal("message not complete after one chunk")
	}
	if timestamp != ts {
		t.Fatalf("timestamp = %#x, want %#x", timestamp, ts)
	}
	if msgType != MessageTypeVideo || streamID != 1 {
		t.Fatalf("msgType/streamID = %d/%d, want %d/1", msgType, streamID, MessageTypeVideo)
	}
	if !bytes.Equal(body, []byte{0xAA}) {
		t.Fatalf("body = % x, want aa", body)
	}
}

func TestChunkWriterCompressesHeaderWhenUnchanged(t *testing.T) {
	cw := NewChunkWriter()
	var buf bytes.Buffer
	body := []byte{1, 2, 3, 4}

	if err := cw.WriteMessage(&buf, 5, MessageTypeAudio, 0, 1, body); err != nil {
		t.Fatalf("first WriteMessage: %v", err)
	}
	firstLen := buf.Len()
	if err := cw.WriteMessage(&buf, 5, MessageTypeAudio, 20, 1, body); err != nil {
		t.Fatalf("second WriteMessage: %v", err)
	}
	second := buf.Bytes()[firstLen:]
	if second[0]>>6 != ChunkFmt2 {
		t.Fatalf("second message fmt = %d, want 2 (only timestamp changed)", second[0]>>6)
	}

	if err := cw.WriteMessage(&buf, 5, MessageTypeCommandAMF0, 40, 1, []byte{9, 9}); err != nil {
		t.Fatalf("third WriteMessage: %v", err)
	}
	third := buf.Bytes()[firstLen+len(second):]
	if third[0]>>6 != ChunkFmt1 {
		t.Fatalf("third message fmt = %d, want 1 (type and length changed)", third[0]>>6)
	}
}

func TestChunkParserAppliesSetChunkSize(t *testing.T) {
	cw := NewChunkWriter()
	cw.SetChunkSize(4)
	var buf bytes.Buffer
	body := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if err := cw.WriteMessage(&buf, 6, MessageTypeVideo, 0, 1, body); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	parser := NewChunkParser()
	parser.SetChunkSize(4)
	r := bytes.NewReader(buf.Bytes())
	for {
		csID, err := parser.ReadChunk(r)
		if err != nil {
			t.Fatalf("ReadChunk: %v", err)
		}
		got, _, _, _, complete := parser.GetCompleteMessage(csID)
		if complete {
			if !bytes.Equal(got, body) {
				t.Fatalf("reassembled body = % x, want % x", got, body)
			}
			return
		}
	}
}
