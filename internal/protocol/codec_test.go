package protocol

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/andybalholm/brotli"
)

// buildPacket 构造任意版本号的逻辑包
func buildPacket(op uint32, ver uint16, payload []byte) []byte {
	buf := make([]byte, HeaderSize+len(payload))
	binary.BigEndian.PutUint32(buf[0:4], uint32(HeaderSize+len(payload)))
	binary.BigEndian.PutUint16(buf[4:6], HeaderSize)
	binary.BigEndian.PutUint16(buf[6:8], ver)
	binary.BigEndian.PutUint32(buf[8:12], op)
	binary.BigEndian.PutUint32(buf[12:16], 1)
	copy(buf[HeaderSize:], payload)
	return buf
}

func zlibCompress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}
	return buf.Bytes()
}

func brotliCompress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("brotli write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("brotli close: %v", err)
	}
	return buf.Bytes()
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := []byte(`{"uid":1,"roomid":2}`)

	frame, err := EncodePacket(OpAuth, payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	pkts, n, err := Decode(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != len(frame) {
		t.Fatalf("consumed %d, want %d", n, len(frame))
	}
	if len(pkts) != 1 {
		t.Fatalf("got %d packets, want 1", len(pkts))
	}
	if pkts[0].Op != OpAuth {
		t.Fatalf("op = %d, want %d", pkts[0].Op, OpAuth)
	}
	if !bytes.Equal(pkts[0].Payload, payload) {
		t.Fatalf("payload mismatch: %q vs %q", pkts[0].Payload, payload)
	}
}

func TestEncodeOversizePayload(t *testing.T) {
	_, err := EncodePacket(OpHeartbeat, make([]byte, MaxControlPayload+1))
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("err = %v, want ErrPayloadTooLarge", err)
	}
}

func TestDecodeConcatenatedPackets(t *testing.T) {
	first := buildPacket(OpSendMsg, VerPlain, []byte("first"))
	second := buildPacket(OpSendMsgAll, VerPlain, []byte("second"))
	buf := append(append([]byte{}, first...), second...)

	pkts, n, err := Decode(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("consumed %d, want %d", n, len(buf))
	}
	if len(pkts) != 2 {
		t.Fatalf("got %d packets, want 2", len(pkts))
	}
	if string(pkts[0].Payload) != "first" || string(pkts[1].Payload) != "second" {
		t.Fatalf("order or payload mismatch: %q, %q", pkts[0].Payload, pkts[1].Payload)
	}
}

func TestDecodeZlibNested(t *testing.T) {
	inner := append(
		buildPacket(OpSendMsg, VerPlain, []byte("danmu")),
		buildPacket(OpSendMsg, VerPlain, []byte("gift"))...,
	)
	outer := buildPacket(OpSendMsg, VerZlib, zlibCompress(t, inner))

	pkts, n, err := Decode(outer)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != len(outer) {
		t.Fatalf("consumed %d, want %d", n, len(outer))
	}
	if len(pkts) != 2 {
		t.Fatalf("got %d packets, want 2", len(pkts))
	}
	if string(pkts[0].Payload) != "danmu" || string(pkts[1].Payload) != "gift" {
		t.Fatalf("order or payload mismatch: %q, %q", pkts[0].Payload, pkts[1].Payload)
	}
}

func TestDecodeBrotliNested(t *testing.T) {
	inner := buildPacket(OpSendMsg, VerPlain, []byte("danmu"))
	outer := buildPacket(OpSendMsg, VerBrotli, brotliCompress(t, inner))

	pkts, _, err := Decode(outer)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(pkts) != 1 || string(pkts[0].Payload) != "danmu" {
		t.Fatalf("unexpected result: %+v", pkts)
	}
}

func TestDecodeMixedCompressedAndPlain(t *testing.T) {
	inner := buildPacket(OpSendMsg, VerPlain, []byte("a"))
	compressed := buildPacket(OpSendMsg, VerZlib, zlibCompress(t, inner))
	plain := buildPacket(OpHeartbeatReply, VerControl, []byte{0, 0, 0, 9})
	buf := append(append([]byte{}, compressed...), plain...)

	pkts, _, err := Decode(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(pkts) != 2 {
		t.Fatalf("got %d packets, want 2", len(pkts))
	}
	if string(pkts[0].Payload) != "a" || pkts[1].Op != OpHeartbeatReply {
		t.Fatalf("order mismatch: %+v", pkts)
	}
}

func TestDecodeIncomplete(t *testing.T) {
	full := buildPacket(OpSendMsg, VerPlain, []byte("payload"))

	// 头部声明的长度超过可用字节：不产出任何包，也不消耗字节
	pkts, n, err := Decode(full[:len(full)-3])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(pkts) != 0 || n != 0 {
		t.Fatalf("got %d packets consumed %d, want 0/0", len(pkts), n)
	}

	// 不足一个头部
	pkts, n, err = Decode(full[:HeaderSize-1])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(pkts) != 0 || n != 0 {
		t.Fatalf("got %d packets consumed %d, want 0/0", len(pkts), n)
	}
}

func TestDecodeIncompleteAfterCompletePacket(t *testing.T) {
	first := buildPacket(OpSendMsg, VerPlain, []byte("done"))
	second := buildPacket(OpSendMsg, VerPlain, []byte("partial"))
	buf := append(append([]byte{}, first...), second[:HeaderSize+2]...)

	pkts, n, err := Decode(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(pkts) != 1 || string(pkts[0].Payload) != "done" {
		t.Fatalf("unexpected packets: %+v", pkts)
	}
	if n != len(first) {
		t.Fatalf("consumed %d, want %d", n, len(first))
	}
}

func TestDecodeCorruptHeader(t *testing.T) {
	frame := buildPacket(OpSendMsg, VerPlain, []byte("x"))

	// header_length 不是 16
	bad := append([]byte{}, frame...)
	binary.BigEndian.PutUint16(bad[4:6], 8)
	if _, _, err := Decode(bad); !errors.Is(err, ErrCorruptFrame) {
		t.Fatalf("err = %v, want ErrCorruptFrame", err)
	}

	// pack_length 小于头部长度
	bad = append([]byte{}, frame...)
	binary.BigEndian.PutUint32(bad[0:4], HeaderSize-1)
	if _, _, err := Decode(bad); !errors.Is(err, ErrCorruptFrame) {
		t.Fatalf("err = %v, want ErrCorruptFrame", err)
	}
}

func TestDecodeCorruptCompressed(t *testing.T) {
	// 压缩位设置但负载不是合法 zlib 流
	bad := buildPacket(OpSendMsg, VerZlib, []byte("not zlib at all"))
	if _, _, err := Decode(bad); !errors.Is(err, ErrCorruptFrame) {
		t.Fatalf("err = %v, want ErrCorruptFrame", err)
	}
}

func TestDecodeTruncatedInsideCompressedBlock(t *testing.T) {
	inner := buildPacket(OpSendMsg, VerPlain, []byte("whole"))
	truncated := inner[:len(inner)-2]
	outer := buildPacket(OpSendMsg, VerZlib, zlibCompress(t, truncated))

	if _, _, err := Decode(outer); !errors.Is(err, ErrCorruptFrame) {
		t.Fatalf("err = %v, want ErrCorruptFrame", err)
	}
}

func TestDecodeNestedDepthLimit(t *testing.T) {
	// 超过深度上限的嵌套压缩应判定为损坏帧
	buf := buildPacket(OpSendMsg, VerPlain, []byte("core"))
	for i := 0; i <= MaxInflateDepth+1; i++ {
		buf = buildPacket(OpSendMsg, VerZlib, zlibCompress(t, buf))
	}

	if _, _, err := Decode(buf); !errors.Is(err, ErrCorruptFrame) {
		t.Fatalf("err = %v, want ErrCorruptFrame", err)
	}
}
