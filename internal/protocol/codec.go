package protocol

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
)

// EncodePacket 编码一个出站控制包（认证、心跳）。
// 客户端发出的控制包序列号对服务端无意义，固定为 1。
func EncodePacket(op uint32, payload []byte) ([]byte, error) {
	if len(payload) > MaxControlPayload {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}

	buf := make([]byte, HeaderSize+len(payload))
	binary.BigEndian.PutUint32(buf[0:4], uint32(HeaderSize+len(payload)))
	binary.BigEndian.PutUint16(buf[4:6], HeaderSize)
	binary.BigEndian.PutUint16(buf[6:8], VerControl)
	binary.BigEndian.PutUint32(buf[8:12], op)
	binary.BigEndian.PutUint32(buf[12:16], 1)
	copy(buf[HeaderSize:], payload)

	return buf, nil
}

// Decode 从 buf 头部开始解出尽可能多的完整逻辑包，按到达顺序返回，
// 同时返回顶层已消耗的字节数。末尾不足一个完整包的字节不计入消耗，
// 由调用方留存，等待下一个物理帧续传后重试。
//
// 压缩包（zlib/brotli）解压后是一串完整逻辑包，就地展开；展开结果
// 与明文包保持同一顺序排列。任何头部非法、解压失败或压缩块内
// 出现截断包的情况都返回 ErrCorruptFrame，调用方应丢弃整个缓冲。
func Decode(buf []byte) ([]Packet, int, error) {
	var pkts []Packet
	off := 0
	for off < len(buf) {
		n, err := decodeOne(buf[off:], &pkts, 0)
		if errors.Is(err, ErrIncompleteFrame) {
			return pkts, off, nil
		}
		if err != nil {
			return pkts, off, err
		}
		off += n
	}
	return pkts, off, nil
}

// decodeOne 解析 buf 开头的一个逻辑包，追加到 pkts，返回消耗的字节数。
func decodeOne(buf []byte, pkts *[]Packet, depth int) (int, error) {
	if depth > MaxInflateDepth {
		return 0, fmt.Errorf("%w: inflate depth exceeded", ErrCorruptFrame)
	}
	if len(buf) < HeaderSize {
		return 0, ErrIncompleteFrame
	}

	packLen := binary.BigEndian.Uint32(buf[0:4])
	headerLen := binary.BigEndian.Uint16(buf[4:6])
	ver := binary.BigEndian.Uint16(buf[6:8])
	op := binary.BigEndian.Uint32(buf[8:12])
	seq := binary.BigEndian.Uint32(buf[12:16])

	if headerLen != HeaderSize || packLen < uint32(headerLen) || packLen > MaxPacketSize {
		return 0, fmt.Errorf("%w: pack_len=%d header_len=%d", ErrCorruptFrame, packLen, headerLen)
	}
	if int(packLen) > len(buf) {
		return 0, ErrIncompleteFrame
	}

	body := buf[headerLen:packLen]

	switch ver {
	case VerZlib, VerBrotli:
		plain, err := inflate(ver, body)
		if err != nil {
			return 0, fmt.Errorf("%w: inflate: %v", ErrCorruptFrame, err)
		}
		// 一个压缩块通常装着多个拼接的逻辑包，逐个展开
		off := 0
		for off < len(plain) {
			n, err := decodeOne(plain[off:], pkts, depth+1)
			if errors.Is(err, ErrIncompleteFrame) {
				// 压缩块内不允许出现截断包
				return 0, fmt.Errorf("%w: truncated packet inside compressed block", ErrCorruptFrame)
			}
			if err != nil {
				return 0, err
			}
			off += n
		}
	default:
		// 负载拷贝一份，调用方的读缓冲会被复用
		payload := make([]byte, len(body))
		copy(payload, body)
		*pkts = append(*pkts, Packet{Op: op, Ver: ver, Seq: seq, Payload: payload})
	}

	return int(packLen), nil
}

// inflate 按版本号选择解压算法
func inflate(ver uint16, data []byte) ([]byte, error) {
	var r io.Reader
	switch ver {
	case VerZlib:
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	case VerBrotli:
		r = brotli.NewReader(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported compression version %d", ver)
	}

	plain, err := io.ReadAll(io.LimitReader(r, MaxPacketSize+1))
	if err != nil {
		return nil, err
	}
	if len(plain) > MaxPacketSize {
		return nil, fmt.Errorf("inflated size exceeds %d bytes", MaxPacketSize)
	}
	return plain, nil
}
