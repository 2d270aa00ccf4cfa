package protocol

import "errors"

var (
	// ErrIncompleteFrame 缓冲中的字节不足一个完整逻辑包，调用方应继续攒数据后重试
	ErrIncompleteFrame = errors.New("incomplete frame")

	// ErrCorruptFrame 头部字段非法或解压失败，整个物理帧应被丢弃
	ErrCorruptFrame = errors.New("corrupt frame")

	// ErrPayloadTooLarge 出站负载超出长度字段可表达范围
	ErrPayloadTooLarge = errors.New("payload too large")
)
