// Package protocol 实现弹幕服务器的二进制帧协议
package protocol

/*
逻辑包格式（所有整数均为大端序）：
+----------+------------+---------+-----------+---------+----------+
| PackLen  | HeaderLen  |   Ver   | Operation |   Seq   | Payload  |
| 4 bytes  |  2 bytes   | 2 bytes |  4 bytes  | 4 bytes |   变长    |
+----------+------------+---------+-----------+---------+----------+
PackLen 包含头部自身；HeaderLen 固定为 16。
*/

const (
	HeaderSize = 16 // 4 + 2 + 2 + 4 + 4

	// MaxPacketSize 入站单个逻辑包长度上限，超过视为损坏帧
	MaxPacketSize = 1 << 24 // 16MB

	// MaxControlPayload 出站控制包（认证、心跳）负载上限
	MaxControlPayload = 1 << 20 // 1MB

	// MaxInflateDepth 解压嵌套深度上限，防御恶意嵌套压缩
	MaxInflateDepth = 16
)

// 操作码
const (
	OpHeartbeat      uint32 = 2 // 客户端 → 服务器 心跳
	OpHeartbeatReply uint32 = 3 // 服务器 → 客户端 心跳回执（负载为 4 字节人气值）
	OpSendMsg        uint32 = 4 // 业务消息
	OpSendMsgAll     uint32 = 5 // 业务消息（全站广播）
	OpAuth           uint32 = 7 // 客户端 → 服务器 认证
	OpAuthReply      uint32 = 8 // 服务器 → 客户端 认证回执
)

// 协议版本，同时承载压缩方式
const (
	VerPlain   uint16 = 0 // 明文 JSON 负载
	VerControl uint16 = 1 // 心跳/控制负载（明文）
	VerZlib    uint16 = 2 // zlib 压缩，解压后是一串完整逻辑包
	VerBrotli  uint16 = 3 // brotli 压缩，同上
)

// Packet 一个解出的逻辑包
type Packet struct {
	Op      uint32
	Ver     uint16
	Seq     uint32
	Payload []byte
}
