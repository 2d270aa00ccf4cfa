// Package transport 提供面向弹幕服务器的客户端传输层抽象
package transport

import "context"

// Dialer 建立到弹幕服务器的连接
type Dialer interface {
	// Dial 连接指定 URL
	Dial(ctx context.Context, url string) (Conn, error)
}

// Conn 双向二进制帧通道。每次 ReadMessage 返回一个候选物理帧，
// 物理帧边界与逻辑包边界不保证对齐，重组由上层负责。
type Conn interface {
	// ReadMessage 读取一个物理帧
	ReadMessage() ([]byte, error)
	// WriteMessage 发送一个物理帧
	WriteMessage(data []byte) error
	// Close 关闭连接
	Close() error
	// RemoteAddr 返回远端地址
	RemoteAddr() string
}
