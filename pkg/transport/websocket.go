package transport

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketConfig WebSocket 拨号配置
type WebSocketConfig struct {
	ReadBufferSize   int
	WriteBufferSize  int
	HandshakeTimeout time.Duration
}

// WebSocketDialer 基于 gorilla/websocket 的 Dialer 实现
type WebSocketDialer struct {
	dialer *websocket.Dialer
}

// NewWebSocketDialer 创建 WebSocket Dialer
func NewWebSocketDialer(cfg WebSocketConfig) *WebSocketDialer {
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	return &WebSocketDialer{
		dialer: &websocket.Dialer{
			ReadBufferSize:   cfg.ReadBufferSize,
			WriteBufferSize:  cfg.WriteBufferSize,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
	}
}

// Dial 连接弹幕服务器
func (d *WebSocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	conn, _, err := d.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &webSocketConn{conn: conn}, nil
}

// webSocketConn WebSocket 连接实现
type webSocketConn struct {
	conn *websocket.Conn
}

// ReadMessage 读取一个物理帧
func (c *webSocketConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return data, nil
}

// WriteMessage 发送一个物理帧
func (c *webSocketConn) WriteMessage(data []byte) error {
	return c.conn.WriteMessage(websocket.BinaryMessage, data)
}

// Close 关闭连接
func (c *webSocketConn) Close() error {
	return c.conn.Close()
}

// RemoteAddr 返回远端地址
func (c *webSocketConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
