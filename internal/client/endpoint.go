package client

import (
	"fmt"

	"github.com/qiminjie89/danmaku/pkg/config"
)

// ServerEndpoint 弹幕服务器端点，连接建立时确定后不再变更
type ServerEndpoint struct {
	Host    string
	Port    int // 明文 TCP 端口
	WSSPort int
	WSPort  int
}

// DefaultEndpoint 返回公共弹幕端点
func DefaultEndpoint() ServerEndpoint {
	return endpointFrom(config.DefaultServer())
}

func endpointFrom(s config.ServerConfig) ServerEndpoint {
	ep := ServerEndpoint{Host: s.Host, Port: s.Port, WSSPort: s.WSSPort, WSPort: s.WSPort}
	if ep.Host == "" {
		ep.Host = config.DefaultHost
	}
	if ep.Port == 0 {
		ep.Port = config.DefaultPort
	}
	if ep.WSSPort == 0 {
		ep.WSSPort = config.DefaultWSSPort
	}
	if ep.WSPort == 0 {
		ep.WSPort = config.DefaultWSPort
	}
	return ep
}

// URL 返回 WebSocket 订阅地址
func (e ServerEndpoint) URL(insecure bool) string {
	if insecure {
		return fmt.Sprintf("ws://%s:%d/sub", e.Host, e.WSPort)
	}
	return fmt.Sprintf("wss://%s:%d/sub", e.Host, e.WSSPort)
}
