// Package config 提供客户端配置加载
package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ClientConfig 弹幕客户端配置
type ClientConfig struct {
	Room       RoomConfig       `yaml:"room"`
	Servers    []ServerConfig   `yaml:"servers"`
	WebSocket  WebSocketConfig  `yaml:"websocket"`
	Connection ConnectionConfig `yaml:"connection"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Log        LogConfig        `yaml:"log"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// RoomConfig 房间与会话凭据
type RoomConfig struct {
	RoomID uint64 `yaml:"room_id"`
	UID    uint64 `yaml:"uid"`
	Token  string `yaml:"token"`
}

// ServerConfig 弹幕服务器端点。重连时按列表顺序轮换。
type ServerConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	WSSPort int    `yaml:"wss_port"`
	WSPort  int    `yaml:"ws_port"`
}

// WebSocketConfig WebSocket 拨号配置
type WebSocketConfig struct {
	ReadBufferSize   int           `yaml:"read_buffer_size"`
	WriteBufferSize  int           `yaml:"write_buffer_size"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	// Insecure 走明文 ws 端口，默认 wss
	Insecure bool `yaml:"insecure"`
}

// ConnectionConfig 连接状态机参数
type ConnectionConfig struct {
	HeartbeatInterval    time.Duration `yaml:"heartbeat_interval"`
	MaxMissedHeartbeats  int           `yaml:"max_missed_heartbeats"`
	AuthTimeout          time.Duration `yaml:"auth_timeout"`
	ReconnectInterval    time.Duration `yaml:"reconnect_interval"`
	ReconnectMaxInterval time.Duration `yaml:"reconnect_max_interval"`
	EventBufferSize      int           `yaml:"event_buffer_size"`
}

// KafkaConfig 事件落盘 Kafka 配置
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// 公共弹幕端点缺省值
const (
	DefaultHost    = "broadcastlv.chat.bilibili.com"
	DefaultPort    = 2243
	DefaultWSSPort = 443
	DefaultWSPort  = 2244
)

// DefaultServer 返回公共弹幕端点
func DefaultServer() ServerConfig {
	return ServerConfig{
		Host:    DefaultHost,
		Port:    DefaultPort,
		WSSPort: DefaultWSSPort,
		WSPort:  DefaultWSPort,
	}
}

// Load 加载客户端配置并填充缺省值
func Load(path string) (*ClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg ClientConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	return &cfg, nil
}

// ApplyDefaults 填充未指定的字段
func (c *ClientConfig) ApplyDefaults() {
	if len(c.Servers) == 0 {
		c.Servers = []ServerConfig{DefaultServer()}
	}
	if c.Connection.HeartbeatInterval == 0 {
		c.Connection.HeartbeatInterval = 30 * time.Second
	}
	if c.Connection.MaxMissedHeartbeats == 0 {
		c.Connection.MaxMissedHeartbeats = 3
	}
	if c.Connection.AuthTimeout == 0 {
		c.Connection.AuthTimeout = 10 * time.Second
	}
	if c.Connection.ReconnectInterval == 0 {
		c.Connection.ReconnectInterval = time.Second
	}
	if c.Connection.ReconnectMaxInterval == 0 {
		c.Connection.ReconnectMaxInterval = 30 * time.Second
	}
	if c.Connection.EventBufferSize == 0 {
		c.Connection.EventBufferSize = 256
	}
	if c.WebSocket.HandshakeTimeout == 0 {
		c.WebSocket.HandshakeTimeout = 10 * time.Second
	}
}

// Validate 校验必填字段。uid/token 允许为空（游客连接），room_id 不允许。
func (c *ClientConfig) Validate() error {
	if c.Room.RoomID == 0 {
		return errors.New("room_id is required")
	}
	return nil
}
