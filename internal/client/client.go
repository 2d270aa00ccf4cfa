// Package client 实现弹幕连接状态机：
// 认证 → 运行 → 心跳 → 重连 的完整生命周期。
package client

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qiminjie89/danmaku/internal/event"
	"github.com/qiminjie89/danmaku/internal/protocol"
	"github.com/qiminjie89/danmaku/pkg/config"
	"github.com/qiminjie89/danmaku/pkg/logger"
	"github.com/qiminjie89/danmaku/pkg/metrics"
	"github.com/qiminjie89/danmaku/pkg/transport"
)

// State 连接状态
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateAuthenticating
	StateLive
	StateReconnectPending
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateLive:
		return "live"
	case StateReconnectPending:
		return "reconnect_pending"
	default:
		return "unknown"
	}
}

var (
	// ErrAuthFailed 服务器返回认证失败码
	ErrAuthFailed = errors.New("auth failed")

	// ErrAuthTimeout 认证回执超时
	ErrAuthTimeout = errors.New("auth timeout")

	// ErrHeartbeatTimeout 连续多个心跳周期无回执，连接判定为僵死
	ErrHeartbeatTimeout = errors.New("heartbeat timeout")
)

// 心跳负载，上游浏览器端的历史遗留值
var heartbeatBody = []byte("[object Object]")

// Option 客户端选项
type Option func(*Client)

// WithDialer 替换传输层 Dialer，测试用
func WithDialer(d transport.Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// Client 单个直播间的弹幕客户端。一个实例对应一条逻辑连接，
// 可变状态由状态机独占，读循环与心跳定时器通过 channel 协作。
type Client struct {
	cfg       *config.ClientConfig
	dialer    transport.Dialer
	endpoints []ServerEndpoint

	state  atomic.Int32
	events chan event.Event
}

// New 创建弹幕客户端
func New(cfg *config.ClientConfig, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	endpoints := make([]ServerEndpoint, 0, len(cfg.Servers))
	for _, s := range cfg.Servers {
		endpoints = append(endpoints, endpointFrom(s))
	}
	if len(endpoints) == 0 {
		endpoints = []ServerEndpoint{DefaultEndpoint()}
	}

	c := &Client{
		cfg:       cfg,
		endpoints: endpoints,
		dialer: transport.NewWebSocketDialer(transport.WebSocketConfig{
			ReadBufferSize:   cfg.WebSocket.ReadBufferSize,
			WriteBufferSize:  cfg.WebSocket.WriteBufferSize,
			HandshakeTimeout: cfg.WebSocket.HandshakeTimeout,
		}),
		events: make(chan event.Event, cfg.Connection.EventBufferSize),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Events 返回有序事件通道。Run 返回后通道关闭，此后不再有事件。
func (c *Client) Events() <-chan event.Event {
	return c.events
}

// State 返回当前连接状态
func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) setState(s State) {
	c.state.Store(int32(s))
	metrics.ConnectionState.Set(float64(s))
}

// Run 驱动连接直到 ctx 取消。瞬时故障无限重连，
// 重连间隔指数退避，会话一旦进入 Live 即重置退避。
func (c *Client) Run(ctx context.Context) error {
	defer close(c.events)
	defer c.setState(StateDisconnected)

	backoff := c.cfg.Connection.ReconnectInterval
	for attempt := 0; ; attempt++ {
		live, err := c.session(ctx, attempt)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		logger.Warn("session ended",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		c.setState(StateReconnectPending)
		metrics.Reconnects.Inc()

		if live {
			backoff = c.cfg.Connection.ReconnectInterval
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if limit := c.cfg.Connection.ReconnectMaxInterval; backoff > limit {
			backoff = limit
		}
	}
}

// session 一次独立的连接尝试：拨号、认证、Live 循环。
// 返回本次会话是否进入过 Live 状态。
func (c *Client) session(ctx context.Context, attempt int) (bool, error) {
	ep := c.endpoints[attempt%len(c.endpoints)]
	connID := uuid.NewString()[:8]
	log := logger.With(
		zap.String("conn_id", connID),
		zap.Uint64("room_id", c.cfg.Room.RoomID),
		zap.String("host", ep.Host),
	)

	c.setState(StateConnecting)
	conn, err := c.dialer.Dial(ctx, ep.URL(c.cfg.WebSocket.Insecure))
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	log.Info("connected", zap.String("remote", conn.RemoteAddr()))

	// 认证帧必须是连接上发出的第一帧
	c.setState(StateAuthenticating)
	if err := c.sendAuth(conn); err != nil {
		return false, fmt.Errorf("send auth: %w", err)
	}

	stop := make(chan struct{})
	defer close(stop)
	packetCh := make(chan protocol.Packet, 64)
	errCh := make(chan error, 1)
	go c.readPump(conn, log, packetCh, errCh, stop)

	if err := c.awaitAuthReply(ctx, packetCh, errCh); err != nil {
		return false, err
	}

	log.Info("authenticated")
	c.setState(StateLive)
	c.emit(ctx, event.Status{Code: event.StatusConnected})

	err = c.liveLoop(ctx, conn, log, packetCh, errCh)
	return true, err
}

// sendAuth 编码并发送认证帧
func (c *Client) sendAuth(conn transport.Conn) error {
	auth := NewAuthRequest(c.cfg.Room.UID, c.cfg.Room.RoomID, c.cfg.Room.Token)
	payload, err := auth.Marshal()
	if err != nil {
		return err
	}
	frame, err := protocol.EncodePacket(protocol.OpAuth, payload)
	if err != nil {
		return err
	}
	return conn.WriteMessage(frame)
}

// awaitAuthReply 等待认证回执。认证前收到的业务消息直接丢弃，
// 服务端不应发，但收到也不能崩。
func (c *Client) awaitAuthReply(ctx context.Context, packetCh <-chan protocol.Packet, errCh <-chan error) error {
	timer := time.NewTimer(c.cfg.Connection.AuthTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return err
		case <-timer.C:
			metrics.AuthFailures.Inc()
			c.emit(ctx, event.Status{Code: event.StatusAuthFailed, Err: ErrAuthTimeout})
			return ErrAuthTimeout
		case pkt := <-packetCh:
			if pkt.Op != protocol.OpAuthReply {
				continue
			}
			var reply authReply
			if err := json.Unmarshal(pkt.Payload, &reply); err == nil && reply.Code != 0 {
				metrics.AuthFailures.Inc()
				err := fmt.Errorf("%w: code %d", ErrAuthFailed, reply.Code)
				c.emit(ctx, event.Status{Code: event.StatusAuthFailed, Err: err})
				return err
			}
			return nil
		}
	}
}

// liveLoop Live 状态主循环：消费解码包、驱动心跳、检测僵死连接
func (c *Client) liveLoop(ctx context.Context, conn transport.Conn, log *zap.Logger, packetCh <-chan protocol.Packet, errCh <-chan error) error {
	// 认证成功后立即发一次心跳，之后按固定周期
	if err := c.sendHeartbeat(conn); err != nil {
		return fmt.Errorf("send heartbeat: %w", err)
	}

	ticker := time.NewTicker(c.cfg.Connection.HeartbeatInterval)
	defer ticker.Stop()

	missed := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-errCh:
			c.emit(ctx, event.Status{Code: event.StatusDisconnected, Err: err})
			return err

		case <-ticker.C:
			missed++
			if missed >= c.cfg.Connection.MaxMissedHeartbeats {
				metrics.HeartbeatTimeouts.Inc()
				c.emit(ctx, event.Status{Code: event.StatusHeartbeatTimeout, Err: ErrHeartbeatTimeout})
				return ErrHeartbeatTimeout
			}
			if err := c.sendHeartbeat(conn); err != nil {
				c.emit(ctx, event.Status{Code: event.StatusDisconnected, Err: err})
				return fmt.Errorf("send heartbeat: %w", err)
			}

		case pkt := <-packetCh:
			c.handlePacket(ctx, log, pkt, &missed)
		}
	}
}

// sendHeartbeat 发送心跳帧
func (c *Client) sendHeartbeat(conn transport.Conn) error {
	frame, err := protocol.EncodePacket(protocol.OpHeartbeat, heartbeatBody)
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(frame); err != nil {
		return err
	}
	metrics.HeartbeatsSent.Inc()
	return nil
}

// handlePacket 按操作码分发一个逻辑包
func (c *Client) handlePacket(ctx context.Context, log *zap.Logger, pkt protocol.Packet, missed *int) {
	switch pkt.Op {
	case protocol.OpHeartbeatReply:
		*missed = 0
		// 回执负载前 4 字节是大端序人气值
		if len(pkt.Payload) >= 4 {
			metrics.RoomPopularity.Set(float64(binary.BigEndian.Uint32(pkt.Payload[:4])))
		}

	case protocol.OpSendMsg, protocol.OpSendMsgAll:
		c.emitEvent(ctx, event.Map(pkt.Payload))

	case protocol.OpAuthReply:
		// 已认证，重复回执忽略

	default:
		// 未知操作码透传，向前兼容协议新增的操作
		log.Debug("unknown operation", zap.Uint32("op", pkt.Op))
		c.emitEvent(ctx, event.Map(pkt.Payload))
	}
}

func (c *Client) emitEvent(ctx context.Context, ev event.Event) {
	metrics.EventsEmitted.WithLabelValues(string(ev.Kind())).Inc()
	c.emit(ctx, ev)
}

// emit 按序投递事件。ctx 取消后放弃投递，保证关闭后无事件流出。
func (c *Client) emit(ctx context.Context, ev event.Event) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}

// readPump 持续消费传输层物理帧并解码为逻辑包。
// 物理帧边界与逻辑包边界可能不对齐，残缺尾部留在 pending 中
// 等下一帧续传；损坏帧整体丢弃后继续。
func (c *Client) readPump(conn transport.Conn, log *zap.Logger, packetCh chan<- protocol.Packet, errCh chan<- error, stop <-chan struct{}) {
	var pending []byte
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			select {
			case errCh <- err:
			case <-stop:
			}
			return
		}

		metrics.FramesReceived.Inc()
		metrics.BytesReceived.Add(float64(len(data)))

		pending = append(pending, data...)
		pkts, n, err := protocol.Decode(pending)
		if err != nil {
			metrics.CorruptFrames.Inc()
			log.Warn("corrupt frame dropped",
				zap.Int("buffered", len(pending)),
				zap.Error(err),
			)
			pending = pending[:0]
			continue
		}
		pending = pending[n:]

		for _, pkt := range pkts {
			metrics.PacketsDecoded.Inc()
			select {
			case packetCh <- pkt:
			case <-stop:
				return
			}
		}
	}
}
