// Package metrics 提供 Prometheus 监控指标
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// 帧与解码指标
	FramesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "danmaku_frames_received_total",
		Help: "Physical frames received from transport",
	})

	PacketsDecoded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "danmaku_packets_decoded_total",
		Help: "Logical packets decoded, including unpacked compressed packets",
	})

	CorruptFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "danmaku_corrupt_frames_total",
		Help: "Physical frames dropped due to corrupt header or inflate failure",
	})

	BytesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "danmaku_bytes_received_total",
		Help: "Raw bytes received from transport",
	})

	// 事件指标
	EventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "danmaku_events_emitted_total",
		Help: "Business events emitted to the consumer",
	}, []string{"kind"})

	// 连接指标
	Reconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "danmaku_reconnects_total",
		Help: "Reconnect attempts",
	})

	AuthFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "danmaku_auth_failures_total",
		Help: "Authentication failures and timeouts",
	})

	HeartbeatsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "danmaku_heartbeats_sent_total",
		Help: "Heartbeat packets sent",
	})

	HeartbeatTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "danmaku_heartbeat_timeouts_total",
		Help: "Connections declared stale after missed heartbeat replies",
	})

	ConnectionState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "danmaku_connection_state",
		Help: "Current connection state (0 disconnected, 1 connecting, 2 authenticating, 3 live, 4 reconnect pending)",
	})

	// RoomPopularity 心跳回执携带的人气值
	RoomPopularity = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "danmaku_room_popularity",
		Help: "Room popularity reported in heartbeat replies",
	})
)

// Serve 启动指标暴露服务
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
