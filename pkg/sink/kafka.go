// Package sink 提供解码事件的外部落盘
package sink

import (
	"context"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/qiminjie89/danmaku/internal/event"
	"github.com/qiminjie89/danmaku/pkg/config"
	"github.com/qiminjie89/danmaku/pkg/logger"
)

// Record 写入 Kafka 的事件记录，msgpack 编码
type Record struct {
	RoomID uint64      `msgpack:"room_id"`
	Kind   string      `msgpack:"kind"`
	Ts     int64       `msgpack:"ts"`
	Event  interface{} `msgpack:"event"`
}

// KafkaSink 把解码事件写入 Kafka，按房间号哈希分区
type KafkaSink struct {
	roomID uint64
	writer *kafka.Writer
}

// NewKafkaSink 创建 Kafka 事件落盘
func NewKafkaSink(cfg *config.KafkaConfig, roomID uint64) *KafkaSink {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.Hash{},
	}

	return &KafkaSink{
		roomID: roomID,
		writer: writer,
	}
}

// Publish 写入一条事件
func (s *KafkaSink) Publish(ctx context.Context, ev event.Event) error {
	rec := Record{
		RoomID: s.roomID,
		Kind:   string(ev.Kind()),
		Ts:     time.Now().UnixMilli(),
		Event:  ev,
	}

	value, err := msgpack.Marshal(&rec)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(s.roomID, 10)),
		Value: value,
	}

	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		logger.Error("kafka publish failed",
			zap.Error(err),
			zap.String("kind", string(ev.Kind())),
		)
		return err
	}

	return nil
}

// Close 关闭落盘
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
