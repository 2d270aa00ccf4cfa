// Package main 弹幕客户端命令行入口
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/qiminjie89/danmaku/internal/client"
	"github.com/qiminjie89/danmaku/internal/event"
	"github.com/qiminjie89/danmaku/pkg/config"
	"github.com/qiminjie89/danmaku/pkg/logger"
	"github.com/qiminjie89/danmaku/pkg/metrics"
	"github.com/qiminjie89/danmaku/pkg/sink"
)

func main() {
	// 解析命令行参数，room/uid/token 覆盖配置文件
	configPath := flag.String("config", "configs/danmaku.yaml", "config file path")
	roomID := flag.Uint64("room", 0, "room id (overrides config)")
	uid := flag.Uint64("uid", 0, "user id (overrides config)")
	token := flag.String("token", "", "auth token (overrides config)")
	flag.Parse()

	// 加载配置
	cfg, err := loadConfig(*configPath)
	if err != nil {
		panic("load config failed: " + err.Error())
	}
	if *roomID != 0 {
		cfg.Room.RoomID = *roomID
	}
	if *uid != 0 {
		cfg.Room.UID = *uid
	}
	if *token != "" {
		cfg.Room.Token = *token
	}

	// 初始化日志
	if err := logger.Init(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}); err != nil {
		panic("init logger failed: " + err.Error())
	}
	defer logger.Sync()

	logger.Info("starting danmaku client",
		zap.Uint64("room_id", cfg.Room.RoomID),
	)

	// 指标暴露
	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.Serve(cfg.Metrics.Addr); err != nil {
				logger.Error("metrics server error", zap.Error(err))
			}
		}()
	}

	// Kafka 事件落盘
	var kafkaSink *sink.KafkaSink
	if cfg.Kafka.Enabled {
		kafkaSink = sink.NewKafkaSink(&cfg.Kafka, cfg.Room.RoomID)
		defer kafkaSink.Close()
	}

	cli, err := client.New(cfg)
	if err != nil {
		logger.Error("create client failed", zap.Error(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 退出信号
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	runDone := make(chan error, 1)
	go func() {
		runDone <- cli.Run(ctx)
	}()

	// 消费事件
	for ev := range cli.Events() {
		printEvent(ev)
		if kafkaSink != nil {
			kafkaSink.Publish(ctx, ev)
		}
	}

	<-runDone
	logger.Info("client stopped")
}

// loadConfig 加载配置，文件不存在时使用缺省值
func loadConfig(path string) (*config.ClientConfig, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if os.IsNotExist(err) {
		cfg := &config.ClientConfig{}
		cfg.ApplyDefaults()
		return cfg, nil
	}
	return nil, err
}

// printEvent 把事件打印到标准输出
func printEvent(ev event.Event) {
	switch e := ev.(type) {
	case event.Danmu:
		if e.User.Medal != nil {
			fmt.Printf("[%s %d] %s: %s\n", e.User.Medal.Name, e.User.Medal.Level, e.User, e.Text)
		} else {
			fmt.Printf("%s: %s\n", e.User, e.Text)
		}
	case event.Gift:
		fmt.Printf("%s 投喂了 %s\n", e.User, e.Gift)
	case event.OnlineRankCount:
		fmt.Printf("高能用户 %d / 在线 %d\n", e.Count, e.OnlineCount)
	case event.Status:
		if e.Err != nil {
			fmt.Printf("-- %s (%v)\n", e.Code, e.Err)
		} else {
			fmt.Printf("-- %s\n", e.Code)
		}
	case event.Raw:
		if e.Cmd != "" {
			logger.Debug("raw event", zap.String("cmd", e.Cmd))
		}
	}
}
