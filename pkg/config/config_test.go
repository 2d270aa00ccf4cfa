package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	data := []byte("room:\n  room_id: 67890\n  uid: 12345\n  token: test_token\nconnection:\n  heartbeat_interval: 5s\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Room.RoomID != 67890 || cfg.Room.UID != 12345 {
		t.Fatalf("room = %+v", cfg.Room)
	}
	if cfg.Connection.HeartbeatInterval != 5*time.Second {
		t.Fatalf("heartbeat_interval = %v", cfg.Connection.HeartbeatInterval)
	}

	// 未指定的字段填充缺省值
	if cfg.Connection.MaxMissedHeartbeats != 3 {
		t.Fatalf("max_missed_heartbeats = %d", cfg.Connection.MaxMissedHeartbeats)
	}
	if len(cfg.Servers) != 1 || cfg.Servers[0].Host != DefaultHost {
		t.Fatalf("servers = %+v", cfg.Servers)
	}
	if cfg.Servers[0].WSSPort != 443 || cfg.Servers[0].WSPort != 2244 {
		t.Fatalf("ports = %+v", cfg.Servers[0])
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateRequiresRoomID(t *testing.T) {
	cfg := &ClientConfig{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing room_id")
	}
}
