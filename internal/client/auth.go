package client

import "encoding/json"

// 会话协商参数
const (
	authProtoVer = 3     // brotli 压缩协议
	authPlatform = "web"
	authConnType = 2
)

// AuthRequest 认证负载，每次（重）连接建立后的第一帧，仅发送一次
type AuthRequest struct {
	UID      uint64 `json:"uid"`
	RoomID   uint64 `json:"roomid"`
	ProtoVer int    `json:"protover"`
	Platform string `json:"platform"`
	Type     int    `json:"type"`
	Key      string `json:"key"`
}

// NewAuthRequest 从会话上下文构造认证负载
func NewAuthRequest(uid, roomID uint64, token string) *AuthRequest {
	return &AuthRequest{
		UID:      uid,
		RoomID:   roomID,
		ProtoVer: authProtoVer,
		Platform: authPlatform,
		Type:     authConnType,
		Key:      token,
	}
}

// Marshal 序列化为 JSON
func (a *AuthRequest) Marshal() ([]byte, error) {
	return json.Marshal(a)
}

// authReply 认证回执，code 为 0 表示成功
type authReply struct {
	Code int `json:"code"`
}
