// Package event 定义弹幕业务事件及其从上游 JSON 负载的映射
package event

import (
	"encoding/json"
	"fmt"
)

// Kind 事件类型标签，兼作监控指标的 label
type Kind string

const (
	KindDanmu           Kind = "danmu"
	KindGift            Kind = "gift"
	KindOnlineRankCount Kind = "online_rank_count"
	KindRaw             Kind = "raw"
	KindStatus          Kind = "status"
)

// Event 业务事件。封闭变体集：Danmu、Gift、OnlineRankCount、Status，
// 其余一律降级为 Raw 透传，不扩展开放式分发。
type Event interface {
	Kind() Kind
}

// CoinType 礼物货币类型
type CoinType string

const (
	CoinSilver CoinType = "silver" // 银瓜子，缺省值
	CoinGold   CoinType = "gold"   // 金瓜子
)

// Medal 粉丝勋章，依附于用户，不单独寻址
type Medal struct {
	Name  string `json:"name"`
	Level int64  `json:"level"`
}

// User 发送弹幕/礼物的用户。UID 为 0 表示未知或系统用户。
type User struct {
	UID   uint64 `json:"uid"`
	Name  string `json:"name"`
	Medal *Medal `json:"medal,omitempty"`
}

// NewUser 仅凭展示名构造用户，用于上游负载残缺的场合
func NewUser(name string) User {
	return User{Name: name}
}

func (u User) String() string {
	return u.Name
}

// GiftData 一次礼物投喂。上游在 medal_info 和 medal 两个键下
// 都可能携带勋章，两者独立保留。
type GiftData struct {
	GiftName  string   `json:"giftName"`
	Uname     string   `json:"uname"`
	UID       uint64   `json:"uid"`
	Num       int64    `json:"num"`
	Price     int64    `json:"price"`
	CoinType  CoinType `json:"coin_type"`
	MedalInfo *Medal   `json:"medal_info,omitempty"`
	Medal     *Medal   `json:"medal,omitempty"`
}

func (g GiftData) String() string {
	return fmt.Sprintf("%d个%s", g.Num, g.GiftName)
}

// Danmu 一条弹幕
type Danmu struct {
	User User
	Text string
}

func (Danmu) Kind() Kind { return KindDanmu }

// Gift 一次礼物投喂
type Gift struct {
	User string
	Gift GiftData
}

func (Gift) Kind() Kind { return KindGift }

// OnlineRankCount 直播间在线人数遥测
type OnlineRankCount struct {
	Count       uint64 // 高能用户数
	OnlineCount uint64 // 在线人数
}

func (OnlineRankCount) Kind() Kind { return KindOnlineRankCount }

// Raw 未识别或形状不符的负载原样透传，应用层仍可自行解析
type Raw struct {
	Cmd  string
	Body json.RawMessage
}

func (Raw) Kind() Kind { return KindRaw }

// StatusCode 连接状态通知码
type StatusCode string

const (
	StatusConnected        StatusCode = "connected"
	StatusAuthFailed       StatusCode = "auth_failed"
	StatusHeartbeatTimeout StatusCode = "heartbeat_timeout"
	StatusDisconnected     StatusCode = "disconnected"
)

// Status 连接层状态通知，与业务事件同通道按序投递
type Status struct {
	Code StatusCode
	Err  error
}

func (Status) Kind() Kind { return KindStatus }
