package event

import (
	"encoding/json"
	"strings"
)

// 上游命令类型判别字段取值
const (
	CmdDanmuMsg        = "DANMU_MSG"
	CmdSendGift        = "SEND_GIFT"
	CmdOnlineRankCount = "ONLINE_RANK_COUNT"
)

// Map 将一条业务 JSON 负载映射为事件。
// 永不失败：未识别的命令类型、缺字段、形状不符一律降级为 Raw，
// 绝不让一条坏负载中断事件流。
func Map(payload []byte) Event {
	var head struct {
		Cmd string `json:"cmd"`
	}
	if err := json.Unmarshal(payload, &head); err != nil {
		return rawOf("", payload)
	}

	switch {
	// DANMU_MSG 偶尔带 ":4:0:2:..." 形式的后缀
	case head.Cmd == CmdDanmuMsg || strings.HasPrefix(head.Cmd, CmdDanmuMsg+":"):
		if ev, ok := mapDanmu(payload); ok {
			return ev
		}
	case head.Cmd == CmdSendGift:
		if ev, ok := mapGift(payload); ok {
			return ev
		}
	case head.Cmd == CmdOnlineRankCount:
		if ev, ok := mapOnlineRankCount(payload); ok {
			return ev
		}
	}

	return rawOf(head.Cmd, payload)
}

func rawOf(cmd string, payload []byte) Raw {
	body := make([]byte, len(payload))
	copy(body, payload)
	return Raw{Cmd: cmd, Body: body}
}

// mapDanmu 解析 DANMU_MSG。负载用 info 位置数组而非对象：
// info[1] 弹幕文本，info[2] 为 [uid, 昵称, ...]，info[3] 为
// [勋章等级, 勋章名, 主播名, 房间号, ...]（可为空数组）。
func mapDanmu(payload []byte) (Event, bool) {
	var msg struct {
		Info []json.RawMessage `json:"info"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil || len(msg.Info) < 3 {
		return nil, false
	}

	var text string
	if err := json.Unmarshal(msg.Info[1], &text); err != nil {
		return nil, false
	}

	var sender []json.RawMessage
	if err := json.Unmarshal(msg.Info[2], &sender); err != nil || len(sender) < 2 {
		return nil, false
	}
	var uid Number
	if err := json.Unmarshal(sender[0], &uid); err != nil {
		return nil, false
	}
	var name string
	if err := json.Unmarshal(sender[1], &name); err != nil {
		return nil, false
	}

	user := User{UID: uid.Uint64(), Name: name}

	// 勋章段缺失或为空数组都是合法的
	if len(msg.Info) > 3 {
		var medal []json.RawMessage
		if err := json.Unmarshal(msg.Info[3], &medal); err == nil && len(medal) >= 2 {
			var level Number
			var medalName string
			if json.Unmarshal(medal[0], &level) == nil &&
				json.Unmarshal(medal[1], &medalName) == nil && medalName != "" {
				user.Medal = &Medal{Name: medalName, Level: level.Int64()}
			}
		}
	}

	return Danmu{User: user, Text: text}, true
}

// medalPayload 兼容 medal 与 medal_info 两套键名
type medalPayload struct {
	Name       string `json:"name"`
	MedalName  string `json:"medal_name"`
	Level      Number `json:"level"`
	MedalLevel Number `json:"medal_level"`
}

func (m *medalPayload) toMedal() *Medal {
	if m == nil {
		return nil
	}
	name, level := m.Name, m.Level
	if name == "" {
		name, level = m.MedalName, m.MedalLevel
	}
	if name == "" {
		return nil
	}
	return &Medal{Name: name, Level: level.Int64()}
}

func mapGift(payload []byte) (Event, bool) {
	var msg struct {
		Data struct {
			GiftName  string        `json:"giftName"`
			Uname     string        `json:"uname"`
			UID       Number        `json:"uid"`
			Num       Number        `json:"num"`
			Price     Number        `json:"price"`
			CoinType  string        `json:"coin_type"`
			MedalInfo *medalPayload `json:"medal_info"`
			Medal     *medalPayload `json:"medal"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, false
	}
	if msg.Data.GiftName == "" || msg.Data.Uname == "" {
		return nil, false
	}

	coin := CoinSilver
	if strings.EqualFold(msg.Data.CoinType, string(CoinGold)) {
		coin = CoinGold
	}

	gift := GiftData{
		GiftName:  msg.Data.GiftName,
		Uname:     msg.Data.Uname,
		UID:       msg.Data.UID.Uint64(),
		Num:       msg.Data.Num.Int64(),
		Price:     msg.Data.Price.Int64(),
		CoinType:  coin,
		MedalInfo: msg.Data.MedalInfo.toMedal(),
		Medal:     msg.Data.Medal.toMedal(),
	}

	return Gift{User: gift.Uname, Gift: gift}, true
}

func mapOnlineRankCount(payload []byte) (Event, bool) {
	var msg struct {
		Data *struct {
			Count       Number `json:"count"`
			OnlineCount Number `json:"online_count"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil || msg.Data == nil {
		return nil, false
	}

	return OnlineRankCount{
		Count:       msg.Data.Count.Uint64(),
		OnlineCount: msg.Data.OnlineCount.Uint64(),
	}, true
}
