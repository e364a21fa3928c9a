package server

import (
	"encoding/json"
	"fmt"
)

// 入站消息类型
const (
	MsgMouseDown = "mouseDown"
	MsgMouseUp   = "mouseUp"
	MsgFacing    = "facing"
)

// 出站消息类型
const (
	MsgPlayerID    = "playerId"
	MsgStateUpdate = "stateUpdate"
)

// InputKind 客户端意图
type InputKind int

const (
	InputThrustOn InputKind = iota
	InputThrustOff
	InputFacing
)

// Input 解析后的客户端输入，由 World 直接应用到对应记录
type Input struct {
	PlayerID PlayerID
	Kind     InputKind
	Facing   float64
}

// InputMessage 入站 JSON 结构（WebSocket 文本消息）
// 示例：{"type":"facing","playerId":"...","facing":1.57}
type InputMessage struct {
	Type     string   `json:"type"`
	PlayerID string   `json:"playerId"`
	Facing   *float64 `json:"facing,omitempty"`
}

// ParseInput 解析一条客户端消息；任何缺字段或未知类型都返回 ErrMalformedInput
func ParseInput(payload []byte) (Input, error) {
	var im InputMessage
	if err := json.Unmarshal(payload, &im); err != nil {
		return Input{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if im.PlayerID == "" {
		return Input{}, fmt.Errorf("%w: missing playerId", ErrMalformedInput)
	}
	in := Input{PlayerID: PlayerID(im.PlayerID)}
	switch im.Type {
	case MsgMouseDown:
		in.Kind = InputThrustOn
	case MsgMouseUp:
		in.Kind = InputThrustOff
	case MsgFacing:
		if im.Facing == nil {
			return Input{}, fmt.Errorf("%w: facing message without facing", ErrMalformedInput)
		}
		in.Kind = InputFacing
		in.Facing = *im.Facing
	default:
		return Input{}, fmt.Errorf("%w: unknown type %q", ErrMalformedInput, im.Type)
	}
	return in, nil
}

// PlayerIDMessage 连接后的第一条消息，告知客户端自己的 ID
type PlayerIDMessage struct {
	Type     string   `json:"type"`
	PlayerID PlayerID `json:"playerId"`
}

// StateUpdateMessage 每个 Tick 广播的世界快照
type StateUpdateMessage struct {
	Type    string         `json:"type"`
	Objects []PlayerRecord `json:"objects"`
}

func encodePlayerID(id PlayerID) ([]byte, error) {
	return json.Marshal(PlayerIDMessage{Type: MsgPlayerID, PlayerID: id})
}

func encodeStateUpdate(objects []PlayerRecord) ([]byte, error) {
	if objects == nil {
		objects = []PlayerRecord{}
	}
	return json.Marshal(StateUpdateMessage{Type: MsgStateUpdate, Objects: objects})
}
