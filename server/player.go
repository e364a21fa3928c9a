package server

import "math"

// PlayerID 玩家唯一标识（连接时分配，记录存活期间不变）
type PlayerID string

// 出生点：每个新玩家都从这里开始，速度为零
const (
	SpawnX = 500
	SpawnY = 500
)

// PlayerRecord 服务端权威的玩家状态，同时也是广播给客户端的对象
type PlayerRecord struct {
	ID        PlayerID `json:"id"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Facing    float64  `json:"facing"` // 弧度，由客户端上报，不做校验
	DX        float64  `json:"dx"`
	DY        float64  `json:"dy"`
	Thrusting bool     `json:"thrusting"`
}

// NewPlayerRecord 默认初始记录
func NewPlayerRecord(id PlayerID) PlayerRecord {
	return PlayerRecord{ID: id, X: SpawnX, Y: SpawnY}
}

// speed 当前速度大小
func (p PlayerRecord) speed() float64 {
	return math.Hypot(p.DX, p.DY)
}

// finite 所有数值字段都是有限值
func (p PlayerRecord) finite() bool {
	for _, v := range [...]float64{p.X, p.Y, p.Facing, p.DX, p.DY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
