package server

import "math"

// Physics 物理参数（模拟参数，不是协议常量）
type Physics struct {
	Thrust   float64
	MaxSpeed float64
}

// Advance 纯函数：推力 → 限速 → 位置积分，返回下一帧记录
func Advance(p PlayerRecord, phys Physics) PlayerRecord {
	if p.Thrusting {
		p.DX += phys.Thrust * math.Cos(p.Facing)
		p.DY += phys.Thrust * math.Sin(p.Facing)
	}
	// 按比例投影回最大速度圆，保持方向
	if speed := math.Hypot(p.DX, p.DY); speed > phys.MaxSpeed {
		ratio := phys.MaxSpeed / speed
		p.DX *= ratio
		p.DY *= ratio
	}
	p.X += p.DX
	p.Y += p.DY
	return p
}
