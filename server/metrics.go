package server

import (
	"sync/atomic"
)

// ArenaMetrics 记录运行期的关键指标（用于监控与调试）
type ArenaMetrics struct {
	TickCount        int64 // Tick 次数
	TotalTickNs      int64 // Tick 累计耗时（纳秒）
	LoopStarts       int64 // 模拟循环启动次数
	LoopStops        int64 // 模拟循环因空世界退出的次数
	InputsAccepted   int64 // 被应用的输入数
	MalformedDropped int64 // 无法解析的输入数
	UnknownIdentity  int64 // 引用未知玩家的输入数
	RateLimited      int64 // 因限流被丢弃的输入数
	Broadcasts       int64 // 广播次数
	OutboxDropped    int64 // 因出站队列满被丢弃的旧帧数
	DeliveryFailures int64 // 写出失败导致的断开数
	AdvanceFailures  int64 // 推进失败被跳过的记录数
}

func (m *ArenaMetrics) IncLoopStarts() { atomic.AddInt64(&m.LoopStarts, 1) }
func (m *ArenaMetrics) IncLoopStops() { atomic.AddInt64(&m.LoopStops, 1) }
func (m *ArenaMetrics) IncAccepted() { atomic.AddInt64(&m.InputsAccepted, 1) }
func (m *ArenaMetrics) IncMalformed() { atomic.AddInt64(&m.MalformedDropped, 1) }
func (m *ArenaMetrics) IncUnknownIdentity() { atomic.AddInt64(&m.UnknownIdentity, 1) }
func (m *ArenaMetrics) IncRateLimited() { atomic.AddInt64(&m.RateLimited, 1) }
func (m *ArenaMetrics) IncBroadcasts() { atomic.AddInt64(&m.Broadcasts, 1) }
func (m *ArenaMetrics) IncOutboxDropped() { atomic.AddInt64(&m.OutboxDropped, 1) }
func (m *ArenaMetrics) IncDeliveryFailures() { atomic.AddInt64(&m.DeliveryFailures, 1) }
func (m *ArenaMetrics) AddAdvanceFailures(n int) {
	atomic.AddInt64(&m.AdvanceFailures, int64(n))
}
func (m *ArenaMetrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *ArenaMetrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":        tick,
		"avg_tick_ms":       avgMs,
		"loop_starts":       atomic.LoadInt64(&m.LoopStarts),
		"loop_stops":        atomic.LoadInt64(&m.LoopStops),
		"inputs_accepted":   atomic.LoadInt64(&m.InputsAccepted),
		"malformed_dropped": atomic.LoadInt64(&m.MalformedDropped),
		"unknown_identity":  atomic.LoadInt64(&m.UnknownIdentity),
		"rate_limited":      atomic.LoadInt64(&m.RateLimited),
		"broadcasts":        atomic.LoadInt64(&m.Broadcasts),
		"outbox_dropped":    atomic.LoadInt64(&m.OutboxDropped),
		"delivery_failures": atomic.LoadInt64(&m.DeliveryFailures),
		"advance_failures":  atomic.LoadInt64(&m.AdvanceFailures),
	}
}
