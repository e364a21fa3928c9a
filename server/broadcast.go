package server

import (
	"context"
	"fmt"

	"github.com/sasha-s/go-deadlock"
)

// ConnID 每个连接的标识，与玩家 ID 相互独立
type ConnID string

// Member 广播组成员：接收一帧已编码的数据，不得阻塞
type Member interface {
	Deliver(payload []byte)
}

// Outbox 单个连接的有界出站队列；满了丢最旧的一帧，保证最新状态能排进去且顺序不变
type Outbox struct {
	mu      deadlock.Mutex
	ch      chan []byte
	closed  bool
	metrics *ArenaMetrics
}

func NewOutbox(size int, metrics *ArenaMetrics) *Outbox {
	if metrics == nil {
		metrics = &ArenaMetrics{}
	}
	return &Outbox{ch: make(chan []byte, size), metrics: metrics}
}

// Enqueue 非阻塞入队；队列已关闭时返回 false
func (o *Outbox) Enqueue(b []byte) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return false
	}
	for {
		select {
		case o.ch <- b:
			return true
		default:
			// 丢弃最旧的一帧，防止阻塞 Tick
			select {
			case <-o.ch:
				o.metrics.IncOutboxDropped()
			default:
			}
		}
	}
}

// C 写协程从这里取数据；Close 之后会在排空后关闭
func (o *Outbox) C() <-chan []byte {
	return o.ch
}

// Close 关闭队列，可重复调用
func (o *Outbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.closed {
		o.closed = true
		close(o.ch)
	}
}

// Group 当前在线连接的集合，负责把每个 Tick 的快照扇出给所有成员
type Group struct {
	mu      deadlock.RWMutex
	members map[ConnID]Member
	frames  chan []PlayerRecord
	metrics *ArenaMetrics
}

func NewGroup(metrics *ArenaMetrics) *Group {
	return &Group{
		members: make(map[ConnID]Member),
		frames:  make(chan []PlayerRecord, 4), // Tick 与投递解耦
		metrics: metrics,
	}
}

// Join 加入广播组；重复加入返回错误
func (g *Group) Join(id ConnID, m Member) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.members[id]; ok {
		return fmt.Errorf("connection %s already in group", id)
	}
	g.members[id] = m
	return nil
}

// Leave 退出广播组，不在组内时无操作
func (g *Group) Leave(id ConnID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.members, id)
}

func (g *Group) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.members)
}

// SendAll 把同一份数据投递给每个成员，成员的 Deliver 必须是非阻塞的
func (g *Group) SendAll(payload []byte) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, m := range g.members {
		m.Deliver(payload)
	}
	return len(g.members)
}

// Publish 由模拟循环调用，把快照交给分发协程；分发落后时丢弃最旧的快照
func (g *Group) Publish(objects []PlayerRecord) {
	for {
		select {
		case g.frames <- objects:
			return
		default:
			select {
			case <-g.frames:
			default:
			}
		}
	}
}

// Run 分发协程：编码快照并扇出，直到 ctx 结束
func (g *Group) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case objects := <-g.frames:
			b, err := encodeStateUpdate(objects)
			if err != nil {
				Log.Errorw("encode state update failed", "err", err)
				continue
			}
			g.SendAll(b)
			g.metrics.IncBroadcasts()
		}
	}
}
