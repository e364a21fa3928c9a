package server

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Arena 组装世界、模拟循环、广播组和指标，并注入到每个会话中
type Arena struct {
	World   *World
	Group   *Group
	Loop    *Loop
	Tuning  *TuningStore
	Metrics *ArenaMetrics

	cfg    Config
	newID  func() string
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewArena 创建并启动广播分发协程；ctx 结束或 Close 时一起退出
func NewArena(ctx context.Context, cfg Config) *Arena {
	ctx, cancel := context.WithCancel(ctx)
	metrics := &ArenaMetrics{}
	a := &Arena{
		World:   NewWorld(),
		Group:   NewGroup(metrics),
		Tuning:  NewTuningStore(cfg.Tuning),
		Metrics: metrics,
		cfg:     cfg,
		newID:   uuid.NewString,
		cancel:  cancel,
	}
	a.Loop = NewLoop(ctx, a.World, a.Group, a.Tuning, metrics)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.Group.Run(ctx)
	}()
	return a
}

// Close 停止模拟循环与分发协程
func (a *Arena) Close() {
	a.cancel()
	a.Loop.Close()
	a.wg.Wait()
}
