package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sasha-s/go-deadlock"
	"go.uber.org/multierr"
)

// Loop 全局唯一的模拟循环。是否启动由 World.Register 在锁内决定，
// 是否停止由 World.SnapshotAndAdvance 在锁内决定。
//
// 调度方式为“工作完成后再等待一个周期”，负载高时会有周期漂移。
type Loop struct {
	ctx     context.Context
	world   *World
	group   *Group
	tuning  *TuningStore
	metrics *ArenaMetrics

	mu     deadlock.Mutex // 保护 closed 与 wg.Add
	closed bool
	wg     sync.WaitGroup
}

func NewLoop(ctx context.Context, world *World, group *Group, tuning *TuningStore, metrics *ArenaMetrics) *Loop {
	return &Loop{ctx: ctx, world: world, group: group, tuning: tuning, metrics: metrics}
}

// Start 启动循环协程；只能由 Register 返回 startLoop=true 的调用方调用
func (l *Loop) Start() {
	l.mu.Lock()
	if l.closed || l.ctx.Err() != nil {
		l.mu.Unlock()
		l.world.StopLoop()
		return
	}
	l.wg.Add(1)
	l.mu.Unlock()

	l.metrics.IncLoopStarts()
	go l.run()
}

// Wait 等待当前循环协程退出
func (l *Loop) Wait() {
	l.wg.Wait()
}

// Close 之后 Start 不再启动新协程，并等待已有协程退出；调用前应先取消 ctx
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.wg.Wait()
}

func (l *Loop) run() {
	defer l.wg.Done()
	Log.Infow("simulation loop started", "tickPeriod", l.tuning.Load().TickPeriod)

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-l.ctx.Done():
			l.world.StopLoop()
			Log.Infow("simulation loop cancelled")
			return
		case <-timer.C:
		}
		if !l.tick() {
			l.metrics.IncLoopStops()
			Log.Infow("simulation loop stopped: world empty")
			return
		}
		timer.Reset(l.tuning.Load().TickPeriod)
	}
}

// tick 推进 → 快照 → 交给广播组；世界为空时返回 false
func (l *Loop) tick() bool {
	start := time.Now()
	phys := l.tuning.Load().Physics()
	res := l.world.SnapshotAndAdvance(func(p PlayerRecord) (PlayerRecord, error) {
		return step(p, phys)
	})
	if res.Stopped {
		return false
	}
	if res.Err != nil {
		errs := multierr.Errors(res.Err)
		l.metrics.AddAdvanceFailures(len(errs))
		Log.Warnw("advance skipped records", "count", len(errs), "err", res.Err)
	}
	l.group.Publish(broadcastable(res.Objects))
	l.metrics.AddTick(time.Since(start).Nanoseconds())
	return true
}

// step 包装 Advance：结果出现非有限值时保留旧记录
func step(p PlayerRecord, phys Physics) (PlayerRecord, error) {
	next := Advance(p, phys)
	if !next.finite() {
		return p, fmt.Errorf("%w: non-finite state after advance", ErrMalformedRecord)
	}
	return next, nil
}

// broadcastable 去掉无法编码的记录（NaN/Inf），其余照常广播
func broadcastable(objects []PlayerRecord) []PlayerRecord {
	out := objects[:0]
	for _, p := range objects {
		if p.finite() {
			out = append(out, p)
		}
	}
	return out
}
