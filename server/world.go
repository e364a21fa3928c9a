package server

import (
	"fmt"
	"sort"

	"github.com/sasha-s/go-deadlock"
	"go.uber.org/multierr"
)

// LoopState 模拟循环的生命周期（进程内唯一）
type LoopState int

const (
	LoopNotStarted LoopState = iota
	LoopRunning
	LoopStopped
)

func (s LoopState) String() string {
	switch s {
	case LoopNotStarted:
		return "not-started"
	case LoopRunning:
		return "running"
	case LoopStopped:
		return "stopped"
	}
	return fmt.Sprintf("LoopState(%d)", int(s))
}

// AdvanceFunc 推进单条记录；返回错误时保留旧记录
type AdvanceFunc func(PlayerRecord) (PlayerRecord, error)

// TickResult 一次推进的结果
type TickResult struct {
	Objects []PlayerRecord // 推进后的只读副本，按 ID 排序
	Err     error          // 本 Tick 被跳过的记录（multierr 聚合）
	Stopped bool           // 世界为空，循环应退出
}

// World 玩家 ID → 记录 的唯一共享状态，所有读写都在同一把锁内完成。
// 循环状态也由这把锁保护，这样“插入后是否需要启动循环”与“空世界时停止循环”
// 是同一临界区里的判断，不会出现两个循环或零个循环。
type World struct {
	mu      deadlock.Mutex
	players map[PlayerID]*PlayerRecord
	loop    LoopState
}

func NewWorld() *World {
	return &World{players: make(map[PlayerID]*PlayerRecord)}
}

// Register 插入新记录；返回调用方是否负责启动模拟循环
func (w *World) Register(id PlayerID, initial PlayerRecord) (startLoop bool, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.players[id]; ok {
		return false, fmt.Errorf("%w: %s", ErrDuplicateIdentity, id)
	}
	initial.ID = id
	w.players[id] = &initial
	if w.loop != LoopRunning {
		w.loop = LoopRunning
		return true, nil
	}
	return false, nil
}

// Deregister 移除记录，不存在时无操作；返回剩余玩家数
func (w *World) Deregister(id PlayerID) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.players, id)
	return len(w.players)
}

// ApplyInput 修改 facing 或 thrusting；玩家不存在时返回 ErrUnknownIdentity，调用方应忽略
func (w *World) ApplyInput(in Input) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, ok := w.players[in.PlayerID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownIdentity, in.PlayerID)
	}
	switch in.Kind {
	case InputThrustOn:
		p.Thrusting = true
	case InputThrustOff:
		p.Thrusting = false
	case InputFacing:
		p.Facing = in.Facing
	default:
		return fmt.Errorf("%w: input kind %d", ErrMalformedInput, in.Kind)
	}
	return nil
}

// SnapshotAndAdvance 在锁内推进所有记录并拷贝出快照。
// 世界为空时不推进，直接把循环状态置为 Stopped 并返回 Stopped=true。
func (w *World) SnapshotAndAdvance(fn AdvanceFunc) TickResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.players) == 0 {
		w.loop = LoopStopped
		return TickResult{Stopped: true}
	}
	var errs error
	objects := make([]PlayerRecord, 0, len(w.players))
	for id, p := range w.players {
		next, err := fn(*p)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("player %s: %w", id, err))
		} else {
			next.ID = id
			*p = next
		}
		objects = append(objects, *p)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].ID < objects[j].ID })
	return TickResult{Objects: objects, Err: errs}
}

// StopLoop 循环因外部原因（如进程退出）结束时调用
func (w *World) StopLoop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.loop == LoopRunning {
		w.loop = LoopStopped
	}
}

// LoopState 当前循环状态
func (w *World) LoopState() LoopState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loop
}

// Count 当前玩家数（只作为触发信号，确定的停止判断在 SnapshotAndAdvance 内）
func (w *World) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.players)
}

// get 返回一条记录的副本
func (w *World) get(id PlayerID) (PlayerRecord, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, ok := w.players[id]
	if !ok {
		return PlayerRecord{}, false
	}
	return *p, true
}
