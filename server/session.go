package server

import (
	"errors"
	"fmt"

	"github.com/sasha-s/go-deadlock"
	"golang.org/x/time/rate"
)

// SessionState 单个连接的生命周期
type SessionState int

const (
	SessionConnecting SessionState = iota
	SessionActive
	SessionDisconnected
)

func (s SessionState) String() string {
	switch s {
	case SessionConnecting:
		return "connecting"
	case SessionActive:
		return "active"
	case SessionDisconnected:
		return "disconnected"
	}
	return fmt.Sprintf("SessionState(%d)", int(s))
}

// Session 服务端代表一个已连接客户端。传输层按顺序调用
// OnConnect → OnMessage* → OnDisconnect，并从 Outbox 取数据写出。
type Session struct {
	ConnID ConnID

	arena   *Arena
	outbox  *Outbox
	limiter *rate.Limiter

	mu         deadlock.Mutex
	state      SessionState
	id         PlayerID
	joined     bool
	registered bool
}

// NewSession 为一个刚接受的连接创建会话
func (a *Arena) NewSession() *Session {
	sc := a.cfg.Session
	return &Session{
		ConnID:  ConnID(a.newID()),
		arena:   a,
		outbox:  NewOutbox(sc.OutboxSize, a.Metrics),
		limiter: rate.NewLimiter(rate.Limit(sc.InputRate), sc.InputBurst),
	}
}

// OnConnect 分配 ID、先把 ID 发给客户端、加入广播组、注册到世界，必要时启动模拟循环
func (s *Session) OnConnect() (PlayerID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionConnecting {
		return "", fmt.Errorf("session %s: connect in state %s", s.ConnID, s.state)
	}

	id := PlayerID(s.arena.newID())
	hello, err := encodePlayerID(id)
	if err != nil {
		s.state = SessionDisconnected
		return "", err
	}
	// 必须是出站队列中的第一条消息
	s.outbox.Enqueue(hello)

	if err := s.arena.Group.Join(s.ConnID, s); err != nil {
		s.state = SessionDisconnected
		return "", err
	}
	s.joined = true

	startLoop, err := s.arena.World.Register(id, NewPlayerRecord(id))
	if err != nil {
		s.arena.Group.Leave(s.ConnID)
		s.joined = false
		s.state = SessionDisconnected
		return "", err
	}
	s.id = id
	s.registered = true
	s.state = SessionActive

	if startLoop {
		s.arena.Loop.Start()
	}
	return id, nil
}

// OnMessage 解析并应用一条客户端输入；任何错误都只影响这条消息。
// 只有 facing 受限流约束，mouseDown/mouseUp 必须始终生效，否则推进状态会卡住。
func (s *Session) OnMessage(raw []byte) {
	s.mu.Lock()
	state, self := s.state, s.id
	s.mu.Unlock()
	if state != SessionActive {
		return
	}

	in, err := ParseInput(raw)
	if err != nil {
		s.arena.Metrics.IncMalformed()
		Log.Debugw("drop malformed input", "conn", s.ConnID, "err", err)
		return
	}
	// 只接受针对自己的消息
	if in.PlayerID != self {
		s.arena.Metrics.IncUnknownIdentity()
		return
	}
	if in.Kind == InputFacing && !s.limiter.Allow() {
		s.arena.Metrics.IncRateLimited()
		return
	}
	if err := s.arena.World.ApplyInput(in); err != nil {
		if errors.Is(err, ErrUnknownIdentity) {
			s.arena.Metrics.IncUnknownIdentity()
		} else {
			s.arena.Metrics.IncMalformed()
		}
		return
	}
	s.arena.Metrics.IncAccepted()
}

// OnDisconnect 注销玩家并退出广播组；可重复调用，连接未完成时也安全
func (s *Session) OnDisconnect(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SessionDisconnected {
		s.outbox.Close()
		return
	}
	var remaining int
	if s.registered {
		remaining = s.arena.World.Deregister(s.id)
		s.registered = false
	}
	if s.joined {
		s.arena.Group.Leave(s.ConnID)
		s.joined = false
	}
	s.state = SessionDisconnected
	s.outbox.Close()
	Log.Infow("player disconnected", "player", s.id, "conn", s.ConnID, "reason", reason, "remaining", remaining)
}

// Deliver 收到广播：转入本连接的出站队列，不阻塞其他会话
func (s *Session) Deliver(payload []byte) {
	s.outbox.Enqueue(payload)
}

// Outbox 传输层的写协程从这里取数据
func (s *Session) Outbox() *Outbox {
	return s.outbox
}

func (s *Session) PlayerID() PlayerID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
