package server

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testTick = 5 * time.Millisecond

func newTestArena(t *testing.T, mutate ...func(*Config)) *Arena {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Tuning.TickPeriod = testTick
	for _, m := range mutate {
		m(&cfg)
	}
	a := NewArena(context.Background(), cfg)
	t.Cleanup(a.Close)
	return a
}

func connect(t *testing.T, a *Arena) (*Session, PlayerID) {
	t.Helper()
	s := a.NewSession()
	id, err := s.OnConnect()
	require.NoError(t, err)
	return s, id
}

// recv 从出站队列读一帧，超时则失败
func recv(t *testing.T, o *Outbox) []byte {
	t.Helper()
	select {
	case b, ok := <-o.C():
		require.True(t, ok, "outbox closed")
		return b
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for outbound message")
	}
	return nil
}

// recvState 跳过其他消息，直到读到满足 cond 的 stateUpdate
func recvState(t *testing.T, o *Outbox, cond func(StateUpdateMessage) bool) StateUpdateMessage {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case b, ok := <-o.C():
			require.True(t, ok, "outbox closed")
			var msg StateUpdateMessage
			require.NoError(t, json.Unmarshal(b, &msg))
			if msg.Type == MsgStateUpdate && cond(msg) {
				return msg
			}
		case <-deadline:
			t.Fatal("timed out waiting for state update")
			return StateUpdateMessage{}
		}
	}
}

func ids(objects []PlayerRecord) []PlayerID {
	out := make([]PlayerID, 0, len(objects))
	for _, o := range objects {
		out = append(out, o.ID)
	}
	return out
}

func find(objects []PlayerRecord, id PlayerID) (PlayerRecord, bool) {
	for _, o := range objects {
		if o.ID == id {
			return o, true
		}
	}
	return PlayerRecord{}, false
}
