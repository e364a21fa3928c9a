package server

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outboxMember struct{ *Outbox }

func (m outboxMember) Deliver(b []byte) { m.Enqueue(b) }

func TestOutboxDropsOldestWhenFull(t *testing.T) {
	metrics := &ArenaMetrics{}
	o := NewOutbox(2, metrics)
	for _, s := range []string{"1", "2", "3"} {
		require.True(t, o.Enqueue([]byte(s)))
	}
	assert.Equal(t, "2", string(<-o.C()))
	assert.Equal(t, "3", string(<-o.C()))
	assert.EqualValues(t, 1, metrics.OutboxDropped)
}

func TestOutboxClose(t *testing.T) {
	o := NewOutbox(1, nil)
	o.Close()
	o.Close()
	assert.False(t, o.Enqueue([]byte("late")))
	_, ok := <-o.C()
	assert.False(t, ok)
}

func TestGroupJoinLeave(t *testing.T) {
	g := NewGroup(&ArenaMetrics{})
	m := outboxMember{NewOutbox(1, nil)}
	require.NoError(t, g.Join("c1", m))
	require.Error(t, g.Join("c1", m))
	assert.Equal(t, 1, g.Len())
	g.Leave("c1")
	g.Leave("c1")
	assert.Equal(t, 0, g.Len())
}

func TestGroupSlowMemberDoesNotBlockOthers(t *testing.T) {
	g := NewGroup(&ArenaMetrics{})
	slow := outboxMember{NewOutbox(1, nil)} // 从不读取
	fast := outboxMember{NewOutbox(100, nil)}
	require.NoError(t, g.Join("slow", slow))
	require.NoError(t, g.Join("fast", fast))

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			g.SendAll([]byte(fmt.Sprint(i)))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SendAll blocked on a slow member")
	}

	for i := 0; i < 50; i++ {
		assert.Equal(t, fmt.Sprint(i), string(<-fast.C()))
	}
	// 慢成员只保留最新的一帧
	assert.Equal(t, "49", string(<-slow.C()))
}

func TestGroupRunFansOutStateUpdate(t *testing.T) {
	metrics := &ArenaMetrics{}
	g := NewGroup(metrics)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go g.Run(ctx)

	a := outboxMember{NewOutbox(4, nil)}
	b := outboxMember{NewOutbox(4, nil)}
	require.NoError(t, g.Join("a", a))
	require.NoError(t, g.Join("b", b))

	g.Publish([]PlayerRecord{NewPlayerRecord("p1")})

	for _, m := range []outboxMember{a, b} {
		raw := recv(t, m.Outbox)
		var msg StateUpdateMessage
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, MsgStateUpdate, msg.Type)
		assert.Equal(t, []PlayerID{"p1"}, ids(msg.Objects))
	}
	require.Eventually(t, func() bool { return metrics.Snapshot()["broadcasts"] == int64(1) }, time.Second, time.Millisecond)
}

func TestEncodeStateUpdateEmptyObjects(t *testing.T) {
	b, err := encodeStateUpdate(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"stateUpdate","objects":[]}`, string(b))
}
