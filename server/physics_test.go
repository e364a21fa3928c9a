package server

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultPhysics = Physics{Thrust: DefaultThrust, MaxSpeed: DefaultMaxSpeed}

func TestAdvanceThrustFromRest(t *testing.T) {
	p := NewPlayerRecord("a")
	p.Thrusting = true

	next := Advance(p, defaultPhysics)
	assert.InDelta(t, DefaultThrust, next.DX, 1e-12)
	assert.InDelta(t, 0, next.DY, 1e-12)
	assert.InDelta(t, SpawnX+DefaultThrust, next.X, 1e-12)
	assert.InDelta(t, SpawnY, next.Y, 1e-12)
}

func TestAdvanceClampsWithoutThrust(t *testing.T) {
	p := PlayerRecord{ID: "a", X: 0, Y: 0, DX: 10}

	next := Advance(p, defaultPhysics)
	assert.InDelta(t, DefaultMaxSpeed, next.DX, 1e-12)
	assert.InDelta(t, 0, next.DY, 1e-12)
	assert.InDelta(t, DefaultMaxSpeed, next.X, 1e-12)
}

func TestAdvanceClampPreservesDirection(t *testing.T) {
	p := PlayerRecord{DX: 30, DY: 40}

	next := Advance(p, defaultPhysics)
	assert.InDelta(t, 3, next.DX, 1e-9)
	assert.InDelta(t, 4, next.DY, 1e-9)
}

func TestAdvanceSpeedNeverExceedsMax(t *testing.T) {
	p := NewPlayerRecord("a")
	p.Thrusting = true
	for i := 0; i < 500; i++ {
		p.Facing = float64(i) * 0.37
		p = Advance(p, defaultPhysics)
		require.LessOrEqual(t, p.speed(), DefaultMaxSpeed+1e-9, "tick %d", i)
	}
}

func TestAdvanceDoesNotMutateInput(t *testing.T) {
	p := NewPlayerRecord("a")
	p.Thrusting = true
	p.Facing = math.Pi / 2

	_ = Advance(p, defaultPhysics)
	assert.Equal(t, NewPlayerRecord("a").X, p.X)
	assert.Zero(t, p.DY)
}

func TestStepRejectsNonFinite(t *testing.T) {
	p := PlayerRecord{ID: "a", X: math.Inf(1), DX: 1}

	next, err := step(p, defaultPhysics)
	require.ErrorIs(t, err, ErrMalformedRecord)
	assert.Equal(t, p, next)
}
