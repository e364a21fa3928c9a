package server

import (
	"encoding/json"
	"net/http"
	"time"
)

// tuningPayload 管理接口的 JSON 形状；POST 时只更新给出的字段
type tuningPayload struct {
	TickPeriodMs *int64   `json:"tickPeriodMs,omitempty"`
	Thrust       *float64 `json:"thrust,omitempty"`
	MaxSpeed     *float64 `json:"maxSpeed,omitempty"`
}

// HandleAdminConfig 提供模拟参数的读取与热更新
// GET /admin/config   返回当前参数
// POST /admin/config  以 JSON 载荷更新部分字段，下一个 Tick 生效
func (a *Arena) HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		t := a.Tuning.Load()
		ms := t.TickPeriod.Milliseconds()
		writeJSON(w, tuningPayload{TickPeriodMs: &ms, Thrust: &t.Thrust, MaxSpeed: &t.MaxSpeed})
		return
	case http.MethodPost:
		var body tuningPayload
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		t := a.Tuning.Load()
		if body.TickPeriodMs != nil {
			t.TickPeriod = time.Duration(*body.TickPeriodMs) * time.Millisecond
		}
		if body.Thrust != nil {
			t.Thrust = *body.Thrust
		}
		if body.MaxSpeed != nil {
			t.MaxSpeed = *body.MaxSpeed
		}
		if err := a.Tuning.Store(t); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]any{"ok": true})
		Log.Infow("tuning updated", "tickPeriod", t.TickPeriod, "thrust", t.Thrust, "maxSpeed", t.MaxSpeed)
		return
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
}

// HandleMetrics 输出运行指标
// GET /metrics
func (a *Arena) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"players": a.World.Count(),
		"members": a.Group.Len(),
		"loop":    a.World.LoopState().String(),
		"metrics": a.Metrics.Snapshot(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
