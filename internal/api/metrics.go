package api

import (
	"net/http"
	"runtime"
	"time"
)

const bytesPerMB = 1 << 20

// SystemMetrics is the body of GET /metrics.
type SystemMetrics struct {
	Timestamp     string           `json:"timestamp"`
	Version       string           `json:"version"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	Runtime       RuntimeMetrics   `json:"runtime"`
	WebSocket     WSMetrics        `json:"websocket"`
	MQTT          MQTTMetrics      `json:"mqtt"`
	Scheduler     SchedulerMetrics `json:"scheduler"`
	Notify        NotifyMetrics    `json:"notify"`
	Database      DatabaseMetrics  `json:"database"`
}

type RuntimeMetrics struct {
	Goroutines   int     `json:"goroutines"`
	HeapAllocMB  float64 `json:"heap_alloc_mb"`
	TotalAllocMB float64 `json:"total_alloc_mb"`
	GCCycles     uint32  `json:"gc_cycles"`
}

type WSMetrics struct {
	Clients int `json:"clients"`
}

// MQTTMetrics is zero when the broker connection is disabled.
type MQTTMetrics struct {
	Enabled       bool `json:"enabled"`
	Connected     bool `json:"connected"`
	Subscriptions int  `json:"subscriptions"`
}

// SchedulerMetrics counts relays and cycles by state. A suspended cycle
// (paused or disabled) counts as paused, not running.
type SchedulerMetrics struct {
	Relays        int `json:"relays"`
	RelaysOn      int `json:"relays_on"`
	Cycles        int `json:"cycles"`
	CyclesRunning int `json:"cycles_running"`
	CyclesPaused  int `json:"cycles_paused"`
}

type NotifyMetrics struct {
	Dropped uint64 `json:"dropped"`
}

type DatabaseMetrics struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	now := time.Now()
	m := SystemMetrics{
		Timestamp:     now.UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(now.Sub(s.startTime) / time.Second),
		Runtime:       runtimeMetrics(),
		WebSocket:     WSMetrics{Clients: s.hub.ClientCount()},
		Scheduler:     s.schedulerMetrics(now),
	}

	if s.mqtt != nil {
		m.MQTT.Enabled = true
		m.MQTT.Connected = s.mqtt.IsConnected()
		m.MQTT.Subscriptions = s.mqtt.SubscriptionCount()
	}
	if s.notify != nil {
		m.Notify.Dropped = s.notify.Dropped()
	}
	if s.db != nil {
		st := s.db.Stats()
		m.Database = DatabaseMetrics{st.OpenConnections, st.InUse, st.Idle, st.WaitCount}
	}

	writeJSON(w, http.StatusOK, m)
}

func runtimeMetrics() RuntimeMetrics {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return RuntimeMetrics{
		Goroutines:   runtime.NumGoroutine(),
		HeapAllocMB:  float64(ms.HeapAlloc) / bytesPerMB,
		TotalAllocMB: float64(ms.TotalAlloc) / bytesPerMB,
		GCCycles:     ms.NumGC,
	}
}

func (s *Server) schedulerMetrics(now time.Time) SchedulerMetrics {
	var sm SchedulerMetrics
	for _, rl := range s.relays.List() {
		sm.Relays++
		if rl.Status {
			sm.RelaysOn++
		}
	}
	for _, v := range s.sched.DescribeCycles(now) {
		sm.Cycles++
		switch {
		case v.Paused || v.Disabled:
			sm.CyclesPaused++
		case v.Running:
			sm.CyclesRunning++
		}
	}
	return sm
}
