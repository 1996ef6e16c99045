package server

import (
	"sync/atomic"
)

// RoomMetrics 记录房间运行期的关键指标（用于监控与调试）
type RoomMetrics struct {
	TickCount          int64 // 统计的 Tick 次数
	TotalTickNs        int64 // Tick 累计耗时（纳秒）
	DirectionsAccepted int64 // 被接纳的方向请求
	DirectionsRejected int64 // 得分后的掉头请求
	InputsIgnored      int64 // 未知按键或已无玩家的连接发来的输入
	FruitsEaten        int64
	Eliminations       int64
	SpawnFailures      int64 // 找不到空格而跳过的生成
	FramesDropped      int64 // 因发送队列满或连接关闭而丢弃的帧
}

func (m *RoomMetrics) IncAccepted()      { atomic.AddInt64(&m.DirectionsAccepted, 1) }
func (m *RoomMetrics) IncRejected()      { atomic.AddInt64(&m.DirectionsRejected, 1) }
func (m *RoomMetrics) IncIgnored()       { atomic.AddInt64(&m.InputsIgnored, 1) }
func (m *RoomMetrics) IncFruitsEaten()   { atomic.AddInt64(&m.FruitsEaten, 1) }
func (m *RoomMetrics) IncEliminations()  { atomic.AddInt64(&m.Eliminations, 1) }
func (m *RoomMetrics) IncSpawnFailures() { atomic.AddInt64(&m.SpawnFailures, 1) }
func (m *RoomMetrics) IncFramesDropped() { atomic.AddInt64(&m.FramesDropped, 1) }
func (m *RoomMetrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *RoomMetrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":          tick,
		"directions_accepted": atomic.LoadInt64(&m.DirectionsAccepted),
		"directions_rejected": atomic.LoadInt64(&m.DirectionsRejected),
		"inputs_ignored":      atomic.LoadInt64(&m.InputsIgnored),
		"fruits_eaten":        atomic.LoadInt64(&m.FruitsEaten),
		"eliminations":        atomic.LoadInt64(&m.Eliminations),
		"spawn_failures":      atomic.LoadInt64(&m.SpawnFailures),
		"frames_dropped":      atomic.LoadInt64(&m.FramesDropped),
		"avg_tick_ms":         avgMs,
	}
}
