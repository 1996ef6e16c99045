package server

import (
	"sync"
	"time"
)

// Stopper 取消一个已调度的任务；可重复调用
type Stopper interface {
	Stop()
}

// Scheduler 房间的时间来源：周期 Tick 与空闲过期都经由它调度，测试中可替换为手动时钟
type Scheduler interface {
	Every(d time.Duration, fn func()) Stopper
	After(d time.Duration, fn func()) Stopper
}

// RealScheduler 基于 time.Ticker / time.AfterFunc 的真实时钟
var RealScheduler Scheduler = realScheduler{}

type realScheduler struct{}

type tickerStopper struct {
	once sync.Once
	quit chan struct{}
}

func (s *tickerStopper) Stop() {
	s.once.Do(func() { close(s.quit) })
}

// Every 启动独立协程按固定周期回调（单线程推进世界由回调内的房间锁保证）
func (realScheduler) Every(d time.Duration, fn func()) Stopper {
	s := &tickerStopper{quit: make(chan struct{})}
	ticker := time.NewTicker(d)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-s.quit:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	return s
}

type timerStopper struct {
	t *time.Timer
}

func (s timerStopper) Stop() {
	s.t.Stop()
}

func (realScheduler) After(d time.Duration, fn func()) Stopper {
	return timerStopper{t: time.AfterFunc(d, fn)}
}
