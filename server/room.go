package server

import (
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"snakerooms/game"
)

var (
	ErrRoomClosed   = errors.New("room closed")
	ErrRoomNotFound = errors.New("room not found")
)

// 聊天中可识别的房间指令，不进入聊天记录
const cmdRestart = "/restart"

// RoomConfig 房间的可调参数
type RoomConfig struct {
	Grid          game.Grid
	TickInterval  time.Duration
	IdleExpiry    time.Duration
	InitialFruits int
	Codec         Codec
	Scheduler     Scheduler
	// NewRand 为每个房间提供独立随机源；nil 时使用随机种子
	NewRand func() *rand.Rand
}

// Room 房间世界：权威状态维护在内存，所有操作由 mu 串行化
type Room struct {
	ID string

	mu       sync.Mutex
	cfg      RoomConfig
	state    *game.State
	members  map[game.PlayerID]Conn
	messages []ChatMessage
	metrics  *RoomMetrics

	tickStop   Stopper
	expiryStop Stopper
	expiryGen  uint64 // 每次启动/取消过期计时都递增，已触发但过期的回调据此作废
	persistent bool   // 常驻房间不参与空闲过期
	closed     bool

	onExpire func(id string, r *Room)
}

// NewRoom 创建房间，初始化数据结构并生成初始食物（尚未开始 Tick）
func NewRoom(id string, cfg RoomConfig) *Room {
	if cfg.Codec == nil {
		cfg.Codec = JSONCodec{}
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = RealScheduler
	}
	var rng *rand.Rand
	if cfg.NewRand != nil {
		rng = cfg.NewRand()
	}
	r := &Room{
		ID:      id,
		cfg:     cfg,
		state:   game.NewState(cfg.Grid, rng),
		members: make(map[game.PlayerID]Conn),
		metrics: &RoomMetrics{},
	}
	if err := r.state.Reset(cfg.InitialFruits); err != nil {
		r.metrics.IncSpawnFailures()
		Log.Warnw("initial fruit spawn incomplete", "room", id, "err", err)
	}
	return r
}

// Start 启动 Tick；房间初始为空，同时开始空闲过期计时
func (r *Room) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.tickStop != nil {
		return
	}
	r.tickStop = r.cfg.Scheduler.Every(r.cfg.TickInterval, r.Tick)
	r.armExpiryLocked()
}

// Join 将连接加入房间并生成玩家；找不到出生格时以观战身份加入
func (r *Room) Join(id game.PlayerID, conn Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRoomClosed
	}
	r.cancelExpiryLocked()
	r.members[id] = conn

	if _, err := r.state.AddPlayer(id); err != nil {
		r.metrics.IncSpawnFailures()
		Log.Warnw("join without player", "room", r.ID, "player", id, "err", err)
	}
	r.sendLocked(conn, EventWelcome, Welcome{PlayerID: string(id), Room: r.ID})
	r.sendLocked(conn, EventSetup, r.state.Snapshot())
	r.sendLocked(conn, EventMessages, r.messageLog())
	r.broadcastLocked(EventScores, r.state.Scores())
	Log.Infow("player joined", "room", r.ID, "player", id, "members", len(r.members))
	return nil
}

// Leave 移除连接与玩家；房间变空时开始过期计时
func (r *Room) Leave(id game.PlayerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.members[id]
	if !ok {
		return
	}
	delete(r.members, id)
	_ = conn.Close()
	r.state.RemovePlayer(id)
	Log.Infow("player left", "room", r.ID, "player", id, "members", len(r.members))
	if r.closed {
		return
	}
	r.broadcastLocked(EventScores, r.state.Scores())
	if len(r.members) == 0 {
		r.armExpiryLocked()
	}
}

// OnDirectionInput 方向准入，真正生效在下一次 Tick。
// 未知按键与观战连接的输入计入 ignored，得分后的掉头计入 rejected
func (r *Room) OnDirectionInput(id game.PlayerID, raw string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, known := game.ParseHeading(raw)
	_, alive := r.state.Player(id)
	switch {
	case !known || !alive:
		r.metrics.IncIgnored()
	case r.state.RequestDirection(id, raw):
		r.metrics.IncAccepted()
	default:
		r.metrics.IncRejected()
	}
}

// OnPlayEvent 确定昵称与颜色，尾巴颜色由颜色派生
func (r *Room) OnPlayEvent(id game.PlayerID, e PlayEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.state.Player(id)
	if !ok {
		return
	}
	p.SetIdentity(strings.TrimSpace(e.Username), e.Color)
	r.broadcastLocked(EventUpdate, r.state.Snapshot())
	r.broadcastLocked(EventScores, r.state.Scores())
}

// OnChatMessage 聊天或房间指令
func (r *Room) OnChatMessage(id game.PlayerID, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[id]; !ok || r.closed {
		return
	}
	text = strings.TrimSpace(text)
	if text == "" || r.dispatchCommandLocked(text) {
		return
	}
	author := string(id)
	if p, ok := r.state.Player(id); ok {
		author = p.DisplayName
	}
	msg := ChatMessage{Author: author, Message: text}
	r.messages = append(r.messages, msg)
	r.broadcastLocked(EventMessage, msg)
}

func (r *Room) dispatchCommandLocked(text string) bool {
	switch strings.ToLower(text) {
	case cmdRestart:
		r.restartLocked()
		return true
	default:
		return false
	}
}

// Restart 原地重置模拟状态，房间 ID 不变，通知所有成员刷新
func (r *Room) Restart() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.restartLocked()
}

func (r *Room) restartLocked() {
	if err := r.state.Reset(r.cfg.InitialFruits); err != nil {
		r.metrics.IncSpawnFailures()
		Log.Warnw("restart fruit spawn incomplete", "room", r.ID, "err", err)
	}
	for id := range r.members {
		if _, err := r.state.AddPlayer(id); err != nil {
			r.metrics.IncSpawnFailures()
		}
	}
	r.broadcastLocked(EventRestarted, struct{}{})
	Log.Infow("room restarted", "room", r.ID, "members", len(r.members))
}

// Tick 推进一次世界并广播快照
func (r *Room) Tick() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	start := time.Now()
	r.state.Step(tickListener{r})
	r.broadcastLocked(EventUpdate, r.state.Snapshot())
	r.metrics.AddTick(time.Since(start).Nanoseconds())
}

// SetIdleExpiry 修改空闲过期时长；计时进行中时按新时长重新计时
func (r *Room) SetIdleExpiry(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d <= 0 || d == r.cfg.IdleExpiry {
		return
	}
	r.cfg.IdleExpiry = d
	if r.expiryStop != nil && !r.closed {
		r.armExpiryLocked()
	}
}

// SetInitialFruits 修改重开时生成的食物数，下次重开生效
func (r *Room) SetInitialFruits(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n < 0 {
		return
	}
	r.cfg.InitialFruits = n
}

// SetPersistent 常驻房间在无人时也不会被销毁
func (r *Room) SetPersistent(persistent bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.persistent = persistent
	switch {
	case persistent:
		r.cancelExpiryLocked()
	case len(r.members) == 0 && !r.closed && r.tickStop != nil:
		r.armExpiryLocked()
	}
}

// SetTickInterval 热更新 Tick 周期
func (r *Room) SetTickInterval(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d <= 0 || d == r.cfg.TickInterval {
		return
	}
	r.cfg.TickInterval = d
	if r.tickStop != nil && !r.closed {
		r.tickStop.Stop()
		r.tickStop = r.cfg.Scheduler.Every(d, r.Tick)
	}
}

// Close 停止房间并断开全部连接
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked()
	for id, c := range r.members {
		_ = c.Close()
		delete(r.members, id)
	}
}

func (r *Room) closeLocked() {
	if r.closed {
		return
	}
	r.closed = true
	if r.tickStop != nil {
		r.tickStop.Stop()
	}
	r.cancelExpiryLocked()
}

func (r *Room) armExpiryLocked() {
	r.cancelExpiryLocked()
	if r.persistent {
		return
	}
	gen := r.expiryGen
	r.expiryStop = r.cfg.Scheduler.After(r.cfg.IdleExpiry, func() { r.expire(gen) })
}

func (r *Room) cancelExpiryLocked() {
	if r.expiryStop != nil {
		r.expiryStop.Stop()
		r.expiryStop = nil
	}
	r.expiryGen++
}

// expire 计时到期：仅当计时未被取消且房间仍为空时才销毁
func (r *Room) expire(gen uint64) {
	r.mu.Lock()
	if r.closed || gen != r.expiryGen || len(r.members) > 0 {
		r.mu.Unlock()
		return
	}
	r.expiryStop = nil
	r.closeLocked()
	onExpire := r.onExpire
	r.mu.Unlock()

	Log.Infow("room expired", "room", r.ID)
	if onExpire != nil {
		onExpire(r.ID, r)
	}
}

// Closed 房间是否已销毁
func (r *Room) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// NumPlayers 存活玩家数
func (r *Room) NumPlayers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.NumPlayers()
}

// NumMembers 连接数（含已淘汰仍在观战的连接）
func (r *Room) NumMembers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Config 当前参数副本
func (r *Room) Config() RoomConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg
}

// Metrics 房间指标
func (r *Room) Metrics() *RoomMetrics {
	return r.metrics
}

// TickSeq 已推进的 Tick 数（重开后归零）
func (r *Room) TickSeq() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Tick
}

func (r *Room) messageLog() []ChatMessage {
	return append(make([]ChatMessage, 0, len(r.messages)), r.messages...)
}

func (r *Room) sendLocked(c Conn, t string, payload any) {
	b, err := r.cfg.Codec.Encode(t, payload)
	if err != nil {
		Log.Errorw("encode event", "room", r.ID, "type", t, "err", err)
		return
	}
	if err := c.Send(b); err != nil {
		r.metrics.IncFramesDropped()
	}
}

// broadcastLocked 编码一次，发给所有成员
func (r *Room) broadcastLocked(t string, payload any) {
	b, err := r.cfg.Codec.Encode(t, payload)
	if err != nil {
		Log.Errorw("encode event", "room", r.ID, "type", t, "err", err)
		return
	}
	for _, c := range r.members {
		if err := c.Send(b); err != nil {
			r.metrics.IncFramesDropped()
		}
	}
}

// tickListener 把模拟中的带外事件转成广播，调用时已持有房间锁
type tickListener struct {
	r *Room
}

func (l tickListener) FruitEaten(id game.PlayerID, f game.Fruit) {
	l.r.metrics.IncFruitsEaten()
	l.r.broadcastLocked(EventScores, l.r.state.Scores())
}

func (l tickListener) Eliminated(victim, killer game.PlayerID, score int) {
	l.r.metrics.IncEliminations()
	if c, ok := l.r.members[victim]; ok {
		l.r.sendLocked(c, EventEliminated, struct {
			Killer string `json:"killer" msgpack:"killer"`
			Score  int    `json:"score" msgpack:"score"`
		}{Killer: string(killer), Score: score})
	}
	l.r.broadcastLocked(EventScores, l.r.state.Scores())
	Log.Infow("player eliminated", "room", l.r.ID, "victim", victim, "killer", killer, "score", score)
}

func (l tickListener) Fault(err error) {
	if errors.Is(err, game.ErrNoFreeCell) {
		l.r.metrics.IncSpawnFailures()
	}
	Log.Warnw("tick fault", "room", l.r.ID, "err", err)
}
