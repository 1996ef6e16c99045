package server

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"snakerooms/game"
)

// RoomInfo 房间列表条目
type RoomInfo struct {
	ID      string `json:"id"`
	Players int    `json:"players"`
	Members int    `json:"members"`
}

// RoomManager 管理多个房间的生命周期
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	cfg   RoomConfig
}

// NewRoomManager 以 cfg 作为所有新房间的模板
func NewRoomManager(cfg RoomConfig) *RoomManager {
	return &RoomManager{rooms: make(map[string]*Room), cfg: cfg}
}

// CreateRoom 生成唯一 ID 并创建房间，立即开始 Tick
func (m *RoomManager) CreateRoom() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	for {
		if _, ok := m.rooms[id]; !ok {
			break
		}
		id = uuid.NewString()
	}
	m.createLocked(id)
	return id
}

// GetOrCreateRoom 获取或创建房间，并确保开始 Tick
func (m *RoomManager) GetOrCreateRoom(id string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[id]; ok {
		return r
	}
	return m.createLocked(id)
}

// GetOrCreatePersistentRoom 获取或创建常驻房间（如启动时配置的默认房间），无人时也不销毁
func (m *RoomManager) GetOrCreatePersistentRoom(id string) *Room {
	r := m.GetOrCreateRoom(id)
	r.SetPersistent(true)
	return r
}

func (m *RoomManager) createLocked(id string) *Room {
	r := NewRoom(id, m.cfg)
	r.onExpire = m.remove
	m.rooms[id] = r
	r.Start()
	Log.Infow("room created", "room", id)
	return r
}

// GetRoom 按 ID 查找；已销毁的房间不可见
func (m *RoomManager) GetRoom(id string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok
}

// JoinRoom 查找并加入房间；房间不存在或正在销毁时统一返回 ErrRoomNotFound
func (m *RoomManager) JoinRoom(roomID string, id game.PlayerID, conn Conn) (*Room, error) {
	r, ok := m.GetRoom(roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}
	if err := r.Join(id, conn); err != nil {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// remove 只删除仍指向同一实例的条目
func (m *RoomManager) remove(id string, r *Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.rooms[id]; ok && cur == r {
		delete(m.rooms, id)
		Log.Infow("room removed", "room", id)
	}
}

// ListRooms 返回全部房间，按 ID 排序
func (m *RoomManager) ListRooms() []RoomInfo {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	out := make([]RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, RoomInfo{ID: r.ID, Players: r.NumPlayers(), Members: r.NumMembers()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SetTickInterval 热更新：作用于现有房间与之后创建的房间
func (m *RoomManager) SetTickInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	m.cfg.TickInterval = d
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.Unlock()

	for _, r := range rooms {
		r.SetTickInterval(d)
	}
}

// StopAll 关闭所有房间（进程退出时）
func (m *RoomManager) StopAll() {
	m.mu.Lock()
	rooms := m.rooms
	m.rooms = make(map[string]*Room)
	m.mu.Unlock()

	for _, r := range rooms {
		r.Close()
	}
}
