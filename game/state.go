package game

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
)

// State 单个房间的权威模拟状态；不加锁，由房间保证串行访问
type State struct {
	Tick int

	grid    Grid
	rng     *rand.Rand
	players map[PlayerID]*Player
	order   []PlayerID // 加入顺序，Tick 按此顺序推进
	fruits  map[Position]*Fruit
}

// NewState 创建空状态；rng 为 nil 时使用随机种子
func NewState(grid Grid, rng *rand.Rand) *State {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &State{
		grid:    grid,
		rng:     rng,
		players: make(map[PlayerID]*Player),
		fruits:  make(map[Position]*Fruit),
	}
}

// Grid 返回网格尺寸
func (s *State) Grid() Grid {
	return s.grid
}

// Reset 原地重置：清空玩家与食物并生成初始食物
func (s *State) Reset(initialFruits int) error {
	s.Tick = 0
	s.players = make(map[PlayerID]*Player)
	s.order = nil
	s.fruits = make(map[Position]*Fruit)

	var errs []error
	for i := 0; i < initialFruits; i++ {
		if _, err := s.SpawnFruit(1); err != nil {
			errs = append(errs, fmt.Errorf("initial fruit %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// AddPlayer 在随机空格生成玩家；已存在时直接返回
func (s *State) AddPlayer(id PlayerID) (*Player, error) {
	if p, ok := s.players[id]; ok {
		return p, nil
	}
	pos, err := s.freeCell()
	if err != nil {
		return nil, fmt.Errorf("spawn player %s: %w", id, err)
	}
	p := newPlayer(id, pos)
	s.players[id] = p
	s.order = append(s.order, id)
	return p, nil
}

// RemovePlayer 移除玩家，返回是否存在
func (s *State) RemovePlayer(id PlayerID) bool {
	if _, ok := s.players[id]; !ok {
		return false
	}
	delete(s.players, id)
	for i, pid := range s.order {
		if pid == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Player 按 ID 查询玩家
func (s *State) Player(id PlayerID) (*Player, bool) {
	p, ok := s.players[id]
	return p, ok
}

// NumPlayers 存活玩家数
func (s *State) NumPlayers() int {
	return len(s.players)
}

// RequestDirection 方向准入控制。未知按键、玩家不存在、得分后的反向请求均静默忽略。
// 判断基于当前方向而不是待生效方向，连按两次也无法排入致命的掉头。
func (s *State) RequestDirection(id PlayerID, raw string) bool {
	h, ok := ParseHeading(raw)
	if !ok {
		return false
	}
	p, ok := s.players[id]
	if !ok {
		return false
	}
	return p.admit(h)
}

// PlayerSnapshot 下发给客户端的玩家状态
type PlayerSnapshot struct {
	Position    Position   `json:"position" msgpack:"position"`
	Heading     string     `json:"heading" msgpack:"heading"`
	Tail        []Position `json:"tail" msgpack:"tail"`
	Score       int        `json:"score" msgpack:"score"`
	Color       string     `json:"color" msgpack:"color"`
	TrailColor  string     `json:"trailColor" msgpack:"trailColor"`
	DisplayName string     `json:"displayName" msgpack:"displayName"`
}

// FruitSnapshot 下发给客户端的食物状态
type FruitSnapshot struct {
	Position Position `json:"position" msgpack:"position"`
	Value    int      `json:"value" msgpack:"value"`
}

// Snapshot 完整的房间状态（setup / update 事件载荷）
type Snapshot struct {
	Players map[string]PlayerSnapshot `json:"players" msgpack:"players"`
	Fruits  map[string]FruitSnapshot  `json:"fruits" msgpack:"fruits"`
}

// Snapshot 生成可序列化的深拷贝
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Players: make(map[string]PlayerSnapshot, len(s.players)),
		Fruits:  make(map[string]FruitSnapshot, len(s.fruits)),
	}
	for id, p := range s.players {
		snap.Players[string(id)] = PlayerSnapshot{
			Position:    p.Position,
			Heading:     p.Heading.String(),
			Tail:        append(make([]Position, 0, len(p.Tail)), p.Tail...),
			Score:       p.Score,
			Color:       p.Color,
			TrailColor:  p.TrailColor,
			DisplayName: p.DisplayName,
		}
	}
	for pos, f := range s.fruits {
		snap.Fruits[Key(pos)] = FruitSnapshot{Position: pos, Value: f.Value}
	}
	return snap
}

// Score 计分板条目
type Score struct {
	ID       string `json:"id" msgpack:"id"`
	Username string `json:"username" msgpack:"username"`
	Score    int    `json:"score" msgpack:"score"`
}

// Scores 按分数降序，同分按加入顺序
func (s *State) Scores() []Score {
	out := make([]Score, 0, len(s.order))
	for _, id := range s.order {
		p := s.players[id]
		out = append(out, Score{ID: string(id), Username: p.DisplayName, Score: p.Score})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
