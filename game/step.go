package game

import "fmt"

// Listener 接收模拟过程中的带外事件，由房间负责广播
type Listener interface {
	// FruitEaten 玩家吃到食物（分数已更新，替补食物已生成）
	FruitEaten(id PlayerID, f Fruit)
	// Eliminated 玩家被淘汰；自撞时 killer == victim
	Eliminated(victim, killer PlayerID, score int)
	// Fault 单个玩家处理失败或生成失败，不影响本 Tick 其余玩家
	Fault(err error)
}

type nopListener struct{}

func (nopListener) FruitEaten(PlayerID, Fruit)         {}
func (nopListener) Eliminated(PlayerID, PlayerID, int) {}
func (nopListener) Fault(error)                        {}

// Step 推进一个 Tick：按加入顺序移动每个玩家并立即结算碰撞
func (s *State) Step(l Listener) {
	if l == nil {
		l = nopListener{}
	}
	s.Tick++

	ids := append([]PlayerID(nil), s.order...)
	for _, id := range ids {
		if err := s.stepPlayer(id, l); err != nil {
			l.Fault(err)
		}
	}
}

func (s *State) stepPlayer(id PlayerID, l Listener) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("step player %s: %v", id, r)
		}
	}()

	// 本 Tick 内已被淘汰
	p, ok := s.players[id]
	if !ok {
		return nil
	}
	h := p.effectiveHeading()
	if h == HeadingNone {
		return nil
	}

	p.Tail = append(p.Tail, p.Position)
	p.Position = Advance(p.Position, h, s.grid)
	if p.GrowthCredits > 0 {
		p.GrowthCredits--
	} else {
		p.Tail = p.Tail[1:]
	}
	p.Heading = h

	s.resolve(id, l)
	return nil
}

// resolve 结算刚移动的玩家：先吃食物，再检查是否撞上任意蛇尾（包括自己）
func (s *State) resolve(id PlayerID, l Listener) {
	p, ok := s.players[id]
	if !ok {
		return
	}

	if f, ok := s.fruits[p.Position]; ok {
		eaten := *f
		s.RemoveFruit(p.Position)
		p.Score += eaten.Value
		p.GrowthCredits += eaten.Value
		if _, err := s.SpawnFruit(1); err != nil {
			l.Fault(fmt.Errorf("replace fruit: %w", err))
		}
		l.FruitEaten(id, eaten)
	}

	for _, otherID := range s.order {
		other := s.players[otherID]
		for _, seg := range other.Tail {
			if seg == p.Position {
				s.eliminate(p, other, l)
				return
			}
		}
	}
}

// eliminate 淘汰 victim，分数与成长额度转给 killer，并在死亡格掉落等值食物。
// 自撞时分数会先加回给即将被删除的自己，这里如实保留该行为。
func (s *State) eliminate(victim, killer *Player, l Listener) {
	score := victim.Score
	killer.Score += score
	killer.GrowthCredits += score

	death := victim.Position
	s.RemovePlayer(victim.ID)
	if score > 0 {
		s.PlaceFruit(death, score)
	}
	l.Eliminated(victim.ID, killer.ID, score)
}
