package game

import "errors"

// ErrNoFreeCell 网格上没有可用于生成的空格
var ErrNoFreeCell = errors.New("no free cell")

// 随机重试次数，超过后退化为全网格扫描
const spawnAttempts = 64

// Fruit 食物，每格至多一个
type Fruit struct {
	Position Position
	Value    int
}

// SpawnFruit 在随机空格生成一个食物；找不到空格时返回 ErrNoFreeCell，本轮跳过
func (s *State) SpawnFruit(value int) (Fruit, error) {
	if value < 1 {
		value = 1
	}
	pos, err := s.freeCell()
	if err != nil {
		return Fruit{}, err
	}
	f := Fruit{Position: pos, Value: value}
	s.fruits[pos] = &f
	return f, nil
}

// PlaceFruit 在指定格放置食物（死亡掉落），该格已有食物时累加分值
func (s *State) PlaceFruit(pos Position, value int) Fruit {
	if f, ok := s.fruits[pos]; ok {
		f.Value += value
		return *f
	}
	f := Fruit{Position: pos, Value: value}
	s.fruits[pos] = &f
	return f
}

// RemoveFruit 删除指定格的食物
func (s *State) RemoveFruit(pos Position) {
	delete(s.fruits, pos)
}

// FruitAt 查询指定格的食物
func (s *State) FruitAt(pos Position) (Fruit, bool) {
	f, ok := s.fruits[pos]
	if !ok {
		return Fruit{}, false
	}
	return *f, true
}

// NumFruits 当前食物数量
func (s *State) NumFruits() int {
	return len(s.fruits)
}

// occupied 是否被食物、蛇头或蛇尾占据
func (s *State) occupied(pos Position) bool {
	if _, ok := s.fruits[pos]; ok {
		return true
	}
	for _, p := range s.players {
		if p.occupies(pos) {
			return true
		}
	}
	return false
}

// freeCell 先随机重试，失败后全网格扫描并在空格中均匀抽取
func (s *State) freeCell() (Position, error) {
	for i := 0; i < spawnAttempts; i++ {
		pos := Position{X: s.rng.Intn(s.grid.Width), Y: s.rng.Intn(s.grid.Height)}
		if !s.occupied(pos) {
			return pos, nil
		}
	}

	taken := make(map[Position]struct{}, len(s.fruits))
	for pos := range s.fruits {
		taken[pos] = struct{}{}
	}
	for _, p := range s.players {
		taken[p.Position] = struct{}{}
		for _, t := range p.Tail {
			taken[t] = struct{}{}
		}
	}
	free := make([]Position, 0, max(s.grid.Cells()-len(taken), 0))
	for y := 0; y < s.grid.Height; y++ {
		for x := 0; x < s.grid.Width; x++ {
			pos := Position{X: x, Y: y}
			if _, ok := taken[pos]; !ok {
				free = append(free, pos)
			}
		}
	}
	if len(free) == 0 {
		return Position{}, ErrNoFreeCell
	}
	return free[s.rng.Intn(len(free))], nil
}
