package game

// PlayerID 玩家唯一标识（即连接 ID）
type PlayerID string

const (
	defaultColor      = "black"
	defaultTrailColor = "#646464"
)

// 尾巴配色表，按头部颜色派生
var trailPalette = map[string]string{
	"red":    "#960000",
	"green":  "#009600",
	"blue":   "#000096",
	"yellow": "#969600",
	"purple": "#640096",
}

// TrailColorFor 根据头部颜色返回固定的尾巴颜色，未知颜色使用默认灰色
func TrailColorFor(color string) string {
	if c, ok := trailPalette[color]; ok {
		return c
	}
	return defaultTrailColor
}

// Player 房间内的一条蛇（服务端权威状态）
type Player struct {
	ID       PlayerID
	Position Position

	// Heading 为当前方向，同时也是上一 Tick 实际生效的方向
	Heading Heading
	// Pending 为最近一次被接纳的方向请求，下一 Tick 生效
	Pending Heading

	// Tail 旧→新，长度 = 蛇长 - 1
	Tail          []Position
	GrowthCredits int
	Score         int

	DisplayName string
	Color       string
	TrailColor  string
}

func newPlayer(id PlayerID, pos Position) *Player {
	return &Player{
		ID:          id,
		Position:    pos,
		DisplayName: string(id),
		Color:       defaultColor,
		TrailColor:  defaultTrailColor,
	}
}

// SetIdentity 在“准备开始”时确定昵称与颜色
func (p *Player) SetIdentity(name, color string) {
	if name != "" {
		p.DisplayName = name
	}
	if color != "" {
		p.Color = color
	}
	p.TrailColor = TrailColorFor(p.Color)
}

// admit 方向准入：得分后禁止与当前方向正好相反的请求
func (p *Player) admit(h Heading) bool {
	if p.Score > 0 && h.IsOppositeOf(p.Heading) {
		return false
	}
	p.Pending = h
	return true
}

// effectiveHeading 解析本 Tick 生效的方向，非法反向时沿用上一 Tick 的方向
func (p *Player) effectiveHeading() Heading {
	if p.Score > 0 && p.Pending.IsOppositeOf(p.Heading) {
		return p.Heading
	}
	if p.Pending == HeadingNone {
		return p.Heading
	}
	return p.Pending
}

// occupies 头部或任一尾节是否位于该格
func (p *Player) occupies(pos Position) bool {
	if p.Position == pos {
		return true
	}
	for _, t := range p.Tail {
		if t == pos {
			return true
		}
	}
	return false
}
