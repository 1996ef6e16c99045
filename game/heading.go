package game

import "strings"

// Heading 蛇的移动方向
type Heading int

const (
	HeadingNone Heading = iota
	HeadingUp
	HeadingDown
	HeadingLeft
	HeadingRight
)

func (h Heading) String() string {
	switch h {
	case HeadingUp:
		return "up"
	case HeadingDown:
		return "down"
	case HeadingLeft:
		return "left"
	case HeadingRight:
		return "right"
	default:
		return ""
	}
}

// Opposite 返回反方向；None 的反方向仍为 None
func (h Heading) Opposite() Heading {
	switch h {
	case HeadingUp:
		return HeadingDown
	case HeadingDown:
		return HeadingUp
	case HeadingLeft:
		return HeadingRight
	case HeadingRight:
		return HeadingLeft
	default:
		return HeadingNone
	}
}

// IsOppositeOf 两个方向是否正好相反（未设置方向永远不算）
func (h Heading) IsOppositeOf(other Heading) bool {
	return h != HeadingNone && h.Opposite() == other
}

// ParseHeading 将原始按键映射为方向：方向键名、WASD 与 up/down/left/right，大小写不敏感
func ParseHeading(raw string) (Heading, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "arrowup", "w", "up":
		return HeadingUp, true
	case "arrowdown", "s", "down":
		return HeadingDown, true
	case "arrowleft", "a", "left":
		return HeadingLeft, true
	case "arrowright", "d", "right":
		return HeadingRight, true
	default:
		return HeadingNone, false
	}
}

// Advance 沿方向前进一格并环绕
func Advance(p Position, h Heading, g Grid) Position {
	switch h {
	case HeadingUp:
		p.Y--
	case HeadingDown:
		p.Y++
	case HeadingLeft:
		p.X--
	case HeadingRight:
		p.X++
	default:
		return p
	}
	return g.Wrap(p)
}
