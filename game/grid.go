package game

import "fmt"

// Position 网格坐标（单位：格）
type Position struct {
	X int `json:"x" msgpack:"x"`
	Y int `json:"y" msgpack:"y"`
}

// Grid 固定尺寸的环绕网格，生命周期内不可变
type Grid struct {
	Width  int
	Height int
}

// NewGrid 由画布像素尺寸与格子大小推导网格
func NewGrid(canvasWidth, canvasHeight, cellSize int) Grid {
	if cellSize <= 0 {
		cellSize = 1
	}
	return Grid{Width: canvasWidth / cellSize, Height: canvasHeight / cellSize}
}

// Contains 坐标是否在网格内
func (g Grid) Contains(p Position) bool {
	return p.X >= 0 && p.X < g.Width && p.Y >= 0 && p.Y < g.Height
}

// Wrap 越界坐标从对边重新进入
func (g Grid) Wrap(p Position) Position {
	p.X = ((p.X % g.Width) + g.Width) % g.Width
	p.Y = ((p.Y % g.Height) + g.Height) % g.Height
	return p
}

// Cells 网格总格数
func (g Grid) Cells() int {
	return g.Width * g.Height
}

// Key 食物表的对外键，如 "x3y14"
func Key(p Position) string {
	return fmt.Sprintf("x%dy%d", p.X, p.Y)
}
