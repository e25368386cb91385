package entities

import "fmt"

// Rect is an axis-aligned rectangle; X/Y is the top-left corner
type Rect struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Translate returns the rectangle moved by o, size unchanged
func (r Rect) Translate(o Offset) Rect {
	r.X += o.DX
	r.Y += o.DY
	return r
}

// Center returns the midpoint of the rectangle
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Origin returns the top-left corner as an offset
func (r Rect) Origin() Offset {
	return Offset{DX: r.X, DY: r.Y}
}

func (r Rect) String() string {
	return fmt.Sprintf("(%g,%g %gx%g)", r.X, r.Y, r.Width, r.Height)
}

// Point is a screen or document coordinate
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Offset is a translation
type Offset struct {
	DX float64 `json:"dx" yaml:"dx"`
	DY float64 `json:"dy" yaml:"dy"`
}

// Add returns the sum of both offsets
func (o Offset) Add(other Offset) Offset {
	return Offset{DX: o.DX + other.DX, DY: o.DY + other.DY}
}

// ClickPointPolicy picks the point to click inside a screen-space box
type ClickPointPolicy interface {
	ClickablePoint(box Rect) Point
}

// CenterPoint clicks the middle of the box
type CenterPoint struct{}

func (CenterPoint) ClickablePoint(box Rect) Point {
	return box.Center()
}

// OffsetPoint clicks at a fixed distance from the top-left corner
type OffsetPoint struct {
	X, Y float64
}

func (p OffsetPoint) ClickablePoint(box Rect) Point {
	return Point{X: box.X + p.X, Y: box.Y + p.Y}
}
