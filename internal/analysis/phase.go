package analysis

import (
	"strings"

	"github.com/san-kum/attsim/internal/dynamo"
)

type Point struct{ X, Y float64 }

// PhasePortrait is one axis's error (X) against body rate (Y).
type PhasePortrait struct {
	Axis   int
	Points []Point
}

func NewPhasePortrait(samples []dynamo.Sample, axis int) *PhasePortrait {
	if axis < 0 || axis > 2 {
		return nil
	}
	p := &PhasePortrait{Axis: axis, Points: make([]Point, 0, len(samples))}
	for _, s := range samples {
		x, y := s.Error[axis], s.Rate[axis]
		if dynamo.IsFinite(x) && dynamo.IsFinite(y) {
			p.Points = append(p.Points, Point{X: x, Y: y})
		}
	}
	return p
}

// ASCII draws the portrait on a width by height character grid with the
// axes through the origin when it is in view. The final point is marked.
func (p *PhasePortrait) ASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := p.Points[0].X, p.Points[0].X
	minY, maxY := p.Points[0].Y, p.Points[0].Y
	for _, pt := range p.Points {
		minX, maxX = min(minX, pt.X), max(maxX, pt.X)
		minY, maxY = min(minY, pt.Y), max(maxY, pt.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	cell := func(x, y float64) (int, int) {
		col := int((x - minX) / rangeX * float64(width-1))
		row := height - 1 - int((y-minY)/rangeY*float64(height-1))
		return row, col
	}

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}
	zeroRow, zeroCol := cell(0, 0)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			switch {
			case row == zeroRow && col == zeroCol:
				grid[row][col] = '┼'
			case col == zeroCol:
				grid[row][col] = '│'
			case row == zeroRow:
				grid[row][col] = '─'
			}
		}
	}
	for _, pt := range p.Points {
		row, col := cell(pt.X, pt.Y)
		if row >= 0 && row < height && col >= 0 && col < width {
			grid[row][col] = '•'
		}
	}
	last := p.Points[len(p.Points)-1]
	if row, col := cell(last.X, last.Y); row >= 0 && row < height && col >= 0 && col < width {
		grid[row][col] = '◉'
	}

	var sb strings.Builder
	for _, row := range grid {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
