package viz

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// SVGColors are the per-axis stroke colors, pitch then roll then yaw.
var SVGColors = [3]string{"#ff5555", "#50fa7b", "#8be9fd"}

// CanvasSVG converts a braille canvas to SVG dots.
func CanvasSVG(canvas *Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}
	cw, ch := canvas.Dots()
	width, height := float64(cw)*scale, float64(ch)*scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00ff88">
`, width, height, width, height)

	dotRadius := scale * 0.4
	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			bits := canvas.Grid[row][col] - brailleBlank
			if bits <= 0 {
				continue
			}
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if bits&pixelMap[dy][dx] == 0 {
						continue
					}
					cx := float64(col*2+dx)*scale + scale/2
					cy := float64(row*4+dy)*scale + scale/2
					fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// WriteSeriesSVG draws series against times as polylines sharing one
// vertical scale, with a zero line when zero is in range.
func WriteSeriesSVG(w io.Writer, times []float64, series [][]float64, colors []string, width, height int) error {
	if len(times) < 2 {
		return fmt.Errorf("need at least 2 points, got %d", len(times))
	}

	minT, maxT := times[0], times[len(times)-1]
	minY, maxY := 0.0, 0.0
	for _, s := range series {
		for _, v := range s {
			if !math.IsNaN(v) {
				minY, maxY = min(minY, v), max(maxY, v)
			}
		}
	}
	rangeT := maxT - minT
	rangeY := maxY - minY
	if rangeT == 0 {
		rangeT = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	rangeY *= 1.2

	px := func(t float64) float64 { return (t - minT) / rangeT * float64(width) }
	py := func(v float64) float64 { return float64(height) - (v-minY)/rangeY*float64(height) }

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<line x1="0" y1="%.1f" x2="%d" y2="%.1f" stroke="#444444" stroke-dasharray="4 4"/>
`, width, height, width, height, py(0), width, py(0))

	for i, s := range series {
		color := "#ffffff"
		if i < len(colors) {
			color = colors[i]
		}
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, color)
		pen := "M"
		for j, v := range s {
			if j >= len(times) {
				break
			}
			if math.IsNaN(v) {
				pen = "M"
				continue
			}
			fmt.Fprintf(&sb, "%s%.1f,%.1f ", pen, px(times[j]), py(v))
			pen = "L"
		}
		sb.WriteString("\"/>\n")
	}
	sb.WriteString("</svg>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}
