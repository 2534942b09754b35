package visualizer

import (
	"math"
	"strings"
)

var eighths = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Render paints bars into a width x height grid of runes, bottom-aligned.
func Render(bars []Bar, width, height int) []string {
	grid := make([][]rune, height)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", width))
	}
	for _, b := range bars {
		// round to the nearest eighth of a row
		units := int(math.Round(b.Height * 8))
		for row := 0; row < height; row++ {
			lvl := units - row*8
			if lvl <= 0 {
				break
			}
			ch := eighths[min(lvl, 8)]
			line := grid[height-1-row]
			for c := b.X; c < b.X+b.Width; c++ {
				if c >= 0 && c < width {
					line[c] = ch
				}
			}
		}
	}
	out := make([]string, height)
	for r := range grid {
		out[r] = string(grid[r])
	}
	return out
}
