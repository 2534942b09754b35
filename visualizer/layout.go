// Package visualizer draws live frequency bars in the terminal.
package visualizer

const (
	// Gap is the blank columns between two bars.
	Gap = 1
	// fill is the share of the canvas width the bars may occupy.
	fill = 0.8
	// minHeight keeps silent bins visible, as a share of canvas height.
	minHeight = 0.1
)

type Bar struct {
	X      int
	Width  int
	Height float64 // rows, fractional
}

// Layout places one bar per value, centered horizontally. When the canvas is
// too narrow for a column per value, neighbouring values are averaged first.
func Layout(values []uint8, width, height int) []Bar {
	if len(values) == 0 || width <= 0 || height <= 0 {
		return nil
	}
	usable := int(float64(width) * fill)
	barWidth := usable/len(values) - Gap
	if barWidth < 1 {
		n := (usable + Gap) / (1 + Gap)
		if n < 1 {
			n = 1
		}
		values = Downsample(values, n)
		barWidth = 1
	}

	total := len(values)*(barWidth+Gap) - Gap
	x := (width - total) / 2
	bars := make([]Bar, len(values))
	for i, v := range values {
		h := float64(v) / 255 * float64(height)
		if floor := minHeight * float64(height); h < floor {
			h = floor
		}
		bars[i] = Bar{X: x, Width: barWidth, Height: h}
		x += barWidth + Gap
	}
	return bars
}

// Downsample averages values into n buckets.
func Downsample(values []uint8, n int) []uint8 {
	if n >= len(values) {
		return values
	}
	out := make([]uint8, n)
	for i := range out {
		lo := i * len(values) / n
		hi := (i + 1) * len(values) / n
		sum := 0
		for _, v := range values[lo:hi] {
			sum += int(v)
		}
		out[i] = uint8(sum / (hi - lo))
	}
	return out
}
