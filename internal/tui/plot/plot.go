// Package plot renders the power spectrum chart as half-block terminal art.
package plot

import (
	"image"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/f3rmion/inflaton/internal/chart"
	"github.com/f3rmion/inflaton/internal/cosmo"
)

// supersample is the rasterization factor per output pixel.
const supersample = 4

// Cell colors
var (
	ScalarStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ecdc4"))
	TensorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff6b6b"))
	OverlapStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffe66d"))
)

// Grid is the rasterized chart before styling: one rune and owner per cell.
type Grid struct {
	Cols, Rows int
	Runes      [][]rune
	Owners     [][]Owner
}

// Owner records which series lit a cell.
type Owner uint8

const (
	OwnerNone Owner = iota
	OwnerScalar
	OwnerTensor
	OwnerBoth
)

// Rasterize draws both series into a cols x rows grid of half-block cells.
func Rasterize(points []cosmo.SpectrumPoint, cols, rows int) (*Grid, error) {
	rg, err := chart.Bounds(points)
	if err != nil {
		return nil, err
	}

	w, h := cols*supersample, rows*2*supersample
	frame := chart.Frame{Rect: image.Rect(0, 0, w, h), Range: rg}

	scalar := image.NewAlpha(frame.Rect)
	frame.Stroke(scalar, points, chart.Scalar, supersample, chart.ScalarColor)
	tensor := image.NewAlpha(frame.Rect)
	frame.Stroke(tensor, points, chart.Tensor, supersample, chart.TensorColor)

	s := scaleDown(scalar, cols, rows*2)
	t := scaleDown(tensor, cols, rows*2)

	g := &Grid{Cols: cols, Rows: rows}
	for row := 0; row < rows; row++ {
		runes := make([]rune, cols)
		owners := make([]Owner, cols)
		for col := 0; col < cols; col++ {
			topS, botS := on(s, col, row*2), on(s, col, row*2+1)
			topT, botT := on(t, col, row*2), on(t, col, row*2+1)
			runes[col] = halfBlock(topS || topT, botS || botT)

			switch {
			case (topS || botS) && (topT || botT):
				owners[col] = OwnerBoth
			case topS || botS:
				owners[col] = OwnerScalar
			case topT || botT:
				owners[col] = OwnerTensor
			}
		}
		g.Runes = append(g.Runes, runes)
		g.Owners = append(g.Owners, owners)
	}
	return g, nil
}

// Render rasterizes and styles the chart. It returns "" when there is
// nothing to plot.
func Render(points []cosmo.SpectrumPoint, cols, rows int) string {
	if cols <= 0 || rows <= 0 {
		return ""
	}
	g, err := Rasterize(points, cols, rows)
	if err != nil {
		return ""
	}
	return g.String()
}

// String styles each run of same-owner cells.
func (g *Grid) String() string {
	var result strings.Builder
	for row := 0; row < g.Rows; row++ {
		start := 0
		for col := 1; col <= g.Cols; col++ {
			if col < g.Cols && g.Owners[row][col] == g.Owners[row][start] {
				continue
			}
			result.WriteString(styleFor(g.Owners[row][start]).Render(string(g.Runes[row][start:col])))
			start = col
		}
		if row < g.Rows-1 {
			result.WriteRune('\n')
		}
	}
	return result.String()
}

func styleFor(o Owner) lipgloss.Style {
	switch o {
	case OwnerScalar:
		return ScalarStyle
	case OwnerTensor:
		return TensorStyle
	case OwnerBoth:
		return OverlapStyle
	default:
		return lipgloss.NewStyle()
	}
}

func halfBlock(top, bottom bool) rune {
	switch {
	case top && bottom:
		return '█'
	case top:
		return '▀'
	case bottom:
		return '▄'
	default:
		return ' '
	}
}

// threshold for "on"
const threshold = uint8(40)

func on(img *image.Alpha, x, y int) bool {
	if x < 0 || y < 0 || x >= img.Bounds().Max.X || y >= img.Bounds().Max.Y {
		return false
	}
	return img.AlphaAt(x, y).A > threshold
}

// scaleDown scales an alpha mask using area averaging
func scaleDown(src *image.Alpha, dstWidth, dstHeight int) *image.Alpha {
	srcBounds := src.Bounds()
	srcWidth := srcBounds.Max.X
	srcHeight := srcBounds.Max.Y

	dst := image.NewAlpha(image.Rect(0, 0, dstWidth, dstHeight))

	xRatio := float64(srcWidth) / float64(dstWidth)
	yRatio := float64(srcHeight) / float64(dstHeight)

	for dy := 0; dy < dstHeight; dy++ {
		for dx := 0; dx < dstWidth; dx++ {
			sx1 := int(float64(dx) * xRatio)
			sy1 := int(float64(dy) * yRatio)
			sx2 := int(float64(dx+1) * xRatio)
			sy2 := int(float64(dy+1) * yRatio)

			if sx2 > srcWidth {
				sx2 = srcWidth
			}
			if sy2 > srcHeight {
				sy2 = srcHeight
			}

			var sum int
			count := 0
			for sy := sy1; sy < sy2; sy++ {
				for sx := sx1; sx < sx2; sx++ {
					sum += int(src.AlphaAt(sx, sy).A)
					count++
				}
			}

			if count > 0 {
				// Keep thin strokes visible after averaging.
				v := sum * 4 / count
				if v > 255 {
					v = 255
				}
				dst.Pix[dst.PixOffset(dx, dy)] = uint8(v)
			}
		}
	}

	return dst
}

// cache for rendered charts, keyed by the response being shown
var cache = struct {
	resp       *cosmo.CalculationResponse
	cols, rows int
	out        string
}{}

// GetCached returns the cached chart for resp or renders a new one.
func GetCached(resp *cosmo.CalculationResponse, cols, rows int) string {
	if resp == nil {
		return ""
	}
	if cache.resp == resp && cache.cols == cols && cache.rows == rows {
		return cache.out
	}
	out := Render(resp.SpectrumData, cols, rows)
	cache.resp, cache.cols, cache.rows, cache.out = resp, cols, rows, out
	return out
}
