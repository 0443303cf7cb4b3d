// Package chart draws the scalar and tensor power spectra on log-log axes.
package chart

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/f3rmion/inflaton/internal/cosmo"
	"github.com/golang/freetype/raster"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ErrNoData is returned when no point has a positive wavenumber and power.
var ErrNoData = errors.New("no plottable spectrum points")

// Palette
var (
	ScalarColor = color.RGBA{0x4e, 0xcd, 0xc4, 0xff} // Teal
	TensorColor = color.RGBA{0xff, 0x6b, 0x6b, 0xff} // Red
	AxisColor   = color.RGBA{0x3d, 0x5a, 0x80, 0xff}
	LabelColor  = color.RGBA{0xa8, 0xda, 0xdc, 0xff}
	Background  = color.RGBA{0x1a, 0x1a, 0x2e, 0xff}
)

// Range holds log10 bounds of both axes.
type Range struct {
	KMin, KMax float64
	PMin, PMax float64
}

// Bounds computes the log10 range over all positive values, padded so a
// single point or a flat series still spans a decade.
func Bounds(points []cosmo.SpectrumPoint) (Range, error) {
	rg := Range{KMin: math.Inf(1), KMax: math.Inf(-1), PMin: math.Inf(1), PMax: math.Inf(-1)}
	for _, p := range points {
		if p.K <= 0 {
			continue
		}
		for _, v := range []float64{p.Scalar, p.Tensor} {
			if v <= 0 {
				continue
			}
			rg.PMin = math.Min(rg.PMin, math.Log10(v))
			rg.PMax = math.Max(rg.PMax, math.Log10(v))
			rg.KMin = math.Min(rg.KMin, math.Log10(p.K))
			rg.KMax = math.Max(rg.KMax, math.Log10(p.K))
		}
	}
	if math.IsInf(rg.KMin, 1) {
		return Range{}, ErrNoData
	}
	if rg.KMax-rg.KMin < 1e-9 {
		rg.KMin -= 0.5
		rg.KMax += 0.5
	}
	if rg.PMax-rg.PMin < 1e-9 {
		rg.PMin -= 0.5
		rg.PMax += 0.5
	}
	return rg, nil
}

// Series selects one of the two spectra.
type Series int

const (
	Scalar Series = iota
	Tensor
)

func (s Series) value(p cosmo.SpectrumPoint) float64 {
	if s == Tensor {
		return p.Tensor
	}
	return p.Scalar
}

// Frame maps log10 coordinates into a pixel rectangle.
type Frame struct {
	Rect  image.Rectangle
	Range Range
}

// Point returns the pixel position of (k, power). ok is false for
// non-positive values, which have no place on a log axis.
func (f Frame) Point(k, power float64) (x, y float64, ok bool) {
	if k <= 0 || power <= 0 {
		return 0, 0, false
	}
	w := float64(f.Rect.Dx() - 1)
	h := float64(f.Rect.Dy() - 1)
	fx := (math.Log10(k) - f.Range.KMin) / (f.Range.KMax - f.Range.KMin)
	fy := (math.Log10(power) - f.Range.PMin) / (f.Range.PMax - f.Range.PMin)
	return float64(f.Rect.Min.X) + fx*w, float64(f.Rect.Min.Y) + (1-fy)*h, true
}

// Stroke rasterizes one series as a polyline onto dst, which must be an
// *image.RGBA or an *image.Alpha mask.
func (f Frame) Stroke(dst draw.Image, points []cosmo.SpectrumPoint, s Series, width float64, c color.Color) {
	b := dst.Bounds()
	r := raster.NewRasterizer(b.Dx(), b.Dy())
	r.UseNonZeroWinding = true

	var path raster.Path
	started := false
	for _, p := range points {
		x, y, ok := f.Point(p.K, s.value(p))
		if !ok {
			started = false
			continue
		}
		pt := fixed.Point26_6{X: toFixed(x - float64(b.Min.X)), Y: toFixed(y - float64(b.Min.Y))}
		if !started {
			path.Start(pt)
			// A lone point still needs a visible mark.
			path.Add1(pt.Add(fixed.Point26_6{X: 1}))
			started = true
			continue
		}
		path.Add1(pt)
	}
	if len(path) == 0 {
		return
	}

	raster.Stroke(r, path, toFixed(width), raster.RoundCapper, raster.RoundJoiner)
	// Spans are dst-relative because the rasterizer is sized to dst.Bounds().
	switch m := dst.(type) {
	case *image.RGBA:
		p := raster.NewRGBAPainter(m)
		p.SetColor(c)
		r.Rasterize(p)
	case *image.Alpha:
		r.Rasterize(raster.NewAlphaOverPainter(m))
	}
}

func toFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}

// Options configures Render.
type Options struct {
	Width  int
	Height int
}

// DefaultOptions returns the PNG export size.
func DefaultOptions() Options {
	return Options{Width: 800, Height: 480}
}

const (
	marginLeft   = 64
	marginRight  = 16
	marginTop    = 24
	marginBottom = 40
)

// Render draws the full chart with axes, decade grid, labels and legend.
func Render(points []cosmo.SpectrumPoint, opts Options) (*image.RGBA, error) {
	rg, err := Bounds(points)
	if err != nil {
		return nil, err
	}
	if opts.Width < marginLeft+marginRight+16 || opts.Height < marginTop+marginBottom+16 {
		return nil, fmt.Errorf("chart size %dx%d too small", opts.Width, opts.Height)
	}

	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	frame := Frame{
		Rect:  image.Rect(marginLeft, marginTop, opts.Width-marginRight, opts.Height-marginBottom),
		Range: rg,
	}

	drawGrid(img, frame)
	frame.Stroke(img, points, Scalar, 2, ScalarColor)
	frame.Stroke(img, points, Tensor, 2, TensorColor)
	drawLegend(img, frame)

	return img, nil
}

// WritePNG renders the chart and encodes it as PNG.
func WritePNG(w io.Writer, points []cosmo.SpectrumPoint, opts Options) error {
	img, err := Render(points, opts)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}

// SaveFile writes the chart as a PNG file at path, creating parent
// directories as needed.
func SaveFile(path string, points []cosmo.SpectrumPoint, opts Options) error {
	img, err := Render(points, opts)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating chart directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding png: %w", err)
	}
	return f.Close()
}

func drawGrid(img *image.RGBA, f Frame) {
	r := f.Rect
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Max.Y-1, AxisColor)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, AxisColor)
	}

	for d := math.Ceil(f.Range.KMin); d <= f.Range.KMax; d++ {
		x, _, _ := f.Point(math.Pow(10, d), math.Pow(10, f.Range.PMin))
		for y := r.Min.Y; y < r.Max.Y; y += 3 {
			img.Set(int(x), y, AxisColor)
		}
		label := decadeLabel(d)
		drawText(img, int(x)-textWidth(label)/2, r.Max.Y+16, label, LabelColor)
	}
	for d := math.Ceil(f.Range.PMin); d <= f.Range.PMax; d++ {
		_, y, _ := f.Point(math.Pow(10, f.Range.KMin), math.Pow(10, d))
		for x := r.Min.X; x < r.Max.X; x += 3 {
			img.Set(x, int(y), AxisColor)
		}
		label := decadeLabel(d)
		drawText(img, r.Min.X-textWidth(label)-6, int(y)+4, label, LabelColor)
	}

	drawText(img, r.Min.X+r.Dx()/2-textWidth("k [Mpc^-1]")/2, r.Max.Y+34, "k [Mpc^-1]", LabelColor)
}

func drawLegend(img *image.RGBA, f Frame) {
	x := f.Rect.Max.X - 130
	y := f.Rect.Min.Y + 4
	for i, item := range []struct {
		label string
		c     color.RGBA
	}{
		{"P_s(k) scalar", ScalarColor},
		{"P_t(k) tensor", TensorColor},
	} {
		ly := y + i*16
		draw.Draw(img, image.Rect(x, ly+4, x+14, ly+7), image.NewUniform(item.c), image.Point{}, draw.Src)
		drawText(img, x+20, ly+10, item.label, LabelColor)
	}
}

func decadeLabel(d float64) string {
	return "1e" + strconv.Itoa(int(d))
}

func drawText(img draw.Image, x, y int, s string, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func textWidth(s string) int {
	return font.MeasureString(basicfont.Face7x13, s).Ceil()
}
