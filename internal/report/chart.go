package report

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/f32"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

const (
	chartWidth  = 900
	chartHeight = 540
	marginLeft  = 70
	marginRight = 230
	marginTop   = 40
	marginBot   = 50
)

// Series is one labelled line of a chart.
type Series struct {
	Label  string
	Values []float64
}

var (
	background = color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
	axisColor  = color.RGBA{0x20, 0x20, 0x20, 0xFF}
	gridColor  = color.RGBA{0xE0, 0xE0, 0xE0, 0xFF}

	// Palette holds the line colours, assigned to series in order.
	Palette = []color.RGBA{
		{0x1F, 0x77, 0xB4, 0xFF},
		{0xFF, 0x7F, 0x0E, 0xFF},
		{0x2C, 0xA0, 0x2C, 0xFF},
		{0xD6, 0x27, 0x28, 0xFF},
		{0x94, 0x67, 0xBD, 0xFF},
		{0x8C, 0x56, 0x4B, 0xFF},
	}
)

// ErrNoData is returned when every series is empty.
var ErrNoData = errors.New("report: no data to chart")

// LineChart draws the series as a PNG line chart with the step on the
// x axis.
func LineChart(w io.Writer, title string, series []Series) error {
	img, err := renderChart(title, series)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("report: encode chart: %w", err)
	}
	return nil
}

func renderChart(title string, series []Series) (*image.RGBA, error) {
	steps := 0
	maxY := 0.0
	for _, s := range series {
		steps = max(steps, len(s.Values))
		for _, v := range s.Values {
			maxY = max(maxY, v)
		}
	}
	if steps == 0 {
		return nil, ErrNoData
	}
	if maxY <= 0 {
		maxY = 1
	}
	maxY = niceCeil(maxY)

	img := image.NewRGBA(image.Rect(0, 0, chartWidth, chartHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{background}, image.Point{}, draw.Src)
	cv := newCanvas(img)

	plot := image.Rect(marginLeft, marginTop, chartWidth-marginRight, chartHeight-marginBot)
	x0, x1 := float32(plot.Min.X), float32(plot.Max.X)
	y0, y1 := float32(plot.Min.Y), float32(plot.Max.Y)
	xOf := func(i int) float32 {
		if steps == 1 {
			return x0 + 0.5
		}
		return x0 + 0.5 + float32(i)*(x1-x0-1)/float32(steps-1)
	}
	yOf := func(v float64) float32 {
		return y1 - 0.5 - float32(v/maxY)*(y1-y0-1)
	}

	const ticks = 5
	for t := 0; t <= ticks; t++ {
		v := maxY * float64(t) / ticks
		y := yOf(v)
		cv.rect(x0, y-0.5, x1, y+0.5)
		label(img, tickLabel(v, maxY), 8, int(y)+4, axisColor)
	}
	cv.fill(gridColor)
	for t := 0; t <= ticks; t++ {
		i := (steps - 1) * t / ticks
		label(img, fmt.Sprintf("%d", i+1), int(xOf(i))-8, plot.Max.Y+18, axisColor)
	}
	cv.rect(x0, y1-1, x1, y1)
	cv.rect(x0, y0, x0+1, y1)
	cv.fill(axisColor)

	legendX := float32(chartWidth - marginRight)
	for si, s := range series {
		c := Palette[si%len(Palette)]
		pts := make([]f32.Vec2, len(s.Values))
		for i, v := range s.Values {
			pts[i] = f32.Vec2{xOf(i), yOf(v)}
		}
		cv.polyline(pts, 2.5)
		ly := float32(marginTop + 10 + si*20)
		cv.rect(legendX+15, ly-1.5, legendX+35, ly+1.5)
		cv.fill(c)
		label(img, s.Label, chartWidth-marginRight+42, int(ly)+4, axisColor)
	}

	label(img, title, marginLeft, marginTop-15, axisColor)
	label(img, "Step", plot.Min.X+plot.Dx()/2-14, chartHeight-12, axisColor)
	return img, nil
}

// niceCeil rounds v up to 1, 2 or 5 times a power of ten.
func niceCeil(v float64) float64 {
	exp := math.Pow(10, math.Floor(math.Log10(v)))
	for _, m := range []float64{1, 2, 5, 10} {
		if m*exp >= v {
			return m * exp
		}
	}
	return 10 * exp
}

// tickLabel prints whole numbers unless the axis tops out below 10.
func tickLabel(v, maxY float64) string {
	if maxY >= 10 {
		return fmt.Sprintf("%.0f", v)
	}
	return strconv.FormatFloat(v, 'g', 3, 64)
}

func label(img draw.Image, s string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// canvas accumulates paths in a rasterizer until fill paints them.
// Every subpath is wound the same way so overlaps never cancel.
type canvas struct {
	img *image.RGBA
	z   *vector.Rasterizer
}

func newCanvas(img *image.RGBA) *canvas {
	b := img.Bounds()
	return &canvas{img: img, z: vector.NewRasterizer(b.Dx(), b.Dy())}
}

func (cv *canvas) rect(x0, y0, x1, y1 float32) {
	cv.z.MoveTo(x0, y1)
	cv.z.LineTo(x1, y1)
	cv.z.LineTo(x1, y0)
	cv.z.LineTo(x0, y0)
	cv.z.ClosePath()
}

// polyline strokes pts with the given width as one quad per segment plus
// a square over every vertex to close the joins.
func (cv *canvas) polyline(pts []f32.Vec2, width float32) {
	hw := width / 2
	for i, p := range pts {
		cv.rect(p[0]-hw, p[1]-hw, p[0]+hw, p[1]+hw)
		if i == 0 {
			continue
		}
		q := pts[i-1]
		dx, dy := p[0]-q[0], p[1]-q[1]
		l := float32(math.Hypot(float64(dx), float64(dy)))
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*hw, dx/l*hw
		cv.z.MoveTo(q[0]+nx, q[1]+ny)
		cv.z.LineTo(p[0]+nx, p[1]+ny)
		cv.z.LineTo(p[0]-nx, p[1]-ny)
		cv.z.LineTo(q[0]-nx, q[1]-ny)
		cv.z.ClosePath()
	}
}

func (cv *canvas) fill(c color.RGBA) {
	b := cv.img.Bounds()
	cv.z.Draw(cv.img, b, image.NewUniform(c), image.Point{})
	cv.z.Reset(b.Dx(), b.Dy())
}
