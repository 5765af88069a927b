package ui

import (
	"image"
	"math"

	"cryptotracker/internal/presentation"
)

// screenLayout splits the window into a scrollable coin list on the left and
// the detail pane with the chart on the right. All values are physical pixels.
type screenLayout struct {
	width, height int
	scale         float64
	lineHeight    float64
}

func newScreenLayout(width, height int, scale, lineHeight float64) screenLayout {
	return screenLayout{width: width, height: height, scale: scale, lineHeight: lineHeight}
}

func (l screenLayout) padding() float64 {
	return 10.0 * l.scale
}

func (l screenLayout) listRect() image.Rectangle {
	w := int(math.Max(float64(l.width)*0.45, 280*l.scale))
	if w > l.width {
		w = l.width
	}
	return image.Rect(0, 0, w, l.height)
}

func (l screenLayout) detailRect() image.Rectangle {
	return image.Rect(l.listRect().Max.X, 0, l.width, l.height)
}

// chartRect leaves room for four header lines above and the x labels below.
func (l screenLayout) chartRect() image.Rectangle {
	d := l.detailRect()
	chartPadding := 30.0 * l.scale
	top := float64(d.Min.Y) + l.padding() + 4*l.lineHeight
	bottom := float64(d.Max.Y) - chartPadding - l.lineHeight
	if bottom < top {
		bottom = top
	}
	return image.Rect(
		d.Min.X+int(chartPadding),
		int(top),
		d.Max.X-int(chartPadding),
		int(bottom),
	)
}

func (l screenLayout) rowY(i int, scroll float64) float64 {
	return l.padding() + float64(i)*l.lineHeight - scroll
}

func (l screenLayout) maxScroll(rows int) float64 {
	content := l.padding()*2 + float64(rows)*l.lineHeight
	return math.Max(0, content-float64(l.listRect().Dy()))
}

func (l screenLayout) clampScroll(scroll float64, rows int) float64 {
	return math.Min(math.Max(scroll, 0), l.maxScroll(rows))
}

// rowAt returns the list row under the cursor.
func (l screenLayout) rowAt(mx, my int, scroll float64, rows int) (int, bool) {
	if !image.Pt(mx, my).In(l.listRect()) {
		return 0, false
	}
	offset := float64(my) + scroll - l.padding()
	if offset < 0 {
		return 0, false
	}
	i := int(offset / l.lineHeight)
	if i >= rows {
		return 0, false
	}
	return i, true
}

// visibleRows returns the half-open index range of rows inside the list.
func (l screenLayout) visibleRows(scroll float64, rows int) (int, int) {
	first := int(math.Floor((scroll - l.padding()) / l.lineHeight))
	if first < 0 {
		first = 0
	}
	last := int(math.Ceil((scroll+float64(l.listRect().Dy())-l.padding())/l.lineHeight)) + 1
	if last > rows {
		last = rows
	}
	if first > last {
		first = last
	}
	return first, last
}

type chartPoint struct {
	X, Y float32
}

// priceBounds returns the y range of points, widened when flat.
func priceBounds(points []presentation.DataPoint) (float64, float64) {
	if len(points) == 0 {
		return 0, 0
	}
	minPrice, maxPrice := points[0].Y, points[0].Y
	for _, p := range points {
		minPrice = math.Min(minPrice, p.Y)
		maxPrice = math.Max(maxPrice, p.Y)
	}
	if maxPrice == minPrice {
		minPrice -= 0.001
		maxPrice += 0.001
	}
	return minPrice, maxPrice
}

// projectPoints spreads points evenly along the x axis of rect in their
// chart order and scales prices to its height. A single point is centred.
func projectPoints(points []presentation.DataPoint, rect image.Rectangle) []chartPoint {
	if len(points) == 0 {
		return nil
	}
	minPrice, maxPrice := priceBounds(points)
	priceRange := maxPrice - minPrice

	out := make([]chartPoint, len(points))
	for i, p := range points {
		x := float64(rect.Min.X) + float64(rect.Dx())/2.0
		if len(points) > 1 {
			x = float64(rect.Min.X) + (float64(i)/float64(len(points)-1))*float64(rect.Dx())
		}
		y := float64(rect.Max.Y) - ((p.Y-minPrice)/priceRange)*float64(rect.Dy())
		out[i] = chartPoint{X: float32(x), Y: float32(y)}
	}
	return out
}
