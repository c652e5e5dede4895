// Package layout holds the geometry shared by the editor canvas, the learner
// renderer and the static export. All positions live in a fixed 800-unit wide
// virtual canvas; views only ever apply a uniform scale on top.
package layout

import (
	"math"
	"sort"

	"github.com/local/coursebuilder/api/elements"
)

const (
	CanvasWidth = 800.0
	// CanvasMargin is the empty space kept below the lowest element while authoring.
	CanvasMargin = 100.0
	// MaxAutoHeight caps content-driven blocks (quiz, comment).
	MaxAutoHeight = 600.0

	MinWidth  = 40.0
	MinHeight = 20.0
)

// Preview modes of the editor.
const (
	Desktop = "desktop"
	Tablet  = "tablet"
	Mobile  = "mobile"
)

// PreviewScale is the display scale of the editor canvas for a preview mode.
// It never changes stored coordinates.
func PreviewScale(mode string) float64 {
	switch mode {
	case Tablet:
		return 0.85
	case Mobile:
		return 0.45
	default:
		return 1.0
	}
}

// ViewerScale fits the canonical canvas into a container, never enlarging it.
func ViewerScale(containerWidth float64) float64 {
	if containerWidth <= 0 {
		return 1
	}
	return math.Min(containerWidth/CanvasWidth, 1)
}

// Size resolves an element's placed size, falling back to its kind default
// for missing or non-numeric values.
func Size(el elements.Element) elements.Size {
	size := elements.DefaultSize(el.Type)
	if w, ok := el.Style.Width(); ok && w > 0 {
		size.Width = w
	}
	if h, ok := el.Style.Height(); ok && h > 0 {
		size.Height = h
	}
	return size
}

// Bottom is the lowest bottom edge of any element, or 0 for an empty page.
func Bottom(list []elements.Element) float64 {
	bottom := 0.0
	for _, el := range list {
		bottom = math.Max(bottom, el.Position.Y+Size(el).Height)
	}
	return bottom
}

// Extent is the scrollable height of a canvas holding list.
func Extent(list []elements.Element, margin float64) float64 {
	return Bottom(list) + margin
}

// ToCanvas maps a pointer position to unscaled canvas coordinates, given the
// on-screen origin of the canvas and its current display scale.
func ToCanvas(pointer, origin elements.Point, scale float64) elements.Point {
	if scale <= 0 {
		scale = 1
	}
	return elements.Point{
		X: (pointer.X - origin.X) / scale,
		Y: (pointer.Y - origin.Y) / scale,
	}
}

// ToView maps canvas coordinates into a view drawn at scale.
func ToView(p elements.Point, scale float64) elements.Point {
	return elements.Point{X: p.X * scale, Y: p.Y * scale}
}

// Rect is a placed box in view coordinates.
type Rect struct {
	X, Y, Width, Height float64
}

// Placement returns where el is drawn in a view scaled by scale.
func Placement(el elements.Element, scale float64) Rect {
	p := ToView(el.Position, scale)
	size := Size(el)
	return Rect{X: p.X, Y: p.Y, Width: size.Width * scale, Height: size.Height * scale}
}

// Clamp keeps a box of size inside the canvas horizontally and below its top edge.
func Clamp(p elements.Point, size elements.Size) elements.Point {
	maxX := math.Max(CanvasWidth-size.Width, 0)
	p.X = math.Min(math.Max(p.X, 0), maxX)
	p.Y = math.Max(p.Y, 0)
	return p
}

// ClampSize applies the resize limits.
func ClampSize(size elements.Size) elements.Size {
	size.Width = math.Min(math.Max(size.Width, MinWidth), CanvasWidth)
	size.Height = math.Max(size.Height, MinHeight)
	return size
}

// PaintOrder returns a copy of list sorted by zIndex; equal zIndex keeps array order.
func PaintOrder(list []elements.Element) []elements.Element {
	out := make([]elements.Element, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}
