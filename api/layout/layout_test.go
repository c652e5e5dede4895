package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/local/coursebuilder/api/elements"
)

func TestViewerScale(t *testing.T) {
	assert.Equal(t, 0.5, ViewerScale(400))
	assert.Equal(t, 1.0, ViewerScale(1600))
	assert.Equal(t, 1.0, ViewerScale(0))
}

func TestPreviewScale(t *testing.T) {
	assert.Equal(t, 1.0, PreviewScale(Desktop))
	assert.Equal(t, 0.85, PreviewScale(Tablet))
	assert.Equal(t, 0.45, PreviewScale(Mobile))
	assert.Equal(t, 1.0, PreviewScale("watch"))
}

func TestPlacementAtHalfScale(t *testing.T) {
	el := elements.Element{
		Type:     elements.KindText,
		Position: elements.Point{X: 120, Y: 340},
		Style:    elements.Style{"width": 300.0, "height": 100.0},
	}
	r := Placement(el, ViewerScale(400))
	assert.Equal(t, Rect{X: 60, Y: 170, Width: 150, Height: 50}, r)
}

func TestCanvasRoundTrip(t *testing.T) {
	origin := elements.Point{X: 50, Y: 80}
	scale := PreviewScale(Tablet)
	pointer := elements.Point{X: 50 + 120*scale, Y: 80 + 340*scale}

	got := ToCanvas(pointer, origin, scale)
	assert.InDelta(t, 120, got.X, 1e-9)
	assert.InDelta(t, 340, got.Y, 1e-9)
}

func TestExtentUsesLowestEdge(t *testing.T) {
	list := []elements.Element{
		{Type: elements.KindText, Position: elements.Point{Y: 10}, Style: elements.Style{"height": 50.0}},
		{Type: elements.KindImage, Position: elements.Point{Y: 400}},
	}
	assert.Equal(t, 600.0, Bottom(list))
	assert.Equal(t, 700.0, Extent(list, CanvasMargin))
	assert.Equal(t, 0.0, Bottom(nil))
}

func TestClamp(t *testing.T) {
	size := elements.Size{Width: 300, Height: 100}
	assert.Equal(t, elements.Point{X: 0, Y: 0}, Clamp(elements.Point{X: -20, Y: -5}, size))
	assert.Equal(t, elements.Point{X: 500, Y: 30}, Clamp(elements.Point{X: 700, Y: 30}, size))

	assert.Equal(t, elements.Size{Width: MinWidth, Height: MinHeight}, ClampSize(elements.Size{Width: 1, Height: 1}))
	assert.Equal(t, CanvasWidth, ClampSize(elements.Size{Width: 2000, Height: 50}).Width)
}

func TestPaintOrderIsStable(t *testing.T) {
	list := []elements.Element{
		{ID: "a", ZIndex: 2},
		{ID: "b", ZIndex: 1},
		{ID: "c", ZIndex: 2},
	}
	got := PaintOrder(list)
	assert.Equal(t, []string{"b", "a", "c"}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, "a", list[0].ID)
}
