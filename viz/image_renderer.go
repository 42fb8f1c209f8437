package viz

import (
	"image"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/viam-labs/rrtstar/occupancy"
)

type rgb struct{ r, g, b float64 }

var (
	channelColors = map[Channel]rgb{
		ChannelSource:       {1, 0, 0},
		ChannelGoal:         {0, 1, 0},
		ChannelSample:       {0, 0, 1},
		ChannelTree:         {0.8, 0.4, 0},
		ChannelPath:         {0.2, 0.2, 1},
		ChannelChooseParent: {0, 1, 0},
		ChannelRewire:       {0, 0, 1},
	}
	// draw order, later channels on top
	edgeChannels  = []Channel{ChannelTree, ChannelChooseParent, ChannelRewire}
	pointChannels = []Channel{ChannelSample, ChannelSource, ChannelGoal}
)

// ImageRenderer draws the accumulated telemetry of a run on top of an occupancy grid.
type ImageRenderer struct {
	mu            sync.Mutex
	grid          *occupancy.Grid
	pixelsPerCell int
	scene         *Scene
}

// NewImageRenderer returns a renderer drawing each grid cell as a square of pixelsPerCell pixels.
func NewImageRenderer(grid *occupancy.Grid, pixelsPerCell int) *ImageRenderer {
	if pixelsPerCell < 1 {
		pixelsPerCell = 1
	}
	return &ImageRenderer{grid: grid, pixelsPerCell: pixelsPerCell, scene: NewScene()}
}

// Publish folds the snapshot into the scene to render.
func (ir *ImageRenderer) Publish(snapshot Snapshot) {
	ir.mu.Lock()
	defer ir.mu.Unlock()
	ir.scene.Apply(snapshot)
}

// Consume folds the snapshot into the scene to render.
func (ir *ImageRenderer) Consume(snapshot Snapshot) error {
	ir.Publish(snapshot)
	return nil
}

// Render draws the current scene.
func (ir *ImageRenderer) Render() image.Image {
	width, height := ir.grid.Size()
	pxW, pxH := width*ir.pixelsPerCell, height*ir.pixelsPerCell

	dc := gg.NewContext(pxW, pxH)
	background := imaging.Resize(ir.grid.Image(), pxW, pxH, imaging.NearestNeighbor)
	dc.DrawImage(background, 0, 0)

	ir.mu.Lock()
	defer ir.mu.Unlock()

	dc.SetLineWidth(1)
	for _, ch := range edgeChannels {
		c := channelColors[ch]
		dc.SetRGB(c.r, c.g, c.b)
		for _, e := range ir.scene.Edges[ch] {
			x0, y0 := ir.toPixel(e.Start)
			x1, y1 := ir.toPixel(e.End)
			dc.DrawLine(x0, y0, x1, y1)
		}
		dc.Stroke()
	}

	if path := ir.scene.Points[ChannelPath]; len(path) > 1 {
		c := channelColors[ChannelPath]
		dc.SetRGB(c.r, c.g, c.b)
		dc.SetLineWidth(2)
		for _, p := range path {
			dc.LineTo(ir.toPixel(p))
		}
		dc.Stroke()
	}

	for _, ch := range pointChannels {
		c := channelColors[ch]
		dc.SetRGB(c.r, c.g, c.b)
		for _, p := range ir.scene.Points[ch] {
			x, y := ir.toPixel(p)
			dc.DrawCircle(x, y, 3)
			dc.Fill()
		}
	}
	return dc.Image()
}

// SavePNG renders the scene and writes it to path.
func (ir *ImageRenderer) SavePNG(path string) error {
	return errors.Wrapf(gg.SavePNG(path, ir.Render()), "cannot save rendering to %s", path)
}

// toPixel maps a world point to image coordinates, y pointing down.
func (ir *ImageRenderer) toPixel(p r2.Point) (float64, float64) {
	minX, minY, _, _ := ir.grid.Bounds()
	_, height := ir.grid.Size()
	scale := float64(ir.pixelsPerCell) / ir.grid.Resolution()
	return (p.X - minX) * scale, float64(height*ir.pixelsPerCell) - (p.Y-minY)*scale
}
