package occupancy

import (
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

// Gray levels used when a grid is turned into an image, matching map_saver's conventions.
const (
	freeGray     = 254
	occupiedGray = 0
	unknownGray  = 205
)

// Grid is a rectangular occupancy grid with square cells. Cell (0, 0) has its lower-left corner
// at the grid origin; x grows with the column and y with the row.
type Grid struct {
	mu         sync.RWMutex
	origin     r2.Point
	resolution float64
	width      int
	height     int
	cells      []CellState
}

// NewGrid returns a width x height grid of free cells, each resolution meters on a side, whose
// lower-left corner is at origin.
func NewGrid(width, height int, resolution float64, origin r2.Point) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("grid dimensions must be positive, got %dx%d", width, height)
	}
	if resolution <= 0 || math.IsNaN(resolution) || math.IsInf(resolution, 0) {
		return nil, errors.Errorf("grid resolution must be a positive number, got %v", resolution)
	}
	return &Grid{
		origin:     origin,
		resolution: resolution,
		width:      width,
		height:     height,
		cells:      make([]CellState, width*height),
	}, nil
}

// NewGridFromSize returns a free grid covering sizeX by sizeY meters starting at origin. The
// cell counts are rounded up so the requested area is always covered.
func NewGridFromSize(sizeX, sizeY, resolution float64, origin r2.Point) (*Grid, error) {
	if resolution <= 0 {
		return nil, errors.Errorf("grid resolution must be positive, got %v", resolution)
	}
	// Round before ceil so 10/0.1 does not become 101 cells.
	width := int(math.Ceil(math.Round(sizeX/resolution*1e9) / 1e9))
	height := int(math.Ceil(math.Round(sizeY/resolution*1e9) / 1e9))
	return NewGrid(width, height, resolution, origin)
}

// Size returns the grid dimensions in cells.
func (g *Grid) Size() (width, height int) {
	return g.width, g.height
}

// Resolution returns the length of a cell side in meters.
func (g *Grid) Resolution() float64 {
	return g.resolution
}

// Origin returns the world position of the lower-left corner of cell (0, 0).
func (g *Grid) Origin() r2.Point {
	return g.origin
}

// Bounds returns the world extent of the grid.
func (g *Grid) Bounds() (minX, minY, maxX, maxY float64) {
	return g.origin.X,
		g.origin.Y,
		g.origin.X + float64(g.width)*g.resolution,
		g.origin.Y + float64(g.height)*g.resolution
}

// WorldToCell maps a world point to the cell containing it. ok is false when the point lies
// outside the grid.
func (g *Grid) WorldToCell(x, y float64) (cx, cy int, ok bool) {
	fx := math.Floor((x - g.origin.X) / g.resolution)
	fy := math.Floor((y - g.origin.Y) / g.resolution)
	if math.IsNaN(fx) || math.IsNaN(fy) ||
		fx < 0 || fy < 0 || fx >= float64(g.width) || fy >= float64(g.height) {
		return 0, 0, false
	}
	return int(fx), int(fy), true
}

// CellToWorld returns the world position of the center of a cell.
func (g *Grid) CellToWorld(cx, cy int) r2.Point {
	return r2.Point{
		X: g.origin.X + (float64(cx)+0.5)*g.resolution,
		Y: g.origin.Y + (float64(cy)+0.5)*g.resolution,
	}
}

// CellAt returns the state of a cell, or OutOfGrid for indices outside the grid.
func (g *Grid) CellAt(cx, cy int) CellState {
	if cx < 0 || cy < 0 || cx >= g.width || cy >= g.height {
		return OutOfGrid
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cells[cy*g.width+cx]
}

// Classify returns the state of the cell containing the world point.
func (g *Grid) Classify(x, y float64) CellState {
	cx, cy, ok := g.WorldToCell(x, y)
	if !ok {
		return OutOfGrid
	}
	return g.CellAt(cx, cy)
}

// MutableGrid is the write access handed out by Grid.Mutate.
type MutableGrid interface {
	Set(cx, cy int, state CellState)
	// FillRect sets every cell overlapping the world rectangle [minX,maxX]x[minY,maxY].
	FillRect(minX, minY, maxX, maxY float64, state CellState)
}

// Mutate runs the mutator with exclusive access to the grid's cells. Grids must not be mutated
// while a plan that uses them is in flight.
func (g *Grid) Mutate(mutator func(grid MutableGrid)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	mutator((*mutableGrid)(g))
}

type mutableGrid Grid

func (mg *mutableGrid) Set(cx, cy int, state CellState) {
	if cx < 0 || cy < 0 || cx >= mg.width || cy >= mg.height {
		return
	}
	mg.cells[cy*mg.width+cx] = state
}

func (mg *mutableGrid) FillRect(minX, minY, maxX, maxY float64, state CellState) {
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	x0 := int(math.Floor((minX - mg.origin.X) / mg.resolution))
	y0 := int(math.Floor((minY - mg.origin.Y) / mg.resolution))
	x1 := int(math.Ceil((maxX-mg.origin.X)/mg.resolution)) - 1
	y1 := int(math.Ceil((maxY-mg.origin.Y)/mg.resolution)) - 1
	// A degenerate rectangle still marks the cell it touches.
	x1 = max(x1, x0)
	y1 = max(y1, y0)
	for cy := max(y0, 0); cy <= min(y1, mg.height-1); cy++ {
		for cx := max(x0, 0); cx <= min(x1, mg.width-1); cx++ {
			mg.cells[cy*mg.width+cx] = state
		}
	}
}

// Image renders the grid as a grayscale image using map_saver gray levels. Row 0 of the image is
// the top (highest y) row of the grid.
func (g *Grid) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.width, g.height))
	g.mu.RLock()
	defer g.mu.RUnlock()
	for cy := 0; cy < g.height; cy++ {
		row := g.height - 1 - cy
		for cx := 0; cx < g.width; cx++ {
			var level uint8
			switch g.cells[cy*g.width+cx] {
			case Free:
				level = freeGray
			case Occupied:
				level = occupiedGray
			case Unknown, OutOfGrid:
				level = unknownGray
			}
			img.SetGray(cx, row, color.Gray{Y: level})
		}
	}
	return img
}
