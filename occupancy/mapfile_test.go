package occupancy

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/golang/geo/r2"
	"go.viam.com/test"
)

func writeTestMap(t *testing.T, dir, metadata string, img image.Image) string {
	t.Helper()
	test.That(t, imaging.Save(img, filepath.Join(dir, "map.png")), test.ShouldBeNil)
	yamlPath := filepath.Join(dir, "map.yaml")
	test.That(t, os.WriteFile(yamlPath, []byte(metadata), 0o600), test.ShouldBeNil)
	return yamlPath
}

func TestLoadMap(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 2))
	for x := 0; x < 4; x++ {
		img.SetGray(x, 0, color.Gray{Y: 254})
		img.SetGray(x, 1, color.Gray{Y: 254})
	}
	// top-left black, bottom-right mid gray
	img.SetGray(0, 0, color.Gray{Y: 0})
	img.SetGray(3, 1, color.Gray{Y: 205})

	metadata := `image: map.png
resolution: 0.5
origin: [-1.0, 2.0, 0.0]
negate: 0
occupied_thresh: 0.65
free_thresh: 0.196
`
	yamlPath := writeTestMap(t, t.TempDir(), metadata, img)
	g, err := LoadMap(yamlPath)
	test.That(t, err, test.ShouldBeNil)

	w, h := g.Size()
	test.That(t, w, test.ShouldEqual, 4)
	test.That(t, h, test.ShouldEqual, 2)
	test.That(t, g.Resolution(), test.ShouldEqual, 0.5)
	test.That(t, g.Origin(), test.ShouldResemble, r2.Point{X: -1, Y: 2})

	test.That(t, g.CellAt(0, 1), test.ShouldEqual, Occupied)
	test.That(t, g.CellAt(3, 0), test.ShouldEqual, Unknown)
	test.That(t, g.CellAt(1, 0), test.ShouldEqual, Free)
	test.That(t, g.Classify(-0.9, 2.9), test.ShouldEqual, Occupied)
}

func TestLoadMapNegate(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 1))
	img.SetGray(0, 0, color.Gray{Y: 255})
	img.SetGray(1, 0, color.Gray{Y: 0})

	metadata := "image: map.png\nresolution: 1\norigin: [0, 0, 0]\nnegate: 1\n"
	g, err := LoadMap(writeTestMap(t, t.TempDir(), metadata, img))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.CellAt(0, 0), test.ShouldEqual, Occupied)
	test.That(t, g.CellAt(1, 0), test.ShouldEqual, Free)
}

func TestLoadMapErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadMap(filepath.Join(dir, "missing.yaml"))
	test.That(t, err, test.ShouldNotBeNil)

	img := image.NewGray(image.Rect(0, 0, 1, 1))
	_, err = LoadMap(writeTestMap(t, dir, "image: map.png\nresolution: 0\norigin: [0, 0, 0]\n", img))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "resolution")

	_, err = LoadMap(writeTestMap(t, dir, "image: other.png\nresolution: 1\norigin: [0, 0, 0]\n", img))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "other.png")
}

func TestSaveMapRoundTrip(t *testing.T) {
	g, err := NewGrid(6, 4, 0.25, r2.Point{X: 1, Y: 1})
	test.That(t, err, test.ShouldBeNil)
	g.Mutate(func(mg MutableGrid) {
		mg.FillRect(1.5, 1, 1.75, 2, Occupied)
		mg.Set(5, 3, Unknown)
	})

	yamlPath := filepath.Join(t.TempDir(), "saved.yaml")
	test.That(t, SaveMap(g, yamlPath), test.ShouldBeNil)

	loaded, err := LoadMap(yamlPath)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, loaded.Origin(), test.ShouldResemble, g.Origin())
	test.That(t, loaded.Resolution(), test.ShouldEqual, g.Resolution())
	for cy := 0; cy < 4; cy++ {
		for cx := 0; cx < 6; cx++ {
			test.That(t, loaded.CellAt(cx, cy), test.ShouldEqual, g.CellAt(cx, cy))
		}
	}
}
