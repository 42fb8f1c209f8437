package occupancy

import (
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Defaults used by map_server when a map file omits its thresholds.
const (
	defaultOccupiedThresh = 0.65
	defaultFreeThresh     = 0.196
)

// MapMetadata is the YAML sidecar of a map_server style occupancy map.
type MapMetadata struct {
	Image          string    `yaml:"image"`
	Resolution     float64   `yaml:"resolution"`
	Origin         []float64 `yaml:"origin"`
	Negate         int       `yaml:"negate"`
	OccupiedThresh float64   `yaml:"occupied_thresh"`
	FreeThresh     float64   `yaml:"free_thresh"`
}

func (md *MapMetadata) validate() error {
	if md.Image == "" {
		return errors.New("map metadata is missing an image")
	}
	if md.Resolution <= 0 {
		return errors.Errorf("map resolution must be positive, got %v", md.Resolution)
	}
	if len(md.Origin) < 2 {
		return errors.Errorf("map origin needs at least x and y, got %v", md.Origin)
	}
	if md.OccupiedThresh == 0 {
		md.OccupiedThresh = defaultOccupiedThresh
	}
	if md.FreeThresh == 0 {
		md.FreeThresh = defaultFreeThresh
	}
	if md.FreeThresh > md.OccupiedThresh {
		return errors.Errorf("free_thresh %v is above occupied_thresh %v", md.FreeThresh, md.OccupiedThresh)
	}
	return nil
}

// LoadMap reads a map_server style YAML file and the image it references (relative paths are
// resolved against the YAML file's directory) and returns the resulting grid.
func LoadMap(yamlPath string) (*Grid, error) {
	//nolint:gosec
	content, err := os.ReadFile(yamlPath)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read map metadata")
	}
	var md MapMetadata
	if err := yaml.Unmarshal(content, &md); err != nil {
		return nil, errors.Wrapf(err, "cannot parse map metadata %s", yamlPath)
	}
	if err := md.validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid map metadata %s", yamlPath)
	}

	imagePath := md.Image
	if !filepath.IsAbs(imagePath) {
		imagePath = filepath.Join(filepath.Dir(yamlPath), imagePath)
	}
	img, err := imaging.Open(imagePath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open map image %s", imagePath)
	}
	return GridFromImage(img, &md)
}

// GridFromImage classifies every pixel of img according to the thresholds in md. Pixel (0, 0) is
// the top-left corner of the map.
func GridFromImage(img image.Image, md *MapMetadata) (*Grid, error) {
	if err := md.validate(); err != nil {
		return nil, err
	}
	gray := imaging.Grayscale(img)
	bounds := gray.Bounds()
	grid, err := NewGrid(bounds.Dx(), bounds.Dy(), md.Resolution, r2.Point{X: md.Origin[0], Y: md.Origin[1]})
	if err != nil {
		return nil, err
	}

	grid.Mutate(func(mg MutableGrid) {
		for row := 0; row < bounds.Dy(); row++ {
			cy := bounds.Dy() - 1 - row
			for col := 0; col < bounds.Dx(); col++ {
				level := float64(gray.NRGBAAt(bounds.Min.X+col, bounds.Min.Y+row).R)
				occ := (255 - level) / 255
				if md.Negate != 0 {
					occ = level / 255
				}
				switch {
				case occ > md.OccupiedThresh:
					mg.Set(col, cy, Occupied)
				case occ < md.FreeThresh:
					mg.Set(col, cy, Free)
				default:
					mg.Set(col, cy, Unknown)
				}
			}
		}
	})
	return grid, nil
}

// SaveMap writes the grid as a PNG image next to a map_server style YAML file at yamlPath.
func SaveMap(grid *Grid, yamlPath string) error {
	base := filepath.Base(yamlPath)
	imageName := base[:len(base)-len(filepath.Ext(base))] + ".png"
	if err := imaging.Save(grid.Image(), filepath.Join(filepath.Dir(yamlPath), imageName)); err != nil {
		return errors.Wrap(err, "cannot write map image")
	}

	origin := grid.Origin()
	md := MapMetadata{
		Image:          imageName,
		Resolution:     grid.Resolution(),
		Origin:         []float64{origin.X, origin.Y, 0},
		OccupiedThresh: defaultOccupiedThresh,
		FreeThresh:     defaultFreeThresh,
	}
	out, err := yaml.Marshal(&md)
	if err != nil {
		return err
	}
	//nolint:gosec
	return errors.Wrap(os.WriteFile(yamlPath, out, 0o644), "cannot write map metadata")
}
