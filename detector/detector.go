// Package detector finds faces in camera frames with the pigo face-finder
// cascade and turns their motion into fluid impulses.
package detector

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"log/slog"
	"os"
	"sort"

	pigo "github.com/esimov/pigo/core"
	"golang.org/x/image/draw"

	fluid "github.com/esimov/stable-fluid/fluid-solver"
)

// ErrNoCascade is returned when the cascade file does not exist.
var ErrNoCascade = errors.New("detector: cascade file not found")

// Params are the pigo cascade parameters.
type Params struct {
	MinSize     int
	MaxSize     int
	ShiftFactor float64
	ScaleFactor float64
	IoU         float64 // clustering threshold
	Quality     float32 // detections scoring below are dropped
}

// DefaultParams mirrors the values used for webcam frames.
func DefaultParams() Params {
	return Params{
		MinSize:     100,
		MaxSize:     1200,
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		IoU:         0.1,
		Quality:     5,
	}
}

// Face is one clustered detection, in pixel coordinates.
type Face struct {
	Row, Col int
	Scale    int
	Q        float32
}

// Center returns the face center in normalized simulation coordinates for a
// frame of the given size. Image rows grow downwards, y grows upwards.
func (f Face) Center(width, height int) fluid.Vec2 {
	return fluid.Vec2{
		X: (float32(f.Col) + 0.5) / float32(width),
		Y: 1 - (float32(f.Row)+0.5)/float32(height),
	}
}

// Detector runs the face-finder cascade over images.
type Detector struct {
	classifier *pigo.Pigo
	params     Params
}

// Load reads and unpacks the cascade file at path.
func Load(path string, p Params) (*Detector, error) {
	cascade, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoCascade, path)
		}
		return nil, fmt.Errorf("detector: reading cascade: %w", err)
	}
	d, err := New(cascade, p)
	if err != nil {
		return nil, err
	}
	fluid.Logger().Info("detector: cascade loaded", slog.String("path", path), slog.Int("bytes", len(cascade)))
	return d, nil
}

// New unpacks a face-finder cascade held in memory.
func New(cascade []byte, p Params) (*Detector, error) {
	// Unpack the binary file. This will return the number of cascade trees,
	// the tree depth, the threshold and the prediction from tree's leaf nodes.
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("detector: unpacking cascade: %w", err)
	}
	return &Detector{classifier: classifier, params: p}, nil
}

// Detect returns the faces found in img, best score first.
func (d *Detector) Detect(img image.Image) []Face {
	b := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)

	cParams := pigo.CascadeParams{
		MinSize:     d.params.MinSize,
		MaxSize:     d.params.MaxSize,
		ShiftFactor: d.params.ShiftFactor,
		ScaleFactor: d.params.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(nrgba),
			Rows:   b.Dy(),
			Cols:   b.Dx(),
			Dim:    b.Dx(),
		},
	}

	// Run the classifier over the obtained leaf nodes and return the detection results.
	// The result contains quadruplets representing the row, column, scale and detection score.
	dets := d.classifier.RunCascade(cParams, 0.0)
	// Calculate the intersection over union (IoU) of two clusters.
	dets = d.classifier.ClusterDetections(dets, d.params.IoU)

	faces := make([]Face, 0, len(dets))
	for _, det := range dets {
		if det.Q < d.params.Quality {
			continue
		}
		faces = append(faces, Face{Row: det.Row, Col: det.Col, Scale: det.Scale, Q: det.Q})
	}
	sort.Slice(faces, func(i, j int) bool { return faces[i].Q > faces[j].Q })
	return faces
}

// DecodeFrame decodes a PNG or JPEG frame.
func DecodeFrame(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("detector: decoding frame: %w", err)
	}
	return img, nil
}
