// Package imageproc provides compositing operations for cake images: photo overlay, text overlay, source loading and encoding.
package imageproc

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/UnendingLoop/CakeArtist/internal/model"
	"github.com/disintegration/imaging"
)

var photoShadow = shadow{
	color:  color.NRGBA{A: 90},
	sigma:  4,
	offset: image.Pt(0, 4),
}

// shapeGeometry - фигура обрезки в координатах слоя
type shapeGeometry struct {
	shape  model.Shape
	center float64
	radius float64
}

// dist is the euclidean distance for a circle and the chebyshev one for a square,
// so the iso-line at radius is the shape boundary either way.
func (g shapeGeometry) dist(x, y int) float64 {
	dx := float64(x) + 0.5 - g.center
	dy := float64(y) + 0.5 - g.center
	if g.shape == model.ShapeRectangle {
		return math.Max(math.Abs(dx), math.Abs(dy))
	}
	return math.Hypot(dx, dy)
}

func (g shapeGeometry) inside(x, y int) float64 {
	return clamp01(g.radius - g.dist(x, y) + 0.5)
}

// ring builds the border mask: a stroke of width w centered on the boundary.
func (g shapeGeometry) ring(n int, w float64) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, n, n))
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			cov := clamp01(w/2 - math.Abs(g.dist(x, y)-g.radius) + 0.5)
			if cov > 0 {
				mask.SetAlpha(x, y, color.Alpha{A: uint8(cov*255 + 0.5)})
			}
		}
	}
	return mask
}

// CompositePhoto draws photo onto base inside the clipped shape described by spec.
// The result always has the base image dimensions.
func CompositePhoto(base, photo image.Image, spec model.PlacementSpec) (*image.NRGBA, error) {
	if base == nil || base.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty base image", model.ErrCanvasContext)
	}
	if photo == nil || photo.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty photo", model.ErrImageLoad)
	}

	spec = spec.Clamp()
	border, err := model.ParseHexColor(spec.BorderColor)
	if err != nil {
		return nil, fmt.Errorf("border color: %w", err)
	}

	canvas := imaging.Clone(base)
	w := float64(canvas.Bounds().Dx())
	h := float64(canvas.Bounds().Dy())

	cx, cy := spec.X*w, spec.Y*h
	side := max(int(math.Round(spec.Size*w)), 1)

	// cover-fit: масштаб по большей стороне и обрезка по центру, без полей
	tile := imaging.Fill(photo, side, side, imaging.Center, imaging.Lanczos)

	// запас вокруг фигуры под внешнюю половину рамки и тень
	pad := int(math.Ceil(spec.BorderWidth/2)) + 1 + photoShadow.reach()
	n := side + 2*pad
	geom := shapeGeometry{shape: spec.Shape, center: float64(n) / 2, radius: float64(side) / 2}

	layer := image.NewNRGBA(image.Rect(0, 0, n, n))
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			cov := geom.inside(x, y)
			if cov == 0 {
				continue
			}
			c := tile.NRGBAAt(x-pad, y-pad)
			c.A = uint8(float64(c.A)*cov + 0.5)
			layer.SetNRGBA(x, y, c)
		}
	}

	// рамка, затем та же рамка еще раз, но уже с тенью: заливку тень не трогает
	ring := geom.ring(n, spec.BorderWidth)
	layer = paint(layer, ring, border)
	layer = dropShadow(layer, ring, photoShadow)
	layer = paint(layer, ring, border)

	placed := layer
	if spec.Rotation != 0 {
		// imaging крутит против часовой, canvas - по часовой
		placed = imaging.Rotate(layer, -spec.Rotation, color.Transparent)
	}

	pb := placed.Bounds()
	offset := image.Pt(
		int(math.Round(cx-float64(pb.Dx())/2)),
		int(math.Round(cy-float64(pb.Dy())/2)),
	)

	return imaging.Overlay(canvas, placed, offset, 1.0), nil
}
