package imageproc

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// shadow - параметры мягкой тени в духе canvas shadowBlur/shadowOffset
type shadow struct {
	color  color.NRGBA
	sigma  float64
	offset image.Point
}

// reach is how far the shadow can land from its mask.
func (s shadow) reach() int {
	return int(math.Ceil(3*s.sigma)) + max(absInt(s.offset.X), absInt(s.offset.Y))
}

// colorLayer turns a coverage mask into a solid-color layer anchored at (0,0).
func colorLayer(mask *image.Alpha, c color.NRGBA) *image.NRGBA {
	b := mask.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			a := mask.AlphaAt(b.Min.X+x, b.Min.Y+y).A
			if a == 0 {
				continue
			}
			i := out.PixOffset(x, y)
			out.Pix[i+0] = c.R
			out.Pix[i+1] = c.G
			out.Pix[i+2] = c.B
			out.Pix[i+3] = uint8((uint32(a)*uint32(c.A) + 127) / 255)
		}
	}
	return out
}

// paint draws color c through mask onto dst at the mask's own position.
func paint(dst *image.NRGBA, mask *image.Alpha, c color.NRGBA) *image.NRGBA {
	return imaging.Overlay(dst, colorLayer(mask, c), mask.Bounds().Min, 1.0)
}

func dropShadow(dst *image.NRGBA, mask *image.Alpha, s shadow) *image.NRGBA {
	layer := imaging.Blur(colorLayer(mask, s.color), s.sigma)
	return imaging.Overlay(dst, layer, mask.Bounds().Min.Add(s.offset), 1.0)
}

type kernelTap struct {
	dx, dy int
	weight float64
}

// dilate grows an anti-aliased mask by radius r, the equivalent of a 2r-wide stroke outside the glyph edge.
func dilate(mask *image.Alpha, r int) *image.Alpha {
	taps := make([]kernelTap, 0, (2*r+3)*(2*r+3))
	for dy := -r - 1; dy <= r+1; dy++ {
		for dx := -r - 1; dx <= r+1; dx++ {
			w := clamp01(float64(r) + 0.5 - math.Hypot(float64(dx), float64(dy)))
			if w > 0 {
				taps = append(taps, kernelTap{dx: dx, dy: dy, weight: w})
			}
		}
	}

	b := mask.Bounds()
	out := image.NewAlpha(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			a := mask.AlphaAt(x, y).A
			if a == 0 {
				continue
			}
			for _, t := range taps {
				p := image.Pt(x+t.dx, y+t.dy)
				if !p.In(b) {
					continue
				}
				v := uint8(float64(a)*t.weight + 0.5)
				if v > out.AlphaAt(p.X, p.Y).A {
					out.SetAlpha(p.X, p.Y, color.Alpha{A: v})
				}
			}
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
