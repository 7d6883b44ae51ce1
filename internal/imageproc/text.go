package imageproc

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"

	"github.com/UnendingLoop/CakeArtist/internal/model"
	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	// ширина белой обводки вокруг глифов
	outlineWidth  = 4
	outlineRadius = outlineWidth / 2
)

var (
	outlineColor = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	textShadow   = shadow{
		color:  color.NRGBA{A: 128},
		sigma:  2,
		offset: image.Pt(2, 2),
	}
)

// TextRenderer draws outlined captions with a single parsed font.
// It holds no per-call state and is safe for concurrent use.
type TextRenderer struct {
	font *opentype.Font
}

// NewTextRenderer loads the font at fontPath, or the embedded Go Mono Bold slab serif when the path is empty.
func NewTextRenderer(fontPath string) (*TextRenderer, error) {
	data := gomonobold.TTF
	if fontPath != "" {
		b, err := os.ReadFile(fontPath)
		if err != nil {
			return nil, fmt.Errorf("read font %q: %w", fontPath, err)
		}
		data = b
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &TextRenderer{font: f}, nil
}

// OverlayText centers text on (style.X*W, style.Y*H) of a copy of base.
// Passes bottom to top: shadowed white outline, then the plain fill.
func (r *TextRenderer) OverlayText(base image.Image, text string, style model.ViewStyle) (*image.NRGBA, error) {
	if base == nil || base.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty base image", model.ErrCanvasContext)
	}

	fill, err := model.ParseHexColor(style.Color)
	if err != nil {
		return nil, fmt.Errorf("text color: %w", err)
	}

	face, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    style.FontSize,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: font face: %v", model.ErrCanvasContext, err)
	}
	defer face.Close()

	canvas := imaging.Clone(base)
	w := float64(canvas.Bounds().Dx())
	h := float64(canvas.Bounds().Dy())

	ink, _ := font.BoundString(face, text)
	if ink.Empty() {
		return canvas, nil
	}

	// центрируем сам контур надписи по обеим осям
	cx := fixed.Int26_6(math.Round(style.X * w * 64))
	cy := fixed.Int26_6(math.Round(style.Y * h * 64))
	dot := fixed.Point26_6{
		X: cx - (ink.Min.X+ink.Max.X)/2,
		Y: cy - (ink.Min.Y+ink.Max.Y)/2,
	}

	pad := outlineRadius + 1 + textShadow.reach()
	area := image.Rect(
		(dot.X+ink.Min.X).Floor()-pad,
		(dot.Y+ink.Min.Y).Floor()-pad,
		(dot.X+ink.Max.X).Ceil()+pad,
		(dot.Y+ink.Max.Y).Ceil()+pad,
	)

	glyphs := image.NewAlpha(area)
	d := font.Drawer{
		Dst:  glyphs,
		Src:  image.Opaque,
		Face: face,
		Dot:  dot,
	}
	d.DrawString(text)

	outline := dilate(glyphs, outlineRadius)

	canvas = dropShadow(canvas, outline, textShadow)
	canvas = paint(canvas, outline, outlineColor)
	canvas = paint(canvas, glyphs, fill)

	return canvas, nil
}
