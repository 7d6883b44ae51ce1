package model

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// View - один из четырех канонических ракурсов торта
type View int

const (
	ViewFront View = iota
	ViewSide
	ViewTop
	ViewDiagonal
)

const (
	LabelFront    = "Front View"
	LabelSide     = "Side View"
	LabelTop      = "Top-Down View"
	LabelDiagonal = "3/4 View (Diagonal)"
)

// CanonicalViews is the positional label order of a 4-image cake set.
var CanonicalViews = [...]View{ViewFront, ViewSide, ViewTop, ViewDiagonal}

var viewLabels = map[View]string{
	ViewFront:    LabelFront,
	ViewSide:     LabelSide,
	ViewTop:      LabelTop,
	ViewDiagonal: LabelDiagonal,
}

var viewHints = map[View]string{
	ViewFront:    "front",
	ViewSide:     "side",
	ViewTop:      "top",
	ViewDiagonal: "diagonal",
}

func (v View) Label() string {
	if l, ok := viewLabels[v]; ok {
		return l
	}
	return LabelFront
}

func (v View) Hint() string {
	if h, ok := viewHints[v]; ok {
		return h
	}
	return viewHints[ViewFront]
}

func (v View) String() string { return v.Hint() }

// ViewFromLabel maps a canonical label to its view, unknown labels fall back to front.
func ViewFromLabel(label string) View {
	for v, l := range viewLabels {
		if l == label {
			return v
		}
	}
	return ViewFront
}

// ViewFromHint accepts short hints ("top", "Side") as well as canonical labels.
func ViewFromHint(hint string) View {
	h := strings.ToLower(strings.TrimSpace(hint))
	for v, short := range viewHints {
		if h == short || h == strings.ToLower(viewLabels[v]) {
			return v
		}
	}
	// "top-down", "3/4" и прочие вольные варианты
	switch {
	case strings.HasPrefix(h, "top"):
		return ViewTop
	case strings.HasPrefix(h, "3/4"), strings.Contains(h, "diagonal"):
		return ViewDiagonal
	case strings.HasPrefix(h, "side"):
		return ViewSide
	}
	return ViewFront
}

// ViewAt returns the canonical view for a position in a cake set, positions past the set use front styling.
func ViewAt(i int) View {
	if i < 0 || i >= len(CanonicalViews) {
		return ViewFront
	}
	return CanonicalViews[i]
}

//---------------------

// ViewStyle - якорь и стиль надписи для ракурса
type ViewStyle struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	FontSize float64 `json:"fontSize"`
	Color    string  `json:"color"`
}

const goldText = "#D4AF37"

var textStyles = map[View]ViewStyle{
	ViewFront:    {X: 0.5, Y: 0.20, FontSize: 48, Color: goldText},
	ViewSide:     {X: 0.5, Y: 0.18, FontSize: 44, Color: goldText},
	ViewTop:      {X: 0.5, Y: 0.15, FontSize: 52, Color: goldText},
	ViewDiagonal: {X: 0.5, Y: 0.18, FontSize: 46, Color: goldText},
}

// StyleFor is total over View: anything outside the table gets the front style.
func StyleFor(v View) ViewStyle {
	if s, ok := textStyles[v]; ok {
		return s
	}
	return textStyles[ViewFront]
}

// StyleForLabel looks a style up by its canonical label.
func StyleForLabel(label string) ViewStyle {
	return StyleFor(ViewFromLabel(label))
}

//---------------------

type Shape string

const (
	ShapeCircle    Shape = "circle"
	ShapeRectangle Shape = "rectangle"
)

// PlacementSpec - нормализованная геометрия наложения фото на торт
type PlacementSpec struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Size        float64 `json:"size"`
	Shape       Shape   `json:"shape"`
	Rotation    float64 `json:"rotation"`
	BorderColor string  `json:"borderColor"`
	BorderWidth float64 `json:"borderWidth"`
}

const (
	MinCenter      = 0.2
	MaxCenter      = 0.8
	MinSize        = 0.25
	MaxSize        = 0.6
	MinRotation    = -15.0
	MaxRotation    = 15.0
	MinBorderWidth = 2.0
	MaxBorderWidth = 8.0

	DefaultBorderColor = "#FFFFFF"
)

var fallbackPlacements = map[View]PlacementSpec{
	ViewFront:    {X: 0.5, Y: 0.4, Size: 0.35, Shape: ShapeCircle, Rotation: 0, BorderColor: DefaultBorderColor, BorderWidth: 4},
	ViewSide:     {X: 0.5, Y: 0.45, Size: 0.3, Shape: ShapeCircle, Rotation: 0, BorderColor: DefaultBorderColor, BorderWidth: 4},
	ViewTop:      {X: 0.5, Y: 0.5, Size: 0.45, Shape: ShapeCircle, Rotation: 0, BorderColor: DefaultBorderColor, BorderWidth: 4},
	ViewDiagonal: {X: 0.5, Y: 0.45, Size: 0.35, Shape: ShapeCircle, Rotation: -5, BorderColor: DefaultBorderColor, BorderWidth: 4},
}

// FallbackPlacement returns the static placement used whenever no suggestion is available.
func FallbackPlacement(v View) PlacementSpec {
	if p, ok := fallbackPlacements[v]; ok {
		return p
	}
	return fallbackPlacements[ViewFront]
}

// Clamp returns a copy of the placement with every field forced into its valid range.
func (p PlacementSpec) Clamp() PlacementSpec {
	p.X = clampFloat(p.X, MinCenter, MaxCenter)
	p.Y = clampFloat(p.Y, MinCenter, MaxCenter)
	p.Size = clampFloat(p.Size, MinSize, MaxSize)
	p.Rotation = clampFloat(p.Rotation, MinRotation, MaxRotation)
	p.BorderWidth = clampFloat(p.BorderWidth, MinBorderWidth, MaxBorderWidth)

	switch Shape(strings.ToLower(strings.TrimSpace(string(p.Shape)))) {
	case ShapeRectangle:
		p.Shape = ShapeRectangle
	default:
		p.Shape = ShapeCircle
	}

	if _, err := ParseHexColor(p.BorderColor); err != nil {
		p.BorderColor = DefaultBorderColor
	}
	return p
}

func clampFloat(v, lo, hi float64) float64 {
	switch {
	case math.IsNaN(v):
		return lo
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}

// ParseHexColor parses #RGB, #RRGGBB and #RRGGBBAA.
func ParseHexColor(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.NRGBA{}, fmt.Errorf("bad hex color %q", s)
	}

	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("bad hex color %q: %w", s, err)
	}

	return color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}
