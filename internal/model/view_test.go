package model

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlacementSpec_Clamp(t *testing.T) {
	tests := []struct {
		name string
		in   PlacementSpec
		want PlacementSpec
	}{
		{
			name: "already valid",
			in:   PlacementSpec{X: 0.5, Y: 0.4, Size: 0.35, Shape: ShapeRectangle, Rotation: -5, BorderColor: "#abc", BorderWidth: 4},
			want: PlacementSpec{X: 0.5, Y: 0.4, Size: 0.35, Shape: ShapeRectangle, Rotation: -5, BorderColor: "#abc", BorderWidth: 4},
		},
		{
			name: "out of range everywhere",
			in:   PlacementSpec{X: 5, Y: -1, Size: -1, Shape: "triangle", Rotation: 400, BorderColor: "white", BorderWidth: 0},
			want: PlacementSpec{X: 0.8, Y: 0.2, Size: 0.25, Shape: ShapeCircle, Rotation: 15, BorderColor: DefaultBorderColor, BorderWidth: 2},
		},
		{
			name: "upper bounds",
			in:   PlacementSpec{X: 0.99, Y: 0.95, Size: 3, Shape: " Rectangle ", Rotation: -90, BorderColor: "#000000", BorderWidth: 100},
			want: PlacementSpec{X: 0.8, Y: 0.8, Size: 0.6, Shape: ShapeRectangle, Rotation: -15, BorderColor: "#000000", BorderWidth: 8},
		},
		{
			name: "NaN and empty",
			in:   PlacementSpec{X: math.NaN(), Y: math.NaN(), Size: math.NaN(), Rotation: math.NaN(), BorderWidth: math.NaN()},
			want: PlacementSpec{X: 0.2, Y: 0.2, Size: 0.25, Shape: ShapeCircle, Rotation: -15, BorderColor: DefaultBorderColor, BorderWidth: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.in.Clamp())
		})
	}
}

func TestFallbackPlacement(t *testing.T) {
	want := map[View]PlacementSpec{
		ViewFront:    {X: 0.5, Y: 0.4, Size: 0.35, Shape: ShapeCircle, Rotation: 0, BorderColor: "#FFFFFF", BorderWidth: 4},
		ViewSide:     {X: 0.5, Y: 0.45, Size: 0.3, Shape: ShapeCircle, Rotation: 0, BorderColor: "#FFFFFF", BorderWidth: 4},
		ViewTop:      {X: 0.5, Y: 0.5, Size: 0.45, Shape: ShapeCircle, Rotation: 0, BorderColor: "#FFFFFF", BorderWidth: 4},
		ViewDiagonal: {X: 0.5, Y: 0.45, Size: 0.35, Shape: ShapeCircle, Rotation: -5, BorderColor: "#FFFFFF", BorderWidth: 4},
	}

	for v, spec := range want {
		require.Equal(t, spec, FallbackPlacement(v), v.Hint())
		require.Equal(t, spec, spec.Clamp(), "fallback must already be in range")
	}
	require.Equal(t, want[ViewFront], FallbackPlacement(View(42)))
}

func TestViews(t *testing.T) {
	require.Equal(t, ViewTop, ViewFromLabel(LabelTop))
	require.Equal(t, ViewDiagonal, ViewFromLabel("3/4 View (Diagonal)"))
	require.Equal(t, ViewFront, ViewFromLabel("Back View"))

	require.Equal(t, ViewSide, ViewFromHint("SIDE"))
	require.Equal(t, ViewTop, ViewFromHint("top-down"))
	require.Equal(t, ViewDiagonal, ViewFromHint("3/4"))
	require.Equal(t, ViewTop, ViewFromHint(LabelTop))
	require.Equal(t, ViewFront, ViewFromHint(""))

	require.Equal(t, ViewFront, ViewAt(0))
	require.Equal(t, ViewDiagonal, ViewAt(3))
	require.Equal(t, ViewFront, ViewAt(4))
	require.Equal(t, ViewFront, ViewAt(-1))

	require.Equal(t, LabelFront, View(99).Label())
}

func TestStyles(t *testing.T) {
	for _, v := range CanonicalViews {
		s := StyleFor(v)
		require.Greater(t, s.FontSize, 0.0)
		_, err := ParseHexColor(s.Color)
		require.NoError(t, err)
	}

	top := StyleForLabel(LabelTop)
	require.Equal(t, 0.5, top.X)
	require.Equal(t, 0.15, top.Y)

	require.Equal(t, StyleFor(ViewFront), StyleForLabel("unknown"))
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#FFFFFF", color.NRGBA{255, 255, 255, 255}, false},
		{"#d4af37", color.NRGBA{0xd4, 0xaf, 0x37, 255}, false},
		{"#fff", color.NRGBA{255, 255, 255, 255}, false},
		{"00000080", color.NRGBA{0, 0, 0, 0x80}, false},
		{"white", color.NRGBA{}, true},
		{"#12345", color.NRGBA{}, true},
		{"#zzzzzz", color.NRGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHexColor(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
