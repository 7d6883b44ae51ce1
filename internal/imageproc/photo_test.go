package imageproc

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/UnendingLoop/CakeArtist/internal/model"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

var (
	cakeBlue = color.NRGBA{R: 100, G: 100, B: 200, A: 255}
	photoRed = color.NRGBA{R: 255, G: 0, B: 0, A: 255}
)

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	return imaging.New(w, h, c)
}

func testImageBytes(t *testing.T, w, h int, c color.NRGBA, format imaging.Format) []byte {
	t.Helper()

	var buf bytes.Buffer
	err := imaging.Encode(&buf, solidImage(w, h, c), format)
	require.NoError(t, err)

	return buf.Bytes()
}

func isRed(c color.NRGBA) bool {
	return c.R > 240 && c.G < 20 && c.B < 20
}

func isWhite(c color.NRGBA) bool {
	return c.R > 230 && c.G > 230 && c.B > 230
}

func centered(shape model.Shape, rotation float64) model.PlacementSpec {
	return model.PlacementSpec{
		X:           0.5,
		Y:           0.5,
		Size:        0.4,
		Shape:       shape,
		Rotation:    rotation,
		BorderColor: "#FFFFFF",
		BorderWidth: 4,
	}
}

func TestCompositePhoto(t *testing.T) {
	// 400x300, size 0.4 -> сторона 160, центр (200,150)
	tests := []struct {
		name       string
		spec       model.PlacementSpec
		cornerRed  bool
		ringIsEdge bool
	}{
		{
			name:       "circle",
			spec:       centered(model.ShapeCircle, 0),
			cornerRed:  false,
			ringIsEdge: true,
		},
		{
			name:       "rectangle",
			spec:       centered(model.ShapeRectangle, 0),
			cornerRed:  true,
			ringIsEdge: true,
		},
		{
			name:       "rotated circle",
			spec:       centered(model.ShapeCircle, 10),
			cornerRed:  false,
			ringIsEdge: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := solidImage(400, 300, cakeBlue)
			photo := solidImage(90, 60, photoRed)

			out, err := CompositePhoto(base, photo, tt.spec)
			require.NoError(t, err)
			require.Equal(t, 400, out.Bounds().Dx())
			require.Equal(t, 300, out.Bounds().Dy())

			require.True(t, isRed(out.NRGBAAt(200, 150)), "center must be filled with the photo: %v", out.NRGBAAt(200, 150))
			require.Equal(t, isRed(out.NRGBAAt(270, 220)), tt.cornerRed)
			require.Equal(t, cakeBlue, out.NRGBAAt(5, 5))

			if tt.ringIsEdge {
				require.True(t, isWhite(out.NRGBAAt(279, 150)), "border expected: %v", out.NRGBAAt(279, 150))
			}
		})
	}
}

func TestCompositePhoto_DoesNotMutateInputs(t *testing.T) {
	base := solidImage(200, 200, cakeBlue)
	photo := solidImage(50, 50, photoRed)

	_, err := CompositePhoto(base, photo, centered(model.ShapeCircle, 0))
	require.NoError(t, err)
	require.Equal(t, cakeBlue, base.NRGBAAt(100, 100))
}

func TestCompositePhoto_ClampsSpec(t *testing.T) {
	base := solidImage(300, 300, cakeBlue)
	photo := solidImage(40, 80, photoRed)

	spec := model.PlacementSpec{X: 5, Y: -3, Size: -1, Shape: "triangle", Rotation: 90, BorderColor: "nope", BorderWidth: 40}

	out, err := CompositePhoto(base, photo, spec)
	require.NoError(t, err)
	require.Equal(t, 300, out.Bounds().Dx())
	require.Equal(t, 300, out.Bounds().Dy())

	// x -> 0.8, y -> 0.2
	require.True(t, isRed(out.NRGBAAt(240, 60)))
}

func TestCompositePhoto_Errors(t *testing.T) {
	tests := []struct {
		name    string
		base    image.Image
		photo   image.Image
		wantErr error
	}{
		{
			name:    "nil base",
			base:    nil,
			photo:   solidImage(10, 10, photoRed),
			wantErr: model.ErrCanvasContext,
		},
		{
			name:    "empty base",
			base:    image.NewNRGBA(image.Rect(0, 0, 0, 0)),
			photo:   solidImage(10, 10, photoRed),
			wantErr: model.ErrCanvasContext,
		},
		{
			name:    "nil photo",
			base:    solidImage(10, 10, cakeBlue),
			photo:   nil,
			wantErr: model.ErrImageLoad,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := CompositePhoto(tt.base, tt.photo, centered(model.ShapeCircle, 0))
			require.ErrorIs(t, err, tt.wantErr)
			require.Nil(t, out)
		})
	}
}

func TestCompositePhoto_PNGRoundTrip(t *testing.T) {
	base, err := DecodeBytes(testImageBytes(t, 320, 240, cakeBlue, imaging.JPEG))
	require.NoError(t, err)

	out, err := CompositePhoto(base, solidImage(64, 64, photoRed), model.FallbackPlacement(model.ViewTop))
	require.NoError(t, err)

	data, err := EncodePNG(out)
	require.NoError(t, err)

	decoded, err := DecodeBytes(data)
	require.NoError(t, err)
	require.Equal(t, 320, decoded.Bounds().Dx())
	require.Equal(t, 240, decoded.Bounds().Dy())
}
