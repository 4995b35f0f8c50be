package output

import (
	"image"
	"image/color"
	"testing"
)

func solidImage(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestDownscale_Dimensions(t *testing.T) {
	tests := []struct {
		name       string
		width      int
		height     int
		maxWidth   int
		wantWidth  int
		wantHeight int
	}{
		{name: "halved", width: 100, height: 50, maxWidth: 50, wantWidth: 50, wantHeight: 25},
		{name: "non-integer ratio", width: 100, height: 50, maxWidth: 40, wantWidth: 40, wantHeight: 20},
		{name: "wide strip clamps height to one", width: 100, height: 1, maxWidth: 10, wantWidth: 10, wantHeight: 1},
		{name: "portrait", width: 50, height: 100, maxWidth: 25, wantWidth: 25, wantHeight: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := solidImage(tt.width, tt.height, color.RGBA{R: 120, G: 80, B: 40, A: 255})
			got := Downscale(src, tt.maxWidth)
			if got.Bounds().Dx() != tt.wantWidth || got.Bounds().Dy() != tt.wantHeight {
				t.Errorf("Downscale(%dx%d, %d) = %dx%d, want %dx%d",
					tt.width, tt.height, tt.maxWidth,
					got.Bounds().Dx(), got.Bounds().Dy(), tt.wantWidth, tt.wantHeight)
			}
		})
	}
}

func TestDownscale_NoOpWhenSmallEnough(t *testing.T) {
	src := solidImage(40, 20, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	if got := Downscale(src, 40); got != image.Image(src) {
		t.Error("expected the same image back when width equals the limit")
	}
	if got := Downscale(src, 100); got != image.Image(src) {
		t.Error("expected the same image back when already below the limit")
	}
	if got := Downscale(src, 0); got != image.Image(src) {
		t.Error("expected the same image back when the limit is disabled")
	}
	if got := Downscale(src, -1); got != image.Image(src) {
		t.Error("expected the same image back for a negative limit")
	}
}

func TestDownscale_PreservesSolidColor(t *testing.T) {
	want := color.RGBA{R: 200, G: 100, B: 50, A: 255}
	src := solidImage(100, 50, want)

	got := Downscale(src, 40)

	const tolerance = 2
	for _, p := range []struct{ x, y int }{{0, 0}, {39, 19}, {20, 10}} {
		r, g, b := pixelRGB(got, p.x, p.y)
		if absDiff(r, want.R) > tolerance || absDiff(g, want.G) > tolerance || absDiff(b, want.B) > tolerance {
			t.Errorf("pixel (%d,%d) = (%d,%d,%d), want close to (%d,%d,%d)",
				p.x, p.y, r, g, b, want.R, want.G, want.B)
		}
	}
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a) - int(b)
	}
	return int(b) - int(a)
}
