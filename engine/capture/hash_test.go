package capture

import (
	"image"
	"image/color"
	"testing"
)

func solidImage(c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestAverageHash_IdenticalImagesMatch(t *testing.T) {
	a := solidImage(color.RGBA{100, 100, 100, 255})
	b := solidImage(color.RGBA{100, 100, 100, 255})

	if HammingDistance(AverageHash(a), AverageHash(b)) != 0 {
		t.Error("expected identical images to hash identically")
	}
}

func TestAverageHash_SolidColorsMatchSplitImageDiffers(t *testing.T) {
	black := solidImage(color.RGBA{0, 0, 0, 255})
	white := solidImage(color.RGBA{255, 255, 255, 255})

	// A uniform image's pixels all equal the mean, so every bit is set by
	// the ">= mean" rule regardless of absolute brightness: black and white
	// each hash to all-ones, and the real signal is in non-uniform images.
	// Exercise that instead of expecting solid colors to differ.
	half := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			if x < 16 {
				half.Set(x, y, color.RGBA{0, 0, 0, 255})
			} else {
				half.Set(x, y, color.RGBA{255, 255, 255, 255})
			}
		}
	}
	if HammingDistance(AverageHash(black), AverageHash(half)) == 0 {
		t.Error("expected a half-black-half-white image to differ from solid black")
	}
	if HammingDistance(AverageHash(black), AverageHash(white)) != 0 {
		t.Error("expected uniform black and white images to hash identically")
	}
}

func TestHammingDistance_Symmetric(t *testing.T) {
	if HammingDistance(0b1010, 0b0110) != HammingDistance(0b0110, 0b1010) {
		t.Error("expected HammingDistance to be symmetric")
	}
	if HammingDistance(0xFF, 0xFF) != 0 {
		t.Error("expected identical hashes to have 0 distance")
	}
}
