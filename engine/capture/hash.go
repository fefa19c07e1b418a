// Package capture implements the agent-side capture loop's change detector
// and exclusion gate: a perceptual-hash trigger that decides whether a new
// screenshot differs enough from the last one to be worth keeping, and a
// hot-reloadable exclusion filter that skips private windows entirely.
package capture

import (
	"fmt"
	"image"
	"io"
	"math/bits"

	"github.com/disintegration/imaging"
)

// hashSize is the edge length of the grayscale thumbnail the average hash
// is computed over, giving a 64-bit hash (hashSize*hashSize bits).
const hashSize = 8

// AverageHash computes a 64-bit perceptual hash of img: downscale to an
// 8x8 grayscale thumbnail, then set bit i when pixel i is at or above the
// thumbnail's mean brightness. Near-identical images produce hashes with a
// small Hamming distance regardless of lossy re-encoding.
func AverageHash(img image.Image) uint64 {
	thumb := imaging.Resize(img, hashSize, hashSize, imaging.Lanczos)
	gray := imaging.Grayscale(thumb)

	var sum int
	pixels := make([]uint8, 0, hashSize*hashSize)
	bounds := gray.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, _, _, _ := gray.At(x, y).RGBA()
			v := uint8(r >> 8)
			pixels = append(pixels, v)
			sum += int(v)
		}
	}
	if len(pixels) == 0 {
		return 0
	}
	mean := sum / len(pixels)

	var hash uint64
	for i, v := range pixels {
		if int(v) >= mean {
			hash |= 1 << uint(i)
		}
	}
	return hash
}

// DecodeAndHash reads an image from r and returns its average hash.
func DecodeAndHash(r io.Reader) (uint64, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return 0, fmt.Errorf("capture: decode image: %w", err)
	}
	return AverageHash(img), nil
}

// HammingDistance returns the number of differing bits between two hashes.
func HammingDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}
