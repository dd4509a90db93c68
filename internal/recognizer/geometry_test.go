package recognizer

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIoU(t *testing.T) {
	tests := []struct {
		name string
		a, b image.Rectangle
		want float64
	}{
		{"identical", image.Rect(0, 0, 10, 10), image.Rect(0, 0, 10, 10), 1},
		{"disjoint", image.Rect(0, 0, 10, 10), image.Rect(20, 20, 30, 30), 0},
		{"touching", image.Rect(0, 0, 10, 10), image.Rect(10, 0, 20, 10), 0},
		{"half", image.Rect(0, 0, 10, 10), image.Rect(5, 0, 15, 10), 50.0 / 150.0},
		{"contained", image.Rect(0, 0, 10, 10), image.Rect(0, 0, 5, 5), 25.0 / 100.0},
		{"empty", image.Rectangle{}, image.Rect(0, 0, 5, 5), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, IoU(tt.a, tt.b), 1e-9)
			assert.InDelta(t, tt.want, IoU(tt.b, tt.a), 1e-9)
		})
	}
}

func TestLargest(t *testing.T) {
	assert.Equal(t, -1, largest(nil))

	rects := []image.Rectangle{
		image.Rect(0, 0, 10, 10),
		image.Rect(0, 0, 30, 30),
		image.Rect(50, 50, 80, 80),
	}
	assert.Equal(t, 1, largest(rects))
}

func TestBestOverlap(t *testing.T) {
	rects := []image.Rectangle{
		image.Rect(0, 0, 10, 10),
		image.Rect(100, 100, 140, 140),
		image.Rect(105, 105, 145, 145),
	}

	assert.Equal(t, 2, bestOverlap(rects, image.Rect(104, 104, 146, 146)))
	assert.Equal(t, 0, bestOverlap(rects, image.Rect(1, 1, 9, 9)))
	assert.Equal(t, -1, bestOverlap(rects, image.Rect(300, 300, 310, 310)))
	assert.Equal(t, -1, bestOverlap(nil, image.Rect(0, 0, 10, 10)))
}
