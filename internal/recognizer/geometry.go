package recognizer

import "image"

// IoU returns the intersection over union of two rectangles, 0 when they do
// not overlap.
func IoU(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}

	union := area(a) + area(b) - area(inter)
	if union <= 0 {
		return 0
	}
	return float64(area(inter)) / float64(union)
}

func area(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}

// largest returns the index of the biggest rectangle, or -1 for none. Ties
// keep the first.
func largest(rects []image.Rectangle) int {
	best := -1
	for i, r := range rects {
		if best < 0 || area(r) > area(rects[best]) {
			best = i
		}
	}
	return best
}

// bestOverlap returns the index of the rectangle that overlaps target the
// most, or -1 when none overlaps it.
func bestOverlap(rects []image.Rectangle, target image.Rectangle) int {
	best, bestIoU := -1, 0.0
	for i, r := range rects {
		if iou := IoU(r, target); iou > bestIoU {
			best, bestIoU = i, iou
		}
	}
	return best
}
