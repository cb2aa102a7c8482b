package detector

import "sort"

// nms drops proposals overlapping a higher-scoring one by more than iouThreshold.
func nms(boxes []Box, iouThreshold float32) []Box {
	if len(boxes) == 0 {
		return boxes
	}

	sort.Slice(boxes, func(i, j int) bool {
		return boxes[i].Score > boxes[j].Score
	})

	suppressed := make([]bool, len(boxes))
	kept := make([]Box, 0, len(boxes))
	for i := range boxes {
		if suppressed[i] {
			continue
		}
		kept = append(kept, boxes[i])
		for j := i + 1; j < len(boxes); j++ {
			if !suppressed[j] && iou(boxes[i].BoundingBox, boxes[j].BoundingBox) > iouThreshold {
				suppressed[j] = true
			}
		}
	}
	return kept
}

// iou calculates Intersection over Union of two bounding boxes
func iou(a, b BoundingBox) float32 {
	x1 := max(a.X1, b.X1)
	y1 := max(a.Y1, b.Y1)
	x2 := min(a.X2, b.X2)
	y2 := min(a.Y2, b.Y2)

	if x1 >= x2 || y1 >= y2 {
		return 0
	}

	intersection := (x2 - x1) * (y2 - y1)
	union := a.Area() + b.Area() - intersection
	if union <= 0 {
		return 0
	}
	return intersection / union
}
