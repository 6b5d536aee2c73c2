// Package morphology implements binary morphological operations on lesion
// masks.
package morphology

import (
	"lesionshape/internal/models"
)

// Offset is a row/column displacement within a structuring element.
type Offset struct {
	DRow, DCol int
}

// StructuringElement is the neighborhood a pixel must fully cover to survive
// erosion.
type StructuringElement []Offset

// Cross is the 4-connected structuring element: the center plus its four
// orthogonal neighbors.
var Cross = StructuringElement{
	{0, 0},
	{-1, 0},
	{1, 0},
	{0, -1},
	{0, 1},
}

// Erode returns a new mask holding the pixels of m whose whole neighborhood
// under se is foreground. Pixels outside the mask count as background, so
// foreground touching the edge is always eroded.
func Erode(m *models.Mask, se StructuringElement) *models.Mask {
	out := models.NewMask(m.Width, m.Height)
	for r := 0; r < m.Height; r++ {
		for c := 0; c < m.Width; c++ {
			if !m.At(r, c) {
				continue
			}
			keep := true
			for _, o := range se {
				if !m.At(r+o.DRow, c+o.DCol) {
					keep = false
					break
				}
			}
			if keep {
				out.Data[r*m.Width+c] = 1
			}
		}
	}
	return out
}

// Border returns the pixels removed by one erosion with the cross element,
// i.e. the mask minus its eroded version.
func Border(m *models.Mask) *models.Mask {
	return Difference(m, Erode(m, Cross))
}

// Difference returns the pixels set in a but not in b. Both masks must share
// the same dimensions.
func Difference(a, b *models.Mask) *models.Mask {
	out := models.NewMask(a.Width, a.Height)
	for i := range a.Data {
		if a.Data[i] != 0 && b.Data[i] == 0 {
			out.Data[i] = 1
		}
	}
	return out
}

// Points lists the (row, col) coordinates of the foreground pixels of m in
// row-major order.
func Points(m *models.Mask) [][2]int {
	var pts [][2]int
	for r := 0; r < m.Height; r++ {
		for c := 0; c < m.Width; c++ {
			if m.Data[r*m.Width+c] != 0 {
				pts = append(pts, [2]int{r, c})
			}
		}
	}
	return pts
}
