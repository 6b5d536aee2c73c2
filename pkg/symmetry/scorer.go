// Package symmetry scores the reflective asymmetry of a normalized lesion
// window along four axes.
package symmetry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"lesionshape/internal/models"
	"lesionshape/pkg/inspect"
)

// ErrInvalidWindow is returned for empty windows or windows with an odd
// side.
var ErrInvalidWindow = errors.New("window sides must be even and non-zero")

// Axis identifies a reflection axis.
type Axis int

const (
	Vertical Axis = iota
	Horizontal
	DownwardDiagonal
	UpwardDiagonal
)

func (a Axis) String() string {
	switch a {
	case Vertical:
		return "vertical"
	case Horizontal:
		return "horizontal"
	case DownwardDiagonal:
		return "downward-diagonal"
	case UpwardDiagonal:
		return "upward-diagonal"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// Axes lists the reflection axes in scoring order.
var Axes = []Axis{Vertical, Horizontal, DownwardDiagonal, UpwardDiagonal}

// Scores holds the per-axis mismatch ratios. Each ratio is twice the number
// of mismatched pixels divided by the lesion area; 0 means the window is
// symmetric along that axis.
type Scores struct {
	Vertical   float64
	Horizontal float64
	Downward   float64
	Upward     float64
}

// Ratios returns the four ratios in Axes order.
func (s Scores) Ratios() []float64 {
	return []float64{s.Vertical, s.Horizontal, s.Downward, s.Upward}
}

// Axis returns the ratio for a single axis.
func (s Scores) Axis(a Axis) float64 {
	switch a {
	case Vertical:
		return s.Vertical
	case Horizontal:
		return s.Horizontal
	case DownwardDiagonal:
		return s.Downward
	case UpwardDiagonal:
		return s.Upward
	default:
		return math.NaN()
	}
}

// Mean is the asymmetry score: the arithmetic mean of the four ratios.
func (s Scores) Mean() float64 {
	return stat.Mean(s.Ratios(), nil)
}

// Scorer computes Scores for normalized windows. The zero value is ready to
// use.
type Scorer struct {
	// Inspector receives the per-axis difference maps, may be nil
	Inspector inspect.Inspector
}

// NewScorer creates a scorer reporting to in.
func NewScorer(in inspect.Inspector) *Scorer {
	return &Scorer{Inspector: in}
}

// Score compares each half of window with the reflection of its opposite
// half. area is the pixel count of the whole lesion, not of the window.
// The diagonal splits run on a copy of window padded with zeros at the
// bottom and right to a square; the vertical and horizontal splits use the
// window as given.
func (s *Scorer) Score(window mat.Matrix, area int) (Scores, error) {
	if area <= 0 {
		return Scores{}, fmt.Errorf("symmetry: %w", models.ErrEmptyMask)
	}
	rows, cols := window.Dims()
	if rows == 0 || cols == 0 || rows%2 != 0 || cols%2 != 0 {
		return Scores{}, fmt.Errorf("%w: got %dx%d", ErrInvalidWindow, rows, cols)
	}

	square := padSquare(window)
	return Scores{
		Vertical:   s.ratio(inspect.StageDiffVertical, verticalDiff(window), area),
		Horizontal: s.ratio(inspect.StageDiffHorizontal, horizontalDiff(window), area),
		Downward:   s.ratio(inspect.StageDiffDownward, diagonalDiff(square), area),
		Upward:     s.ratio(inspect.StageDiffUpward, diagonalDiff(flipCols(square)), area),
	}, nil
}

func (s *Scorer) ratio(stage string, diff *mat.Dense, area int) float64 {
	inspect.Report(s.Inspector, stage, diff)
	return 2 * mat.Sum(diff) / float64(area)
}

// verticalDiff compares the right half with the mirrored left half
func verticalDiff(w mat.Matrix) *mat.Dense {
	rows, cols := w.Dims()
	half := cols / 2
	left := submatrix(w, 0, rows, 0, half)
	right := submatrix(w, 0, rows, half, cols)
	return absDiff(right, flipCols(left))
}

// horizontalDiff compares the bottom half with the mirrored top half
func horizontalDiff(w mat.Matrix) *mat.Dense {
	rows, cols := w.Dims()
	half := rows / 2
	top := submatrix(w, 0, half, 0, cols)
	bottom := submatrix(w, half, rows, 0, cols)
	return absDiff(bottom, flipRows(top))
}

// padSquare copies w into the top-left corner of a zero square whose side
// is the larger of the two dimensions
func padSquare(w mat.Matrix) *mat.Dense {
	rows, cols := w.Dims()
	side := rows
	if cols > side {
		side = cols
	}
	out := mat.NewDense(side, side, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out.Set(r, c, w.At(r, c))
		}
	}
	return out
}

// diagonalDiff compares the lower triangle with the transposed upper
// triangle. Both triangles include the main diagonal.
func diagonalDiff(w mat.Matrix) *mat.Dense {
	upper := triangle(w, true)
	lower := triangle(w, false)
	return absDiff(lower, upper.T())
}

func absDiff(a, b mat.Matrix) *mat.Dense {
	var d mat.Dense
	d.Sub(a, b)
	d.Apply(func(_, _ int, v float64) float64 {
		return math.Abs(v)
	}, &d)
	return &d
}

func submatrix(w mat.Matrix, r0, r1, c0, c1 int) *mat.Dense {
	out := mat.NewDense(r1-r0, c1-c0, nil)
	for r := r0; r < r1; r++ {
		for c := c0; c < c1; c++ {
			out.Set(r-r0, c-c0, w.At(r, c))
		}
	}
	return out
}

func flipCols(w mat.Matrix) *mat.Dense {
	rows, cols := w.Dims()
	out := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out.Set(r, cols-1-c, w.At(r, c))
		}
	}
	return out
}

func flipRows(w mat.Matrix) *mat.Dense {
	rows, cols := w.Dims()
	out := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out.Set(rows-1-r, c, w.At(r, c))
		}
	}
	return out
}

// triangle keeps the upper (col >= row) or lower (col <= row) triangle
func triangle(w mat.Matrix, upper bool) *mat.Dense {
	rows, cols := w.Dims()
	out := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if (upper && c >= r) || (!upper && c <= r) {
				out.Set(r, c, w.At(r, c))
			}
		}
	}
	return out
}
