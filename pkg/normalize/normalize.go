// Package normalize crops a lesion mask to an even-sided window centered on
// the lesion's center of mass.
package normalize

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"lesionshape/internal/models"
	"lesionshape/pkg/inspect"
	"lesionshape/pkg/morphology"
)

// ClampPolicy selects how window upper bounds are clamped to the mask.
type ClampPolicy int

const (
	// ClampShared sets both upper bounds to min(height, width) whenever
	// either exceeds its axis.
	ClampShared ClampPolicy = iota
	// ClampPerAxis clamps each upper bound to its own axis length.
	ClampPerAxis
)

func (p ClampPolicy) String() string {
	switch p {
	case ClampShared:
		return "shared"
	case ClampPerAxis:
		return "perAxis"
	default:
		return fmt.Sprintf("ClampPolicy(%d)", int(p))
	}
}

// ParseClampPolicy maps a configuration value to a ClampPolicy. An empty
// string selects ClampShared.
func ParseClampPolicy(s string) (ClampPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "shared":
		return ClampShared, nil
	case "peraxis", "per-axis", "per_axis":
		return ClampPerAxis, nil
	default:
		return 0, fmt.Errorf("unknown clamp policy %q", s)
	}
}

// DefaultMargin is the number of pixels added to the largest
// centroid-to-border distance.
const DefaultMargin = 10

// Options configures a Normalizer.
type Options struct {
	// Margin is added to the largest centroid-to-border distance
	Margin int

	// Clamp selects the upper bound clamping behavior
	Clamp ClampPolicy

	// Inspector receives the final window, may be nil
	Inspector inspect.Inspector
}

// DefaultOptions returns the margin and clamping used by the classifier
// features.
func DefaultOptions() Options {
	return Options{
		Margin: DefaultMargin,
		Clamp:  ClampShared,
	}
}

// WithClamp returns a copy of opts using policy.
func (opts Options) WithClamp(policy ClampPolicy) Options {
	opts.Clamp = policy
	return opts
}

// WithInspector returns a copy of opts reporting to in.
func (opts Options) WithInspector(in inspect.Inspector) Options {
	opts.Inspector = in
	return opts
}

// Bounds is a half-open crop rectangle in row/column coordinates.
type Bounds struct {
	Row0, Row1 int
	Col0, Col1 int
}

// Rows returns the number of rows covered.
func (b Bounds) Rows() int { return b.Row1 - b.Row0 }

// Cols returns the number of columns covered.
func (b Bounds) Cols() int { return b.Col1 - b.Col0 }

// Normalizer produces symmetry windows from lesion masks. It holds no state
// between calls and is safe for concurrent use.
type Normalizer struct {
	opts Options
}

// NewNormalizer creates a normalizer with the given options.
func NewNormalizer(opts Options) *Normalizer {
	return &Normalizer{opts: opts}
}

// Options returns the normalizer configuration.
func (n *Normalizer) Options() Options {
	return n.opts
}

// Normalize crops m around its truncated centroid and appends a zero row at
// the bottom and a zero column at the right where needed so both sides are
// even. The window is square unless a bound was clamped.
func (n *Normalizer) Normalize(m *models.Mask) (*mat.Dense, error) {
	b, err := n.Bounds(m)
	if err != nil {
		return nil, err
	}

	rows, cols := b.Rows(), b.Cols()
	if rows%2 != 0 {
		rows++
	}
	if cols%2 != 0 {
		cols++
	}
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("degenerate window %+v: %w", b, models.ErrEmptyMask)
	}

	window := mat.NewDense(rows, cols, nil)
	for r := 0; r < b.Rows(); r++ {
		for c := 0; c < b.Cols(); c++ {
			if m.At(b.Row0+r, b.Col0+c) {
				window.Set(r, c, 1)
			}
		}
	}

	inspect.Report(n.opts.Inspector, inspect.StageWindow, window)
	return window, nil
}

// Bounds computes the crop rectangle used by Normalize.
func (n *Normalizer) Bounds(m *models.Mask) (Bounds, error) {
	centroid, err := m.Centroid()
	if err != nil {
		return Bounds{}, fmt.Errorf("normalize: %w", err)
	}
	cr, cc := centroid.Pixel()

	maxDist := MaxBorderDistance(m, cr, cc) + n.opts.Margin

	b := Bounds{
		Row0: cr - maxDist,
		Row1: cr + maxDist,
		Col0: cc - maxDist,
		Col1: cc + maxDist,
	}

	// Both lower bounds move together to keep the window square
	if b.Row0 < 0 || b.Col0 < 0 {
		b.Row0 = 0
		b.Col0 = 0
	}

	switch n.opts.Clamp {
	case ClampPerAxis:
		if b.Row1 > m.Height {
			b.Row1 = m.Height
		}
		if b.Col1 > m.Width {
			b.Col1 = m.Width
		}
	default:
		if b.Row1 > m.Height || b.Col1 > m.Width {
			shortest := m.Height
			if m.Width < shortest {
				shortest = m.Width
			}
			b.Row1 = shortest
			b.Col1 = shortest
		}
	}

	// The shared clamp can pull an upper bound below its lower bound on
	// non-square masks; treat that axis as empty.
	if b.Row1 < b.Row0 {
		b.Row1 = b.Row0
	}
	if b.Col1 < b.Col0 {
		b.Col1 = b.Col0
	}
	return b, nil
}

// MaxBorderDistance returns the largest Euclidean distance, truncated to an
// integer, from (row, col) to any border pixel of m.
func MaxBorderDistance(m *models.Mask, row, col int) int {
	points := morphology.Points(morphology.Border(m))
	if len(points) == 0 {
		return 0
	}
	dists := make([]float64, len(points))
	for i, p := range points {
		dr := float64(p[0] - row)
		dc := float64(p[1] - col)
		dists[i] = math.Trunc(math.Sqrt(dr*dr + dc*dc))
	}
	return int(floats.Max(dists))
}
