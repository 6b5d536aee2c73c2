package models

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"gonum.org/v1/gonum/mat"
)

// ErrEmptyMask is returned when a mask has no foreground pixels. Centroid,
// area-normalized ratios and compactness are undefined for such a mask.
var ErrEmptyMask = errors.New("mask has no foreground pixels")

// ErrShapeMismatch is returned when an image and its mask differ in size.
var ErrShapeMismatch = errors.New("image and mask dimensions differ")

// Image is a grayscale image stored row-major.
type Image struct {
	// Data holds intensity values, Data[row*Width+col]
	Data []float64

	Width  int
	Height int
}

// Mask is a binary lesion mask stored row-major. Values are 0 or 1.
type Mask struct {
	// Data holds presence flags, Data[row*Width+col]
	Data []uint8

	Width  int
	Height int
}

// Centroid is the center of mass of a mask in row/column coordinates.
type Centroid struct {
	Row, Col float64
}

// Pixel truncates the centroid to integer pixel coordinates.
func (c Centroid) Pixel() (row, col int) {
	return int(c.Row), int(c.Col)
}

// NewImage allocates a zero image of the given size.
func NewImage(width, height int) *Image {
	return &Image{
		Data:   make([]float64, width*height),
		Width:  width,
		Height: height,
	}
}

// NewMask allocates an empty mask of the given size.
func NewMask(width, height int) *Mask {
	return &Mask{
		Data:   make([]uint8, width*height),
		Width:  width,
		Height: height,
	}
}

// MaskFromRows builds a mask from a slice of rows. Any non-zero value is
// treated as foreground.
func MaskFromRows(rows [][]int) (*Mask, error) {
	if len(rows) == 0 {
		return NewMask(0, 0), nil
	}
	width := len(rows[0])
	m := NewMask(width, len(rows))
	for r, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", r, len(row), width)
		}
		for c, v := range row {
			if v != 0 {
				m.Data[r*width+c] = 1
			}
		}
	}
	return m, nil
}

// ImageFromGray converts a decoded image to a float grayscale image in the
// 0-1 range using the luminance weights of color.Gray16Model.
func ImageFromGray(img image.Image) *Image {
	bounds := img.Bounds()
	out := NewImage(bounds.Dx(), bounds.Dy())
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			g := color.Gray16Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray16)
			out.Data[y*out.Width+x] = float64(g.Y) / 65535.0
		}
	}
	return out
}

// MaskFromImage thresholds a decoded image: pixels whose intensity exceeds
// threshold (0-1 range) become foreground.
func MaskFromImage(img image.Image, threshold float64) *Mask {
	gray := ImageFromGray(img)
	m := NewMask(gray.Width, gray.Height)
	for i, v := range gray.Data {
		if v > threshold {
			m.Data[i] = 1
		}
	}
	return m
}

// At reports whether (row, col) is foreground. Coordinates outside the mask
// are background.
func (m *Mask) At(row, col int) bool {
	if row < 0 || col < 0 || row >= m.Height || col >= m.Width {
		return false
	}
	return m.Data[row*m.Width+col] != 0
}

// Set marks (row, col) as foreground or background.
func (m *Mask) Set(row, col int, on bool) {
	if on {
		m.Data[row*m.Width+col] = 1
	} else {
		m.Data[row*m.Width+col] = 0
	}
}

// Area counts foreground pixels.
func (m *Mask) Area() int {
	area := 0
	for _, v := range m.Data {
		if v != 0 {
			area++
		}
	}
	return area
}

// Centroid returns the center of mass of the foreground pixels.
func (m *Mask) Centroid() (Centroid, error) {
	var sumRow, sumCol float64
	n := 0
	for r := 0; r < m.Height; r++ {
		for c := 0; c < m.Width; c++ {
			if m.Data[r*m.Width+c] != 0 {
				sumRow += float64(r)
				sumCol += float64(c)
				n++
			}
		}
	}
	if n == 0 {
		return Centroid{}, ErrEmptyMask
	}
	return Centroid{Row: sumRow / float64(n), Col: sumCol / float64(n)}, nil
}

// Clone returns a deep copy of the mask.
func (m *Mask) Clone() *Mask {
	out := NewMask(m.Width, m.Height)
	copy(out.Data, m.Data)
	return out
}

// CheckShape verifies that img and m cover the same grid. A nil image is
// accepted since no implemented feature reads intensities.
func CheckShape(img *Image, m *Mask) error {
	if m == nil {
		return fmt.Errorf("nil mask: %w", ErrEmptyMask)
	}
	if img == nil {
		return nil
	}
	if img.Width != m.Width || img.Height != m.Height {
		return fmt.Errorf("%w: image %dx%d, mask %dx%d",
			ErrShapeMismatch, img.Width, img.Height, m.Width, m.Height)
	}
	return nil
}

// Dense returns the mask as a matrix of 0/1 values.
func (m *Mask) Dense() *mat.Dense {
	if m.Width == 0 || m.Height == 0 {
		return &mat.Dense{}
	}
	data := make([]float64, len(m.Data))
	for i, v := range m.Data {
		data[i] = float64(v)
	}
	return mat.NewDense(m.Height, m.Width, data)
}
