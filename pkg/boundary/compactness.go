// Package boundary measures lesion perimeter and compactness.
package boundary

import (
	"fmt"
	"math"

	"lesionshape/internal/models"
	"lesionshape/pkg/inspect"
	"lesionshape/pkg/morphology"
)

// Measurement is the raw pixel counts behind a compactness value.
type Measurement struct {
	Perimeter int
	Area      int
}

// Compactness returns perimeter² / (4π·area).
func (m Measurement) Compactness() float64 {
	p := float64(m.Perimeter)
	return p * p / (4 * math.Pi * float64(m.Area))
}

// Measurer computes boundary measurements. The zero value is ready to use.
type Measurer struct {
	// Inspector receives the eroded mask and the border, may be nil
	Inspector inspect.Inspector
}

// NewMeasurer creates a measurer reporting to in.
func NewMeasurer(in inspect.Inspector) *Measurer {
	return &Measurer{Inspector: in}
}

// Measure erodes m with the 4-connected cross and counts the removed pixels
// as the perimeter.
func (ms *Measurer) Measure(m *models.Mask) (Measurement, error) {
	area := m.Area()
	if area == 0 {
		return Measurement{}, fmt.Errorf("boundary: %w", models.ErrEmptyMask)
	}

	eroded := morphology.Erode(m, morphology.Cross)
	border := morphology.Difference(m, eroded)
	if ms.Inspector != nil {
		ms.Inspector.Inspect(inspect.StageEroded, eroded.Dense())
		ms.Inspector.Inspect(inspect.StageBorder, border.Dense())
	}

	return Measurement{Perimeter: border.Area(), Area: area}, nil
}

// Compactness measures m and returns its compactness ratio.
func (ms *Measurer) Compactness(m *models.Mask) (float64, error) {
	meas, err := ms.Measure(m)
	if err != nil {
		return 0, err
	}
	return meas.Compactness(), nil
}

// Perimeter counts the border pixels of m.
func Perimeter(m *models.Mask) int {
	return morphology.Border(m).Area()
}

// Compactness is a convenience wrapper around a zero Measurer.
func Compactness(m *models.Mask) (float64, error) {
	return (&Measurer{}).Compactness(m)
}
