package features

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"lesionshape/internal/logger"
	"lesionshape/internal/models"
	"lesionshape/pkg/boundary"
	"lesionshape/pkg/inspect"
	"lesionshape/pkg/normalize"
	"lesionshape/pkg/symmetry"
)

// ComputeFunc computes a single descriptor for an image and its lesion mask.
type ComputeFunc func(img *models.Image, mask *models.Mask) (float64, error)

// Options configures an Extractor.
type Options struct {
	// Normalize controls window cropping for asymmetry
	Normalize normalize.Options

	// Inspector receives intermediate arrays from every stage, may be nil
	Inspector inspect.Inspector

	// Log receives debug output, defaults to the package logger
	Log *logrus.Entry
}

// DefaultOptions returns the options used by the classifier pipeline.
func DefaultOptions() Options {
	return Options{Normalize: normalize.DefaultOptions()}
}

// Extractor computes shape descriptors. It is stateless between calls and
// safe for concurrent use by multiple goroutines.
type Extractor struct {
	normalizer *normalize.Normalizer
	scorer     *symmetry.Scorer
	measurer   *boundary.Measurer
	registry   map[Feature]ComputeFunc
	log        *logrus.Entry
}

// NewExtractor builds an extractor and its registry. It panics if a
// declared Feature has no computation.
func NewExtractor(opts Options) *Extractor {
	normOpts := opts.Normalize
	if normOpts.Inspector == nil {
		normOpts.Inspector = opts.Inspector
	}
	log := opts.Log
	if log == nil {
		log = logrus.NewEntry(logger.Logger)
	}

	e := &Extractor{
		normalizer: normalize.NewNormalizer(normOpts),
		scorer:     symmetry.NewScorer(opts.Inspector),
		measurer:   boundary.NewMeasurer(opts.Inspector),
		log:        log.WithField("component", "features"),
	}
	e.registry = map[Feature]ComputeFunc{
		Asymmetry:   e.Asymmetry,
		Compactness: e.Compactness,
	}
	for _, f := range All() {
		if _, ok := e.registry[f]; !ok {
			panic(fmt.Sprintf("features: no computation registered for %s", f))
		}
	}
	return e
}

// AxisScores normalizes mask and returns the four per-axis asymmetry ratios.
func (e *Extractor) AxisScores(img *models.Image, mask *models.Mask) (symmetry.Scores, error) {
	if err := models.CheckShape(img, mask); err != nil {
		return symmetry.Scores{}, err
	}
	area := mask.Area()
	if area == 0 {
		return symmetry.Scores{}, fmt.Errorf("asymmetry: %w", models.ErrEmptyMask)
	}
	window, err := e.normalizer.Normalize(mask)
	if err != nil {
		return symmetry.Scores{}, err
	}
	return e.scorer.Score(window, area)
}

// Asymmetry returns the mean of the four per-axis ratios.
func (e *Extractor) Asymmetry(img *models.Image, mask *models.Mask) (float64, error) {
	scores, err := e.AxisScores(img, mask)
	if err != nil {
		return 0, err
	}
	e.log.WithFields(logrus.Fields{
		"vertical":   scores.Vertical,
		"horizontal": scores.Horizontal,
		"downward":   scores.Downward,
		"upward":     scores.Upward,
	}).Debug("Computed asymmetry")
	return scores.Mean(), nil
}

// Compactness returns perimeter² / (4π·area) for mask.
func (e *Extractor) Compactness(img *models.Image, mask *models.Mask) (float64, error) {
	if err := models.CheckShape(img, mask); err != nil {
		return 0, err
	}
	meas, err := e.measurer.Measure(mask)
	if err != nil {
		return 0, err
	}
	e.log.WithFields(logrus.Fields{
		"perimeter": meas.Perimeter,
		"area":      meas.Area,
	}).Debug("Computed compactness")
	return meas.Compactness(), nil
}

// ExtractFeature runs the computation registered for f.
func (e *Extractor) ExtractFeature(f Feature, img *models.Image, mask *models.Mask) (float64, error) {
	fn, ok := e.registry[f]
	if !ok {
		return 0, &UnknownFeatureError{Name: f.String()}
	}
	return fn(img, mask)
}

// Extract resolves name against the registry and runs its computation.
func (e *Extractor) Extract(name string, img *models.Image, mask *models.Mask) (float64, error) {
	f, err := Parse(name)
	if err != nil {
		return 0, err
	}
	return e.ExtractFeature(f, img, mask)
}

// ExtractAll runs every named feature and returns the scores keyed by
// canonical feature name. All names are resolved before any computation
// runs.
func (e *Extractor) ExtractAll(names []string, img *models.Image, mask *models.Mask) (map[string]float64, error) {
	selected := make([]Feature, 0, len(names))
	for _, name := range names {
		f, err := Parse(name)
		if err != nil {
			return nil, err
		}
		selected = append(selected, f)
	}

	out := make(map[string]float64, len(selected))
	for _, f := range selected {
		v, err := e.ExtractFeature(f, img, mask)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		out[f.String()] = v
	}
	return out, nil
}

// ComputeAll returns asymmetry and compactness, in that order.
func (e *Extractor) ComputeAll(img *models.Image, mask *models.Mask) (asymmetry, compactness float64, err error) {
	asymmetry, err = e.Asymmetry(img, mask)
	if err != nil {
		return 0, 0, err
	}
	compactness, err = e.Compactness(img, mask)
	if err != nil {
		return 0, 0, err
	}
	return asymmetry, compactness, nil
}
