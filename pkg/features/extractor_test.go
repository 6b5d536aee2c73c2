package features

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lesionshape/internal/models"
	"lesionshape/pkg/boundary"
	"lesionshape/pkg/inspect"
	"lesionshape/pkg/normalize"
)

// centeredSquare is the 10x10 fixture with a centered 4x4 lesion
func centeredSquare(t *testing.T) (*models.Image, *models.Mask) {
	t.Helper()
	mask := models.NewMask(10, 10)
	for r := 3; r < 7; r++ {
		for c := 3; c < 7; c++ {
			mask.Set(r, c, true)
		}
	}
	return models.NewImage(10, 10), mask
}

func diskMask(size int, cr, cc, radius float64) *models.Mask {
	m := models.NewMask(size, size)
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			if math.Hypot(float64(r)-cr, float64(c)-cc) <= radius {
				m.Set(r, c, true)
			}
		}
	}
	return m
}

func quietExtractor(opts Options) *Extractor {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	opts.Log = logrus.NewEntry(l)
	return NewExtractor(opts)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		expected Feature
	}{
		{"asymmetry", Asymmetry},
		{"Compactness", Compactness},
		{"  ASYMMETRY ", Asymmetry},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f, err := Parse(tc.name)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, f)
		})
	}
}

func TestFeatureString(t *testing.T) {
	assert.Equal(t, "asymmetry", Asymmetry.String())
	assert.Equal(t, "compactness", Compactness.String())
	assert.Equal(t, "Feature(7)", Feature(7).String())
	assert.Equal(t, []Feature{Asymmetry, Compactness}, All())
}

func TestParseRoundTrip(t *testing.T) {
	require.Len(t, featuresByName, int(numFeatures))
	for _, f := range All() {
		got, err := Parse(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}

	_, err := Parse("Feature(0)")
	assert.ErrorIs(t, err, ErrUnknownFeature)
}

func TestExtractCenteredSquare(t *testing.T) {
	img, mask := centeredSquare(t)
	e := quietExtractor(DefaultOptions())

	scores, err := e.AxisScores(img, mask)
	require.NoError(t, err)
	assert.Equal(t, 0.0, scores.Vertical)
	assert.Equal(t, 0.0, scores.Horizontal)
	assert.Equal(t, 0.0, scores.Downward)
	assert.Equal(t, 0.0, scores.Upward)

	direct, err := e.Asymmetry(img, mask)
	require.NoError(t, err)
	viaName, err := e.Extract("asymmetry", img, mask)
	require.NoError(t, err)

	assert.Equal(t, direct, viaName)
	assert.Equal(t, 0.0, viaName)
}

func TestExtractCompactnessMatchesMeasurer(t *testing.T) {
	img, mask := centeredSquare(t)
	e := quietExtractor(DefaultOptions())

	viaName, err := e.Extract("compactness", img, mask)
	require.NoError(t, err)
	direct, err := boundary.Compactness(mask)
	require.NoError(t, err)

	assert.Equal(t, direct, viaName)
}

func TestExtractUnknownFeature(t *testing.T) {
	img, mask := centeredSquare(t)
	e := quietExtractor(DefaultOptions())

	v, err := e.Extract("nonexistent_feature", img, mask)

	require.Error(t, err)
	assert.Equal(t, 0.0, v)
	assert.True(t, errors.Is(err, ErrUnknownFeature))
	var unknown *UnknownFeatureError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "nonexistent_feature", unknown.Name)

	_, err = e.ExtractFeature(Feature(42), img, mask)
	assert.True(t, errors.Is(err, ErrUnknownFeature))
}

func TestEmptyMask(t *testing.T) {
	img := models.NewImage(12, 12)
	mask := models.NewMask(12, 12)
	e := quietExtractor(DefaultOptions())

	for _, f := range All() {
		t.Run(f.String(), func(t *testing.T) {
			_, err := e.ExtractFeature(f, img, mask)
			assert.True(t, errors.Is(err, models.ErrEmptyMask))
		})
	}

	_, _, err := e.ComputeAll(img, mask)
	assert.True(t, errors.Is(err, models.ErrEmptyMask))
}

func TestShapeMismatch(t *testing.T) {
	_, mask := centeredSquare(t)
	e := quietExtractor(DefaultOptions())

	_, err := e.Extract("compactness", models.NewImage(8, 10), mask)

	assert.True(t, errors.Is(err, models.ErrShapeMismatch))
}

func TestNilImageAccepted(t *testing.T) {
	_, mask := centeredSquare(t)
	e := quietExtractor(DefaultOptions())

	_, err := e.Extract("asymmetry", nil, mask)

	assert.NoError(t, err)
}

func TestComputeAll(t *testing.T) {
	mask := diskMask(80, 37, 44, 15)
	img := models.NewImage(80, 80)
	e := quietExtractor(DefaultOptions())

	asym, compact, err := e.ComputeAll(img, mask)
	require.NoError(t, err)

	expectedAsym, err := e.Asymmetry(img, mask)
	require.NoError(t, err)
	expectedCompact, err := e.Compactness(img, mask)
	require.NoError(t, err)
	assert.Equal(t, expectedAsym, asym)
	assert.Equal(t, expectedCompact, compact)
}

func TestExtractAll(t *testing.T) {
	img, mask := centeredSquare(t)
	e := quietExtractor(DefaultOptions())

	out, err := e.ExtractAll([]string{"compactness", "Asymmetry"}, img, mask)
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Contains(t, out, "compactness")
	assert.Contains(t, out, "asymmetry")

	_, err = e.ExtractAll([]string{"asymmetry", "color"}, img, mask)
	assert.True(t, errors.Is(err, ErrUnknownFeature))
}

func TestExtractIdempotent(t *testing.T) {
	mask := diskMask(64, 30, 35, 11)
	mask.Set(30, 50, true)
	img := models.NewImage(64, 64)
	e := quietExtractor(DefaultOptions())

	for _, f := range All() {
		first, err := e.ExtractFeature(f, img, mask)
		require.NoError(t, err)
		second, err := e.ExtractFeature(f, img, mask)
		require.NoError(t, err)
		assert.Equal(t, first, second, "feature %s", f)
	}
}

// TestDiskDiagonalsAgree checks the two diagonal ratios of a disk agree up
// to pixel quantization
func TestDiskDiagonalsAgree(t *testing.T) {
	mask := diskMask(200, 100, 100, 40)
	e := quietExtractor(DefaultOptions())

	scores, err := e.AxisScores(nil, mask)
	require.NoError(t, err)

	assert.InDelta(t, scores.Downward, scores.Upward, 0.1)
	assert.InDelta(t, scores.Vertical, scores.Horizontal, 1e-12)
}

func TestSinglePixelLesion(t *testing.T) {
	mask := models.NewMask(20, 20)
	mask.Set(5, 5, true)
	e := quietExtractor(DefaultOptions())

	asym, compact, err := e.ComputeAll(nil, mask)
	require.NoError(t, err)

	assert.False(t, math.IsNaN(asym) || math.IsInf(asym, 0))
	assert.GreaterOrEqual(t, asym, 0.0)
	assert.InDelta(t, 1/(4*math.Pi), compact, 1e-12)
}

func TestExtractorInspector(t *testing.T) {
	img, mask := centeredSquare(t)
	rec := inspect.NewRecorder()
	e := quietExtractor(Options{
		Normalize: normalize.DefaultOptions(),
		Inspector: rec,
	})

	_, _, err := e.ComputeAll(img, mask)
	require.NoError(t, err)

	assert.Equal(t, []string{
		inspect.StageBorder,
		inspect.StageDiffDownward,
		inspect.StageDiffHorizontal,
		inspect.StageDiffUpward,
		inspect.StageDiffVertical,
		inspect.StageEroded,
		inspect.StageWindow,
	}, rec.Stages())
}

func TestExtractorConcurrentUse(t *testing.T) {
	mask := diskMask(64, 28, 33, 12)
	e := quietExtractor(DefaultOptions())
	expected, err := e.Asymmetry(nil, mask)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]float64, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = e.Asymmetry(nil, mask)
		}(i)
	}
	wg.Wait()

	for _, v := range results {
		assert.Equal(t, expected, v)
	}
}

// TestLesionNearTopEdge keeps the horizontal split at the middle of the
// clamped 38-row crop: rows 5-12 of the lesion have no counterpart while
// rows 13-24 mirror each other
func TestLesionNearTopEdge(t *testing.T) {
	mask := models.NewMask(100, 100)
	for r := 5; r < 25; r++ {
		for c := 30; c < 50; c++ {
			mask.Set(r, c, true)
		}
	}
	e := quietExtractor(DefaultOptions())

	scores, err := e.AxisScores(nil, mask)
	require.NoError(t, err)

	assert.InDelta(t, 0.8, scores.Horizontal, 1e-12)
	assert.InDelta(t, 1.6, scores.Vertical, 1e-12)
}
