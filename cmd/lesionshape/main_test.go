package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSquareMask(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	for y := 3; y < 7; y++ {
		for x := 3; x < 7; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	path := filepath.Join(dir, "mask.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	featureNames = nil
	imagePath = ""
	outputFormat = "text"
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestExtractJSON(t *testing.T) {
	dir := t.TempDir()
	mask := writeSquareMask(t, dir)

	out, err := runCLI(t, "extract", "--config", filepath.Join(dir, "none.yaml"), "--mask", mask, "--output", "json")
	require.NoError(t, err)

	var scores map[string]float64
	require.NoError(t, json.Unmarshal([]byte(out), &scores))
	assert.Equal(t, 0.0, scores["asymmetry"])
	assert.InDelta(t, 144/(64*3.141592653589793), scores["compactness"], 1e-9)
}

func TestExtractUnknownFeature(t *testing.T) {
	dir := t.TempDir()
	mask := writeSquareMask(t, dir)

	_, err := runCLI(t, "extract", "--config", filepath.Join(dir, "none.yaml"), "--mask", mask, "--feature", "color")

	assert.Error(t, err)
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "lesionshape.yaml")

	out, err := runCLI(t, "init-config", "--config", path)
	require.NoError(t, err)

	assert.Contains(t, out, path)
	assert.FileExists(t, path)
}
