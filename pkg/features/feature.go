// Package features exposes the lesion shape descriptors behind a fixed,
// name-addressable registry.
package features

import (
	"fmt"
	"strings"
)

// Feature identifies a registered shape descriptor.
type Feature int

const (
	Asymmetry Feature = iota
	Compactness
	numFeatures
)

var featureNames = [numFeatures]string{
	Asymmetry:   "asymmetry",
	Compactness: "compactness",
}

var featuresByName map[string]Feature

func init() {
	featuresByName = make(map[string]Feature, numFeatures)
	for i, name := range featureNames {
		featuresByName[name] = Feature(i)
	}
}

func (f Feature) String() string {
	if f < 0 || f >= numFeatures {
		return fmt.Sprintf("Feature(%d)", int(f))
	}
	return featureNames[f]
}

// All lists every feature in registry order.
func All() []Feature {
	out := make([]Feature, numFeatures)
	for i := range out {
		out[i] = Feature(i)
	}
	return out
}

// Parse resolves a feature name. Matching ignores case and surrounding
// whitespace.
func Parse(name string) (Feature, error) {
	f, ok := featuresByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, &UnknownFeatureError{Name: name}
	}
	return f, nil
}
