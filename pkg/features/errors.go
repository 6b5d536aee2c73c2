package features

import (
	"errors"
	"fmt"
)

// ErrUnknownFeature matches any UnknownFeatureError via errors.Is.
var ErrUnknownFeature = errors.New("unknown feature")

// UnknownFeatureError reports a feature name that is not registered.
type UnknownFeatureError struct {
	Name string
}

// Error implements the error interface
func (e *UnknownFeatureError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownFeature, e.Name)
}

// Is lets errors.Is(err, ErrUnknownFeature) match.
func (e *UnknownFeatureError) Is(target error) bool {
	return target == ErrUnknownFeature
}
