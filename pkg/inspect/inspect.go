// Package inspect provides an optional hook for observing intermediate
// arrays produced while scoring a lesion. Inspectors are never required by
// the scoring code and must not modify the matrices they receive.
package inspect

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// Stage names reported by the scoring packages.
const (
	StageWindow         = "window"
	StageEroded         = "eroded"
	StageBorder         = "border"
	StageDiffVertical   = "diff/vertical"
	StageDiffHorizontal = "diff/horizontal"
	StageDiffDownward   = "diff/downward"
	StageDiffUpward     = "diff/upward"
)

// Inspector receives a named intermediate matrix.
type Inspector interface {
	Inspect(stage string, m mat.Matrix)
}

// Func adapts a plain function to the Inspector interface.
type Func func(stage string, m mat.Matrix)

// Inspect calls f.
func (f Func) Inspect(stage string, m mat.Matrix) {
	f(stage, m)
}

// Report forwards m to in when in is non-nil.
func Report(in Inspector, stage string, m mat.Matrix) {
	if in == nil {
		return
	}
	in.Inspect(stage, m)
}

// Recorder keeps a copy of the last matrix seen for every stage.
type Recorder struct {
	mu     sync.Mutex
	stages map[string]*mat.Dense
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{stages: make(map[string]*mat.Dense)}
}

// Inspect stores a copy of m under stage.
func (r *Recorder) Inspect(stage string, m mat.Matrix) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages[stage] = mat.DenseCopyOf(m)
}

// Stage returns the recorded matrix for stage, if any.
func (r *Recorder) Stage(stage string) (*mat.Dense, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.stages[stage]
	return m, ok
}

// Stages lists the recorded stage names in sorted order.
func (r *Recorder) Stages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.stages))
	for name := range r.stages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Logger writes a debug line with the shape and sum of every matrix.
type Logger struct {
	Entry *logrus.Entry
}

// Inspect logs the stage summary.
func (l Logger) Inspect(stage string, m mat.Matrix) {
	if l.Entry == nil {
		return
	}
	rows, cols := m.Dims()
	l.Entry.WithFields(logrus.Fields{
		"stage": stage,
		"rows":  rows,
		"cols":  cols,
		"sum":   mat.Sum(m),
	}).Debug("Inspect stage")
}

// Multi fans a matrix out to several inspectors.
type Multi []Inspector

// Inspect forwards m to every non-nil inspector.
func (ms Multi) Inspect(stage string, m mat.Matrix) {
	for _, in := range ms {
		Report(in, stage, m)
	}
}
