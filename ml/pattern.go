package ml

import (
	"fmt"
	"sync"
)

// TrainingPattern is one (features, expected output) example.
type TrainingPattern struct {
	Features            []float64 `json:"features"`
	MultipleExpectation []float64 `json:"multipleExpectation"`
}

func (p TrainingPattern) clone() TrainingPattern {
	return TrainingPattern{
		Features:            append([]float64(nil), p.Features...),
		MultipleExpectation: append([]float64(nil), p.MultipleExpectation...),
	}
}

// XORPatterns is the default pattern set.
func XORPatterns() []TrainingPattern {
	return []TrainingPattern{
		{Features: []float64{0, 0}, MultipleExpectation: []float64{0}},
		{Features: []float64{0, 1}, MultipleExpectation: []float64{1}},
		{Features: []float64{1, 0}, MultipleExpectation: []float64{1}},
		{Features: []float64{1, 1}, MultipleExpectation: []float64{0}},
	}
}

// PatternSet is the locally owned, user-editable list of training patterns.
// The server never mutates it; List hands out copies so a train request
// carries the set by value.
type PatternSet struct {
	mu       sync.RWMutex
	patterns []TrainingPattern
}

func NewPatternSet(initial []TrainingPattern) *PatternSet {
	ps := &PatternSet{}
	ps.Replace(initial)
	return ps
}

func (ps *PatternSet) List() []TrainingPattern {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	out := make([]TrainingPattern, len(ps.patterns))
	for i, p := range ps.patterns {
		out[i] = p.clone()
	}
	return out
}

func (ps *PatternSet) Len() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.patterns)
}

// Add appends a pattern and returns its index.
func (ps *PatternSet) Add(p TrainingPattern) int {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.patterns = append(ps.patterns, p.clone())
	return len(ps.patterns) - 1
}

func (ps *PatternSet) Remove(i int) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if i < 0 || i >= len(ps.patterns) {
		return fmt.Errorf("pattern index %d out of range [0,%d)", i, len(ps.patterns))
	}
	ps.patterns = append(ps.patterns[:i], ps.patterns[i+1:]...)
	return nil
}

func (ps *PatternSet) Replace(patterns []TrainingPattern) {
	next := make([]TrainingPattern, len(patterns))
	for i, p := range patterns {
		next[i] = p.clone()
	}

	ps.mu.Lock()
	ps.patterns = next
	ps.mu.Unlock()
}
