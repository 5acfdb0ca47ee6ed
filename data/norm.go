package data

import (
	"math"
	"strings"

	"github.com/pkg/errors"

	"go_net_viz/ml"
)

//
// ──────────────────────────────────────────────────────────────
//   FEATURE SCALING FOR IMPORTED PATTERNS
// ──────────────────────────────────────────────────────────────
//

type Mode int

const (
	None Mode = iota
	MinMax
	ZScore
)

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return None, nil
	case "minmax":
		return MinMax, nil
	case "zscore":
		return ZScore, nil
	}
	return None, errors.Errorf("unknown scaling mode %q (valid: none, minmax, zscore)", s)
}

type MinMaxStats struct {
	Min []float64 `json:"min"`
	Max []float64 `json:"max"`
}

type ZScoreStats struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// ScaleFeatures rescales the features of patterns in place, column by
// column. Expectations are left untouched. All patterns must carry the
// same number of features.
func ScaleFeatures(patterns []ml.TrainingPattern, mode Mode) error {
	if mode == None || len(patterns) == 0 {
		return nil
	}

	X := make([][]float64, len(patterns))
	for i, p := range patterns {
		if len(p.Features) != len(patterns[0].Features) {
			return errors.Errorf("pattern %d has %d features, expected %d", i, len(p.Features), len(patterns[0].Features))
		}
		X[i] = p.Features
	}
	if len(X[0]) == 0 {
		return errors.New("empty input")
	}

	switch mode {
	case MinMax:
		applyMinMaxInPlace(X, ComputeMinMaxStats(X))
	case ZScore:
		applyZScoreInPlace(X, ComputeZScoreStats(X))
	}
	return nil
}

func ComputeMinMaxStats(X [][]float64) MinMaxStats {
	rows := len(X)
	cols := len(X[0])

	minVals := make([]float64, cols)
	maxVals := make([]float64, cols)

	for j := range cols {
		minVals[j] = X[0][j]
		maxVals[j] = X[0][j]
	}

	for i := 1; i < rows; i++ {
		for j := range cols {
			if X[i][j] < minVals[j] {
				minVals[j] = X[i][j]
			}
			if X[i][j] > maxVals[j] {
				maxVals[j] = X[i][j]
			}
		}
	}

	return MinMaxStats{Min: minVals, Max: maxVals}
}

func ComputeZScoreStats(X [][]float64) ZScoreStats {
	rows := len(X)
	cols := len(X[0])

	means := make([]float64, cols)
	stds := make([]float64, cols)

	for i := range rows {
		for j := range cols {
			means[j] += X[i][j]
		}
	}
	for j := range cols {
		means[j] /= float64(rows)
	}

	for i := range rows {
		for j := range cols {
			d := X[i][j] - means[j]
			stds[j] += d * d
		}
	}
	for j := range cols {
		stds[j] = math.Sqrt(stds[j] / float64(rows))
	}

	return ZScoreStats{Mean: means, Std: stds}
}

// constant columns collapse to 0
func applyMinMaxInPlace(X [][]float64, stats MinMaxStats) {
	for i := range X {
		for j := range X[i] {
			den := stats.Max[j] - stats.Min[j]
			if den == 0 {
				X[i][j] = 0
			} else {
				X[i][j] = (X[i][j] - stats.Min[j]) / den
			}
		}
	}
}

func applyZScoreInPlace(X [][]float64, stats ZScoreStats) {
	for i := range X {
		for j := range X[i] {
			if stats.Std[j] == 0 {
				X[i][j] = 0
			} else {
				X[i][j] = (X[i][j] - stats.Mean[j]) / stats.Std[j]
			}
		}
	}
}
