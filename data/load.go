// Package data imports and exports training patterns.
package data

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"go_net_viz/ml"
)

// LoadPatterns picks the reader by file extension: .json is a pattern list,
// anything else is CSV.
func LoadPatterns(filename string, outputs int) ([]ml.TrainingPattern, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(filename), ".json") {
		return ReadPatternsJSON(file)
	}
	return ReadPatternsCSV(file, outputs)
}

func ReadPatternsJSON(r io.Reader) ([]ml.TrainingPattern, error) {
	var patterns []ml.TrainingPattern
	if err := json.NewDecoder(r).Decode(&patterns); err != nil {
		return nil, errors.Wrap(err, "decode patterns")
	}
	return patterns, nil
}

func SavePatterns(filename string, patterns []ml.TrainingPattern) error {
	data, err := json.MarshalIndent(patterns, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// ReadPatternsCSV reads patterns from CSV. The header row is skipped.
//
// With outputs > 0 the last outputs columns are numeric expectations. With
// outputs == 0 the last column is a class label, one-hot encoded over the
// distinct labels in sorted order.
//
// Feature columns that fail to parse as numbers are treated as categorical
// and one-hot encoded in sorted category order.
func ReadPatternsCSV(r io.Reader, outputs int) ([]ml.TrainingPattern, error) {
	if outputs < 0 {
		return nil, errors.Errorf("invalid output column count %d", outputs)
	}

	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) < 2 {
		return nil, errors.New("not enough rows in CSV")
	}

	numCols := len(records[0])
	targetCols := outputs
	if outputs == 0 {
		targetCols = 1
	}
	numFeatures := numCols - targetCols
	if numFeatures < 1 {
		return nil, errors.Errorf("CSV has %d columns, need at least %d", numCols, targetCols+1)
	}
	rows := records[1:]

	// --- Detect categorical columns ---
	isCategorical := make([]bool, numFeatures)
	categoryValues := make([]map[string]struct{}, numFeatures)
	for j := range numFeatures {
		categoryValues[j] = make(map[string]struct{})
	}

	for _, row := range rows {
		for j := range numFeatures {
			if _, err := strconv.ParseFloat(row[j], 64); err != nil {
				isCategorical[j] = true
				categoryValues[j][row[j]] = struct{}{}
			}
		}
	}

	// --- Create consistent ordering of categories for one-hot encoding ---
	categoryOrder := make([][]string, numFeatures)
	for j := range numFeatures {
		if isCategorical[j] {
			categoryOrder[j] = sortedKeys(categoryValues[j])
		}
	}

	var classes map[string]int
	if outputs == 0 {
		classes = classIndex(rows, numCols-1)
	}

	// --- Build patterns ---
	patterns := make([]ml.TrainingPattern, 0, len(rows))
	for i, row := range rows {
		var features []float64

		for j := range numFeatures {
			if isCategorical[j] {
				oneHot := make([]float64, len(categoryOrder[j]))
				for k, cat := range categoryOrder[j] {
					if row[j] == cat {
						oneHot[k] = 1.0
						break
					}
				}
				features = append(features, oneHot...)
				continue
			}
			val, _ := strconv.ParseFloat(row[j], 64)
			features = append(features, val)
		}

		var expectation []float64
		if outputs == 0 {
			label := row[numCols-1]
			expectation = ml.OneHotEncode(float64(classes[label]), len(classes))
		} else {
			for j := numFeatures; j < numCols; j++ {
				y, err := strconv.ParseFloat(row[j], 64)
				if err != nil {
					return nil, errors.Errorf("row %d: invalid target value %q in column %d", i+2, row[j], j)
				}
				expectation = append(expectation, y)
			}
		}

		patterns = append(patterns, ml.TrainingPattern{Features: features, MultipleExpectation: expectation})
	}

	return patterns, nil
}

// classIndex assigns each distinct label in column col its position in
// sorted order. Labels that all parse as numbers sort numerically.
func classIndex(rows [][]string, col int) map[string]int {
	set := make(map[string]struct{})
	for _, row := range rows {
		set[row[col]] = struct{}{}
	}
	labels := sortedKeys(set)

	numeric := true
	for _, l := range labels {
		if _, err := strconv.ParseFloat(l, 64); err != nil {
			numeric = false
			break
		}
	}
	if numeric {
		sort.Slice(labels, func(a, b int) bool {
			x, _ := strconv.ParseFloat(labels[a], 64)
			y, _ := strconv.ParseFloat(labels[b], 64)
			return x < y
		})
	}

	idx := make(map[string]int, len(labels))
	for i, l := range labels {
		idx[l] = i
	}
	return idx
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys) // deterministic order
	return keys
}
