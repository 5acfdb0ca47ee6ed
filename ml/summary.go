package ml

import "gonum.org/v1/gonum/floats"

// LayerSummary condenses one layer for dashboards and legends.
type LayerSummary struct {
	Neurons       int     `json:"neurons"`
	Connections   int     `json:"connections"`
	MinWeight     float64 `json:"minWeight"`
	MaxWeight     float64 `json:"maxWeight"`
	MeanAbsWeight float64 `json:"meanAbsWeight"`
	MeanValue     float64 `json:"meanValue"`
}

// Summarize reports weight and activation ranges per layer. Only weights
// that map to an existing neuron of the preceding layer are counted.
func Summarize(s NetworkState) []LayerSummary {
	out := make([]LayerSummary, len(s.Layers))
	for i, l := range s.Layers {
		sum := LayerSummary{Neurons: len(l.Neurons)}

		values := make([]float64, len(l.Neurons))
		var weights []float64
		for j, n := range l.Neurons {
			values[j] = n.Value
			if i == 0 {
				continue
			}
			w := n.Weights
			if prev := len(s.Layers[i-1].Neurons); len(w) > prev {
				w = w[:prev]
			}
			weights = append(weights, w...)
		}

		if len(values) > 0 {
			sum.MeanValue = floats.Sum(values) / float64(len(values))
		}
		if len(weights) > 0 {
			sum.Connections = len(weights)
			sum.MinWeight = floats.Min(weights)
			sum.MaxWeight = floats.Max(weights)
			sum.MeanAbsWeight = floats.Norm(weights, 1) / float64(len(weights))
		}
		out[i] = sum
	}
	return out
}
