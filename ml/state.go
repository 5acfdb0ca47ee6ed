package ml

// NetworkState is the snapshot of the remote network as reported by the
// network service. It is replaced wholesale on every successful poll or
// command and never edited field by field.
type NetworkState struct {
	Layers []LayerState `json:"layers"`
	// Error and Epoch are absent until the first training run.
	Error *float64 `json:"error,omitempty"`
	Epoch *int     `json:"epoch,omitempty"`
}

type LayerState struct {
	Neurons []NeuronState `json:"neurons"`
}

// NeuronState holds one unit. Weights[k] is the weight of the connection
// from neuron k of the preceding layer; it is empty for the input layer.
type NeuronState struct {
	Weights []float64 `json:"weights"`
	Value   float64   `json:"value"`
	Bias    float64   `json:"bias"`
}

// TrainRequest is the body of POST /api/network/train.
type TrainRequest struct {
	Patterns []TrainingPattern `json:"patterns"`
	Epochs   int               `json:"epochs"`
}

// EpochOrZero returns the reported epoch, or 0 before the first training run.
func (s NetworkState) EpochOrZero() int {
	if s.Epoch == nil {
		return 0
	}
	return *s.Epoch
}

// ErrorOrZero returns the reported training loss, or 0 before the first training run.
func (s NetworkState) ErrorOrZero() float64 {
	if s.Error == nil {
		return 0
	}
	return *s.Error
}

// Shape returns the neuron count of every layer, input first.
func (s NetworkState) Shape() []int {
	shape := make([]int, len(s.Layers))
	for i, l := range s.Layers {
		shape[i] = len(l.Neurons)
	}
	return shape
}

// MaxNeurons returns the size of the widest layer, never less than 1.
func (s NetworkState) MaxNeurons() int {
	return MaxNeurons(s.Layers)
}

func MaxNeurons(layers []LayerState) int {
	max := 1
	for _, l := range layers {
		if len(l.Neurons) > max {
			max = len(l.Neurons)
		}
	}
	return max
}

// Malformed counts connections that cannot be drawn because a neuron's
// weight vector is shorter than its preceding layer, plus surplus weights
// that point at no neuron.
func (s NetworkState) Malformed() int {
	bad := 0
	for i := 1; i < len(s.Layers); i++ {
		prev := len(s.Layers[i-1].Neurons)
		for _, n := range s.Layers[i].Neurons {
			if d := prev - len(n.Weights); d > 0 {
				bad += d
			} else {
				bad -= d
			}
		}
	}
	return bad
}

// Clone returns a deep copy so that a snapshot handed to a reader cannot be
// mutated by a later decode into the same backing arrays.
func (s NetworkState) Clone() NetworkState {
	out := NetworkState{Layers: make([]LayerState, len(s.Layers))}
	if s.Error != nil {
		e := *s.Error
		out.Error = &e
	}
	if s.Epoch != nil {
		e := *s.Epoch
		out.Epoch = &e
	}
	for i, l := range s.Layers {
		neurons := make([]NeuronState, len(l.Neurons))
		for j, n := range l.Neurons {
			neurons[j] = NeuronState{
				Weights: append([]float64(nil), n.Weights...),
				Value:   n.Value,
				Bias:    n.Bias,
			}
		}
		out.Layers[i] = LayerState{Neurons: neurons}
	}
	return out
}
