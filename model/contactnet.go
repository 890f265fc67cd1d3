// Package model loads and evaluates the pretrained gait model artifacts:
// a dilated temporal convolutional network for initial-contact likelihoods
// and a Gaussian-process regressor for walking speed. Artifacts are plain
// JSON exported from the training pipeline; missing or malformed files
// degrade to the heuristic paths instead of failing startup.
package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// convLayer is one dilated 1-D convolution: Weights[out][in][tap], one bias
// per output channel.
type convLayer struct {
	Weights  [][][]float64 `json:"weights"`
	Bias     []float64     `json:"bias"`
	Dilation int           `json:"dilation"`
}

// ContactNet is a stack of dilated convolutions with ReLU between layers and
// a sigmoid head. It maps a conditioned six-channel window to one
// initial-contact likelihood per sample.
type ContactNet struct {
	Layers []convLayer `json:"layers"`
}

// LoadContactNet reads and validates a network artifact.
func LoadContactNet(path string) (*ContactNet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read contact network: %w", err)
	}
	var net ContactNet
	if err := json.Unmarshal(data, &net); err != nil {
		return nil, fmt.Errorf("decode contact network: %w", err)
	}
	if err := net.validate(); err != nil {
		return nil, fmt.Errorf("contact network %s: %w", path, err)
	}
	return &net, nil
}

func (n *ContactNet) validate() error {
	if len(n.Layers) == 0 {
		return fmt.Errorf("no layers")
	}
	for i, l := range n.Layers {
		if len(l.Weights) == 0 || len(l.Weights) != len(l.Bias) {
			return fmt.Errorf("layer %d: weight/bias shape mismatch", i)
		}
		if len(l.Weights[0]) == 0 || len(l.Weights[0][0]) == 0 {
			return fmt.Errorf("layer %d: empty kernel", i)
		}
		if l.Dilation < 1 {
			return fmt.Errorf("layer %d: dilation %d", i, l.Dilation)
		}
		in := len(l.Weights[0])
		taps := len(l.Weights[0][0])
		for _, out := range l.Weights {
			if len(out) != in {
				return fmt.Errorf("layer %d: ragged input channels", i)
			}
			for _, ch := range out {
				if len(ch) != taps {
					return fmt.Errorf("layer %d: ragged kernel", i)
				}
			}
		}
		if i > 0 && in != len(n.Layers[i-1].Weights) {
			return fmt.Errorf("layer %d: expects %d input channels, previous layer emits %d",
				i, in, len(n.Layers[i-1].Weights))
		}
	}
	if len(n.Layers[len(n.Layers)-1].Weights) != 1 {
		return fmt.Errorf("head must emit a single channel")
	}
	return nil
}

// Predict implements the sequence-model contract: one likelihood in [0,1]
// per input sample. The window is [channel][sample] and must carry exactly
// the channel count the first layer was trained on.
func (n *ContactNet) Predict(window [][]float64) ([]float64, error) {
	if len(window) != len(n.Layers[0].Weights[0]) {
		return nil, fmt.Errorf("window has %d channels, network expects %d",
			len(window), len(n.Layers[0].Weights[0]))
	}
	if len(window) == 0 || len(window[0]) == 0 {
		return nil, fmt.Errorf("empty window")
	}

	act := window
	for li, layer := range n.Layers {
		act = layer.forward(act)
		last := li == len(n.Layers)-1
		for _, ch := range act {
			for i, v := range ch {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return nil, fmt.Errorf("non-finite activation in layer %d", li)
				}
				if last {
					ch[i] = sigmoid(v)
				} else if v < 0 {
					ch[i] = 0
				}
			}
		}
	}
	return act[0], nil
}

// forward applies the layer with "same" padding: tap t of a kernel of size K
// reads input sample i + (t - (K-1)/2) * dilation, with out-of-range reads
// contributing zero.
func (l convLayer) forward(in [][]float64) [][]float64 {
	length := len(in[0])
	taps := len(l.Weights[0][0])
	half := (taps - 1) / 2

	out := make([][]float64, len(l.Weights))
	for oc, kernel := range l.Weights {
		row := make([]float64, length)
		for i := range row {
			acc := l.Bias[oc]
			for ic, w := range kernel {
				for t, coeff := range w {
					j := i + (t-half)*l.Dilation
					if j >= 0 && j < length {
						acc += coeff * in[ic][j]
					}
				}
			}
			row[i] = acc
		}
		out[oc] = row
	}
	return out
}

func sigmoid(v float64) float64 { return 1 / (1 + math.Exp(-v)) }
