// Package classifier loads and runs the trained phishing model. The model
// is an opaque collaborator to the rest of the system: it consumes the
// fixed-order feature vector and produces a label with a confidence
// percentage. A missing or broken model degrades to the typed Absent
// variant instead of a nil handle.
package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"phishguard/internal/models"
)

// Prediction is the classifier output consumed by the verdict composer.
// Confidence is a percentage whose meaning depends on the label: the
// probability of phishing for PHISHING, of safety for SAFE.
type Prediction struct {
	Label      string
	Confidence float64
}

// Classifier is the inference contract. Implementations must be safe for
// concurrent use and must never fail a scan: internal errors degrade to
// an UNKNOWN prediction with zero confidence.
type Classifier interface {
	Predict(features []float64) Prediction
}

// Absent is the no-model variant used when no trained model is available.
// Scans still complete; the verdict composer then relies on the risk
// score alone.
type Absent struct{}

func (Absent) Predict([]float64) Prediction {
	return Prediction{Label: models.VerdictUnknown, Confidence: 0}
}

// node is one decision-tree node. Leaves carry the phishing probability
// observed at training time; internal nodes split on
// features[Feature] <= Threshold.
type node struct {
	Leaf      bool    `json:"leaf"`
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      *node   `json:"left,omitempty"`
	Right     *node   `json:"right,omitempty"`
	Phishing  float64 `json:"phishing,omitempty"`
}

// Forest is a JSON-persisted ensemble of decision trees. The predicted
// phishing probability is the mean of the per-tree leaf probabilities,
// matching how the ensemble was exported from training.
type Forest struct {
	NumFeatures int     `json:"num_features"`
	Trees       []*node `json:"trees"`
}

// Load reads a model file. A missing file is not an error: it yields the
// Absent classifier so an untrained deployment still serves scans.
func Load(path string) (Classifier, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Absent{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()

	var forest Forest
	if err := json.NewDecoder(f).Decode(&forest); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	if len(forest.Trees) == 0 {
		return nil, fmt.Errorf("model %s contains no trees", path)
	}
	return &forest, nil
}

// Predict runs the ensemble over a feature vector. A vector of the wrong
// shape means the caller and the model disagree on the extraction
// contract; the only safe answer is UNKNOWN.
func (f *Forest) Predict(features []float64) Prediction {
	if len(f.Trees) == 0 || len(features) != f.NumFeatures {
		return Absent{}.Predict(features)
	}

	sum := 0.0
	for _, tree := range f.Trees {
		sum += evalTree(tree, features)
	}
	probability := sum / float64(len(f.Trees))

	if probability >= 0.5 {
		return Prediction{Label: models.VerdictPhishing, Confidence: probability * 100}
	}
	return Prediction{Label: models.VerdictSafe, Confidence: (1 - probability) * 100}
}

func evalTree(n *node, features []float64) float64 {
	for n != nil {
		if n.Leaf {
			return n.Phishing
		}
		if n.Feature < 0 || n.Feature >= len(features) {
			return 0
		}
		if features[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return 0
}
