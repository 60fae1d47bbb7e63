package tree

import (
	"math"
	"strings"

	"github.com/YuminosukeSato/scitree/pkg/errors"
)

// SplitRule selects the impurity measure used to score candidate splits.
type SplitRule int

const (
	// Gini is 1 - Σ p_i².
	Gini SplitRule = iota
	// Entropy is -Σ p_i log2 p_i.
	Entropy
	// ClassificationError is |1 - max p_i|.
	ClassificationError
)

// String returns the configuration name of the rule.
func (r SplitRule) String() string {
	switch r {
	case Gini:
		return "gini"
	case Entropy:
		return "entropy"
	case ClassificationError:
		return "classification_error"
	default:
		return "unknown"
	}
}

// ParseSplitRule converts a configuration name into a SplitRule.
func ParseSplitRule(name string) (SplitRule, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "gini":
		return Gini, nil
	case "entropy":
		return Entropy, nil
	case "classification_error", "error":
		return ClassificationError, nil
	default:
		return Gini, errors.NewValidationError("criterion", "unknown split rule", name)
	}
}

// Impurity computes the node impurity of a class histogram. total must be
// positive and equal to the sum of counts. Classes with a zero count are
// skipped, so log2(0) is never evaluated.
func (r SplitRule) Impurity(counts []int, total int) float64 {
	n := float64(total)

	switch r {
	case Gini:
		impurity := 1.0
		for _, c := range counts {
			if c > 0 {
				p := float64(c) / n
				impurity -= p * p
			}
		}
		return impurity

	case Entropy:
		impurity := 0.0
		for _, c := range counts {
			if c > 0 {
				p := float64(c) / n
				impurity -= p * math.Log2(p)
			}
		}
		return impurity

	case ClassificationError:
		maxP := 0.0
		for _, c := range counts {
			if c > 0 {
				maxP = math.Max(maxP, float64(c)/n)
			}
		}
		return math.Abs(1 - maxP)
	}

	return 0
}
