package tree

import (
	"io"

	"github.com/YuminosukeSato/scitree/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Params holds the classifier hyperparameters in a form that can be stored
// in YAML or JSON configuration files.
type Params struct {
	Criterion       string `json:"criterion" yaml:"criterion"`
	MaxLeafNodes    int    `json:"max_leaf_nodes" yaml:"max_leaf_nodes"`       // 0 means unlimited
	MaxDepth        int    `json:"max_depth" yaml:"max_depth"`                 // 0 means unlimited
	MinSamplesSplit int    `json:"min_samples_split" yaml:"min_samples_split"` // Minimum size of a node that may split
	MinSamplesLeaf  int    `json:"min_samples_leaf" yaml:"min_samples_leaf"`   // Minimum size of each side of a split
	MaxFeatures     int    `json:"max_features" yaml:"max_features"`           // 0 means all features
	RandomState     int64  `json:"random_state" yaml:"random_state"`           // Negative means unseeded
	NJobs           int    `json:"n_jobs" yaml:"n_jobs"`                       // <= 0 means one worker per CPU
}

// DefaultParams returns the hyperparameters of NewDecisionTreeClassifier.
func DefaultParams() Params {
	return Params{
		Criterion:       "gini",
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		RandomState:     -1,
		NJobs:           1,
	}
}

// LoadParams reads hyperparameters from YAML or JSON. Missing keys keep
// their DefaultParams value.
func LoadParams(r io.Reader) (Params, error) {
	p := DefaultParams()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && err != io.EOF {
		return Params{}, errors.MarkInvalidArgument(errors.Wrap(err, "decode tree params"))
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// Validate checks value ranges that do not depend on the training data.
func (p Params) Validate() error {
	if _, err := ParseSplitRule(p.Criterion); err != nil {
		return err
	}
	if p.MaxLeafNodes != 0 && p.MaxLeafNodes < 2 {
		return errors.NewValidationError("max_leaf_nodes", "must be 0 or at least 2", p.MaxLeafNodes)
	}
	if p.MaxDepth < 0 {
		return errors.NewValidationError("max_depth", "must be non-negative", p.MaxDepth)
	}
	if p.MinSamplesSplit < 2 {
		return errors.NewValidationError("min_samples_split", "must be at least 2", p.MinSamplesSplit)
	}
	if p.MinSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be at least 1", p.MinSamplesLeaf)
	}
	if p.MaxFeatures < 0 {
		return errors.NewValidationError("max_features", "must be non-negative", p.MaxFeatures)
	}
	return nil
}
